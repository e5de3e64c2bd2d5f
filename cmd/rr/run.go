package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rr-lang/rr/internal/clilog"
	"github.com/rr-lang/rr/internal/pipeline"
)

// runCmd compiles and immediately executes a program, resolving a
// directory argument (or the bare default ".") to its main.rr the way
// original_source's resolve_run_input does.
var runCmd = &cobra.Command{
	Use:   "run [main.rr|dir|.]",
	Short: "Compile and run an RR program through Rscript.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		target := "."
		if len(args) == 1 {
			target = args[0]
		}
		jsonOut := GetFlag(cmd, "json")

		input, err := resolveRunInput(target)
		if err != nil {
			reportErr(fmt.Errorf("rr: %s", err), jsonOut)
			os.Exit(1)
		}

		cfg := resolveConfig(cmd)
		log := clilog.New()
		log.Banner(fmt.Sprintf("%s (%s)", Version, Commit))

		res, err := pipeline.Compile(input, cfg, log)
		if err != nil {
			reportErr(err, jsonOut)
			os.Exit(1)
		}

		if cfg.KeepR {
			keepPath := input[:len(input)-len(filepath.Ext(input))] + ".gen.R"
			if werr := os.WriteFile(keepPath, []byte(res.RSource), 0o644); werr != nil {
				log.Warn("failed to keep generated R at %s: %v", keepPath, werr)
			} else {
				log.Trace("kept generated R at %s", keepPath)
			}
		}

		os.Exit(runAndReport(res.RSource, cfg, log))
	},
}

// resolveRunInput resolves a `rr run` target to a concrete .rr file: a
// directory (or the literal ".") resolves to "<dir>/main.rr"; a bare file
// must already end in .rr.
func resolveRunInput(raw string) (string, error) {
	info, statErr := os.Stat(raw)
	isDir := statErr == nil && info.IsDir()

	if isDir || raw == "." {
		entry := filepath.Join(raw, "main.rr")
		if fi, ferr := os.Stat(entry); ferr == nil && !fi.IsDir() {
			return entry, nil
		}
		return "", fmt.Errorf("main.rr not found in %q", raw)
	}
	if statErr != nil {
		return "", fmt.Errorf("run target not found: %q", raw)
	}
	if filepath.Ext(raw) != ".rr" {
		return "", fmt.Errorf("run target must be a .rr file or directory")
	}
	return raw, nil
}
