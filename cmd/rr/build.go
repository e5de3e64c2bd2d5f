package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/rr-lang/rr/internal/clilog"
	"github.com/rr-lang/rr/internal/pipeline"
)

// buildCmd batch-compiles every .rr file under a directory (or a single
// file) to plain R text, mirroring original_source's cmd_build: skip
// build/target/.git while walking, preserve relative structure under
// --out-dir.
var buildCmd = &cobra.Command{
	Use:   "build [dir|file.rr]",
	Short: "Compile a directory or single file of RR sources to R.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		target := "."
		if len(args) == 1 {
			target = args[0]
		}
		outDir := GetString(cmd, "out-dir")
		jsonOut := GetFlag(cmd, "json")

		info, err := os.Stat(target)
		if err != nil {
			reportErr(fmt.Errorf("rr: build target not found: %q", target), jsonOut)
			os.Exit(1)
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			reportErr(fmt.Errorf("rr: create output directory %q: %w", outDir, err), jsonOut)
			os.Exit(1)
		}

		cfg := resolveConfig(cmd)
		log := clilog.New()
		log.Banner(fmt.Sprintf("%s (%s)", Version, Commit))
		log.StepOK(fmt.Sprintf("target: %s | out: %s", target, outDir))

		dirMode := info.IsDir()
		var files []string
		if dirMode {
			files, err = collectRRFiles(target)
			if err != nil {
				reportErr(fmt.Errorf("rr: scanning %q: %w", target, err), jsonOut)
				os.Exit(1)
			}
		} else if filepath.Ext(target) == ".rr" {
			files = []string{target}
		} else {
			reportErr(fmt.Errorf("rr: build target must be a directory or .rr file"), jsonOut)
			os.Exit(1)
		}
		sort.Strings(files)
		if len(files) == 0 {
			reportErr(fmt.Errorf("rr: no .rr files found under %q", target), jsonOut)
			os.Exit(1)
		}

		root := target
		if dirMode {
			if abs, aerr := filepath.Abs(target); aerr == nil {
				root = abs
			}
		}

		built := 0
		for _, f := range files {
			res, cerr := pipeline.Compile(f, cfg, log)
			if cerr != nil {
				reportErr(cerr, jsonOut)
				os.Exit(1)
			}

			var outFile string
			if dirMode {
				abs, aerr := filepath.Abs(f)
				if aerr != nil {
					abs = f
				}
				rel, rerr := filepath.Rel(root, abs)
				if rerr != nil {
					rel = filepath.Base(f)
				}
				outFile = filepath.Join(outDir, withExt(rel, ".R"))
			} else {
				outFile = filepath.Join(outDir, withExt(filepath.Base(f), ".R"))
			}

			if err := os.MkdirAll(filepath.Dir(outFile), 0o755); err != nil {
				reportErr(fmt.Errorf("rr: create directory %q: %w", filepath.Dir(outFile), err), jsonOut)
				os.Exit(1)
			}
			if err := os.WriteFile(outFile, []byte(res.RSource), 0o644); err != nil {
				reportErr(fmt.Errorf("rr: write %q: %w", outFile, err), jsonOut)
				os.Exit(1)
			}
			log.StepOK(fmt.Sprintf("built %s -> %s", f, outFile))
			built++
		}

		log.StepOK(fmt.Sprintf("build complete: %d file(s) -> %s", built, outDir))
	},
}

func init() {
	buildCmd.Flags().StringP("out-dir", "o", "build", "output directory for compiled .R files")
}

// withExt replaces path's extension with ext.
func withExt(path, ext string) string {
	return path[:len(path)-len(filepath.Ext(path))] + ext
}

// collectRRFiles walks dir recursively, collecting every *.rr file and
// skipping the usual build/vcs directories.
func collectRRFiles(dir string) ([]string, error) {
	var files []string
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.IsDir() {
			switch e.Name() {
			case "build", "target", ".git":
				continue
			}
			sub, err := collectRRFiles(path)
			if err != nil {
				return nil, err
			}
			files = append(files, sub...)
			continue
		}
		if filepath.Ext(e.Name()) == ".rr" {
			files = append(files, path)
		}
	}
	return files, nil
}
