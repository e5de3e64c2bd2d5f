package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rr-lang/rr/internal/clilog"
	"github.com/rr-lang/rr/internal/config"
	"github.com/rr-lang/rr/internal/pipeline"
	"github.com/rr-lang/rr/internal/runner"
)

// rootCmd is the legacy single-file compile verb: `rr <input.rr>` compiles
// and, unless -o or --no-runtime says otherwise, immediately runs the
// result through Rscript — the same default original_source's cmd_legacy
// falls back to when neither `run` nor `build` is the first argument.
var rootCmd = &cobra.Command{
	Use:   "rr [input.rr]",
	Short: "RR compiles a small R-like language down to plain R.",
	Long: `RR lowers a statically-checked, R-flavored language to plain R
text through an SSA-based optimizing pipeline (Tachyon), then either
writes the result out or runs it directly via Rscript.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			cmd.Help()
			return
		}
		input := args[0]
		jsonOut := GetFlag(cmd, "json")
		if len(input) < 3 || input[len(input)-3:] != ".rr" {
			reportErr(fmt.Errorf("rr: input file must end with .rr"), jsonOut)
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

		out := GetString(cmd, "out")
		if out != "" {
			if err := os.WriteFile(out, []byte(res.RSource), 0o644); err != nil {
				reportErr(fmt.Errorf("rr: write output file %q: %w", out, err), jsonOut)
				os.Exit(1)
			}
			log.StepOK(fmt.Sprintf("compiled to %s", out))
			return
		}
		if cfg.NoRuntime {
			log.StepOK("compilation successful (runtime skipped)")
			return
		}
		os.Exit(runAndReport(res.RSource, cfg, log))
	},
}

// Execute is called once by main.main. It first rewrites legacy "-O0"-style
// bare tokens into the "--opt=N" form cobra's flag parser expects, then
// runs the root command.
func Execute() {
	os.Args = append(os.Args[:1], normalizeOptFlags(os.Args[1:])...)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().VarP(&optLevelFlag{level: &sharedOptLevel}, "opt", "O", "optimization level: 0, 1, or 2")
	rootCmd.PersistentFlags().Bool("keep-r", false, "keep the generated .gen.R file after running")
	rootCmd.PersistentFlags().Bool("no-runtime", false, "compile only, skip execution (legacy mode)")
	rootCmd.PersistentFlags().Bool("json", false, "emit diagnostics as rr.diagnostics/v1 JSON instead of the human format")
	rootCmd.Flags().StringP("out", "o", "", "write compiled R to this file instead of running it (legacy mode)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(buildCmd)
}

// sharedOptLevel backs the --opt/-O persistent flag; resolveConfig reads
// it after cobra has parsed the command line.
var sharedOptLevel = config.O1

func resolveConfig(cmd *cobra.Command) *config.Config {
	cfg := config.FromEnv()
	cfg.OptLevel = sharedOptLevel
	cfg.KeepR = GetFlag(cmd, "keep-r")
	cfg.NoRuntime = GetFlag(cmd, "no-runtime")
	return cfg
}

// runAndReport executes generated R source through Rscript and mirrors its
// exit code and stdout/stderr back to the caller, the way
// original_source's Runner::run drives the legacy and `run` verbs alike.
func runAndReport(source string, cfg *config.Config, log *clilog.Logger) int {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rn := runner.New(cfg.RRScript)
	res, err := rn.Run(ctx, source, 2*time.Minute)
	if err != nil {
		log.Error("failed to invoke %s: %v", cfg.RRScript, err)
		return 1
	}
	if res.TimedOut {
		log.Error("%s", res.Stderr)
		return 1
	}
	fmt.Print(res.Stdout)
	if res.Stderr != "" {
		fmt.Fprint(os.Stderr, res.Stderr)
	}
	return res.ExitCode
}
