package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rr-lang/rr/internal/config"
	"github.com/rr-lang/rr/internal/errors"
)

// GetFlag gets an expected bool flag, or exits with an explanatory message
// if cobra's own flag registration is broken — the same "this can only
// fail if a flag name was mistyped" panic-via-exit the pack's cobra CLIs
// use instead of threading an error back through every Run func.
func GetFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	return v
}

// GetString gets an expected string flag.
func GetString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	return v
}

// optLevelFlag is a pflag.Value accepting both the "-O0/-O1/-O2" and
// "-o0/-o1/-o2" spellings original_source's CLI took as bare tokens, plus
// the plain "0"/"1"/"2" a cobra-native `--opt=N` invocation would use.
type optLevelFlag struct {
	level *config.OptLevel
}

func (f *optLevelFlag) String() string {
	if f.level == nil {
		return "1"
	}
	switch *f.level {
	case config.O0:
		return "0"
	case config.O2:
		return "2"
	default:
		return "1"
	}
}

func (f *optLevelFlag) Set(s string) error {
	switch s {
	case "0", "O0", "o0":
		*f.level = config.O0
	case "1", "O1", "o1":
		*f.level = config.O1
	case "2", "O2", "o2", "O", "o":
		*f.level = config.O2
	default:
		return fmt.Errorf("invalid optimization level %q (want 0, 1, or 2)", s)
	}
	return nil
}

func (f *optLevelFlag) Type() string { return "optlevel" }

// normalizeOptFlags rewrites the bare "-O0"/"-o2"/"-O" style tokens
// original_source's hand-rolled scanner accepted into the "--opt=N" form
// pflag's parser understands, leaving every other argument untouched.
// This mirrors apply_opt_flag's own raw-token scanning, just feeding
// cobra's parser instead of a hand-written switch.
func normalizeOptFlags(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		switch a {
		case "-O0", "-o0":
			out = append(out, "--opt=0")
		case "-O1", "-o1":
			out = append(out, "--opt=1")
		case "-O2", "-o2", "-O":
			out = append(out, "--opt=2")
		default:
			out = append(out, a)
		}
	}
	return out
}

// reportErr prints err to stderr, as the structured --json schema when
// jsonOut is set and err wraps an *errors.Aggregate, or as plain text
// otherwise (a read error, a loader error, or any non-diagnostic failure).
func reportErr(err error, jsonOut bool) {
	if err == nil {
		return
	}
	if jsonOut {
		if agg, ok := errors.AsAggregate(err); ok {
			if text, jerr := agg.RenderJSON(false); jerr == nil {
				fmt.Fprintln(os.Stderr, text)
				return
			}
		}
	}
	fmt.Fprintln(os.Stderr, err.Error())
}
