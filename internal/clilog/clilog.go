// Package clilog renders RR's compiler-stage console output: the banner,
// per-stage progress lines, and the final "Tachyon Pulse" summary, in the
// teacher's arrow/checkmark style built on fatih/color.
package clilog

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Logger writes compiler-stage progress to an io.Writer, honoring
// NO_COLOR / RR_FORCE_COLOR and RR_VERBOSE_LOG for trace-level detail.
type Logger struct {
	w       io.Writer
	verbose bool
}

// New creates a Logger writing to stderr, resolving color and verbosity
// from the environment.
func New() *Logger {
	applyColorEnv()
	return &Logger{
		w:       os.Stderr,
		verbose: os.Getenv("RR_VERBOSE_LOG") != "",
	}
}

func applyColorEnv() {
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
	if os.Getenv("RR_FORCE_COLOR") != "" {
		color.NoColor = false
	}
}

// Banner prints the one-line startup banner for a compile run.
func (l *Logger) Banner(version string) {
	fmt.Fprintf(l.w, "%s %s\n", bold("rr"), version)
}

// Step announces the start of a pipeline stage, e.g. "[2/6] Lowering to MIR".
func (l *Logger) Step(n, total int, detail string) {
	fmt.Fprintf(l.w, "%s [%d/%d] %s\n", cyan("→"), n, total, detail)
}

// StepOK marks a pipeline stage complete.
func (l *Logger) StepOK(detail string) {
	fmt.Fprintf(l.w, "  %s %s\n", green("✓"), detail)
}

// Warn prints a non-fatal warning.
func (l *Logger) Warn(format string, args ...any) {
	fmt.Fprintf(l.w, "%s: %s\n", yellow("Warning"), fmt.Sprintf(format, args...))
}

// Error prints a fatal error.
func (l *Logger) Error(format string, args ...any) {
	fmt.Fprintf(l.w, "%s: %s\n", red("Error"), fmt.Sprintf(format, args...))
}

// Trace prints detail only when RR_VERBOSE_LOG is set.
func (l *Logger) Trace(format string, args ...any) {
	if !l.verbose {
		return
	}
	fmt.Fprintf(l.w, "  %s %s\n", yellow("trace"), fmt.Sprintf(format, args...))
}

// Pulse prints the optimizer's final summary line, e.g.
// "Tachyon Pulse Successful in 4ms (sccp:3 gvn:7 licm:1 dce:12)".
func (l *Logger) Pulse(elapsedMs int64, passHits map[string]int) {
	fmt.Fprintf(l.w, "%s Tachyon Pulse Successful in %dms (%s)\n", green("✓"), elapsedMs, formatHits(passHits))
}

func formatHits(hits map[string]int) string {
	order := []string{"sccp", "gvn", "licm", "bce", "tco", "dce", "inline", "vectorize"}
	out := ""
	for _, name := range order {
		if n, ok := hits[name]; ok {
			if out != "" {
				out += " "
			}
			out += fmt.Sprintf("%s:%d", name, n)
		}
	}
	return out
}
