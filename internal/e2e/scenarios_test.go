// Package e2e exercises whole-program compiles end to end, the concrete
// scenarios a golden corpus would cover (constant faults aggregating into
// one diagnostic, record field writes, for-loops over seq_len), each
// compiled at O1. Scenarios that describe runtime stdout are checked two
// ways: the emitted R's shape is asserted directly (always runs), and,
// when an Rscript binary is actually on PATH, the real stdout is checked
// against the literal expected lines too.
package e2e

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rr-lang/rr/internal/clilog"
	"github.com/rr-lang/rr/internal/config"
	"github.com/rr-lang/rr/internal/pipeline"
	"github.com/rr-lang/rr/internal/runner"
	"github.com/rr-lang/rr/testutil"
)

func quietLogger(t *testing.T) *clilog.Logger {
	t.Helper()
	old := os.Stderr
	_, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stderr = w
	t.Cleanup(func() {
		os.Stderr = old
		w.Close()
	})
	return clilog.New()
}

func compile(t *testing.T, src string, lvl config.OptLevel) (*pipeline.Result, error) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.rr")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	cfg := &config.Config{OptLevel: lvl}
	return pipeline.Compile(path, cfg, quietLogger(t))
}

// rscriptAvailable reports whether a real Rscript binary can be invoked,
// probing PATH before trusting an external interpreter is present.
func rscriptAvailable() bool {
	_, err := exec.LookPath("Rscript")
	return err == nil
}

func runViaRscript(t *testing.T, source string) string {
	t.Helper()
	rn := runner.New("Rscript")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := rn.Run(ctx, source, 30*time.Second)
	if err != nil {
		t.Fatalf("run via Rscript: %v", err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("Rscript exited %d: %s", res.ExitCode, res.Stderr)
	}
	return res.Stdout
}

// scenarioShape is the structural snapshot testutil.CompareWithGolden
// checks for a successful-compile scenario: deterministic facts about
// the emitted R text that don't depend on a live Rscript.
type scenarioShape struct {
	PrintCallCount int  `json:"print_call_count"`
	InvokesEntry   bool `json:"invokes_entry"`
}

func assertShape(t *testing.T, name string, rsrc string, wantPrints int) {
	t.Helper()
	shape := scenarioShape{
		PrintCallCount: strings.Count(rsrc, "print("),
		InvokesEntry:   strings.Contains(rsrc, "rr_top_level()") || strings.Contains(rsrc, "main()"),
	}
	if shape.PrintCallCount != wantPrints {
		t.Fatalf("%s: expected %d print( calls, got %d\n%s", name, wantPrints, shape.PrintCallCount, rsrc)
	}
	testutil.CompareWithGolden(t, "scenarios", name, shape)
}

// Scenario 1: record literal, field write, unary negation and logical
// not, chained field reads in a sum.
func TestScenarioRecordFieldsAndUnaryOps(t *testing.T) {
	src := `fn main() {
		x <- -5;
		b <- !FALSE;
		r <- {x: 1, y: 2};
		r.x <- 10;
		print(x);
		print(b);
		print(r.x);
		print(r.y);
		return r.x + r.y;
	}
	print(main());`

	res, err := compile(t, src, config.O1)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	assertShape(t, "record_fields_and_unary_ops", res.RSource, 5)

	if rscriptAvailable() {
		out := runViaRscript(t, res.RSource)
		for _, line := range []string{"[1] -5", "[1] TRUE", "[1] 10", "[1] 2", "[1] 12"} {
			if !strings.Contains(out, line) {
				t.Errorf("expected stdout to contain %q, got:\n%s", line, out)
			}
		}
	}
}

// Scenario 2: a for-loop over seq_len accumulating a running sum.
func TestScenarioForLoopOverSeqLen(t *testing.T) {
	src := `fn main() {
		s <- 0;
		for (i in seq_len(5)) {
			s <- s + i;
		}
		print(s);
	}
	main();`

	res, err := compile(t, src, config.O1)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	assertShape(t, "for_loop_over_seq_len", res.RSource, 1)

	if rscriptAvailable() {
		out := runViaRscript(t, res.RSource)
		if !strings.Contains(out, "[1] 15") {
			t.Errorf("expected stdout to contain \"[1] 15\", got:\n%s", out)
		}
	}
}

// Scenario 3: a function-literal binding (R's `add <- function(a,b)`
// idiom), two calls bound with both assignment operators (`<-` and `=`),
// and a function
// whose own return value is both printed by the caller and returned.
func TestScenarioFunctionLiteralBindingAndCalls(t *testing.T) {
	src := `add <- function(a, b) { a + b };
	fn main() {
		x <- add(1L, 2L);
		y = add(3L, 4L);
		print(x);
		print(y);
		return y;
	}
	print(main());`

	res, err := compile(t, src, config.O1)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	assertShape(t, "function_literal_binding_and_calls", res.RSource, 3)

	if rscriptAvailable() {
		out := runViaRscript(t, res.RSource)
		for _, line := range []string{"[1] 3", "[1] 7"} {
			if !strings.Contains(out, line) {
				t.Errorf("expected stdout to contain %q, got:\n%s", line, out)
			}
		}
	}
}

// Scenario 4: a statically-NA if-condition is a compile-time fault.
func TestScenarioStaticallyNAConditionFails(t *testing.T) {
	src := `fn main() {
		if (NA) {
			return 1L;
		} else {
			return 0L;
		}
	}
	main();`

	_, err := compile(t, src, config.O1)
	if err == nil {
		t.Fatalf("expected a compile-time failure for a statically-NA condition")
	}
	if !strings.Contains(err.Error(), "NA") {
		t.Fatalf("expected the diagnostic to mention the static NA condition, got: %v", err)
	}
}

// Scenario 5: a constant out-of-bounds literal-vector index is a
// compile-time fault mentioning "out of bounds".
func TestScenarioConstantOutOfBoundsIndexFails(t *testing.T) {
	src := `fn main() {
		x <- c(1L, 2L, 3L);
		x[0L] <- 10L;
		return x;
	}
	main();`

	_, err := compile(t, src, config.O1)
	if err == nil {
		t.Fatalf("expected a compile-time failure for a constant out-of-bounds index")
	}
	if !strings.Contains(err.Error(), "out of bounds") {
		t.Fatalf("expected the diagnostic to mention \"out of bounds\", got: %v", err)
	}
}

// Scenario 6: three independent faults (constant division by zero, a
// statically-NA condition, and — depending on index desugaring — a
// bounds violation) must aggregate into a single reported failure
// rather than stopping at the first.
func TestScenarioMultipleFaultsAggregateIntoOneFailure(t *testing.T) {
	src := `fn main() {
		x <- c(1L, 2L);
		z <- 1L / 0L;
		if (NA) {
			return 1L;
		}
		return z + x[0L];
	}
	main();`

	_, err := compile(t, src, config.O1)
	if err == nil {
		t.Fatalf("expected a compile-time failure aggregating multiple faults")
	}
	if !strings.Contains(err.Error(), "found") {
		t.Fatalf("expected an aggregate \"found N\" header, got: %v", err)
	}
}
