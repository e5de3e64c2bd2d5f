package safety

import (
	"testing"

	"github.com/rr-lang/rr/internal/hir"
	"github.com/rr-lang/rr/internal/mir"
	"github.com/rr-lang/rr/internal/parser"
)

func buildFunc(t *testing.T, src string) *mir.Function {
	t.Helper()
	p := parser.New(src, "test.rr")
	prog, err := p.ParseProgram()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	desugared, err := hir.NewDesugarer().Desugar(prog)
	if err != nil {
		t.Fatalf("desugar: %v", err)
	}
	fn := desugared.Funcs[0]
	mfn, err := mir.Build(fn.Name, fn.Params, fn.Varargs, fn.NoInline, fn.Body)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return mfn
}

func TestValidateStructurePassesOnWellFormedFunction(t *testing.T) {
	fn := buildFunc(t, `fn f(x, n) {
		i <- 0;
		s <- 0;
		while (i < n) {
			s <- s + x;
			i <- i + 1;
		}
		return s;
	}`)
	agg := ValidateStructure(fn)
	if !agg.Empty() {
		t.Fatalf("expected no structural diagnostics, got: %s", agg.Render())
	}
}

func TestValidateRuntimeSafetyCatchesConstantDivisionByZero(t *testing.T) {
	fn := buildFunc(t, `fn f(x) {
		return x / 0;
	}`)
	agg := ValidateRuntimeSafety(fn)
	if agg.Empty() {
		t.Fatalf("expected a diagnostic for division by constant zero")
	}
}

func TestValidateRuntimeSafetyCatchesConstantOutOfBoundsIndex(t *testing.T) {
	fn := buildFunc(t, `fn f() {
		v <- c(1, 2, 3);
		return v[5];
	}`)
	agg := ValidateRuntimeSafety(fn)
	if agg.Empty() {
		t.Fatalf("expected a diagnostic for a constant out-of-bounds index")
	}
}

func TestValidateRuntimeSafetyCatchesNAOperand(t *testing.T) {
	fn := buildFunc(t, `fn f() {
		return NA + 1;
	}`)
	agg := ValidateRuntimeSafety(fn)
	if agg.Empty() {
		t.Fatalf("expected a diagnostic for an operation over a literal NA")
	}
}

func TestValidateRuntimeSafetyCatchesStaticallyNACondition(t *testing.T) {
	fn := buildFunc(t, `fn f() {
		if (NA) {
			return 1;
		} else {
			return 0;
		}
	}`)
	agg := ValidateRuntimeSafety(fn)
	if agg.Empty() {
		t.Fatalf("expected a diagnostic for an If branching on a literal NA")
	}
}

func TestValidateRuntimeSafetyCatchesZeroIndexRead(t *testing.T) {
	fn := buildFunc(t, `fn f() {
		v <- c(1L, 2L, 3L);
		return v[0L];
	}`)
	agg := ValidateRuntimeSafety(fn)
	if agg.Empty() {
		t.Fatalf("expected a diagnostic for a constant zero index read, index 0 is always rejected")
	}
}

func TestValidateRuntimeSafetyCatchesZeroIndexWrite(t *testing.T) {
	fn := buildFunc(t, `fn f() {
		v <- c(1L, 2L, 3L);
		v[0L] <- 10L;
		return v;
	}`)
	agg := ValidateRuntimeSafety(fn)
	if agg.Empty() {
		t.Fatalf("expected a diagnostic for a constant zero index write, index 0 is always rejected")
	}
}
