package codegen

import (
	"strings"
	"testing"

	"github.com/rr-lang/rr/internal/hir"
	"github.com/rr-lang/rr/internal/mir"
	"github.com/rr-lang/rr/internal/opt"
	"github.com/rr-lang/rr/internal/parser"
)

func buildOptFunc(t *testing.T, src string) *mir.Function {
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
	opt.Run(mfn, true)
	return mfn
}

func TestEmitStraightLineArithmetic(t *testing.T) {
	fn := buildOptFunc(t, `fn f(x) {
		y <- x + 1;
		return y;
	}`)
	text, _ := Emit(fn)
	if !strings.Contains(text, "f <- function(") {
		t.Fatalf("expected a function header, got: %s", text)
	}
	if !strings.Contains(text, "return(") {
		t.Fatalf("expected a return statement, got: %s", text)
	}
}

func TestEmitIfElseStructured(t *testing.T) {
	fn := buildOptFunc(t, `fn f(x) {
		y <- 0;
		if (x > 0) {
			y <- 1;
		} else {
			y <- -1;
		}
		return y;
	}`)
	text, _ := Emit(fn)
	if !strings.Contains(text, "if (rr_truthy1(") {
		t.Fatalf("expected an if statement, got: %s", text)
	}
	if !strings.Contains(text, "} else {") {
		t.Fatalf("expected an else clause, got: %s", text)
	}
}

func TestEmitForLoopUsesNativeForSyntax(t *testing.T) {
	fn := buildOptFunc(t, `fn f(x) {
		s <- 0;
		for (i in indices(x)) {
			s <- s + x[i];
		}
		return s;
	}`)
	text, _ := Emit(fn)
	if !strings.Contains(text, "for (rr_i_") {
		t.Fatalf("expected a native for loop over the induction variable, got: %s", text)
	}
	if !strings.Contains(text, "rr_range(") {
		t.Fatalf("expected the loop bounds to come from rr_range, got: %s", text)
	}
}

func TestEmitWhileLoop(t *testing.T) {
	fn := buildOptFunc(t, `fn f(n) {
		i <- 0;
		s <- 0;
		while (i < n) {
			s <- s + i;
			i <- i + 1;
		}
		return s;
	}`)
	text, _ := Emit(fn)
	if !strings.Contains(text, "while (rr_truthy1(") {
		t.Fatalf("expected a while loop, got: %s", text)
	}
}

func TestEmitTailCallBecomesRepeatLoop(t *testing.T) {
	fn := buildOptFunc(t, `fn loopy(n) {
		return loopy(n);
	}`)
	text, _ := Emit(fn)
	if !strings.Contains(text, "repeat {") {
		t.Fatalf("expected the self-recursive tail call to be rewritten as a repeat loop, got: %s", text)
	}
	if !strings.Contains(text, "next") {
		t.Fatalf("expected the tail call to loop via next, got: %s", text)
	}
}

func TestEmitStringLiteralEscaping(t *testing.T) {
	fn := buildOptFunc(t, `fn f() {
		return "a\"b\nc";
	}`)
	text, _ := Emit(fn)
	if !strings.Contains(text, `\"`) || !strings.Contains(text, `\n`) {
		t.Fatalf("expected escaped quote and newline in emitted string, got: %s", text)
	}
}
