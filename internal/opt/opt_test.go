package opt

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

func TestSccpFoldsConstantArithmetic(t *testing.T) {
	fn := buildFunc(t, `fn f() {
		x <- 2 + 3;
		return x;
	}`)
	stats := Run(fn, false)
	if stats.Hits["sccp"] == 0 {
		t.Fatalf("expected sccp to fold the constant addition")
	}
}

func TestGvnMergesDuplicateExpressions(t *testing.T) {
	fn := buildFunc(t, `fn f(x) {
		a <- x + 1;
		b <- x + 1;
		return a + b;
	}`)
	stats := Run(fn, false)
	if stats.Hits["gvn"] == 0 {
		t.Fatalf("expected gvn to merge the two identical x+1 expressions")
	}
}

func TestDceRemovesUnusedComputation(t *testing.T) {
	fn := buildFunc(t, `fn f(x) {
		unused <- x * 2;
		return x;
	}`)
	before := len(fn.Values)
	stats := Run(fn, false)
	if stats.Hits["dce"] == 0 {
		t.Fatalf("expected dce to remove the unused computation")
	}
	if len(fn.Values) >= before {
		t.Fatalf("expected the values arena to shrink after dce, before=%d after=%d", before, len(fn.Values))
	}
}

func TestLicmHoistsLoopInvariantExpression(t *testing.T) {
	fn := buildFunc(t, `fn f(x, y, n) {
		s <- 0;
		i <- 0;
		while (i < n) {
			inv <- x * y;
			s <- s + inv;
			i <- i + 1;
		}
		return s;
	}`)
	stats := Run(fn, true)
	if stats.Hits["licm"] == 0 {
		t.Fatalf("expected licm to hoist the loop-invariant x*y computation")
	}
}

func TestBceMarksRangeFactsNonNegative(t *testing.T) {
	fn := buildFunc(t, `fn f(x) {
		r <- range(0, 9);
		return r;
	}`)
	Run(fn, false)
	found := false
	for _, v := range fn.Values {
		if v.Kind == mir.VRange {
			if !v.Facts.Has(mir.FactNonNeg) {
				t.Fatalf("expected rr_range value to carry FactNonNeg")
			}
			found = true
		}
	}
	if !found {
		t.Fatalf("expected to find a VRange value")
	}
}

func TestTcoMarksSelfRecursiveTailReturn(t *testing.T) {
	fn := buildFunc(t, `fn fact(n) {
		return fact(n);
	}`)
	stats := Run(fn, false)
	if stats.Hits["tco"] == 0 {
		t.Fatalf("expected tco to mark the self-recursive tail return")
	}
	found := false
	for _, blk := range fn.Blocks {
		if r, ok := blk.Term.(mir.Return); ok && r.TailSelfCall {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected some Return terminator to be marked TailSelfCall")
	}
}

func TestInlineAllSplicesTrivialLeafCall(t *testing.T) {
	sq := buildFunc(t, `fn sq(x) { return x * x; }`)
	caller := buildFunc(t, `fn f(y) { return sq(y); }`)
	funcs := map[string]*mir.Function{"sq": sq, "f": caller}
	hits := InlineAll(funcs)
	if hits == 0 {
		t.Fatalf("expected the call to sq to be inlined")
	}
	ret := caller.Blocks[len(caller.Blocks)-1].Term.(mir.Return)
	v := caller.Value(ret.Value)
	if v.Kind != mir.VBinary {
		t.Fatalf("expected the inlined return value to be the splice of x*x, got %v", v.Kind)
	}
}

func TestInlineAllSkipsNoInlineFunction(t *testing.T) {
	sq := buildFunc(t, `noinline fn sq(x) { return x * x; }`)
	caller := buildFunc(t, `fn f(y) { return sq(y); }`)
	funcs := map[string]*mir.Function{"sq": sq, "f": caller}
	hits := InlineAll(funcs)
	if hits != 0 {
		t.Fatalf("expected no inlining of a noinline function, got %d hits", hits)
	}
	ret := caller.Blocks[len(caller.Blocks)-1].Term.(mir.Return)
	v := caller.Value(ret.Value)
	if v.Kind != mir.VCall {
		t.Fatalf("expected the call to sq to survive as a VCall, got %v", v.Kind)
	}
}

func TestLicmDoesNotHoistDivisionOutOfPossiblyEmptyWhileLoop(t *testing.T) {
	fn := buildFunc(t, `fn f(x, y, n) {
		s <- 0;
		i <- 0;
		while (i < n) {
			inv <- x / y;
			s <- s + inv;
			i <- i + 1;
		}
		return s;
	}`)
	Run(fn, true)
	for _, v := range fn.Values {
		if v.Kind == mir.VBinary && v.BinOp == mir.BDiv && v.Block < fn.Loops[0].Header {
			t.Fatalf("expected the division to stay inside the loop, a while loop is never proven non-empty")
		}
	}
}

func TestLicmHoistsDivisionOutOfForLoopProvenNonEmpty(t *testing.T) {
	fn := buildFunc(t, `fn f(x, y) {
		s <- 0;
		for (i in range(0, 3)) {
			inv <- x / y;
			s <- s + inv;
		}
		return s;
	}`)
	stats := Run(fn, true)
	if stats.Hits["licm"] == 0 {
		t.Fatalf("expected licm to hoist the division, range(0,3) is statically non-empty")
	}
}
