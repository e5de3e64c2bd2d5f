package hir

import "testing"

func firstFunc(t *testing.T, src string) *Func {
	t.Helper()
	prog := desugarSource(t, src)
	if len(prog.Funcs) == 0 {
		t.Fatalf("expected at least one function")
	}
	return prog.Funcs[0]
}

func TestOptimizerVectorizesMapLoop(t *testing.T) {
	fn := firstFunc(t, `fn f(x) {
		y <- x;
		for (i in indices(x)) {
			y[i] <- sqrt(x[i]);
		}
		return y;
	}`)
	o := NewOptimizer()
	out := o.optimizeStmts(fn.Body)
	if o.VectorizeHits != 1 {
		t.Fatalf("expected 1 vectorize hit, got %d", o.VectorizeHits)
	}
	found := false
	for _, s := range out {
		if _, ok := s.(*ForStmt); ok {
			t.Fatalf("expected the for-loop to be replaced, found a remaining ForStmt")
		}
		if a, ok := s.(*AssignStmt); ok {
			if _, ok := a.Value.(*Call); ok {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("expected a vectorized call assignment in place of the loop")
	}
}

func TestOptimizerVectorizesSumReduction(t *testing.T) {
	fn := firstFunc(t, `fn f(x) {
		acc <- 0;
		for (i in indices(x)) {
			acc <- acc + x[i];
		}
		return acc;
	}`)
	o := NewOptimizer()
	_ = o.optimizeStmts(fn.Body)
	if o.VectorizeHits != 1 {
		t.Fatalf("expected the reduction loop to vectorize into sum(), got %d hits", o.VectorizeHits)
	}
}

func TestOptimizerRewritesNonVectorizableLoopTo1Based(t *testing.T) {
	fn := firstFunc(t, `fn f(x) {
		for (i in indices(x)) {
			print(i);
		}
		return 0;
	}`)
	o := NewOptimizer()
	out := o.optimizeStmts(fn.Body)
	forSt, ok := out[0].(*ForStmt)
	if !ok {
		t.Fatalf("expected a rewritten ForStmt, got %T", out[0])
	}
	if _, ok := forSt.Seq.(*RrRange); !ok {
		t.Fatalf("expected the sequence to be rewritten to an RrRange, got %T", forSt.Seq)
	}
}
