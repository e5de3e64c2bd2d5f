package hir

import (
	"testing"

	"github.com/rr-lang/rr/internal/parser"
)

func desugarSource(t *testing.T, src string) *Program {
	t.Helper()
	p := parser.New(src, "test.rr")
	prog, err := p.ParseProgram()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := NewDesugarer().Desugar(prog)
	if err != nil {
		t.Fatalf("desugar: %v", err)
	}
	return out
}

func TestDesugarRewritesAliasCallee(t *testing.T) {
	prog := desugarSource(t, "fn f(x) { return len(x); }")
	fn := prog.Funcs[0]
	ret := fn.Body[0].(*ReturnStmt)
	call, ok := ret.Value.(*Call)
	if !ok {
		t.Fatalf("expected Call, got %T", ret.Value)
	}
	if n := call.Callee.(*Name).Name; n != "length" {
		t.Fatalf("expected alias rewritten to 'length', got %q", n)
	}
}

func TestDesugarCanonicalizesRange(t *testing.T) {
	prog := desugarSource(t, "fn f() { return range(0, 9); }")
	ret := prog.Funcs[0].Body[0].(*ReturnStmt)
	if _, ok := ret.Value.(*RrRange); !ok {
		t.Fatalf("expected RrRange, got %T", ret.Value)
	}
}

func TestDesugarFlattensPipe(t *testing.T) {
	prog := desugarSource(t, "fn f(x) { return x |> length(); }")
	ret := prog.Funcs[0].Body[0].(*ReturnStmt)
	call, ok := ret.Value.(*Call)
	if !ok {
		t.Fatalf("expected Call after pipe flattening, got %T", ret.Value)
	}
	if len(call.Args) != 1 {
		t.Fatalf("expected piped lhs inserted as sole arg, got %d args", len(call.Args))
	}
}
