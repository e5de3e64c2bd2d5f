package errors

import (
	"strings"
	"testing"

	"github.com/rr-lang/rr/internal/ast"
)

func TestAggregateRenderCountsAndFormat(t *testing.T) {
	var agg Aggregate
	span := ast.Span{Start: ast.Pos{File: "in.rr", Line: 3, Col: 5}}
	agg.Addf(BoundsError, "safety", span, "index %d out of bounds for length %d", 10, 3)
	agg.Addf(SemanticError, "hir", span, "unknown name %q", "foo")

	if agg.Len() != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", agg.Len())
	}
	out := agg.Render()
	if !strings.HasPrefix(out, "found 2 errors\n") {
		t.Fatalf("expected 'found 2 errors' header, got: %s", out)
	}
	if !strings.Contains(out, "** (BoundsError) in.rr:3:5") {
		t.Fatalf("missing bounds diagnostic line: %s", out)
	}
	if !strings.Contains(out, "RRDIAG|kind=SemanticError|code=E1001") {
		t.Fatalf("missing machine-readable line: %s", out)
	}
}

func TestAggregateEmptyErrIsNil(t *testing.T) {
	var agg Aggregate
	if err := agg.Err(); err != nil {
		t.Fatalf("expected nil error for empty aggregate, got %v", err)
	}
}

func TestReportJSONRoundTrip(t *testing.T) {
	r := New(ValueError, "codegen", "division by zero", nil).WithHint("check the divisor")
	s, err := r.ToJSON(true)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if !strings.Contains(s, `"code":"E2001"`) {
		t.Fatalf("expected code E2001 in JSON, got %s", s)
	}
}
