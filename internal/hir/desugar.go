package hir

import (
	"github.com/rr-lang/rr/internal/ast"
	"github.com/rr-lang/rr/internal/errors"
)

// aliases maps RR surface-syntax sugar names to their canonical runtime
// or builtin names, applied uniformly regardless of call site.
var aliases = map[string]string{
	"vec_int":  "integer",
	"vec_f64":  "numeric",
	"vec_bool": "logical",
	"vec_str":  "character",
	"len":      "length",
	"range":    "rr_range",
	"indices":  "rr_indices",
}

// Desugarer lowers a parsed ast.Program into hir.Program: pipes are
// flattened into calls, alias names are canonicalized, and calls to
// rr_range/rr_indices (direct or via alias) become dedicated nodes so
// downstream MIR lowering need not pattern-match generic calls.
type Desugarer struct{}

func NewDesugarer() *Desugarer { return &Desugarer{} }

func (d *Desugarer) Desugar(prog *ast.Program) (*Program, error) {
	out := &Program{}
	for _, item := range prog.Items {
		switch it := item.(type) {
		case *ast.FnDecl:
			body, err := d.desugarStmts(it.Body.Stmts)
			if err != nil {
				return nil, err
			}
			out.Funcs = append(out.Funcs, &Func{
				Name:     it.Name,
				Params:   it.Params,
				Varargs:  it.Varargs,
				Body:     body,
				NoInline: it.NoInline,
				Pos:      it.DeclPos,
			})
		case *ast.TopStmt:
			s, err := d.desugarStmt(it.Stmt)
			if err != nil {
				return nil, err
			}
			out.TopStmts = append(out.TopStmts, s)
		}
	}
	return out, nil
}

func (d *Desugarer) desugarStmts(stmts []ast.Stmt) ([]Stmt, error) {
	out := make([]Stmt, 0, len(stmts))
	for _, s := range stmts {
		ds, err := d.desugarStmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, nil
}

func (d *Desugarer) desugarStmt(stmt ast.Stmt) (Stmt, error) {
	switch s := stmt.(type) {
	case *ast.AssignStmt:
		target, err := d.desugarLValue(s.Target)
		if err != nil {
			return nil, err
		}
		value, err := d.desugarExpr(s.Value)
		if err != nil {
			return nil, err
		}
		return &AssignStmt{Target: target, Value: value, Pos: s.Pos_}, nil
	case *ast.ExprStmt:
		x, err := d.desugarExpr(s.X)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{X: x, Pos: s.Pos_}, nil
	case *ast.IfStmt:
		cond, err := d.desugarExpr(s.Cond)
		if err != nil {
			return nil, err
		}
		then, err := d.desugarStmts(s.Then.Stmts)
		if err != nil {
			return nil, err
		}
		var els []Stmt
		if s.Else != nil {
			els, err = d.desugarStmts(s.Else.Stmts)
			if err != nil {
				return nil, err
			}
		}
		return &IfStmt{Cond: cond, Then: then, Else: els, Pos: s.Pos_}, nil
	case *ast.WhileStmt:
		cond, err := d.desugarExpr(s.Cond)
		if err != nil {
			return nil, err
		}
		body, err := d.desugarStmts(s.Body.Stmts)
		if err != nil {
			return nil, err
		}
		return &WhileStmt{Cond: cond, Body: body, Pos: s.Pos_}, nil
	case *ast.ForStmt:
		seq, err := d.desugarExpr(s.Seq)
		if err != nil {
			return nil, err
		}
		body, err := d.desugarStmts(s.Body.Stmts)
		if err != nil {
			return nil, err
		}
		return &ForStmt{Var: s.Var, Seq: seq, Body: body, Pos: s.Pos_}, nil
	case *ast.ReturnStmt:
		var v Expr
		if s.Value != nil {
			var err error
			v, err = d.desugarExpr(s.Value)
			if err != nil {
				return nil, err
			}
		}
		return &ReturnStmt{Value: v, Pos: s.Pos_}, nil
	default:
		return nil, errors.WrapReport(errors.New(errors.InternalError, "hir", "unknown statement kind", nil))
	}
}

func (d *Desugarer) desugarLValue(lv ast.LValue) (LValue, error) {
	switch l := lv.(type) {
	case *ast.NameLValue:
		return &NameLValue{Name: l.Name}, nil
	case *ast.Index1LValue:
		base, err := d.desugarExpr(l.Base)
		if err != nil {
			return nil, err
		}
		idx, err := d.desugarExpr(l.Idx)
		if err != nil {
			return nil, err
		}
		return &Index1LValue{Base: base, Idx: idx}, nil
	case *ast.Index2LValue:
		base, err := d.desugarExpr(l.Base)
		if err != nil {
			return nil, err
		}
		row, err := d.desugarExpr(l.Row)
		if err != nil {
			return nil, err
		}
		col, err := d.desugarExpr(l.Col)
		if err != nil {
			return nil, err
		}
		return &Index2LValue{Base: base, Row: row, Col: col}, nil
	case *ast.FieldLValue:
		base, err := d.desugarExpr(l.Base)
		if err != nil {
			return nil, err
		}
		return &FieldLValue{Base: base, Name: l.Name}, nil
	default:
		return nil, errors.WrapReport(errors.New(errors.SemanticError, "hir", "unsupported assignment target", nil))
	}
}

func (d *Desugarer) desugarExpr(expr ast.Expr) (Expr, error) {
	switch e := expr.(type) {
	case *ast.Lit:
		return &Lit{exprBase{e.Pos_}, e.Kind, e.Int, e.Float, e.Str, e.Bool}, nil
	case *ast.Ident:
		return &Name{exprBase{e.Pos_}, e.Name}, nil
	case *ast.UnaryExpr:
		x, err := d.desugarExpr(e.X)
		if err != nil {
			return nil, err
		}
		return &Unary{exprBase{e.Pos_}, e.Op, x}, nil
	case *ast.BinaryExpr:
		lhs, err := d.desugarExpr(e.Lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := d.desugarExpr(e.Rhs)
		if err != nil {
			return nil, err
		}
		return &Binary{exprBase{e.Pos_}, e.Op, lhs, rhs}, nil
	case *ast.PipeExpr:
		// Flatten `lhs |> f(args...)` into `f(lhs, args...)`.
		args := make([]ast.Expr, 0, len(e.Call.Args)+1)
		args = append(args, e.Lhs)
		args = append(args, e.Call.Args...)
		return d.desugarExpr(&ast.CallExpr{Callee: e.Call.Callee, Args: args, Pos_: e.Pos_})
	case *ast.CallExpr:
		return d.desugarCall(e)
	case *ast.Index1Expr:
		base, err := d.desugarExpr(e.Base)
		if err != nil {
			return nil, err
		}
		idx, err := d.desugarExpr(e.Idx)
		if err != nil {
			return nil, err
		}
		return &Index1D{exprBase{e.Pos_}, base, idx}, nil
	case *ast.Index2Expr:
		base, err := d.desugarExpr(e.Base)
		if err != nil {
			return nil, err
		}
		row, err := d.desugarExpr(e.Row)
		if err != nil {
			return nil, err
		}
		col, err := d.desugarExpr(e.Col)
		if err != nil {
			return nil, err
		}
		return &Index2D{exprBase{e.Pos_}, base, row, col}, nil
	case *ast.SliceExpr:
		base, err := d.desugarExpr(e.Base)
		if err != nil {
			return nil, err
		}
		a, err := d.desugarExpr(e.A)
		if err != nil {
			return nil, err
		}
		b, err := d.desugarExpr(e.B)
		if err != nil {
			return nil, err
		}
		return &Slice1D{exprBase{e.Pos_}, base, a, b}, nil
	case *ast.FieldExpr:
		base, err := d.desugarExpr(e.Base)
		if err != nil {
			return nil, err
		}
		return &Field{exprBase{e.Pos_}, base, e.Name}, nil
	case *ast.RecordLit:
		fields := make([]ListField, 0, len(e.Fields))
		for _, f := range e.Fields {
			v, err := d.desugarExpr(f.Value)
			if err != nil {
				return nil, err
			}
			fields = append(fields, ListField{Name: f.Name, Value: v})
		}
		return &ListLit{exprBase{e.Pos_}, fields}, nil
	case *ast.LambdaExpr:
		body, err := d.desugarStmts(e.Body.Stmts)
		if err != nil {
			return nil, err
		}
		return &Lambda{exprBase{e.Pos_}, e.Params, body}, nil
	default:
		return nil, errors.WrapReport(errors.New(errors.SemanticError, "hir", "unsupported expression form", nil))
	}
}

// desugarCall rewrites known aliases, then recognizes rr_range/rr_indices
// (whether reached directly or via alias) as dedicated node kinds. A
// vector literal `c(...)` becomes a VectorLit, which MIR lowers to
// VVectorLit: that is the shape the safety validator's constant-index
// checks and BCE's length facts recognize, and codegen emits it back as
// `c(...)`.
func (d *Desugarer) desugarCall(e *ast.CallExpr) (Expr, error) {
	args := make([]Expr, 0, len(e.Args))
	for _, a := range e.Args {
		da, err := d.desugarExpr(a)
		if err != nil {
			return nil, err
		}
		args = append(args, da)
	}

	name, isIdent := e.Callee.(*ast.Ident)
	if !isIdent {
		callee, err := d.desugarExpr(e.Callee)
		if err != nil {
			return nil, err
		}
		return &Call{exprBase{e.Pos_}, callee, args}, nil
	}

	canonical := name.Name
	if alias, ok := aliases[canonical]; ok {
		canonical = alias
	}

	switch canonical {
	case "rr_range":
		if len(args) == 2 {
			return &RrRange{exprBase{e.Pos_}, args[0], args[1]}, nil
		}
	case "rr_indices":
		if len(args) == 1 {
			return &RrIndices{exprBase{e.Pos_}, args[0]}, nil
		}
	case "c":
		return &VectorLit{exprBase: exprBase{e.Pos_}, Elems: args}, nil
	}

	return &Call{exprBase{e.Pos_}, &Name{exprBase{name.Pos_}, canonical}, args}, nil
}
