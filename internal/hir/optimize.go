package hir

import "github.com/rr-lang/rr/internal/ast"

// Optimizer runs Tachyon's tree-shaped passes over desugared HIR before
// MIR is ever built: loop vectorization (map/reduction pattern
// recognition) and the 0-based-to-1-based loop rewrite that lets
// `indices(x)`-driven loops compile to natural R `for` ranges. These
// passes need the loop's nested statement shape intact, which is why
// they run here rather than after SSA construction flattens it.
type Optimizer struct {
	VectorizeHits int
}

func NewOptimizer() *Optimizer { return &Optimizer{} }

func (o *Optimizer) OptimizeProgram(p *Program) *Program {
	out := &Program{}
	for _, fn := range p.Funcs {
		out.Funcs = append(out.Funcs, &Func{
			Name: fn.Name, Params: fn.Params, Varargs: fn.Varargs,
			Body: o.optimizeStmts(fn.Body), NoInline: fn.NoInline, Pos: fn.Pos,
		})
	}
	out.TopStmts = o.optimizeStmts(p.TopStmts)
	return out
}

func (o *Optimizer) optimizeStmts(stmts []Stmt) []Stmt {
	out := make([]Stmt, 0, len(stmts))
	for _, s := range stmts {
		switch st := s.(type) {
		case *ForStmt:
			if vec := o.tryLoopVectorize(st); vec != nil {
				o.VectorizeHits++
				out = append(out, vec)
				continue
			}
			if rewritten := o.tryLoopRewrite(st); rewritten != nil {
				rw := rewritten.(*ForStmt)
				rw.Body = o.optimizeStmts(rw.Body)
				out = append(out, rw)
				continue
			}
			out = append(out, &ForStmt{Var: st.Var, Seq: st.Seq, Body: o.optimizeStmts(st.Body), Pos: st.Pos})
		case *IfStmt:
			out = append(out, &IfStmt{Cond: st.Cond, Then: o.optimizeStmts(st.Then), Else: o.optimizeStmts(st.Else), Pos: st.Pos})
		case *WhileStmt:
			out = append(out, &WhileStmt{Cond: st.Cond, Body: o.optimizeStmts(st.Body), Pos: st.Pos})
		default:
			out = append(out, s)
		}
	}
	return out
}

// tryLoopVectorize recognizes `for (i in indices(x)) { y[i] <- f(x[i]); }`
// (a map) or `for (i in indices(x)) { acc <- acc OP x[i]; }` (a sum/prod
// reduction) and replaces the whole loop with one vectorized statement.
func (o *Optimizer) tryLoopVectorize(st *ForStmt) Stmt {
	if m := o.tryLoopMap(st); m != nil {
		return m
	}
	if r := o.tryLoopReduction(st); r != nil {
		return r
	}
	return nil
}

func (o *Optimizer) tryLoopMap(st *ForStmt) Stmt {
	xExpr, ok := st.Seq.(*RrIndices)
	if !ok || len(st.Body) != 1 {
		return nil
	}
	assign, ok := st.Body[0].(*AssignStmt)
	if !ok {
		return nil
	}
	idxTarget, ok := assign.Target.(*Index1LValue)
	if !ok {
		return nil
	}
	idxName, ok := idxTarget.Idx.(*Name)
	if !ok || idxName.Name != st.Var {
		return nil
	}
	yName, ok := idxTarget.Base.(*Name)
	if !ok {
		return nil
	}
	xName, ok := xExpr.X.(*Name)
	if !ok {
		return nil
	}
	vec := o.tryVectorizeExpr(assign.Value, xName.Name, st.Var, xExpr.X)
	if vec == nil {
		return nil
	}
	return &AssignStmt{Target: &NameLValue{Name: yName.Name}, Value: vec, Pos: st.Pos}
}

func (o *Optimizer) tryLoopReduction(st *ForStmt) Stmt {
	xExpr, ok := st.Seq.(*RrIndices)
	if !ok || len(st.Body) != 1 {
		return nil
	}
	xName, ok := xExpr.X.(*Name)
	if !ok {
		return nil
	}
	assign, ok := st.Body[0].(*AssignStmt)
	if !ok {
		return nil
	}
	accTarget, ok := assign.Target.(*NameLValue)
	if !ok {
		return nil
	}
	bin, ok := assign.Value.(*Binary)
	if !ok {
		return nil
	}
	var fnName string
	switch bin.Op {
	case ast.BAdd:
		fnName = "sum"
	case ast.BMul:
		fnName = "prod"
	default:
		return nil
	}
	isLhsAcc := isNameEq(bin.Lhs, accTarget.Name)
	isRhsAcc := isNameEq(bin.Rhs, accTarget.Name)
	var target Expr
	switch {
	case isLhsAcc:
		target = bin.Rhs
	case isRhsAcc:
		target = bin.Lhs
	default:
		return nil
	}
	if !o.isIndexing(target, xName.Name, st.Var) {
		return nil
	}
	vecCall := &Call{Callee: &Name{Name: fnName}, Args: []Expr{xExpr.X}}
	return &AssignStmt{
		Target: &NameLValue{Name: accTarget.Name},
		Value:  &Binary{Op: bin.Op, Lhs: &Name{Name: accTarget.Name}, Rhs: vecCall},
		Pos:    st.Pos,
	}
}

func (o *Optimizer) tryVectorizeExpr(expr Expr, xName, iterVar string, xVecExpr Expr) Expr {
	switch e := expr.(type) {
	case *Binary:
		lhsXI := o.isIndexing(e.Lhs, xName, iterVar)
		rhsXI := o.isIndexing(e.Rhs, xName, iterVar)
		switch {
		case lhsXI && !o.usesVar(e.Rhs, iterVar):
			return &Binary{Op: e.Op, Lhs: xVecExpr, Rhs: e.Rhs}
		case rhsXI && !o.usesVar(e.Lhs, iterVar):
			return &Binary{Op: e.Op, Lhs: e.Lhs, Rhs: xVecExpr}
		case lhsXI && rhsXI:
			return &Binary{Op: e.Op, Lhs: xVecExpr, Rhs: xVecExpr}
		}
	case *Unary:
		if o.isIndexing(e.X, xName, iterVar) {
			return &Unary{Op: e.Op, X: xVecExpr}
		}
	case *Call:
		if o.usesVar(e.Callee, iterVar) {
			return nil
		}
		callee, ok := e.Callee.(*Name)
		if !ok || !isVectorSafeCall(callee.Name) {
			return nil
		}
		args := make([]Expr, 0, len(e.Args))
		foundXI := false
		for _, a := range e.Args {
			switch {
			case o.isIndexing(a, xName, iterVar):
				args = append(args, xVecExpr)
				foundXI = true
			case !o.usesVar(a, iterVar):
				args = append(args, a)
			default:
				return nil
			}
		}
		if foundXI {
			return &Call{Callee: e.Callee, Args: args}
		}
	}
	return nil
}

func isVectorSafeCall(name string) bool {
	switch name {
	case "abs", "sqrt", "sin", "cos", "tan", "log", "exp", "floor", "ceiling", "round":
		return true
	}
	return false
}

func (o *Optimizer) isIndexing(e Expr, baseName, idxName string) bool {
	idx, ok := e.(*Index1D)
	if !ok {
		return false
	}
	base, ok := idx.Base.(*Name)
	if !ok || base.Name != baseName {
		return false
	}
	i, ok := idx.Idx.(*Name)
	return ok && i.Name == idxName
}

func (o *Optimizer) usesVar(e Expr, v string) bool {
	switch ex := e.(type) {
	case *Name:
		return ex.Name == v
	case *Lit:
		return false
	case *Unary:
		return o.usesVar(ex.X, v)
	case *Binary:
		return o.usesVar(ex.Lhs, v) || o.usesVar(ex.Rhs, v)
	case *Call:
		if o.usesVar(ex.Callee, v) {
			return true
		}
		for _, a := range ex.Args {
			if o.usesVar(a, v) {
				return true
			}
		}
		return false
	case *RrRange:
		return o.usesVar(ex.A, v) || o.usesVar(ex.B, v)
	case *RrIndices:
		return o.usesVar(ex.X, v)
	case *Index1D:
		return o.usesVar(ex.Base, v) || o.usesVar(ex.Idx, v)
	case *Index2D:
		return o.usesVar(ex.Base, v) || o.usesVar(ex.Row, v) || o.usesVar(ex.Col, v)
	case *Slice1D:
		return o.usesVar(ex.Base, v) || o.usesVar(ex.A, v) || o.usesVar(ex.B, v)
	case *VectorLit:
		for _, el := range ex.Elems {
			if o.usesVar(el, v) {
				return true
			}
		}
		return false
	case *ListLit:
		for _, f := range ex.Fields {
			if o.usesVar(f.Value, v) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// tryLoopRewrite turns `for (i in indices(x))` into 1-based `for (i in
// range(1, length(x)))` with every use of i replaced by `i - 1` (the bodies
// of function literals inside the loop are not rewritten), matching
// the codegen's preference for R's native 1-based for-range syntax over
// an explicit 0-based index vector.
func (o *Optimizer) tryLoopRewrite(st *ForStmt) Stmt {
	xExpr, ok := st.Seq.(*RrIndices)
	if !ok {
		return nil
	}
	lengthCall := &Call{Callee: &Name{Name: "length"}, Args: []Expr{xExpr.X}}
	newSeq := &RrRange{A: &Lit{Kind: ast.IntLit, Int: 1}, B: lengthCall}
	replacement := &Binary{Op: ast.BSub, Lhs: &Name{Name: st.Var}, Rhs: &Lit{Kind: ast.IntLit, Int: 1}}
	newBody := make([]Stmt, len(st.Body))
	for i, s := range st.Body {
		newBody[i] = rewriteStmt(s, st.Var, replacement)
	}
	return &ForStmt{Var: st.Var, Seq: newSeq, Body: newBody, Pos: st.Pos}
}

func rewriteStmt(s Stmt, target string, replacement Expr) Stmt {
	switch st := s.(type) {
	case *AssignStmt:
		return &AssignStmt{Target: rewriteLValue(st.Target, target, replacement), Value: rewriteExpr(st.Value, target, replacement), Pos: st.Pos}
	case *ExprStmt:
		return &ExprStmt{X: rewriteExpr(st.X, target, replacement), Pos: st.Pos}
	case *IfStmt:
		then := make([]Stmt, len(st.Then))
		for i, s2 := range st.Then {
			then[i] = rewriteStmt(s2, target, replacement)
		}
		var els []Stmt
		if st.Else != nil {
			els = make([]Stmt, len(st.Else))
			for i, s2 := range st.Else {
				els[i] = rewriteStmt(s2, target, replacement)
			}
		}
		return &IfStmt{Cond: rewriteExpr(st.Cond, target, replacement), Then: then, Else: els, Pos: st.Pos}
	case *WhileStmt:
		body := make([]Stmt, len(st.Body))
		for i, s2 := range st.Body {
			body[i] = rewriteStmt(s2, target, replacement)
		}
		return &WhileStmt{Cond: rewriteExpr(st.Cond, target, replacement), Body: body, Pos: st.Pos}
	case *ForStmt:
		body := st.Body
		if st.Var != target {
			body = make([]Stmt, len(st.Body))
			for i, s2 := range st.Body {
				body[i] = rewriteStmt(s2, target, replacement)
			}
		}
		return &ForStmt{Var: st.Var, Seq: rewriteExpr(st.Seq, target, replacement), Body: body, Pos: st.Pos}
	case *ReturnStmt:
		var v Expr
		if st.Value != nil {
			v = rewriteExpr(st.Value, target, replacement)
		}
		return &ReturnStmt{Value: v, Pos: st.Pos}
	default:
		return s
	}
}

func rewriteLValue(lv LValue, target string, replacement Expr) LValue {
	switch t := lv.(type) {
	case *Index1LValue:
		return &Index1LValue{Base: rewriteExpr(t.Base, target, replacement), Idx: rewriteExpr(t.Idx, target, replacement)}
	case *Index2LValue:
		return &Index2LValue{Base: rewriteExpr(t.Base, target, replacement), Row: rewriteExpr(t.Row, target, replacement), Col: rewriteExpr(t.Col, target, replacement)}
	case *FieldLValue:
		return &FieldLValue{Base: rewriteExpr(t.Base, target, replacement), Name: t.Name}
	default:
		return lv
	}
}

func rewriteExpr(e Expr, target string, replacement Expr) Expr {
	switch ex := e.(type) {
	case *Name:
		if ex.Name == target {
			return replacement
		}
		return ex
	case *Unary:
		return &Unary{Op: ex.Op, X: rewriteExpr(ex.X, target, replacement)}
	case *Binary:
		return &Binary{Op: ex.Op, Lhs: rewriteExpr(ex.Lhs, target, replacement), Rhs: rewriteExpr(ex.Rhs, target, replacement)}
	case *Call:
		args := make([]Expr, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = rewriteExpr(a, target, replacement)
		}
		return &Call{Callee: rewriteExpr(ex.Callee, target, replacement), Args: args}
	case *Index1D:
		return &Index1D{Base: rewriteExpr(ex.Base, target, replacement), Idx: rewriteExpr(ex.Idx, target, replacement)}
	case *RrIndices:
		return &RrIndices{X: rewriteExpr(ex.X, target, replacement)}
	case *RrRange:
		return &RrRange{A: rewriteExpr(ex.A, target, replacement), B: rewriteExpr(ex.B, target, replacement)}
	case *VectorLit:
		elems := make([]Expr, len(ex.Elems))
		for i, el := range ex.Elems {
			elems[i] = rewriteExpr(el, target, replacement)
		}
		return &VectorLit{Elems: elems}
	case *Index2D:
		return &Index2D{Base: rewriteExpr(ex.Base, target, replacement), Row: rewriteExpr(ex.Row, target, replacement), Col: rewriteExpr(ex.Col, target, replacement)}
	case *Slice1D:
		return &Slice1D{Base: rewriteExpr(ex.Base, target, replacement), A: rewriteExpr(ex.A, target, replacement), B: rewriteExpr(ex.B, target, replacement)}
	case *Field:
		return &Field{Base: rewriteExpr(ex.Base, target, replacement), Name: ex.Name}
	case *ListLit:
		fields := make([]ListField, len(ex.Fields))
		for i, f := range ex.Fields {
			fields[i] = ListField{Name: f.Name, Value: rewriteExpr(f.Value, target, replacement)}
		}
		return &ListLit{Fields: fields}
	default:
		return e
	}
}

func isNameEq(e Expr, name string) bool {
	n, ok := e.(*Name)
	return ok && n.Name == name
}
