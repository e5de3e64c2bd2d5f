package mir

import (
	"fmt"

	"github.com/rr-lang/rr/internal/ast"
	"github.com/rr-lang/rr/internal/errors"
	"github.com/rr-lang/rr/internal/hir"
)

// Builder lowers one hir.Func into a Function, tracking the current
// definition of every local name in env (SSA renaming happens purely
// through env rebinding — a plain `x <- expr` never emits an instruction,
// it just rebinds env["x"]). This mirrors the original MirBuilder design:
// curr tracks the block being appended to, and env is snapshotted and
// restored around branches so each arm lowers against its own bindings.
type Builder struct {
	fn   *Function
	env  map[string]ValueID
	curr BlockID
}

// NewBuilder creates a Builder for a function with the given parameters,
// seeding env with one VParam Value per parameter and opening the entry
// block.
func NewBuilder(name string, params []string, varargs bool) *Builder {
	fn := &Function{Name: name, Varargs: varargs}
	b := &Builder{fn: fn, env: make(map[string]ValueID)}
	entry := b.newBlock()
	fn.Entry = entry
	b.curr = entry
	for _, p := range params {
		vid := b.newValue(&Value{Kind: VParam, Block: entry})
		fn.Params = append(fn.Params, vid)
		b.env[p] = vid
	}
	return b
}

// Build lowers every statement of a function body and returns the
// finished Function. Any statement after an unconditional return lowers
// into a fresh unreachable block, matching lower_stmt's Return handling.
// noInline carries the source-level `noinline fn` marker through to the
// inliner, which otherwise has no way to see it once HIR is gone.
func Build(name string, params []string, varargs bool, noInline bool, body []hir.Stmt) (*Function, error) {
	b := NewBuilder(name, params, varargs)
	b.fn.NoInline = noInline
	if err := b.buildStmts(body); err != nil {
		return nil, err
	}
	return b.finish(), nil
}

func (b *Builder) buildStmts(stmts []hir.Stmt) error {
	for _, s := range stmts {
		if err := b.lowerStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) lowerStmt(s hir.Stmt) error {
	switch st := s.(type) {
	case *hir.AssignStmt:
		return b.lowerAssign(st)
	case *hir.ExprStmt:
		vid, err := b.lowerExpr(st.X)
		if err != nil {
			return err
		}
		b.pushInstr(&Eval{Val: vid})
		return nil
	case *hir.IfStmt:
		return b.lowerIf(st)
	case *hir.WhileStmt:
		return b.lowerWhile(st)
	case *hir.ForStmt:
		return b.lowerFor(st)
	case *hir.ReturnStmt:
		vid := invalidValue
		if st.Value != nil {
			v, err := b.lowerExpr(st.Value)
			if err != nil {
				return err
			}
			vid = v
		}
		b.terminate(Return{Value: vid})
		// Any statements lexically following a return are unreachable;
		// open a fresh block so lowering can continue without error.
		b.curr = b.newBlock()
		return nil
	default:
		return errors.WrapReport(errors.New(errors.InternalError, "mir", "unknown hir statement", nil))
	}
}

func (b *Builder) lowerAssign(st *hir.AssignStmt) error {
	switch t := st.Target.(type) {
	case *hir.NameLValue:
		vid, err := b.lowerExpr(st.Value)
		if err != nil {
			return err
		}
		b.env[t.Name] = vid
		return nil
	case *hir.Index1LValue:
		baseName, ok := lvalueBaseName(t.Base)
		if !ok {
			return errors.WrapReport(errors.New(errors.SemanticError, "mir", "indexed assignment target must be a name", nil))
		}
		base, ok := b.env[baseName]
		if !ok {
			return undefinedVariable(baseName)
		}
		idx, err := b.lowerExpr(t.Idx)
		if err != nil {
			return err
		}
		val, err := b.lowerExpr(st.Value)
		if err != nil {
			return err
		}
		newVer := b.newValue(&Value{Kind: VIndex1Read, Block: b.curr, Args: []ValueID{base, idx, val}})
		b.pushInstr(&StoreIndex1D{NewVersion: newVer, Base: base, Idx: idx, Val: val})
		b.env[baseName] = newVer
		return nil
	case *hir.Index2LValue:
		baseName, ok := lvalueBaseName(t.Base)
		if !ok {
			return errors.WrapReport(errors.New(errors.SemanticError, "mir", "indexed assignment target must be a name", nil))
		}
		base, ok := b.env[baseName]
		if !ok {
			return undefinedVariable(baseName)
		}
		row, err := b.lowerExpr(t.Row)
		if err != nil {
			return err
		}
		col, err := b.lowerExpr(t.Col)
		if err != nil {
			return err
		}
		val, err := b.lowerExpr(st.Value)
		if err != nil {
			return err
		}
		newVer := b.newValue(&Value{Kind: VIndex2Read, Block: b.curr, Args: []ValueID{base, row, col, val}})
		b.pushInstr(&StoreIndex2D{NewVersion: newVer, Base: base, Row: row, Col: col, Val: val})
		b.env[baseName] = newVer
		return nil
	case *hir.FieldLValue:
		baseName, ok := lvalueBaseName(t.Base)
		if !ok {
			return errors.WrapReport(errors.New(errors.SemanticError, "mir", "field assignment target must be a name", nil))
		}
		base, ok := b.env[baseName]
		if !ok {
			return undefinedVariable(baseName)
		}
		val, err := b.lowerExpr(st.Value)
		if err != nil {
			return err
		}
		newVer := b.newValue(&Value{Kind: VCall, Callee: "rr_field_set", Block: b.curr, Args: []ValueID{base, val}, Field: t.Name})
		b.pushInstr(&Eval{Val: newVer})
		b.env[baseName] = newVer
		return nil
	default:
		return errors.WrapReport(errors.New(errors.InternalError, "mir", "unknown lvalue kind", nil))
	}
}

// lvalueBaseName extracts the plain variable name an indexed/field
// lvalue's Base resolves to; RR's grammar only allows indexing a name
// directly (`x[i] <- v`), never a chained expression, on the left side of
// an assignment.
func lvalueBaseName(e hir.Expr) (string, bool) {
	if n, ok := e.(*hir.Name); ok {
		return n.Name, true
	}
	return "", false
}

func undefinedVariable(name string) error {
	return errors.WrapReport(errors.New(errors.SemanticError, "mir", fmt.Sprintf("undefined variable: %s", name), nil).WithHint("declare it with an assignment before use"))
}

func (b *Builder) lowerExpr(e hir.Expr) (ValueID, error) {
	switch ex := e.(type) {
	case *hir.Lit:
		return b.lowerLit(ex), nil
	case *hir.Name:
		if vid, ok := b.env[ex.Name]; ok {
			return vid, nil
		}
		return invalidValue, undefinedVariable(ex.Name)
	case *hir.Unary:
		x, err := b.lowerExpr(ex.X)
		if err != nil {
			return invalidValue, err
		}
		return b.newValue(&Value{Kind: VUnary, Block: b.curr, UnOp: convUnOp(ex.Op), Args: []ValueID{x}}), nil
	case *hir.Binary:
		lhs, err := b.lowerExpr(ex.Lhs)
		if err != nil {
			return invalidValue, err
		}
		rhs, err := b.lowerExpr(ex.Rhs)
		if err != nil {
			return invalidValue, err
		}
		return b.newValue(&Value{Kind: VBinary, Block: b.curr, BinOp: convBinOp(ex.Op), Args: []ValueID{lhs, rhs}}), nil
	case *hir.RrRange:
		a, err := b.lowerExpr(ex.A)
		if err != nil {
			return invalidValue, err
		}
		c, err := b.lowerExpr(ex.B)
		if err != nil {
			return invalidValue, err
		}
		return b.newValue(&Value{Kind: VRange, Block: b.curr, Args: []ValueID{a, c}}), nil
	case *hir.RrIndices:
		x, err := b.lowerExpr(ex.X)
		if err != nil {
			return invalidValue, err
		}
		return b.newValue(&Value{Kind: VIndices, Block: b.curr, Args: []ValueID{x}}), nil
	case *hir.Call:
		name, ok := ex.Callee.(*hir.Name)
		callee := ""
		if ok {
			callee = name.Name
		}
		args := make([]ValueID, 0, len(ex.Args))
		for _, a := range ex.Args {
			vid, err := b.lowerExpr(a)
			if err != nil {
				return invalidValue, err
			}
			args = append(args, vid)
		}
		if callee == "length" && len(args) == 1 {
			return b.newValue(&Value{Kind: VLen, Block: b.curr, Args: args}), nil
		}
		return b.newValue(&Value{Kind: VCall, Callee: callee, Block: b.curr, Args: args}), nil
	case *hir.Index1D:
		base, err := b.lowerExpr(ex.Base)
		if err != nil {
			return invalidValue, err
		}
		idx, err := b.lowerExpr(ex.Idx)
		if err != nil {
			return invalidValue, err
		}
		return b.newValue(&Value{Kind: VIndex1Read, Block: b.curr, Args: []ValueID{base, idx}}), nil
	case *hir.Index2D:
		base, err := b.lowerExpr(ex.Base)
		if err != nil {
			return invalidValue, err
		}
		row, err := b.lowerExpr(ex.Row)
		if err != nil {
			return invalidValue, err
		}
		col, err := b.lowerExpr(ex.Col)
		if err != nil {
			return invalidValue, err
		}
		return b.newValue(&Value{Kind: VIndex2Read, Block: b.curr, Args: []ValueID{base, row, col}}), nil
	case *hir.Slice1D:
		base, err := b.lowerExpr(ex.Base)
		if err != nil {
			return invalidValue, err
		}
		a, err := b.lowerExpr(ex.A)
		if err != nil {
			return invalidValue, err
		}
		c, err := b.lowerExpr(ex.B)
		if err != nil {
			return invalidValue, err
		}
		return b.newValue(&Value{Kind: VSliceRead, Block: b.curr, Args: []ValueID{base, a, c}}), nil
	case *hir.Field:
		base, err := b.lowerExpr(ex.Base)
		if err != nil {
			return invalidValue, err
		}
		return b.newValue(&Value{Kind: VFieldGet, Block: b.curr, Field: ex.Name, Args: []ValueID{base}}), nil
	case *hir.VectorLit:
		args := make([]ValueID, 0, len(ex.Elems))
		for _, el := range ex.Elems {
			vid, err := b.lowerExpr(el)
			if err != nil {
				return invalidValue, err
			}
			args = append(args, vid)
		}
		return b.newValue(&Value{Kind: VVectorLit, Block: b.curr, Args: args}), nil
	case *hir.ListLit:
		args := make([]ValueID, 0, len(ex.Fields))
		names := make([]string, 0, len(ex.Fields))
		for _, f := range ex.Fields {
			vid, err := b.lowerExpr(f.Value)
			if err != nil {
				return invalidValue, err
			}
			args = append(args, vid)
			names = append(names, f.Name)
		}
		return b.newValue(&Value{Kind: VListLit, Block: b.curr, Args: args, FieldNames: names}), nil
	case *hir.Lambda:
		// Captures: every free name the lambda body reads that is bound in
		// the enclosing env at the point of capture.
		caps := b.freeVarsBoundInEnv(ex)
		args := make([]ValueID, 0, len(caps))
		names := make([]string, 0, len(caps))
		for name, vid := range caps {
			args = append(args, vid)
			names = append(names, name)
		}
		return b.newValue(&Value{Kind: VClosureMake, Block: b.curr, Args: args, FieldNames: names}), nil
	default:
		return invalidValue, errors.WrapReport(errors.New(errors.InternalError, "mir", "unknown hir expression", nil))
	}
}

// freeVarsBoundInEnv returns the subset of the current env a lambda's
// body references, used as its capture set.
func (b *Builder) freeVarsBoundInEnv(lam *hir.Lambda) map[string]ValueID {
	params := make(map[string]bool, len(lam.Params))
	for _, p := range lam.Params {
		params[p] = true
	}
	used := map[string]bool{}
	collectNamesInStmts(lam.Body, params, used)
	caps := map[string]ValueID{}
	for name := range used {
		if vid, ok := b.env[name]; ok {
			caps[name] = vid
		}
	}
	return caps
}

func (b *Builder) lowerLit(l *hir.Lit) ValueID {
	v := &Value{Kind: VConst, Block: b.curr}
	switch l.Kind {
	case ast.IntLit:
		v.ConstKind, v.Int = ConstInt, l.Int
	case ast.FloatLit:
		v.ConstKind, v.Float = ConstFloat, l.Float
	case ast.StringLit:
		v.ConstKind, v.Str = ConstString, l.Str
	case ast.BoolLit:
		v.ConstKind, v.Bool = ConstBool, l.Bool
	case ast.NALit:
		v.ConstKind = ConstNA
	case ast.NullLit:
		v.ConstKind = ConstNull
	}
	return b.newValue(v)
}

// lowerIf clones env before both branches so each lowers independently,
// then merges at a dedicated merge block. This mirrors the original
// builder's clone-env/restore-env/merge_envs sequencing exactly.
func (b *Builder) lowerIf(st *hir.IfStmt) error {
	cond, err := b.lowerExpr(st.Cond)
	if err != nil {
		return err
	}
	thenBB := b.newBlock()
	elseBB := b.newBlock()
	mergeBB := b.newBlock()
	b.terminate(If{Cond: cond, Then: thenBB, Else: elseBB})

	preEnv := cloneEnv(b.env)

	b.curr = thenBB
	if err := b.buildStmts(st.Then); err != nil {
		return err
	}
	thenEnv := cloneEnv(b.env)
	thenEnd := b.curr
	if !b.isTerminated() {
		b.terminate(Goto{Target: mergeBB})
	}

	b.env = cloneEnv(preEnv)
	b.curr = elseBB
	if st.Else != nil {
		if err := b.buildStmts(st.Else); err != nil {
			return err
		}
	}
	elseEnv := cloneEnv(b.env)
	elseEnd := b.curr
	if !b.isTerminated() {
		b.terminate(Goto{Target: mergeBB})
	}

	b.curr = mergeBB
	b.env = b.mergeEnvs(thenEnv, thenEnd, elseEnv, elseEnd)
	return nil
}

// mergeEnvs implements the definite-assignment rule: only names bound on
// both incoming edges survive into the merged env. If both edges agree on
// the same value id, that id is reused directly; otherwise a Phi is
// synthesized with exactly the two incoming (value, predecessor) pairs.
func (b *Builder) mergeEnvs(a map[string]ValueID, aBB BlockID, c map[string]ValueID, cBB BlockID) map[string]ValueID {
	merged := make(map[string]ValueID)
	for name, av := range a {
		cv, ok := c[name]
		if !ok {
			continue
		}
		if av == cv {
			merged[name] = av
			continue
		}
		phi := b.newValue(&Value{Kind: VPhi, Block: b.curr, PhiArgs: []PhiArg{{Value: av, Pred: aBB}, {Value: cv, Pred: cBB}}})
		b.fn.Block(b.curr).Phis = append(b.fn.Block(b.curr).Phis, phi)
		merged[name] = phi
	}
	return merged
}

// lowerWhile seeds one Phi per loop-mutated variable in the header, lowers
// the condition and body against those phis, then backpatches each header
// phi with its value at the latch.
func (b *Builder) lowerWhile(st *hir.WhileStmt) error {
	mutated := collectAssignedVars(st.Body)
	preheader := b.enterLoop()

	header := b.newBlock()
	body := b.newBlock()
	exit := b.newBlock()

	if !b.isTerminated() {
		b.terminate(Goto{Target: header})
	}

	b.curr = header
	phis := make(map[string]ValueID, len(mutated))
	for _, name := range mutated {
		init, ok := b.env[name]
		if !ok {
			continue
		}
		phi := b.newValue(&Value{Kind: VPhi, Block: header, PhiArgs: []PhiArg{{Value: init, Pred: preheader}}})
		b.fn.Block(header).Phis = append(b.fn.Block(header).Phis, phi)
		phis[name] = phi
		b.env[name] = phi
	}

	cond, err := b.lowerExpr(st.Cond)
	if err != nil {
		return err
	}
	b.terminate(If{Cond: cond, Then: body, Else: exit})

	b.curr = body
	if err := b.buildStmts(st.Body); err != nil {
		return err
	}
	latch := b.curr
	if !b.isTerminated() {
		b.terminate(Goto{Target: header})
	}

	for name, phi := range phis {
		if vid, ok := b.env[name]; ok {
			b.appendPhiArg(phi, PhiArg{Value: vid, Pred: latch})
		}
	}

	b.curr = exit
	for name, phi := range phis {
		b.env[name] = phi
	}
	b.fn.Loops = append(b.fn.Loops, LoopInfo{Kind: LoopWhile, Header: header, Body: body, Exit: exit})
	return nil
}

// lowerFor builds a counted loop with a dedicated induction-variable Phi
// plus one Phi per other mutated variable. At the exit block it also
// creates an extra Phi whose sole argument is the header's induction-
// variable Phi: this preserves the loop variable's visibility for any
// code after the loop that reads it, since without that exit-block Phi
// the induction variable's SSA name would only be defined in blocks
// dominated by the header, not at the exit.
func (b *Builder) lowerFor(st *hir.ForStmt) error {
	start, end, err := b.forBounds(st.Seq)
	if err != nil {
		return err
	}
	mutated := collectAssignedVars(st.Body)
	preheader := b.enterLoop()

	header := b.newBlock()
	body := b.newBlock()
	exit := b.newBlock()

	if !b.isTerminated() {
		b.terminate(Goto{Target: header})
	}

	b.curr = header
	ivPhi := b.newValue(&Value{Kind: VPhi, Block: header, PhiArgs: []PhiArg{{Value: start, Pred: preheader}}})
	b.fn.Block(header).Phis = append(b.fn.Block(header).Phis, ivPhi)
	b.env[st.Var] = ivPhi

	otherPhis := make(map[string]ValueID, len(mutated))
	for _, name := range mutated {
		if name == st.Var {
			continue
		}
		init, ok := b.env[name]
		if !ok {
			continue
		}
		phi := b.newValue(&Value{Kind: VPhi, Block: header, PhiArgs: []PhiArg{{Value: init, Pred: preheader}}})
		b.fn.Block(header).Phis = append(b.fn.Block(header).Phis, phi)
		otherPhis[name] = phi
		b.env[name] = phi
	}

	cond := b.newValue(&Value{Kind: VBinary, Block: header, BinOp: BLe, Args: []ValueID{ivPhi, end}})
	b.terminate(If{Cond: cond, Then: body, Else: exit})

	b.curr = body
	if err := b.buildStmts(st.Body); err != nil {
		return err
	}
	latch := b.curr
	one := b.newValue(&Value{Kind: VConst, Block: latch, ConstKind: ConstInt, Int: 1})
	nextIV := b.newValue(&Value{Kind: VBinary, Block: latch, BinOp: BAdd, Args: []ValueID{ivPhi, one}})
	if !b.isTerminated() {
		b.terminate(Goto{Target: header})
	}
	b.appendPhiArg(ivPhi, PhiArg{Value: nextIV, Pred: latch})
	for name, phi := range otherPhis {
		if vid, ok := b.env[name]; ok {
			b.appendPhiArg(phi, PhiArg{Value: vid, Pred: latch})
		}
	}

	b.curr = exit
	exitIV := b.newValue(&Value{Kind: VPhi, Block: exit, PhiArgs: []PhiArg{{Value: ivPhi, Pred: header}}})
	b.fn.Block(exit).Phis = append(b.fn.Block(exit).Phis, exitIV)
	b.env[st.Var] = exitIV
	for name, phi := range otherPhis {
		b.env[name] = phi
	}
	b.fn.Loops = append(b.fn.Loops, LoopInfo{
		Kind: LoopFor, Header: header, Body: body, Exit: exit,
		Var: st.Var, IVPhi: ivPhi, ExitPhi: exitIV, Start: start, End: end,
	})
	return nil
}

// forBounds determines the 0-based inclusive (start, end) of a `for`
// loop's sequence expression: a direct RrRange(a,b) gives (a,b); an
// RrIndices(x) form gives (0, length(x)-1).
func (b *Builder) forBounds(seq hir.Expr) (ValueID, ValueID, error) {
	switch s := seq.(type) {
	case *hir.RrRange:
		a, err := b.lowerExpr(s.A)
		if err != nil {
			return invalidValue, invalidValue, err
		}
		e, err := b.lowerExpr(s.B)
		if err != nil {
			return invalidValue, invalidValue, err
		}
		return a, e, nil
	case *hir.RrIndices:
		x, err := b.lowerExpr(s.X)
		if err != nil {
			return invalidValue, invalidValue, err
		}
		zero := b.newValue(&Value{Kind: VConst, Block: b.curr, ConstKind: ConstInt, Int: 0})
		length := b.newValue(&Value{Kind: VLen, Block: b.curr, Args: []ValueID{x}})
		one := b.newValue(&Value{Kind: VConst, Block: b.curr, ConstKind: ConstInt, Int: 1})
		end := b.newValue(&Value{Kind: VBinary, Block: b.curr, BinOp: BSub, Args: []ValueID{length, one}})
		return zero, end, nil
	default:
		vid, err := b.lowerExpr(seq)
		if err != nil {
			return invalidValue, invalidValue, err
		}
		zero := b.newValue(&Value{Kind: VConst, Block: b.curr, ConstKind: ConstInt, Int: 0})
		one := b.newValue(&Value{Kind: VConst, Block: b.curr, ConstKind: ConstInt, Int: 1})
		length := b.newValue(&Value{Kind: VLen, Block: b.curr, Args: []ValueID{vid}})
		end := b.newValue(&Value{Kind: VBinary, Block: b.curr, BinOp: BSub, Args: []ValueID{length, one}})
		return zero, end, nil
	}
}

func (b *Builder) appendPhiArg(phi ValueID, arg PhiArg) {
	v := b.fn.Value(phi)
	v.PhiArgs = append(v.PhiArgs, arg)
}

func (b *Builder) newValue(v *Value) ValueID {
	id := ValueID(len(b.fn.Values))
	v.ID = id
	v.Facts = NewFacts()
	b.fn.Values = append(b.fn.Values, v)
	return id
}

// enterLoop returns the block a loop is entered from. When the current
// block is not the most recently allocated one (an earlier if or loop
// allocated blocks after it), it first opens a fresh block for that role,
// so the loop header, allocated next, is always preheader+1.
func (b *Builder) enterLoop() BlockID {
	if !b.isTerminated() && b.curr != BlockID(len(b.fn.Blocks)-1) {
		pre := b.newBlock()
		b.terminate(Goto{Target: pre})
		b.curr = pre
	}
	return b.curr
}

func (b *Builder) newBlock() BlockID {
	id := BlockID(len(b.fn.Blocks))
	b.fn.Blocks = append(b.fn.Blocks, &Block{ID: id, Term: Unreachable{}})
	return id
}

func (b *Builder) pushInstr(i Instr) {
	blk := b.fn.Block(b.curr)
	blk.Instrs = append(blk.Instrs, i)
}

func (b *Builder) terminate(t Terminator) {
	blk := b.fn.Block(b.curr)
	blk.Term = t
	switch tt := t.(type) {
	case Goto:
		b.fn.Block(tt.Target).Preds = append(b.fn.Block(tt.Target).Preds, b.curr)
	case If:
		b.fn.Block(tt.Then).Preds = append(b.fn.Block(tt.Then).Preds, b.curr)
		b.fn.Block(tt.Else).Preds = append(b.fn.Block(tt.Else).Preds, b.curr)
	}
}

func (b *Builder) isTerminated() bool {
	_, unreachable := b.fn.Block(b.curr).Term.(Unreachable)
	return !unreachable
}

// finish drops the empty block that a function-final `return` leaves
// open: nothing jumps to it and nothing was lowered into it, so keeping it
// would only leave a block without a terminator behind.
func (b *Builder) finish() *Function {
	last := BlockID(len(b.fn.Blocks) - 1)
	blk := b.fn.Block(last)
	if b.curr != last || last == b.fn.Entry || b.isTerminated() || len(blk.Preds) > 0 || len(blk.Instrs) > 0 || len(blk.Phis) > 0 {
		return b.fn
	}
	for _, v := range b.fn.Values {
		if v.Block == last {
			return b.fn
		}
	}
	b.fn.Blocks = b.fn.Blocks[:last]
	return b.fn
}

func cloneEnv(env map[string]ValueID) map[string]ValueID {
	out := make(map[string]ValueID, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}

// collectAssignedVars recursively walks a statement list (descending into
// If/While/For bodies) and gathers every name ever assigned directly
// (`name <- ...`), used to decide which variables need a header Phi.
func collectAssignedVars(stmts []hir.Stmt) []string {
	seen := map[string]bool{}
	var order []string
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			order = append(order, n)
		}
	}
	var walk func([]hir.Stmt)
	walk = func(stmts []hir.Stmt) {
		for _, s := range stmts {
			switch st := s.(type) {
			case *hir.AssignStmt:
				if n, ok := st.Target.(*hir.NameLValue); ok {
					add(n.Name)
				} else if n, ok := indexedTargetName(st.Target); ok {
					add(n)
				}
			case *hir.IfStmt:
				walk(st.Then)
				walk(st.Else)
			case *hir.WhileStmt:
				walk(st.Body)
			case *hir.ForStmt:
				add(st.Var)
				walk(st.Body)
			}
		}
	}
	walk(stmts)
	return order
}

func indexedTargetName(lv hir.LValue) (string, bool) {
	switch t := lv.(type) {
	case *hir.Index1LValue:
		return lvalueBaseName(t.Base)
	case *hir.Index2LValue:
		return lvalueBaseName(t.Base)
	case *hir.FieldLValue:
		return lvalueBaseName(t.Base)
	}
	return "", false
}

// collectNamesInStmts gathers every Name read in stmts that is not among
// bound (typically a lambda's own parameters), used to compute closure
// captures.
func collectNamesInStmts(stmts []hir.Stmt, bound map[string]bool, out map[string]bool) {
	var walkExpr func(hir.Expr)
	var walkStmt func(hir.Stmt)
	walkExpr = func(e hir.Expr) {
		switch ex := e.(type) {
		case *hir.Name:
			if !bound[ex.Name] {
				out[ex.Name] = true
			}
		case *hir.Unary:
			walkExpr(ex.X)
		case *hir.Binary:
			walkExpr(ex.Lhs)
			walkExpr(ex.Rhs)
		case *hir.Call:
			walkExpr(ex.Callee)
			for _, a := range ex.Args {
				walkExpr(a)
			}
		case *hir.RrRange:
			walkExpr(ex.A)
			walkExpr(ex.B)
		case *hir.RrIndices:
			walkExpr(ex.X)
		case *hir.Index1D:
			walkExpr(ex.Base)
			walkExpr(ex.Idx)
		case *hir.Index2D:
			walkExpr(ex.Base)
			walkExpr(ex.Row)
			walkExpr(ex.Col)
		case *hir.Slice1D:
			walkExpr(ex.Base)
			walkExpr(ex.A)
			walkExpr(ex.B)
		case *hir.Field:
			walkExpr(ex.Base)
		case *hir.VectorLit:
			for _, el := range ex.Elems {
				walkExpr(el)
			}
		case *hir.ListLit:
			for _, f := range ex.Fields {
				walkExpr(f.Value)
			}
		case *hir.Lambda:
			inner := map[string]bool{}
			for k := range bound {
				inner[k] = true
			}
			for _, p := range ex.Params {
				inner[p] = true
			}
			collectNamesInStmts(ex.Body, inner, out)
		}
	}
	walkStmt = func(s hir.Stmt) {
		switch st := s.(type) {
		case *hir.AssignStmt:
			walkExpr(st.Value)
		case *hir.ExprStmt:
			walkExpr(st.X)
		case *hir.IfStmt:
			walkExpr(st.Cond)
			for _, s2 := range st.Then {
				walkStmt(s2)
			}
			for _, s2 := range st.Else {
				walkStmt(s2)
			}
		case *hir.WhileStmt:
			walkExpr(st.Cond)
			for _, s2 := range st.Body {
				walkStmt(s2)
			}
		case *hir.ForStmt:
			walkExpr(st.Seq)
			for _, s2 := range st.Body {
				walkStmt(s2)
			}
		case *hir.ReturnStmt:
			if st.Value != nil {
				walkExpr(st.Value)
			}
		}
	}
	for _, s := range stmts {
		walkStmt(s)
	}
}

func convUnOp(op ast.UnOp) UnOp {
	if op == ast.UNot {
		return UNot
	}
	return UNeg
}

func convBinOp(op ast.BinOp) BinOp {
	switch op {
	case ast.BAdd:
		return BAdd
	case ast.BSub:
		return BSub
	case ast.BMul:
		return BMul
	case ast.BDiv:
		return BDiv
	case ast.BMod:
		return BMod
	case ast.BMatMul:
		return BMatMul
	case ast.BEq:
		return BEq
	case ast.BNeq:
		return BNeq
	case ast.BLt:
		return BLt
	case ast.BLe:
		return BLe
	case ast.BGt:
		return BGt
	case ast.BGe:
		return BGe
	case ast.BAnd:
		return BAnd
	default:
		return BOr
	}
}
