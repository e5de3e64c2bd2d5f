package opt

import "github.com/rr-lang/rr/internal/mir"

// inlineable reports whether fn is a trivial leaf function the inliner
// is willing to splice into a call site: not marked noinline, one block,
// no side-effecting instructions (so no Store/Eval to reorder), ending in
// a Return that carries a value.
func inlineable(fn *mir.Function) bool {
	if fn.NoInline {
		return false
	}
	if len(fn.Blocks) != 1 {
		return false
	}
	blk := fn.Blocks[0]
	if len(blk.Instrs) != 0 {
		return false
	}
	ret, ok := blk.Term.(mir.Return)
	return ok && ret.Value != -1
}

// InlineAll splices every call to a trivial leaf function directly into
// its call site, across every function in the program. It runs once,
// after MIR is built for every function, since inlining needs the
// callee's body available by name.
func InlineAll(funcs map[string]*mir.Function) int {
	hits := 0
	for name, fn := range funcs {
		for {
			did := inlineOnePass(name, fn, funcs)
			hits += did
			if did == 0 {
				break
			}
		}
	}
	return hits
}

func inlineOnePass(callerName string, fn *mir.Function, funcs map[string]*mir.Function) int {
	hits := 0
	for _, v := range fn.Values {
		if v.Kind != mir.VCall || v.Callee == callerName {
			continue
		}
		callee, ok := funcs[v.Callee]
		if !ok || !inlineable(callee) {
			continue
		}
		spliceCall(fn, v, callee)
		hits++
	}
	return hits
}

// spliceCall rewrites call site v in-place into the callee's return
// expression, copying every callee value it transitively needs into fn's
// arena with parameters substituted by the call's actual arguments.
func spliceCall(fn *mir.Function, v *mir.Value, callee *mir.Function) {
	sub := map[mir.ValueID]mir.ValueID{}
	paramIdx := map[mir.ValueID]int{}
	for i, p := range callee.Params {
		paramIdx[p] = i
	}
	for _, cv := range callee.Values {
		if i, isParam := paramIdx[cv.ID]; isParam {
			if i < len(v.Args) {
				sub[cv.ID] = v.Args[i]
			}
			continue
		}
		sub[cv.ID] = appendCopy(fn, cv, sub)
	}
	ret := callee.Blocks[0].Term.(mir.Return)
	final := sub[ret.Value]

	// Rewrite v into an alias of the inlined result: every existing
	// reference to v.ID still resolves, but v now just mirrors final.
	src := fn.Value(final)
	v.Kind = src.Kind
	v.ConstKind = src.ConstKind
	v.Int, v.Float, v.Str, v.Bool = src.Int, src.Float, src.Str, src.Bool
	v.UnOp, v.BinOp = src.UnOp, src.BinOp
	v.Callee, v.Field = src.Callee, src.Field
	v.Args = append([]mir.ValueID(nil), src.Args...)
	v.FieldNames = append([]string(nil), src.FieldNames...)
	v.PhiArgs = append([]mir.PhiArg(nil), src.PhiArgs...)
	v.Facts = src.Facts
}

func appendCopy(fn *mir.Function, cv *mir.Value, sub map[mir.ValueID]mir.ValueID) mir.ValueID {
	args := make([]mir.ValueID, len(cv.Args))
	for i, a := range cv.Args {
		args[i] = sub[a]
	}
	newID := mir.ValueID(len(fn.Values))
	copied := &mir.Value{
		ID: newID, Kind: cv.Kind, Block: fn.Entry,
		ConstKind: cv.ConstKind, Int: cv.Int, Float: cv.Float, Str: cv.Str, Bool: cv.Bool,
		UnOp: cv.UnOp, BinOp: cv.BinOp, Callee: cv.Callee, Field: cv.Field,
		Args: args, FieldNames: cv.FieldNames, Facts: cv.Facts,
	}
	fn.Values = append(fn.Values, copied)
	return newID
}
