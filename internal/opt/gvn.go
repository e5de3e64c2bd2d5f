package opt

import (
	"fmt"

	"github.com/rr-lang/rr/internal/mir"
)

// gvn assigns a structural key to every pure value and replaces later
// duplicates with the first value that produced the same key, rewriting
// all downstream uses in place. A VCall to a non-pure builtin is never
// merged even if structurally identical, since calling twice may observe
// or cause different effects; VClosureMake values and phis are never
// merged either.
func gvn(fn *mir.Function) int {
	seen := map[string]mir.ValueID{}
	replace := map[mir.ValueID]mir.ValueID{}
	hits := 0

	for _, v := range fn.Values {
		if v.Kind == mir.VPhi || v.Kind == mir.VClosureMake {
			continue
		}
		if v.Kind == mir.VCall && !mir.IsPureCall(v.Callee) {
			continue
		}
		key := gvnKey(v, replace)
		if existing, ok := seen[key]; ok {
			replace[v.ID] = existing
			hits++
			continue
		}
		seen[key] = v.ID
	}
	if hits == 0 {
		return 0
	}
	rewriteValueIDs(fn, func(id mir.ValueID) mir.ValueID {
		if r, ok := replace[id]; ok {
			return r
		}
		return id
	})
	return hits
}

func canonical(replace map[mir.ValueID]mir.ValueID, id mir.ValueID) mir.ValueID {
	for {
		r, ok := replace[id]
		if !ok {
			return id
		}
		id = r
	}
}

func gvnKey(v *mir.Value, replace map[mir.ValueID]mir.ValueID) string {
	args := make([]mir.ValueID, len(v.Args))
	for i, a := range v.Args {
		args[i] = canonical(replace, a)
	}
	switch v.Kind {
	case mir.VConst:
		return fmt.Sprintf("const:%d:%d:%f:%s:%t", v.ConstKind, v.Int, v.Float, v.Str, v.Bool)
	case mir.VUnary:
		return fmt.Sprintf("unary:%d:%v", v.UnOp, args)
	case mir.VBinary:
		return fmt.Sprintf("binary:%d:%v", v.BinOp, args)
	case mir.VCall:
		return fmt.Sprintf("call:%s:%v", v.Callee, args)
	case mir.VLen:
		return fmt.Sprintf("len:%v", args)
	case mir.VIndices:
		return fmt.Sprintf("indices:%v", args)
	case mir.VRange:
		return fmt.Sprintf("range:%v", args)
	case mir.VIndex1Read:
		return fmt.Sprintf("idx1:%v", args)
	case mir.VIndex2Read:
		return fmt.Sprintf("idx2:%v", args)
	case mir.VSliceRead:
		return fmt.Sprintf("slice:%v", args)
	case mir.VFieldGet:
		return fmt.Sprintf("field:%s:%v", v.Field, args)
	case mir.VVectorLit:
		return fmt.Sprintf("vec:%v", args)
	case mir.VListLit:
		return fmt.Sprintf("list:%v:%v", v.FieldNames, args)
	case mir.VParam:
		return fmt.Sprintf("param:%d", v.ID)
	default:
		return fmt.Sprintf("unmergeable:%d", v.ID)
	}
}

// rewriteValueIDs applies remap to every ValueID reference in the
// function: value Args, phi args, instruction operands, and terminators.
func rewriteValueIDs(fn *mir.Function, remap func(mir.ValueID) mir.ValueID) {
	for _, v := range fn.Values {
		for i, a := range v.Args {
			v.Args[i] = remap(a)
		}
		for i, p := range v.PhiArgs {
			v.PhiArgs[i] = mir.PhiArg{Value: remap(p.Value), Pred: p.Pred}
		}
	}
	for _, blk := range fn.Blocks {
		for i, instr := range blk.Instrs {
			switch in := instr.(type) {
			case *mir.StoreIndex1D:
				blk.Instrs[i] = &mir.StoreIndex1D{NewVersion: in.NewVersion, Base: remap(in.Base), Idx: remap(in.Idx), Val: remap(in.Val)}
			case *mir.StoreIndex2D:
				blk.Instrs[i] = &mir.StoreIndex2D{NewVersion: in.NewVersion, Base: remap(in.Base), Row: remap(in.Row), Col: remap(in.Col), Val: remap(in.Val)}
			case *mir.Eval:
				blk.Instrs[i] = &mir.Eval{Val: remap(in.Val)}
			}
		}
		switch term := blk.Term.(type) {
		case mir.If:
			blk.Term = mir.If{Cond: remap(term.Cond), Then: term.Then, Else: term.Else}
		case mir.Return:
			if term.Value != -1 {
				blk.Term = mir.Return{Value: remap(term.Value), TailSelfCall: term.TailSelfCall}
			}
		}
	}
}
