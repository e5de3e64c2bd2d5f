package opt

import "github.com/rr-lang/rr/internal/mir"

// dce removes values nothing reads: not a terminator operand, not a
// store's index/value operand, not reachable by walking Args/PhiArgs
// from one of those roots. It physically compacts the Values arena and
// remaps every ValueID reference accordingly, since a dangling ID would
// break every later pass that indexes fn.Value(id).
func dce(fn *mir.Function) int {
	live := map[mir.ValueID]bool{}
	var roots []mir.ValueID
	for _, v := range fn.Values {
		if v.Kind == mir.VParam {
			roots = append(roots, v.ID)
		}
	}
	for _, lp := range fn.Loops {
		if lp.Kind == mir.LoopFor {
			roots = append(roots, lp.IVPhi, lp.ExitPhi, lp.Start, lp.End)
		}
	}
	for _, blk := range fn.Blocks {
		for _, instr := range blk.Instrs {
			switch in := instr.(type) {
			case *mir.StoreIndex1D:
				roots = append(roots, in.NewVersion, in.Base, in.Idx, in.Val)
			case *mir.StoreIndex2D:
				roots = append(roots, in.NewVersion, in.Base, in.Row, in.Col, in.Val)
			case *mir.Eval:
				roots = append(roots, in.Val)
			}
		}
		switch term := blk.Term.(type) {
		case mir.If:
			roots = append(roots, term.Cond)
		case mir.Return:
			if term.Value != -1 {
				roots = append(roots, term.Value)
			}
		}
	}

	var walk func(id mir.ValueID)
	walk = func(id mir.ValueID) {
		if id < 0 || live[id] {
			return
		}
		live[id] = true
		v := fn.Value(id)
		for _, a := range v.Args {
			walk(a)
		}
		for _, p := range v.PhiArgs {
			walk(p.Value)
		}
	}
	for _, r := range roots {
		walk(r)
	}

	dead := 0
	for _, v := range fn.Values {
		if !live[v.ID] {
			dead++
		}
	}
	if dead == 0 {
		return 0
	}

	oldToNew := map[mir.ValueID]mir.ValueID{}
	newValues := make([]*mir.Value, 0, len(live))
	for _, v := range fn.Values {
		if !live[v.ID] {
			continue
		}
		newID := mir.ValueID(len(newValues))
		oldToNew[v.ID] = newID
		v.ID = newID
		newValues = append(newValues, v)
	}
	remap := func(id mir.ValueID) mir.ValueID {
		if id < 0 {
			return id
		}
		return oldToNew[id]
	}
	for _, v := range newValues {
		for i, a := range v.Args {
			v.Args[i] = remap(a)
		}
		filtered := v.PhiArgs[:0]
		for _, p := range v.PhiArgs {
			filtered = append(filtered, mir.PhiArg{Value: remap(p.Value), Pred: p.Pred})
		}
		v.PhiArgs = filtered
	}
	for _, blk := range fn.Blocks {
		keptPhis := blk.Phis[:0]
		for _, p := range blk.Phis {
			if live[p] {
				keptPhis = append(keptPhis, remap(p))
			}
		}
		blk.Phis = keptPhis
		for i, instr := range blk.Instrs {
			switch in := instr.(type) {
			case *mir.StoreIndex1D:
				blk.Instrs[i] = &mir.StoreIndex1D{NewVersion: remap(in.NewVersion), Base: remap(in.Base), Idx: remap(in.Idx), Val: remap(in.Val)}
			case *mir.StoreIndex2D:
				blk.Instrs[i] = &mir.StoreIndex2D{NewVersion: remap(in.NewVersion), Base: remap(in.Base), Row: remap(in.Row), Col: remap(in.Col), Val: remap(in.Val)}
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
	for i, p := range fn.Params {
		fn.Params[i] = remap(p)
	}
	for i := range fn.Loops {
		if lp := &fn.Loops[i]; lp.Kind == mir.LoopFor {
			lp.IVPhi, lp.ExitPhi, lp.Start, lp.End = remap(lp.IVPhi), remap(lp.ExitPhi), remap(lp.Start), remap(lp.End)
		}
	}
	fn.Values = newValues
	return dead
}
