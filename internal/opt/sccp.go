package opt

import "github.com/rr-lang/rr/internal/mir"

// sccp folds VUnary/VBinary values whose operands are both VConst into a
// single VConst, and propagates NA-ness (an operation over a NA constant
// is itself NA, matching R's NA-contagion). It is "sparse conditional"
// only in spirit: RR's CFG already makes conditions explicit, so this
// pass is a straightforward constant-fold to a fixpoint rather than a
// lattice walk over unreachable branches.
func sccp(fn *mir.Function) int {
	hits := 0
	for _, v := range fn.Values {
		switch v.Kind {
		case mir.VUnary:
			if folded, ok := foldUnary(fn, v); ok {
				*v = *folded
				hits++
			}
		case mir.VBinary:
			if folded, ok := foldBinary(fn, v); ok {
				*v = *folded
				hits++
			}
		}
	}
	return hits
}

func asConst(fn *mir.Function, id mir.ValueID) (*mir.Value, bool) {
	v := fn.Value(id)
	if v.Kind != mir.VConst {
		return nil, false
	}
	return v, true
}

func foldUnary(fn *mir.Function, v *mir.Value) (*mir.Value, bool) {
	x, ok := asConst(fn, v.Args[0])
	if !ok {
		return nil, false
	}
	if x.ConstKind == mir.ConstNA {
		return constValue(v.ID, v.Block, mir.ConstNA, 0, 0, "", false), true
	}
	switch v.UnOp {
	case mir.UNeg:
		switch x.ConstKind {
		case mir.ConstInt:
			return constValue(v.ID, v.Block, mir.ConstInt, -x.Int, 0, "", false), true
		case mir.ConstFloat:
			return constValue(v.ID, v.Block, mir.ConstFloat, 0, -x.Float, "", false), true
		}
	case mir.UNot:
		if x.ConstKind == mir.ConstBool {
			return constValue(v.ID, v.Block, mir.ConstBool, 0, 0, "", !x.Bool), true
		}
	}
	return nil, false
}

func foldBinary(fn *mir.Function, v *mir.Value) (*mir.Value, bool) {
	a, aok := asConst(fn, v.Args[0])
	b, bok := asConst(fn, v.Args[1])
	if !aok || !bok {
		return nil, false
	}
	if a.ConstKind == mir.ConstNA || b.ConstKind == mir.ConstNA {
		return constValue(v.ID, v.Block, mir.ConstNA, 0, 0, "", false), true
	}
	if a.ConstKind == mir.ConstInt && b.ConstKind == mir.ConstInt {
		if iv, ok := foldIntBinary(v.BinOp, a.Int, b.Int); ok {
			return constValue(v.ID, v.Block, mir.ConstInt, iv, 0, "", false), true
		}
		if bv, ok := foldIntCompare(v.BinOp, a.Int, b.Int); ok {
			return constValue(v.ID, v.Block, mir.ConstBool, 0, 0, "", bv), true
		}
	}
	if a.ConstKind == mir.ConstFloat && b.ConstKind == mir.ConstFloat {
		if fv, ok := foldFloatBinary(v.BinOp, a.Float, b.Float); ok {
			return constValue(v.ID, v.Block, mir.ConstFloat, 0, fv, "", false), true
		}
	}
	if a.ConstKind == mir.ConstBool && b.ConstKind == mir.ConstBool {
		switch v.BinOp {
		case mir.BAnd:
			return constValue(v.ID, v.Block, mir.ConstBool, 0, 0, "", a.Bool && b.Bool), true
		case mir.BOr:
			return constValue(v.ID, v.Block, mir.ConstBool, 0, 0, "", a.Bool || b.Bool), true
		}
	}
	return nil, false
}

func foldIntBinary(op mir.BinOp, a, b int64) (int64, bool) {
	switch op {
	case mir.BAdd:
		return a + b, true
	case mir.BSub:
		return a - b, true
	case mir.BMul:
		return a * b, true
	case mir.BDiv:
		if b == 0 {
			return 0, false
		}
		return a / b, true
	case mir.BMod:
		if b == 0 {
			return 0, false
		}
		return a % b, true
	}
	return 0, false
}

func foldIntCompare(op mir.BinOp, a, b int64) (bool, bool) {
	switch op {
	case mir.BEq:
		return a == b, true
	case mir.BNeq:
		return a != b, true
	case mir.BLt:
		return a < b, true
	case mir.BLe:
		return a <= b, true
	case mir.BGt:
		return a > b, true
	case mir.BGe:
		return a >= b, true
	}
	return false, false
}

func foldFloatBinary(op mir.BinOp, a, b float64) (float64, bool) {
	switch op {
	case mir.BAdd:
		return a + b, true
	case mir.BSub:
		return a - b, true
	case mir.BMul:
		return a * b, true
	case mir.BDiv:
		return a / b, true
	}
	return 0, false
}

func constValue(id mir.ValueID, block mir.BlockID, kind mir.ConstKind, i int64, f float64, s string, b bool) *mir.Value {
	return &mir.Value{
		ID: id, Kind: mir.VConst, Block: block,
		ConstKind: kind, Int: i, Float: f, Str: s, Bool: b,
		Facts: mir.NewFacts(),
	}
}
