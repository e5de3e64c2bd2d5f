package mir

// pureCalls is the whitelist of callee names the purity analysis treats
// as side-effect-free. Notably "rr_bool" — the scalar-condition
// validator — is NOT in this set: it can raise, so a call to it is never
// considered pure even though it looks like a cheap predicate.
var pureCalls = map[string]bool{
	"length": true, "seq_len": true, "seq_along": true,
	"abs": true, "sqrt": true, "sin": true, "cos": true, "tan": true,
	"log": true, "exp": true,
	"c": true, "sum": true, "mean": true, "var": true, "sd": true,
	"min": true, "max": true, "prod": true,
	"colSums": true, "rowSums": true, "%*%": true,
	"crossprod": true, "tcrossprod": true,
	"is.na": true, "is.finite": true,
	"rr_field_get": true, "rr_field_exists": true, "rr_list_rest": true,
	"rr_named_list": true, "rr_row_sum_range": true, "rr_col_sum_range": true,
}

// IsPureCall reports whether callee is in the pure-call whitelist.
func IsPureCall(callee string) bool { return pureCalls[callee] }

// ValueIsPure determines whether computing v can be done without running
// any side effect, recursing into v's operands. visiting guards against
// infinite recursion through a Phi cycle: a Phi reachable from itself via
// its own arguments is conservatively impure rather than looping forever.
func ValueIsPure(fn *Function, vid ValueID, visiting map[ValueID]bool) bool {
	if visiting[vid] {
		return false
	}
	visiting[vid] = true
	defer delete(visiting, vid)

	v := fn.Value(vid)
	switch v.Kind {
	case VConst, VParam:
		return true
	case VPhi:
		for _, arg := range v.PhiArgs {
			if !ValueIsPure(fn, arg.Value, visiting) {
				return false
			}
		}
		return true
	case VUnary:
		return ValueIsPure(fn, v.Args[0], visiting)
	case VBinary:
		return ValueIsPure(fn, v.Args[0], visiting) && ValueIsPure(fn, v.Args[1], visiting)
	case VCall:
		if !IsPureCall(v.Callee) {
			return false
		}
		for _, a := range v.Args {
			if !ValueIsPure(fn, a, visiting) {
				return false
			}
		}
		return true
	case VLen, VIndices, VFieldGet:
		for _, a := range v.Args {
			if !ValueIsPure(fn, a, visiting) {
				return false
			}
		}
		return true
	case VRange, VIndex1Read, VIndex2Read, VSliceRead, VVectorLit, VListLit:
		for _, a := range v.Args {
			if !ValueIsPure(fn, a, visiting) {
				return false
			}
		}
		return true
	case VClosureMake:
		return true
	default:
		return false
	}
}

// InstrIsPure reports whether an Instr performs any side effect.
// StoreIndex1D/StoreIndex2D are always impure — they are, definitionally,
// the only memory writes in MIR. Eval is pure iff the value it evaluates
// is pure (an impure call used purely for its side effect is the common
// case an Eval exists to represent).
func InstrIsPure(fn *Function, instr Instr) bool {
	switch i := instr.(type) {
	case *StoreIndex1D, *StoreIndex2D:
		_ = i
		return false
	case *Eval:
		return ValueIsPure(fn, i.Val, map[ValueID]bool{})
	default:
		return false
	}
}

// BlockIsPure reports whether every instruction in a block, plus its
// terminator's condition/return value, is pure.
func BlockIsPure(fn *Function, blk *Block) bool {
	for _, instr := range blk.Instrs {
		if !InstrIsPure(fn, instr) {
			return false
		}
	}
	switch t := blk.Term.(type) {
	case If:
		return ValueIsPure(fn, t.Cond, map[ValueID]bool{})
	case Return:
		if t.Value == invalidValue {
			return true
		}
		return ValueIsPure(fn, t.Value, map[ValueID]bool{})
	case Goto, Unreachable:
		return true
	default:
		return false
	}
}

// LoopIsPure reports whether every block reachable in a loop (given by its
// block id set) is pure. The LICM pass does not use it: it checks each
// candidate value with ValueIsPure instead.
func LoopIsPure(fn *Function, blockIDs []BlockID) bool {
	for _, id := range blockIDs {
		if !BlockIsPure(fn, fn.Block(id)) {
			return false
		}
	}
	return true
}
