package opt

import "github.com/rr-lang/rr/internal/mir"

// loopRange is a contiguous run of BlockIDs belonging to one loop: the
// builder lowers a function in a single forward pass, so every block
// created between a loop header and the back edge that closes it belongs
// to that loop, and nothing outside that range does.
type loopRange struct {
	header, latch mir.BlockID
}

// licm hoists pure values out of loop bodies when every operand is
// defined before the loop starts. Hoisting here means reassigning the
// value's defining Block to the loop's preheader — this MIR has no
// separate instruction-ordering list for pure values (only Instrs and
// Terminators are order-sensitive), so relocating the Block field is the
// whole transformation; nothing needs to be physically moved.
func licm(fn *mir.Function) int {
	hits := 0
	for _, lp := range findLoops(fn) {
		preheader := lp.header - 1
		if preheader < 0 {
			continue
		}
		nonEmpty := loopProvenNonEmpty(fn, lp.header)
		for _, v := range fn.Values {
			if v.Block < lp.header || v.Block > lp.latch {
				continue
			}
			if !hoistable(v) {
				continue
			}
			if !operandsDefinedBefore(fn, v, lp.header) {
				continue
			}
			if !mir.ValueIsPure(fn, v.ID, map[mir.ValueID]bool{}) {
				continue
			}
			// Pure isn't the same as non-failing: a division can still trap
			// on a zero divisor, and an index read can still trap out of
			// bounds. Hoisting one of those above the loop is only sound if
			// the divisor/index is proven safe, or the loop is proven to run
			// at least once so the hoisted op would have executed anyway.
			if maySpeculativelyFail(fn, v) && !nonEmpty {
				continue
			}
			v.Block = preheader
			hits++
		}
	}
	return hits
}

// loopProvenNonEmpty reports whether the loop headed by header is known at
// compile time to execute its body at least once. Only `for` loops with
// constant integer bounds can be proven this way; rr_range(a, b) lowers to
// seq.int(a, b) when a <= b (inclusive) and an empty sequence otherwise, so
// a <= b is exactly the non-empty condition. `while` loops test their
// condition before the first iteration and carry no bound information, so
// they are never considered proven non-empty.
func loopProvenNonEmpty(fn *mir.Function, header mir.BlockID) bool {
	for _, info := range fn.Loops {
		if info.Kind != mir.LoopFor || info.Header != header {
			continue
		}
		start, end := fn.Value(info.Start), fn.Value(info.End)
		if start.Kind != mir.VConst || start.ConstKind != mir.ConstInt {
			return false
		}
		if end.Kind != mir.VConst || end.ConstKind != mir.ConstInt {
			return false
		}
		return start.Int <= end.Int
	}
	return false
}

// maySpeculativelyFail reports whether v can raise even though it is pure
// in the SSA sense: a division/modulo by a non-constant (or constant-zero)
// divisor, or any index read, since neither BCE's facts nor LICM track an
// upper bound tight enough to prove an index always lands in range.
func maySpeculativelyFail(fn *mir.Function, v *mir.Value) bool {
	switch v.Kind {
	case mir.VBinary:
		if v.BinOp != mir.BDiv && v.BinOp != mir.BMod {
			return false
		}
		rhs := fn.Value(v.Args[1])
		nonZeroConst := rhs.Kind == mir.VConst &&
			((rhs.ConstKind == mir.ConstInt && rhs.Int != 0) ||
				(rhs.ConstKind == mir.ConstFloat && rhs.Float != 0))
		return !nonZeroConst
	case mir.VIndex1Read, mir.VIndex2Read, mir.VSliceRead:
		return true
	default:
		return false
	}
}

func hoistable(v *mir.Value) bool {
	switch v.Kind {
	case mir.VUnary, mir.VBinary, mir.VCall, mir.VLen, mir.VIndices, mir.VRange,
		mir.VIndex1Read, mir.VIndex2Read, mir.VSliceRead, mir.VFieldGet:
		return true
	default:
		return false
	}
}

func operandsDefinedBefore(fn *mir.Function, v *mir.Value, header mir.BlockID) bool {
	for _, a := range v.Args {
		if fn.Value(a).Block >= header {
			return false
		}
	}
	return true
}

func findLoops(fn *mir.Function) []loopRange {
	var loops []loopRange
	for _, blk := range fn.Blocks {
		g, ok := blk.Term.(mir.Goto)
		if !ok {
			continue
		}
		if g.Target <= blk.ID {
			loops = append(loops, loopRange{header: g.Target, latch: blk.ID})
		}
	}
	return loops
}
