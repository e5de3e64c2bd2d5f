// Package safety validates MIR before and after optimization: ValidateStructure
// checks the SSA invariants the builder and every internal/opt pass are
// expected to preserve, and ValidateRuntimeSafety statically flags
// operations that are provably unsafe regardless of input (constant
// division by zero, a constant out-of-bounds index, an operand that can
// only ever be NA). Both return an internal/errors.Aggregate so a caller
// can report every violation found in one pass rather than stopping at
// the first.
//
// Neither validator has an original .rr source span to attach to a
// finding: spans live on HIR/AST nodes, and MIR doesn't thread them
// through (see internal/codegen's MapEntry for the same gap at the other
// end of the pipeline). Diagnostics here carry a zero Span and instead
// name the function and value/block in the message text.
package safety

import (
	"fmt"

	"github.com/rr-lang/rr/internal/ast"
	"github.com/rr-lang/rr/internal/errors"
	"github.com/rr-lang/rr/internal/mir"
)

const (
	stageStructure = "mir-structure"
	stageRuntime   = "mir-runtime-safety"
)

// ValidateStructure checks SSA well-formedness: every Phi has exactly one
// incoming argument per predecessor block (no more, no fewer, and no
// duplicate predecessor), every value reference resolves to a real Value
// in the same function, and every block ends in a real terminator (not the
// Unreachable zero value, which would mean the builder left a block
// dangling).
func ValidateStructure(fn *mir.Function) *errors.Aggregate {
	agg := &errors.Aggregate{}
	maxID := mir.ValueID(len(fn.Values))

	checkRef := func(blockCtx string, id mir.ValueID) {
		if id == -1 {
			return
		}
		if id < 0 || id >= maxID {
			agg.Addf(errors.InternalError, stageStructure, ast.Span{}, "%s: %s references out-of-range value id %d", fn.Name, blockCtx, id)
		}
	}

	for _, blk := range fn.Blocks {
		switch blk.Term.(type) {
		case mir.Unreachable:
			agg.Addf(errors.InternalError, stageStructure, ast.Span{}, "%s: block %d has no terminator", fn.Name, blk.ID)
		}
		switch term := blk.Term.(type) {
		case mir.Goto:
			checkRef(fmt.Sprintf("block %d goto", blk.ID), mir.ValueID(term.Target))
		case mir.If:
			checkRef(fmt.Sprintf("block %d if-cond", blk.ID), term.Cond)
		case mir.Return:
			checkRef(fmt.Sprintf("block %d return", blk.ID), term.Value)
		}

		for _, phi := range blk.Phis {
			v := fn.Value(phi)
			if v.Kind != mir.VPhi {
				agg.Addf(errors.InternalError, stageStructure, ast.Span{}, "%s: block %d lists value %d in Phis but it is not VPhi", fn.Name, blk.ID, phi)
				continue
			}
			seen := map[mir.BlockID]int{}
			for _, arg := range v.PhiArgs {
				seen[arg.Pred]++
				checkRef(fmt.Sprintf("phi %d", phi), arg.Value)
			}
			for _, pred := range blk.Preds {
				if seen[pred] != 1 {
					agg.Addf(errors.InternalError, stageStructure, ast.Span{},
						"%s: phi %d in block %d has %d incoming edges from predecessor %d, want exactly 1",
						fn.Name, phi, blk.ID, seen[pred], pred)
				}
			}
			if len(v.PhiArgs) != len(blk.Preds) {
				agg.Addf(errors.InternalError, stageStructure, ast.Span{},
					"%s: phi %d in block %d has %d incoming edges, want %d (one per predecessor)",
					fn.Name, phi, blk.ID, len(v.PhiArgs), len(blk.Preds))
			}
		}
	}

	for _, v := range fn.Values {
		ctx := fmt.Sprintf("value %d", v.ID)
		for _, a := range v.Args {
			checkRef(ctx, a)
		}
	}
	for _, blk := range fn.Blocks {
		for _, instr := range blk.Instrs {
			ctx := fmt.Sprintf("block %d instr", blk.ID)
			switch in := instr.(type) {
			case *mir.StoreIndex1D:
				checkRef(ctx, in.Base)
				checkRef(ctx, in.Idx)
				checkRef(ctx, in.Val)
			case *mir.StoreIndex2D:
				checkRef(ctx, in.Base)
				checkRef(ctx, in.Row)
				checkRef(ctx, in.Col)
				checkRef(ctx, in.Val)
			case *mir.Eval:
				checkRef(ctx, in.Val)
			}
		}
	}

	return agg
}

// ValidateRuntimeSafety statically flags values that are unsafe on every
// possible execution, not just some: a constant-zero divisor, a constant
// negative or otherwise provably out-of-bounds index against a literal
// vector, and a binary or unary operation with a literal NA operand
// (which always yields NA; catching it here gives a compile-time
// diagnostic naming the MIR value that caused it).
func ValidateRuntimeSafety(fn *mir.Function) *errors.Aggregate {
	agg := &errors.Aggregate{}
	for _, v := range fn.Values {
		switch v.Kind {
		case mir.VBinary:
			checkDivisionByZero(agg, fn, v)
			checkNAOperand(agg, fn, v)
		case mir.VUnary:
			checkNAOperand(agg, fn, v)
		case mir.VIndex1Read:
			checkConstIndex(agg, fn, v, v.Args[0], v.Args[1])
		}
	}
	for _, blk := range fn.Blocks {
		if term, ok := blk.Term.(mir.If); ok {
			checkNACondition(agg, fn, blk, term)
		}
		for _, instr := range blk.Instrs {
			if store, ok := instr.(*mir.StoreIndex1D); ok {
				checkConstStoreIndex(agg, fn, store)
			}
		}
	}
	return agg
}

// checkNACondition flags an If whose condition is provably the literal NA:
// RR has no three-valued branch semantics, so such a branch can never
// resolve to either arm and is always a compile-time fault rather than a
// runtime one.
func checkNACondition(agg *errors.Aggregate, fn *mir.Function, blk *mir.Block, term mir.If) {
	cond := fn.Value(term.Cond)
	if cond.Kind == mir.VConst && cond.ConstKind == mir.ConstNA {
		agg.Addf(errors.ValueError, stageRuntime, ast.Span{}, "%s: block %d branches on a condition that is always NA", fn.Name, blk.ID)
	}
}

func checkDivisionByZero(agg *errors.Aggregate, fn *mir.Function, v *mir.Value) {
	if v.BinOp != mir.BDiv && v.BinOp != mir.BMod {
		return
	}
	rhs := fn.Value(v.Args[1])
	if rhs.Kind != mir.VConst {
		return
	}
	isZero := (rhs.ConstKind == mir.ConstInt && rhs.Int == 0) || (rhs.ConstKind == mir.ConstFloat && rhs.Float == 0)
	if isZero {
		agg.Addf(errors.ValueError, stageRuntime, ast.Span{}, "%s: value %d divides by a constant zero", fn.Name, v.ID)
	}
}

func checkNAOperand(agg *errors.Aggregate, fn *mir.Function, v *mir.Value) {
	for _, a := range v.Args {
		arg := fn.Value(a)
		if arg.Kind == mir.VConst && arg.ConstKind == mir.ConstNA {
			agg.Addf(errors.ValueError, stageRuntime, ast.Span{}, "%s: value %d operates on a literal NA and always produces NA", fn.Name, v.ID)
			return
		}
	}
}

// checkConstIndex only fires when both the index and the base vector
// literal are compile-time constants, so it can prove the bound violation
// rather than guess at it; any other shape is left to the runtime
// rr_index1_read check, which internal/codegen still emits whenever BCE
// hasn't proven the index safe. A constant index of 0 is reported too,
// even though it falls inside [0, n): it follows the prelude's rr_i1
// rule (i >= 1 on top of rr_i0's i >= 0).
func checkConstIndex(agg *errors.Aggregate, fn *mir.Function, v *mir.Value, base, idx mir.ValueID) {
	idxVal := fn.Value(idx)
	if idxVal.Kind != mir.VConst || idxVal.ConstKind != mir.ConstInt {
		return
	}
	baseVal := fn.Value(base)
	if baseVal.Kind != mir.VVectorLit {
		return
	}
	n := int64(len(baseVal.Args))
	if idxVal.Int == 0 || idxVal.Int < 0 || idxVal.Int >= n {
		agg.Addf(errors.BoundsError, stageRuntime, ast.Span{}, "%s: value %d indexes a %d-element literal vector at constant index %d, out of bounds", fn.Name, v.ID, n, idxVal.Int)
	}
}

// checkConstStoreIndex applies the same constant-index rule to a write
// (StoreIndex1D), which is a side-effecting Instr rather than a Value and
// so isn't reached by the fn.Values loop above.
func checkConstStoreIndex(agg *errors.Aggregate, fn *mir.Function, store *mir.StoreIndex1D) {
	idxVal := fn.Value(store.Idx)
	if idxVal.Kind != mir.VConst || idxVal.ConstKind != mir.ConstInt {
		return
	}
	baseVal := fn.Value(store.Base)
	if baseVal.Kind != mir.VVectorLit {
		return
	}
	n := int64(len(baseVal.Args))
	if idxVal.Int == 0 || idxVal.Int < 0 || idxVal.Int >= n {
		agg.Addf(errors.BoundsError, stageRuntime, ast.Span{}, "%s: value %d writes a %d-element literal vector at constant index %d, out of bounds", fn.Name, store.NewVersion, n, idxVal.Int)
	}
}
