package opt

import "github.com/rr-lang/rr/internal/mir"

// bce propagates the facts that let internal/safety elide a runtime
// bounds or NA check: constants carry their own facts, VRange/VIndices
// values are non-negative by construction (both are 0-based, inclusive,
// upper-bounded sequences), and a Phi's facts are the meet of its
// incoming values' facts (a fact only survives a merge if every
// predecessor established it). It returns how many values gained a new
// fact this pass, so the fixpoint driver knows whether to run again.
func bce(fn *mir.Function) int {
	hits := 0
	for _, v := range fn.Values {
		changed := false
		set := func(bit uint) {
			if !v.Facts.Has(bit) {
				v.Facts = v.Facts.Set(bit)
				changed = true
			}
		}
		switch v.Kind {
		case mir.VConst:
			switch v.ConstKind {
			case mir.ConstInt:
				set(mir.FactIntScalar)
				set(mir.FactNonNA)
				if v.Int >= 0 {
					set(mir.FactNonNeg)
				}
			case mir.ConstFloat, mir.ConstString, mir.ConstBool:
				set(mir.FactNonNA)
				if v.ConstKind == mir.ConstBool {
					set(mir.FactBoolScalar)
				}
			}
		case mir.VRange, mir.VIndices:
			set(mir.FactNonNeg)
			set(mir.FactNonNA)
			set(mir.FactIntScalar)
		case mir.VLen:
			set(mir.FactNonNeg)
			set(mir.FactNonNA)
			set(mir.FactIntScalar)
		case mir.VVectorLit:
			set(mir.FactIsVector)
		case mir.VBinary, mir.VUnary:
			if allArgsHaveFact(fn, v.Args, mir.FactNonNA) {
				set(mir.FactNonNA)
			}
		case mir.VPhi:
			if len(v.PhiArgs) > 0 {
				merged := fn.Value(v.PhiArgs[0].Value).Facts
				for _, a := range v.PhiArgs[1:] {
					merged = mir.Meet(merged, fn.Value(a.Value).Facts)
				}
				for _, bit := range []uint{mir.FactIntScalar, mir.FactBoolScalar, mir.FactNonNeg, mir.FactNonNA, mir.FactIsVector} {
					if merged.Has(bit) {
						set(bit)
					}
				}
			}
		}
		if changed {
			hits++
		}
	}
	return hits
}

func allArgsHaveFact(fn *mir.Function, args []mir.ValueID, bit uint) bool {
	for _, a := range args {
		if !fn.Value(a).Facts.Has(bit) {
			return false
		}
	}
	return true
}
