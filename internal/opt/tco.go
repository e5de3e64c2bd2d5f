package opt

import "github.com/rr-lang/rr/internal/mir"

// tco marks a Return whose value is a direct self-call as tail position,
// so internal/codegen can emit a loop instead of a recursive R call (R
// has no guaranteed tail-call elimination, so deep recursion would
// otherwise overflow the interpreter's call stack).
func tco(fn *mir.Function) int {
	hits := 0
	for _, blk := range fn.Blocks {
		ret, ok := blk.Term.(mir.Return)
		if !ok || ret.TailSelfCall || ret.Value == -1 {
			continue
		}
		v := fn.Value(ret.Value)
		if v.Kind != mir.VCall || v.Callee != fn.Name {
			continue
		}
		blk.Term = mir.Return{Value: ret.Value, TailSelfCall: true}
		hits++
	}
	return hits
}
