package codegen

import "github.com/rr-lang/rr/internal/mir"

// Emit structurizes and emits one MIR function's R text in one call, for
// callers (internal/pipeline) that don't need the intermediate tree.
func Emit(fn *mir.Function) (string, []MapEntry) {
	nodes, copies := NewStructurizer(fn).Structurize()
	return NewEmitter(fn, copies).EmitFunction(nodes)
}
