// Package codegen turns optimized MIR back into R source text: a
// structurizer recovers if/while/for control flow from the SSA-form CFG,
// and an emitter walks the recovered tree producing R statements, folding
// SSA phis into plain copy-assignments the way a classic out-of-SSA pass
// would, and eliding runtime bounds checks wherever internal/opt's BCE
// pass already proved a fact the check exists to guard against.
package codegen

import "github.com/rr-lang/rr/internal/mir"

// Node is one reconstructed piece of structured control flow.
type Node interface{ nodeType() }

// BlockNode means "emit the straight-line content (instructions and any
// value materializations) belonging to this MIR block".
type BlockNode struct{ ID mir.BlockID }

// IfNode is a structured if/else recovered from an If terminator whose
// Then/Else branches both rejoin at the same merge block.
type IfNode struct {
	Cond ValueRef
	Then []Node
	Else []Node
}

// LoopNode is a structured while or for loop recovered via the builder's
// LoopInfo tag (see internal/mir.LoopInfo) rather than reverse-engineered
// from block shape alone.
type LoopNode struct {
	Info mir.LoopInfo
	Body []Node
}

// ReturnNode is a function return, possibly marked tail-self-recursive by
// internal/opt's TCO pass.
type ReturnNode struct {
	Value mir.ValueID
	Tail  bool
	Bare  bool // true for a bare `return()` with no value
}

func (BlockNode) nodeType()  {}
func (IfNode) nodeType()     {}
func (LoopNode) nodeType()   {}
func (ReturnNode) nodeType() {}

// ValueRef is just the MIR value a condition or expression reduces to;
// kept as a named type so the Node variants read clearly.
type ValueRef = mir.ValueID

// copy is one phi-resolution assignment: "at the end of this predecessor
// block, give dest the value src currently holds". Classic out-of-SSA phi
// elimination via copy insertion in each predecessor, valid here because
// the builder never produces a critical edge: every predecessor of a
// header or merge block has that block as its only successor.
type copy struct {
	Dest mir.ValueID
	Src  mir.ValueID
}

// Structurizer rebuilds a tree of Nodes from one MIR function's CFG. It
// relies on two invariants the builder guarantees and internal/opt
// preserves: block IDs are allocated in strict forward program order, and
// an If always reserves Then/Else/Merge as three consecutive block IDs
// before recursing into either branch. Because this MIR is only ever
// produced by this package's own builder (never an arbitrary external
// CFG), a shape-matching structurizer is sufficient and a full general
// dominator/post-dominator reducibility analysis is not needed.
type Structurizer struct {
	fn           *mir.Function
	loopByHeader map[mir.BlockID]mir.LoopInfo
	copiesAtEnd  map[mir.BlockID][]copy
}

// NewStructurizer prepares s to recover the control-flow tree of fn.
func NewStructurizer(fn *mir.Function) *Structurizer {
	s := &Structurizer{
		fn:           fn,
		loopByHeader: make(map[mir.BlockID]mir.LoopInfo, len(fn.Loops)),
		copiesAtEnd:  make(map[mir.BlockID][]copy),
	}
	for _, l := range fn.Loops {
		s.loopByHeader[l.Header] = l
	}
	return s
}

// Structurize returns the function body as a tree of Nodes, along with the
// phi-resolution copies each block must emit after its own instructions.
func (s *Structurizer) Structurize() ([]Node, map[mir.BlockID][]copy) {
	nodes, _ := s.buildSeq(s.fn.Entry, -1)
	return nodes, s.copiesAtEnd
}

const noStop mir.BlockID = -1

func (s *Structurizer) buildSeq(start, stop mir.BlockID) ([]Node, mir.BlockID) {
	var nodes []Node
	cur := start
	last := start
	for cur != stop {
		last = cur
		nodes = append(nodes, BlockNode{ID: cur})

		if loop, ok := s.loopByHeader[cur]; ok {
			bodyNodes, latch := s.buildSeq(loop.Body, loop.Header)
			s.registerLoop(loop, latch)
			nodes = append(nodes, LoopNode{Info: loop, Body: bodyNodes})
			cur = loop.Exit
			continue
		}

		blk := s.fn.Block(cur)
		switch term := blk.Term.(type) {
		case mir.Goto:
			cur = term.Target
		case mir.If:
			merge := term.Else + 1
			thenNodes, thenEnd := s.buildSeq(term.Then, merge)
			elseNodes, elseEnd := s.buildSeq(term.Else, merge)
			s.registerMerge(merge, thenEnd, elseEnd)
			nodes = append(nodes, IfNode{Cond: term.Cond, Then: thenNodes, Else: elseNodes})
			cur = merge
		case mir.Return:
			nodes = append(nodes, ReturnNode{Value: term.Value, Tail: term.TailSelfCall, Bare: term.Value == -1})
			return nodes, cur
		case mir.Unreachable:
			return nodes, cur
		}
	}
	return nodes, last
}

// registerLoop records the preheader/latch phi copies for a while or for
// loop. The induction-variable phi (and its exit phi) of a for loop are
// skipped: R's native `for` already binds and preserves the loop variable,
// so those two phis need no copy statements at all, only a name alias
// (see Emitter.nameFor).
func (s *Structurizer) registerLoop(loop mir.LoopInfo, latch mir.BlockID) {
	preheader := loop.Header - 1
	for _, phi := range s.fn.Block(loop.Header).Phis {
		if phi == loop.IVPhi || phi == loop.ExitPhi {
			continue
		}
		v := s.fn.Value(phi)
		for _, arg := range v.PhiArgs {
			switch arg.Pred {
			case preheader:
				s.copiesAtEnd[preheader] = append(s.copiesAtEnd[preheader], copy{Dest: phi, Src: arg.Value})
			case latch:
				s.copiesAtEnd[latch] = append(s.copiesAtEnd[latch], copy{Dest: phi, Src: arg.Value})
			}
		}
	}
}

func (s *Structurizer) registerMerge(merge, thenEnd, elseEnd mir.BlockID) {
	for _, phi := range s.fn.Block(merge).Phis {
		v := s.fn.Value(phi)
		for _, arg := range v.PhiArgs {
			switch arg.Pred {
			case thenEnd:
				s.copiesAtEnd[thenEnd] = append(s.copiesAtEnd[thenEnd], copy{Dest: phi, Src: arg.Value})
			case elseEnd:
				s.copiesAtEnd[elseEnd] = append(s.copiesAtEnd[elseEnd], copy{Dest: phi, Src: arg.Value})
			}
		}
	}
}
