// Package mir is RR's mid-level intermediate representation: an SSA form
// with phi nodes and dominator-friendly block structure, built from HIR
// one function at a time, optimized by the Tachyon pass pipeline
// (internal/opt), checked by internal/safety, and finally structurized
// back into control-flow by internal/codegen.
package mir

import "github.com/bits-and-blooms/bitset"

// ValueID indexes into a Function's Values arena. IDs are issued densely
// from zero; invalidValue (-1) marks an absent value, such as the operand
// of a bare return.
type ValueID int

// BlockID indexes into a Function's Blocks arena.
type BlockID int

const invalidValue ValueID = -1

// ValueKind distinguishes the operations a Value computes.
type ValueKind int

const (
	VConst ValueKind = iota
	VParam
	VPhi
	VUnary
	VBinary
	VCall
	VLen
	VIndices
	VRange
	VIndex1Read
	VIndex2Read
	VSliceRead
	VFieldGet
	VVectorLit
	VListLit
	VClosureMake
)

// PhiArg is one (value, predecessor block) incoming edge of a Phi.
type PhiArg struct {
	Value ValueID
	Pred  BlockID
}

// ConstKind distinguishes the literal forms a VConst value carries.
type ConstKind int

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstString
	ConstBool
	ConstNA
	ConstNull
)

// Value is one SSA value: either a constant, a block parameter, a phi, or
// the result of some operation over other Values (its Args).
type Value struct {
	ID    ValueID
	Kind  ValueKind
	Block BlockID // defining block

	// VConst
	ConstKind ConstKind
	Int       int64
	Float     float64
	Str       string
	Bool      bool

	// VUnary / VBinary op tags (reuse ast's operator enums via mir wrappers
	// to avoid importing ast into ir consumers that don't need surface
	// syntax).
	UnOp  UnOp
	BinOp BinOp

	// VCall / VFieldGet
	Callee string
	Field  string

	// Operand list: Unary.X, Binary.{Lhs,Rhs}, Call.Args, Len.Base,
	// Indices.Base, Range.{A,B}, Index1Read.{Base,Idx},
	// Index2Read.{Base,Row,Col}, SliceRead.{Base,A,B}, FieldGet.Base,
	// VectorLit/ListLit/ClosureMake elements.
	Args []ValueID

	// VListLit field names, parallel to Args.
	FieldNames []string

	// VPhi incoming edges.
	PhiArgs []PhiArg

	Facts Facts
}

// UnOp mirrors ast.UnOp without importing the surface package.
type UnOp int

const (
	UNeg UnOp = iota
	UNot
)

// BinOp mirrors ast.BinOp without importing the surface package.
type BinOp int

const (
	BAdd BinOp = iota
	BSub
	BMul
	BDiv
	BMod
	BMatMul
	BEq
	BNeq
	BLt
	BLe
	BGt
	BGe
	BAnd
	BOr
)

// Instr is a side-effecting, order-sensitive operation that is not itself
// an SSA value: an indexed write (StoreIndex1D, StoreIndex2D) or an Eval
// that runs a value for its effect. Every expression lives as a Value;
// Eval is what pins an effectful one to its place in the block.
type Instr interface {
	instrNode()
}

// StoreIndex1D writes Val into Base[Idx], producing NewVersion as the
// rebound SSA name for the mutated variable.
type StoreIndex1D struct {
	NewVersion ValueID
	Base       ValueID
	Idx        ValueID
	Val        ValueID
}

// StoreIndex2D writes Val into Base[Row, Col].
type StoreIndex2D struct {
	NewVersion ValueID
	Base       ValueID
	Row        ValueID
	Col        ValueID
	Val        ValueID
}

// Eval runs Val for its side effect (an impure call used as a statement)
// and discards the result.
type Eval struct {
	Val ValueID
}

func (*StoreIndex1D) instrNode() {}
func (*StoreIndex2D) instrNode() {}
func (*Eval) instrNode()         {}

// Terminator is the single control-transfer instruction ending a block.
type Terminator interface {
	termNode()
}

// Unreachable is the zero-value terminator: a block that has not yet been
// given a real terminator reads as Unreachable, which doubles as both the
// "not yet terminated" sentinel and the terminator for genuinely dead code
// (e.g. statements parsed after an unconditional return).
type Unreachable struct{}

type Goto struct{ Target BlockID }

type If struct {
	Cond       ValueID
	Then, Else BlockID
}

// Return ends the function. Value is invalidValue for a bare `return`.
// TailSelfCall is set by the Tachyon optimizer's TCO pass when Value is a
// call back into the enclosing function in tail position, letting
// internal/codegen emit a loop instead of a real call.
type Return struct {
	Value        ValueID
	TailSelfCall bool
}

func (Unreachable) termNode() {}
func (Goto) termNode()        {}
func (If) termNode()          {}
func (Return) termNode()      {}

// Block is a maximal straight-line instruction sequence ending in exactly
// one Terminator.
type Block struct {
	ID     BlockID
	Phis   []ValueID
	Instrs []Instr
	Term   Terminator
	Preds  []BlockID
}

// Function is one compiled RR function in MIR form.
type Function struct {
	Name     string
	Params   []ValueID
	Varargs  bool
	NoInline bool
	Values   []*Value
	Blocks   []*Block
	Entry    BlockID
	Loops    []LoopInfo
}

// LoopKind distinguishes the two loop shapes the builder ever emits.
type LoopKind int

const (
	LoopWhile LoopKind = iota
	LoopFor
)

// LoopInfo records how build.go lowered one source loop. The builder only
// ever produces a handful of recognizable header/body/exit shapes, but
// nothing about the CFG alone says whether a given shape came from a
// `while` or a `for` — so the builder tags each loop as it's lowered
// rather than asking internal/codegen's structurizer to reverse-engineer
// it from block shape.
type LoopInfo struct {
	Kind   LoopKind
	Header BlockID
	Body   BlockID
	Exit   BlockID

	// LoopFor only: the induction variable's header Phi, its exit Phi, the
	// source variable name, and the 0-based (start, end) bounds it counts
	// over, for reconstructing the `for (v in a:b)`/`for (v in seq)` surface
	// form instead of emitting the desugared range-and-increment shape.
	Var      string
	IVPhi    ValueID
	ExitPhi  ValueID
	Start    ValueID
	End      ValueID
}

func (f *Function) Value(id ValueID) *Value { return f.Values[id] }
func (f *Function) Block(id BlockID) *Block { return f.Blocks[id] }

// Facts is the monotone analysis-fact bitset attached to every Value:
// INT_SCALAR, BOOL_SCALAR, NON_NEG, NON_NA, IS_VECTOR. Passes only ever
// add bits (never clear them), and a Phi's facts are the meet
// (intersection) of its incoming values' facts.
type Facts struct {
	bits *bitset.BitSet
}

const (
	FactIntScalar uint = iota
	FactBoolScalar
	FactNonNeg
	FactNonNA
	FactIsVector
	factCount
)

func NewFacts() Facts { return Facts{bits: bitset.New(factCount)} }

func (f Facts) Set(bit uint) Facts {
	if f.bits == nil {
		f.bits = bitset.New(factCount)
	}
	f.bits.Set(bit)
	return f
}

func (f Facts) Has(bit uint) bool {
	if f.bits == nil {
		return false
	}
	return f.bits.Test(bit)
}

// Meet returns the intersection of a and b, used to compute a phi's facts
// from its incoming arguments — a fact only holds at the phi if it held
// on every incoming edge.
func Meet(a, b Facts) Facts {
	out := NewFacts()
	if a.bits == nil || b.bits == nil {
		return out
	}
	out.bits = a.bits.Intersection(b.bits)
	return out
}
