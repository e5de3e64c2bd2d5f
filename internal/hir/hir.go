// Package hir is RR's desugared intermediate form: surface syntax with
// pipes flattened, alias calls canonicalized to their runtime names, and
// range/indices forms recognized as dedicated nodes so the MIR builder
// doesn't have to re-derive them from generic calls.
package hir

import "github.com/rr-lang/rr/internal/ast"

// Program is a desugared compilation unit: every top-level function plus
// any top-level statements (module-level side effects).
type Program struct {
	Funcs    []*Func
	TopStmts []Stmt
}

// Func is a desugared function declaration.
type Func struct {
	Name     string
	Params   []string
	Varargs  bool
	Body     []Stmt
	NoInline bool
	Pos      ast.Pos
}

// Stmt is the base for desugared statements. The set mirrors ast.Stmt
// exactly; desugaring only ever rewrites expressions, not statement shape.
type Stmt interface {
	stmtNode()
}

type AssignStmt struct {
	Target LValue
	Value  Expr
	Pos    ast.Pos
}

type ExprStmt struct {
	X   Expr
	Pos ast.Pos
}

type IfStmt struct {
	Cond Expr
	Then []Stmt
	Else []Stmt // nil if absent
	Pos  ast.Pos
}

type WhileStmt struct {
	Cond Expr
	Body []Stmt
	Pos  ast.Pos
}

type ForStmt struct {
	Var  string
	Seq  Expr
	Body []Stmt
	Pos  ast.Pos
}

type ReturnStmt struct {
	Value Expr // nil allowed
	Pos   ast.Pos
}

func (*AssignStmt) stmtNode() {}
func (*ExprStmt) stmtNode()   {}
func (*IfStmt) stmtNode()     {}
func (*WhileStmt) stmtNode()  {}
func (*ForStmt) stmtNode()    {}
func (*ReturnStmt) stmtNode() {}

// LValue mirrors ast.LValue; desugaring rewrites the Base/Idx/Row/Col
// expressions it carries but never the shape.
type LValue interface {
	lvalueNode()
}

type NameLValue struct{ Name string }
type Index1LValue struct {
	Base, Idx Expr
}
type Index2LValue struct {
	Base, Row, Col Expr
}
type FieldLValue struct {
	Base Expr
	Name string
}

func (*NameLValue) lvalueNode()   {}
func (*Index1LValue) lvalueNode() {}
func (*Index2LValue) lvalueNode() {}
func (*FieldLValue) lvalueNode()  {}

// Expr is the base for desugared expressions.
type Expr interface {
	exprNode()
	Position() ast.Pos
}

type exprBase struct{ Pos ast.Pos }

func (e exprBase) Position() ast.Pos { return e.Pos }

type LitKind = ast.LitKind

type Lit struct {
	exprBase
	Kind  LitKind
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

type Name struct {
	exprBase
	Name string
}

type Unary struct {
	exprBase
	Op ast.UnOp
	X  Expr
}

type Binary struct {
	exprBase
	Op       ast.BinOp
	Lhs, Rhs Expr
}

// Call is a generic call to a non-canonicalized callee (builtin or
// user-defined function, resolved by name at a later stage).
type Call struct {
	exprBase
	Callee Expr
	Args   []Expr
}

// RrRange is the canonical form of rr_range(a, b) — 0-based inclusive range.
type RrRange struct {
	exprBase
	A, B Expr
}

// RrIndices is the canonical form of rr_indices(x) — 0..length(x)-1.
type RrIndices struct {
	exprBase
	X Expr
}

type Index1D struct {
	exprBase
	Base, Idx Expr
}

type Index2D struct {
	exprBase
	Base, Row, Col Expr
}

type Slice1D struct {
	exprBase
	Base, A, B Expr
}

type VectorLit struct {
	exprBase
	Elems []Expr
}

type ListField struct {
	Name  string
	Value Expr
}

type ListLit struct {
	exprBase
	Fields []ListField
}

// Field reads base.name / base$name.
type Field struct {
	exprBase
	Base Expr
	Name string
}

// Lambda is a closure literal, lowered at MIR-build time into
// rr_closure_make over its captured free variables.
type Lambda struct {
	exprBase
	Params []string
	Body   []Stmt
}

func (*Lit) exprNode()       {}
func (*Name) exprNode()      {}
func (*Unary) exprNode()     {}
func (*Binary) exprNode()    {}
func (*Call) exprNode()      {}
func (*RrRange) exprNode()   {}
func (*RrIndices) exprNode() {}
func (*Index1D) exprNode()   {}
func (*Index2D) exprNode()   {}
func (*Slice1D) exprNode()   {}
func (*VectorLit) exprNode() {}
func (*ListLit) exprNode()   {}
func (*Field) exprNode()     {}
func (*Lambda) exprNode()    {}
