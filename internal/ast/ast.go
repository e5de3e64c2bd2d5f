// Package ast defines the surface syntax tree produced by the RR parser.
package ast

import "fmt"

// Pos is a single source location.
type Pos struct {
	File string
	Line int
	Col  int
}

func (p Pos) String() string { return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col) }

// Span is a half-open range in source text, used for diagnostics and the
// emitter's source map.
type Span struct {
	Start Pos
	End   Pos
}

// Node is the base for every AST node.
type Node interface {
	Position() Pos
}

// Program is an ordered collection of top-level items parsed from one file.
type Program struct {
	Path    string
	Imports []*ImportDecl
	Items   []Item
	Pos     Pos
}

func (p *Program) Position() Pos { return p.Pos }

// ImportDecl names a module path imported relative to the importing file.
type ImportDecl struct {
	Path string
	Pos  Pos
}

func (i *ImportDecl) Position() Pos { return i.Pos }

// Item is a top-level declaration or statement.
type Item interface {
	Node
	itemNode()
}

// FnDecl declares a named function, whether written as `fn name(...) {}`
// or as `name <- function(...) {}`.
type FnDecl struct {
	Name     string
	Params   []string
	Varargs  bool
	Body     *Block
	NoInline bool
	Public   bool
	Span     Span
	DeclPos  Pos
}

func (f *FnDecl) Position() Pos { return f.DeclPos }
func (f *FnDecl) itemNode()     {}

// TopStmt wraps a top-level statement (module-level side effect).
type TopStmt struct {
	Stmt Stmt
}

func (t *TopStmt) Position() Pos { return t.Stmt.Position() }
func (t *TopStmt) itemNode()     {}

// Block is an ordered sequence of statements.
type Block struct {
	Stmts []Stmt
	Span  Span
}

// Stmt is the base for all statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// LValue is the target of an assignment.
type LValue interface {
	Node
	lvalueNode()
}

// NameLValue assigns directly to a local name.
type NameLValue struct {
	Name string
	Pos_ Pos
}

func (n *NameLValue) Position() Pos { return n.Pos_ }
func (n *NameLValue) lvalueNode()   {}

// Index1LValue assigns through one-dimensional indexing: base[idx] <- v.
type Index1LValue struct {
	Base Expr
	Idx  Expr
	Pos_ Pos
}

func (n *Index1LValue) Position() Pos { return n.Pos_ }
func (n *Index1LValue) lvalueNode()   {}

// Index2LValue assigns through matrix indexing: base[r, c] <- v.
type Index2LValue struct {
	Base Expr
	Row  Expr
	Col  Expr
	Pos_ Pos
}

func (n *Index2LValue) Position() Pos { return n.Pos_ }
func (n *Index2LValue) lvalueNode()   {}

// FieldLValue assigns to a record field: base.name <- v.
type FieldLValue struct {
	Base Expr
	Name string
	Pos_ Pos
}

func (n *FieldLValue) Position() Pos { return n.Pos_ }
func (n *FieldLValue) lvalueNode()   {}

// AssignStmt binds the result of Value to Target.
type AssignStmt struct {
	Target LValue
	Value  Expr
	Pos_   Pos
}

func (a *AssignStmt) Position() Pos { return a.Pos_ }
func (a *AssignStmt) stmtNode()     {}

// ExprStmt evaluates X for its side effect and discards the result.
type ExprStmt struct {
	X    Expr
	Pos_ Pos
}

func (e *ExprStmt) Position() Pos { return e.Pos_ }
func (e *ExprStmt) stmtNode()     {}

// IfStmt is a conditional with an optional else branch.
type IfStmt struct {
	Cond Expr
	Then *Block
	Else *Block // nil if absent
	Pos_ Pos
}

func (s *IfStmt) Position() Pos { return s.Pos_ }
func (s *IfStmt) stmtNode()     {}

// WhileStmt loops while Cond is truthy.
type WhileStmt struct {
	Cond Expr
	Body *Block
	Pos_ Pos
}

func (s *WhileStmt) Position() Pos { return s.Pos_ }
func (s *WhileStmt) stmtNode()     {}

// ForStmt iterates Var over Seq (a range(...) or indices(...) expression).
type ForStmt struct {
	Var  string
	Seq  Expr
	Body *Block
	Pos_ Pos
}

func (s *ForStmt) Position() Pos { return s.Pos_ }
func (s *ForStmt) stmtNode()     {}

// ReturnStmt returns Value (nil for a bare `return`).
type ReturnStmt struct {
	Value Expr // nil allowed
	Pos_  Pos
}

func (s *ReturnStmt) Position() Pos { return s.Pos_ }
func (s *ReturnStmt) stmtNode()     {}

// Expr is the base for all expression nodes.
type Expr interface {
	Node
	exprNode()
}

// LitKind distinguishes the literal forms RR recognizes.
type LitKind int

const (
	IntLit LitKind = iota
	FloatLit
	StringLit
	BoolLit
	NALit
	NullLit
)

// Lit is a literal value.
type Lit struct {
	Kind  LitKind
	Int   int64
	Float float64
	Str   string
	Bool  bool
	Pos_  Pos
}

func (l *Lit) Position() Pos { return l.Pos_ }
func (l *Lit) exprNode()     {}

// Ident references a local or global name.
type Ident struct {
	Name string
	Pos_ Pos
}

func (i *Ident) Position() Pos { return i.Pos_ }
func (i *Ident) exprNode()     {}

// UnOp is the surface unary operator set.
type UnOp int

const (
	UNeg UnOp = iota
	UNot
)

// UnaryExpr applies Op to X.
type UnaryExpr struct {
	Op   UnOp
	X    Expr
	Pos_ Pos
}

func (u *UnaryExpr) Position() Pos { return u.Pos_ }
func (u *UnaryExpr) exprNode()     {}

// BinOp is the surface binary operator set.
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

// BinaryExpr applies Op to Lhs and Rhs.
type BinaryExpr struct {
	Op       BinOp
	Lhs, Rhs Expr
	Pos_     Pos
}

func (b *BinaryExpr) Position() Pos { return b.Pos_ }
func (b *BinaryExpr) exprNode()     {}

// CallExpr applies Callee to Args. Callee is usually an *Ident.
type CallExpr struct {
	Callee Expr
	Args   []Expr
	Pos_   Pos
}

func (c *CallExpr) Position() Pos { return c.Pos_ }
func (c *CallExpr) exprNode()     {}

// PipeExpr is `Lhs |> Call(...)`, desugared by the HIR stage.
type PipeExpr struct {
	Lhs  Expr
	Call *CallExpr
	Pos_ Pos
}

func (p *PipeExpr) Position() Pos { return p.Pos_ }
func (p *PipeExpr) exprNode()     {}

// Index1Expr reads Base[Idx].
type Index1Expr struct {
	Base, Idx Expr
	Pos_      Pos
}

func (i *Index1Expr) Position() Pos { return i.Pos_ }
func (i *Index1Expr) exprNode()     {}

// Index2Expr reads Base[Row, Col].
type Index2Expr struct {
	Base, Row, Col Expr
	Pos_           Pos
}

func (i *Index2Expr) Position() Pos { return i.Pos_ }
func (i *Index2Expr) exprNode()     {}

// SliceExpr reads Base[A..B] (inclusive 0-based range slice).
type SliceExpr struct {
	Base, A, B Expr
	Pos_       Pos
}

func (s *SliceExpr) Position() Pos { return s.Pos_ }
func (s *SliceExpr) exprNode()     {}

// FieldExpr reads Base.Name (or Base$Name).
type FieldExpr struct {
	Base Expr
	Name string
	Pos_ Pos
}

func (f *FieldExpr) Position() Pos { return f.Pos_ }
func (f *FieldExpr) exprNode()     {}

// RecordField is one `name: value` pair in a RecordLit.
type RecordField struct {
	Name  string
	Value Expr
}

// RecordLit is a `{name: value, ...}` literal.
type RecordLit struct {
	Fields []RecordField
	Pos_   Pos
}

func (r *RecordLit) Position() Pos { return r.Pos_ }
func (r *RecordLit) exprNode()     {}

// LambdaExpr is an anonymous `function(params) body` closure literal.
type LambdaExpr struct {
	Params []string
	Body   *Block
	Pos_   Pos
}

func (l *LambdaExpr) Position() Pos { return l.Pos_ }
func (l *LambdaExpr) exprNode()     {}
