package codegen

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rr-lang/rr/internal/mir"
)

// MapEntry is one source-map row: the 1-based line in the emitted R text
// that corresponds to statement index stmt within the compiled function.
// RR doesn't thread original spans through MIR yet, so this is a coarse
// per-statement counter rather than a line/column pair back into the .rr
// source — enough for internal/runner to report which top-level statement
// an R-side error came from, not yet enough to point at a source column.
type MapEntry struct {
	RLine int
	Stmt  int
}

// Emitter renders one MIR function as R source text.
type Emitter struct {
	fn       *mir.Function
	copies   map[mir.BlockID][]copy
	useCount map[mir.ValueID]int
	out      strings.Builder
	indent   int
	rLine    int
	stmtSeq  int
	spans    []MapEntry
}

// NewEmitter prepares an emitter for fn. Structurize must already have run
// (the caller passes its copiesAtEnd result) so phi-resolution copies are
// available at emission time.
func NewEmitter(fn *mir.Function, copies map[mir.BlockID][]copy) *Emitter {
	e := &Emitter{fn: fn, copies: copies}
	e.useCount = countUses(fn)
	return e
}

// EmitFunction renders `name <- function(params) { ... }` and returns the R
// text plus its source map.
func (e *Emitter) EmitFunction(nodes []Node) (string, []MapEntry) {
	params := make([]string, len(e.fn.Params))
	for i, p := range e.fn.Params {
		params[i] = e.paramName(p)
	}
	varargSuffix := ""
	if e.fn.Varargs {
		varargSuffix = ", ..."
	}
	e.writeLine(fmt.Sprintf("%s <- function(%s%s) {", e.fn.Name, strings.Join(params, ", "), varargSuffix))
	e.indent++
	if e.hasTailCall() {
		e.writeLine("repeat {")
		e.indent++
		e.emitNodes(nodes)
		e.indent--
		e.writeLine("}")
	} else {
		e.emitNodes(nodes)
	}
	e.indent--
	e.writeLine("}")
	return e.out.String(), e.spans
}

func (e *Emitter) hasTailCall() bool {
	for _, blk := range e.fn.Blocks {
		if r, ok := blk.Term.(mir.Return); ok && r.TailSelfCall {
			return true
		}
	}
	return false
}

func (e *Emitter) paramName(id mir.ValueID) string {
	return fmt.Sprintf("rr_arg_%d", id)
}

func (e *Emitter) nameFor(id mir.ValueID) string {
	for _, l := range e.fn.Loops {
		if l.Kind == mir.LoopFor && (id == l.IVPhi || id == l.ExitPhi) {
			return fmt.Sprintf("rr_i_%d", l.Header)
		}
	}
	v := e.fn.Value(id)
	switch v.Kind {
	case mir.VParam:
		return e.paramName(id)
	case mir.VPhi:
		return fmt.Sprintf("rr_p_%d", id)
	default:
		return fmt.Sprintf("rr_t_%d", id)
	}
}

func (e *Emitter) emitNodes(nodes []Node) {
	for _, n := range nodes {
		e.emitNode(n)
	}
}

func (e *Emitter) emitNode(n Node) {
	switch node := n.(type) {
	case BlockNode:
		e.emitBlockContent(node.ID)
	case IfNode:
		e.writeLine(fmt.Sprintf("if (rr_truthy1(%s)) {", e.expr(node.Cond)))
		e.indent++
		e.emitNodes(node.Then)
		e.indent--
		if hasContent(node.Else) {
			e.writeLine("} else {")
			e.indent++
			e.emitNodes(node.Else)
			e.indent--
		}
		e.writeLine("}")
	case LoopNode:
		e.emitLoop(node)
	case ReturnNode:
		e.emitReturn(node)
	}
}

func hasContent(nodes []Node) bool {
	return len(nodes) > 0
}

func (e *Emitter) emitLoop(node LoopNode) {
	info := node.Info
	if info.Kind == mir.LoopWhile {
		cond := e.headerCond(info.Header)
		e.writeLine(fmt.Sprintf("while (rr_truthy1(%s)) {", cond))
		e.indent++
		e.emitNodes(node.Body)
		e.indent--
		e.writeLine("}")
		return
	}
	iv := e.nameFor(info.IVPhi)
	seq := fmt.Sprintf("rr_range(%s, %s)", e.expr(info.Start), e.expr(info.End))
	e.writeLine(fmt.Sprintf("for (%s in %s) {", iv, seq))
	e.indent++
	e.emitNodes(node.Body)
	e.indent--
	e.writeLine("}")
}

// headerCond finds the If condition of a while loop's header block: the
// header's own terminator is always mir.If{Cond, Then: body, Else: exit}.
func (e *Emitter) headerCond(header mir.BlockID) string {
	term := e.fn.Block(header).Term.(mir.If)
	return e.expr(term.Cond)
}

func (e *Emitter) emitReturn(node ReturnNode) {
	if node.Bare {
		e.writeLine("return(NULL)")
		return
	}
	if node.Tail {
		v := e.fn.Value(node.Value)
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = e.expr(a)
		}
		e.writeLine(fmt.Sprintf("{ %s }", assignArgsAndLoop(e.fn, args)))
		return
	}
	e.writeLine(fmt.Sprintf("return(%s)", e.expr(node.Value)))
}

// assignArgsAndLoop renders a self-tail-call as reassignment of the
// function's own parameters followed by `next`, which restarts the
// `repeat { ... }` that EmitFunction wraps around the whole body whenever
// hasTailCall finds a self-tail-call, so this never needs R's own (absent)
// TCO.
func assignArgsAndLoop(fn *mir.Function, args []string) string {
	var b strings.Builder
	for i, p := range fn.Params {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s <- %s", fmt.Sprintf("rr_arg_%d", p), args[i])
	}
	b.WriteString("; next")
	return b.String()
}

// emitBlockContent emits a block's store/eval instructions — interleaved
// with any value materializations that must happen in this block, ordered
// by the value ID each instruction's latest operand depends on — followed
// by any phi-resolution copies registered to run at the end of this block.
func (e *Emitter) emitBlockContent(id mir.BlockID) {
	type entry struct {
		key  mir.ValueID
		text string
	}
	var entries []entry

	for _, v := range e.fn.Values {
		if v.Block != id || v.Kind == mir.VPhi || v.Kind == mir.VParam {
			continue
		}
		if !e.needsMaterializing(v) {
			continue
		}
		entries = append(entries, entry{key: v.ID, text: fmt.Sprintf("%s <- %s", e.nameFor(v.ID), e.exprRaw(v))})
	}

	for _, instr := range e.fn.Block(id).Instrs {
		switch in := instr.(type) {
		case *mir.StoreIndex1D:
			text := fmt.Sprintf("%s <- %s", e.nameFor(in.NewVersion), e.emitIndex1Write(in))
			entries = append(entries, entry{key: maxID(in.Base, in.Idx, in.Val), text: text})
		case *mir.StoreIndex2D:
			text := fmt.Sprintf("%s <- %s", e.nameFor(in.NewVersion), e.emitIndex2Write(in))
			entries = append(entries, entry{key: maxID(in.Base, in.Row, in.Col, in.Val), text: text})
		case *mir.Eval:
			entries = append(entries, entry{key: in.Val, text: e.expr(in.Val)})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	for _, en := range entries {
		e.writeStmt(en.text)
	}

	for _, c := range e.copies[id] {
		e.writeStmt(fmt.Sprintf("%s <- %s", e.nameFor(c.Dest), e.expr(c.Src)))
	}
}

func maxID(ids ...mir.ValueID) mir.ValueID {
	m := ids[0]
	for _, id := range ids[1:] {
		if id > m {
			m = id
		}
	}
	return m
}

// needsMaterializing decides whether v gets its own `rr_t_<id> <- ...`
// statement rather than being inlined at its single use site: phis are
// handled via copies, not here; everything else is materialized once it's
// used more than once, or used from a block other than the one that
// defines it, since a cross-block reference can't be satisfied by a
// textually-inlined expression.
func (e *Emitter) needsMaterializing(v *mir.Value) bool {
	if v.Kind == mir.VClosureMake {
		return true
	}
	if e.useCount[v.ID] != 1 {
		return e.useCount[v.ID] > 0
	}
	return e.usedFromOtherBlock(v)
}

func (e *Emitter) usedFromOtherBlock(v *mir.Value) bool {
	for _, other := range e.fn.Values {
		for _, a := range other.Args {
			if a == v.ID && other.Block != v.Block {
				return true
			}
		}
		for _, p := range other.PhiArgs {
			if p.Value == v.ID {
				return true
			}
		}
	}
	for _, blk := range e.fn.Blocks {
		for _, instr := range blk.Instrs {
			for _, a := range instrArgs(instr) {
				if a == v.ID && blk.ID != v.Block {
					return true
				}
			}
		}
		switch term := blk.Term.(type) {
		case mir.If:
			if term.Cond == v.ID && blk.ID != v.Block {
				return true
			}
		case mir.Return:
			if term.Value == v.ID && blk.ID != v.Block {
				return true
			}
		}
	}
	return false
}

func instrArgs(instr mir.Instr) []mir.ValueID {
	switch in := instr.(type) {
	case *mir.StoreIndex1D:
		return []mir.ValueID{in.Base, in.Idx, in.Val}
	case *mir.StoreIndex2D:
		return []mir.ValueID{in.Base, in.Row, in.Col, in.Val}
	case *mir.Eval:
		return []mir.ValueID{in.Val}
	}
	return nil
}

// countUses counts, per value, how many operand positions reference it
// across the whole function (other values' Args/PhiArgs, instruction
// operands, and terminator operands).
func countUses(fn *mir.Function) map[mir.ValueID]int {
	counts := map[mir.ValueID]int{}
	bump := func(id mir.ValueID) {
		if id >= 0 {
			counts[id]++
		}
	}
	for _, v := range fn.Values {
		for _, a := range v.Args {
			bump(a)
		}
		for _, p := range v.PhiArgs {
			bump(p.Value)
		}
	}
	for _, blk := range fn.Blocks {
		for _, instr := range blk.Instrs {
			for _, a := range instrArgs(instr) {
				bump(a)
			}
		}
		switch term := blk.Term.(type) {
		case mir.If:
			bump(term.Cond)
		case mir.Return:
			bump(term.Value)
		}
	}
	return counts
}

func (e *Emitter) writeLine(s string) {
	e.out.WriteString(strings.Repeat("  ", e.indent))
	e.out.WriteString(s)
	e.out.WriteString("\n")
	e.rLine++
}

func (e *Emitter) writeStmt(s string) {
	e.writeLine(s + ";")
	e.spans = append(e.spans, MapEntry{RLine: e.rLine, Stmt: e.stmtSeq})
	e.stmtSeq++
}

// expr returns the R text for value id, inlining it if it wasn't
// materialized, or just naming it otherwise.
func (e *Emitter) expr(id mir.ValueID) string {
	if id < 0 {
		return "NULL"
	}
	v := e.fn.Value(id)
	if v.Kind == mir.VParam || v.Kind == mir.VPhi {
		return e.nameFor(id)
	}
	if e.needsMaterializing(v) {
		return e.nameFor(id)
	}
	return e.exprRaw(v)
}

// exprRaw renders v's own operation (not just its name), recursing into
// its operands via expr.
func (e *Emitter) exprRaw(v *mir.Value) string {
	switch v.Kind {
	case mir.VConst:
		return e.constLit(v)
	case mir.VUnary:
		return fmt.Sprintf("%s(%s)", unOpToken(v.UnOp), e.expr(v.Args[0]))
	case mir.VBinary:
		return e.binaryExpr(v)
	case mir.VCall:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = e.expr(a)
		}
		return fmt.Sprintf("%s(%s)", v.Callee, strings.Join(args, ", "))
	case mir.VLen:
		return fmt.Sprintf("length(%s)", e.expr(v.Args[0]))
	case mir.VIndices:
		return fmt.Sprintf("rr_indices(%s)", e.expr(v.Args[0]))
	case mir.VRange:
		return fmt.Sprintf("rr_range(%s, %s)", e.expr(v.Args[0]), e.expr(v.Args[1]))
	case mir.VIndex1Read:
		return e.emitIndex1Read(v)
	case mir.VIndex2Read:
		return fmt.Sprintf("rr_i1(%s, \"row\"), rr_i1(%s, \"col\")", e.expr(v.Args[1]), e.expr(v.Args[2]))
	case mir.VSliceRead:
		return fmt.Sprintf("%s[rr_range(%s, %s) + 1L]", e.expr(v.Args[0]), e.expr(v.Args[1]), e.expr(v.Args[2]))
	case mir.VFieldGet:
		return fmt.Sprintf("%s$%s", e.expr(v.Args[0]), v.Field)
	case mir.VVectorLit:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = e.expr(a)
		}
		return fmt.Sprintf("c(%s)", strings.Join(args, ", "))
	case mir.VListLit:
		parts := make([]string, len(v.Args))
		for i, a := range v.Args {
			if i < len(v.FieldNames) && v.FieldNames[i] != "" {
				parts[i] = fmt.Sprintf("%s=%s", v.FieldNames[i], e.expr(a))
			} else {
				parts[i] = e.expr(a)
			}
		}
		return fmt.Sprintf("list(%s)", strings.Join(parts, ", "))
	case mir.VClosureMake:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = e.expr(a)
		}
		return fmt.Sprintf("%s(%s)", v.Callee, strings.Join(args, ", "))
	}
	return "NULL"
}

func (e *Emitter) constLit(v *mir.Value) string {
	switch v.ConstKind {
	case mir.ConstInt:
		return strconv.FormatInt(v.Int, 10) + "L"
	case mir.ConstFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case mir.ConstString:
		return escapeRString(v.Str)
	case mir.ConstBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case mir.ConstNA:
		return "NA"
	case mir.ConstNull:
		return "NULL"
	}
	return "NULL"
}

func escapeRString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func unOpToken(op mir.UnOp) string {
	switch op {
	case mir.UNeg:
		return "-"
	case mir.UNot:
		return "!"
	}
	return "?"
}

var arithOps = map[mir.BinOp]string{
	mir.BAdd: "+", mir.BSub: "-", mir.BMul: "*", mir.BDiv: "/", mir.BMod: "%%", mir.BMatMul: "%*%",
}

var compareOps = map[mir.BinOp]string{
	mir.BEq: "==", mir.BNeq: "!=", mir.BLt: "<", mir.BLe: "<=", mir.BGt: ">", mir.BGe: ">=",
}

var logicalOps = map[mir.BinOp]string{
	mir.BAnd: "&", mir.BOr: "|",
}

// binaryExpr renders a binary value, wrapping vector-shaped arithmetic in
// a same-length check the way original_source's emit.rs does: evaluate
// both operands once into temporaries, assert rr_same_len, then apply the
// operator — preserving evaluation order and side effects while only
// checking length compatibility once per operation.
func (e *Emitter) binaryExpr(v *mir.Value) string {
	lhs, rhs := v.Args[0], v.Args[1]
	lv, rv := e.fn.Value(lhs), e.fn.Value(rhs)
	if tok, ok := arithOps[v.BinOp]; ok && (lv.Facts.Has(mir.FactIsVector) || rv.Facts.Has(mir.FactIsVector)) {
		return fmt.Sprintf("({ .lhs <- %s; .rhs <- %s; rr_same_len(.lhs, .rhs); .lhs %s .rhs })", e.expr(lhs), e.expr(rhs), tok)
	}
	if tok, ok := arithOps[v.BinOp]; ok {
		return fmt.Sprintf("(%s %s %s)", e.expr(lhs), tok, e.expr(rhs))
	}
	if tok, ok := compareOps[v.BinOp]; ok {
		return fmt.Sprintf("(%s %s %s)", e.expr(lhs), tok, e.expr(rhs))
	}
	if tok, ok := logicalOps[v.BinOp]; ok {
		return fmt.Sprintf("(%s %s %s)", e.expr(lhs), tok, e.expr(rhs))
	}
	return "NULL"
}

// emitIndex1Read elides the rr_index1_read runtime check when BCE already
// proved idx is a non-NA, non-negative integer scalar: in that case a
// plain `(idx)+1L` 1-based offset is safe and the check would be dead
// weight. Otherwise it defers to the runtime helper, which still validates
// at the call site.
func (e *Emitter) emitIndex1Read(v *mir.Value) string {
	base, idx := v.Args[0], v.Args[1]
	idxVal := e.fn.Value(idx)
	if e.provablySafeIndex(idxVal) {
		return fmt.Sprintf("%s[(%s) + 1L]", e.expr(base), e.expr(idx))
	}
	return fmt.Sprintf("rr_index1_read(%s, %s)", e.expr(base), e.expr(idx))
}

func (e *Emitter) emitIndex1Write(in *mir.StoreIndex1D) string {
	idxVal := e.fn.Value(in.Idx)
	var idxText string
	if e.provablySafeIndex(idxVal) {
		idxText = fmt.Sprintf("(%s) + 1L", e.expr(in.Idx))
	} else {
		idxText = fmt.Sprintf("rr_index1_write(%s) + 1L", e.expr(in.Idx))
	}
	return fmt.Sprintf("`[<-`(%s, %s, %s)", e.expr(in.Base), idxText, e.expr(in.Val))
}

func (e *Emitter) emitIndex2Write(in *mir.StoreIndex2D) string {
	row := fmt.Sprintf("rr_i1(%s, \"row\")", e.expr(in.Row))
	col := fmt.Sprintf("rr_i1(%s, \"col\")", e.expr(in.Col))
	return fmt.Sprintf("`[<-`(%s, %s, %s, %s)", e.expr(in.Base), row, col, e.expr(in.Val))
}

func (e *Emitter) provablySafeIndex(v *mir.Value) bool {
	return v.Facts.Has(mir.FactIntScalar) && v.Facts.Has(mir.FactNonNeg) && v.Facts.Has(mir.FactNonNA)
}
