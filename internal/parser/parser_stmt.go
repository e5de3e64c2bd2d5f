package parser

import (
	"github.com/rr-lang/rr/internal/ast"
	"github.com/rr-lang/rr/internal/lexer"
)

// parseStmt parses one statement. The `let` keyword is accepted as an
// optional declaration marker ahead of an assignment and then discarded —
// RR does not track declaration-vs-update in the AST, and no later stage
// distinguishes the two (config.StrictLet is read from RR_STRICT_LET but
// not consulted), so an assignment to an undeclared name is accepted.
func (p *Parser) parseStmt() ast.Stmt {
	switch p.cur.Type {
	case lexer.LET:
		p.next()
		return p.parseStmt()
	case lexer.IF:
		return p.parseIfStmt()
	case lexer.WHILE:
		return p.parseWhileStmt()
	case lexer.FOR:
		return p.parseForStmt()
	case lexer.RETURN:
		return p.parseReturnStmt()
	default:
		return p.parseSimpleStmt()
	}
}

func (p *Parser) parseIfStmt() ast.Stmt {
	pos := p.pos()
	p.next() // 'if'
	p.expect(lexer.LPAREN)
	cond := p.parseExpr(LOWEST)
	p.expect(lexer.RPAREN)
	then := p.parseBlock()
	var els *ast.Block
	if p.cur.Type == lexer.ELSE {
		p.next()
		if p.cur.Type == lexer.IF {
			inner := p.parseIfStmt()
			els = &ast.Block{Stmts: []ast.Stmt{inner}, Span: ast.Span{Start: inner.Position(), End: inner.Position()}}
		} else {
			els = p.parseBlock()
		}
	}
	return &ast.IfStmt{Cond: cond, Then: then, Else: els, Pos_: pos}
}

func (p *Parser) parseWhileStmt() ast.Stmt {
	pos := p.pos()
	p.next() // 'while'
	p.expect(lexer.LPAREN)
	cond := p.parseExpr(LOWEST)
	p.expect(lexer.RPAREN)
	body := p.parseBlock()
	return &ast.WhileStmt{Cond: cond, Body: body, Pos_: pos}
}

func (p *Parser) parseForStmt() ast.Stmt {
	pos := p.pos()
	p.next() // 'for'
	p.expect(lexer.LPAREN)
	if p.cur.Type != lexer.IDENT {
		p.errorf("invalid for-loop syntax: expected loop variable name")
	}
	varName := p.cur.Literal
	p.next()
	if !p.expect(lexer.IN) {
		p.errorf("invalid for-loop syntax: expected 'in'")
	}
	seq := p.parseExpr(LOWEST)
	p.expect(lexer.RPAREN)
	body := p.parseBlock()
	return &ast.ForStmt{Var: varName, Seq: seq, Body: body, Pos_: pos}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	pos := p.pos()
	p.next() // 'return'
	if p.cur.Type == lexer.SEMICOLON || p.cur.Type == lexer.RBRACE || p.cur.Type == lexer.EOF {
		return &ast.ReturnStmt{Pos_: pos}
	}
	val := p.parseExpr(LOWEST)
	return &ast.ReturnStmt{Value: val, Pos_: pos}
}

// parseSimpleStmt parses either an assignment (`target <- value` or
// `target = value`) or a bare expression statement, disambiguating by
// parsing a general expression first and reinterpreting it as an LValue
// only if an assignment operator follows.
func (p *Parser) parseSimpleStmt() ast.Stmt {
	pos := p.pos()
	expr := p.parseExpr(LOWEST)
	if expr == nil {
		p.next()
		return nil
	}
	if p.cur.Type == lexer.ARROW_L || p.cur.Type == lexer.ASSIGN_EQ {
		p.next()
		value := p.parseExpr(LOWEST)
		target := exprToLValue(expr)
		if target == nil {
			p.errorf("invalid assignment target")
			return &ast.ExprStmt{X: expr, Pos_: pos}
		}
		return &ast.AssignStmt{Target: target, Value: value, Pos_: pos}
	}
	return &ast.ExprStmt{X: expr, Pos_: pos}
}

// exprToLValue reinterprets an already-parsed expression as an assignment
// target. Only the shapes RR's grammar allows on the left of `<-`/`=` are
// accepted: a bare name, 1D/2D index, or field access.
func exprToLValue(e ast.Expr) ast.LValue {
	switch v := e.(type) {
	case *ast.Ident:
		return &ast.NameLValue{Name: v.Name, Pos_: v.Pos_}
	case *ast.Index1Expr:
		return &ast.Index1LValue{Base: v.Base, Idx: v.Idx, Pos_: v.Pos_}
	case *ast.Index2Expr:
		return &ast.Index2LValue{Base: v.Base, Row: v.Row, Col: v.Col, Pos_: v.Pos_}
	case *ast.FieldExpr:
		return &ast.FieldLValue{Base: v.Base, Name: v.Name, Pos_: v.Pos_}
	default:
		return nil
	}
}
