// Package parser builds an *ast.Program from RR source text.
//
// The grammar is a small R-flavored scripting language: C-like control
// flow (if/while/for), R-style assignment (`<-` or `=`), 0-based indexing
// at the source level, record literals (`{x: 1, y: 2}`), and a pipe
// operator (`|>`). Parsing is hand-written recursive descent with
// precedence climbing for binary expressions: a lexer-fed token stream,
// a Parser holding cur/peek, and one parseX per construct, rather than
// a parser-combinator or generated grammar.
package parser

import (
	"fmt"

	"github.com/rr-lang/rr/internal/ast"
	"github.com/rr-lang/rr/internal/lexer"
)

// Parser consumes tokens from a Lexer and builds an ast.Program.
type Parser struct {
	l    *lexer.Lexer
	file string

	cur  lexer.Token
	peek lexer.Token

	errors []error
}

// New creates a Parser reading from input, tagging diagnostics with file.
func New(input, file string) *Parser {
	p := &Parser{l: lexer.New(string(lexer.Normalize([]byte(input))), file), file: file}
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) pos() ast.Pos {
	return ast.Pos{File: p.file, Line: p.cur.Line, Col: p.cur.Column}
}

func (p *Parser) errorf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	p.errors = append(p.errors, &ParseError{Pos: p.pos(), Msg: msg})
}

// ParseError is a single parser-stage diagnostic.
type ParseError struct {
	Pos ast.Pos
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// Errors returns every diagnostic collected so far.
func (p *Parser) Errors() []error { return p.errors }

func (p *Parser) expect(t lexer.TokenType) bool {
	if p.cur.Type == t {
		p.next()
		return true
	}
	p.errorf("unexpected token %q, expected %s", p.cur.Literal, t)
	return false
}

func (p *Parser) skipSemis() {
	for p.cur.Type == lexer.SEMICOLON {
		p.next()
	}
}

// ParseProgram parses the whole token stream into an *ast.Program.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	prog := &ast.Program{Path: p.file, Pos: p.pos()}
	p.skipSemis()
	for p.cur.Type != lexer.EOF {
		if p.cur.Type == lexer.IMPORT {
			if imp := p.parseImport(); imp != nil {
				prog.Imports = append(prog.Imports, imp)
			}
		} else if item := p.parseItem(); item != nil {
			prog.Items = append(prog.Items, item)
		}
		p.skipSemis()
	}
	if len(p.errors) > 0 {
		return prog, p.errors[0]
	}
	return prog, nil
}

func (p *Parser) parseImport() *ast.ImportDecl {
	pos := p.pos()
	p.next() // consume 'import'
	if p.cur.Type != lexer.STRING {
		p.errorf("invalid import statement syntax: expected string path")
		return nil
	}
	path := p.cur.Literal
	p.next()
	return &ast.ImportDecl{Path: path, Pos: pos}
}

// parseItem parses one top-level item: a `fn` declaration, a statement
// (promoted to an *ast.FnDecl when it assigns a lambda literal to a bare
// name, R's `add <- function(a, b) {...}` idiom), or any other top-level
// statement executed for effect.
func (p *Parser) parseItem() ast.Item {
	pos := p.pos()

	noInline := false
	if p.cur.Type == lexer.IDENT && p.cur.Literal == "noinline" && p.peek.Type == lexer.FN {
		noInline = true
		p.next()
	}

	if p.cur.Type == lexer.FN {
		return p.parseFnDecl(pos, noInline)
	}

	stmt := p.parseStmt()
	if stmt == nil {
		return nil
	}
	if assign, ok := stmt.(*ast.AssignStmt); ok {
		if nameTarget, ok := assign.Target.(*ast.NameLValue); ok {
			if lambda, ok := assign.Value.(*ast.LambdaExpr); ok {
				return &ast.FnDecl{
					Name: nameTarget.Name, Params: lambda.Params, Body: lambda.Body,
					NoInline: noInline, Public: true, DeclPos: pos,
					Span: ast.Span{Start: pos, End: p.pos()},
				}
			}
		}
	}
	return &ast.TopStmt{Stmt: stmt}
}

func (p *Parser) parseFnDecl(pos ast.Pos, noInline bool) *ast.FnDecl {
	p.next() // 'fn'
	if p.cur.Type != lexer.IDENT {
		p.errorf("invalid function declaration syntax: expected name after 'fn'")
		return nil
	}
	name := p.cur.Literal
	p.next()
	params, varargs := p.parseParamList()
	body := p.parseBlock()
	return &ast.FnDecl{
		Name: name, Params: params, Varargs: varargs, Body: body,
		NoInline: noInline, Public: true, DeclPos: pos,
		Span: ast.Span{Start: pos, End: p.pos()},
	}
}

func (p *Parser) parseParamList() (params []string, varargs bool) {
	if !p.expect(lexer.LPAREN) {
		return nil, false
	}
	for p.cur.Type != lexer.RPAREN && p.cur.Type != lexer.EOF {
		if p.cur.Type == lexer.DOT && p.peek.Type == lexer.DOT {
			p.next()
			p.next()
			if p.cur.Type == lexer.DOT {
				p.next()
			}
			varargs = true
		} else if p.cur.Type == lexer.IDENT {
			params = append(params, p.cur.Literal)
			p.next()
		} else {
			p.errorf("invalid function declaration syntax: unexpected parameter token %q", p.cur.Literal)
			p.next()
		}
		if p.cur.Type == lexer.COMMA {
			p.next()
		}
	}
	p.expect(lexer.RPAREN)
	return params, varargs
}

func (p *Parser) parseBlock() *ast.Block {
	startPos := p.pos()
	if !p.expect(lexer.LBRACE) {
		return &ast.Block{Span: ast.Span{Start: startPos, End: startPos}}
	}
	p.skipSemis()
	var stmts []ast.Stmt
	for p.cur.Type != lexer.RBRACE && p.cur.Type != lexer.EOF {
		if s := p.parseStmt(); s != nil {
			stmts = append(stmts, s)
		}
		p.skipSemis()
	}
	endPos := p.pos()
	p.expect(lexer.RBRACE)
	return &ast.Block{Stmts: stmts, Span: ast.Span{Start: startPos, End: endPos}}
}
