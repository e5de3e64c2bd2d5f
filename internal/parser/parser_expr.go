package parser

import (
	"strconv"

	"github.com/rr-lang/rr/internal/ast"
	"github.com/rr-lang/rr/internal/lexer"
)

// Precedence levels, lowest to highest binding.
const (
	LOWEST      = iota
	PIPE_PREC   // |>
	OR_PREC     // |
	AND_PREC    // &
	EQUALITY    // == !=
	RELATIONAL  // < > <= >=
	ADDITIVE    // + -
	MULTIPLIC   // * / %%
	MATMUL_PREC // %*%
	UNARY_PREC  // unary - !
	POSTFIX     // ( [ . $
)

var precedences = map[lexer.TokenType]int{
	lexer.PIPE:      PIPE_PREC,
	lexer.OR:        OR_PREC,
	lexer.AND:       AND_PREC,
	lexer.EQ:        EQUALITY,
	lexer.NEQ:       EQUALITY,
	lexer.LT:        RELATIONAL,
	lexer.GT:        RELATIONAL,
	lexer.LE:        RELATIONAL,
	lexer.GE:        RELATIONAL,
	lexer.PLUS:      ADDITIVE,
	lexer.MINUS:     ADDITIVE,
	lexer.STAR:      MULTIPLIC,
	lexer.SLASH:     MULTIPLIC,
	lexer.PERCENT:   MULTIPLIC,
	lexer.MATMUL:    MATMUL_PREC,
	lexer.LPAREN:    POSTFIX,
	lexer.LBRACKET:  POSTFIX,
	lexer.DOT:       POSTFIX,
	lexer.DOLLAR:    POSTFIX,
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.cur.Type]; ok {
		return pr
	}
	return LOWEST
}

var binOps = map[lexer.TokenType]ast.BinOp{
	lexer.PLUS:    ast.BAdd,
	lexer.MINUS:   ast.BSub,
	lexer.STAR:    ast.BMul,
	lexer.SLASH:   ast.BDiv,
	lexer.PERCENT: ast.BMod,
	lexer.MATMUL:  ast.BMatMul,
	lexer.EQ:      ast.BEq,
	lexer.NEQ:     ast.BNeq,
	lexer.LT:      ast.BLt,
	lexer.LE:      ast.BLe,
	lexer.GT:      ast.BGt,
	lexer.GE:      ast.BGe,
	lexer.AND:     ast.BAnd,
	lexer.OR:      ast.BOr,
}

// parseExpr parses an expression binding no looser than minPrec, using
// precedence climbing for binary operators and a dedicated postfix loop
// for call/index/field suffixes.
func (p *Parser) parseExpr(minPrec int) ast.Expr {
	left := p.parseUnary()
	if left == nil {
		return nil
	}
	for {
		left = p.parsePostfix(left)

		if p.cur.Type == lexer.PIPE {
			if minPrec >= PIPE_PREC {
				break
			}
			pos := p.pos()
			p.next()
			rhs := p.parseExpr(PIPE_PREC)
			call, ok := rhs.(*ast.CallExpr)
			if !ok {
				p.errorf("pipe target must be a call expression")
				continue
			}
			left = &ast.PipeExpr{Lhs: left, Call: call, Pos_: pos}
			continue
		}

		op, isBin := binOps[p.cur.Type]
		prec := p.peekPrecedence()
		if !isBin || prec <= minPrec {
			break
		}
		pos := p.pos()
		p.next()
		right := p.parseExpr(prec)
		left = &ast.BinaryExpr{Op: op, Lhs: left, Rhs: right, Pos_: pos}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.cur.Type {
	case lexer.MINUS:
		pos := p.pos()
		p.next()
		x := p.parseExpr(UNARY_PREC)
		return &ast.UnaryExpr{Op: ast.UNeg, X: x, Pos_: pos}
	case lexer.NOT:
		pos := p.pos()
		p.next()
		x := p.parseExpr(UNARY_PREC)
		return &ast.UnaryExpr{Op: ast.UNot, X: x, Pos_: pos}
	default:
		return p.parsePrimary()
	}
}

// parsePostfix consumes zero or more call/index/field suffixes on base.
func (p *Parser) parsePostfix(base ast.Expr) ast.Expr {
	for {
		switch p.cur.Type {
		case lexer.LPAREN:
			pos := p.pos()
			args := p.parseArgList()
			base = &ast.CallExpr{Callee: base, Args: args, Pos_: pos}
		case lexer.LBRACKET:
			base = p.parseIndex(base)
		case lexer.DOT:
			pos := p.pos()
			p.next()
			if p.cur.Type != lexer.IDENT {
				p.errorf("invalid field access: expected name after '.'")
				return base
			}
			name := p.cur.Literal
			p.next()
			base = &ast.FieldExpr{Base: base, Name: name, Pos_: pos}
		case lexer.DOLLAR:
			pos := p.pos()
			p.next()
			if p.cur.Type != lexer.IDENT {
				p.errorf("invalid field access: expected name after '$'")
				return base
			}
			name := p.cur.Literal
			p.next()
			base = &ast.FieldExpr{Base: base, Name: name, Pos_: pos}
		default:
			return base
		}
	}
}

func (p *Parser) parseArgList() []ast.Expr {
	p.expect(lexer.LPAREN)
	var args []ast.Expr
	for p.cur.Type != lexer.RPAREN && p.cur.Type != lexer.EOF {
		args = append(args, p.parseExpr(LOWEST))
		if p.cur.Type == lexer.COMMA {
			p.next()
		}
	}
	p.expect(lexer.RPAREN)
	return args
}

// parseIndex parses `base[idx]`, `base[row, col]`, or `base[a:b]`.
func (p *Parser) parseIndex(base ast.Expr) ast.Expr {
	pos := p.pos()
	p.next() // '['
	first := p.parseExpr(LOWEST)
	switch p.cur.Type {
	case lexer.COMMA:
		p.next()
		col := p.parseExpr(LOWEST)
		p.expect(lexer.RBRACKET)
		return &ast.Index2Expr{Base: base, Row: first, Col: col, Pos_: pos}
	case lexer.COLON:
		p.next()
		b := p.parseExpr(LOWEST)
		p.expect(lexer.RBRACKET)
		return &ast.SliceExpr{Base: base, A: first, B: b, Pos_: pos}
	default:
		p.expect(lexer.RBRACKET)
		return &ast.Index1Expr{Base: base, Idx: first, Pos_: pos}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	pos := p.pos()
	switch p.cur.Type {
	case lexer.INT:
		v, err := strconv.ParseInt(p.cur.Literal, 10, 64)
		if err != nil {
			p.errorf("invalid integer literal %q", p.cur.Literal)
		}
		p.next()
		return &ast.Lit{Kind: ast.IntLit, Int: v, Pos_: pos}
	case lexer.FLOAT:
		v, err := strconv.ParseFloat(p.cur.Literal, 64)
		if err != nil {
			p.errorf("invalid float literal %q", p.cur.Literal)
		}
		p.next()
		return &ast.Lit{Kind: ast.FloatLit, Float: v, Pos_: pos}
	case lexer.STRING:
		v := p.cur.Literal
		p.next()
		return &ast.Lit{Kind: ast.StringLit, Str: v, Pos_: pos}
	case lexer.TRUE:
		p.next()
		return &ast.Lit{Kind: ast.BoolLit, Bool: true, Pos_: pos}
	case lexer.FALSE:
		p.next()
		return &ast.Lit{Kind: ast.BoolLit, Bool: false, Pos_: pos}
	case lexer.NA:
		p.next()
		return &ast.Lit{Kind: ast.NALit, Pos_: pos}
	case lexer.NULL:
		p.next()
		return &ast.Lit{Kind: ast.NullLit, Pos_: pos}
	case lexer.IDENT:
		name := p.cur.Literal
		p.next()
		return &ast.Ident{Name: name, Pos_: pos}
	case lexer.LPAREN:
		p.next()
		x := p.parseExpr(LOWEST)
		p.expect(lexer.RPAREN)
		return x
	case lexer.LBRACE:
		return p.parseRecordLit()
	case lexer.FUNCTION:
		return p.parseLambda()
	default:
		p.errorf("unexpected token %q in expression", p.cur.Literal)
		p.next()
		return nil
	}
}

func (p *Parser) parseRecordLit() ast.Expr {
	pos := p.pos()
	p.expect(lexer.LBRACE)
	var fields []ast.RecordField
	for p.cur.Type != lexer.RBRACE && p.cur.Type != lexer.EOF {
		if p.cur.Type != lexer.IDENT {
			p.errorf("invalid record literal: expected field name")
			p.next()
			continue
		}
		name := p.cur.Literal
		p.next()
		if !p.expect(lexer.COLON) {
			continue
		}
		val := p.parseExpr(LOWEST)
		fields = append(fields, ast.RecordField{Name: name, Value: val})
		if p.cur.Type == lexer.COMMA {
			p.next()
		}
	}
	p.expect(lexer.RBRACE)
	return &ast.RecordLit{Fields: fields, Pos_: pos}
}

func (p *Parser) parseLambda() ast.Expr {
	pos := p.pos()
	p.next() // 'function'
	params, _ := p.parseParamList()
	body := p.parseBlock()
	return &ast.LambdaExpr{Params: params, Body: body, Pos_: pos}
}
