// Package parser implements the hand-written recursive-descent parser,
// with a Pratt expression parser with a postfix
// loop for call/index chains, and panic-mode error recovery that
// synchronizes on statement boundaries so one bad token doesn't swallow
// the rest of the file.
package parser

import (
	"github.com/cwbudde/minilang/internal/ast"
	"github.com/cwbudde/minilang/internal/lexer"
)

// Precedence levels, lowest to highest
const (
	_ int = iota
	LOWEST
	OR
	AND
	EQUALITY
	COMPARISON
	ADDITIVE
	MULTIPLICATIVE
	UNARY
)

var precedences = map[lexer.TokenType]int{
	lexer.OR:       OR,
	lexer.AND:      AND,
	lexer.EQ:       EQUALITY,
	lexer.NOT_EQ:   EQUALITY,
	lexer.LESS:     COMPARISON,
	lexer.GREATER:  COMPARISON,
	lexer.LESS_EQ:  COMPARISON,
	lexer.GREAT_EQ: COMPARISON,
	lexer.PLUS:     ADDITIVE,
	lexer.MINUS:    ADDITIVE,
	lexer.STAR:     MULTIPLICATIVE,
	lexer.SLASH:    MULTIPLICATIVE,
	lexer.PERCENT:  MULTIPLICATIVE,
}

var binOpKinds = map[lexer.TokenType]ast.BinOpKind{
	lexer.OR:       ast.OpOr,
	lexer.AND:      ast.OpAnd,
	lexer.EQ:       ast.OpEq,
	lexer.NOT_EQ:   ast.OpNeq,
	lexer.GREATER:  ast.OpGt,
	lexer.GREAT_EQ: ast.OpGe,
	lexer.LESS:     ast.OpLt,
	lexer.LESS_EQ:  ast.OpLe,
	lexer.PLUS:     ast.OpAdd,
	lexer.MINUS:    ast.OpSub,
	lexer.STAR:     ast.OpMul,
	lexer.SLASH:    ast.OpDiv,
	lexer.PERCENT:  ast.OpMod,
}

// inSyncSet is the token-kind recovery set used after a syntax error.
func inSyncSet(t lexer.TokenType) bool {
	switch t {
	case lexer.SEMICOLON, lexer.EOF, lexer.VAR, lexer.FUN, lexer.RPAREN, lexer.RBRACE, lexer.RETURN:
		return true
	}
	return false
}

// Parser turns a token stream into a Program AST.
type Parser struct {
	l       *lexer.Lexer
	errors  []ParseError
	curTok  lexer.Token
	peekTok lexer.Token
}

// New creates a Parser reading from l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.next()
	p.next()
	return p
}

// Errors returns every SyntaxError collected so far.
func (p *Parser) Errors() []ParseError { return p.errors }

func (p *Parser) next() {
	p.curTok = p.peekTok
	p.peekTok = p.l.NextToken()
}

func (p *Parser) addError(message string) {
	p.errors = append(p.errors, ParseError{Message: message, Pos: p.curTok.Pos})
}

func (p *Parser) expect(t lexer.TokenType, name string) bool {
	if p.curTok.Type == t {
		p.next()
		return true
	}
	p.addError("expected " + name + ", got " + p.curTok.Type.String())
	return false
}

// synchronize advances past the offending token until a safe resumption
// point is found, so parsing can continue after reporting the error.
func (p *Parser) synchronize() {
	for !inSyncSet(p.curTok.Type) {
		p.next()
	}
}

// ParseProgram parses the whole token stream into a Program.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for p.curTok.Type != lexer.EOF {
		decl := p.parseDecl()
		if decl != nil {
			prog.Decls = append(prog.Decls, decl)
		}
	}
	return prog
}

func (p *Parser) parseDecl() ast.Statement {
	switch p.curTok.Type {
	case lexer.VAR:
		return p.parseVarDecl()
	case lexer.FUN:
		return p.parseFunDecl()
	default:
		return p.parseStmt()
	}
}

func (p *Parser) parseVarDeclCore() *ast.VarDecl {
	tok := p.curTok // 'var'
	p.next()
	if p.curTok.Type != lexer.IDENT {
		p.addError("expected identifier after 'var'")
		p.synchronize()
		return nil
	}
	name := p.curTok.Literal
	p.next()

	decl := &ast.VarDecl{Init: tok, Name: name}
	if p.curTok.Type == lexer.ASSIGN {
		p.next()
		decl.Expr = p.parseExpression(LOWEST)
	}
	return decl
}

func (p *Parser) parseVarDecl() ast.Statement {
	decl := p.parseVarDeclCore()
	if decl == nil {
		return nil
	}
	if !p.expect(lexer.SEMICOLON, "';'") {
		p.synchronize()
	}
	return decl
}

func (p *Parser) parseFunDecl() ast.Statement {
	tok := p.curTok // 'fun'
	p.next()
	if p.curTok.Type != lexer.IDENT {
		p.addError("expected function name")
		p.synchronize()
		return nil
	}
	name := p.curTok.Literal
	p.next()

	if !p.expect(lexer.LPAREN, "'('") {
		p.synchronize()
		return nil
	}
	var params []string
	for p.curTok.Type != lexer.RPAREN && p.curTok.Type != lexer.EOF {
		if p.curTok.Type == lexer.IDENT {
			params = append(params, p.curTok.Literal)
			p.next()
		}
		if p.curTok.Type == lexer.COMMA {
			p.next()
		}
	}
	if !p.expect(lexer.RPAREN, "')'") {
		p.synchronize()
		return nil
	}

	block := p.parseBlock()
	return &ast.FunDecl{Init: tok, Name: name, Params: params, Block: block}
}

func (p *Parser) parseBlock() *ast.Block {
	tok := p.curTok
	block := &ast.Block{BPos: tok.Pos}
	if !p.expect(lexer.LBRACE, "'{'") {
		p.synchronize()
		return block
	}
	for p.curTok.Type != lexer.RBRACE && p.curTok.Type != lexer.EOF {
		stmt := p.parseDecl()
		if stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
	}
	p.expect(lexer.RBRACE, "'}'")
	return block
}

func (p *Parser) parseStmt() ast.Statement {
	switch p.curTok.Type {
	case lexer.LBRACE:
		return p.parseBlock()
	case lexer.IF:
		return p.parseIf()
	case lexer.WHILE:
		return p.parseWhile()
	case lexer.FOR:
		return p.parseFor()
	case lexer.RETURN:
		return p.parseReturn()
	case lexer.CONTINUE:
		return p.parseContinue()
	case lexer.BREAK:
		return p.parseBreak()
	case lexer.IDENT:
		if p.peekTok.Type == lexer.ASSIGN || p.peekTok.Type == lexer.LBRACKET {
			return p.parseAssign()
		}
		return p.parseExprStmt()
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseAssignCore() *ast.Assign {
	tok := p.curTok
	name := p.curTok.Literal
	p.next()

	var lvalue ast.Expression = &ast.Identifier{Tok: tok, Name: name}
	if p.curTok.Type == lexer.LBRACKET {
		lbPos := p.curTok.Pos
		p.next()
		index := p.parseExpression(LOWEST)
		p.expect(lexer.RBRACKET, "']'")
		lvalue = &ast.ArrayAccess{Base: lvalue, Index: index, LPos: lbPos}
	}

	eqTok := p.curTok
	if !p.expect(lexer.ASSIGN, "'='") {
		p.synchronize()
		return nil
	}
	expr := p.parseExpression(LOWEST)
	return &ast.Assign{Eq: eqTok, Lvalue: lvalue, Expr: expr}
}

func (p *Parser) parseAssign() ast.Statement {
	assign := p.parseAssignCore()
	if assign == nil {
		return nil
	}
	if !p.expect(lexer.SEMICOLON, "';'") {
		p.synchronize()
	}
	return assign
}

func (p *Parser) parseConditionalArm() *ast.ConditionalArm {
	kw := p.curTok
	p.next()
	p.expect(lexer.LPAREN, "'('")
	cond := p.parseExpression(LOWEST)
	p.expect(lexer.RPAREN, "')'")
	body := p.parseStmt()
	return &ast.ConditionalArm{Cond: cond, Body: body, KPos: kw.Pos}
}

func (p *Parser) parseIf() ast.Statement {
	node := &ast.If{IfArm: p.parseConditionalArm()}
	for p.curTok.Type == lexer.ELSIF {
		node.ElifArms = append(node.ElifArms, p.parseConditionalArm())
	}
	if p.curTok.Type == lexer.ELSE {
		p.next()
		node.ElseArm = p.parseStmt()
	}
	return node
}

func (p *Parser) parseWhile() ast.Statement {
	tok := p.curTok
	p.next()
	p.expect(lexer.LPAREN, "'('")
	cond := p.parseExpression(LOWEST)
	p.expect(lexer.RPAREN, "')'")
	body := p.parseStmt()
	return &ast.While{Cond: cond, Body: body, WPos: tok.Pos}
}

// parseFor desugars `for (init; cond; update) body` into
// `{ init; while (cond) { body...; update; } }` exactly
func (p *Parser) parseFor() ast.Statement {
	tok := p.curTok
	p.next()
	p.expect(lexer.LPAREN, "'('")

	var init ast.Statement
	if p.curTok.Type == lexer.VAR {
		init = p.parseVarDeclCore()
	} else if p.curTok.Type != lexer.SEMICOLON {
		init = p.parseAssignCore()
	}
	p.expect(lexer.SEMICOLON, "';'")

	var cond ast.Expression
	if p.curTok.Type != lexer.SEMICOLON {
		cond = p.parseExpression(LOWEST)
	} else {
		cond = &ast.True{Tok: tok}
	}
	p.expect(lexer.SEMICOLON, "';'")

	var update ast.Statement
	if p.curTok.Type != lexer.RPAREN {
		update = p.parseAssignCore()
	}
	p.expect(lexer.RPAREN, "')'")

	body := p.parseStmt()

	whileBody, ok := body.(*ast.Block)
	if !ok {
		whileBody = &ast.Block{BPos: body.Pos(), Stmts: []ast.Statement{body}}
	}
	if update != nil {
		whileBody.Stmts = append(whileBody.Stmts, update)
	}

	block := &ast.Block{BPos: tok.Pos}
	if init != nil {
		block.Stmts = append(block.Stmts, init)
	}
	block.Stmts = append(block.Stmts, &ast.While{Cond: cond, Body: whileBody, WPos: tok.Pos})
	return block
}

func (p *Parser) parseReturn() ast.Statement {
	tok := p.curTok
	p.next()
	var expr ast.Expression
	if p.curTok.Type != lexer.SEMICOLON {
		expr = p.parseExpression(LOWEST)
	}
	p.expect(lexer.SEMICOLON, "';'")
	return &ast.Return{Expr: expr, RPos: tok.Pos, Line: tok.Pos.Line}
}

func (p *Parser) parseContinue() ast.Statement {
	tok := p.curTok
	p.next()
	p.expect(lexer.SEMICOLON, "';'")
	return &ast.Continue{CPos: tok.Pos}
}

func (p *Parser) parseBreak() ast.Statement {
	tok := p.curTok
	p.next()
	p.expect(lexer.SEMICOLON, "';'")
	return &ast.Break{BPos: tok.Pos}
}

func (p *Parser) parseExprStmt() ast.Statement {
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		p.synchronize()
		return nil
	}
	p.expect(lexer.SEMICOLON, "';'")
	return &ast.ExprStmt{Expr: expr}
}

// parseExpression implements precedence-climbing over the table above,
// with a postfix loop (call/index) applied right after the primary.
func (p *Parser) parseExpression(precedence int) ast.Expression {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}
	left = p.parsePostfix(left)

	for p.curTok.Type != lexer.SEMICOLON && precedence < tokenPrecedence(p.curTok.Type) {
		kind, ok := binOpKinds[p.curTok.Type]
		if !ok {
			break
		}
		opTok := p.curTok
		opPrec := tokenPrecedence(p.curTok.Type)
		p.next()
		right := p.parseExpression(opPrec)
		left = &ast.BinOp{L: left, R: right, Kind: kind, OPos: opTok.Pos}
	}
	return left
}

func tokenPrecedence(t lexer.TokenType) int {
	if prec, ok := precedences[t]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) parsePrefix() ast.Expression {
	switch p.curTok.Type {
	case lexer.INT:
		tok := p.curTok
		p.next()
		return &ast.Number{Tok: tok, IntVal: tok.IntVal}
	case lexer.FLOAT:
		tok := p.curTok
		p.next()
		return &ast.Number{Tok: tok, FloatVal: tok.FloatVal, IsFloat: true}
	case lexer.STRING:
		tok := p.curTok
		p.next()
		return &ast.String{Tok: tok, Value: tok.Literal}
	case lexer.TRUE:
		tok := p.curTok
		p.next()
		return &ast.True{Tok: tok}
	case lexer.FALSE:
		tok := p.curTok
		p.next()
		return &ast.False{Tok: tok}
	case lexer.NIL:
		tok := p.curTok
		p.next()
		return &ast.Nil{Tok: tok}
	case lexer.IDENT:
		tok := p.curTok
		p.next()
		return &ast.Identifier{Tok: tok, Name: tok.Literal}
	case lexer.LPAREN:
		p.next()
		expr := p.parseExpression(LOWEST)
		p.expect(lexer.RPAREN, "')'")
		return expr
	case lexer.LBRACKET:
		tok := p.curTok
		p.next()
		var elems []ast.Expression
		for p.curTok.Type != lexer.RBRACKET && p.curTok.Type != lexer.EOF {
			elems = append(elems, p.parseExpression(LOWEST))
			if p.curTok.Type == lexer.COMMA {
				p.next()
			}
		}
		p.expect(lexer.RBRACKET, "']'")
		return &ast.Array{Tok: tok, Elems: elems}
	case lexer.NOT:
		tok := p.curTok
		p.next()
		child := p.parseExpression(UNARY)
		return &ast.UnaryOp{Kind: ast.OpNot, Child: child, OPos: tok.Pos}
	case lexer.MINUS:
		tok := p.curTok
		p.next()
		child := p.parseExpression(UNARY)
		return foldUnaryMinus(tok, child)
	default:
		p.addError("unexpected token " + p.curTok.Type.String())
		// Always consume the offending token: leaving curTok unchanged
		// could otherwise park a caller's recovery loop on the same
		// already-synchronized token forever.
		p.next()
		return nil
	}
}

// foldUnaryMinus folds unary minus over a numeric literal at parse time,
// so a negative numeric literal becomes a single Number node and the
// compiler never sees a negation of a literal.
func foldUnaryMinus(tok lexer.Token, child ast.Expression) ast.Expression {
	if n, ok := child.(*ast.Number); ok {
		if n.IsFloat {
			return &ast.Number{Tok: tok, IsFloat: true, FloatVal: -n.FloatVal}
		}
		return &ast.Number{Tok: tok, IntVal: -n.IntVal}
	}
	return &ast.UnaryOp{Kind: ast.OpNeg, Child: child, OPos: tok.Pos}
}

// parsePostfix consumes a left-recursive chain of `[index]` and `(args)`
// applications directly after a primary expression.
func (p *Parser) parsePostfix(left ast.Expression) ast.Expression {
	for {
		switch p.curTok.Type {
		case lexer.LBRACKET:
			lbPos := p.curTok.Pos
			p.next()
			index := p.parseExpression(LOWEST)
			p.expect(lexer.RBRACKET, "']'")
			left = &ast.ArrayAccess{Base: left, Index: index, LPos: lbPos}
		case lexer.LPAREN:
			lpPos := p.curTok.Pos
			p.next()
			var args []ast.Expression
			for p.curTok.Type != lexer.RPAREN && p.curTok.Type != lexer.EOF {
				args = append(args, p.parseExpression(LOWEST))
				if p.curTok.Type == lexer.COMMA {
					p.next()
				}
			}
			p.expect(lexer.RPAREN, "')'")
			left = &ast.Call{Callee: left, Args: args, LPos: lpPos}
		default:
			return left
		}
	}
}
