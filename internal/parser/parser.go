// Package parser implements a recursive-descent parser for Lox source code, producing the
// statement-list AST described in internal/ast.
package parser

import (
	"fmt"

	"github.com/loxlang/golox/internal/ast"
	"github.com/loxlang/golox/internal/lexer"
	"github.com/loxlang/golox/internal/loxerr"
	"github.com/loxlang/golox/internal/token"
)

const maxArgs = 255

// unwind is panicked by the parser to unwind out of whatever production is currently being parsed
// and resynchronise at the next statement boundary. It carries no data; the error itself has
// already been recorded in p.errs.
type unwind struct{}

// Parse parses the source code in src and returns the resulting statement list.
// If any syntax errors were encountered, a non-nil loxerr.Errors is returned alongside a partial
// (but non-nil) Program built from everything that could be parsed.
func Parse(src []byte) (*ast.Program, error) {
	p := &parser{}
	lex := lexer.New(src)
	lex.SetErrorHandler(func(tok token.Token, msg string) {
		p.errs = append(p.errs, loxerr.AtToken(tok, msg))
	})
	p.lex = lex
	p.advance()
	p.advance()
	return p.parseProgram(), p.errs.Err()
}

type parser struct {
	lex      *lexer.Lexer
	tok      token.Token // current token
	next     token.Token // lookahead token
	errs     loxerr.Errors
	lastSync token.Token
}

func (p *parser) parseProgram() *ast.Program {
	var stmts []ast.Stmt
	for p.tok.Type != token.EOF {
		stmts = append(stmts, p.safeDeclaration())
	}
	return &ast.Program{Stmts: stmts}
}

// safeDeclaration parses a single declaration, recovering with panic-mode synchronisation if a
// syntax error is encountered partway through.
func (p *parser) safeDeclaration() (stmt ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(unwind); !ok {
				panic(r)
			}
			p.synchronize()
			stmt = &ast.ExpressionStmt{Expr: &ast.LiteralExpr{Tok: p.lastSync, Value: nil}}
		}
	}()
	return p.declaration()
}

// synchronize discards tokens until it reaches what looks like the start of the next statement.
func (p *parser) synchronize() {
	for p.tok.Type != token.EOF {
		if p.tok.Type == token.Semicolon {
			p.lastSync = p.tok
			p.advance()
			return
		}
		switch p.tok.Type {
		case token.Class, token.Fun, token.Var, token.For, token.If, token.While, token.Print, token.Return:
			return
		}
		p.lastSync = p.tok
		p.advance()
	}
}

func (p *parser) declaration() ast.Stmt {
	switch {
	case p.check(token.Var):
		return p.varDecl()
	case p.check(token.Fun):
		p.advance()
		return p.funDecl("function")
	case p.check(token.Class):
		return p.classDecl()
	default:
		return p.statement()
	}
}

func (p *parser) varDecl() ast.Stmt {
	p.advance() // 'var'
	name := p.identifier("expect variable name")
	var init ast.Expr
	if p.match(token.Equal) {
		init = p.expression()
	}
	p.consume(token.Semicolon, "expect ';' after variable declaration")
	return &ast.VarDecl{Name: name, Init: init}
}

func (p *parser) funDecl(kind string) *ast.FunDecl {
	name := p.identifier(fmt.Sprintf("expect %s name", kind))
	fun := p.functionLit(kind)
	return &ast.FunDecl{Name: name, Fun: fun}
}

func (p *parser) functionLit(kind string) *ast.FunctionLit {
	lparen := p.consume(token.LeftParen, fmt.Sprintf("expect '(' after %s name", kind))
	var params []*ast.Ident
	if !p.check(token.RightParen) {
		for {
			if len(params) >= maxArgs {
				p.errorAtCurrent(fmt.Sprintf("can't have more than %d parameters", maxArgs))
			}
			params = append(params, p.identifier("expect parameter name"))
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.consume(token.RightParen, "expect ')' after parameters")
	p.consume(token.LeftBrace, fmt.Sprintf("expect '{' before %s body", kind))
	body := p.blockStmts()
	return &ast.FunctionLit{Keyword: lparen, Params: params, Body: body}
}

func (p *parser) classDecl() ast.Stmt {
	p.advance() // 'class'
	name := p.identifier("expect class name")
	var superclass *ast.VarExpr
	if p.match(token.Less) {
		superclass = &ast.VarExpr{Name: p.identifier("expect superclass name")}
	}
	p.consume(token.LeftBrace, "expect '{' before class body")
	var methods []*ast.FunDecl
	for !p.check(token.RightBrace) && p.tok.Type != token.EOF {
		methods = append(methods, p.funDecl("method"))
	}
	p.consume(token.RightBrace, "expect '}' after class body")
	return &ast.ClassDecl{Name: name, Superclass: superclass, Methods: methods}
}

func (p *parser) statement() ast.Stmt {
	switch {
	case p.check(token.Print):
		return p.printStmt()
	case p.check(token.LeftBrace):
		lbrace := p.tok
		p.advance()
		return &ast.Block{LBrace: lbrace, Stmts: p.blockStmts()}
	case p.check(token.If):
		return p.ifStmt()
	case p.check(token.While):
		return p.whileStmt()
	case p.check(token.For):
		return p.forStmt()
	case p.check(token.Return):
		return p.returnStmt()
	default:
		return p.exprStmt()
	}
}

func (p *parser) blockStmts() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.check(token.RightBrace) && p.tok.Type != token.EOF {
		stmts = append(stmts, p.safeDeclaration())
	}
	p.consume(token.RightBrace, "expect '}' after block")
	return stmts
}

func (p *parser) printStmt() ast.Stmt {
	keyword := p.tok
	p.advance()
	expr := p.expression()
	p.consume(token.Semicolon, "expect ';' after value")
	return &ast.PrintStmt{Keyword: keyword, Expr: expr}
}

func (p *parser) exprStmt() ast.Stmt {
	expr := p.expression()
	p.consume(token.Semicolon, "expect ';' after expression")
	return &ast.ExpressionStmt{Expr: expr}
}

func (p *parser) ifStmt() ast.Stmt {
	keyword := p.tok
	p.advance()
	p.consume(token.LeftParen, "expect '(' after 'if'")
	cond := p.expression()
	p.consume(token.RightParen, "expect ')' after if condition")
	then := p.statement()
	// An if without an else gets a nil Else; no placeholder branch is synthesised, so every visitor
	// checks Else for nil before walking it.
	var elseStmt ast.Stmt
	if p.match(token.Else) {
		elseStmt = p.statement()
	}
	return &ast.IfStmt{Keyword: keyword, Condition: cond, Then: then, Else: elseStmt}
}

func (p *parser) whileStmt() ast.Stmt {
	keyword := p.tok
	p.advance()
	p.consume(token.LeftParen, "expect '(' after 'while'")
	cond := p.expression()
	p.consume(token.RightParen, "expect ')' after while condition")
	body := p.statement()
	return &ast.WhileStmt{Keyword: keyword, Condition: cond, Body: body}
}

// forStmt desugars `for (init; cond; inc) body` to `{ init; while (cond) { body; inc; } }`, with a
// default condition of `true` when the condition clause is omitted.
func (p *parser) forStmt() ast.Stmt {
	keyword := p.tok
	p.advance()
	p.consume(token.LeftParen, "expect '(' after 'for'")

	var init ast.Stmt
	switch {
	case p.match(token.Semicolon):
		// no initialiser
	case p.check(token.Var):
		init = p.varDecl()
	default:
		init = p.exprStmt()
	}

	var cond ast.Expr
	if !p.check(token.Semicolon) {
		cond = p.expression()
	}
	p.consume(token.Semicolon, "expect ';' after loop condition")

	var inc ast.Expr
	if !p.check(token.RightParen) {
		inc = p.expression()
	}
	p.consume(token.RightParen, "expect ')' after for clauses")

	body := p.statement()

	if inc != nil {
		body = &ast.Block{LBrace: keyword, Stmts: []ast.Stmt{body, &ast.ExpressionStmt{Expr: inc}}}
	}
	if cond == nil {
		cond = &ast.LiteralExpr{Tok: keyword, Value: true}
	}
	body = &ast.WhileStmt{Keyword: keyword, Condition: cond, Body: body}
	if init != nil {
		body = &ast.Block{LBrace: keyword, Stmts: []ast.Stmt{init, body}}
	}
	return body
}

func (p *parser) returnStmt() ast.Stmt {
	keyword := p.tok
	p.advance()
	var value ast.Expr
	if !p.check(token.Semicolon) {
		value = p.expression()
	}
	p.consume(token.Semicolon, "expect ';' after return value")
	return &ast.ReturnStmt{Keyword: keyword, Value: value}
}

// ---- Expressions (precedence climbing) ----

func (p *parser) expression() ast.Expr {
	return p.assignment()
}

func (p *parser) assignment() ast.Expr {
	expr := p.or()

	if p.check(token.Equal) {
		eq := p.tok
		p.advance()
		value := p.assignment()

		switch target := expr.(type) {
		case *ast.VarExpr:
			return &ast.AssignExpr{Name: target.Name, Value: value}
		case *ast.GetExpr:
			return &ast.SetExpr{Object: target.Object, Name: target.Name, Value: value}
		default:
			p.errorAt(eq, "invalid assignment target")
			return expr
		}
	}

	return expr
}

func (p *parser) or() ast.Expr {
	expr := p.and()
	for p.check(token.Or) {
		op := p.tok
		p.advance()
		expr = &ast.LogicalExpr{Left: expr, Op: op, Right: p.and()}
	}
	return expr
}

func (p *parser) and() ast.Expr {
	expr := p.equality()
	for p.check(token.And) {
		op := p.tok
		p.advance()
		expr = &ast.LogicalExpr{Left: expr, Op: op, Right: p.equality()}
	}
	return expr
}

func (p *parser) equality() ast.Expr {
	expr := p.comparison()
	for p.check(token.BangEqual) || p.check(token.EqualEqual) {
		op := p.tok
		p.advance()
		expr = &ast.BinaryExpr{Left: expr, Op: op, Right: p.comparison()}
	}
	return expr
}

func (p *parser) comparison() ast.Expr {
	expr := p.term()
	for p.check(token.Greater) || p.check(token.GreaterEqual) || p.check(token.Less) || p.check(token.LessEqual) {
		op := p.tok
		p.advance()
		expr = &ast.BinaryExpr{Left: expr, Op: op, Right: p.term()}
	}
	return expr
}

func (p *parser) term() ast.Expr {
	expr := p.factor()
	for p.check(token.Minus) || p.check(token.Plus) {
		op := p.tok
		p.advance()
		expr = &ast.BinaryExpr{Left: expr, Op: op, Right: p.factor()}
	}
	return expr
}

func (p *parser) factor() ast.Expr {
	expr := p.unary()
	for p.check(token.Slash) || p.check(token.Star) {
		op := p.tok
		p.advance()
		expr = &ast.BinaryExpr{Left: expr, Op: op, Right: p.unary()}
	}
	return expr
}

func (p *parser) unary() ast.Expr {
	if p.check(token.Bang) || p.check(token.Minus) {
		op := p.tok
		p.advance()
		return &ast.UnaryExpr{Op: op, Right: p.unary()}
	}
	return p.call()
}

func (p *parser) call() ast.Expr {
	expr := p.primary()
	for {
		switch {
		case p.check(token.LeftParen):
			p.advance()
			expr = p.finishCall(expr)
		case p.check(token.Dot):
			p.advance()
			name := p.identifier("expect property name after '.'")
			expr = &ast.GetExpr{Object: expr, Name: name}
		default:
			return expr
		}
	}
}

func (p *parser) finishCall(callee ast.Expr) ast.Expr {
	var args []ast.Expr
	if !p.check(token.RightParen) {
		for {
			if len(args) >= maxArgs {
				p.errorAtCurrent(fmt.Sprintf("can't have more than %d arguments", maxArgs))
			}
			args = append(args, p.expression())
			if !p.match(token.Comma) {
				break
			}
		}
	}
	paren := p.consume(token.RightParen, "expect ')' after arguments")
	return &ast.CallExpr{Callee: callee, Paren: paren, Args: args}
}

func (p *parser) primary() ast.Expr {
	tok := p.tok
	switch tok.Type {
	case token.False:
		p.advance()
		return &ast.LiteralExpr{Tok: tok, Value: false}
	case token.True:
		p.advance()
		return &ast.LiteralExpr{Tok: tok, Value: true}
	case token.Nil:
		p.advance()
		return &ast.LiteralExpr{Tok: tok, Value: nil}
	case token.Number, token.String:
		p.advance()
		return &ast.LiteralExpr{Tok: tok, Value: tok.Literal}
	case token.This:
		p.advance()
		return &ast.ThisExpr{Keyword: tok}
	case token.Super:
		p.advance()
		p.consume(token.Dot, "expect '.' after 'super'")
		method := p.identifier("expect superclass method name")
		return &ast.SuperExpr{Keyword: tok, Method: method}
	case token.Ident:
		p.advance()
		return &ast.VarExpr{Name: &ast.Ident{Tok: tok}}
	case token.LeftParen:
		p.advance()
		expr := p.expression()
		p.consume(token.RightParen, "expect ')' after expression")
		return &ast.GroupingExpr{LParen: tok, Expr: expr}
	default:
		p.errorAtCurrent("expect expression")
		panic(unwind{})
	}
}

// ---- Token stream helpers ----

func (p *parser) advance() {
	p.tok = p.next
	p.next = p.lex.Next()
}

func (p *parser) check(typ token.Type) bool {
	return p.tok.Type == typ
}

func (p *parser) match(typ token.Type) bool {
	if !p.check(typ) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) consume(typ token.Type, msg string) token.Token {
	if p.check(typ) {
		tok := p.tok
		p.advance()
		return tok
	}
	p.errorAtCurrent(msg)
	panic(unwind{})
}

func (p *parser) identifier(msg string) *ast.Ident {
	tok := p.consume(token.Ident, msg)
	return &ast.Ident{Tok: tok}
}

func (p *parser) errorAtCurrent(msg string) {
	p.errorAt(p.tok, msg)
}

func (p *parser) errorAt(tok token.Token, msg string) {
	p.errs = append(p.errs, loxerr.AtToken(tok, msg))
}
