// Package compiler implements the single-pass Pratt-parsing compiler that translates Lox source
// directly into a bytecode.Chunk for the VM backend (internal/vm), without building an
// intermediate AST. It shares internal/lexer with the tree-walking front end.
//
// The compiler implements the documented bytecode subset: declarations, global and local
// variables, arithmetic and string concatenation, comparisons, equality, logical short-circuiting,
// control flow (if/while/for), print, and expression statements. Functions, classes, and closures
// are intentionally out of scope for this backend.
package compiler

import (
	"github.com/loxlang/golox/internal/bytecode"
	"github.com/loxlang/golox/internal/lexer"
	"github.com/loxlang/golox/internal/loxerr"
	"github.com/loxlang/golox/internal/token"
)

type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(c *compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[token.Type]parseRule

func init() {
	rules = map[token.Type]parseRule{
		token.LeftParen:    {prefix: (*compiler).grouping},
		token.Minus:        {prefix: (*compiler).unary, infix: (*compiler).binary, precedence: precTerm},
		token.Plus:         {infix: (*compiler).binary, precedence: precTerm},
		token.Slash:        {infix: (*compiler).binary, precedence: precFactor},
		token.Star:         {infix: (*compiler).binary, precedence: precFactor},
		token.Bang:         {prefix: (*compiler).unary},
		token.BangEqual:    {infix: (*compiler).binary, precedence: precEquality},
		token.EqualEqual:   {infix: (*compiler).binary, precedence: precEquality},
		token.Greater:      {infix: (*compiler).binary, precedence: precComparison},
		token.GreaterEqual: {infix: (*compiler).binary, precedence: precComparison},
		token.Less:         {infix: (*compiler).binary, precedence: precComparison},
		token.LessEqual:    {infix: (*compiler).binary, precedence: precComparison},
		token.Ident:        {prefix: (*compiler).variable},
		token.String:       {prefix: (*compiler).string},
		token.Number:       {prefix: (*compiler).number},
		token.And:          {infix: (*compiler).and, precedence: precAnd},
		token.Or:           {infix: (*compiler).or, precedence: precOr},
		token.False:        {prefix: (*compiler).literal},
		token.Nil:          {prefix: (*compiler).literal},
		token.True:         {prefix: (*compiler).literal},
	}
}

func ruleFor(typ token.Type) parseRule {
	return rules[typ]
}

const maxLocals = 256

type local struct {
	name  token.Token
	depth int // -1 while being declared, before its initializer has run
}

// unwind is panicked to abandon the current declaration/statement and resynchronise.
type unwind struct{}

type compiler struct {
	lex             *lexer.Lexer
	previous, tok   token.Token
	chunk           *bytecode.Chunk
	errs            loxerr.Errors
	locals          []local
	scopeDepth      int
}

// Compile compiles src into a bytecode.Chunk. If any compile errors were encountered, a non-nil
// error is returned alongside a best-effort chunk.
func Compile(src []byte) (*bytecode.Chunk, error) {
	c := &compiler{chunk: &bytecode.Chunk{}}
	lex := lexer.New(src)
	lex.SetErrorHandler(func(tok token.Token, msg string) {
		c.errs = append(c.errs, loxerr.AtToken(tok, msg))
	})
	c.lex = lex
	c.advance()

	for !c.match(token.EOF) {
		c.safeDeclaration()
	}
	c.emitOp(bytecode.OpReturn)

	return c.chunk, c.errs.Err()
}

func (c *compiler) safeDeclaration() {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(unwind); !ok {
				panic(r)
			}
			c.synchronize()
		}
	}()
	c.declaration()
}

func (c *compiler) synchronize() {
	for c.tok.Type != token.EOF {
		if c.tok.Type == token.Semicolon {
			c.advance()
			return
		}
		switch c.tok.Type {
		case token.Class, token.Fun, token.Var, token.For, token.If, token.While, token.Print, token.Return:
			return
		}
		c.advance()
	}
}

func (c *compiler) declaration() {
	if c.match(token.Var) {
		c.varDeclaration()
		return
	}
	c.statement()
}

func (c *compiler) varDeclaration() {
	global := c.parseVariable("expect variable name")

	if c.match(token.Equal) {
		c.expression()
	} else {
		c.emitOp(bytecode.OpNil)
	}
	c.consume(token.Semicolon, "expect ';' after variable declaration")

	c.defineVariable(global)
}

// parseVariable consumes the variable's name and, for a local, declares it in the current scope.
// It returns the constant-pool index for the name if this is a global, or -1 for a local.
func (c *compiler) parseVariable(msg string) int {
	name := c.consume(token.Ident, msg)
	c.declareLocal(name)
	if c.scopeDepth > 0 {
		return -1
	}
	return c.identifierConstant(name)
}

func (c *compiler) declareLocal(name token.Token) {
	if c.scopeDepth == 0 {
		return
	}
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.depth != -1 && l.depth < c.scopeDepth {
			break
		}
		if l.name.Lexeme == name.Lexeme {
			c.errorAt(name, "Already a variable with this name in this scope.")
		}
	}
	if len(c.locals) >= maxLocals {
		c.errorAt(name, "Too many local variables in function.")
		return
	}
	c.locals = append(c.locals, local{name: name, depth: -1})
}

func (c *compiler) defineVariable(global int) {
	if c.scopeDepth > 0 {
		c.locals[len(c.locals)-1].depth = c.scopeDepth
		return
	}
	c.emitOp(bytecode.OpDefineGlobal)
	c.emitByte(byte(global))
}

func (c *compiler) identifierConstant(name token.Token) int {
	return c.chunk.AddConstant(name.Lexeme)
}

func (c *compiler) statement() {
	switch {
	case c.match(token.Print):
		c.printStatement()
	case c.match(token.If):
		c.ifStatement()
	case c.match(token.While):
		c.whileStatement()
	case c.match(token.For):
		c.forStatement()
	case c.check(token.LeftBrace):
		c.advance()
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *compiler) block() {
	for !c.check(token.RightBrace) && c.tok.Type != token.EOF {
		c.safeDeclaration()
	}
	c.consume(token.RightBrace, "expect '}' after block")
}

func (c *compiler) beginScope() {
	c.scopeDepth++
}

func (c *compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		c.emitOp(bytecode.OpPop)
		c.locals = c.locals[:len(c.locals)-1]
	}
}

func (c *compiler) printStatement() {
	c.expression()
	c.consume(token.Semicolon, "expect ';' after value")
	c.emitOp(bytecode.OpPrint)
}

func (c *compiler) expressionStatement() {
	c.expression()
	c.consume(token.Semicolon, "expect ';' after expression")
	c.emitOp(bytecode.OpPop)
}

func (c *compiler) ifStatement() {
	c.consume(token.LeftParen, "expect '(' after 'if'")
	c.expression()
	c.consume(token.RightParen, "expect ')' after condition")

	thenJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()

	elseJump := c.emitJump(bytecode.OpJump)
	c.patchJump(thenJump)
	c.emitOp(bytecode.OpPop)

	if c.match(token.Else) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *compiler) whileStatement() {
	loopStart := c.chunk.Count()
	c.consume(token.LeftParen, "expect '(' after 'while'")
	c.expression()
	c.consume(token.RightParen, "expect ')' after condition")

	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(bytecode.OpPop)
}

func (c *compiler) forStatement() {
	c.beginScope()
	c.consume(token.LeftParen, "expect '(' after 'for'")

	switch {
	case c.match(token.Semicolon):
		// no initialiser
	case c.check(token.Var):
		c.advance()
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := c.chunk.Count()
	exitJump := -1
	if !c.check(token.Semicolon) {
		c.expression()
		c.consume(token.Semicolon, "expect ';' after loop condition")
		exitJump = c.emitJump(bytecode.OpJumpIfFalse)
		c.emitOp(bytecode.OpPop)
	} else {
		c.advance()
	}

	if !c.check(token.RightParen) {
		bodyJump := c.emitJump(bytecode.OpJump)
		incrementStart := c.chunk.Count()
		c.expression()
		c.emitOp(bytecode.OpPop)
		c.consume(token.RightParen, "expect ')' after for clauses")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	} else {
		c.advance()
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(bytecode.OpPop)
	}

	c.endScope()
}

// ---- Pratt expression parsing ----

func (c *compiler) expression() {
	c.parsePrecedence(precAssignment)
}

func (c *compiler) parsePrecedence(prec precedence) {
	c.advance()
	rule := ruleFor(c.previousType())
	if rule.prefix == nil {
		c.errorAt(c.previous, "expect expression")
		panic(unwind{})
	}
	canAssign := prec <= precAssignment
	rule.prefix(c, canAssign)

	for prec <= ruleFor(c.tok.Type).precedence {
		c.advance()
		infix := ruleFor(c.previousType()).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.Equal) {
		c.errorAt(c.previous, "Invalid assignment target.")
	}
}

func (c *compiler) previousType() token.Type {
	return c.previous.Type
}

func (c *compiler) grouping(bool) {
	c.expression()
	c.consume(token.RightParen, "expect ')' after expression")
}

func (c *compiler) unary(bool) {
	op := c.previous
	c.parsePrecedence(precUnary)
	switch op.Type {
	case token.Minus:
		c.emitOp(bytecode.OpNegate)
	case token.Bang:
		c.emitOp(bytecode.OpNot)
	}
}

func (c *compiler) binary(bool) {
	op := c.previous
	rule := ruleFor(op.Type)
	c.parsePrecedence(rule.precedence + 1)

	switch op.Type {
	case token.Plus:
		c.emitOp(bytecode.OpAdd)
	case token.Minus:
		c.emitOp(bytecode.OpSubtract)
	case token.Star:
		c.emitOp(bytecode.OpMultiply)
	case token.Slash:
		c.emitOp(bytecode.OpDivide)
	case token.BangEqual:
		c.emitOp(bytecode.OpEqual)
		c.emitOp(bytecode.OpNot)
	case token.EqualEqual:
		c.emitOp(bytecode.OpEqual)
	case token.Greater:
		c.emitOp(bytecode.OpGreater)
	case token.GreaterEqual:
		c.emitOp(bytecode.OpLess)
		c.emitOp(bytecode.OpNot)
	case token.Less:
		c.emitOp(bytecode.OpLess)
	case token.LessEqual:
		c.emitOp(bytecode.OpGreater)
		c.emitOp(bytecode.OpNot)
	}
}

func (c *compiler) literal(bool) {
	switch c.previous.Type {
	case token.False:
		c.emitOp(bytecode.OpFalse)
	case token.True:
		c.emitOp(bytecode.OpTrue)
	case token.Nil:
		c.emitOp(bytecode.OpNil)
	}
}

func (c *compiler) number(bool) {
	c.emitConstant(c.previous.Literal)
}

func (c *compiler) string(bool) {
	c.emitConstant(c.previous.Literal)
}

func (c *compiler) and(bool) {
	endJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *compiler) or(bool) {
	elseJump := c.emitJump(bytecode.OpJumpIfFalse)
	endJump := c.emitJump(bytecode.OpJump)
	c.patchJump(elseJump)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

func (c *compiler) namedVariable(name token.Token, canAssign bool) {
	idx, isLocal := c.resolveLocal(name)

	var getOp, setOp bytecode.OpCode
	if isLocal {
		getOp, setOp = bytecode.OpGetLocal, bytecode.OpSetLocal
	} else {
		idx = c.identifierConstant(name)
		getOp, setOp = bytecode.OpGetGlobal, bytecode.OpSetGlobal
	}

	if canAssign && c.match(token.Equal) {
		c.expression()
		c.emitOp(setOp)
		c.emitByte(byte(idx))
		return
	}
	c.emitOp(getOp)
	c.emitByte(byte(idx))
}

// resolveLocal returns the slot index of name in the local stack, and whether it was found.
func (c *compiler) resolveLocal(name token.Token) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name.Lexeme == name.Lexeme {
			if c.locals[i].depth == -1 {
				c.errorAt(name, "Can't read local variable in its own initializer.")
			}
			return i, true
		}
	}
	return 0, false
}

// ---- emission helpers ----

func (c *compiler) emitOp(op bytecode.OpCode) {
	c.chunk.WriteOp(op, c.previous.Line)
}

func (c *compiler) emitByte(b byte) {
	c.chunk.Write(b, c.previous.Line)
}

func (c *compiler) emitConstant(v any) {
	idx := c.chunk.AddConstant(v)
	if idx > 255 {
		c.errorAt(c.previous, "Too many constants in one chunk.")
		idx = 0
	}
	c.emitOp(bytecode.OpConstant)
	c.emitByte(byte(idx))
}

// emitJump emits a jump instruction with a placeholder offset and returns the offset of that
// placeholder, to be patched later by patchJump.
func (c *compiler) emitJump(op bytecode.OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return c.chunk.Count() - 2
}

func (c *compiler) patchJump(offset int) {
	jump := c.chunk.Count() - offset - 2
	if jump > 0xffff {
		c.errorAt(c.previous, "Too much code to jump over.")
	}
	c.chunk.Code[offset] = byte(jump >> 8)
	c.chunk.Code[offset+1] = byte(jump)
}

func (c *compiler) emitLoop(loopStart int) {
	c.emitOp(bytecode.OpLoop)
	offset := c.chunk.Count() - loopStart + 2
	if offset > 0xffff {
		c.errorAt(c.previous, "Loop body too large.")
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}

// ---- token stream helpers ----

func (c *compiler) advance() {
	c.previous = c.tok
	c.tok = c.lex.Next()
}

func (c *compiler) check(typ token.Type) bool {
	return c.tok.Type == typ
}

func (c *compiler) match(typ token.Type) bool {
	if !c.check(typ) {
		return false
	}
	c.advance()
	return true
}

func (c *compiler) consume(typ token.Type, msg string) token.Token {
	if c.check(typ) {
		tok := c.tok
		c.advance()
		return tok
	}
	c.errorAt(c.tok, msg)
	panic(unwind{})
}

func (c *compiler) errorAt(tok token.Token, msg string) {
	c.errs = append(c.errs, loxerr.AtToken(tok, msg))
}
