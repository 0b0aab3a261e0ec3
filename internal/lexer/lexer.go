// Package lexer converts Lox source text into a stream of lexical tokens.
package lexer

import (
	"fmt"
	"strconv"

	"github.com/loxlang/golox/internal/token"
)

// ErrorHandler is called for each lexical error encountered while scanning. tok is the offending
// token (its Type is token.Illegal) and msg describes the problem.
type ErrorHandler func(tok token.Token, msg string)

// Lexer converts Lox source code into lexical tokens one at a time.
type Lexer struct {
	src []byte

	start   int // index of the first byte of the token currently being scanned
	current int // index of the next byte to be read
	line    int // line of the character currently being considered

	errHandler ErrorHandler
}

// New constructs a Lexer over src. The default error handler is a no-op; set one with
// SetErrorHandler.
func New(src []byte) *Lexer {
	return &Lexer{
		src:        src,
		line:       1,
		errHandler: func(token.Token, string) {},
	}
}

// SetErrorHandler sets the function called when a lexical error is encountered.
func (l *Lexer) SetErrorHandler(h ErrorHandler) {
	l.errHandler = h
}

// Next scans and returns the next token. It returns a token.EOF token once the end of the source
// has been reached, and keeps returning it on every subsequent call.
func (l *Lexer) Next() token.Token {
	l.skipWhitespaceAndComments()
	l.start = l.current

	if l.atEnd() {
		return l.newToken(token.EOF)
	}

	c := l.advance()

	switch {
	case isDigit(c):
		return l.number()
	case isAlpha(c):
		return l.ident()
	}

	switch c {
	case '(':
		return l.newToken(token.LeftParen)
	case ')':
		return l.newToken(token.RightParen)
	case '{':
		return l.newToken(token.LeftBrace)
	case '}':
		return l.newToken(token.RightBrace)
	case ',':
		return l.newToken(token.Comma)
	case '.':
		return l.newToken(token.Dot)
	case '-':
		return l.newToken(token.Minus)
	case '+':
		return l.newToken(token.Plus)
	case ';':
		return l.newToken(token.Semicolon)
	case '*':
		return l.newToken(token.Star)
	case '/':
		return l.newToken(token.Slash)
	case '!':
		return l.newToken(l.selectType('=', token.BangEqual, token.Bang))
	case '=':
		return l.newToken(l.selectType('=', token.EqualEqual, token.Equal))
	case '<':
		return l.newToken(l.selectType('=', token.LessEqual, token.Less))
	case '>':
		return l.newToken(l.selectType('=', token.GreaterEqual, token.Greater))
	case '"':
		return l.string()
	default:
		tok := l.newToken(token.Illegal)
		l.errHandler(tok, fmt.Sprintf("unexpected character: %q", c))
		return tok
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		if l.atEnd() {
			return
		}
		switch c := l.peek(); c {
		case ' ', '\r', '\t':
			l.advance()
		case '\n':
			l.line++
			l.advance()
		case '/':
			if l.peekNext() == '/' {
				for !l.atEnd() && l.peek() != '\n' {
					l.advance()
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

func (l *Lexer) number() token.Token {
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance() // consume the '.'
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	lexeme := string(l.src[l.start:l.current])
	value, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		panic(fmt.Sprintf("unreachable: invalid number literal %q scanned: %s", lexeme, err))
	}
	tok := l.newToken(token.Number)
	tok.Literal = value
	return tok
}

func (l *Lexer) ident() token.Token {
	for isAlphaNumeric(l.peek()) {
		l.advance()
	}
	lexeme := string(l.src[l.start:l.current])
	typ, ok := token.Keywords[lexeme]
	if !ok {
		typ = token.Ident
	}
	return l.newToken(typ)
}

func (l *Lexer) string() token.Token {
	startLine := l.line
	for !l.atEnd() && l.peek() != '"' {
		if l.peek() == '\n' {
			l.line++
		}
		l.advance()
	}
	if l.atEnd() {
		tok := l.newToken(token.Illegal)
		tok.Line = startLine
		l.errHandler(tok, "unterminated string")
		return tok
	}
	l.advance() // consume the closing quote
	tok := l.newToken(token.String)
	tok.Line = startLine
	tok.Literal = string(l.src[l.start+1 : l.current-1])
	return tok
}

func (l *Lexer) newToken(typ token.Type) token.Token {
	return token.Token{
		Type:   typ,
		Lexeme: string(l.src[l.start:l.current]),
		Line:   l.line,
	}
}

func (l *Lexer) atEnd() bool {
	return l.current >= len(l.src)
}

func (l *Lexer) advance() byte {
	c := l.src[l.current]
	l.current++
	return c
}

func (l *Lexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.src[l.current]
}

func (l *Lexer) peekNext() byte {
	if l.current+1 >= len(l.src) {
		return 0
	}
	return l.src[l.current+1]
}

// selectType consumes the next byte and returns matched if it equals want, otherwise it returns
// unmatched without consuming anything.
func (l *Lexer) selectType(want byte, matched, unmatched token.Type) token.Type {
	if l.peek() != want {
		return unmatched
	}
	l.advance()
	return matched
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}
