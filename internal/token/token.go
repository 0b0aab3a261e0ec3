// Package token declares the lexical token types shared by golox's front end, tree-walking
// backend, and bytecode backend.
package token

import "fmt"

//go:generate go tool stringer -type Type

// Type is the type of a lexical token of Lox code.
type Type int

// The list of all token types.
const (
	Illegal Type = iota
	EOF

	// Single character tokens.
	LeftParen
	RightParen
	LeftBrace
	RightBrace
	Comma
	Dot
	Minus
	Plus
	Semicolon
	Slash
	Star

	// One or two character tokens.
	Bang
	BangEqual
	Equal
	EqualEqual
	Greater
	GreaterEqual
	Less
	LessEqual

	// Literals.
	Ident
	String
	Number

	// Keywords.
	And
	Class
	Else
	False
	Fun
	For
	If
	Nil
	Or
	Print
	Return
	Super
	This
	True
	Var
	While
)

var typeNames = map[Type]string{
	Illegal:      "illegal",
	EOF:          "EOF",
	LeftParen:    "(",
	RightParen:   ")",
	LeftBrace:    "{",
	RightBrace:   "}",
	Comma:        ",",
	Dot:          ".",
	Minus:        "-",
	Plus:         "+",
	Semicolon:    ";",
	Slash:        "/",
	Star:         "*",
	Bang:         "!",
	BangEqual:    "!=",
	Equal:        "=",
	EqualEqual:   "==",
	Greater:      ">",
	GreaterEqual: ">=",
	Less:         "<",
	LessEqual:    "<=",
	Ident:        "identifier",
	String:       "string",
	Number:       "number",
	And:          "and",
	Class:        "class",
	Else:         "else",
	False:        "false",
	Fun:          "fun",
	For:          "for",
	If:           "if",
	Nil:          "nil",
	Or:           "or",
	Print:        "print",
	Return:       "return",
	Super:        "super",
	This:         "this",
	True:         "true",
	Var:          "var",
	While:        "while",
}

// Keywords is the fixed reserved-word set recognised by the lexer.
var Keywords = map[string]Type{
	"and":    And,
	"class":  Class,
	"else":   Else,
	"false":  False,
	"for":    For,
	"fun":    Fun,
	"if":     If,
	"nil":    Nil,
	"or":     Or,
	"print":  Print,
	"return": Return,
	"super":  Super,
	"this":   This,
	"true":   True,
	"var":    Var,
	"while":  While,
}

// ThisIdent and InitIdent are the identifiers with special meaning inside class bodies.
const (
	ThisIdent = "this"
	InitIdent = "init"
)

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Format implements fmt.Formatter. All verbs have the default behaviour, except for 'm' (message) which quotes the
// type's lexeme for use in an error message.
func (t Type) Format(f fmt.State, verb rune) {
	switch verb {
	case 'm':
		fmt.Fprintf(f, "'%s'", t.String())
	default:
		fmt.Fprintf(f, fmt.FormatString(f, verb), t.String())
	}
}

// Token is a lexical token of Lox code: a kind, the exact source text it was scanned from, an
// optional literal payload, and the line on which it began.
type Token struct {
	Type    Type
	Lexeme  string
	Literal any // float64 for Number, string (unquoted) for String; nil otherwise
	Line    int
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q %v", t.Type, t.Lexeme, t.Literal)
}

// IsZero reports whether t is the zero value.
func (t Token) IsZero() bool {
	return t == Token{}
}
