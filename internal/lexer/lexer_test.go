package lexer_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/loxlang/golox/internal/lexer"
	"github.com/loxlang/golox/internal/token"
)

func tokenTypes(src string) []token.Type {
	l := lexer.New([]byte(src))
	var types []token.Type
	for {
		tok := l.Next()
		types = append(types, tok.Type)
		if tok.Type == token.EOF {
			return types
		}
	}
}

func TestNextPunctuation(t *testing.T) {
	got := tokenTypes("(){},.-+;*!=!<=<>=>//comment\n/")
	want := []token.Type{
		token.LeftParen, token.RightParen, token.LeftBrace, token.RightBrace,
		token.Comma, token.Dot, token.Minus, token.Plus, token.Semicolon, token.Star,
		token.BangEqual, token.Bang, token.LessEqual, token.Less, token.GreaterEqual, token.Greater,
		token.Slash, token.EOF,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("token types mismatch (-want +got):\n%s", diff)
	}
}

func TestNextKeywordsAndIdents(t *testing.T) {
	got := tokenTypes("and class foo123 _bar while")
	want := []token.Type{token.And, token.Class, token.Ident, token.Ident, token.While, token.EOF}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("token types mismatch (-want +got):\n%s", diff)
	}
}

func TestNextNumber(t *testing.T) {
	l := lexer.New([]byte("123.45"))
	tok := l.Next()
	if tok.Type != token.Number {
		t.Fatalf("Type = %s, want Number", tok.Type)
	}
	if tok.Literal != 123.45 {
		t.Errorf("Literal = %v, want 123.45", tok.Literal)
	}
}

func TestNextNumberNoTrailingDot(t *testing.T) {
	// A trailing '.' with no following digit is not part of the number.
	got := tokenTypes("123.")
	want := []token.Type{token.Number, token.Dot, token.EOF}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("token types mismatch (-want +got):\n%s", diff)
	}
}

func TestNextString(t *testing.T) {
	l := lexer.New([]byte(`"hello world"`))
	tok := l.Next()
	if tok.Type != token.String {
		t.Fatalf("Type = %s, want String", tok.Type)
	}
	if tok.Literal != "hello world" {
		t.Errorf("Literal = %q, want %q", tok.Literal, "hello world")
	}
}

func TestNextUnterminatedString(t *testing.T) {
	var gotMsg string
	l := lexer.New([]byte(`"unterminated`))
	l.SetErrorHandler(func(_ token.Token, msg string) { gotMsg = msg })
	tok := l.Next()
	if tok.Type != token.Illegal {
		t.Fatalf("Type = %s, want Illegal", tok.Type)
	}
	if gotMsg == "" {
		t.Error("expected an error to be reported for an unterminated string")
	}
}

func TestNextLineTracking(t *testing.T) {
	l := lexer.New([]byte("1\n2\n\n3"))
	var lines []int
	for {
		tok := l.Next()
		if tok.Type == token.EOF {
			break
		}
		lines = append(lines, tok.Line)
	}
	want := []int{1, 2, 4}
	if diff := cmp.Diff(want, lines, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("line numbers mismatch (-want +got):\n%s", diff)
	}
}
