// Package loxerr defines the error types used to report compile-time and runtime errors in the
// exact textual format expected by golox's CLI and test suite.
package loxerr

import (
	"fmt"
	"strings"

	"github.com/loxlang/golox/internal/token"
)

// Error is a single compile-time (lexical, syntax, or resolution) error.
//
// Its Error method renders in one of two forms:
//
//	Error at '<lexeme>': <message>
//	Error at line <n>: <message>
//
// The second form is used when the offending token is EOF, since there's no lexeme to point at.
type Error struct {
	Tok token.Token
	Msg string
}

// AtToken constructs an Error attributed to tok.
func AtToken(tok token.Token, msg string) *Error {
	return &Error{Tok: tok, Msg: msg}
}

func (e *Error) Error() string {
	if e.Tok.Type == token.EOF {
		return fmt.Sprintf("Error at line %d: %s", e.Tok.Line, e.Msg)
	}
	return fmt.Sprintf("Error at '%s': %s", e.Tok.Lexeme, e.Msg)
}

// Errors is a collection of compile-time errors accumulated while processing a single source
// file. A nil or empty Errors reports no error.
type Errors []*Error

// Err returns e as an error, or nil if e is empty.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

// RuntimeError is an error raised while executing a program that has already passed compilation.
// It renders as a single bare line with no "Error at" prefix, matching the behaviour of the
// reference implementation's runtime errors.
type RuntimeError struct {
	Tok token.Token
	Msg string
}

// AtRuntime constructs a RuntimeError attributed to tok, for use in panic/recover-based error
// propagation inside the interpreter. The VM reports its runtime errors as vm.RuntimeError instead.
func AtRuntime(tok token.Token, msg string) *RuntimeError {
	return &RuntimeError{Tok: tok, Msg: msg}
}

func (e *RuntimeError) Error() string {
	return e.Msg
}

// Line returns the source line the error occurred on.
func (e *RuntimeError) Line() int {
	return e.Tok.Line
}
