package interpreter

import "github.com/loxlang/golox/internal/token"

// environment is one frame of the lexical chain: a set of bindings plus a pointer to the
// enclosing frame (nil for the global environment).
//
// Environments are shared, not copied: every closure captures a pointer to the frame active at
// its definition, and mutations made through any holder of that pointer are visible to every
// other holder. Since evaluation is single-threaded this requires no locking.
type environment struct {
	parent *environment
	values map[string]any
}

func newEnvironment(parent *environment) *environment {
	return &environment{parent: parent, values: map[string]any{}}
}

// define inserts or overwrites name in the current frame only.
func (e *environment) define(name string, v any) {
	e.values[name] = v
}

// ancestor returns the k-th enclosing frame (0 = e itself).
func (e *environment) ancestor(k int) *environment {
	env := e
	for i := 0; i < k; i++ {
		env = env.parent
	}
	return env
}

// getAt returns the value of name in the frame k levels up.
func (e *environment) getAt(k int, name string) any {
	return e.ancestor(k).values[name]
}

// assignAt overwrites name in the frame k levels up.
func (e *environment) assignAt(k int, name string, v any) {
	e.ancestor(k).values[name] = v
}

// get reads name, walking up the chain until it's found.
func (e *environment) get(tok token.Token) any {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.values[tok.Lexeme]; ok {
			return v
		}
	}
	panic(newRuntimeError(tok, "Undefined variable '"+tok.Lexeme+"'."))
}

// assign overwrites an existing binding for name, walking up the chain to find it.
func (e *environment) assign(tok token.Token, v any) {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.values[tok.Lexeme]; ok {
			env.values[tok.Lexeme] = v
			return
		}
	}
	panic(newRuntimeError(tok, "Undefined variable '"+tok.Lexeme+"'."))
}
