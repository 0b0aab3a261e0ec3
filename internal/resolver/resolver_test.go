package resolver_test

import (
	"strings"
	"testing"

	"github.com/loxlang/golox/internal/parser"
	"github.com/loxlang/golox/internal/resolver"
)

func mustResolve(t *testing.T, src string) (resolver.Locals, error) {
	t.Helper()
	prog, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse(%q) returned unexpected error: %s", src, err)
	}
	return resolver.Resolve(prog)
}

func TestResolveSelfInitializerError(t *testing.T) {
	_, err := mustResolve(t, `var a = 1; { var a = a; }`)
	if err == nil {
		t.Fatal("expected a resolution error")
	}
	want := "Error at 'a': Can't read local variable in its own initializer."
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestResolveRedeclarationError(t *testing.T) {
	_, err := mustResolve(t, `{ var a = 1; var a = 2; }`)
	if err == nil {
		t.Fatal("expected a resolution error for redeclaring 'a' in the same scope")
	}
}

func TestResolveRedeclarationAllowedAtGlobalScope(t *testing.T) {
	_, err := mustResolve(t, `var a = 1; var a = 2;`)
	if err != nil {
		t.Errorf("unexpected error for global redeclaration: %s", err)
	}
}

func TestResolveReturnOutsideFunctionError(t *testing.T) {
	_, err := mustResolve(t, `return 1;`)
	if err == nil {
		t.Fatal("expected an error for return outside a function")
	}
}

func TestResolveReturnValueFromInitializerError(t *testing.T) {
	_, err := mustResolve(t, `class C { init() { return 1; } }`)
	if err == nil {
		t.Fatal("expected an error for returning a value from an initializer")
	}
}

func TestResolveThisOutsideClassError(t *testing.T) {
	_, err := mustResolve(t, `print this;`)
	if err == nil {
		t.Fatal("expected an error for 'this' outside a class")
	}
}

func TestResolveSuperWithoutSuperclassError(t *testing.T) {
	_, err := mustResolve(t, `class A { m() { super.m(); } }`)
	if err == nil {
		t.Fatal("expected an error for 'super' in a class with no superclass")
	}
}

func TestResolveSelfInheritanceError(t *testing.T) {
	_, err := mustResolve(t, `class A < A {}`)
	if err == nil {
		t.Fatal("expected an error for a class inheriting from itself")
	}
	if !strings.Contains(err.Error(), "inherit from itself") {
		t.Errorf("error = %q, want it to mention inheriting from itself", err.Error())
	}
}

func TestResolveLocalsDepth(t *testing.T) {
	prog, err := parser.Parse([]byte(`var a = 1; { var b = 2; { print a; print b; } }`))
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	locals, err := resolver.Resolve(prog)
	if err != nil {
		t.Fatalf("unexpected resolve error: %s", err)
	}

	// 'a' is global, so it should have no entry; 'b' is one scope up from the innermost block.
	outerBlock := prog.Stmts[1]
	_ = outerBlock
	if len(locals) != 1 {
		t.Fatalf("got %d locals entries, want exactly 1 (for 'b')", len(locals))
	}
	for _, depth := range locals {
		if depth != 1 {
			t.Errorf("depth = %d, want 1", depth)
		}
	}
}
