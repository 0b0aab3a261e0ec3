package interpreter_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/loxlang/golox/internal/interpreter"
	"github.com/loxlang/golox/internal/parser"
	"github.com/loxlang/golox/internal/resolver"
)

func mustRun(t *testing.T, src string) string {
	t.Helper()
	prog, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse(%q) returned unexpected error: %s", src, err)
	}
	locals, err := resolver.Resolve(prog)
	if err != nil {
		t.Fatalf("Resolve(%q) returned unexpected error: %s", src, err)
	}
	var out bytes.Buffer
	in := interpreter.New(interpreter.Stdout(&out))
	if err := in.Interpret(prog, locals); err != nil {
		t.Fatalf("Interpret(%q) returned unexpected error: %s", src, err)
	}
	return out.String()
}

func TestInterpretArithmeticPrecedence(t *testing.T) {
	if got := mustRun(t, `print 1 + 2 * 3;`); got != "7\n" {
		t.Errorf("output = %q, want %q", got, "7\n")
	}
}

func TestInterpretClosureCapture(t *testing.T) {
	src := `
		var f;
		{
			var x = 1;
			fun g() { print x; }
			f = g;
		}
		f();
	`
	if got := mustRun(t, src); got != "1\n" {
		t.Errorf("output = %q, want %q", got, "1\n")
	}
}

func TestInterpretInheritanceMethodDispatch(t *testing.T) {
	src := `
		class A { m() { print "A"; } }
		class B < A {}
		B().m();
	`
	if got := mustRun(t, src); got != "A\n" {
		t.Errorf("output = %q, want %q", got, "A\n")
	}
}

func TestInterpretSuperDispatchKeepsThis(t *testing.T) {
	src := `
		class A {
			m() { print this.name; }
		}
		class B < A {
			m() {
				super.m();
			}
		}
		var b = B();
		b.name = "bee";
		b.m();
	`
	if got := mustRun(t, src); got != "bee\n" {
		t.Errorf("output = %q, want %q", got, "bee\n")
	}
}

func TestInterpretInitializerReturnsThis(t *testing.T) {
	src := `
		class C {
			init() { this.x = 5; }
		}
		print C().x;
	`
	if got := mustRun(t, src); got != "5\n" {
		t.Errorf("output = %q, want %q", got, "5\n")
	}
}

func TestInterpretShortCircuitPreservesValue(t *testing.T) {
	if got := mustRun(t, `print nil or "ok";`); got != "ok\n" {
		t.Errorf("output = %q, want %q", got, "ok\n")
	}
	if got := mustRun(t, `print 1 and 2;`); got != "2\n" {
		t.Errorf("output = %q, want %q", got, "2\n")
	}
}

func TestInterpretRuntimeTypeMismatch(t *testing.T) {
	prog, err := parser.Parse([]byte(`print 1 + "a";`))
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	locals, err := resolver.Resolve(prog)
	if err != nil {
		t.Fatalf("unexpected resolve error: %s", err)
	}
	var out bytes.Buffer
	in := interpreter.New(interpreter.Stdout(&out))
	err = in.Interpret(prog, locals)
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	want := "Operands must be two numbers or two strings."
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestInterpretFieldSetAndGet(t *testing.T) {
	src := `
		class Box {}
		var b = Box();
		b.value = 42;
		print b.value;
	`
	if got := mustRun(t, src); got != "42\n" {
		t.Errorf("output = %q, want %q", got, "42\n")
	}
}

func TestInterpretUndefinedVariableError(t *testing.T) {
	prog, err := parser.Parse([]byte(`print missing;`))
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	locals, err := resolver.Resolve(prog)
	if err != nil {
		t.Fatalf("unexpected resolve error: %s", err)
	}
	in := interpreter.New(interpreter.Stdout(&bytes.Buffer{}))
	err = in.Interpret(prog, locals)
	if err == nil || !strings.Contains(err.Error(), "Undefined variable") {
		t.Errorf("error = %v, want it to mention an undefined variable", err)
	}
}

func TestInterpretNumberFormatting(t *testing.T) {
	if got := mustRun(t, `print 1.0; print 0.5; print 10;`); got != "1\n0.5\n10\n" {
		t.Errorf("output = %q, want %q", got, "1\n0.5\n10\n")
	}
}
