package vm_test

import (
	"bytes"
	"testing"

	"github.com/loxlang/golox/internal/compiler"
	"github.com/loxlang/golox/internal/vm"
)

func mustRun(t *testing.T, src string) string {
	t.Helper()
	chunk, err := compiler.Compile([]byte(src))
	if err != nil {
		t.Fatalf("Compile(%q) returned unexpected error: %s", src, err)
	}
	var out bytes.Buffer
	machine := vm.New(vm.Stdout(&out))
	if err := machine.Run(chunk); err != nil {
		t.Fatalf("Run(%q) returned unexpected error: %s", src, err)
	}
	return out.String()
}

func TestVMArithmeticPrecedence(t *testing.T) {
	if got := mustRun(t, `print 1 + 2 * 3;`); got != "7\n" {
		t.Errorf("output = %q, want %q", got, "7\n")
	}
}

func TestVMStringConcatenation(t *testing.T) {
	if got := mustRun(t, `print "foo" + "bar";`); got != "foobar\n" {
		t.Errorf("output = %q, want %q", got, "foobar\n")
	}
}

func TestVMGlobalsAndLocals(t *testing.T) {
	src := `
		var a = 1;
		{
			var b = 2;
			print a + b;
		}
	`
	if got := mustRun(t, src); got != "3\n" {
		t.Errorf("output = %q, want %q", got, "3\n")
	}
}

func TestVMIfElse(t *testing.T) {
	if got := mustRun(t, `if (1 < 2) print "yes"; else print "no";`); got != "yes\n" {
		t.Errorf("output = %q, want %q", got, "yes\n")
	}
}

func TestVMWhileLoop(t *testing.T) {
	src := `
		var i = 0;
		var sum = 0;
		while (i < 5) {
			sum = sum + i;
			i = i + 1;
		}
		print sum;
	`
	if got := mustRun(t, src); got != "10\n" {
		t.Errorf("output = %q, want %q", got, "10\n")
	}
}

func TestVMForLoop(t *testing.T) {
	src := `
		var sum = 0;
		for (var i = 1; i <= 3; i = i + 1) sum = sum + i;
		print sum;
	`
	if got := mustRun(t, src); got != "6\n" {
		t.Errorf("output = %q, want %q", got, "6\n")
	}
}

func TestVMLogicalShortCircuit(t *testing.T) {
	if got := mustRun(t, `print nil or "ok";`); got != "ok\n" {
		t.Errorf("output = %q, want %q", got, "ok\n")
	}
	if got := mustRun(t, `print false and "unreached";`); got != "false\n" {
		t.Errorf("output = %q, want %q", got, "false\n")
	}
}

func TestVMRuntimeTypeError(t *testing.T) {
	chunk, err := compiler.Compile([]byte(`print 1 + "a";`))
	if err != nil {
		t.Fatalf("unexpected compile error: %s", err)
	}
	machine := vm.New(vm.Stdout(&bytes.Buffer{}))
	err = machine.Run(chunk)
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	want := "Operands must be two numbers or two strings."
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestVMUndefinedGlobal(t *testing.T) {
	chunk, err := compiler.Compile([]byte(`print missing;`))
	if err != nil {
		t.Fatalf("unexpected compile error: %s", err)
	}
	machine := vm.New(vm.Stdout(&bytes.Buffer{}))
	err = machine.Run(chunk)
	if err == nil {
		t.Fatal("expected a runtime error for an undefined global")
	}
}
