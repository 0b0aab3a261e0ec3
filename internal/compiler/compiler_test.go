package compiler_test

import (
	"strings"
	"testing"

	"github.com/loxlang/golox/internal/bytecode"
	"github.com/loxlang/golox/internal/compiler"
)

func TestCompileEmitsConstantAndArithmeticOps(t *testing.T) {
	chunk, err := compiler.Compile([]byte(`print 1 + 2;`))
	if err != nil {
		t.Fatalf("unexpected compile error: %s", err)
	}

	var ops []bytecode.OpCode
	for i := 0; i < len(chunk.Code); {
		op := bytecode.OpCode(chunk.Code[i])
		ops = append(ops, op)
		switch op {
		case bytecode.OpConstant, bytecode.OpGetLocal, bytecode.OpSetLocal, bytecode.OpGetGlobal, bytecode.OpSetGlobal, bytecode.OpDefineGlobal:
			i += 2
		case bytecode.OpJump, bytecode.OpJumpIfFalse, bytecode.OpLoop:
			i += 3
		default:
			i++
		}
	}

	want := []bytecode.OpCode{bytecode.OpConstant, bytecode.OpConstant, bytecode.OpAdd, bytecode.OpPrint, bytecode.OpReturn}
	if len(ops) != len(want) {
		t.Fatalf("got %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("op[%d] = %s, want %s", i, ops[i], want[i])
		}
	}
}

func TestCompileSyntaxErrorFormat(t *testing.T) {
	_, err := compiler.Compile([]byte(`1 +;`))
	if err == nil {
		t.Fatal("expected a compile error")
	}
	if !strings.HasPrefix(err.Error(), "Error at ") {
		t.Errorf("error message %q doesn't start with %q", err.Error(), "Error at ")
	}
}
