// Package vm implements the stack-based virtual machine that executes bytecode.Chunk values
// produced by internal/compiler.
package vm

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/loxlang/golox/internal/bytecode"
)

const stackMax = 256

// RuntimeError is returned by Run when execution aborts partway through a chunk.
type RuntimeError struct {
	Msg  string
	Line int
}

func (e *RuntimeError) Error() string { return e.Msg }

// VM executes a single bytecode.Chunk at a time against a persistent table of global variables,
// which is what lets the REPL accumulate globals across lines the way the tree-walking backend's
// Interpreter does.
type VM struct {
	stdout  io.Writer
	globals map[string]any
}

// Option configures a VM constructed with New.
type Option func(*VM)

// Stdout overrides the writer that Print instructions write to. The default is os.Stdout.
func Stdout(w io.Writer) Option {
	return func(vm *VM) { vm.stdout = w }
}

// New constructs a VM with an empty global table.
func New(opts ...Option) *VM {
	vm := &VM{stdout: os.Stdout, globals: map[string]any{}}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Run executes chunk to completion or until a runtime error occurs.
func (vm *VM) Run(chunk *bytecode.Chunk) error {
	r := &run{vm: vm, chunk: chunk, stack: make([]any, 0, stackMax)}
	return r.run()
}

type run struct {
	vm    *VM
	chunk *bytecode.Chunk
	ip    int
	stack []any
}

func (r *run) run() (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			rerr, ok := rec.(*RuntimeError)
			if !ok {
				panic(rec)
			}
			r.stack = r.stack[:0]
			err = rerr
		}
	}()

	for {
		op := bytecode.OpCode(r.readByte())
		switch op {
		case bytecode.OpReturn:
			return nil
		case bytecode.OpPop:
			r.pop()
		case bytecode.OpPrint:
			fmt.Fprintln(r.vm.stdout, stringify(r.pop()))
		case bytecode.OpConstant:
			r.push(r.chunk.Constants[r.readByte()])
		case bytecode.OpNil:
			r.push(nil)
		case bytecode.OpTrue:
			r.push(true)
		case bytecode.OpFalse:
			r.push(false)
		case bytecode.OpNegate:
			n, ok := r.pop().(float64)
			if !ok {
				r.runtimeError("Operand must be a number.")
			}
			r.push(-n)
		case bytecode.OpNot:
			r.push(!isTruthy(r.pop()))
		case bytecode.OpAdd:
			r.add()
		case bytecode.OpSubtract:
			b, a := r.popNumber(), r.popNumber()
			r.push(a - b)
		case bytecode.OpMultiply:
			b, a := r.popNumber(), r.popNumber()
			r.push(a * b)
		case bytecode.OpDivide:
			b, a := r.popNumber(), r.popNumber()
			r.push(a / b)
		case bytecode.OpEqual:
			b, a := r.pop(), r.pop()
			r.push(isEqual(a, b))
		case bytecode.OpGreater:
			b, a := r.popNumber(), r.popNumber()
			r.push(a > b)
		case bytecode.OpLess:
			b, a := r.popNumber(), r.popNumber()
			r.push(a < b)
		case bytecode.OpDefineGlobal:
			name := r.chunk.Constants[r.readByte()].(string)
			r.vm.globals[name] = r.pop()
		case bytecode.OpGetGlobal:
			name := r.chunk.Constants[r.readByte()].(string)
			v, ok := r.vm.globals[name]
			if !ok {
				r.runtimeError("Undefined variable '" + name + "'.")
			}
			r.push(v)
		case bytecode.OpSetGlobal:
			name := r.chunk.Constants[r.readByte()].(string)
			if _, ok := r.vm.globals[name]; !ok {
				r.runtimeError("Undefined variable '" + name + "'.")
			}
			r.vm.globals[name] = r.peek(0)
		case bytecode.OpGetLocal:
			slot := r.readByte()
			r.push(r.stack[slot])
		case bytecode.OpSetLocal:
			slot := r.readByte()
			r.stack[slot] = r.peek(0)
		case bytecode.OpJumpIfFalse:
			offset := r.readShort()
			if !isTruthy(r.peek(0)) {
				r.ip += offset
			}
		case bytecode.OpJump:
			offset := r.readShort()
			r.ip += offset
		case bytecode.OpLoop:
			offset := r.readShort()
			r.ip -= offset
		default:
			panic(fmt.Sprintf("vm: unhandled opcode %s", op))
		}
	}
}

func (r *run) add() {
	b, a := r.peek(0), r.peek(1)
	if an, aok := a.(float64); aok {
		if bn, bok := b.(float64); bok {
			r.pop()
			r.pop()
			r.push(an + bn)
			return
		}
	}
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			r.pop()
			r.pop()
			r.push(as + bs)
			return
		}
	}
	r.runtimeError("Operands must be two numbers or two strings.")
}

func (r *run) readByte() byte {
	b := r.chunk.Code[r.ip]
	r.ip++
	return b
}

func (r *run) readShort() int {
	hi := r.readByte()
	lo := r.readByte()
	return int(hi)<<8 | int(lo)
}

func (r *run) push(v any) {
	r.stack = append(r.stack, v)
}

func (r *run) pop() any {
	v := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	return v
}

func (r *run) peek(distance int) any {
	return r.stack[len(r.stack)-1-distance]
}

func (r *run) popNumber() float64 {
	v := r.pop()
	n, ok := v.(float64)
	if !ok {
		r.runtimeError("Operands must be numbers.")
	}
	return n
}

func (r *run) runtimeError(msg string) {
	line := 0
	if r.ip-1 >= 0 && r.ip-1 < len(r.chunk.Lines) {
		line = r.chunk.Lines[r.ip-1]
	}
	panic(&RuntimeError{Msg: msg, Line: line})
}

func isTruthy(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}

func isEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a == b
}

func stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(v)
	case float64:
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if strings.ContainsAny(s, "eE") {
			s = strconv.FormatFloat(v, 'f', -1, 64)
		}
		return s
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
