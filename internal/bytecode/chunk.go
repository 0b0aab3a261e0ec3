// Package bytecode defines the instruction encoding and constant pool consumed by the VM backend
// (internal/vm) and produced by the Pratt compiler (internal/compiler).
package bytecode

import "fmt"

// OpCode identifies a single VM instruction.
type OpCode byte

const (
	OpReturn OpCode = iota
	OpPop
	OpPrint
	OpNegate
	OpNot
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpEqual
	OpGreater
	OpLess
	OpTrue
	OpFalse
	OpNil
	OpConstant
	OpDefineGlobal
	OpGetGlobal
	OpSetGlobal
	OpGetLocal
	OpSetLocal
	OpJumpIfFalse
	OpJump
	OpLoop
)

var opCodeNames = map[OpCode]string{
	OpReturn:       "OP_RETURN",
	OpPop:          "OP_POP",
	OpPrint:        "OP_PRINT",
	OpNegate:       "OP_NEGATE",
	OpNot:          "OP_NOT",
	OpAdd:          "OP_ADD",
	OpSubtract:     "OP_SUBTRACT",
	OpMultiply:     "OP_MULTIPLY",
	OpDivide:       "OP_DIVIDE",
	OpEqual:        "OP_EQUAL",
	OpGreater:      "OP_GREATER",
	OpLess:         "OP_LESS",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpNil:          "OP_NIL",
	OpConstant:     "OP_CONSTANT",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpGetLocal:     "OP_GET_LOCAL",
	OpSetLocal:     "OP_SET_LOCAL",
	OpJumpIfFalse:  "OP_JUMP_IF_FALSE",
	OpJump:         "OP_JUMP",
	OpLoop:         "OP_LOOP",
}

func (op OpCode) String() string {
	if name, ok := opCodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP_UNKNOWN(%d)", byte(op))
}

// Chunk is a sequence of bytecode instructions belonging to one compiled program, together with a
// parallel array of source line numbers (one per byte of Code, for diagnostics) and the pool of
// constant values the instructions reference.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []any
}

// Write appends a single raw byte to the chunk, recording line as the source line it came from.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// WriteOp appends an opcode byte.
func (c *Chunk) WriteOp(op OpCode, line int) {
	c.Write(byte(op), line)
}

// AddConstant appends v to the constant pool and returns its index.
func (c *Chunk) AddConstant(v any) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// Count returns the number of bytes of code currently in the chunk.
func (c *Chunk) Count() int {
	return len(c.Code)
}
