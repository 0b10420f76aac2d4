// Package bytecode defines the wire format shared by the compiler and the
// VM: the Op enum, the CompiledFunction container, and a disassembler
// used for debug tracing (spec.md §4.2).
package bytecode

// Op is a single-byte instruction opcode.
type Op uint8

const (
	OpConstant Op = iota // 2-byte big-endian constant index operand
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpNegate
	OpNot
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpEqual
	OpNotEqual
	OpGreater
	OpGreaterEqual
	OpLess
	OpLessEqual
	OpPrint
	OpDefineGlobal // 2-byte constant index of the name
	OpGetGlobal
	OpSetGlobal
	OpGetLocal // 2-byte stack slot
	OpSetLocal
	OpJump     // 2-byte big-endian forward offset
	OpJumpFalse
	OpReturn
)

var names = [...]string{
	OpConstant:     "OP_CONSTANT",
	OpNil:          "OP_NIL",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpPop:          "OP_POP",
	OpNegate:       "OP_NEGATE",
	OpNot:          "OP_NOT",
	OpAdd:          "OP_ADD",
	OpSubtract:     "OP_SUBTRACT",
	OpMultiply:     "OP_MULTIPLY",
	OpDivide:       "OP_DIVIDE",
	OpEqual:        "OP_EQUAL",
	OpNotEqual:     "OP_NOT_EQUAL",
	OpGreater:      "OP_GREATER",
	OpGreaterEqual: "OP_GREATER_EQUAL",
	OpLess:         "OP_LESS",
	OpLessEqual:    "OP_LESS_EQUAL",
	OpPrint:        "OP_PRINT",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpGetLocal:     "OP_GET_LOCAL",
	OpSetLocal:     "OP_SET_LOCAL",
	OpJump:         "OP_JUMP",
	OpJumpFalse:    "OP_JUMP_FALSE",
	OpReturn:       "OP_RETURN",
}

func (op Op) String() string {
	if int(op) < len(names) && names[op] != "" {
		return names[op]
	}
	return "OP_UNKNOWN"
}
