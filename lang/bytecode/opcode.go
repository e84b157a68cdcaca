package bytecode

// Opcode identifies a single bytecode instruction. Operands, when present,
// follow the opcode byte inline in a Chunk's code.
type Opcode uint8

//nolint:revive
const (
	OpConstant Opcode = iota // 1-byte constant index

	OpNil
	OpTrue
	OpFalse
	OpPop

	OpGetLocal  // 1-byte slot
	OpSetLocal  // 1-byte slot
	OpGetGlobal // 1-byte name constant
	OpDefineGlobal
	OpSetGlobal
	OpGetUpvalue // 1-byte index
	OpSetUpvalue
	OpCloseUpvalue

	OpEqual
	OpGreater
	OpLess

	OpAdd
	OpSubtract
	OpMultiply
	OpDivide

	OpNot
	OpNegate

	OpPrint

	OpJump       // 2-byte forward offset, big-endian
	OpJumpIfFalse
	OpLoop // 2-byte backward offset, big-endian

	OpCall // 1-byte argument count

	OpClosure // 1-byte function constant, then N*(is_local byte, index byte)

	OpReturn

	OpClass        // 1-byte name constant
	OpInherit
	OpMethod       // 1-byte name constant
	OpGetProperty  // 1-byte name constant
	OpSetProperty  // 1-byte name constant
	OpInvoke       // 1-byte name constant, 1-byte argc
	OpGetSuper     // 1-byte name constant
	OpSuperInvoke  // 1-byte name constant, 1-byte argc
)

func (op Opcode) String() string { return opcodeNames[op] }

var opcodeNames = [...]string{
	OpConstant:      "OP_CONSTANT",
	OpNil:           "OP_NIL",
	OpTrue:          "OP_TRUE",
	OpFalse:         "OP_FALSE",
	OpPop:           "OP_POP",
	OpGetLocal:      "OP_GET_LOCAL",
	OpSetLocal:      "OP_SET_LOCAL",
	OpGetGlobal:     "OP_GET_GLOBAL",
	OpDefineGlobal:  "OP_DEFINE_GLOBAL",
	OpSetGlobal:     "OP_SET_GLOBAL",
	OpGetUpvalue:    "OP_GET_UPVALUE",
	OpSetUpvalue:    "OP_SET_UPVALUE",
	OpCloseUpvalue:  "OP_CLOSE_UPVALUE",
	OpEqual:         "OP_EQUAL",
	OpGreater:       "OP_GREATER",
	OpLess:          "OP_LESS",
	OpAdd:           "OP_ADD",
	OpSubtract:      "OP_SUBTRACT",
	OpMultiply:      "OP_MULTIPLY",
	OpDivide:        "OP_DIVIDE",
	OpNot:           "OP_NOT",
	OpNegate:        "OP_NEGATE",
	OpPrint:         "OP_PRINT",
	OpJump:          "OP_JUMP",
	OpJumpIfFalse:   "OP_JUMP_IF_FALSE",
	OpLoop:          "OP_LOOP",
	OpCall:          "OP_CALL",
	OpClosure:       "OP_CLOSURE",
	OpReturn:        "OP_RETURN",
	OpClass:         "OP_CLASS",
	OpInherit:       "OP_INHERIT",
	OpMethod:        "OP_METHOD",
	OpGetProperty:   "OP_GET_PROPERTY",
	OpSetProperty:   "OP_SET_PROPERTY",
	OpInvoke:        "OP_INVOKE",
	OpGetSuper:      "OP_GET_SUPER",
	OpSuperInvoke:   "OP_SUPER_INVOKE",
}
