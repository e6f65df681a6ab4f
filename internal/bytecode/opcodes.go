// Package bytecode implements the compiler, binary serializer, and
// virtual machine for a flat, stack-based bytecode with a typed constant
// pool and a function pool, executed by a frame-based VM one instruction
// at a time.
package bytecode

// OpCode identifies a single bytecode instruction. Values and operand
// widths are fixed exactly so that a hand-written or
// externally generated image can be loaded and run unmodified.
type OpCode byte

const (
	OpEnd OpCode = 0xff

	OpLoadNil   OpCode = 0x01
	OpLoadTrue  OpCode = 0x02
	OpLoadFalse OpCode = 0x03

	OpBIPush    OpCode = 0x10
	OpLoadConst OpCode = 0x64 // u16 operand

	OpLoadLocal   OpCode = 0x52 // u8
	OpLoadGlobal  OpCode = 0x74 // u8
	OpStoreLocal  OpCode = 0x5a // u8
	OpStoreGlobal OpCode = 0x61 // u8

	OpBinaryAdd    OpCode = 0x14
	OpBinarySub    OpCode = 0x15
	OpBinaryMul    OpCode = 0x16
	OpBinaryDiv    OpCode = 0x17
	OpBinaryModulo OpCode = 0x18

	OpBinaryAnd OpCode = 0x40
	OpBinaryOr  OpCode = 0x42

	OpUnaryNegative OpCode = 0x0b
	OpUnaryNot      OpCode = 0x0c

	OpCmpEq OpCode = 0x9f
	OpCmpNe OpCode = 0xa0
	OpCmpGt OpCode = 0xa1
	OpCmpGe OpCode = 0xa2
	OpCmpLt OpCode = 0xa3
	OpCmpLe OpCode = 0xa4

	OpPopJmpIfTrue  OpCode = 0x70 // u16
	OpPopJmpIfFalse OpCode = 0x6f // u16
	OpGoto          OpCode = 0xa7 // u16

	OpBuildList     OpCode = 0x67 // u16
	OpBinarySubscr  OpCode = 0x19
	OpStoreSubscr   OpCode = 0x3c

	OpCallFunction OpCode = 0x83 // u8
	OpCallNative   OpCode = 0x84 // u8
	OpReturnValue  OpCode = 0x53
)

var mnemonics = map[OpCode]string{
	OpEnd:           "END",
	OpLoadNil:       "LOAD_NIL",
	OpLoadTrue:      "LOAD_TRUE",
	OpLoadFalse:     "LOAD_FALSE",
	OpBIPush:        "BIPUSH",
	OpLoadConst:     "LOAD_CONST",
	OpLoadLocal:     "LOAD_LOCAL",
	OpLoadGlobal:    "LOAD_GLOBAL",
	OpStoreLocal:    "STORE_LOCAL",
	OpStoreGlobal:   "STORE_GLOBAL",
	OpBinaryAdd:     "BINARY_ADD",
	OpBinarySub:     "BINARY_SUB",
	OpBinaryMul:     "BINARY_MUL",
	OpBinaryDiv:     "BINARY_DIV",
	OpBinaryModulo:  "BINARY_MODULO",
	OpBinaryAnd:     "BINARY_AND",
	OpBinaryOr:      "BINARY_OR",
	OpUnaryNegative: "UNARY_NEGATIVE",
	OpUnaryNot:      "UNARY_NOT",
	OpCmpEq:         "CMPEQ",
	OpCmpNe:         "CMPNE",
	OpCmpGt:         "CMPGT",
	OpCmpGe:         "CMPGE",
	OpCmpLt:         "CMPLT",
	OpCmpLe:         "CMPLE",
	OpPopJmpIfTrue:  "POP_JMP_IF_TRUE",
	OpPopJmpIfFalse: "POP_JMP_IF_FALSE",
	OpGoto:          "GOTO",
	OpBuildList:     "BUILD_LIST",
	OpBinarySubscr:  "BINARY_SUBSCR",
	OpStoreSubscr:   "STORE_SUBSCR",
	OpCallFunction:  "CALL_FUNCTION",
	OpCallNative:    "CALL_NATIVE",
	OpReturnValue:   "RETURN_VALUE",
}

func (op OpCode) String() string {
	if name, ok := mnemonics[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// operandWidth returns the number of operand bytes following the opcode
// byte itself (0, 1, or 2).
func operandWidth(op OpCode) int {
	switch op {
	case OpLoadConst, OpLoadLocal, OpLoadGlobal, OpStoreLocal, OpStoreGlobal,
		OpCallFunction, OpCallNative:
		return widthOf(op)
	case OpBIPush:
		return 1
	case OpPopJmpIfTrue, OpPopJmpIfFalse, OpGoto, OpBuildList:
		return 2
	default:
		return 0
	}
}

// widthOf distinguishes the u8-operand opcodes from the u16-operand ones
// within the "load/store/call" family.
func widthOf(op OpCode) int {
	switch op {
	case OpLoadConst:
		return 2
	default:
		return 1
	}
}
