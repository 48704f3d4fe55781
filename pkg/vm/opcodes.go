package vm

// Opcode is one bytecode instruction (spec §4.3.2). Encoding is one
// opcode byte followed by 0-2 operand bytes, as fixed by the catalog
// below; OperandBytes reports how many follow a given opcode.
type Opcode byte

const (
	OpPushUndefined Opcode = iota
	OpPushNull
	OpPushTrue
	OpPushFalse
	OpPushIntSmall0
	OpPushIntSmall1
	OpPushIntSmall2
	OpPushIntSmall3
	OpPushIntSmall4
	OpPushIntSmall5
	OpPushIntSmall6
	OpPushIntSmall7
	OpPushInt8
	OpPushInt16
	OpPushConst

	OpPop
	OpDup
	OpSwap

	OpGetLocal
	OpSetLocal
	OpGetCapture
	OpSetCapture
	OpGetGlobal
	OpSetGlobal

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpNeg
	OpNot
	OpBitAnd
	OpBitOr
	OpBitXor
	OpBitNot
	OpShl
	OpSar
	OpShr

	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
	OpStrictEq
	OpStrictNe

	OpJump
	OpJumpIfFalse
	OpJumpIfTrue

	OpCall
	OpCallMethod
	OpCallConstructor
	OpReturn

	OpMakeArray
	OpMakeObject
	OpGetElem
	OpSetElem
	OpGetField
	OpGetFieldKeepBase
	OpSetField
	OpDeleteField
	OpDeleteElem
	OpIn
	OpInstanceOf
	OpGetThis
	OpPushRegex

	OpMakeClosure

	OpPushHandler
	OpPopHandler
	OpThrow

	OpForInStart
	OpForOfStart
	OpIterNext

	OpTypeOf
)

// OperandBytes returns the number of operand bytes following op in the
// instruction stream. MakeClosure is variable-length (its capture
// descriptor list follows the fixed header) and is handled specially by
// the disassembler/dispatch loop, not through this table.
func OperandBytes(op Opcode) int {
	switch op {
	case OpPushInt8:
		return 1
	case OpPushInt16, OpJump, OpJumpIfFalse, OpJumpIfTrue:
		return 2
	case OpPushConst, OpGetGlobal, OpSetGlobal, OpGetField, OpGetFieldKeepBase,
		OpSetField, OpDeleteField, OpMakeArray, OpPushRegex:
		return 2
	case OpGetLocal, OpSetLocal, OpGetCapture, OpSetCapture,
		OpCall, OpCallMethod, OpCallConstructor:
		return 1
	case OpPushHandler:
		return 2
	default:
		return 0
	}
}

var opcodeNames = map[Opcode]string{
	OpPushUndefined: "PushUndefined", OpPushNull: "PushNull", OpPushTrue: "PushTrue", OpPushFalse: "PushFalse",
	OpPushIntSmall0: "PushIntSmall0", OpPushIntSmall1: "PushIntSmall1", OpPushIntSmall2: "PushIntSmall2",
	OpPushIntSmall3: "PushIntSmall3", OpPushIntSmall4: "PushIntSmall4", OpPushIntSmall5: "PushIntSmall5",
	OpPushIntSmall6: "PushIntSmall6", OpPushIntSmall7: "PushIntSmall7",
	OpPushInt8: "PushInt8", OpPushInt16: "PushInt16", OpPushConst: "PushConst",
	OpPop: "Pop", OpDup: "Dup", OpSwap: "Swap",
	OpGetLocal: "GetLocal", OpSetLocal: "SetLocal", OpGetCapture: "GetCapture", OpSetCapture: "SetCapture",
	OpGetGlobal: "GetGlobal", OpSetGlobal: "SetGlobal",
	OpAdd: "Add", OpSub: "Sub", OpMul: "Mul", OpDiv: "Div", OpMod: "Mod", OpPow: "Pow",
	OpNeg: "Neg", OpNot: "Not", OpBitAnd: "BitAnd", OpBitOr: "BitOr", OpBitXor: "BitXor", OpBitNot: "BitNot",
	OpShl: "Shl", OpSar: "Sar", OpShr: "Shr",
	OpLt: "Lt", OpLe: "Le", OpGt: "Gt", OpGe: "Ge", OpEq: "Eq", OpNe: "Ne", OpStrictEq: "StrictEq", OpStrictNe: "StrictNe",
	OpJump: "Jump", OpJumpIfFalse: "JumpIfFalse", OpJumpIfTrue: "JumpIfTrue",
	OpCall: "Call", OpCallMethod: "CallMethod", OpCallConstructor: "CallConstructor", OpReturn: "Return",
	OpMakeArray: "MakeArray", OpMakeObject: "MakeObject", OpGetElem: "GetElem", OpSetElem: "SetElem",
	OpGetField: "GetField", OpGetFieldKeepBase: "GetFieldKeepBase", OpSetField: "SetField", OpDeleteField: "DeleteField",
	OpDeleteElem: "DeleteElem",
	OpIn: "In", OpInstanceOf: "InstanceOf", OpGetThis: "GetThis", OpPushRegex: "PushRegex",
	OpMakeClosure: "MakeClosure",
	OpPushHandler: "PushHandler", OpPopHandler: "PopHandler", OpThrow: "Throw",
	OpForInStart: "ForInStart", OpForOfStart: "ForOfStart", OpIterNext: "IterNext",
	OpTypeOf: "TypeOf",
}

func (op Opcode) String() string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}
	return "Unknown"
}
