// Package abcmodel is the in-memory representation of a linked ABC file:
// constant pool, classes, methods, traits, multinames and the decoded
// instruction stream of every method body. It is populated once, at parse
// time, from github.com/kelvyne/as3's read-only model (see adapt.go) and is
// the mutable model every rewriter in this repository operates on.
package abcmodel

// Opcode is a single AVM2 instruction opcode.
type Opcode byte

// The subset of the AVM2 instruction set this engine decodes, rewrites or
// walks. Byte values follow the public AVM2 overview instruction table.
const (
	OpBkpt        Opcode = 0x01
	OpNop         Opcode = 0x02
	OpThrow       Opcode = 0x03
	OpGetSuper    Opcode = 0x04
	OpSetSuper    Opcode = 0x05
	OpDXNS        Opcode = 0x06
	OpDXNSLate    Opcode = 0x07
	OpKill        Opcode = 0x08
	OpLabel       Opcode = 0x09
	OpIfNLT       Opcode = 0x0C
	OpIfNLE       Opcode = 0x0D
	OpIfNGT       Opcode = 0x0E
	OpIfNGE       Opcode = 0x0F
	OpJump        Opcode = 0x10
	OpIfTrue      Opcode = 0x11
	OpIfFalse     Opcode = 0x12
	OpIfEq        Opcode = 0x13
	OpIfNe        Opcode = 0x14
	OpIfLT        Opcode = 0x15
	OpIfLE        Opcode = 0x16
	OpIfGT        Opcode = 0x17
	OpIfGE        Opcode = 0x18
	OpIfStrictEq  Opcode = 0x19
	OpIfStrictNe  Opcode = 0x1A
	OpLookupSwitch Opcode = 0x1B
	OpPushWith    Opcode = 0x1C
	OpPopScope    Opcode = 0x1D
	OpNextName    Opcode = 0x1E
	OpHasNext     Opcode = 0x1F
	OpPushNull    Opcode = 0x20
	OpPushUndefined Opcode = 0x21
	OpNextValue   Opcode = 0x23
	OpPushByte    Opcode = 0x24
	OpPushShort   Opcode = 0x25
	OpPushTrue    Opcode = 0x26
	OpPushFalse   Opcode = 0x27
	OpPushNaN     Opcode = 0x28
	OpPop         Opcode = 0x29
	OpDup         Opcode = 0x2A
	OpSwap        Opcode = 0x2B
	OpPushString  Opcode = 0x2C
	OpPushInt     Opcode = 0x2D
	OpPushUInt    Opcode = 0x2E
	OpPushDouble  Opcode = 0x2F
	OpPushScope   Opcode = 0x30
	OpPushNamespace Opcode = 0x31
	OpHasNext2    Opcode = 0x32
	OpNewFunction Opcode = 0x40
	OpCall        Opcode = 0x41
	OpConstruct   Opcode = 0x42
	OpCallMethod  Opcode = 0x43
	OpCallStatic  Opcode = 0x44
	OpCallSuper   Opcode = 0x45
	OpCallProperty Opcode = 0x46
	OpReturnVoid  Opcode = 0x47
	OpReturnValue Opcode = 0x48
	OpConstructSuper Opcode = 0x49
	OpConstructProp Opcode = 0x4A
	OpCallPropLex Opcode = 0x4C
	OpCallSuperVoid Opcode = 0x4E
	OpCallPropVoid Opcode = 0x4F
	OpApplyType   Opcode = 0x53
	OpNewObject   Opcode = 0x55
	OpNewArray    Opcode = 0x56
	OpNewActivation Opcode = 0x57
	OpNewClass    Opcode = 0x58
	OpGetDescendants Opcode = 0x59
	OpNewCatch    Opcode = 0x5A
	OpFindPropStrict Opcode = 0x5D
	OpFindProperty Opcode = 0x5E
	OpGetLex      Opcode = 0x60
	OpSetProperty Opcode = 0x61
	OpGetLocal    Opcode = 0x62
	OpSetLocal    Opcode = 0x63
	OpGetGlobalScope Opcode = 0x64
	OpGetScopeObject Opcode = 0x65
	OpGetProperty Opcode = 0x66
	OpInitProperty Opcode = 0x68
	OpDeleteProperty Opcode = 0x6A
	OpGetSlot     Opcode = 0x6C
	OpSetSlot     Opcode = 0x6D
	OpGetGlobalSlot Opcode = 0x6E
	OpSetGlobalSlot Opcode = 0x6F
	OpConvertS    Opcode = 0x70
	OpEscXelem    Opcode = 0x71
	OpEscXattr    Opcode = 0x72
	OpConvertI    Opcode = 0x73
	OpConvertU    Opcode = 0x74
	OpConvertD    Opcode = 0x75
	OpConvertB    Opcode = 0x76
	OpConvertO    Opcode = 0x77
	OpCheckFilter Opcode = 0x78
	OpCoerce      Opcode = 0x80
	OpCoerceA     Opcode = 0x82
	OpCoerceS     Opcode = 0x85
	OpAsType      Opcode = 0x86
	OpAsTypeLate  Opcode = 0x87
	OpNegate      Opcode = 0x90
	OpIncrement   Opcode = 0x91
	OpIncLocal    Opcode = 0x92
	OpDecrement   Opcode = 0x93
	OpDecLocal    Opcode = 0x94
	OpTypeOf      Opcode = 0x95
	OpNot         Opcode = 0x96
	OpBitNot      Opcode = 0x97
	OpAdd         Opcode = 0xA0
	OpSubtract    Opcode = 0xA1
	OpMultiply    Opcode = 0xA2
	OpDivide      Opcode = 0xA3
	OpModulo      Opcode = 0xA4
	OpLShift      Opcode = 0xA5
	OpRShift      Opcode = 0xA6
	OpURShift     Opcode = 0xA7
	OpBitAnd      Opcode = 0xA8
	OpBitOr       Opcode = 0xA9
	OpBitXor      Opcode = 0xAA
	OpEquals      Opcode = 0xAB
	OpStrictEquals Opcode = 0xAC
	OpLessThan    Opcode = 0xAD
	OpLessEquals  Opcode = 0xAE
	OpGreaterThan Opcode = 0xAF
	OpGreaterEquals Opcode = 0xB0
	OpInstanceOf  Opcode = 0xB1
	OpIsType      Opcode = 0xB2
	OpIsTypeLate  Opcode = 0xB3
	OpIn          Opcode = 0xB4
	OpIncLocalI   Opcode = 0xC0
	OpDecLocalI   Opcode = 0xC1
	OpIncrementI  Opcode = 0xC2
	OpDecrementI  Opcode = 0xC3
	OpNegateI     Opcode = 0xC4
	OpAddI        Opcode = 0xC5
	OpSubtractI   Opcode = 0xC6
	OpMultiplyI   Opcode = 0xC7
	OpGetLocal0   Opcode = 0xD0
	OpGetLocal1   Opcode = 0xD1
	OpGetLocal2   Opcode = 0xD2
	OpGetLocal3   Opcode = 0xD3
	OpSetLocal0   Opcode = 0xD4
	OpSetLocal1   Opcode = 0xD5
	OpSetLocal2   Opcode = 0xD6
	OpSetLocal3   Opcode = 0xD7
	OpDebug       Opcode = 0xEF
	OpDebugLine   Opcode = 0xF0
	OpDebugFile   Opcode = 0xF1
	OpBkptLine    Opcode = 0xF2
	OpTimestamp   Opcode = 0xF3
)

// operandKind describes how an opcode's immediate operands are encoded.
type operandKind int

const (
	operandNone operandKind = iota
	operandU8          // one byte, sign-extended for pushbyte
	operandU30         // one variable-length u30
	operandU30x2       // two u30s
	operandS24         // one 24-bit branch offset, relative to the instruction's end
	operandSwitch      // lookupswitch's special encoding
	operandDebug       // debug opcode's {u8,u30,u8,u30}
	operandU30Byte     // one u30 then one byte (newcatch-style variants)
)

var operandKinds = map[Opcode]operandKind{
	OpGetSuper: operandU30, OpSetSuper: operandU30, OpDXNS: operandU30,
	OpKill: operandU30,
	OpIfNLT: operandS24, OpIfNLE: operandS24, OpIfNGT: operandS24, OpIfNGE: operandS24,
	OpJump: operandS24, OpIfTrue: operandS24, OpIfFalse: operandS24,
	OpIfEq: operandS24, OpIfNe: operandS24, OpIfLT: operandS24, OpIfLE: operandS24,
	OpIfGT: operandS24, OpIfGE: operandS24, OpIfStrictEq: operandS24, OpIfStrictNe: operandS24,
	OpLookupSwitch: operandSwitch,
	OpPushByte:     operandU8,
	OpPushShort:    operandU30,
	OpPushString:   operandU30, OpPushInt: operandU30, OpPushUInt: operandU30, OpPushDouble: operandU30,
	OpPushNamespace: operandU30,
	OpHasNext2:      operandU30x2,
	OpNewFunction:   operandU30,
	OpCall:          operandU30, OpConstruct: operandU30,
	OpCallMethod: operandU30x2, OpCallStatic: operandU30x2,
	OpCallSuper: operandU30x2, OpCallProperty: operandU30x2,
	OpConstructSuper: operandU30, OpConstructProp: operandU30x2,
	OpCallPropLex: operandU30x2, OpCallSuperVoid: operandU30x2, OpCallPropVoid: operandU30x2,
	OpApplyType: operandU30, OpNewObject: operandU30, OpNewArray: operandU30,
	OpNewClass: operandU30, OpGetDescendants: operandU30, OpNewCatch: operandU30,
	OpFindPropStrict: operandU30, OpFindProperty: operandU30,
	OpGetLex: operandU30, OpSetProperty: operandU30,
	OpGetLocal: operandU30, OpSetLocal: operandU30,
	OpGetScopeObject: operandU8,
	OpGetProperty:    operandU30, OpInitProperty: operandU30, OpDeleteProperty: operandU30,
	OpGetSlot: operandU30, OpSetSlot: operandU30, OpGetGlobalSlot: operandU30, OpSetGlobalSlot: operandU30,
	OpCoerce: operandU30, OpAsType: operandU30,
	OpIncLocal: operandU30, OpDecLocal: operandU30, OpIncLocalI: operandU30, OpDecLocalI: operandU30,
	OpDebug: operandDebug, OpDebugLine: operandU30, OpDebugFile: operandU30,
}

// argCount reports how many u30 "slots" are meaningful for generic
// disassembly of an opcode whose exact arity is not otherwise known to a
// caller; used only for pretty-printing, never for decode/encode (those use
// operandKinds above directly).
func (op Opcode) argCount() int {
	switch operandKinds[op] {
	case operandU30x2:
		return 2
	case operandNone:
		return 0
	default:
		return 1
	}
}

// OpcodeNames maps opcodes to their textual mnemonic, for disassembly and
// for the structural-pattern matchers in internal/recognize,
// internal/unscramble and internal/packetanalyze, which all key off the
// mnemonic rather than the raw byte.
var OpcodeNames = map[Opcode]string{
	OpBkpt: "bkpt", OpNop: "nop", OpThrow: "throw",
	OpGetSuper: "getsuper", OpSetSuper: "setsuper",
	OpDXNS: "dxns", OpDXNSLate: "dxnslate", OpKill: "kill", OpLabel: "label",
	OpIfNLT: "ifnlt", OpIfNLE: "ifnle", OpIfNGT: "ifngt", OpIfNGE: "ifnge",
	OpJump: "jump", OpIfTrue: "iftrue", OpIfFalse: "iffalse",
	OpIfEq: "ifeq", OpIfNe: "ifne", OpIfLT: "iflt", OpIfLE: "ifle",
	OpIfGT: "ifgt", OpIfGE: "ifge", OpIfStrictEq: "ifstricteq", OpIfStrictNe: "ifstrictne",
	OpLookupSwitch: "lookupswitch", OpPushWith: "pushwith", OpPopScope: "popscope",
	OpNextName: "nextname", OpHasNext: "hasnext",
	OpPushNull: "pushnull", OpPushUndefined: "pushundefined", OpNextValue: "nextvalue",
	OpPushByte: "pushbyte", OpPushShort: "pushshort",
	OpPushTrue: "pushtrue", OpPushFalse: "pushfalse", OpPushNaN: "pushnan",
	OpPop: "pop", OpDup: "dup", OpSwap: "swap",
	OpPushString: "pushstring", OpPushInt: "pushint", OpPushUInt: "pushuint", OpPushDouble: "pushdouble",
	OpPushScope: "pushscope", OpPushNamespace: "pushnamespace", OpHasNext2: "hasnext2",
	OpNewFunction: "newfunction", OpCall: "call", OpConstruct: "construct",
	OpCallMethod: "callmethod", OpCallStatic: "callstatic", OpCallSuper: "callsuper",
	OpCallProperty: "callproperty", OpReturnVoid: "returnvoid", OpReturnValue: "returnvalue",
	OpConstructSuper: "constructsuper", OpConstructProp: "constructprop",
	OpCallPropLex: "callproplex", OpCallSuperVoid: "callsupervoid", OpCallPropVoid: "callpropvoid",
	OpApplyType: "applytype", OpNewObject: "newobject", OpNewArray: "newarray",
	OpNewActivation: "newactivation", OpNewClass: "newclass", OpGetDescendants: "getdescendants",
	OpNewCatch: "newcatch", OpFindPropStrict: "findpropstrict", OpFindProperty: "findproperty",
	OpGetLex: "getlex", OpSetProperty: "setproperty", OpGetLocal: "getlocal", OpSetLocal: "setlocal",
	OpGetGlobalScope: "getglobalscope", OpGetScopeObject: "getscopeobject", OpGetProperty: "getproperty",
	OpInitProperty: "initproperty", OpDeleteProperty: "deleteproperty",
	OpGetSlot: "getslot", OpSetSlot: "setslot", OpGetGlobalSlot: "getglobalslot", OpSetGlobalSlot: "setglobalslot",
	OpConvertS: "convert_s", OpEscXelem: "esc_xelem", OpEscXattr: "esc_xattr",
	OpConvertI: "convert_i", OpConvertU: "convert_u", OpConvertD: "convert_d",
	OpConvertB: "convert_b", OpConvertO: "convert_o", OpCheckFilter: "checkfilter",
	OpCoerce: "coerce", OpCoerceA: "coerce_a", OpCoerceS: "coerce_s",
	OpAsType: "astype", OpAsTypeLate: "astypelate",
	OpNegate: "negate", OpIncrement: "increment", OpIncLocal: "inclocal",
	OpDecrement: "decrement", OpDecLocal: "declocal", OpTypeOf: "typeof",
	OpNot: "not", OpBitNot: "bitnot",
	OpAdd: "add", OpSubtract: "subtract", OpMultiply: "multiply", OpDivide: "divide", OpModulo: "modulo",
	OpLShift: "lshift", OpRShift: "rshift", OpURShift: "urshift",
	OpBitAnd: "bitand", OpBitOr: "bitor", OpBitXor: "bitxor",
	OpEquals: "equals", OpStrictEquals: "strictequals",
	OpLessThan: "lessthan", OpLessEquals: "lessequals", OpGreaterThan: "greaterthan", OpGreaterEquals: "greaterequals",
	OpInstanceOf: "instanceof", OpIsType: "istype", OpIsTypeLate: "istypelate", OpIn: "in",
	OpIncLocalI: "inclocal_i", OpDecLocalI: "declocal_i", OpIncrementI: "increment_i",
	OpDecrementI: "decrement_i", OpNegateI: "negate_i", OpAddI: "add_i", OpSubtractI: "subtract_i", OpMultiplyI: "multiply_i",
	OpGetLocal0: "getlocal0", OpGetLocal1: "getlocal1", OpGetLocal2: "getlocal2", OpGetLocal3: "getlocal3",
	OpSetLocal0: "setlocal0", OpSetLocal1: "setlocal1", OpSetLocal2: "setlocal2", OpSetLocal3: "setlocal3",
	OpDebug: "debug", OpDebugLine: "debugline", OpDebugFile: "debugfile",
	OpBkptLine: "bkptline", OpTimestamp: "timestamp",
}

// Name returns the opcode's mnemonic, or "unknown" for a reserved byte
// value this model does not name.
func (op Opcode) Name() string {
	if name, ok := OpcodeNames[op]; ok {
		return name
	}
	return "unknown"
}

// IsJump reports whether op is a conditional/unconditional branch or a
// lookupswitch, i.e. whether Instruction.Targets is meaningful for it.
func (op Opcode) IsJump() bool {
	switch op {
	case OpJump, OpIfTrue, OpIfFalse, OpIfEq, OpIfNe, OpIfLT, OpIfLE, OpIfGT, OpIfGE,
		OpIfStrictEq, OpIfStrictNe, OpIfNLT, OpIfNLE, OpIfNGT, OpIfNGE, OpLookupSwitch:
		return true
	default:
		return false
	}
}
