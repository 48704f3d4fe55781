// Package value defines the tagged Value representation shared by the
// compiler, VM, heap, and builtin dispatch. A Value is a small struct
// carrying a Kind tag plus a 64-bit payload; for heap-referencing kinds
// the payload is an index into the matching arena in package heap, never
// a raw pointer, so the mark-compact collector can freely relocate
// entries without invalidating any Value a script or the VM holds.
package value

import "math"

// Kind discriminates the variant a Value holds. Every Value has exactly
// one Kind.
type Kind uint8

const (
	KindInt31 Kind = iota
	KindFloat
	KindUndefined
	KindNull
	KindBool
	KindString
	KindObject
	KindArray
	KindClosure
	KindBytecodeFunction
	KindNativeFunction
	KindBuiltin
	KindErrorObject
	KindRegExp
	KindIterator
)

func (k Kind) String() string {
	switch k {
	case KindInt31, KindFloat:
		return "number"
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "object" // typeof null === "object", matches §4.3.2 TypeOf contract
	case KindBool:
		return "boolean"
	case KindString:
		return "string"
	case KindClosure, KindBytecodeFunction, KindNativeFunction:
		return "function"
	default:
		return "object"
	}
}

// BuiltinTag enumerates the fixed set of built-in objects that never
// allocate; their identity is the tag itself (spec §3.1).
type BuiltinTag uint8

const (
	BuiltinMath BuiltinTag = iota
	BuiltinJSON
	BuiltinArray
	BuiltinObject
	BuiltinNumber
	BuiltinString
	BuiltinBoolean
	BuiltinDate
	BuiltinConsole
	BuiltinError
	BuiltinTypeError
	BuiltinRangeError
	BuiltinReferenceError
	BuiltinSyntaxError
)

var builtinNames = map[BuiltinTag]string{
	BuiltinMath:           "Math",
	BuiltinJSON:           "JSON",
	BuiltinArray:          "Array",
	BuiltinObject:         "Object",
	BuiltinNumber:         "Number",
	BuiltinString:         "String",
	BuiltinBoolean:        "Boolean",
	BuiltinDate:           "Date",
	BuiltinConsole:        "console",
	BuiltinError:          "Error",
	BuiltinTypeError:      "TypeError",
	BuiltinRangeError:     "RangeError",
	BuiltinReferenceError: "ReferenceError",
	BuiltinSyntaxError:    "SyntaxError",
}

func (t BuiltinTag) String() string { return builtinNames[t] }

// ErrorTaxonomyName reports the Error subtype name a builtin constructor
// tag produces, or "" if the tag is not an Error constructor.
func (t BuiltinTag) ErrorTaxonomyName() string {
	switch t {
	case BuiltinError, BuiltinTypeError, BuiltinRangeError, BuiltinReferenceError, BuiltinSyntaxError:
		return builtinNames[t]
	default:
		return ""
	}
}

// Value is the engine's one tagged word. Copying a Value is always safe
// and cheap; only the arenas it may index into are heap-managed.
type Value struct {
	kind    Kind
	payload uint64
}

func (v Value) Kind() Kind { return v.kind }

var (
	Undefined = Value{kind: KindUndefined}
	Null      = Value{kind: KindNull}
	True      = Value{kind: KindBool, payload: 1}
	False     = Value{kind: KindBool, payload: 0}
)

// Int31 returns an integer Value. Overflow beyond int32 range should be
// promoted to Float by the caller (VM arithmetic does this); Int31 itself
// does not check range so the compiler can also use it for small literal
// constants that are known to fit.
func Int31(n int32) Value {
	return Value{kind: KindInt31, payload: uint64(uint32(n))}
}

func Float(f float64) Value {
	return Value{kind: KindFloat, payload: math.Float64bits(f)}
}

func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

func StringRef(idx uint32) Value       { return Value{kind: KindString, payload: uint64(idx)} }
func ObjectRef(idx uint32) Value       { return Value{kind: KindObject, payload: uint64(idx)} }
func ArrayRef(idx uint32) Value        { return Value{kind: KindArray, payload: uint64(idx)} }
func ClosureRef(idx uint32) Value      { return Value{kind: KindClosure, payload: uint64(idx)} }
func BytecodeFuncRef(idx uint32) Value { return Value{kind: KindBytecodeFunction, payload: uint64(idx)} }
func NativeFuncRef(idx uint32) Value   { return Value{kind: KindNativeFunction, payload: uint64(idx)} }
func ErrorRef(idx uint32) Value        { return Value{kind: KindErrorObject, payload: uint64(idx)} }
func RegExpRef(idx uint32) Value       { return Value{kind: KindRegExp, payload: uint64(idx)} }
func IteratorRef(idx uint32) Value     { return Value{kind: KindIterator, payload: uint64(idx)} }

func Builtin(tag BuiltinTag) Value {
	return Value{kind: KindBuiltin, payload: uint64(tag)}
}

// Index returns the arena index carried by a heap-referencing Value. It
// does not check the Kind: on any other Value it returns the low 32 bits
// of the payload, so callers must check Kind first.
func (v Value) Index() uint32 { return uint32(v.payload) }

func (v Value) AsInt32() int32     { return int32(uint32(v.payload)) }
func (v Value) AsFloat64() float64 { return math.Float64frombits(v.payload) }
func (v Value) AsBool() bool       { return v.payload != 0 }
func (v Value) AsBuiltin() BuiltinTag { return BuiltinTag(v.payload) }

func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsNullOrUndefined() bool {
	return v.kind == KindUndefined || v.kind == KindNull
}
func (v Value) IsBool() bool    { return v.kind == KindBool }
func (v Value) IsInt() bool     { return v.kind == KindInt31 }
func (v Value) IsFloat() bool   { return v.kind == KindFloat }
func (v Value) IsNumber() bool  { return v.kind == KindInt31 || v.kind == KindFloat }
func (v Value) IsString() bool  { return v.kind == KindString }
func (v Value) IsObject() bool  { return v.kind == KindObject }
func (v Value) IsArray() bool   { return v.kind == KindArray }
func (v Value) IsClosure() bool { return v.kind == KindClosure }
func (v Value) IsBytecodeFunction() bool { return v.kind == KindBytecodeFunction }
func (v Value) IsNativeFunction() bool   { return v.kind == KindNativeFunction }
func (v Value) IsBuiltin() bool          { return v.kind == KindBuiltin }
func (v Value) IsErrorObject() bool      { return v.kind == KindErrorObject }
func (v Value) IsRegExp() bool           { return v.kind == KindRegExp }
func (v Value) IsIterator() bool         { return v.kind == KindIterator }
func (v Value) IsCallable() bool {
	return v.kind == KindClosure || v.kind == KindBytecodeFunction || v.kind == KindNativeFunction
}

// ToFloat64 returns the numeric payload of an Int31 or Float Value. It is
// the caller's responsibility to check IsNumber first.
func (v Value) ToFloat64() float64 {
	if v.kind == KindInt31 {
		return float64(v.AsInt32())
	}
	return v.AsFloat64()
}

// TypeOf implements the §4.3.2 TypeOf opcode contract.
func (v Value) TypeOf() string { return v.kind.String() }

// RawEqual reports whether two Values have identical Kind and payload,
// i.e. they are the same primitive or refer to the same arena slot. It
// does not perform string-content comparison or numeric coercion; those
// live in the VM where arena/heap access is available.
func RawEqual(a, b Value) bool {
	return a.kind == b.kind && a.payload == b.payload
}
