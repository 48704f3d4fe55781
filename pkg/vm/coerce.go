package vm

import (
	"math"
	"strconv"
	"strings"

	"mqjs/pkg/value"
)

// Truthy implements ToBoolean (spec §4.3.3).
func (m *VM) Truthy(v value.Value) bool {
	switch v.Kind() {
	case value.KindUndefined, value.KindNull:
		return false
	case value.KindBool:
		return v.AsBool()
	case value.KindInt31:
		return v.AsInt32() != 0
	case value.KindFloat:
		f := v.AsFloat64()
		return f != 0 && !math.IsNaN(f)
	case value.KindString:
		return len(m.Heap.String(v)) > 0
	default:
		return true
	}
}

// ToNumber implements the numeric coercion used by arithmetic, relational,
// and bitwise opcodes (spec §4.3.3).
func (m *VM) ToNumber(v value.Value) float64 {
	switch v.Kind() {
	case value.KindInt31:
		return float64(v.AsInt32())
	case value.KindFloat:
		return v.AsFloat64()
	case value.KindBool:
		if v.AsBool() {
			return 1
		}
		return 0
	case value.KindUndefined:
		return math.NaN()
	case value.KindNull:
		return 0
	case value.KindString:
		s := strings.TrimSpace(m.Heap.String(v))
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// ToInt32 implements the bitwise-opcode coercion (spec §4.3.2's shift and
// bitwise operators).
func (m *VM) ToInt32(v value.Value) int32 {
	f := m.ToNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(int64(f))
}

// ToUint32 implements the unsigned-shift coercion for OpShr (`>>>`).
func (m *VM) ToUint32(v value.Value) uint32 {
	return uint32(m.ToInt32(v))
}

// ToDisplayString implements ToString for string concatenation, template
// interpolation-free string building, and console output (spec §4.5's
// string-conversion contract).
func (m *VM) ToDisplayString(v value.Value) string {
	switch v.Kind() {
	case value.KindUndefined:
		return "undefined"
	case value.KindNull:
		return "null"
	case value.KindBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case value.KindInt31:
		return strconv.FormatInt(int64(v.AsInt32()), 10)
	case value.KindFloat:
		return formatJSFloat(v.AsFloat64())
	case value.KindString:
		return m.Heap.String(v)
	case value.KindArray:
		arr := m.Heap.Array(v)
		parts := make([]string, len(arr.Elements))
		for i, e := range arr.Elements {
			if e.IsNullOrUndefined() {
				parts[i] = ""
			} else {
				parts[i] = m.ToDisplayString(e)
			}
		}
		return strings.Join(parts, ",")
	case value.KindObject:
		return "[object Object]"
	case value.KindErrorObject:
		ed := m.Heap.ErrorObject(v)
		if ed.Message == "" {
			return ed.Name
		}
		return ed.Name + ": " + ed.Message
	case value.KindClosure, value.KindNativeFunction, value.KindBytecodeFunction:
		return "function"
	case value.KindRegExp:
		rd := m.Heap.RegExp(v)
		return "/" + rd.Source + "/" + rd.Flags
	case value.KindBuiltin:
		return v.AsBuiltin().String()
	default:
		return ""
	}
}

// formatJSFloat mimics JS Number-to-string formatting closely enough for
// a minimalist engine: integral floats print without a fractional part,
// NaN/Infinity print their names, everything else uses the shortest
// round-tripping decimal form.
func formatJSFloat(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// looseEqual implements JS `==` (spec §4.3.3's abstract equality,
// simplified for the runtime's value set: numbers, strings, booleans,
// null/undefined, and reference equality for everything else).
func (m *VM) looseEqual(a, b value.Value) bool {
	if a.Kind() == b.Kind() {
		return m.strictEqual(a, b)
	}
	if a.IsNullOrUndefined() && b.IsNullOrUndefined() {
		return true
	}
	if a.IsNullOrUndefined() || b.IsNullOrUndefined() {
		return false
	}
	if a.IsNumber() && b.IsString() {
		return m.ToNumber(a) == m.ToNumber(b)
	}
	if a.IsString() && b.IsNumber() {
		return m.ToNumber(a) == m.ToNumber(b)
	}
	if a.IsBool() {
		return m.looseEqual(value.Float(m.ToNumber(a)), b)
	}
	if b.IsBool() {
		return m.looseEqual(a, value.Float(m.ToNumber(b)))
	}
	return false
}

// StrictEqual exposes strictEqual to package builtins (Array.prototype
// methods that compare elements, e.g. indexOf, need it without
// duplicating the comparison rules).
func (m *VM) StrictEqual(a, b value.Value) bool { return m.strictEqual(a, b) }

// strictEqual implements JS `===`, treating Int31 and Float uniformly as
// "number" (spec §3.1: the two number kinds are one JS type).
func (m *VM) strictEqual(a, b value.Value) bool {
	if a.IsNumber() && b.IsNumber() {
		return m.ToNumber(a) == m.ToNumber(b)
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case value.KindString:
		return m.Heap.String(a) == m.Heap.String(b)
	case value.KindUndefined, value.KindNull:
		return true
	case value.KindBool:
		return a.AsBool() == b.AsBool()
	default:
		return value.RawEqual(a, b)
	}
}

// compareResult is the outcome of an abstract relational comparison;
// undefined captures JS's NaN-propagating "always false" case.
type compareResult int

const (
	cmpLess compareResult = iota
	cmpEqual
	cmpGreater
	cmpUndefined
)

func (m *VM) compare(a, b value.Value) compareResult {
	if a.IsString() && b.IsString() {
		sa, sb := m.Heap.String(a), m.Heap.String(b)
		switch {
		case sa < sb:
			return cmpLess
		case sa > sb:
			return cmpGreater
		default:
			return cmpEqual
		}
	}
	fa, fb := m.ToNumber(a), m.ToNumber(b)
	if math.IsNaN(fa) || math.IsNaN(fb) {
		return cmpUndefined
	}
	switch {
	case fa < fb:
		return cmpLess
	case fa > fb:
		return cmpGreater
	default:
		return cmpEqual
	}
}
