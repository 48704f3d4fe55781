package vm

import (
	"math"

	"mqjs/pkg/value"
)

// numberResult chooses the narrowest numeric Kind for a computed float64:
// an exact integer inside int32 range becomes Int31, everything else
// Float. This is where int31-overflow-to-float promotion happens (spec
// §3.1's two number kinds are otherwise indistinguishable to script code).
//
// Signed-zero and NaN-payload distinctions are not preserved across this
// narrowing; a minimalist engine does not need bit-for-bit IEEE 754
// fidelity for values that started life as an Int31.
// NumberValue applies the same int31-overflow-to-float narrowing rule
// numberResult uses internally; package builtins uses it so a native
// function computing a float64 result doesn't have to duplicate the
// promotion rule.
func NumberValue(f float64) value.Value { return numberResult(f) }

func numberResult(f float64) value.Value {
	if !math.IsInf(f, 0) && f == math.Trunc(f) && f >= math.MinInt32 && f <= math.MaxInt32 {
		return value.Int31(int32(f))
	}
	return value.Float(f)
}

// add implements OpAdd: string concatenation if either operand is a
// string, numeric addition otherwise (spec §4.3.2).
func (m *VM) add(a, b value.Value) value.Value {
	if a.IsString() || b.IsString() {
		return m.Heap.NewString(m.ToDisplayString(a) + m.ToDisplayString(b))
	}
	return numberResult(m.ToNumber(a) + m.ToNumber(b))
}

func (m *VM) sub(a, b value.Value) value.Value { return numberResult(m.ToNumber(a) - m.ToNumber(b)) }
func (m *VM) mul(a, b value.Value) value.Value { return numberResult(m.ToNumber(a) * m.ToNumber(b)) }
func (m *VM) div(a, b value.Value) value.Value { return numberResult(m.ToNumber(a) / m.ToNumber(b)) }
func (m *VM) mod(a, b value.Value) value.Value {
	return numberResult(math.Mod(m.ToNumber(a), m.ToNumber(b)))
}
func (m *VM) pow(a, b value.Value) value.Value {
	return numberResult(math.Pow(m.ToNumber(a), m.ToNumber(b)))
}

func (m *VM) neg(v value.Value) value.Value { return numberResult(-m.ToNumber(v)) }

func (m *VM) bitAnd(a, b value.Value) value.Value { return value.Int31(m.ToInt32(a) & m.ToInt32(b)) }
func (m *VM) bitOr(a, b value.Value) value.Value  { return value.Int31(m.ToInt32(a) | m.ToInt32(b)) }
func (m *VM) bitXor(a, b value.Value) value.Value { return value.Int31(m.ToInt32(a) ^ m.ToInt32(b)) }
func (m *VM) bitNot(v value.Value) value.Value    { return value.Int31(^m.ToInt32(v)) }

func (m *VM) shl(a, b value.Value) value.Value {
	return value.Int31(m.ToInt32(a) << (m.ToUint32(b) & 31))
}
func (m *VM) sar(a, b value.Value) value.Value {
	return value.Int31(m.ToInt32(a) >> (m.ToUint32(b) & 31))
}
func (m *VM) shr(a, b value.Value) value.Value {
	r := m.ToUint32(a) >> (m.ToUint32(b) & 31)
	return numberResult(float64(r))
}

func (m *VM) lessThan(a, b value.Value) value.Value {
	return value.Bool(m.compare(a, b) == cmpLess)
}
func (m *VM) lessEqual(a, b value.Value) value.Value {
	c := m.compare(a, b)
	return value.Bool(c == cmpLess || c == cmpEqual)
}
func (m *VM) greaterThan(a, b value.Value) value.Value {
	return value.Bool(m.compare(a, b) == cmpGreater)
}
func (m *VM) greaterEqual(a, b value.Value) value.Value {
	c := m.compare(a, b)
	return value.Bool(c == cmpGreater || c == cmpEqual)
}
