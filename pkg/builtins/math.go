package builtins

import (
	"math"
	"math/rand"

	"mqjs/pkg/value"
	"mqjs/pkg/vm"
)

// installMath registers the Math namespace's constants and unary/binary
// functions (spec §4.5.1), grounded on the teacher's math_init.go
// constant-then-method registration order but trimmed to the smaller
// catalog this engine promises.
func (r *Registry) installMath(v *vm.VM) {
	r.globals["Math"] = value.Builtin(value.BuiltinMath)

	r.mathProps["PI"] = value.Float(math.Pi)
	r.mathProps["E"] = value.Float(math.E)

	unary := func(f func(float64) float64) vm.NativeFn {
		return func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
			return vm.NumberValue(f(m.ToNumber(argAt(args, 0)))), nil
		}
	}
	binary := func(f func(a, b float64) float64) vm.NativeFn {
		return func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
			return vm.NumberValue(f(m.ToNumber(argAt(args, 0)), m.ToNumber(argAt(args, 1)))), nil
		}
	}

	r.mathProps["abs"] = r.native(v, unary(math.Abs))
	r.mathProps["floor"] = r.native(v, unary(math.Floor))
	r.mathProps["ceil"] = r.native(v, unary(math.Ceil))
	r.mathProps["round"] = r.native(v, unary(func(f float64) float64 { return math.Floor(f + 0.5) }))
	r.mathProps["sqrt"] = r.native(v, unary(math.Sqrt))
	r.mathProps["pow"] = r.native(v, binary(math.Pow))
	r.mathProps["min"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		if len(args) == 0 {
			return value.Float(math.Inf(1)), nil
		}
		best := m.ToNumber(args[0])
		for _, a := range args[1:] {
			if n := m.ToNumber(a); n < best || math.IsNaN(n) {
				best = n
			}
		}
		return vm.NumberValue(best), nil
	})
	r.mathProps["max"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		if len(args) == 0 {
			return value.Float(math.Inf(-1)), nil
		}
		best := m.ToNumber(args[0])
		for _, a := range args[1:] {
			if n := m.ToNumber(a); n > best || math.IsNaN(n) {
				best = n
			}
		}
		return vm.NumberValue(best), nil
	})
	r.mathProps["random"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		return value.Float(rand.Float64()), nil
	})
}
