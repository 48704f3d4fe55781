package builtins

import (
	"math"
	"strconv"
	"strings"

	"mqjs/pkg/value"
	"mqjs/pkg/vm"
)

// installNumber registers Number's static methods and Boolean's bare
// namespace tag (spec §4.5.1); Number.prototype.toFixed is a
// numberMethods entry since it dispatches off a number Value the same
// way array/string methods dispatch off their receiver kind.
func (r *Registry) installNumber(v *vm.VM) {
	r.globals["Number"] = value.Builtin(value.BuiltinNumber)

	r.numberStatics["isInteger"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		n := argAt(args, 0)
		if !n.IsNumber() {
			return value.False, nil
		}
		f := n.ToFloat64()
		return value.Bool(!math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f)), nil
	})
	r.numberStatics["isFinite"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		n := argAt(args, 0)
		if !n.IsNumber() {
			return value.False, nil
		}
		f := n.ToFloat64()
		return value.Bool(!math.IsInf(f, 0) && !math.IsNaN(f)), nil
	})
	r.numberStatics["parseFloat"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		return vm.NumberValue(parseLeadingFloat(m.ToDisplayString(argAt(args, 0)))), nil
	})
	r.numberStatics["parseInt"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		s := strings.TrimSpace(m.ToDisplayString(argAt(args, 0)))
		base := 10
		if len(args) > 1 && !args[1].IsUndefined() {
			if b := int(m.ToNumber(args[1])); b != 0 {
				base = b
			}
		}
		neg := false
		if strings.HasPrefix(s, "-") {
			neg = true
			s = s[1:]
		} else if strings.HasPrefix(s, "+") {
			s = s[1:]
		}
		if (base == 16 || base == 10) && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
			s = s[2:]
			base = 16
		}
		end := 0
		for end < len(s) && digitInBase(s[end], base) {
			end++
		}
		if end == 0 {
			return value.Float(math.NaN()), nil
		}
		n, err := strconv.ParseInt(s[:end], base, 64)
		if err != nil {
			return value.Float(math.NaN()), nil
		}
		if neg {
			n = -n
		}
		return vm.NumberValue(float64(n)), nil
	})

	r.numberMethods["toFixed"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		digits := 0
		if len(args) > 0 && !args[0].IsUndefined() {
			digits = int(m.ToNumber(args[0]))
		}
		if digits < 0 || digits > 100 {
			return value.Undefined, newThrow(m, "RangeError", "toFixed() digits argument must be between 0 and 100")
		}
		return m.Heap.NewString(strconv.FormatFloat(m.ToNumber(this), 'f', digits, 64)), nil
	})
}

func digitInBase(c byte, base int) bool {
	var v int
	switch {
	case c >= '0' && c <= '9':
		v = int(c - '0')
	case c >= 'a' && c <= 'z':
		v = int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		v = int(c-'A') + 10
	default:
		return false
	}
	return v < base
}

// parseLeadingFloat parses as much of a numeric prefix as
// strconv.ParseFloat can accept, JS parseFloat's "read until it stops
// looking like a number" behavior rather than requiring the whole
// string to parse.
func parseLeadingFloat(s string) float64 {
	s = strings.TrimSpace(s)
	end := len(s)
	for end > 0 {
		if _, err := strconv.ParseFloat(s[:end], 64); err == nil {
			f, _ := strconv.ParseFloat(s[:end], 64)
			return f
		}
		end--
	}
	return math.NaN()
}

func (r *Registry) installBoolean(v *vm.VM) {
	r.globals["Boolean"] = value.Builtin(value.BuiltinBoolean)
}
