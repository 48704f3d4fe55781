package builtins

import (
	"mqjs/pkg/value"
	"mqjs/pkg/vm"
)

// installErrors registers the Error/TypeError/RangeError/
// ReferenceError/SyntaxError constructors (spec §7.1's error taxonomy)
// as callable native functions: `new TypeError("msg")` and
// `TypeError("msg")` both build an ErrorObject Value directly rather
// than mutating `this`, since ErrorObject is its own Kind rather than a
// KindObject wearing an Error shape.
func (r *Registry) installErrors(v *vm.VM) {
	taxonomy := []struct {
		global string
		name   string
	}{
		{"Error", "Error"},
		{"TypeError", "TypeError"},
		{"RangeError", "RangeError"},
		{"ReferenceError", "ReferenceError"},
		{"SyntaxError", "SyntaxError"},
	}
	for _, t := range taxonomy {
		name := t.name
		r.globals[t.global] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
			msg := ""
			if len(args) > 0 && !args[0].IsUndefined() {
				msg = m.ToDisplayString(args[0])
			}
			return m.Heap.NewErrorObject(name, msg), nil
		})
	}

	r.errorGetters["toString"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		return m.Heap.NewString(m.ToDisplayString(this)), nil
	})
}
