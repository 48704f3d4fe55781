package builtins

import (
	"time"

	"mqjs/pkg/value"
	"mqjs/pkg/vm"
)

func nowMillis() int64 { return time.Now().UnixMilli() }

// installDate registers Date.now (spec §4.5.1, §9's resolved Open
// Question: Date.now returns a Float-kind Value, milliseconds since the
// Unix epoch). There is no Date instance type; this engine only needs
// the static clock reading.
func (r *Registry) installDate(v *vm.VM) {
	r.globals["Date"] = value.Builtin(value.BuiltinDate)
	r.dateStatics["now"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		return value.Float(float64(nowMillis())), nil
	})
}
