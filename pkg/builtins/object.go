package builtins

import (
	"mqjs/pkg/value"
	"mqjs/pkg/vm"
)

// installObject registers Object.keys/values/assign/freeze (spec
// §4.5.1). There is no Object.prototype surface since objects don't
// walk a prototype chain in this engine; every own-property lookup is
// handled directly by heap.ObjectData.
func (r *Registry) installObject(v *vm.VM) {
	r.globals["Object"] = value.Builtin(value.BuiltinObject)

	r.objectStatics["keys"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		obj := argAt(args, 0)
		if obj.Kind() != value.KindObject {
			return m.Heap.NewArray(nil), nil
		}
		names := m.Heap.Object(obj).Keys()
		elems := make([]value.Value, len(names))
		for i, n := range names {
			elems[i] = m.Heap.NewString(n)
		}
		return m.Heap.NewArray(elems), nil
	})
	r.objectStatics["values"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		obj := argAt(args, 0)
		if obj.Kind() != value.KindObject {
			return m.Heap.NewArray(nil), nil
		}
		props := m.Heap.Object(obj).Props
		elems := make([]value.Value, len(props))
		for i, p := range props {
			elems[i] = p.Value
		}
		return m.Heap.NewArray(elems), nil
	})
	r.objectStatics["assign"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		target := argAt(args, 0)
		if target.Kind() != value.KindObject {
			return target, nil
		}
		dst := m.Heap.Object(target)
		if len(args) > 1 {
			for _, src := range args[1:] {
				if src.Kind() != value.KindObject {
					continue
				}
				for _, p := range m.Heap.Object(src).Props {
					dst.Set(p.Name, p.Value)
				}
			}
		}
		return target, nil
	})
	r.objectStatics["freeze"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		obj := argAt(args, 0)
		if obj.Kind() == value.KindObject {
			m.Heap.Object(obj).Frozen = true
		}
		return obj, nil
	})
}
