package builtins

import (
	"sort"

	"mqjs/pkg/value"
	"mqjs/pkg/vm"
)

// installArray registers Array.prototype's method catalog (spec
// §4.5.1). Every method receives the array as `this`, the calling
// convention OpCallMethod already arranges, mirroring the teacher's
// arrayProto native functions but working directly against
// heap.ArrayData instead of a vm.ArrayObject wrapper.
func (r *Registry) installArray(v *vm.VM) {
	r.globals["Array"] = value.Builtin(value.BuiltinArray)

	r.arrayMethods["push"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		arr := m.Heap.Array(this)
		arr.Elements = append(arr.Elements, args...)
		return value.Int31(int32(len(arr.Elements))), nil
	})
	r.arrayMethods["pop"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		arr := m.Heap.Array(this)
		n := len(arr.Elements)
		if n == 0 {
			return value.Undefined, nil
		}
		last := arr.Elements[n-1]
		arr.Elements = arr.Elements[:n-1]
		return last, nil
	})
	r.arrayMethods["shift"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		arr := m.Heap.Array(this)
		if len(arr.Elements) == 0 {
			return value.Undefined, nil
		}
		first := arr.Elements[0]
		arr.Elements = arr.Elements[1:]
		return first, nil
	})
	r.arrayMethods["unshift"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		arr := m.Heap.Array(this)
		arr.Elements = append(append([]value.Value{}, args...), arr.Elements...)
		return value.Int31(int32(len(arr.Elements))), nil
	})
	r.arrayMethods["slice"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		arr := m.Heap.Array(this)
		n := len(arr.Elements)
		start := sliceIndex(m, argAt(args, 0), n, 0)
		end := sliceIndex(m, argAt(args, 1), n, n)
		if start >= end {
			return m.Heap.NewArray(nil), nil
		}
		out := make([]value.Value, end-start)
		copy(out, arr.Elements[start:end])
		return m.Heap.NewArray(out), nil
	})
	r.arrayMethods["splice"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		arr := m.Heap.Array(this)
		n := len(arr.Elements)
		start := sliceIndex(m, argAt(args, 0), n, 0)
		deleteCount := n - start
		if len(args) > 1 {
			dc := int(m.ToNumber(args[1]))
			if dc < 0 {
				dc = 0
			}
			if dc < deleteCount {
				deleteCount = dc
			}
		}
		removed := make([]value.Value, deleteCount)
		copy(removed, arr.Elements[start:start+deleteCount])
		var items []value.Value
		if len(args) > 2 {
			items = args[2:]
		}
		tail := append([]value.Value{}, arr.Elements[start+deleteCount:]...)
		arr.Elements = append(arr.Elements[:start], append(append([]value.Value{}, items...), tail...)...)
		return m.Heap.NewArray(removed), nil
	})
	r.arrayMethods["join"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		sep := ","
		if len(args) > 0 && !args[0].IsUndefined() {
			sep = m.ToDisplayString(args[0])
		}
		arr := m.Heap.Array(this)
		parts := make([]string, len(arr.Elements))
		for i, e := range arr.Elements {
			if e.IsNullOrUndefined() {
				parts[i] = ""
			} else {
				parts[i] = m.ToDisplayString(e)
			}
		}
		return m.Heap.NewString(joinStrings(parts, sep)), nil
	})
	r.arrayMethods["indexOf"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		arr := m.Heap.Array(this)
		target := argAt(args, 0)
		for i, e := range arr.Elements {
			if m.StrictEqual(e, target) {
				return value.Int31(int32(i)), nil
			}
		}
		return value.Int31(-1), nil
	})
	r.arrayMethods["concat"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		out := append([]value.Value{}, m.Heap.Array(this).Elements...)
		for _, a := range args {
			if a.Kind() == value.KindArray {
				out = append(out, m.Heap.Array(a).Elements...)
			} else {
				out = append(out, a)
			}
		}
		return m.Heap.NewArray(out), nil
	})
	r.arrayMethods["reverse"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		arr := m.Heap.Array(this)
		for i, j := 0, len(arr.Elements)-1; i < j; i, j = i+1, j-1 {
			arr.Elements[i], arr.Elements[j] = arr.Elements[j], arr.Elements[i]
		}
		return this, nil
	})
	r.arrayMethods["sort"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		arr := m.Heap.Array(this)
		cmp := argAt(args, 0)
		var thrown *vm.ThrownValue
		if cmp.IsCallable() {
			sort.SliceStable(arr.Elements, func(i, j int) bool {
				if thrown != nil {
					return false
				}
				result, tv := m.Call(cmp, value.Undefined, []value.Value{arr.Elements[i], arr.Elements[j]})
				if tv != nil {
					thrown = tv
					return false
				}
				return m.ToNumber(result) < 0
			})
		} else {
			sort.SliceStable(arr.Elements, func(i, j int) bool {
				return m.ToDisplayString(arr.Elements[i]) < m.ToDisplayString(arr.Elements[j])
			})
		}
		if thrown != nil {
			return value.Undefined, thrown
		}
		return this, nil
	})
	r.arrayMethods["forEach"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		callback := argAt(args, 0)
		if !callback.IsCallable() {
			return value.Undefined, newThrow(m, "TypeError", m.ToDisplayString(callback)+" is not a function")
		}
		for i, e := range m.Heap.Array(this).Elements {
			if _, tv := m.Call(callback, value.Undefined, []value.Value{e, value.Int31(int32(i)), this}); tv != nil {
				return value.Undefined, tv
			}
		}
		return value.Undefined, nil
	})
	r.arrayMethods["map"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		callback := argAt(args, 0)
		if !callback.IsCallable() {
			return value.Undefined, newThrow(m, "TypeError", m.ToDisplayString(callback)+" is not a function")
		}
		src := m.Heap.Array(this).Elements
		out := make([]value.Value, len(src))
		for i, e := range src {
			res, tv := m.Call(callback, value.Undefined, []value.Value{e, value.Int31(int32(i)), this})
			if tv != nil {
				return value.Undefined, tv
			}
			out[i] = res
		}
		return m.Heap.NewArray(out), nil
	})
	r.arrayMethods["filter"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		callback := argAt(args, 0)
		if !callback.IsCallable() {
			return value.Undefined, newThrow(m, "TypeError", m.ToDisplayString(callback)+" is not a function")
		}
		var out []value.Value
		for i, e := range m.Heap.Array(this).Elements {
			keep, tv := m.Call(callback, value.Undefined, []value.Value{e, value.Int31(int32(i)), this})
			if tv != nil {
				return value.Undefined, tv
			}
			if m.Truthy(keep) {
				out = append(out, e)
			}
		}
		return m.Heap.NewArray(out), nil
	})
	r.arrayMethods["reduce"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		callback := argAt(args, 0)
		if !callback.IsCallable() {
			return value.Undefined, newThrow(m, "TypeError", m.ToDisplayString(callback)+" is not a function")
		}
		src := m.Heap.Array(this).Elements
		i := 0
		var acc value.Value
		if len(args) > 1 {
			acc = args[1]
		} else {
			if len(src) == 0 {
				return value.Undefined, newThrow(m, "TypeError", "reduce of empty array with no initial value")
			}
			acc = src[0]
			i = 1
		}
		for ; i < len(src); i++ {
			r, tv := m.Call(callback, value.Undefined, []value.Value{acc, src[i], value.Int31(int32(i)), this})
			if tv != nil {
				return value.Undefined, tv
			}
			acc = r
		}
		return acc, nil
	})
}

// sliceIndex resolves a JS slice/splice start-or-end argument: negative
// counts back from length, and the result is clamped into [0, n].
func sliceIndex(m *vm.VM, v value.Value, n, def int) int {
	if v.IsUndefined() {
		return def
	}
	i := int(m.ToNumber(v))
	if i < 0 {
		i += n
	}
	if i < 0 {
		i = 0
	}
	if i > n {
		i = n
	}
	return i
}

func joinStrings(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}
