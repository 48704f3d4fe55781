package builtins

import (
	"encoding/json"

	"mqjs/pkg/value"
	"mqjs/pkg/vm"
)

// installJSON registers JSON.stringify/parse over own-properties only,
// as spec §4.5.1 requires (no toJSON hooks, no replacer/reviver
// arguments), grounded on the teacher's json_init.go which walks the
// same runtime Value representation to build a Go tree before handing
// it to encoding/json.
func (r *Registry) installJSON(v *vm.VM) {
	r.globals["JSON"] = value.Builtin(value.BuiltinJSON)

	r.jsonMethods()["stringify"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		goVal := toGoValue(m, argAt(args, 0))
		b, err := json.Marshal(goVal)
		if err != nil {
			return value.Undefined, newThrow(m, "TypeError", "JSON.stringify: "+err.Error())
		}
		return m.Heap.NewString(string(b)), nil
	})
	r.jsonMethods()["parse"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		src := m.ToDisplayString(argAt(args, 0))
		var goVal any
		if err := json.Unmarshal([]byte(src), &goVal); err != nil {
			return value.Undefined, newThrow(m, "SyntaxError", "JSON.parse: "+err.Error())
		}
		return fromGoValue(m, goVal), nil
	})
}

// jsonMethods returns the JSON method map held in Registry.jsonProps,
// creating it on first use rather than in New.
func (r *Registry) jsonMethods() map[string]value.Value {
	if r.jsonProps == nil {
		r.jsonProps = make(map[string]value.Value)
	}
	return r.jsonProps
}

func toGoValue(m *vm.VM, v value.Value) any {
	switch v.Kind() {
	case value.KindBool:
		return v.AsBool()
	case value.KindInt31:
		return float64(v.AsInt32())
	case value.KindFloat:
		return v.AsFloat64()
	case value.KindString:
		return m.Heap.String(v)
	case value.KindArray:
		arr := m.Heap.Array(v)
		out := make([]any, len(arr.Elements))
		for i, e := range arr.Elements {
			out[i] = toGoValue(m, e)
		}
		return out
	case value.KindObject:
		obj := m.Heap.Object(v)
		out := make(map[string]any, len(obj.Props))
		for _, p := range obj.Props {
			out[p.Name] = toGoValue(m, p.Value)
		}
		return out
	default:
		return nil
	}
}

func fromGoValue(m *vm.VM, x any) value.Value {
	switch t := x.(type) {
	case nil:
		return value.Null
	case bool:
		return value.Bool(t)
	case float64:
		return vm.NumberValue(t)
	case string:
		return m.Heap.NewString(t)
	case []any:
		elems := make([]value.Value, len(t))
		for i, e := range t {
			elems[i] = fromGoValue(m, e)
		}
		return m.Heap.NewArray(elems)
	case map[string]any:
		objVal := m.Heap.NewObject(value.Undefined, false)
		obj := m.Heap.Object(objVal)
		for k, e := range t {
			obj.Set(k, fromGoValue(m, e))
		}
		return objVal
	default:
		return value.Undefined
	}
}
