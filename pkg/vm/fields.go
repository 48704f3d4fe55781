package vm

import (
	"strconv"

	"mqjs/pkg/value"
)

// parseIndex reports whether s is a canonical non-negative integer index
// ("0", "1", "23", never "01" or "-1"), the form array element names
// take (spec §3.2).
func parseIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	if s == "0" {
		return 0, true
	}
	if s[0] < '1' || s[0] > '9' {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// getField implements property read for OpGetField/OpGetFieldKeepBase/
// OpGetElem: own-data first (object properties, array elements/length,
// string characters/length, error fields), then a fall-through to the
// kind-keyed builtin table (spec §4.3.5).
func (m *VM) getField(base value.Value, name string) (value.Value, *ThrownValue) {
	if base.IsNullOrUndefined() {
		return value.Undefined, m.throwTypeError("cannot read properties of " + m.ToDisplayString(base) + " (reading '" + name + "')")
	}
	switch base.Kind() {
	case value.KindObject:
		if v, ok := m.Heap.Object(base).Get(name); ok {
			return v, nil
		}
	case value.KindArray:
		arr := m.Heap.Array(base)
		if name == "length" {
			return value.Int31(int32(len(arr.Elements))), nil
		}
		if i, ok := parseIndex(name); ok {
			return arr.Get(i), nil
		}
	case value.KindString:
		r := []rune(m.Heap.String(base))
		if name == "length" {
			return value.Int31(int32(len(r))), nil
		}
		if i, ok := parseIndex(name); ok {
			if i < len(r) {
				return m.Heap.NewString(string(r[i])), nil
			}
			return value.Undefined, nil
		}
	case value.KindErrorObject:
		ed := m.Heap.ErrorObject(base)
		switch name {
		case "message":
			return m.Heap.NewString(ed.Message), nil
		case "name":
			return m.Heap.NewString(ed.Name), nil
		}
	case value.KindClosure:
		if name == "length" {
			cd := m.Heap.Closure(base)
			return value.Int31(int32(m.Program.Functions[cd.FuncIndex].Arity)), nil
		}
		if name == "name" {
			cd := m.Heap.Closure(base)
			return m.Heap.NewString(m.Program.Functions[cd.FuncIndex].Name), nil
		}
	}
	if m.Builtins != nil {
		if v, ok := m.Builtins.Resolve(m, base, name); ok {
			return v, nil
		}
	}
	return value.Undefined, nil
}

// setField implements OpSetField/OpSetElem. Assigning to a property a
// primitive or callable cannot hold (spec §3.2's fixed set of writable
// kinds: Object and Array) is a silent no-op, matching non-strict JS.
func (m *VM) setField(base value.Value, name string, v value.Value) *ThrownValue {
	if base.IsNullOrUndefined() {
		return m.throwTypeError("cannot set properties of " + m.ToDisplayString(base) + " (setting '" + name + "')")
	}
	switch base.Kind() {
	case value.KindObject:
		m.Heap.Object(base).Set(name, v)
	case value.KindArray:
		arr := m.Heap.Array(base)
		if name == "length" {
			n := int(m.ToNumber(v))
			if n < 0 {
				return m.throwRangeError("invalid array length")
			}
			switch {
			case n < len(arr.Elements):
				arr.Elements = arr.Elements[:n]
			case n > len(arr.Elements):
				arr.Set(n-1, value.Undefined)
			}
			return nil
		}
		if i, ok := parseIndex(name); ok {
			arr.Set(i, v)
		}
	}
	return nil
}

// deleteField implements OpDeleteField/OpDeleteElem.
func (m *VM) deleteField(base value.Value, name string) value.Value {
	switch base.Kind() {
	case value.KindObject:
		m.Heap.Object(base).Delete(name)
	case value.KindArray:
		if i, ok := parseIndex(name); ok {
			arr := m.Heap.Array(base)
			if i >= 0 && i < len(arr.Elements) {
				arr.Elements[i] = value.Undefined
			}
		}
	}
	return value.True
}

// opIn implements the `in` operator (spec §4.3.2).
func (m *VM) opIn(key, obj value.Value) (value.Value, *ThrownValue) {
	name := m.ToDisplayString(key)
	switch obj.Kind() {
	case value.KindObject:
		_, ok := m.Heap.Object(obj).Get(name)
		return value.Bool(ok), nil
	case value.KindArray:
		arr := m.Heap.Array(obj)
		if name == "length" {
			return value.True, nil
		}
		i, ok := parseIndex(name)
		return value.Bool(ok && i < len(arr.Elements)), nil
	default:
		return value.Undefined, m.throwTypeError("cannot use 'in' operator on non-object")
	}
}

// instanceOf implements `instanceof` against the constructor a
// CallConstructor recorded on the produced object (spec §4.3.2; there is
// no prototype chain to walk, so this is a single Ctor-reference
// comparison).
func (m *VM) instanceOf(val, ctor value.Value) (value.Value, *ThrownValue) {
	if !ctor.IsCallable() {
		return value.Undefined, m.throwTypeError("right-hand side of 'instanceof' is not callable")
	}
	if val.Kind() != value.KindObject {
		return value.False, nil
	}
	obj := m.Heap.Object(val)
	if !obj.HasCtor {
		return value.False, nil
	}
	return value.Bool(value.RawEqual(obj.Ctor, ctor)), nil
}
