package builtins

import (
	"math"
	"strings"

	"mqjs/pkg/value"
	"mqjs/pkg/vm"
)

// installString registers String.prototype's method catalog (spec
// §4.5.1). length is handled directly by vm.getField for KindString
// (own-data, not a builtin), matching how array length works.
func (r *Registry) installString(v *vm.VM) {
	r.globals["String"] = value.Builtin(value.BuiltinString)

	r.stringMethods["charAt"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		r := []rune(m.Heap.String(this))
		i := int(m.ToNumber(argAt(args, 0)))
		if i < 0 || i >= len(r) {
			return m.Heap.NewString(""), nil
		}
		return m.Heap.NewString(string(r[i])), nil
	})
	r.stringMethods["charCodeAt"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		r := []rune(m.Heap.String(this))
		i := int(m.ToNumber(argAt(args, 0)))
		if i < 0 || i >= len(r) {
			return value.Float(math.NaN()), nil
		}
		return value.Int31(int32(r[i])), nil
	})
	r.stringMethods["indexOf"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		s := m.Heap.String(this)
		needle := m.ToDisplayString(argAt(args, 0))
		return value.Int31(int32(strings.Index(s, needle))), nil
	})
	r.stringMethods["slice"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		s := []rune(m.Heap.String(this))
		n := len(s)
		start := sliceIndex(m, argAt(args, 0), n, 0)
		end := sliceIndex(m, argAt(args, 1), n, n)
		if start >= end {
			return m.Heap.NewString(""), nil
		}
		return m.Heap.NewString(string(s[start:end])), nil
	})
	r.stringMethods["substring"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		s := []rune(m.Heap.String(this))
		n := len(s)
		start := clampIndex(int(m.ToNumber(argAt(args, 0))), n)
		end := n
		if len(args) > 1 && !args[1].IsUndefined() {
			end = clampIndex(int(m.ToNumber(args[1])), n)
		}
		if start > end {
			start, end = end, start
		}
		return m.Heap.NewString(string(s[start:end])), nil
	})
	r.stringMethods["split"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		s := m.Heap.String(this)
		if len(args) == 0 || args[0].IsUndefined() {
			return m.Heap.NewArray([]value.Value{m.Heap.NewString(s)}), nil
		}
		sep := m.ToDisplayString(args[0])
		var parts []string
		if sep == "" {
			for _, ch := range s {
				parts = append(parts, string(ch))
			}
		} else {
			parts = strings.Split(s, sep)
		}
		elems := make([]value.Value, len(parts))
		for i, p := range parts {
			elems[i] = m.Heap.NewString(p)
		}
		return m.Heap.NewArray(elems), nil
	})
	r.stringMethods["toUpperCase"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		return m.Heap.NewString(strings.ToUpper(m.Heap.String(this))), nil
	})
	r.stringMethods["toLowerCase"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		return m.Heap.NewString(strings.ToLower(m.Heap.String(this))), nil
	})
	r.stringMethods["trim"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		return m.Heap.NewString(strings.TrimSpace(m.Heap.String(this))), nil
	})
	r.stringMethods["replace"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		s := m.Heap.String(this)
		pattern := argAt(args, 0)
		replacement := m.ToDisplayString(argAt(args, 1))
		if pattern.Kind() == value.KindRegExp {
			rd := m.Heap.RegExp(pattern)
			matcher, ok := rd.Matcher.(CompiledMatcher)
			if !ok {
				return m.Heap.NewString(s), nil
			}
			result, matched := matcher.Find(s, 0)
			if !matched {
				return m.Heap.NewString(s), nil
			}
			out := s[:result.Start] + expandReplacement(replacement, result) + s[result.End:]
			return m.Heap.NewString(out), nil
		}
		needle := m.ToDisplayString(pattern)
		return m.Heap.NewString(strings.Replace(s, needle, replacement, 1)), nil
	})
}

// expandReplacement handles $& (whole match) and $1-$9 (capture group)
// substitution patterns, a trimmed-down version of the $-syntax the
// teacher's regexp_init.go processReplacementPattern implements.
func expandReplacement(tmpl string, m MatchResult) string {
	var out strings.Builder
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] == '$' && i+1 < len(tmpl) {
			switch {
			case tmpl[i+1] == '$':
				out.WriteByte('$')
				i++
				continue
			case tmpl[i+1] == '&':
				out.WriteString(m.Groups[0])
				i++
				continue
			case tmpl[i+1] >= '1' && tmpl[i+1] <= '9':
				n := int(tmpl[i+1] - '0')
				if n < len(m.Groups) {
					out.WriteString(m.Groups[n])
				}
				i++
				continue
			}
		}
		out.WriteByte(tmpl[i])
	}
	return out.String()
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
