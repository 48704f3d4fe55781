package builtins

import (
	"strings"

	"github.com/dlclark/regexp2"

	"mqjs/pkg/value"
	"mqjs/pkg/vm"
)

// MatchResult is one successful match: byte offsets into the searched
// string plus each capture group's text (Groups[0] is the whole match).
// An unmatched optional group reports an empty string, so a caller can't
// distinguish "matched empty" from "did not participate" - an accepted
// simplification for a minimalist engine (spec §4.5.2).
type MatchResult struct {
	Start, End int
	Groups     []string
}

// CompiledMatcher is the interface heap.RegExpData.Matcher values
// satisfy once compiled by installRegexp's Matcher implementation.
type CompiledMatcher interface {
	Find(s string, start int) (MatchResult, bool)
}

type regexp2Matcher struct {
	re *regexp2.Regexp
}

// compileRegex implements vm.BuiltinResolver.CompileRegex, backed by
// dlclark/regexp2 rather than the standard library's RE2 engine because
// it supports the backreferences and lookaround JS regex literals allow
// (spec §4.5.2's stated reason for choosing it).
func compileRegex(source, flags string) (any, error) {
	opts := regexp2.None
	if strings.Contains(flags, "i") {
		opts |= regexp2.IgnoreCase
	}
	if strings.Contains(flags, "m") {
		opts |= regexp2.Multiline
	}
	if strings.Contains(flags, "s") {
		opts |= regexp2.Singleline
	}
	re, err := regexp2.Compile(source, opts)
	if err != nil {
		return nil, err
	}
	return &regexp2Matcher{re: re}, nil
}

func (rm *regexp2Matcher) Find(s string, start int) (MatchResult, bool) {
	m, err := rm.re.FindStringMatchStartingAt(s, start)
	if err != nil || m == nil {
		return MatchResult{}, false
	}
	groups := m.Groups()
	texts := make([]string, len(groups))
	for i, g := range groups {
		texts[i] = g.String()
	}
	// regexp2 reports rune offsets; convert them to byte offsets.
	runes := []rune(s)
	byteStart := len(string(runes[:m.Index]))
	byteEnd := byteStart + len(string(runes[m.Index:m.Index+m.Length]))
	return MatchResult{Start: byteStart, End: byteEnd, Groups: texts}, true
}

// installRegexp registers the RegExp constructor and its
// test/exec instance methods (spec §4.5.1). new RegExp(source, flags)
// and RegExp(source, flags) behave identically, both building a
// compiled matcher through the same CompileRegex path OpPushRegex uses
// for literal expressions.
func (r *Registry) installRegexp(v *vm.VM) {
	ctor := r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		source := m.ToDisplayString(argAt(args, 0))
		flags := ""
		if len(args) > 1 && !args[1].IsUndefined() {
			flags = m.ToDisplayString(args[1])
		}
		matcher, err := compileRegex(source, flags)
		if err != nil {
			return value.Undefined, newThrow(m, "SyntaxError", "invalid regular expression: "+err.Error())
		}
		return m.Heap.NewRegExp(source, flags, matcher), nil
	})
	r.globals["RegExp"] = ctor

	r.regexpMethods["test"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		rd := m.Heap.RegExp(this)
		matcher, ok := rd.Matcher.(CompiledMatcher)
		if !ok {
			return value.False, nil
		}
		_, matched := matcher.Find(m.ToDisplayString(argAt(args, 0)), 0)
		return value.Bool(matched), nil
	})
	r.regexpMethods["exec"] = r.native(v, func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		rd := m.Heap.RegExp(this)
		matcher, ok := rd.Matcher.(CompiledMatcher)
		if !ok {
			return value.Null, nil
		}
		result, matched := matcher.Find(m.ToDisplayString(argAt(args, 0)), 0)
		if !matched {
			return value.Null, nil
		}
		elems := make([]value.Value, len(result.Groups))
		for i, g := range result.Groups {
			elems[i] = m.Heap.NewString(g)
		}
		return m.Heap.NewArray(elems), nil
	})
}

// CompileRegex implements vm.BuiltinResolver.CompileRegex.
func (r *Registry) CompileRegex(source, flags string) (any, error) {
	return compileRegex(source, flags)
}
