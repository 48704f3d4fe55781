package builtins_test

import (
	"testing"

	"mqjs/pkg/builtins"
	"mqjs/pkg/compiler"
	"mqjs/pkg/heap"
	"mqjs/pkg/value"
	"mqjs/pkg/vm"
)

func eval(t *testing.T, source string) (value.Value, *vm.VM) {
	t.Helper()
	program, errs := compiler.Compile(source)
	if len(errs) > 0 {
		t.Fatalf("compile error: %v", errs[0])
	}
	h := heap.New(0)
	m := vm.New(program, h)
	reg := builtins.New()
	reg.Install(m)
	m.Builtins = reg

	result, thrown := m.Run()
	if thrown != nil {
		t.Fatalf("uncaught throw: %s", m.ToDisplayString(thrown.Val))
	}
	return result, m
}

func TestArrayMethods(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`[1,2,3].map(function(x) { return x + 1; }).join(",");`, "2,3,4"},
		{`[1,2,3,4].filter(function(x) { return x % 2 === 0; }).join(",");`, "2,4"},
		{`[1,2,3].reduce(function(acc, x) { return acc + x; }, 0);`, "6"},
		{`[3,1,2].sort().join(",");`, "1,2,3"},
		{`[1,2,3].reverse().join(",");`, "3,2,1"},
		{`[1,2,3].indexOf(2);`, "1"},
		{`[1,2].concat([3,4]).join(",");`, "1,2,3,4"},
		{`var a = [1,2,3]; a.push(4); a.join(",");`, "1,2,3,4"},
		{`var a = [1,2,3]; a.pop(); a.join(",");`, "1,2"},
	}
	for _, tt := range tests {
		got, m := eval(t, tt.source)
		if m.ToDisplayString(got) != tt.want {
			t.Errorf("%q = %q, want %q", tt.source, m.ToDisplayString(got), tt.want)
		}
	}
}

func TestStringMethods(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`"hello".toUpperCase();`, "HELLO"},
		{`"HELLO".toLowerCase();`, "hello"},
		{`"  hi  ".trim();`, "hi"},
		{`"hello".slice(1, 3);`, "el"},
		{`"hello".charAt(1);`, "e"},
		{`"a,b,c".split(",").join("-");`, "a-b-c"},
		{`"hello world".replace("world", "there");`, "hello there"},
	}
	for _, tt := range tests {
		got, m := eval(t, tt.source)
		if m.ToDisplayString(got) != tt.want {
			t.Errorf("%q = %q, want %q", tt.source, m.ToDisplayString(got), tt.want)
		}
	}
}

func TestMathAndNumber(t *testing.T) {
	tests := []struct {
		source string
		want   float64
	}{
		{`Math.abs(-5);`, 5},
		{`Math.floor(3.7);`, 3},
		{`Math.max(1, 5, 3);`, 5},
		{`Math.min(1, 5, 3);`, 1},
		{`Number.parseFloat("3.14");`, 3.14},
	}
	for _, tt := range tests {
		got, _ := eval(t, tt.source)
		if got.ToFloat64() != tt.want {
			t.Errorf("%q = %v, want %v", tt.source, got.ToFloat64(), tt.want)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	got, m := eval(t, `JSON.stringify({a: 1, b: [2, 3]});`)
	want := `{"a":1,"b":[2,3]}`
	if m.ToDisplayString(got) != want {
		t.Errorf("JSON.stringify = %q, want %q", m.ToDisplayString(got), want)
	}

	got2, _ := eval(t, `JSON.parse('{"x": 5}').x;`)
	if got2.ToFloat64() != 5 {
		t.Errorf("JSON.parse round trip = %v, want 5", got2)
	}
}

func TestRegExpTestAndExec(t *testing.T) {
	got, _ := eval(t, `/[0-9]+/.test("abc123");`)
	if !got.AsBool() {
		t.Errorf("expected /[0-9]+/.test(\"abc123\") to be true")
	}

	got2, m := eval(t, `/(\w+)@(\w+)/.exec("user@host")[1];`)
	if m.ToDisplayString(got2) != "user" {
		t.Errorf("regex group 1 = %q, want user", m.ToDisplayString(got2))
	}
}

func TestErrorConstructors(t *testing.T) {
	got, m := eval(t, `
		var e = new TypeError("bad value");
		e.message;
	`)
	if m.ToDisplayString(got) != "bad value" {
		t.Errorf("error message = %q, want %q", m.ToDisplayString(got), "bad value")
	}
}

func TestObjectStatics(t *testing.T) {
	got, m := eval(t, `Object.keys({a: 1, b: 2}).join(",");`)
	if m.ToDisplayString(got) != "a,b" {
		t.Errorf("Object.keys = %q, want a,b", m.ToDisplayString(got))
	}
}
