package value

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Int31(5), "number"},
		{Float(1.5), "number"},
		{Undefined, "undefined"},
		{Null, "object"},
		{True, "boolean"},
		{StringRef(0), "string"},
		{ClosureRef(0), "function"},
		{NativeFuncRef(0), "function"},
		{ObjectRef(0), "object"},
	}
	for _, tt := range tests {
		if got := tt.v.TypeOf(); got != tt.want {
			t.Errorf("TypeOf(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestInt31RoundTrip(t *testing.T) {
	v := Int31(-42)
	if !v.IsInt() || v.IsFloat() {
		t.Fatalf("expected Int31 kind")
	}
	if got := v.AsInt32(); got != -42 {
		t.Errorf("AsInt32() = %d, want -42", got)
	}
	if got := v.ToFloat64(); got != -42.0 {
		t.Errorf("ToFloat64() = %v, want -42.0", got)
	}
}

func TestFloatRoundTrip(t *testing.T) {
	v := Float(3.25)
	if !v.IsFloat() || v.IsInt() {
		t.Fatalf("expected Float kind")
	}
	if got := v.AsFloat64(); got != 3.25 {
		t.Errorf("AsFloat64() = %v, want 3.25", got)
	}
}

func TestBoolSingletons(t *testing.T) {
	if !Bool(true).AsBool() {
		t.Errorf("Bool(true) should be truthy")
	}
	if Bool(false).AsBool() {
		t.Errorf("Bool(false) should be falsy")
	}
	if !RawEqual(Bool(true), True) {
		t.Errorf("Bool(true) should equal the True singleton")
	}
}

func TestRawEqualDistinguishesKindAndPayload(t *testing.T) {
	if RawEqual(StringRef(1), StringRef(2)) {
		t.Errorf("different indices should not be RawEqual")
	}
	if RawEqual(StringRef(1), ObjectRef(1)) {
		t.Errorf("same index but different kind should not be RawEqual")
	}
	if !RawEqual(Int31(7), Int31(7)) {
		t.Errorf("identical Int31 values should be RawEqual")
	}
}

func TestIsCallable(t *testing.T) {
	callable := []Value{ClosureRef(0), BytecodeFuncRef(0), NativeFuncRef(0)}
	for _, v := range callable {
		if !v.IsCallable() {
			t.Errorf("%v should be callable", v)
		}
	}
	notCallable := []Value{Undefined, Null, Int31(1), StringRef(0)}
	for _, v := range notCallable {
		if v.IsCallable() {
			t.Errorf("%v should not be callable", v)
		}
	}
}

func TestBuiltinTagName(t *testing.T) {
	if got := Builtin(BuiltinMath).AsBuiltin().String(); got != "Math" {
		t.Errorf("BuiltinMath.String() = %q, want Math", got)
	}
	if got := BuiltinTypeError.ErrorTaxonomyName(); got != "TypeError" {
		t.Errorf("BuiltinTypeError.ErrorTaxonomyName() = %q, want TypeError", got)
	}
	if got := BuiltinMath.ErrorTaxonomyName(); got != "" {
		t.Errorf("BuiltinMath.ErrorTaxonomyName() = %q, want empty", got)
	}
}

func TestIsNullOrUndefined(t *testing.T) {
	if !Undefined.IsNullOrUndefined() || !Null.IsNullOrUndefined() {
		t.Fatalf("Undefined and Null should both report IsNullOrUndefined")
	}
	if Int31(0).IsNullOrUndefined() {
		t.Errorf("Int31(0) should not be null-or-undefined")
	}
}
