package bytecode_test

import (
	"testing"

	"mqjs/pkg/bytecode"
	"mqjs/pkg/compiler"
	"mqjs/pkg/heap"
	"mqjs/pkg/vm"
)

func TestEncodeDecodeRoundTripExecutes(t *testing.T) {
	program, errs := compiler.Compile(`
		function add(a, b) { return a + b; }
		add(19, 23);
	`)
	if len(errs) > 0 {
		t.Fatalf("compile error: %v", errs[0])
	}

	data, err := bytecode.Encode(program)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := bytecode.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	h := heap.New(0)
	m := vm.New(decoded, h)
	result, thrown := m.Run()
	if thrown != nil {
		t.Fatalf("uncaught throw after round trip: %s", m.ToDisplayString(thrown.Val))
	}
	if result.ToFloat64() != 42 {
		t.Errorf("decoded program result = %v, want 42", result.ToFloat64())
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := bytecode.Decode([]byte("XXXX\x01anything"))
	if err == nil {
		t.Fatalf("expected an error for a bad magic prefix")
	}
}

func TestDecodeRejectsShortInput(t *testing.T) {
	_, err := bytecode.Decode([]byte("MQ"))
	if err == nil {
		t.Fatalf("expected an error for input shorter than the header")
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	data := append([]byte("MQJS"), 0xFF)
	_, err := bytecode.Decode(data)
	if err == nil {
		t.Fatalf("expected an error for an unsupported version byte")
	}
}

func TestEncodeRoundTripsNestedFunctionReference(t *testing.T) {
	program, errs := compiler.Compile(`
		function outer() {
			function inner(x) { return x * 2; }
			return inner(21);
		}
		outer();
	`)
	if len(errs) > 0 {
		t.Fatalf("compile error: %v", errs[0])
	}

	data, err := bytecode.Encode(program)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := bytecode.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	h := heap.New(0)
	m := vm.New(decoded, h)
	result, thrown := m.Run()
	if thrown != nil {
		t.Fatalf("uncaught throw: %s", m.ToDisplayString(thrown.Val))
	}
	if result.ToFloat64() != 42 {
		t.Errorf("nested function result = %v, want 42", result.ToFloat64())
	}
}
