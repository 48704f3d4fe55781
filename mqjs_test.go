package mqjs_test

import (
	"testing"

	"mqjs"
	"mqjs/pkg/value"
	"mqjs/pkg/vm"
)

func TestEvalReturnsExpressionResult(t *testing.T) {
	e := mqjs.New(0)
	defer e.Destroy()

	result, errs := e.Eval("1 + 2 * 3;")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if result.ToFloat64() != 7 {
		t.Errorf("got %v, want 7", result)
	}
}

func TestEvalReportsCompileErrors(t *testing.T) {
	e := mqjs.New(0)
	defer e.Destroy()

	_, errs := e.Eval("var = ;")
	if len(errs) == 0 {
		t.Fatalf("expected compile errors for malformed source")
	}
}

// TestPersistentSessionSurvivesRepeatedEval verifies a closure created in
// one Eval call still resolves correctly after a later Eval call extends
// the same VM's function table (spec's repeated-eval contract).
func TestPersistentSessionSurvivesRepeatedEval(t *testing.T) {
	e := mqjs.New(0)
	defer e.Destroy()

	_, errs := e.Eval(`
		function makeCounter() {
			var n = 0;
			return function() { n = n + 1; return n; };
		}
		var counter = makeCounter();
	`)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	// A second, unrelated Eval call extends the function table; the
	// closure created above must still reference its own code correctly.
	_, errs = e.Eval(`function unrelated() { return 1; } unrelated();`)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors on second eval: %v", errs)
	}

	result, errs := e.Eval("counter();")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors calling stored closure: %v", errs)
	}
	if result.ToFloat64() != 1 {
		t.Errorf("counter() after a later Eval = %v, want 1", result)
	}

	result, errs = e.Eval("counter();")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if result.ToFloat64() != 2 {
		t.Errorf("counter() second call = %v, want 2", result)
	}
}

func TestGlobalsPersistAcrossEval(t *testing.T) {
	e := mqjs.New(0)
	defer e.Destroy()

	if _, errs := e.Eval("var total = 10;"); len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	result, errs := e.Eval("total = total + 5; total;")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if result.ToFloat64() != 15 {
		t.Errorf("got %v, want 15", result)
	}
}

func TestRegisterNativeCallableFromScript(t *testing.T) {
	e := mqjs.New(0)
	defer e.Destroy()

	e.RegisterNative("double", func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
		if len(args) == 0 {
			return value.Int31(0), nil
		}
		return vm.NumberValue(args[0].ToFloat64() * 2), nil
	})

	result, errs := e.Eval("double(21);")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if result.ToFloat64() != 42 {
		t.Errorf("got %v, want 42", result)
	}
}

func TestCompileToBytesAndLoadBytesRoundTrip(t *testing.T) {
	e := mqjs.New(0)
	defer e.Destroy()

	data, errs := e.CompileToBytes("21 + 21;")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	result, errs := e.LoadBytes(data)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors loading bytes: %v", errs)
	}
	if result.ToFloat64() != 42 {
		t.Errorf("got %v, want 42", result)
	}
}

func TestUncaughtThrowSurfacesAsRuntimeError(t *testing.T) {
	e := mqjs.New(0)
	defer e.Destroy()

	_, errs := e.Eval(`throw "boom";`)
	if len(errs) == 0 {
		t.Fatalf("expected an error for an uncaught throw")
	}
	if errs[0].Kind() != "Runtime" {
		t.Errorf("Kind() = %q, want Runtime", errs[0].Kind())
	}
}

func TestStatsReflectAllocations(t *testing.T) {
	e := mqjs.New(0)
	defer e.Destroy()

	if _, errs := e.Eval(`var arr = [1,2,3]; var obj = {a: 1};`); len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	stats := e.Stats()
	if stats.Arrays == 0 || stats.Objects == 0 {
		t.Errorf("expected nonzero array and object counts, got %+v", stats)
	}
}
