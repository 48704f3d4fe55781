package compiler_test

import (
	"testing"

	"mqjs/pkg/builtins"
	"mqjs/pkg/compiler"
	"mqjs/pkg/heap"
	"mqjs/pkg/value"
	"mqjs/pkg/vm"
)

// run compiles and executes source against a fresh VM with the full
// builtin catalog installed, failing the test on any compile or runtime
// error.
func run(t *testing.T, source string) value.Value {
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
	return result
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		source string
		want   float64
	}{
		{"1 + 2;", 3},
		{"10 - 4 * 2;", 2},
		{"(2 + 3) * 4;", 20},
		{"7 % 3;", 1},
		{"2 ** 10;", 1024},
	}
	for _, tt := range tests {
		got := run(t, tt.source)
		if !got.IsNumber() || got.ToFloat64() != tt.want {
			t.Errorf("%q = %v, want %v", tt.source, got, tt.want)
		}
	}
}

func TestIntegerOverflowPromotesToFloat(t *testing.T) {
	got := run(t, "2147483647 + 1;")
	if !got.IsFloat() {
		t.Fatalf("overflowing Int31 arithmetic should promote to Float, got Kind %v", got.Kind())
	}
	if got.AsFloat64() != 2147483648.0 {
		t.Errorf("got %v, want 2147483648", got.AsFloat64())
	}
}

func TestVariablesAndAssignment(t *testing.T) {
	got := run(t, `
		var x = 1;
		x = x + 41;
		x;
	`)
	if got.ToFloat64() != 42 {
		t.Errorf("got %v, want 42", got)
	}
}

func TestIfElse(t *testing.T) {
	got := run(t, `
		var x = 5;
		var result;
		if (x > 3) { result = "big"; } else { result = "small"; }
		result;
	`)
	if got.Kind() != value.KindString {
		t.Fatalf("expected a string result, got %v", got.Kind())
	}
}

func TestWhileLoop(t *testing.T) {
	got := run(t, `
		var i = 0;
		var sum = 0;
		while (i < 5) {
			sum = sum + i;
			i = i + 1;
		}
		sum;
	`)
	if got.ToFloat64() != 10 {
		t.Errorf("got %v, want 10", got)
	}
}

func TestForLoopBreakContinue(t *testing.T) {
	got := run(t, `
		var sum = 0;
		for (var i = 0; i < 10; i = i + 1) {
			if (i === 5) { break; }
			if (i % 2 === 0) { continue; }
			sum = sum + i;
		}
		sum;
	`)
	if got.ToFloat64() != 4 {
		t.Errorf("got %v, want 4 (1 + 3)", got)
	}
}

func TestFunctionsAndClosures(t *testing.T) {
	got := run(t, `
		function makeCounter() {
			var count = 0;
			return function() {
				count = count + 1;
				return count;
			};
		}
		var counter = makeCounter();
		counter();
		counter();
		counter();
	`)
	if got.ToFloat64() != 3 {
		t.Errorf("closure counter got %v, want 3", got)
	}
}

func TestRecursion(t *testing.T) {
	got := run(t, `
		function fib(n) {
			if (n < 2) { return n; }
			return fib(n - 1) + fib(n - 2);
		}
		fib(10);
	`)
	if got.ToFloat64() != 55 {
		t.Errorf("fib(10) = %v, want 55", got)
	}
}

func TestMutuallyRecursiveFunctionDeclarationsAreHoisted(t *testing.T) {
	got := run(t, `
		function isEven(n) {
			if (n === 0) { return true; }
			return isOdd(n - 1);
		}
		function isOdd(n) {
			if (n === 0) { return false; }
			return isEven(n - 1);
		}
		isEven(10);
	`)
	if got.Kind() != value.KindBool {
		t.Fatalf("expected a bool, got %v", got.Kind())
	}
	if !got.AsBool() {
		t.Errorf("isEven(10) = %v, want true", got.AsBool())
	}
}

func TestTryCatchFinally(t *testing.T) {
	program, errs := compiler.Compile(`
		var log = "";
		try {
			throw "boom";
		} catch (e) {
			log = log + "caught:" + e;
		} finally {
			log = log + ":done";
		}
		log;
	`)
	if len(errs) > 0 {
		t.Fatalf("compile error: %v", errs[0])
	}
	h := heap.New(0)
	m := vm.New(program, h)
	reg := builtins.New()
	reg.Install(m)
	m.Builtins = reg

	got, thrown := m.Run()
	if thrown != nil {
		t.Fatalf("uncaught throw: %s", m.ToDisplayString(thrown.Val))
	}
	want := "caught:boom:done"
	if got.Kind() != value.KindString {
		t.Fatalf("expected a string, got %v", got.Kind())
	}
	if s := m.ToDisplayString(got); s != want {
		t.Errorf("got %q, want %q", s, want)
	}
}

func TestTryFinallyRunsOnNormalCompletion(t *testing.T) {
	program, errs := compiler.Compile(`
		var log = "";
		try {
			log = log + "try";
		} finally {
			log = log + ":finally";
		}
		log;
	`)
	if len(errs) > 0 {
		t.Fatalf("compile error: %v", errs[0])
	}
	h := heap.New(0)
	m := vm.New(program, h)
	reg := builtins.New()
	reg.Install(m)
	m.Builtins = reg

	got, thrown := m.Run()
	if thrown != nil {
		t.Fatalf("uncaught throw: %s", m.ToDisplayString(thrown.Val))
	}
	if s := m.ToDisplayString(got); s != "try:finally" {
		t.Errorf("got %q, want %q", s, "try:finally")
	}
}

func TestTryFinallyRerunsAndRethrowsOnException(t *testing.T) {
	program, errs := compiler.Compile(`
		var log = "";
		try {
			try {
				throw "boom";
			} finally {
				log = log + "finally";
			}
		} catch (e) {
			log = log + ":caught:" + e;
		}
		log;
	`)
	if len(errs) > 0 {
		t.Fatalf("compile error: %v", errs[0])
	}
	h := heap.New(0)
	m := vm.New(program, h)
	reg := builtins.New()
	reg.Install(m)
	m.Builtins = reg

	got, thrown := m.Run()
	if thrown != nil {
		t.Fatalf("uncaught throw: %s", m.ToDisplayString(thrown.Val))
	}
	if s := m.ToDisplayString(got); s != "finally:caught:boom" {
		t.Errorf("got %q, want %q", s, "finally:caught:boom")
	}
}

func TestObjectAndArrayLiterals(t *testing.T) {
	got := run(t, `
		var obj = { a: 1, b: 2 };
		var arr = [1, 2, 3];
		obj.a + arr[2];
	`)
	if got.ToFloat64() != 4 {
		t.Errorf("got %v, want 4", got)
	}
}

func TestCompileErrorAccumulation(t *testing.T) {
	_, errs := compiler.Compile(`
		var = ;
		break;
	`)
	if len(errs) == 0 {
		t.Fatalf("expected compile errors for malformed source")
	}
}
