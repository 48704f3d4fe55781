package vm_test

import (
	"testing"

	"mqjs/pkg/builtins"
	"mqjs/pkg/compiler"
	"mqjs/pkg/heap"
	"mqjs/pkg/value"
	"mqjs/pkg/vm"
)

func newSession(t *testing.T, budget int64) (*vm.VM, *heap.Heap) {
	t.Helper()
	h := heap.New(budget)
	m := vm.New(&vm.Program{}, h)
	reg := builtins.New()
	reg.Install(m)
	m.Builtins = reg
	return m, h
}

func runOn(t *testing.T, m *vm.VM, source string) value.Value {
	t.Helper()
	program, errs := compiler.Compile(source)
	if len(errs) > 0 {
		t.Fatalf("compile error: %v", errs[0])
	}
	m.Program = program
	result, thrown := m.Run()
	if thrown != nil {
		t.Fatalf("uncaught throw: %s", m.ToDisplayString(thrown.Val))
	}
	return result
}

func TestGCSurvivesLiveArraysAndObjects(t *testing.T) {
	// Budget small enough that building the arrays below forces at least
	// one collection while still-live values must survive it.
	m, _ := newSession(t, 200)
	got := runOn(t, m, `
		var keep = [];
		for (var i = 0; i < 50; i = i + 1) {
			keep.push(i);
			var throwaway = [i, i, i];
		}
		keep.length;
	`)
	if got.ToFloat64() != 50 {
		t.Errorf("array survived GC with wrong length: got %v, want 50", got)
	}
}

func TestGCRewritesClosureCaptures(t *testing.T) {
	m, _ := newSession(t, 100)
	got := runOn(t, m, `
		function makeAdder(n) {
			return function(x) { return x + n; };
		}
		var add10 = makeAdder(10);
		var junk = [];
		for (var i = 0; i < 30; i = i + 1) {
			junk.push([i, i]);
		}
		add10(5);
	`)
	if got.ToFloat64() != 15 {
		t.Errorf("closure capture corrupted across GC: got %v, want 15", got)
	}
}

func TestUncaughtThrowFromNestedCall(t *testing.T) {
	m, _ := newSession(t, 0)
	program, errs := compiler.Compile(`
		function inner() { throw "bad"; }
		function outer() { inner(); }
		outer();
	`)
	if len(errs) > 0 {
		t.Fatalf("compile error: %v", errs[0])
	}
	m.Program = program
	_, thrown := m.Run()
	if thrown == nil {
		t.Fatalf("expected an uncaught throw")
	}
	if m.ToDisplayString(thrown.Val) != "bad" {
		t.Errorf("thrown value = %q, want %q", m.ToDisplayString(thrown.Val), "bad")
	}
}

func TestCatchInsideDeepCallStack(t *testing.T) {
	m, _ := newSession(t, 0)
	got := runOn(t, m, `
		function level3() { throw "deep"; }
		function level2() { return level3(); }
		function level1() {
			try {
				return level2();
			} catch (e) {
				return "recovered:" + e;
			}
		}
		level1();
	`)
	if got.Kind() != value.KindString {
		t.Fatalf("expected string, got %v", got.Kind())
	}
	if m.ToDisplayString(got) != "recovered:deep" {
		t.Errorf("got %q, want recovered:deep", m.ToDisplayString(got))
	}
}

func TestCallDepthLimitThrowsRangeError(t *testing.T) {
	m, _ := newSession(t, 0)
	program, errs := compiler.Compile(`
		function recurse(n) { return recurse(n + 1); }
		recurse(0);
	`)
	if len(errs) > 0 {
		t.Fatalf("compile error: %v", errs[0])
	}
	m.Program = program
	_, thrown := m.Run()
	if thrown == nil {
		t.Fatalf("expected unbounded recursion to throw")
	}
	if !thrown.Val.IsErrorObject() {
		t.Errorf("expected an ErrorObject, got Kind %v", thrown.Val.Kind())
	}
}

func TestInterruptHookAborts(t *testing.T) {
	m, _ := newSession(t, 0)
	m.Interrupt = func() bool { return true }
	program, errs := compiler.Compile(`
		var i = 0;
		while (true) { i = i + 1; }
	`)
	if len(errs) > 0 {
		t.Fatalf("compile error: %v", errs[0])
	}
	m.Program = program
	_, thrown := m.Run()
	if thrown == nil {
		t.Fatalf("expected the interrupt hook to abort execution")
	}
}

func TestReentrantCallFromNativeCallback(t *testing.T) {
	m, _ := newSession(t, 0)
	got := runOn(t, m, `
		[1, 2, 3].map(function(x) { return x * 2; }).join(",");
	`)
	if m.ToDisplayString(got) != "2,4,6" {
		t.Errorf("got %q, want 2,4,6", m.ToDisplayString(got))
	}
}
