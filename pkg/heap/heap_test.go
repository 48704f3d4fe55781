package heap

import (
	"testing"

	"mqjs/pkg/value"
)

func TestObjectSetGetDelete(t *testing.T) {
	h := New(0)
	obj := h.NewObject(value.Undefined, false)
	data := h.Object(obj)

	if !data.Set("x", value.Int31(1)) {
		t.Fatalf("Set on an extensible object should succeed")
	}
	got, ok := data.Get("x")
	if !ok || got.AsInt32() != 1 {
		t.Fatalf("Get(x) = %v, %v; want 1, true", got, ok)
	}

	if !data.Set("x", value.Int31(2)) {
		t.Fatalf("overwriting an existing property should succeed")
	}
	got, _ = data.Get("x")
	if got.AsInt32() != 2 {
		t.Errorf("Get(x) after overwrite = %d, want 2", got.AsInt32())
	}

	if !data.Delete("x") {
		t.Fatalf("Delete(x) should succeed")
	}
	if _, ok := data.Get("x"); ok {
		t.Errorf("x should be gone after Delete")
	}
}

func TestObjectFrozenRejectsWrites(t *testing.T) {
	h := New(0)
	obj := h.NewObject(value.Undefined, false)
	data := h.Object(obj)
	data.Set("x", value.Int31(1))
	data.Frozen = true

	if data.Set("x", value.Int31(2)) {
		t.Errorf("Set on a frozen object should fail")
	}
	if data.Delete("x") {
		t.Errorf("Delete on a frozen object should fail")
	}
	got, _ := data.Get("x")
	if got.AsInt32() != 1 {
		t.Errorf("frozen object's existing value should be unchanged")
	}
}

func TestObjectNotExtensibleRejectsNewProps(t *testing.T) {
	h := New(0)
	obj := h.NewObject(value.Undefined, false)
	data := h.Object(obj)
	data.Extensible = false

	if data.Set("y", value.Int31(1)) {
		t.Errorf("Set of a new property on a non-extensible object should fail")
	}
}

func TestArrayGetSetExtendsWithUndefined(t *testing.T) {
	h := New(0)
	arr := h.NewArray(nil)
	data := h.Array(arr)

	data.Set(3, value.Int31(9))
	if len(data.Elements) != 4 {
		t.Fatalf("Set(3, ...) should extend Elements to length 4, got %d", len(data.Elements))
	}
	for i := 0; i < 3; i++ {
		if !data.Get(i).IsUndefined() {
			t.Errorf("element %d should be Undefined, got %v", i, data.Get(i))
		}
	}
	if data.Get(3).AsInt32() != 9 {
		t.Errorf("element 3 = %v, want 9", data.Get(3))
	}
	if !data.Get(100).IsUndefined() {
		t.Errorf("out-of-range Get should return Undefined")
	}
}

func TestInternStringReusesSlot(t *testing.T) {
	h := New(0)
	a := h.InternString("foo")
	b := h.InternString("foo")
	if a.Index() != b.Index() {
		t.Errorf("InternString should return the same slot for equal strings, got %d and %d", a.Index(), b.Index())
	}
	c := h.NewString("foo")
	if c.Index() == a.Index() {
		t.Errorf("NewString should always allocate a fresh slot")
	}
}

func TestCollectDropsUnreachableAndRewritesRoots(t *testing.T) {
	h := New(0)
	garbage := h.NewObject(value.Undefined, false)
	h.Object(garbage).Set("junk", value.Int31(1))

	kept := h.NewObject(value.Undefined, false)
	h.Object(kept).Set("tag", value.Int31(42))

	inner := h.NewArray([]value.Value{value.Int31(1), value.Int31(2)})
	h.Object(kept).Set("inner", inner)

	if len(h.Objects) != 2 || len(h.Arrays) != 1 {
		t.Fatalf("setup: want 2 objects and 1 array before collection")
	}

	remap := h.Collect([]value.Value{kept})

	if len(h.Objects) != 1 {
		t.Fatalf("after Collect, want 1 live object, got %d", len(h.Objects))
	}
	if len(h.Arrays) != 1 {
		t.Fatalf("after Collect, want the reachable array kept, got %d", len(h.Arrays))
	}

	newKept := remap.Rewrite(kept)
	if newKept.IsUndefined() {
		t.Fatalf("kept root should still be reachable after remap")
	}
	tag, ok := h.Object(newKept).Get("tag")
	if !ok || tag.AsInt32() != 42 {
		t.Errorf("compacted object lost its property: got %v, %v", tag, ok)
	}

	newGarbage := remap.Rewrite(garbage)
	if !newGarbage.IsUndefined() {
		t.Errorf("unreachable object should remap to Undefined, got %v", newGarbage)
	}
}

func TestCollectIncrementsCollectionCount(t *testing.T) {
	h := New(0)
	before := h.Stats().Collections
	h.Collect(nil)
	after := h.Stats().Collections
	if after != before+1 {
		t.Errorf("Collect should increment Collections; got %d -> %d", before, after)
	}
}

func TestOverBudget(t *testing.T) {
	h := New(1)
	h.NewString("exceeds the one-byte budget")
	if !h.OverBudget() {
		t.Fatalf("a heap past its byte budget should report OverBudget")
	}
}

func TestOverBudgetUnboundedWhenZero(t *testing.T) {
	h := New(0)
	h.NewString("this is a fairly long string to accumulate some bytes")
	if h.OverBudget() {
		t.Errorf("a zero budget should never report OverBudget")
	}
}
