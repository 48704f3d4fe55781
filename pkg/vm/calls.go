package vm

import (
	"strconv"

	"mqjs/pkg/value"
)

// interruptPollInterval is how many dispatched instructions elapse
// between polls of VM.Interrupt (spec §4.3.6, EXPANDED).
const interruptPollInterval = 1024

// callFunction pushes a new heap-allocated frame for fn and runs the
// dispatch loop until that frame (and everything it calls without going
// through a native function) returns, keeping JS-to-JS calls off the Go
// call stack (spec §4.3.1).
func (m *VM) callFunction(fn *Function, captures []value.Value, this value.Value, args []value.Value) (value.Value, *ThrownValue) {
	if len(m.frames) >= m.MaxCallDepth {
		return value.Undefined, m.throwRangeError("call stack size exceeded")
	}
	locals := make([]value.Value, fn.MaxLocals)
	for i := range locals {
		locals[i] = value.Undefined
	}
	for i := 0; i < fn.Arity && i < len(args); i++ {
		locals[i] = args[i]
	}
	m.frames = append(m.frames, &Frame{
		Fn:       fn,
		Captures: captures,
		Locals:   locals,
		ThisVal:  this,
		BasePtr:  len(m.stack),
	})
	return m.loop(len(m.frames))
}

// pushClosureFrame is callFunction's non-recursive twin, used from
// inside the dispatch loop itself for OpCall/OpCallMethod/
// OpCallConstructor against a Closure value: it appends a frame and lets
// the same loop() invocation keep running, rather than recursing in Go.
func (m *VM) pushClosureFrame(fn *Function, captures []value.Value, this value.Value, args []value.Value, isConstructor bool) *ThrownValue {
	if len(m.frames) >= m.MaxCallDepth {
		return m.throwRangeError("call stack size exceeded")
	}
	locals := make([]value.Value, fn.MaxLocals)
	for i := range locals {
		locals[i] = value.Undefined
	}
	for i := 0; i < fn.Arity && i < len(args); i++ {
		locals[i] = args[i]
	}
	m.frames = append(m.frames, &Frame{
		Fn:            fn,
		Captures:      captures,
		Locals:        locals,
		ThisVal:       this,
		BasePtr:       len(m.stack),
		IsConstructor: isConstructor,
	})
	return nil
}

// callNative invokes a native function value synchronously; if it calls
// back into script (e.g. Array.prototype.map's callback) that reentrant
// call does recurse in Go, unavoidably since a native function must
// return before its caller's dispatch loop can resume.
func (m *VM) callNative(idx uint32, this value.Value, args []value.Value) (value.Value, *ThrownValue) {
	return m.NativeFuncs[idx](m, this, args)
}

// dispatchCall resolves a callable Value for OpCall/OpCallMethod and
// either starts a new frame in-place (Closure) or runs a native function
// to completion (NativeFunction). started reports that a closure frame
// was pushed; a non-callable fn yields a thrown TypeError.
func (m *VM) dispatchCall(fn, this value.Value, args []value.Value, isConstructor bool) (result value.Value, thrown *ThrownValue, started bool) {
	switch fn.Kind() {
	case value.KindClosure:
		cd := m.Heap.Closure(fn)
		if tv := m.pushClosureFrame(m.Program.Functions[cd.FuncIndex], cd.Captures, this, args, isConstructor); tv != nil {
			return value.Undefined, tv, false
		}
		return value.Undefined, nil, true
	case value.KindNativeFunction:
		result, thrown = m.callNative(fn.Index(), this, args)
		return result, thrown, false
	default:
		return value.Undefined, m.throwTypeError(m.ToDisplayString(fn) + " is not a function"), false
	}
}

// constructNew implements OpCallConstructor: allocate a fresh object
// recording ctor for later `instanceof` checks, then invoke ctor with
// that object as `this` (spec §4.3.2). Native constructors decide their
// own return value; script constructors get the object-or-explicit-
// return rule applied by OpReturn via Frame.IsConstructor.
func (m *VM) constructNew(ctor value.Value, args []value.Value) (value.Value, *ThrownValue, bool) {
	if !ctor.IsCallable() {
		return value.Undefined, m.throwTypeError(m.ToDisplayString(ctor) + " is not a constructor"), false
	}
	newObj := m.Heap.NewObject(ctor, true)
	if ctor.Kind() == value.KindNativeFunction {
		result, thrown := m.callNative(ctor.Index(), newObj, args)
		if thrown != nil {
			return value.Undefined, thrown, false
		}
		if !result.IsUndefined() {
			return result, nil, false
		}
		return newObj, nil, false
	}
	cd := m.Heap.Closure(ctor)
	if tv := m.pushClosureFrame(m.Program.Functions[cd.FuncIndex], cd.Captures, newObj, args, true); tv != nil {
		return value.Undefined, tv, false
	}
	return value.Undefined, nil, true
}

// makeClosure executes OpMakeClosure: reads the inline capture
// descriptor list following the instruction and snapshots each captured
// value out of the currently executing frame (spec §4.2.4, §4.3.2).
func (m *VM) makeClosure(f *Frame, funcIdx uint32, captures []CaptureDesc) value.Value {
	snapshot := make([]value.Value, len(captures))
	for i, cap := range captures {
		if cap.IsLocal {
			snapshot[i] = f.Locals[cap.OuterSlot]
		} else {
			snapshot[i] = f.Captures[cap.OuterSlot]
		}
	}
	return m.Heap.NewClosure(funcIdx, snapshot)
}

// forInKeys builds the snapshot for-in iterates over: own-property names
// for an object, numeric index strings for an array (spec §9).
func (m *VM) forInKeys(v value.Value) []value.Value {
	switch v.Kind() {
	case value.KindObject:
		names := m.Heap.Object(v).Keys()
		items := make([]value.Value, len(names))
		for i, n := range names {
			items[i] = m.Heap.NewString(n)
		}
		return items
	case value.KindArray:
		n := len(m.Heap.Array(v).Elements)
		items := make([]value.Value, n)
		for i := 0; i < n; i++ {
			items[i] = m.Heap.NewString(strconv.Itoa(i))
		}
		return items
	default:
		return nil
	}
}

// forOfItems builds the snapshot for-of iterates over: an array's
// elements, or a string's characters (spec §9; there is no user-defined
// iterator protocol in this engine).
func (m *VM) forOfItems(v value.Value) ([]value.Value, *ThrownValue) {
	switch v.Kind() {
	case value.KindArray:
		src := m.Heap.Array(v).Elements
		items := make([]value.Value, len(src))
		copy(items, src)
		return items, nil
	case value.KindString:
		r := []rune(m.Heap.String(v))
		items := make([]value.Value, len(r))
		for i, ch := range r {
			items[i] = m.Heap.NewString(string(ch))
		}
		return items, nil
	default:
		return nil, m.throwTypeError(m.ToDisplayString(v) + " is not iterable")
	}
}
