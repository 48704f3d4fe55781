// Package vm implements mqjs's stack-based bytecode interpreter (spec
// §4.3): a heap-allocated call-frame stack (so JS recursion never grows
// the host Go stack), an operand stack, and an exception-handler stack
// for try/catch/finally unwinding.
package vm

import (
	"mqjs/pkg/heap"
	"mqjs/pkg/value"
)

// NativeFn is the calling convention every host-provided function uses,
// whether it comes from package builtins or an embedder's
// RegisterNative call (spec §4.6's "register_native" contract).
type NativeFn func(vm *VM, this value.Value, args []value.Value) (value.Value, *ThrownValue)

// ThrownValue wraps a JS-level thrown value so it can travel back
// through Go's error-return convention without being confused with a
// host-level MqjsError (spec §7.1's "language-level throws are Values,
// not errors").
type ThrownValue struct {
	Val value.Value
}

func (t *ThrownValue) Error() string { return "uncaught JavaScript exception" }

// BuiltinResolver looks up a native implementation for a property read
// off a value of the given Kind (spec §4.3.5's "static kind-keyed
// builtin dispatch, no prototype-chain walking"). Implemented by package
// builtins; the VM depends only on this interface so the two packages
// don't import each other.
type BuiltinResolver interface {
	Resolve(vm *VM, base value.Value, name string) (value.Value, bool)
	Global(name string) (value.Value, bool)
	CompileRegex(source, flags string) (any, error)
}

type handlerFrame struct {
	frameDepth int
	stackDepth int
	target     int
}

// VM executes one compiled Program against one Heap. Multiple VM
// instances may share a Heap only sequentially, never concurrently.
type VM struct {
	Heap    *heap.Heap
	Program *Program
	Globals map[string]value.Value

	NativeFuncs []NativeFn
	Builtins    BuiltinResolver

	stack    []value.Value
	frames   []*Frame
	handlers []handlerFrame

	// Interrupt is polled every N dispatched instructions; returning true
	// aborts execution with an uncatchable InterruptError error object
	// (spec §4.3.6, EXPANDED).
	Interrupt func() bool
	// TraceGC, when set, receives a line of text before/after each
	// collection triggered by an over-budget allocation (spec §4.3.7).
	TraceGC func(msg string)

	// MaxCallDepth bounds the heap-allocated frame stack (spec §3.5's
	// StackLimit); New sets it to defaultMaxCallDepth, and an embedder can
	// override it before running any script.
	MaxCallDepth int

	steps int
}

// defaultMaxCallDepth is the call-stack ceiling a VM runs with when its
// Config carries no StackLimit override.
const defaultMaxCallDepth = 4096

// New creates a VM ready to run program against h. Globals starts empty;
// callers register host bindings with SetGlobal before calling Run.
func New(program *Program, h *heap.Heap) *VM {
	return &VM{
		Program:      program,
		Heap:         h,
		Globals:      make(map[string]value.Value),
		MaxCallDepth: defaultMaxCallDepth,
	}
}

func (m *VM) SetGlobal(name string, v value.Value) { m.Globals[name] = v }

func (m *VM) GetGlobal(name string) (value.Value, bool) {
	v, ok := m.Globals[name]
	return v, ok
}

// RegisterNativeFunc appends fn to the native-function table and returns
// a Value referencing it, the mechanism package builtins and embedders
// both use to hand a callable back into the script (spec §4.6
// register_native).
func (m *VM) RegisterNativeFunc(fn NativeFn) value.Value {
	m.NativeFuncs = append(m.NativeFuncs, fn)
	return value.NativeFuncRef(uint32(len(m.NativeFuncs) - 1))
}

func (m *VM) push(v value.Value) { m.stack = append(m.stack, v) }

func (m *VM) pop() value.Value {
	n := len(m.stack) - 1
	v := m.stack[n]
	m.stack = m.stack[:n]
	return v
}

func (m *VM) peek(back int) value.Value {
	return m.stack[len(m.stack)-1-back]
}

// Run executes the compiled top-level function to completion.
func (m *VM) Run() (value.Value, *ThrownValue) {
	return m.callFunction(m.Program.Top, nil, value.Undefined, nil)
}

// RunFunction executes an arbitrary zero-capture top-level Function,
// used by a persistent embedding session (package mqjs's Engine) to run
// each successive Eval's compiled unit against the same VM after
// merging it into m.Program.Functions (spec §4.6.1's repeated-eval
// contract: globals and previously defined functions/closures stay
// live across calls).
func (m *VM) RunFunction(fn *Function) (value.Value, *ThrownValue) {
	return m.callFunction(fn, nil, value.Undefined, nil)
}

// Call invokes an arbitrary callable Value with the given receiver and
// arguments (spec §4.6's embedding-API "call"); used both by the host
// and by builtins that accept callback arguments (Array.prototype.map
// and friends).
func (m *VM) Call(fn value.Value, this value.Value, args []value.Value) (value.Value, *ThrownValue) {
	switch fn.Kind() {
	case value.KindClosure:
		cd := m.Heap.Closure(fn)
		return m.callFunction(m.Program.Functions[cd.FuncIndex], cd.Captures, this, args)
	case value.KindNativeFunction:
		return m.NativeFuncs[fn.Index()](m, this, args)
	default:
		return value.Undefined, m.throwTypeError("value is not callable")
	}
}

func (m *VM) throwTypeError(msg string) *ThrownValue {
	idx := m.Heap.NewErrorObject("TypeError", msg)
	return &ThrownValue{Val: idx}
}

func (m *VM) throwRangeError(msg string) *ThrownValue {
	idx := m.Heap.NewErrorObject("RangeError", msg)
	return &ThrownValue{Val: idx}
}

func (m *VM) throwReferenceError(msg string) *ThrownValue {
	idx := m.Heap.NewErrorObject("ReferenceError", msg)
	return &ThrownValue{Val: idx}
}

func (m *VM) throwSyntaxError(msg string) *ThrownValue {
	idx := m.Heap.NewErrorObject("SyntaxError", msg)
	return &ThrownValue{Val: idx}
}

func (m *VM) currentFrame() *Frame { return m.frames[len(m.frames)-1] }

// maybeCollect runs the mark-compact collector when the heap is over
// budget, gathering VM-owned roots (operand stack, every live frame's
// locals/captures/this, the handler stack cannot itself hold values, and
// globals) and rewriting them with the remap the collector returns
// (spec §4.4).
func (m *VM) maybeCollect() {
	if !m.Heap.OverBudget() {
		return
	}
	if m.TraceGC != nil {
		m.TraceGC("gc: collecting")
	}
	roots := make([]value.Value, 0, len(m.stack)+len(m.Globals)*2)
	roots = append(roots, m.stack...)
	for _, f := range m.frames {
		roots = append(roots, f.Locals...)
		roots = append(roots, f.Captures...)
		roots = append(roots, f.ThisVal)
	}
	for _, v := range m.Globals {
		roots = append(roots, v)
	}
	remap := m.Heap.Collect(roots)

	for i := range m.stack {
		m.stack[i] = remap.Rewrite(m.stack[i])
	}
	for _, f := range m.frames {
		for i := range f.Locals {
			f.Locals[i] = remap.Rewrite(f.Locals[i])
		}
		for i := range f.Captures {
			f.Captures[i] = remap.Rewrite(f.Captures[i])
		}
		f.ThisVal = remap.Rewrite(f.ThisVal)
	}
	for k, v := range m.Globals {
		m.Globals[k] = remap.Rewrite(v)
	}
	if m.TraceGC != nil {
		m.TraceGC("gc: done")
	}
}
