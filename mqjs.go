// Package mqjs is the embedding surface over the compiler, VM, and
// builtin catalog: a single Engine type that holds one VM, one heap,
// and the globals map across repeated Eval calls, the way the teacher
// engine's driver.Paserati keeps state alive between RunString calls
// (spec §4.6.1).
package mqjs

import (
	"mqjs/pkg/builtins"
	"mqjs/pkg/bytecode"
	"mqjs/pkg/compiler"
	"mqjs/pkg/config"
	mqerrors "mqjs/pkg/errors"
	"mqjs/pkg/heap"
	"mqjs/pkg/value"
	"mqjs/pkg/vm"
)

// Engine is a persistent evaluation session: successive Eval calls see
// each other's global bindings and function/closure definitions, the
// same way successive lines typed into a REPL would.
type Engine struct {
	VM   *vm.VM
	Heap *heap.Heap
	reg  *builtins.Registry
}

// New creates an Engine with a heap bounded to memoryBudget bytes (0
// means unbounded) and the full builtin catalog installed.
func New(memoryBudget int64) *Engine {
	cfg := config.Default()
	cfg.MemoryBudget = memoryBudget
	return NewWithConfig(cfg)
}

// NewWithConfig creates an Engine from a fully populated Config (spec
// §3.5): MemoryBudget bounds the heap, a positive StackLimit overrides
// the VM's default call-depth ceiling, and NativeModules selects which
// builtin categories get installed (empty means all of them).
func NewWithConfig(cfg config.Config) *Engine {
	h := heap.New(cfg.MemoryBudget)
	program := &vm.Program{}
	m := vm.New(program, h)
	if cfg.StackLimit > 0 {
		m.MaxCallDepth = cfg.StackLimit
	}

	reg := builtins.New()
	reg.Install(m, cfg.NativeModules...)
	m.Builtins = reg

	return &Engine{VM: m, Heap: h, reg: reg}
}

// RegisterNative exposes the embedding API's register_native contract
// (spec §4.6): host code hands mqjs a Go function under a global name,
// callable from script exactly like a builtin.
func (e *Engine) RegisterNative(name string, fn vm.NativeFn) {
	e.VM.SetGlobal(name, e.VM.RegisterNativeFunc(fn))
}

// SetInterrupt installs the polled abort hook (spec §4.3.6, EXPANDED).
func (e *Engine) SetInterrupt(hook func() bool) { e.VM.Interrupt = hook }

// SetGCTrace installs a callback invoked around each collection
// triggered by an over-budget allocation (spec §4.3.7).
func (e *Engine) SetGCTrace(hook func(msg string)) { e.VM.TraceGC = hook }

// Eval compiles source as a new top-level unit and runs it against the
// session's persistent VM. The compiled unit's functions are appended
// to the VM's flat function table rather than replacing it, so a
// closure created in an earlier Eval call keeps resolving against its
// own code after a later Eval has run (spec §4.6.1).
func (e *Engine) Eval(source string) (value.Value, []mqerrors.MqjsError) {
	program, errs := compiler.Compile(source)
	if len(errs) > 0 {
		return value.Undefined, errs
	}

	offset := uint32(len(e.VM.Program.Functions))
	for _, fn := range program.Functions {
		fn.FuncIndex += offset
	}
	e.VM.Program.Functions = append(e.VM.Program.Functions, program.Functions...)

	result, thrown := e.VM.RunFunction(program.Top)
	if thrown != nil {
		return value.Undefined, []mqerrors.MqjsError{&mqerrors.RuntimeError{
			Msg: "uncaught exception: " + e.VM.ToDisplayString(thrown.Val),
		}}
	}
	return result, nil
}

// Call invokes a callable Value previously returned by Eval, the
// embedding API's "call" contract (spec §4.6).
func (e *Engine) Call(fn value.Value, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
	return e.VM.Call(fn, this, args)
}

// CompileToBytes compiles source and encodes it into the portable
// bytecode container (spec §6.3), without executing it.
func (e *Engine) CompileToBytes(source string) ([]byte, []mqerrors.MqjsError) {
	program, errs := compiler.Compile(source)
	if len(errs) > 0 {
		return nil, errs
	}
	b, err := bytecode.Encode(program)
	if err != nil {
		return nil, []mqerrors.MqjsError{&mqerrors.ContainerError{Msg: err.Error(), Cause: err}}
	}
	return b, nil
}

// LoadBytes decodes a previously compiled container and runs it against
// the session's persistent VM the same way Eval runs freshly compiled
// source.
func (e *Engine) LoadBytes(data []byte) (value.Value, []mqerrors.MqjsError) {
	program, err := bytecode.Decode(data)
	if err != nil {
		return value.Undefined, []mqerrors.MqjsError{&mqerrors.ContainerError{Msg: err.Error(), Cause: err}}
	}

	offset := uint32(len(e.VM.Program.Functions))
	for _, fn := range program.Functions {
		fn.FuncIndex += offset
	}
	e.VM.Program.Functions = append(e.VM.Program.Functions, program.Functions...)

	result, thrown := e.VM.RunFunction(program.Top)
	if thrown != nil {
		return value.Undefined, []mqerrors.MqjsError{&mqerrors.RuntimeError{
			Msg: "uncaught exception: " + e.VM.ToDisplayString(thrown.Val),
		}}
	}
	return result, nil
}

// Stats reports the heap's current footprint (spec §4.4.1).
func (e *Engine) Stats() heap.Stats { return e.Heap.Stats() }

// Destroy drops the engine's references so its heap and VM become
// eligible for garbage collection by the host Go runtime. mqjs has no
// off-heap resources of its own to release.
func (e *Engine) Destroy() {
	e.VM = nil
	e.Heap = nil
	e.reg = nil
}
