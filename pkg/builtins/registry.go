// Package builtins implements mqjs's built-in catalog: console, Math,
// JSON, Object, Array.prototype, String.prototype, Number, Boolean,
// Date, the Error taxonomy, and RegExp. Every builtin is a native
// function value.VM dispatches to through a single static, kind-keyed
// lookup (Registry.Resolve), never a walked prototype chain, mirroring
// how the runtime's own field access works.
//
// The catalog is organized the way the teacher engine lays out its own
// builtins package, one file per global (console_init.go, math_init.go,
// ...), minus the parallel static-type registration those files also
// perform: mqjs has no type checker, so only the runtime half survives.
package builtins

import (
	"mqjs/pkg/value"
	"mqjs/pkg/vm"
)

// Registry implements vm.BuiltinResolver. It is built once per VM via
// New().Install(vm) before any script runs.
type Registry struct {
	globals map[string]value.Value

	arrayMethods  map[string]value.Value
	stringMethods map[string]value.Value
	numberMethods map[string]value.Value
	objectStatics map[string]value.Value
	numberStatics map[string]value.Value
	regexpMethods map[string]value.Value
	errorGetters  map[string]value.Value
	mathProps      map[string]value.Value
	dateStatics    map[string]value.Value
	consoleMethods map[string]value.Value
	jsonProps      map[string]value.Value
}

// New returns an empty registry; call Install to populate it against a
// specific VM's native-function table.
func New() *Registry {
	return &Registry{
		globals:       make(map[string]value.Value),
		arrayMethods:  make(map[string]value.Value),
		stringMethods: make(map[string]value.Value),
		numberMethods: make(map[string]value.Value),
		objectStatics: make(map[string]value.Value),
		numberStatics: make(map[string]value.Value),
		regexpMethods: make(map[string]value.Value),
		errorGetters:  make(map[string]value.Value),
		mathProps:      make(map[string]value.Value),
		dateStatics:    make(map[string]value.Value),
		consoleMethods: make(map[string]value.Value),
	}
}

// moduleInstallers maps a native module's configuration name (spec
// §3.5's Config.NativeModules) to the installer that populates it. Named
// the way the teacher's deleted module loader named its own native
// modules ("console", "math", ...), minus the module-record/export
// machinery mqjs has no use for.
var moduleInstallers = map[string]func(*Registry, *vm.VM){
	"console": (*Registry).installConsole,
	"math":    (*Registry).installMath,
	"json":    (*Registry).installJSON,
	"object":  (*Registry).installObject,
	"array":   (*Registry).installArray,
	"string":  (*Registry).installString,
	"number":  (*Registry).installNumber,
	"boolean": (*Registry).installBoolean,
	"date":    (*Registry).installDate,
	"errors":  (*Registry).installErrors,
	"regexp":  (*Registry).installRegexp,
}

// Install registers every builtin's native functions against v and
// populates the lookup tables Resolve/Global consult. Must run before
// the VM executes any bytecode that might reference a global or call a
// builtin method. With no modules named, every category is installed;
// an embedder that lists specific names (Config.NativeModules) gets only
// those, an unrecognized name is silently ignored.
func (r *Registry) Install(v *vm.VM, modules ...string) {
	if len(modules) == 0 {
		for _, install := range moduleInstallers {
			install(r, v)
		}
		return
	}
	for _, name := range modules {
		if install, ok := moduleInstallers[name]; ok {
			install(r, v)
		}
	}
}

func (r *Registry) native(v *vm.VM, fn vm.NativeFn) value.Value {
	return v.RegisterNativeFunc(fn)
}

// newThrow builds a ThrownValue wrapping a fresh error object, the
// shape every native function in this package uses to signal a
// JS-catchable failure (spec §7.1's "language-level errors are Values").
func newThrow(v *vm.VM, name, msg string) *vm.ThrownValue {
	return &vm.ThrownValue{Val: v.Heap.NewErrorObject(name, msg)}
}

// argAt returns args[i] or Undefined if the call was short on arguments,
// matching JS's lenient arity (missing parameters read as undefined).
func argAt(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined
}

// Resolve implements vm.BuiltinResolver.Resolve: the kind-keyed
// dispatch fallback getField/getFieldKeepBase reach when a value has no
// own-property of that name (spec §4.3.5).
func (r *Registry) Resolve(m *vm.VM, base value.Value, name string) (value.Value, bool) {
	switch base.Kind() {
	case value.KindArray:
		if v, ok := r.arrayMethods[name]; ok {
			return v, true
		}
	case value.KindString:
		if v, ok := r.stringMethods[name]; ok {
			return v, true
		}
	case value.KindInt31, value.KindFloat:
		if v, ok := r.numberMethods[name]; ok {
			return v, true
		}
	case value.KindRegExp:
		if v, ok := r.regexpMethods[name]; ok {
			return v, true
		}
	case value.KindErrorObject:
		if v, ok := r.errorGetters[name]; ok {
			return v, true
		}
	case value.KindBuiltin:
		switch base.AsBuiltin() {
		case value.BuiltinObject:
			if v, ok := r.objectStatics[name]; ok {
				return v, true
			}
		case value.BuiltinNumber:
			if v, ok := r.numberStatics[name]; ok {
				return v, true
			}
		case value.BuiltinMath:
			if v, ok := r.mathProps[name]; ok {
				return v, true
			}
		case value.BuiltinJSON:
			if v, ok := r.jsonProps[name]; ok {
				return v, true
			}
		case value.BuiltinDate:
			if v, ok := r.dateStatics[name]; ok {
				return v, true
			}
		case value.BuiltinConsole:
			if v, ok := r.consoleMethods[name]; ok {
				return v, true
			}
		}
	}
	return value.Undefined, false
}

// Global implements vm.BuiltinResolver.Global, the OpGetGlobal fallback
// for names never assigned by script (console, Math, JSON, the
// constructor namespaces, print).
func (r *Registry) Global(name string) (value.Value, bool) {
	v, ok := r.globals[name]
	return v, ok
}
