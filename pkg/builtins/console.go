package builtins

import (
	"fmt"
	"io"
	"os"
	"strings"

	"mqjs/pkg/value"
	"mqjs/pkg/vm"
)

// installConsole registers console.log/warn/error and the bare `print`
// global (spec §4.5.1), grounded on the teacher's console_init.go
// formatArgs-then-print pattern but writing warn/error to stderr instead
// of prefixing stdout, since mqjs has no separate diagnostic channel to
// route a prefix through.
func (r *Registry) installConsole(v *vm.VM) {
	logTo := func(w io.Writer) vm.NativeFn {
		return func(m *vm.VM, this value.Value, args []value.Value) (value.Value, *vm.ThrownValue) {
			fmt.Fprintln(w, joinDisplay(m, args))
			return value.Undefined, nil
		}
	}
	r.globals["console"] = value.Builtin(value.BuiltinConsole)
	r.globals["print"] = r.native(v, logTo(os.Stdout))

	// console itself is resolved as a KindBuiltin value; its methods hang
	// off BuiltinConsole through the same Resolve path as Math/JSON so no
	// separate object allocation is needed for a builtin that never gains
	// own-properties.
	r.consoleMethods = map[string]value.Value{
		"log":   r.native(v, logTo(os.Stdout)),
		"warn":  r.native(v, logTo(os.Stderr)),
		"error": r.native(v, logTo(os.Stderr)),
	}
}

func joinDisplay(m *vm.VM, args []value.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = m.ToDisplayString(a)
	}
	return strings.Join(parts, " ")
}
