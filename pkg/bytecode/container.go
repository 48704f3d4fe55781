// Package bytecode implements mqjs's portable compiled-program
// container (spec §6.3): a 4-byte magic, a version byte, and a
// msgpack-encoded mirror of the compiler's *vm.Program. Grounded on the
// same length-prefixed-envelope-plus-serialized-payload shape the
// example corpus's cache/snapshot writers use, adapted to mqjs's own
// wire format rather than reusing theirs.
package bytecode

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"mqjs/pkg/vm"
)

var magic = [4]byte{'M', 'Q', 'J', 'S'}

const version byte = 1

// wireConstant mirrors vm.Constant; Func is a wireFunction index into
// the enclosing wireProgram's Functions slice rather than a Go pointer,
// so nested function literals round-trip as plain data.
type wireConstant struct {
	Kind  uint8
	Num   float64
	Str   string
	Flags string
	Func  int32 // -1 when Kind != ConstFunction
}

type wireCapture struct {
	OuterSlot int
	IsLocal   bool
}

type wireChunk struct {
	Code      []byte
	Constants []wireConstant
}

type wireFunction struct {
	Name      string
	Arity     int
	MaxLocals int
	FuncIndex uint32
	Captures  []wireCapture
	Chunk     wireChunk
}

type wireProgram struct {
	Functions []wireFunction
	TopIndex  int
}

// Encode serializes a compiled program to its container form.
func Encode(program *vm.Program) ([]byte, error) {
	wp := wireProgram{
		Functions: make([]wireFunction, len(program.Functions)),
	}
	indexOf := make(map[*vm.Function]int, len(program.Functions))
	for i, fn := range program.Functions {
		indexOf[fn] = i
	}
	for i, fn := range program.Functions {
		wp.Functions[i] = toWireFunction(fn, indexOf)
	}
	for i, fn := range program.Functions {
		if fn == program.Top {
			wp.TopIndex = i
		}
	}

	payload, err := msgpack.Marshal(&wp)
	if err != nil {
		return nil, fmt.Errorf("bytecode: encode: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(magic[:])
	buf.WriteByte(version)
	buf.Write(payload)
	return buf.Bytes(), nil
}

func toWireFunction(fn *vm.Function, indexOf map[*vm.Function]int) wireFunction {
	captures := make([]wireCapture, len(fn.Captures))
	for i, c := range fn.Captures {
		captures[i] = wireCapture{OuterSlot: c.OuterSlot, IsLocal: c.IsLocal}
	}
	constants := make([]wireConstant, len(fn.Chunk.Constants))
	for i, ct := range fn.Chunk.Constants {
		wc := wireConstant{Kind: uint8(ct.Kind), Num: ct.Num, Str: ct.Str, Flags: ct.Flags, Func: -1}
		if ct.Kind == vm.ConstFunction {
			wc.Func = int32(indexOf[ct.Func])
		}
		constants[i] = wc
	}
	return wireFunction{
		Name:      fn.Name,
		Arity:     fn.Arity,
		MaxLocals: fn.MaxLocals,
		FuncIndex: fn.FuncIndex,
		Captures:  captures,
		Chunk: wireChunk{
			Code:      append([]byte{}, fn.Chunk.Code...),
			Constants: constants,
		},
	}
}

// Decode parses a container previously produced by Encode back into a
// *vm.Program with fresh Chunk/Function values (spec §8.1's round-trip
// property: load_bytes(compile_to_bytes(f)) reproduces f field-for-field).
func Decode(data []byte) (*vm.Program, error) {
	if len(data) < 5 {
		return nil, fmt.Errorf("bytecode: container too short")
	}
	if !bytes.Equal(data[:4], magic[:]) {
		return nil, fmt.Errorf("bytecode: bad magic %q", data[:4])
	}
	if data[4] != version {
		return nil, fmt.Errorf("bytecode: unsupported version %d", data[4])
	}

	var wp wireProgram
	if err := msgpack.Unmarshal(data[5:], &wp); err != nil {
		return nil, fmt.Errorf("bytecode: decode: %w", err)
	}

	functions := make([]*vm.Function, len(wp.Functions))
	for i, wf := range wp.Functions {
		captures := make([]vm.CaptureDesc, len(wf.Captures))
		for j, c := range wf.Captures {
			captures[j] = vm.CaptureDesc{OuterSlot: c.OuterSlot, IsLocal: c.IsLocal}
		}
		functions[i] = &vm.Function{
			Name:      wf.Name,
			Arity:     wf.Arity,
			MaxLocals: wf.MaxLocals,
			FuncIndex: wf.FuncIndex,
			Captures:  captures,
			Chunk:     &vm.Chunk{Code: append([]byte{}, wf.Chunk.Code...)},
		}
	}
	for i, wf := range wp.Functions {
		constants := make([]vm.Constant, len(wf.Chunk.Constants))
		for j, wc := range wf.Chunk.Constants {
			ct := vm.Constant{Kind: vm.ConstKind(wc.Kind), Num: wc.Num, Str: wc.Str, Flags: wc.Flags}
			if ct.Kind == vm.ConstFunction {
				ct.Func = functions[int(wc.Func)]
			}
			constants[j] = ct
		}
		functions[i].Chunk.Constants = constants
	}

	if wp.TopIndex < 0 || wp.TopIndex >= len(functions) {
		return nil, fmt.Errorf("bytecode: invalid top function index %d", wp.TopIndex)
	}
	return &vm.Program{Functions: functions, Top: functions[wp.TopIndex]}, nil
}
