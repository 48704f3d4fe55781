package vm

import "mqjs/pkg/value"

// ConstKind discriminates the payload of a Constant pool entry.
type ConstKind uint8

const (
	ConstNumber ConstKind = iota
	ConstString
	ConstFunction
	ConstRegex
)

// Constant is one entry of a Function's constant pool. Numbers and
// strings are folded in directly at compile time; nested function
// literals become ConstFunction entries so MakeClosure can build a
// closure over the already-compiled inner Function; regex literals keep
// their source/flags text so OpPushRegex can compile the matcher each
// time the literal executes.
type Constant struct {
	Kind  ConstKind
	Num   float64
	Str   string
	Flags string
	Func  *Function
}

// CaptureDesc describes where a closure captures a value from at
// MakeClosure time (spec §4.2.4): either a local slot in the immediately
// enclosing frame, or a capture slot already held by that frame.
type CaptureDesc struct {
	OuterSlot int
	IsLocal   bool
}

// lineEntry marks the source line of the instruction starting at Offset;
// GetLine finds the line for any offset via the last entry at or before
// it, avoiding one line number per bytecode byte.
type lineEntry struct {
	Offset int
	Line   int
}

// Chunk is one function's compiled instruction stream.
type Chunk struct {
	Code      []byte
	lines     []lineEntry
	Constants []Constant
}

// NewChunk returns an empty instruction stream.
func NewChunk() *Chunk {
	return &Chunk{}
}

// Emit appends a single opcode byte at the given source line and returns
// its offset.
func (c *Chunk) Emit(op Opcode, line int) int {
	c.markLine(line)
	c.Code = append(c.Code, byte(op))
	return len(c.Code) - 1
}

// EmitByte appends a raw operand byte.
func (c *Chunk) EmitByte(b byte) {
	c.Code = append(c.Code, b)
}

// EmitUint16 appends a big-endian two-byte operand.
func (c *Chunk) EmitUint16(v uint16) {
	c.Code = append(c.Code, byte(v>>8), byte(v))
}

func (c *Chunk) markLine(line int) {
	if len(c.lines) > 0 && c.lines[len(c.lines)-1].Line == line {
		return
	}
	c.lines = append(c.lines, lineEntry{Offset: len(c.Code), Line: line})
}

// GetLine returns the source line the instruction at offset was emitted
// from, or 0 if unknown.
func (c *Chunk) GetLine(offset int) int {
	line := 0
	for _, e := range c.lines {
		if e.Offset > offset {
			break
		}
		line = e.Line
	}
	return line
}

// AddConstant interns num/str constants (so repeated literals share a
// pool slot) and appends function constants unconditionally, returning
// the pool index.
func (c *Chunk) AddConstant(k Constant) int {
	if k.Kind != ConstFunction {
		for i, existing := range c.Constants {
			if existing.Kind == k.Kind && existing.Num == k.Num && existing.Str == k.Str && existing.Flags == k.Flags {
				return i
			}
		}
	}
	c.Constants = append(c.Constants, k)
	return len(c.Constants) - 1
}

// PatchJump backpatches the two-byte operand at offset (which must
// follow OpJump/OpJumpIfFalse/OpJumpIfTrue) to jump to the chunk's
// current end.
func (c *Chunk) PatchJump(offset int) {
	target := len(c.Code)
	delta := target - (offset + 2)
	c.Code[offset] = byte(uint16(delta) >> 8)
	c.Code[offset+1] = byte(uint16(delta))
}

// Function is one compiled function body: the top-level program is
// itself a zero-arity, zero-capture Function (spec §4.6, "eval compiles
// an implicit top-level function"). FuncIndex is its slot in the
// enclosing Program.Functions table, the same index heap.ClosureData
// stores to name which Function a closure runs.
type Function struct {
	Name      string
	Arity     int
	MaxLocals int
	FuncIndex uint32
	Captures  []CaptureDesc
	Chunk     *Chunk
}

// Program is a compiler's complete output: every function literal that
// appeared in the source, flattened into one table so a heap.ClosureData
// can name its code with a plain uint32 instead of a pointer (keeping the
// heap arena free of live Go pointers into compiler-owned memory).
type Program struct {
	Functions []*Function
	Top       *Function
}

// Frame is one heap-allocated call activation (spec §4.3.1 — call frames
// live on an explicit Go-heap stack, never the host call stack, so JS
// recursion cannot overflow the host stack).
type Frame struct {
	Fn        *Function
	Captures  []value.Value
	Locals    []value.Value
	IP        int
	BasePtr   int
	ThisVal   value.Value
	HandlerTop int

	// IsConstructor marks a frame entered via OpCallConstructor: its
	// OpReturn keeps ThisVal instead of the returned value unless that
	// value is itself an object (spec §4.3.2's `new` semantics).
	IsConstructor bool
}
