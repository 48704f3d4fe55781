package compiler

import "mqjs/pkg/vm"

// local is one function-scope local slot: a `var`, `let`, `const`,
// parameter, or hoisted function-declaration binding.
type local struct {
	name    string
	slot    int
	blockID int // owning block, for let/const shadow-removal at block exit
}

// funcScope tracks slot allocation and capture resolution for one
// function body being compiled (spec §4.2.2). Nested function literals
// push a new funcScope and resolve free variables against the enclosing
// chain via resolve.
type funcScope struct {
	enclosing *funcScope
	fn        *vm.Function

	locals    []local
	nextSlot  int
	maxSlot   int
	blockID   int
	blockSeq  int

	captures []vm.CaptureDesc
	// captureNames parallels captures: the source identifier each entry
	// was resolved for, so a second reference to the same free variable
	// reuses the existing capture slot instead of adding a duplicate.
	captureNames []string
}

func newFuncScope(enclosing *funcScope) *funcScope {
	return &funcScope{enclosing: enclosing}
}

func (f *funcScope) enterBlock() int {
	f.blockSeq++
	prev := f.blockID
	f.blockID = f.blockSeq
	return prev
}

// exitBlock removes locals declared in the block just closed. blockSeq is
// monotonic and deliberately not restored: block IDs only need to be
// distinct among currently-open blocks, never reused.
func (f *funcScope) exitBlock(prevBlockID int) {
	kept := f.locals[:0]
	for _, l := range f.locals {
		if l.blockID != f.blockID {
			kept = append(kept, l)
		}
	}
	f.locals = kept
	f.blockID = prevBlockID
}

// declare allocates a new local slot for name in the current block and
// returns its slot index. Function-scoped (`var`) declarations pass
// blockID 0 so they outlive nested blocks (spec §4.2.2, "var declarations
// are hoisted to the function scope").
func (f *funcScope) declare(name string, blockID int) int {
	slot := f.nextSlot
	f.nextSlot++
	if f.nextSlot > f.maxSlot {
		f.maxSlot = f.nextSlot
	}
	f.locals = append(f.locals, local{name: name, slot: slot, blockID: blockID})
	return slot
}

// findLocal looks up name among this scope's currently active locals,
// most recently declared first so shadowing resolves correctly.
func (f *funcScope) findLocal(name string) (int, bool) {
	for i := len(f.locals) - 1; i >= 0; i-- {
		if f.locals[i].name == name {
			return f.locals[i].slot, true
		}
	}
	return 0, false
}

// addCapture records (or reuses) a capture entry threading name in from
// the enclosing scope (spec §4.2.2 rule 2).
func (f *funcScope) addCapture(name string, outerSlot int, isLocal bool) int {
	for i, n := range f.captureNames {
		if n == name {
			return i
		}
	}
	f.captures = append(f.captures, vm.CaptureDesc{OuterSlot: outerSlot, IsLocal: isLocal})
	f.captureNames = append(f.captureNames, name)
	return len(f.captures) - 1
}

// resolution is how an identifier reference resolves (spec §4.2.2).
type resolution int

const (
	resGlobal resolution = iota
	resLocal
	resCapture
)

// resolve implements the three-step identifier resolution rule: a local
// slot in the current function, else a capture threaded in from an
// enclosing function, else a global.
func resolve(scope *funcScope, name string) (resolution, int) {
	if slot, ok := scope.findLocal(name); ok {
		return resLocal, slot
	}
	if scope.enclosing == nil {
		return resGlobal, 0
	}
	if idx, ok := resolveCapture(scope.enclosing, name); ok {
		return resCapture, scope.addCapture(name, idx.slot, idx.isLocal)
	}
	return resGlobal, 0
}

type outerRef struct {
	slot    int
	isLocal bool
}

// resolveCapture walks the enclosing chain looking for name, threading a
// capture entry through every intermediate function scope it passes so
// each one can supply the value to the next (spec §4.2.2: "recording
// traversed intermediate functions so each of them adds a capture
// entry").
func resolveCapture(scope *funcScope, name string) (outerRef, bool) {
	if slot, ok := scope.findLocal(name); ok {
		return outerRef{slot: slot, isLocal: true}, true
	}
	if scope.enclosing == nil {
		return outerRef{}, false
	}
	if ref, ok := resolveCapture(scope.enclosing, name); ok {
		idx := scope.addCapture(name, ref.slot, ref.isLocal)
		return outerRef{slot: idx, isLocal: false}, true
	}
	return outerRef{}, false
}
