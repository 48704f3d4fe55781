// Package heap implements the engine's allocation arenas and mark-compact
// garbage collector (spec §4.4, "Heap and garbage collector"). Every
// heap-referencing value.Value is an index into one of these arenas; the
// collector is free to relocate entries because nothing outside the
// arenas ever holds a raw pointer to one.
package heap

import "mqjs/pkg/value"

// Property is one own-property of an Object, in insertion order.
type Property struct {
	Name  string
	Value value.Value
}

// ObjectData backs value.KindObject.
type ObjectData struct {
	Props      []Property
	Ctor       value.Value // constructor reference recorded by CallConstructor, for instanceof
	HasCtor    bool
	Extensible bool
	Frozen     bool
}

func newObjectData() *ObjectData {
	return &ObjectData{Extensible: true}
}

// Get returns the value bound to name and whether it was found.
func (o *ObjectData) Get(name string) (value.Value, bool) {
	for i := range o.Props {
		if o.Props[i].Name == name {
			return o.Props[i].Value, true
		}
	}
	return value.Undefined, false
}

// Set assigns name, overwriting an existing own-property or appending a
// new one at the end (per §3.2's "ordered list of own-properties").
// Returns false without modifying the object if it is frozen or, for a
// new property, not extensible.
func (o *ObjectData) Set(name string, v value.Value) bool {
	for i := range o.Props {
		if o.Props[i].Name == name {
			if o.Frozen {
				return false
			}
			o.Props[i].Value = v
			return true
		}
	}
	if o.Frozen || !o.Extensible {
		return false
	}
	o.Props = append(o.Props, Property{Name: name, Value: v})
	return true
}

// Delete removes an own-property, preserving the order of the rest.
func (o *ObjectData) Delete(name string) bool {
	if o.Frozen {
		return false
	}
	for i := range o.Props {
		if o.Props[i].Name == name {
			o.Props = append(o.Props[:i], o.Props[i+1:]...)
			return true
		}
	}
	return false
}

// Keys returns own-property names in insertion order, the snapshot
// for-in iterates over (spec §3.2, §4.3.2 ForInStart).
func (o *ObjectData) Keys() []string {
	keys := make([]string, len(o.Props))
	for i := range o.Props {
		keys[i] = o.Props[i].Name
	}
	return keys
}

// ArrayData backs value.KindArray. No holes: writes past the end extend
// with Undefined, reads past the end return Undefined (spec §3.2).
type ArrayData struct {
	Elements []value.Value
}

func (a *ArrayData) Get(i int) value.Value {
	if i < 0 || i >= len(a.Elements) {
		return value.Undefined
	}
	return a.Elements[i]
}

func (a *ArrayData) Set(i int, v value.Value) {
	if i < 0 {
		return
	}
	for len(a.Elements) <= i {
		a.Elements = append(a.Elements, value.Undefined)
	}
	a.Elements[i] = v
}

// ClosureData backs value.KindClosure: a compiled-function index (owned
// by the program, not the heap) plus its captured values, snapshotted by
// value at MakeClosure time (spec §3.3, §3.4).
type ClosureData struct {
	FuncIndex uint32
	Captures  []value.Value
}

// ErrorData backs value.KindErrorObject (spec §3.2).
type ErrorData struct {
	Name    string
	Message string
}

// RegExpData backs value.KindRegExp. Matcher holds the external matcher's
// compiled form (an implementation of a Matcher-family interface defined
// in package builtins); the heap package stays agnostic of its shape so
// it has no dependency on the matcher's concrete library.
type RegExpData struct {
	Source  string
	Flags   string
	Matcher any
}

// IteratorData backs value.KindIterator: a materialized snapshot plus a
// cursor. For-in/for-of iterators never react to later mutation of the
// underlying collection (spec §3.2, §9 "Iterators as snapshots").
type IteratorData struct {
	Items []value.Value
	Pos   int
}

func (it *IteratorData) Next() (value.Value, bool) {
	if it.Pos >= len(it.Items) {
		return value.Undefined, false
	}
	v := it.Items[it.Pos]
	it.Pos++
	return v, true
}

// Approximate per-entry byte costs used for the memory-budget accounting
// in spec §5 ("Memory budget"). These are deliberately rough; the goal is
// a monotonic, cheap-to-compute proxy for footprint, not an exact figure.
const (
	bytesPerObjectHeader = 48
	bytesPerProperty     = 24
	bytesPerArrayHeader  = 32
	bytesPerElement      = 16
	bytesPerClosure      = 32
	bytesPerCapture      = 16
	bytesPerError        = 40
	bytesPerRegExp       = 48
	bytesPerIterator     = 24
)

// Heap owns every kind-specific arena. It has no knowledge of the VM's
// operand stack or frames; the collector is driven by roots the caller
// supplies to Collect.
type Heap struct {
	Objects   []*ObjectData
	Arrays    []*ArrayData
	Closures  []*ClosureData
	Strings   []string
	Errors    []*ErrorData
	RegExps   []*RegExpData
	Iterators []*IteratorData

	internedStrings map[string]uint32

	Budget      int64
	collections int
}

// New creates an empty Heap with the given allocation budget in bytes. A
// budget of 0 disables the accounting-triggered collection threshold
// (the caller may still invoke Collect explicitly, e.g. from a host
// gc() call).
func New(budget int64) *Heap {
	return &Heap{
		internedStrings: make(map[string]uint32),
		Budget:          budget,
	}
}

// Stats is the snapshot exposed by the embedding API's memory-usage
// query (spec §4.4.1, CLI -d flag).
type Stats struct {
	Objects     int
	Arrays      int
	Closures    int
	Strings     int
	Errors      int
	RegExps     int
	Iterators   int
	Bytes       int64
	Collections int
}

func (h *Heap) Stats() Stats {
	return Stats{
		Objects:     len(h.Objects),
		Arrays:      len(h.Arrays),
		Closures:    len(h.Closures),
		Strings:     len(h.Strings),
		Errors:      len(h.Errors),
		RegExps:     len(h.RegExps),
		Iterators:   len(h.Iterators),
		Bytes:       h.BytesUsed(),
		Collections: h.collections,
	}
}

// BytesUsed returns the current rough footprint estimate (spec §4.4.1).
func (h *Heap) BytesUsed() int64 {
	var total int64
	for _, o := range h.Objects {
		total += bytesPerObjectHeader + int64(len(o.Props))*bytesPerProperty
	}
	for _, a := range h.Arrays {
		total += bytesPerArrayHeader + int64(len(a.Elements))*bytesPerElement
	}
	for _, c := range h.Closures {
		total += bytesPerClosure + int64(len(c.Captures))*bytesPerCapture
	}
	for _, s := range h.Strings {
		total += int64(len(s))
	}
	total += int64(len(h.Errors)) * bytesPerError
	total += int64(len(h.RegExps)) * bytesPerRegExp
	for _, it := range h.Iterators {
		total += bytesPerIterator + int64(len(it.Items))*bytesPerElement
	}
	return total
}

// OverBudget reports whether the current footprint exceeds the
// configured budget. A zero Budget means "unbounded".
func (h *Heap) OverBudget() bool {
	return h.Budget > 0 && h.BytesUsed() > h.Budget
}

// --- Allocation ---

func (h *Heap) NewObject(ctor value.Value, hasCtor bool) value.Value {
	h.Objects = append(h.Objects, &ObjectData{Extensible: true, Ctor: ctor, HasCtor: hasCtor})
	return value.ObjectRef(uint32(len(h.Objects) - 1))
}

func (h *Heap) Object(v value.Value) *ObjectData { return h.Objects[v.Index()] }

func (h *Heap) NewArray(elements []value.Value) value.Value {
	h.Arrays = append(h.Arrays, &ArrayData{Elements: elements})
	return value.ArrayRef(uint32(len(h.Arrays) - 1))
}

func (h *Heap) Array(v value.Value) *ArrayData { return h.Arrays[v.Index()] }

func (h *Heap) NewClosure(funcIndex uint32, captures []value.Value) value.Value {
	h.Closures = append(h.Closures, &ClosureData{FuncIndex: funcIndex, Captures: captures})
	return value.ClosureRef(uint32(len(h.Closures) - 1))
}

func (h *Heap) Closure(v value.Value) *ClosureData { return h.Closures[v.Index()] }

// NewString always appends a fresh arena slot, used for runtime-computed
// strings (concatenation, coercion) that are unlikely to recur.
func (h *Heap) NewString(s string) value.Value {
	h.Strings = append(h.Strings, s)
	return value.StringRef(uint32(len(h.Strings) - 1))
}

// InternString returns the existing slot for s if one was interned
// before, else allocates and remembers one. Used for property names and
// identifiers (spec §3.2, "strings SHOULD be interned where trivially
// possible").
func (h *Heap) InternString(s string) value.Value {
	if idx, ok := h.internedStrings[s]; ok {
		return value.StringRef(idx)
	}
	v := h.NewString(s)
	h.internedStrings[s] = v.Index()
	return v
}

func (h *Heap) String(v value.Value) string { return h.Strings[v.Index()] }

func (h *Heap) NewErrorObject(name, message string) value.Value {
	h.Errors = append(h.Errors, &ErrorData{Name: name, Message: message})
	return value.ErrorRef(uint32(len(h.Errors) - 1))
}

func (h *Heap) ErrorObject(v value.Value) *ErrorData { return h.Errors[v.Index()] }

func (h *Heap) NewRegExp(source, flags string, matcher any) value.Value {
	h.RegExps = append(h.RegExps, &RegExpData{Source: source, Flags: flags, Matcher: matcher})
	return value.RegExpRef(uint32(len(h.RegExps) - 1))
}

func (h *Heap) RegExp(v value.Value) *RegExpData { return h.RegExps[v.Index()] }

func (h *Heap) NewIterator(items []value.Value) value.Value {
	h.Iterators = append(h.Iterators, &IteratorData{Items: items})
	return value.IteratorRef(uint32(len(h.Iterators) - 1))
}

func (h *Heap) Iterator(v value.Value) *IteratorData { return h.Iterators[v.Index()] }
