package heap

import "mqjs/pkg/value"

// Remap carries the old-index -> new-index table produced by a
// collection, per kind, so a caller holding Values outside the heap
// (the VM's operand stack, frame locals, closures reachable from frames,
// the globals map, and reachable bytecode functions' constant pools —
// spec §4.4 "Roots") can rewrite them to match the compacted arenas. A
// negative entry means the slot was not reachable and was dropped.
type Remap struct {
	objects   []int32
	arrays    []int32
	closures  []int32
	strings   []int32
	errors    []int32
	regexps   []int32
	iterators []int32
}

// Rewrite returns v with its arena index updated per the remap, or v
// unchanged if its Kind is not heap-indexed. Rewriting a Value whose old
// index was not reachable from the roots passed to Collect is a caller
// bug (the value should not have existed outside the roots); Rewrite
// returns value.Undefined in that case rather than panicking, so a stray
// reference degrades instead of crashing the VM.
func (r *Remap) Rewrite(v value.Value) value.Value {
	switch v.Kind() {
	case value.KindObject:
		return remapOne(r.objects, v, value.ObjectRef)
	case value.KindArray:
		return remapOne(r.arrays, v, value.ArrayRef)
	case value.KindClosure:
		return remapOne(r.closures, v, value.ClosureRef)
	case value.KindString:
		return remapOne(r.strings, v, value.StringRef)
	case value.KindErrorObject:
		return remapOne(r.errors, v, value.ErrorRef)
	case value.KindRegExp:
		return remapOne(r.regexps, v, value.RegExpRef)
	case value.KindIterator:
		return remapOne(r.iterators, v, value.IteratorRef)
	default:
		return v
	}
}

func remapOne(table []int32, v value.Value, ctor func(uint32) value.Value) value.Value {
	idx := v.Index()
	if int(idx) >= len(table) || table[idx] < 0 {
		return value.Undefined
	}
	return ctor(uint32(table[idx]))
}

type marker struct {
	objects   []bool
	arrays    []bool
	closures  []bool
	strings   []bool
	errors    []bool
	regexps   []bool
	iterators []bool
}

// Collect runs one mark-compact cycle: mark every entry reachable from
// roots (transitively, through object properties, array elements,
// closure captures, and materialized iterator buffers), slide each
// arena's live entries to the front, and return the index remapping so
// the caller can fix up its own roots (spec §4.4). Collect must only be
// invoked at a safe point between opcode dispatches, since the VM holds
// no raw pointers into these arenas across an opcode — only the indices
// this function is about to rewrite.
func (h *Heap) Collect(roots []value.Value) *Remap {
	m := &marker{
		objects:   make([]bool, len(h.Objects)),
		arrays:    make([]bool, len(h.Arrays)),
		closures:  make([]bool, len(h.Closures)),
		strings:   make([]bool, len(h.Strings)),
		errors:    make([]bool, len(h.Errors)),
		regexps:   make([]bool, len(h.RegExps)),
		iterators: make([]bool, len(h.Iterators)),
	}

	worklist := append([]value.Value(nil), roots...)
	for len(worklist) > 0 {
		v := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		switch v.Kind() {
		case value.KindObject:
			idx := v.Index()
			if m.objects[idx] {
				continue
			}
			m.objects[idx] = true
			obj := h.Objects[idx]
			for _, p := range obj.Props {
				worklist = append(worklist, p.Value)
			}
			if obj.HasCtor {
				worklist = append(worklist, obj.Ctor)
			}
		case value.KindArray:
			idx := v.Index()
			if m.arrays[idx] {
				continue
			}
			m.arrays[idx] = true
			worklist = append(worklist, h.Arrays[idx].Elements...)
		case value.KindClosure:
			idx := v.Index()
			if m.closures[idx] {
				continue
			}
			m.closures[idx] = true
			worklist = append(worklist, h.Closures[idx].Captures...)
		case value.KindString:
			m.strings[v.Index()] = true
		case value.KindErrorObject:
			m.errors[v.Index()] = true
		case value.KindRegExp:
			m.regexps[v.Index()] = true
		case value.KindIterator:
			idx := v.Index()
			if m.iterators[idx] {
				continue
			}
			m.iterators[idx] = true
			worklist = append(worklist, h.Iterators[idx].Items...)
		}
	}

	remap := &Remap{
		objects:   compactTable(m.objects),
		arrays:    compactTable(m.arrays),
		closures:  compactTable(m.closures),
		strings:   compactTable(m.strings),
		errors:    compactTable(m.errors),
		regexps:   compactTable(m.regexps),
		iterators: compactTable(m.iterators),
	}

	h.Objects = compactObjects(h.Objects, m.objects, remap)
	h.Arrays = compactArrays(h.Arrays, m.arrays, remap)
	h.Closures = compactClosures(h.Closures, m.closures, remap)
	h.Strings = compactStrings(h.Strings, m.strings)
	h.Errors = compactSlice(h.Errors, m.errors)
	h.RegExps = compactSlice(h.RegExps, m.regexps)
	h.Iterators = compactIterators(h.Iterators, m.iterators, remap)

	rebuildInternTable(h)
	h.collections++
	return remap
}

// compactTable turns a mark bitmap into an old->new index table, -1 for
// dead entries.
func compactTable(marked []bool) []int32 {
	table := make([]int32, len(marked))
	next := int32(0)
	for i, live := range marked {
		if live {
			table[i] = next
			next++
		} else {
			table[i] = -1
		}
	}
	return table
}

func compactObjects(objs []*ObjectData, marked []bool, remap *Remap) []*ObjectData {
	out := make([]*ObjectData, 0, len(objs))
	for i, o := range objs {
		if !marked[i] {
			continue
		}
		for j := range o.Props {
			o.Props[j].Value = remap.Rewrite(o.Props[j].Value)
		}
		if o.HasCtor {
			o.Ctor = remap.Rewrite(o.Ctor)
		}
		out = append(out, o)
	}
	return out
}

func compactArrays(arrs []*ArrayData, marked []bool, remap *Remap) []*ArrayData {
	out := make([]*ArrayData, 0, len(arrs))
	for i, a := range arrs {
		if !marked[i] {
			continue
		}
		for j := range a.Elements {
			a.Elements[j] = remap.Rewrite(a.Elements[j])
		}
		out = append(out, a)
	}
	return out
}

func compactClosures(cls []*ClosureData, marked []bool, remap *Remap) []*ClosureData {
	out := make([]*ClosureData, 0, len(cls))
	for i, c := range cls {
		if !marked[i] {
			continue
		}
		for j := range c.Captures {
			c.Captures[j] = remap.Rewrite(c.Captures[j])
		}
		out = append(out, c)
	}
	return out
}

func compactIterators(its []*IteratorData, marked []bool, remap *Remap) []*IteratorData {
	out := make([]*IteratorData, 0, len(its))
	for i, it := range its {
		if !marked[i] {
			continue
		}
		for j := range it.Items {
			it.Items[j] = remap.Rewrite(it.Items[j])
		}
		out = append(out, it)
	}
	return out
}

func compactStrings(strs []string, marked []bool) []string {
	out := make([]string, 0, len(strs))
	for i, s := range strs {
		if marked[i] {
			out = append(out, s)
		}
	}
	return out
}

func compactSlice[T any](items []*T, marked []bool) []*T {
	out := make([]*T, 0, len(items))
	for i, it := range items {
		if marked[i] {
			out = append(out, it)
		}
	}
	return out
}

// rebuildInternTable re-derives the string-interning map from the
// compacted Strings arena. It is small enough (property names and
// identifiers, not general runtime strings) to just re-scan.
func rebuildInternTable(h *Heap) {
	table := make(map[string]uint32, len(h.internedStrings))
	for idx, s := range h.Strings {
		if _, exists := table[s]; !exists {
			table[s] = uint32(idx)
		}
	}
	h.internedStrings = table
}
