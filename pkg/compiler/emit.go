package compiler

import "mqjs/pkg/vm"

// emitJump emits a jump opcode with a placeholder two-byte offset and
// returns the offset to backpatch with Chunk.PatchJump once the target
// is known.
func (c *Compiler) emitJump(op vm.Opcode) int {
	c.emit(op)
	c.chunk().EmitUint16(0)
	return len(c.chunk().Code) - 2
}

// emitLoopBack emits an unconditional jump to a previously recorded
// offset (a loop's condition re-check point), using a negative relative
// offset the same way PatchJump computes forward ones.
func (c *Compiler) emitLoopBack(target int) {
	c.emit(vm.OpJump)
	delta := target - (len(c.chunk().Code) + 2)
	c.chunk().EmitUint16(uint16(int16(delta)))
}

// emitNumber picks the smallest opcode that can represent n, falling
// back to the constant pool for anything outside the compact int8/16
// small-integer encodings (spec §4.2.3's "stack literals").
func (c *Compiler) emitNumber(n float64) {
	if i := int64(n); float64(i) == n {
		switch {
		case i >= 0 && i <= 7:
			c.emit(vm.Opcode(int(vm.OpPushIntSmall0) + int(i)))
			return
		case i >= -128 && i <= 127:
			c.emit(vm.OpPushInt8)
			c.chunk().EmitByte(byte(int8(i)))
			return
		case i >= -32768 && i <= 32767:
			c.emit(vm.OpPushInt16)
			c.chunk().EmitUint16(uint16(int16(i)))
			return
		}
	}
	idx := c.chunk().AddConstant(vm.Constant{Kind: vm.ConstNumber, Num: n})
	c.emit(vm.OpPushConst)
	c.chunk().EmitUint16(uint16(idx))
}

func (c *Compiler) emitString(s string) {
	idx := c.chunk().AddConstant(vm.Constant{Kind: vm.ConstString, Str: s})
	c.emit(vm.OpPushConst)
	c.chunk().EmitUint16(uint16(idx))
}

// emitGetVar resolves name and emits the matching read opcode (spec
// §4.2.2's three-step resolution).
func (c *Compiler) emitGetVar(name string) {
	switch res, idx := resolve(c.scope, name); res {
	case resLocal:
		c.emit(vm.OpGetLocal)
		c.chunk().EmitByte(byte(idx))
	case resCapture:
		c.emit(vm.OpGetCapture)
		c.chunk().EmitByte(byte(idx))
	default:
		gi := c.chunk().AddConstant(vm.Constant{Kind: vm.ConstString, Str: name})
		c.emit(vm.OpGetGlobal)
		c.chunk().EmitUint16(uint16(gi))
	}
}

// emitSetVar resolves name and emits the matching write opcode. An
// unresolved name becomes an implicit global (spec §4.2.2).
func (c *Compiler) emitSetVar(name string) {
	switch res, idx := resolve(c.scope, name); res {
	case resLocal:
		c.emit(vm.OpSetLocal)
		c.chunk().EmitByte(byte(idx))
	case resCapture:
		c.emit(vm.OpSetCapture)
		c.chunk().EmitByte(byte(idx))
	default:
		gi := c.chunk().AddConstant(vm.Constant{Kind: vm.ConstString, Str: name})
		c.emit(vm.OpSetGlobal)
		c.chunk().EmitUint16(uint16(gi))
	}
}

// emitMakeClosure emits MakeClosure for a just-compiled inner function,
// followed by its capture descriptor list inline in the instruction
// stream (spec §4.2.4).
func (c *Compiler) emitMakeClosure(inner *vm.Function, captures []vm.CaptureDesc) {
	idx := c.chunk().AddConstant(vm.Constant{Kind: vm.ConstFunction, Func: inner})
	c.emit(vm.OpMakeClosure)
	c.chunk().EmitUint16(uint16(idx))
	c.chunk().EmitByte(byte(len(captures)))
	for _, cap := range captures {
		if cap.IsLocal {
			c.chunk().EmitByte(1)
		} else {
			c.chunk().EmitByte(0)
		}
		c.chunk().EmitByte(byte(cap.OuterSlot))
	}
}

func newLoop(enclosing *loopContext, isSwitch bool) *loopContext {
	return &loopContext{enclosing: enclosing, continueDest: -1, isSwitch: isSwitch}
}

func (c *Compiler) pushLoop(isSwitch bool) *loopContext {
	l := newLoop(c.loop, isSwitch)
	c.loop = l
	return l
}

func (c *Compiler) popLoop() {
	c.loop = c.loop.enclosing
}

// patchBreaks backpatches every break recorded in l to jump to the
// current chunk end (the loop/switch's exit point).
func (c *Compiler) patchBreaks(l *loopContext) {
	for _, off := range l.breakJumps {
		c.chunk().PatchJump(off)
	}
}

// nearestLoop finds the nearest enclosing loop (skipping switch
// contexts, which only catch `break`, not `continue`).
func (c *Compiler) nearestLoop() *loopContext {
	for l := c.loop; l != nil; l = l.enclosing {
		if !l.isSwitch {
			return l
		}
	}
	return nil
}
