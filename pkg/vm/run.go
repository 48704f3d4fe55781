package vm

import "mqjs/pkg/value"

func (m *VM) readByte(f *Frame) byte {
	b := f.Fn.Chunk.Code[f.IP]
	f.IP++
	return b
}

func (m *VM) readUint16(f *Frame) uint16 {
	hi := m.readByte(f)
	lo := m.readByte(f)
	return uint16(hi)<<8 | uint16(lo)
}

func (m *VM) readInt8(f *Frame) int8 { return int8(m.readByte(f)) }

// jumpTarget reads a two-byte relative offset (the encoding
// Chunk.PatchJump produces) and returns the absolute instruction offset
// it lands on.
func (m *VM) jumpTarget(f *Frame) int {
	delta := int16(m.readUint16(f))
	return f.IP + int(delta)
}

// popArgs pops argc values off the operand stack and returns them in
// call order (the stack holds them with the last argument on top).
func (m *VM) popArgs(argc int) []value.Value {
	args := make([]value.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = m.pop()
	}
	return args
}

// raise attempts to unwind to a handler within the current loop()
// invocation. On success it returns true and the loop should continue
// dispatching; on failure the caller must return tv up through Go.
func (m *VM) raise(tv *ThrownValue, floor int) bool {
	return m.unwindToHandler(tv.Val, floor)
}

// loop is the VM's single dispatch loop. floor is the frame depth this
// invocation owns (len(m.frames) immediately after the frame that
// started it was pushed); a JS-to-JS call never recurses into a second
// loop() call, only a native function calling back into script does
// (spec §4.3.1's "stackless" call-frame design).
func (m *VM) loop(floor int) (value.Value, *ThrownValue) {
	for {
		if len(m.frames) < floor {
			// Every frame this invocation owns already returned.
			return m.pop(), nil
		}
		f := m.currentFrame()

		if m.Interrupt != nil {
			m.steps++
			if m.steps%interruptPollInterval == 0 && m.Interrupt() {
				return value.Undefined, &ThrownValue{Val: m.Heap.NewErrorObject("InterruptError", "execution interrupted")}
			}
		}

		op := Opcode(m.readByte(f))
		switch op {
		case OpPushUndefined:
			m.push(value.Undefined)
		case OpPushNull:
			m.push(value.Null)
		case OpPushTrue:
			m.push(value.True)
		case OpPushFalse:
			m.push(value.False)
		case OpPushIntSmall0, OpPushIntSmall1, OpPushIntSmall2, OpPushIntSmall3,
			OpPushIntSmall4, OpPushIntSmall5, OpPushIntSmall6, OpPushIntSmall7:
			m.push(value.Int31(int32(op - OpPushIntSmall0)))
		case OpPushInt8:
			m.push(value.Int31(int32(m.readInt8(f))))
		case OpPushInt16:
			m.push(value.Int31(int32(int16(m.readUint16(f)))))
		case OpPushConst:
			ct := f.Fn.Chunk.Constants[m.readUint16(f)]
			switch ct.Kind {
			case ConstNumber:
				m.push(numberResult(ct.Num))
			case ConstString:
				m.push(m.Heap.InternString(ct.Str))
			}

		case OpPop:
			m.pop()
		case OpDup:
			m.push(m.peek(0))
		case OpSwap:
			a, b := m.pop(), m.pop()
			m.push(a)
			m.push(b)

		case OpGetLocal:
			m.push(f.Locals[m.readByte(f)])
		case OpSetLocal:
			f.Locals[m.readByte(f)] = m.peek(0)
		case OpGetCapture:
			m.push(f.Captures[m.readByte(f)])
		case OpSetCapture:
			f.Captures[m.readByte(f)] = m.peek(0)
		case OpGetGlobal:
			name := f.Fn.Chunk.Constants[m.readUint16(f)].Str
			v, ok := m.Globals[name]
			if !ok && m.Builtins != nil {
				v, ok = m.Builtins.Global(name)
			}
			if !ok {
				tv := m.throwReferenceError(name + " is not defined")
				if !m.raise(tv, floor) {
					return value.Undefined, tv
				}
				continue
			}
			m.push(v)
		case OpSetGlobal:
			name := f.Fn.Chunk.Constants[m.readUint16(f)].Str
			m.Globals[name] = m.peek(0)

		case OpAdd:
			b, a := m.pop(), m.pop()
			m.push(m.add(a, b))
			m.maybeCollect()
		case OpSub:
			b, a := m.pop(), m.pop()
			m.push(m.sub(a, b))
		case OpMul:
			b, a := m.pop(), m.pop()
			m.push(m.mul(a, b))
		case OpDiv:
			b, a := m.pop(), m.pop()
			m.push(m.div(a, b))
		case OpMod:
			b, a := m.pop(), m.pop()
			m.push(m.mod(a, b))
		case OpPow:
			b, a := m.pop(), m.pop()
			m.push(m.pow(a, b))
		case OpNeg:
			m.push(m.neg(m.pop()))
		case OpNot:
			m.push(value.Bool(!m.Truthy(m.pop())))
		case OpBitAnd:
			b, a := m.pop(), m.pop()
			m.push(m.bitAnd(a, b))
		case OpBitOr:
			b, a := m.pop(), m.pop()
			m.push(m.bitOr(a, b))
		case OpBitXor:
			b, a := m.pop(), m.pop()
			m.push(m.bitXor(a, b))
		case OpBitNot:
			m.push(m.bitNot(m.pop()))
		case OpShl:
			b, a := m.pop(), m.pop()
			m.push(m.shl(a, b))
		case OpSar:
			b, a := m.pop(), m.pop()
			m.push(m.sar(a, b))
		case OpShr:
			b, a := m.pop(), m.pop()
			m.push(m.shr(a, b))

		case OpLt:
			b, a := m.pop(), m.pop()
			m.push(m.lessThan(a, b))
		case OpLe:
			b, a := m.pop(), m.pop()
			m.push(m.lessEqual(a, b))
		case OpGt:
			b, a := m.pop(), m.pop()
			m.push(m.greaterThan(a, b))
		case OpGe:
			b, a := m.pop(), m.pop()
			m.push(m.greaterEqual(a, b))
		case OpEq:
			b, a := m.pop(), m.pop()
			m.push(value.Bool(m.looseEqual(a, b)))
		case OpNe:
			b, a := m.pop(), m.pop()
			m.push(value.Bool(!m.looseEqual(a, b)))
		case OpStrictEq:
			b, a := m.pop(), m.pop()
			m.push(value.Bool(m.strictEqual(a, b)))
		case OpStrictNe:
			b, a := m.pop(), m.pop()
			m.push(value.Bool(!m.strictEqual(a, b)))

		case OpJump:
			f.IP = m.jumpTarget(f)
		case OpJumpIfFalse:
			target := m.jumpTarget(f)
			if !m.Truthy(m.pop()) {
				f.IP = target
			}
		case OpJumpIfTrue:
			target := m.jumpTarget(f)
			if m.Truthy(m.pop()) {
				f.IP = target
			}

		case OpCall:
			argc := int(m.readByte(f))
			args := m.popArgs(argc)
			fn := m.pop()
			result, thrown, started := m.dispatchCall(fn, value.Undefined, args, false)
			if thrown != nil {
				if !m.raise(thrown, floor) {
					return value.Undefined, thrown
				}
				continue
			}
			if !started {
				m.push(result)
			}
		case OpCallMethod:
			argc := int(m.readByte(f))
			args := m.popArgs(argc)
			fn := m.pop()
			this := m.pop()
			result, thrown, started := m.dispatchCall(fn, this, args, false)
			if thrown != nil {
				if !m.raise(thrown, floor) {
					return value.Undefined, thrown
				}
				continue
			}
			if !started {
				m.push(result)
			}
		case OpCallConstructor:
			argc := int(m.readByte(f))
			args := m.popArgs(argc)
			ctor := m.pop()
			result, thrown, started := m.constructNew(ctor, args)
			if thrown != nil {
				if !m.raise(thrown, floor) {
					return value.Undefined, thrown
				}
				continue
			}
			if !started {
				m.push(result)
			}
		case OpReturn:
			retVal := m.pop()
			done := m.frames[len(m.frames)-1]
			m.frames = m.frames[:len(m.frames)-1]
			if done.IsConstructor && retVal.Kind() != value.KindObject && retVal.Kind() != value.KindArray {
				retVal = done.ThisVal
			}
			if len(m.frames) < floor {
				return retVal, nil
			}
			m.push(retVal)
			m.maybeCollect()

		case OpMakeArray:
			count := int(m.readUint16(f))
			elems := make([]value.Value, count)
			for i := count - 1; i >= 0; i-- {
				elems[i] = m.pop()
			}
			m.push(m.Heap.NewArray(elems))
			m.maybeCollect()
		case OpMakeObject:
			m.push(m.Heap.NewObject(value.Undefined, false))
			m.maybeCollect()
		case OpGetElem:
			key, base := m.pop(), m.pop()
			result, thrown := m.getField(base, m.ToDisplayString(key))
			if thrown != nil {
				if !m.raise(thrown, floor) {
					return value.Undefined, thrown
				}
				continue
			}
			m.push(result)
		case OpSetElem:
			val, key, base := m.pop(), m.pop(), m.pop()
			if thrown := m.setField(base, m.ToDisplayString(key), val); thrown != nil {
				if !m.raise(thrown, floor) {
					return value.Undefined, thrown
				}
				continue
			}
			m.push(val)
		case OpGetField:
			name := f.Fn.Chunk.Constants[m.readUint16(f)].Str
			base := m.pop()
			result, thrown := m.getField(base, name)
			if thrown != nil {
				if !m.raise(thrown, floor) {
					return value.Undefined, thrown
				}
				continue
			}
			m.push(result)
		case OpGetFieldKeepBase:
			name := f.Fn.Chunk.Constants[m.readUint16(f)].Str
			base := m.peek(0)
			result, thrown := m.getField(base, name)
			if thrown != nil {
				if !m.raise(thrown, floor) {
					return value.Undefined, thrown
				}
				continue
			}
			m.push(result)
		case OpSetField:
			name := f.Fn.Chunk.Constants[m.readUint16(f)].Str
			val, base := m.pop(), m.pop()
			if thrown := m.setField(base, name, val); thrown != nil {
				if !m.raise(thrown, floor) {
					return value.Undefined, thrown
				}
				continue
			}
			m.push(val)
		case OpDeleteField:
			name := f.Fn.Chunk.Constants[m.readUint16(f)].Str
			base := m.pop()
			m.push(m.deleteField(base, name))
		case OpDeleteElem:
			key, base := m.pop(), m.pop()
			m.push(m.deleteField(base, m.ToDisplayString(key)))
		case OpIn:
			obj, key := m.pop(), m.pop()
			result, thrown := m.opIn(key, obj)
			if thrown != nil {
				if !m.raise(thrown, floor) {
					return value.Undefined, thrown
				}
				continue
			}
			m.push(result)
		case OpInstanceOf:
			ctor, val := m.pop(), m.pop()
			result, thrown := m.instanceOf(val, ctor)
			if thrown != nil {
				if !m.raise(thrown, floor) {
					return value.Undefined, thrown
				}
				continue
			}
			m.push(result)
		case OpGetThis:
			m.push(f.ThisVal)
		case OpPushRegex:
			ct := f.Fn.Chunk.Constants[m.readUint16(f)]
			var matcher any
			if m.Builtins != nil {
				compiled, err := m.Builtins.CompileRegex(ct.Str, ct.Flags)
				if err != nil {
					tv := m.throwSyntaxError("invalid regular expression: " + err.Error())
					if !m.raise(tv, floor) {
						return value.Undefined, tv
					}
					continue
				}
				matcher = compiled
			}
			m.push(m.Heap.NewRegExp(ct.Str, ct.Flags, matcher))

		case OpMakeClosure:
			ct := f.Fn.Chunk.Constants[m.readUint16(f)]
			captureCount := int(m.readByte(f))
			captures := make([]CaptureDesc, captureCount)
			for i := range captures {
				isLocal := m.readByte(f) == 1
				slot := int(m.readByte(f))
				captures[i] = CaptureDesc{OuterSlot: slot, IsLocal: isLocal}
			}
			m.push(m.makeClosure(f, ct.Func.FuncIndex, captures))
			m.maybeCollect()

		case OpPushHandler:
			target := m.jumpTarget(f)
			m.pushHandler(target)
		case OpPopHandler:
			m.popHandler()
		case OpThrow:
			tv := &ThrownValue{Val: m.pop()}
			if !m.raise(tv, floor) {
				return value.Undefined, tv
			}

		case OpForInStart:
			obj := m.pop()
			m.push(m.Heap.NewIterator(m.forInKeys(obj)))
			m.maybeCollect()
		case OpForOfStart:
			iterable := m.pop()
			items, thrown := m.forOfItems(iterable)
			if thrown != nil {
				if !m.raise(thrown, floor) {
					return value.Undefined, thrown
				}
				continue
			}
			m.push(m.Heap.NewIterator(items))
			m.maybeCollect()
		case OpIterNext:
			it := m.Heap.Iterator(m.pop())
			if item, ok := it.Next(); ok {
				m.push(item)
				m.push(value.True)
			} else {
				m.push(value.False)
			}

		case OpTypeOf:
			m.push(m.Heap.InternString(m.pop().TypeOf()))

		default:
			tv := m.throwTypeError("unknown opcode")
			if !m.raise(tv, floor) {
				return value.Undefined, tv
			}
		}
	}
}
