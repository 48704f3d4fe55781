package compiler

import (
	"strconv"

	"mqjs/pkg/lexer"
	"mqjs/pkg/vm"
)

// compileStatement dispatches on the current token to the matching
// statement-level parse function (spec §4.2, statement parser half of
// the compiler). It reports whether it compiled a bare expression
// statement, leaving that expression's value on the stack instead of
// popping it. Every caller except the top-level program loop must
// discard that value itself (see compileStatementDiscard); only a
// program's true final statement keeps its value as the completion
// value.
func (c *Compiler) compileStatement() bool {
	switch c.cur.Type {
	case lexer.LBRACE:
		c.parseBlock()
	case lexer.VAR, lexer.LET, lexer.CONST:
		c.parseVarDecl(c.cur.Type)
	case lexer.FUNCTION:
		c.parseFunctionDecl()
	case lexer.IF:
		c.parseIf()
	case lexer.WHILE:
		c.parseWhile()
	case lexer.DO:
		c.parseDoWhile()
	case lexer.FOR:
		c.parseFor()
	case lexer.RETURN:
		c.compileReturn()
	case lexer.BREAK:
		c.compileBreak()
	case lexer.CONTINUE:
		c.compileContinue()
	case lexer.THROW:
		c.compileThrow()
	case lexer.TRY:
		c.parseTry()
	case lexer.SWITCH:
		c.parseSwitch()
	case lexer.SEMICOLON:
		c.next()
	default:
		c.parseExpression(precLowest)
		c.semicolon()
		return true
	}
	return false
}

// compileStatementDiscard compiles one statement and pops any
// expression-statement value it left on the stack, the normal
// (non-completion-value) statement semantics every nested statement
// position uses.
func (c *Compiler) compileStatementDiscard() {
	if c.compileStatement() {
		c.emit(vm.OpPop)
	}
}

func (c *Compiler) semicolon() {
	if c.curIs(lexer.SEMICOLON) {
		c.next()
		return
	}
	if c.curIs(lexer.RBRACE) || c.curIs(lexer.EOF) {
		return
	}
	c.errorf("expected ';', got %s", c.cur.Type)
}

func (c *Compiler) parseBlock() {
	c.expect(lexer.LBRACE)
	prevBlockID := c.scope.enterBlock()
	c.hoistFunctionDecls(true)
	for !c.curIs(lexer.RBRACE) && !c.curIs(lexer.EOF) {
		c.compileStatementDiscard()
	}
	c.scope.exitBlock(prevBlockID)
	c.expect(lexer.RBRACE)
}

func (c *Compiler) parseVarDecl(kind lexer.TokenType) {
	c.next()
	for {
		if !c.curIs(lexer.IDENT) {
			c.errorf("expected identifier in declaration, got %s", c.cur.Type)
			return
		}
		name := c.cur.Literal
		c.next()
		blockID := 0
		if kind != lexer.VAR {
			blockID = c.scope.blockID
		}
		slot := c.scope.declare(name, blockID)
		if c.curIs(lexer.ASSIGN) {
			c.next()
			c.parseExpression(precAssign)
		} else {
			c.emit(vm.OpPushUndefined)
		}
		c.emit(vm.OpSetLocal)
		c.chunk().EmitByte(byte(slot))
		c.emit(vm.OpPop)
		if c.curIs(lexer.COMMA) {
			c.next()
			continue
		}
		break
	}
	c.semicolon()
}

// compileFunctionBody compiles a function literal's parameter list and
// body into a new vm.Function, resolving free variables against the
// enclosing scope chain (spec §4.2.4). c.cur must be the '(' opening the
// parameter list.
func (c *Compiler) compileFunctionBody(name string) *vm.Function {
	inner := &vm.Function{Name: name, Chunk: vm.NewChunk()}
	inner.FuncIndex = uint32(len(c.program.Functions))
	c.program.Functions = append(c.program.Functions, inner)

	outerScope, outerLoop := c.scope, c.loop
	c.scope = newFuncScope(outerScope)
	c.scope.fn = inner
	c.loop = nil

	c.expect(lexer.LPAREN)
	arity := 0
	if !c.curIs(lexer.RPAREN) {
		for {
			if !c.curIs(lexer.IDENT) {
				c.errorf("expected parameter name, got %s", c.cur.Type)
				break
			}
			c.scope.declare(c.cur.Literal, 0)
			arity++
			c.next()
			if c.curIs(lexer.COMMA) {
				c.next()
				continue
			}
			break
		}
	}
	c.expect(lexer.RPAREN)
	inner.Arity = arity

	c.expect(lexer.LBRACE)
	c.hoistFunctionDecls(true)
	for !c.curIs(lexer.RBRACE) && !c.curIs(lexer.EOF) {
		c.compileStatementDiscard()
	}
	c.expect(lexer.RBRACE)

	c.emit(vm.OpPushUndefined)
	c.emit(vm.OpReturn)

	inner.MaxLocals = c.scope.maxSlot
	inner.Captures = c.scope.captures

	c.scope, c.loop = outerScope, outerLoop
	return inner
}

func (c *Compiler) parseFunctionExpr() {
	c.next() // consume 'function'
	name := ""
	if c.curIs(lexer.IDENT) {
		name = c.cur.Literal
		c.next()
	}
	inner := c.compileFunctionBody(name)
	c.emitMakeClosure(inner, inner.Captures)
}

// parseFunctionDecl declares the binding before compiling the body, so
// the function can call itself by name from inside (spec §4.2.4's
// "hoisted... stored in the local slot bound to foo"). hoistFunctionDecls
// already ran this same declaration once, ahead of the rest of the
// block, for every case reachable through the normal statement loop
// (sibling function declarations sitting directly in the block); when
// that's true the name already resolves to a local and this second,
// textual-position encounter only needs to skip over the already-
// materialized body.
func (c *Compiler) parseFunctionDecl() {
	c.next()
	if !c.curIs(lexer.IDENT) {
		c.errorf("function declaration requires a name")
		return
	}
	name := c.cur.Literal
	c.next()
	if _, hoisted := c.scope.findLocal(name); hoisted {
		c.skipFunctionBody()
		return
	}
	slot := c.scope.declare(name, 0)
	inner := c.compileFunctionBody(name)
	c.emitMakeClosure(inner, inner.Captures)
	c.emit(vm.OpSetLocal)
	c.chunk().EmitByte(byte(slot))
	c.emit(vm.OpPop)
}

// skipFunctionBody consumes a function declaration's parameter list and
// body without compiling it, for the textual-position encounter of a
// declaration hoistFunctionDecls already materialized.
func (c *Compiler) skipFunctionBody() {
	c.expect(lexer.LPAREN)
	for !c.curIs(lexer.RPAREN) && !c.curIs(lexer.EOF) {
		c.next()
	}
	c.expect(lexer.RPAREN)
	c.expect(lexer.LBRACE)
	depth := 1
	for depth > 0 && !c.curIs(lexer.EOF) {
		switch c.cur.Type {
		case lexer.LBRACE:
			depth++
		case lexer.RBRACE:
			depth--
		}
		c.next()
	}
}

// hoistFunctionDecls scans ahead for `function name(...) {...}`
// declarations that sit directly in the block about to be compiled (not
// nested inside a further if/while/block) and compiles each one's
// closure immediately, before the rest of the block, so mutually
// recursive top-level functions can call each other regardless of
// which one is declared first (spec §4.2.4, closures "materialized at
// function-entry"). It walks the real token stream via parseFunctionDecl
// itself, then rewinds the lexer to the block's start so the normal
// statement loop encounters the same declarations again at their
// textual position, where parseFunctionDecl recognizes the slot already
// exists and skips past the body instead of recompiling it.
//
// Only `;`, `{`, and `}` mark a statement boundary, so a named function
// expression like `var f = function foo(){}` is left alone (FUNCTION
// isn't the first token of a statement there).
func (c *Compiler) hoistFunctionDecls(stopAtRBrace bool) {
	savedLex := *c.lex
	savedCur, savedPeek := c.cur, c.peek

	depth := 0
	atStmtStart := true
	for !c.curIs(lexer.EOF) {
		if depth == 0 && stopAtRBrace && c.curIs(lexer.RBRACE) {
			break
		}
		switch c.cur.Type {
		case lexer.LBRACE:
			depth++
			atStmtStart = true
			c.next()
			continue
		case lexer.RBRACE:
			if depth > 0 {
				depth--
			}
			atStmtStart = true
			c.next()
			continue
		case lexer.SEMICOLON:
			atStmtStart = true
			c.next()
			continue
		case lexer.FUNCTION:
			if depth == 0 && atStmtStart && c.peekIs(lexer.IDENT) {
				c.parseFunctionDecl()
				atStmtStart = true
				continue
			}
		}
		atStmtStart = false
		c.next()
	}

	restored := savedLex
	c.lex = &restored
	c.cur, c.peek = savedCur, savedPeek
}

func (c *Compiler) parseIf() {
	c.next()
	c.expect(lexer.LPAREN)
	c.parseExpression(precLowest)
	c.expect(lexer.RPAREN)
	elseJump := c.emitJump(vm.OpJumpIfFalse)
	c.compileStatementDiscard()
	if c.curIs(lexer.ELSE) {
		endJump := c.emitJump(vm.OpJump)
		c.chunk().PatchJump(elseJump)
		c.next()
		c.compileStatementDiscard()
		c.chunk().PatchJump(endJump)
		return
	}
	c.chunk().PatchJump(elseJump)
}

func (c *Compiler) parseWhile() {
	c.next()
	c.expect(lexer.LPAREN)
	loopStart := len(c.chunk().Code)
	c.parseExpression(precLowest)
	c.expect(lexer.RPAREN)
	exitJump := c.emitJump(vm.OpJumpIfFalse)
	loop := c.pushLoop(false)
	loop.continueDest = loopStart
	c.compileStatementDiscard()
	c.emitLoopBack(loopStart)
	c.chunk().PatchJump(exitJump)
	c.patchBreaks(loop)
	c.popLoop()
}

func (c *Compiler) parseDoWhile() {
	c.next() // consume 'do'
	loopStart := len(c.chunk().Code)
	loop := c.pushLoop(false)
	loop.continueDest = -1
	c.compileStatementDiscard()
	for _, off := range loop.continuePatch {
		c.chunk().PatchJump(off)
	}
	c.expect(lexer.WHILE)
	c.expect(lexer.LPAREN)
	c.parseExpression(precLowest)
	c.expect(lexer.RPAREN)
	c.semicolon()
	c.emit(vm.OpJumpIfTrue)
	delta := loopStart - (len(c.chunk().Code) + 2)
	c.chunk().EmitUint16(uint16(int16(delta)))
	c.patchBreaks(loop)
	c.popLoop()
}

func (c *Compiler) parseFor() {
	c.next() // consume 'for'
	c.expect(lexer.LPAREN)
	prevBlockID := c.scope.enterBlock()

	if c.curIs(lexer.VAR) || c.curIs(lexer.LET) || c.curIs(lexer.CONST) {
		kind := c.cur.Type
		c.next()
		if !c.curIs(lexer.IDENT) {
			c.errorf("expected identifier after %s", kind)
			return
		}
		name := c.cur.Literal
		c.next()
		blockID := 0
		if kind != lexer.VAR {
			blockID = c.scope.blockID
		}

		if c.curIs(lexer.IN) || c.curIs(lexer.OF) {
			isOf := c.curIs(lexer.OF)
			c.next()
			slot := c.scope.declare(name, blockID)
			c.parseForInOf(isOf, slot)
			c.scope.exitBlock(prevBlockID)
			return
		}

		slot := c.scope.declare(name, blockID)
		if c.curIs(lexer.ASSIGN) {
			c.next()
			c.parseExpression(precAssign)
		} else {
			c.emit(vm.OpPushUndefined)
		}
		c.emit(vm.OpSetLocal)
		c.chunk().EmitByte(byte(slot))
		c.emit(vm.OpPop)
		for c.curIs(lexer.COMMA) {
			c.next()
			if !c.curIs(lexer.IDENT) {
				c.errorf("expected identifier, got %s", c.cur.Type)
				break
			}
			n2 := c.cur.Literal
			c.next()
			s2 := c.scope.declare(n2, blockID)
			if c.curIs(lexer.ASSIGN) {
				c.next()
				c.parseExpression(precAssign)
			} else {
				c.emit(vm.OpPushUndefined)
			}
			c.emit(vm.OpSetLocal)
			c.chunk().EmitByte(byte(s2))
			c.emit(vm.OpPop)
		}
		c.expect(lexer.SEMICOLON)
		c.finishClassicFor(prevBlockID)
		return
	}

	if !c.curIs(lexer.SEMICOLON) {
		c.parseExpression(precLowest)
		c.emit(vm.OpPop)
	}
	c.expect(lexer.SEMICOLON)
	c.finishClassicFor(prevBlockID)
}

// finishClassicFor compiles the condition, backpatches the update clause
// to run after the body (the standard init/jump-over/increment/loopback
// desugaring), then compiles the body (spec §4.2.3, backpatched jumps).
func (c *Compiler) finishClassicFor(prevBlockID int) {
	loopStart := len(c.chunk().Code)
	exitJump := -1
	if !c.curIs(lexer.SEMICOLON) {
		c.parseExpression(precLowest)
		exitJump = c.emitJump(vm.OpJumpIfFalse)
	}
	c.expect(lexer.SEMICOLON)

	if !c.curIs(lexer.RPAREN) {
		bodyJump := c.emitJump(vm.OpJump)
		incrementStart := len(c.chunk().Code)
		c.parseExpression(precLowest)
		c.emit(vm.OpPop)
		c.expect(lexer.RPAREN)
		c.emitLoopBack(loopStart)
		loopStart = incrementStart
		c.chunk().PatchJump(bodyJump)
	} else {
		c.next()
	}

	loop := c.pushLoop(false)
	loop.continueDest = loopStart
	c.compileStatementDiscard()
	c.emitLoopBack(loopStart)
	if exitJump != -1 {
		c.chunk().PatchJump(exitJump)
	}
	c.patchBreaks(loop)
	c.popLoop()
	c.scope.exitBlock(prevBlockID)
}

// parseForInOf compiles `for (var/let/const name in/of iterable) body`
// using the ForInStart/ForOfStart + IterNext opcode pair over a snapshot
// iterator (spec §9, "iterators as snapshots").
func (c *Compiler) parseForInOf(isOf bool, varSlot int) {
	c.parseExpression(precAssign)
	if isOf {
		c.emit(vm.OpForOfStart)
	} else {
		c.emit(vm.OpForInStart)
	}
	c.iterCounter++
	iterSlot := c.scope.declare("@iter"+strconv.Itoa(c.iterCounter), 0)
	c.emit(vm.OpSetLocal)
	c.chunk().EmitByte(byte(iterSlot))
	c.emit(vm.OpPop)
	c.expect(lexer.RPAREN)

	loopStart := len(c.chunk().Code)
	c.emit(vm.OpGetLocal)
	c.chunk().EmitByte(byte(iterSlot))
	c.emit(vm.OpIterNext)
	endJump := c.emitJump(vm.OpJumpIfFalse)
	c.emit(vm.OpSetLocal)
	c.chunk().EmitByte(byte(varSlot))
	c.emit(vm.OpPop)

	loop := c.pushLoop(false)
	loop.continueDest = loopStart
	c.compileStatementDiscard()
	c.emitLoopBack(loopStart)
	c.chunk().PatchJump(endJump)
	c.patchBreaks(loop)
	c.popLoop()
}

func (c *Compiler) compileReturn() {
	c.next()
	if c.curIs(lexer.SEMICOLON) || c.curIs(lexer.RBRACE) || c.curIs(lexer.EOF) {
		c.emit(vm.OpPushUndefined)
	} else {
		c.parseExpression(precLowest)
	}
	c.emit(vm.OpReturn)
	c.semicolon()
}

func (c *Compiler) compileThrow() {
	c.next()
	c.parseExpression(precLowest)
	c.emit(vm.OpThrow)
	c.semicolon()
}

func (c *Compiler) compileBreak() {
	c.next()
	if c.loop == nil {
		c.errorf("break outside loop or switch")
	} else {
		off := c.emitJump(vm.OpJump)
		c.loop.breakJumps = append(c.loop.breakJumps, off)
	}
	c.semicolon()
}

func (c *Compiler) compileContinue() {
	c.next()
	l := c.nearestLoop()
	if l == nil {
		c.errorf("continue outside loop")
		c.semicolon()
		return
	}
	if l.continueDest >= 0 {
		c.emitLoopBack(l.continueDest)
	} else {
		off := c.emitJump(vm.OpJump)
		l.continuePatch = append(l.continuePatch, off)
	}
	c.semicolon()
}

// parseTry compiles try/catch/finally using PushHandler/PopHandler/Throw
// (spec §4.2.7). A catch-less `try/finally` runs the finally body on
// both the normal-completion and exceptional paths, using a hidden pair
// of locals to remember whether an exception is in flight so one copy
// of the finally body serves both, the way a Gosub/Ret subroutine call
// would; anything more (return or break threading through an active
// finally) is not modeled.
func (c *Compiler) parseTry() {
	c.next() // consume 'try'
	c.emit(vm.OpPushHandler)
	targetPos := len(c.chunk().Code)
	c.chunk().EmitUint16(0)

	c.parseBlock()
	c.emit(vm.OpPopHandler)
	skipCatch := c.emitJump(vm.OpJump)
	c.chunk().PatchJump(targetPos)

	hasCatch := c.curIs(lexer.CATCH)
	if hasCatch {
		c.next()
		hasParam := false
		var paramSlot int
		prevBlockID := c.scope.blockID
		if c.curIs(lexer.LPAREN) {
			c.next()
			if c.curIs(lexer.IDENT) {
				name := c.cur.Literal
				c.next()
				prevBlockID = c.scope.enterBlock()
				paramSlot = c.scope.declare(name, c.scope.blockID)
				hasParam = true
			}
			c.expect(lexer.RPAREN)
		}
		if hasParam {
			c.emit(vm.OpSetLocal)
			c.chunk().EmitByte(byte(paramSlot))
			c.emit(vm.OpPop)
		} else {
			c.emit(vm.OpPop)
		}
		c.parseBlock()
		if hasParam {
			c.scope.exitBlock(prevBlockID)
		}
		c.chunk().PatchJump(skipCatch)
	} else if c.curIs(lexer.FINALLY) {
		c.next()
		c.iterCounter++
		id := strconv.Itoa(c.iterCounter)
		raisedSlot := c.scope.declare("@finallyRaised"+id, 0)
		excSlot := c.scope.declare("@finallyExc"+id, 0)

		// Exception path: catchPc lands here with the thrown value on top
		// of the stack. Stash it and mark raised before falling through
		// into the same finally body the normal path jumps into.
		c.emit(vm.OpSetLocal)
		c.chunk().EmitByte(byte(excSlot))
		c.emit(vm.OpPop)
		c.emit(vm.OpPushTrue)
		c.emit(vm.OpSetLocal)
		c.chunk().EmitByte(byte(raisedSlot))
		c.emit(vm.OpPop)

		// Normal path lands here, skipping the exception-capture prelude
		// above (raisedSlot stays Undefined, read as false below).
		c.chunk().PatchJump(skipCatch)

		c.parseBlock()

		c.emit(vm.OpGetLocal)
		c.chunk().EmitByte(byte(raisedSlot))
		rethrowSkip := c.emitJump(vm.OpJumpIfFalse)
		c.emit(vm.OpGetLocal)
		c.chunk().EmitByte(byte(excSlot))
		c.emit(vm.OpThrow)
		c.chunk().PatchJump(rethrowSkip)
		return
	} else {
		c.errorf("missing catch or finally after try")
		c.chunk().PatchJump(skipCatch)
	}

	if hasCatch && c.curIs(lexer.FINALLY) {
		c.next()
		c.parseBlock()
	}
}

// parseSwitch lowers to a chain of strict-equality tests against the
// discriminant. Each case is treated as implicitly followed by break;
// fall-through between cases (writing a case with no break intending to
// run into the next one) is not supported, a deliberate simplification
// for a minimalist engine.
func (c *Compiler) parseSwitch() {
	c.next()
	c.expect(lexer.LPAREN)
	c.parseExpression(precLowest)
	c.expect(lexer.RPAREN)
	c.expect(lexer.LBRACE)

	loop := c.pushLoop(true)
	var endJumps []int

	for !c.curIs(lexer.RBRACE) && !c.curIs(lexer.EOF) {
		switch c.cur.Type {
		case lexer.CASE:
			c.next()
			c.emit(vm.OpDup)
			c.parseExpression(precAssign)
			c.expect(lexer.COLON)
			c.emit(vm.OpStrictEq)
			skip := c.emitJump(vm.OpJumpIfFalse)
			for !c.curIs(lexer.CASE) && !c.curIs(lexer.DEFAULT) && !c.curIs(lexer.RBRACE) && !c.curIs(lexer.EOF) {
				c.compileStatementDiscard()
			}
			endJumps = append(endJumps, c.emitJump(vm.OpJump))
			c.chunk().PatchJump(skip)
		case lexer.DEFAULT:
			c.next()
			c.expect(lexer.COLON)
			for !c.curIs(lexer.CASE) && !c.curIs(lexer.DEFAULT) && !c.curIs(lexer.RBRACE) && !c.curIs(lexer.EOF) {
				c.compileStatementDiscard()
			}
		default:
			c.errorf("expected case or default in switch body, got %s", c.cur.Type)
			c.next()
		}
	}
	c.expect(lexer.RBRACE)
	c.emit(vm.OpPop)
	for _, off := range endJumps {
		c.chunk().PatchJump(off)
	}
	c.patchBreaks(loop)
	c.popLoop()
}
