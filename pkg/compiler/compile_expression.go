package compiler

import (
	"strconv"
	"strings"

	"mqjs/pkg/lexer"
	"mqjs/pkg/vm"
)

func isAssignOp(t lexer.TokenType) bool {
	switch t {
	case lexer.ASSIGN, lexer.PLUS_ASSIGN, lexer.MINUS_ASSIGN, lexer.ASTERISK_ASSIGN,
		lexer.SLASH_ASSIGN, lexer.PERCENT_ASSIGN, lexer.AMP_ASSIGN, lexer.PIPE_ASSIGN,
		lexer.CARET_ASSIGN, lexer.SHL_ASSIGN, lexer.SAR_ASSIGN, lexer.SHR_ASSIGN, lexer.POW_ASSIGN:
		return true
	}
	return false
}

// compoundOp returns the binary opcode a compound-assignment token
// implies, e.g. PLUS_ASSIGN -> OpAdd.
func compoundOp(t lexer.TokenType) vm.Opcode {
	switch t {
	case lexer.PLUS_ASSIGN:
		return vm.OpAdd
	case lexer.MINUS_ASSIGN:
		return vm.OpSub
	case lexer.ASTERISK_ASSIGN:
		return vm.OpMul
	case lexer.SLASH_ASSIGN:
		return vm.OpDiv
	case lexer.PERCENT_ASSIGN:
		return vm.OpMod
	case lexer.POW_ASSIGN:
		return vm.OpPow
	case lexer.AMP_ASSIGN:
		return vm.OpBitAnd
	case lexer.PIPE_ASSIGN:
		return vm.OpBitOr
	case lexer.CARET_ASSIGN:
		return vm.OpBitXor
	case lexer.SHL_ASSIGN:
		return vm.OpShl
	case lexer.SAR_ASSIGN:
		return vm.OpSar
	case lexer.SHR_ASSIGN:
		return vm.OpShr
	}
	return 0
}

func binaryOp(t lexer.TokenType) (vm.Opcode, bool) {
	switch t {
	case lexer.PLUS:
		return vm.OpAdd, true
	case lexer.MINUS:
		return vm.OpSub, true
	case lexer.ASTERISK:
		return vm.OpMul, true
	case lexer.SLASH:
		return vm.OpDiv, true
	case lexer.PERCENT:
		return vm.OpMod, true
	case lexer.POW:
		return vm.OpPow, true
	case lexer.AMP:
		return vm.OpBitAnd, true
	case lexer.PIPE:
		return vm.OpBitOr, true
	case lexer.CARET:
		return vm.OpBitXor, true
	case lexer.SHL:
		return vm.OpShl, true
	case lexer.SAR:
		return vm.OpSar, true
	case lexer.SHR:
		return vm.OpShr, true
	case lexer.LT:
		return vm.OpLt, true
	case lexer.LE:
		return vm.OpLe, true
	case lexer.GT:
		return vm.OpGt, true
	case lexer.GE:
		return vm.OpGe, true
	case lexer.EQ:
		return vm.OpEq, true
	case lexer.NOT_EQ:
		return vm.OpNe, true
	case lexer.STRICT_EQ:
		return vm.OpStrictEq, true
	case lexer.STRICT_NOT_EQ:
		return vm.OpStrictNe, true
	case lexer.IN:
		return vm.OpIn, true
	case lexer.INSTANCEOF:
		return vm.OpInstanceOf, true
	}
	return 0, false
}

// parseExpression is the Pratt driver (spec §4.2.1): it runs the
// relevant prefix parselet, then repeatedly consumes infix/postfix
// operators whose precedence exceeds prec.
func (c *Compiler) parseExpression(prec precedence) {
	canAssign := prec <= precAssign
	c.parsePrefix(canAssign)
	for !c.curIs(lexer.SEMICOLON) && !c.curIs(lexer.EOF) && prec < precedences[c.cur.Type] {
		c.parseInfix(canAssign)
	}
	if canAssign && isAssignOp(c.cur.Type) {
		c.errorf("invalid assignment target")
		c.next()
		c.parseExpression(precAssign)
	}
}

func (c *Compiler) parsePrefix(canAssign bool) {
	switch c.cur.Type {
	case lexer.NUMBER:
		n, _ := strconv.ParseFloat(c.cur.Literal, 64)
		c.emitNumber(n)
		c.next()
	case lexer.STRING:
		c.emitString(c.cur.Literal)
		c.next()
	case lexer.TRUE:
		c.emit(vm.OpPushTrue)
		c.next()
	case lexer.FALSE:
		c.emit(vm.OpPushFalse)
		c.next()
	case lexer.NULL:
		c.emit(vm.OpPushNull)
		c.next()
	case lexer.UNDEFINED:
		c.emit(vm.OpPushUndefined)
		c.next()
	case lexer.THIS:
		c.emit(vm.OpGetThis)
		c.next()
	case lexer.IDENT:
		c.parseIdentifierExpr(canAssign)
	case lexer.LPAREN:
		c.next()
		c.parseExpression(precLowest)
		c.expect(lexer.RPAREN)
	case lexer.LBRACKET:
		c.parseArrayLiteral()
	case lexer.LBRACE:
		c.parseObjectLiteral()
	case lexer.FUNCTION:
		c.parseFunctionExpr()
	case lexer.REGEX:
		c.parseRegexLiteral()
	case lexer.NEW:
		c.parseNewExpr()
	case lexer.BANG:
		c.next()
		c.parseExpression(precUnary)
		c.emit(vm.OpNot)
	case lexer.MINUS:
		c.next()
		c.parseExpression(precUnary)
		c.emit(vm.OpNeg)
	case lexer.PLUS:
		c.next()
		c.parseExpression(precUnary)
	case lexer.TILDE:
		c.next()
		c.parseExpression(precUnary)
		c.emit(vm.OpBitNot)
	case lexer.TYPEOF:
		c.next()
		c.parseExpression(precUnary)
		c.emit(vm.OpTypeOf)
	case lexer.VOID:
		c.next()
		c.parseExpression(precUnary)
		c.emit(vm.OpPop)
		c.emit(vm.OpPushUndefined)
	case lexer.DELETE:
		c.next()
		c.parseDeleteTarget()
	case lexer.INC, lexer.DEC:
		c.parsePrefixIncDec()
	default:
		c.errorf("unexpected token %s in expression", c.cur.Type)
		c.next()
	}
}

func (c *Compiler) parseIdentifierExpr(canAssign bool) {
	name := c.cur.Literal
	c.next()
	if canAssign && isAssignOp(c.cur.Type) {
		op := c.cur.Type
		c.next()
		if op != lexer.ASSIGN {
			c.emitGetVar(name)
			c.parseExpression(precAssign)
			c.emit(compoundOp(op))
		} else {
			c.parseExpression(precAssign)
		}
		c.emitSetVar(name)
		return
	}
	if canAssign && (c.curIs(lexer.INC) || c.curIs(lexer.DEC)) {
		isInc := c.curIs(lexer.INC)
		c.next()
		c.emitGetVar(name)
		c.emit(vm.OpDup)
		c.emitNumber(1)
		if isInc {
			c.emit(vm.OpAdd)
		} else {
			c.emit(vm.OpSub)
		}
		c.emitSetVar(name)
		c.emit(vm.OpPop)
		return
	}
	c.emitGetVar(name)
}

func (c *Compiler) parsePrefixIncDec() {
	isInc := c.curIs(lexer.INC)
	c.next()
	if !c.curIs(lexer.IDENT) {
		c.errorf("prefix %s requires a variable name", map[bool]string{true: "++", false: "--"}[isInc])
		return
	}
	name := c.cur.Literal
	c.next()
	c.emitGetVar(name)
	c.emitNumber(1)
	if isInc {
		c.emit(vm.OpAdd)
	} else {
		c.emit(vm.OpSub)
	}
	c.emitSetVar(name)
}

func (c *Compiler) parseDeleteTarget() {
	if !c.curIs(lexer.IDENT) {
		c.parseExpression(precUnary)
		c.emit(vm.OpPop)
		c.emit(vm.OpPushTrue)
		return
	}
	name := c.cur.Literal
	c.next()
	c.emitGetVar(name)
	for {
		if c.curIs(lexer.DOT) {
			c.next()
			prop := c.cur.Literal
			c.next()
			if c.curIs(lexer.DOT) || c.curIs(lexer.LBRACKET) {
				idx := c.chunk().AddConstant(vm.Constant{Kind: vm.ConstString, Str: prop})
				c.emit(vm.OpGetField)
				c.chunk().EmitUint16(uint16(idx))
				continue
			}
			idx := c.chunk().AddConstant(vm.Constant{Kind: vm.ConstString, Str: prop})
			c.emit(vm.OpDeleteField)
			c.chunk().EmitUint16(uint16(idx))
			return
		}
		if c.curIs(lexer.LBRACKET) {
			c.next()
			c.parseExpression(precLowest)
			c.expect(lexer.RBRACKET)
			if c.curIs(lexer.DOT) || c.curIs(lexer.LBRACKET) {
				c.emit(vm.OpGetElem)
				continue
			}
			c.emit(vm.OpDeleteElem)
			return
		}
		c.emit(vm.OpPop)
		c.emit(vm.OpPushTrue)
		return
	}
}

func (c *Compiler) parseInfix(canAssign bool) {
	switch c.cur.Type {
	case lexer.DOT:
		c.parseDotTrailer(canAssign)
	case lexer.LBRACKET:
		c.parseBracketTrailer(canAssign)
	case lexer.LPAREN:
		c.parseCallTrailer()
	case lexer.QUESTION:
		c.parseTernary()
	case lexer.LOGICAL_AND:
		c.parseLogicalAnd()
	case lexer.LOGICAL_OR:
		c.parseLogicalOr()
	default:
		if isAssignOp(c.cur.Type) {
			c.errorf("invalid assignment target")
			c.next()
			c.parseExpression(precAssign)
			return
		}
		op, ok := binaryOp(c.cur.Type)
		if !ok {
			c.errorf("unexpected token %s", c.cur.Type)
			c.next()
			return
		}
		prec := precedences[c.cur.Type]
		c.next()
		next := prec
		if op == vm.OpPow { // right-associative
			next = prec - 1
		}
		c.parseExpression(next)
		c.emit(op)
	}
}

func (c *Compiler) parseTernary() {
	c.next() // consume '?'
	elseJump := c.emitJump(vm.OpJumpIfFalse)
	c.parseExpression(precAssign)
	endJump := c.emitJump(vm.OpJump)
	c.chunk().PatchJump(elseJump)
	c.expect(lexer.COLON)
	c.parseExpression(precAssign)
	c.chunk().PatchJump(endJump)
}

func (c *Compiler) parseLogicalAnd() {
	c.next()
	c.emit(vm.OpDup)
	skip := c.emitJump(vm.OpJumpIfFalse)
	c.emit(vm.OpPop)
	c.parseExpression(precLogicalAnd)
	c.chunk().PatchJump(skip)
}

func (c *Compiler) parseLogicalOr() {
	c.next()
	c.emit(vm.OpDup)
	skip := c.emitJump(vm.OpJumpIfTrue)
	c.emit(vm.OpPop)
	c.parseExpression(precLogicalOr)
	c.chunk().PatchJump(skip)
}

func (c *Compiler) parseArgList() int {
	argc := 0
	if c.curIs(lexer.RPAREN) {
		c.next()
		return 0
	}
	c.parseExpression(precAssign)
	argc++
	for c.curIs(lexer.COMMA) {
		c.next()
		c.parseExpression(precAssign)
		argc++
	}
	c.expect(lexer.RPAREN)
	return argc
}

func (c *Compiler) parseCallTrailer() {
	c.next() // consume '('
	argc := c.parseArgList()
	c.emit(vm.OpCall)
	c.chunk().EmitByte(byte(argc))
}

func (c *Compiler) parseDotTrailer(canAssign bool) {
	c.next() // consume '.'
	name := c.cur.Literal
	c.next()
	if c.curIs(lexer.LPAREN) {
		c.next()
		idx := c.chunk().AddConstant(vm.Constant{Kind: vm.ConstString, Str: name})
		c.emit(vm.OpGetFieldKeepBase)
		c.chunk().EmitUint16(uint16(idx))
		argc := c.parseArgList()
		c.emit(vm.OpCallMethod)
		c.chunk().EmitByte(byte(argc))
		return
	}
	if canAssign && c.curIs(lexer.ASSIGN) {
		c.next()
		c.parseExpression(precAssign)
		idx := c.chunk().AddConstant(vm.Constant{Kind: vm.ConstString, Str: name})
		c.emit(vm.OpSetField)
		c.chunk().EmitUint16(uint16(idx))
		return
	}
	idx := c.chunk().AddConstant(vm.Constant{Kind: vm.ConstString, Str: name})
	c.emit(vm.OpGetField)
	c.chunk().EmitUint16(uint16(idx))
}

func (c *Compiler) parseBracketTrailer(canAssign bool) {
	c.next() // consume '['
	c.parseExpression(precLowest)
	c.expect(lexer.RBRACKET)
	if canAssign && c.curIs(lexer.ASSIGN) {
		c.next()
		c.parseExpression(precAssign)
		c.emit(vm.OpSetElem)
		return
	}
	c.emit(vm.OpGetElem)
}

func (c *Compiler) parseNewExpr() {
	c.next() // consume 'new'
	if !c.curIs(lexer.IDENT) {
		c.errorf("expected constructor name after 'new'")
		return
	}
	name := c.cur.Literal
	c.next()
	c.emitGetVar(name)
	for c.curIs(lexer.DOT) {
		c.next()
		prop := c.cur.Literal
		c.next()
		idx := c.chunk().AddConstant(vm.Constant{Kind: vm.ConstString, Str: prop})
		c.emit(vm.OpGetField)
		c.chunk().EmitUint16(uint16(idx))
	}
	argc := 0
	if c.curIs(lexer.LPAREN) {
		c.next()
		argc = c.parseArgList()
	}
	c.emit(vm.OpCallConstructor)
	c.chunk().EmitByte(byte(argc))
}

func (c *Compiler) parseArrayLiteral() {
	c.next() // consume '['
	count := 0
	for !c.curIs(lexer.RBRACKET) && !c.curIs(lexer.EOF) {
		c.parseExpression(precAssign)
		count++
		if c.curIs(lexer.COMMA) {
			c.next()
			continue
		}
		break
	}
	c.expect(lexer.RBRACKET)
	c.emit(vm.OpMakeArray)
	c.chunk().EmitUint16(uint16(count))
}

func (c *Compiler) parseObjectLiteral() {
	c.next() // consume '{'
	c.emit(vm.OpMakeObject)
	for !c.curIs(lexer.RBRACE) && !c.curIs(lexer.EOF) {
		var key string
		switch c.cur.Type {
		case lexer.STRING, lexer.IDENT:
			key = c.cur.Literal
			c.next()
		case lexer.NUMBER:
			key = c.cur.Literal
			c.next()
		default:
			c.errorf("expected property key, got %s", c.cur.Type)
			c.next()
			continue
		}
		c.expect(lexer.COLON)
		nameIdx := c.chunk().AddConstant(vm.Constant{Kind: vm.ConstString, Str: key})
		c.emit(vm.OpDup)
		c.parseExpression(precAssign)
		c.emit(vm.OpSetField)
		c.chunk().EmitUint16(uint16(nameIdx))
		c.emit(vm.OpPop)
		if c.curIs(lexer.COMMA) {
			c.next()
			continue
		}
		break
	}
	c.expect(lexer.RBRACE)
}

func (c *Compiler) parseRegexLiteral() {
	lit := c.cur.Literal
	c.next()
	end := strings.LastIndex(lit, "/")
	source := lit[1:end]
	flags := lit[end+1:]
	idx := c.chunk().AddConstant(vm.Constant{Kind: vm.ConstRegex, Str: source, Flags: flags})
	c.emit(vm.OpPushRegex)
	c.chunk().EmitUint16(uint16(idx))
}
