// Package compiler implements mqjs's single-pass, AST-less compiler
// (spec §4.2): a Pratt expression parser and a recursive-descent
// statement parser that emit bytecode directly, backpatching jump
// targets as each construct's scope closes.
package compiler

import (
	"fmt"

	mqerrors "mqjs/pkg/errors"
	"mqjs/pkg/lexer"
	"mqjs/pkg/vm"
)

// precedence levels for the Pratt expression parser (spec §4.2.1).
type precedence int

const (
	precLowest precedence = iota
	precComma
	precAssign
	precTernary
	precLogicalOr
	precLogicalAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precExponent
	precUnary
	precPostfix
	precCall
)

var precedences = map[lexer.TokenType]precedence{
	lexer.ASSIGN: precAssign, lexer.PLUS_ASSIGN: precAssign, lexer.MINUS_ASSIGN: precAssign,
	lexer.ASTERISK_ASSIGN: precAssign, lexer.SLASH_ASSIGN: precAssign, lexer.PERCENT_ASSIGN: precAssign,
	lexer.AMP_ASSIGN: precAssign, lexer.PIPE_ASSIGN: precAssign, lexer.CARET_ASSIGN: precAssign,
	lexer.SHL_ASSIGN: precAssign, lexer.SAR_ASSIGN: precAssign, lexer.SHR_ASSIGN: precAssign,
	lexer.POW_ASSIGN: precAssign,
	lexer.QUESTION:   precTernary,
	lexer.LOGICAL_OR: precLogicalOr, lexer.LOGICAL_AND: precLogicalAnd,
	lexer.PIPE: precBitOr, lexer.CARET: precBitXor, lexer.AMP: precBitAnd,
	lexer.EQ: precEquality, lexer.NOT_EQ: precEquality, lexer.STRICT_EQ: precEquality, lexer.STRICT_NOT_EQ: precEquality,
	lexer.LT: precRelational, lexer.GT: precRelational, lexer.LE: precRelational, lexer.GE: precRelational,
	lexer.INSTANCEOF: precRelational, lexer.IN: precRelational,
	lexer.SHL: precShift, lexer.SAR: precShift, lexer.SHR: precShift,
	lexer.PLUS: precAdditive, lexer.MINUS: precAdditive,
	lexer.ASTERISK: precMultiplicative, lexer.SLASH: precMultiplicative, lexer.PERCENT: precMultiplicative,
	lexer.POW:    precExponent,
	lexer.LPAREN: precCall, lexer.DOT: precCall, lexer.LBRACKET: precCall,
}

// loopContext tracks the backpatch targets `break`/`continue` need
// inside the loop or switch currently being compiled.
type loopContext struct {
	enclosing    *loopContext
	continueDest int // -1 if continue must backpatch (do-while condition not yet emitted)
	breakJumps   []int
	continuePatch []int // offsets to patch once continueDest is known
	isSwitch     bool
}

// Compiler holds all state for compiling one top-level source string
// into a vm.Program (spec §4.6, "eval compiles an implicit top-level
// function").
type Compiler struct {
	lex *lexer.Lexer

	cur  lexer.Token
	peek lexer.Token

	scope *funcScope
	loop  *loopContext

	program     *vm.Program
	errs        []mqerrors.MqjsError
	iterCounter int
}

// New creates a Compiler over source.
func New(source string) *Compiler {
	c := &Compiler{lex: lexer.New(source)}
	c.next()
	c.next()
	return c
}

func (c *Compiler) next() {
	c.cur = c.peek
	c.peek = c.lex.NextToken()
}

func (c *Compiler) curIs(t lexer.TokenType) bool  { return c.cur.Type == t }
func (c *Compiler) peekIs(t lexer.TokenType) bool { return c.peek.Type == t }

func (c *Compiler) expect(t lexer.TokenType) bool {
	if c.curIs(t) {
		c.next()
		return true
	}
	c.errorf("expected %s, got %s (%q)", t, c.cur.Type, c.cur.Literal)
	return false
}

func (c *Compiler) errorf(format string, args ...any) {
	c.errs = append(c.errs, &mqerrors.CompileError{
		Position: mqerrors.Position{Line: c.cur.Line, Column: c.cur.Column, StartPos: c.cur.StartPos, EndPos: c.cur.EndPos},
		Msg:      fmt.Sprintf(format, args...),
	})
}

func (c *Compiler) chunk() *vm.Chunk { return c.scope.fn.Chunk }

func (c *Compiler) emit(op vm.Opcode) int { return c.chunk().Emit(op, c.cur.Line) }

// Compile runs the full pipeline and returns the compiled program, or
// nil and the accumulated diagnostics if any compile error occurred
// (spec §4.2.8, EXPANDED "compile-time diagnostics accumulation" —
// parsing continues past the first error to collect more in one pass).
func Compile(source string) (*vm.Program, []mqerrors.MqjsError) {
	c := New(source)
	c.program = &vm.Program{}

	top := &vm.Function{Name: "<top>", Chunk: vm.NewChunk()}
	top.FuncIndex = 0
	c.program.Functions = append(c.program.Functions, top)
	c.program.Top = top

	c.scope = newFuncScope(nil)
	c.scope.fn = top
	c.hoistFunctionDecls(false)

	// The program's completion value is whatever its final statement left
	// on the stack (spec §4.6, "eval returns the last-expression value").
	// Only a bare expression statement leaves a value behind, and only
	// when it isn't followed by another statement, so a pending value is
	// popped as soon as we know one more statement follows it.
	pendingValue := false
	for !c.curIs(lexer.EOF) {
		if pendingValue {
			c.emit(vm.OpPop)
		}
		pendingValue = c.compileStatement()
		if len(c.errs) > 200 {
			break
		}
	}
	if pendingValue {
		c.emit(vm.OpReturn)
	} else {
		c.emit(vm.OpPushUndefined)
		c.emit(vm.OpReturn)
	}
	top.MaxLocals = c.scope.maxSlot
	top.Captures = c.scope.captures

	if len(c.errs) > 0 {
		return nil, c.errs
	}
	return c.program, nil
}
