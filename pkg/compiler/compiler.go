// Package compiler implements Kozi's single-pass Pratt compiler: it
// drives the scanner, parses with a precedence-climbing dispatch table,
// resolves lexical bindings, and emits bytecode directly into a
// CompiledFunction — there is no intermediate AST (spec.md §4.3).
package compiler

import (
	"fmt"
	"io"
	"strconv"

	"github.com/chazu/kozi/pkg/bytecode"
	"github.com/chazu/kozi/pkg/compiler/lexer"
	"github.com/chazu/kozi/pkg/core/value"
	"github.com/chazu/kozi/pkg/gc"
)

// Compiler holds all state for one compile: the scanner, the
// previously/currently consumed tokens, error-recovery flags, the
// CompiledFunction under construction, and the fixed-capacity local array
// (spec.md §4.3).
type Compiler struct {
	scanner *lexer.Scanner
	src     []byte

	previous lexer.Token
	current  lexer.Token

	hadError  bool
	panicMode bool

	fn *bytecode.CompiledFunction
	gc *gc.Collector

	scopeDepth int
	locals     [MaxLocals]local
	localCount int

	out io.Writer // diagnostics sink (spec.md §9 "Global mutable state")
}

// New creates a Compiler that emits into fn, interning string constants
// through g, and writing diagnostics to out.
func New(fn *bytecode.CompiledFunction, g *gc.Collector, out io.Writer) *Compiler {
	return &Compiler{fn: fn, gc: g, out: out}
}

// Compile parses and compiles source into the Compiler's CompiledFunction.
// It returns whether compilation succeeded; on failure, diagnostics have
// already been written and the caller must not run the VM (spec.md §2,
// §4.3's top-level loop).
func (c *Compiler) Compile(source []byte) bool {
	c.src = source
	c.scanner = lexer.NewScanner(source)
	c.hadError = false
	c.panicMode = false
	c.scopeDepth = 0
	c.localCount = 0

	c.advance()
	for !c.match(lexer.KindEOF) {
		c.declaration()
	}
	c.emitReturn()

	return !c.hadError
}

// --- token stream plumbing ---

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		tok, err := c.scanner.Next()
		c.current = tok
		if err == nil {
			break
		}
		c.errorAtCurrentScan(err)
	}
}

func (c *Compiler) check(kind lexer.Kind) bool {
	return c.current.Kind == kind
}

func (c *Compiler) match(kind lexer.Kind) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(kind lexer.Kind, message string) {
	if c.current.Kind == kind {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

// --- declarations & statements ---

func (c *Compiler) declaration() {
	if c.match(lexer.KindLet) {
		c.letDeclaration()
	} else {
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) letDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.match(lexer.KindEqual) {
		c.expression()
	} else {
		c.emitOp(bytecode.OpNil)
	}
	c.consume(lexer.KindSemicolon, "Expect ';' after variable declaration.")

	c.defineVariable(global)
}

func (c *Compiler) statement() {
	switch {
	case c.match(lexer.KindPrint):
		c.printStatement()
	case c.match(lexer.KindIf):
		c.ifStatement()
	case c.match(lexer.KindLeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(lexer.KindSemicolon, "Expect ';' after value.")
	c.emitOp(bytecode.OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(lexer.KindSemicolon, "Expect ';' after expression.")
	c.emitOp(bytecode.OpPop)
}

func (c *Compiler) block() {
	for !c.check(lexer.KindRightBrace) && !c.check(lexer.KindEOF) {
		c.declaration()
	}
	c.consume(lexer.KindRightBrace, "Expect '}' after block.")
}

// ifStatement compiles the layout spec.md §4.3 specifies exactly:
// <cond>; JumpFalse A; Pop; <then>; Jump B; A: Pop; <else or nothing>; B:
func (c *Compiler) ifStatement() {
	c.consume(lexer.KindLeftParen, "Expect '(' after 'if'.")
	c.expression()
	c.consume(lexer.KindRightParen, "Expect ')' after condition.")

	thenJump := c.emitJump(bytecode.OpJumpFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()

	elseJump := c.emitJump(bytecode.OpJump)
	c.patchJump(thenJump)
	c.emitOp(bytecode.OpPop)

	if c.match(lexer.KindElse) {
		c.statement()
	}
	c.patchJump(elseJump)
}

// --- expressions ---

func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	prefix := getRule(c.previous.Kind).prefix
	if prefix == nil {
		c.errorAtPrev("Expect expression.")
		return
	}

	canAssign := prec <= PrecAssignment
	prefix(c, canAssign)

	for prec <= getRule(c.current.Kind).precedence {
		c.advance()
		infix := getRule(c.previous.Kind).infix
		infix(c, canAssign)
	}
}

func parseGrouping(c *Compiler, _ bool) {
	c.expression()
	c.consume(lexer.KindRightParen, "Expect ')' after expression.")
}

func parseNumber(c *Compiler, _ bool) {
	lexeme := string(c.previous.Lexeme(c.src))
	f, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		c.errorAtPrev("Invalid number literal.")
		return
	}
	c.emitConstant(value.Number(f))
}

func parseString(c *Compiler, _ bool) {
	lexeme := string(c.previous.Lexeme(c.src))
	obj := c.gc.Intern(lexeme)
	c.emitConstant(value.String(obj))
}

func parseLiteral(c *Compiler, _ bool) {
	switch c.previous.Kind {
	case lexer.KindFalse:
		c.emitOp(bytecode.OpFalse)
	case lexer.KindTrue:
		c.emitOp(bytecode.OpTrue)
	case lexer.KindNil:
		c.emitOp(bytecode.OpNil)
	}
}

func parseUnary(c *Compiler, _ bool) {
	opKind := c.previous.Kind
	c.parsePrecedence(PrecUnary)
	switch opKind {
	case lexer.KindMinus:
		c.emitOp(bytecode.OpNegate)
	case lexer.KindBang:
		c.emitOp(bytecode.OpNot)
	}
}

func parseBinary(c *Compiler, _ bool) {
	opKind := c.previous.Kind
	rule := getRule(opKind)
	c.parsePrecedence(rule.precedence + 1)

	switch opKind {
	case lexer.KindPlus:
		c.emitOp(bytecode.OpAdd)
	case lexer.KindMinus:
		c.emitOp(bytecode.OpSubtract)
	case lexer.KindStar:
		c.emitOp(bytecode.OpMultiply)
	case lexer.KindSlash:
		c.emitOp(bytecode.OpDivide)
	case lexer.KindEqualEqual:
		c.emitOp(bytecode.OpEqual)
	case lexer.KindBangEqual:
		c.emitOp(bytecode.OpNotEqual)
	case lexer.KindGreater:
		c.emitOp(bytecode.OpGreater)
	case lexer.KindGreaterEqual:
		c.emitOp(bytecode.OpGreaterEqual)
	case lexer.KindLess:
		c.emitOp(bytecode.OpLess)
	case lexer.KindLessEqual:
		c.emitOp(bytecode.OpLessEqual)
	}
}

func parseVariableExpr(c *Compiler, canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

// compoundOps maps a compound-assignment token to the binary op it
// desugars to, supplementing spec.md §4.1's scanned-but-otherwise-unused
// `+= -= *= /=` tokens (SPEC_FULL.md §12).
var compoundOps = map[lexer.Kind]bytecode.Op{
	lexer.KindPlusEqual:  bytecode.OpAdd,
	lexer.KindMinusEqual: bytecode.OpSubtract,
	lexer.KindStarEqual:  bytecode.OpMultiply,
	lexer.KindSlashEqual: bytecode.OpDivide,
}

func (c *Compiler) namedVariable(name lexer.Token, canAssign bool) {
	slot := -1
	if c.scopeDepth > 0 {
		slot = c.resolveLocal(name)
	}

	var getOp, setOp bytecode.Op
	var arg uint16
	if slot != -1 {
		getOp, setOp, arg = bytecode.OpGetLocal, bytecode.OpSetLocal, uint16(slot)
	} else {
		getOp, setOp, arg = bytecode.OpGetGlobal, bytecode.OpSetGlobal, c.identifierConstant(name)
	}

	if compoundOp, isCompound := compoundOps[c.current.Kind]; canAssign && isCompound {
		c.advance()
		c.emitOp(getOp)
		c.emitUint16(arg)
		c.expression()
		c.emitOp(compoundOp)
		c.emitOp(setOp)
		c.emitUint16(arg)
		return
	}

	if canAssign && c.match(lexer.KindEqual) {
		c.expression()
		c.emitOp(setOp)
		c.emitUint16(arg)
		return
	}

	c.emitOp(getOp)
	c.emitUint16(arg)
}

// --- variable declaration helpers ---

func (c *Compiler) parseVariable(errMessage string) uint16 {
	c.consume(lexer.KindIdentifier, errMessage)

	c.declareVariable(c.previous)
	if c.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous)
}

func (c *Compiler) identifierConstant(name lexer.Token) uint16 {
	obj := c.gc.Intern(string(name.Lexeme(c.src)))
	idx, ok := c.fn.AddConstant(value.String(obj))
	if !ok {
		c.errorAt(name, "Too many constants.")
		return 0
	}
	return idx
}

func (c *Compiler) defineVariable(global uint16) {
	if c.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOp(bytecode.OpDefineGlobal)
	c.emitUint16(global)
}

// --- bytecode emission ---

func (c *Compiler) line() uint32 {
	if c.previous.Line != 0 {
		return c.previous.Line
	}
	return 1
}

func (c *Compiler) emitOp(op bytecode.Op) {
	c.fn.WriteOp(op, c.line())
}

func (c *Compiler) emitUint16(v uint16) {
	c.fn.WriteUint16(v, c.line())
}

func (c *Compiler) emitConstant(v value.Value) {
	idx, ok := c.fn.AddConstant(v)
	if !ok {
		c.errorAtPrev("Too many constants.")
		return
	}
	c.emitOp(bytecode.OpConstant)
	c.emitUint16(idx)
}

// emitJump writes op followed by a two-byte placeholder and returns the
// placeholder's offset, for a later patchJump call (spec.md §4.3).
func (c *Compiler) emitJump(op bytecode.Op) int {
	c.emitOp(op)
	c.emitUint16(0xFFFF)
	return len(c.fn.Code) - 2
}

// patchJump back-patches the placeholder at offset with the distance from
// just past it to the current end of the function (spec.md §4.3).
func (c *Compiler) patchJump(offset int) {
	jump := len(c.fn.Code) - offset - 2
	if jump > bytecode.MaxJump-1 {
		c.errorAtPrev("Too much code to jump over.")
		return
	}
	c.fn.Code[offset] = byte(uint16(jump) >> 8)
	c.fn.Code[offset+1] = byte(uint16(jump))
}

func (c *Compiler) emitReturn() {
	c.emitOp(bytecode.OpReturn)
}

// --- error reporting & recovery ---

func (c *Compiler) errorAtCurrent(message string) {
	c.errorAt(c.current, message)
}

func (c *Compiler) errorAtPrev(message string) {
	c.errorAt(c.previous, message)
}

func (c *Compiler) errorAt(tok lexer.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	fmt.Fprintf(c.out, "[line %d:%d] Error: %s\n", tok.Line, tok.Column, message)
}

// errorAtCurrentScan reports a scan error using its own line/column,
// which can differ from the error token's start (an invalid UTF-8 byte
// inside a string is reported at the byte, not at the opening quote).
func (c *Compiler) errorAtCurrentScan(err *lexer.ScanError) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	fmt.Fprintf(c.out, "[line %d:%d] Error: %s\n", err.Line, err.Column, err.Message)
}

// synchronize clears panicMode and discards tokens until a statement
// boundary: the previous token was ';', or the current token begins a
// declaration or statement (spec.md §4.3, §7).
func (c *Compiler) synchronize() {
	c.panicMode = false

	for c.current.Kind != lexer.KindEOF {
		if c.previous.Kind == lexer.KindSemicolon {
			return
		}
		switch c.current.Kind {
		case lexer.KindClass, lexer.KindFun, lexer.KindLet, lexer.KindFor,
			lexer.KindIf, lexer.KindWhile, lexer.KindPrint, lexer.KindReturn:
			return
		}
		c.advance()
	}
}
