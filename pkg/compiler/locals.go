package compiler

import (
	"github.com/chazu/kozi/pkg/bytecode"
	"github.com/chazu/kozi/pkg/compiler/lexer"
)

// MaxLocals bounds the compiler's fixed local array (spec.md §3, §8).
const MaxLocals = 256

// uninitializedDepth is the sentinel spec.md §3 describes: a local
// declared but not yet initialized. Reads of such a local are a compile
// error (spec.md §4.3).
const uninitializedDepth = -1

// local tracks one lexical binding's name token and scope depth.
type local struct {
	name  lexer.Token
	depth int
}

func (c *Compiler) beginScope() {
	c.scopeDepth++
}

// endScope pops every local declared at the scope being closed, emitting
// an OpPop for each — locals live on the operand stack at runtime, so
// scope exit discards them there (spec.md §4.3 "Scopes").
func (c *Compiler) endScope() {
	c.scopeDepth--
	for c.localCount > 0 && c.locals[c.localCount-1].depth > c.scopeDepth {
		c.emitOp(bytecode.OpPop)
		c.localCount--
	}
}

// declareVariable registers name as a new local in the current scope, or
// does nothing at global scope (globals are bound by name, not by slot).
func (c *Compiler) declareVariable(name lexer.Token) {
	if c.scopeDepth == 0 {
		return
	}

	nameLexeme := string(name.Lexeme(c.src))
	for i := c.localCount - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.depth != uninitializedDepth && l.depth < c.scopeDepth {
			break
		}
		if string(l.name.Lexeme(c.src)) == nameLexeme {
			c.errorAt(name, "Already a let binding with this name in this scope.")
			return
		}
	}
	c.addLocal(name)
}

func (c *Compiler) addLocal(name lexer.Token) {
	if c.localCount >= MaxLocals {
		c.errorAt(name, "Too many local let bindings in function.")
		return
	}
	c.locals[c.localCount] = local{name: name, depth: uninitializedDepth}
	c.localCount++
}

// markInitialized sets the most recently declared local's depth to the
// current scope, making it readable.
func (c *Compiler) markInitialized() {
	if c.scopeDepth == 0 {
		return
	}
	c.locals[c.localCount-1].depth = c.scopeDepth
}

// resolveLocal scans from the most recently declared local toward
// shallower scopes, returning its slot, or -1 if name isn't a local.
// Scans with an explicit signed loop from localCount-1 down to 0
// inclusive, per spec.md §9's correction of an unsigned-counter bug in an
// earlier source revision.
func (c *Compiler) resolveLocal(name lexer.Token) int {
	nameLexeme := string(name.Lexeme(c.src))
	for i := c.localCount - 1; i >= 0; i-- {
		l := c.locals[i]
		if string(l.name.Lexeme(c.src)) == nameLexeme {
			if l.depth == uninitializedDepth {
				c.errorAt(name, "Can't read local let binding in its own initializer.")
			}
			return i
		}
	}
	return -1
}
