// Package vm implements Kozi's stack-based bytecode interpreter: a fixed
// operand stack, an instruction pointer into the current CompiledFunction,
// and a globals table keyed by interned string identity (spec.md §4.4).
package vm

import (
	"fmt"
	"io"

	"github.com/chazu/kozi/pkg/bytecode"
	"github.com/chazu/kozi/pkg/core/value"
	"github.com/chazu/kozi/pkg/gc"
)

// StackMax bounds the operand stack (spec.md §4.4).
const StackMax = 256

// Status is the outcome of running a CompiledFunction.
type Status int

const (
	StatusOK Status = iota
	StatusRuntimeError
)

// VM owns one interpreter instance: the operand stack, the current
// function, the globals table, and the collector it allocates strings
// through. Exactly one VM exists per interpreter (spec.md §5).
type VM struct {
	fn *bytecode.CompiledFunction
	ip int

	stack    [StackMax]value.Value
	stackTop int

	globals map[*gc.StringObject]value.Value

	collector *gc.Collector

	out  io.Writer // Print's destination
	diag io.Writer // runtime-error diagnostic sink

	trace bool
}

// New creates a VM that allocates strings through collector, writes
// printed values to out, and writes runtime diagnostics to diag. New
// installs the VM as collector's root tracer.
func New(collector *gc.Collector, out, diag io.Writer) *VM {
	m := &VM{
		globals:   make(map[*gc.StringObject]value.Value),
		collector: collector,
		out:       out,
		diag:      diag,
	}
	collector.SetTracer(m)
	return m
}

// SetTrace toggles the debug tracing spec.md §4.4 describes: before every
// instruction, print the stack contents and disassemble the instruction
// about to execute.
func (m *VM) SetTrace(enabled bool) {
	m.trace = enabled
}

// Bind associates fn with the VM as the function currently being worked
// on, before compilation into it begins. Without this, a collection
// triggered while the compiler is still interning constants (GC stress
// mode, or a large source file) would see no root covering fn's constant
// pool and could sweep them away. Run re-establishes the same
// association, so Bind is optional when GC pressure during compilation
// isn't a concern.
func (m *VM) Bind(fn *bytecode.CompiledFunction) {
	m.fn = fn
}

// runtimeErr is the panic payload a hot-path check raises; Run recovers it
// at the dispatch-loop boundary and turns it into a reported runtime error
// (teacher's panic-deep/recover-at-boundary idiom, generalized from array
// bounds checks to Kozi's type-checked operators).
type runtimeErr struct{ message string }

// Run executes fn from its first instruction to Return or a runtime
// error. The stack and instruction pointer are reset on every call, so a
// VM can run successive top-level CompiledFunctions (spec.md §2's
// `interpret` resets the stack each time).
func (m *VM) Run(fn *bytecode.CompiledFunction) (status Status) {
	m.fn = fn
	m.ip = 0
	m.resetStack()

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		rerr, ok := r.(runtimeErr)
		if !ok {
			panic(r)
		}
		m.reportRuntimeError(rerr.message)
		status = StatusRuntimeError
	}()

	for {
		if m.trace {
			m.traceStep()
		}

		switch op := bytecode.Op(m.readByte()); op {
		case bytecode.OpConstant:
			m.push(m.fn.Constants[m.readUint16()])
		case bytecode.OpNil:
			m.push(value.Nil)
		case bytecode.OpTrue:
			m.push(value.Bool(true))
		case bytecode.OpFalse:
			m.push(value.Bool(false))
		case bytecode.OpPop:
			m.pop()
		case bytecode.OpNegate:
			m.negate()
		case bytecode.OpNot:
			m.push(value.Bool(m.pop().IsFalsey()))
		case bytecode.OpAdd:
			m.add()
		case bytecode.OpSubtract:
			m.numericBinary(func(a, b float64) float64 { return a - b })
		case bytecode.OpMultiply:
			m.numericBinary(func(a, b float64) float64 { return a * b })
		case bytecode.OpDivide:
			m.numericBinary(func(a, b float64) float64 { return a / b })
		case bytecode.OpEqual:
			b, a := m.pop(), m.pop()
			m.push(value.Bool(a.Equal(b)))
		case bytecode.OpNotEqual:
			b, a := m.pop(), m.pop()
			m.push(value.Bool(!a.Equal(b)))
		case bytecode.OpGreater:
			m.comparisonBinary(func(a, b float64) bool { return a > b })
		case bytecode.OpGreaterEqual:
			m.comparisonBinary(func(a, b float64) bool { return a >= b })
		case bytecode.OpLess:
			m.comparisonBinary(func(a, b float64) bool { return a < b })
		case bytecode.OpLessEqual:
			m.comparisonBinary(func(a, b float64) bool { return a <= b })
		case bytecode.OpPrint:
			fmt.Fprintln(m.out, m.pop().Format())
		case bytecode.OpDefineGlobal:
			name := m.fn.Constants[m.readUint16()].Str
			m.globals[name] = m.peek(0)
			m.pop()
		case bytecode.OpGetGlobal:
			name := m.fn.Constants[m.readUint16()].Str
			v, ok := m.globals[name]
			if !ok {
				panic(runtimeErr{fmt.Sprintf("Undefined let binding '%s'.", name.Chars)})
			}
			m.push(v)
		case bytecode.OpSetGlobal:
			name := m.fn.Constants[m.readUint16()].Str
			if _, ok := m.globals[name]; !ok {
				panic(runtimeErr{fmt.Sprintf("Undefined let binding '%s'.", name.Chars)})
			}
			m.globals[name] = m.peek(0)
		case bytecode.OpGetLocal:
			m.push(m.stack[m.readUint16()])
		case bytecode.OpSetLocal:
			m.stack[m.readUint16()] = m.peek(0)
		case bytecode.OpJump:
			m.ip += int(m.readUint16())
		case bytecode.OpJumpFalse:
			offset := m.readUint16()
			if m.peek(0).IsFalsey() {
				m.ip += int(offset)
			}
		case bytecode.OpReturn:
			return StatusOK
		default:
			panic(runtimeErr{fmt.Sprintf("Unknown opcode %d.", op)})
		}
	}
}

func (m *VM) resetStack() { m.stackTop = 0 }

func (m *VM) push(v value.Value) {
	if m.stackTop >= StackMax {
		panic(runtimeErr{"Stack overflow."})
	}
	m.stack[m.stackTop] = v
	m.stackTop++
}

func (m *VM) pop() value.Value {
	m.stackTop--
	return m.stack[m.stackTop]
}

// peek returns the value distance entries from the top without popping;
// distance 0 is the top of stack.
func (m *VM) peek(distance int) value.Value {
	return m.stack[m.stackTop-1-distance]
}

func (m *VM) readByte() byte {
	b := m.fn.Code[m.ip]
	m.ip++
	return b
}

func (m *VM) readUint16() uint16 {
	v := bytecode.ReadUint16(m.fn.Code, m.ip)
	m.ip += 2
	return v
}

// add implements spec.md §4.4's overloaded Add: numeric addition or string
// concatenation, with the deeper stack operand first in the result. The
// operands stay on the stack — and so remain live GC roots — until after
// Intern returns; popping them first would leave the allocation with
// nothing rooting them across its own collection check (spec.md §4.5
// "Safety contract").
func (m *VM) add() {
	b, a := m.peek(0), m.peek(1)
	switch {
	case a.Type == value.TypeNumber && b.Type == value.TypeNumber:
		result := a.AsNumber() + b.AsNumber()
		m.pop()
		m.pop()
		m.push(value.Number(result))
	case a.Type == value.TypeString && b.Type == value.TypeString:
		obj := m.collector.Intern(a.AsString() + b.AsString())
		m.pop()
		m.pop()
		m.push(value.String(obj))
	default:
		panic(runtimeErr{"Operands must be numbers or strings."})
	}
}

func (m *VM) numericBinary(op func(a, b float64) float64) {
	b, a := m.peek(0), m.peek(1)
	if a.Type != value.TypeNumber || b.Type != value.TypeNumber {
		panic(runtimeErr{"Operands must be numbers."})
	}
	m.pop()
	m.pop()
	m.push(value.Number(op(a.AsNumber(), b.AsNumber())))
}

func (m *VM) comparisonBinary(op func(a, b float64) bool) {
	b, a := m.peek(0), m.peek(1)
	if a.Type != value.TypeNumber || b.Type != value.TypeNumber {
		panic(runtimeErr{"Operands must be numbers."})
	}
	m.pop()
	m.pop()
	m.push(value.Bool(op(a.AsNumber(), b.AsNumber())))
}

func (m *VM) negate() {
	v := m.peek(0)
	if v.Type != value.TypeNumber {
		panic(runtimeErr{"Operand must be a number."})
	}
	m.pop()
	m.push(value.Number(-v.AsNumber()))
}

// reportRuntimeError writes the diagnostic spec.md §6 specifies and resets
// the stack. L is lines[ip-1]: the line of the instruction that was being
// executed when the error was raised.
func (m *VM) reportRuntimeError(message string) {
	line := uint32(0)
	if m.ip-1 >= 0 && m.ip-1 < len(m.fn.Lines) {
		line = m.fn.Lines[m.ip-1]
	}
	fmt.Fprintf(m.diag, "%s\n[line %d] in script\n", message, line)
	m.resetStack()
}

func (m *VM) traceStep() {
	fmt.Fprint(m.diag, "          ")
	for i := 0; i < m.stackTop; i++ {
		fmt.Fprintf(m.diag, "[ %s ]", m.stack[i].Format())
	}
	fmt.Fprintln(m.diag)
	bytecode.DisassembleInstruction(m.diag, m.fn, m.ip)
}

// TraceRoots implements gc.RootTracer: it marks every value reachable from
// the operand stack, the globals table, and the current function's
// constant pool (spec.md §4.5 "Mark" phase).
func (m *VM) TraceRoots(c *gc.Collector) {
	for i := 0; i < m.stackTop; i++ {
		markValue(c, m.stack[i])
	}
	for name, v := range m.globals {
		c.MarkString(name)
		markValue(c, v)
	}
	if m.fn != nil {
		for _, v := range m.fn.Constants {
			markValue(c, v)
		}
	}
}

func markValue(c *gc.Collector, v value.Value) {
	if v.Type == value.TypeString {
		c.MarkString(v.Str)
	}
}
