// Package kozi glues the compiler, VM, and GC into the single entry point
// described in spec.md §2: reset, compile, and — on compile success —
// run. VM is the only entry point: New takes the print and diagnostic
// sinks, and globals persist across Interpret calls on the same VM.
package kozi

import (
	"io"

	"github.com/chazu/kozi/pkg/bytecode"
	"github.com/chazu/kozi/pkg/compiler"
	"github.com/chazu/kozi/pkg/gc"
	"github.com/chazu/kozi/pkg/vm"
)

// Result mirrors the three outcomes spec.md §6 maps to process exit
// codes: success, compile error, runtime error.
type Result int

const (
	ResultOK Result = iota
	ResultCompileError
	ResultRuntimeError
)

// VM is Kozi's embeddable interpreter: one GC, one globals table, one
// operand stack, reused across successive Interpret calls so that a REPL
// session's globals persist between lines (SPEC_FULL.md §6.2).
type VM struct {
	collector *gc.Collector
	machine   *vm.VM

	out  io.Writer
	diag io.Writer
}

// New creates a VM that prints values to out and writes both compile and
// runtime diagnostics to diag.
func New(out, diag io.Writer) *VM {
	collector := gc.New()
	machine := vm.New(collector, out, diag)
	return &VM{collector: collector, machine: machine, out: out, diag: diag}
}

// SetTrace enables the VM's per-instruction debug trace (the `-trace` CLI
// flag, SPEC_FULL.md §6.1).
func (v *VM) SetTrace(enabled bool) {
	v.machine.SetTrace(enabled)
}

// SetGCStress forces a collection before every allocation, the standard
// technique for shaking out missing GC roots (spec.md §4.5 "Safety
// contract"; the `-gc-stress` CLI flag, SPEC_FULL.md §12).
func (v *VM) SetGCStress(enabled bool) {
	v.collector.StressMode = enabled
}

// Interpret compiles source and, on success, runs it. Globals and the
// string intern table persist across calls on the same VM, matching a
// REPL's expectation that a binding from one line is visible on the next.
func (v *VM) Interpret(source []byte) Result {
	fn := bytecode.New()
	v.machine.Bind(fn)

	c := compiler.New(fn, v.collector, v.diag)
	if !c.Compile(source) {
		return ResultCompileError
	}

	if v.machine.Run(fn) != vm.StatusOK {
		return ResultRuntimeError
	}
	return ResultOK
}

// Reset discards all globals, interned strings, and compiled state,
// starting a fresh session on the same sinks — useful for an embedder
// that wants to reuse one VM value across unrelated scripts without
// leaking bindings between them. SetTrace/SetGCStress must be re-applied
// after Reset; they belong to the discarded collector and machine, not
// to the embedder-facing VM wrapper.
func (v *VM) Reset() {
	v.collector = gc.New()
	v.machine = vm.New(v.collector, v.out, v.diag)
}
