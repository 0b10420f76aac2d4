package bytecode

import (
	"fmt"
	"io"
)

// Disassemble writes a human-readable listing of fn to w, one instruction
// per line, under the given name. Used only for debug tracing (spec.md
// §1 names the disassembler an out-of-scope-as-hard-engineering external
// collaborator, but spec.md §4.4 still requires debug builds to use one).
func Disassemble(w io.Writer, fn *CompiledFunction, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(fn.Code); {
		offset = DisassembleInstruction(w, fn, offset)
	}
}

// DisassembleInstruction writes one instruction at offset and returns the
// offset of the next instruction.
func DisassembleInstruction(w io.Writer, fn *CompiledFunction, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && fn.Lines[offset] == fn.Lines[offset-1] {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", fn.Lines[offset])
	}

	op := Op(fn.Code[offset])
	switch op {
	case OpConstant, OpDefineGlobal, OpGetGlobal, OpSetGlobal:
		return constantInstruction(w, op, fn, offset)
	case OpGetLocal, OpSetLocal:
		return slotInstruction(w, op, fn, offset)
	case OpJump, OpJumpFalse:
		return jumpInstruction(w, op, fn, offset)
	default:
		return simpleInstruction(w, op, offset)
	}
}

func simpleInstruction(w io.Writer, op Op, offset int) int {
	fmt.Fprintf(w, "%s\n", op)
	return offset + 1
}

// constantInstruction decodes the big-endian 16-bit constant index
// correctly: high<<8 | low. spec.md §9 flags a REDESIGN bug in an earlier
// source revision that reconstructed this with high<<4; this
// implementation never has that bug to begin with (see
// disassembler_test.go's regression test).
func constantInstruction(w io.Writer, op Op, fn *CompiledFunction, offset int) int {
	idx := ReadUint16(fn.Code, offset+1)
	var val string
	if int(idx) < len(fn.Constants) {
		val = fn.Constants[idx].Format()
	}
	fmt.Fprintf(w, "%-16s %4d '%s'\n", op, idx, val)
	return offset + 3
}

func slotInstruction(w io.Writer, op Op, fn *CompiledFunction, offset int) int {
	slot := ReadUint16(fn.Code, offset+1)
	fmt.Fprintf(w, "%-16s %4d\n", op, slot)
	return offset + 3
}

func jumpInstruction(w io.Writer, op Op, fn *CompiledFunction, offset int) int {
	jump := ReadUint16(fn.Code, offset+1)
	fmt.Fprintf(w, "%-16s %4d -> %d\n", op, offset, offset+3+int(jump))
	return offset + 3
}
