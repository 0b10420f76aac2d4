package bytecode_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/chazu/kozi/pkg/bytecode"
	"github.com/chazu/kozi/pkg/core/value"
)

// TestConstantIndexDecodesAsBigEndian16 pins spec.md §9's REDESIGN FLAG: an
// earlier source revision reconstructed a two-byte constant index with
// `high << 4` instead of `high << 8`. An index like 0x0102 (258) straddles
// that boundary — high<<4 would silently produce the wrong value — so a
// correct disassembly of it is a regression test against that bug class.
func TestConstantIndexDecodesAsBigEndian16(t *testing.T) {
	fn := bytecode.New()
	for i := 0; i < 258; i++ {
		fn.Constants = append(fn.Constants, value.Number(float64(i)))
	}
	fn.WriteOp(bytecode.OpConstant, 1)
	fn.WriteUint16(258, 1)

	var buf bytes.Buffer
	bytecode.DisassembleInstruction(&buf, fn, 0)

	if !strings.Contains(buf.String(), " 258 ") {
		t.Errorf("expected disassembly to report constant index 258, got %q", buf.String())
	}
}

func TestDisassembleJumpShowsTarget(t *testing.T) {
	fn := bytecode.New()
	fn.WriteOp(bytecode.OpJump, 1)
	fn.WriteUint16(10, 1)

	var buf bytes.Buffer
	bytecode.DisassembleInstruction(&buf, fn, 0)

	if !strings.Contains(buf.String(), "-> 13") {
		t.Errorf("expected jump target offset+3+operand = 13, got %q", buf.String())
	}
}
