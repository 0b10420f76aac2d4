package bytecode_test

import (
	"testing"

	"github.com/chazu/kozi/pkg/bytecode"
	"github.com/chazu/kozi/pkg/core/value"
)

func TestCodeAndLinesStayAligned(t *testing.T) {
	fn := bytecode.New()
	fn.WriteOp(bytecode.OpNil, 1)
	fn.WriteOp(bytecode.OpConstant, 2)
	fn.WriteUint16(5, 2)

	if len(fn.Code) != len(fn.Lines) {
		t.Fatalf("len(Code)=%d != len(Lines)=%d", len(fn.Code), len(fn.Lines))
	}
}

func TestAddConstantDeduplicates(t *testing.T) {
	fn := bytecode.New()
	i1, ok := fn.AddConstant(value.Number(3))
	if !ok {
		t.Fatal("expected AddConstant to succeed")
	}
	i2, ok := fn.AddConstant(value.Number(3))
	if !ok {
		t.Fatal("expected AddConstant to succeed")
	}
	if i1 != i2 {
		t.Errorf("expected the same index for an equal constant, got %d and %d", i1, i2)
	}
	if len(fn.Constants) != 1 {
		t.Errorf("expected exactly one constant pool entry, got %d", len(fn.Constants))
	}
}

func TestUint16RoundTrip(t *testing.T) {
	fn := bytecode.New()
	fn.WriteUint16(0xBEEF, 1)
	got := bytecode.ReadUint16(fn.Code, 0)
	if got != 0xBEEF {
		t.Errorf("expected 0xBEEF, got %#x", got)
	}
}

func TestResetPreservesConstants(t *testing.T) {
	fn := bytecode.New()
	fn.AddConstant(value.Number(1))
	fn.WriteOp(bytecode.OpReturn, 1)

	fn.Reset()

	if len(fn.Code) != 0 || len(fn.Lines) != 0 {
		t.Errorf("expected Reset to clear code and lines")
	}
	if len(fn.Constants) != 1 {
		t.Errorf("expected Reset to preserve the constant pool")
	}
}
