package asm_test

import (
	"testing"

	"github.com/lookbusy1344/sam3x-emulator/asm"
)

func TestAssembleMovImmediate(t *testing.T) {
	a := asm.New()
	out, err := a.Assemble("MOVS R0, #5", 0x80000)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 bytes, got %d", len(out))
	}
	got := uint16(out[0]) | uint16(out[1])<<8
	want := uint16(0x2000 | 5)
	if got != want {
		t.Fatalf("got %#04x, want %#04x", got, want)
	}
}

func TestAssembleAddRegisters(t *testing.T) {
	a := asm.New()
	out, err := a.Assemble("ADDS R0, R1, R2", 0)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	got := uint16(out[0]) | uint16(out[1])<<8
	want := uint16(0x1800 | 2<<6 | 1<<3 | 0)
	if got != want {
		t.Fatalf("got %#04x, want %#04x", got, want)
	}
}

func TestAssembleBranchToLabel(t *testing.T) {
	source := `
START:
	MOVS R0, #1
	B START
`
	a := asm.New()
	out, err := a.Assemble(source, 0x80000)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("expected 4 bytes, got %d", len(out))
	}
	branch := uint16(out[2]) | uint16(out[3])<<8
	// B START is at origin+2; PC+4 there is origin+6, 6 bytes ahead of
	// START at origin, so the encoded delta is -6.
	delta := int16(-6)
	want := uint16(0xE000 | (uint16(delta>>1) & 0x7FF))
	if branch != want {
		t.Fatalf("got %#04x, want %#04x", branch, want)
	}
}

func TestAssemblePushPop(t *testing.T) {
	a := asm.New()
	out, err := a.Assemble("PUSH {R0, R1, LR}", 0)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	got := uint16(out[0]) | uint16(out[1])<<8
	want := uint16(0xB400 | 0x0100 | 0x3)
	if got != want {
		t.Fatalf("got %#04x, want %#04x", got, want)
	}
}

func TestAssembleSVC(t *testing.T) {
	a := asm.New()
	out, err := a.Assemble("SVC #7", 0)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	got := uint16(out[0]) | uint16(out[1])<<8
	if got != 0xDF07 {
		t.Fatalf("got %#04x, want 0xdf07", got)
	}
}
