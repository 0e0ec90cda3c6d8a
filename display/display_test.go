package display_test

import (
	"strings"
	"testing"

	"github.com/lookbusy1344/sam3x-emulator/display"
)

func TestTextDisplayWrapAndScroll(t *testing.T) {
	d := display.NewTextDisplay(4, 2)
	for _, c := range "abcdefgh" {
		d.PutChar(byte(c))
	}
	want := "abcd\nefgh"
	if got := d.Render(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	d.PutChar('i')
	if got := d.Render(); !strings.HasPrefix(got, "efgh\n") {
		t.Fatalf("expected scroll to drop first row, got %q", got)
	}
}

func TestGraphicsCardPutChar(t *testing.T) {
	d := display.NewTextDisplay(4, 2)
	card := display.NewGraphicsCard(d)
	word := uint32(0x01<<24) | uint32('X')
	if _, ok := card.Receive(word, 0); ok {
		t.Fatal("PutChar should not produce a reply")
	}
	if got := d.Render(); !strings.HasPrefix(got, "X") {
		t.Fatalf("expected leading X, got %q", got)
	}
}

func TestGraphicsCardStatus(t *testing.T) {
	card := display.NewGraphicsCard(display.NewTextDisplay(1, 1))
	reply, ok := card.Receive(uint32(0x04<<24), 0)
	if !ok || reply != 1 {
		t.Fatalf("expected status reply (1, true), got (%d, %v)", reply, ok)
	}
}

func TestKeyboardScancodes(t *testing.T) {
	kb := display.NewKeyboard()
	if got := kb.KeyPressed("A"); len(got) != 1 || got[0] != 0x1C {
		t.Fatalf("KeyPressed(A) = %v, want [0x1C]", got)
	}
	if got := kb.KeyReleased("A"); len(got) != 2 || got[0] != 0xF0 || got[1] != 0x1C {
		t.Fatalf("KeyReleased(A) = %v, want [0xF0 0x1C]", got)
	}
}
