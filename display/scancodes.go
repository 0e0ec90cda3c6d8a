// Package display implements the supporting peripherals clients see
// beyond the core bus: a character-cell text display, an SPI-attached
// graphics card, and a PS/2 keyboard scancode map (spec.md §2's
// "Assembler / graphics card / text display / keyboard scancode map"
// row).
package display

// pressScancodes and releaseScancodes are the PS/2 Scan Code Set 2
// make/break byte sequences for a US QWERTY layout, carried over
// verbatim from original_source/emulator/src/keyboard.rs's
// Keyboard::new() tables (a supplemented feature: spec.md §2 names a
// "keyboard scancode map" without detailing it).
var pressScancodes = map[string][]byte{
	"0": {0x45}, "1": {0x16}, "2": {0x1E}, "3": {0x26}, "4": {0x25},
	"5": {0x2E}, "6": {0x36}, "7": {0x3D}, "8": {0x3E}, "9": {0x46},
	"A": {0x1C}, "B": {0x32}, "C": {0x21}, "D": {0x23}, "E": {0x24},
	"F": {0x2B}, "G": {0x34}, "H": {0x33}, "I": {0x43}, "J": {0x3B},
	"K": {0x42}, "L": {0x4B}, "M": {0x3A}, "N": {0x31}, "O": {0x44},
	"P": {0x4D}, "Q": {0x15}, "R": {0x2D}, "S": {0x1B}, "T": {0x2C},
	"U": {0x3C}, "V": {0x2A}, "W": {0x1D}, "X": {0x22}, "Y": {0x35},
	"Z": {0x1A},
	"Backspace":   {0x66},
	"`":           {0x0E},
	"CapsLock":    {0x58},
	"Enter":       {0x5A},
	"Escape":      {0x76},
	"F1":          {0x05}, "F2": {0x06}, "F3": {0x04}, "F4": {0x0C},
	"F5": {0x03}, "F6": {0x0B}, "F7": {0x83}, "F8": {0x0A},
	"F9": {0x01}, "F10": {0x09}, "F11": {0x78}, "F12": {0x07},
	"Alt": {0x11}, "Control": {0x14}, "Shift": {0x12},
	"NumLock": {0x77}, "ScrollLock": {0x7E},
	"Tab": {0x0D}, " ": {0x29},
	",": {0x41}, ".": {0x49}, "/": {0x4A}, ";": {0x4C}, "-": {0x4E},
	"'": {0x52}, "[": {0x54}, "=": {0x55}, "]": {0x5B}, "\\": {0x5D},
	"ArrowDown": {0xE0, 0x72}, "ArrowLeft": {0xE0, 0x6B},
	"ArrowRight": {0xE0, 0x74}, "ArrowUp": {0xE0, 0x75},
	"Delete": {0xE0, 0x71}, "Home": {0xE0, 0x6C}, "End": {0xE0, 0x69},
	"Insert": {0xE0, 0x70}, "PageUp": {0xE0, 0x7D}, "PageDown": {0xE0, 0x7A},
	"PrintScreen": {0xE0, 0x12, 0xE0, 0x7C},
	"Pause":       {0xE1, 0x14, 0x77, 0xE1, 0xF0, 0x14, 0xF0, 0x77},
}

var releaseScancodes = buildReleaseTable()

// buildReleaseTable derives the break-code table from the make-code
// table: a plain 0xF0 prefix on the last byte group for ordinary keys,
// and the two irregular multi-byte sequences (PrintScreen, Pause) that
// original_source spells out explicitly rather than deriving.
func buildReleaseTable() map[string][]byte {
	irregular := map[string][]byte{
		"PrintScreen": {0xE0, 0xF0, 0x7C, 0xE0, 0xF0, 0x12},
		"Pause":       {}, // the original table has no release sequence for Pause
	}
	out := make(map[string][]byte, len(pressScancodes))
	for key, press := range pressScancodes {
		if seq, ok := irregular[key]; ok {
			out[key] = seq
			continue
		}
		if len(press) == 2 && press[0] == 0xE0 {
			out[key] = []byte{0xE0, 0xF0, press[1]}
			continue
		}
		out[key] = append([]byte{0xF0}, press...)
	}
	return out
}

// Keyboard looks up PS/2 make/break scancode sequences by key name (spec
// §2, "keyboard scancode map").
type Keyboard struct{}

// NewKeyboard returns a Keyboard backed by the fixed US QWERTY scancode
// tables.
func NewKeyboard() *Keyboard {
	return &Keyboard{}
}

// KeyPressed returns the make-code byte sequence for key, or nil if key
// is not in the table.
func (Keyboard) KeyPressed(key string) []byte {
	return pressScancodes[key]
}

// KeyReleased returns the break-code byte sequence for key, or nil if
// key is not in the table.
func (Keyboard) KeyReleased(key string) []byte {
	return releaseScancodes[key]
}
