package display

import "github.com/lookbusy1344/sam3x-emulator/mcu"

// command bytes occupy the top byte of each 32-bit word written to
// SPI0's TDR; the remaining 24 bits carry the command's payload. This
// protocol is a fresh design (spec.md names "SPI-attached graphics" but
// does not define its wire format) modeled on
// original_source/emulator/src/spi.rs's single-chip-select, one-word-
// per-transfer contract.
const (
	cmdPutChar    = 0x01 // payload: ASCII byte in bits [7:0]
	cmdSetCursor  = 0x02 // payload: row in bits [15:8], col in bits [7:0]
	cmdClear      = 0x03
	cmdReadStatus = 0x04 // reply: 1 if the display is ready (always, here)
)

// GraphicsCard is the SPI-attached display adapter (spec §2's "SPI
// graphics slave"). It implements mcu.SPIDevice and owns the
// TextDisplay it draws to.
type GraphicsCard struct {
	display *TextDisplay
}

var _ mcu.SPIDevice = (*GraphicsCard)(nil)

// NewGraphicsCard attaches a card to display.
func NewGraphicsCard(display *TextDisplay) *GraphicsCard {
	return &GraphicsCard{display: display}
}

// Receive implements mcu.SPIDevice. original_source/emulator/src/spi.rs
// only ever looks at chip_select0 (this controller supports a single
// chip select); the card ignores chipSelect for the same reason.
func (g *GraphicsCard) Receive(data uint32, _ uint32) (uint32, bool) {
	cmd := byte(data >> 24)
	payload := data & 0x00FFFFFF
	switch cmd {
	case cmdPutChar:
		g.display.PutChar(byte(payload))
		return 0, false
	case cmdSetCursor:
		g.display.row = int((payload >> 8) & 0xFF)
		g.display.col = int(payload & 0xFF)
		return 0, false
	case cmdClear:
		g.display.Clear()
		return 0, false
	case cmdReadStatus:
		return 1, true
	default:
		return 0, false
	}
}

// Display returns the backing TextDisplay, for host-side rendering.
func (g *GraphicsCard) Display() *TextDisplay {
	return g.display
}
