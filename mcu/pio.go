package mcu

// PIO models the two Parallel I/O controllers, A and B (spec §4.3.7).
// No file in original_source covers PIO directly; the register layout
// follows the real SAM3X PIO controller map (Per/Output-Enable/
// Output-Data/Pull-Up bit vectors, set registers OR, disable/clear
// registers AND-NOT) as spec'd in prose, applied uniformly to both
// banks at their real offset spacing.
type PIO struct {
	banks [2]pioBank

	observer func(state [4]uint32)
}

type pioBank struct {
	per      uint32 // PIO (vs peripheral) control enabled per pin
	outputEn uint32
	output   uint32
	pullUp   uint32
	input    uint32 // externally driven pin levels, read back via PDSR
}

const (
	pioBankStride = 0x200

	pioPER  = 0x00
	pioPDR  = 0x04
	pioPSR  = 0x08
	pioOER  = 0x10
	pioODR  = 0x14
	pioOSR  = 0x18
	pioSODR = 0x30
	pioCODR = 0x34
	pioODSR = 0x38
	pioPDSR = 0x3C
	pioPUDR = 0x60
	pioPUER = 0x64
	pioPUSR = 0x68
)

func NewPIO() *PIO {
	return &PIO{}
}

// SetObserver installs the pin-state-changed callback (spec §4.3.7):
// invoked with the four output-enable/output-data words, one pair per
// bank, after any write that could alter externally visible pin state.
func (p *PIO) SetObserver(f func(state [4]uint32)) {
	p.observer = f
}

func (p *PIO) Contains(addr uint32) bool {
	return addr >= PIOStart && addr < PIOStart+PIOSize
}

func (p *PIO) bankAndOffset(addr uint32) (*pioBank, uint32) {
	rel := addr - PIOStart
	idx := rel / pioBankStride
	if idx > 1 {
		idx = 1
	}
	return &p.banks[idx], rel - idx*pioBankStride
}

func (p *PIO) Get32(addr uint32) (uint32, error) {
	b, off := p.bankAndOffset(addr)
	switch off {
	case pioPER, pioPDR:
		return 0, nil
	case pioPSR:
		return b.per, nil
	case pioOER, pioODR:
		return 0, nil
	case pioOSR:
		return b.outputEn, nil
	case pioSODR, pioCODR:
		return 0, nil
	case pioODSR:
		return b.output, nil
	case pioPDSR:
		return (b.output & b.outputEn) | (b.input &^ b.outputEn), nil
	case pioPUDR, pioPUER:
		return 0, nil
	case pioPUSR:
		return b.pullUp, nil
	default:
		return 0, newFault(FaultUnsupportedRegister, addr, "PIO")
	}
}

func (p *PIO) Set32(addr uint32, value uint32) error {
	b, off := p.bankAndOffset(addr)
	changed := false
	switch off {
	case pioPER:
		b.per |= value
	case pioPDR:
		b.per &^= value
	case pioPSR:
		// read-only
	case pioOER:
		b.outputEn |= value
		changed = true
	case pioODR:
		b.outputEn &^= value
		changed = true
	case pioOSR:
		// read-only
	case pioSODR:
		b.output |= value
		changed = true
	case pioCODR:
		b.output &^= value
		changed = true
	case pioODSR:
		b.output = value
		changed = true
	case pioPDSR:
		// read-only
	case pioPUDR:
		b.pullUp &^= value
	case pioPUER:
		b.pullUp |= value
	case pioPUSR:
		// read-only
	default:
		return newFault(FaultUnsupportedRegister, addr, "PIO")
	}
	if changed && p.observer != nil {
		p.observer(p.state())
	}
	return nil
}

func (p *PIO) state() [4]uint32 {
	return [4]uint32{p.banks[0].outputEn, p.banks[0].output, p.banks[1].outputEn, p.banks[1].output}
}

// DriveInput sets bank's externally supplied pin levels (e.g. a PS/2
// keyboard toggling a clock/data line), visible through PDSR for pins
// not configured as outputs.
func (p *PIO) DriveInput(bank int, value uint32) {
	p.banks[bank].input = value
}

// OutputEnabled reports whether the given pin (bank, bit) is currently
// configured as an output, consulted by SPI0/USART0 writes that gate
// on PIO state (spec §4.4).
func (p *PIO) OutputEnabled(bank int, pin uint) bool {
	return p.banks[bank].outputEn&(1<<pin) != 0
}

func (p *PIO) Reset() {
	p.banks = [2]pioBank{}
}

// PIOBankSnapshot is the exported, gob-encodable form of one PIO bank.
type PIOBankSnapshot struct {
	PER, OutputEn, Output, PullUp, Input uint32
}

// PIOSnapshot is the exported, gob-encodable form of PIO state (spec §6
// checkpoint/restore); the observer callback is host wiring and is not
// part of persisted state.
type PIOSnapshot struct {
	Banks [2]PIOBankSnapshot
}

func (p *PIO) Snapshot() PIOSnapshot {
	var s PIOSnapshot
	for i, b := range p.banks {
		s.Banks[i] = PIOBankSnapshot{PER: b.per, OutputEn: b.outputEn, Output: b.output, PullUp: b.pullUp, Input: b.input}
	}
	return s
}

func (p *PIO) Restore(s PIOSnapshot) {
	for i, b := range s.Banks {
		p.banks[i] = pioBank{per: b.PER, outputEn: b.OutputEn, output: b.Output, pullUp: b.PullUp, input: b.Input}
	}
}
