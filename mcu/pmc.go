package mcu

// PMC is the Power Management Controller (spec §4.3.1), grounded
// directly on original_source's PowerManagementController register
// semantics (section 28 of the Atmel SAM3X datasheet).
type PMC struct {
	mor  uint32 // main oscillator register
	plla uint32
	mckr uint32 // master clock register
	pcsr0 uint32
}

const (
	pmcPCER0 = PMCStart + 0x10
	pmcPCDR0 = PMCStart + 0x14
	pmcPCSR0 = PMCStart + 0x18
	pmcMOR   = PMCStart + 0x20
	pmcPLLA  = PMCStart + 0x28
	pmcMCKR  = PMCStart + 0x30
	pmcSR    = PMCStart + 0x68

	pmcPCSR0Bits = 0xFFFFFFFC
	pmcMORKeyMask = 0x00FF0000
	pmcMORKey     = 0x00370000
	pmcMORBits    = 0x0300FF7B
	pmcPLLABits   = 0x07FF3FFF
	pmcMCKRBits   = 0x3073

	pmcSRReady = (1 << 0) | (1 << 1) | (1 << 3) | (1 << 16) | (1 << 17)

	spiPeripheralID   = 24
	usart0PeripheralID = 17
)

// NewPMC returns a PMC at its documented power-on values.
func NewPMC() *PMC {
	return &PMC{mor: 0x1, plla: 0x3F00, mckr: 0x1, pcsr0: 0}
}

func (p *PMC) Contains(addr uint32) bool {
	return addr >= PMCStart && addr < PMCStart+PMCSize
}

func (p *PMC) Get32(addr uint32) (uint32, error) {
	switch addr {
	case pmcPCER0, pmcPCDR0:
		return 0, nil
	case pmcPCSR0:
		return p.pcsr0, nil
	case pmcMOR:
		return p.mor, nil
	case pmcPLLA:
		return p.plla, nil
	case pmcMCKR:
		return p.mckr, nil
	case pmcSR:
		return pmcSRReady, nil
	default:
		return 0, newFault(FaultUnsupportedRegister, addr, "PMC")
	}
}

func (p *PMC) Set32(addr uint32, value uint32) error {
	switch addr {
	case pmcPCER0:
		p.pcsr0 |= value & pmcPCSR0Bits
	case pmcPCDR0:
		p.pcsr0 &^= value
	case pmcPCSR0:
		// read-only, writes ignored
	case pmcMOR:
		if value&pmcMORKeyMask == pmcMORKey {
			p.mor = value & pmcMORBits
		}
	case pmcPLLA:
		if value&(1<<29) == 0 {
			return newFault(FaultWritePrecondition, addr, "PLLA write requires bit 29 set")
		}
		p.plla = value & pmcPLLABits
	case pmcMCKR:
		p.mckr = value & pmcMCKRBits
	default:
		return newFault(FaultUnsupportedRegister, addr, "PMC")
	}
	return nil
}

// SPIClockEnabled reports bit 24 of PCSR0 (spec §4.3.1 derived signals).
func (p *PMC) SPIClockEnabled() bool {
	return p.pcsr0&(1<<spiPeripheralID) != 0
}

// USARTClockEnabled reports bit 17 of PCSR0.
func (p *PMC) USARTClockEnabled() bool {
	return p.pcsr0&(1<<usart0PeripheralID) != 0
}

func (p *PMC) Reset() {
	*p = *NewPMC()
}

// PMCSnapshot is the exported, gob-encodable form of PMC state (spec §6
// checkpoint/restore).
type PMCSnapshot struct {
	MOR, PLLA, MCKR, PCSR0 uint32
}

func (p *PMC) Snapshot() PMCSnapshot {
	return PMCSnapshot{MOR: p.mor, PLLA: p.plla, MCKR: p.mckr, PCSR0: p.pcsr0}
}

func (p *PMC) Restore(s PMCSnapshot) {
	p.mor, p.plla, p.mckr, p.pcsr0 = s.MOR, s.PLLA, s.MCKR, s.PCSR0
}
