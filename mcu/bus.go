package mcu

// Peripheral is the common contract every memory-mapped peripheral
// implements (spec §4.3): aligned 32-bit register access plus reset.
// Unknown addresses inside a peripheral's own range are a fatal fault,
// not a silent zero, so firmware bugs surface immediately.
type Peripheral interface {
	Get32(addr uint32) (uint32, error)
	Set32(addr uint32, value uint32) error
	Reset()
	Contains(addr uint32) bool
}

// Bus routes aligned and sub-word accesses to the owning memory bank or
// peripheral by address range (spec §4.4). Sub-word accesses against a
// peripheral are rejected: every peripheral register in this system is
// accessed as a full 32-bit word by real SAM3X firmware.
type Bus struct {
	ROM   *MemoryBank
	Flash *MemoryBank
	SRAM  *MemoryBank

	peripherals []Peripheral
	mpu         *MPU

	// SPI0's transmit path gates on PMC clock-enable and PIO
	// output-enable state (spec §4.3.5), which its Set32 takes as
	// extra parameters rather than satisfying Peripheral directly;
	// the bus resolves them from the attached PMC/PIO on every write.
	spi0 *SPI0
	pmc  *PMC
	pio  *PIO
}

// spiOutputPin is the PIOA bit gating SPI0's transmit path (SCK, PA27
// on the real SAM3X pinout). No file in original_source shows the
// board-level wiring between PIO and the SPI controller's
// output_enabled parameter; this pin choice is recorded as an Open
// Question decision in DESIGN.md.
const spiOutputPin = 27

// NewBus wires the three memory banks together; peripherals are
// attached afterward with Attach since they are constructed with
// callbacks that may reference the bus itself.
func NewBus(rom, flash, sram *MemoryBank) *Bus {
	return &Bus{ROM: rom, Flash: flash, SRAM: sram}
}

// Attach registers a peripheral for address routing.
func (b *Bus) Attach(p Peripheral) {
	b.peripherals = append(b.peripherals, p)
}

// AttachMPU installs the optional enforcement layer (spec §4.3.10).
func (b *Bus) AttachMPU(mpu *MPU) {
	b.mpu = mpu
}

// AttachSPI0 wires the SPI0 controller together with the PMC and PIO
// it consults for its clock-enabled/output-enabled gating (spec
// §4.3.5); SPI0 is routed separately from the generic peripherals list
// since its Set32 needs that externally resolved state.
func (b *Bus) AttachSPI0(spi0 *SPI0, pmc *PMC, pio *PIO) {
	b.spi0 = spi0
	b.pmc = pmc
	b.pio = pio
}

func (b *Bus) bank(addr uint32) *MemoryBank {
	switch {
	case b.ROM != nil && b.ROM.Contains(addr):
		return b.ROM
	case b.Flash != nil && b.Flash.Contains(addr):
		return b.Flash
	case b.SRAM != nil && b.SRAM.Contains(addr):
		return b.SRAM
	default:
		return nil
	}
}

func (b *Bus) peripheral(addr uint32) Peripheral {
	for _, p := range b.peripherals {
		if p.Contains(addr) {
			return p
		}
	}
	return nil
}

func (b *Bus) checkMPU(addr uint32, write bool) error {
	if b.mpu == nil || !b.mpu.Enforced() {
		return nil
	}
	if !b.mpu.Allows(addr, write) {
		return newFault(FaultUnmappedAddress, addr, "MPU region violation")
	}
	return nil
}

// Get32 reads an aligned word from whichever bank or peripheral owns
// addr.
func (b *Bus) Get32(addr uint32) (uint32, error) {
	if err := b.checkMPU(addr, false); err != nil {
		return 0, err
	}
	if bank := b.bank(addr); bank != nil {
		return bank.Get32(addr)
	}
	if b.spi0 != nil && b.spi0.Contains(addr) {
		return b.spi0.Get32(addr)
	}
	if p := b.peripheral(addr); p != nil {
		return p.Get32(addr)
	}
	return 0, newFault(FaultUnmappedAddress, addr, "no bank or peripheral owns this address")
}

// Set32 writes an aligned word.
func (b *Bus) Set32(addr uint32, value uint32) error {
	if err := b.checkMPU(addr, true); err != nil {
		return err
	}
	if bank := b.bank(addr); bank != nil {
		return bank.Set32(addr, value)
	}
	if b.spi0 != nil && b.spi0.Contains(addr) {
		clockEnabled := b.pmc != nil && b.pmc.SPIClockEnabled()
		outputEnabled := b.pio != nil && b.pio.OutputEnabled(0, spiOutputPin)
		return b.spi0.Set32(addr, value, clockEnabled, outputEnabled)
	}
	if p := b.peripheral(addr); p != nil {
		return p.Set32(addr, value)
	}
	return newFault(FaultUnmappedAddress, addr, "no bank or peripheral owns this address")
}

// Get8/Set8/Get16/Set16 only ever target a memory bank: every
// peripheral register in this system is word-accessed (spec §4.4).

func (b *Bus) Get8(addr uint32) (byte, error) {
	if err := b.checkMPU(addr, false); err != nil {
		return 0, err
	}
	bank := b.bank(addr)
	if bank == nil {
		return 0, newFault(FaultUnmappedAddress, addr, "sub-word access outside any memory bank")
	}
	return bank.Get8(addr)
}

func (b *Bus) Set8(addr uint32, value byte) error {
	if err := b.checkMPU(addr, true); err != nil {
		return err
	}
	bank := b.bank(addr)
	if bank == nil {
		return newFault(FaultUnmappedAddress, addr, "sub-word access outside any memory bank")
	}
	return bank.Set8(addr, value)
}

func (b *Bus) Get16(addr uint32) (uint16, error) {
	if err := b.checkMPU(addr, false); err != nil {
		return 0, err
	}
	bank := b.bank(addr)
	if bank == nil {
		return 0, newFault(FaultUnmappedAddress, addr, "sub-word access outside any memory bank")
	}
	return bank.Get16(addr)
}

func (b *Bus) Set16(addr uint32, value uint16) error {
	if err := b.checkMPU(addr, true); err != nil {
		return err
	}
	bank := b.bank(addr)
	if bank == nil {
		return newFault(FaultUnmappedAddress, addr, "sub-word access outside any memory bank")
	}
	return bank.Set16(addr, value)
}

// GetInsn fetches the decoded instruction at addr, which must lie in a
// memory bank (peripherals are not executable).
func (b *Bus) GetInsn(addr uint32) (Instruction, error) {
	bank := b.bank(addr)
	if bank == nil {
		return Instruction{}, newFault(FaultUnmappedAddress, addr, "fetch outside any memory bank")
	}
	return bank.GetInsn(addr)
}

// DecodeInsns batch-decodes starting at addr (spec §4.7 step 3).
func (b *Bus) DecodeInsns(addr uint32, maxCount int) ([]Instruction, error) {
	bank := b.bank(addr)
	if bank == nil {
		return nil, newFault(FaultUnmappedAddress, addr, "fetch outside any memory bank")
	}
	return bank.DecodeInsns(addr, maxCount)
}

// Reset resets every bank and peripheral.
func (b *Bus) Reset() {
	for _, bank := range []*MemoryBank{b.ROM, b.Flash, b.SRAM} {
		if bank != nil {
			bank.Reset(0)
		}
	}
	for _, p := range b.peripherals {
		p.Reset()
	}
	if b.spi0 != nil {
		b.spi0.Reset()
	}
}
