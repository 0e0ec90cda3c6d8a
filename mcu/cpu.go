package mcu

// Mode is the processor mode (ARMv7-M thread vs. handler mode).
type Mode int

const (
	ModeThread Mode = iota
	ModeHandler
)

// ITState is the IT-block predication state (spec §3, §4.2).
type ITState struct {
	// FirstCond is the base condition for the block (bits[7:4] of the IT
	// instruction).
	FirstCond ConditionCode
	// Mask holds the then/else bits not yet consumed, MSB-first, with the
	// terminating 1 still present, following the ARMv7-M ITSTATE<7:0>
	// convention. Mask == 0 means "not in an IT block".
	Mask uint8
}

// Active reports whether the processor is currently inside an IT block.
func (it ITState) Active() bool {
	return it.Mask != 0
}

// Advance consumes one instruction slot of the IT block.
func (it ITState) Advance() ITState {
	if it.Mask == 0 {
		return it
	}
	next := it.Mask << 1
	if next&0x1F == 0 {
		// all condition bits exhausted once the terminating 1 falls off
		return ITState{}
	}
	return ITState{FirstCond: it.FirstCond, Mask: next}
}

// CurrentCondition returns the condition code to apply to the instruction
// at the current position in the IT block.
func (it ITState) CurrentCondition() ConditionCode {
	if it.Mask == 0 {
		return CondAL
	}
	// bit 4 of Mask is the low bit of this slot's condition: FirstCond when
	// it equals FirstCond's low bit, FirstCond with the low bit inverted
	// otherwise
	firstCondLSB := uint8(it.FirstCond) & 1
	thenBit := (it.Mask >> 4) & 1
	if thenBit == firstCondLSB {
		return it.FirstCond
	}
	return it.FirstCond ^ 1
}

// CPSR holds the APSR condition flags (N, Z, C, V). ARMv7-M keeps the
// remaining CPSR bits (IT state, mode, etc.) elsewhere in the CPU struct,
// matching how the teacher splits flags from everything else.
type CPSR struct {
	N bool
	Z bool
	C bool
	V bool
}

// ToUint32 packs the flags into APSR bits 31..28.
func (c *CPSR) ToUint32() uint32 {
	var v uint32
	if c.N {
		v |= 1 << 31
	}
	if c.Z {
		v |= 1 << 30
	}
	if c.C {
		v |= 1 << 29
	}
	if c.V {
		v |= 1 << 28
	}
	return v
}

// FromUint32 unpacks APSR bits 31..28 into the flags.
func (c *CPSR) FromUint32(v uint32) {
	c.N = v&(1<<31) != 0
	c.Z = v&(1<<30) != 0
	c.C = v&(1<<29) != 0
	c.V = v&(1<<28) != 0
}

// CPU is the ARMv7-M register/flag/mode context (spec §3).
type CPU struct {
	R    [13]uint32 // R0..R12
	SP   uint32     // R13
	LR   uint32     // R14
	PC   uint32     // R15, halfword-aligned

	CPSR CPSR
	IT   ITState

	Primask bool
	Mode    Mode
	// ActiveInterrupt is the exception number (1-based: 1=Reset, ... 16=IRQ0)
	// currently being handled, or 0 if none.
	ActiveInterrupt int

	Cycles uint64
}

// NewCPU returns a zeroed CPU context.
func NewCPU() *CPU {
	return &CPU{Mode: ModeThread}
}

// Reset clears all registers, flags and IT state.
func (c *CPU) Reset() {
	*c = CPU{Mode: ModeThread}
}

// GetRegister reads R0..R12, SP(13), LR(14) or PC(15). Reading PC returns
// PC+4, word-aligned, matching the "PC used as an operand reads current
// PC + 4" rule of spec §4.2.
func (c *CPU) GetRegister(reg int) uint32 {
	switch {
	case reg == PC:
		return (c.PC + 4) &^ 0x3
	case reg == SP:
		return c.SP
	case reg == LR:
		return c.LR
	case reg >= 0 && reg < SP:
		return c.R[reg]
	default:
		return 0
	}
}

// SetRegister writes R0..R12, SP, LR or PC.
func (c *CPU) SetRegister(reg int, value uint32) {
	switch {
	case reg == PC:
		c.PC = value
	case reg == SP:
		c.SP = value
	case reg == LR:
		c.LR = value
	case reg >= 0 && reg < SP:
		c.R[reg] = value
	}
}

// RawPC returns the architectural PC (not PC+4), for fetch addressing.
func (c *CPU) RawPC() uint32 {
	return c.PC
}
