package mcu

// NVIC is the Nested Vector Interrupt Controller, interrupts [0..31]
// only, no configurable priorities (spec §4.3.9), grounded directly on
// original_source/emulator/src/interrupt.rs.
type NVIC struct {
	enabled uint32
	pending uint32
	active  uint32
}

const (
	nvicISER0 = NVICStart + 0x000
	nvicICER0 = NVICStart + 0x080
	nvicISPR0 = NVICStart + 0x100
	nvicICPR0 = NVICStart + 0x180
	nvicIABR0 = NVICStart + 0x200
)

func NewNVIC() *NVIC {
	return &NVIC{}
}

func (n *NVIC) Contains(addr uint32) bool {
	return addr >= NVICStart && addr < NVICStart+NVICSize
}

func (n *NVIC) Get32(addr uint32) (uint32, error) {
	switch addr {
	case nvicISER0, nvicICER0:
		return n.enabled, nil
	case nvicISPR0, nvicICPR0:
		return n.pending, nil
	case nvicIABR0:
		return n.active, nil
	default:
		return 0, newFault(FaultUnsupportedRegister, addr, "NVIC")
	}
}

func (n *NVIC) Set32(addr uint32, value uint32) error {
	switch addr {
	case nvicISER0:
		n.enabled |= value
	case nvicICER0:
		n.enabled &^= value
	case nvicISPR0:
		n.pending |= value
	case nvicICPR0:
		n.pending &^= value
	case nvicIABR0:
		// read-only
	default:
		return newFault(FaultUnsupportedRegister, addr, "NVIC")
	}
	return nil
}

// MaybeActivateInterrupt ORs levelInterrupts into pending and, if no
// interrupt is currently active and some enabled interrupt is pending,
// activates the lowest-numbered one: clears its pending bit, sets its
// active bit and returns (index, true).
func (n *NVIC) MaybeActivateInterrupt(levelInterrupts uint32) (int, bool) {
	n.pending |= levelInterrupts
	activable := n.enabled & n.pending
	if n.active == 0 && activable != 0 {
		idx := trailingZeros32(activable)
		n.pending &^= 1 << uint(idx)
		n.active |= 1 << uint(idx)
		return idx, true
	}
	return 0, false
}

// DeactivateInterrupt clears the single active bit, restoring it to
// pending iff the corresponding level input is still asserted.
func (n *NVIC) DeactivateInterrupt(levelInterrupts uint32) {
	if levelInterrupts&n.active == 0 {
		n.pending &^= n.active
	} else {
		n.pending |= n.active
	}
	n.active = 0
}

func trailingZeros32(v uint32) int {
	if v == 0 {
		return 32
	}
	n := 0
	for v&1 == 0 {
		v >>= 1
		n++
	}
	return n
}

func (n *NVIC) Reset() {
	n.enabled = 0
	n.pending = 0
	n.active = 0
}

// NVICSnapshot is the exported, gob-encodable form of NVIC state (spec §6
// checkpoint/restore).
type NVICSnapshot struct {
	Enabled, Pending, Active uint32
}

func (n *NVIC) Snapshot() NVICSnapshot {
	return NVICSnapshot{Enabled: n.enabled, Pending: n.pending, Active: n.active}
}

func (n *NVIC) Restore(s NVICSnapshot) {
	n.enabled, n.pending, n.active = s.Enabled, s.Pending, s.Active
}
