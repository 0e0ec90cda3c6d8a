package mcu

// SCB is the System Control Block (spec §4.3.11), grounded directly on
// original_source/emulator/src/system.rs. Only VTOR and the SVCall byte
// of SHPR2 are implemented; every other SCB register is unsupported.
type SCB struct {
	vtor        uint32
	svcPriority uint8
}

const (
	scbVTOR  = SCBStart + 0x08
	scbSHPR2 = SCBStart + 0x1C

	scbVTORMask = 0x3FFFFF80
)

func NewSCB() *SCB {
	return &SCB{}
}

func (s *SCB) Contains(addr uint32) bool {
	return addr >= SCBStart && addr < SCBStart+SCBSize
}

func (s *SCB) Get32(addr uint32) (uint32, error) {
	switch addr {
	case scbVTOR:
		return s.vtor, nil
	case scbSHPR2:
		return uint32(s.svcPriority) << 24, nil
	default:
		return 0, newFault(FaultUnsupportedRegister, addr, "SCB")
	}
}

func (s *SCB) Set32(addr uint32, value uint32) error {
	switch addr {
	case scbVTOR:
		s.vtor = value & scbVTORMask
	case scbSHPR2:
		s.svcPriority = uint8(value >> 24)
	default:
		return newFault(FaultUnsupportedRegister, addr, "SCB")
	}
	return nil
}

// VTOR returns the vector table base address.
func (s *SCB) VTOR() uint32 {
	return s.vtor
}

// SetVTOR installs a new vector table base (used by the CPU loop on
// reset, spec §4.7 step 1).
func (s *SCB) SetVTOR(addr uint32) {
	s.vtor = addr & scbVTORMask
}

func (s *SCB) Reset() {
	s.vtor = 0
	s.svcPriority = 0
}

// SCBSnapshot is the exported, gob-encodable form of SCB state (spec §6
// checkpoint/restore).
type SCBSnapshot struct {
	VTOR        uint32
	SVCPriority uint8
}

func (s *SCB) Snapshot() SCBSnapshot {
	return SCBSnapshot{VTOR: s.vtor, SVCPriority: s.svcPriority}
}

func (s *SCB) Restore(snap SCBSnapshot) {
	s.vtor, s.svcPriority = snap.VTOR, snap.SVCPriority
}
