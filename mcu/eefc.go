package mcu

// EEFC models the two Enhanced Embedded Flash Controllers, one per
// flash bank (spec §4.3.4). No original_source file implements this
// directly (original_source/emulator/src/memory.rs treats flash as a
// plain writable MemoryBank, committing every word write immediately,
// so there is no separate page-buffer state to replicate); the command
// handshake (key byte, FRDY-always-ready) follows
// original_source/scripts/src/flash_helper.rs's expectations of the
// controller it drives.
type EEFC struct {
	lastCommand uint32
}

const (
	eefcStride = 0x200

	eefcFMR = 0x00
	eefcFCR = 0x04
	eefcFSR = 0x08
	eefcFRR = 0x0C

	eefcCommandKeyMask = 0xFF000000
	eefcCommandKey     = 0x5A000000
	eefcCommandMask    = 0xFF
	eefcEraseAndWrite  = 0x03

	eefcFRDY = 1 << 0
)

func NewEEFC() *EEFC {
	return &EEFC{}
}

func (e *EEFC) Contains(addr uint32) bool {
	return addr >= EEFCStart && addr < EEFCStart+EEFCSize
}

func (e *EEFC) controllerAndOffset(addr uint32) (int, uint32) {
	rel := addr - EEFCStart
	idx := rel / eefcStride
	if idx > 1 {
		idx = 1
	}
	return int(idx), rel - idx*eefcStride
}

func (e *EEFC) Get32(addr uint32) (uint32, error) {
	_, off := e.controllerAndOffset(addr)
	switch off {
	case eefcFMR:
		return 0, nil
	case eefcFCR:
		return 0, nil
	case eefcFSR:
		return eefcFRDY, nil
	case eefcFRR:
		return 0, nil
	default:
		return 0, newFault(FaultUnsupportedRegister, addr, "EEFC")
	}
}

// Set32 decodes FCR commands. Only "erase and write page" (0x03) is
// emulated: the page's contents are already committed by the ordinary
// word writes the host issued into the flash bank beforehand, so this
// only validates the command and key before the host polls FSR.FRDY.
func (e *EEFC) Set32(addr uint32, value uint32) error {
	controller, off := e.controllerAndOffset(addr)
	switch off {
	case eefcFMR:
		// wait-state field ignored
	case eefcFCR:
		if value&eefcCommandKeyMask != eefcCommandKey {
			return newFault(FaultWritePrecondition, addr, "EEFC command missing key byte")
		}
		cmd := value & eefcCommandMask
		if cmd != eefcEraseAndWrite {
			return newFault(FaultWritePrecondition, addr, "unsupported EEFC command")
		}
		page := (value >> 8) & 0xFFFF
		_ = controller
		e.lastCommand = page
	case eefcFSR, eefcFRR:
		// read-only
	default:
		return newFault(FaultUnsupportedRegister, addr, "EEFC")
	}
	return nil
}

func (e *EEFC) Reset() {
	e.lastCommand = 0
}

// EEFCSnapshot is the exported, gob-encodable form of EEFC state (spec §6
// checkpoint/restore).
type EEFCSnapshot struct {
	LastCommand uint32
}

func (e *EEFC) Snapshot() EEFCSnapshot {
	return EEFCSnapshot{LastCommand: e.lastCommand}
}

func (e *EEFC) Restore(s EEFCSnapshot) {
	e.lastCommand = s.LastCommand
}
