package mcu

// ResetController implements only the Control Register (spec §4.3.2),
// grounded on original_source/emulator/src/reset.rs. A write with key
// 0xA5 in the top byte and low nibble 0b1101 latches a pending reset,
// polled by the CPU loop each iteration (spec §4.7 step 1).
type ResetController struct {
	requested bool
}

const (
	resetCR       = ResetControllerStart
	resetKeyMask  = 0xFF000000
	resetKey      = 0xA5000000
	resetBits     = 0b1101
)

func NewResetController() *ResetController {
	return &ResetController{}
}

func (r *ResetController) Contains(addr uint32) bool {
	return addr >= ResetControllerStart && addr < ResetControllerStart+ResetControllerSize
}

func (r *ResetController) Get32(addr uint32) (uint32, error) {
	if addr != resetCR {
		return 0, newFault(FaultUnsupportedRegister, addr, "reset controller")
	}
	return 0, nil
}

func (r *ResetController) Set32(addr uint32, value uint32) error {
	if addr != resetCR {
		return newFault(FaultUnsupportedRegister, addr, "reset controller")
	}
	if value&resetKeyMask != resetKey {
		return nil
	}
	switch {
	case value&resetBits == resetBits:
		r.requested = true
	case value&resetBits != 0:
		return newFault(FaultWritePrecondition, addr, "unsupported reset control bits")
	}
	return nil
}

// RequestedAndClear reports whether a reset was requested, clearing the
// latch (spec §4.7 step 1 polls and clears in the same step).
func (r *ResetController) RequestedAndClear() bool {
	v := r.requested
	r.requested = false
	return v
}

func (r *ResetController) Reset() {
	r.requested = false
}

// ResetSnapshot is the exported, gob-encodable form of reset-controller
// state (spec §6 checkpoint/restore).
type ResetSnapshot struct {
	Requested bool
}

func (r *ResetController) Snapshot() ResetSnapshot {
	return ResetSnapshot{Requested: r.requested}
}

func (r *ResetController) Restore(s ResetSnapshot) {
	r.requested = s.Requested
}
