package mcu

// SysTick (spec §4.3.8), grounded directly on
// original_source/emulator/src/time.rs. The optional wait hook models a
// firmware busy-wait loop that repeatedly polls CSR: when installed, a
// CSR read blocks the host for the scaled current-value duration, then
// reloads, instead of requiring update() to be called once per emulated
// tick.
type SysTick struct {
	ctrl    uint32
	reload  uint32
	current uint32

	waitFunc func(micros uint32)
}

const (
	systickCSR  = SysTickStart + 0x00
	systickRVR  = SysTickStart + 0x04
	systickCVR  = SysTickStart + 0x08
	systickCALR = SysTickStart + 0x0C

	systickCountFlag  = 1 << 16
	systickClockSrc   = 1 << 2
	systickTickInt    = 1 << 1
	systickEnable     = 1

	systickCalibration = 10500
	systickIncrement   = 1000
)

func NewSysTick() *SysTick {
	return &SysTick{ctrl: systickClockSrc}
}

// SetWaitFunc installs the optional blocking-wait hook (spec §4.3.8).
func (s *SysTick) SetWaitFunc(f func(micros uint32)) {
	s.waitFunc = f
}

func (s *SysTick) Contains(addr uint32) bool {
	return addr >= SysTickStart && addr < SysTickStart+SysTickSize
}

func (s *SysTick) Get32(addr uint32) (uint32, error) {
	switch addr {
	case systickCSR:
		result := s.ctrl
		if s.waitFunc != nil {
			if result&systickClockSrc != 0 {
				s.waitFunc(125 * (s.current / systickCalibration))
			} else {
				s.waitFunc(1000 * (s.current / systickCalibration))
			}
			s.current = s.reload
			result |= systickCountFlag
		}
		s.ctrl &^= systickCountFlag
		return result, nil
	case systickRVR:
		return s.reload, nil
	case systickCVR:
		return s.current, nil
	case systickCALR:
		return systickCalibration, nil
	default:
		return 0, newFault(FaultUnsupportedRegister, addr, "SysTick")
	}
}

func (s *SysTick) Set32(addr uint32, value uint32) error {
	switch addr {
	case systickCSR:
		if value&systickTickInt != 0 {
			return newFault(FaultWritePrecondition, addr, "SysTick CTRL TICKINT is unsupported")
		}
		s.ctrl &^= systickClockSrc | systickEnable
		s.ctrl |= value & (systickClockSrc | systickEnable)
	case systickRVR:
		s.reload = value
	case systickCVR:
		s.ctrl &^= systickCountFlag
		s.current = 0
	case systickCALR:
		// read-only
	default:
		return newFault(FaultUnsupportedRegister, addr, "SysTick")
	}
	return nil
}

// Update advances the counter by one fixed tick (spec §4.7 step 7),
// used when no wait hook is installed.
func (s *SysTick) Update() {
	if s.ctrl&systickEnable == 0 {
		return
	}
	switch {
	case s.current > systickIncrement:
		s.current -= systickIncrement
	case s.current == systickIncrement:
		s.ctrl |= systickCountFlag
		s.current = 0
	default:
		if s.current != 0 {
			s.ctrl |= systickCountFlag
		}
		if s.reload == 0 {
			s.current = 0
		} else {
			s.current += s.reload - systickIncrement
		}
	}
}

func (s *SysTick) Reset() {
	s.ctrl = systickClockSrc
	s.reload = 0
	s.current = 0
}

// SysTickSnapshot is the exported, gob-encodable form of SysTick state
// (spec §6 checkpoint/restore); the wait-function hook is host wiring and
// is not part of persisted state.
type SysTickSnapshot struct {
	CTRL, Reload, Current uint32
}

func (s *SysTick) Snapshot() SysTickSnapshot {
	return SysTickSnapshot{CTRL: s.ctrl, Reload: s.reload, Current: s.current}
}

func (s *SysTick) Restore(snap SysTickSnapshot) {
	s.ctrl, s.reload, s.current = snap.CTRL, snap.Reload, snap.Current
}
