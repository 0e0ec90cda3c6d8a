package mcu

// Watchdog implements the Mode Register only (spec §4.3.3), grounded on
// original_source/emulator/src/watchdog.rs: the mode register is
// write-once (a real hardware property — after the first write, the
// watchdog configuration is locked until reset) and the watchdog never
// actually fires.
type Watchdog struct {
	mode        uint32
	writtenOnce bool
}

const (
	watchdogMR          = WatchdogStart + 0x4
	watchdogInitialMode = 0x3FFF2FFF
)

func NewWatchdog() *Watchdog {
	return &Watchdog{mode: watchdogInitialMode}
}

func (w *Watchdog) Contains(addr uint32) bool {
	return addr >= WatchdogStart && addr < WatchdogStart+WatchdogSize
}

func (w *Watchdog) Get32(addr uint32) (uint32, error) {
	if addr == watchdogMR {
		return w.mode, nil
	}
	return 0, nil
}

func (w *Watchdog) Set32(addr uint32, value uint32) error {
	if addr == watchdogMR && !w.writtenOnce {
		w.mode = value
		w.writtenOnce = true
	}
	return nil
}

func (w *Watchdog) Reset() {
	w.mode = watchdogInitialMode
	w.writtenOnce = false
}

// WatchdogSnapshot is the exported, gob-encodable form of watchdog state
// (spec §6 checkpoint/restore).
type WatchdogSnapshot struct {
	Mode        uint32
	WrittenOnce bool
}

func (w *Watchdog) Snapshot() WatchdogSnapshot {
	return WatchdogSnapshot{Mode: w.mode, WrittenOnce: w.writtenOnce}
}

func (w *Watchdog) Restore(s WatchdogSnapshot) {
	w.mode, w.writtenOnce = s.Mode, s.WrittenOnce
}
