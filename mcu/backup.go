package mcu

// Backup is the General Purpose Backup Register bank (spec §4.3.12):
// eight 32-bit slots, initial values 1..8, grounded directly on
// original_source/emulator/src/backup.rs.
type Backup struct {
	values [8]uint32
}

func NewBackup() *Backup {
	b := &Backup{}
	b.Reset()
	return b
}

func (b *Backup) Contains(addr uint32) bool {
	return addr >= BackupStart && addr < BackupStart+BackupSize
}

func (b *Backup) Get32(addr uint32) (uint32, error) {
	idx := (addr - BackupStart) >> 2
	if idx >= uint32(len(b.values)) {
		return 0, newFault(FaultUnsupportedRegister, addr, "backup register")
	}
	return b.values[idx], nil
}

func (b *Backup) Set32(addr uint32, value uint32) error {
	idx := (addr - BackupStart) >> 2
	if idx >= uint32(len(b.values)) {
		return newFault(FaultUnsupportedRegister, addr, "backup register")
	}
	b.values[idx] = value
	return nil
}

func (b *Backup) Reset() {
	for i := range b.values {
		b.values[i] = uint32(i + 1)
	}
}

// BackupSnapshot is the exported, gob-encodable form of backup-register
// state (spec §6 checkpoint/restore).
type BackupSnapshot struct {
	Values [8]uint32
}

func (b *Backup) Snapshot() BackupSnapshot {
	return BackupSnapshot{Values: b.values}
}

func (b *Backup) Restore(s BackupSnapshot) {
	b.values = s.Values
}
