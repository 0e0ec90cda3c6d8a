package mcu

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Checkpoint is the opaque, bit-identical restorable snapshot of the
// whole machine (spec §6: "the engine must support an opaque byte-stream
// serialization of all memory banks and peripheral state and restoration
// to a bit-identical state"). Grounded on the teacher's convention of
// every stateful struct owning its own Reset(); encoding/gob is the
// stdlib choice since no pack example ships a binary-serialization
// library and the round-trip is purely same-process (DESIGN.md).
type Checkpoint struct {
	CPU CPU

	ROM   []uint32
	Flash []uint32
	SRAM  []uint32

	NVIC     NVICSnapshot
	SCB      SCBSnapshot
	SysTick  SysTickSnapshot
	Reset    ResetSnapshot
	Watchdog WatchdogSnapshot
	Backup   BackupSnapshot
	PMC      PMCSnapshot
	PIO      PIOSnapshot
	SPI0     SPI0Snapshot
	USART0   USART0Snapshot
	EEFC     EEFCSnapshot

	ActiveIsIRQ bool
	Cycles      uint64
}

// Save captures a full Checkpoint of the engine's current state.
func (e *Engine) Save() Checkpoint {
	cp := Checkpoint{
		CPU: *e.CPU,

		NVIC:     e.NVIC.Snapshot(),
		SCB:      e.SCB.Snapshot(),
		SysTick:  e.SysTick.Snapshot(),
		Reset:    e.Reset.Snapshot(),
		Watchdog: e.Watchdog.Snapshot(),
		Backup:   e.Backup.Snapshot(),
		PMC:      e.PMC.Snapshot(),
		PIO:      e.PIO.Snapshot(),
		SPI0:     e.SPI0.Snapshot(),
		USART0:   e.USART0.Snapshot(),
		EEFC:     e.EEFC.Snapshot(),

		ActiveIsIRQ: e.activeIsIRQ,
		Cycles:      e.Cycles,
	}
	if e.Bus.ROM != nil {
		cp.ROM = append([]uint32(nil), e.Bus.ROM.Words...)
	}
	if e.Bus.Flash != nil {
		cp.Flash = append([]uint32(nil), e.Bus.Flash.Words...)
	}
	if e.Bus.SRAM != nil {
		cp.SRAM = append([]uint32(nil), e.Bus.SRAM.Words...)
	}
	return cp
}

// Restore applies a previously captured Checkpoint, reinstating every
// bank's words (and invalidating its instruction cache, since a restored
// word vector invalidates any cached decode of it) and every peripheral's
// register state.
func (e *Engine) Restore(cp Checkpoint) error {
	*e.CPU = cp.CPU

	if err := restoreBank(e.Bus.ROM, cp.ROM); err != nil {
		return fmt.Errorf("restoring ROM: %w", err)
	}
	if err := restoreBank(e.Bus.Flash, cp.Flash); err != nil {
		return fmt.Errorf("restoring flash: %w", err)
	}
	if err := restoreBank(e.Bus.SRAM, cp.SRAM); err != nil {
		return fmt.Errorf("restoring SRAM: %w", err)
	}

	e.NVIC.Restore(cp.NVIC)
	e.SCB.Restore(cp.SCB)
	e.SysTick.Restore(cp.SysTick)
	e.Reset.Restore(cp.Reset)
	e.Watchdog.Restore(cp.Watchdog)
	e.Backup.Restore(cp.Backup)
	e.PMC.Restore(cp.PMC)
	e.PIO.Restore(cp.PIO)
	e.SPI0.Restore(cp.SPI0)
	e.USART0.Restore(cp.USART0)
	e.EEFC.Restore(cp.EEFC)

	e.activeIsIRQ = cp.ActiveIsIRQ
	e.Cycles = cp.Cycles
	return nil
}

func restoreBank(bank *MemoryBank, words []uint32) error {
	if bank == nil {
		return nil
	}
	if len(words) != len(bank.Words) {
		return fmt.Errorf("bank %q: checkpoint has %d words, bank has %d", bank.Name, len(words), len(bank.Words))
	}
	copy(bank.Words, words)
	for i := range bank.insns {
		bank.insns[i] = Instruction{}
	}
	return nil
}

// Marshal serializes a Checkpoint to an opaque byte stream.
func (cp Checkpoint) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cp); err != nil {
		return nil, fmt.Errorf("encoding checkpoint: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalCheckpoint reverses Marshal.
func UnmarshalCheckpoint(data []byte) (Checkpoint, error) {
	var cp Checkpoint
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&cp); err != nil {
		return Checkpoint{}, fmt.Errorf("decoding checkpoint: %w", err)
	}
	return cp, nil
}
