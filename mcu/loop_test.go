package mcu_test

import (
	"testing"

	"github.com/lookbusy1344/sam3x-emulator/mcu"
	"github.com/stretchr/testify/require"
)

func newTestEngine() (*mcu.Engine, *mcu.CPU) {
	rom := mcu.NewMemoryBank("ROM", mcu.ROMStart, 256, 0)
	flash := mcu.NewMemoryBank("Flash", mcu.FlashStart, 16, 0xFFFFFFFF)
	sram := mcu.NewMemoryBank("SRAM", mcu.SRAMStart, 64, 0)
	bus := mcu.NewBus(rom, flash, sram)
	cpu := mcu.NewCPU()
	cpu.SP = mcu.SRAMStart + 128
	return mcu.NewEngine(cpu, bus), cpu
}

func TestEngineSVCallEntryAndReturn(t *testing.T) {
	e, cpu := newTestEngine()

	cpu.PC = 0x100
	require.NoError(t, e.Bus.Set16(0x100, 0xDF00)) // SVC #0
	require.NoError(t, e.Bus.Set32(0x2C, 0x200))   // vector[11] = handler
	require.NoError(t, e.Bus.Set16(0x200, 0x4770)) // handler: BX LR

	originalSP := cpu.SP

	stop, err := e.Step(nil)
	require.NoError(t, err)
	require.False(t, stop)
	require.EqualValues(t, 0x200, cpu.PC)
	require.Equal(t, mcu.ModeHandler, cpu.Mode)
	require.Equal(t, 11, cpu.ActiveInterrupt)
	require.EqualValues(t, originalSP-32, cpu.SP)

	stop, err = e.Step(nil)
	require.NoError(t, err)
	require.False(t, stop)
	require.EqualValues(t, 0x102, cpu.PC) // returns to the instruction after the SVC
	require.Equal(t, mcu.ModeThread, cpu.Mode)
	require.Equal(t, 0, cpu.ActiveInterrupt)
	require.EqualValues(t, originalSP, cpu.SP)
}

func TestEngineIRQEntryAndReturnInOneStep(t *testing.T) {
	e, cpu := newTestEngine()

	cpu.PC = 0x100
	require.NoError(t, e.Bus.Set16(0x100, 0x1800)) // ADD R0,R0,R0 (never reached this step)
	require.NoError(t, e.Bus.Set32(0x40, 0x300))   // vector[16] (IRQ0) = handler
	require.NoError(t, e.Bus.Set16(0x300, 0x4770)) // handler: BX LR

	require.NoError(t, e.NVIC.Set32(0xE000E100, 1)) // ISER0: enable IRQ0
	require.NoError(t, e.NVIC.Set32(0xE000E200, 1)) // ISPR0: pend IRQ0

	originalSP := cpu.SP

	stop, err := e.Step(nil)
	require.NoError(t, err)
	require.False(t, stop)

	// Entry and return both happen within this single Step: the pending
	// IRQ preempts before the instruction at PC=0x100 is fetched, the
	// handler's BX LR immediately pops the frame back.
	require.EqualValues(t, 0x100, cpu.PC)
	require.Equal(t, mcu.ModeThread, cpu.Mode)
	require.Equal(t, 0, cpu.ActiveInterrupt)
	require.EqualValues(t, originalSP, cpu.SP)

	snap := e.NVIC.Snapshot()
	require.Zero(t, snap.Active)
	require.Zero(t, snap.Pending)
}

func TestEngineStopsOnUnsupportedInstruction(t *testing.T) {
	e, cpu := newTestEngine()
	cpu.PC = 0x100
	require.NoError(t, e.Bus.Set16(0x100, 0xB800)) // no 16-bit Thumb encoding matches this

	_, err := e.Step(nil)
	require.Error(t, err)
}

func TestEngineObserverStopsRun(t *testing.T) {
	e, cpu := newTestEngine()
	cpu.PC = 0x100
	require.NoError(t, e.Bus.Set16(0x100, 0x1800)) // ADD R0,R0,R0

	called := false
	err := e.Run(func(in mcu.Instruction, r0, r1 uint32) bool {
		called = true
		return true
	})
	require.NoError(t, err)
	require.True(t, called)
}
