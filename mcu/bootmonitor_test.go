package mcu_test

import (
	"testing"

	"github.com/lookbusy1344/sam3x-emulator/mcu"
	"github.com/stretchr/testify/require"
)

func newTestBus() *mcu.Bus {
	rom := mcu.NewMemoryBank("ROM", mcu.ROMStart, 16, 0)
	flash := mcu.NewMemoryBank("Flash", mcu.FlashStart, 16, 0xFFFFFFFF)
	sram := mcu.NewMemoryBank("SRAM", mcu.SRAMStart, 16, 0)
	return mcu.NewBus(rom, flash, sram)
}

func TestBootMonitorVersionCommand(t *testing.T) {
	m := mcu.NewBootMonitor()
	bus := newTestBus()

	_, gone := m.ParseInput(bus, "V#")
	require.False(t, gone)
	require.Equal(t, "v1.1 Dec 15 2010 19:25:04\n>", m.TakeOutput())
}

func TestBootMonitorWriteThenReadWord(t *testing.T) {
	m := mcu.NewBootMonitor()
	bus := newTestBus()

	_, gone := m.ParseInput(bus, "W20070000,DEADBEEF#")
	require.False(t, gone)
	require.Equal(t, "\n>", m.TakeOutput())

	_, gone = m.ParseInput(bus, "w20070000,#")
	require.False(t, gone)
	require.Equal(t, "0xDEADBEEF\n>", m.TakeOutput())
}

func TestBootMonitorGoCommandReturnsEntryPoint(t *testing.T) {
	m := mcu.NewBootMonitor()
	bus := newTestBus()

	entry, gone := m.ParseInput(bus, "G00080000#")
	require.True(t, gone)
	require.Equal(t, uint32(0x80000), entry)
}

func TestBootMonitorUnrecognizedCharacterCancelsCommand(t *testing.T) {
	m := mcu.NewBootMonitor()
	bus := newTestBus()

	// 'w' starts a read-word command, but '!' is not a valid character
	// and cancels it before the comma/hash ever arrive.
	_, gone := m.ParseInput(bus, "w2007!V#")
	require.False(t, gone)
	require.Equal(t, "v1.1 Dec 15 2010 19:25:04\n>", m.TakeOutput())
}

func TestBootMonitorInputFedAcrossMultipleCalls(t *testing.T) {
	m := mcu.NewBootMonitor()
	bus := newTestBus()

	_, gone := m.ParseInput(bus, "W2007000")
	require.False(t, gone)
	require.Empty(t, m.TakeOutput())

	_, gone = m.ParseInput(bus, "0,CAFEBABE#")
	require.False(t, gone)
	require.Equal(t, "\n>", m.TakeOutput())

	val, err := bus.Get32(mcu.SRAMStart)
	require.NoError(t, err)
	require.Equal(t, uint32(0xCAFEBABE), val)
}
