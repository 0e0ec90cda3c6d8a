package monitor

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/require"

	"github.com/lookbusy1344/sam3x-emulator/host"
	"github.com/lookbusy1344/sam3x-emulator/mcu"
)

func newTestTUI(t *testing.T) *TUI {
	t.Helper()
	rom := mcu.NewMemoryBank("ROM", mcu.ROMStart, 16, 0)
	flash := mcu.NewMemoryBank("Flash", mcu.FlashStart, 16, 0xFFFFFFFF)
	sram := mcu.NewMemoryBank("SRAM", mcu.SRAMStart, 16, 0)
	bus := mcu.NewBus(rom, flash, sram)
	engine := mcu.NewEngine(mcu.NewCPU(), bus)

	monitorROM := mcu.NewBootMonitor()
	stream := host.NewDeviceStream(bus, monitorROM)
	boot := host.NewTerminalBootHelper(stream)

	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	t.Cleanup(screen.Fini)

	return NewTUIWithScreen(engine, boot, screen)
}

func TestHandleCommandRunsVersionQuery(t *testing.T) {
	tui := newTestTUI(t)
	tui.CommandInput.SetText("V#")

	tui.handleCommand(tcell.KeyEnter)

	require.Contains(t, tui.ScrollbackView.GetText(true), "v1.1")
	require.Empty(t, tui.CommandInput.GetText())
}

func TestHandleCommandIgnoresNonEnterKeys(t *testing.T) {
	tui := newTestTUI(t)
	tui.CommandInput.SetText("V#")

	tui.handleCommand(tcell.KeyEscape)

	require.Equal(t, "V#", tui.CommandInput.GetText())
	require.Empty(t, tui.ScrollbackView.GetText(true))
}

func TestHandleCommandExitStopsApp(t *testing.T) {
	tui := newTestTUI(t)
	tui.CommandInput.SetText("exit#")

	// handleCommand calls App.Stop() on exit, which must not block or
	// panic even though the event loop was never started via Run.
	tui.handleCommand(tcell.KeyEnter)
}

func TestRefreshAllRendersRegisterAndPeripheralState(t *testing.T) {
	tui := newTestTUI(t)
	tui.Engine.CPU.SetRegister(mcu.R0, 0xCAFEBABE)
	tui.Engine.CPU.PC = 0x1234

	tui.RefreshAll()

	require.Contains(t, tui.RegisterView.GetText(true), "CAFEBABE")
	require.Contains(t, tui.RegisterView.GetText(true), "00001234")
	require.Contains(t, tui.PeripheralView.GetText(true), "NVIC")
}
