// Package monitor implements an interactive tcell/tview console for
// driving the emulated device's boot monitor, playing the role the
// teacher's own debugger TUI plays for its instruction-level debugger.
package monitor

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lookbusy1344/sam3x-emulator/host"
	"github.com/lookbusy1344/sam3x-emulator/mcu"
)

// TUI is the console's top-level widget tree, grounded on teacher
// debugger/tui.go's layout/panel structure: register and peripheral
// panes replace the source/disassembly/breakpoint panes a source-level
// debugger needs, since this monitor has no notion of symbols or
// breakpoints.
type TUI struct {
	Engine *mcu.Engine
	Boot   *host.BootHelper

	App  *tview.Application
	Root *tview.Flex

	RegisterView   *tview.TextView
	PeripheralView *tview.TextView
	ScrollbackView *tview.TextView
	CommandInput   *tview.InputField
}

// NewTUI wires a console around engine's CPU/peripherals and a
// BootHelper driving the engine's boot monitor.
func NewTUI(engine *mcu.Engine, boot *host.BootHelper) *TUI {
	return newTUI(engine, boot, tview.NewApplication())
}

// NewTUIWithScreen wires a console onto a caller-supplied tcell screen,
// letting tests drive handleCommand/RefreshAll against a
// tcell.SimulationScreen instead of a real terminal.
func NewTUIWithScreen(engine *mcu.Engine, boot *host.BootHelper, screen tcell.Screen) *TUI {
	app := tview.NewApplication()
	app.SetScreen(screen)
	return newTUI(engine, boot, app)
}

func newTUI(engine *mcu.Engine, boot *host.BootHelper, app *tview.Application) *TUI {
	t := &TUI{
		Engine: engine,
		Boot:   boot,
		App:    app,
	}
	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()
	return t
}

func (t *TUI) initializeViews() {
	t.RegisterView = tview.NewTextView().SetDynamicColors(true)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	t.PeripheralView = tview.NewTextView().SetDynamicColors(true)
	t.PeripheralView.SetBorder(true).SetTitle(" Peripherals ")

	t.ScrollbackView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	t.ScrollbackView.SetBorder(true).SetTitle(" Monitor ")

	t.CommandInput = tview.NewInputField().SetLabel("> ").SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	sidebar := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.RegisterView, 8, 0, false).
		AddItem(t.PeripheralView, 0, 1, false)

	content := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.ScrollbackView, 0, 3, false).
		AddItem(sidebar, 0, 1, false)

	t.Root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(content, 0, 4, false).
		AddItem(t.CommandInput, 3, 0, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	cmd := t.CommandInput.GetText()
	if cmd == "" {
		return
	}
	t.CommandInput.SetText("")
	if !t.Boot.Write(cmd) {
		t.WriteScrollback(t.Boot.Read())
		t.App.Stop()
		return
	}
	t.WriteScrollback(t.Boot.Read())
	t.RefreshAll()
}

// WriteScrollback appends text to the monitor pane and scrolls to it.
func (t *TUI) WriteScrollback(text string) {
	if text == "" {
		return
	}
	_, _ = t.ScrollbackView.Write([]byte(text))
	t.ScrollbackView.ScrollToEnd()
}

// RefreshAll repaints the register and peripheral panes and redraws.
func (t *TUI) RefreshAll() {
	t.updateRegisterView()
	t.updatePeripheralView()
	t.App.Draw()
}

func (t *TUI) updateRegisterView() {
	cpu := t.Engine.CPU
	var lines []string
	for i := 0; i < 4; i++ {
		var cols []string
		for j := 0; j < 4; j++ {
			reg := i*4 + j
			cols = append(cols, fmt.Sprintf("R%-2d: 0x%08X", reg, cpu.GetRegister(reg)))
		}
		lines = append(lines, strings.Join(cols, "  "))
	}
	lines = append(lines, fmt.Sprintf("PC: 0x%08X  SP: 0x%08X  LR: 0x%08X", cpu.PC, cpu.SP, cpu.LR))
	lines = append(lines, fmt.Sprintf("N:%v Z:%v C:%v V:%v  Cycles: %d",
		cpu.CPSR.N, cpu.CPSR.Z, cpu.CPSR.C, cpu.CPSR.V, cpu.Cycles))
	t.RegisterView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) updatePeripheralView() {
	var lines []string
	nvic := t.Engine.NVIC.Snapshot()
	lines = append(lines, fmt.Sprintf("NVIC enabled:0x%08X pending:0x%08X active:0x%08X",
		nvic.Enabled, nvic.Pending, nvic.Active))
	st := t.Engine.SysTick.Snapshot()
	lines = append(lines, fmt.Sprintf("SysTick ctrl:0x%08X reload:0x%08X current:0x%08X",
		st.CTRL, st.Reload, st.Current))
	t.PeripheralView.SetText(strings.Join(lines, "\n"))
}

// Run starts the console's event loop.
func (t *TUI) Run() error {
	t.RefreshAll()
	t.WriteScrollback(t.Boot.Read())
	return t.App.SetRoot(t.Root, true).SetFocus(t.CommandInput).Run()
}

// Stop shuts the console down.
func (t *TUI) Stop() {
	t.App.Stop()
}
