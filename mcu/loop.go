package mcu

import "fmt"

// Observer is the per-instruction callback driving the CPU loop (spec
// §4.7 step 8, §6): it sees the instruction as fetched and R0/R1 before
// execution, and returning true ends Run after the current instruction
// completes.
type Observer func(in Instruction, r0, r1 uint32) bool

// Engine ties the CPU, bus and every peripheral together into the
// single-threaded cooperative loop (spec §4.7). Grounded on teacher
// `vm/executor.go`'s Step/Run shape (fetch, decode, condition check,
// execute, one function per stage), generalized to ARMv7-M's
// reset/interrupt/SysTick bookkeeping around each instruction.
type Engine struct {
	CPU *CPU
	Bus *Bus

	NVIC     *NVIC
	SCB      *SCB
	SysTick  *SysTick
	Reset    *ResetController
	Watchdog *Watchdog
	Backup   *Backup
	PMC      *PMC
	PIO      *PIO
	SPI0     *SPI0
	USART0   *USART0
	EEFC     *EEFC

	Cycles uint64

	// activeIsIRQ records whether the exception currently active came
	// from NVIC (so return must clear its active/pending bits) or from
	// a synchronous core exception like SVCall (which NVIC never saw).
	activeIsIRQ bool
}

// NewEngine wires a fresh set of peripherals onto bus and attaches them
// for address routing, in the order spec.md §3's bus address map lists
// them.
func NewEngine(cpu *CPU, bus *Bus) *Engine {
	e := &Engine{
		CPU:      cpu,
		Bus:      bus,
		NVIC:     NewNVIC(),
		SCB:      NewSCB(),
		SysTick:  NewSysTick(),
		Reset:    NewResetController(),
		Watchdog: NewWatchdog(),
		Backup:   NewBackup(),
		PMC:      NewPMC(),
		PIO:      NewPIO(),
		SPI0:     NewSPI0(),
		USART0:   NewUSART0(),
		EEFC:     NewEEFC(),
	}
	bus.Attach(e.NVIC)
	bus.Attach(e.SCB)
	bus.Attach(e.SysTick)
	bus.Attach(e.Reset)
	bus.Attach(e.Watchdog)
	bus.Attach(e.Backup)
	bus.Attach(e.PMC)
	bus.Attach(e.PIO)
	bus.Attach(e.USART0)
	bus.Attach(e.EEFC)
	bus.AttachSPI0(e.SPI0, e.PMC, e.PIO)
	return e
}

// levelInterrupts ORs together every peripheral's level-triggered
// interrupt source (spec §4.7 step 2).
func (e *Engine) levelInterrupts() uint32 {
	return e.USART0.LevelInterrupts()
}

// ReloadVectorTable reads SP and PC from the vector table base VTOR
// currently points at (offsets 0 and 4), used both by the reset-poll
// step and by firmware that re-vectors VTOR on its own (spec §6).
func (e *Engine) ReloadVectorTable() error {
	sp, err := e.Bus.Get32(e.SCB.VTOR() + 0)
	if err != nil {
		return err
	}
	pc, err := e.Bus.Get32(e.SCB.VTOR() + 4)
	if err != nil {
		return err
	}
	e.CPU.SP = sp
	e.CPU.PC = pc &^ 1
	return nil
}

// svcExceptionNumber is the fixed ARMv7-M exception number for SVCall.
const svcExceptionNumber = 11

// exceptionEntry pushes the ARMv7-M stack frame and jumps to the
// handler for the given exception number (16+idx for IRQs, 11 for
// SVCall) (spec §4.5).
func (e *Engine) exceptionEntry(excNumber int) error {
	frame := [8]uint32{
		e.CPU.GetRegister(R0), e.CPU.GetRegister(R1), e.CPU.GetRegister(R2), e.CPU.GetRegister(R3),
		e.CPU.GetRegister(R12), e.CPU.LR, e.CPU.PC, e.CPU.CPSR.ToUint32(),
	}
	sp := e.CPU.SP - 32
	for i, word := range frame {
		if err := e.Bus.Set32(sp+uint32(4*i), word); err != nil {
			return err
		}
	}
	e.CPU.SP = sp
	e.CPU.LR = EXCReturnThreadMSP
	e.CPU.Mode = ModeHandler
	e.CPU.ActiveInterrupt = excNumber

	vector := e.SCB.VTOR() + 4*uint32(excNumber)
	target, err := e.Bus.Get32(vector)
	if err != nil {
		return err
	}
	e.CPU.PC = target &^ 1
	return nil
}

// exceptionReturn pops the stack frame pushed by exceptionEntry (spec
// §4.5).
func (e *Engine) exceptionReturn() error {
	sp := e.CPU.SP
	words := make([]uint32, 8)
	for i := range words {
		v, err := e.Bus.Get32(sp + uint32(4*i))
		if err != nil {
			return err
		}
		words[i] = v
	}
	e.CPU.SetRegister(R0, words[0])
	e.CPU.SetRegister(R1, words[1])
	e.CPU.SetRegister(R2, words[2])
	e.CPU.SetRegister(R3, words[3])
	e.CPU.SetRegister(R12, words[4])
	e.CPU.LR = words[5]
	e.CPU.PC = words[6] &^ 1
	e.CPU.CPSR.FromUint32(words[7])
	e.CPU.SP = sp + 32
	e.CPU.Mode = ModeThread
	if e.activeIsIRQ {
		e.NVIC.DeactivateInterrupt(e.levelInterrupts())
	}
	e.CPU.ActiveInterrupt = 0
	return nil
}

// Step runs exactly one CPU loop iteration (spec §4.7). It returns
// (true, nil) if the observer requested a stop.
func (e *Engine) Step(observer Observer) (bool, error) {
	if e.Reset.RequestedAndClear() {
		e.resetAll()
		if err := e.ReloadVectorTable(); err != nil {
			return false, err
		}
	}

	levels := e.levelInterrupts()
	if idx, activated := e.NVIC.MaybeActivateInterrupt(levels); activated {
		e.activeIsIRQ = true
		if err := e.exceptionEntry(16 + idx); err != nil {
			return false, err
		}
	}

	in, err := e.Bus.GetInsn(e.CPU.PC)
	if err != nil {
		return false, err
	}
	if in.Kind == Unknown || in.Kind == Unsupported {
		return false, newFault(FaultUnknownInstruction, e.CPU.PC, fmt.Sprintf("raw 0x%08X", in.Raw))
	}

	r0, r1 := e.CPU.GetRegister(R0), e.CPU.GetRegister(R1)

	isPotentialReturn := in.Kind == KindBX || in.Kind == KindPOP

	if err := Execute(e.CPU, e.Bus, in); err != nil {
		if _, ok := err.(*SVCException); ok {
			e.activeIsIRQ = false
			if err := e.exceptionEntry(svcExceptionNumber); err != nil {
				return false, err
			}
		} else {
			return false, err
		}
	}

	if isPotentialReturn && IsEXCReturn(e.CPU.PC) {
		if err := e.exceptionReturn(); err != nil {
			return false, err
		}
		e.NVIC.MaybeActivateInterrupt(e.levelInterrupts())
	}

	e.SysTick.Update()
	e.Cycles++

	if observer != nil && observer(in, r0, r1) {
		return true, nil
	}
	return false, nil
}

// Run drives Step until the observer requests a stop or a fatal fault
// occurs.
func (e *Engine) Run(observer Observer) error {
	for {
		stop, err := e.Step(observer)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

func (e *Engine) resetAll() {
	e.CPU.Reset()
	e.NVIC.Reset()
	e.SCB.Reset()
	e.SysTick.Reset()
	e.Watchdog.Reset()
	e.Backup.Reset()
	e.PMC.Reset()
	e.PIO.Reset()
	e.SPI0.Reset()
	e.USART0.Reset()
	e.EEFC.Reset()
}
