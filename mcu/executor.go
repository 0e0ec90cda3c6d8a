package mcu

import "fmt"

// Execute applies one decoded instruction against cpu/bus, honoring IT-block
// predication (spec §4.2, §4.7 step 4). A predicated-false instruction still
// advances the IT state and PC but otherwise has no effect, matching teacher
// `vm/executor.go`'s single-dispatch-point shape generalized to Thumb/Thumb-2
// semantics (PC+4 read, shifter carry-out, per-Kind handler functions).
func Execute(cpu *CPU, bus *Bus, in Instruction) error {
	cond := in.Cond
	if in.Kind != KindIT && cpu.IT.Active() {
		cond = cpu.IT.CurrentCondition()
	}
	if cond != CondAL && !cond.Matches(cpu.CPSR.N, cpu.CPSR.Z, cpu.CPSR.C, cpu.CPSR.V) {
		if in.Kind != KindIT {
			cpu.IT = cpu.IT.Advance()
		}
		cpu.PC += uint32(in.Size)
		return nil
	}

	switch in.Kind {
	case KindAND, KindEOR, KindSUB, KindRSB, KindADD, KindADC, KindSBC,
		KindORR, KindBIC, KindMOV, KindMVN:
		executeDataProcessing(cpu, in)
	case KindLSL, KindLSR, KindASR, KindROR:
		executeShift(cpu, in)
	case KindCMP, KindCMN, KindTST, KindTEQ:
		executeCompare(cpu, in)
	case KindMOVW:
		cpu.SetRegister(in.Rd, uint32(in.Imm))
	case KindMOVT:
		cur := cpu.GetRegister(in.Rd)
		cpu.SetRegister(in.Rd, (cur&0xFFFF)|(uint32(in.Imm)<<16))
	case KindLDR, KindLDRB, KindLDRH, KindLDRSB, KindLDRSH, KindLDRLiteral:
		if err := executeLoad(cpu, bus, in); err != nil {
			return err
		}
	case KindSTR, KindSTRB, KindSTRH:
		if err := executeStore(cpu, bus, in); err != nil {
			return err
		}
	case KindPUSH:
		if err := executePush(cpu, bus, in); err != nil {
			return err
		}
	case KindPOP:
		if err := executePop(cpu, bus, in); err != nil {
			return err
		}
	case KindADDSP:
		cpu.SetRegister(in.Rd, cpu.GetRegister(in.Rn)+uint32(in.Imm))
	case KindB:
		branch(cpu, in)
	case KindBCond:
		branch(cpu, in)
	case KindBL:
		cpu.LR = (cpu.PC + uint32(in.Size)) | 1
		branch(cpu, in)
	case KindBX, KindBLX:
		target := cpu.GetRegister(in.Rm)
		if in.Kind == KindBLX {
			cpu.LR = (cpu.PC + uint32(in.Size)) | 1
		}
		cpu.PC = target &^ 1
		return nil
	case KindTBB, KindTBH:
		if err := executeTableBranch(cpu, bus, in); err != nil {
			return err
		}
		return nil
	case KindUDIV:
		executeUDIV(cpu, in)
	case KindSDIV:
		executeSDIV(cpu, in)
	case KindMUL:
		rn := cpu.GetRegister(in.Rn)
		rm := cpu.GetRegister(in.Rm)
		cpu.SetRegister(in.Rd, rn*rm)
	case KindMLA:
		rn := cpu.GetRegister(in.Rn)
		rm := cpu.GetRegister(in.Rm)
		ra := cpu.GetRegister(in.Rt)
		cpu.SetRegister(in.Rd, rn*rm+ra)
	case KindIT:
		// Sets up the block this instruction itself is not part of, so
		// advancing cpu.IT here (as the post-switch Advance does for
		// every other Kind) would wrongly consume its first slot.
		cpu.IT = ITState{FirstCond: in.ITFirstCond, Mask: in.ITMask}
		cpu.PC += uint32(in.Size)
		return nil
	case KindUDF:
		return newFault(FaultUnknownInstruction, cpu.PC, fmt.Sprintf("UDF #%d", in.Imm))
	case KindSVC:
		// ARMv7-M stacks the next instruction's address as the return
		// address (ARM ARM B1.5.6), so PC must move past the SVC before
		// exceptionEntry captures it.
		cpu.PC += uint32(in.Size)
		return &SVCException{Imm: uint8(in.Imm)}
	case Unsupported, Unknown:
		return newFault(FaultUnknownInstruction, cpu.PC, "")
	default:
		return newFault(FaultUnknownInstruction, cpu.PC, "")
	}

	cpu.IT = cpu.IT.Advance()
	if !in.IsBranch() && in.Kind != KindBX && in.Kind != KindBLX {
		cpu.PC += uint32(in.Size)
	}
	return nil
}

// SVCException signals an SVC instruction reached execution; the CPU loop
// turns this into exception entry (spec §4.5) rather than a fatal fault.
type SVCException struct {
	Imm uint8
}

func (e *SVCException) Error() string {
	return fmt.Sprintf("SVC #%d", e.Imm)
}

func operand2(cpu *CPU, in Instruction) (uint32, bool) {
	if in.HasImm {
		return uint32(in.Imm), cpu.CPSR.C
	}
	carry := ShiftCarry(cpu.GetRegister(in.Rm), in.ShiftAmount, in.Shift, cpu.CPSR.C)
	return PerformShift(cpu.GetRegister(in.Rm), in.ShiftAmount, in.Shift, cpu.CPSR.C), carry
}

func executeDataProcessing(cpu *CPU, in Instruction) {
	rn := cpu.GetRegister(in.Rn)
	op2, shiftCarry := operand2(cpu, in)

	var result uint32
	var carry, overflow bool
	setCarry, setOverflow := false, false

	switch in.Kind {
	case KindAND:
		result = rn & op2
		carry = shiftCarry
	case KindEOR:
		result = rn ^ op2
		carry = shiftCarry
	case KindORR:
		result = rn | op2
		carry = shiftCarry
	case KindBIC:
		result = rn &^ op2
		carry = shiftCarry
	case KindMOV:
		result = op2
		carry = shiftCarry
	case KindMVN:
		result = ^op2
		carry = shiftCarry
	case KindADD:
		result = rn + op2
		carry, overflow = AddCarry(rn, op2, result), AddOverflow(rn, op2, result)
		setCarry, setOverflow = true, true
	case KindADC:
		carryIn := uint32(0)
		if cpu.CPSR.C {
			carryIn = 1
		}
		result = rn + op2 + carryIn
		carry = result < rn || (carryIn == 1 && result == rn)
		overflow = AddOverflow(rn, op2, result)
		setCarry, setOverflow = true, true
	case KindSUB:
		result = rn - op2
		carry, overflow = SubCarry(rn, op2), SubOverflow(rn, op2, result)
		setCarry, setOverflow = true, true
	case KindSBC:
		borrow := uint32(1)
		if cpu.CPSR.C {
			borrow = 0
		}
		result = rn - op2 - borrow
		carry = uint64(rn) >= uint64(op2)+uint64(borrow)
		overflow = SubOverflow(rn, op2, result)
		setCarry, setOverflow = true, true
	case KindRSB:
		result = op2 - rn
		carry, overflow = SubCarry(op2, rn), SubOverflow(op2, rn, result)
		setCarry, setOverflow = true, true
	}

	cpu.SetRegister(in.Rd, result)
	if in.SetFlags {
		if setCarry || setOverflow {
			cpu.CPSR.UpdateNZCV(result, carry, overflow)
		} else {
			cpu.CPSR.UpdateNZC(result, carry)
		}
	}
}

// executeShift handles both Thumb shift encodings tagged with the same
// Kind: "LSL Rd, Rm, #imm5" (HasImm, Rm holds the value, Imm the amount)
// and "LSL Rdn, Rm" (!HasImm, Rn holds the value being shifted in place,
// Rm holds the register whose low byte supplies the shift amount).
func executeShift(cpu *CPU, in Instruction) {
	var shiftType ShiftType
	switch in.Kind {
	case KindLSL:
		shiftType = ShiftLSL
	case KindLSR:
		shiftType = ShiftLSR
	case KindASR:
		shiftType = ShiftASR
	default:
		shiftType = ShiftROR
	}

	var value uint32
	var amount int
	if in.HasImm {
		value = cpu.GetRegister(in.Rm)
		amount = int(in.Imm)
	} else {
		value = cpu.GetRegister(in.Rn)
		amount = int(cpu.GetRegister(in.Rm) & 0xFF)
	}

	carry := ShiftCarry(value, amount, shiftType, cpu.CPSR.C)
	result := PerformShift(value, amount, shiftType, cpu.CPSR.C)
	cpu.SetRegister(in.Rd, result)
	if in.SetFlags {
		cpu.CPSR.UpdateNZC(result, carry)
	}
}

func executeCompare(cpu *CPU, in Instruction) {
	rn := cpu.GetRegister(in.Rn)
	op2, shiftCarry := operand2(cpu, in)

	switch in.Kind {
	case KindCMP:
		result := rn - op2
		cpu.CPSR.UpdateNZCV(result, SubCarry(rn, op2), SubOverflow(rn, op2, result))
	case KindCMN:
		result := rn + op2
		cpu.CPSR.UpdateNZCV(result, AddCarry(rn, op2, result), AddOverflow(rn, op2, result))
	case KindTST:
		result := rn & op2
		cpu.CPSR.UpdateNZC(result, shiftCarry)
	case KindTEQ:
		result := rn ^ op2
		cpu.CPSR.UpdateNZC(result, shiftCarry)
	}
}

func loadStoreAddress(cpu *CPU, in Instruction) uint32 {
	base := cpu.GetRegister(in.Rn)
	if in.HasImm {
		return uint32(int64(base) + int64(in.Imm))
	}
	return base + cpu.GetRegister(in.Rm)
}

func executeLoad(cpu *CPU, bus *Bus, in Instruction) error {
	addr := loadStoreAddress(cpu, in)
	switch in.Kind {
	case KindLDR, KindLDRLiteral:
		v, err := bus.Get32(addr)
		if err != nil {
			return err
		}
		cpu.SetRegister(in.Rt, v)
	case KindLDRB:
		v, err := bus.Get8(addr)
		if err != nil {
			return err
		}
		cpu.SetRegister(in.Rt, uint32(v))
	case KindLDRH:
		v, err := bus.Get16(addr)
		if err != nil {
			return err
		}
		cpu.SetRegister(in.Rt, uint32(v))
	case KindLDRSB:
		v, err := bus.Get8(addr)
		if err != nil {
			return err
		}
		cpu.SetRegister(in.Rt, uint32(int32(int8(v))))
	case KindLDRSH:
		v, err := bus.Get16(addr)
		if err != nil {
			return err
		}
		cpu.SetRegister(in.Rt, uint32(int32(int16(v))))
	}
	return nil
}

func executeStore(cpu *CPU, bus *Bus, in Instruction) error {
	addr := loadStoreAddress(cpu, in)
	v := cpu.GetRegister(in.Rt)
	switch in.Kind {
	case KindSTR:
		return bus.Set32(addr, v)
	case KindSTRB:
		return bus.Set8(addr, byte(v))
	case KindSTRH:
		return bus.Set16(addr, uint16(v))
	}
	return nil
}

func executePush(cpu *CPU, bus *Bus, in Instruction) error {
	sp := cpu.SP
	count := 0
	for r := 0; r <= 14; r++ {
		if in.RegList&(1<<uint(r)) != 0 {
			count++
		}
	}
	sp -= uint32(count) * 4
	addr := sp
	for r := 0; r <= 14; r++ {
		if in.RegList&(1<<uint(r)) == 0 {
			continue
		}
		if err := bus.Set32(addr, cpu.GetRegister(r)); err != nil {
			return err
		}
		addr += 4
	}
	cpu.SP = sp
	return nil
}

func executePop(cpu *CPU, bus *Bus, in Instruction) error {
	addr := cpu.SP
	count := 0
	for r := 0; r <= 15; r++ {
		if in.RegList&(1<<uint(r)) != 0 {
			count++
		}
	}
	for r := 0; r <= 15; r++ {
		if in.RegList&(1<<uint(r)) == 0 {
			continue
		}
		v, err := bus.Get32(addr)
		if err != nil {
			return err
		}
		if r == PC {
			cpu.PC = v &^ 1
		} else {
			cpu.SetRegister(r, v)
		}
		addr += 4
	}
	cpu.SP += uint32(count) * 4
	return nil
}

// branch computes the target PC (spec §4.2's "PC reads as PC+4" rule
// applies to branch targets too) and jumps there.
func branch(cpu *CPU, in Instruction) {
	cpu.PC = (cpu.PC + 4) + uint32(in.Imm)
}

func executeTableBranch(cpu *CPU, bus *Bus, in Instruction) error {
	rn := cpu.GetRegister(in.Rn)
	rm := cpu.GetRegister(in.Rm)
	var entry uint32
	if in.Kind == KindTBH {
		v, err := bus.Get16(rn + rm*2)
		if err != nil {
			return err
		}
		entry = uint32(v)
	} else {
		v, err := bus.Get8(rn + rm)
		if err != nil {
			return err
		}
		entry = uint32(v)
	}
	cpu.PC = (cpu.PC + 4) + entry*2
	return nil
}

func executeUDIV(cpu *CPU, in Instruction) {
	rn := cpu.GetRegister(in.Rn)
	rm := cpu.GetRegister(in.Rm)
	if rm == 0 {
		cpu.SetRegister(in.Rd, 0)
		return
	}
	cpu.SetRegister(in.Rd, rn/rm)
}

func executeSDIV(cpu *CPU, in Instruction) {
	rn := int32(cpu.GetRegister(in.Rn))
	rm := int32(cpu.GetRegister(in.Rm))
	if rm == 0 {
		cpu.SetRegister(in.Rd, 0)
		return
	}
	cpu.SetRegister(in.Rd, uint32(rn/rm))
}
