package asm

import (
	"fmt"
	"strings"
)

// instructionSize returns the encoded size in bytes for a mnemonic.
// Branches with a label operand always use the fixed-size encoding
// appropriate to their mnemonic (conditional/unconditional short branch
// at 2 bytes, BL at 4) rather than picking the smallest encoding that
// reaches the target; there is no long-range conditional branch form.
// "B.W", "MOVW" and "MOVT" are also sized at 4 here, but encode rejects
// them as unsupported mnemonics.
func instructionSize(mnemonic string) int {
	switch mnemonic {
	case "BL", "MOVW", "MOVT", ".WORD":
		return 4
	case "B.W":
		return 4
	default:
		base, cond := splitCond(mnemonic)
		if base == "B" && cond != "" && cond != "AL" {
			return 2
		}
		return 2
	}
}

// splitCond peels a two-letter condition suffix off a branch mnemonic,
// e.g. "BEQ" -> ("B", "EQ").
func splitCond(mnemonic string) (string, string) {
	if mnemonic == "B" || mnemonic == "BL" || mnemonic == "BX" || mnemonic == "BLX" || mnemonic == "B.W" {
		return mnemonic, ""
	}
	if strings.HasPrefix(mnemonic, "B") && len(mnemonic) > 1 {
		suffix := mnemonic[1:]
		if _, ok := condCodes[suffix]; ok {
			return "B", suffix
		}
	}
	return mnemonic, ""
}

func (a *Assembler) encode(ln line) (uint32, error) {
	m := ln.mnemonic
	switch m {
	case ".WORD":
		return a.encodeWord(ln)
	case "NOP":
		return 0xBF00, nil
	case "MOV", "MOVS":
		return a.encodeMov(ln)
	case "MVN", "MVNS":
		return a.encodeDataReg(ln, 0xF)
	case "ADD", "ADDS":
		return a.encodeAddSub(ln, false)
	case "SUB", "SUBS":
		return a.encodeAddSub(ln, true)
	case "AND", "ANDS":
		return a.encodeDataReg(ln, 0x0)
	case "EOR", "EORS":
		return a.encodeDataReg(ln, 0x1)
	case "ADC", "ADCS":
		return a.encodeDataReg(ln, 0x5)
	case "SBC", "SBCS":
		return a.encodeDataReg(ln, 0x6)
	case "ORR", "ORRS":
		return a.encodeDataReg(ln, 0xC)
	case "BIC", "BICS":
		return a.encodeDataReg(ln, 0xE)
	case "MUL", "MULS":
		return a.encodeDataReg(ln, 0xD)
	case "TST":
		return a.encodeDataReg(ln, 0x8)
	case "CMN":
		return a.encodeDataReg(ln, 0xB)
	case "CMP":
		return a.encodeCmp(ln)
	case "LSL", "LSLS":
		return a.encodeShift(ln, 0x0000)
	case "LSR", "LSRS":
		return a.encodeShift(ln, 0x0800)
	case "ASR", "ASRS":
		return a.encodeShift(ln, 0x1000)
	case "ROR", "RORS":
		return a.encodeRorReg(ln)
	case "LDR":
		return a.encodeLdrStr(ln, true, 4)
	case "STR":
		return a.encodeLdrStr(ln, false, 4)
	case "LDRB":
		return a.encodeLdrStr(ln, true, 1)
	case "STRB":
		return a.encodeLdrStr(ln, false, 1)
	case "LDRH":
		return a.encodeLdrStr(ln, true, 2)
	case "STRH":
		return a.encodeLdrStr(ln, false, 2)
	case "PUSH":
		return a.encodePushPop(ln, true)
	case "POP":
		return a.encodePushPop(ln, false)
	case "BX":
		return a.encodeBx(ln, false)
	case "BLX":
		return a.encodeBx(ln, true)
	case "BL":
		return a.encodeBl(ln)
	case "SVC":
		v, err := imm(ln.operands[0])
		if err != nil {
			return 0, err
		}
		return 0xDF00 | uint32(v)&0xFF, nil
	case "UDF":
		v, err := imm(ln.operands[0])
		if err != nil {
			return 0, err
		}
		return 0xDE00 | uint32(v)&0xFF, nil
	}

	if base, cond := splitCond(m); base == "B" {
		return a.encodeBranch(ln, cond)
	}
	return 0, fmt.Errorf("unsupported mnemonic %q", m)
}

func (a *Assembler) encodeWord(ln line) (uint32, error) {
	op := ln.operands[0]
	if addr, ok := a.symbols[op]; ok {
		return addr, nil
	}
	v, err := imm(op)
	return uint32(v), err
}

// encodeMov handles both "MOV Rd, #imm8" (T1, §A in decoder.go's
// raw&0xE000==0x2000 case) and "MOV Rd, Rm" (special move, 0x4600).
func (a *Assembler) encodeMov(ln line) (uint32, error) {
	rd, err := reg(ln.operands[0])
	if err != nil {
		return 0, err
	}
	if isImmediate(ln.operands[1]) {
		v, err := imm(ln.operands[1])
		if err != nil {
			return 0, err
		}
		return 0x2000 | uint32(rd)<<8 | uint32(v)&0xFF, nil
	}
	rm, err := reg(ln.operands[1])
	if err != nil {
		return 0, err
	}
	dn := uint32(rd & 0x7)
	if rd >= 8 {
		dn = 1<<7 | uint32(rd&0x7)
	}
	return 0x4600 | dn | uint32(rm)<<3, nil
}

// encodeAddSub handles "ADD/SUB Rd, Rn, Rm|#imm3" (0x1800 family) and
// "ADD/SUB Rdn, #imm8" (0x2000 family, two-operand form).
func (a *Assembler) encodeAddSub(ln line, sub bool) (uint32, error) {
	if len(ln.operands) == 2 {
		rdn, err := reg(ln.operands[0])
		if err != nil {
			return 0, err
		}
		v, err := imm(ln.operands[1])
		if err != nil {
			return 0, err
		}
		op := uint32(0x2)
		if sub {
			op = 0x3
		}
		return 0x2000 | op<<11 | uint32(rdn)<<8 | uint32(v)&0xFF, nil
	}
	rd, err := reg(ln.operands[0])
	if err != nil {
		return 0, err
	}
	rn, err := reg(ln.operands[1])
	if err != nil {
		return 0, err
	}
	base := uint32(0x1800)
	if sub {
		base |= 0x0200
	}
	if isImmediate(ln.operands[2]) {
		v, err := imm(ln.operands[2])
		if err != nil {
			return 0, err
		}
		return base | 0x0400 | uint32(v)&0x7<<6 | uint32(rn)<<3 | uint32(rd), nil
	}
	rm, err := reg(ln.operands[2])
	if err != nil {
		return 0, err
	}
	return base | uint32(rm)<<6 | uint32(rn)<<3 | uint32(rd), nil
}

// encodeDataReg handles the two-register ALU forms sharing the 0x4000
// opcode block (AND/EOR/ADC/SBC/ORR/BIC/MUL/TST/CMN/MVN).
func (a *Assembler) encodeDataReg(ln line, opcode uint32) (uint32, error) {
	rdn, err := reg(ln.operands[0])
	if err != nil {
		return 0, err
	}
	rm, err := reg(ln.operands[1])
	if err != nil {
		return 0, err
	}
	return 0x4000 | opcode<<6 | uint32(rm)<<3 | uint32(rdn), nil
}

func (a *Assembler) encodeRorReg(ln line) (uint32, error) {
	return a.encodeDataReg(ln, 0x7)
}

func (a *Assembler) encodeCmp(ln line) (uint32, error) {
	rn, err := reg(ln.operands[0])
	if err != nil {
		return 0, err
	}
	if isImmediate(ln.operands[1]) {
		v, err := imm(ln.operands[1])
		if err != nil {
			return 0, err
		}
		return 0x2800 | uint32(rn)<<8 | uint32(v)&0xFF, nil
	}
	rm, err := reg(ln.operands[1])
	if err != nil {
		return 0, err
	}
	if rn < 8 && rm < 8 {
		return 0x4000 | 0xA<<6 | uint32(rm)<<3 | uint32(rn), nil
	}
	n := uint32(rn & 0x7)
	if rn >= 8 {
		n = 1<<7 | n
	}
	return 0x4500 | n | uint32(rm)<<3, nil
}

// encodeShift handles "LSL/LSR/ASR Rd, Rm, #imm5" (immediate shift
// amount).
func (a *Assembler) encodeShift(ln line, base uint32) (uint32, error) {
	rd, err := reg(ln.operands[0])
	if err != nil {
		return 0, err
	}
	rm, err := reg(ln.operands[1])
	if err != nil {
		return 0, err
	}
	v, err := imm(ln.operands[2])
	if err != nil {
		return 0, err
	}
	return base | uint32(v)&0x1F<<6 | uint32(rm)<<3 | uint32(rd), nil
}

func (a *Assembler) encodeLdrStr(ln line, load bool, size int) (uint32, error) {
	rt, err := reg(ln.operands[0])
	if err != nil {
		return 0, err
	}
	mem := strings.TrimSuffix(strings.TrimPrefix(strings.Join(ln.operands[1:], ","), "["), "]")
	parts := strings.Split(mem, ",")
	rn, err := reg(parts[0])
	if err != nil {
		return 0, err
	}
	var offset int64
	if len(parts) > 1 {
		offset, err = imm(parts[1])
		if err != nil {
			return 0, err
		}
	}
	if rn == 13 { // SP-relative, word-only encoding
		op := uint32(0x9000)
		if load {
			op |= 0x0800
		}
		return op | uint32(rt)<<8 | uint32(offset/4)&0xFF, nil
	}
	switch size {
	case 4:
		op := uint32(0x6000)
		if load {
			op |= 0x0800
		}
		return op | uint32(offset/4)&0x1F<<6 | uint32(rn)<<3 | uint32(rt), nil
	case 1:
		op := uint32(0x7000)
		if load {
			op |= 0x0800
		}
		return op | uint32(offset)&0x1F<<6 | uint32(rn)<<3 | uint32(rt), nil
	default:
		op := uint32(0x8000)
		if load {
			op |= 0x0800
		}
		return op | uint32(offset/2)&0x1F<<6 | uint32(rn)<<3 | uint32(rt), nil
	}
}

func (a *Assembler) encodePushPop(ln line, push bool) (uint32, error) {
	var list uint16
	extraBit := uint32(0)
	for _, op := range ln.operands {
		op = strings.Trim(op, "{} ")
		r, err := reg(op)
		if err != nil {
			return 0, err
		}
		if push && r == 14 {
			extraBit = 0x0100
			continue
		}
		if !push && r == 15 {
			extraBit = 0x0100
			continue
		}
		list |= 1 << uint(r&0x7)
	}
	base := uint32(0xB400)
	if !push {
		base = 0xBC00
	}
	return base | extraBit | uint32(list), nil
}

func (a *Assembler) encodeBx(ln line, link bool) (uint32, error) {
	rm, err := reg(ln.operands[0])
	if err != nil {
		return 0, err
	}
	base := uint32(0x4700)
	if link {
		base = 0x4780
	}
	return base | uint32(rm)<<3, nil
}

func (a *Assembler) resolveTarget(op string, from uint32) (int32, error) {
	if addr, ok := a.symbols[op]; ok {
		return int32(addr) - int32(from), nil
	}
	v, err := imm(op)
	if err != nil {
		return 0, fmt.Errorf("unresolved branch target %q: %w", op, err)
	}
	return int32(v), nil
}

func (a *Assembler) encodeBranch(ln line, cond string) (uint32, error) {
	delta, err := a.resolveTarget(ln.operands[0], ln.addr+4)
	if err != nil {
		return 0, err
	}
	if cond == "" || cond == "AL" {
		imm11 := uint32(delta>>1) & 0x7FF
		return 0xE000 | imm11, nil
	}
	c, ok := condCodes[cond]
	if !ok {
		return 0, fmt.Errorf("unknown condition %q", cond)
	}
	imm8 := uint32(delta>>1) & 0xFF
	return 0xD000 | uint32(c)<<8 | imm8, nil
}

// encodeBl produces the 32-bit BL T1 encoding (spec range ±16 MiB).
func (a *Assembler) encodeBl(ln line) (uint32, error) {
	delta, err := a.resolveTarget(ln.operands[0], ln.addr+4)
	if err != nil {
		return 0, err
	}
	u := uint32(delta)
	s := (u >> 24) & 0x1
	i1 := (u >> 23) & 0x1
	i2 := (u >> 22) & 0x1
	imm10 := (u >> 12) & 0x3FF
	imm11 := (u >> 1) & 0x7FF
	j1 := (^(i1 ^ s)) & 0x1
	j2 := (^(i2 ^ s)) & 0x1

	hi := uint32(0xF000) | s<<10 | imm10
	lo := uint32(0xD000) | j1<<13 | j2<<11 | imm11
	return hi | lo<<16, nil
}
