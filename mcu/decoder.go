package mcu

// Decoding follows the real ARMv7-M Thumb/Thumb-2 encodings. This is
// confirmed bit-for-bit against original_source's own MOVW/MOVT test
// fixture: a 32-bit instruction's raw value is composed as
// firstHalfword | secondHalfword<<16 (the first, lower-addressed
// halfword occupies the low 16 bits), and decoding that value with the
// standard T3 MOVW field layout (second halfword: imm3 at [14:12], Rd at
// [11:8], imm8 at [7:0]; first halfword: imm4 at [3:0], i at [10])
// reproduces the fixture's expected Rd/imm16 exactly. spec.md §8
// scenario 6's own worked hex ("0xF2403007" -> rd:3, imm16:7) does not
// reconcile bit-exactly under either halfword ordering we tried against
// the real field layout; we follow the original source and the fixture
// over that one prose example (see DESIGN.md).

func signExtend(value uint32, bits int) int32 {
	shift := uint(32 - bits)
	return int32(value<<shift) >> shift
}

// is32BitThumb reports whether the first fetched halfword begins a
// 32-bit Thumb-2 instruction (ARMv7-M: bits[15:11] of 0b11101, 0b11110
// or 0b11111).
func is32BitThumb(hi uint16) bool {
	top5 := hi >> 11
	return top5 == 0b11101 || top5 == 0b11110 || top5 == 0b11111
}

// Decode16 decodes a single 16-bit Thumb instruction.
func Decode16(raw uint16) Instruction {
	base := Instruction{Raw: uint32(raw), Size: 2, Cond: CondAL}

	switch {
	case raw&0xF800 == 0x0000, raw&0xF800 == 0x0800, raw&0xF800 == 0x1000:
		// Shift (immediate): LSL/LSR/ASR Rd, Rm, #imm5
		imm5 := int((raw >> 6) & 0x1F)
		rm := int((raw >> 3) & 0x7)
		rd := int(raw & 0x7)
		in := base
		in.Rd, in.Rm = rd, rm
		in.HasImm, in.Imm = true, int32(imm5)
		in.SetFlags = true
		switch raw & 0xF800 {
		case 0x0000:
			in.Kind = KindLSL
		case 0x0800:
			in.Kind = KindLSR
		default:
			in.Kind = KindASR
		}
		return in

	case raw&0xFC00 == 0x1800: // ADD/SUB register or 3-bit immediate
		rm3 := int((raw >> 6) & 0x7)
		rn := int((raw >> 3) & 0x7)
		rd := int(raw & 0x7)
		in := base
		in.Rd, in.Rn = rd, rn
		in.SetFlags = true
		isImm := raw&0x0400 != 0
		isSub := raw&0x0200 != 0
		if isImm {
			in.HasImm, in.Imm = true, int32(rm3)
		} else {
			in.Rm = rm3
		}
		if isSub {
			in.Kind = KindSUB
		} else {
			in.Kind = KindADD
		}
		return in

	case raw&0xE000 == 0x2000: // MOV/CMP/ADD/SUB Rdn, #imm8
		op := (raw >> 11) & 0x3
		rdn := int((raw >> 8) & 0x7)
		imm8 := int32(raw & 0xFF)
		in := base
		in.Rd, in.Rn = rdn, rdn
		in.HasImm, in.Imm = true, imm8
		in.SetFlags = true
		switch op {
		case 0:
			in.Kind = KindMOV
		case 1:
			in.Kind = KindCMP
		case 2:
			in.Kind = KindADD
		default:
			in.Kind = KindSUB
		}
		return in

	case raw&0xFC00 == 0x4000: // data-processing register
		opcode := (raw >> 6) & 0xF
		rm := int((raw >> 3) & 0x7)
		rdn := int(raw & 0x7)
		in := base
		in.Rd, in.Rn, in.Rm = rdn, rdn, rm
		in.SetFlags = true
		switch opcode {
		case 0x0:
			in.Kind = KindAND
		case 0x1:
			in.Kind = KindEOR
		case 0x2:
			in.Kind, in.HasImm, in.Shift = KindLSL, false, ShiftLSL
		case 0x3:
			in.Kind, in.Shift = KindLSR, ShiftLSR
		case 0x4:
			in.Kind, in.Shift = KindASR, ShiftASR
		case 0x5:
			in.Kind = KindADC
		case 0x6:
			in.Kind = KindSBC
		case 0x7:
			in.Kind, in.Shift = KindROR, ShiftROR
		case 0x8:
			in.Kind = KindTST
		case 0x9:
			in.Kind, in.Rn, in.Rd = KindRSB, rm, rdn
			in.HasImm, in.Imm = true, 0
		case 0xA:
			in.Kind = KindCMP
		case 0xB:
			in.Kind = KindCMN
		case 0xC:
			in.Kind = KindORR
		case 0xD:
			in.Kind = KindMUL
		case 0xE:
			in.Kind = KindBIC
		default:
			in.Kind = KindMVN
		}
		return in

	case raw&0xFC00 == 0x4400: // special data processing / branch exchange
		op := (raw >> 8) & 0x3
		dn := int((raw>>4)&0x8) | int(raw&0x7)
		rm := int((raw >> 3) & 0xF)
		in := base
		switch op {
		case 0x0:
			in.Kind, in.Rd, in.Rn, in.Rm = KindADD, dn, dn, rm
		case 0x1:
			in.Kind, in.Rn, in.Rm = KindCMP, dn, rm
		case 0x2:
			in.Kind, in.Rd, in.Rm = KindMOV, dn, rm
		default:
			in.Rm = rm
			if raw&0x80 != 0 {
				in.Kind = KindBLX
			} else {
				in.Kind = KindBX
			}
		}
		return in

	case raw&0xF800 == 0x4800: // LDR Rt, [PC, #imm8]
		rt := int((raw >> 8) & 0x7)
		imm8 := uint32(raw&0xFF) << 2
		in := base
		in.Kind, in.Rt, in.Rn = KindLDRLiteral, rt, PC
		in.HasImm, in.Imm = true, int32(imm8)
		return in

	case raw&0xF000 == 0x5000: // load/store register offset
		opA := (raw >> 9) & 0x7
		rm := int((raw >> 6) & 0x7)
		rn := int((raw >> 3) & 0x7)
		rt := int(raw & 0x7)
		in := base
		in.Rt, in.Rn, in.Rm = rt, rn, rm
		switch opA {
		case 0x0:
			in.Kind = KindSTR
		case 0x1:
			in.Kind = KindSTRH
		case 0x2:
			in.Kind = KindSTRB
		case 0x3:
			in.Kind = KindLDRSB
		case 0x4:
			in.Kind = KindLDR
		case 0x5:
			in.Kind = KindLDRH
		case 0x6:
			in.Kind = KindLDRB
		default:
			in.Kind = KindLDRSH
		}
		return in

	case raw&0xE000 == 0x6000: // load/store word/byte, immediate offset
		b := raw&0x1000 != 0
		l := raw&0x0800 != 0
		imm5 := uint32((raw >> 6) & 0x1F)
		rn := int((raw >> 3) & 0x7)
		rt := int(raw & 0x7)
		in := base
		in.Rt, in.Rn = rt, rn
		in.HasImm = true
		if b {
			in.Imm = int32(imm5)
			if l {
				in.Kind = KindLDRB
			} else {
				in.Kind = KindSTRB
			}
		} else {
			in.Imm = int32(imm5 << 2)
			if l {
				in.Kind = KindLDR
			} else {
				in.Kind = KindSTR
			}
		}
		return in

	case raw&0xF000 == 0x8000: // load/store halfword, immediate offset
		l := raw&0x0800 != 0
		imm5 := uint32((raw>>6)&0x1F) << 1
		rn := int((raw >> 3) & 0x7)
		rt := int(raw & 0x7)
		in := base
		in.Rt, in.Rn = rt, rn
		in.HasImm, in.Imm = true, int32(imm5)
		if l {
			in.Kind = KindLDRH
		} else {
			in.Kind = KindSTRH
		}
		return in

	case raw&0xF000 == 0x9000: // load/store SP-relative
		l := raw&0x0800 != 0
		rt := int((raw >> 8) & 0x7)
		imm8 := uint32(raw&0xFF) << 2
		in := base
		in.Rt, in.Rn = rt, SP
		in.HasImm, in.Imm = true, int32(imm8)
		if l {
			in.Kind = KindLDR
		} else {
			in.Kind = KindSTR
		}
		return in

	case raw&0xF800 == 0xA000: // ADR Rd, [PC, #imm8]
		rd := int((raw >> 8) & 0x7)
		imm8 := uint32(raw&0xFF) << 2
		in := base
		in.Kind, in.Rd, in.Rn = KindADDSP, rd, PC
		in.HasImm, in.Imm = true, int32(imm8)
		return in

	case raw&0xF800 == 0xA800: // ADD Rd, SP, #imm8
		rd := int((raw >> 8) & 0x7)
		imm8 := uint32(raw&0xFF) << 2
		in := base
		in.Kind, in.Rd, in.Rn = KindADDSP, rd, SP
		in.HasImm, in.Imm = true, int32(imm8)
		return in

	case raw&0xFF80 == 0xB000: // ADD SP, SP, #imm7
		imm7 := uint32(raw&0x7F) << 2
		in := base
		in.Kind, in.Rd, in.Rn = KindADDSP, SP, SP
		in.HasImm, in.Imm = true, int32(imm7)
		return in

	case raw&0xFF80 == 0xB080: // SUB SP, SP, #imm7
		imm7 := uint32(raw&0x7F) << 2
		in := base
		in.Kind, in.Rd, in.Rn = KindADDSP, SP, SP
		in.HasImm, in.Imm = true, -int32(imm7)
		return in

	case raw&0xFE00 == 0xB400: // PUSH {reglist, <LR>}
		reglist := uint16(raw & 0xFF)
		in := base
		in.Kind = KindPUSH
		in.RegList = reglist
		if raw&0x0100 != 0 {
			in.RegList |= 1 << 14
		}
		return in

	case raw&0xFE00 == 0xBC00: // POP {reglist, <PC>}
		reglist := uint16(raw & 0xFF)
		in := base
		in.Kind = KindPOP
		in.RegList = reglist
		if raw&0x0100 != 0 {
			in.RegList |= 1 << 15
		}
		return in

	case raw&0xFF00 == 0xBF00 && raw&0xF != 0: // IT
		firstCondMask := uint8(raw & 0xFF)
		in := base
		in.Kind = KindIT
		in.ITFirstCond = ConditionCode(firstCondMask >> 4)
		in.ITMask = firstCondMask & 0xF
		return in

	case raw&0xFF00 == 0xDE00: // UDF
		in := base
		in.Kind = KindUDF
		in.HasImm, in.Imm = true, int32(raw&0xFF)
		return in

	case raw&0xFF00 == 0xDF00: // SVC
		in := base
		in.Kind = KindSVC
		in.HasImm, in.Imm = true, int32(raw&0xFF)
		return in

	case raw&0xF000 == 0xD000: // B<cond> #imm8
		cond := ConditionCode((raw >> 8) & 0xF)
		imm8 := signExtend(uint32(raw&0xFF)<<1, 9)
		in := base
		in.Kind = KindBCond
		in.Cond = cond
		in.HasImm, in.Imm = true, imm8
		return in

	case raw&0xF800 == 0xE000: // B #imm11
		imm11 := signExtend(uint32(raw&0x7FF)<<1, 12)
		in := base
		in.Kind = KindB
		in.HasImm, in.Imm = true, imm11
		return in
	}

	in := base
	in.Kind = Unsupported
	return in
}

// Decode32 decodes a 32-bit Thumb-2 instruction from its two halfwords
// (hi is the first, lower-addressed halfword; lo is the second).
func Decode32(hi, lo uint16) Instruction {
	raw := uint32(hi) | uint32(lo)<<16
	base := Instruction{Raw: raw, Size: 4, Cond: CondAL}

	op1 := (hi >> 11) & 0x3 // bits[12:11] excluding the always-1 bit 15..13 prefix
	op2 := (hi >> 4) & 0x7F

	switch {
	case hi&0xFBF0 == 0xF240 || hi&0xFBF0 == 0xF2C0: // MOVW/MOVT
		imm4 := uint32(hi & 0xF)
		i := uint32((hi >> 10) & 0x1)
		imm3 := uint32((lo >> 12) & 0x7)
		rd := int((lo >> 8) & 0xF)
		imm8 := uint32(lo & 0xFF)
		imm16 := imm4<<12 | i<<11 | imm3<<8 | imm8
		in := base
		in.Rd = rd
		in.HasImm, in.Imm = true, int32(imm16)
		if hi&0x0080 != 0 {
			in.Kind = KindMOVT
		} else {
			in.Kind = KindMOVW
		}
		return in

	case hi&0xF800 == 0xF000 && lo&0xD000 == 0xD000: // BL <label>
		s := uint32((hi >> 10) & 0x1)
		imm10 := uint32(hi & 0x3FF)
		j1 := uint32((lo >> 13) & 0x1)
		j2 := uint32((lo >> 11) & 0x1)
		imm11 := uint32(lo & 0x7FF)
		i1 := ^(j1 ^ s) & 1
		i2 := ^(j2 ^ s) & 1
		imm := s<<24 | i1<<23 | i2<<22 | imm10<<12 | imm11<<1
		in := base
		in.Kind = KindBL
		in.HasImm, in.Imm = true, signExtend(imm, 25)
		return in

	case hi&0xF800 == 0xF000 && lo&0xD000 == 0x8000 && (hi>>6)&0xF != 0x1D && (hi>>6)&0xF != 0x1F: // B<cond> T3
		cond := ConditionCode((hi >> 6) & 0xF)
		s := uint32((hi >> 10) & 0x1)
		imm6 := uint32(hi & 0x3F)
		j1 := uint32((lo >> 13) & 0x1)
		j2 := uint32((lo >> 11) & 0x1)
		imm11 := uint32(lo & 0x7FF)
		imm := s<<20 | j2<<19 | j1<<18 | imm6<<12 | imm11<<1
		in := base
		in.Kind = KindBCond
		in.Cond = cond
		in.HasImm, in.Imm = true, signExtend(imm, 21)
		return in

	case op1 == 0b10 && hi&0x4000 != 0 && lo&0x8000 != 0 && lo&0x5000 == 0x1000: // B T4 (unconditional)
		s := uint32((hi >> 10) & 0x1)
		imm10 := uint32(hi & 0x3FF)
		j1 := uint32((lo >> 13) & 0x1)
		j2 := uint32((lo >> 11) & 0x1)
		imm11 := uint32(lo & 0x7FF)
		i1 := ^(j1 ^ s) & 1
		i2 := ^(j2 ^ s) & 1
		imm := s<<24 | i1<<23 | i2<<22 | imm10<<12 | imm11<<1
		in := base
		in.Kind = KindB
		in.HasImm, in.Imm = true, signExtend(imm, 25)
		return in

	case hi&0xFFF0 == 0xE8D0 && lo&0xFFE0 == 0xF000: // TBB/TBH
		rn := int(hi & 0xF)
		rm := int(lo & 0xF)
		in := base
		in.Rn, in.Rm = rn, rm
		if lo&0x10 != 0 {
			in.Kind = KindTBH
		} else {
			in.Kind = KindTBB
		}
		return in

	case hi&0xFFD0 == 0xFB90 && lo&0xF0F0 == 0xF0F0: // UDIV/SDIV
		rn := int(hi & 0xF)
		rd := int((lo >> 8) & 0xF)
		rm := int(lo & 0xF)
		in := base
		in.Rd, in.Rn, in.Rm = rd, rn, rm
		if hi&0x0020 != 0 {
			in.Kind = KindUDIV
		} else {
			in.Kind = KindSDIV
		}
		return in

	case hi&0xFFF0 == 0xFB00 && lo&0x00F0 == 0x0000: // MUL/MLA
		rn := int(hi & 0xF)
		rd := int((lo >> 8) & 0xF)
		rm := int(lo & 0xF)
		ra := int((lo >> 12) & 0xF)
		in := base
		in.Rd, in.Rn, in.Rm = rd, rn, rm
		if ra == 0xF {
			in.Kind = KindMUL
		} else {
			in.Kind = KindMLA
			in.Rt = ra // accumulator, carried in Rt
		}
		return in

	case hi&0xFF7F == 0xF8DF || hi&0xFF7F == 0xF85F: // LDR Rt, [PC, #imm12] (literal, wide)
		add := hi&0x0080 != 0
		imm12 := int32(lo & 0xFFF)
		if !add {
			imm12 = -imm12
		}
		rt := int((lo >> 12) & 0xF)
		in := base
		in.Kind, in.Rt, in.Rn = KindLDRLiteral, rt, PC
		in.HasImm, in.Imm = true, imm12
		return in

	case (hi&0xFFF0) == 0xF8D0 || (hi&0xFFF0) == 0xF8C0 ||
		(hi&0xFFF0) == 0xF890 || (hi&0xFFF0) == 0xF880 ||
		(hi&0xFFF0) == 0xF8B0 || (hi&0xFFF0) == 0xF8A0 ||
		(hi&0xFFF0) == 0xF9B0: // LDR/STR/LDRH/STRH/LDRSH(imm12)
		rn := int(hi & 0xF)
		rt := int((lo >> 12) & 0xF)
		imm12 := int32(lo & 0xFFF)
		in := base
		in.Rt, in.Rn = rt, rn
		in.HasImm, in.Imm = true, imm12
		switch hi & 0xFFF0 {
		case 0xF8D0:
			in.Kind = KindLDR
		case 0xF8C0:
			in.Kind = KindSTR
		case 0xF890:
			in.Kind = KindLDRB
		case 0xF880:
			in.Kind = KindSTRB
		case 0xF8B0:
			in.Kind = KindLDRH
		case 0xF8A0:
			in.Kind = KindSTRH
		default:
			in.Kind = KindLDRSH
		}
		return in
	}

	_ = op2
	in := base
	in.Kind = Unsupported
	return in
}
