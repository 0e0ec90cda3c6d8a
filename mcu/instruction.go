package mcu

// Kind tags which variant an Instruction holds (spec §3, §9: "Tagged
// Instruction variant replaces any form of polymorphic dispatch"). Decoding
// produces one of these; execution pattern-matches on it.
type Kind int

const (
	// Unknown: never decoded yet (a fresh instruction-cache slot).
	Unknown Kind = iota
	// Unsupported: decoded, but the engine does not implement this
	// encoding.
	Unsupported

	// Data processing (register and immediate forms share a Kind; the
	// decoder records which operand form via HasImm).
	KindAND
	KindEOR
	KindSUB
	KindRSB
	KindADD
	KindADC
	KindSBC
	KindCMP
	KindCMN
	KindORR
	KindMOV
	KindBIC
	KindMVN
	KindTST
	KindTEQ
	KindLSL
	KindLSR
	KindASR
	KindROR

	// Loads/stores with immediate offset.
	KindLDR
	KindLDRB
	KindLDRH
	KindSTR
	KindSTRB
	KindSTRH
	KindLDRSB
	KindLDRSH

	// PC-relative load.
	KindLDRLiteral

	// Branches.
	KindBCond // conditional branch
	KindB     // unconditional branch
	KindBL
	KindBX
	KindBLX

	// Wide immediate moves.
	KindMOVW
	KindMOVT

	// IT block.
	KindIT

	// Table branch.
	KindTBB
	KindTBH

	KindUDIV
	KindSDIV
	KindMUL
	KindMLA

	KindPUSH
	KindPOP

	// SP-relative add (ADD Rd, SP, #imm / ADD SP, SP, #imm).
	KindADDSP

	KindUDF

	KindSVC

	// Raw data placeholders used by the assembler to embed literals.
	KindU8
	KindU16
	KindU32
)

// Instruction is the tagged decoded form of one Thumb/Thumb-2 opcode.
// Operand fields are populated according to Kind; fields irrelevant to a
// given Kind are left zero.
type Instruction struct {
	Kind Kind

	// Size is the instruction's encoded length in bytes: 2 or 4. Unknown
	// is Size 0.
	Size int

	// Raw holds the original encoding (low 16 bits for halfword
	// instructions; both halfwords packed hi<<16|lo for 32-bit ones) so
	// Unsupported/Unknown faults can report the offending opcode.
	Raw uint32

	Cond ConditionCode

	Rd, Rn, Rm, Rt int
	SetFlags       bool

	HasImm bool
	Imm    int32 // sign-extended where applicable

	Shift       ShiftType
	ShiftAmount int

	// RegList is the PUSH/POP/LDM-style register bitmask (bit i = Ri), plus
	// bit 14 (LR) / bit 15 (PC) for PUSH/POP's extra register.
	RegList uint16

	// ITFirstCond/ITMask hold the operands of an IT instruction.
	ITFirstCond ConditionCode
	ITMask      uint8

	// Data holds the raw bytes for KindU8/KindU16/KindU32 placeholders.
	Data uint32
}

// IsBranch reports whether Kind transfers control directly (used by the
// CPU loop to recognise an EXC_RETURN branch target, spec §4.7 step 6).
func (i Instruction) IsBranch() bool {
	switch i.Kind {
	case KindBCond, KindB, KindBL, KindBX, KindBLX:
		return true
	default:
		return false
	}
}
