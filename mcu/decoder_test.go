package mcu_test

import (
	"testing"

	"github.com/lookbusy1344/sam3x-emulator/mcu"
	"github.com/stretchr/testify/require"
)

func TestDecode16ShiftImmediate(t *testing.T) {
	// LSL R1, R2, #3 : 0b00000_00011_010_001
	in := mcu.Decode16(0x00D1)
	require.Equal(t, mcu.KindLSL, in.Kind)
	require.Equal(t, 1, in.Rd)
	require.Equal(t, 2, in.Rm)
	require.EqualValues(t, 3, in.Imm)
	require.True(t, in.SetFlags)
	require.Equal(t, 2, in.Size)
}

func TestDecode16AddRegister(t *testing.T) {
	// ADD R0, R1, R2 : 0x1888
	in := mcu.Decode16(0x1888)
	require.Equal(t, mcu.KindADD, in.Kind)
	require.Equal(t, 0, in.Rd)
	require.Equal(t, 1, in.Rn)
	require.Equal(t, 2, in.Rm)
	require.False(t, in.HasImm)
}

func TestDecode16MovImmediate(t *testing.T) {
	// MOV R3, #0x42 : 0x2342
	in := mcu.Decode16(0x2342)
	require.Equal(t, mcu.KindMOV, in.Kind)
	require.Equal(t, 3, in.Rd)
	require.True(t, in.HasImm)
	require.EqualValues(t, 0x42, in.Imm)
}

func TestDecode16BranchExchange(t *testing.T) {
	// BX LR : 0x4770
	in := mcu.Decode16(0x4770)
	require.Equal(t, mcu.KindBX, in.Kind)
	require.Equal(t, mcu.LR, in.Rm)
}

func TestDecode16PushWithLR(t *testing.T) {
	// PUSH {R0,R1,LR} : 0xB503
	in := mcu.Decode16(0xB503)
	require.Equal(t, mcu.KindPUSH, in.Kind)
	require.EqualValues(t, 1<<0|1<<1|1<<14, in.RegList)
}

func TestDecode16PopWithPC(t *testing.T) {
	// POP {R0,PC} : 0xBD01
	in := mcu.Decode16(0xBD01)
	require.Equal(t, mcu.KindPOP, in.Kind)
	require.EqualValues(t, 1<<0|1<<15, in.RegList)
}

func TestDecode16ConditionalBranch(t *testing.T) {
	// BEQ with imm8 = 0x02, cond = EQ(0x0): 0xD002
	in := mcu.Decode16(0xD002)
	require.Equal(t, mcu.KindBCond, in.Kind)
	require.Equal(t, mcu.ConditionCode(0x0), in.Cond)
	require.EqualValues(t, 4, in.Imm) // imm8<<1
}

func TestDecode16UnconditionalBranch(t *testing.T) {
	// B #imm11=0x001 : 0xE001
	in := mcu.Decode16(0xE001)
	require.Equal(t, mcu.KindB, in.Kind)
	require.EqualValues(t, 2, in.Imm)
}

func TestDecode16SVC(t *testing.T) {
	in := mcu.Decode16(0xDF05)
	require.Equal(t, mcu.KindSVC, in.Kind)
	require.EqualValues(t, 5, in.Imm)
}

func TestDecode32MOVWMOVT(t *testing.T) {
	// Grounded on original_source's MOVW test fixture: raw composed as
	// firstHalfword | secondHalfword<<16.
	hi, lo := uint16(0xF240), uint16(0x0307)
	in := mcu.Decode32(hi, lo)
	require.Equal(t, mcu.KindMOVW, in.Kind)
	require.Equal(t, 3, in.Rd)
	require.EqualValues(t, 7, in.Imm)

	hiT, loT := uint16(0xF2C0), uint16(0x0307)
	inT := mcu.Decode32(hiT, loT)
	require.Equal(t, mcu.KindMOVT, inT.Kind)
}

func TestDecode32BL(t *testing.T) {
	// BL with a small positive forward offset.
	hi, lo := uint16(0xF000), uint16(0xF801)
	in := mcu.Decode32(hi, lo)
	require.Equal(t, mcu.KindBL, in.Kind)
	require.True(t, in.HasImm)
}

func TestDecode32UDIV(t *testing.T) {
	// hi=0xFBB1 lo=0xF0F2: Rn=1, Rd=0, Rm=2.
	in := mcu.Decode32(0xFBB1, 0xF0F2)
	require.Equal(t, mcu.KindUDIV, in.Kind)
	require.Equal(t, 0, in.Rd)
	require.Equal(t, 1, in.Rn)
	require.Equal(t, 2, in.Rm)
}

func TestDecode32MLA(t *testing.T) {
	// hi=0xFB01 lo=0x0302: Rn=1, Rd=3, Rm=2, Ra=0 (accumulate into Rt).
	in := mcu.Decode32(0xFB01, 0x0302)
	require.Equal(t, mcu.KindMLA, in.Kind)
	require.Equal(t, 3, in.Rd)
	require.Equal(t, 1, in.Rn)
	require.Equal(t, 2, in.Rm)
	require.Equal(t, 0, in.Rt)
}

func TestDecode32LDRImmediate12(t *testing.T) {
	// LDR R3, [R0, #0x10] : hi=0xF8D0 lo=0x3010
	in := mcu.Decode32(0xF8D0, 0x3010)
	require.Equal(t, mcu.KindLDR, in.Kind)
	require.Equal(t, 3, in.Rt)
	require.Equal(t, 0, in.Rn)
	require.EqualValues(t, 0x10, in.Imm)
}

func TestIs32BitThumbViaUnsupportedHalfwordBoundary(t *testing.T) {
	// 0xE800 has top5 bits 0b11101, which should route through Decode32
	// rather than Decode16's plain-B case (0xF800==0xE000 doesn't match).
	in := mcu.Decode16(0xE800)
	require.Equal(t, mcu.Unsupported, in.Kind)
}
