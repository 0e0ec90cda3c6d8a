package mcu_test

import (
	"testing"

	"github.com/lookbusy1344/sam3x-emulator/mcu"
	"github.com/stretchr/testify/require"
)

func TestMemoryBankWordRoundTrip(t *testing.T) {
	b := mcu.NewMemoryBank("SRAM", 0x20000000, 4, 0)
	require.NoError(t, b.Set32(0x20000000, 0x12345678))
	v, err := b.Get32(0x20000000)
	require.NoError(t, err)
	require.EqualValues(t, 0x12345678, v)
}

func TestMemoryBankMisalignedWordFaults(t *testing.T) {
	b := mcu.NewMemoryBank("SRAM", 0x20000000, 4, 0)
	_, err := b.Get32(0x20000002)
	require.Error(t, err)
}

func TestMemoryBankByteAndHalfwordRoundTrip(t *testing.T) {
	b := mcu.NewMemoryBank("SRAM", 0x20000000, 4, 0)
	require.NoError(t, b.Set32(0x20000000, 0))
	require.NoError(t, b.Set8(0x20000001, 0xAB))
	v8, err := b.Get8(0x20000001)
	require.NoError(t, err)
	require.EqualValues(t, 0xAB, v8)

	require.NoError(t, b.Set16(0x20000002, 0xBEEF))
	v16, err := b.Get16(0x20000002)
	require.NoError(t, err)
	require.EqualValues(t, 0xBEEF, v16)

	// Confirm the byte write landed in the right lane of the word.
	word, err := b.Get32(0x20000000)
	require.NoError(t, err)
	require.EqualValues(t, 0xAB00, word&0xFF00)
}

func TestMemoryBankOutOfRangeFaults(t *testing.T) {
	b := mcu.NewMemoryBank("SRAM", 0x20000000, 2, 0)
	_, err := b.Get32(0x20000100)
	require.Error(t, err)
	require.Error(t, b.Set32(0x20000100, 0))
}

func TestMemoryBankDecodeCachesAndInvalidatesOnWrite(t *testing.T) {
	b := mcu.NewMemoryBank("Flash", 0x00080000, 4, 0)
	// BX LR : 0x4770, placed at offset 0.
	require.NoError(t, b.Set16(0x00080000, 0x4770))

	in, err := b.GetInsn(0x00080000)
	require.NoError(t, err)
	require.Equal(t, mcu.KindBX, in.Kind)

	// Overwriting the halfword must invalidate the cached decode: write
	// ADD R0,R0,R0 (0x1800) and confirm the stale BX decode is gone.
	require.NoError(t, b.Set16(0x00080000, 0x1800))
	in2, err := b.GetInsn(0x00080000)
	require.NoError(t, err)
	require.NotEqual(t, mcu.KindBX, in2.Kind)
}

func TestMemoryBankDecodeInsnsStopsAtCachedSlot(t *testing.T) {
	b := mcu.NewMemoryBank("Flash", 0x00080000, 4, 0)
	require.NoError(t, b.Set16(0x00080000, 0x4770)) // BX LR
	require.NoError(t, b.Set16(0x00080002, 0x4770)) // BX LR

	// Pre-warm the second slot only.
	_, err := b.GetInsn(0x00080002)
	require.NoError(t, err)

	out, err := b.DecodeInsns(0x00080000, 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, mcu.KindBX, out[0].Kind)
}

func TestMemoryBankLoadBytesInvalidatesCache(t *testing.T) {
	b := mcu.NewMemoryBank("Flash", 0x00080000, 4, 0)
	require.NoError(t, b.Set16(0x00080000, 0x4770)) // BX LR
	_, err := b.GetInsn(0x00080000)
	require.NoError(t, err)

	require.NoError(t, b.LoadBytes(0x00080000, []byte{0x00, 0x18})) // ADD R0,R0,R0
	in, err := b.GetInsn(0x00080000)
	require.NoError(t, err)
	require.NotEqual(t, mcu.KindBX, in.Kind)
}

func TestMemoryBankResetClearsWordsAndCache(t *testing.T) {
	b := mcu.NewMemoryBank("SRAM", 0x20000000, 2, 0)
	require.NoError(t, b.Set32(0x20000000, 0xFFFFFFFF))
	b.Reset(0)
	v, err := b.Get32(0x20000000)
	require.NoError(t, err)
	require.Zero(t, v)
}

func TestMemoryBankContains(t *testing.T) {
	b := mcu.NewMemoryBank("SRAM", 0x20000000, 4, 0)
	require.True(t, b.Contains(0x20000000))
	require.True(t, b.Contains(0x2000000F))
	require.False(t, b.Contains(0x20000010))
	require.False(t, b.Contains(0x1FFFFFFF))
}
