package mcu_test

import (
	"testing"

	"github.com/lookbusy1344/sam3x-emulator/mcu"
	"github.com/stretchr/testify/require"
)

func TestEngineSaveRestoreRoundTrip(t *testing.T) {
	e, cpu := newTestEngine()
	cpu.SetRegister(mcu.R0, 0xCAFEBABE)
	cpu.PC = 0x100
	require.NoError(t, e.Bus.Set32(mcu.SRAMStart, 0x11223344))
	require.NoError(t, e.NVIC.Set32(0xE000E100, 1)) // ISER0

	snapshot := e.Save()

	// Mutate everything the snapshot captured.
	cpu.SetRegister(mcu.R0, 0)
	cpu.PC = 0x999
	require.NoError(t, e.Bus.Set32(mcu.SRAMStart, 0))
	require.NoError(t, e.NVIC.Set32(0xE000E180, 1)) // ICER0: disable IRQ0

	require.NoError(t, e.Restore(snapshot))

	require.EqualValues(t, 0xCAFEBABE, cpu.GetRegister(mcu.R0))
	require.EqualValues(t, 0x100, cpu.PC)
	v, err := e.Bus.Get32(mcu.SRAMStart)
	require.NoError(t, err)
	require.EqualValues(t, 0x11223344, v)
	require.EqualValues(t, 1, e.NVIC.Snapshot().Enabled)
}

func TestCheckpointMarshalRoundTrip(t *testing.T) {
	e, cpu := newTestEngine()
	cpu.SetRegister(mcu.R3, 42)
	require.NoError(t, e.Bus.Set32(mcu.SRAMStart+4, 7))

	cp := e.Save()
	data, err := cp.Marshal()
	require.NoError(t, err)
	require.NotEmpty(t, data)

	restored, err := mcu.UnmarshalCheckpoint(data)
	require.NoError(t, err)
	require.Equal(t, cp, restored)
}

func TestCheckpointRestoreInvalidatesInstructionCache(t *testing.T) {
	e, _ := newTestEngine()
	require.NoError(t, e.Bus.Set16(mcu.FlashStart, 0x4770)) // BX LR
	in, err := e.Bus.GetInsn(mcu.FlashStart)
	require.NoError(t, err)
	require.Equal(t, mcu.KindBX, in.Kind)

	cp := e.Save()
	// cp.Flash has the BX LR raw word baked in; overwrite it directly in
	// the checkpoint to simulate restoring an image with different code
	// at the same address, then confirm the stale cached decode doesn't
	// leak through the restore.
	cp.Flash[0] = 0x18001800 // two ADD R0,R0,R0 halfwords

	require.NoError(t, e.Restore(cp))
	in2, err := e.Bus.GetInsn(mcu.FlashStart)
	require.NoError(t, err)
	require.NotEqual(t, mcu.KindBX, in2.Kind)
}
