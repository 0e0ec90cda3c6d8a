package mcu_test

import (
	"testing"

	"github.com/lookbusy1344/sam3x-emulator/mcu"
	"github.com/stretchr/testify/require"
)

const (
	testUsartCR  = mcu.USART0Start + 0x00
	testUsartIER = mcu.USART0Start + 0x08
	testUsartCSR = mcu.USART0Start + 0x14
	testUsartRHR = mcu.USART0Start + 0x18
)

func TestUSART0ReceiveAndReadHoldingClearsReady(t *testing.T) {
	u := mcu.NewUSART0()
	require.NoError(t, u.Set32(testUsartCR, 1<<4)) // receiver enable

	u.DataReceived('A', 0, 0)

	csr, err := u.Get32(testUsartCSR)
	require.NoError(t, err)
	require.NotZero(t, csr&1) // receiver ready

	require.NotZero(t, u.LevelInterrupts())

	rhr, err := u.Get32(testUsartRHR)
	require.NoError(t, err)
	require.EqualValues(t, 'A', rhr)

	csr, err = u.Get32(testUsartCSR)
	require.NoError(t, err)
	require.Zero(t, csr&1)
	require.Zero(t, u.LevelInterrupts())
}

func TestUSART0IgnoresDataWhileReceiverDisabled(t *testing.T) {
	u := mcu.NewUSART0()
	u.DataReceived('Z', 0, 0)
	csr, err := u.Get32(testUsartCSR)
	require.NoError(t, err)
	require.Zero(t, csr&1)
}

func TestUSART0IgnoresDataOnModeMismatch(t *testing.T) {
	u := mcu.NewUSART0()
	require.NoError(t, u.Set32(testUsartCR, 1<<4))
	// requiredMode asks for bit0 set, mode register defaults to 0.
	u.DataReceived('Q', 1, 1)
	csr, err := u.Get32(testUsartCSR)
	require.NoError(t, err)
	require.Zero(t, csr&1)
}

func TestUSART0OverrunOnSecondUnreadByte(t *testing.T) {
	u := mcu.NewUSART0()
	require.NoError(t, u.Set32(testUsartCR, 1<<4))
	u.DataReceived('1', 0, 0)
	u.DataReceived('2', 0, 0)

	csr, err := u.Get32(testUsartCSR)
	require.NoError(t, err)
	require.NotZero(t, csr&(1<<5)) // overrun error
}

func TestUSART0RejectsUnsupportedControlBits(t *testing.T) {
	u := mcu.NewUSART0()
	require.Error(t, u.Set32(testUsartCR, 1<<20))
}

func TestUSART0RejectsUnsupportedInterruptBits(t *testing.T) {
	u := mcu.NewUSART0()
	require.Error(t, u.Set32(testUsartIER, 1<<1))
}

func TestUSART0SnapshotRoundTrip(t *testing.T) {
	u := mcu.NewUSART0()
	require.NoError(t, u.Set32(testUsartCR, 1<<4))
	u.DataReceived('X', 0, 0)

	snap := u.Snapshot()
	other := mcu.NewUSART0()
	other.Restore(snap)
	require.Equal(t, snap, other.Snapshot())
}
