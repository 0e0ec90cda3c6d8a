package host_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/lookbusy1344/sam3x-emulator/host"
	"github.com/stretchr/testify/require"
)

// memStream models just enough of the boot monitor's "w<addr>,#" (read
// word) and "W<addr>,<value>#" (write word) commands to drive
// FlashHelper's page read-through and flush logic, with EEFC's status
// register wired to always report ready (FRDY set).
type memStream struct {
	mem   map[uint32]uint32
	reply string
}

func newMemStream() *memStream {
	return &memStream{mem: make(map[uint32]uint32)}
}

func (s *memStream) SetSerialInput(command string) bool {
	trimmed := strings.TrimSuffix(strings.TrimSpace(command), "#")
	switch {
	case strings.HasPrefix(trimmed, "w"):
		var addr uint32
		fmt.Sscanf(strings.TrimSuffix(trimmed[1:], ","), "%x", &addr)
		if addr == 0x400E0A08 || addr == 0x400E0C08 {
			s.reply = "1\n>"
			return true
		}
		s.reply = fmt.Sprintf("%x\n>", s.mem[addr])
	case strings.HasPrefix(trimmed, "W"):
		parts := strings.SplitN(trimmed[1:], ",", 2)
		var addr, value uint32
		fmt.Sscanf(parts[0], "%x", &addr)
		fmt.Sscanf(parts[1], "%x", &value)
		s.mem[addr] = value
		s.reply = "\n>"
	default:
		s.reply = "\n>"
	}
	return true
}

func (s *memStream) SerialOutput() string {
	return s.reply
}

func TestFlashHelperWriteWordAndFlush(t *testing.T) {
	stream := newMemStream()
	h := host.NewFlashHelper(stream)

	require.NoError(t, h.WriteWord(0x80000, 0xDEADBEEF))
	require.NoError(t, h.Flush())
	require.Equal(t, uint32(0xDEADBEEF), stream.mem[0x80000])
}

func TestFlashHelperRejectsAddressOutsideFlash(t *testing.T) {
	stream := newMemStream()
	h := host.NewFlashHelper(stream)
	require.Error(t, h.WriteWord(0x20000000, 0))
}

func TestFlashHelperFlashPseudoCommandFlushes(t *testing.T) {
	stream := newMemStream()
	h := host.NewFlashHelper(stream)
	require.NoError(t, h.WriteWord(0x80004, 0x12345678))
	require.True(t, h.Write("flash#"))
	require.Equal(t, uint32(0x12345678), stream.mem[0x80004])
}

func TestFlashHelperExitStopsHelper(t *testing.T) {
	stream := newMemStream()
	h := host.NewFlashHelper(stream)
	require.False(t, h.Write("exit#"))
}
