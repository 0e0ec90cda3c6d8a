package host_test

import (
	"testing"

	"github.com/lookbusy1344/sam3x-emulator/host"
	"github.com/stretchr/testify/require"
)

// fakeStream is a canned Stream double for exercising BootHelper and
// FlashHelper without a live mcu.Bus, keyed on the exact command text
// it was fed.
type fakeStream struct {
	replies map[string]string
	alive   bool
	last    string
}

func newFakeStream() *fakeStream {
	return &fakeStream{replies: make(map[string]string), alive: true}
}

func (s *fakeStream) SetSerialInput(command string) bool {
	s.last = command
	return s.alive
}

func (s *fakeStream) SerialOutput() string {
	return s.replies[s.last]
}

func TestBootHelperVersionCommand(t *testing.T) {
	stream := newFakeStream()
	stream.replies["V#"] = "\nv1.1 Dec 15 2010 19:25:04\n>"
	h := host.NewBootHelper(stream)

	require.True(t, h.Write("V#"))
	out := h.Read()
	require.Contains(t, out, "V#")
	require.Contains(t, out, "v1.1 Dec 15 2010 19:25:04")
}

func TestBootHelperExitStopsHelper(t *testing.T) {
	stream := newFakeStream()
	h := host.NewBootHelper(stream)
	require.False(t, h.Write("exit#"))
}

func TestBootHelperTerminalModeOmitsCommandLine(t *testing.T) {
	stream := newFakeStream()
	stream.replies["G#"] = "\n>"
	h := host.NewTerminalBootHelper(stream)
	require.True(t, h.Write("G#"))
	require.NotContains(t, h.Read(), "$ sam3x-emu")
}

func TestBootHelperNoResponseReportsError(t *testing.T) {
	stream := newFakeStream()
	stream.alive = false
	h := host.NewBootHelper(stream)
	require.False(t, h.Write("V#"))
	require.Contains(t, h.Read(), "ERROR")
}
