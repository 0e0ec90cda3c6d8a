package host

import (
	"errors"
	"strings"
)

// bootCommandLine is the synthetic shell line shown above the first
// prompt in non-terminal mode, standing in for
// original_source/scripts/src/boot_helper.rs's literal
// "user@host:~$ python3 boot_helper.py\n>" - the Rust original's own
// invocation line, restated for this CLI's own entry point rather than
// carried over verbatim (an Open Question decision, see DESIGN.md).
const bootCommandLine = "$ sam3x-emu boot\n>"

// BootHelper is a line-buffered driver for the boot monitor (spec
// §4.8), grounded directly on
// original_source/scripts/src/boot_helper.rs's write/read/run shape.
type BootHelper struct {
	stream   Stream
	terminal bool
	output   string
}

// NewBootHelper returns a non-terminal BootHelper (its output buffer
// includes the echoed command line and shell prompt).
func NewBootHelper(stream Stream) *BootHelper {
	return newBootHelper(stream, false)
}

// NewTerminalBootHelper returns a BootHelper whose output buffer holds
// only the device's replies, suited to driving an interactive console.
func NewTerminalBootHelper(stream Stream) *BootHelper {
	return newBootHelper(stream, true)
}

func newBootHelper(stream Stream, terminal bool) *BootHelper {
	h := &BootHelper{stream: stream, terminal: terminal}
	if !terminal {
		h.output = bootCommandLine
	}
	return h
}

// Write feeds commands through the USART and runs the device until
// each '#'-terminated fragment's reply is captured, splicing the
// monitor's prompt into the output buffer. "exit#" stops the helper and
// returns false; any other fragment keeps it running (true).
func (h *BootHelper) Write(commands string) bool {
	if !h.terminal {
		h.output += commands + "\n"
	}
	for _, command := range splitInclusive(commands, '#') {
		if strings.TrimSpace(command) == "exit#" {
			return false
		}
		result, replied, err := runCommand(h.stream, command)
		if err != nil {
			h.output += err.Error()
			return false
		}
		if replied {
			h.output += result + ">"
		}
	}
	return true
}

// Read drains and returns the portion of the output buffer ready for
// display, per readOutput's terminal/non-terminal rules.
func (h *BootHelper) Read() string {
	return readOutput(&h.output, h.terminal)
}

// runCommand writes one '#'-terminated (or not yet terminated) command
// fragment and, if it completed a command, returns the monitor's reply
// with the leading whitespace and trailing prompt character stripped.
func runCommand(stream Stream, command string) (string, bool, error) {
	if !stream.SetSerialInput(command) {
		return "", false, errors.New("ERROR: no response from device.\n")
	}
	if !strings.HasSuffix(command, "#") {
		return "", false, nil
	}
	output := stream.SerialOutput()
	trimmed := strings.TrimLeft(output, " \t\n")
	trimmed = strings.TrimSuffix(trimmed, ">")
	return trimmed, true, nil
}

// splitInclusive splits s on sep, keeping sep attached to the end of
// each piece except possibly the last (mirrors Rust's
// str::split_inclusive).
func splitInclusive(s string, sep byte) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			out = append(out, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// readOutput drains buf: in terminal mode the whole buffer is returned;
// otherwise a trailing "\n>" is held back (leaving the prompt in place
// for the next write), a trailing bare '\n' is dropped, and anything
// else is returned as-is.
func readOutput(buf *string, terminal bool) string {
	if terminal {
		result := *buf
		*buf = ""
		return result
	}
	switch {
	case strings.HasSuffix(*buf, "\n>"):
		result := (*buf)[:len(*buf)-2]
		*buf = ">"
		return result
	case strings.HasSuffix(*buf, "\n"):
		result := (*buf)[:len(*buf)-1]
		*buf = ""
		return result
	default:
		result := *buf
		*buf = ""
		return result
	}
}
