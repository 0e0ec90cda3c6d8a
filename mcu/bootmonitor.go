package mcu

import "fmt"

// bootCommand is the SAM-BA command letter currently selected.
type bootCommand int

const (
	bootCmdNone bootCommand = iota
	bootCmdGetVersion
	bootCmdReadByte
	bootCmdWriteByte
	bootCmdReadHalfWord
	bootCmdWriteHalfWord
	bootCmdReadWord
	bootCmdWriteWord
	bootCmdGo
)

// BootMonitor is the ROM-resident SAM-BA serial monitor (spec §4.6),
// grounded directly on original_source/emulator/src/boot.rs: a
// character-at-a-time parser accumulating hex digits into value, a
// comma latching value into address, and '#' executing the selected
// command against the bus.
type BootMonitor struct {
	command bootCommand
	address uint32
	value   uint32
	input   []byte
	output  []byte
}

func NewBootMonitor() *BootMonitor {
	return &BootMonitor{}
}

// ParseInput feeds newly received characters into the monitor. It
// returns (entryPoint, true) the moment a 'G' command is terminated by
// '#', at which point the caller should stop monitor processing and
// jump execution there (spec §4.6's "Go" command).
func (m *BootMonitor) ParseInput(bus *Bus, input string) (uint32, bool) {
	m.input = append(m.input, input...)

	parsed := 0
	entry, gone := uint32(0), false

loop:
	for _, c := range m.input {
		parsed++
		switch {
		case c == 'V':
			m.command = bootCmdGetVersion
		case c == 'o':
			m.command, m.value = bootCmdReadByte, 0
		case c == 'O':
			m.command, m.value = bootCmdWriteByte, 0
		case c == 'h':
			m.command, m.value = bootCmdReadHalfWord, 0
		case c == 'H':
			m.command, m.value = bootCmdWriteHalfWord, 0
		case c == 'w':
			m.command, m.value = bootCmdReadWord, 0
		case c == 'W':
			m.command, m.value = bootCmdWriteWord, 0
		case c == 'G':
			m.command, m.value = bootCmdGo, 0
		case c >= '0' && c <= '9':
			m.value = m.value<<4 | uint32(c-'0')
		case c >= 'A' && c <= 'F':
			m.value = m.value<<4 | uint32(c-'A'+10)
		case c >= 'a' && c <= 'f':
			m.value = m.value<<4 | uint32(c-'a'+10)
		case c == ',':
			m.address, m.value = m.value, 0
		case c == '#':
			if stop := m.execute(bus, &entry); stop {
				gone = true
				m.command = bootCmdNone
				break loop
			}
			m.command = bootCmdNone
		case c == '\n' || c == '\r':
			// ignored
		default:
			m.command = bootCmdNone
		}
	}

	m.input = m.input[parsed:]
	return entry, gone
}

func (m *BootMonitor) execute(bus *Bus, entry *uint32) bool {
	switch m.command {
	case bootCmdGetVersion:
		m.output = append(m.output, "v1.1 Dec 15 2010 19:25:04\n>"...)
	case bootCmdReadByte:
		v, err := bus.Get8(m.address)
		if err != nil {
			m.output = append(m.output, "\n>"...)
			return false
		}
		m.output = append(m.output, fmt.Sprintf("0x%02X\n>", v)...)
	case bootCmdWriteByte:
		_ = bus.Set8(m.address, byte(m.value))
		m.output = append(m.output, "\n>"...)
	case bootCmdReadHalfWord:
		v, err := bus.Get16(m.address)
		if err != nil {
			m.output = append(m.output, "\n>"...)
			return false
		}
		m.output = append(m.output, fmt.Sprintf("0x%04X\n>", v)...)
	case bootCmdWriteHalfWord:
		_ = bus.Set16(m.address, uint16(m.value))
		m.output = append(m.output, "\n>"...)
	case bootCmdReadWord:
		v, err := bus.Get32(m.address)
		if err != nil {
			m.output = append(m.output, "\n>"...)
			return false
		}
		m.output = append(m.output, fmt.Sprintf("0x%08X\n>", v)...)
	case bootCmdWriteWord:
		_ = bus.Set32(m.address, m.value)
		m.output = append(m.output, "\n>"...)
	case bootCmdGo:
		*entry = m.value
		return true
	case bootCmdNone:
		m.output = append(m.output, "\n>"...)
	}
	return false
}

// WritePrompt appends a bare prompt, used once on ROM boot entry.
func (m *BootMonitor) WritePrompt() {
	m.output = append(m.output, "\n>"...)
}

// TakeOutput drains and returns everything queued for transmission
// since the last call.
func (m *BootMonitor) TakeOutput() string {
	s := string(m.output)
	m.output = m.output[:0]
	return s
}

func (m *BootMonitor) Reset() {
	*m = BootMonitor{}
}
