package mcu

import "fmt"

// FaultKind classifies a fatal engine fault (spec §7).
type FaultKind int

const (
	// FaultUnmappedAddress is an access to an address no bank or
	// peripheral claims.
	FaultUnmappedAddress FaultKind = iota
	// FaultUnsupportedRegister is an access to an address inside a
	// peripheral's declared range that the peripheral does not implement.
	FaultUnsupportedRegister
	// FaultWritePrecondition is a peripheral write that violates a
	// documented precondition (PMC PLLA bit 29, USART unsupported control
	// bit, SPI unsupported mode bits, ...).
	FaultWritePrecondition
	// FaultUnknownInstruction is a fetch of an Unknown or Unsupported
	// instruction.
	FaultUnknownInstruction
	// FaultMisaligned is a misaligned PC or SP.
	FaultMisaligned
)

func (k FaultKind) String() string {
	switch k {
	case FaultUnmappedAddress:
		return "unmapped address"
	case FaultUnsupportedRegister:
		return "unsupported register"
	case FaultWritePrecondition:
		return "write precondition violated"
	case FaultUnknownInstruction:
		return "unknown instruction"
	case FaultMisaligned:
		return "misaligned access"
	default:
		return "fault"
	}
}

// Fault is a fatal engine fault: the core never recovers from one. It
// carries the offending address/opcode so the host can report it.
type Fault struct {
	Kind    FaultKind
	Address uint32
	Opcode  uint32
	Detail  string
}

func (f *Fault) Error() string {
	if f.Detail != "" {
		return fmt.Sprintf("%s at 0x%08X: %s", f.Kind, f.Address, f.Detail)
	}
	return fmt.Sprintf("%s at 0x%08X (opcode 0x%08X)", f.Kind, f.Address, f.Opcode)
}

func newFault(kind FaultKind, address uint32, detail string) error {
	return &Fault{Kind: kind, Address: address, Detail: detail}
}
