package mcu

// USART0 is the Universal Synchronous Asynchronous Receiver Transmitter
// (spec §4.3.6), receiver side only, grounded directly on
// original_source/emulator/src/usart.rs.
type USART0 struct {
	mode             uint32
	interruptMask    uint32
	channelStatus    uint32
	receiverEnabled  bool
	receiveHolding   uint32
	transmitterEnabled bool
	transmitHolding  uint32
}

const (
	usartCR  = USART0Start + 0x00
	usartMR  = USART0Start + 0x04
	usartIER = USART0Start + 0x08
	usartIDR = USART0Start + 0x0C
	usartIMR = USART0Start + 0x10
	usartCSR = USART0Start + 0x14
	usartRHR = USART0Start + 0x18
	usartTHR = USART0Start + 0x1C

	usartResetReceiver    = 1 << 2
	usartResetTransmitter = 1 << 3
	usartReceiverEnable   = 1 << 4
	usartReceiverDisable  = 1 << 5
	usartTransmitterEnable  = 1 << 6
	usartTransmitterDisable = 1 << 7
	usartResetStatus        = 1 << 8
	usartSupportedControlBits = usartResetReceiver | usartResetTransmitter |
		usartReceiverEnable | usartReceiverDisable |
		usartTransmitterEnable | usartTransmitterDisable | usartResetStatus
	usartControlBits = 0x3CFFFC

	usartModeBits = ^uint32(1 << 27)

	usartReceiverReadyInterrupt = 1

	usartReceiverReady   = 1 << 0
	usartTransmitterReady = 1 << 1
	usartOverrunError     = 1 << 5
	usartResetBits        = 0b00111111000000001110010011100100

	usartPeripheralID = 17
)

func NewUSART0() *USART0 {
	return &USART0{}
}

func (u *USART0) Contains(addr uint32) bool {
	return addr >= USART0Start && addr < USART0Start+USART0Size
}

func (u *USART0) Get32(addr uint32) (uint32, error) {
	switch addr {
	case usartCR:
		return 0, nil
	case usartMR:
		return u.mode, nil
	case usartIER, usartIDR:
		return 0, nil
	case usartIMR:
		return u.interruptMask, nil
	case usartCSR:
		return u.channelStatus, nil
	case usartRHR:
		result := u.receiveHolding
		u.channelStatus &^= usartReceiverReady
		u.receiveHolding = 0
		return result, nil
	case usartTHR:
		return 0, nil
	default:
		return 0, newFault(FaultUnsupportedRegister, addr, "USART0")
	}
}

func (u *USART0) Set32(addr uint32, value uint32) error {
	switch addr {
	case usartCR:
		if value&usartSupportedControlBits != value&usartControlBits {
			return newFault(FaultWritePrecondition, addr, "unsupported USART control bits")
		}
		if value&usartResetReceiver != 0 {
			u.receiveHolding = 0
			u.channelStatus &^= usartReceiverReady
		}
		if value&usartResetTransmitter != 0 {
			u.transmitHolding = 0
			u.channelStatus &^= usartTransmitterReady
		}
		if value&usartReceiverDisable != 0 {
			u.receiverEnabled = false
		} else if value&usartReceiverEnable != 0 {
			u.receiverEnabled = true
		}
		if value&usartTransmitterDisable != 0 {
			u.transmitterEnabled = false
		} else if value&usartTransmitterEnable != 0 {
			u.transmitterEnabled = true
		}
		if value&usartResetStatus != 0 {
			u.channelStatus &^= usartResetBits
		}
	case usartMR:
		u.mode = value & usartModeBits
	case usartIER:
		if value&^uint32(usartReceiverReadyInterrupt) != 0 {
			return newFault(FaultWritePrecondition, addr, "unsupported USART interrupt enable bits")
		}
		u.interruptMask |= value
	case usartIDR:
		u.interruptMask &^= value
	case usartIMR, usartCSR, usartRHR:
		// read-only
	case usartTHR:
		u.transmitHolding = value
	default:
		return newFault(FaultUnsupportedRegister, addr, "USART0")
	}
	return nil
}

// DataReceived delivers one byte to the receive holding register,
// subject to the receiver being enabled and the mode register matching
// requiredModeMask/requiredMode (spec §4.3.6's host-injected receive
// path, driven by an attached keyboard or similar source).
func (u *USART0) DataReceived(character uint32, requiredModeMask, requiredMode uint32) {
	if !u.receiverEnabled || u.mode&requiredModeMask != requiredMode {
		return
	}
	u.receiveHolding = character & 0xFF
	if u.channelStatus&usartReceiverReady != 0 {
		u.channelStatus |= usartOverrunError
	} else {
		u.channelStatus |= usartReceiverReady
	}
}

// LevelInterrupts returns the USART0 bit of the NVIC level-interrupt
// vector (spec §4.7 step 2).
func (u *USART0) LevelInterrupts() uint32 {
	if u.channelStatus&usartReceiverReady != 0 {
		return 1 << usartPeripheralID
	}
	return 0
}

func (u *USART0) Reset() {
	*u = USART0{}
}

// USART0Snapshot is the exported, gob-encodable form of USART0 state (spec
// §6 checkpoint/restore).
type USART0Snapshot struct {
	Mode, InterruptMask, ChannelStatus       uint32
	ReceiverEnabled, TransmitterEnabled      bool
	ReceiveHolding, TransmitHolding          uint32
}

func (u *USART0) Snapshot() USART0Snapshot {
	return USART0Snapshot{
		Mode: u.mode, InterruptMask: u.interruptMask, ChannelStatus: u.channelStatus,
		ReceiverEnabled: u.receiverEnabled, TransmitterEnabled: u.transmitterEnabled,
		ReceiveHolding: u.receiveHolding, TransmitHolding: u.transmitHolding,
	}
}

func (u *USART0) Restore(s USART0Snapshot) {
	u.mode, u.interruptMask, u.channelStatus = s.Mode, s.InterruptMask, s.ChannelStatus
	u.receiverEnabled, u.transmitterEnabled = s.ReceiverEnabled, s.TransmitterEnabled
	u.receiveHolding, u.transmitHolding = s.ReceiveHolding, s.TransmitHolding
}
