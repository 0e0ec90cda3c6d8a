package mcu

// SPIDevice is an external device attached to SPI0's single supported
// chip select (spec's SPI device contract, §6): Receive is called at
// most once per TDR write and may return a reply word.
type SPIDevice interface {
	Receive(data uint32, chipSelect uint32) (reply uint32, ok bool)
}

// NullSPIDevice never replies; it is the default attached device.
type NullSPIDevice struct{}

func (NullSPIDevice) Receive(uint32, uint32) (uint32, bool) { return 0, false }

// SPI0 is the SPI controller, master mode only, fixed peripheral
// select, chip 0 only (spec §4.3.5), grounded directly on
// original_source/emulator/src/spi.rs.
type SPI0 struct {
	mode         uint32
	receivedData uint32
	status       uint32
	chipSelect0  uint32
	device       SPIDevice
}

const (
	spiCR   = SPI0Start + 0x00
	spiMR   = SPI0Start + 0x04
	spiRDR  = SPI0Start + 0x08
	spiTDR  = SPI0Start + 0x0C
	spiSR   = SPI0Start + 0x10
	spiCSR0 = SPI0Start + 0x30

	spiEnable        = 0x01
	spiDisable       = 0x02
	spiSoftwareReset = 0x80

	spiMasterSlaveMode      = 0x01
	spiPeripheralSelect     = 0x02
	spiChipSelectDecode     = 0x04
	spiPeripheralChipSelect = 0xF0000
	spiModeBits             = 0xFF0F00B7

	spiRDRFull  = 0x01
	spiTDREmpty = 0x02
	spiOverrun  = 0x08
	spiEnableStatus = 0x10000
)

func NewSPI0() *SPI0 {
	return &SPI0{device: NullSPIDevice{}}
}

// AttachDevice installs the device wired to this controller's chip 0.
func (s *SPI0) AttachDevice(d SPIDevice) {
	s.device = d
}

func (s *SPI0) Contains(addr uint32) bool {
	return addr >= SPI0Start && addr < SPI0Start+SPI0Size
}

func (s *SPI0) Get32(addr uint32) (uint32, error) {
	switch addr {
	case spiCR:
		return 0, nil
	case spiMR:
		return s.mode, nil
	case spiRDR:
		s.status &^= spiRDRFull
		return s.receivedData, nil
	case spiTDR:
		return 0, nil
	case spiSR:
		result := s.status
		s.status &^= spiOverrun
		return result, nil
	case spiCSR0:
		return s.chipSelect0, nil
	default:
		return 0, newFault(FaultUnsupportedRegister, addr, "SPI0")
	}
}

// Set32 requires the caller to resolve clockEnabled (PMC PCSR0 bit 24)
// and outputEnabled (PIO pin state) before calling, matching spec
// §4.3.5's gating conditions on the TDR write.
func (s *SPI0) Set32(addr uint32, value uint32, clockEnabled, outputEnabled bool) error {
	switch addr {
	case spiCR:
		if value&spiDisable != 0 {
			s.status = 0
		} else if value&spiEnable != 0 && clockEnabled {
			s.status |= spiEnableStatus | spiTDREmpty
		}
		if value&spiSoftwareReset != 0 {
			s.Reset()
		}
	case spiMR:
		if value&(spiPeripheralSelect|spiChipSelectDecode|spiPeripheralChipSelect) != 0 {
			return newFault(FaultWritePrecondition, addr, "unsupported SPI mode bits")
		}
		s.mode = value & spiModeBits
	case spiRDR:
		// read-only
	case spiTDR:
		if !(outputEnabled && s.status&spiEnableStatus != 0 && s.mode&spiMasterSlaveMode != 0) {
			return nil
		}
		if reply, ok := s.device.Receive(value, s.chipSelect0); ok {
			s.receivedData = reply
			if s.status&spiRDRFull != 0 {
				s.status |= spiOverrun
			}
			s.status |= spiRDRFull
		}
	case spiSR:
		// read-only
	case spiCSR0:
		s.chipSelect0 = value
	default:
		return newFault(FaultUnsupportedRegister, addr, "SPI0")
	}
	return nil
}

func (s *SPI0) Reset() {
	s.mode = 0
	s.status = 0
	s.receivedData = 0
	s.chipSelect0 = 0
}

// SPI0Snapshot is the exported, gob-encodable form of SPI0 register state
// (spec §6 checkpoint/restore); the attached SPIDevice is host wiring and
// is not part of persisted state.
type SPI0Snapshot struct {
	Mode, ReceivedData, Status, ChipSelect0 uint32
}

func (s *SPI0) Snapshot() SPI0Snapshot {
	return SPI0Snapshot{Mode: s.mode, ReceivedData: s.receivedData, Status: s.status, ChipSelect0: s.chipSelect0}
}

func (s *SPI0) Restore(snap SPI0Snapshot) {
	s.mode, s.receivedData, s.status, s.chipSelect0 = snap.Mode, snap.ReceivedData, snap.Status, snap.ChipSelect0
}
