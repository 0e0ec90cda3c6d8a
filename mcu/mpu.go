package mcu

// MPU models just enough of the Memory Protection Unit for spec §4.3.10:
// a handful of region descriptors plus an enable bit, with enforcement
// at every bus access wired in but switched off by default (the
// specification only requires reporting a fault when enforcement is
// turned on, not emulating the full region-attribute model).
type MPU struct {
	ctrl    uint32
	rnr     uint32
	regions [8]mpuRegion
}

type mpuRegion struct {
	base    uint32
	sizeLog2 uint32
	enabled bool
	readOnly bool
}

const (
	mpuTYPE = MPUStart + 0x00
	mpuCTRL = MPUStart + 0x04
	mpuRNR  = MPUStart + 0x08
	mpuRBAR = MPUStart + 0x0C
	mpuRASR = MPUStart + 0x10

	mpuEnableBit = 1 << 0
)

func NewMPU() *MPU {
	return &MPU{}
}

func (m *MPU) Contains(addr uint32) bool {
	return addr >= MPUStart && addr < MPUStart+MPUSize
}

func (m *MPU) Get32(addr uint32) (uint32, error) {
	switch addr {
	case mpuTYPE:
		return uint32(len(m.regions)) << 8, nil
	case mpuCTRL:
		return m.ctrl, nil
	case mpuRNR:
		return m.rnr, nil
	case mpuRBAR:
		r := m.regions[m.rnr%uint32(len(m.regions))]
		return r.base, nil
	case mpuRASR:
		r := m.regions[m.rnr%uint32(len(m.regions))]
		return mpuPackRASR(r), nil
	default:
		return 0, newFault(FaultUnsupportedRegister, addr, "MPU")
	}
}

func (m *MPU) Set32(addr uint32, value uint32) error {
	switch addr {
	case mpuCTRL:
		m.ctrl = value
	case mpuRNR:
		m.rnr = value % uint32(len(m.regions))
	case mpuRBAR:
		idx := m.rnr % uint32(len(m.regions))
		m.regions[idx].base = value &^ 0x1F
	case mpuRASR:
		idx := m.rnr % uint32(len(m.regions))
		m.regions[idx] = mpuUnpackRASR(m.regions[idx].base, value)
	default:
		return newFault(FaultUnsupportedRegister, addr, "MPU")
	}
	return nil
}

func mpuPackRASR(r mpuRegion) uint32 {
	v := r.sizeLog2 << 1
	if r.enabled {
		v |= 1
	}
	if r.readOnly {
		v |= 1 << 24 // AP field, simplified to a single read-only bit
	}
	return v
}

func mpuUnpackRASR(base uint32, value uint32) mpuRegion {
	return mpuRegion{
		base:     base,
		sizeLog2: (value >> 1) & 0x1F,
		enabled:  value&1 != 0,
		readOnly: value&(1<<24) != 0,
	}
}

// Enforced reports whether MPU enforcement is switched on.
func (m *MPU) Enforced() bool {
	return m.ctrl&mpuEnableBit != 0
}

// Allows reports whether addr may be accessed the given way. An address
// not covered by any enabled region is denied once enforcement is on,
// matching real MPU "background region" semantics for privileged-only
// background access would otherwise grant.
func (m *MPU) Allows(addr uint32, write bool) bool {
	for _, r := range m.regions {
		if !r.enabled {
			continue
		}
		size := uint32(1) << r.sizeLog2
		if addr >= r.base && addr < r.base+size {
			if write && r.readOnly {
				return false
			}
			return true
		}
	}
	return false
}

func (m *MPU) Reset() {
	m.ctrl = 0
	m.rnr = 0
	m.regions = [8]mpuRegion{}
}

// MPURegionSnapshot is the exported, gob-encodable form of one MPU region.
type MPURegionSnapshot struct {
	Base     uint32
	SizeLog2 uint32
	Enabled  bool
	ReadOnly bool
}

// MPUSnapshot is the exported, gob-encodable form of MPU state (spec §6
// checkpoint/restore).
type MPUSnapshot struct {
	CTRL    uint32
	RNR     uint32
	Regions [8]MPURegionSnapshot
}

func (m *MPU) Snapshot() MPUSnapshot {
	var s MPUSnapshot
	s.CTRL, s.RNR = m.ctrl, m.rnr
	for i, r := range m.regions {
		s.Regions[i] = MPURegionSnapshot{Base: r.base, SizeLog2: r.sizeLog2, Enabled: r.enabled, ReadOnly: r.readOnly}
	}
	return s
}

func (m *MPU) Restore(s MPUSnapshot) {
	m.ctrl, m.rnr = s.CTRL, s.RNR
	for i, r := range s.Regions {
		m.regions[i] = mpuRegion{base: r.Base, sizeLog2: r.SizeLog2, enabled: r.Enabled, readOnly: r.ReadOnly}
	}
}
