package mapper

// axrom implements mapper 7: a single switchable 32 KiB PRG bank selected
// by bits 0-2 of any write to $8000-$FFFF, plus single-screen mirroring
// selected by bit 4 of the same write (lower/upper nametable). CHR is
// always 8 KiB RAM.
type axrom struct {
	prg    []uint8
	chr    []uint8
	bank   uint8
	mirror MirrorMode
}

func newAxROM(data *Data) *axrom {
	return &axrom{
		prg:    data.PRGROM,
		chr:    chrRAMIfNeeded(data),
		mirror: MirrorSingleLower,
	}
}

func (m *axrom) ReadPRG(addr uint16) uint8 {
	if addr < 0x8000 {
		return 0
	}
	off := int(m.bank&0x07)*0x8000 + int(addr-0x8000)
	return m.prg[off%len(m.prg)]
}

func (m *axrom) WritePRG(addr uint16, value uint8) {
	if addr < 0x8000 {
		return
	}
	m.bank = value & 0x07
	if value&0x10 != 0 {
		m.mirror = MirrorSingleUpper
	} else {
		m.mirror = MirrorSingleLower
	}
}

func (m *axrom) ReadCHR(addr uint16) uint8 {
	if len(m.chr) == 0 {
		return 0
	}
	return m.chr[int(addr)%len(m.chr)]
}

func (m *axrom) WriteCHR(addr uint16, value uint8) {
	if len(m.chr) > 0 {
		m.chr[int(addr)%len(m.chr)] = value
	}
}

func (m *axrom) Mirroring() MirrorMode { return m.mirror }
func (m *axrom) NotifyA12(addr uint16) {}
func (m *axrom) IRQPending() bool      { return false }
func (m *axrom) ClearIRQ()             {}
