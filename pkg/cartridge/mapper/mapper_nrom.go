package mapper

// nrom implements mapper 0: 16 KiB PRG mirrored to fill $8000-$FFFF, or
// 32 KiB PRG mapped directly; CHR is either 8 KiB ROM or 8 KiB RAM. No
// bank switching.
type nrom struct {
	prg  []uint8
	chr  []uint8
	ram  []uint8
	mirror MirrorMode
	chrIsRAM bool
}

func newNROM(data *Data) *nrom {
	return &nrom{
		chrIsRAM: len(data.CHRROM) == 0,
		prg:    data.PRGROM,
		chr:    chrOrROM(data),
		ram:    data.PRGRAM,
		mirror: data.Mirroring,
	}
}

func chrOrROM(data *Data) []uint8 {
	if len(data.CHRROM) > 0 {
		return data.CHRROM
	}
	return chrRAMIfNeeded(data)
}

func (m *nrom) ReadPRG(addr uint16) uint8 {
	switch {
	case addr >= 0x8000:
		return m.prg[int(addr-0x8000)%len(m.prg)]
	case addr >= 0x6000:
		if len(m.ram) == 0 {
			return 0
		}
		return m.ram[int(addr-0x6000)%len(m.ram)]
	}
	return 0
}

func (m *nrom) WritePRG(addr uint16, value uint8) {
	if addr >= 0x6000 && addr < 0x8000 && len(m.ram) > 0 {
		m.ram[int(addr-0x6000)%len(m.ram)] = value
	}
}

func (m *nrom) ReadCHR(addr uint16) uint8 {
	if len(m.chr) == 0 {
		return 0
	}
	return m.chr[int(addr)%len(m.chr)]
}

func (m *nrom) WriteCHR(addr uint16, value uint8) {
	// Only meaningful when CHR is RAM; ROM writes are simply dropped.
	if m.chrIsRAM && len(m.chr) > 0 {
		m.chr[int(addr)%len(m.chr)] = value
	}
}

func (m *nrom) Mirroring() MirrorMode   { return m.mirror }
func (m *nrom) NotifyA12(addr uint16)   {}
func (m *nrom) IRQPending() bool        { return false }
func (m *nrom) ClearIRQ()               {}
