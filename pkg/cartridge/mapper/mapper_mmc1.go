package mapper

// mmc1 implements mapper 1 (MMC1/SxROM): a 5-bit serial shift register
// loaded one bit per write to $8000-$FFFF, committed to one of four
// internal registers (selected by address bits 13-14) on the 5th write.
// A write landing on the same or the very next CPU cycle as the previous
// accepted write (as produced by a read-modify-write instruction targeting
// $8000-$FFFF) is suppressed, matching real hardware's write-inhibit
// behavior.
type mmc1 struct {
	prg []uint8
	chr []uint8 // ROM or RAM, indistinguishable once sized
	ram []uint8
	chrIsRAM bool

	shift      uint8
	shiftCount uint8

	control uint8 // bit0-1 mirroring, bit2-3 PRG mode, bit4 CHR mode
	chrBank0 uint8
	chrBank1 uint8
	prgBank  uint8

	lastWriteCycle uint64
	haveLastCycle  bool
	pendingCycle   uint64
	havePending    bool
}

func newMMC1(data *Data) *mmc1 {
	m := &mmc1{
		prg: data.PRGROM,
		ram: data.PRGRAM,
	}
	if len(data.CHRROM) > 0 {
		m.chr = data.CHRROM
	} else {
		m.chr = chrRAMIfNeeded(data)
		m.chrIsRAM = true
	}
	m.control = 0x0C
	m.shiftReset()
	return m
}

func (m *mmc1) shiftReset() {
	m.shift = 0
	m.shiftCount = 0
}

// NotifyCPUCycle lets the bus tell cycle-sensitive mappers the current
// total CPU cycle count immediately before a write is dispatched, used
// here to suppress the second of two writes on the same or adjacent
// cycles (the dummy write and real write of a read-modify-write
// instruction targeting $8000-$FFFF).
func (m *mmc1) NotifyCPUCycle(cycle uint64) {
	m.pendingCycle = cycle
	m.havePending = true
}

func (m *mmc1) WritePRG(addr uint16, value uint8) {
	if addr < 0x8000 {
		if addr >= 0x6000 && len(m.ram) > 0 {
			m.ram[int(addr-0x6000)%len(m.ram)] = value
		}
		return
	}

	if m.havePending {
		if m.haveLastCycle && m.pendingCycle <= m.lastWriteCycle+1 {
			return
		}
		m.lastWriteCycle = m.pendingCycle
		m.haveLastCycle = true
	}

	if value&0x80 != 0 {
		m.shiftReset()
		m.control |= 0x0C
		return
	}

	m.shift = (m.shift >> 1) | ((value & 1) << 4)
	m.shiftCount++

	if m.shiftCount == 5 {
		reg := m.shift
		switch {
		case addr < 0xA000:
			m.control = reg
		case addr < 0xC000:
			m.chrBank0 = reg
		case addr < 0xE000:
			m.chrBank1 = reg
		default:
			m.prgBank = reg
		}
		m.shiftReset()
	}
}

func (m *mmc1) prgBankMode() uint8 { return (m.control >> 2) & 3 }
func (m *mmc1) chrBankMode() uint8 { return (m.control >> 4) & 1 }

func (m *mmc1) ReadPRG(addr uint16) uint8 {
	if addr < 0x6000 {
		return 0
	}
	if addr < 0x8000 {
		if len(m.ram) == 0 {
			return 0
		}
		return m.ram[int(addr-0x6000)%len(m.ram)]
	}

	bankCount16k := len(m.prg) / 0x4000
	bank := int(m.prgBank & 0x0F)

	var lo, hi int
	switch m.prgBankMode() {
	case 0, 1:
		// 32 KiB switch, ignore low bit of bank select.
		base := (bank &^ 1) * 0x4000
		return m.prg[(base+int(addr-0x8000))%len(m.prg)]
	case 2:
		lo, hi = 0, bank
	default: // 3
		lo, hi = bank, bankCount16k-1
	}

	if addr < 0xC000 {
		off := lo*0x4000 + int(addr-0x8000)
		return m.prg[off%len(m.prg)]
	}
	off := hi*0x4000 + int(addr-0xC000)
	return m.prg[off%len(m.prg)]
}

func (m *mmc1) chrOffset(addr uint16) int {
	if m.chrBankMode() == 0 {
		// 8 KiB switch, ignore low bit of bank0.
		base := int(m.chrBank0&^1) * 0x1000
		return base + int(addr)
	}
	if addr < 0x1000 {
		return int(m.chrBank0)*0x1000 + int(addr)
	}
	return int(m.chrBank1)*0x1000 + int(addr-0x1000)
}

func (m *mmc1) ReadCHR(addr uint16) uint8 {
	if len(m.chr) == 0 {
		return 0
	}
	return m.chr[m.chrOffset(addr)%len(m.chr)]
}

func (m *mmc1) WriteCHR(addr uint16, value uint8) {
	if m.chrIsRAM && len(m.chr) > 0 {
		m.chr[m.chrOffset(addr)%len(m.chr)] = value
	}
}

func (m *mmc1) Mirroring() MirrorMode {
	switch m.control & 3 {
	case 0:
		return MirrorSingleLower
	case 1:
		return MirrorSingleUpper
	case 2:
		return MirrorVertical
	default:
		return MirrorHorizontal
	}
}

func (m *mmc1) NotifyA12(addr uint16) {}
func (m *mmc1) IRQPending() bool      { return false }
func (m *mmc1) ClearIRQ()             {}
