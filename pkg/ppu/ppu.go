// Package ppu implements the custom picture processing unit: a
// 341-dot-by-262-scanline state machine driving a background
// shift-register pipeline and per-scanline sprite evaluation, rather
// than fetching tile data on demand per output pixel.
package ppu

import (
	"github.com/nesquik/nescore/pkg/cartridge/mapper"
	"github.com/nesquik/nescore/pkg/logger"
)

// Cartridge is the subset of cartridge.Cartridge the PPU needs: pattern
// table access and the current mirroring mode, plus the A12 notch the
// CHR bus drives mappers with.
type Cartridge interface {
	ReadCHR(addr uint16) uint8
	WriteCHR(addr uint16, value uint8)
	Mirroring() mapper.MirrorMode
	NotifyA12(addr uint16)
}

// PPU is the picture processing unit.
type PPU struct {
	PPUCTRL   uint8
	PPUMASK   uint8
	PPUSTATUS uint8
	OAMADDR   uint8

	v, t uint16
	x    uint8
	w    bool

	nametables [4][1024]uint8
	OAM        [256]uint8

	FrameBuffer [256 * 240]uint32

	Cycle         int
	Scanline      int // -1 is the pre-render line
	Frame         uint64
	oddFrame      bool
	FrameComplete bool

	nmiOutput   bool
	nmiOccurred bool

	// warmupCycles counts down from ~1 frame's worth of PPU dots after
	// Reset when WarmupDelay is set, matching real hardware's power-on
	// quirk where the first VBlank flag/NMI after reset doesn't fire.
	WarmupDelay  bool
	warmupCycles int

	PaletteManager *PaletteManager
	Cartridge      Cartridge

	readBuffer uint8

	// Background fetch pipeline.
	bgShiftPatternLo, bgShiftPatternHi uint16
	bgShiftAttrLo, bgShiftAttrHi       uint16
	ntLatch, atLatch                   uint8
	bgLoLatch, bgHiLatch               uint8

	// Sprite evaluation/rendering for the scanline currently being drawn.
	matchedSprites   []int
	spriteCount      int
	spritePatternLo  [8]uint8
	spritePatternHi  [8]uint8
	spriteX          [8]uint8
	spriteAttr       [8]uint8
	spriteIsZero     [8]bool
	spriteZeroOnLine bool
	spriteOverflow   bool
}

// PPUCTRL flags
const (
	PPUCTRLNameTable   = 0x03
	PPUCTRLIncrement   = 0x04
	PPUCTRLSpriteTable = 0x08
	PPUCTRLBGTable     = 0x10
	PPUCTRLSpriteSize  = 0x20
	PPUCTRLMasterSlave = 0x40
	PPUCTRLNMIEnable   = 0x80
)

// PPUMASK flags
const (
	PPUMASKGreyscale      = 0x01
	PPUMASKBGLeft         = 0x02
	PPUMASKSpriteLeft     = 0x04
	PPUMASKBGShow         = 0x08
	PPUMASKSpriteShow     = 0x10
	PPUMASKRedEmphasize   = 0x20
	PPUMASKGreenEmphasize = 0x40
	PPUMASKBlueEmphasize  = 0x80
)

// PPUSTATUS flags
const (
	PPUSTATUSOverflow  = 0x20
	PPUSTATUSSprite0Hit = 0x40
	PPUSTATUSVBlank     = 0x80
)

// New creates a PPU with no cartridge attached; call SetCartridge before
// rendering.
func New() *PPU {
	return &PPU{PaletteManager: NewPaletteManager()}
}

// SetCartridge attaches the cartridge whose CHR/mirroring the PPU reads.
func (p *PPU) SetCartridge(cart Cartridge) { p.Cartridge = cart }

// Reset returns the PPU to its power-on-adjacent state.
func (p *PPU) Reset() {
	p.PPUCTRL = 0
	p.PPUMASK = 0
	p.PPUSTATUS = 0
	p.OAMADDR = 0
	p.v, p.t, p.x = 0, 0, 0
	p.w = false
	p.Cycle, p.Scanline = 0, -1
	p.FrameComplete = false
	if p.WarmupDelay {
		p.warmupCycles = 29658 * 3
	}
}

func (p *PPU) renderingEnabled() bool {
	return p.PPUMASK&(PPUMASKBGShow|PPUMASKSpriteShow) != 0
}

// NMILine reports the PPU's instantaneous NMI output: high exactly when
// VBlank is flagged and NMI generation is enabled.
func (p *PPU) NMILine() bool {
	return p.nmiOccurred && p.nmiOutput
}

// WriteOAMByte writes the next OAM byte during an OAM DMA transfer,
// auto-incrementing OAMADDR the way a real $2004 write does.
func (p *PPU) WriteOAMByte(value uint8) {
	p.OAM[p.OAMADDR] = value
	p.OAMADDR++
}

// Tick advances the PPU by exactly one dot.
func (p *PPU) Tick() {
	p.PaletteManager.SetEmphasis(p.PPUMASK & 0xE0)

	switch {
	case p.Scanline >= -1 && p.Scanline < 240:
		p.tickRenderLine()
	case p.Scanline == 241 && p.Cycle == 1:
		if p.warmupCycles == 0 {
			p.PPUSTATUS |= PPUSTATUSVBlank
			p.nmiOccurred = true
			logger.LogPPU("VBlank start at frame %d", p.Frame)
		}
	}

	if p.warmupCycles > 0 {
		p.warmupCycles--
	}

	p.Cycle++
	if p.Cycle > 340 {
		p.Cycle = 0
		p.Scanline++
		if p.Scanline > 260 {
			p.Scanline = -1
			p.Frame++
			p.oddFrame = !p.oddFrame
			p.FrameComplete = true
			if p.oddFrame && p.renderingEnabled() {
				// Skip the idle cycle of the pre-render line on odd frames.
				p.Cycle = 1
			}
		}
	}
}

func (p *PPU) tickRenderLine() {
	if p.Scanline == -1 && p.Cycle == 1 {
		p.PPUSTATUS &^= PPUSTATUSVBlank | PPUSTATUSSprite0Hit | PPUSTATUSOverflow
		p.nmiOccurred = false
	}

	visibleFetchCycle := (p.Cycle >= 1 && p.Cycle <= 256) || (p.Cycle >= 321 && p.Cycle <= 336)
	if p.renderingEnabled() && visibleFetchCycle {
		p.shiftBackgroundRegisters()
		p.runBackgroundFetch()
	}

	if p.renderingEnabled() {
		if p.Cycle == 256 {
			p.incrementY()
		}
		if p.Cycle == 257 {
			p.v = (p.v &^ 0x041F) | (p.t & 0x041F)
		}
		if p.Scanline == -1 && p.Cycle >= 280 && p.Cycle <= 304 {
			p.v = (p.v &^ 0x7BE0) | (p.t & 0x7BE0)
		}
	}

	if p.Cycle == 257 && p.Scanline >= 0 && p.Scanline < 240 {
		p.evaluateSprites()
	}
	if p.Cycle == 340 && p.Scanline >= -1 && p.Scanline < 239 {
		p.fetchSpritePatterns()
	}

	if p.Scanline >= 0 && p.Scanline < 240 && p.Cycle >= 1 && p.Cycle <= 256 {
		p.renderPixel(p.Cycle-1, p.Scanline)
	}
}

// runBackgroundFetch performs the 8-cycle nametable/attribute/pattern
// fetch cadence and reloads the shift registers at the start of each
// group, matching the real PPU's fetch ordering.
func (p *PPU) runBackgroundFetch() {
	switch p.Cycle % 8 {
	case 1:
		p.reloadShiftRegisters()
		p.ntLatch = p.fetchNameTableByte()
	case 3:
		p.atLatch = p.fetchAttributeByte()
	case 5:
		p.bgLoLatch = p.fetchPatternByte(false)
	case 7:
		p.bgHiLatch = p.fetchPatternByte(true)
	case 0:
		p.incrementCoarseX()
	}
}

func (p *PPU) reloadShiftRegisters() {
	p.bgShiftPatternLo = (p.bgShiftPatternLo &^ 0xFF) | uint16(p.bgLoLatch)
	p.bgShiftPatternHi = (p.bgShiftPatternHi &^ 0xFF) | uint16(p.bgHiLatch)

	var attrLo, attrHi uint8
	if p.atLatch&1 != 0 {
		attrLo = 0xFF
	}
	if p.atLatch&2 != 0 {
		attrHi = 0xFF
	}
	p.bgShiftAttrLo = (p.bgShiftAttrLo &^ 0xFF) | uint16(attrLo)
	p.bgShiftAttrHi = (p.bgShiftAttrHi &^ 0xFF) | uint16(attrHi)
}

func (p *PPU) shiftBackgroundRegisters() {
	p.bgShiftPatternLo <<= 1
	p.bgShiftPatternHi <<= 1
	p.bgShiftAttrLo <<= 1
	p.bgShiftAttrHi <<= 1
}

func (p *PPU) fetchNameTableByte() uint8 {
	addr := 0x2000 | (p.v & 0x0FFF)
	return p.readNameTable(addr)
}

func (p *PPU) fetchAttributeByte() uint8 {
	addr := 0x23C0 | (p.v & 0x0C00) | ((p.v >> 4) & 0x38) | ((p.v >> 2) & 0x07)
	raw := p.readNameTable(addr)
	shift := ((p.v >> 4) & 4) | (p.v & 2)
	return (raw >> shift) & 0x03
}

func (p *PPU) fetchPatternByte(high bool) uint8 {
	fineY := (p.v >> 12) & 0x07
	table := uint16(p.PPUCTRL&PPUCTRLBGTable) << 8 // 0x0000 or 0x1000
	tile := uint16(p.ntLatch)
	addr := table | (tile << 4) | fineY
	if high {
		addr |= 8
	}
	return p.fetchCHR(addr)
}

func (p *PPU) incrementCoarseX() {
	if p.v&0x001F == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

func (p *PPU) incrementY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	y := (p.v & 0x03E0) >> 5
	switch y {
	case 29:
		y = 0
		p.v ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.v = (p.v &^ 0x03E0) | (y << 5)
}

func (p *PPU) fetchCHR(addr uint16) uint8 {
	if p.Cartridge == nil {
		return 0
	}
	p.Cartridge.NotifyA12(addr)
	return p.Cartridge.ReadCHR(addr)
}

// ReadRegister services a CPU read of $2000-$2007 (already folded to
// that range by the bus). openBus is the byte currently sitting on the
// shared data bus; every bit this register doesn't actually drive comes
// from openBus instead of a fixed value, matching real open-bus residue.
func (p *PPU) ReadRegister(addr uint16, openBus uint8) uint8 {
	switch addr {
	case 0x2002:
		value := (p.PPUSTATUS & 0xE0) | (openBus & 0x1F)
		p.PPUSTATUS &^= PPUSTATUSVBlank
		p.nmiOccurred = false
		p.w = false
		return value
	case 0x2004:
		return p.OAM[p.OAMADDR]
	case 0x2007:
		var value uint8
		if p.v >= 0x3F00 {
			value = (p.readVRAM(p.v) & 0x3F) | (openBus & 0xC0)
			p.readBuffer = p.readVRAM(p.v - 0x1000)
		} else {
			value = p.readBuffer
			p.readBuffer = p.readVRAM(p.v)
		}
		p.advanceVRAMAddr()
		return value
	default: // $2000, $2001, $2003, $2005, $2006: write-only, pure open bus
		return openBus
	}
}

// WriteRegister services a CPU write to $2000-$2007.
func (p *PPU) WriteRegister(addr uint16, value uint8) {
	switch addr {
	case 0x2000:
		p.PPUCTRL = value
		p.t = (p.t &^ 0x0C00) | ((uint16(value) & 0x03) << 10)
		p.nmiOutput = value&PPUCTRLNMIEnable != 0
	case 0x2001:
		p.PPUMASK = value
	case 0x2003:
		p.OAMADDR = value
	case 0x2004:
		p.OAM[p.OAMADDR] = value
		p.OAMADDR++
	case 0x2005:
		if !p.w {
			p.t = (p.t &^ 0x001F) | (uint16(value) >> 3)
			p.x = value & 0x07
			p.w = true
		} else {
			p.t = (p.t &^ 0x7000) | ((uint16(value) & 0x07) << 12)
			p.t = (p.t &^ 0x03E0) | ((uint16(value) & 0xF8) << 2)
			p.w = false
		}
	case 0x2006:
		if !p.w {
			p.t = (p.t &^ 0x7F00) | ((uint16(value) & 0x3F) << 8)
			p.w = true
		} else {
			p.t = (p.t &^ 0x00FF) | uint16(value)
			p.v = p.t
			p.w = false
		}
	case 0x2007:
		p.writeVRAM(p.v, value)
		p.advanceVRAMAddr()
	}
}

func (p *PPU) advanceVRAMAddr() {
	if p.PPUCTRL&PPUCTRLIncrement != 0 {
		p.v += 32
	} else {
		p.v++
	}
}

func (p *PPU) readVRAM(addr uint16) uint8 {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		return p.fetchCHR(addr)
	case addr < 0x3F00:
		return p.readNameTable(addr)
	default:
		return p.PaletteManager.ReadPalette(uint8(addr & 0x1F))
	}
}

func (p *PPU) writeVRAM(addr uint16, value uint8) {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		if p.Cartridge != nil {
			p.Cartridge.NotifyA12(addr)
			p.Cartridge.WriteCHR(addr, value)
		}
	case addr < 0x3F00:
		p.writeNameTable(addr, value)
	default:
		p.PaletteManager.WritePalette(uint8(addr&0x1F), value)
	}
}

func (p *PPU) nametableBank(addr uint16) (int, uint16) {
	offset := (addr - 0x2000) & 0x0FFF
	slot := int(offset >> 10)
	mirror := mapper.MirrorHorizontal
	if p.Cartridge != nil {
		mirror = p.Cartridge.Mirroring()
	}
	return mirror.NametableIndex(slot), offset & 0x03FF
}

func (p *PPU) readNameTable(addr uint16) uint8 {
	bank, off := p.nametableBank(addr)
	return p.nametables[bank][off]
}

func (p *PPU) writeNameTable(addr uint16, value uint8) {
	bank, off := p.nametableBank(addr)
	p.nametables[bank][off] = value
}

// GetFramebuffer returns the current frame as packed RGBA8888 bytes.
func (p *PPU) GetFramebuffer() []uint8 {
	rgba := make([]uint8, 256*240*4)
	for i, pixel := range p.FrameBuffer {
		rgba[i*4+0] = uint8((pixel >> 16) & 0xFF)
		rgba[i*4+1] = uint8((pixel >> 8) & 0xFF)
		rgba[i*4+2] = uint8(pixel & 0xFF)
		rgba[i*4+3] = uint8((pixel >> 24) & 0xFF)
	}
	return rgba
}
