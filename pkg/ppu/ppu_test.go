package ppu

import (
	"testing"

	"github.com/nesquik/nescore/pkg/cartridge/mapper"
)

// fakeCartridge is a minimal Cartridge for PPU tests: flat CHR-RAM and a
// fixed mirroring mode, with NotifyA12 call counting for IRQ-clock tests.
type fakeCartridge struct {
	chr       [0x2000]uint8
	mirroring mapper.MirrorMode
	a12Calls  int
}

func (f *fakeCartridge) ReadCHR(addr uint16) uint8  { return f.chr[addr&0x1FFF] }
func (f *fakeCartridge) WriteCHR(addr uint16, v uint8) { f.chr[addr&0x1FFF] = v }
func (f *fakeCartridge) Mirroring() mapper.MirrorMode  { return f.mirroring }
func (f *fakeCartridge) NotifyA12(addr uint16)         { f.a12Calls++ }

func createTestPPU() *PPU {
	p := New()
	p.SetCartridge(&fakeCartridge{mirroring: mapper.MirrorHorizontal})
	p.Reset()
	return p
}

func TestPPUReset(t *testing.T) {
	p := createTestPPU()

	p.PPUCTRL = 0xFF
	p.PPUMASK = 0xFF
	p.PPUSTATUS = 0xFF
	p.Cycle = 100
	p.Scanline = 50

	p.Reset()

	if p.PPUCTRL != 0 {
		t.Errorf("expected PPUCTRL=0, got %02X", p.PPUCTRL)
	}
	if p.PPUMASK != 0 {
		t.Errorf("expected PPUMASK=0, got %02X", p.PPUMASK)
	}
	if p.PPUSTATUS != 0 {
		t.Errorf("expected PPUSTATUS=0, got %02X", p.PPUSTATUS)
	}
	if p.Cycle != 0 {
		t.Errorf("expected Cycle=0, got %d", p.Cycle)
	}
	if p.Scanline != -1 {
		t.Errorf("expected Scanline=-1 (pre-render), got %d", p.Scanline)
	}
}

func TestPaletteRegisterRoundTrip(t *testing.T) {
	p := createTestPPU()

	p.WriteRegister(0x2006, 0x3F)
	p.WriteRegister(0x2006, 0x00)
	p.WriteRegister(0x2007, 0x0F)

	p.WriteRegister(0x2006, 0x3F)
	p.WriteRegister(0x2006, 0x00)
	value := p.ReadRegister(0x2007, 0x00)

	if value != 0x0F {
		t.Errorf("expected palette value 0x0F, got %02X", value)
	}
}

func TestPaletteBackdropMirroring(t *testing.T) {
	p := createTestPPU()

	p.WriteRegister(0x2006, 0x3F)
	p.WriteRegister(0x2006, 0x00)
	p.WriteRegister(0x2007, 0x20)

	p.WriteRegister(0x2006, 0x3F)
	p.WriteRegister(0x2006, 0x10)
	value := p.ReadRegister(0x2007, 0x00)

	if value != 0x20 {
		t.Errorf("expected mirrored palette value 0x20, got %02X", value)
	}
}

func TestPPUSTATUSReadClearsVBlankAndWriteToggle(t *testing.T) {
	p := createTestPPU()

	p.PPUSTATUS |= PPUSTATUSVBlank
	p.w = true

	status := p.ReadRegister(0x2002, 0x00)
	if status&PPUSTATUSVBlank == 0 {
		t.Error("expected VBlank flag set in the value returned by the read")
	}
	if p.PPUSTATUS&PPUSTATUSVBlank != 0 {
		t.Error("expected VBlank flag cleared as a side effect of reading $2002")
	}
	if p.w {
		t.Error("expected write toggle cleared as a side effect of reading $2002")
	}
}

func TestPPUSTATUSUndefinedBitsReflectOpenBus(t *testing.T) {
	p := createTestPPU()
	p.PPUSTATUS |= PPUSTATUSVBlank

	status := p.ReadRegister(0x2002, 0x17)
	if status&0x1F != 0x17 {
		t.Errorf("expected low 5 bits to echo open bus 0x17, got %02X", status&0x1F)
	}
	if status&0xE0 != PPUSTATUSVBlank {
		t.Errorf("expected top 3 bits to reflect real status, got %02X", status&0xE0)
	}
}

func TestWriteOnlyRegistersReturnOpenBus(t *testing.T) {
	p := createTestPPU()

	for _, addr := range []uint16{0x2000, 0x2001, 0x2003, 0x2005, 0x2006} {
		if value := p.ReadRegister(addr, 0xA5); value != 0xA5 {
			t.Errorf("expected $%04X read to return open bus 0xA5, got %02X", addr, value)
		}
	}
}

func TestOAMWriteAutoIncrementsOAMADDR(t *testing.T) {
	p := createTestPPU()

	p.WriteRegister(0x2003, 0x10) // OAMADDR

	p.WriteRegister(0x2004, 0x50) // Y
	p.WriteRegister(0x2004, 0x01) // tile
	p.WriteRegister(0x2004, 0x02) // attr
	p.WriteRegister(0x2004, 0x60) // X

	if p.OAM[0x10] != 0x50 {
		t.Errorf("expected OAM[0x10]=0x50, got %02X", p.OAM[0x10])
	}
	if p.OAM[0x11] != 0x01 {
		t.Errorf("expected OAM[0x11]=0x01, got %02X", p.OAM[0x11])
	}
	if p.OAM[0x12] != 0x02 {
		t.Errorf("expected OAM[0x12]=0x02, got %02X", p.OAM[0x12])
	}
	if p.OAM[0x13] != 0x60 {
		t.Errorf("expected OAM[0x13]=0x60, got %02X", p.OAM[0x13])
	}
	if p.OAMADDR != 0x14 {
		t.Errorf("expected OAMADDR=0x14, got %02X", p.OAMADDR)
	}
}

func TestWriteOAMByteUsedByDMA(t *testing.T) {
	p := createTestPPU()
	p.OAMADDR = 0xFF

	p.WriteOAMByte(0xAB)

	if p.OAM[0xFF] != 0xAB {
		t.Errorf("expected OAM[0xFF]=0xAB, got %02X", p.OAM[0xFF])
	}
	if p.OAMADDR != 0 {
		t.Errorf("expected OAMADDR to wrap to 0, got %02X", p.OAMADDR)
	}
}

// TestFrameTiming ticks a full frame with rendering disabled (so the
// 341x262 grid is perfectly regular) and checks VBlank set/clear timing
// and the Frame/FrameComplete bookkeeping.
func TestFrameTiming(t *testing.T) {
	p := createTestPPU()

	// Tick processes the dot at (Scanline, Cycle) and then advances, so
	// stop once the position has moved past dot (241, 1).
	for !(p.Scanline == 241 && p.Cycle == 2) {
		p.Tick()
	}
	if p.PPUSTATUS&PPUSTATUSVBlank == 0 {
		t.Error("expected VBlank flag set at scanline 241, cycle 1")
	}

	for !p.FrameComplete {
		p.Tick()
	}
	if p.Frame != 1 {
		t.Errorf("expected Frame=1 after one full frame, got %d", p.Frame)
	}
	if p.Scanline != -1 || p.Cycle != 0 {
		t.Errorf("expected wraparound to scanline -1 cycle 0, got scanline=%d cycle=%d", p.Scanline, p.Cycle)
	}
}

// TestVBlankClearedAtPreRenderLine checks the pre-render line's flag
// clear (VBlank, sprite 0 hit, overflow) at cycle 1.
func TestVBlankClearedAtPreRenderLine(t *testing.T) {
	p := createTestPPU()
	p.PPUSTATUS = PPUSTATUSVBlank | PPUSTATUSSprite0Hit | PPUSTATUSOverflow
	p.Scanline, p.Cycle = -1, 0

	p.Tick() // processes dot 0
	p.Tick() // processes dot 1

	if p.PPUSTATUS != 0 {
		t.Errorf("expected all three status flags cleared at pre-render cycle 1, got %02X", p.PPUSTATUS)
	}
}

func TestNMILineTracksVBlankAndNMIEnable(t *testing.T) {
	p := createTestPPU()

	if p.NMILine() {
		t.Error("expected NMI line low before VBlank")
	}

	p.WriteRegister(0x2000, PPUCTRLNMIEnable)
	p.nmiOccurred = true
	if !p.NMILine() {
		t.Error("expected NMI line high once VBlank occurred and NMI is enabled")
	}

	p.WriteRegister(0x2000, 0)
	if p.NMILine() {
		t.Error("expected NMI line low once NMI generation is disabled")
	}
}

func TestVRAMAddressIncrementModes(t *testing.T) {
	p := createTestPPU()

	p.WriteRegister(0x2006, 0x20)
	p.WriteRegister(0x2006, 0x00)
	p.WriteRegister(0x2007, 0xAA)
	if p.v != 0x2001 {
		t.Errorf("expected VRAM address 0x2001 after +1 increment, got %04X", p.v)
	}

	p.PPUCTRL |= PPUCTRLIncrement
	p.WriteRegister(0x2006, 0x20)
	p.WriteRegister(0x2006, 0x00)
	p.WriteRegister(0x2007, 0xBB)
	if p.v != 0x2020 {
		t.Errorf("expected VRAM address 0x2020 after +32 increment, got %04X", p.v)
	}
}

func TestScrollRegisterWrites(t *testing.T) {
	p := createTestPPU()

	p.WriteRegister(0x2005, 0x08) // X scroll
	if p.x != 0 {
		t.Errorf("expected fine X=0, got %d", p.x)
	}
	if !p.w {
		t.Error("expected write toggle set after first $2005 write")
	}

	p.WriteRegister(0x2005, 0x10) // Y scroll
	if p.w {
		t.Error("expected write toggle cleared after second $2005 write")
	}
}

func TestWarmupDelaySuppressesFirstVBlank(t *testing.T) {
	p := New()
	p.SetCartridge(&fakeCartridge{mirroring: mapper.MirrorHorizontal})
	p.WarmupDelay = true
	p.Reset()

	for !(p.Scanline == 241 && p.Cycle == 2) {
		p.Tick()
	}
	if p.PPUSTATUS&PPUSTATUSVBlank != 0 {
		t.Error("expected first post-reset VBlank to be suppressed during warmup")
	}

	for !p.FrameComplete {
		p.Tick()
	}
	p.FrameComplete = false
	for !(p.Scanline == 241 && p.Cycle == 2) {
		p.Tick()
	}
	if p.PPUSTATUS&PPUSTATUSVBlank == 0 {
		t.Error("expected VBlank to fire normally once the warmup window has elapsed")
	}
}

func TestNameTableMirroringHorizontal(t *testing.T) {
	p := createTestPPU()
	p.writeNameTable(0x2000, 0x11) // bank 0
	p.writeNameTable(0x2400, 0x22) // bank 0 (horizontal mirror)
	p.writeNameTable(0x2800, 0x33) // bank 1

	if got := p.readNameTable(0x2400); got != 0x22 {
		t.Errorf("expected $2400 to read back its own write under horizontal mirroring, got %02X", got)
	}
	if got := p.readNameTable(0x2000); got != 0x22 {
		t.Errorf("expected $2000 and $2400 to share a nametable bank under horizontal mirroring, got %02X", got)
	}
	if got := p.readNameTable(0x2800); got != 0x33 {
		t.Errorf("expected $2800 in a distinct bank from $2000, got %02X", got)
	}
}

func TestCHRReadWriteNotifiesA12(t *testing.T) {
	p := createTestPPU()
	cart := p.Cartridge.(*fakeCartridge)

	p.writeVRAM(0x0010, 0x99)
	if cart.a12Calls == 0 {
		t.Error("expected CHR write to notify the cartridge's A12 line")
	}
	calls := cart.a12Calls
	if got := p.readVRAM(0x0010); got != 0x99 {
		t.Errorf("expected CHR read to see the value just written, got %02X", got)
	}
	if cart.a12Calls <= calls {
		t.Error("expected CHR read to also notify the cartridge's A12 line")
	}
}
