package bus

import (
	"testing"

	"github.com/nesquik/nescore/pkg/cartridge"
	"github.com/nesquik/nescore/pkg/controller"
)

// fakePPU is a minimal stub satisfying the bus's PPU interface, letting
// tests control the NMI line and observe register/OAM traffic directly.
type fakePPU struct {
	regs        [8]uint8
	nmiLine     bool
	oam         []uint8
	ticks       int
	lastRead    uint16
	lastOpenBus uint8
}

func (p *fakePPU) ReadRegister(addr uint16, openBus uint8) uint8 {
	p.lastRead = addr
	p.lastOpenBus = openBus
	return p.regs[addr&7]
}
func (p *fakePPU) WriteRegister(addr uint16, value uint8) { p.regs[addr&7] = value }
func (p *fakePPU) Tick()                                  { p.ticks++ }
func (p *fakePPU) NMILine() bool                          { return p.nmiLine }
func (p *fakePPU) WriteOAMByte(value uint8)               { p.oam = append(p.oam, value) }

// fakeAPU is a minimal stub satisfying the bus's APU interface.
type fakeAPU struct {
	regs       map[uint16]uint8
	irq        bool
	dmcPending bool
	dmcAddr    uint16
	dmcValues  []uint8
	ticks      int
}

func newFakeAPU() *fakeAPU { return &fakeAPU{regs: map[uint16]uint8{}} }

func (a *fakeAPU) ReadRegister(addr uint16, openBus uint8) uint8 { return a.regs[addr] }
func (a *fakeAPU) WriteRegister(addr uint16, value uint8) { a.regs[addr] = value }
func (a *fakeAPU) Tick()                                  { a.ticks++ }
func (a *fakeAPU) IRQLine() bool                          { return a.irq }
func (a *fakeAPU) DMCDMARequest() (uint16, bool)          { return a.dmcAddr, a.dmcPending }
func (a *fakeAPU) DMCDMAComplete(value uint8) {
	a.dmcValues = append(a.dmcValues, value)
	a.dmcPending = false
}

func newTestBus() (*Bus, *fakePPU, *fakeAPU) {
	ppu := &fakePPU{}
	apu := newFakeAPU()
	b := New(ppu, apu, controller.NewSet())
	return b, ppu, apu
}

func TestRAMMirroring(t *testing.T) {
	b, _, _ := newTestBus()

	b.Write(0x0000, 0x42)
	for _, mirror := range []uint16{0x0800, 0x1000, 0x1800} {
		if v := b.Read(mirror); v != 0x42 {
			t.Errorf("expected RAM mirror at $%04X = 0x42, got 0x%02X", mirror, v)
		}
	}
}

func TestPPURegisterMirroring(t *testing.T) {
	b, ppu, _ := newTestBus()

	b.Write(0x2000, 0x80)
	if ppu.regs[0] != 0x80 {
		t.Errorf("expected PPUCTRL register to receive write, got 0x%02X", ppu.regs[0])
	}

	ppu.regs[0] = 0x80
	if v := b.Read(0x2008); v != 0x80 { // mirrors $2000 every 8 bytes
		t.Errorf("expected $2008 to mirror $2000, got 0x%02X", v)
	}
	if v := b.Read(0x3FF8); v != 0x80 {
		t.Errorf("expected $3FF8 to mirror $2000, got 0x%02X", v)
	}
}

func TestPPURegisterReadsCurrentOpenBus(t *testing.T) {
	b, ppu, _ := newTestBus()

	b.Write(0x4020, 0x37) // cartridge-less write: still latches open bus
	b.Read(0x2002)
	if ppu.lastOpenBus != 0x37 {
		t.Errorf("expected PPU.ReadRegister to receive open bus 0x37, got 0x%02X", ppu.lastOpenBus)
	}
}

func TestAPURegisterDispatch(t *testing.T) {
	b, _, apu := newTestBus()

	b.Write(0x4000, 0x3F)
	if apu.regs[0x4000] != 0x3F {
		t.Errorf("expected APU register $4000 to receive write, got 0x%02X", apu.regs[0x4000])
	}
}

func TestControllerStrobeAndRead(t *testing.T) {
	b, _, _ := newTestBus()

	b.Controllers.SetButton(0, controller.ButtonA, true)
	b.Write(0x4016, 1) // strobe high
	b.Write(0x4016, 0) // strobe low, freeze

	if v := b.Read(0x4016) & 1; v != 1 {
		t.Errorf("expected controller 0 bit 0 = 1 (A pressed), got %d", v)
	}
}

func TestEachCPUCycleTicksPPUThriceAndAPUOnce(t *testing.T) {
	b, ppu, apu := newTestBus()

	b.Read(0x0000)

	if ppu.ticks != 3 {
		t.Errorf("expected 3 PPU ticks per CPU cycle, got %d", ppu.ticks)
	}
	if apu.ticks != 1 {
		t.Errorf("expected 1 APU tick per CPU cycle, got %d", apu.ticks)
	}
}

func TestNMIEdgeLatchesOncePerRisingEdge(t *testing.T) {
	b, ppu, _ := newTestBus()

	b.Read(0x0000) // establish baseline level (false)
	if b.NMIPending() {
		t.Fatal("NMI should not be pending before any rising edge")
	}

	ppu.nmiLine = true
	b.Read(0x0000) // rising edge sampled mid-tick

	if !b.NMIPending() {
		t.Error("expected NMI latched after rising edge")
	}
	if b.NMIPending() {
		t.Error("NMIPending should clear itself once consumed")
	}

	// Level staying high without a new edge must not re-latch.
	b.Read(0x0000)
	if b.NMIPending() {
		t.Error("NMI must not re-latch while the line stays high without a new edge")
	}
}

func TestIRQLineReflectsAPUAndCartridge(t *testing.T) {
	b, _, apu := newTestBus()

	if b.IRQLine() {
		t.Error("IRQ line should be low initially")
	}

	apu.irq = true
	if !b.IRQLine() {
		t.Error("expected IRQ line high when APU asserts it")
	}

	apu.irq = false
	cart, err := cartridge.New(&cartridge.Descriptor{MapperNumber: 4, PRGROM: make([]uint8, 0x8000)})
	if err != nil {
		t.Fatalf("cartridge.New failed: %v", err)
	}
	b.Cartridge = cart
	if b.IRQLine() {
		t.Error("IRQ line should be low before the mapper asserts it")
	}

	cart.WritePRG(0xE001, 0, 0) // enable MMC3 IRQ; latch 0 fires on the first clock
	cart.NotifyA12(0x0000)
	for i := 0; i < 3; i++ {
		cart.NotifyA12(0x0000)
	}
	cart.NotifyA12(0x1000) // rising A12 edge clocks the scanline counter
	if !b.IRQLine() {
		t.Error("expected IRQ line high when the cartridge mapper asserts it")
	}
}

func TestOAMDMATransfersFullPage(t *testing.T) {
	b, ppu, _ := newTestBus()

	for i := 0; i < 256; i++ {
		b.RAM[i] = uint8(i)
	}

	b.Write(0x4014, 0x00) // DMA from page $00

	if len(ppu.oam) != 256 {
		t.Fatalf("expected 256 bytes transferred to OAM, got %d", len(ppu.oam))
	}
	for i, v := range ppu.oam {
		if v != uint8(i) {
			t.Errorf("OAM[%d]: expected %d, got %d", i, i, v)
			break
		}
	}
}

func TestDMCDMAFetchesAndStalls(t *testing.T) {
	b, _, apu := newTestBus()

	b.RAM[0x10] = 0x99
	apu.dmcPending = true
	apu.dmcAddr = 0x0010

	cyclesBefore := b.Cycle
	b.Read(0x0000) // any CPU access triggers the post-tick DMA service

	if len(apu.dmcValues) != 1 || apu.dmcValues[0] != 0x99 {
		t.Fatalf("expected DMC DMA to deliver 0x99, got %v", apu.dmcValues)
	}
	if b.Cycle <= cyclesBefore+1 {
		t.Error("expected DMC DMA to steal additional cycles beyond the triggering access")
	}
}
