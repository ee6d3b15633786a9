// Package bus is the console's central timing hub: it owns CPU RAM, the
// controller ports, and the cartridge, and decodes every CPU-visible
// address. Critically it is also the only place that advances PPU/APU
// time — every single CPU memory access ticks the rest of the machine
// through it, rather than the CPU computing an instruction's total cycle
// count and some outer loop replaying that many PPU/APU steps afterward.
package bus

import (
	"github.com/nesquik/nescore/pkg/cartridge"
	"github.com/nesquik/nescore/pkg/controller"
	"github.com/nesquik/nescore/pkg/logger"
)

// PPU is the subset of the PPU the bus needs to drive and decode
// $2000-$3FFF register accesses.
type PPU interface {
	ReadRegister(addr uint16, openBus uint8) uint8
	WriteRegister(addr uint16, value uint8)
	Tick()
	NMILine() bool
	WriteOAMByte(value uint8)
}

// APU is the subset of the APU the bus needs to decode $4000-$4017
// (excluding $4016, which is the controller strobe/port-1 read) and to
// service DMC sample DMA.
type APU interface {
	ReadRegister(addr uint16, openBus uint8) uint8
	WriteRegister(addr uint16, value uint8)
	Tick()
	IRQLine() bool
	DMCDMARequest() (addr uint16, pending bool)
	DMCDMAComplete(value uint8)
}

// Bus wires RAM, the PPU/APU register windows, the controller ports and
// the cartridge into the CPU's 16-bit address space, and advances
// machine time on every access.
type Bus struct {
	RAM [2048]uint8

	PPU         PPU
	APU         APU
	Cartridge   *cartridge.Cartridge
	Controllers *controller.Set

	Cycle uint64

	openBus uint8

	nmiLevel  bool
	nmiPrev   bool
	nmiLatch  bool
	haveLevel bool

	lastWasWrite bool

	servicingDMC bool
}

// New wires a Bus to its components. Cartridge may be nil until a ROM is
// loaded; PPU/APU/Controllers must be set before first use.
func New(ppu PPU, apu APU, controllers *controller.Set) *Bus {
	return &Bus{PPU: ppu, APU: apu, Controllers: controllers}
}

// Read performs a CPU read and advances the machine by one cycle.
func (b *Bus) Read(addr uint16) uint8 {
	value := b.readMem(addr)
	b.openBus = value
	b.lastWasWrite = false
	b.tick()
	return value
}

// Write performs a CPU write and advances the machine by one cycle. A
// write to $4014 additionally runs the OAM DMA transfer inline, which
// itself advances the machine by another 513 or 514 cycles.
func (b *Bus) Write(addr uint16, value uint8) {
	b.openBus = value
	b.lastWasWrite = true
	if addr == 0x4014 {
		b.tick() // the $4014 write cycle itself
		b.runOAMDMA(value)
		return
	}
	b.writeMem(addr, value)
	b.tick()
}

func (b *Bus) readMem(addr uint16) uint8 {
	switch {
	case addr < 0x2000:
		return b.RAM[addr&0x7FF]
	case addr < 0x4000:
		return b.PPU.ReadRegister(0x2000|(addr&0x7), b.openBus)
	case addr == 0x4016:
		return b.controllerRead(0)
	case addr == 0x4017:
		return b.controllerRead(1)
	case addr < 0x4018:
		return b.APU.ReadRegister(addr, b.openBus)
	case addr < 0x4020:
		return b.openBus
	case b.Cartridge != nil:
		return b.Cartridge.ReadPRG(addr)
	default:
		return b.openBus
	}
}

// controllerRead ORs the pad's serial bit into the low bit of open bus,
// matching real hardware where $4016/$4017 reads only drive bit 0.
func (b *Bus) controllerRead(port int) uint8 {
	bit := b.Controllers.Read(port)
	return (b.openBus &^ 1) | bit
}

func (b *Bus) writeMem(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		b.RAM[addr&0x7FF] = value
	case addr < 0x4000:
		b.PPU.WriteRegister(0x2000|(addr&0x7), value)
	case addr == 0x4016:
		b.Controllers.Write(value)
	case addr < 0x4018:
		b.APU.WriteRegister(addr, value)
	case addr < 0x4020:
		// Unused APU/IO test-mode range.
	case b.Cartridge != nil:
		b.Cartridge.WritePRG(addr, value, b.Cycle)
	}
}

// tick advances the machine by exactly one CPU cycle, in the order a
// real 2A03 drives its buses: the APU is clocked once, then the PPU
// three times with an NMI-line sample taken between the first and
// second PPU clock (matching where the real NMI flip-flop is wired
// relative to the PPU's own clock edges).
func (b *Bus) tick() {
	b.Cycle++
	b.APU.Tick()
	b.PPU.Tick()
	b.pollNMI()
	b.PPU.Tick()
	b.PPU.Tick()
	if !b.servicingDMC {
		b.serviceDMCDMA()
	}
}

func (b *Bus) pollNMI() {
	level := b.PPU.NMILine()
	if !b.haveLevel {
		b.nmiPrev = level
		b.haveLevel = true
		return
	}
	if level && !b.nmiPrev {
		b.nmiLatch = true
	}
	b.nmiPrev = level
}

// NMIPending reports whether an edge-triggered NMI is latched and
// clears it, matching the CPU consuming the request exactly once.
func (b *Bus) NMIPending() bool {
	if b.nmiLatch {
		b.nmiLatch = false
		return true
	}
	return false
}

// IRQLine reports the instantaneous (level-triggered) IRQ line: high
// when the APU's frame/DMC IRQ flags are set, or the cartridge mapper's
// own IRQ (e.g. MMC3's scanline counter) is asserted.
func (b *Bus) IRQLine() bool {
	if b.APU.IRQLine() {
		return true
	}
	if b.Cartridge != nil && b.Cartridge.IRQPending() {
		return true
	}
	return false
}

// runOAMDMA drives the 256-byte OAM DMA transfer from CPU page `page`,
// modeled as a halt-then-alternate-read/write cycle sequence: one
// alignment cycle, one extra cycle if the halt itself landed on an odd
// CPU cycle, then 256 read/write pairs.
func (b *Bus) runOAMDMA(page uint8) {
	base := uint16(page) << 8

	b.tick() // halt cycle
	if b.Cycle%2 == 1 {
		b.tick() // extra alignment cycle on an odd CPU cycle
	}

	for i := 0; i < 256; i++ {
		value := b.readMem(base + uint16(i))
		b.tick()
		b.PPU.WriteOAMByte(value)
		b.tick()
	}
	logger.LogCPU("OAM DMA from page $%02X complete", page)
}

// serviceDMCDMA checks whether the APU wants to steal cycles for a DMC
// sample fetch and, if so, performs the stall-and-fetch inline. Per
// DESIGN.md's open-question decision, the stall is 3 cycles if the halt
// landed after a CPU read (4 after a write), +1 more if the halting
// cycle's parity was odd.
func (b *Bus) serviceDMCDMA() {
	addr, pending := b.APU.DMCDMARequest()
	if !pending {
		return
	}

	b.servicingDMC = true
	defer func() { b.servicingDMC = false }()

	stall := 3
	if b.lastWasWrite {
		stall = 4
	}
	if b.Cycle%2 == 1 {
		stall++
	}
	for i := 0; i < stall; i++ {
		b.tick()
	}

	value := b.readMem(addr)
	b.tick()
	b.APU.DMCDMAComplete(value)
}
