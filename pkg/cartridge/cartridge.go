// Package cartridge models the loaded game image and its mapper, as
// consumed by the bus. Parsing a ROM file into a Descriptor is the job
// of pkg/loader; this package only needs the parsed result.
package cartridge

import (
	"fmt"

	"github.com/nesquik/nescore/pkg/cartridge/mapper"
)

// Descriptor is the mapper-agnostic, pre-parsed contents of a cartridge
// image: what pkg/loader produces from an iNES/NES 2.0 file, and the
// shape test code builds by hand for synthetic ROMs.
type Descriptor struct {
	Name          string
	MapperNumber  uint8
	Submapper     uint8
	PRGROM        []uint8
	CHRROM        []uint8 // empty means CHR-RAM
	HasBattery    bool
	InitialMirror mapper.MirrorMode
	PRGRAMSize    int // 0 means "use the mapper's default"
}

// Cartridge is a loaded game image paired with its constructed mapper.
type Cartridge struct {
	Name       string
	HasBattery bool
	PRGRAM     []uint8
	Mapper     mapper.Mapper
}

// New constructs a Cartridge (and its mapper) from a parsed Descriptor.
func New(desc *Descriptor) (*Cartridge, error) {
	ramSize := desc.PRGRAMSize
	if ramSize == 0 {
		ramSize = 8192
	}
	data := &mapper.Data{
		PRGROM:    desc.PRGROM,
		CHRROM:    desc.CHRROM,
		PRGRAM:    make([]uint8, ramSize),
		Submapper: desc.Submapper,
		Mirroring: desc.InitialMirror,
	}

	m, err := mapper.New(desc.MapperNumber, data)
	if err != nil {
		return nil, fmt.Errorf("cartridge: %w", err)
	}

	return &Cartridge{
		Name:       desc.Name,
		HasBattery: desc.HasBattery,
		PRGRAM:     data.PRGRAM,
		Mapper:     m,
	}, nil
}

// ReadPRG reads from CPU-visible PRG/cartridge space ($4020-$FFFF).
func (c *Cartridge) ReadPRG(addr uint16) uint8 { return c.Mapper.ReadPRG(addr) }

// WritePRG writes to CPU-visible PRG/cartridge space. cycle is the bus's
// total CPU cycle count at the time of the write, forwarded to mappers
// that care about same-cycle duplicate writes (MMC1's read-modify-write
// suppression) via the optional cpuCycleNotifiee interface.
func (c *Cartridge) WritePRG(addr uint16, value uint8, cycle uint64) {
	if notifiee, ok := c.Mapper.(cpuCycleNotifiee); ok {
		notifiee.NotifyCPUCycle(cycle)
	}
	c.Mapper.WritePRG(addr, value)
}

// cpuCycleNotifiee is implemented by mappers that need to see the bus's
// CPU cycle count on each write (currently only MMC1).
type cpuCycleNotifiee interface {
	NotifyCPUCycle(cycle uint64)
}

// ReadCHR reads from the PPU-visible pattern table space ($0000-$1FFF).
func (c *Cartridge) ReadCHR(addr uint16) uint8 { return c.Mapper.ReadCHR(addr) }

// WriteCHR writes to the PPU-visible pattern table space (CHR-RAM only).
func (c *Cartridge) WriteCHR(addr uint16, value uint8) { c.Mapper.WriteCHR(addr, value) }

// Mirroring reports the cartridge's current nametable mirroring mode.
func (c *Cartridge) Mirroring() mapper.MirrorMode { return c.Mapper.Mirroring() }

// NotifyA12 forwards a PPU pattern-table address to the mapper so it can
// watch the A12 line (MMC3's scanline IRQ counter).
func (c *Cartridge) NotifyA12(addr uint16) { c.Mapper.NotifyA12(addr) }

// IRQPending reports whether the mapper's own IRQ line is asserted.
func (c *Cartridge) IRQPending() bool { return c.Mapper.IRQPending() }

// ClearIRQ acknowledges the mapper's IRQ line.
func (c *Cartridge) ClearIRQ() { c.Mapper.ClearIRQ() }

// BatteryRAM returns the PRG-RAM slice to persist when HasBattery is set.
func (c *Cartridge) BatteryRAM() []uint8 {
	if !c.HasBattery {
		return nil
	}
	return c.PRGRAM
}
