// Package mapper implements the cartridge mapper variants: each mapper
// number gets its own Go type satisfying the Mapper interface rather than
// one struct holding every variant's fields behind a switch, per the
// "tagged mapper variants" re-architecture note.
package mapper

import "fmt"

// MirrorMode selects how the PPU's two physical 1 KiB nametable banks are
// mapped onto the four logical 1 KiB nametable slots at $2000/$2400/$2800/$2C00.
type MirrorMode int

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorSingleLower
	MirrorSingleUpper
	MirrorFourScreen
)

// NametableIndex maps a logical nametable slot (0..3, i.e. (addr>>10)&3 for
// addr in $2000-$2FFF) to a physical 1 KiB bank index, per m's mirroring
// mode. Four-screen mirroring needs four independent physical banks and is
// handled by the caller (the PPU keeps four banks instead of two in that
// case), so NametableIndex returns slot unchanged for MirrorFourScreen.
func (m MirrorMode) NametableIndex(slot int) int {
	switch m {
	case MirrorHorizontal:
		return slot >> 1 // 0,0,1,1
	case MirrorVertical:
		return slot & 1 // 0,1,0,1
	case MirrorSingleLower:
		return 0
	case MirrorSingleUpper:
		return 1
	default:
		return slot
	}
}

// Mapper is the polymorphic cartridge-bank-switching interface. NotifyA12 is
// only meaningful to mappers that watch the PPU address bus (MMC3); all
// others implement it as a no-op.
type Mapper interface {
	ReadPRG(addr uint16) uint8
	WritePRG(addr uint16, value uint8)
	ReadCHR(addr uint16) uint8
	WriteCHR(addr uint16, value uint8)

	// Mirroring returns the mapper's current nametable mirroring mode;
	// mappers that do not change mirroring at runtime return the value
	// fixed at construction time.
	Mirroring() MirrorMode

	// NotifyA12 is called by the PPU on every CHR address it actually
	// drives onto the PPU bus (pattern-table fetches for background and
	// sprites). Mappers that do not care about A12 transitions ignore it.
	NotifyA12(addr uint16)

	// IRQPending reports whether the mapper's own IRQ line (e.g. MMC3's
	// scanline counter) is currently asserted.
	IRQPending() bool

	// ClearIRQ acknowledges/clears the mapper's IRQ line.
	ClearIRQ()
}

// Data is the raw cartridge content a mapper is constructed from, matching
// the pre-parsed descriptor named in the spec (the iNES/NES 2.0 header
// parsing itself lives in pkg/loader, outside the core).
type Data struct {
	PRGROM    []uint8
	CHRROM    []uint8 // nil/empty implies CHR-RAM
	CHRRAM    []uint8 // 8 KiB when CHRROM is empty, pre-sized by the caller
	PRGRAM    []uint8 // 8 KiB, optionally battery-backed
	Submapper uint8
	Mirroring MirrorMode
}

// New constructs the Mapper for the given iNES mapper number.
func New(number uint8, data *Data) (Mapper, error) {
	switch number {
	case 0:
		return newNROM(data), nil
	case 1:
		return newMMC1(data), nil
	case 2:
		return newUxROM(data), nil
	case 3:
		return newCNROM(data), nil
	case 4:
		return newMMC3(data), nil
	case 7:
		return newAxROM(data), nil
	case 11:
		return newColorDreams(data), nil
	case 34:
		return newBNROM(data), nil
	default:
		return nil, fmt.Errorf("mapper: unsupported mapper number %d", number)
	}
}

// chrRAMIfNeeded returns nil when the cartridge has CHR-ROM. Otherwise it
// returns data.CHRRAM, allocating an 8 KiB store first if the caller left
// it empty (so callers don't have to special-case "was this already
// allocated by the loader").
func chrRAMIfNeeded(data *Data) []uint8 {
	if len(data.CHRROM) > 0 {
		return nil
	}
	if len(data.CHRRAM) == 0 {
		data.CHRRAM = make([]uint8, 8192)
	}
	return data.CHRRAM
}
