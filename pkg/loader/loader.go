// Package loader parses iNES/NES 2.0 ROM images into a
// cartridge.Descriptor. It is a convenience collaborator, not part of
// the emulation core: a host is free to build a Descriptor by any other
// means (a homebrew test fixture, an archive format, a network fetch)
// and never touch this package at all.
package loader

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/nesquik/nescore/pkg/cartridge"
	"github.com/nesquik/nescore/pkg/cartridge/mapper"
)

const (
	prgBankSize = 16384
	chrBankSize = 8192
	trainerSize = 512
)

// header is the 16-byte iNES/NES 2.0 file header.
type header struct {
	magic      [4]uint8
	prgROMSize uint8
	chrROMSize uint8
	flags6     uint8
	flags7     uint8
	flags8     uint8
	flags9     uint8
	flags10    uint8
}

// Load parses an iNES (or NES 2.0 prefix-compatible) ROM image read from
// r into a cartridge.Descriptor, and rejects anything that isn't a
// recognizable ROM file.
func Load(r io.Reader, name string) (*cartridge.Descriptor, error) {
	var raw [16]uint8
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return nil, fmt.Errorf("loader: reading header: %w", err)
	}

	h := header{
		prgROMSize: raw[4],
		chrROMSize: raw[5],
		flags6:     raw[6],
		flags7:     raw[7],
		flags8:     raw[8],
		flags9:     raw[9],
		flags10:    raw[10],
	}
	copy(h.magic[:], raw[0:4])
	if string(h.magic[:]) != "NES\x1a" {
		return nil, fmt.Errorf("loader: not an iNES file (bad magic)")
	}

	if h.flags6&0x04 != 0 {
		trainer := make([]uint8, trainerSize)
		if _, err := io.ReadFull(r, trainer); err != nil {
			return nil, fmt.Errorf("loader: reading trainer: %w", err)
		}
	}

	isNES20 := h.flags7&0x0C == 0x08

	prgSize := int(h.prgROMSize) * prgBankSize
	prg := make([]uint8, prgSize)
	if _, err := io.ReadFull(r, prg); err != nil {
		return nil, fmt.Errorf("loader: reading PRG ROM: %w", err)
	}

	var chr []uint8
	chrSize := int(h.chrROMSize) * chrBankSize
	if chrSize > 0 {
		chr = make([]uint8, chrSize)
		if _, err := io.ReadFull(r, chr); err != nil {
			return nil, fmt.Errorf("loader: reading CHR ROM: %w", err)
		}
	}

	mapperNumber := (h.flags6 >> 4) | (h.flags7 & 0xF0)
	var submapper uint8
	if isNES20 {
		submapper = h.flags8 & 0x0F
	}

	var mirror mapper.MirrorMode
	switch {
	case h.flags6&0x08 != 0:
		mirror = mapper.MirrorFourScreen
	case h.flags6&0x01 != 0:
		mirror = mapper.MirrorVertical
	default:
		mirror = mapper.MirrorHorizontal
	}

	desc := &cartridge.Descriptor{
		Name:          filepath.Base(name),
		MapperNumber:  mapperNumber,
		Submapper:     submapper,
		PRGROM:        prg,
		CHRROM:        chr,
		HasBattery:    h.flags6&0x02 != 0,
		InitialMirror: mirror,
	}

	return desc, nil
}
