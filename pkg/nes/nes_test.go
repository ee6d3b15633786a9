package nes

import (
	"bytes"
	"testing"

	"github.com/nesquik/nescore/pkg/controller"
)

// buildNROM returns a minimal mapper-0 iNES image: 16KB PRG mirrored at
// both $8000 and $C000, 8KB CHR, reset vector pointing at `code`.
func buildNROM(code []byte, battery bool) []byte {
	flags6 := uint8(0x00)
	if battery {
		flags6 |= 0x02
	}
	header := []byte{
		0x4E, 0x45, 0x53, 0x1A,
		0x01, 0x01,
		flags6, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}

	prg := make([]byte, 16384)
	copy(prg, code)
	prg[0x3FFC] = 0x00 // reset vector low -> $8000
	prg[0x3FFD] = 0x80 // reset vector high

	chr := make([]byte, 8192)

	rom := append([]byte{}, header...)
	rom = append(rom, prg...)
	rom = append(rom, chr...)
	return rom
}

func TestLoadROMSetsResetVector(t *testing.T) {
	s := New()
	rom := buildNROM([]byte{0xEA}, false) // NOP at $8000
	if err := s.LoadROM(bytes.NewReader(rom), "test.nes"); err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}

	if s.CPU.PC != 0x8000 {
		t.Errorf("expected PC at reset vector $8000, got $%04X", s.CPU.PC)
	}
	if s.Cartridge == nil {
		t.Fatal("expected cartridge to be attached after LoadROM")
	}
}

func TestStepInstructionAdvancesPC(t *testing.T) {
	s := New()
	rom := buildNROM([]byte{0xEA, 0xEA, 0xEA}, false) // three NOPs
	if err := s.LoadROM(bytes.NewReader(rom), "test.nes"); err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}

	s.StepInstruction()
	if s.CPU.PC != 0x8001 {
		t.Errorf("expected PC $8001 after one NOP, got $%04X", s.CPU.PC)
	}
}

func TestRunFrameCompletesAndAdvancesFrameCounter(t *testing.T) {
	s := New()
	// JMP $8000: tight loop, guaranteeing RunFrame is bounded purely by
	// the PPU's own frame-complete signal rather than program length.
	rom := buildNROM([]byte{0x4C, 0x00, 0x80}, false)
	if err := s.LoadROM(bytes.NewReader(rom), "test.nes"); err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}

	s.RunFrame()
	if s.Frame != 1 {
		t.Errorf("expected Frame=1 after one RunFrame, got %d", s.Frame)
	}
	if len(s.Framebuffer()) == 0 {
		t.Error("expected a non-empty framebuffer after a completed frame")
	}
}

func TestResetReturnsToPowerOnState(t *testing.T) {
	s := New()
	rom := buildNROM([]byte{0xEA}, false)
	if err := s.LoadROM(bytes.NewReader(rom), "test.nes"); err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}

	s.RunFrame()
	s.Reset()
	if s.Frame != 0 {
		t.Errorf("expected Frame=0 after Reset, got %d", s.Frame)
	}
	if s.CPU.PC != 0x8000 {
		t.Errorf("expected PC restored to reset vector, got $%04X", s.CPU.PC)
	}
}

func TestSetButtonReachesControllerSet(t *testing.T) {
	s := New()
	s.SetButton(0, controller.ButtonA, true)

	s.Controllers.Write(1)
	s.Controllers.Write(0)
	if v := s.Controllers.Read(0); v != 1 {
		t.Errorf("expected controller port 0 bit 0 (A) = 1, got %d", v)
	}
}

func TestBatteryRAMRoundTrip(t *testing.T) {
	s := New()
	rom := buildNROM([]byte{0xEA}, true)
	if err := s.LoadROM(bytes.NewReader(rom), "test.nes"); err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}

	ram := s.SaveBatteryRAM()
	if ram == nil {
		t.Fatal("expected non-nil battery RAM for a battery-backed cartridge")
	}

	saved := make([]uint8, len(ram))
	saved[0] = 0x77
	s.LoadBatteryRAM(saved)

	if got := s.SaveBatteryRAM()[0]; got != 0x77 {
		t.Errorf("expected restored battery RAM byte 0x77, got 0x%02X", got)
	}
}

func TestBatteryRAMNilWithoutBattery(t *testing.T) {
	s := New()
	rom := buildNROM([]byte{0xEA}, false)
	if err := s.LoadROM(bytes.NewReader(rom), "test.nes"); err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}

	if s.SaveBatteryRAM() != nil {
		t.Error("expected nil battery RAM for a non-battery cartridge")
	}
	// Must not panic when restoring onto a cartridge with no battery RAM.
	s.LoadBatteryRAM([]uint8{0x01, 0x02})
}

func TestWithPPUWarmupDelayOption(t *testing.T) {
	s := New(WithPPUWarmupDelay(true))
	if !s.PPU.WarmupDelay {
		t.Error("expected WithPPUWarmupDelay(true) to set PPU.WarmupDelay")
	}
}

func TestWithSwapDutyCyclesOption(t *testing.T) {
	s := New(WithSwapDutyCycles(true))
	if s.APU == nil {
		t.Fatal("expected APU to remain set after WithSwapDutyCycles")
	}
}
