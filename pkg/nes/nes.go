// Package nes wires the CPU, PPU, APU, cartridge and controllers
// together into a runnable machine, driven entirely by the bus's
// cycle-by-cycle timing rather than an outer "run the CPU, then replay
// 3x/1x as many PPU/APU steps" loop.
package nes

import (
	"fmt"
	"io"

	"github.com/nesquik/nescore/pkg/apu"
	"github.com/nesquik/nescore/pkg/bus"
	"github.com/nesquik/nescore/pkg/cartridge"
	"github.com/nesquik/nescore/pkg/controller"
	"github.com/nesquik/nescore/pkg/cpu"
	"github.com/nesquik/nescore/pkg/loader"
	"github.com/nesquik/nescore/pkg/ppu"
)

// System is a complete, runnable NES: one bus, one CPU, one PPU, one
// APU, the controller ports and whatever cartridge is currently loaded.
type System struct {
	CPU         *cpu.CPU
	PPU         *ppu.PPU
	APU         *apu.APU
	Bus         *bus.Bus
	Controllers *controller.Set
	Cartridge   *cartridge.Cartridge

	Frame uint64
}

// Option configures a System at construction time.
type Option func(*System)

// WithSwapDutyCycles mirrors a common "fix" several NES sound drivers
// expect (and some flash carts ship), swapping pulse duty cycles 1 and
// 2 so 25% and 50% duty read the way certain tracker-authored music
// assumes.
func WithSwapDutyCycles(swap bool) Option {
	return func(s *System) {
		s.APU = apu.New(swap)
	}
}

// WithPPUWarmupDelay reproduces real hardware's power-on quirk where the
// PPU reports no VBlank/NMI for roughly the first frame after reset,
// which some test ROMs rely on.
func WithPPUWarmupDelay(enabled bool) Option {
	return func(s *System) {
		s.PPU.WarmupDelay = enabled
	}
}

// New builds an unloaded System: call LoadROM (or LoadCartridge) before
// Reset/RunFrame.
func New(opts ...Option) *System {
	s := &System{
		PPU:         ppu.New(),
		APU:         apu.New(false),
		Controllers: controller.NewSet(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Bus = bus.New(s.PPU, s.APU, s.Controllers)
	s.CPU = cpu.New(s.Bus)
	return s
}

// LoadROM parses an iNES/NES 2.0 image from r and loads it as the
// current cartridge.
func (s *System) LoadROM(r io.Reader, name string) error {
	desc, err := loader.Load(r, name)
	if err != nil {
		return fmt.Errorf("nes: %w", err)
	}
	cart, err := cartridge.New(desc)
	if err != nil {
		return fmt.Errorf("nes: %w", err)
	}
	s.LoadCartridge(cart)
	return nil
}

// LoadCartridge attaches an already-constructed cartridge to the bus and
// PPU, and resets the machine to begin executing it.
func (s *System) LoadCartridge(cart *cartridge.Cartridge) {
	s.Cartridge = cart
	s.Bus.Cartridge = cart
	s.PPU.SetCartridge(cart)
	s.Reset()
}

// Reset returns the CPU and PPU to their power-on-adjacent state.
func (s *System) Reset() {
	s.CPU.Reset()
	s.PPU.Reset()
	s.APU.Reset()
	s.Frame = 0
}

// StepInstruction executes exactly one CPU instruction (or interrupt
// service routine), ticking the rest of the machine as a side effect of
// every bus access the CPU makes along the way.
func (s *System) StepInstruction() {
	s.CPU.Step()
}

// RunFrame runs CPU instructions until the PPU completes a frame.
func (s *System) RunFrame() {
	for !s.PPU.FrameComplete {
		s.CPU.Step()
	}
	s.PPU.FrameComplete = false
	s.Frame = s.PPU.Frame
}

// Framebuffer returns the current frame as packed RGBA8888 bytes.
func (s *System) Framebuffer() []uint8 {
	return s.PPU.GetFramebuffer()
}

// FramebufferRaw returns the current frame as packed ARGB8888 words.
func (s *System) FramebufferRaw() []uint32 {
	return s.PPU.FrameBuffer[:]
}

// AudioSamples drains and returns the APU's pending output samples.
func (s *System) AudioSamples() []float32 {
	samples := s.APU.Output
	s.APU.Output = make([]float32, 0, 4096)
	return samples
}

// SetButton updates a single controller button on the given port (0 or
// 1).
func (s *System) SetButton(port int, b controller.Button, pressed bool) {
	s.Controllers.SetButton(port, b, pressed)
}

// SaveBatteryRAM returns the cartridge's battery-backed PRG-RAM, or nil
// if the cartridge has none.
func (s *System) SaveBatteryRAM() []uint8 {
	if s.Cartridge == nil {
		return nil
	}
	return s.Cartridge.BatteryRAM()
}

// LoadBatteryRAM restores previously saved battery-backed PRG-RAM.
func (s *System) LoadBatteryRAM(data []uint8) {
	ram := s.SaveBatteryRAM()
	if ram == nil {
		return
	}
	copy(ram, data)
}
