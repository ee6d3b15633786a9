// Package apu implements the 2A03's audio processing unit: five
// channels (two pulse, triangle, noise, DMC) driven by a six-step frame
// sequencer schedule rather than a fixed-rate "step N times per frame"
// approximation.
package apu

import "github.com/nesquik/nescore/pkg/logger"

// APU represents the Audio Processing Unit.
type APU struct {
	Pulse1   PulseChannel
	Pulse2   PulseChannel
	Triangle TriangleChannel
	Noise    NoiseChannel
	DMC      DMCChannel

	frameMode        uint8 // 0: 4-step, 1: 5-step
	frameIRQInhibit  bool
	frameStep        int
	frameCycle       int
	frameIRQ         bool
	putCycle         bool
	swapDutyCycles   bool

	Cycles uint64

	Output []float32
}

// PulseChannel represents a pulse wave channel.
type PulseChannel struct {
	Enabled    bool
	DutyCycle  uint8
	Volume     uint8
	Sweep      SweepUnit
	Length     LengthCounter
	Envelope   EnvelopeGenerator
	Timer      uint16
	TimerValue uint16
	Sequence   uint8
}

// TriangleChannel represents the triangle wave channel.
type TriangleChannel struct {
	Enabled       bool
	LinearCounter uint8
	LinearReload  uint8
	LinearControl bool
	Length        LengthCounter
	Timer         uint16
	TimerValue    uint16
	Sequence      uint8
}

// NoiseChannel represents the noise channel.
type NoiseChannel struct {
	Enabled    bool
	Volume     uint8
	Length     LengthCounter
	Envelope   EnvelopeGenerator
	Timer      uint16
	TimerValue uint16
	ShiftReg   uint16
	Mode       bool
}

// DMCChannel represents the delta modulation channel. Sample bytes are
// not read directly from memory: the bus services a DMA request through
// DMCDMARequest/DMCDMAComplete so CPU cycles are stolen the way real
// hardware steals them.
type DMCChannel struct {
	Enabled       bool
	IRQEnabled    bool
	IRQ           bool
	Loop          bool
	Rate          uint8
	timer         uint16
	LoadCounter   uint8
	SampleAddress uint16
	SampleLength  uint16

	CurrentAddress uint16
	CurrentLength  uint16

	SampleBuffer uint8
	BufferEmpty  bool

	Buffer        uint8
	BitsRemaining uint8
	Silence       bool
}

// SweepUnit represents a pulse channel's sweep unit.
type SweepUnit struct {
	Enabled bool
	Period  uint8
	Negate  bool
	Shift   uint8
	Reload  bool
	Counter uint8
}

// LengthCounter represents a length counter.
type LengthCounter struct {
	Enabled bool
	Value   uint8
	Halt    bool
}

// EnvelopeGenerator represents an envelope generator.
type EnvelopeGenerator struct {
	Start    bool
	Loop     bool
	Constant bool
	Volume   uint8
	Counter  uint8
	Divider  uint8
}

var lengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6, 160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 18, 48, 20, 96, 22, 192, 24, 72, 26, 16, 28, 32, 30,
}

// frameSequenceStep is one entry of the six-slot schedule the frame
// counter compares its cycle timer against.
type frameSequenceStep struct {
	cycle    int
	quarter  bool
	half     bool
	irq      bool
}

// sequenceTable mirrors the reference implementation's six-step
// schedule for each of the 4-step/5-step frame counter modes; the
// trailing duplicate entry (29829/29830, 37281/37282) is how the
// original marks "fire here, then reset the cycle timer on the step
// after."
var sequenceTable = [2][6]frameSequenceStep{
	{ // Mode 0: 4-step
		{7457, true, false, false},
		{14913, false, true, false},
		{22371, true, false, false},
		{29828, false, false, true},
		{29829, false, true, true},
		{29830, false, false, true},
	},
	{ // Mode 1: 5-step
		{7457, true, false, false},
		{14913, false, true, false},
		{22371, true, false, false},
		{29829, false, false, false},
		{37281, false, true, false},
		{37282, false, false, false},
	},
}

// New creates a new APU instance.
func New(swapDutyCycles bool) *APU {
	a := &APU{
		Output:         make([]float32, 0, 4096),
		swapDutyCycles: swapDutyCycles,
	}
	a.initializeChannels()
	return a
}

// Reset returns the APU to its power-on-adjacent state.
func (a *APU) Reset() {
	*a = APU{Output: a.Output[:0], swapDutyCycles: a.swapDutyCycles}
	a.initializeChannels()
}

// Tick advances the APU by one CPU cycle. Pulse/noise/DMC timers only
// clock on every other call (the "put" cycle, matching the 2A03's
// internal divide-by-two); the triangle timer and the frame sequencer's
// cycle counter advance on every call.
func (a *APU) Tick() {
	a.Cycles++

	reload := sequenceTable[a.frameMode][5].cycle
	step := sequenceTable[a.frameMode][a.frameStep]
	if a.frameCycle == step.cycle {
		if step.quarter || step.half {
			a.stepEnvelopes()
			a.stepLinearCounter()
		}
		if step.half {
			a.stepLengthCounters()
			a.stepSweeps()
		}
		if step.irq && !a.frameIRQInhibit {
			a.frameIRQ = true
		}
		a.frameStep = (a.frameStep + 1) % 6
	}

	a.stepTriangle()

	if a.putCycle {
		a.stepPulse(&a.Pulse1)
		a.stepPulse(&a.Pulse2)
		a.stepNoise()
		a.stepDMCTimer()
		a.sample()
	}
	a.putCycle = !a.putCycle

	// The last schedule entry sits on the frame's wrap point: once it has
	// fired, the cycle timer restarts so the next tick is cycle 1 of the
	// new frame.
	if a.frameStep == 0 && a.frameCycle == reload {
		a.frameCycle = 0
	}
	a.frameCycle++
}

func (a *APU) sample() {
	s := a.mixChannels()
	a.Output = append(a.Output, s)
	if len(a.Output) > 4096 {
		copy(a.Output, a.Output[len(a.Output)-2048:])
		a.Output = a.Output[:2048]
	}
}

// IRQLine reports whether the frame counter or the DMC channel has a
// latched, unacknowledged IRQ.
func (a *APU) IRQLine() bool {
	return a.frameIRQ || a.DMC.IRQ
}

// DMCDMARequest reports whether the DMC channel needs a sample byte and,
// if so, the address to fetch it from.
func (a *APU) DMCDMARequest() (uint16, bool) {
	if a.DMC.Enabled && a.DMC.BufferEmpty && a.DMC.CurrentLength > 0 {
		return a.DMC.CurrentAddress, true
	}
	return 0, false
}

// DMCDMAComplete delivers the byte fetched in response to a DMA
// request, advancing the sample cursor and wrapping/restarting on loop.
func (a *APU) DMCDMAComplete(value uint8) {
	a.DMC.SampleBuffer = value
	a.DMC.BufferEmpty = false

	a.DMC.CurrentAddress++
	if a.DMC.CurrentAddress == 0 {
		a.DMC.CurrentAddress = 0x8000
	}
	a.DMC.CurrentLength--
	if a.DMC.CurrentLength == 0 {
		if a.DMC.Loop {
			a.DMC.CurrentLength = a.DMC.SampleLength
			a.DMC.CurrentAddress = a.DMC.SampleAddress
		} else if a.DMC.IRQEnabled {
			a.DMC.IRQ = true
		}
	}
}

// ReadRegister services a CPU read of $4015. openBus is the byte
// currently sitting on the shared data bus; $4015 doesn't drive bit 5,
// and every other $4000-$4017 address (all write-only) is pure open bus.
func (a *APU) ReadRegister(addr uint16, openBus uint8) uint8 {
	if addr != 0x4015 {
		return openBus
	}
	status := openBus & 0x20
	if a.Pulse1.Length.Value > 0 {
		status |= 0x01
	}
	if a.Pulse2.Length.Value > 0 {
		status |= 0x02
	}
	if a.Triangle.Length.Value > 0 {
		status |= 0x04
	}
	if a.Noise.Length.Value > 0 {
		status |= 0x08
	}
	if a.DMC.CurrentLength > 0 {
		status |= 0x10
	}
	if a.frameIRQ {
		status |= 0x40
	}
	if a.DMC.IRQ {
		status |= 0x80
	}
	a.frameIRQ = false
	return status
}

// WriteRegister services a CPU write to $4000-$4013, $4015 or $4017.
func (a *APU) WriteRegister(addr uint16, value uint8) {
	switch {
	case addr >= 0x4000 && addr <= 0x4003:
		a.writePulse(&a.Pulse1, addr-0x4000, value)
	case addr >= 0x4004 && addr <= 0x4007:
		a.writePulse(&a.Pulse2, addr-0x4004, value)
	case addr >= 0x4008 && addr <= 0x400B:
		a.writeTriangle(addr-0x4008, value)
	case addr >= 0x400C && addr <= 0x400F:
		a.writeNoise(addr-0x400C, value)
	case addr >= 0x4010 && addr <= 0x4013:
		a.writeDMC(addr-0x4010, value)
	case addr == 0x4015:
		a.writeStatus(value)
	case addr == 0x4017:
		a.writeFrameCounter(value)
	}
}

func (a *APU) writeFrameCounter(value uint8) {
	a.frameMode = (value >> 7) & 1
	a.frameIRQInhibit = value&0x40 != 0
	if a.frameIRQInhibit {
		a.frameIRQ = false
	}
	a.frameCycle = 0
	a.frameStep = 0
	if a.frameMode == 1 {
		a.stepEnvelopes()
		a.stepLinearCounter()
		a.stepLengthCounters()
		a.stepSweeps()
	}
	logger.LogAPU("frame counter write: mode=%d irqInhibit=%v", a.frameMode, a.frameIRQInhibit)
}

func (a *APU) writeStatus(value uint8) {
	a.Pulse1.Enabled = value&0x01 != 0
	a.Pulse2.Enabled = value&0x02 != 0
	a.Triangle.Enabled = value&0x04 != 0
	a.Noise.Enabled = value&0x08 != 0
	a.DMC.Enabled = value&0x10 != 0

	if !a.Pulse1.Enabled {
		a.Pulse1.Length.Value = 0
	}
	if !a.Pulse2.Enabled {
		a.Pulse2.Length.Value = 0
	}
	if !a.Triangle.Enabled {
		a.Triangle.Length.Value = 0
	}
	if !a.Noise.Enabled {
		a.Noise.Length.Value = 0
	}
	a.DMC.IRQ = false
	if !a.DMC.Enabled {
		a.DMC.CurrentLength = 0
	} else if a.DMC.CurrentLength == 0 {
		a.DMC.CurrentLength = a.DMC.SampleLength
		a.DMC.CurrentAddress = a.DMC.SampleAddress
	}
}

func (a *APU) initializeChannels() {
	a.Noise.ShiftReg = 1
	a.Pulse1.Length.Enabled = true
	a.Pulse2.Length.Enabled = true
	a.Triangle.Length.Enabled = true
	a.Noise.Length.Enabled = true
	a.DMC.BufferEmpty = true
}
