package apu

var dutyCycles = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0}, // 12.5%
	{0, 1, 1, 0, 0, 0, 0, 0}, // 25%
	{0, 1, 1, 1, 1, 0, 0, 0}, // 50%
	{1, 0, 0, 1, 1, 1, 1, 1}, // 75% (25% negated)
}

var triangleSequence = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

var noisePeriods = [16]uint16{
	4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068,
}

var dmcRates = [16]uint16{
	428, 380, 340, 320, 286, 254, 226, 214, 190, 160, 142, 128, 106, 84, 72, 54,
}

func (a *APU) dutyTable(d uint8) [8]uint8 {
	if a.swapDutyCycles {
		return dutyCycles[[4]uint8{0, 2, 1, 3}[d]]
	}
	return dutyCycles[d]
}

func (a *APU) stepPulse(pulse *PulseChannel) {
	if pulse.Timer > 0 {
		pulse.Timer--
		return
	}
	pulse.Timer = pulse.TimerValue
	pulse.Sequence = (pulse.Sequence + 1) % 8
}

// stepTriangle clocks at the full CPU rate (unlike the other channels),
// which is what gives the triangle its characteristic extra octave of
// range relative to same-period pulse output.
func (a *APU) stepTriangle() {
	if a.Triangle.Timer > 0 {
		a.Triangle.Timer--
		return
	}
	a.Triangle.Timer = a.Triangle.TimerValue
	if a.Triangle.Length.Value > 0 && a.Triangle.LinearCounter > 0 {
		a.Triangle.Sequence = (a.Triangle.Sequence + 1) % 32
	}
}

func (a *APU) stepNoise() {
	if a.Noise.Timer > 0 {
		a.Noise.Timer--
		return
	}
	a.Noise.Timer = a.Noise.TimerValue

	var bit uint16
	if a.Noise.Mode {
		bit = (a.Noise.ShiftReg & 1) ^ ((a.Noise.ShiftReg >> 6) & 1)
	} else {
		bit = (a.Noise.ShiftReg & 1) ^ ((a.Noise.ShiftReg >> 1) & 1)
	}
	a.Noise.ShiftReg = (a.Noise.ShiftReg >> 1) | (bit << 14)
}

// stepDMCTimer clocks the DMC output unit's delta-modulation shift
// register. Sample byte delivery itself happens out-of-band through
// DMCDMARequest/DMCDMAComplete; this only consumes bits already sitting
// in the buffer.
func (a *APU) stepDMCTimer() {
	if a.DMC.timer > 0 {
		a.DMC.timer--
		return
	}
	a.DMC.timer = dmcRates[a.DMC.Rate&0x0F]

	if a.DMC.BitsRemaining == 0 {
		a.DMC.BitsRemaining = 8
		if !a.DMC.BufferEmpty {
			a.DMC.Buffer = a.DMC.SampleBuffer
			a.DMC.BufferEmpty = true
			a.DMC.Silence = false
		} else {
			a.DMC.Silence = true
		}
	}

	if !a.DMC.Silence {
		bit := a.DMC.Buffer & 1
		a.DMC.Buffer >>= 1
		if bit == 1 && a.DMC.LoadCounter <= 125 {
			a.DMC.LoadCounter += 2
		} else if bit == 0 && a.DMC.LoadCounter >= 2 {
			a.DMC.LoadCounter -= 2
		}
	}
	a.DMC.BitsRemaining--
}

func (a *APU) stepEnvelopes() {
	a.stepEnvelope(&a.Pulse1.Envelope)
	a.stepEnvelope(&a.Pulse2.Envelope)
	a.stepEnvelope(&a.Noise.Envelope)
}

func (a *APU) stepEnvelope(env *EnvelopeGenerator) {
	if env.Start {
		env.Start = false
		env.Counter = 15
		env.Divider = env.Volume
		return
	}
	if env.Divider > 0 {
		env.Divider--
		return
	}
	env.Divider = env.Volume
	if env.Counter > 0 {
		env.Counter--
	} else if env.Loop {
		env.Counter = 15
	}
}

func (a *APU) stepLengthCounters() {
	a.stepLengthCounter(&a.Pulse1.Length)
	a.stepLengthCounter(&a.Pulse2.Length)
	a.stepLengthCounter(&a.Triangle.Length)
	a.stepLengthCounter(&a.Noise.Length)
}

func (a *APU) stepLengthCounter(lc *LengthCounter) {
	if lc.Enabled && !lc.Halt && lc.Value > 0 {
		lc.Value--
	}
}

func (a *APU) stepSweeps() {
	a.stepSweep(&a.Pulse1, &a.Pulse1.Sweep, true)
	a.stepSweep(&a.Pulse2, &a.Pulse2.Sweep, false)
}

func (a *APU) stepSweep(pulse *PulseChannel, sweep *SweepUnit, onesComplement bool) {
	if sweep.Counter == 0 && sweep.Enabled && !sweep.Reload {
		a.performSweep(pulse, sweep, onesComplement)
	}
	if sweep.Counter == 0 || sweep.Reload {
		sweep.Counter = sweep.Period
		sweep.Reload = false
	} else {
		sweep.Counter--
	}
}

func (a *APU) performSweep(pulse *PulseChannel, sweep *SweepUnit, onesComplement bool) {
	change := pulse.TimerValue >> sweep.Shift
	var target uint16
	if sweep.Negate {
		if onesComplement {
			target = pulse.TimerValue - change - 1
		} else {
			target = pulse.TimerValue - change
		}
	} else {
		target = pulse.TimerValue + change
	}
	if target >= 8 && target <= 0x7FF && sweep.Shift > 0 {
		pulse.TimerValue = target
	}
}

func (a *APU) stepLinearCounter() {
	if a.Triangle.LinearControl {
		a.Triangle.LinearCounter = a.Triangle.LinearReload
	} else if a.Triangle.LinearCounter > 0 {
		a.Triangle.LinearCounter--
	}
	if !a.Triangle.Length.Halt {
		a.Triangle.LinearControl = false
	}
}

func (a *APU) isSweepMuting(pulse *PulseChannel) bool {
	change := pulse.TimerValue >> pulse.Sweep.Shift
	var target uint16
	if pulse.Sweep.Negate {
		if change > pulse.TimerValue {
			return pulse.TimerValue < 8
		}
		target = pulse.TimerValue - change
	} else {
		target = pulse.TimerValue + change
	}
	return target > 0x7FF || pulse.TimerValue < 8
}

func (a *APU) getPulseOutput(pulse *PulseChannel) uint8 {
	if !pulse.Enabled || pulse.Length.Value == 0 {
		return 0
	}
	if pulse.TimerValue < 8 || pulse.TimerValue > 0x7FF {
		return 0
	}
	if pulse.Sweep.Enabled && a.isSweepMuting(pulse) {
		return 0
	}
	if a.dutyTable(pulse.DutyCycle)[pulse.Sequence] == 0 {
		return 0
	}
	if pulse.Envelope.Constant {
		return pulse.Volume
	}
	return pulse.Envelope.Counter
}

// getTriangleOutput returns the current sequencer step regardless of
// whether the sequencer is currently advancing: real hardware freezes
// the triangle's output rather than muting it when its length or linear
// counter reaches zero.
func (a *APU) getTriangleOutput() uint8 {
	if !a.Triangle.Enabled {
		return 0
	}
	return triangleSequence[a.Triangle.Sequence]
}

func (a *APU) getNoiseOutput() uint8 {
	if !a.Noise.Enabled || a.Noise.Length.Value == 0 {
		return 0
	}
	if a.Noise.ShiftReg&1 != 0 {
		return 0
	}
	if a.Noise.Envelope.Constant {
		return a.Noise.Volume
	}
	return a.Noise.Envelope.Counter
}

func (a *APU) getDMCOutput() uint8 {
	return a.DMC.LoadCounter
}

// mixChannels combines the five channels using the standard non-linear
// NES DAC approximation.
func (a *APU) mixChannels() float32 {
	p1 := a.getPulseOutput(&a.Pulse1)
	p2 := a.getPulseOutput(&a.Pulse2)
	tri := a.getTriangleOutput()
	noise := a.getNoiseOutput()
	dmc := a.getDMCOutput()

	pulseSum := p1 + p2
	var pulseOut float32
	if pulseSum > 0 {
		pulseOut = 95.88 / ((8128.0 / float32(pulseSum)) + 100.0)
	}

	tndSum := float32(tri)/8227.0 + float32(noise)/12241.0 + float32(dmc)/22638.0
	var tndOut float32
	if tndSum > 0 {
		tndOut = 159.79 / ((1.0 / tndSum) + 100.0)
	}

	out := pulseOut + tndOut
	if out > 1.0 {
		out = 1.0
	}
	return out*2.0 - 1.0
}
