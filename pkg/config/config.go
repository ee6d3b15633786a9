// Package config holds the small set of runtime options the core itself
// recognizes. Everything else (ROM path, window size, key bindings) is a
// concern of the host, not the core.
package config

// Options are the runtime knobs the core consults. All CLI/arg parsing
// lives outside the core (see cmd/nesquik); this struct is what survives
// after that parsing.
type Options struct {
	// PPUWarmupDelay forces the PPU to report no vblank for the first
	// ~29658 CPU cycles after reset, matching real hardware's power-on
	// warm-up quirk that some test ROMs rely on.
	PPUWarmupDelay bool

	// SwapDutyCycles selects the famiclone pulse-duty table variant
	// (duty index 1 and 2 swapped) instead of the standard NES table.
	SwapDutyCycles bool

	// SampleRate is the host audio rate the resampler produces output
	// blocks for, in Hz. Zero means the default (44100).
	SampleRate int
}

// DefaultSampleRate is used when Options.SampleRate is zero.
const DefaultSampleRate = 44100

// EffectiveSampleRate returns o.SampleRate, substituting the default when unset.
func (o Options) EffectiveSampleRate() int {
	if o.SampleRate <= 0 {
		return DefaultSampleRate
	}
	return o.SampleRate
}
