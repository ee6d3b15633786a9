// Package audiosink defines the contract between the host front end and a
// concrete audio output backend, and ships two implementations: one backed
// by SDL2's audio queue (the default, sharing the GUI's existing SDL
// context) and one backed by PortAudio's callback-driven stream (for hosts
// that run headless or prefer PortAudio's device selection). The core
// never binds to either; it only ever produces []float32 samples via
// nes.System.AudioSamples.
package audiosink

// Sink accepts mono float32 PCM samples at a fixed sample rate and plays
// them back, buffering internally as needed.
type Sink interface {
	// QueueSamples appends samples for playback. It must not block longer
	// than it takes to copy the samples into an internal buffer.
	QueueSamples(samples []float32) error

	// Close stops playback and releases the backend's resources.
	Close() error
}
