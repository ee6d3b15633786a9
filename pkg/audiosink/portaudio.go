package audiosink

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/nesquik/nescore/pkg/logger"
)

const portaudioBufferSamples = 1024

// PortAudioSink plays samples through PortAudio's default output device.
// PortAudio pulls samples via a callback on its own audio thread, so
// QueueSamples hands samples to a small ring-style queue protected by a
// mutex rather than blocking the emulation loop: the callback copies
// whatever has accumulated (zero-filling the rest) every time the driver
// asks for a buffer.
type PortAudioSink struct {
	stream *portaudio.Stream

	mu     sync.Mutex
	queued []float32
}

// NewPortAudioSink initializes PortAudio and opens its default output
// stream at sampleRate, mono float32.
func NewPortAudioSink(sampleRate int) (*PortAudioSink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}

	s := &PortAudioSink{}
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), portaudioBufferSamples, s.callback)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("portaudio open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("portaudio start stream: %w", err)
	}

	s.stream = stream
	logger.LogInfo("portaudio stream started: %dHz, buffer %d", sampleRate, portaudioBufferSamples)
	return s, nil
}

// callback is invoked on PortAudio's audio thread whenever it needs more
// output samples.
func (s *PortAudioSink) callback(out []float32) {
	s.mu.Lock()
	n := copy(out, s.queued)
	s.queued = s.queued[n:]
	s.mu.Unlock()

	for i := n; i < len(out); i++ {
		out[i] = 0
	}
}

// QueueSamples implements Sink.
func (s *PortAudioSink) QueueSamples(samples []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queued = append(s.queued, samples...)
	// Cap the backlog so a slow consumer doesn't grow this unbounded;
	// drop the oldest samples rather than the newest.
	const maxQueued = portaudioBufferSamples * 8
	if len(s.queued) > maxQueued {
		s.queued = s.queued[len(s.queued)-maxQueued:]
	}
	return nil
}

// Close implements Sink.
func (s *PortAudioSink) Close() error {
	if s.stream == nil {
		return nil
	}
	if err := s.stream.Stop(); err != nil {
		logger.LogError("portaudio stop: %v", err)
	}
	if err := s.stream.Close(); err != nil {
		logger.LogError("portaudio close: %v", err)
	}
	return portaudio.Terminate()
}
