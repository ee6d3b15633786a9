package audiosink

import (
	"fmt"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/nesquik/nescore/pkg/logger"
)

const sdlBufferSize = 1024

// SDLSink queues samples onto an SDL2 audio device. It assumes SDL's audio
// subsystem has already been initialized (sdl.Init(sdl.INIT_AUDIO)) by the
// caller, since a GUI front end typically shares one SDL context across
// video and audio.
type SDLSink struct {
	device sdl.AudioDeviceID
	spec   sdl.AudioSpec
}

// NewSDLSink opens the default SDL2 audio output device at sampleRate,
// preferring 32-bit float samples and falling back to signed 16-bit PCM
// when the platform driver doesn't support float.
func NewSDLSink(sampleRate int) (*SDLSink, error) {
	want := &sdl.AudioSpec{
		Freq:     int32(sampleRate),
		Format:   sdl.AUDIO_F32LSB,
		Channels: 1,
		Samples:  sdlBufferSize,
	}

	var have sdl.AudioSpec
	device, err := sdl.OpenAudioDevice("", false, want, &have, sdl.AUDIO_ALLOW_ANY_CHANGE)
	if err != nil {
		want.Format = sdl.AUDIO_S16LSB
		device, err = sdl.OpenAudioDevice("", false, want, &have, sdl.AUDIO_ALLOW_ANY_CHANGE)
		if err != nil {
			return nil, fmt.Errorf("opening audio device: %w", err)
		}
	}

	sdl.PauseAudioDevice(device, false)
	logger.LogInfo("sdl audio device open: %dHz, format 0x%x, buffer %d", have.Freq, have.Format, have.Samples)
	return &SDLSink{device: device, spec: have}, nil
}

// QueueSamples implements Sink.
func (s *SDLSink) QueueSamples(samples []float32) error {
	if len(samples) == 0 {
		return nil
	}

	queued := sdl.GetQueuedAudioSize(s.device)
	maxBytes := uint32(sdlBufferSize * 4 * 2)
	if queued >= maxBytes {
		return nil
	}

	var data []byte
	switch s.spec.Format {
	case sdl.AUDIO_F32LSB:
		data = make([]byte, len(samples)*4)
		for i, v := range samples {
			bits := *(*uint32)(unsafe.Pointer(&v))
			data[i*4+0] = byte(bits)
			data[i*4+1] = byte(bits >> 8)
			data[i*4+2] = byte(bits >> 16)
			data[i*4+3] = byte(bits >> 24)
		}
	case sdl.AUDIO_S16LSB:
		data = make([]byte, len(samples)*2)
		for i, v := range samples {
			if v > 1.0 {
				v = 1.0
			} else if v < -1.0 {
				v = -1.0
			}
			s16 := int16(v * 32767)
			data[i*2+0] = byte(s16)
			data[i*2+1] = byte(s16 >> 8)
		}
	}

	if len(data) > 0 {
		return sdl.QueueAudio(s.device, data)
	}
	return nil
}

// Close implements Sink.
func (s *SDLSink) Close() error {
	sdl.CloseAudioDevice(s.device)
	return nil
}
