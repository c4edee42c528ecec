package audio

import (
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"
)

// Engine opens PortAudio streams against a single soundcard picked by name.
// It owns the PortAudio runtime: create exactly one Engine per process and
// Close it on the way out.
type Engine struct {
	cfg    StreamConfig
	in     *portaudio.DeviceInfo
	out    *portaudio.DeviceInfo
	logger zerolog.Logger
}

func NewEngine(cfg StreamConfig, logger zerolog.Logger) (*Engine, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}

	e := &Engine{cfg: cfg, logger: logger}
	if err := e.selectDevices(); err != nil {
		portaudio.Terminate()
		return nil, err
	}

	logger.Info().
		Int("sample_rate", cfg.SampleRate).
		Int("chunk_size", cfg.ChunkSize).
		Str("input_device", e.in.Name).
		Str("output_device", e.out.Name).
		Msg("audio engine ready")

	return e, nil
}

func (e *Engine) selectDevices() error {
	devices, err := portaudio.Devices()
	if err != nil {
		return fmt.Errorf("enumerating audio devices: %w", err)
	}

	for _, dev := range devices {
		name := strings.ToLower(dev.Name)
		for _, keyword := range e.cfg.DeviceKeywords {
			if !strings.Contains(name, strings.ToLower(keyword)) {
				continue
			}
			if e.in == nil && dev.MaxInputChannels > 0 {
				e.in = dev
			}
			if e.out == nil && dev.MaxOutputChannels > 0 {
				e.out = dev
			}
		}
	}

	if e.in == nil {
		if e.in, err = portaudio.DefaultInputDevice(); err != nil {
			return fmt.Errorf("no input device: %w", err)
		}
		e.logger.Warn().Str("device", e.in.Name).Msg("no keyword match, using default input device")
	}
	if e.out == nil {
		if e.out, err = portaudio.DefaultOutputDevice(); err != nil {
			return fmt.Errorf("no output device: %w", err)
		}
		e.logger.Warn().Str("device", e.out.Name).Msg("no keyword match, using default output device")
	}
	return nil
}

func (e *Engine) OpenInput() (Input, error) {
	s := &inputStream{buf: make([]int16, e.cfg.ChunkSize)}
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   e.in,
			Channels: 1,
			Latency:  e.in.DefaultLowInputLatency,
		},
		SampleRate:      float64(e.cfg.SampleRate),
		FramesPerBuffer: e.cfg.ChunkSize,
	}
	stream, err := portaudio.OpenStream(params, &s.buf)
	if err != nil {
		return nil, fmt.Errorf("opening input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("starting input stream: %w", err)
	}
	s.stream = stream
	return s, nil
}

func (e *Engine) OpenOutput() (Output, error) {
	s := &outputStream{buf: make([]int16, e.cfg.ChunkSize)}
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   e.out,
			Channels: 1,
			Latency:  e.out.DefaultLowOutputLatency,
		},
		SampleRate:      float64(e.cfg.SampleRate),
		FramesPerBuffer: e.cfg.ChunkSize,
	}
	stream, err := portaudio.OpenStream(params, &s.buf)
	if err != nil {
		return nil, fmt.Errorf("opening output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("starting output stream: %w", err)
	}
	s.stream = stream
	return s, nil
}

func (e *Engine) Close() error {
	return portaudio.Terminate()
}

type inputStream struct {
	stream *portaudio.Stream
	buf    []int16
}

func (s *inputStream) ReadChunk() (Chunk, error) {
	err := s.stream.Read()
	// Overflow means the card dropped samples while we were away; the
	// buffer still holds a full chunk, so use it and move on.
	if err != nil && err != portaudio.InputOverflowed {
		return nil, err
	}
	out := make(Chunk, len(s.buf))
	copy(out, s.buf)
	return out, nil
}

func (s *inputStream) Close() error {
	s.stream.Stop()
	return s.stream.Close()
}

type outputStream struct {
	stream *portaudio.Stream
	buf    []int16
}

func (s *outputStream) WriteChunk(c Chunk) error {
	n := copy(s.buf, c)
	for i := n; i < len(s.buf); i++ {
		s.buf[i] = 0
	}
	if err := s.stream.Write(); err != nil && err != portaudio.OutputUnderflowed {
		return err
	}
	return nil
}

func (s *outputStream) Close() error {
	s.stream.Stop()
	return s.stream.Close()
}
