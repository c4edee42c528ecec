// Package ident schedules and prepares station identification audio.
package ident

import (
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/go-audio/wav"
	"github.com/rs/zerolog"

	"github.com/sa7bnb/repeater/pkg/repeater/audio"
)

const (
	// Fallback tone played when no clip is on disk.
	toneFrequency = 800.0
	toneDuration  = 2 * time.Second
	// Half of full scale's half: the tone is deliberately quieter than
	// relayed audio.
	toneAmplitude = 8192
)

// Config for the announcer. Interval and Enabled may change at runtime via
// the setters; the rest is fixed for the process lifetime.
type Config struct {
	ClipPath    string
	Interval    time.Duration
	Enabled     bool
	SampleRate  int
	ChunkSize   int
	MaxDuration time.Duration
}

// Announcer owns the station-ID timer and the clip → PCM chunk pipeline.
// It decides *when* an announcement is due; the engine decides *whether*
// the channel is free to play it.
type Announcer struct {
	mu           sync.Mutex
	cfg          Config
	lastAnnounce time.Time

	clip        []audio.Chunk
	clipModTime time.Time

	logger zerolog.Logger
}

func NewAnnouncer(cfg Config, logger zerolog.Logger) *Announcer {
	return &Announcer{
		cfg:          cfg,
		lastAnnounce: time.Now(),
		logger:       logger,
	}
}

// Due reports whether a periodic announcement should be attempted now.
func (a *Announcer) Due(now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.Enabled && now.Sub(a.lastAnnounce) >= a.cfg.Interval
}

// MarkAnnounced resets the interval timer.
func (a *Announcer) MarkAnnounced(now time.Time) {
	a.mu.Lock()
	a.lastAnnounce = now
	a.mu.Unlock()
}

// NextAnnounce is the earliest instant the periodic timer will fire again.
func (a *Announcer) NextAnnounce() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastAnnounce.Add(a.cfg.Interval)
}

func (a *Announcer) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.Enabled
}

func (a *Announcer) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.cfg.Enabled = enabled
	a.mu.Unlock()
}

func (a *Announcer) Interval() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.Interval
}

func (a *Announcer) SetInterval(interval time.Duration) {
	a.mu.Lock()
	a.cfg.Interval = interval
	a.mu.Unlock()
}

// ClipPresent reports whether the configured clip exists on disk.
func (a *Announcer) ClipPresent() bool {
	_, err := os.Stat(a.cfg.ClipPath)
	return err == nil
}

// Chunks returns the audio to announce: the configured clip when it loads,
// otherwise a generated tone so the station still identifies.
func (a *Announcer) Chunks() []audio.Chunk {
	clip, err := a.loadClip()
	if err != nil {
		a.logger.Warn().Err(err).Str("clip", a.cfg.ClipPath).Msg("station ID clip unavailable, using tone")
		return Tone(toneFrequency, toneDuration, a.cfg.SampleRate, a.cfg.ChunkSize, toneAmplitude)
	}
	return clip
}

// loadClip decodes, mixes down, resamples and chunks the clip, caching the
// result until the file changes on disk.
func (a *Announcer) loadClip() ([]audio.Chunk, error) {
	info, err := os.Stat(a.cfg.ClipPath)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	if a.clip != nil && info.ModTime().Equal(a.clipModTime) {
		clip := a.clip
		a.mu.Unlock()
		return clip, nil
	}
	a.mu.Unlock()

	f, err := os.Open(a.cfg.ClipPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", a.cfg.ClipPath, err)
	}
	if buf.Format == nil || buf.Format.SampleRate == 0 {
		return nil, fmt.Errorf("decoding %s: missing format", a.cfg.ClipPath)
	}

	samples := toInt16(buf.Data, buf.Format.NumChannels, buf.SourceBitDepth)
	if buf.Format.SampleRate != a.cfg.SampleRate {
		samples = resample(samples, buf.Format.SampleRate, a.cfg.SampleRate)
	}

	if a.cfg.MaxDuration > 0 {
		maxSamples := int(a.cfg.MaxDuration.Seconds() * float64(a.cfg.SampleRate))
		if len(samples) > maxSamples {
			a.logger.Warn().
				Dur("max", a.cfg.MaxDuration).
				Msg("station ID clip too long, truncating")
			samples = samples[:maxSamples]
		}
	}

	clip := chunked(samples, a.cfg.ChunkSize)
	a.mu.Lock()
	a.clip = clip
	a.clipModTime = info.ModTime()
	a.mu.Unlock()

	a.logger.Info().
		Int("chunks", len(clip)).
		Int("source_rate", buf.Format.SampleRate).
		Msg("station ID clip loaded")

	return clip, nil
}

// toInt16 mixes interleaved channels down to mono and rescales the source
// bit depth to 16 bits. 8-bit WAV is unsigned, so sub-16-bit sources are
// re-centered before scaling up.
func toInt16(data []int, channels, bitDepth int) []int16 {
	if channels < 1 {
		channels = 1
	}
	downShift, upShift := uint(0), uint(0)
	offset := 0
	if bitDepth > 16 {
		downShift = uint(bitDepth - 16)
	} else if bitDepth > 0 && bitDepth < 16 {
		upShift = uint(16 - bitDepth)
		offset = 1 << uint(bitDepth-1)
	}

	frames := len(data) / channels
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for ch := 0; ch < channels; ch++ {
			sum += data[i*channels+ch] - offset
		}
		v := ((sum / channels) >> downShift) << upShift
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}

// resample does linear interpolation between rates. Good enough for a voice
// identification clip.
func resample(in []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate || len(in) == 0 {
		return in
	}
	ratio := float64(toRate) / float64(fromRate)
	out := make([]int16, int(float64(len(in))*ratio))
	for i := range out {
		pos := float64(i) / ratio
		idx := int(pos)
		if idx >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = int16(float64(in[idx])*(1-frac) + float64(in[idx+1])*frac)
	}
	return out
}

// chunked splits samples into fixed-size chunks, zero-padding the tail.
func chunked(samples []int16, chunkSize int) []audio.Chunk {
	var out []audio.Chunk
	for start := 0; start < len(samples); start += chunkSize {
		chunk := make(audio.Chunk, chunkSize)
		copy(chunk, samples[start:])
		out = append(out, chunk)
	}
	return out
}

// Tone generates a sine tone split into chunks.
func Tone(freq float64, dur time.Duration, sampleRate, chunkSize int, amplitude int16) []audio.Chunk {
	total := int(dur.Seconds() * float64(sampleRate))
	samples := make([]int16, total)
	for i := range samples {
		samples[i] = int16(float64(amplitude) * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return chunked(samples, chunkSize)
}
