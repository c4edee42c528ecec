// Package repeater implements the store-and-forward relay engine: it records
// a transmission while the receiver's carrier is up and keys the transmitter
// to replay it once the channel goes quiet.
package repeater

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sa7bnb/repeater/pkg/repeater/audio"
	"github.com/sa7bnb/repeater/pkg/repeater/device"
	"github.com/sa7bnb/repeater/pkg/util"
)

// ErrBusy is returned when an announcement is requested while the channel
// is not idle. The periodic timer simply retries on its next tick.
var ErrBusy = errors.New("channel busy")

// AudioOpener opens the blocking PCM streams the engine relays through.
// Satisfied by audio.Engine.
type AudioOpener interface {
	OpenInput() (audio.Input, error)
	OpenOutput() (audio.Output, error)
}

// Announcer supplies station identification audio and its schedule.
// Satisfied by ident.Announcer.
type Announcer interface {
	Due(now time.Time) bool
	MarkAnnounced(now time.Time)
	NextAnnounce() time.Time
	Enabled() bool
	SetEnabled(enabled bool)
	Interval() time.Duration
	SetInterval(interval time.Duration)
	ClipPresent() bool
	Chunks() []audio.Chunk
}

// Repeater owns the relay state machine and every buffer attached to it.
// All state transitions happen under one mutex so no reader ever observes a
// half-updated recording.
type Repeater struct {
	opts      Options
	keyer     device.Keyer
	audio     AudioOpener
	announcer Announcer
	monitor   *device.Monitor
	writeAPI  api.WriteAPI
	logger    zerolog.Logger

	in   audio.Input
	out  audio.Output
	ring *audio.Ring

	mu            sync.Mutex
	state         State
	recording     []audio.Chunk
	carrierActive bool
	inputGain     float64
	outputGain    float64

	totalReceptions    uint64
	totalTransmissions uint64
	totalAnnouncements uint64
	started            time.Time
	lastActivity       time.Time

	playbackWG sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

type RepeaterOption func(r *Repeater) error

func WithInfluxDB(writeAPI api.WriteAPI) RepeaterOption {
	return func(r *Repeater) error {
		r.writeAPI = writeAPI
		return nil
	}
}

func WithLogger(logger zerolog.Logger) RepeaterOption {
	return func(r *Repeater) error {
		r.logger = logger
		return nil
	}
}

func New(keyer device.Keyer, opener AudioOpener, announcer Announcer, options Options, opts ...RepeaterOption) (*Repeater, error) {
	if options.SampleRate == 0 || options.ChunkSize == 0 || options.PreRollChunks == 0 {
		return nil, fmt.Errorf("must specify sample rate, chunk size, and pre-roll depth")
	}

	r := &Repeater{
		opts:       options,
		keyer:      keyer,
		audio:      opener,
		announcer:  announcer,
		writeAPI:   &util.MockWriteAPI{}, // overwritten with option
		logger:     log.Logger,
		ring:       audio.NewRing(options.PreRollChunks),
		inputGain:  options.InputVolume,
		outputGain: options.OutputVolume,
		started:    time.Now(),
	}
	// Replaced in Start; keeps Stop safe if it ever runs first.
	r.ctx, r.cancel = context.WithCancel(context.Background())

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	r.monitor = device.NewMonitor(keyer, options.CarrierPollInterval, r.logger)
	return r, nil
}

// Stop cancels the workers and forces the key line down. Safe to call while
// Start is still running; Start's own teardown repeats the key release.
func (r *Repeater) Stop() error {
	r.cancel()
	return r.keyer.SetKey(false)
}

// Start runs the workers until ctx is canceled or one of them fails.
// Teardown order matters: join the loops first, then force the key line
// down, then close the streams, so the process can never exit keyed.
func (r *Repeater) Start(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	r.ctx, r.cancel = context.WithCancel(ctx)

	var err error
	if r.in, err = r.audio.OpenInput(); err != nil {
		return fmt.Errorf("opening capture stream: %w", err)
	}
	if r.out, err = r.audio.OpenOutput(); err != nil {
		r.in.Close()
		return fmt.Errorf("opening playback stream: %w", err)
	}

	// Known-safe starting point.
	if err := r.keyer.SetKey(false); err != nil {
		r.logger.Warn().Err(err).Msg("could not release key line at startup")
	}

	eg.Go(func() error { return r.monitor.Run(r.ctx) })
	eg.Go(r.consumeEvents)
	eg.Go(r.captureLoop)
	eg.Go(r.announceLoop)

	r.logger.Info().
		Int("sample_rate", r.opts.SampleRate).
		Int("chunk_size", r.opts.ChunkSize).
		Int("pre_roll_chunks", r.opts.PreRollChunks).
		Bool("keyer", r.keyer.Connected()).
		Msg("repeater starting")

	werr := eg.Wait()

	r.playbackWG.Wait()
	if err := r.keyer.SetKey(false); err != nil {
		r.logger.Error().Err(err).Msg("could not release key line at shutdown")
	}
	r.in.Close()
	r.out.Close()

	return werr
}

// captureLoop continuously samples the input into the pre-roll ring and,
// while a reception is open, appends to the live recording.
func (r *Repeater) captureLoop() error {
	for {
		select {
		case <-r.ctx.Done():
			return r.ctx.Err()
		default:
		}

		chunk, err := r.in.ReadChunk()
		if err != nil {
			// Transient stream errors must not kill the worker.
			r.logger.Warn().Err(err).Msg("capture read failed")
			select {
			case <-r.ctx.Done():
				return r.ctx.Err()
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		chunk = audio.ApplyGain(chunk, r.InputVolume())

		r.mu.Lock()
		transmitting := r.state == StateTransmitting || r.state == StateAnnouncing
		if !(r.opts.PausePrerollDuringTX && transmitting) {
			r.ring.Push(chunk)
		}
		if r.state == StateReceiving {
			r.recording = append(r.recording, chunk)
		}
		r.mu.Unlock()
	}
}

// consumeEvents applies carrier transitions to the state machine in the
// exact order the monitor observed them.
func (r *Repeater) consumeEvents() error {
	for {
		select {
		case <-r.ctx.Done():
			return r.ctx.Err()
		case ev := <-r.monitor.Events():
			r.carrierChanged(ev.Active, ev.At)
		}
	}
}

func (r *Repeater) carrierChanged(active bool, at time.Time) {
	go r.writeAPI.WritePoint(influxdb2.NewPoint("repeater.carrier",
		map[string]string{},
		map[string]interface{}{"active": active},
		at))

	if active {
		r.mu.Lock()
		r.carrierActive = true
		if r.state != StateIdle {
			// Simplex lockout: while we transmit, the carrier we detect is
			// our own signal. Never reinterpret it as a reception.
			state := r.state
			r.mu.Unlock()
			r.logger.Debug().Stringer("state", state).Msg("carrier asserted, suppressed")
			return
		}
		r.recording = r.ring.Snapshot()
		r.state = StateReceiving
		r.totalReceptions++
		r.lastActivity = at
		preRoll := len(r.recording)
		r.mu.Unlock()

		r.logger.Info().Int("pre_roll_chunks", preRoll).Msg("carrier asserted, recording")
		return
	}

	r.mu.Lock()
	r.carrierActive = false
	if r.state != StateReceiving {
		r.mu.Unlock()
		return
	}
	rec := r.recording
	r.recording = nil
	r.state = StateIdle
	r.mu.Unlock()

	r.logger.Info().Int("chunks", len(rec)).Msg("carrier released")

	go r.writeAPI.WritePoint(influxdb2.NewPoint("repeater.reception",
		map[string]string{},
		map[string]interface{}{
			"chunks":  len(rec),
			"samples": len(rec) * r.opts.ChunkSize,
		}, time.Now()))

	if len(rec) == 0 {
		return
	}

	// Guard delay lets key-up/key-down chatter settle before we take the
	// channel. If the carrier comes back in the meantime, the new reception
	// wins and this playback is dropped in transmit.
	r.playbackWG.Add(1)
	go func() {
		defer r.playbackWG.Done()
		select {
		case <-r.ctx.Done():
			return
		case <-time.After(r.opts.PlaybackGuardDelay):
		}
		r.transmit(rec)
	}()
}

// transmit replays one frozen recording, keying the transmitter for the
// duration. The recording is never mutated once it reaches this point.
func (r *Repeater) transmit(rec []audio.Chunk) {
	r.mu.Lock()
	if r.state != StateIdle {
		state := r.state
		r.mu.Unlock()
		r.logger.Debug().Stringer("state", state).Msg("channel taken during guard delay, dropping relay")
		return
	}
	r.state = StateTransmitting
	r.totalTransmissions++
	r.mu.Unlock()

	var perr error
	elapsed := util.TimeOperationMicroseconds(func() {
		perr = r.playback(rec)
	})
	if perr != nil {
		r.logger.Error().Err(perr).Msg("relay playback aborted")
	} else {
		r.logger.Info().Int("chunks", len(rec)).Int64("duration_us", elapsed).Msg("relay complete")
	}

	go r.writeAPI.WritePoint(influxdb2.NewPoint("repeater.transmission",
		map[string]string{"kind": "relay"},
		map[string]interface{}{
			"chunks":      len(rec),
			"duration_us": elapsed,
			"aborted":     perr != nil,
		}, time.Now()))

	r.mu.Lock()
	r.state = StateIdle
	r.mu.Unlock()
}

// Announce plays the station identification if the channel is idle right
// now; otherwise it reports ErrBusy and does nothing.
func (r *Repeater) Announce() error {
	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return ErrBusy
	}
	r.state = StateAnnouncing
	r.totalAnnouncements++
	r.mu.Unlock()

	// Loaded only once the channel is ours; a busy tick must not pay for
	// clip decoding.
	chunks := r.announcer.Chunks()

	r.announcer.MarkAnnounced(time.Now())

	r.playbackWG.Add(1)
	go func() {
		defer r.playbackWG.Done()

		var perr error
		elapsed := util.TimeOperationMicroseconds(func() {
			perr = r.playback(chunks)
		})
		if perr != nil {
			r.logger.Error().Err(perr).Msg("station ID playback aborted")
		} else {
			r.logger.Info().Int("chunks", len(chunks)).Int64("duration_us", elapsed).Msg("station ID complete")
		}

		go r.writeAPI.WritePoint(influxdb2.NewPoint("repeater.transmission",
			map[string]string{"kind": "station_id"},
			map[string]interface{}{
				"chunks":      len(chunks),
				"duration_us": elapsed,
				"aborted":     perr != nil,
			}, time.Now()))

		r.mu.Lock()
		r.state = StateIdle
		r.mu.Unlock()
	}()

	return nil
}

// announceLoop fires periodic identifications. A busy channel is not an
// error; the next tick retries.
func (r *Repeater) announceLoop() error {
	for {
		select {
		case <-r.ctx.Done():
			return r.ctx.Err()
		case <-time.After(time.Second):
			if !r.announcer.Due(time.Now()) {
				continue
			}
			if err := r.Announce(); err != nil && !errors.Is(err, ErrBusy) {
				r.logger.Error().Err(err).Msg("periodic station ID failed")
			}
		}
	}
}

func (r *Repeater) InputVolume() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inputGain
}

func (r *Repeater) OutputVolume() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outputGain
}

func (r *Repeater) SetInputVolume(v float64) {
	r.mu.Lock()
	r.inputGain = clampGain(v)
	r.mu.Unlock()
}

func (r *Repeater) SetOutputVolume(v float64) {
	r.mu.Lock()
	r.outputGain = clampGain(v)
	r.mu.Unlock()
}

func clampGain(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 2 {
		return 2
	}
	return v
}

func (r *Repeater) SetIDEnabled(enabled bool) { r.announcer.SetEnabled(enabled) }

func (r *Repeater) SetIDInterval(interval time.Duration) { r.announcer.SetInterval(interval) }

// Status assembles the read-only snapshot for the control surface.
func (r *Repeater) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := Stats{
		TotalReceptions:    r.totalReceptions,
		TotalTransmissions: r.totalTransmissions,
		TotalAnnouncements: r.totalAnnouncements,
		UptimeSeconds:      int64(time.Since(r.started).Seconds()),
	}
	if !r.lastActivity.IsZero() {
		la := r.lastActivity
		stats.LastActivity = &la
	}
	if r.announcer.Enabled() {
		next := r.announcer.NextAnnounce()
		stats.NextID = &next
	}

	return Status{
		CarrierActive:  r.carrierActive,
		State:          r.state.String(),
		KeyerAvailable: r.keyer.Connected(),
		InputVolume:    r.inputGain,
		OutputVolume:   r.outputGain,
		IDEnabled:      r.announcer.Enabled(),
		IDInterval:     int(r.announcer.Interval().Seconds()),
		IDClipPresent:  r.announcer.ClipPresent(),
		Stats:          stats,
	}
}
