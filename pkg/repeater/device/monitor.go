package device

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Event is one carrier-detect transition as observed by the Monitor.
type Event struct {
	Active bool
	At     time.Time
}

// Monitor polls a Keyer's carrier-detect bit at a fixed interval and emits
// an Event only when the value changes. Consumers see edges, never polling
// noise, and events arrive strictly in observation order.
type Monitor struct {
	keyer    Keyer
	interval time.Duration
	events   chan Event
	last     bool
	logger   zerolog.Logger
}

func NewMonitor(keyer Keyer, interval time.Duration, logger zerolog.Logger) *Monitor {
	return &Monitor{
		keyer:    keyer,
		interval: interval,
		events:   make(chan Event, 16),
		logger:   logger,
	}
}

// Events returns the transition stream. Single producer, single consumer.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// Run polls until ctx is canceled. Returning only between iterations means
// a caller that waits on Run never tears down the keyer mid-read.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info().
		Dur("interval", m.interval).
		Bool("hardware", m.keyer.Connected()).
		Msg("carrier monitor starting")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.interval):
			current := m.keyer.ReadCarrier()
			if current == m.last {
				continue
			}
			m.last = current
			select {
			case <-ctx.Done():
				return ctx.Err()
			case m.events <- Event{Active: current, At: time.Now()}:
			}
		}
	}
}
