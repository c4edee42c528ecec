package device

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// scriptedKeyer returns a fixed sequence of carrier readings, repeating the
// last one once the script runs out.
type scriptedKeyer struct {
	mu      sync.Mutex
	reads   []bool
	pos     int
	keyed   []bool
	lastKey bool
}

func (s *scriptedKeyer) SetKey(active bool) error {
	s.mu.Lock()
	s.keyed = append(s.keyed, active)
	s.lastKey = active
	s.mu.Unlock()
	return nil
}

func (s *scriptedKeyer) ReadCarrier() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos < len(s.reads) {
		v := s.reads[s.pos]
		s.pos++
		return v
	}
	if len(s.reads) == 0 {
		return false
	}
	return s.reads[len(s.reads)-1]
}

func (s *scriptedKeyer) Connected() bool { return true }
func (s *scriptedKeyer) Close() error    { return nil }

func TestMonitorEmitsOnlyEdges(t *testing.T) {
	keyer := &scriptedKeyer{reads: []bool{false, false, true, true, true, false, false}}
	m := NewMonitor(keyer, time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	var events []Event
	timeout := time.After(time.Second)
	for len(events) < 2 {
		select {
		case ev := <-m.Events():
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("timed out after %d events", len(events))
		}
	}
	cancel()
	<-done

	if !events[0].Active {
		t.Errorf("first event should be carrier asserted")
	}
	if events[1].Active {
		t.Errorf("second event should be carrier released")
	}

	// Steady false readings after the script must produce nothing further.
	select {
	case ev := <-m.Events():
		t.Errorf("unexpected extra event: %+v", ev)
	default:
	}
}

func TestMonitorStopJoins(t *testing.T) {
	keyer := &scriptedKeyer{}
	m := NewMonitor(keyer, time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
