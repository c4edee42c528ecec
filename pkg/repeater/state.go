package repeater

import "time"

// State is what the repeater is doing right now. Exactly one value holds at
// any instant; every worker's behavior is gated by it.
type State int

const (
	StateIdle State = iota
	StateReceiving
	StateTransmitting
	StateAnnouncing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReceiving:
		return "receiving"
	case StateTransmitting:
		return "transmitting"
	case StateAnnouncing:
		return "announcing"
	}
	return "unknown"
}

// Status is the read-only snapshot served to the control surface.
type Status struct {
	CarrierActive  bool    `json:"carrier_active"`
	State          string  `json:"state"`
	KeyerAvailable bool    `json:"keyer_available"`
	InputVolume    float64 `json:"input_volume"`
	OutputVolume   float64 `json:"output_volume"`
	IDEnabled      bool    `json:"id_enabled"`
	IDInterval     int     `json:"id_interval_seconds"`
	IDClipPresent  bool    `json:"id_clip_present"`
	Stats          Stats   `json:"stats"`
}

// Stats counters are incremented by the engine and never reset while the
// process lives.
type Stats struct {
	TotalReceptions    uint64     `json:"total_receptions"`
	TotalTransmissions uint64     `json:"total_transmissions"`
	TotalAnnouncements uint64     `json:"total_announcements"`
	UptimeSeconds      int64      `json:"uptime_seconds"`
	LastActivity       *time.Time `json:"last_activity,omitempty"`
	NextID             *time.Time `json:"next_id,omitempty"`
}
