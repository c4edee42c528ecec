package repeater

import "time"

// Options fix the audio contract and real-time tuning for the process
// lifetime. Volumes are only the initial values; they move at runtime.
type Options struct {
	SampleRate    int
	ChunkSize     int
	PreRollChunks int

	CarrierPollInterval time.Duration
	KeySettleDelay      time.Duration
	PlaybackGuardDelay  time.Duration

	InputVolume  float64
	OutputVolume float64

	// PausePrerollDuringTX stops feeding the pre-roll ring while the
	// repeater itself is transmitting, so our own audio cannot leak into
	// the next reception's pre-roll. Off by default to match the original
	// behavior.
	PausePrerollDuringTX bool
}
