package config

import "time"

// Config is the YAML configuration surface. Durations are nanosecond
// integers in the file.
type Config struct {
	SampleRate    int `yaml:"sample_rate"`
	ChunkSize     int `yaml:"chunk_size"`
	PreRollChunks int `yaml:"pre_roll_chunks"`

	CarrierPollInterval time.Duration `yaml:"carrier_poll_interval"`
	KeySettleDelay      time.Duration `yaml:"key_settle_delay"`
	PlaybackGuardDelay  time.Duration `yaml:"playback_guard_delay"`

	InputVolume  float64 `yaml:"input_volume"`
	OutputVolume float64 `yaml:"output_volume"`

	PausePrerollDuringTX bool `yaml:"pause_preroll_during_tx"`

	AudioDeviceKeywords []string `yaml:"audio_device_keywords,flow"`

	Keyer struct {
		Candidates []KeyerCandidate `yaml:"candidates"`
	} `yaml:"keyer"`

	ID struct {
		Enabled         bool          `yaml:"enabled"`
		Interval        time.Duration `yaml:"interval"`
		Clip            string        `yaml:"clip"`
		MaxClipDuration time.Duration `yaml:"max_clip_duration"`
	} `yaml:"id"`

	Web struct {
		Port int `yaml:"port"`
	} `yaml:"web"`

	InfluxDB struct {
		Host         string `yaml:"host"`
		Organization string `yaml:"organization"`
		Bucket       string `yaml:"bucket"`
	} `yaml:"influxdb"`
}

// KeyerCandidate is one USB VID/PID pair to probe for the keying accessory.
type KeyerCandidate struct {
	Vendor  uint16 `yaml:"vendor"`
	Product uint16 `yaml:"product"`
}

// Default returns the configuration matching the reference SHARI SA818
// hardware. The config file overrides any of it.
func Default() Config {
	var c Config
	c.SampleRate = 44100
	c.ChunkSize = 512
	c.PreRollChunks = 15
	c.CarrierPollInterval = 20 * time.Millisecond
	c.KeySettleDelay = 100 * time.Millisecond
	c.PlaybackGuardDelay = 100 * time.Millisecond
	c.InputVolume = 1.0
	c.OutputVolume = 1.2
	c.AudioDeviceKeywords = []string{"usb audio", "cm108", "c-media"}
	c.ID.Enabled = true
	c.ID.Interval = 10 * time.Minute
	c.ID.Clip = "station_id.wav"
	c.ID.MaxClipDuration = 10 * time.Second
	c.Web.Port = 5000
	return c
}
