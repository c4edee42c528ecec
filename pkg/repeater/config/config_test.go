package config

import (
	"testing"
	"time"

	"gopkg.in/yaml.v2"
)

func TestDefaults(t *testing.T) {
	c := Default()
	if c.SampleRate != 44100 || c.ChunkSize != 512 || c.PreRollChunks != 15 {
		t.Errorf("unexpected audio defaults: %+v", c)
	}
	if c.OutputVolume != 1.2 {
		t.Errorf("output volume default = %f, want 1.2", c.OutputVolume)
	}
	if c.ID.Interval != 10*time.Minute {
		t.Errorf("ID interval default = %v, want 10m", c.ID.Interval)
	}
}

func TestUnmarshalOverridesDefaults(t *testing.T) {
	doc := `
sample_rate: 22050
carrier_poll_interval: 10000000
keyer:
  candidates:
    - {vendor: 0x0d8c, product: 0x0012}
id:
  enabled: false
  clip: my_id.wav
web:
  port: 8080
`
	c := Default()
	if err := yaml.Unmarshal([]byte(doc), &c); err != nil {
		t.Fatal(err)
	}

	if c.SampleRate != 22050 {
		t.Errorf("sample_rate = %d, want 22050", c.SampleRate)
	}
	if c.ChunkSize != 512 {
		t.Errorf("chunk_size default lost: %d", c.ChunkSize)
	}
	if c.CarrierPollInterval != 10*time.Millisecond {
		t.Errorf("carrier_poll_interval = %v, want 10ms", c.CarrierPollInterval)
	}
	if len(c.Keyer.Candidates) != 1 || c.Keyer.Candidates[0].Vendor != 0x0d8c {
		t.Errorf("keyer candidates = %+v", c.Keyer.Candidates)
	}
	if c.ID.Enabled || c.ID.Clip != "my_id.wav" {
		t.Errorf("id config = %+v", c.ID)
	}
	if c.Web.Port != 8080 {
		t.Errorf("web port = %d, want 8080", c.Web.Port)
	}
}
