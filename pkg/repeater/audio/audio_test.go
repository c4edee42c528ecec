package audio

import (
	"reflect"
	"testing"
)

func TestApplyGain(t *testing.T) {
	tests := []struct {
		name   string
		in     Chunk
		factor float64
		want   Chunk
	}{{
		"identity",
		Chunk{-32768, -1, 0, 1, 32767},
		1.0,
		Chunk{-32768, -1, 0, 1, 32767},
	}, {
		"double",
		Chunk{100, -250, 0},
		2.0,
		Chunk{200, -500, 0},
	}, {
		"saturates high",
		Chunk{30000},
		2.0,
		Chunk{32767},
	}, {
		"saturates low",
		Chunk{-30000},
		2.0,
		Chunk{-32768},
	}, {
		"mute",
		Chunk{12345, -12345},
		0.0,
		Chunk{0, 0},
	}, {
		"attenuate",
		Chunk{1000},
		0.5,
		Chunk{500},
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ApplyGain(tt.in, tt.factor); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ApplyGain() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyGainDoesNotMutateInput(t *testing.T) {
	in := Chunk{1000, 2000}
	ApplyGain(in, 2.0)
	if in[0] != 1000 || in[1] != 2000 {
		t.Errorf("input chunk was modified: %v", in)
	}
}

func TestSilence(t *testing.T) {
	s := Silence(512)
	if len(s) != 512 {
		t.Fatalf("len = %d, want 512", len(s))
	}
	for i, v := range s {
		if v != 0 {
			t.Fatalf("sample %d = %d, want 0", i, v)
		}
	}
}
