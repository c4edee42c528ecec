package audio

// Chunk is one fixed-length block of 16-bit signed mono PCM samples.
// Chunks are treated as immutable once produced: every transform returns
// a new Chunk and leaves its input untouched.
type Chunk []int16

// StreamConfig describes the PCM contract both stream directions are bound to.
type StreamConfig struct {
	SampleRate int
	ChunkSize  int
	// DeviceKeywords select the soundcard by substring match against the
	// enumerated device names. Empty means default device.
	DeviceKeywords []string
}

// Input is a blocking capture stream producing one Chunk per read.
type Input interface {
	// ReadChunk blocks for roughly ChunkSize/SampleRate seconds. An input
	// overflow is not an error: the stream drops what it missed and keeps
	// going, favoring continuity over completeness.
	ReadChunk() (Chunk, error)
	Close() error
}

// Output is a blocking playback stream consuming one Chunk per write.
type Output interface {
	WriteChunk(Chunk) error
	Close() error
}

// Silence returns an all-zero chunk of n samples.
func Silence(n int) Chunk {
	return make(Chunk, n)
}

// ApplyGain scales every sample by factor, saturating at the int16 range
// instead of wrapping. The input chunk is not modified.
func ApplyGain(c Chunk, factor float64) Chunk {
	out := make(Chunk, len(c))
	for i, s := range c {
		v := int32(float64(s) * factor)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}
