package repeater

import (
	"fmt"
	"time"

	"github.com/sa7bnb/repeater/pkg/repeater/audio"
)

// playback keys the transmitter and writes the chunks to the output stream
// with output gain applied, bracketed by one chunk of silence on each side
// to swallow amplifier clicks. Gain is re-read for every chunk so volume
// changes land mid-transmission. The key line is released exactly once, on
// every path out of here, including mid-write failures.
func (r *Repeater) playback(chunks []audio.Chunk) error {
	if err := r.keyer.SetKey(true); err != nil {
		r.logger.Warn().Err(err).Msg("key assert failed, playing unkeyed")
	}
	defer func() {
		if err := r.keyer.SetKey(false); err != nil {
			r.logger.Error().Err(err).Msg("key release failed")
		}
	}()

	time.Sleep(r.opts.KeySettleDelay)

	silence := audio.Silence(r.opts.ChunkSize)
	if err := r.out.WriteChunk(silence); err != nil {
		return fmt.Errorf("writing lead-in silence: %w", err)
	}

	for i, chunk := range chunks {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		if err := r.out.WriteChunk(audio.ApplyGain(chunk, r.OutputVolume())); err != nil {
			return fmt.Errorf("writing chunk %d of %d: %w", i+1, len(chunks), err)
		}
	}

	if err := r.out.WriteChunk(silence); err != nil {
		return fmt.Errorf("writing trailing silence: %w", err)
	}

	time.Sleep(r.opts.KeySettleDelay)
	return nil
}
