// ABOUTME: Sine tone generator for the audible cue
// ABOUTME: Renders a short 16-bit little-endian PCM buffer
package action

import (
	"encoding/binary"
	"math"
	"time"
)

const (
	DefaultSampleRate = 48000
	DefaultChannels   = 2
)

// Tone describes a sine burst.
type Tone struct {
	Frequency  float64
	Duration   time.Duration
	Volume     float64 // 0..1
	SampleRate int
	Channels   int
}

// DefaultTone is a 150ms A5 at half volume.
func DefaultTone() Tone {
	return Tone{
		Frequency:  880.0,
		Duration:   150 * time.Millisecond,
		Volume:     0.5,
		SampleRate: DefaultSampleRate,
		Channels:   DefaultChannels,
	}
}

// PCM renders the tone as signed 16-bit little-endian interleaved samples.
func (t Tone) PCM() []byte {
	frames := int(t.Duration.Seconds() * float64(t.SampleRate))
	out := make([]byte, frames*t.Channels*2)

	for i := 0; i < frames; i++ {
		sample := math.Sin(2 * math.Pi * t.Frequency * float64(i) / float64(t.SampleRate))
		v := int16(sample * 32767.0 * clamp(t.Volume))
		for ch := 0; ch < t.Channels; ch++ {
			binary.LittleEndian.PutUint16(out[(i*t.Channels+ch)*2:], uint16(v))
		}
	}
	return out
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
