// ABOUTME: Audible cue action played through oto
// ABOUTME: Opens the audio device up front so firing only starts playback
package action

import (
	"bytes"
	"fmt"
	"log"

	"github.com/ebitengine/oto/v3"
)

// Beeper plays a pre-rendered tone. oto allows one context per process, so
// create at most one Beeper.
type Beeper struct {
	ctx *oto.Context
	pcm []byte
}

// NewBeeper opens the audio device and renders tone. It blocks until the
// device is ready so the first Fire is not delayed by setup.
func NewBeeper(tone Tone) (*Beeper, error) {
	op := &oto.NewContextOptions{
		SampleRate:   tone.SampleRate,
		ChannelCount: tone.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	log.Printf("Audio cue ready: %.0fHz for %v", tone.Frequency, tone.Duration)
	return &Beeper{ctx: ctx, pcm: tone.PCM()}, nil
}

// Fire starts playback and returns without waiting for it to finish.
func (b *Beeper) Fire() {
	player := b.ctx.NewPlayer(bytes.NewReader(b.pcm))
	player.Play()
}

// Func returns Fire as an action.
func (b *Beeper) Func() Func {
	return b.Fire
}
