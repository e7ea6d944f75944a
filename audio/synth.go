// Package audio is the sample source and sink of the modem: tone-burst
// synthesis on the send side, WAV files in place of live capture/playback,
// and the band-limiting front-end filter on the receive side.
package audio

import (
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/yemson/fask/bits"
)

// DefaultFade is the linear fade-in/out applied at both edges of every tone
// burst to suppress clicks.
const DefaultFade = 4 * time.Millisecond

const DefaultAmplitude = 0.8

// ToneConfig describes how a bit stream is rendered into samples.
type ToneConfig struct {
	SampleRate   float64
	F0           float64
	F1           float64
	Amplitude    float64
	SymbolPeriod time.Duration
	Fade         time.Duration
}

func (c ToneConfig) withDefaults() ToneConfig {
	if c.Amplitude == 0 {
		c.Amplitude = DefaultAmplitude
	}
	if c.Fade == 0 {
		c.Fade = DefaultFade
	}
	return c
}

// Synthesize renders the bit stream as contiguous constant-amplitude tone
// bursts, f0 for 0 and f1 for 1, each one symbol period long, scheduled
// back-to-back with no inter-symbol gap.
func Synthesize(b *bits.Buffer, cfg ToneConfig) []float64 {
	cfg = cfg.withDefaults()
	perSymbol := int(math.Round(cfg.SampleRate * cfg.SymbolPeriod.Seconds()))
	fadeLen := int(math.Round(cfg.SampleRate * cfg.Fade.Seconds()))
	if fadeLen > perSymbol/2 {
		fadeLen = perSymbol / 2
	}

	out := make([]float64, 0, b.Len()*perSymbol)
	for i := 0; i < b.Len(); i++ {
		freq := cfg.F0
		if b.Bit(i) == 1 {
			freq = cfg.F1
		}
		step := 2 * math.Pi * freq / cfg.SampleRate
		for j := 0; j < perSymbol; j++ {
			s := cfg.Amplitude * math.Sin(float64(j)*step)
			switch {
			case j < fadeLen:
				s *= float64(j) / float64(fadeLen)
			case j >= perSymbol-fadeLen:
				s *= float64(perSymbol-1-j) / float64(fadeLen)
			}
			out = append(out, s)
		}
	}

	log.Debugf("[audio] synthesized %d bits into %d samples (%d per symbol, fade %d)",
		b.Len(), len(out), perSymbol, fadeLen)
	return out
}
