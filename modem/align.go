package modem

import (
	"math"

	"github.com/charmbracelet/log"
	"github.com/yemson/fask/audio"
	"github.com/yemson/fask/frame"
	"github.com/yemson/fask/tone"
)

const (
	alignPhases  = 16
	alignSymbols = 16
)

// alignSymbolPhase scans sub-symbol start offsets over the head of the buffer
// and returns the one with the cleanest tone separation, measured across the
// first symbols (the preamble region). Recorded buffers carry an unknown
// symbol phase; this recovers it before symbol-by-symbol stepping.
func alignSymbolPhase(samples []float64, c *tone.Classifier) int {
	n := c.WindowLen()
	bestOff, bestScore := 0, -1.0

	for p := 0; p < alignPhases; p++ {
		off := p * n / alignPhases
		var score float64
		var count int
		for s := off; s+n <= len(samples) && count < alignSymbols; s += n {
			d := c.Decide(samples[s : s+n])
			score += math.Abs(d.P1-d.P0) / (d.P0 + d.P1 + 1e-12)
			count++
		}
		if count > 0 && score/float64(count) > bestScore {
			bestScore = score / float64(count)
			bestOff = off
		}
	}

	log.Debugf("[modem] symbol phase alignment: offset %d samples (separation %.3f)", bestOff, bestScore)
	return bestOff
}

// Result is an offline demodulation outcome.
type Result struct {
	Frames  []*frame.Event
	Events  []*frame.Event
	Stats   frame.Stats
	Metrics tone.Metrics
	Quality tone.Diagnosis
}

// Demodulate runs a whole recorded buffer through the receive pipeline:
// optional band-limiting, symbol phase alignment, then one classifier
// decision per symbol window into the frame decoder.
func Demodulate(samples []float64, cfg Config) *Result {
	c := tone.NewClassifier(cfg.SampleRate, cfg.F0, cfg.F1, cfg.SymbolPeriod)
	d := frame.NewDecoder(cfg.LegacyFallback)
	n := c.WindowLen()

	if cfg.FrontEndFilter {
		// Trailing zero padding keeps the filter's group delay from pushing
		// the last symbol past the end of the buffer.
		padded := make([]float64, len(samples)+n)
		copy(padded, samples)
		fe := audio.NewFrontEnd(cfg.SampleRate, frontEndCutoffHz, frontEndTransitionHz)
		samples = fe.Filter(padded)
	}

	res := &Result{}
	if len(samples) < n {
		res.Quality = tone.NoInput
		return res
	}

	off := alignSymbolPhase(samples, c)
	for s := off; s+n <= len(samples); s += n {
		window := samples[s : s+n]
		if ev := d.Push(c.Decide(window).Bit); ev != nil {
			res.Events = append(res.Events, ev)
			if ev.Kind == frame.EventFrame {
				res.Frames = append(res.Frames, ev)
			}
		}
	}

	// Snapshot channel health from the head of the buffer for reporting.
	res.Metrics = c.Analyze(samples[off : off+n])
	res.Quality = tone.Diagnose(res.Metrics)
	res.Stats = d.Stats
	return res
}
