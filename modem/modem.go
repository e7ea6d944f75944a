// Package modem ties the pipeline together: text to waveform on the send
// side, and sample buffers through tone classification into the frame
// decoder on the receive side.
package modem

import (
	"time"

	"github.com/yemson/fask/tone"
)

// Config carries the caller-owned knobs of a modem session. The carriers are
// fixed by the wire format; they are parameters here so tests can move them.
type Config struct {
	SampleRate   float64
	F0           float64
	F1           float64
	SymbolPeriod time.Duration
	Amplitude    float64

	// LegacyFallback lets the receive side also accept v2 frames.
	LegacyFallback bool

	// FrontEndFilter band-limits captured audio before classification.
	FrontEndFilter bool

	// Gate suppresses bit consumption while the channel quality sits below
	// the thresholds. Nil thresholds fall back to the tone package defaults;
	// an explicit zero is a real threshold (0 dBFS is full scale).
	Gate           bool
	MinRMSDb       *float64
	MinSNR         *float64
	MinToneDeltaDb *float64
}

func (c Config) gateThresholds() (rmsDb, snr, deltaDb float64) {
	rmsDb, snr, deltaDb = tone.NoInputRMSDb, tone.MinSNR, tone.MinToneDeltaDb
	if c.MinRMSDb != nil {
		rmsDb = *c.MinRMSDb
	}
	if c.MinSNR != nil {
		snr = *c.MinSNR
	}
	if c.MinToneDeltaDb != nil {
		deltaDb = *c.MinToneDeltaDb
	}
	return rmsDb, snr, deltaDb
}

// Front-end low-pass design, matched to the classifier's analysis ceiling.
const (
	frontEndCutoffHz     = 4000.0
	frontEndTransitionHz = 500.0
)
