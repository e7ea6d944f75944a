package modem

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/yemson/fask/frame"
	"github.com/yemson/fask/tone"
)

// Update is what one scheduling tick of the receive loop surfaces. Metrics
// and Quality are recomputed on every tick; Event is only present when the
// decoder consumed a bit and that bit produced something observable.
type Update struct {
	Metrics tone.Metrics
	Quality tone.Diagnosis

	BitConsumed bool
	Event       *frame.Event

	// WeakSignal is set when the quality gate suppressed bit consumption.
	WeakSignal bool
	// GateReset is set when the gate abandoned a partially matched frame.
	GateReset bool
	// SkippedSymbols counts symbol periods dropped because the loop stalled.
	SkippedSymbols int
}

// Receiver drives the decode path from a cooperative sampling loop. It is
// exclusively owned by one receiving session; to change protocol options,
// construct a fresh Receiver.
type Receiver struct {
	cfg        Config
	classifier *tone.Classifier
	decoder    *frame.Decoder

	started    bool
	lastSymbol time.Time
}

func NewReceiver(cfg Config) *Receiver {
	return &Receiver{
		cfg:        cfg,
		classifier: tone.NewClassifier(cfg.SampleRate, cfg.F0, cfg.F1, cfg.SymbolPeriod),
		decoder:    frame.NewDecoder(cfg.LegacyFallback),
	}
}

// Stats returns a copy of the decoder's counters.
func (r *Receiver) Stats() frame.Stats {
	return r.decoder.Stats
}

// WindowLen is the sample count Tick expects per call.
func (r *Receiver) WindowLen() int {
	return r.classifier.WindowLen()
}

// Tick processes the newest symbol window at time now. Metrics are always
// recomputed; a bit is fed to the decoder only when at least one full symbol
// period elapsed since the last consumed bit. When the loop was stalled for
// several periods the time reference advances by the whole number of elapsed
// periods and at most one fresh decision is consumed; the missed symbols are
// dropped, not replayed (the decoder resynchronizes if the drop broke a
// frame).
func (r *Receiver) Tick(now time.Time, window []float64) Update {
	m := r.classifier.Analyze(window)
	u := Update{Metrics: m, Quality: tone.Diagnose(m)}

	if !r.started {
		r.started = true
		r.lastSymbol = now
		return u
	}

	elapsed := now.Sub(r.lastSymbol)
	if elapsed < r.cfg.SymbolPeriod {
		return u
	}
	periods := int(elapsed / r.cfg.SymbolPeriod)
	r.lastSymbol = r.lastSymbol.Add(time.Duration(periods) * r.cfg.SymbolPeriod)
	u.SkippedSymbols = periods - 1
	if u.SkippedSymbols > 0 {
		log.Debugf("[modem] sampling loop stalled, dropped %d symbol(s)", u.SkippedSymbols)
	}

	if r.cfg.Gate && r.gated(m) {
		u.WeakSignal = true
		if r.decoder.MidFrame() {
			// A clean resync beats feeding garbage into a half-matched frame.
			r.decoder.Reset()
			u.GateReset = true
			log.Debugf("[modem] weak signal mid-frame, decoder reset")
		}
		return u
	}

	dec := r.classifier.Decide(window)
	u.BitConsumed = true
	u.Event = r.decoder.Push(dec.Bit)
	return u
}

func (r *Receiver) gated(m tone.Metrics) bool {
	rmsDb, snr, deltaDb := r.cfg.gateThresholds()
	return m.RMSDb < rmsDb || (m.SNR < snr && m.ToneDeltaDb < deltaDb)
}
