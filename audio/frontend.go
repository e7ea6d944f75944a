package audio

import (
	"github.com/charmbracelet/log"
	"github.com/racerxdl/segdsp/dsp"
)

// FrontEnd band-limits captured audio ahead of tone classification, cutting
// energy above the analysis ceiling so out-of-band noise cannot skew the
// spectrum metrics. Blocks can be streamed through it; filter history carries
// across calls.
type FrontEnd struct {
	fir *dsp.FirFilter
}

func NewFrontEnd(sampleRate, cutoffHz, transitionHz float64) *FrontEnd {
	taps := dsp.MakeLowPass(1, sampleRate, cutoffHz, transitionHz)
	log.Debugf("[audio] front-end low-pass: cutoff %.0f Hz, transition %.0f Hz, %d taps",
		cutoffHz, transitionHz, len(taps))
	return &FrontEnd{fir: dsp.MakeFirFilter(taps)}
}

func (f *FrontEnd) Filter(samples []float64) []float64 {
	in := make([]complex64, len(samples))
	for i, s := range samples {
		in[i] = complex(float32(s), 0)
	}
	out := f.fir.Work(in)
	res := make([]float64, len(out))
	for i, c := range out {
		res[i] = float64(real(c))
	}
	return res
}
