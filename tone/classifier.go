// Package tone turns fixed-duration sample windows into bit decisions and
// channel-health metrics. Bit decisions come from Goertzel single-bin power
// at the two carriers; health metrics come from a separate magnitude-spectrum
// view and never influence the bit decision itself.
package tone

import (
	"math"
	"math/cmplx"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/stat"
)

// Spectrum bins above this frequency are ignored by the health metrics; both
// carriers sit well below it.
const analysisCeilingHz = 4000.0

const powerEpsilon = 1e-12

// Metrics is an ephemeral per-window snapshot. It is recomputed every sample
// cycle and is not part of any protocol state.
type Metrics struct {
	RMSDb        float64
	P0           float64
	P1           float64
	SNR          float64
	ToneDeltaDb  float64
	PeakHz       float64
	PeakDb       float64
	NoiseFloorDb float64
}

// Decision is the per-symbol output of the classifier.
type Decision struct {
	Bit byte
	P0  float64
	P1  float64
	SNR float64
}

type Classifier struct {
	sampleRate float64
	f0         float64
	f1         float64
	windowLen  int

	fft   *fourier.FFT
	taper []float64
	binHz float64
}

// NewClassifier sizes the analysis window to one symbol period at the given
// sample rate.
func NewClassifier(sampleRate, f0, f1 float64, symbolPeriod time.Duration) *Classifier {
	n := int(math.Round(sampleRate * symbolPeriod.Seconds()))

	// Hann coefficients, captured by windowing a run of ones.
	taper := make([]float64, n)
	for i := range taper {
		taper[i] = 1
	}
	window.Hann(taper)

	log.Debugf("[tone] classifier window: %d samples (%.0f Hz, Ts=%s), carriers %.0f/%.0f Hz",
		n, sampleRate, symbolPeriod, f0, f1)

	return &Classifier{
		sampleRate: sampleRate,
		f0:         f0,
		f1:         f1,
		windowLen:  n,
		fft:        fourier.NewFFT(n),
		taper:      taper,
		binHz:      sampleRate / float64(n),
	}
}

// WindowLen is the number of samples one symbol decision consumes.
func (c *Classifier) WindowLen() int {
	return c.windowLen
}

// goertzelPower estimates signal power at freq over samples with a single-bin
// DFT, O(len(samples)) per tone.
func goertzelPower(samples []float64, freq, sampleRate float64) float64 {
	n := len(samples)
	if n == 0 {
		return 0
	}
	k := math.Floor(0.5 + float64(n)*freq/sampleRate)
	coeff := 2 * math.Cos(2*math.Pi*k/float64(n))

	var s1, s2 float64
	for _, x := range samples {
		s0 := x + coeff*s1 - s2
		s2, s1 = s1, s0
	}
	return s1*s1 + s2*s2 - coeff*s1*s2
}

// Decide classifies one symbol window. Three overlapping sub-windows centered
// at 25%, 50% and 75% of the symbol each vote, so a single noisy stretch near
// a symbol edge cannot flip the decision on its own.
func (c *Classifier) Decide(samples []float64) Decision {
	n := len(samples)
	half := n / 2
	quarter := n / 4

	subs := [3][]float64{
		samples[:half],
		samples[quarter : quarter+half],
		samples[n-half:],
	}

	var ones int
	var p0Sum, p1Sum float64
	for _, sub := range subs {
		p0 := goertzelPower(sub, c.f0, c.sampleRate)
		p1 := goertzelPower(sub, c.f1, c.sampleRate)
		p0Sum += p0
		p1Sum += p1
		if p1 > p0 {
			ones++
		}
	}

	p0 := p0Sum / 3
	p1 := p1Sum / 3
	snr := math.Max(p0, p1) / (math.Min(p0, p1) + powerEpsilon)

	var bit byte
	if ones >= 2 {
		bit = 1
	}
	return Decision{Bit: bit, P0: p0, P1: p1, SNR: snr}
}

// Analyze computes the health metrics for one window: RMS level, the dB
// magnitude spectrum up to the analysis ceiling, its median as the noise
// floor, the spectral peak, and the carrier-to-floor delta. Cheap enough to
// run every sample cycle.
func (c *Classifier) Analyze(samples []float64) Metrics {
	n := len(samples)
	if n == 0 {
		return Metrics{RMSDb: -120, NoiseFloorDb: -120, PeakDb: -120}
	}

	var sumSq float64
	for _, x := range samples {
		sumSq += x * x
	}
	rmsDb := 20 * math.Log10(math.Sqrt(sumSq/float64(n))+powerEpsilon)

	seq := make([]float64, n)
	for i, x := range samples {
		t := 1.0
		if i < len(c.taper) {
			t = c.taper[i]
		}
		seq[i] = x * t
	}
	coeff := c.fft.Coefficients(nil, seq)

	binHz := c.sampleRate / float64(n)
	maxBin := int(analysisCeilingHz / binHz)
	if maxBin >= len(coeff) {
		maxBin = len(coeff) - 1
	}

	dbs := make([]float64, 0, maxBin)
	peakDb, peakHz := math.Inf(-1), 0.0
	for i := 1; i <= maxBin; i++ {
		db := 20 * math.Log10(cmplx.Abs(coeff[i])*2/float64(n)+powerEpsilon)
		dbs = append(dbs, db)
		if db > peakDb {
			peakDb = db
			peakHz = float64(i) * binHz
		}
	}

	sorted := append([]float64(nil), dbs...)
	sort.Float64s(sorted)
	floorDb := stat.Quantile(0.5, stat.Empirical, sorted, nil)

	toneDb := math.Max(c.binDb(coeff, c.f0, n), c.binDb(coeff, c.f1, n))

	dec := c.Decide(samples)

	return Metrics{
		RMSDb:        rmsDb,
		P0:           dec.P0,
		P1:           dec.P1,
		SNR:          dec.SNR,
		ToneDeltaDb:  toneDb - floorDb,
		PeakHz:       peakHz,
		PeakDb:       peakDb,
		NoiseFloorDb: floorDb,
	}
}

func (c *Classifier) binDb(coeff []complex128, freq float64, n int) float64 {
	bin := int(math.Round(freq * float64(n) / c.sampleRate))
	if bin < 0 || bin >= len(coeff) {
		return -120
	}
	return 20 * math.Log10(cmplx.Abs(coeff[bin])*2/float64(n)+powerEpsilon)
}
