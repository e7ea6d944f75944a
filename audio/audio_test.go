package audio

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yemson/fask/bits"
)

var testCfg = ToneConfig{
	SampleRate:   44100,
	F0:           1200,
	F1:           2200,
	SymbolPeriod: 80 * time.Millisecond,
}

func TestSynthesizeShape(t *testing.T) {
	b := bits.Parse("0101")
	samples := Synthesize(b, testCfg)

	perSymbol := int(math.Round(testCfg.SampleRate * 0.08))
	require.Len(t, samples, 4*perSymbol)

	// Fades pin the burst edges near zero.
	assert.InDelta(t, 0, samples[0], 1e-9)
	assert.InDelta(t, 0, samples[perSymbol-1], 0.05)

	// Mid-burst runs at full amplitude somewhere.
	var peak float64
	for _, s := range samples[:perSymbol] {
		peak = math.Max(peak, math.Abs(s))
	}
	assert.InDelta(t, DefaultAmplitude, peak, 0.01)
}

func rms(samples []float64) float64 {
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func TestWAVRoundTrip(t *testing.T) {
	b := bits.Parse("0110")
	samples := Synthesize(b, testCfg)
	path := filepath.Join(t.TempDir(), "frame.wav")

	require.NoError(t, WriteWAV(path, samples, 44100))
	back, rate, err := ReadWAV(path)
	require.NoError(t, err)
	assert.Equal(t, 44100, rate)
	require.Len(t, back, len(samples))

	// 16-bit quantization only.
	for i := 0; i < len(samples); i += 997 {
		assert.InDelta(t, samples[i], back[i], 1.0/16384)
	}
}

func TestFrontEndPassesCarriersRejectsHighs(t *testing.T) {
	fe := NewFrontEnd(44100, 4000, 500)

	tone := func(freq float64, n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/44100)
		}
		return out
	}

	n := 44100
	inBand := fe.Filter(tone(1200, n))
	assert.Greater(t, rms(inBand[2000:]), 0.25, "carrier must pass the front end")

	fe = NewFrontEnd(44100, 4000, 500)
	outOfBand := fe.Filter(tone(9000, n))
	assert.Less(t, rms(outOfBand[2000:]), 0.1, "out-of-band tone must be attenuated")
}
