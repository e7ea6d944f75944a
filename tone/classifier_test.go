package tone

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testRate = 44100.0
	testF0   = 1200.0
	testF1   = 2200.0
)

func sine(freq, amp float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/testRate)
	}
	return out
}

func addNoise(samples []float64, amp float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, len(samples))
	for i, x := range samples {
		out[i] = x + amp*(2*rng.Float64()-1)
	}
	return out
}

func testClassifier() *Classifier {
	return NewClassifier(testRate, testF0, testF1, 80*time.Millisecond)
}

func TestWindowLenFromSymbolPeriod(t *testing.T) {
	c := testClassifier()
	assert.Equal(t, 3528, c.WindowLen())

	fast := NewClassifier(testRate, testF0, testF1, 60*time.Millisecond)
	assert.Equal(t, 2646, fast.WindowLen())
}

func TestDecidePureTones(t *testing.T) {
	c := testClassifier()
	n := c.WindowLen()

	zero := c.Decide(sine(testF0, 0.5, n))
	require.Equal(t, byte(0), zero.Bit)
	assert.Greater(t, zero.P0, zero.P1)
	assert.Greater(t, zero.SNR, 10.0)

	one := c.Decide(sine(testF1, 0.5, n))
	require.Equal(t, byte(1), one.Bit)
	assert.Greater(t, one.P1, one.P0)
	assert.Greater(t, one.SNR, 10.0)
}

func TestDecideWithNoise(t *testing.T) {
	c := testClassifier()
	n := c.WindowLen()

	noisy := addNoise(sine(testF1, 0.5, n), 0.1, 1)
	assert.Equal(t, byte(1), c.Decide(noisy).Bit)

	noisy = addNoise(sine(testF0, 0.5, n), 0.1, 2)
	assert.Equal(t, byte(0), c.Decide(noisy).Bit)
}

// A corrupted stretch at the symbol edge loses the vote 2 to 1.
func TestDecideMajorityVoteAtSymbolEdge(t *testing.T) {
	c := testClassifier()
	n := c.WindowLen()

	samples := sine(testF1, 0.5, n)
	wrong := sine(testF0, 0.5, n/4)
	copy(samples[:n/4], wrong)

	assert.Equal(t, byte(1), c.Decide(samples).Bit)
}

func TestAnalyzeToneMetrics(t *testing.T) {
	c := testClassifier()
	m := c.Analyze(sine(testF1, 0.5, c.WindowLen()))

	assert.InDelta(t, testF1, m.PeakHz, 2*c.binHz)
	assert.Greater(t, m.ToneDeltaDb, MinToneDeltaDb)
	assert.Greater(t, m.SNR, MinSNR)
	assert.InDelta(t, -9.0, m.RMSDb, 1.0, "0.5 amplitude sine sits near -9 dBFS")
	assert.Less(t, m.NoiseFloorDb, m.PeakDb)
	assert.Equal(t, LikelyFSK, Diagnose(m))
}

func TestAnalyzeSilence(t *testing.T) {
	c := testClassifier()
	m := c.Analyze(make([]float64, c.WindowLen()))
	assert.Less(t, m.RMSDb, NoInputRMSDb)
	assert.Equal(t, NoInput, Diagnose(m))
}

func TestDiagnoseBoundaries(t *testing.T) {
	tests := []struct {
		name string
		m    Metrics
		want Diagnosis
	}{
		{"quiet input", Metrics{RMSDb: -60, SNR: 5, ToneDeltaDb: 20}, NoInput},
		{"ambient noise", Metrics{RMSDb: -30, SNR: 1.0, ToneDeltaDb: 3}, AmbientNoise},
		{"clean fsk", Metrics{RMSDb: -20, SNR: 4.0, ToneDeltaDb: 15}, LikelyFSK},
		{"strong but off-frequency", Metrics{RMSDb: -20, SNR: 1.05, ToneDeltaDb: 12}, MismatchFreqOrTiming},
		{"tonal but weak separation", Metrics{RMSDb: -20, SNR: 3.0, ToneDeltaDb: 4}, MismatchFreqOrTiming},
		{"exactly at thresholds", Metrics{RMSDb: -58, SNR: 1.2, ToneDeltaDb: 8}, LikelyFSK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Diagnose(tt.m))
		})
	}
}

func TestGoertzelSelectivity(t *testing.T) {
	n := 3528
	samples := sine(testF0, 0.5, n)
	at0 := goertzelPower(samples, testF0, testRate)
	at1 := goertzelPower(samples, testF1, testRate)
	assert.Greater(t, at0, at1*100, "off-carrier power should be far below on-carrier power")
}
