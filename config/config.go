package config

import (
	"fmt"
	"time"
)

type ModemConf struct {
	SampleRate     float64 `koanf:"sample_rate"`
	F0             float64 `koanf:"f0"`
	F1             float64 `koanf:"f1"`
	Profile        string  `koanf:"profile"`
	Version        string  `koanf:"version"`
	LegacyFallback bool    `koanf:"legacy_fallback"`
	Amplitude      float64 `koanf:"amplitude"`
}

// GateConf thresholds are pointers so an unset key keeps the built-in
// default while an explicit 0 still counts as a configured value.
type GateConf struct {
	Enabled        bool     `koanf:"enabled"`
	MinRMSDb       *float64 `koanf:"min_rms_db"`
	MinSNR         *float64 `koanf:"min_snr"`
	MinToneDeltaDb *float64 `koanf:"min_tone_delta_db"`
}

// Carrier and rate defaults; the carriers are fixed by the wire format, the
// rest is overridable from the config file or environment.
const (
	DefaultSampleRate = 44100.0
	DefaultF0         = 1200.0
	DefaultF1         = 2200.0
)

func (m ModemConf) WithDefaults() ModemConf {
	if m.SampleRate == 0 {
		m.SampleRate = DefaultSampleRate
	}
	if m.F0 == 0 {
		m.F0 = DefaultF0
	}
	if m.F1 == 0 {
		m.F1 = DefaultF1
	}
	if m.Profile == "" {
		m.Profile = "balanced"
	}
	if m.Version == "" {
		m.Version = "v3"
	}
	return m
}

// SymbolPeriod maps a symbol-duration profile name to its Ts.
func SymbolPeriod(profile string) (time.Duration, error) {
	switch profile {
	case "safe":
		return 120 * time.Millisecond, nil
	case "balanced", "":
		return 80 * time.Millisecond, nil
	case "fast":
		return 60 * time.Millisecond, nil
	default:
		return 0, fmt.Errorf("unknown symbol profile %q", profile)
	}
}
