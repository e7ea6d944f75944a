package tone

// Diagnosis labels the current channel quality for live user feedback. It is
// evaluated from a Metrics snapshot alone, independent of decoder state.
type Diagnosis int

const (
	NoInput Diagnosis = iota
	AmbientNoise
	LikelyFSK
	MismatchFreqOrTiming
)

// Thresholds feeding Diagnose and the receiver's quality gate.
const (
	NoInputRMSDb   = -58.0
	MinSNR         = 1.2
	MinToneDeltaDb = 8.0
)

func (d Diagnosis) String() string {
	switch d {
	case NoInput:
		return "no_input"
	case AmbientNoise:
		return "ambient_noise"
	case LikelyFSK:
		return "likely_fsk"
	default:
		return "mismatch_freq_or_timing"
	}
}

func Diagnose(m Metrics) Diagnosis {
	switch {
	case m.RMSDb < NoInputRMSDb:
		return NoInput
	case m.SNR < MinSNR && m.ToneDeltaDb < MinToneDeltaDb:
		return AmbientNoise
	case m.SNR >= MinSNR && m.ToneDeltaDb >= MinToneDeltaDb:
		return LikelyFSK
	default:
		return MismatchFreqOrTiming
	}
}
