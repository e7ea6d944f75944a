package modem

import (
	"github.com/charmbracelet/log"
	"github.com/yemson/fask/audio"
	"github.com/yemson/fask/frame"
)

// Sender renders outgoing text as a waveform. It owns the sequence counter
// between frames; frame encoding itself stays a pure function.
type Sender struct {
	cfg Config
	seq int
}

func NewSender(cfg Config) *Sender {
	return &Sender{cfg: cfg}
}

// SetSeq overrides the next sequence number.
func (s *Sender) SetSeq(n int) {
	s.seq = n
}

// Seq is the sequence number the next frame will carry.
func (s *Sender) Seq() int {
	return s.seq
}

// Render encodes text for the given protocol version and synthesizes the
// frame's waveform. The sequence number advances only on success.
func (s *Sender) Render(text string, version frame.Version) ([]float64, *frame.Encoded, error) {
	enc, err := frame.Encode(version, text, s.seq)
	if err != nil {
		return nil, nil, err
	}
	s.seq++

	samples := audio.Synthesize(enc.Bits, audio.ToneConfig{
		SampleRate:   s.cfg.SampleRate,
		F0:           s.cfg.F0,
		F1:           s.cfg.F1,
		Amplitude:    s.cfg.Amplitude,
		SymbolPeriod: s.cfg.SymbolPeriod,
	})

	log.Debugf("[modem] rendered %s frame seq=%d: %d bits, %d samples",
		enc.Version, enc.Seq, enc.Bits.Len(), len(samples))
	return samples, enc, nil
}
