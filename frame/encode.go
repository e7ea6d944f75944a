package frame

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/yemson/fask/bits"
	"github.com/yemson/fask/crc"
)

var (
	// ErrPayloadTooLarge means the raw UTF-8 text does not fit a frame; the
	// caller must shorten the input.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrEncodedPayloadTooLarge means the chosen payload still exceeds the
	// length field after the compression decision. With the current policy
	// this cannot fire unless the raw payload was already oversized, so it is
	// a defensive check.
	ErrEncodedPayloadTooLarge = errors.New("encoded payload too large")
)

// Encoded is a fully built frame ready for tone synthesis.
type Encoded struct {
	Bits       *bits.Buffer
	Version    Version
	Compressed bool
	PayloadLen int
	Seq        uint8
}

// EncodeV2 builds a v2 frame: preamble | sync | lenFlag | payload.
func EncodeV2(text string) (*Encoded, error) {
	payload, compressed, err := preparePayload(text)
	if err != nil {
		return nil, err
	}

	b := bits.NewWithCapacity(PreambleBits + SyncBits + LenBitsV2 + len(payload)*8)
	b.AppendUint(uint64(Preamble), PreambleBits)
	b.AppendUint(uint64(SyncV2), SyncBits)
	b.AppendUint(uint64(lenFlagV2{compressed: compressed, length: len(payload)}.pack()), LenBitsV2)
	b.AppendBytes(payload)

	log.Debugf("[frame] encoded v2 frame: %d payload bytes, compressed=%v, %d bits total",
		len(payload), compressed, b.Len())

	return &Encoded{
		Bits:       b,
		Version:    V2,
		Compressed: compressed,
		PayloadLen: len(payload),
	}, nil
}

// EncodeV3 builds a v3 frame: preamble | sync | header | payload | crc16. The
// CRC covers the 4 header bytes followed by the payload bytes. seq is reduced
// modulo 256; the caller owns incrementing it between frames.
func EncodeV3(text string, seq int) (*Encoded, error) {
	payload, compressed, err := preparePayload(text)
	if err != nil {
		return nil, err
	}

	h := headerV3{
		compressed: compressed,
		seq:        uint8(seq % 256),
		length:     len(payload),
	}
	sum := crc.Checksum16(append(h.bytes(), payload...))

	b := bits.NewWithCapacity(PreambleBits + SyncBits + HeaderBitsV3 + len(payload)*8 + CrcBits)
	b.AppendUint(uint64(Preamble), PreambleBits)
	b.AppendUint(uint64(SyncV3), SyncBits)
	b.AppendUint(uint64(h.pack()), HeaderBitsV3)
	b.AppendBytes(payload)
	b.AppendUint(uint64(sum), CrcBits)

	log.Debugf("[frame] encoded v3 frame: seq=%d, %d payload bytes, compressed=%v, crc=%04x, %d bits total",
		h.seq, len(payload), compressed, sum, b.Len())

	return &Encoded{
		Bits:       b,
		Version:    V3,
		Compressed: compressed,
		PayloadLen: len(payload),
		Seq:        h.seq,
	}, nil
}

// Encode dispatches on the configured protocol version.
func Encode(v Version, text string, seq int) (*Encoded, error) {
	switch v {
	case V2:
		return EncodeV2(text)
	case V3:
		return EncodeV3(text, seq)
	default:
		return nil, fmt.Errorf("cannot encode for version %s", v)
	}
}

func preparePayload(text string) ([]byte, bool, error) {
	raw := []byte(text)
	if len(raw) > MaxPayloadBytes {
		return nil, false, fmt.Errorf("%w: %d bytes, max %d", ErrPayloadTooLarge, len(raw), MaxPayloadBytes)
	}
	payload, compressed, err := choosePayload(raw)
	if err != nil {
		return nil, false, err
	}
	if len(payload) > MaxPayloadBytes {
		return nil, false, fmt.Errorf("%w: %d bytes, max %d", ErrEncodedPayloadTooLarge, len(payload), MaxPayloadBytes)
	}
	return payload, compressed, nil
}
