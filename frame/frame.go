// Package frame implements the wire framing of the modem: building complete
// frame bit streams for the v2 and v3 protocol versions, the adaptive
// compression policy, and the bit-at-a-time receive state machine.
package frame

import "fmt"

type Version int

const (
	V2 Version = iota + 2
	V3
)

func (v Version) String() string {
	switch v {
	case V2:
		return "v2"
	case V3:
		return "v3"
	default:
		return fmt.Sprintf("v?(%d)", int(v))
	}
}

// ParseVersion maps the config-surface selector to a Version.
func ParseVersion(s string) (Version, error) {
	switch s {
	case "v2":
		return V2, nil
	case "v3", "":
		return V3, nil
	default:
		return 0, fmt.Errorf("unknown protocol version %q", s)
	}
}

// Wire layout constants. The preamble is shared by both versions; the sync
// word differs so the receiver can tell them apart.
const (
	PreambleBits = 32
	SyncBits     = 16
	HeaderBitsV3 = 32
	LenBitsV2    = 16
	CrcBits      = 16

	// 01 repeated 16 times, first transmitted bit in the MSB.
	Preamble uint32 = 0x55555555
	// 11110000 twice.
	SyncV2 uint16 = 0xF0F0
	// 11001100 twice.
	SyncV3 uint16 = 0xCCCC

	MaxPayloadBytes = 0x7FFF

	preambleTolerance = 4
	syncToleranceV3   = 3
	syncToleranceV2   = 2

	versionFieldV3 = 0b10
)

type headerV3 struct {
	compressed bool
	seq        uint8
	length     int
}

func (h headerV3) pack() uint32 {
	var flags uint32
	if h.compressed {
		flags = 1
	}
	return versionFieldV3<<30 | flags<<24 | uint32(h.seq)<<16 | uint32(h.length)
}

func (h headerV3) bytes() []byte {
	v := h.pack()
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func parseHeaderV3(v uint32) (headerV3, error) {
	if v>>30 != versionFieldV3 {
		return headerV3{}, fmt.Errorf("bad version field %02b", v>>30)
	}
	flags := v >> 24 & 0x3F
	if flags&^1 != 0 {
		return headerV3{}, fmt.Errorf("reserved flag bits set: %06b", flags)
	}
	h := headerV3{
		compressed: flags&1 != 0,
		seq:        uint8(v >> 16),
		length:     int(v & 0xFFFF),
	}
	if h.length > MaxPayloadBytes {
		return headerV3{}, fmt.Errorf("payload length %d exceeds %d", h.length, MaxPayloadBytes)
	}
	return h, nil
}

type lenFlagV2 struct {
	compressed bool
	length     int
}

func (l lenFlagV2) pack() uint16 {
	v := uint16(l.length)
	if l.compressed {
		v |= 0x8000
	}
	return v
}

func parseLenFlagV2(v uint16) (lenFlagV2, error) {
	l := lenFlagV2{
		compressed: v&0x8000 != 0,
		length:     int(v & 0x7FFF),
	}
	// 15 length bits cannot exceed MaxPayloadBytes, but keep the bound check
	// in one place should the field ever widen.
	if l.length > MaxPayloadBytes {
		return lenFlagV2{}, fmt.Errorf("payload length %d exceeds %d", l.length, MaxPayloadBytes)
	}
	return l, nil
}
