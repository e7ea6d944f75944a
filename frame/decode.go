package frame

import (
	"errors"
	"fmt"
	mathbits "math/bits"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/yemson/fask/bits"
	"github.com/yemson/fask/crc"
)

type EventKind int

const (
	EventPreambleLock EventKind = iota
	EventSyncLock
	EventFrame
	EventResync
)

func (k EventKind) String() string {
	switch k {
	case EventPreambleLock:
		return "preamble_lock"
	case EventSyncLock:
		return "sync_lock"
	case EventFrame:
		return "frame"
	case EventResync:
		return "resync"
	default:
		return "unknown"
	}
}

// FailReason tags the resync cause on EventResync events and in Stats.LastError.
type FailReason string

const (
	FailLenInvalid FailReason = "len_invalid"
	FailCrc        FailReason = "crc_fail"
	FailDecode     FailReason = "decode_fail"
	FailSyncLost   FailReason = "sync_lost"
)

// Event is what Push surfaces to the caller when a transition produces
// something observable. Fields beyond Kind are populated per kind.
type Event struct {
	Kind     EventKind
	Score    int  // EventPreambleLock: matching bits out of 32
	Inverted bool // EventPreambleLock: locked onto the complemented preamble

	Version    Version // EventSyncLock, EventFrame
	Text       string  // EventFrame
	Compressed bool    // EventFrame
	Length     int     // EventFrame: payload bytes on the wire
	Seq        uint8   // EventFrame, v3 only

	Reason FailReason // EventResync
	Detail string     // EventResync: underlying error text
}

// Stats counts decoder outcomes. Counters only ever increase; they survive
// resyncs and reset only when a fresh Decoder is constructed.
type Stats struct {
	OkFrames    uint64
	CrcFail     uint64
	LenInvalid  uint64
	DecodeFail  uint64
	SyncLost    uint64
	ResyncCount uint64
	LastError   string
}

type state int

const (
	searchPreamble state = iota
	searchSync
	readLenV2
	readHeaderV3
	readPayload
	readCrcV3
)

// Decoder consumes one demodulated bit at a time and emits frame and status
// events. It is a restartable consumer: after every frame or failure it
// returns to preamble search and waits for the next transmission. A Decoder
// is owned by a single receiving session; to change options, build a new one.
type Decoder struct {
	// LegacyFallback additionally accepts v2 sync words. Set before the first
	// Push and do not change on a live decoder.
	LegacyFallback bool

	Stats Stats

	state   state
	win     uint32
	winBits int
	invert  bool

	version     Version
	compressed  bool
	seq         uint8
	length      int
	headerBits  *bits.Buffer
	payloadBits *bits.Buffer
	crcBits     *bits.Buffer
}

func NewDecoder(legacyFallback bool) *Decoder {
	return &Decoder{LegacyFallback: legacyFallback}
}

// Push advances the state machine by one demodulated bit. It returns nil when
// nothing observable happened.
func (d *Decoder) Push(bit byte) *Event {
	bit &= 1

	switch d.state {
	case searchPreamble:
		return d.pushPreamble(bit)
	case searchSync:
		return d.pushSync(d.corrected(bit))
	case readLenV2:
		return d.pushLenV2(d.corrected(bit))
	case readHeaderV3:
		return d.pushHeaderV3(d.corrected(bit))
	case readPayload:
		return d.pushPayload(d.corrected(bit))
	case readCrcV3:
		return d.pushCrc(d.corrected(bit))
	default:
		// Unreachable in a correct implementation.
		return d.fail(FailSyncLost, "decoder entered an unknown state")
	}
}

// corrected undoes the polarity inversion locked in during preamble search.
// The flag lives for one frame attempt and clears on every resync.
func (d *Decoder) corrected(bit byte) byte {
	if d.invert {
		return bit ^ 1
	}
	return bit
}

func (d *Decoder) pushPreamble(bit byte) *Event {
	d.win = d.win<<1 | uint32(bit)
	if d.winBits < PreambleBits {
		d.winBits++
	}
	if d.winBits < PreambleBits {
		return nil
	}

	dist := mathbits.OnesCount32(d.win ^ Preamble)
	switch {
	case dist <= preambleTolerance:
		d.invert = false
	case dist >= PreambleBits-preambleTolerance:
		d.invert = true
		dist = PreambleBits - dist
	default:
		return nil
	}

	d.state = searchSync
	d.win, d.winBits = 0, 0
	log.Debugf("[frame] preamble lock: %d/32 bits, inverted=%v", PreambleBits-dist, d.invert)
	return &Event{Kind: EventPreambleLock, Score: PreambleBits - dist, Inverted: d.invert}
}

func (d *Decoder) pushSync(bit byte) *Event {
	d.win = d.win<<1 | uint32(bit)
	if d.winBits < SyncBits {
		d.winBits++
	}
	if d.winBits < SyncBits {
		return nil
	}

	w := uint16(d.win)
	d3 := mathbits.OnesCount16(w ^ SyncV3)
	d2 := mathbits.OnesCount16(w ^ SyncV2)
	v3ok := d3 <= syncToleranceV3
	v2ok := d.LegacyFallback && d2 <= syncToleranceV2

	switch {
	case v3ok && (!v2ok || d3 <= d2):
		d.version = V3
		d.state = readHeaderV3
		d.headerBits = bits.NewWithCapacity(HeaderBitsV3)
	case v2ok:
		d.version = V2
		d.state = readLenV2
		d.headerBits = bits.NewWithCapacity(LenBitsV2)
	default:
		return nil
	}

	d.win, d.winBits = 0, 0
	log.Debugf("[frame] sync lock: %s (hamming v3=%d v2=%d)", d.version, d3, d2)
	return &Event{Kind: EventSyncLock, Version: d.version}
}

func (d *Decoder) pushLenV2(bit byte) *Event {
	d.headerBits.AppendBit(bit)
	if d.headerBits.Len() < LenBitsV2 {
		return nil
	}

	l, err := parseLenFlagV2(uint16(d.headerBits.Uint(0, LenBitsV2)))
	if err != nil {
		return d.fail(FailLenInvalid, err.Error())
	}
	d.compressed = l.compressed
	d.length = l.length
	return d.startPayload()
}

func (d *Decoder) pushHeaderV3(bit byte) *Event {
	d.headerBits.AppendBit(bit)
	if d.headerBits.Len() < HeaderBitsV3 {
		return nil
	}

	h, err := parseHeaderV3(uint32(d.headerBits.Uint(0, HeaderBitsV3)))
	if err != nil {
		return d.fail(FailLenInvalid, err.Error())
	}
	d.compressed = h.compressed
	d.seq = h.seq
	d.length = h.length
	return d.startPayload()
}

func (d *Decoder) startPayload() *Event {
	d.payloadBits = bits.NewWithCapacity(d.length * 8)
	if d.length > 0 {
		d.state = readPayload
		return nil
	}
	return d.payloadDone()
}

func (d *Decoder) pushPayload(bit byte) *Event {
	d.payloadBits.AppendBit(bit)
	if d.payloadBits.Len() < d.length*8 {
		return nil
	}
	return d.payloadDone()
}

func (d *Decoder) payloadDone() *Event {
	if d.version == V3 {
		d.state = readCrcV3
		d.crcBits = bits.NewWithCapacity(CrcBits)
		return nil
	}
	// v2 carries no integrity trailer; decode right away.
	return d.finishFrame()
}

func (d *Decoder) pushCrc(bit byte) *Event {
	d.crcBits.AppendBit(bit)
	if d.crcBits.Len() < CrcBits {
		return nil
	}

	got := uint16(d.crcBits.Uint(0, CrcBits))
	data := append(d.headerBits.FieldBytes(0, HeaderBitsV3), d.payloadBits.FieldBytes(0, d.length*8)...)
	if want := crc.Checksum16(data); got != want {
		// The payload is not decoded on a CRC failure so garbled text never
		// reaches the caller.
		return d.fail(FailCrc, fmt.Sprintf("crc mismatch: got %04x, want %04x", got, want))
	}
	return d.finishFrame()
}

func (d *Decoder) finishFrame() *Event {
	payload := d.payloadBits.FieldBytes(0, d.length*8)
	text, err := decodePayload(payload, d.compressed)
	if err != nil {
		return d.fail(FailDecode, err.Error())
	}

	ev := &Event{
		Kind:       EventFrame,
		Version:    d.version,
		Text:       text,
		Compressed: d.compressed,
		Length:     d.length,
		Seq:        d.seq,
	}
	d.Stats.OkFrames++
	log.Infof("[frame] got %s frame: seq=%d len=%d compressed=%v", d.version, d.seq, d.length, d.compressed)
	d.resetSearch()
	return ev
}

func decodePayload(payload []byte, compressed bool) (string, error) {
	data := payload
	if compressed {
		var err error
		data, err = inflate(payload)
		if err != nil {
			return "", err
		}
	}
	if !utf8.Valid(data) {
		return "", errInvalidUTF8
	}
	return string(data), nil
}

// Reset abandons any partial frame and returns to preamble search without
// touching the stats. The quality gate uses this when the channel degrades
// mid-frame.
func (d *Decoder) Reset() {
	d.resetSearch()
}

// MidFrame reports whether the decoder is past preamble search.
func (d *Decoder) MidFrame() bool {
	return d.state != searchPreamble
}

// resetSearch restores the exact initial search state of a fresh decoder.
func (d *Decoder) resetSearch() {
	d.state = searchPreamble
	d.win, d.winBits = 0, 0
	d.invert = false
	d.version = 0
	d.compressed = false
	d.seq = 0
	d.length = 0
	d.headerBits = nil
	d.payloadBits = nil
	d.crcBits = nil
}

func (d *Decoder) fail(reason FailReason, detail string) *Event {
	switch reason {
	case FailLenInvalid:
		d.Stats.LenInvalid++
	case FailCrc:
		d.Stats.CrcFail++
	case FailDecode:
		d.Stats.DecodeFail++
	case FailSyncLost:
		d.Stats.SyncLost++
	}
	d.Stats.ResyncCount++
	d.Stats.LastError = string(reason) + ": " + detail
	log.Debugf("[frame] resync (%s): %s", reason, detail)
	d.resetSearch()
	return &Event{Kind: EventResync, Reason: reason, Detail: detail}
}

var errInvalidUTF8 = errors.New("payload is not valid UTF-8")
