// Package bits provides the packed bit buffer used to build and carry frame
// bit streams. Bits are stored MSB-first within each byte so the transmit
// order of a frame is simply Bit(0), Bit(1), ... Bit(Len()-1).
package bits

import "strings"

type Buffer struct {
	data []byte
	n    int
}

func New() *Buffer {
	return &Buffer{}
}

// NewWithCapacity preallocates room for n bits.
func NewWithCapacity(n int) *Buffer {
	return &Buffer{data: make([]byte, 0, (n+7)/8)}
}

func (b *Buffer) Len() int {
	return b.n
}

func (b *Buffer) AppendBit(bit byte) {
	if b.n%8 == 0 {
		b.data = append(b.data, 0)
	}
	if bit != 0 {
		b.data[b.n/8] |= 0x80 >> (b.n % 8)
	}
	b.n++
}

// AppendUint appends the low `width` bits of v, most significant bit first.
func (b *Buffer) AppendUint(v uint64, width int) {
	for i := width - 1; i >= 0; i-- {
		b.AppendBit(byte((v >> i) & 1))
	}
}

// AppendBytes appends every byte of p, MSB-first.
func (b *Buffer) AppendBytes(p []byte) {
	for _, c := range p {
		b.AppendUint(uint64(c), 8)
	}
}

// Bit returns bit i as 0 or 1. Out-of-range reads return 0.
func (b *Buffer) Bit(i int) byte {
	if i < 0 || i >= b.n {
		return 0
	}
	return (b.data[i/8] >> (7 - i%8)) & 1
}

// FlipBit inverts bit i in place.
func (b *Buffer) FlipBit(i int) {
	if i >= 0 && i < b.n {
		b.data[i/8] ^= 0x80 >> (i % 8)
	}
}

// Uint extracts `width` bits starting at offset as a big-endian unsigned value.
func (b *Buffer) Uint(offset, width int) uint64 {
	var v uint64
	for i := 0; i < width; i++ {
		v = v<<1 | uint64(b.Bit(offset+i))
	}
	return v
}

// Bytes returns the packed representation. The final byte is zero-padded when
// Len is not a multiple of 8. The caller must not modify the result.
func (b *Buffer) Bytes() []byte {
	return b.data
}

func (b *Buffer) String() string {
	var sb strings.Builder
	sb.Grow(b.n)
	for i := 0; i < b.n; i++ {
		sb.WriteByte('0' + b.Bit(i))
	}
	return sb.String()
}

// Parse builds a Buffer from a string of '0' and '1' runes. Any other rune is
// skipped, which lets tests use spaces as visual separators.
func Parse(s string) *Buffer {
	b := NewWithCapacity(len(s))
	for _, r := range s {
		switch r {
		case '0':
			b.AppendBit(0)
		case '1':
			b.AppendBit(1)
		}
	}
	return b
}

// FieldBytes packs `count` bits starting at offset into bytes, MSB-first.
// count must be a multiple of 8.
func (b *Buffer) FieldBytes(offset, count int) []byte {
	out := make([]byte, count/8)
	for i := range out {
		out[i] = byte(b.Uint(offset+i*8, 8))
	}
	return out
}
