package bits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndRead(t *testing.T) {
	b := New()
	b.AppendBit(1)
	b.AppendBit(0)
	b.AppendBit(1)
	require.Equal(t, 3, b.Len())
	assert.Equal(t, byte(1), b.Bit(0))
	assert.Equal(t, byte(0), b.Bit(1))
	assert.Equal(t, byte(1), b.Bit(2))
	assert.Equal(t, byte(0), b.Bit(3), "out of range reads as 0")
}

func TestAppendUintMSBFirst(t *testing.T) {
	b := New()
	b.AppendUint(0xA5, 8)
	assert.Equal(t, "10100101", b.String())
	assert.Equal(t, uint64(0xA5), b.Uint(0, 8))
}

func TestAppendUintPartialWidth(t *testing.T) {
	b := New()
	b.AppendUint(0b10, 2)
	b.AppendUint(0b000001, 6)
	assert.Equal(t, "10000001", b.String())
	assert.Equal(t, []byte{0x81}, b.Bytes())
}

func TestAppendBytesRoundTrip(t *testing.T) {
	payload := []byte("hello, modem")
	b := New()
	b.AppendBytes(payload)
	require.Equal(t, len(payload)*8, b.Len())
	assert.Equal(t, payload, b.FieldBytes(0, b.Len()))
}

func TestParseSkipsSeparators(t *testing.T) {
	b := Parse("1100 1100 11001100")
	require.Equal(t, 16, b.Len())
	assert.Equal(t, uint64(0xCCCC), b.Uint(0, 16))
}

func TestFlipBit(t *testing.T) {
	b := Parse("0000")
	b.FlipBit(2)
	assert.Equal(t, "0010", b.String())
	b.FlipBit(2)
	assert.Equal(t, "0000", b.String())
}

func TestUintAcrossByteBoundary(t *testing.T) {
	b := Parse("11111111 00000000 1111")
	assert.Equal(t, uint64(0xF0), b.Uint(4, 8))
	assert.Equal(t, uint64(0x0F), b.Uint(12, 8))
}
