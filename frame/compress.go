package frame

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// Compression policy: a deflated payload is only worth carrying when the raw
// payload is at least minCompressLen bytes and the deflated form saves more
// than the compressMargin. The decision travels as a single flag bit in the
// frame and the receiver honors that flag rather than re-deriving it.
const (
	minCompressLen = 24
	compressMargin = 2
)

func deflate(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func inflate(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	return out, nil
}

// choosePayload applies the compression policy to raw and returns the payload
// bytes to transmit plus the flag the frame must carry.
func choosePayload(raw []byte) ([]byte, bool, error) {
	if len(raw) < minCompressLen {
		return raw, false, nil
	}
	packed, err := deflate(raw)
	if err != nil {
		return nil, false, fmt.Errorf("deflate: %w", err)
	}
	if len(packed)+compressMargin < len(raw) {
		return packed, true, nil
	}
	return raw, false, nil
}
