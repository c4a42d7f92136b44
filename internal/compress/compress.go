package compress

import (
	"errors"
	"strings"
)

// ErrUnknownCompression is returned when a compression name is not supported.
var ErrUnknownCompression = errors.New("unknown compression")

// Compress encodes and decodes opaque payloads.
type Compress interface {
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

// New returns the compressor registered under name: nop, gzip, brotli or lz4.
func New(name string) (Compress, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "nop", "none":
		return NewNop(), nil
	case "gzip":
		return NewGZip(), nil
	case "brotli":
		return NewBrotli(), nil
	case "lz4":
		return NewLZ4(), nil
	default:
		return nil, ErrUnknownCompression
	}
}
