// Package tilecodec provides the tile I/O envelope shared by composite
// and localize: gzip/zlib autodetection and decompression with an
// output-size cap, gzip compression on emit, and thin wrappers over the
// MVT protobuf codec (github.com/paulmach/orb/encoding/mvt).
package tilecodec

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
)

// Defaults mirror the canonical vtcomposite deflate envelope: level 6,
// and a 2^31-byte decompressed-output cap.
const (
	DefaultCompressionLevel        = gzip.DefaultCompression // 6
	DefaultMaxDecompressedSize int = 1 << 31
)

// ErrOutputTooLarge is returned when decompression would exceed the
// configured maximum output size.
var ErrOutputTooLarge = errors.New("tilecodec: decompressed output exceeds configured maximum")

// IsCompressed reports whether data begins with a gzip or zlib magic
// header: gzip is 1F 8B; zlib is 78 followed by one of the common
// zlib-header second bytes (01, 5E, 9C, DA).
func IsCompressed(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	if data[0] == 0x1F && data[1] == 0x8B {
		return true
	}
	if data[0] == 0x78 {
		switch data[1] {
		case 0x01, 0x5E, 0x9C, 0xDA:
			return true
		}
	}
	return false
}

// Decompress returns data unchanged if it is not gzip/zlib-wrapped,
// otherwise it streams the decompressed content through maxSize bytes and
// fails with ErrOutputTooLarge if more remains.
func Decompress(data []byte, maxSize int) ([]byte, error) {
	if !IsCompressed(data) {
		return data, nil
	}

	var r io.ReadCloser
	var err error
	if data[0] == 0x1F {
		r, err = gzip.NewReader(bytes.NewReader(data))
	} else {
		r, err = zlib.NewReader(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("tilecodec: opening compressed stream: %w", err)
	}
	defer r.Close()

	limited := io.LimitReader(r, int64(maxSize)+1)
	out, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("tilecodec: reading compressed stream: %w", err)
	}
	if len(out) > maxSize {
		return nil, ErrOutputTooLarge
	}
	return out, nil
}

// Compress gzips data at the given level. An empty input is returned
// verbatim: callers use non-zero length as the "non-empty tile" signal,
// and gzip-of-nothing is never produced.
func Compress(data []byte, level int) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("tilecodec: creating gzip writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("tilecodec: writing compressed data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("tilecodec: closing gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}
