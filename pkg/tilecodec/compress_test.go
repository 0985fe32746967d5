package tilecodec

import (
	"bytes"
	"compress/gzip"
	"testing"
)

func TestIsCompressed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"gzip magic", []byte{0x1F, 0x8B, 0x08}, true},
		{"zlib magic 78 9C", []byte{0x78, 0x9C, 0x01}, true},
		{"zlib magic 78 01", []byte{0x78, 0x01}, true},
		{"plain protobuf", []byte{0x1A, 0x02}, false},
		{"too short", []byte{0x1F}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCompressed(tt.data); got != tt.want {
				t.Errorf("IsCompressed(%v) = %v, want %v", tt.data, got, tt.want)
			}
		})
	}
}

func TestCompressEmptyStaysEmpty(t *testing.T) {
	out, err := Compress(nil, DefaultCompressionLevel)
	if err != nil {
		t.Fatalf("Compress(nil) error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("Compress(nil) = %v, want empty", out)
	}
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("tile-bytes"), 100)

	compressed, err := Compress(payload, DefaultCompressionLevel)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if !IsCompressed(compressed) {
		t.Fatal("compressed output not recognized as compressed")
	}

	decompressed, err := Decompress(compressed, DefaultMaxDecompressedSize)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(decompressed, payload) {
		t.Errorf("round trip mismatch: got %d bytes, want %d", len(decompressed), len(payload))
	}
}

func TestDecompressPassesThroughUncompressed(t *testing.T) {
	payload := []byte{0x1A, 0x02, 0x08, 0x01}
	out, err := Decompress(payload, DefaultMaxDecompressedSize)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, payload) {
		t.Errorf("expected passthrough, got %v", out)
	}
}

func TestDecompressSizeCap(t *testing.T) {
	payload := bytes.Repeat([]byte{0x42}, 1<<16)
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	w.Write(payload)
	w.Close()

	_, err := Decompress(buf.Bytes(), 100)
	if err != ErrOutputTooLarge {
		t.Fatalf("expected ErrOutputTooLarge, got %v", err)
	}
}
