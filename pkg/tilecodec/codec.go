package tilecodec

import (
	"fmt"

	"github.com/paulmach/orb/encoding/mvt"
)

// Unmarshal decompresses data if needed and decodes it as MVT layers.
func Unmarshal(data []byte, maxDecompressedSize int) (mvt.Layers, error) {
	raw, err := Decompress(data, maxDecompressedSize)
	if err != nil {
		return nil, err
	}
	layers, err := mvt.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("tilecodec: decoding protobuf layers: %w", err)
	}
	return layers, nil
}

// Marshal encodes layers to protobuf bytes, optionally gzip-compressing
// the result at level (compress-if-nonempty: see Compress).
func Marshal(layers mvt.Layers, compress bool, level int) ([]byte, error) {
	buf, err := mvt.Marshal(layers)
	if err != nil {
		return nil, fmt.Errorf("tilecodec: encoding protobuf layers: %w", err)
	}
	if !compress {
		return buf, nil
	}
	return Compress(buf, level)
}

// FindLayer returns the layer with the given name, or nil if absent.
func FindLayer(layers mvt.Layers, name string) *mvt.Layer {
	for _, l := range layers {
		if l.Name == name {
			return l
		}
	}
	return nil
}
