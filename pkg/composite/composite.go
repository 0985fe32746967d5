// Package composite implements the composite orchestrator: merging one or
// more source tiles, possibly from coarser zoom levels, into a single
// target tile, with first-writer-wins layer deduplication and per-feature
// overzoom when the zoom factor exceeds one.
package composite

import (
	"fmt"
	"log"

	"github.com/paulmach/orb/encoding/mvt"

	"github.com/valpere/vtedit/pkg/overzoom"
	"github.com/valpere/vtedit/pkg/tilecodec"
	"github.com/valpere/vtedit/pkg/vterr"
	"github.com/valpere/vtedit/pkg/zxy"
)

// SourceTile is one input tile to merge: its identity, its raw (possibly
// gzip-wrapped) protobuf bytes, and an optional layer allowlist (empty
// means "all layers").
type SourceTile struct {
	ID      zxy.ID
	Data    []byte
	Layers  []string
	BufSize int
}

// Target identifies the tile being composited into.
type Target = zxy.ID

// Options configures one composite operation.
type Options struct {
	BufferSize          int
	Compress            bool
	CompressionLevel    int
	MaxDecompressedSize int
}

func (o Options) withDefaults() Options {
	if o.CompressionLevel == 0 {
		o.CompressionLevel = tilecodec.DefaultCompressionLevel
	}
	if o.MaxDecompressedSize == 0 {
		o.MaxDecompressedSize = tilecodec.DefaultMaxDecompressedSize
	}
	return o
}

func allowed(allowlist []string, name string) bool {
	if len(allowlist) == 0 {
		return true
	}
	for _, n := range allowlist {
		if n == name {
			return true
		}
	}
	return false
}

// Composite merges tiles into target, returning the serialized (and
// optionally gzip-compressed) output tile.
func Composite(tiles []SourceTile, target Target, opts Options) ([]byte, error) {
	if len(tiles) == 0 {
		return nil, vterr.New(vterr.InputValidation, "composite: tiles must be a non-empty list", nil)
	}

	opts = opts.withDefaults()

	var out mvt.Layers
	emitted := map[string]bool{}

	for _, t := range tiles {
		if !zxy.WithinTarget(t.ID, target) {
			return nil, vterr.New(vterr.InvalidRequest,
				fmt.Sprintf("composite: source tile %s is not within target %s", t.ID, target), nil)
		}

		layers, err := tilecodec.Unmarshal(t.Data, opts.MaxDecompressedSize)
		if err != nil {
			if err == tilecodec.ErrOutputTooLarge {
				return nil, vterr.New(vterr.SizeLimit, "composite: decompressed source tile exceeds size cap", err)
			}
			return nil, vterr.New(vterr.DecodeError, "composite: decoding source tile", err)
		}

		zoomFactor := zxy.ZoomFactor(t.ID, target)

		for _, layer := range layers {
			if emitted[layer.Name] {
				continue
			}
			if !allowed(t.Layers, layer.Name) {
				continue
			}
			emitted[layer.Name] = true

			if zoomFactor == 1 {
				// Same zoom: the decoded layer is re-encoded unchanged, with
				// no re-framing or clipping. The output is re-serialized by
				// the codec, so its bytes are not guaranteed to equal the
				// source layer's bytes.
				out = append(out, layer)
				continue
			}

			dst, err := overzoomLayer(layer, t.ID, target, zoomFactor, opts.BufferSize)
			if err != nil {
				return nil, err
			}
			out = append(out, dst)
		}
	}

	buf, err := tilecodec.Marshal(out, opts.Compress, opts.CompressionLevel)
	if err != nil {
		return nil, vterr.New(vterr.Internal, "composite: serializing output tile", err)
	}
	return buf, nil
}

func overzoomLayer(layer *mvt.Layer, src zxy.ID, target zxy.ID, zoomFactor uint64, bufferSize int) (*mvt.Layer, error) {
	dx, dy := zxy.Displacement(src.Z, layer.Extent, target.Z, target.X, target.Y)

	params := overzoom.Params{
		Extent:        layer.Extent,
		Buffer:        bufferSize,
		Dx:            float64(dx),
		Dy:            float64(dy),
		ZoomFactor:    float64(zoomFactor),
		SourceVersion: layer.Version,
	}

	dst := &mvt.Layer{Name: layer.Name, Version: layer.Version, Extent: layer.Extent}
	for _, feat := range layer.Features {
		built, err := overzoom.Build(feat, params)
		if err != nil {
			if layer.Version == 1 {
				log.Printf("composite: skipping feature in v1 layer %q after geometry error: %v", layer.Name, err)
				continue
			}
			return nil, vterr.New(vterr.DecodeError,
				fmt.Sprintf("composite: decoding feature geometry in layer %q", layer.Name), err)
		}
		if built != nil {
			dst.Features = append(dst.Features, built)
		}
	}
	return dst, nil
}
