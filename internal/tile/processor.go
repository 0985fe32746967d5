// internal/tile/processor.go - Tile processing implementation
package tile

import (
	"fmt"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/valpere/vtedit/pkg/tilecodec"
)

// MVTProcessor decodes a raw tile into per-layer GeoJSON for the inspect
// command, using the same tilecodec envelope (and mvt.Layers/geojson.Feature
// shape) that composite and localize decode against. Geometry is left in
// tile-local coordinates rather than projected to WGS84: a composited or
// localized tile has no fixed place in a web-mercator pyramid until a caller
// re-embeds it at a chosen z/x/y, so inspect shows the same tile-local view
// those operations themselves work in.
type MVTProcessor struct {
	maxDecompressedSize int
}

// NewMVTProcessor creates a new processor for Mapbox Vector Tiles.
func NewMVTProcessor() *MVTProcessor {
	return &MVTProcessor{
		maxDecompressedSize: tilecodec.DefaultMaxDecompressedSize,
	}
}

// Process converts a single tile response to processed GeoJSON data.
func (p *MVTProcessor) Process(response *TileResponse) (*ProcessedTile, error) {
	start := time.Now()

	coordinate := &TileCoordinate{
		Z: response.Request.Z,
		X: response.Request.X,
		Y: response.Request.Y,
	}

	if response.Error != nil {
		return &ProcessedTile{
			Coordinate: coordinate,
			Error:      fmt.Errorf("tile fetch failed: %w", response.Error),
		}, response.Error
	}

	if len(response.Data) == 0 {
		return &ProcessedTile{
			Coordinate: coordinate,
			Error:      fmt.Errorf("empty tile data received"),
		}, fmt.Errorf("empty tile data for tile %s", coordinate.String())
	}

	layers, err := tilecodec.Unmarshal(response.Data, p.maxDecompressedSize)
	if err != nil {
		return &ProcessedTile{
			Coordinate: coordinate,
			Error:      fmt.Errorf("MVT decoding failed: %w", err),
		}, err
	}

	collections := make(map[string]*geojson.FeatureCollection, len(layers))
	layerNames := make([]string, 0, len(layers))
	featureCount := 0
	var extent, version int

	for _, layer := range layers {
		fc := geojson.NewFeatureCollection()
		for _, feature := range layer.Features {
			if feature.Geometry == nil {
				continue
			}
			fc.Append(feature)
		}
		collections[layer.Name] = fc
		layerNames = append(layerNames, layer.Name)
		featureCount += len(fc.Features)
		extent = int(layer.Extent)
		version = int(layer.Version)
	}

	tileMetadata := &TileMetadata{
		Layers:       layerNames,
		FeatureCount: featureCount,
		Size:         len(response.Data),
		ProcessTime:  time.Since(start),
		Version:      version,
		Extent:       extent,
		Compressed:   isCompressed(response.Headers),
	}

	return &ProcessedTile{
		Coordinate: coordinate,
		Data:       map[string]interface{}{"layers": collections},
		Metadata:   tileMetadata,
	}, nil
}

// ProcessBatch processes multiple tile responses one after another
func (p *MVTProcessor) ProcessBatch(responses []*TileResponse) ([]*ProcessedTile, error) {
	results := make([]*ProcessedTile, len(responses))

	// Process each response
	for i, response := range responses {
		processed, err := p.Process(response)
		if err != nil {
			// For batch processing, we include errors in the results
			// rather than failing the entire batch
			processed = &ProcessedTile{
				Coordinate: &TileCoordinate{
					Z: response.Request.Z,
					X: response.Request.X,
					Y: response.Request.Y,
				},
				Error: err,
			}
		}
		results[i] = processed
	}

	return results, nil
}

// isCompressed checks if the tile data was compressed based on response headers
func isCompressed(headers map[string][]string) bool {
	if contentEncoding, exists := headers["Content-Encoding"]; exists {
		for _, encoding := range contentEncoding {
			if encoding == "gzip" || encoding == "deflate" {
				return true
			}
		}
	}
	return false
}

// ValidateCoordinates ensures tile coordinates are within valid bounds
func ValidateCoordinates(z, x, y int) error {
	if z < 0 || z > 22 {
		return fmt.Errorf("invalid zoom level %d: must be between 0 and 22", z)
	}

	maxTile := 1 << uint(z)
	if x < 0 || x >= maxTile {
		return fmt.Errorf("invalid x coordinate %d for zoom %d: must be between 0 and %d", x, z, maxTile-1)
	}

	if y < 0 || y >= maxTile {
		return fmt.Errorf("invalid y coordinate %d for zoom %d: must be between 0 and %d", y, z, maxTile-1)
	}

	return nil
}
