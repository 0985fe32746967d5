// internal/tile/pmtiles_fetcher.go - PMTiles archive fetching implementation
package tile

import (
	"fmt"
	"time"

	"github.com/valpere/vtedit/internal"
	"github.com/valpere/vtedit/internal/config"
	"github.com/valpere/vtedit/internal/pmtiles"
)

// PMTilesFetcher implements the Fetcher interface over a single local
// PMTiles archive, looking tiles up by their Hilbert-curve directory entry
// instead of a file-per-tile layout.
type PMTilesFetcher struct {
	reader *pmtiles.Reader
}

// NewPMTilesFetcher opens the configured archive and returns a fetcher over it.
func NewPMTilesFetcher(cfg *config.Config) (*PMTilesFetcher, error) {
	if cfg.PMTiles.ArchivePath == "" {
		return nil, fmt.Errorf("pmtiles.archive_path is required for the pmtiles source type")
	}

	reader, err := pmtiles.Open(cfg.PMTiles.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open pmtiles archive: %w", err)
	}

	return &PMTilesFetcher{reader: reader}, nil
}

// Fetch retrieves a single tile from the archive
func (f *PMTilesFetcher) Fetch(request *TileRequest) (*TileResponse, error) {
	start := time.Now()

	if err := ValidateCoordinates(request.Z, request.X, request.Y); err != nil {
		validationErr := internal.NewError(internal.ErrorCodeValidation, "invalid tile coordinates", err)
		return &TileResponse{Request: request, FetchTime: time.Since(start), Error: validationErr}, validationErr
	}

	data, found, err := f.reader.GetTile(uint8(request.Z), uint32(request.X), uint32(request.Y))
	if err != nil {
		fetchErr := internal.NewError(internal.ErrorCodeProcessing, "failed to read tile from pmtiles archive", err)
		return &TileResponse{Request: request, FetchTime: time.Since(start), Error: fetchErr}, fetchErr
	}
	if !found {
		notFoundErr := internal.NewError(internal.ErrorCodeNotFound, fmt.Sprintf("tile %d/%d/%d not present in archive", request.Z, request.X, request.Y), nil)
		return &TileResponse{Request: request, FetchTime: time.Since(start), Error: notFoundErr}, notFoundErr
	}

	return &TileResponse{
		Request:    request,
		Data:       data,
		StatusCode: 200,
		Size:       len(data),
		FetchTime:  time.Since(start),
	}, nil
}

// FetchWithRetry implements retry logic for consistency with other fetchers;
// archive reads are local and rarely transient, so a single extra attempt
// on I/O error is sufficient.
func (f *PMTilesFetcher) FetchWithRetry(request *TileRequest) (*TileResponse, error) {
	response, err := f.Fetch(request)
	if err == nil {
		return response, nil
	}

	if appErr, ok := err.(*internal.Error); ok {
		switch appErr.Code {
		case internal.ErrorCodeNotFound, internal.ErrorCodeValidation:
			return response, err
		}
	}

	return f.Fetch(request)
}

// Close releases the underlying archive file handle.
func (f *PMTilesFetcher) Close() error {
	return f.reader.Close()
}
