package pmtiles

import (
	"fmt"
	"os"
)

// Reader provides random-access tile lookup into a local PMTiles v3 archive.
type Reader struct {
	file   *os.File
	Header HeaderV3
	root   []EntryV3
}

// Open opens a PMTiles archive and reads its header and root directory.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pmtiles: failed to open archive: %w", err)
	}

	headerBytes := make([]byte, HeaderV3LenBytes)
	if _, err := file.ReadAt(headerBytes, 0); err != nil {
		file.Close()
		return nil, fmt.Errorf("pmtiles: failed to read header: %w", err)
	}

	header, err := DeserializeHeader(headerBytes)
	if err != nil {
		file.Close()
		return nil, err
	}

	rootBytes := make([]byte, header.RootLength)
	if _, err := file.ReadAt(rootBytes, int64(header.RootOffset)); err != nil {
		file.Close()
		return nil, fmt.Errorf("pmtiles: failed to read root directory: %w", err)
	}

	root, err := DeserializeEntries(rootBytes, header.InternalCompression)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("pmtiles: failed to parse root directory: %w", err)
	}

	return &Reader{file: file, Header: header, root: root}, nil
}

// Close closes the underlying archive file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// GetTile returns the decompressed tile bytes for z/x/y, or found=false if
// the archive has no entry for that coordinate.
func (r *Reader) GetTile(z uint8, x, y uint32) (data []byte, found bool, err error) {
	tileID := ZxyToID(z, x, y)

	entry, ok := FindEntry(r.root, tileID)
	if !ok {
		return nil, false, nil
	}

	// A zero-length run with Length pointing at a leaf directory means one
	// more level of indirection before reaching the tile entry itself.
	if entry.RunLength == 0 {
		entry, ok, err = r.findInLeaf(entry, tileID)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
	}

	raw := make([]byte, entry.Length)
	if _, err := r.file.ReadAt(raw, int64(r.Header.TileDataOffset+entry.Offset)); err != nil {
		return nil, false, fmt.Errorf("pmtiles: failed to read tile data: %w", err)
	}

	decompressed, err := DecompressTile(raw, r.Header.TileCompression)
	if err != nil {
		return nil, false, err
	}

	return decompressed, true, nil
}

func (r *Reader) findInLeaf(dirEntry EntryV3, tileID uint64) (EntryV3, bool, error) {
	leafBytes := make([]byte, dirEntry.Length)
	offset := int64(r.Header.LeafDirectoryOffset + dirEntry.Offset)
	if _, err := r.file.ReadAt(leafBytes, offset); err != nil {
		return EntryV3{}, false, fmt.Errorf("pmtiles: failed to read leaf directory: %w", err)
	}

	leaf, err := DeserializeEntries(leafBytes, r.Header.InternalCompression)
	if err != nil {
		return EntryV3{}, false, fmt.Errorf("pmtiles: failed to parse leaf directory: %w", err)
	}

	entry, ok := FindEntry(leaf, tileID)
	return entry, ok, nil
}
