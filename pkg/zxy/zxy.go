// Package zxy implements tile-pyramid arithmetic: containment testing
// between a source and target tile, and the pixel displacement of a
// target tile inside a coarser source tile.
package zxy

import "fmt"

// ID identifies a single tile in the Web Mercator pyramid by zoom, column,
// and row. X and Y are only meaningful relative to Z: 0 <= X, Y < 2^Z.
type ID struct {
	Z, X, Y uint32
}

func (id ID) String() string {
	return fmt.Sprintf("%d/%d/%d", id.Z, id.X, id.Y)
}

// Validate reports whether X and Y fall within the valid range for Z.
func (id ID) Validate() error {
	max := uint32(1) << id.Z
	if id.X >= max {
		return fmt.Errorf("zxy: x %d out of range for zoom %d (max %d)", id.X, id.Z, max-1)
	}
	if id.Y >= max {
		return fmt.Errorf("zxy: y %d out of range for zoom %d (max %d)", id.Y, id.Z, max-1)
	}
	return nil
}

// WithinTarget reports whether src is an ancestor of, or equal to, tgt in
// the tile pyramid: src.Z <= tgt.Z and tgt falls under src when tgt's
// column/row are shifted down to src's zoom level.
func WithinTarget(src, tgt ID) bool {
	if src.Z > tgt.Z {
		return false
	}
	dz := tgt.Z - src.Z
	return (tgt.X>>dz) == src.X && (tgt.Y>>dz) == src.Y
}

// ZoomFactor returns 2^(tgt.Z - src.Z). Callers must only invoke this once
// WithinTarget(src, tgt) has been confirmed.
func ZoomFactor(src, tgt ID) uint64 {
	return uint64(1) << (tgt.Z - src.Z)
}

// Displacement computes the pixel offset (dx, dy) of the target tile's
// sub-region inside the source tile, expressed at the resolution where one
// source tile spans extent * 2^(targetZ-sourceZ) units.
//
// The loop runs exactly targetZ-sourceZ iterations regardless of
// intermediate values: starting at half = extent/2, at each step half is
// doubled first, then the low bit of the current x (resp. y) selects
// whether the doubled half is added to dx (resp. dy), and x, y are shifted
// down one bit for the next iteration.
func Displacement(sourceZ uint32, extent uint32, targetZ, targetX, targetY uint32) (dx, dy int64) {
	half := int64(extent) / 2
	x, y := targetX, targetY
	for i := sourceZ; i < targetZ; i++ {
		half <<= 1
		if x&1 == 1 {
			dx += half
		}
		if y&1 == 1 {
			dy += half
		}
		x >>= 1
		y >>= 1
	}
	return dx, dy
}
