// Package clip wraps github.com/paulmach/orb/clip (the assumed external
// 2-D axis-aligned-box clipping primitive) with the winding-reversal and
// per-polygon envelope early-out discipline the primitive itself does not
// provide: the canonical variant described in the design notes, which
// reverses inner rings both before clipping and on emission.
package clip

import (
	"github.com/paulmach/orb"
	orbclip "github.com/paulmach/orb/clip"
)

// Bound builds the clipping box ((-buf,-buf),(extent+buf,extent+buf)).
func Bound(extent uint32, buffer int) orb.Bound {
	buf := float64(buffer)
	ext := float64(extent)
	return orb.Bound{
		Min: orb.Point{-buf, -buf},
		Max: orb.Point{ext + buf, ext + buf},
	}
}

// Point reports whether p is covered by bound.
func Point(bound orb.Bound, p orb.Point) bool {
	return bound.Contains(p)
}

// MultiPoint filters mp down to the points covered by bound.
func MultiPoint(bound orb.Bound, mp orb.MultiPoint) orb.MultiPoint {
	out := make(orb.MultiPoint, 0, len(mp))
	for _, p := range mp {
		if bound.Contains(p) {
			out = append(out, p)
		}
	}
	return out
}

func hasDistinctAdjacentPair(ls orb.LineString) bool {
	if len(ls) < 2 {
		return false
	}
	for i := 1; i < len(ls); i++ {
		if ls[i] != ls[i-1] {
			return true
		}
	}
	return false
}

// LineString clips ls against bound, dropping any resulting segment with
// fewer than two vertices or with no distinct adjacent vertex pair.
func LineString(bound orb.Bound, ls orb.LineString) orb.MultiLineString {
	clipped := orbclip.LineString(bound, ls)
	out := make(orb.MultiLineString, 0, len(clipped))
	for _, l := range clipped {
		if hasDistinctAdjacentPair(l) {
			out = append(out, l)
		}
	}
	return out
}

// MultiLineString clips every component line string against bound.
func MultiLineString(bound orb.Bound, mls orb.MultiLineString) orb.MultiLineString {
	var out orb.MultiLineString
	for _, ls := range mls {
		out = append(out, LineString(bound, ls)...)
	}
	return out
}

func reverse(r orb.Ring) orb.Ring {
	out := make(orb.Ring, len(r))
	for i, p := range r {
		out[len(r)-1-i] = p
	}
	return out
}

// Polygon clips a single polygon (outer ring plus holes) against bound.
// The polygon is dropped whole if its envelope does not intersect bound.
// The outer ring is clipped as-is; inner rings are reversed before
// clipping (the clipping primitive expects outer-style orientation) and
// reversed again on emission to restore the original winding. Rings with
// three or fewer vertices after clipping are dropped. Returns nil if
// nothing survives.
func Polygon(bound orb.Bound, poly orb.Polygon) orb.Polygon {
	if len(poly) == 0 {
		return nil
	}
	if !poly.Bound().Intersects(bound) {
		return nil
	}

	outer := orbclip.Ring(bound, poly[0])
	if len(outer) <= 3 {
		return nil
	}
	result := orb.Polygon{outer}

	for _, inner := range poly[1:] {
		clippedInner := orbclip.Ring(bound, reverse(inner))
		if len(clippedInner) <= 3 {
			continue
		}
		result = append(result, reverse(clippedInner))
	}

	return result
}

// MultiPolygon clips every component polygon against bound, dropping any
// polygon that does not survive.
func MultiPolygon(bound orb.Bound, mp orb.MultiPolygon) orb.MultiPolygon {
	var out orb.MultiPolygon
	for _, poly := range mp {
		if clipped := Polygon(bound, poly); clipped != nil {
			out = append(out, clipped)
		}
	}
	return out
}
