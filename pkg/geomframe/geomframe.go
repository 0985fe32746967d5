// Package geomframe re-frames MVT geometry vertices from a source tile's
// coordinate space into a target tile's coordinate space: scale by the
// zoom factor, translate by the displacement offset, and suppress
// consecutive duplicate vertices (compared in the source frame, before
// scaling).
package geomframe

import "github.com/paulmach/orb"

// Sink is the visitor contract a geometry decoder drives: Begin announces
// an upcoming run of n vertices (a linestring or ring), Point delivers one
// source-frame vertex at a time, and End returns the accumulated,
// re-framed, deduplicated vertex run. A Sink carries state across calls
// within one run (the previous vertex, for dedup) but never across runs.
type Sink interface {
	Begin(n int)
	Point(p orb.Point)
	End() []orb.Point
}

// Reframer implements Sink: it scales and translates each accepted vertex
// into the target frame while dropping vertices equal to the immediately
// preceding one in the source frame.
type Reframer struct {
	ZoomFactor float64
	Dx, Dy     float64

	prev     orb.Point
	havePrev bool
	out      []orb.Point
}

func (r *Reframer) Begin(n int) {
	r.out = make([]orb.Point, 0, n)
	r.havePrev = false
}

func (r *Reframer) Point(p orb.Point) {
	if r.havePrev && p == r.prev {
		return
	}
	r.prev = p
	r.havePrev = true
	r.out = append(r.out, orb.Point{
		p[0]*r.ZoomFactor - r.Dx,
		p[1]*r.ZoomFactor - r.Dy,
	})
}

func (r *Reframer) End() []orb.Point {
	return r.out
}

// Points re-frames a full vertex sequence through a fresh Reframer.
func Points(seq []orb.Point, zoomFactor, dx, dy float64) []orb.Point {
	r := &Reframer{ZoomFactor: zoomFactor, Dx: dx, Dy: dy}
	r.Begin(len(seq))
	for _, p := range seq {
		r.Point(p)
	}
	return r.End()
}

func ring(r orb.Ring, zoomFactor, dx, dy float64) orb.Ring {
	return orb.Ring(Points([]orb.Point(r), zoomFactor, dx, dy))
}

// Geometry re-frames any orb.Geometry produced by the MVT decoder. Points
// pass through scale/translate without dedup (a single vertex has no
// adjacent duplicate to suppress); linestrings, rings, and polygons run
// through the deduplicating Reframer per component.
func Geometry(geom orb.Geometry, zoomFactor, dx, dy float64) orb.Geometry {
	switch g := geom.(type) {
	case orb.Point:
		return orb.Point{g[0]*zoomFactor - dx, g[1]*zoomFactor - dy}
	case orb.MultiPoint:
		out := make(orb.MultiPoint, len(g))
		for i, p := range g {
			out[i] = orb.Point{p[0]*zoomFactor - dx, p[1]*zoomFactor - dy}
		}
		return out
	case orb.LineString:
		return orb.LineString(Points([]orb.Point(g), zoomFactor, dx, dy))
	case orb.MultiLineString:
		out := make(orb.MultiLineString, len(g))
		for i, ls := range g {
			out[i] = orb.LineString(Points([]orb.Point(ls), zoomFactor, dx, dy))
		}
		return out
	case orb.Ring:
		return ring(g, zoomFactor, dx, dy)
	case orb.Polygon:
		out := make(orb.Polygon, len(g))
		for i, r := range g {
			out[i] = ring(r, zoomFactor, dx, dy)
		}
		return out
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, len(g))
		for i, poly := range g {
			reframed := make(orb.Polygon, len(poly))
			for j, r := range poly {
				reframed[j] = ring(r, zoomFactor, dx, dy)
			}
			out[i] = reframed
		}
		return out
	default:
		return geom
	}
}
