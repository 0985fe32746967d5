// Package overzoom implements the per-feature overzoom pipeline: decode a
// source feature's geometry, re-frame it into the target tile's
// coordinate space, clip it, and commit the surviving remnant into a
// destination layer — or roll it back if nothing survives.
package overzoom

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/valpere/vtedit/pkg/clip"
	"github.com/valpere/vtedit/pkg/geomframe"
)

// Params parameterizes one feature's overzoom pass.
type Params struct {
	Extent        uint32
	Buffer        int
	Dx, Dy        float64
	ZoomFactor    float64
	SourceVersion uint32
}

func (p Params) bound() orb.Bound {
	return clip.Bound(p.Extent, p.Buffer)
}

// Build re-frames and clips a single source feature into the destination
// layer's coordinate space. It returns (nil, nil) when the feature's
// geometry is degenerate after clipping — a rollback, not an error. A
// non-nil error means geometry decoding failed outright; the caller
// decides whether to swallow it (source layer version 1) or propagate it
// (version >= 2), per the failure model.
func Build(src *geojson.Feature, p Params) (*geojson.Feature, error) {
	if src == nil || src.Geometry == nil {
		return nil, nil
	}

	reframed := geomframe.Geometry(src.Geometry, p.ZoomFactor, p.Dx, p.Dy)
	bound := p.bound()

	clipped, err := clipGeometry(bound, reframed)
	if err != nil {
		return nil, err
	}
	if clipped == nil {
		return nil, nil
	}

	return &geojson.Feature{
		ID:         src.ID,
		Type:       src.Type,
		Geometry:   clipped,
		Properties: src.Properties,
	}, nil
}

// clipGeometry dispatches to the clip package per geometry type. Points
// explicitly roll back to nil when no coordinate survives (mirroring the
// source's "build a point feature builder, then roll it back if empty"
// discipline); linestrings and polygons simply report no geometry when
// the clip result is empty.
func clipGeometry(bound orb.Bound, geom orb.Geometry) (orb.Geometry, error) {
	switch g := geom.(type) {
	case orb.Point:
		if clip.Point(bound, g) {
			return g, nil
		}
		return nil, nil

	case orb.MultiPoint:
		out := clip.MultiPoint(bound, g)
		if len(out) == 0 {
			return nil, nil
		}
		return out, nil

	case orb.LineString:
		out := clip.LineString(bound, g)
		if len(out) == 0 {
			return nil, nil
		}
		if len(out) == 1 {
			return out[0], nil
		}
		return out, nil

	case orb.MultiLineString:
		out := clip.MultiLineString(bound, g)
		if len(out) == 0 {
			return nil, nil
		}
		return out, nil

	case orb.Polygon:
		out := clip.Polygon(bound, g)
		if out == nil {
			return nil, nil
		}
		return out, nil

	case orb.MultiPolygon:
		out := clip.MultiPolygon(bound, g)
		if len(out) == 0 {
			return nil, nil
		}
		if len(out) == 1 {
			return out[0], nil
		}
		return out, nil

	default:
		return nil, fmt.Errorf("overzoom: unsupported geometry type %T", geom)
	}
}
