package overzoom

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOverzoomPoint(t *testing.T) {
	// Scenario C1: source point at (2048, 2048) in a z0 tile, extent 4096,
	// target (z2, x1, y1): zoom_factor=4, dx=dy=4096.
	src := &geojson.Feature{
		Geometry: orb.Point{2048, 2048},
	}

	got, err := Build(src, Params{
		Extent:     4096,
		Buffer:     0,
		Dx:         4096,
		Dy:         4096,
		ZoomFactor: 4,
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, orb.Point{0, 0}, got.Geometry)
}

func TestBuildRollsBackPointOutsideBound(t *testing.T) {
	src := &geojson.Feature{Geometry: orb.Point{0, 0}}
	got, err := Build(src, Params{
		Extent:     4096,
		Buffer:     0,
		Dx:         -10000,
		Dy:         -10000,
		ZoomFactor: 1,
	})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBuildCopiesPropertiesAndID(t *testing.T) {
	src := &geojson.Feature{
		ID:         uint64(42),
		Geometry:   orb.Point{10, 10},
		Properties: geojson.Properties{"name": "A"},
	}
	got, err := Build(src, Params{Extent: 4096, ZoomFactor: 1})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint64(42), got.ID)
	assert.Equal(t, "A", got.Properties["name"])
}

func TestBuildLineStringClip(t *testing.T) {
	src := &geojson.Feature{
		Geometry: orb.LineString{{-1000, 2000}, {5000, 2000}},
	}
	got, err := Build(src, Params{Extent: 4096, ZoomFactor: 1})
	require.NoError(t, err)
	require.NotNil(t, got)
	ls, ok := got.Geometry.(orb.LineString)
	require.True(t, ok)
	assert.Equal(t, orb.Point{0, 2000}, ls[0])
	assert.Equal(t, orb.Point{4096, 2000}, ls[1])
}

func TestBuildDropsDegenerateLineString(t *testing.T) {
	src := &geojson.Feature{
		Geometry: orb.LineString{{-500, -500}, {-400, -500}},
	}
	got, err := Build(src, Params{Extent: 4096, ZoomFactor: 1})
	require.NoError(t, err)
	assert.Nil(t, got)
}
