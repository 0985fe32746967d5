package composite

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/vtedit/pkg/vterr"
	"github.com/valpere/vtedit/pkg/zxy"
)

func mustMarshal(t *testing.T, layers mvt.Layers) []byte {
	t.Helper()
	buf, err := mvt.Marshal(layers)
	require.NoError(t, err)
	return buf
}

func TestCompositeOverzoomSinglePoint(t *testing.T) {
	// Scenario C1.
	layers := mvt.Layers{
		{
			Name:    "points",
			Version: 2,
			Extent:  4096,
			Features: []*geojson.Feature{
				{Geometry: orb.Point{2048, 2048}},
			},
		},
	}

	out, err := Composite([]SourceTile{
		{ID: zxy.ID{Z: 0, X: 0, Y: 0}, Data: mustMarshal(t, layers)},
	}, Target{Z: 2, X: 1, Y: 1}, Options{})
	require.NoError(t, err)

	got, err := mvt.Unmarshal(out)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Features, 1)
	assert.Equal(t, orb.Point{0, 0}, got[0].Features[0].Geometry)
}

func TestCompositeLayerDedupFirstWriterWins(t *testing.T) {
	first := mvt.Layers{{Name: "roads", Version: 2, Extent: 4096, Features: []*geojson.Feature{
		{Geometry: orb.Point{1, 1}, Properties: geojson.Properties{"source": "first"}},
	}}}
	second := mvt.Layers{{Name: "roads", Version: 2, Extent: 4096, Features: []*geojson.Feature{
		{Geometry: orb.Point{2, 2}, Properties: geojson.Properties{"source": "second"}},
	}}}

	target := zxy.ID{Z: 1, X: 0, Y: 0}
	out, err := Composite([]SourceTile{
		{ID: target, Data: mustMarshal(t, first)},
		{ID: target, Data: mustMarshal(t, second)},
	}, target, Options{})
	require.NoError(t, err)

	got, err := mvt.Unmarshal(out)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].Features[0].Properties["source"])
}

func TestCompositeShallowCopyPreservesLayerWhenZoomFactorOne(t *testing.T) {
	layers := mvt.Layers{{Name: "water", Version: 2, Extent: 4096, Features: []*geojson.Feature{
		{Geometry: orb.Point{100, 200}},
	}}}
	target := zxy.ID{Z: 5, X: 3, Y: 3}
	data := mustMarshal(t, layers)

	out, err := Composite([]SourceTile{{ID: target, Data: data}}, target, Options{})
	require.NoError(t, err)

	reDecoded, err := mvt.Unmarshal(out)
	require.NoError(t, err)
	require.Len(t, reDecoded, 1)
	assert.Equal(t, layers[0].Name, reDecoded[0].Name)
	assert.Equal(t, layers[0].Features[0].Geometry, reDecoded[0].Features[0].Geometry)
}

func TestCompositeRejectsTileOutsidePyramid(t *testing.T) {
	layers := mvt.Layers{{Name: "x", Version: 2, Extent: 4096}}
	_, err := Composite([]SourceTile{
		{ID: zxy.ID{Z: 4, X: 3, Y: 3}, Data: mustMarshal(t, layers)},
	}, Target{Z: 2, X: 0, Y: 0}, Options{})

	require.Error(t, err)
	vtErr, ok := err.(*vterr.Error)
	require.True(t, ok)
	assert.Equal(t, vterr.InvalidRequest, vtErr.Kind)
}

func TestCompositeRejectsEmptyTileList(t *testing.T) {
	_, err := Composite(nil, Target{}, Options{})
	require.Error(t, err)
	vtErr, ok := err.(*vterr.Error)
	require.True(t, ok)
	assert.Equal(t, vterr.InputValidation, vtErr.Kind)
}
