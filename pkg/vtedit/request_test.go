package vtedit

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositeRejectsEmptyTiles(t *testing.T) {
	_, err := Composite(CompositeRequest{})
	require.Error(t, err)
	vtErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, InputValidation, vtErr.Kind)
}

func TestCompositeRejectsNilBuffer(t *testing.T) {
	_, err := Composite(CompositeRequest{
		Tiles:  []SourceTileRequest{{Z: 0, X: 0, Y: 0}},
		Target: TargetRequest{Z: 0, X: 0, Y: 0},
	})
	require.Error(t, err)
	vtErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, InputValidation, vtErr.Kind)
}

func TestCompositeOverzoomThroughPublicAPI(t *testing.T) {
	layers := mvt.Layers{{Name: "points", Version: 2, Extent: 4096, Features: []*geojson.Feature{
		{Geometry: orb.Point{2048, 2048}},
	}}}
	data, err := mvt.Marshal(layers)
	require.NoError(t, err)

	out, err := Composite(CompositeRequest{
		Tiles:  []SourceTileRequest{{Z: 0, X: 0, Y: 0, Buffer: data}},
		Target: TargetRequest{Z: 2, X: 1, Y: 1},
	})
	require.NoError(t, err)

	got, err := mvt.Unmarshal(out)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Features, 1)
	assert.Equal(t, orb.Point{0, 0}, got[0].Features[0].Geometry)
}

func TestLocalizeRejectsNilBuffer(t *testing.T) {
	_, err := Localize(LocalizeRequest{})
	require.Error(t, err)
	vtErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, InputValidation, vtErr.Kind)
}

func TestLocalizeRejectsEmptyLanguagesArray(t *testing.T) {
	_, err := Localize(LocalizeRequest{Buffer: []byte{}, Languages: []string{}})
	require.Error(t, err)
	vtErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, InputValidation, vtErr.Kind)
}

func TestLocalizeWorldviewSplitThroughPublicAPI(t *testing.T) {
	layers := mvt.Layers{{Name: "places", Version: 2, Extent: 4096, Features: []*geojson.Feature{
		{Geometry: orb.Point{5, 5}, Properties: geojson.Properties{"_mbx_worldview": "CN,US,JP"}},
	}}}
	data, err := mvt.Marshal(layers)
	require.NoError(t, err)

	out, err := Localize(LocalizeRequest{Buffer: data, Worldviews: []string{"US", "CN"}})
	require.NoError(t, err)

	got, err := mvt.Unmarshal(out)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Features, 2)
	assert.Equal(t, "US", got[0].Features[0].Properties["worldview"])
	assert.Equal(t, "CN", got[0].Features[1].Properties["worldview"])
}
