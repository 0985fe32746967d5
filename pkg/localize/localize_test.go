package localize

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oneLayerTile(t *testing.T, features ...*geojson.Feature) []byte {
	t.Helper()
	layers := mvt.Layers{{Name: "places", Version: 2, Extent: 4096, Features: features}}
	buf, err := mvt.Marshal(layers)
	require.NoError(t, err)
	return buf
}

func decodeOneLayer(t *testing.T, data []byte) []*geojson.Feature {
	t.Helper()
	layers, err := mvt.Unmarshal(data)
	require.NoError(t, err)
	require.Len(t, layers, 1)
	return layers[0].Features
}

func TestLocalizePassThroughDropsHidden(t *testing.T) {
	// Scenario C5.
	src := oneLayerTile(t, &geojson.Feature{
		Geometry: orb.Point{1, 1},
		Properties: geojson.Properties{
			"name":         "A",
			"_mbx_name_en": "A-en",
			"class":        "road",
		},
	})

	out, err := Localize(src, Options{})
	require.NoError(t, err)

	feats := decodeOneLayer(t, out)
	require.Len(t, feats, 1)
	assert.Equal(t, geojson.Properties{"name": "A", "class": "road"}, feats[0].Properties)
}

func TestLocalizeWorldviewSplit(t *testing.T) {
	// Scenario C6.
	src := oneLayerTile(t, &geojson.Feature{
		ID:       uint64(7),
		Geometry: orb.Point{5, 5},
		Properties: geojson.Properties{
			"_mbx_worldview": "CN,US,JP",
		},
	})

	out, err := Localize(src, Options{Worldviews: []string{"US", "CN"}})
	require.NoError(t, err)

	feats := decodeOneLayer(t, out)
	require.Len(t, feats, 2)
	assert.Equal(t, "US", feats[0].Properties["worldview"])
	assert.Equal(t, "CN", feats[1].Properties["worldview"])
	for _, f := range feats {
		assert.Equal(t, uint64(7), f.ID)
		assert.Equal(t, orb.Point{5, 5}, f.Geometry)
	}
}

func TestLocalizeWorldviewIncompatibleDropsFeature(t *testing.T) {
	src := oneLayerTile(t, &geojson.Feature{
		Geometry:   orb.Point{1, 1},
		Properties: geojson.Properties{"worldview": "US"},
	})

	out, err := Localize(src, Options{Worldviews: []string{"US"}})
	require.NoError(t, err)

	feats := decodeOneLayer(t, out)
	assert.Len(t, feats, 0)
}

func TestLocalizeWorldviewUniversalAllSurvives(t *testing.T) {
	src := oneLayerTile(t, &geojson.Feature{
		Geometry:   orb.Point{1, 1},
		Properties: geojson.Properties{"worldview": "all"},
	})

	out, err := Localize(src, Options{Worldviews: []string{"US"}})
	require.NoError(t, err)

	feats := decodeOneLayer(t, out)
	require.Len(t, feats, 1)
	assert.Equal(t, "US", feats[0].Properties["worldview"])
}

func TestLocalizeNoWorldviewKeyDefaultsWhenLocalized(t *testing.T) {
	src := oneLayerTile(t, &geojson.Feature{
		Geometry:   orb.Point{1, 1},
		Properties: geojson.Properties{"name": "plain"},
	})

	out, err := Localize(src, Options{Languages: []string{"en"}})
	require.NoError(t, err)

	feats := decodeOneLayer(t, out)
	require.Len(t, feats, 1)
	assert.Equal(t, "US", feats[0].Properties["worldview"])
}

func TestLocalizeLanguagePlainBeatsHiddenShadow(t *testing.T) {
	src := oneLayerTile(t, &geojson.Feature{
		Geometry: orb.Point{1, 1},
		Properties: geojson.Properties{
			"name":         "fallback",
			"name_fr":      "Francais",
			"_mbx_name_fr": "shadow-fr",
		},
	})

	out, err := Localize(src, Options{Languages: []string{"fr"}})
	require.NoError(t, err)

	feats := decodeOneLayer(t, out)
	require.Len(t, feats, 1)
	assert.Equal(t, "Francais", feats[0].Properties["name"])
}

func TestLocalizeLanguageFallsBackToDefaultName(t *testing.T) {
	src := oneLayerTile(t, &geojson.Feature{
		Geometry:   orb.Point{1, 1},
		Properties: geojson.Properties{"name": "fallback"},
	})

	out, err := Localize(src, Options{Languages: []string{"de"}})
	require.NoError(t, err)

	feats := decodeOneLayer(t, out)
	require.Len(t, feats, 1)
	assert.Equal(t, "fallback", feats[0].Properties["name"])
}

func TestLocalizeLocalVariantOmittedForDisallowedScript(t *testing.T) {
	src := oneLayerTile(t, &geojson.Feature{
		Geometry: orb.Point{1, 1},
		Properties: geojson.Properties{
			"name":        "Pyongyang",
			"name_script": "Hang",
			"name_en":     "Pyongyang-en",
		},
	})

	out, err := Localize(src, Options{Languages: []string{"en"}, OmitScripts: []string{"Hang"}})
	require.NoError(t, err)

	feats := decodeOneLayer(t, out)
	require.Len(t, feats, 1)
	assert.Equal(t, "Pyongyang-en", feats[0].Properties["name_local"])
}

func TestLocalizeClassHiddenOverridesPlain(t *testing.T) {
	src := oneLayerTile(t, &geojson.Feature{
		Geometry: orb.Point{1, 1},
		Properties: geojson.Properties{
			"class":       "minor",
			"_mbx_class":  "major",
		},
	})

	out, err := Localize(src, Options{Languages: []string{"en"}})
	require.NoError(t, err)

	feats := decodeOneLayer(t, out)
	require.Len(t, feats, 1)
	assert.Equal(t, "major", feats[0].Properties["class"])
}

func TestLocalizeOtherKeysPassThrough(t *testing.T) {
	src := oneLayerTile(t, &geojson.Feature{
		Geometry:   orb.Point{1, 1},
		Properties: geojson.Properties{"population": int64(1000)},
	})

	out, err := Localize(src, Options{})
	require.NoError(t, err)

	feats := decodeOneLayer(t, out)
	require.Len(t, feats, 1)
	assert.Equal(t, int64(1000), feats[0].Properties["population"])
}
