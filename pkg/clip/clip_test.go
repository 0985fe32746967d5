package clip

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineStringClip(t *testing.T) {
	// Scenario C3.
	bound := Bound(4096, 0)
	ls := orb.LineString{{-1000, 2000}, {5000, 2000}}

	got := LineString(bound, ls)
	require.Len(t, got, 1)
	assert.Len(t, got[0], 2)
	assert.Equal(t, orb.Point{0, 2000}, got[0][0])
	assert.Equal(t, orb.Point{4096, 2000}, got[0][1])
}

func TestLineStringDropsDegenerateSegments(t *testing.T) {
	bound := Bound(4096, 0)
	ls := orb.LineString{{-500, -500}, {-400, -500}}
	got := LineString(bound, ls)
	assert.Empty(t, got)
}

func TestPolygonInnerRingWindingReversed(t *testing.T) {
	// Outer ring clockwise, inner ring counter-clockwise (scenario C4).
	outer := orb.Ring{{0, 0}, {0, 4096}, {4096, 4096}, {4096, 0}, {0, 0}}
	inner := orb.Ring{{1000, 1000}, {1500, 1000}, {1500, 1500}, {1000, 1500}, {1000, 1000}}
	poly := orb.Polygon{outer, inner}

	bound := Bound(4096, 0)
	got := Polygon(bound, poly)
	require.NotNil(t, got)
	require.Len(t, got, 2)

	outerOrientation := got[0].Orientation()
	innerOrientation := got[1].Orientation()
	assert.NotEqual(t, outerOrientation, innerOrientation)
}

func TestPolygonDroppedWhenEnvelopeOutsideBound(t *testing.T) {
	poly := orb.Polygon{
		{{10000, 10000}, {10000, 10100}, {10100, 10100}, {10100, 10000}, {10000, 10000}},
	}
	bound := Bound(4096, 0)
	got := Polygon(bound, poly)
	assert.Nil(t, got)
}

func TestPointCoverage(t *testing.T) {
	bound := Bound(4096, 64)
	assert.True(t, Point(bound, orb.Point{-64, -64}))
	assert.False(t, Point(bound, orb.Point{-65, 0}))
}
