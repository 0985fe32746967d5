package geomframe

import (
	"testing"

	"github.com/paulmach/orb"
)

func TestPointsDedupInSourceFrame(t *testing.T) {
	seq := []orb.Point{{10, 10}, {10, 10}, {20, 10}, {20, 10}, {20, 20}}
	got := Points(seq, 1, 0, 0)
	want := []orb.Point{{10, 10}, {20, 10}, {20, 20}}
	if len(got) != len(want) {
		t.Fatalf("got %d points, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestGeometryPointScaleTranslate(t *testing.T) {
	// Scenario C1: source point (2048, 2048), zoom_factor=4, dx=dy=4096.
	src := orb.Point{2048, 2048}
	got := Geometry(src, 4, 4096, 4096)
	want := orb.Point{4096, 4096}
	if got != want {
		t.Errorf("Geometry(point) = %v, want %v", got, want)
	}
}

func TestGeometryLineStringUnitZoomUnchanged(t *testing.T) {
	src := orb.LineString{{-1000, 2000}, {5000, 2000}}
	got := Geometry(src, 1, 0, 0)
	want := orb.LineString{{-1000, 2000}, {5000, 2000}}
	for i := range want {
		if got.(orb.LineString)[i] != want[i] {
			t.Errorf("vertex %d = %v, want %v", i, got.(orb.LineString)[i], want[i])
		}
	}
}

func TestGeometryPolygonRingsReframed(t *testing.T) {
	src := orb.Polygon{
		{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}},
	}
	got := Geometry(src, 2, 0, 0).(orb.Polygon)
	if len(got) != 1 {
		t.Fatalf("got %d rings, want 1", len(got))
	}
	if got[0][1] != (orb.Point{0, 20}) {
		t.Errorf("ring vertex 1 = %v, want {0,20}", got[0][1])
	}
}
