package zxy

import "testing"

func TestWithinTarget(t *testing.T) {
	tests := []struct {
		name string
		src  ID
		tgt  ID
		want bool
	}{
		{"same tile", ID{5, 3, 3}, ID{5, 3, 3}, true},
		{"ancestor", ID{0, 0, 0}, ID{2, 1, 1}, true},
		{"not ancestor", ID{2, 3, 3}, ID{4, 1, 1}, false},
		{"source finer than target", ID{4, 0, 0}, ID{2, 0, 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinTarget(tt.src, tt.tgt); got != tt.want {
				t.Errorf("WithinTarget(%v, %v) = %v, want %v", tt.src, tt.tgt, got, tt.want)
			}
		})
	}
}

func TestDisplacement(t *testing.T) {
	tests := []struct {
		name             string
		sourceZ, extent  uint32
		targetZ          uint32
		targetX, targetY uint32
		wantDx, wantDy   int64
	}{
		{"no zoom change", 2, 4096, 2, 1, 1, 0, 0},
		{"one level, odd/odd", 0, 4096, 1, 1, 1, 4096, 4096},
		{"one level, even/even", 0, 4096, 1, 0, 0, 0, 0},
		{"two levels, target 1,1 (scenario C1)", 0, 4096, 2, 1, 1, 4096, 4096},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dx, dy := Displacement(tt.sourceZ, tt.extent, tt.targetZ, tt.targetX, tt.targetY)
			if dx != tt.wantDx || dy != tt.wantDy {
				t.Errorf("Displacement() = (%d, %d), want (%d, %d)", dx, dy, tt.wantDx, tt.wantDy)
			}
		})
	}
}

func TestIDValidate(t *testing.T) {
	if err := (ID{Z: 2, X: 4, Y: 0}).Validate(); err == nil {
		t.Error("expected error for x out of range")
	}
	if err := (ID{Z: 2, X: 1, Y: 1}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
