package geometry

import (
	"math"
	"testing"
)

func TestAffineComposeAndInverse(t *testing.T) {
	// crop offset (100, 50), then scale by 4
	tr := Scale(4, 4).Compose(Translation(-100, -50))

	p := tr.Apply(Point2D{X: 110, Y: 60})
	if p.X != 40 || p.Y != 40 {
		t.Fatalf("Apply = %+v, want (40, 40)", p)
	}

	inv, ok := tr.Inverse()
	if !ok {
		t.Fatal("expected invertible transform")
	}
	back := inv.Apply(p)
	if math.Abs(back.X-110) > 1e-9 || math.Abs(back.Y-60) > 1e-9 {
		t.Errorf("Inverse round trip = %+v, want (110, 60)", back)
	}
}

func TestInverseSingular(t *testing.T) {
	if _, ok := Scale(0, 1).Inverse(); ok {
		t.Error("expected singular transform to have no inverse")
	}
}

func TestRectIntContains(t *testing.T) {
	r := RectInt{X: 10, Y: 10, Width: 5, Height: 5}

	tests := []struct {
		p    PointInt
		want bool
	}{
		{PointInt{10, 10}, true},
		{PointInt{14, 14}, true},
		{PointInt{15, 14}, false},
		{PointInt{9, 12}, false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.p); got != tt.want {
			t.Errorf("Contains(%+v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want int
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
		{3, 0, -1, 0},
	}
	for _, tt := range tests {
		if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Clamp(%d, %d, %d) = %d, want %d", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}
