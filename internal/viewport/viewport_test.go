package viewport

import (
	"testing"

	"gcp-marker/pkg/geometry"
)

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestUnzoomedRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		image geometry.Size
		scale float64
	}{
		{"quarter scale", geometry.Size{Width: 4000, Height: 3000}, 0.25},
		{"non-integer scale", geometry.Size{Width: 3000, Height: 2000}, 0.3},
		{"upscale", geometry.Size{Width: 200, Height: 100}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := FromScale(tt.image, tt.scale)
			v := View{Zoom: 1}
			for dx := 0; dx < m.Display.Width; dx += 7 {
				for dy := 0; dy < m.Display.Height; dy += 11 {
					img := m.ToImage(float64(dx), float64(dy), v)
					back, ok := m.ToDisplay(img, v)
					if !ok {
						t.Fatalf("ToDisplay(%+v) reported not visible", img)
					}
					if abs(back.X-dx) > 1 || abs(back.Y-dy) > 1 {
						t.Fatalf("round trip (%d,%d) -> %+v -> %+v", dx, dy, img, back)
					}
				}
			}
		})
	}
}

func TestUnzoomedClampsToImage(t *testing.T) {
	m := FromScale(geometry.Size{Width: 400, Height: 300}, 0.25)
	v := View{Zoom: 1}

	tests := []struct {
		dx, dy float64
		want   geometry.PointInt
	}{
		{0, 0, geometry.PointInt{X: 0, Y: 0}},
		{10, 20, geometry.PointInt{X: 40, Y: 80}},
		{100, 75, geometry.PointInt{X: 399, Y: 299}},
		{500, 500, geometry.PointInt{X: 399, Y: 299}},
		{-3, -3, geometry.PointInt{X: 0, Y: 0}},
	}
	for _, tt := range tests {
		if got := m.ToImage(tt.dx, tt.dy, v); got != tt.want {
			t.Errorf("ToImage(%v, %v) = %+v, want %+v", tt.dx, tt.dy, got, tt.want)
		}
	}
}

func TestZoomWindowStaysInsideImage(t *testing.T) {
	size := geometry.Size{Width: 4000, Height: 3000}
	m := FromScale(size, 0.25)
	imageRect := geometry.RectInt{Width: size.Width, Height: size.Height}

	centers := []geometry.PointInt{
		{X: 0, Y: 0},
		{X: 3999, Y: 2999},
		{X: 2000, Y: 1500},
		{X: 3900, Y: 100},
		{X: 10, Y: 2990},
	}
	displayPoints := []float64{-10, 0, 1, 333.3, 749, 750, 999, 1000, 1500}

	for _, zoom := range []int{2, 4, 8} {
		for _, c := range centers {
			c := c
			v := View{Zoom: zoom, Center: &c}
			win := m.Window(v)
			if win.Empty() {
				t.Fatalf("zoom %d center %+v: empty window", zoom, c)
			}
			if win.X < 0 || win.Y < 0 || win.MaxX() > size.Width || win.MaxY() > size.Height {
				t.Fatalf("zoom %d center %+v: window %+v outside image", zoom, c, win)
			}
			for _, dx := range displayPoints {
				for _, dy := range displayPoints {
					p := m.ToImage(dx, dy, v)
					if !win.Contains(p) || !imageRect.Contains(p) {
						t.Fatalf("zoom %d center %+v: ToImage(%v,%v) = %+v outside %+v", zoom, c, dx, dy, p, win)
					}
				}
			}
		}
	}
}

func TestZoomWindowClampedAtEdge(t *testing.T) {
	m := FromScale(geometry.Size{Width: 4000, Height: 3000}, 0.25)
	c := geometry.PointInt{X: 3900, Y: 100}
	v := View{Zoom: 2, Center: &c}

	want := geometry.RectInt{X: 2000, Y: 0, Width: 2000, Height: 1500}
	if got := m.Window(v); got != want {
		t.Fatalf("Window = %+v, want %+v", got, want)
	}
	if got := m.ToImage(0, 0, v); got != (geometry.PointInt{X: 2000, Y: 0}) {
		t.Errorf("ToImage(0,0) = %+v", got)
	}
	if got := m.ToImage(500, 375, v); got != (geometry.PointInt{X: 3000, Y: 750}) {
		t.Errorf("ToImage(500,375) = %+v", got)
	}
}

func TestDegenerateZoomOnTinyImage(t *testing.T) {
	m := New(geometry.Size{Width: 5, Height: 3}, geometry.Size{Width: 100, Height: 60})
	c := geometry.PointInt{X: 4, Y: 2}
	v := View{Zoom: MaxZoom, Center: &c}

	win := m.Window(v)
	if win.Width != 1 || win.Height != 1 {
		t.Fatalf("Window = %+v, want 1x1", win)
	}
	if got := m.ToImage(99, 59, v); got != (geometry.PointInt{X: win.X, Y: win.Y}) {
		t.Errorf("ToImage = %+v, want window origin %+v", got, win)
	}
}

func TestToDisplayOutsideWindow(t *testing.T) {
	m := FromScale(geometry.Size{Width: 4000, Height: 3000}, 0.25)
	c := geometry.PointInt{X: 2000, Y: 1500}
	v := View{Zoom: 4, Center: &c}

	if _, ok := m.ToDisplay(geometry.PointInt{X: 10, Y: 10}, v); ok {
		t.Error("expected pixel far from zoom center to be hidden")
	}
	if _, ok := m.ToDisplay(c, v); !ok {
		t.Error("expected zoom center to be visible")
	}
}

func TestFitLimitsDisplay(t *testing.T) {
	m := Fit(geometry.Size{Width: 8000, Height: 6000}, 0.25, 900, 600)
	if m.Display.Width > 900 || m.Display.Height > 600 {
		t.Fatalf("display %+v exceeds 900x600", m.Display)
	}
	if m.Display.Width != 800 || m.Display.Height != 600 {
		t.Errorf("display = %+v, want 800x600", m.Display)
	}
}
