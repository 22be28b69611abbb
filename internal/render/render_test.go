package render

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"gcp-marker/internal/viewport"
	"gcp-marker/pkg/colorutil"
	"gcp-marker/pkg/geometry"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestRenderMarks(t *testing.T) {
	green := color.RGBA{G: 200, A: 255}
	m := viewport.New(geometry.Size{Width: 400, Height: 300}, geometry.Size{Width: 200, Height: 150})
	f := Frame{
		Image:  solid(400, 300, green),
		Name:   "A.jpg",
		Count:  1,
		Mapper: m,
		View:   viewport.View{Zoom: 1},
		Label:  "P1",
		Marks:  []geometry.PointInt{{X: 200, Y: 200}},
	}

	out, err := New(Nearest).Render(f)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.Bounds().Dx() != 200 || out.Bounds().Dy() != 150 {
		t.Fatalf("bounds = %v", out.Bounds())
	}
	if got := out.RGBAAt(100, 100); got != colorutil.MarkColor {
		t.Errorf("mark centre = %v, want %v", got, colorutil.MarkColor)
	}
	if got := out.RGBAAt(150, 60); got != green {
		t.Errorf("background = %v, want %v", got, green)
	}
}

func TestRenderZoomedHidesOutsideMarks(t *testing.T) {
	green := color.RGBA{G: 200, A: 255}
	m := viewport.New(geometry.Size{Width: 400, Height: 300}, geometry.Size{Width: 200, Height: 150})
	center := geometry.PointInt{X: 100, Y: 75}
	f := Frame{
		Image:  solid(400, 300, green),
		Mapper: m,
		View:   viewport.View{Zoom: 4, Center: &center},
		Marks:  []geometry.PointInt{{X: 390, Y: 290}},
	}
	out, err := New(Bilinear).Render(f)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for y := 60; y < 150; y++ {
		for x := 100; x < 200; x++ {
			if out.RGBAAt(x, y) == colorutil.MarkColor {
				t.Fatalf("mark outside the window drawn at (%d,%d)", x, y)
			}
		}
	}
}

func TestRenderCursor(t *testing.T) {
	m := viewport.New(geometry.Size{Width: 100, Height: 100}, geometry.Size{Width: 100, Height: 100})
	cursor := geometry.PointInt{X: 50, Y: 50}
	out, err := New(nil).Render(Frame{
		Image:  solid(100, 100, colorutil.White),
		Mapper: m,
		View:   viewport.View{Zoom: 1},
		Cursor: &cursor,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := out.RGBAAt(50+cursorArm, 50); got != colorutil.Black {
		t.Errorf("cursor arm = %v, want black on white", got)
	}
}

func TestRenderErrorFrame(t *testing.T) {
	m := viewport.New(geometry.Size{Width: 100, Height: 100}, geometry.Size{Width: 300, Height: 200})
	out, err := New(nil).Render(Frame{
		Err:    errors.New("failed to decode broken.jpg"),
		Name:   "broken.jpg",
		Mapper: m,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := out.RGBAAt(299, 100); got != colorutil.ErrorFill {
		t.Errorf("fill = %v, want %v", got, colorutil.ErrorFill)
	}
}

func TestRenderEmptyDisplay(t *testing.T) {
	if _, err := New(nil).Render(Frame{}); err == nil {
		t.Error("expected error for empty display")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"hello", 70, "hello"},
		{"hello world", 49, "hell..."},
		{"hello", 14, ".."},
		{"hello", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
