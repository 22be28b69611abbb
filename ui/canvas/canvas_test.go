package canvas

import (
	"image"
	"testing"

	"fyne.io/fyne/v2"
)

func TestPlacementToDisplay(t *testing.T) {
	p := placement{
		offset:    image.Pt(100, 0),
		frame:     image.Pt(400, 300),
		pxPerUnit: 2,
	}
	tests := []struct {
		pos    fyne.Position
		x, y   float64
		inside bool
	}{
		{fyne.NewPos(50, 0), 0, 0, true},
		{fyne.NewPos(100, 75), 100, 150, true},
		{fyne.NewPos(10, 10), -80, 20, false},
		{fyne.NewPos(250, 10), 400, 20, false},
		{fyne.NewPos(60, 150), 20, 300, false},
	}
	for _, tt := range tests {
		x, y, ok := p.toDisplay(tt.pos)
		if ok != tt.inside || (ok && (x != tt.x || y != tt.y)) {
			t.Errorf("toDisplay(%v) = (%v, %v, %v), want (%v, %v, %v)",
				tt.pos, x, y, ok, tt.x, tt.y, tt.inside)
		}
	}

	if _, _, ok := (placement{}).toDisplay(fyne.NewPos(1, 1)); ok {
		t.Error("unplaced canvas accepted a click")
	}
}
