// Package render composes the display frame for a marking session: the
// zoomed image crop scaled to the display, mark and cursor crosses, and the
// text overlays.
package render

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"gcp-marker/internal/viewport"
	"gcp-marker/pkg/colorutil"
	"gcp-marker/pkg/geometry"

	"golang.org/x/image/draw"
)

// Marker geometry in display pixels.
const (
	markArm      = 10
	markWidth    = 3
	cursorArm    = 6
	cursorWidth  = 1
	lineHeight   = 16
	textMargin   = 8
	controlsHelp = "f label  n next  p prev  s search  e export  r reset zoom  l reload  q quit  ctrl+click zoom"
)

// Scaler resamples the source rectangle sr of src to fill dst.
type Scaler interface {
	Scale(dst *image.RGBA, src image.Image, sr image.Rectangle) error
}

// DrawScaler is a pure-Go Scaler backed by golang.org/x/image/draw.
type DrawScaler struct {
	Interp draw.Interpolator
}

// Scale implements Scaler.
func (s DrawScaler) Scale(dst *image.RGBA, src image.Image, sr image.Rectangle) error {
	interp := s.Interp
	if interp == nil {
		interp = draw.ApproxBiLinear
	}
	interp.Scale(dst, dst.Bounds(), src, sr, draw.Src, nil)
	return nil
}

// Scalers available without OpenCV.
var (
	Nearest  Scaler = DrawScaler{Interp: draw.NearestNeighbor}
	Bilinear Scaler = DrawScaler{Interp: draw.BiLinear}
)

// Frame is everything needed to draw one display frame.
type Frame struct {
	Image  image.Image // nil when the photo could not be decoded
	Err    error       // decode error shown instead of the photo
	Name   string
	Index  int
	Count  int
	Mapper viewport.Mapper
	View   viewport.View

	Label      string              // Active label, "" if none
	LabelCount int                 // Images marked for the active label
	Marks      []geometry.PointInt // Active-label marks from every image (image pixels)
	Cursor     *geometry.PointInt  // Pointer position (display pixels)
	Notice     string
	ShowHelp   bool
}

// Renderer draws frames.
type Renderer struct {
	scaler Scaler
}

// New creates a renderer. A nil scaler selects bilinear interpolation.
func New(s Scaler) *Renderer {
	if s == nil {
		s = Bilinear
	}
	return &Renderer{scaler: s}
}

// Render draws f at the mapper's display size.
func (r *Renderer) Render(f Frame) (*image.RGBA, error) {
	d := f.Mapper.Display
	if d.Empty() {
		return nil, fmt.Errorf("display has no pixels")
	}
	dst := image.NewRGBA(image.Rect(0, 0, d.Width, d.Height))

	if f.Image == nil {
		r.renderError(dst, f)
		return dst, nil
	}

	win := f.Mapper.Window(f.View)
	b := f.Image.Bounds()
	sr := image.Rect(b.Min.X+win.X, b.Min.Y+win.Y, b.Min.X+win.MaxX(), b.Min.Y+win.MaxY())
	if err := r.scaler.Scale(dst, f.Image, sr); err != nil {
		return nil, fmt.Errorf("failed to scale %s: %w", f.Name, err)
	}

	// Crosses are centred on the displayed pixel, not its top-left corner.
	half := int(f.Mapper.Scale(f.View) / 2)
	for _, p := range f.Marks {
		if dp, ok := f.Mapper.ToDisplay(p, f.View); ok {
			drawCross(dst, dp.X+half, dp.Y+half, markArm, markWidth, colorutil.MarkColor)
		}
	}
	if f.Cursor != nil {
		c := *f.Cursor
		col := colorutil.CursorColor
		if image.Pt(c.X, c.Y).In(dst.Bounds()) {
			col = colorutil.Contrasting(dst.RGBAAt(c.X, c.Y))
		}
		drawCross(dst, c.X, c.Y, cursorArm, cursorWidth, col)
	}

	r.drawStatus(dst, f)
	return dst, nil
}

func (r *Renderer) renderError(dst *image.RGBA, f Frame) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(colorutil.ErrorFill), image.Point{}, draw.Src)
	msg := "cannot display image"
	if f.Err != nil {
		msg = f.Err.Error()
	}
	y := textMargin + lineHeight
	drawText(dst, textMargin, y, position(f), colorutil.TextColor)
	drawText(dst, textMargin, y+lineHeight, msg, colorutil.NoticeColor)
	r.drawFooter(dst, f)
}

func (r *Renderer) drawStatus(dst *image.RGBA, f Frame) {
	lines := []string{position(f)}
	if f.Label == "" {
		lines = append(lines, "Label: (none, press f)")
	} else {
		lines = append(lines,
			"Label: "+f.Label,
			fmt.Sprintf("Images marked for '%s': %d", f.Label, f.LabelCount))
	}
	if f.View.Zoomed() {
		lines = append(lines, fmt.Sprintf("Zoom: %dx", f.View.Zoom))
	}

	y := textMargin + lineHeight
	for _, l := range lines {
		drawText(dst, textMargin, y, l, colorutil.TextColor)
		y += lineHeight
	}
	r.drawFooter(dst, f)
}

func (r *Renderer) drawFooter(dst *image.RGBA, f Frame) {
	y := dst.Bounds().Dy() - textMargin
	if f.ShowHelp {
		drawText(dst, textMargin, y, controlsHelp, colorutil.TextColor)
		y -= lineHeight
	}
	if f.Notice != "" {
		drawText(dst, textMargin, y, f.Notice, colorutil.NoticeColor)
	}
}

func position(f Frame) string {
	if f.Count == 0 {
		return f.Name
	}
	return fmt.Sprintf("%s (%d/%d)", f.Name, f.Index+1, f.Count)
}

// drawCross draws a plus-shaped marker with arms of length arm around (x, y).
func drawCross(dst *image.RGBA, x, y, arm, width int, col color.RGBA) {
	drawLine(dst, x-arm, y, x+arm, y, col, width)
	drawLine(dst, x, y-arm, x, y+arm, col, width)
}

// drawLine draws a line using Bresenham's algorithm, clipped to dst.
func drawLine(dst *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	bounds := dst.Bounds()

	dx, dy := abs(x2-x1), abs(y2-y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	for {
		for t := -thickness / 2; t <= thickness/2; t++ {
			for s := -thickness / 2; s <= thickness/2; s++ {
				p := image.Pt(x1+s, y1+t)
				if p.In(bounds) {
					dst.SetRGBA(p.X, p.Y, col)
				}
			}
		}
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// truncate shortens s to fit maxWidth pixels of the overlay font.
func truncate(s string, maxWidth int) string {
	maxChars := maxWidth / glyphWidth
	if maxChars <= 0 {
		return ""
	}
	if len([]rune(s)) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return strings.Repeat(".", maxChars)
	}
	return string([]rune(s)[:maxChars-3]) + "..."
}
