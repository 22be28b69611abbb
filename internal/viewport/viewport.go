// Package viewport maps between a fixed-size display canvas and full-resolution
// image pixels, optionally through a zoom crop window.
package viewport

import (
	"math"

	"gcp-marker/pkg/geometry"
)

// MaxZoom is the largest zoom factor a session may reach.
const MaxZoom = 8

// View is the zoom part of the session view state.
type View struct {
	Zoom   int                // 1 = whole image
	Center *geometry.PointInt // Crop center in image pixels; only used when Zoom > 1
}

// Zoomed reports whether the view shows a crop rather than the whole image.
func (v View) Zoomed() bool {
	return v.Zoom > 1 && v.Center != nil
}

// Mapper converts coordinates for one image shown on one display size.
// The zero value is not usable; build it with New, FromScale or Fit.
type Mapper struct {
	Image   geometry.Size
	Display geometry.Size
}

// New creates a mapper for an image shown on a display of the given size.
// Display dimensions are forced to at least one pixel.
func New(image, display geometry.Size) Mapper {
	if display.Width < 1 {
		display.Width = 1
	}
	if display.Height < 1 {
		display.Height = 1
	}
	return Mapper{Image: image, Display: display}
}

// FromScale creates a mapper whose display is the image scaled uniformly.
func FromScale(image geometry.Size, scale float64) Mapper {
	return New(image, geometry.Size{
		Width:  int(float64(image.Width) * scale),
		Height: int(float64(image.Height) * scale),
	})
}

// Fit is FromScale with the scale reduced, if needed, so the display fits
// inside maxW x maxH. Non-positive limits are ignored.
func Fit(image geometry.Size, scale float64, maxW, maxH int) Mapper {
	if scale <= 0 {
		scale = 1
	}
	if maxW > 0 && image.Width > 0 {
		scale = math.Min(scale, float64(maxW)/float64(image.Width))
	}
	if maxH > 0 && image.Height > 0 {
		scale = math.Min(scale, float64(maxH)/float64(image.Height))
	}
	return FromScale(image, scale)
}

// Window returns the visible region of the image in image pixels.
// When zoomed, the crop is (W/Z, H/Z) centered on the zoom center, with its
// origin clamped so the whole window stays inside the image.
func (m Mapper) Window(v View) geometry.RectInt {
	full := geometry.RectInt{Width: m.Image.Width, Height: m.Image.Height}
	if !v.Zoomed() || m.Image.Empty() {
		return full
	}

	cw := max(1, m.Image.Width/v.Zoom)
	ch := max(1, m.Image.Height/v.Zoom)
	x := geometry.Clamp(v.Center.X-cw/2, 0, m.Image.Width-cw)
	y := geometry.Clamp(v.Center.Y-ch/2, 0, m.Image.Height-ch)
	return geometry.RectInt{X: x, Y: y, Width: cw, Height: ch}
}

// Transform returns the image-to-display transform for the given view.
func (m Mapper) Transform(v View) geometry.AffineTransform {
	win := m.Window(v)
	if win.Empty() {
		return geometry.Identity()
	}
	sx := float64(m.Display.Width) / float64(win.Width)
	sy := float64(m.Display.Height) / float64(win.Height)
	return geometry.Scale(sx, sy).Compose(geometry.Translation(-float64(win.X), -float64(win.Y)))
}

// ToImage maps a display point to an image pixel. The result is always inside
// the visible window, and therefore inside the image, even for display points
// on or beyond the canvas edge.
func (m Mapper) ToImage(dx, dy float64, v View) geometry.PointInt {
	win := m.Window(v)
	if win.Empty() {
		return geometry.PointInt{}
	}
	inv, ok := m.Transform(v).Inverse()
	if !ok {
		return geometry.PointInt{X: win.X, Y: win.Y}
	}
	p := snap(inv.Apply(geometry.Point2D{X: dx, Y: dy}))
	return geometry.PointInt{
		X: geometry.Clamp(p.X, win.X, win.MaxX()-1),
		Y: geometry.Clamp(p.Y, win.Y, win.MaxY()-1),
	}
}

// ToDisplay maps an image pixel to display coordinates. The boolean is false
// when the pixel is outside the visible window.
func (m Mapper) ToDisplay(p geometry.PointInt, v View) (geometry.PointInt, bool) {
	if !m.Window(v).Contains(p) {
		return geometry.PointInt{}, false
	}
	return snap(m.Transform(v).Apply(p.ToFloat())), true
}

// snap floors a point, absorbing float error just below an integer.
func snap(p geometry.Point2D) geometry.PointInt {
	const eps = 1e-9
	return geometry.Point2D{X: p.X + eps, Y: p.Y + eps}.Floor()
}

// Scale returns the display pixels per image pixel along x for the view.
func (m Mapper) Scale(v View) float64 {
	return m.Transform(v).A
}
