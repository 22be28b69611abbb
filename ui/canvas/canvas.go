// Package canvas provides the marking canvas: a raster that shows the
// session's current frame and reports clicks and pointer motion in display
// pixels.
package canvas

import (
	"image"
	"log/slog"
	"sync"

	"gcp-marker/internal/render"
	"gcp-marker/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/image/draw"
)

// FrameSource supplies frames sized to the canvas.
type FrameSource interface {
	SetMaxDisplay(geometry.Size)
	Frame() render.Frame
}

// MarkCanvas shows the current frame centred in its area.
type MarkCanvas struct {
	widget.BaseWidget

	source   FrameSource
	renderer *render.Renderer
	raster   *fynecanvas.Raster
	logger   *slog.Logger

	// Placement of the last frame, written by the raster generator.
	mu        sync.Mutex
	placement placement

	// Callbacks
	onClick func(dx, dy float64, ctrl bool) // Click in display pixels
	onMove  func(dx, dy float64)            // Pointer motion in display pixels
	onLeave func()
}

// placement records where a frame landed in the raster.
type placement struct {
	offset    image.Point // Top-left of the frame in raster pixels
	frame     image.Point // Frame size in raster pixels
	pxPerUnit float32     // Raster pixels per fyne unit
}

// toDisplay converts a widget-relative position to frame pixels. The boolean
// is false outside the frame.
func (p placement) toDisplay(pos fyne.Position) (float64, float64, bool) {
	if p.pxPerUnit <= 0 {
		return 0, 0, false
	}
	x := float64(pos.X*p.pxPerUnit) - float64(p.offset.X)
	y := float64(pos.Y*p.pxPerUnit) - float64(p.offset.Y)
	if x < 0 || y < 0 || x >= float64(p.frame.X) || y >= float64(p.frame.Y) {
		return x, y, false
	}
	return x, y, true
}

// NewMarkCanvas creates a canvas that draws frames from source.
func NewMarkCanvas(source FrameSource, renderer *render.Renderer, logger *slog.Logger) *MarkCanvas {
	mc := &MarkCanvas{
		source:   source,
		renderer: renderer,
		logger:   logger,
	}
	mc.raster = fynecanvas.NewRaster(mc.draw)
	mc.raster.ScaleMode = fynecanvas.ImageScalePixels
	mc.ExtendBaseWidget(mc)
	return mc
}

// OnClick sets the callback for clicks on the frame.
func (mc *MarkCanvas) OnClick(callback func(dx, dy float64, ctrl bool)) {
	mc.onClick = callback
}

// OnMove sets the callback for pointer motion over the frame.
func (mc *MarkCanvas) OnMove(callback func(dx, dy float64)) {
	mc.onMove = callback
}

// OnLeave sets the callback for the pointer leaving the frame.
func (mc *MarkCanvas) OnLeave(callback func()) {
	mc.onLeave = callback
}

// Refresh redraws the frame.
func (mc *MarkCanvas) Refresh() {
	mc.raster.Refresh()
}

// draw is the raster generator; w and h are in device pixels.
func (mc *MarkCanvas) draw(w, h int) image.Image {
	output := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(output.Pix); i += 4 {
		output.Pix[i] = 255
	}
	if w <= 0 || h <= 0 {
		return output
	}

	mc.source.SetMaxDisplay(geometry.Size{Width: w, Height: h})
	frame, err := mc.renderer.Render(mc.source.Frame())
	if err != nil {
		mc.logger.Error("render failed", "error", err)
		return output
	}

	fb := frame.Bounds()
	offset := image.Pt((w-fb.Dx())/2, (h-fb.Dy())/2)
	draw.Draw(output, fb.Add(offset), frame, fb.Min, draw.Src)

	p := placement{offset: offset, frame: image.Pt(fb.Dx(), fb.Dy())}
	if units := mc.Size().Width; units > 0 {
		p.pxPerUnit = float32(w) / units
	}
	mc.mu.Lock()
	mc.placement = p
	mc.mu.Unlock()
	return output
}

func (mc *MarkCanvas) currentPlacement() placement {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.placement
}

// MouseDown implements desktop.Mouseable.
func (mc *MarkCanvas) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || mc.onClick == nil {
		return
	}
	x, y, ok := mc.currentPlacement().toDisplay(ev.Position)
	if !ok {
		return
	}
	ctrl := ev.Modifier&(fyne.KeyModifierControl|fyne.KeyModifierSuper) != 0
	mc.onClick(x, y, ctrl)
}

// MouseUp implements desktop.Mouseable.
func (mc *MarkCanvas) MouseUp(*desktop.MouseEvent) {}

// MouseIn implements desktop.Hoverable.
func (mc *MarkCanvas) MouseIn(ev *desktop.MouseEvent) {
	mc.MouseMoved(ev)
}

// MouseMoved implements desktop.Hoverable.
func (mc *MarkCanvas) MouseMoved(ev *desktop.MouseEvent) {
	x, y, ok := mc.currentPlacement().toDisplay(ev.Position)
	if !ok {
		mc.MouseOut()
		return
	}
	if mc.onMove != nil {
		mc.onMove(x, y)
	}
}

// MouseOut implements desktop.Hoverable.
func (mc *MarkCanvas) MouseOut() {
	if mc.onLeave != nil {
		mc.onLeave()
	}
}

// CreateRenderer implements fyne.Widget.
func (mc *MarkCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &markCanvasRenderer{canvas: mc}
}

type markCanvasRenderer struct {
	canvas *MarkCanvas
}

func (r *markCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.raster.Resize(size)
}

func (r *markCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(320, 240)
}

func (r *markCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *markCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.raster}
}

func (r *markCanvasRenderer) Destroy() {}
