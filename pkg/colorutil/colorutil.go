// Package colorutil provides shared colors for marker and text overlays.
package colorutil

import (
	"image/color"
)

// Common overlay colors used throughout the application.
var (
	Black    = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red      = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Yellow   = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Cyan     = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	DarkGray = color.RGBA{R: 40, G: 40, B: 40, A: 255}
)

// Roles
var (
	MarkColor   = Red
	CursorColor = Cyan
	TextColor   = White
	ShadowColor = Black
	NoticeColor = Yellow
	ErrorFill   = DarkGray
)

// Luminance returns the relative luminance (0-1) of c using Rec. 601 weights.
func Luminance(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 0xffff
}

// Contrasting returns black or white, whichever reads better on background c.
func Contrasting(c color.Color) color.RGBA {
	if Luminance(c) > 0.5 {
		return Black
	}
	return White
}

// WithAlpha returns c with its alpha replaced, premultiplying the channels.
func WithAlpha(c color.RGBA, a uint8) color.RGBA {
	scale := func(v uint8) uint8 { return uint8(uint16(v) * uint16(a) / 255) }
	return color.RGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: a}
}
