package render

import (
	"image"
	"image/color"

	"gcp-marker/pkg/colorutil"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// glyphWidth is the advance of basicfont.Face7x13.
const glyphWidth = 7

// drawText writes s with its baseline at y, over a one-pixel shadow so it
// stays readable on bright photos. Text wider than the frame is truncated.
func drawText(dst *image.RGBA, x, y int, s string, col color.RGBA) {
	s = truncate(s, dst.Bounds().Dx()-x-textMargin)
	if s == "" {
		return
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(colorutil.ShadowColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x+1, y+1),
	}
	d.DrawString(s)

	d.Src = image.NewUniform(col)
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}
