package detection

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	BoxColor   = color.RGBA{R: 255, A: 255}
	LabelColor = color.RGBA{G: 255, A: 255}
)

const boxThickness = 2

// Resize scales img to exactly width x height.
func Resize(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// Clone returns an independent copy of img.
func Clone(img *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(img.Bounds())
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	return dst
}

// Annotate draws each detection's box and label onto dst. Boxes partially
// outside the frame are clipped.
func Annotate(dst *image.RGBA, dets []Detection) {
	face := basicfont.Face7x13
	for _, d := range dets {
		drawBox(dst, d.Box, BoxColor, boxThickness)
		drawLabel(dst, face, d.Box.Min, d.Label, LabelColor)
	}
}

func drawBox(dst *image.RGBA, r image.Rectangle, c color.Color, thickness int) {
	if r.Empty() {
		return
	}
	src := image.NewUniform(c)
	fill := func(rect image.Rectangle) {
		draw.Draw(dst, rect.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
	}
	t := thickness
	fill(image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t))
	fill(image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y))
	fill(image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y))
	fill(image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y))
}

// drawLabel writes text with its baseline at the box's top-left corner, or
// just inside the box when there is no room above it.
func drawLabel(dst *image.RGBA, face font.Face, at image.Point, text string, c color.Color) {
	if text == "" {
		return
	}
	ascent := face.Metrics().Ascent.Ceil()
	y := at.Y - 2
	if y-ascent < dst.Bounds().Min.Y {
		y = at.Y + ascent + 2
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(at.X+2, y),
	}
	d.DrawString(text)
}
