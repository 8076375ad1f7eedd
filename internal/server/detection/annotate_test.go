package detection

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
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

func TestResize(t *testing.T) {
	src := solid(100, 40, color.RGBA{B: 200, A: 255})

	dst := Resize(src, 1020, 500)

	assert.Equal(t, image.Rect(0, 0, 1020, 500), dst.Bounds())
	c := dst.RGBAAt(510, 250)
	assert.InDelta(t, 200, int(c.B), 1)
	assert.Equal(t, uint8(255), c.A)
}

func TestAnnotate_DrawsBoxEdges(t *testing.T) {
	white := color.RGBA{255, 255, 255, 255}
	img := solid(100, 100, white)

	Annotate(img, []Detection{{Box: image.Rect(20, 30, 60, 80)}})

	// edges, two pixels thick
	assert.Equal(t, BoxColor, img.RGBAAt(40, 30))
	assert.Equal(t, BoxColor, img.RGBAAt(40, 31))
	assert.Equal(t, BoxColor, img.RGBAAt(40, 79))
	assert.Equal(t, BoxColor, img.RGBAAt(20, 50))
	assert.Equal(t, BoxColor, img.RGBAAt(59, 50))

	// interior and exterior untouched
	assert.Equal(t, white, img.RGBAAt(40, 32))
	assert.Equal(t, white, img.RGBAAt(40, 50))
	assert.Equal(t, white, img.RGBAAt(10, 10))
}

func TestAnnotate_DrawsLabel(t *testing.T) {
	black := color.RGBA{0, 0, 0, 255}
	img := solid(200, 100, black)

	Annotate(img, []Detection{{Box: image.Rect(10, 50, 150, 90), Label: "tumour"}})

	green := 0
	for y := 30; y < 50; y++ {
		for x := 10; x < 150; x++ {
			if c := img.RGBAAt(x, y); c.G > 0 && c.R == 0 {
				green++
			}
		}
	}
	assert.Positive(t, green, "label pixels expected above the box")
}

func TestAnnotate_LabelMovesInsideAtTopEdge(t *testing.T) {
	black := color.RGBA{0, 0, 0, 255}
	img := solid(200, 100, black)

	Annotate(img, []Detection{{Box: image.Rect(10, 0, 150, 60), Label: "tumour"}})

	green := 0
	for y := 2; y < 20; y++ {
		for x := 10; x < 150; x++ {
			if c := img.RGBAAt(x, y); c.G > 0 && c.R == 0 {
				green++
			}
		}
	}
	assert.Positive(t, green)
}

func TestAnnotate_ClipsOutOfBounds(t *testing.T) {
	img := solid(50, 50, color.RGBA{A: 255})

	assert.NotPanics(t, func() {
		Annotate(img, []Detection{
			{Box: image.Rect(-20, -20, 49, 49), Label: "tumour"},
			{Box: image.Rect(5, 5, 5, 5)},
		})
	})
	assert.Equal(t, BoxColor, img.RGBAAt(25, 48))
}

func TestClone_IsIndependent(t *testing.T) {
	src := solid(4, 4, color.RGBA{R: 1, A: 255})
	c := Clone(src)
	c.SetRGBA(0, 0, color.RGBA{G: 9, A: 255})

	assert.Equal(t, color.RGBA{R: 1, A: 255}, src.RGBAAt(0, 0))
}
