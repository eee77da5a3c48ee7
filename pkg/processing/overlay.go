package processing

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// CreateDebugOverlay returns a copy of img with the crop rectangle outlined
// and the crop and image centers marked. rect is in img's pixel space.
func (p *Processor) CreateDebugOverlay(img image.Image, rect image.Rectangle) image.Image {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()
	rect = rect.Sub(img.Bounds().Min)

	// Colors
	gold := color.NRGBA{255, 204, 0, 255}                // crop box
	red := color.NRGBA{255, 0, 0, 255}                   // crop center
	blue := color.NRGBA{0, 170, 255, 255}                // image center
	stroke := int(math.Max(2, 0.004*float64(min(w, h)))) // ~0.4% of min side
	cross := int(math.Max(4, 0.01*float64(min(w, h))))   // ~1% of min side

	if !rect.Empty() {
		drawRect(nrgba, rect, gold, stroke)

		px := (rect.Min.X + rect.Max.X) / 2
		py := (rect.Min.Y + rect.Max.Y) / 2
		drawHLine(nrgba, py, px-cross, px+cross, red)
		drawVLine(nrgba, px, py-cross, py+cross, red)
	}

	// Draw image center marker
	ix, iy := w/2, h/2
	drawHLine(nrgba, iy, ix-6, ix+6, blue)
	drawVLine(nrgba, ix, iy-6, iy+6, blue)

	return nrgba
}

func drawRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA, stroke int) {
	for s := 0; s < stroke; s++ {
		drawHLine(img, r.Min.Y+s, r.Min.X, r.Max.X, c)
		drawHLine(img, r.Max.Y-1-s, r.Min.X, r.Max.X, c)
		drawVLine(img, r.Min.X+s, r.Min.Y, r.Max.Y, c)
		drawVLine(img, r.Max.X-1-s, r.Min.Y, r.Max.Y, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	x0 = max(x0, 0)
	x1 = min(x1, img.Bounds().Dx())
	for i, x := y*img.Stride+x0*4, x0; x < x1; i, x = i+4, x+1 {
		copy(img.Pix[i:i+4], []uint8{c.R, c.G, c.B, c.A})
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	y0 = max(y0, 0)
	y1 = min(y1, img.Bounds().Dy())
	for i, y := y0*img.Stride+x*4, y0; y < y1; i, y = i+img.Stride, y+1 {
		copy(img.Pix[i:i+4], []uint8{c.R, c.G, c.B, c.A})
	}
}
