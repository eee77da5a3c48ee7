package geometry

import (
	"math"

	"github.com/menta2k/photocrop/pkg/types"
)

// MaxFitUpscale limits how far FitCenter enlarges small images; icons
// blown up further look bad.
const MaxFitUpscale = 3.0

// FitCenter returns the base image-to-view transform a host uses before any
// user zoom: the image is scaled uniformly to fit the view (never enlarged
// beyond maxUpscale) and centered. A non-positive maxUpscale means no limit.
func FitCenter(view types.Size, image types.ImageBounds, maxUpscale float64) Affine {
	if !image.Valid() || view.IsZero() {
		return Identity()
	}

	vw, vh := float64(view.Width), float64(view.Height)
	w, h := float64(image.Width), float64(image.Height)

	scaleX := vw / w
	scaleY := vh / h
	if maxUpscale > 0 {
		scaleX = math.Min(scaleX, maxUpscale)
		scaleY = math.Min(scaleY, maxUpscale)
	}
	scale := math.Min(scaleX, scaleY)

	return Scale(scale, scale).Then(Translate((vw-w*scale)/2, (vh-h*scale)/2))
}
