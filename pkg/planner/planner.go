// Package planner turns a committed crop rectangle into an output plan:
// which source pixels to read, how to rotate them to undo the EXIF
// orientation the user cropped under, and what size to scale them to.
//
// The crop rectangle is expressed in the oriented frame the user saw. The
// source rectangle of the plan is in the natural, unrotated pixel frame of
// the encoded image, so a region decoder can read it directly.
package planner

import (
	"fmt"
	"image"

	"github.com/pkg/errors"
	"golang.org/x/image/math/f64"

	"github.com/menta2k/photocrop/pkg/geometry"
	"github.com/menta2k/photocrop/pkg/types"
)

var (
	// ErrRegionOutOfBounds means the source rectangle, after undoing the
	// rotation, does not fit the source image. The crop must be aborted.
	ErrRegionOutOfBounds = errors.New("crop region outside source image")

	// ErrEmptyRegion means the crop rectangle rounds to zero width or height.
	ErrEmptyRegion = errors.New("empty crop region")
)

// Config holds configuration for output planning
type Config struct {
	// MaxOutput bounds the output size. A zero size leaves the output at
	// the crop size.
	MaxOutput types.Size
}

// Planner computes output plans for committed crops
type Planner struct {
	config Config
}

// New creates a Planner that never scales the output
func New() *Planner {
	return &Planner{}
}

// NewWithConfig creates a Planner with custom configuration
func NewWithConfig(config Config) *Planner {
	return &Planner{config: config}
}

// Plan describes exactly what to read from the source and what to produce.
type Plan struct {
	OutWidth  int `json:"out_width"`
	OutHeight int `json:"out_height"`
	// CropRect is the committed crop rounded to pixels, in the oriented frame.
	CropRect image.Rectangle `json:"crop_rect"`
	// SourceRect is the region to read from the unrotated source.
	SourceRect image.Rectangle `json:"source_rect"`
	// RotationDegrees is the clockwise rotation to apply to SourceRect,
	// normalized to [0, 360).
	RotationDegrees int `json:"rotation_degrees"`
}

// Plan computes the output plan for crop over a source image of the given
// natural bounds, rotated clockwise by rotation degrees for display.
func (p *Planner) Plan(crop geometry.Rect, source types.ImageBounds, rotation int) (Plan, error) {
	return Compute(crop, source, p.config.MaxOutput, rotation)
}

// Compute is Planner.Plan without a Planner. A zero max leaves the output
// unscaled. It panics if source has a non-positive dimension.
func Compute(crop geometry.Rect, source types.ImageBounds, max types.Size, rotation int) (Plan, error) {
	if !source.Valid() {
		panic(fmt.Sprintf("planner: invalid source bounds %v", source))
	}

	crop = crop.Canon()
	// The output size follows the pixel rectangle so an unscaled plan
	// copies the source region exactly.
	cropRect := crop.Round()
	width, height := cropRect.Dx(), cropRect.Dy()
	if width <= 0 || height <= 0 {
		return Plan{}, errors.Wrapf(ErrEmptyRegion, "crop %v", crop)
	}

	outWidth, outHeight := OutputSize(width, height, max)

	rotation = types.NormalizeRotation(rotation)
	sourceRect := cropRect
	if rotation != 0 {
		sourceRect = unrotate(cropRect, source, rotation)
	}

	bounds := image.Rect(0, 0, source.Width, source.Height)
	if sourceRect.Empty() || !sourceRect.In(bounds) {
		return Plan{}, errors.Wrapf(ErrRegionOutOfBounds,
			"rectangle %v is outside of the image (%d,%d,%d)", sourceRect, source.Width, source.Height, rotation)
	}

	return Plan{
		OutWidth:        outWidth,
		OutHeight:       outHeight,
		CropRect:        cropRect,
		SourceRect:      sourceRect,
		RotationDegrees: rotation,
	}, nil
}

// OutputSize fits width x height into max while keeping the ratio of the
// crop. Sizes already inside max, or a zero max, are returned unchanged.
func OutputSize(width, height int, max types.Size) (int, int) {
	if max.IsZero() || (width <= max.Width && height <= max.Height) {
		return width, height
	}

	ratio := float64(width) / float64(height)
	if float64(max.Width)/float64(max.Height) > ratio {
		return int(float64(max.Height)*ratio + .5), max.Height
	}
	return max.Width, int(float64(max.Width)/ratio + .5)
}

// unrotate maps a rectangle from the rotated display frame back to the
// source frame: rotate by -rotation around the origin, then move whatever
// landed at negative coordinates back by the full source width or height.
func unrotate(r image.Rectangle, source types.ImageBounds, rotation int) image.Rectangle {
	adjusted := geometry.Rotate(float64(-rotation)).MapRect(geometry.FromImageRect(r))

	var dx, dy float64
	if adjusted.Left < 0 {
		dx = float64(source.Width)
	}
	if adjusted.Top < 0 {
		dy = float64(source.Height)
	}
	return adjusted.Offset(dx, dy).Truncate()
}

// Transform returns the affine transform that maps pixels of SourceRect,
// in source coordinates, onto the OutWidth x OutHeight output: move the
// crop origin to zero, rotate clockwise, and scale to the output size.
func (p Plan) Transform() f64.Aff3 {
	src := geometry.FromImageRect(p.SourceRect)
	t := geometry.Translate(-src.Left, -src.Top).Then(geometry.Rotate(float64(p.RotationDegrees)))

	rotated := t.MapRect(src)
	t = t.Then(geometry.Translate(-rotated.Left, -rotated.Top))

	if w, h := rotated.Width(), rotated.Height(); w > 0 && h > 0 {
		t = t.Then(geometry.Scale(float64(p.OutWidth)/w, float64(p.OutHeight)/h))
	}
	return t.Aff3()
}

// OutputSize returns the output dimensions.
func (p Plan) OutputSize() types.Size {
	return types.Size{Width: p.OutWidth, Height: p.OutHeight}
}

// NeedsResize reports whether the rotated source region differs in size
// from the output, so rasterizing needs resampling.
func (p Plan) NeedsResize() bool {
	w, h := p.SourceRect.Dx(), p.SourceRect.Dy()
	if (p.RotationDegrees/90)%2 != 0 {
		w, h = h, w
	}
	return w != p.OutWidth || h != p.OutHeight
}
