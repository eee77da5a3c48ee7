// Package cropper owns the interactive crop rectangle: its default
// placement, hit testing against screen coordinates, and the move/grow
// rules that keep it inside the image and on its aspect ratio.
//
// There are two coordinate spaces. The crop rectangle lives in image space
// ([0,0,width,height] of the picture being cropped); the host draws it in
// screen space through the transform supplied with SetTransform.
package cropper

import (
	"fmt"
	"image"
	"math"

	"github.com/pkg/errors"

	"github.com/menta2k/photocrop/pkg/geometry"
	"github.com/menta2k/photocrop/pkg/types"
)

const (
	// HitTolerance is how close, in screen units, a point must be to an
	// edge to grab it.
	HitTolerance = 20.0

	// MinCropSize is the smallest width, in image units, a shrinking crop
	// rectangle may reach. With a fixed aspect the height floor follows
	// from the ratio.
	MinCropSize = 25.0

	// containTolerance absorbs the float error that moves and capped grows
	// leave on a rectangle spanning the whole image.
	containTolerance = 1e-6

	// defaultCropFraction sizes the initial rectangle relative to the
	// shorter image side.
	defaultCropFraction = 4.0 / 5.0
)

// ErrInvalidRect is returned when an explicit crop rectangle cannot be
// placed inside the image.
var ErrInvalidRect = errors.New("crop rectangle outside image")

// Region is the crop rectangle of one crop session. It has a single owner
// and is not safe for concurrent use.
type Region struct {
	cropRect   geometry.Rect // image space
	imageRect  geometry.Rect // image space
	constraint AspectConstraint
	// initialAspectRatio is width/height of the default rectangle; grow
	// operations hold it when the constraint is fixed.
	initialAspectRatio float64
	transform          geometry.Affine // image space -> screen space
	focused            bool
}

// NewRegion creates a region over an image of the given bounds with the
// default crop rectangle: a centered box four fifths of the shorter side,
// shaped by the constraint. It panics on non-positive bounds or an invalid
// constraint.
func NewRegion(bounds types.ImageBounds, constraint AspectConstraint) *Region {
	if !bounds.Valid() {
		panic(fmt.Sprintf("cropper: invalid image bounds %v", bounds))
	}
	constraint.mustValid()

	width, height := float64(bounds.Width), float64(bounds.Height)

	cropWidth := math.Min(width, height) * defaultCropFraction
	cropHeight := cropWidth
	if constraint.IsFixed() {
		if constraint.X > constraint.Y {
			cropHeight = cropWidth * constraint.Y / constraint.X
		} else {
			cropWidth = cropHeight * constraint.X / constraint.Y
		}
	}

	x := (width - cropWidth) / 2
	y := (height - cropHeight) / 2

	return &Region{
		cropRect:           geometry.R(x, y, x+cropWidth, y+cropHeight),
		imageRect:          geometry.R(0, 0, width, height),
		constraint:         constraint,
		initialAspectRatio: cropWidth / cropHeight,
		transform:          geometry.Identity(),
	}
}

// CropRect returns the crop rectangle in image space.
func (r *Region) CropRect() geometry.Rect {
	return r.cropRect
}

// ImageRect returns the image bounds the crop rectangle is confined to.
func (r *Region) ImageRect() geometry.Rect {
	return r.imageRect
}

// Constraint returns the aspect constraint of the session.
func (r *Region) Constraint() AspectConstraint {
	return r.constraint
}

// AspectRatio returns the width/height ratio captured at setup.
func (r *Region) AspectRatio() float64 {
	return r.initialAspectRatio
}

// Transform returns the current image-to-screen transform.
func (r *Region) Transform() geometry.Affine {
	return r.transform
}

// SetTransform replaces the image-to-screen transform. Hosts call it every
// time the view is laid out, zoomed or panned. It panics on a singular
// transform.
func (r *Region) SetTransform(t geometry.Affine) {
	if !t.Invertible() {
		panic(fmt.Sprintf("cropper: singular transform %v", t))
	}
	r.transform = t
}

// SetFocus marks the region as the active one.
func (r *Region) SetFocus(focused bool) {
	r.focused = focused
}

// Focused reports whether the region is the active one.
func (r *Region) Focused() bool {
	return r.focused
}

// ScreenRect maps the crop rectangle to screen space, rounding each edge.
func (r *Region) ScreenRect() image.Rectangle {
	return r.transform.MapRect(r.cropRect).Round()
}

// ScaledCropRect returns the crop rectangle scaled by s with truncated edges,
// for hosts that crop a downsampled copy of the image.
func (r *Region) ScaledCropRect(s float64) image.Rectangle {
	return r.cropRect.Scale(s).Truncate()
}

// Normalized returns the crop rectangle relative to the image size.
func (r *Region) Normalized() types.Box {
	w, h := r.imageRect.Width(), r.imageRect.Height()
	return types.Box{
		X: r.cropRect.Left / w,
		Y: r.cropRect.Top / h,
		W: r.cropRect.Width() / w,
		H: r.cropRect.Height() / h,
	}
}

// SetCropRect replaces the crop rectangle, for hosts restoring a previous
// selection. With a fixed constraint the height is recomputed from the
// width around the same center. The result must lie inside the image, up
// to float error, which is clamped away.
func (r *Region) SetCropRect(rect geometry.Rect) error {
	rect = rect.Canon()
	if r.constraint.IsFixed() {
		_, cy := rect.Center()
		h := rect.Width() / r.initialAspectRatio
		rect.Top, rect.Bottom = cy-h/2, cy+h/2
	}
	if rect.Empty() || !rect.In(r.imageRect.Inset(-containTolerance, -containTolerance)) {
		return errors.Wrapf(ErrInvalidRect, "rect %v, image %v", rect, r.imageRect)
	}
	r.cropRect = r.clampPosition(rect)
	return nil
}

// HitTest reports which edges of the crop rectangle lie within
// HitTolerance of the screen point (x, y). When no edge is close it
// returns Move for points inside the rectangle and EdgeNone otherwise.
func (r *Region) HitTest(x, y float64) Edge {
	s := r.ScreenRect()
	left, top := float64(s.Min.X), float64(s.Min.Y)
	right, bottom := float64(s.Max.X), float64(s.Max.Y)

	// The point must also be within the edge's span, with the same
	// tolerance, along the other axis.
	verticalCheck := y >= top-HitTolerance && y < bottom+HitTolerance
	horizCheck := x >= left-HitTolerance && x < right+HitTolerance

	hit := EdgeNone
	if math.Abs(left-x) < HitTolerance && verticalCheck {
		hit |= EdgeLeft
	}
	if math.Abs(right-x) < HitTolerance && verticalCheck {
		hit |= EdgeRight
	}
	if math.Abs(top-y) < HitTolerance && horizCheck {
		hit |= EdgeTop
	}
	if math.Abs(bottom-y) < HitTolerance && horizCheck {
		hit |= EdgeBottom
	}

	if hit == EdgeNone && image.Pt(int(x), int(y)).In(s) {
		hit = Move
	}
	return hit
}

// HandleMotion applies a pointer drag of (dx, dy) screen units to the part
// of the rectangle identified by edge, as returned by HitTest.
func (r *Region) HandleMotion(edge Edge, dx, dy float64) {
	if edge == EdgeNone {
		return
	}
	if edge == Move {
		r.MoveBy(dx, dy)
		return
	}

	if edge&(EdgeLeft|EdgeRight) == 0 {
		dx = 0
	}
	if edge&(EdgeTop|EdgeBottom) == 0 {
		dy = 0
	}

	sx, sy := r.screenToImage()
	xDelta, yDelta := dx*sx, dy*sy
	if edge&EdgeLeft != 0 {
		xDelta = -xDelta
	}
	if edge&EdgeTop != 0 {
		yDelta = -yDelta
	}
	r.GrowBy(xDelta, yDelta)
}

// MoveBy translates the crop rectangle by a screen-space delta. The
// rectangle is pushed back inside the image on each axis independently;
// its size never changes.
func (r *Region) MoveBy(dx, dy float64) {
	sx, sy := r.screenToImage()
	rect := r.cropRect.Offset(dx*sx, dy*sy)
	r.cropRect = r.clampPosition(rect)
}

// GrowBy grows the crop rectangle by dx on both the left and right and by
// dy on both the top and bottom, in image space. Negative values shrink it.
// With a fixed constraint the nonzero delta drives the other one so the
// ratio holds.
func (r *Region) GrowBy(dx, dy float64) {
	fixed := r.constraint.IsFixed()
	ratio := r.initialAspectRatio
	if fixed {
		if dx != 0 {
			dy = dx / ratio
		} else if dy != 0 {
			dx = dy * ratio
		}
	}

	// Grow at most half the slack between the crop and image rectangles
	// so the edges ease into the image border.
	rect := r.cropRect
	if dx > 0 && rect.Width()+2*dx > r.imageRect.Width() {
		dx = (r.imageRect.Width() - rect.Width()) / 2
		if fixed {
			dy = dx / ratio
		}
	}
	if dy > 0 && rect.Height()+2*dy > r.imageRect.Height() {
		dy = (r.imageRect.Height() - rect.Height()) / 2
		if fixed {
			dx = dy * ratio
		}
	}

	// A region already below the floor is never forced to grow.
	widthFloor := math.Min(MinCropSize, rect.Width())
	heightFloor := math.Min(MinCropSize, rect.Height())
	if fixed {
		heightFloor = widthFloor / ratio
	}

	rect = rect.Inset(-dx, -dy)

	if rect.Width() < widthFloor {
		rect = rect.Inset(-(widthFloor-rect.Width())/2, 0)
	}
	if rect.Height() < heightFloor {
		rect = rect.Inset(0, -(heightFloor-rect.Height())/2)
	}

	r.cropRect = r.clampPosition(rect)
}

// clampPosition shifts rect back inside the image without resizing it.
// The near edge wins when both would overflow, which only happens for a
// rectangle larger than the image. Afterwards every edge is trimmed to the
// image so float rounding cannot leave one a hair outside.
func (r *Region) clampPosition(rect geometry.Rect) geometry.Rect {
	img := r.imageRect
	if w := rect.Width(); rect.Left < img.Left {
		rect.Left, rect.Right = img.Left, img.Left+w
	} else if rect.Right > img.Right {
		rect.Left, rect.Right = img.Right-w, img.Right
	}
	if h := rect.Height(); rect.Top < img.Top {
		rect.Top, rect.Bottom = img.Top, img.Top+h
	} else if rect.Bottom > img.Bottom {
		rect.Top, rect.Bottom = img.Bottom-h, img.Bottom
	}
	rect.Left = math.Max(rect.Left, img.Left)
	rect.Top = math.Max(rect.Top, img.Top)
	rect.Right = math.Min(rect.Right, img.Right)
	rect.Bottom = math.Min(rect.Bottom, img.Bottom)
	return rect
}

// screenToImage returns the image units per screen unit along each axis,
// measured on the crop rectangle's own projection.
func (r *Region) screenToImage() (float64, float64) {
	projected := r.transform.MapRect(r.cropRect)
	sx, sy := 1.0, 1.0
	if w := projected.Width(); w > 0 {
		sx = r.cropRect.Width() / w
	}
	if h := projected.Height(); h > 0 {
		sy = r.cropRect.Height() / h
	}
	return sx, sy
}
