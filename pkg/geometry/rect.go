package geometry

import (
	"fmt"
	"image"
	"math"
)

// Rect is an axis-aligned rectangle with floating-point edges. It is used
// for image-space crop rectangles; screen and pixel rectangles are
// image.Rectangle values obtained through Round or Truncate.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// R is shorthand for Rect{left, top, right, bottom}.
func R(left, top, right, bottom float64) Rect {
	return Rect{Left: left, Top: top, Right: right, Bottom: bottom}
}

// FromImageRect converts an integer rectangle.
func FromImageRect(r image.Rectangle) Rect {
	return R(float64(r.Min.X), float64(r.Min.Y), float64(r.Max.X), float64(r.Max.Y))
}

// Width returns Right - Left.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns Bottom - Top.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() (float64, float64) {
	return (r.Left + r.Right) / 2, (r.Top + r.Bottom) / 2
}

// Canon returns the canonical version of r, with Left <= Right and Top <= Bottom.
func (r Rect) Canon() Rect {
	if r.Right < r.Left {
		r.Left, r.Right = r.Right, r.Left
	}
	if r.Bottom < r.Top {
		r.Top, r.Bottom = r.Bottom, r.Top
	}
	return r
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Left >= r.Right || r.Top >= r.Bottom
}

// Offset translates the rectangle by (dx, dy).
func (r Rect) Offset(dx, dy float64) Rect {
	return Rect{r.Left + dx, r.Top + dy, r.Right + dx, r.Bottom + dy}
}

// Inset moves every edge inward by dx horizontally and dy vertically.
// Negative values grow the rectangle.
func (r Rect) Inset(dx, dy float64) Rect {
	return Rect{r.Left + dx, r.Top + dy, r.Right - dx, r.Bottom - dy}
}

// Scale multiplies every edge by s.
func (r Rect) Scale(s float64) Rect {
	return Rect{r.Left * s, r.Top * s, r.Right * s, r.Bottom * s}
}

// Contains reports whether (x, y) lies inside r. The right and bottom
// edges are exclusive, matching image.Point.In.
func (r Rect) Contains(x, y float64) bool {
	return r.Left <= x && x < r.Right && r.Top <= y && y < r.Bottom
}

// In reports whether r lies entirely within s, edges included.
func (r Rect) In(s Rect) bool {
	return r.Left >= s.Left && r.Top >= s.Top && r.Right <= s.Right && r.Bottom <= s.Bottom
}

// Round rounds each edge half-up to the nearest integer.
func (r Rect) Round() image.Rectangle {
	return image.Rect(roundHalfUp(r.Left), roundHalfUp(r.Top), roundHalfUp(r.Right), roundHalfUp(r.Bottom))
}

// Truncate converts each edge to an integer by dropping the fraction.
func (r Rect) Truncate() image.Rectangle {
	// image.Rect would canonicalize; keep the edges as they are.
	return image.Rectangle{
		Min: image.Pt(int(r.Left), int(r.Top)),
		Max: image.Pt(int(r.Right), int(r.Bottom)),
	}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%g,%g)-(%g,%g)", r.Left, r.Top, r.Right, r.Bottom)
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
