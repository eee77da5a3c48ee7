package geometry

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Affine is a 2D affine transform stored in the row-major layout used by
// golang.org/x/image/draw:
//
//	| a  b  c |
//	| d  e  f |
//
// so that x' = a*x + b*y + c and y' = d*x + e*y + f. The y axis points
// down, so positive rotation angles turn clockwise on screen.
type Affine f64.Aff3

// Identity returns the identity transform.
func Identity() Affine {
	return Affine{1, 0, 0, 0, 1, 0}
}

// Translate returns a transform that shifts points by (tx, ty).
func Translate(tx, ty float64) Affine {
	return Affine{1, 0, tx, 0, 1, ty}
}

// Scale returns a transform that scales by (sx, sy) around the origin.
func Scale(sx, sy float64) Affine {
	return Affine{sx, 0, 0, 0, sy, 0}
}

// Rotate returns a rotation by degrees around the origin. Multiples of 90
// produce exact matrices so that mapped pixel rectangles stay integral.
func Rotate(degrees float64) Affine {
	sin, cos := sinCos(degrees)
	return Affine{cos, -sin, 0, sin, cos, 0}
}

func sinCos(degrees float64) (float64, float64) {
	d := math.Mod(degrees, 360)
	if d < 0 {
		d += 360
	}
	switch d {
	case 0:
		return 0, 1
	case 90:
		return 1, 0
	case 180:
		return 0, -1
	case 270:
		return -1, 0
	}
	return math.Sincos(d * math.Pi / 180)
}

// Then returns the transform that applies a first and b second.
func (a Affine) Then(b Affine) Affine {
	return Affine{
		b[0]*a[0] + b[1]*a[3],
		b[0]*a[1] + b[1]*a[4],
		b[0]*a[2] + b[1]*a[5] + b[2],
		b[3]*a[0] + b[4]*a[3],
		b[3]*a[1] + b[4]*a[4],
		b[3]*a[2] + b[4]*a[5] + b[5],
	}
}

// Apply maps the point (x, y).
func (a Affine) Apply(x, y float64) (float64, float64) {
	return a[0]*x + a[1]*y + a[2], a[3]*x + a[4]*y + a[5]
}

// MapRect maps the four corners of r and returns their bounding box.
func (a Affine) MapRect(r Rect) Rect {
	xs := [4]float64{}
	ys := [4]float64{}
	xs[0], ys[0] = a.Apply(r.Left, r.Top)
	xs[1], ys[1] = a.Apply(r.Right, r.Top)
	xs[2], ys[2] = a.Apply(r.Right, r.Bottom)
	xs[3], ys[3] = a.Apply(r.Left, r.Bottom)

	out := Rect{xs[0], ys[0], xs[0], ys[0]}
	for i := 1; i < 4; i++ {
		out.Left = math.Min(out.Left, xs[i])
		out.Right = math.Max(out.Right, xs[i])
		out.Top = math.Min(out.Top, ys[i])
		out.Bottom = math.Max(out.Bottom, ys[i])
	}
	return out
}

// Det returns the determinant of the linear part.
func (a Affine) Det() float64 {
	return a[0]*a[4] - a[1]*a[3]
}

// Invertible reports whether the transform has a finite, non-zero determinant.
func (a Affine) Invertible() bool {
	d := a.Det()
	return d != 0 && !math.IsNaN(d) && !math.IsInf(d, 0)
}

// Invert returns the inverse transform. ok is false when a is singular.
func (a Affine) Invert() (inv Affine, ok bool) {
	if !a.Invertible() {
		return Affine{}, false
	}
	d := a.Det()
	inv = Affine{
		a[4] / d,
		-a[1] / d,
		(a[1]*a[5] - a[4]*a[2]) / d,
		-a[3] / d,
		a[0] / d,
		(a[3]*a[2] - a[0]*a[5]) / d,
	}
	return inv, true
}

// Aff3 returns the transform as the matrix type used by x/image/draw.
func (a Affine) Aff3() f64.Aff3 {
	return f64.Aff3(a)
}
