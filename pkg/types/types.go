package types

import "fmt"

// ImageBounds holds the natural (unrotated) pixel dimensions of a source image
type ImageBounds struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both dimensions are positive
func (b ImageBounds) Valid() bool {
	return b.Width > 0 && b.Height > 0
}

// Oriented returns the bounds as they appear after rotating the image
// clockwise by the given number of degrees. Quarter turns swap the axes.
func (b ImageBounds) Oriented(degrees int) ImageBounds {
	if (NormalizeRotation(degrees)/90)%2 != 0 {
		return ImageBounds{Width: b.Height, Height: b.Width}
	}
	return b
}

func (b ImageBounds) String() string {
	return fmt.Sprintf("%dx%d", b.Width, b.Height)
}

// Size is a width/height pair. A zero Size means "no constraint" wherever
// it is used as a limit.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsZero reports whether the size is unset. Either side being non-positive
// counts as unset.
func (s Size) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// NormalizeRotation folds any angle in degrees into [0, 360).
func NormalizeRotation(degrees int) int {
	degrees %= 360
	if degrees < 0 {
		degrees += 360
	}
	return degrees
}
