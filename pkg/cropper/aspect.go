package cropper

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// AspectConstraint restricts the shape of the crop rectangle. The zero
// value is Free; otherwise X:Y is the required width:height ratio.
type AspectConstraint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Free leaves the crop rectangle unconstrained.
var Free = AspectConstraint{}

// Fixed returns an X:Y constraint. Both terms must be positive and finite.
func Fixed(x, y float64) AspectConstraint {
	if !validTerm(x) || !validTerm(y) {
		panic(fmt.Sprintf("cropper: invalid aspect constraint %v:%v", x, y))
	}
	return AspectConstraint{X: x, Y: y}
}

// IsFixed reports whether the constraint pins the aspect ratio.
func (c AspectConstraint) IsFixed() bool {
	return c.X != 0 || c.Y != 0
}

// Ratio returns X/Y, or 0 for Free.
func (c AspectConstraint) Ratio() float64 {
	if !c.IsFixed() {
		return 0
	}
	return c.X / c.Y
}

func (c AspectConstraint) String() string {
	if !c.IsFixed() {
		return "free"
	}
	return strconv.FormatFloat(c.X, 'g', -1, 64) + ":" + strconv.FormatFloat(c.Y, 'g', -1, 64)
}

func (c AspectConstraint) mustValid() {
	if !c.IsFixed() {
		return
	}
	if !validTerm(c.X) || !validTerm(c.Y) {
		panic(fmt.Sprintf("cropper: invalid aspect constraint %v:%v", c.X, c.Y))
	}
}

// ParseAspect parses "free", a preset name such as "square", or "X:Y".
func ParseAspect(s string) (AspectConstraint, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "free" || s == "none" {
		return Free, nil
	}
	for _, ratio := range CommonAspectRatios() {
		if ratio.Name == s {
			return ratio.Constraint(), nil
		}
	}
	if s == "circle" {
		return Square.Constraint(), nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return Free, errors.Errorf("invalid aspect %q: want X:Y or a preset name", s)
	}
	x, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Free, errors.Wrapf(err, "invalid aspect %q", s)
	}
	y, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Free, errors.Wrapf(err, "invalid aspect %q", s)
	}
	if !validTerm(x) || !validTerm(y) {
		return Free, errors.Errorf("invalid aspect %q: terms must be positive", s)
	}
	return AspectConstraint{X: x, Y: y}, nil
}

func validTerm(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// AspectRatio represents common aspect ratios
type AspectRatio struct {
	Width  int
	Height int
	Name   string
}

// Common aspect ratios
var (
	Square     = AspectRatio{1, 1, "square"}
	Portrait   = AspectRatio{3, 4, "portrait"}
	Landscape  = AspectRatio{4, 3, "landscape"}
	Widescreen = AspectRatio{16, 9, "widescreen"}
	Instagram  = AspectRatio{4, 5, "instagram"}
	Story      = AspectRatio{9, 16, "story"}
)

// CommonAspectRatios returns a list of commonly used aspect ratios
func CommonAspectRatios() []AspectRatio {
	return []AspectRatio{Square, Portrait, Landscape, Widescreen, Instagram, Story}
}

// Constraint converts the preset into a fixed constraint.
func (a AspectRatio) Constraint() AspectConstraint {
	return Fixed(float64(a.Width), float64(a.Height))
}
