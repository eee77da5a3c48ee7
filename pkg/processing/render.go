package processing

import (
	"context"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"

	"github.com/menta2k/photocrop/pkg/geometry"
	"github.com/menta2k/photocrop/pkg/planner"
)

// Strategy selects how a plan is rasterized.
type Strategy int

const (
	// StrategyRegion crops the source region, rotates it in quarter turns
	// and resizes it only when the output size differs.
	StrategyRegion Strategy = iota
	// StrategyTransform resamples the source once through the plan's
	// affine transform.
	StrategyTransform
)

func (s Strategy) String() string {
	switch s {
	case StrategyRegion:
		return "region"
	case StrategyTransform:
		return "transform"
	}
	return "unknown"
}

// ParseStrategy parses "region" or "transform". An empty string selects
// StrategyRegion.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "region":
		return StrategyRegion, nil
	case "transform":
		return StrategyTransform, nil
	}
	return StrategyRegion, errors.Errorf("unknown render strategy %q", s)
}

// Render produces the OutWidth x OutHeight output described by plan from
// the decoded source image.
func (p *Processor) Render(ctx context.Context, src image.Image, plan planner.Plan, strategy Strategy) (image.Image, error) {
	bounds := src.Bounds()
	rect := plan.SourceRect.Add(bounds.Min)
	if rect.Empty() || !rect.In(bounds) {
		return nil, errors.Wrapf(planner.ErrRegionOutOfBounds, "rectangle %v, image %v", plan.SourceRect, bounds)
	}
	if plan.OutWidth <= 0 || plan.OutHeight <= 0 {
		return nil, errors.Errorf("invalid output size %dx%d", plan.OutWidth, plan.OutHeight)
	}

	log.Ctx(ctx).Debug().
		Stringer("strategy", strategy).
		Stringer("source_rect", plan.SourceRect).
		Int("rotation", plan.RotationDegrees).
		Int("width", plan.OutWidth).
		Int("height", plan.OutHeight).
		Msg("rendering crop")

	switch strategy {
	case StrategyRegion:
		return renderRegion(src, rect, plan), nil
	case StrategyTransform:
		return renderTransform(src, rect, plan), nil
	}
	return nil, errors.Errorf("unknown render strategy %d", strategy)
}

func renderRegion(src image.Image, rect image.Rectangle, plan planner.Plan) image.Image {
	out := imaging.Crop(src, rect)

	// imaging rotates counter-clockwise.
	switch plan.RotationDegrees {
	case 90:
		out = imaging.Rotate270(out)
	case 180:
		out = imaging.Rotate180(out)
	case 270:
		out = imaging.Rotate90(out)
	}

	if plan.NeedsResize() {
		out = imaging.Resize(out, plan.OutWidth, plan.OutHeight, imaging.Lanczos)
	}
	return out
}

func renderTransform(src image.Image, rect image.Rectangle, plan planner.Plan) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, plan.OutWidth, plan.OutHeight))

	m := geometry.Affine(plan.Transform())
	if origin := src.Bounds().Min; origin != (image.Point{}) {
		m = geometry.Translate(-float64(origin.X), -float64(origin.Y)).Then(m)
	}

	draw.CatmullRom.Transform(dst, m.Aff3(), src, rect, draw.Src, nil)
	return dst
}
