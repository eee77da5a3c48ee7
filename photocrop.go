// Package photocrop provides the geometry core of interactive image
// cropping, plus the plumbing to turn a committed crop into an output file.
//
// A host shows a photo, lets the user drag and resize a highlight rectangle,
// and on commit asks for an output plan: which source pixels to read, how
// to rotate them to undo the EXIF orientation, and what size to scale them
// to.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		"github.com/menta2k/photocrop"
//		"github.com/menta2k/photocrop/pkg/cropper"
//		"github.com/menta2k/photocrop/pkg/types"
//	)
//
//	func main() {
//		session := photocrop.NewSession(types.ImageBounds{Width: 4000, Height: 3000}, 90,
//			photocrop.Options{Aspect: cropper.Fixed(1, 1)})
//
//		// Feed pointer drags to the region.
//		region := session.Region()
//		edge := region.HitTest(120, 340)
//		region.HandleMotion(edge, -15, 0)
//
//		result := session.Commit(context.Background())
//		if result.Err != nil {
//			log.Fatal(result.Err)
//		}
//		log.Printf("read %v, output %dx%d", result.Plan.SourceRect, result.Plan.OutWidth, result.Plan.OutHeight)
//	}
//
// The package consists of these components:
//
//  1. Cropper (pkg/cropper): the crop rectangle, hit testing and drag rules
//  2. Planner (pkg/planner): maps a committed crop to an output plan
//  3. Analyzer (pkg/analyzer): reads source bounds and EXIF orientation
//  4. Processing (pkg/processing): renders plans and encodes the result
//
// Cropper ties them together for file-to-file crops.
package photocrop

import (
	"bytes"
	"context"
	"image"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/menta2k/photocrop/pkg/analyzer"
	"github.com/menta2k/photocrop/pkg/planner"
	"github.com/menta2k/photocrop/pkg/processing"
	"github.com/menta2k/photocrop/pkg/types"
)

// Version of the photocrop library
const Version = "1.0.0"

// Config configures a Cropper
type Config struct {
	Options
	Strategy processing.Strategy
	Format   string
	Quality  int
	Lossless bool
}

// DefaultConfig returns a free-aspect, unscaled, JPEG configuration
func DefaultConfig() Config {
	return Config{
		Strategy: processing.StrategyRegion,
		Format:   "jpg",
		Quality:  90,
	}
}

// Cropper crops files end to end: inspect, plan, render, save.
type Cropper struct {
	analyzer  *analyzer.ImageAnalyzer
	processor *processing.Processor
	config    Config
}

// New creates a new Cropper with default configuration
func New() *Cropper {
	return NewWithConfig(DefaultConfig(), analyzer.Config{})
}

// NewWithConfig creates a new Cropper with custom configuration. A zero
// analyzer configuration selects the analyzer defaults.
func NewWithConfig(config Config, analyzerConfig analyzer.Config) *Cropper {
	a := analyzer.New()
	if len(analyzerConfig.SupportedFormats) > 0 {
		a = analyzer.NewWithConfig(analyzerConfig)
	}
	return &Cropper{
		analyzer:  a,
		processor: processing.NewProcessor(),
		config:    config,
	}
}

// CropResult describes a finished crop
type CropResult struct {
	Source analyzer.SourceInfo `json:"source"`
	Plan   planner.Plan        `json:"plan"`
	Output string              `json:"output,omitempty"`
	// Image is the rendered output; nil for plan-only runs.
	Image image.Image `json:"-"`
}

// Inspect reports the bounds, format and rotation of a file or URL
func (c *Cropper) Inspect(ctx context.Context, source string) (analyzer.SourceInfo, error) {
	data, err := c.processor.ReadSource(ctx, source)
	if err != nil {
		return analyzer.SourceInfo{}, err
	}
	return c.inspect(ctx, data)
}

func (c *Cropper) inspect(ctx context.Context, data []byte) (analyzer.SourceInfo, error) {
	info, err := c.analyzer.InspectReader(ctx, bytes.NewReader(data))
	if err != nil {
		return analyzer.SourceInfo{}, err
	}
	if err := c.analyzer.ValidateBounds(info.Bounds); err != nil {
		return analyzer.SourceInfo{}, err
	}
	return info, nil
}

// Plan opens a session over source, applies box when given (relative to
// the oriented image), and commits it without rendering.
func (c *Cropper) Plan(ctx context.Context, source string, box *types.Box) (CropResult, error) {
	data, err := c.processor.ReadSource(ctx, source)
	if err != nil {
		return CropResult{}, err
	}
	info, err := c.inspect(ctx, data)
	if err != nil {
		return CropResult{}, err
	}
	plan, err := c.plan(ctx, info, box)
	if err != nil {
		return CropResult{}, err
	}
	return CropResult{Source: info, Plan: plan}, nil
}

func (c *Cropper) plan(ctx context.Context, info analyzer.SourceInfo, box *types.Box) (planner.Plan, error) {
	session := NewSession(info.Bounds, info.Rotation, c.config.Options)
	if box != nil {
		if err := session.SetNormalizedRect(*box); err != nil {
			session.Cancel()
			return planner.Plan{}, err
		}
	}

	result := session.Commit(ctx)
	if result.Outcome != OutcomeCropped {
		return planner.Plan{}, result.Err
	}
	return result.Plan, nil
}

// CropFile crops the image at in and writes the result to out. When out is
// empty the result is rendered but not saved.
func (c *Cropper) CropFile(ctx context.Context, in, out string, box *types.Box) (CropResult, error) {
	logger := log.Ctx(ctx).With().Str("source", in).Logger()

	data, err := c.processor.ReadSource(ctx, in)
	if err != nil {
		return CropResult{}, err
	}
	info, err := c.inspect(ctx, data)
	if err != nil {
		return CropResult{}, err
	}
	logger.Debug().
		Stringer("bounds", info.Bounds).
		Str("format", info.Format).
		Int("rotation", info.Rotation).
		Msg("source inspected")

	plan, err := c.plan(ctx, info, box)
	if err != nil {
		return CropResult{}, err
	}

	img, err := c.processor.DecodeImage(data)
	if err != nil {
		return CropResult{}, errors.Wrapf(err, "decode %s", in)
	}
	rendered, err := c.processor.Render(ctx, img, plan, c.config.Strategy)
	if err != nil {
		return CropResult{}, errors.Wrap(err, "render crop")
	}

	result := CropResult{Source: info, Plan: plan, Image: rendered}
	if out == "" {
		return result, nil
	}

	if err := c.processor.SaveImage(rendered, out, c.config.Format, c.config.Quality, c.config.Lossless); err != nil {
		return CropResult{}, errors.Wrapf(err, "save %s", out)
	}
	result.Output = out
	logger.Info().Str("output", out).Int("width", plan.OutWidth).Int("height", plan.OutHeight).Msg("crop saved")

	return result, nil
}

// DebugOverlay returns the source image at path with the plan's source
// rectangle outlined.
func (c *Cropper) DebugOverlay(ctx context.Context, source string, plan planner.Plan) (image.Image, error) {
	img, err := c.processor.LoadImage(ctx, source)
	if err != nil {
		return nil, err
	}
	return c.processor.CreateDebugOverlay(img, plan.SourceRect), nil
}

// SaveImage encodes img to path with the configured format and quality
func (c *Cropper) SaveImage(img image.Image, path string) error {
	return c.processor.SaveImage(img, path, c.config.Format, c.config.Quality, c.config.Lossless)
}
