package photocrop

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/menta2k/photocrop/pkg/cropper"
	"github.com/menta2k/photocrop/pkg/geometry"
	"github.com/menta2k/photocrop/pkg/planner"
	"github.com/menta2k/photocrop/pkg/types"
)

// ErrSessionClosed is reported by Commit and Cancel after the session has
// already finished.
var ErrSessionClosed = errors.New("crop session already finished")

// Outcome is how a crop session ended.
type Outcome int

const (
	// OutcomeCropped means the session committed and produced a plan.
	OutcomeCropped Outcome = iota + 1
	// OutcomeCanceled means the user backed out.
	OutcomeCanceled
	// OutcomeFailed means the commit could not be planned; Result.Err
	// holds the cause.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCropped:
		return "cropped"
	case OutcomeCanceled:
		return "canceled"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Options configure a crop session
type Options struct {
	Aspect cropper.AspectConstraint
	// MaxOutput bounds the planned output size; zero means no limit.
	MaxOutput types.Size
}

// Result is what a finished session reports back to its host
type Result struct {
	Outcome Outcome      `json:"outcome"`
	Plan    planner.Plan `json:"plan"`
	Err     error        `json:"-"`
}

// Session is one interactive crop of one source image. The crop region is
// kept in the oriented frame the user sees; planning maps it back to the
// natural pixels. A Session has a single owner and finishes exactly once.
type Session struct {
	natural  types.ImageBounds
	rotation int
	region   *cropper.Region
	planner  *planner.Planner
	done     bool
}

// NewSession starts a session over a source with the given natural bounds
// and clockwise display rotation. It panics on invalid bounds or aspect.
func NewSession(natural types.ImageBounds, rotation int, opts Options) *Session {
	rotation = types.NormalizeRotation(rotation)
	return &Session{
		natural:  natural,
		rotation: rotation,
		region:   cropper.NewRegion(natural.Oriented(rotation), opts.Aspect),
		planner:  planner.NewWithConfig(planner.Config{MaxOutput: opts.MaxOutput}),
	}
}

// Region returns the crop region for hit testing and drags.
func (s *Session) Region() *cropper.Region {
	return s.region
}

// Bounds returns the natural bounds of the source.
func (s *Session) Bounds() types.ImageBounds {
	return s.natural
}

// Rotation returns the clockwise display rotation in [0, 360).
func (s *Session) Rotation() int {
	return s.rotation
}

// Done reports whether the session has finished.
func (s *Session) Done() bool {
	return s.done
}

// SetNormalizedRect places the crop rectangle from a box relative to the
// oriented image, as produced by Region.Normalized.
func (s *Session) SetNormalizedRect(box types.Box) error {
	img := s.region.ImageRect()
	w, h := img.Width(), img.Height()
	rect := geometry.R(box.X*w, box.Y*h, (box.X+box.W)*w, (box.Y+box.H)*h)
	return s.region.SetCropRect(rect)
}

// Commit plans the output for the current crop rectangle and finishes the
// session. Planning failures end the session with OutcomeFailed.
func (s *Session) Commit(ctx context.Context) Result {
	logger := log.Ctx(ctx)
	if s.done {
		return Result{Outcome: OutcomeFailed, Err: ErrSessionClosed}
	}
	s.done = true

	crop := s.region.CropRect()
	plan, err := s.planner.Plan(crop, s.natural, s.rotation)
	if err != nil {
		logger.Warn().Err(err).Stringer("crop", crop).Int("rotation", s.rotation).Msg("crop failed")
		return Result{Outcome: OutcomeFailed, Err: errors.Wrap(err, "plan crop")}
	}

	logger.Debug().
		Stringer("crop", crop).
		Stringer("source_rect", plan.SourceRect).
		Int("width", plan.OutWidth).
		Int("height", plan.OutHeight).
		Msg("crop committed")
	return Result{Outcome: OutcomeCropped, Plan: plan}
}

// Cancel finishes the session without producing a plan.
func (s *Session) Cancel() Result {
	if s.done {
		return Result{Outcome: OutcomeFailed, Err: ErrSessionClosed}
	}
	s.done = true
	return Result{Outcome: OutcomeCanceled}
}
