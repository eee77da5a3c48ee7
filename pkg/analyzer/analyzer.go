// Package analyzer inspects crop sources: their natural pixel bounds, their
// encoding and the display rotation recorded in EXIF.
package analyzer

import (
	"context"
	"image"
	_ "image/jpeg" // register decoders
	_ "image/png"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/photocrop/pkg/types"
)

// ErrUnsupportedFormat is returned for encodings outside Config.SupportedFormats.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ImageAnalyzer inspects and loads crop sources
type ImageAnalyzer struct {
	config Config
}

// Config holds configuration for the image analyzer
type Config struct {
	SupportedFormats []string
	MinImageSize     int
}

// New creates a new ImageAnalyzer with default configuration
func New() *ImageAnalyzer {
	return &ImageAnalyzer{
		config: Config{
			SupportedFormats: []string{"jpeg", "png", "webp"},
			MinImageSize:     1,
		},
	}
}

// NewWithConfig creates a new ImageAnalyzer with custom configuration
func NewWithConfig(config Config) *ImageAnalyzer {
	return &ImageAnalyzer{config: config}
}

// SourceInfo describes a crop source without decoding its pixels
type SourceInfo struct {
	// Bounds are the natural dimensions of the encoded pixels.
	Bounds types.ImageBounds `json:"bounds"`
	Format string            `json:"format"`
	// Orientation is the raw EXIF orientation tag, 0 when absent.
	Orientation int `json:"orientation"`
	// Rotation is the clockwise display rotation derived from Orientation.
	Rotation int `json:"rotation"`
}

// Oriented returns the bounds as the user sees the image.
func (s SourceInfo) Oriented() types.ImageBounds {
	return s.Bounds.Oriented(s.Rotation)
}

// Inspect reads the header and EXIF data of the file at path
func (a *ImageAnalyzer) Inspect(ctx context.Context, path string) (SourceInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return SourceInfo{}, errors.Wrap(err, "failed to open image file")
	}
	defer file.Close()

	info, err := a.InspectReader(ctx, file)
	if err != nil {
		return SourceInfo{}, errors.Wrapf(err, "inspect %s", path)
	}
	return info, nil
}

// InspectReader reads the header and EXIF data from r. A missing or broken
// EXIF block is not an error; the source is then treated as unrotated.
func (a *ImageAnalyzer) InspectReader(ctx context.Context, r io.ReadSeeker) (SourceInfo, error) {
	config, format, err := image.DecodeConfig(r)
	if err != nil {
		return SourceInfo{}, errors.Wrap(err, "failed to decode image header")
	}
	if !a.isFormatSupported(format) {
		return SourceInfo{}, errors.Wrap(ErrUnsupportedFormat, format)
	}

	info := SourceInfo{
		Bounds: types.ImageBounds{Width: config.Width, Height: config.Height},
		Format: format,
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return SourceInfo{}, errors.Wrap(err, "failed to rewind image")
	}
	orientation, err := readOrientation(r)
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("format", format).Msg("no EXIF orientation")
	}
	info.Orientation = orientation
	info.Rotation = RotationFromOrientation(orientation)

	return info, nil
}

func readOrientation(r io.Reader) (int, error) {
	x, err := exif.Decode(r)
	if err != nil {
		return 0, err
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 0, err
	}
	return tag.Int(0)
}

// RotationFromOrientation maps an EXIF orientation tag to the clockwise
// rotation that displays the image upright. Mirrored orientations are not
// supported and map to 0.
func RotationFromOrientation(orientation int) int {
	switch orientation {
	case 6:
		return 90
	case 3:
		return 180
	case 8:
		return 270
	default:
		return 0
	}
}

func (a *ImageAnalyzer) isFormatSupported(format string) bool {
	for _, supported := range a.config.SupportedFormats {
		if strings.EqualFold(format, supported) || (format == "jpeg" && strings.EqualFold(supported, "jpg")) {
			return true
		}
	}
	return false
}

// ValidateBounds checks that a source is large enough to crop
func (a *ImageAnalyzer) ValidateBounds(bounds types.ImageBounds) error {
	if bounds.Width < a.config.MinImageSize || bounds.Height < a.config.MinImageSize || !bounds.Valid() {
		return errors.Errorf("image too small: %s (minimum: %d)", bounds, a.config.MinImageSize)
	}
	return nil
}
