// Package processing rasterizes output plans and handles the image I/O
// around them: loading sources from disk or HTTP, encoding results, and
// drawing debug overlays.
package processing

import (
	"bytes"
	"context"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"
)

// Processor handles image processing operations
type Processor struct {
	client *http.Client
}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// IsURL reports whether source names an http(s) resource rather than a file.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// ReadSource returns the encoded bytes of a file path or http(s) URL. The
// bytes are kept in memory so the header can be inspected before decoding.
func (p *Processor) ReadSource(ctx context.Context, source string) ([]byte, error) {
	if !IsURL(source) {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read image file")
		}
		return data, nil
	}

	parsedURL, err := url.Parse(source)
	if err != nil {
		return nil, errors.Wrap(err, "invalid URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsedURL.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", "photocrop/1.0")

	log.Ctx(ctx).Debug().Str("url", parsedURL.Redacted()).Msg("downloading source")
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to download image")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("failed to download image: HTTP %s", resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, errors.Errorf("URL does not point to an image (Content-Type: %s)", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read image data")
	}
	return data, nil
}

// DecodeImage decodes encoded image bytes with WebP support
func (p *Processor) DecodeImage(data []byte) (image.Image, error) {
	// Try standard image.Decode first
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	// Try WebP decode
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	return nil, errors.New("image: unknown or unsupported format")
}

// LoadImage loads an image from a file path or URL
func (p *Processor) LoadImage(ctx context.Context, source string) (image.Image, error) {
	if !IsURL(source) {
		// imaging.Open covers the registered decoders without buffering.
		if img, err := imaging.Open(source); err == nil {
			return img, nil
		}
	}

	data, err := p.ReadSource(ctx, source)
	if err != nil {
		return nil, err
	}
	img, err := p.DecodeImage(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", source)
	}
	return img, nil
}

// SaveImage saves an image to a file with the specified format and quality
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	switch strings.ToLower(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, "failed to create output file")
		}
		defer f.Close()
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		return errors.Wrap(webp.Encode(f, img, opts), "encode webp")
	case "png":
		return errors.Wrap(imaging.Save(img, path), "save png")
	case "jpg", "jpeg", "":
		return errors.Wrap(imaging.Save(img, path, imaging.JPEGQuality(quality)), "save jpeg")
	default:
		return errors.Errorf("unsupported output format: %s", format)
	}
}
