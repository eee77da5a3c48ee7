package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"

	"github.com/menta2k/photocrop/pkg/cropper"
	"github.com/menta2k/photocrop/pkg/processing"
	"github.com/menta2k/photocrop/pkg/types"
)

// EnvPrefix prefixes every environment override, e.g. PHOTOCROP_CROP_MAX_WIDTH.
const EnvPrefix = "PHOTOCROP"

// Config holds the application configuration. Environment keys are the
// upper-cased field path, e.g. PHOTOCROP_OUTPUT_QUALITY.
type Config struct {
	Source SourceConfig `json:"source"`
	Crop   CropConfig   `json:"crop"`
	Output OutputConfig `json:"output"`
}

// SourceConfig holds configuration for source inspection
type SourceConfig struct {
	SupportedFormats []string `json:"supported_formats" split_words:"true"`
	MinImageSize     int      `json:"min_image_size" split_words:"true"`
}

// CropConfig holds configuration for crop sessions
type CropConfig struct {
	// Aspect is "free", a preset name or "X:Y".
	Aspect    string `json:"aspect"`
	MaxWidth  int    `json:"max_width" split_words:"true"`
	MaxHeight int    `json:"max_height" split_words:"true"`
	// Strategy is the render strategy: "region" or "transform".
	Strategy string `json:"strategy"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	DefaultFormat string `json:"default_format" split_words:"true"`
	Quality       int    `json:"quality"`
	Lossless      bool   `json:"lossless"`
	OutputDir     string `json:"output_dir" split_words:"true"`
	Prefix        string `json:"prefix"`
	Suffix        string `json:"suffix"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			SupportedFormats: []string{"jpeg", "png", "webp"},
			MinImageSize:     1,
		},
		Crop: CropConfig{
			Aspect:   "free",
			Strategy: "region",
		},
		Output: OutputConfig{
			DefaultFormat: "jpg",
			Quality:       90,
			OutputDir:     "./output",
			Prefix:        "",
			Suffix:        "_cropped",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Fields missing from
// the file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	return config, nil
}

// Load reads filename if it exists, falling back to defaults, then applies
// environment overrides and validates the result.
func Load(filename string) (*Config, error) {
	config := Default()
	if filename != "" {
		loaded, err := LoadFromFile(filename)
		switch {
		case err == nil:
			config = loaded
		case !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides fields from PHOTOCROP_* environment variables. Unset
// variables leave the current values alone.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return errors.Wrap(err, "failed to read environment")
	}
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Source.MinImageSize < 1 {
		return errors.New("source.min_image_size must be positive")
	}

	if len(c.Source.SupportedFormats) == 0 {
		return errors.New("source.supported_formats cannot be empty")
	}

	if _, err := cropper.ParseAspect(c.Crop.Aspect); err != nil {
		return errors.Wrap(err, "crop.aspect")
	}

	if c.Crop.MaxWidth < 0 || c.Crop.MaxHeight < 0 {
		return errors.New("crop.max_width and crop.max_height cannot be negative")
	}

	if _, err := processing.ParseStrategy(c.Crop.Strategy); err != nil {
		return errors.Wrap(err, "crop.strategy")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return errors.New("output.quality must be between 1 and 100")
	}

	switch strings.ToLower(c.Output.DefaultFormat) {
	case "jpg", "jpeg", "png", "webp":
	default:
		return errors.Errorf("output.default_format %q must be jpg, png or webp", c.Output.DefaultFormat)
	}

	return nil
}

// AspectConstraint returns the parsed crop aspect.
func (c *Config) AspectConstraint() cropper.AspectConstraint {
	aspect, err := cropper.ParseAspect(c.Crop.Aspect)
	if err != nil {
		return cropper.Free
	}
	return aspect
}

// MaxOutput returns the output size limit. Zero means unlimited.
func (c *Config) MaxOutput() types.Size {
	return types.Size{Width: c.Crop.MaxWidth, Height: c.Crop.MaxHeight}
}

// RenderStrategy returns the parsed render strategy.
func (c *Config) RenderStrategy() processing.Strategy {
	strategy, _ := processing.ParseStrategy(c.Crop.Strategy)
	return strategy
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "photocrop", "config.json")
}
