package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/menta2k/photocrop"
	"github.com/menta2k/photocrop/internal/config"
	"github.com/menta2k/photocrop/internal/utils"
	"github.com/menta2k/photocrop/pkg/analyzer"
	"github.com/menta2k/photocrop/pkg/types"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func run() error {
	var args cliArgs
	cliCtx := kong.Parse(
		&args,
		kong.Name("photocrop"),
		kong.Description("Crop images by rectangle, honoring EXIF orientation."),
		kong.UsageOnError(),
	)
	if err := cliCtx.Run(&args.Globals); err != nil {
		return err
	}

	return nil
}

type cliArgs struct {
	Globals globals `embed:""`

	Crop       cropCmd       `cmd:"" help:"Crop images and write the results"`
	Plan       planCmd       `cmd:"" help:"Print the output plan for an image without rendering"`
	Inspect    inspectCmd    `cmd:"" help:"Print bounds, format and EXIF rotation of images"`
	InitConfig initConfigCmd `cmd:"" name:"init-config" help:"Write the default configuration file"`
}

type globals struct {
	Config  string `help:"Path to the JSON config file (default ~/.config/photocrop/config.json)"`
	Verbose bool   `short:"v" help:"Enable verbose logging" default:"false"`
}

// setup configures logging and loads the configuration. The returned
// context carries the logger and is canceled on interrupt.
func (g *globals) setup() (context.Context, context.CancelFunc, *config.Config, error) {
	level := zerolog.InfoLevel
	if g.Verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Output(zerolog.NewConsoleWriter()).Level(level)
	zerolog.DefaultContextLogger = &log.Logger

	path := g.Config
	if path == "" {
		path = config.GetConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, nil, errors.Wrapf(err, "load config %s", path)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	ctx = log.Logger.WithContext(ctx)

	return ctx, cancel, cfg, nil
}

// CropFlags override the configuration for a single run.
type CropFlags struct {
	Aspect    string `help:"Aspect constraint: free, a preset (square, portrait, landscape, widescreen, instagram, story, circle) or X:Y"`
	MaxWidth  int    `help:"Maximum output width in pixels"`
	MaxHeight int    `help:"Maximum output height in pixels"`
	Rect      string `help:"Crop rectangle as normalized x,y,w,h of the upright image (default: centered region)"`
}

func (f CropFlags) apply(cfg *config.Config) error {
	if f.Aspect != "" {
		cfg.Crop.Aspect = f.Aspect
	}
	if f.MaxWidth != 0 {
		cfg.Crop.MaxWidth = f.MaxWidth
	}
	if f.MaxHeight != 0 {
		cfg.Crop.MaxHeight = f.MaxHeight
	}
	return cfg.Validate()
}

type cropCmd struct {
	Inputs []string `arg:"" help:"Image files, directories or http(s) URLs"`
	CropFlags `embed:""`

	Out      string `short:"o" help:"Output directory (default from config)"`
	Format   string `help:"Output format: jpg, png or webp"`
	Quality  int    `help:"JPEG/WebP quality (1-100)"`
	Lossless bool   `help:"Lossless WebP output"`
	Strategy string `help:"Render strategy: region or transform"`
	Debug    bool   `help:"Also write the source with the crop outlined"`
}

func (cmd *cropCmd) Run(g *globals) error {
	ctx, cancel, cfg, err := g.setup()
	if err != nil {
		return err
	}
	defer cancel()

	if cmd.Out != "" {
		cfg.Output.OutputDir = cmd.Out
	}
	if cmd.Format != "" {
		cfg.Output.DefaultFormat = cmd.Format
	}
	if cmd.Quality != 0 {
		cfg.Output.Quality = cmd.Quality
	}
	if cmd.Lossless {
		cfg.Output.Lossless = true
	}
	if cmd.Strategy != "" {
		cfg.Crop.Strategy = cmd.Strategy
	}
	if err := cmd.apply(cfg); err != nil {
		return err
	}

	box, err := parseBox(cmd.Rect)
	if err != nil {
		return err
	}
	inputs, err := expandInputs(cmd.Inputs)
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(cfg.Output.OutputDir); err != nil {
		return errors.Wrap(err, "create output directory")
	}

	c := newCropper(cfg)
	failed := 0
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}

		out := utils.GenerateOutputFilename(in, cfg.Output.OutputDir, cfg.Output.Prefix, cfg.Output.Suffix, cfg.Output.DefaultFormat)
		result, err := c.CropFile(ctx, in, out, box)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("source", in).Msg("Failed to crop image")
			failed++
			continue
		}

		if info, err := os.Stat(out); err == nil {
			log.Ctx(ctx).Info().Str("output", out).Str("size", utils.FormatFileSize(info.Size())).Send()
		}

		if cmd.Debug {
			overlay, err := c.DebugOverlay(ctx, in, result.Plan)
			if err != nil {
				log.Ctx(ctx).Error().Err(err).Str("source", in).Msg("Failed to create debug overlay")
				continue
			}
			path := utils.GenerateOutputFilename(in, cfg.Output.OutputDir, cfg.Output.Prefix, "_debug", "png")
			if err := imaging.Save(overlay, path); err != nil {
				log.Ctx(ctx).Error().Err(err).Str("output", path).Msg("Failed to save debug overlay")
			}
		}
	}

	if failed > 0 {
		return errors.Errorf("%d of %d crops failed", failed, len(inputs))
	}
	return nil
}

type planCmd struct {
	Input string `arg:"" help:"Image file or http(s) URL"`
	CropFlags `embed:""`
}

func (cmd *planCmd) Run(g *globals) error {
	ctx, cancel, cfg, err := g.setup()
	if err != nil {
		return err
	}
	defer cancel()

	if err := cmd.apply(cfg); err != nil {
		return err
	}
	box, err := parseBox(cmd.Rect)
	if err != nil {
		return err
	}

	result, err := newCropper(cfg).Plan(ctx, cmd.Input, box)
	if err != nil {
		return err
	}
	printJSONL([]photocrop.CropResult{result})
	return nil
}

type inspectCmd struct {
	Inputs []string `arg:"" help:"Image files, directories or http(s) URLs"`
}

type inspection struct {
	Path string `json:"path"`
	analyzer.SourceInfo
}

func (cmd *inspectCmd) Run(g *globals) error {
	ctx, cancel, cfg, err := g.setup()
	if err != nil {
		return err
	}
	defer cancel()

	inputs, err := expandInputs(cmd.Inputs)
	if err != nil {
		return err
	}

	c := newCropper(cfg)
	var results []inspection
	for _, in := range inputs {
		info, err := c.Inspect(ctx, in)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("source", in).Msg("Failed to inspect image")
			continue
		}
		results = append(results, inspection{Path: in, SourceInfo: info})
	}
	printJSONL(results)
	return nil
}

type initConfigCmd struct {
	Path  string `arg:"" optional:"" help:"Destination (default ~/.config/photocrop/config.json)"`
	Force bool   `help:"Overwrite an existing file"`
}

func (cmd *initConfigCmd) Run(g *globals) error {
	path := cmd.Path
	if path == "" {
		path = config.GetConfigPath()
	}
	if _, err := os.Stat(path); err == nil && !cmd.Force {
		return errors.Errorf("%s already exists; use --force to overwrite", path)
	}
	if err := config.Default().SaveToFile(path); err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("Wrote default configuration")
	return nil
}

func newCropper(cfg *config.Config) *photocrop.Cropper {
	return photocrop.NewWithConfig(photocrop.Config{
		Options: photocrop.Options{
			Aspect:    cfg.AspectConstraint(),
			MaxOutput: cfg.MaxOutput(),
		},
		Strategy: cfg.RenderStrategy(),
		Format:   cfg.Output.DefaultFormat,
		Quality:  cfg.Output.Quality,
		Lossless: cfg.Output.Lossless,
	}, analyzer.Config{
		SupportedFormats: cfg.Source.SupportedFormats,
		MinImageSize:     cfg.Source.MinImageSize,
	})
}

// parseBox parses "x,y,w,h". An empty string yields nil.
func parseBox(s string) (*types.Box, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, errors.Errorf("invalid rect %q: want x,y,w,h", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid rect %q", s)
		}
		v[i] = f
	}
	return &types.Box{X: v[0], Y: v[1], W: v[2], H: v[3]}, nil
}

// expandInputs replaces directories with the images they contain.
func expandInputs(inputs []string) ([]string, error) {
	var files []string
	for _, in := range inputs {
		if !utils.DirExists(in) {
			files = append(files, in)
			continue
		}
		found, err := utils.ListImageFiles(in)
		if err != nil {
			return nil, errors.Wrapf(err, "list %s", in)
		}
		files = append(files, found...)
	}
	return files, nil
}

func printJSONL[T any](data []T) {
	enc := json.NewEncoder(os.Stdout)
	for _, item := range data {
		if err := enc.Encode(item); err != nil {
			log.Error().Err(err).Msg("Failed to encode item to JSON")
			continue
		}
	}
}
