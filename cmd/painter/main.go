package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"time"

	"github.com/setanarut/painter"
	"github.com/setanarut/painter/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := DefaultConfig()
	var configPath string

	cmd := &cobra.Command{
		Use:   "painter BRUSH [BRUSH...] SOURCE OUTPUT",
		Short: "Repaint an image with randomised brush strokes",
		Long: `painter approximates SOURCE by stamping rotated, resized copies of the
BRUSH stencils onto a canvas, coarse strokes first, and writes the result to
OUTPUT as PNG.`,
		Args:         cobra.MinimumNArgs(3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				if err := applyConfigFile(cmd.Flags(), configPath, &cfg); err != nil {
					return err
				}
			}
			n := len(args)
			return run(cmd.Context(), cfg, args[:n-2], args[n-2], args[n-1])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	bindFlags(cmd.Flags(), &cfg)
	return cmd
}

func bindFlags(f *pflag.FlagSet, cfg *Config) {
	f.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed (0 = from clock)")
	f.IntVar(&cfg.Painter.Workers, "workers", cfg.Painter.Workers, "goroutines per pass (1 = sequential)")
	f.Float64Var(&cfg.Painter.NoiseAmplitude, "noise", cfg.Painter.NoiseAmplitude, "per-channel colour noise width")
	f.IntVar(&cfg.Painter.MaxPasses, "max-passes", cfg.Painter.MaxPasses, "passes per grid scale (0 = until converged)")
	f.Var(&cfg.Painter.AcceptMode, "accept", "stroke acceptance: always or reject-worse")
	f.Var(&cfg.Painter.InitialFill, "fill", "initial canvas colour: average or dominant")
	f.IntVar(&cfg.MaxDimension, "max-dim", cfg.MaxDimension, "shrink the source so its longer side fits (0 = off)")
	f.IntVar(&cfg.PaletteSize, "palette", cfg.PaletteSize, "snap stroke colours to this many palette colours (0 = off)")
	f.Var(&cfg.PaletteMethod, "palette-method", "palette extraction: dominantcolor or kmeans")
	f.StringVar(&cfg.CheckpointDir, "checkpoint-dir", cfg.CheckpointDir, "write a snapshot after each grid scale")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "log rejected strokes")
}

// applyConfigFile loads path into cfg and then re-applies the flags given on
// the command line.
func applyConfigFile(flags *pflag.FlagSet, path string, cfg *Config) error {
	changed := map[string]string{}
	flags.Visit(func(f *pflag.Flag) {
		if f.Name != "config" {
			changed[f.Name] = f.Value.String()
		}
	})
	if err := LoadConfig(path, cfg); err != nil {
		return err
	}
	for name, v := range changed {
		if err := flags.Set(name, v); err != nil {
			return fmt.Errorf("flag --%s: %w", name, err)
		}
	}
	return nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func run(ctx context.Context, cfg Config, brushPaths []string, srcPath, outPath string) error {
	logger := newLogger(cfg.Verbose)

	brushes, err := utils.LoadBrushes(brushPaths...)
	if err != nil {
		logger.Error("loading brushes", "err", err)
		return err
	}
	source, err := utils.LoadRaster(srcPath, cfg.MaxDimension)
	if err != nil {
		logger.Error("loading source", "err", err)
		return err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rnd := rand.New(rand.NewPCG(seed, seed>>32|seed<<32))

	p, err := painter.NewPainter(source, brushes, rnd, cfg.Painter)
	if err != nil {
		return err
	}
	p.Logger = logger
	logger.Info("starting", "source", srcPath, "width", source.W, "height", source.H,
		"brushes", len(brushes), "seed", seed, "accept", p.Options.AcceptMode, "workers", p.Options.Workers)

	if cfg.PaletteSize > 0 {
		palette, err := utils.ExtractPalette(source.Image(), cfg.PaletteSize, cfg.PaletteMethod)
		if err != nil {
			logger.Error("extracting palette", "err", err)
			return err
		}
		p.Palette = palette
	}

	if cfg.CheckpointDir != "" {
		if err := os.MkdirAll(cfg.CheckpointDir, 0o750); err != nil {
			return fmt.Errorf("%w: %w", utils.ErrEncode, err)
		}
		p.OnPass = func(s painter.PassStats) {
			path := utils.CheckpointPath(cfg.CheckpointDir, s.Grid)
			if err := utils.SaveRaster(p.Canvas.Current(), path); err != nil {
				logger.Warn("checkpoint not written", "path", path, "err", err)
			}
		}
	}

	paintErr := p.Paint(ctx)
	if paintErr != nil && !errors.Is(paintErr, context.Canceled) {
		return paintErr
	}
	if paintErr != nil {
		logger.Warn("interrupted, writing partial painting", "loss", p.Loss)
	}

	if err := utils.SaveRaster(p.Canvas.Current(), outPath); err != nil {
		logger.Error("writing output", "err", err)
		return err
	}
	logger.Info("wrote painting", "path", outPath, "loss", p.Loss)
	return paintErr
}
