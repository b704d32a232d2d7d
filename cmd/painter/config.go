package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/setanarut/painter"
	"github.com/setanarut/painter/utils"
)

// Config is everything a run needs besides the image paths. It can be read
// from a TOML file; command line flags win over the file.
type Config struct {
	Painter painter.Options `toml:"painter"`
	// Seed for the random generator. 0 picks one from the clock.
	Seed uint64 `toml:"seed"`
	// Longer side the source is shrunk to before painting. 0 keeps it.
	MaxDimension int `toml:"max_dimension"`
	// Number of palette colours stroke colours snap to. 0 disables snapping.
	PaletteSize   int                 `toml:"palette_size"`
	PaletteMethod utils.PaletteMethod `toml:"palette_method"`
	// Directory for per-scale snapshots. Empty disables them.
	CheckpointDir string `toml:"checkpoint_dir"`
	Verbose       bool   `toml:"verbose"`
}

func DefaultConfig() Config {
	return Config{
		Painter:       painter.DefaultOptions(),
		PaletteMethod: utils.PaletteMethodDominantColor,
	}
}

// LoadConfig decodes the TOML file at path over cfg, so keys missing from
// the file keep their current values.
func LoadConfig(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
