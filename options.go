package painter

import (
	"fmt"
	"image"
	"runtime"
)

// AcceptMode decides what happens to a proposed stroke.
type AcceptMode int

const (
	// AcceptAlways commits every stroke; only the pass-level loss gates
	// progress.
	AcceptAlways AcceptMode = iota
	// RejectWorse discards strokes that raise the loss.
	RejectWorse
)

func (m AcceptMode) String() string {
	switch m {
	case RejectWorse:
		return "reject-worse"
	default:
		return "always"
	}
}

func (m *AcceptMode) Set(s string) error {
	switch s {
	case "always", "":
		*m = AcceptAlways
	case "reject-worse":
		*m = RejectWorse
	default:
		return fmt.Errorf("unknown accept mode %q (want always or reject-worse)", s)
	}
	return nil
}

func (m *AcceptMode) Type() string { return "mode" }

func (m AcceptMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *AcceptMode) UnmarshalText(b []byte) error { return m.Set(string(b)) }

// FillMethod picks the flat colour the canvas starts from.
type FillMethod int

const (
	FillAverage FillMethod = iota
	FillDominant
)

func (f FillMethod) String() string {
	switch f {
	case FillDominant:
		return "dominant"
	default:
		return "average"
	}
}

func (f *FillMethod) Set(s string) error {
	switch s {
	case "average", "":
		*f = FillAverage
	case "dominant":
		*f = FillDominant
	default:
		return fmt.Errorf("unknown fill method %q (want average or dominant)", s)
	}
	return nil
}

func (f *FillMethod) Type() string { return "method" }

func (f FillMethod) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *FillMethod) UnmarshalText(b []byte) error { return f.Set(string(b)) }

type Options struct {
	// First grid divisor. Each scale doubles it.
	GridStart int `toml:"grid_start"`
	// Scales run while the divisor is below this bound.
	// 35 gives 1, 2, 4, 8, 16, 32.
	GridLimit int `toml:"grid_limit"`
	// Base brush size as a fraction of the grid cell side.
	// Drawn sizes are uniform in [0, 2*base).
	CellBrushRatio float64 `toml:"cell_brush_ratio"`
	// Another pass at the same scale runs while
	// newLoss < ImprovementRatio * previousLoss.
	// 0.99 means at least 1% improvement per pass.
	ImprovementRatio float64 `toml:"improvement_ratio"`
	// Width of the uniform per-channel colour noise. 0 disables noise.
	NoiseAmplitude float64 `toml:"noise_amplitude"`
	// What to do with each proposed stroke.
	AcceptMode AcceptMode `toml:"accept_mode"`
	// Upper bound on passes per scale. 0 means unbounded.
	MaxPasses int `toml:"max_passes"`
	// Goroutines transforming stencils in a pass. 1 keeps the sequential
	// random stream; larger values draw a whole pass of parameters up front.
	Workers int `toml:"workers"`
	// Initial flat colour of the canvas.
	InitialFill FillMethod `toml:"initial_fill"`
}

func DefaultOptions() Options {
	return Options{
		GridStart:        1,
		GridLimit:        35,
		CellBrushRatio:   0.75,
		ImprovementRatio: 0.99,
		NoiseAmplitude:   20,
		AcceptMode:       AcceptAlways,
		MaxPasses:        0,
		Workers:          1,
		InitialFill:      FillAverage,
	}
}

// OptionsFromSize enables the parallel pass mode for large images, where
// stencil transforms dominate the run time.
func OptionsFromSize(size image.Point) Options {
	opt := DefaultOptions()
	if size.X <= 0 || size.Y <= 0 {
		return opt
	}
	if size.X*size.Y > 1920*1080 {
		opt.Workers = max(1, runtime.NumCPU())
	}
	return opt
}

func (o Options) normalized() Options {
	o.GridStart = max(o.GridStart, 1)
	o.Workers = max(o.Workers, 1)
	o.NoiseAmplitude = max(o.NoiseAmplitude, 0)
	o.MaxPasses = max(o.MaxPasses, 0)
	return o
}
