package painter

import (
	"context"
	"errors"
	"image/color"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/sync/errgroup"
)

// ErrNoBrushes is returned by NewPainter when no brush masks are given.
var ErrNoBrushes = errors.New("painter: at least one brush is required")

// Stroke fully determines one stroke attempt.
type Stroke struct {
	Brush int
	Size  int
	Angle float64
	X, Y  int
	Color RGB
}

// PassStats describes one finished pass over the grid.
type PassStats struct {
	Grid     int
	Cell     int
	Pass     int
	Strokes  int
	Accepted int
	Previous float64
	Loss     float64
}

// Ratio is Loss/Previous, the per-pass progress figure.
func (s PassStats) Ratio() float64 {
	if s.Previous == 0 {
		return 1
	}
	return s.Loss / s.Previous
}

// Painter approximates Source with brush strokes on Canvas, one grid scale at
// a time.
type Painter struct {
	Source  *Raster
	Brushes []*BrushMask
	// Optional. Sampled stroke colours snap to the nearest entry.
	Palette []colorful.Color
	Canvas  *Canvas
	Options Options
	// Loss of the accepted canvas against Source.
	Loss float64
	// Nil discards log output.
	Logger *slog.Logger
	// Called after every pass, if set.
	OnPass func(PassStats)

	rnd *rand.Rand
}

// NewPainter prepares a painter. All randomness comes from rnd, so a seeded
// generator reproduces a run exactly.
func NewPainter(source *Raster, brushes []*BrushMask, rnd *rand.Rand, opt Options) (*Painter, error) {
	if len(brushes) == 0 {
		return nil, ErrNoBrushes
	}
	return &Painter{
		Source:  source,
		Brushes: brushes,
		Canvas:  NewCanvas(source, rnd),
		Options: opt.normalized(),
		Logger:  slog.New(slog.DiscardHandler),
		rnd:     rnd,
	}, nil
}

func (p *Painter) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}

// Paint runs the whole schedule: Initialize, then Step for every grid scale.
// It stops early with ctx.Err() if ctx is cancelled; the canvas keeps every
// stroke committed so far.
func (p *Painter) Paint(ctx context.Context) error {
	p.Initialize()
	for grid := p.Options.GridStart; grid < p.Options.GridLimit; grid *= 2 {
		if p.cellSize(grid) < 1 {
			p.logger().Info("grid cell below one pixel, stopping", "grid", grid)
			break
		}
		if err := p.Step(ctx, grid); err != nil {
			return err
		}
	}
	p.logger().Info("painting finished", "loss", p.Loss)
	return nil
}

// Initialize fills the canvas with a flat colour and resets Loss.
func (p *Painter) Initialize() {
	fill := p.Source.Average()
	if p.Options.InitialFill == FillDominant {
		fill = dominantFill(p.Source)
	}
	p.Canvas.Fill(fill)
	p.Loss = p.mustLoss(p.Canvas.Current())
	p.logger().Info("canvas initialised", "fill", fill.Hex(), "loss", p.Loss)
}

func dominantFill(r *Raster) RGB {
	c := dominantcolor.Find(r.Image())
	if c == (color.RGBA{}) {
		return r.Average()
	}
	return RGB{c.R, c.G, c.B}
}

func (p *Painter) cellSize(grid int) int {
	return min(p.Source.W, p.Source.H) / grid
}

// Step runs passes at one grid scale until a pass improves the loss by less
// than ImprovementRatio demands, or MaxPasses is reached.
func (p *Painter) Step(ctx context.Context, grid int) error {
	cell := p.cellSize(grid)
	if cell < 1 {
		return nil
	}
	brushSize := int(p.Options.CellBrushRatio * float64(cell))

	for pass := 1; ; pass++ {
		previous := p.Loss
		var accepted, strokes int
		var err error
		if p.Options.Workers > 1 {
			strokes, accepted, err = p.parallelPass(ctx, cell, brushSize)
		} else {
			strokes, accepted, err = p.sequentialPass(ctx, cell, brushSize)
		}
		// Resynchronise with a full evaluation; the per-stroke figures are
		// incremental.
		p.Loss = p.mustLoss(p.Canvas.Current())
		if err != nil {
			return err
		}

		stats := PassStats{
			Grid:     grid,
			Cell:     cell,
			Pass:     pass,
			Strokes:  strokes,
			Accepted: accepted,
			Previous: previous,
			Loss:     p.Loss,
		}
		p.logger().Info("pass",
			"grid", grid, "pass", pass, "accepted", accepted, "strokes", strokes,
			"loss", p.Loss, "ratio", stats.Ratio())
		if p.OnPass != nil {
			p.OnPass(stats)
		}

		if !(p.Loss < p.Options.ImprovementRatio*previous) {
			return nil
		}
		if p.Options.MaxPasses > 0 && pass >= p.Options.MaxPasses {
			return nil
		}
	}
}

func (p *Painter) gridDims(cell int) (cols, rows int) {
	return p.Source.W / cell, p.Source.H / cell
}

func (p *Painter) sequentialPass(ctx context.Context, cell, brushSize int) (strokes, accepted int, err error) {
	cols, rows := p.gridDims(cell)
	for i := range cols {
		for j := range rows {
			if err := ctx.Err(); err != nil {
				return strokes, accepted, err
			}
			s := p.planStroke(i, j, cell, brushSize)
			st := p.render(&s)
			strokes++
			if p.apply(s, st) {
				accepted++
			}
		}
	}
	return strokes, accepted, nil
}

// parallelPass draws every parameter of the pass first, transforms and
// samples concurrently, then proposes and commits in cell order.
func (p *Painter) parallelPass(ctx context.Context, cell, brushSize int) (strokes, accepted int, err error) {
	cols, rows := p.gridDims(cell)
	planned := make([]Stroke, 0, cols*rows)
	for i := range cols {
		for j := range rows {
			planned = append(planned, p.planStroke(i, j, cell, brushSize))
		}
	}

	stencils := make([]*Stencil, len(planned))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Options.Workers)
	for k := range planned {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			stencils[k] = p.render(&planned[k])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}

	for k, s := range planned {
		if err := ctx.Err(); err != nil {
			return strokes, accepted, err
		}
		strokes++
		if p.apply(s, stencils[k]) {
			accepted++
		}
	}
	return strokes, accepted, nil
}

// planStroke draws size, angle, brush and a placement jittered inside cell
// (i, j), in that order.
func (p *Painter) planStroke(i, j, cell, brushSize int) Stroke {
	size := int(float64(brushSize) * p.rnd.Float64() * 2)
	angle := math.Pi * p.rnd.Float64()
	brush := clampInt(int(p.rnd.Float64()*float64(len(p.Brushes))), 0, len(p.Brushes)-1)
	x := int(float64(i*cell) + p.rnd.Float64()*float64(cell))
	y := int(float64(j*cell) + p.rnd.Float64()*float64(cell))
	return Stroke{
		Brush: brush,
		Size:  size,
		Angle: angle,
		X:     x,
		Y:     y,
	}
}

// render builds the stencil for s and fills in its colour. It reads only
// immutable state.
func (p *Painter) render(s *Stroke) *Stencil {
	st := p.Brushes[s.Brush].Transform(s.Size, s.Angle)
	s.Color = p.Canvas.SampleAverageColor(st, s.X, s.Y)
	if len(p.Palette) > 0 {
		s.Color = nearestColor(s.Color, p.Palette)
	}
	return st
}

// apply proposes s, scores the candidate and commits or discards it.
func (p *Painter) apply(s Stroke, st *Stencil) bool {
	p.Canvas.ProposeCandidate(st, s.X, s.Y, s.Color, p.Options.NoiseAmplitude)
	loss := p.candidateLoss()
	if p.Options.AcceptMode == RejectWorse && loss > p.Loss {
		p.Canvas.Discard()
		p.logger().Debug("stroke rejected", "x", s.X, "y", s.Y, "size", s.Size, "loss", loss)
		return false
	}
	p.Canvas.Commit()
	p.Loss = loss
	return true
}

// candidateLoss updates Loss with the change inside the dirty rectangle only.
func (p *Painter) candidateLoss() float64 {
	r := p.Canvas.Dirty()
	if r.Empty() {
		return p.Loss
	}
	before, err := LossRegion(p.Source, p.Canvas.Current(), r)
	if err != nil {
		panic(err)
	}
	after, err := LossRegion(p.Source, p.Canvas.Candidate(), r)
	if err != nil {
		panic(err)
	}
	return p.Loss - before + after
}

func (p *Painter) mustLoss(r *Raster) float64 {
	loss, err := Loss(p.Source, r)
	if err != nil {
		panic(err)
	}
	return loss
}

func nearestColor(c RGB, palette []colorful.Color) RGB {
	cc := c.Colorful()
	best := 0
	bestD := math.MaxFloat64
	for i, pc := range palette {
		if d := cc.DistanceLab(pc); d < bestD {
			bestD = d
			best = i
		}
	}
	return RGBFromColorful(palette[best])
}
