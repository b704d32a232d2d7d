package painter

import (
	"errors"
	"fmt"
	"image"

	"gonum.org/v1/gonum/floats"
)

// ErrDimensionMismatch is returned when two rasters of different sizes are
// compared.
var ErrDimensionMismatch = errors.New("raster dimensions differ")

// Loss returns the sum over all pixels and channels of |a-b|.
func Loss(a, b *Raster) (float64, error) {
	if !a.SameSize(b) {
		return 0, fmt.Errorf("loss: %w: %dx%d vs %dx%d", ErrDimensionMismatch, a.W, a.H, b.W, b.H)
	}
	return floats.Distance(a.Pix, b.Pix, 1), nil
}

// LossRegion is Loss restricted to the pixels of r that lie inside both
// rasters.
func LossRegion(a, b *Raster, r image.Rectangle) (float64, error) {
	if !a.SameSize(b) {
		return 0, fmt.Errorf("loss: %w: %dx%d vs %dx%d", ErrDimensionMismatch, a.W, a.H, b.W, b.H)
	}
	r = r.Intersect(a.Bounds())
	if r.Empty() {
		return 0, nil
	}
	loss := 0.0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		lo := pixOffset(a.W, r.Min.X, y)
		hi := pixOffset(a.W, r.Max.X, y)
		loss += floats.Distance(a.Pix[lo:hi], b.Pix[lo:hi], 1)
	}
	return loss, nil
}
