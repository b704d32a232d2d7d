package painter

import (
	"image"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Canvas owns the accepted painting and a scratch candidate buffer.
// Strokes are applied speculatively with ProposeCandidate and only become
// visible in Current after Commit.
type Canvas struct {
	source    *Raster
	current   *Raster
	candidate *Raster
	src       rand.Source
	dirty     image.Rectangle
	pending   bool
}

// NewCanvas returns a white canvas the size of source. src drives the
// per-pixel colour noise.
func NewCanvas(source *Raster, src rand.Source) *Canvas {
	c := &Canvas{
		source:    source,
		current:   NewRaster(source.W, source.H),
		candidate: NewRaster(source.W, source.H),
		src:       src,
	}
	c.current.Fill(RGB{255, 255, 255})
	return c
}

// Fill paints the whole accepted canvas with col and drops any pending
// candidate.
func (c *Canvas) Fill(col RGB) {
	c.current.Fill(col)
	c.pending = false
}

// SampleAverageColor averages the source pixels under the on cells of st
// placed with its top-left corner at (x, y). Cells outside the canvas are
// ignored; with no overlap the result is black.
func (c *Canvas) SampleAverageColor(st *Stencil, x, y int) RGB {
	src := c.source
	var sr, sg, sb, count int
	for j := range st.Size {
		py := y + j
		if py < 0 || py >= src.H {
			continue
		}
		for i := range st.Size {
			px := x + i
			if px < 0 || px >= src.W || !st.At(i, j) {
				continue
			}
			off := pixOffset(src.W, px, py)
			sr += int(src.Pix[off])
			sg += int(src.Pix[off+1])
			sb += int(src.Pix[off+2])
			count++
		}
	}
	if count == 0 {
		return RGB{}
	}
	return RGB{uint8(sr / count), uint8(sg / count), uint8(sb / count)}
}

// ProposeCandidate copies the accepted canvas into the candidate buffer and
// paints st at (x, y) in col. Every painted channel gets independent uniform
// noise in [-noise/2, noise/2) and is clamped to [0,255]. No random values
// are drawn when noise is zero. The accepted canvas is never touched.
func (c *Canvas) ProposeCandidate(st *Stencil, x, y int, col RGB, noise float64) {
	cand := c.candidate
	cand.CopyFrom(c.current)
	c.dirty = image.Rect(x, y, x+st.Size, y+st.Size).Intersect(cand.Bounds())
	c.pending = true
	if c.dirty.Empty() {
		return
	}

	u := distuv.Uniform{Min: -noise / 2, Max: noise / 2, Src: c.src}
	base := [3]float64{float64(col.R), float64(col.G), float64(col.B)}
	for j := range st.Size {
		py := y + j
		if py < 0 || py >= cand.H {
			continue
		}
		for i := range st.Size {
			px := x + i
			if px < 0 || px >= cand.W || !st.At(i, j) {
				continue
			}
			off := pixOffset(cand.W, px, py)
			for ch, v := range base {
				if noise > 0 {
					v += u.Rand()
				}
				cand.Pix[off+ch] = float64(int(clampChannel(v)))
			}
		}
	}
}

// Commit makes the pending candidate the accepted canvas. The buffers are
// swapped, so views returned by Current before the call must not be used
// afterwards. It reports false when there was nothing to commit.
func (c *Canvas) Commit() bool {
	if !c.pending {
		return false
	}
	c.current, c.candidate = c.candidate, c.current
	c.pending = false
	return true
}

// Discard drops the pending candidate.
func (c *Canvas) Discard() {
	c.pending = false
}

// Current is a read-only view of the accepted canvas.
func (c *Canvas) Current() *Raster {
	return c.current
}

// Candidate is a read-only view of the last proposal.
func (c *Canvas) Candidate() *Raster {
	return c.candidate
}

// Dirty bounds the pixels the last proposal may have changed.
func (c *Canvas) Dirty() image.Rectangle {
	return c.dirty
}

// Snapshot returns a copy of the accepted canvas that stays valid across
// commits.
func (c *Canvas) Snapshot() *Raster {
	return c.current.Clone()
}
