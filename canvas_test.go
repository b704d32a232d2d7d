package painter

import (
	"image"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

func solidStencil(size int) *Stencil {
	return fullMask(1, 1).Transform(size, 0)
}

func TestNewCanvasIsWhite(t *testing.T) {
	c := NewCanvas(quadSource(), seeded(1))
	for y := range 2 {
		for x := range 2 {
			assert.Equal(t, RGB{255, 255, 255}, c.Current().At(x, y))
		}
	}
}

func TestSampleAverageColor(t *testing.T) {
	c := NewCanvas(quadSource(), seeded(1))
	empty := &Stencil{Size: 3, Cells: make([]bool, 9)}
	full := solidStencil(2)

	tests := []struct {
		name string
		st   *Stencil
		x, y int
		want RGB
	}{
		{"empty stencil", empty, 0, 0, RGB{}},
		{"empty stencil offset", empty, -1, 1, RGB{}},
		{"whole source", full, 0, 0, RGB{127, 127, 127}},
		{"corner overlap", full, 1, 1, RGB{255, 255, 255}},
		{"left edge", full, -1, 0, RGB{127, 0, 127}},
		{"no overlap", full, 5, 5, RGB{}},
		{"zero size", &Stencil{}, 0, 0, RGB{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.SampleAverageColor(tc.st, tc.x, tc.y))
		})
	}
}

func TestProposeLeavesCurrentUntouched(t *testing.T) {
	c := NewCanvas(quadSource(), seeded(1))
	c.Fill(RGB{10, 20, 30})
	before := c.Snapshot()

	c.ProposeCandidate(solidStencil(2), 0, 0, RGB{200, 100, 50}, 20)
	assert.Equal(t, before.Pix, c.Current().Pix)
	assert.NotEqual(t, before.Pix, c.Candidate().Pix)

	c.Discard()
	assert.Equal(t, before.Pix, c.Current().Pix)
	assert.False(t, c.Commit())
}

func TestCommitAdoptsCandidate(t *testing.T) {
	c := NewCanvas(quadSource(), seeded(1))
	c.Fill(RGB{10, 20, 30})
	c.ProposeCandidate(solidStencil(1), 1, 0, RGB{200, 100, 50}, 20)
	want := c.Candidate().Clone()

	require.True(t, c.Commit())
	assert.Equal(t, want, c.Current())
	assert.Equal(t, RGB{10, 20, 30}, c.Current().At(0, 0))
	assert.False(t, c.Commit(), "a candidate commits once")
}

func TestProposeStartsFromCurrent(t *testing.T) {
	c := NewCanvas(quadSource(), seeded(1))
	c.ProposeCandidate(solidStencil(1), 0, 0, RGB{1, 1, 1}, 0)
	require.True(t, c.Commit())
	c.ProposeCandidate(solidStencil(1), 1, 1, RGB{2, 2, 2}, 0)
	require.True(t, c.Commit())

	cur := c.Current()
	assert.Equal(t, RGB{1, 1, 1}, cur.At(0, 0))
	assert.Equal(t, RGB{255, 255, 255}, cur.At(1, 0))
	assert.Equal(t, RGB{2, 2, 2}, cur.At(1, 1))
}

func TestZeroSizeStrokeIsNoOp(t *testing.T) {
	c := NewCanvas(quadSource(), seeded(1))
	c.Fill(RGB{127, 127, 127})
	before := c.Snapshot()

	c.ProposeCandidate(fullMask(2, 2).Transform(0, 1.2), 1, 1, RGB{255, 0, 0}, 20)
	assert.True(t, c.Dirty().Empty())
	c.Commit()
	assert.Equal(t, before.Pix, c.Current().Pix)
}

func TestNoiselessProposalIsDeterministic(t *testing.T) {
	st := fullMask(3, 2).Transform(2, 0.4)
	a := NewCanvas(quadSource(), seeded(1))
	b := NewCanvas(quadSource(), seeded(99))
	for _, c := range []*Canvas{a, b} {
		c.Fill(RGB{127, 127, 127})
		c.ProposeCandidate(st, 0, 0, RGB{40, 50, 60}, 0)
	}
	assert.Equal(t, a.Candidate(), b.Candidate())
	for j := range st.Size {
		for i := range st.Size {
			if st.At(i, j) {
				assert.Equal(t, RGB{40, 50, 60}, a.Candidate().At(i, j))
			}
		}
	}
}

func TestNoiseRange(t *testing.T) {
	src := NewRaster(16, 16)
	c := NewCanvas(src, seeded(7))
	c.ProposeCandidate(solidStencil(16), 0, 0, RGB{100, 250, 3}, 20)

	cand := c.Candidate()
	varied := false
	for y := range 16 {
		for x := range 16 {
			px := cand.At(x, y)
			assert.GreaterOrEqual(t, px.R, uint8(90))
			assert.Less(t, px.R, uint8(110))
			assert.GreaterOrEqual(t, px.G, uint8(240))
			assert.LessOrEqual(t, px.B, uint8(12))
			if px.R != 100 {
				varied = true
			}
		}
	}
	assert.True(t, varied)
}

func TestDirtyIsClipped(t *testing.T) {
	c := NewCanvas(quadSource(), seeded(1))
	c.ProposeCandidate(solidStencil(3), -1, -1, RGB{}, 0)
	assert.Equal(t, image.Rect(0, 0, 2, 2), c.Dirty())

	c.ProposeCandidate(solidStencil(3), 4, 4, RGB{}, 0)
	assert.True(t, c.Dirty().Empty())
}

func TestFillDropsPendingCandidate(t *testing.T) {
	c := NewCanvas(quadSource(), seeded(1))
	c.ProposeCandidate(solidStencil(2), 0, 0, RGB{}, 0)
	c.Fill(RGB{5, 5, 5})
	assert.False(t, c.Commit())
	assert.Equal(t, RGB{5, 5, 5}, c.Current().At(1, 1))
}
