package utils

import (
	"errors"
	"fmt"
	"image"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// ErrEmptyPalette is returned when no colours could be extracted.
var ErrEmptyPalette = errors.New("empty palette")

type PaletteMethod int

const (
	PaletteMethodDominantColor PaletteMethod = iota
	PaletteMethodKMeans
)

func (m PaletteMethod) String() string {
	switch m {
	case PaletteMethodKMeans:
		return "kmeans"
	default:
		return "dominantcolor"
	}
}

func (m *PaletteMethod) Set(s string) error {
	switch s {
	case "dominantcolor", "":
		*m = PaletteMethodDominantColor
	case "kmeans":
		*m = PaletteMethodKMeans
	default:
		return fmt.Errorf("unknown palette method %q (want dominantcolor or kmeans)", s)
	}
	return nil
}

func (m *PaletteMethod) Type() string { return "method" }

func (m PaletteMethod) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *PaletteMethod) UnmarshalText(b []byte) error { return m.Set(string(b)) }

type weightedColor struct {
	col    colorful.Color
	weight float64
}

// ExtractPalette returns up to k colours of img that stroke colours can be
// snapped to. kmeans falls back to dominantcolor when clustering fails.
func ExtractPalette(img image.Image, k int, method PaletteMethod) ([]colorful.Color, error) {
	if k <= 0 {
		return nil, nil
	}
	var cands []weightedColor
	if method == PaletteMethodKMeans {
		cands = kmeansCandidates(img, k)
	}
	if len(cands) == 0 {
		cands = dominantCandidates(img, k)
	}
	palette := selectDiverse(cands, k)
	if len(palette) == 0 {
		return nil, ErrEmptyPalette
	}
	SortPaletteByBrightness(palette)
	return palette, nil
}

// SortPaletteByBrightness orders colours from darkest to brightest by
// relative luminance.
func SortPaletteByBrightness(palette []colorful.Color) {
	slices.SortFunc(palette, func(a, b colorful.Color) int {
		ya := luminance(a)
		yb := luminance(b)
		switch {
		case ya < yb:
			return -1
		case ya > yb:
			return 1
		}
		return 0
	})
}

func luminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

func dominantCandidates(img image.Image, k int) []weightedColor {
	found := dominantcolor.FindWeight(img, max(24, k*8))
	out := make([]weightedColor, 0, len(found))
	for _, c := range found {
		col, _ := colorful.MakeColor(c.RGBA)
		out = append(out, weightedColor{col: col.Clamped(), weight: max(c.Weight, 1e-6)})
	}
	return out
}

func kmeansCandidates(img image.Image, k int) []weightedColor {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return nil
	}

	// Subsample so clustering stays cheap on large sources.
	const maxSamples = 12000
	step := 1
	if n > maxSamples {
		step = int(math.Sqrt(float64(n)/maxSamples)) + 1
	}
	dataset := make(clusters.Observations, 0, min(n, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r, g, bl, _ := img.At(x, y).RGBA()
			dataset = append(dataset, clusters.Coordinates{
				float64(r) / 65535.0,
				float64(g) / 65535.0,
				float64(bl) / 65535.0,
			})
		}
	}

	parts, err := kmeans.New().Partition(dataset, min(max(k*4, k+2), len(dataset)))
	if err != nil {
		return nil
	}
	out := make([]weightedColor, 0, len(parts))
	for _, c := range parts {
		if len(c.Center) < 3 || len(c.Observations) == 0 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped()
		out = append(out, weightedColor{col: col, weight: float64(len(c.Observations))})
	}
	return out
}

// selectDiverse seeds with the heaviest candidate, then greedily adds the one
// farthest (in Lab) from everything chosen, favouring heavy candidates.
func selectDiverse(cands []weightedColor, k int) []colorful.Color {
	if len(cands) == 0 {
		return nil
	}
	k = min(k, len(cands))
	maxW := 0.0
	seed := 0
	for i, c := range cands {
		if c.weight > maxW {
			maxW = c.weight
			seed = i
		}
	}

	chosen := []int{seed}
	taken := make([]bool, len(cands))
	taken[seed] = true
	for len(chosen) < k {
		best, bestScore := -1, -1.0
		for i, c := range cands {
			if taken[i] {
				continue
			}
			nearest := math.MaxFloat64
			for _, s := range chosen {
				nearest = min(nearest, c.col.DistanceLab(cands[s].col))
			}
			score := nearest * (0.55 + 0.45*math.Sqrt(c.weight/maxW))
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			break
		}
		taken[best] = true
		chosen = append(chosen, best)
	}

	out := make([]colorful.Color, len(chosen))
	for i, idx := range chosen {
		out[i] = cands[idx].col
	}
	return out
}
