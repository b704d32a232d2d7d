package utils

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/setanarut/painter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checker(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			c := color.RGBA{uint8(x * 40), uint8(y * 30), uint8((x + y) % 2 * 255), 255}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestRasterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	src := painter.NewRasterFromImage(checker(5, 4))

	require.NoError(t, SaveRaster(src, path))
	first, err := LoadRaster(path, 0)
	require.NoError(t, err)
	assert.Equal(t, src, first)

	again := filepath.Join(dir, "b.png")
	require.NoError(t, SaveRaster(first, again))
	second, err := LoadRaster(again, 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestReadImageErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadImage(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, ErrDecode)

	corrupt := filepath.Join(dir, "corrupt.png")
	require.NoError(t, os.WriteFile(corrupt, []byte("not an image"), 0o600))
	_, err = ReadImage(corrupt)
	assert.ErrorIs(t, err, ErrDecode)

	_, err = LoadBrushes(corrupt)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestSaveImageError(t *testing.T) {
	err := SaveImage(checker(2, 2), filepath.Join(t.TempDir(), "no", "such", "dir.png"))
	assert.ErrorIs(t, err, ErrEncode)
}

func TestLoadBrushes(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{0, 0, 0, 255})
	img.SetRGBA(1, 0, color.RGBA{255, 255, 255, 255})
	path := filepath.Join(dir, "brush.png")
	require.NoError(t, SaveImage(img, path))

	brushes, err := LoadBrushes(path, path)
	require.NoError(t, err)
	require.Len(t, brushes, 2)
	assert.Equal(t, []bool{true, false}, brushes[0].Mask)
}

func TestDownscale(t *testing.T) {
	img := checker(40, 20)
	assert.Same(t, img, Downscale(img, 0))
	assert.Same(t, img, Downscale(img, 40))

	small := Downscale(img, 10)
	assert.Equal(t, image.Pt(10, 5), small.Bounds().Size())
}

func TestSaveStencil(t *testing.T) {
	dir := t.TempDir()
	st := (&painter.BrushMask{W: 1, H: 1, Mask: []bool{true}}).Transform(6, 0.5)
	path := filepath.Join(dir, "stencil.png")
	require.NoError(t, SaveStencil(st, path))

	img, err := ReadImage(path)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(6, 6), img.Bounds().Size())

	assert.ErrorIs(t, SaveStencil(&painter.Stencil{}, path), ErrEncode)
}

func TestCheckpointPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "grid_08.png"), CheckpointPath("out", 8))
}
