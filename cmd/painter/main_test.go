package main

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/setanarut/painter/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtures writes a 1×1 ink brush and a small two-tone source into a temp dir.
func fixtures(t *testing.T) (brush, source, dir string) {
	t.Helper()
	dir = t.TempDir()

	b := image.NewRGBA(image.Rect(0, 0, 1, 1))
	b.SetRGBA(0, 0, color.RGBA{0, 0, 0, 255})
	brush = filepath.Join(dir, "brush.png")
	require.NoError(t, utils.SaveImage(b, brush))

	s := image.NewRGBA(image.Rect(0, 0, 12, 8))
	for y := range 8 {
		for x := range 12 {
			c := color.RGBA{200, 40, 40, 255}
			if x >= 6 {
				c = color.RGBA{30, 60, 220, 255}
			}
			s.SetRGBA(x, y, c)
		}
	}
	source = filepath.Join(dir, "source.png")
	require.NoError(t, utils.SaveImage(s, source))
	return brush, source, dir
}

func TestRun(t *testing.T) {
	brush, source, dir := fixtures(t)
	out := filepath.Join(dir, "out.png")

	cfg := DefaultConfig()
	cfg.Seed = 1
	cfg.CheckpointDir = filepath.Join(dir, "checkpoints")
	require.NoError(t, run(context.Background(), cfg, []string{brush}, source, out))

	img, err := utils.ReadImage(out)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(12, 8), img.Bounds().Size())
	assert.FileExists(t, utils.CheckpointPath(cfg.CheckpointDir, 1))
}

func TestRunMissingInputs(t *testing.T) {
	brush, source, dir := fixtures(t)
	out := filepath.Join(dir, "out.png")
	cfg := DefaultConfig()

	err := run(context.Background(), cfg, []string{filepath.Join(dir, "nope.png")}, source, out)
	assert.ErrorIs(t, err, utils.ErrDecode)

	err = run(context.Background(), cfg, []string{brush}, filepath.Join(dir, "nope.png"), out)
	assert.ErrorIs(t, err, utils.ErrDecode)
	assert.NoFileExists(t, out)
}

func TestRunUnwritableOutput(t *testing.T) {
	brush, source, dir := fixtures(t)
	cfg := DefaultConfig()
	cfg.Seed = 3
	err := run(context.Background(), cfg, []string{brush}, source, filepath.Join(dir, "missing", "out.png"))
	assert.ErrorIs(t, err, utils.ErrEncode)
}

func TestRunCancelledWritesPartial(t *testing.T) {
	brush, source, dir := fixtures(t)
	out := filepath.Join(dir, "out.png")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := run(ctx, DefaultConfig(), []string{brush}, source, out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.FileExists(t, out)
}

func TestRootCommand(t *testing.T) {
	brush, source, dir := fixtures(t)
	out := filepath.Join(dir, "out.png")
	cfgPath := filepath.Join(dir, "painter.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("seed = 4\n[painter]\nmax_passes = 1\n"), 0o600))

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", cfgPath, "--accept", "reject-worse", brush, brush, source, out})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.FileExists(t, out)

	cmd = newRootCmd()
	cmd.SetArgs([]string{source, out})
	assert.Error(t, cmd.Execute())
}
