package utils

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"
	"github.com/setanarut/painter"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrDecode wraps failures to read a source or stencil image.
	ErrDecode = errors.New("decode image")
	// ErrEncode wraps failures to write an output image.
	ErrEncode = errors.New("encode image")
)

// ReadImage decodes any registered format (PNG, JPEG, GIF, BMP, TIFF, WebP).
func ReadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	return clone.AsRGBA(img), nil
}

// SaveImage writes img as PNG.
func SaveImage(img image.Image, filename string) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrEncode, cerr)
		}
	}()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEncode, filename, err)
	}
	return nil
}

// LoadRaster reads path into a raster. A positive maxDim first shrinks the
// image so its longer side is at most maxDim pixels.
func LoadRaster(path string, maxDim int) (*painter.Raster, error) {
	img, err := ReadImage(path)
	if err != nil {
		return nil, err
	}
	return painter.NewRasterFromImage(Downscale(img, maxDim)), nil
}

func SaveRaster(r *painter.Raster, filename string) error {
	return SaveImage(r.Image(), filename)
}

// LoadBrushes reads one brush mask per stencil path.
func LoadBrushes(paths ...string) ([]*painter.BrushMask, error) {
	brushes := make([]*painter.BrushMask, 0, len(paths))
	for _, p := range paths {
		img, err := ReadImage(p)
		if err != nil {
			return nil, err
		}
		brushes = append(brushes, painter.NewBrushMask(img))
	}
	return brushes, nil
}

// SaveStencil writes a transformed brush, on cells white.
func SaveStencil(st *painter.Stencil, filename string) error {
	if st.Size == 0 {
		return fmt.Errorf("%w: empty stencil", ErrEncode)
	}
	return SaveImage(st.Image(), filename)
}

// Downscale keeps the aspect ratio. Images already within maxDim, or a
// non-positive maxDim, are returned unchanged.
func Downscale(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || max(w, h) <= maxDim {
		return img
	}
	scale := float64(maxDim) / float64(max(w, h))
	nw := max(1, int(float64(w)*scale))
	nh := max(1, int(float64(h)*scale))
	return transform.Resize(img, nw, nh, transform.Linear)
}

// CheckpointPath names the snapshot written after a grid scale.
func CheckpointPath(dir string, grid int) string {
	return filepath.Join(dir, fmt.Sprintf("grid_%02d.png", grid))
}
