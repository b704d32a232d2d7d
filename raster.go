package painter

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is an opaque 8-bit colour.
type RGB struct {
	R, G, B uint8
}

func (c RGB) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

func (c RGB) Hex() string {
	return c.Colorful().Hex()
}

// RGBFromColorful converts a colorful colour, clamping it to the sRGB gamut.
func RGBFromColorful(c colorful.Color) RGB {
	r, g, b := c.Clamped().RGB255()
	return RGB{r, g, b}
}

// Raster is a W×H grid of RGB pixels. Pix holds interleaved channels with
// integral values in [0,255], len = W*H*3.
type Raster struct {
	W, H int
	Pix  []float64
}

func NewRaster(w, h int) *Raster {
	w = max(w, 0)
	h = max(h, 0)
	return &Raster{
		W:   w,
		H:   h,
		Pix: make([]float64, w*h*3),
	}
}

// NewRasterFromImage copies img into a raster, dropping alpha.
func NewRasterFromImage(img image.Image) *Raster {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	r := NewRaster(w, h)
	for y := range h {
		for x := range w {
			cr, cg, cb, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			off := pixOffset(w, x, y)
			r.Pix[off] = float64(cr >> 8)
			r.Pix[off+1] = float64(cg >> 8)
			r.Pix[off+2] = float64(cb >> 8)
		}
	}
	return r
}

func (r *Raster) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.W, r.H)
}

func (r *Raster) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < r.W && y < r.H
}

func (r *Raster) At(x, y int) RGB {
	off := pixOffset(r.W, x, y)
	return RGB{uint8(r.Pix[off]), uint8(r.Pix[off+1]), uint8(r.Pix[off+2])}
}

func (r *Raster) Set(x, y int, c RGB) {
	off := pixOffset(r.W, x, y)
	r.Pix[off] = float64(c.R)
	r.Pix[off+1] = float64(c.G)
	r.Pix[off+2] = float64(c.B)
}

func (r *Raster) Fill(c RGB) {
	for off := 0; off < len(r.Pix); off += 3 {
		r.Pix[off] = float64(c.R)
		r.Pix[off+1] = float64(c.G)
		r.Pix[off+2] = float64(c.B)
	}
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	c := &Raster{W: r.W, H: r.H, Pix: make([]float64, len(r.Pix))}
	copy(c.Pix, r.Pix)
	return c
}

// CopyFrom overwrites r with src. Both rasters must have the same size.
func (r *Raster) CopyFrom(src *Raster) {
	copy(r.Pix, src.Pix)
}

func (r *Raster) SameSize(o *Raster) bool {
	return r.W == o.W && r.H == o.H
}

// Average returns the per-channel mean over every pixel, using integer
// division.
func (r *Raster) Average() RGB {
	n := r.W * r.H
	if n == 0 {
		return RGB{}
	}
	var sr, sg, sb int
	for off := 0; off < len(r.Pix); off += 3 {
		sr += int(r.Pix[off])
		sg += int(r.Pix[off+1])
		sb += int(r.Pix[off+2])
	}
	return RGB{uint8(sr / n), uint8(sg / n), uint8(sb / n)}
}

func (r *Raster) Image() *image.RGBA {
	img := image.NewRGBA(r.Bounds())
	for y := range r.H {
		for x := range r.W {
			c := r.At(x, y)
			img.SetRGBA(x, y, color.RGBA{c.R, c.G, c.B, 255})
		}
	}
	return img
}

func pixOffset(w, x, y int) int {
	return (y*w + x) * 3
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampChannel(v float64) float64 {
	return max(0, min(255, v))
}
