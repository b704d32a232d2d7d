package painter

import (
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/mat"
)

// BrushMask is an immutable binary stencil. Mask is row-major, len = W*H.
type BrushMask struct {
	W, H int
	Mask []bool
}

// NewBrushMask marks every inked pixel of img: opaque and not pure white.
func NewBrushMask(img image.Image) *BrushMask {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	b := &BrushMask{
		W:    w,
		H:    h,
		Mask: make([]bool, w*h),
	}
	for y := range h {
		for x := range w {
			r, g, bl, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			if a < 0x8000 {
				continue
			}
			b.Mask[y*w+x] = r>>8 != 0xff || g>>8 != 0xff || bl>>8 != 0xff
		}
	}
	return b
}

// Density is the fraction of mask pixels that are on.
func (b *BrushMask) Density() float64 {
	if len(b.Mask) == 0 {
		return 0
	}
	on := 0
	for _, v := range b.Mask {
		if v {
			on++
		}
	}
	return float64(on) / float64(len(b.Mask))
}

// Transform returns the mask scaled so its longer side spans size, centred
// in a size×size square and rotated counterclockwise by angle radians.
// The result depends only on the arguments, so concurrent calls are safe.
// A non-positive size yields an empty stencil.
func (b *BrushMask) Transform(size int, angle float64) *Stencil {
	if size <= 0 || b.W == 0 || b.H == 0 {
		return &Stencil{}
	}
	return b.fitSquare(size).rotate(angle)
}

// fitSquare resizes with nearest-neighbour sampling and pads the shorter axis
// equally on both sides.
func (b *BrushMask) fitSquare(size int) *Stencil {
	var scale float64
	var rw, rh int
	if b.W > b.H {
		scale = float64(size) / float64(b.W)
		rw = size
		rh = int(scale * float64(b.H))
	} else {
		scale = float64(size) / float64(b.H)
		rw = int(scale * float64(b.W))
		rh = size
	}

	out := newStencil(size)
	ox := (size - rw) / 2
	oy := (size - rh) / 2
	for j := range rh {
		mj := min(int(float64(j)/scale), b.H-1)
		for i := range rw {
			mi := min(int(float64(i)/scale), b.W-1)
			out.Cells[(oy+j)*size+ox+i] = b.Mask[mj*b.W+mi]
		}
	}
	return out
}

// Stencil is a square binary grid produced by BrushMask.Transform.
// Cells is row-major, len = Size*Size.
type Stencil struct {
	Size  int
	Cells []bool
}

func newStencil(size int) *Stencil {
	return &Stencil{
		Size:  size,
		Cells: make([]bool, size*size),
	}
}

// At reports whether column i, row j is on.
func (s *Stencil) At(i, j int) bool {
	return s.Cells[j*s.Size+i]
}

func (s *Stencil) Count() int {
	n := 0
	for _, v := range s.Cells {
		if v {
			n++
		}
	}
	return n
}

// rotate maps every output cell back into the unrotated square. Offsets from
// the centre go through the inverse rotation in a single matrix product and
// are truncated toward zero before re-centring; cells landing outside the
// square are off.
func (s *Stencil) rotate(angle float64) *Stencil {
	size := s.Size
	center := size / 2
	n := size * size

	offsets := mat.NewDense(n, 2, nil)
	raw := offsets.RawMatrix()
	for j := range size {
		for i := range size {
			row := (j*size + i) * raw.Stride
			raw.Data[row] = float64(i - center)
			raw.Data[row+1] = float64(j - center)
		}
	}

	// cos  sin
	// -sin cos
	sin, cos := math.Sincos(-angle)
	inverse := mat.NewDense(2, 2, []float64{
		cos, sin,
		-sin, cos,
	})
	var orig mat.Dense
	orig.Mul(offsets, inverse.T())
	od := orig.RawMatrix()

	out := newStencil(size)
	for k := range n {
		row := k * od.Stride
		x := int(od.Data[row]) + center
		y := int(od.Data[row+1]) + center
		if x >= 0 && x < size && y >= 0 && y < size {
			out.Cells[k] = s.Cells[y*size+x]
		}
	}
	return out
}

// Image renders on cells white and off cells black.
func (s *Stencil) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, s.Size, s.Size))
	for j := range s.Size {
		for i := range s.Size {
			if s.At(i, j) {
				img.SetGray(i, j, color.Gray{Y: 255})
			}
		}
	}
	return img
}
