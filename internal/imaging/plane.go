package imaging

import (
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Plane is a dense single-channel float64 field stored row-major.
//
// Pixel (x, y) lives at Pix[y*W+x]. Values are usually 8-bit intensities in
// [0, 255] but may leave that range while a pipeline stage is working; ToGray
// and the NRGBA writers clip on the way out.
type Plane struct {
	W, H int
	Pix  []float64
}

// NewPlane allocates a zeroed plane.
func NewPlane(w, h int) *Plane {
	return &Plane{W: w, H: h, Pix: make([]float64, w*h)}
}

// FilledPlane allocates a plane with every sample set to v.
func FilledPlane(w, h int, v float64) *Plane {
	p := NewPlane(w, h)
	for i := range p.Pix {
		p.Pix[i] = v
	}
	return p
}

// At returns the sample at (x, y).
func (p *Plane) At(x, y int) float64 { return p.Pix[y*p.W+x] }

// Set stores v at (x, y).
func (p *Plane) Set(x, y int, v float64) { p.Pix[y*p.W+x] = v }

// AtClamped returns the sample at (x, y) with coordinates clamped to the
// plane, replicating border pixels for convolution.
func (p *Plane) AtClamped(x, y int) float64 {
	return p.Pix[clamp(y, 0, p.H-1)*p.W+clamp(x, 0, p.W-1)]
}

// Clone returns a deep copy.
func (p *Plane) Clone() *Plane {
	c := &Plane{W: p.W, H: p.H, Pix: make([]float64, len(p.Pix))}
	copy(c.Pix, p.Pix)
	return c
}

// SameSize reports whether both planes share dimensions.
func (p *Plane) SameSize(o *Plane) bool { return p.W == o.W && p.H == o.H }

// Map applies fn to every sample in place and returns p.
func (p *Plane) Map(fn func(v float64) float64) *Plane {
	for i, v := range p.Pix {
		p.Pix[i] = fn(v)
	}
	return p
}

// Clip bounds every sample to [lo, hi] in place and returns p.
func (p *Plane) Clip(lo, hi float64) *Plane {
	return p.Map(func(v float64) float64 { return ClipFloat(v, lo, hi) })
}

// MeanStd returns the mean and standard deviation of all samples.
func (p *Plane) MeanStd() (mean, std float64) {
	if len(p.Pix) == 0 {
		return 0, 0
	}
	return stat.MeanStdDev(p.Pix, nil)
}

// MinMax returns the smallest and largest samples.
func (p *Plane) MinMax() (lo, hi float64) {
	if len(p.Pix) == 0 {
		return 0, 0
	}
	return floats.Min(p.Pix), floats.Max(p.Pix)
}

// Normalize linearly rescales the plane in place so its range spans
// [0, 255]. A constant plane becomes all zeros.
func (p *Plane) Normalize() *Plane {
	lo, hi := p.MinMax()
	span := hi - lo
	if span <= 1e-12 {
		for i := range p.Pix {
			p.Pix[i] = 0
		}
		return p
	}
	for i, v := range p.Pix {
		p.Pix[i] = (v - lo) * 255 / span
	}
	return p
}

// Luma returns the BT.601 luma of an 8-bit RGB triple.
func Luma(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}

// GrayPlane converts img to a luma plane with values in [0, 255].
func GrayPlane(img image.Image) *Plane {
	b := img.Bounds()
	p := NewPlane(b.Dx(), b.Dy())
	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < p.H; y++ {
			row := src.Pix[(y+b.Min.Y-src.Rect.Min.Y)*src.Stride+(b.Min.X-src.Rect.Min.X):]
			for x := 0; x < p.W; x++ {
				p.Pix[y*p.W+x] = float64(row[x])
			}
		}
	case *image.NRGBA:
		for y := 0; y < p.H; y++ {
			off := (y+b.Min.Y-src.Rect.Min.Y)*src.Stride + (b.Min.X-src.Rect.Min.X)*4
			for x := 0; x < p.W; x++ {
				i := off + x*4
				p.Pix[y*p.W+x] = Luma(float64(src.Pix[i]), float64(src.Pix[i+1]), float64(src.Pix[i+2]))
			}
		}
	default:
		for y := 0; y < p.H; y++ {
			for x := 0; x < p.W; x++ {
				r, g, bb, _ := img.At(x+b.Min.X, y+b.Min.Y).RGBA()
				p.Pix[y*p.W+x] = Luma(float64(r>>8), float64(g>>8), float64(bb>>8))
			}
		}
	}
	return p
}

// ChannelPlanes splits img into R, G and B planes with values in [0, 255].
func ChannelPlanes(img image.Image) [3]*Plane {
	n := ToNRGBA(img)
	w, h := n.Rect.Dx(), n.Rect.Dy()
	out := [3]*Plane{NewPlane(w, h), NewPlane(w, h), NewPlane(w, h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*n.Stride + x*4
			for c := 0; c < 3; c++ {
				out[c].Pix[y*w+x] = float64(n.Pix[i+c])
			}
		}
	}
	return out
}

// ToGray rounds and clips the plane into an 8-bit grayscale image.
func (p *Plane) ToGray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, p.W, p.H))
	for y := 0; y < p.H; y++ {
		for x := 0; x < p.W; x++ {
			g.Pix[y*g.Stride+x] = ToUint8(p.Pix[y*p.W+x])
		}
	}
	return g
}

// ToNRGBA replicates the plane into an opaque gray NRGBA image.
func (p *Plane) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, p.W, p.H))
	for y := 0; y < p.H; y++ {
		for x := 0; x < p.W; x++ {
			v := ToUint8(p.Pix[y*p.W+x])
			i := y*out.Stride + x*4
			out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = v, v, v, 255
		}
	}
	return out
}

// MergePlanes interleaves three planes of equal size into an opaque NRGBA image.
func MergePlanes(r, g, b *Plane) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, r.W, r.H))
	for y := 0; y < r.H; y++ {
		for x := 0; x < r.W; x++ {
			k := y*r.W + x
			i := y*out.Stride + x*4
			out.Pix[i] = ToUint8(r.Pix[k])
			out.Pix[i+1] = ToUint8(g.Pix[k])
			out.Pix[i+2] = ToUint8(b.Pix[k])
			out.Pix[i+3] = 255
		}
	}
	return out
}

// ToNRGBA returns img as a tightly packed NRGBA image re-based to the origin.
// The result is always a fresh copy, so callers may mutate it freely.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			start := (y+b.Min.Y-src.Rect.Min.Y)*src.Stride + (b.Min.X-src.Rect.Min.X)*4
			copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()*4], src.Pix[start:start+b.Dx()*4])
		}
		return out
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(x+b.Min.X, y+b.Min.Y)).(color.NRGBA)
			i := y*out.Stride + x*4
			out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = c.R, c.G, c.B, c.A
		}
	}
	return out
}

// ToUint8 rounds v and clips it to [0, 255]. NaN maps to 0.
func ToUint8(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}

// ClipFloat bounds v to [lo, hi].
func ClipFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
