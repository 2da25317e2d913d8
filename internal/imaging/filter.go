package imaging

import (
	"math"
	"sync"

	"github.com/anthonynsimon/bild/effect"
)

// gaussianKernel1D builds a normalized 1-D kernel of the given odd size. When
// sigma is not positive it is derived from the size the way common toolkits
// do: sigma = 0.3*((size-1)*0.5 - 1) + 0.8.
func gaussianKernel1D(size int, sigma float64) []float64 {
	if size < 1 {
		size = 1
	}
	if size%2 == 0 {
		size++
	}
	if sigma <= 0 {
		sigma = 0.3*((float64(size)-1)*0.5-1) + 0.8
	}
	radius := size / 2
	kern := make([]float64, size)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-0.5 * float64(i*i) / (sigma * sigma))
		kern[i+radius] = v
		sum += v
	}
	for i := range kern {
		kern[i] /= sum
	}
	return kern
}

// GaussianBlur applies a separable Gaussian blur with a size×size kernel.
// Rows are processed in parallel; borders are replicated.
func GaussianBlur(src *Plane, size int, sigma float64) *Plane {
	kern := gaussianKernel1D(size, sigma)
	radius := len(kern) / 2
	w, h := src.W, src.H
	tmp := NewPlane(w, h)
	dst := NewPlane(w, h)

	var wg sync.WaitGroup
	for y := 0; y < h; y++ {
		wg.Add(1)
		go func(y int) {
			defer wg.Done()
			for x := 0; x < w; x++ {
				var s float64
				for k := -radius; k <= radius; k++ {
					s += src.AtClamped(x+k, y) * kern[k+radius]
				}
				tmp.Pix[y*w+x] = s
			}
		}(y)
	}
	wg.Wait()

	for y := 0; y < h; y++ {
		wg.Add(1)
		go func(y int) {
			defer wg.Done()
			for x := 0; x < w; x++ {
				var s float64
				for k := -radius; k <= radius; k++ {
					s += tmp.AtClamped(x, y+k) * kern[k+radius]
				}
				dst.Pix[y*w+x] = s
			}
		}(y)
	}
	wg.Wait()
	return dst
}

// Integral is a summed-area table over a plane and its squares, giving O(1)
// window sums for local statistics.
type Integral struct {
	w, h  int
	sum   []float64
	sumSq []float64
}

// NewIntegral builds the summed-area tables for p.
func NewIntegral(p *Plane) *Integral {
	w, h := p.W, p.H
	in := &Integral{w: w, h: h, sum: make([]float64, (w+1)*(h+1)), sumSq: make([]float64, (w+1)*(h+1))}
	for y := 1; y <= h; y++ {
		var row, rowSq float64
		for x := 1; x <= w; x++ {
			v := p.Pix[(y-1)*w+(x-1)]
			row += v
			rowSq += v * v
			in.sum[y*(w+1)+x] = in.sum[(y-1)*(w+1)+x] + row
			in.sumSq[y*(w+1)+x] = in.sumSq[(y-1)*(w+1)+x] + rowSq
		}
	}
	return in
}

// Window returns the mean and variance of the window centred on (x, y) with
// the given half size, truncated at the plane borders.
func (in *Integral) Window(x, y, half int) (mean, variance float64) {
	x0 := clamp(x-half, 0, in.w-1)
	y0 := clamp(y-half, 0, in.h-1)
	x1 := clamp(x+half, 0, in.w-1) + 1
	y1 := clamp(y+half, 0, in.h-1) + 1
	stride := in.w + 1
	n := float64((x1 - x0) * (y1 - y0))
	s := in.sum[y1*stride+x1] - in.sum[y0*stride+x1] - in.sum[y1*stride+x0] + in.sum[y0*stride+x0]
	sq := in.sumSq[y1*stride+x1] - in.sumSq[y0*stride+x1] - in.sumSq[y1*stride+x0] + in.sumSq[y0*stride+x0]
	mean = s / n
	variance = sq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, variance
}

// LocalStats returns per-pixel local mean and standard deviation planes over a
// square window of the given (odd) size.
func LocalStats(p *Plane, window int) (mean, std *Plane) {
	if window < 1 {
		window = 1
	}
	half := window / 2
	in := NewIntegral(p)
	mean = NewPlane(p.W, p.H)
	std = NewPlane(p.W, p.H)
	for y := 0; y < p.H; y++ {
		for x := 0; x < p.W; x++ {
			m, v := in.Window(x, y, half)
			mean.Pix[y*p.W+x] = m
			std.Pix[y*p.W+x] = math.Sqrt(v)
		}
	}
	return mean, std
}

// Bilateral applies an edge-preserving bilateral filter with a square window
// of diameter d. sigmaColor weights intensity differences on the 8-bit scale
// and sigmaSpace weights pixel distance.
func Bilateral(src *Plane, d int, sigmaColor, sigmaSpace float64) *Plane {
	if d < 1 {
		d = 1
	}
	radius := d / 2
	spatial := make([]float64, (2*radius+1)*(2*radius+1))
	for ky := -radius; ky <= radius; ky++ {
		for kx := -radius; kx <= radius; kx++ {
			spatial[(ky+radius)*(2*radius+1)+kx+radius] = math.Exp(-float64(kx*kx+ky*ky) / (2 * sigmaSpace * sigmaSpace))
		}
	}
	rangeDen := 2 * sigmaColor * sigmaColor

	out := NewPlane(src.W, src.H)
	var wg sync.WaitGroup
	for y := 0; y < src.H; y++ {
		wg.Add(1)
		go func(y int) {
			defer wg.Done()
			for x := 0; x < src.W; x++ {
				c := src.Pix[y*src.W+x]
				var sum, wsum float64
				for ky := -radius; ky <= radius; ky++ {
					for kx := -radius; kx <= radius; kx++ {
						v := src.AtClamped(x+kx, y+ky)
						diff := v - c
						wgt := spatial[(ky+radius)*(2*radius+1)+kx+radius] * math.Exp(-diff*diff/rangeDen)
						sum += v * wgt
						wsum += wgt
					}
				}
				out.Pix[y*src.W+x] = sum / wsum
			}
		}(y)
	}
	wg.Wait()
	return out
}

// MorphClose performs a morphological close (dilate then erode) on a binary
// mask plane using bild's structuring operators.
func MorphClose(mask *Plane, radius float64) *Plane {
	dilated := effect.Dilate(mask.ToGray(), radius)
	closed := effect.Erode(dilated, radius)
	return GrayPlane(closed)
}
