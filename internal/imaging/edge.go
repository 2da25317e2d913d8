package imaging

import (
	"math"
)

// Canny runs Canny-style edge detection on a luma plane and returns a binary
// plane where edge pixels are 255 and everything else is 0.
//
// Thresholds are expressed on the 8-bit intensity scale, so values tuned for
// common toolkits (for example 80/200 for photographs, 50/150 for clean
// artwork) behave as expected.
//
// # Algorithm
//
//  1. Gaussian blur: 5x5 kernel to reduce noise
//
//  2. Gradient computation: Sobel operators for X and Y gradients
//     magnitude = sqrt(Gx² + Gy²)
//     direction = atan2(Gy, Gx)
//
//  3. Non-maximum suppression: keep only local maxima along the gradient
//
//  4. Hysteresis thresholding: pixels above high are always kept, pixels
//     between low and high are kept only next to a strong pixel
func Canny(src *Plane, low, high float64) *Plane {
	width, height := src.W, src.H
	out := NewPlane(width, height)
	if width < 3 || height < 3 {
		return out
	}

	blurred := GaussianBlur5(src)

	magnitude := NewPlane(width, height)
	direction := NewPlane(width, height)

	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := blurred.AtClamped(x+kx, y+ky)
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			magnitude.Pix[y*width+x] = math.Sqrt(gx*gx + gy*gy)
			direction.Pix[y*width+x] = math.Atan2(gy, gx)
		}
	}

	// Non-maximum suppression
	suppressed := NewPlane(width, height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			angle := direction.At(x, y)
			mag := magnitude.At(x, y)

			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1, n2 = magnitude.At(x-1, y), magnitude.At(x+1, y)
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1, n2 = magnitude.At(x+1, y-1), magnitude.At(x-1, y+1)
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1, n2 = magnitude.At(x, y-1), magnitude.At(x, y+1)
			default:
				n1, n2 = magnitude.At(x-1, y-1), magnitude.At(x+1, y+1)
			}

			if mag >= n1 && mag >= n2 {
				suppressed.Set(x, y, mag)
			}
		}
	}

	// Double threshold and edge tracking by hysteresis
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			val := suppressed.At(x, y)
			switch {
			case val >= high:
				out.Set(x, y, 255)
			case val >= low && val > 0:
				strong := false
				for ky := -1; ky <= 1 && !strong; ky++ {
					for kx := -1; kx <= 1 && !strong; kx++ {
						if suppressed.AtClamped(x+kx, y+ky) >= high {
							strong = true
						}
					}
				}
				if strong {
					out.Set(x, y, 255)
				}
			}
		}
	}
	return out
}

// GaussianBlur5 applies the classic 5x5 Gaussian kernel (sigma ≈ 1.4):
//
//	1  4  7  4  1
//	4 16 26 16  4
//	7 26 41 26  7
//	4 16 26 16  4
//	1  4  7  4  1
//
// Total kernel sum = 273. Border pixels are replicated.
func GaussianBlur5(src *Plane) *Plane {
	kernel := [5][5]float64{
		{1, 4, 7, 4, 1},
		{4, 16, 26, 16, 4},
		{7, 26, 41, 26, 7},
		{4, 16, 26, 16, 4},
		{1, 4, 7, 4, 1},
	}
	const kernelSum = 273.0

	out := NewPlane(src.W, src.H)
	for y := 0; y < src.H; y++ {
		for x := 0; x < src.W; x++ {
			var sum float64
			for ky := -2; ky <= 2; ky++ {
				for kx := -2; kx <= 2; kx++ {
					sum += src.AtClamped(x+kx, y+ky) * kernel[ky+2][kx+2]
				}
			}
			out.Pix[y*src.W+x] = sum / kernelSum
		}
	}
	return out
}
