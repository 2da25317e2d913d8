package imaging

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/stat"
)

// NCC returns the Pearson normalized cross-correlation of two equally sized
// planes, in [-1, 1]. A constant plane has no defined correlation and yields 0.
func NCC(a, b *Plane) (float64, error) {
	if !a.SameSize(b) {
		return 0, fmt.Errorf("plane size mismatch: %dx%d vs %dx%d", a.W, a.H, b.W, b.H)
	}
	if len(a.Pix) < 2 {
		return 0, nil
	}
	c := stat.Correlation(a.Pix, b.Pix, nil)
	if math.IsNaN(c) {
		return 0, nil
	}
	return c, nil
}

// DiffResult summarizes the pixel differences between two images.
type DiffResult struct {
	// PixelsDifferent counts pixels where any channel differs.
	PixelsDifferent int `json:"pixels_different"`

	// TotalPixels is the number of compared pixels.
	TotalPixels int `json:"total_pixels"`

	// MaxChannelDiff is the largest absolute per-channel difference.
	MaxChannelDiff int `json:"max_channel_diff"`

	// Bounds is the smallest rectangle containing every differing pixel.
	// It is empty when the images are identical.
	Bounds image.Rectangle `json:"-"`
}

// Diff compares two images of equal size pixel by pixel.
func Diff(a, b image.Image) (*DiffResult, error) {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return nil, fmt.Errorf("image size mismatch: %dx%d vs %dx%d", ab.Dx(), ab.Dy(), bb.Dx(), bb.Dy())
	}
	na, nb := ToNRGBA(a), ToNRGBA(b)
	res := &DiffResult{TotalPixels: ab.Dx() * ab.Dy()}
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			i := y*na.Stride + x*4
			changed := false
			for c := 0; c < 3; c++ {
				d := absDiff(na.Pix[i+c], nb.Pix[i+c])
				if d > 0 {
					changed = true
				}
				if d > res.MaxChannelDiff {
					res.MaxChannelDiff = d
				}
			}
			if changed {
				res.PixelsDifferent++
				res.Bounds = res.Bounds.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return res, nil
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
