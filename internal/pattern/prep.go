package pattern

import (
	"fmt"
	"image"

	"github.com/lilseedabe/pozt/internal/imaging"
)

// features is the shared preprocessing of a hidden payload: the
// contrast-stretched luma g' in [0, 1] and a binary edge map (0 or 1).
type features struct {
	w, h     int
	contrast *imaging.Plane
	edges    *imaging.Plane
}

// prepare grayscales hidden, stretches it by g' = clip((g-0.5)*k + 0.5, 0, 1)
// and runs Canny on the stretched image with the given 8-bit thresholds.
func prepare(hidden image.Image, w, h int, k, low, high float64) (*features, error) {
	if err := checkSize(hidden, w, h); err != nil {
		return nil, err
	}
	gray := imaging.GrayPlane(hidden)
	contrast := gray.Map(func(v float64) float64 {
		return imaging.ClipFloat((v/255-0.5)*k+0.5, 0, 1)
	})

	scaled := contrast.Clone().Map(func(v float64) float64 { return v * 255 })
	edges := imaging.Canny(scaled, low, high).Map(func(v float64) float64 { return v / 255 })
	return &features{w: w, h: h, contrast: contrast, edges: edges}, nil
}

// checkSize reports ErrShapeMismatch when img is not exactly w×h.
func checkSize(img image.Image, w, h int) error {
	if img == nil {
		return fmt.Errorf("%w: missing image", ErrShapeMismatch)
	}
	b := img.Bounds()
	if b.Dx() != w || b.Dy() != h {
		return fmt.Errorf("%w: image is %dx%d, region is %dx%d", ErrShapeMismatch, b.Dx(), b.Dy(), w, h)
	}
	return nil
}
