package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"

	"github.com/lilseedabe/pozt/internal/canvas"
	img "github.com/lilseedabe/pozt/internal/imaging"
)

// ErrUnknownKind is returned for preview names outside the supported set.
var ErrUnknownKind = errors.New("unknown preview kind")

// ErrInvalidZoom is returned for zoom factors outside 1-32.
var ErrInvalidZoom = errors.New("invalid zoom factor")

// Kind names a viewing simulation.
type Kind string

const (
	// Compression flattens the region toward its average colour, the way an
	// aggressive recompressor erases a 1px carrier.
	Compression Kind = "compression"
	// Display4K sharpens and stretches contrast inside the region.
	Display4K Kind = "display_4k"
	// Zoom magnifies the centre of the region with nearest-neighbour
	// sampling so the stripes alias.
	Zoom Kind = "zoom"
)

// Kinds lists every preview in a stable order.
var Kinds = []Kind{Compression, Display4K, Zoom}

// ParseKind parses a preview name.
func ParseKind(s string) (Kind, error) {
	name := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range Kinds {
		if k == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// DefaultZoomFactor is the magnification of the zoom preview.
const DefaultZoomFactor = 4

// Render simulates kind for the region r of src. Compression and Display4K
// return a copy of src with only the region changed; Zoom returns the
// magnified region centre at the full size of src.
func Render(src image.Image, kind Kind, r canvas.Region, zoomFactor int) (*image.NRGBA, error) {
	if src == nil {
		return nil, fmt.Errorf("preview: missing image")
	}
	if err := r.Validate(canvas.SizeOf(src)); err != nil {
		return nil, err
	}
	base := img.ToNRGBA(src)
	switch kind {
	case Compression:
		return compression(base, r), nil
	case Display4K:
		return display4K(base, r), nil
	case Zoom:
		if zoomFactor == 0 {
			zoomFactor = DefaultZoomFactor
		}
		if zoomFactor < 1 || zoomFactor > 32 {
			return nil, fmt.Errorf("%w: %d outside 1-32", ErrInvalidZoom, zoomFactor)
		}
		return zoom(base, r, zoomFactor), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func compression(base *image.NRGBA, r canvas.Region) *image.NRGBA {
	region := imaging.Crop(base, r.Rect())
	avg, _ := img.MeanColor(region, region.Bounds())

	uniform := pull(region, avg, 0.95)
	tiny := imaging.Resize(uniform, max(1, r.W/100), max(1, r.H/100), imaging.Box)
	blurred := imaging.Resize(tiny, r.W, r.H, imaging.Linear)
	for i := 0; i < 3; i++ {
		blurred = imaging.Blur(blurred, 20)
	}
	return imaging.Paste(base, pull(blurred, avg, 0.9), r.Rect().Min)
}

func display4K(base *image.NRGBA, r canvas.Region) *image.NRGBA {
	region := imaging.Crop(base, r.Rect())
	sharp := img.ToNRGBA(effect.UnsharpMask(region, 0.14, 0.4))
	return imaging.Paste(base, stretch(sharp, 1.3), r.Rect().Min)
}

// zoomKernel is a high-pass kernel that keeps the mean (weights sum to 1).
var zoomKernel = [9]float64{
	-0.25, -0.5, -0.25,
	-0.5, 4.25, -0.5,
	-0.25, -0.5, -0.25,
}

func zoom(base *image.NRGBA, r canvas.Region, factor int) *image.NRGBA {
	zw, zh := max(1, r.W/factor), max(1, r.H/factor)
	cx, cy := r.X+r.W/2, r.Y+r.H/2
	zx, zy := max(0, cx-zw/2), max(0, cy-zh/2)
	crop := imaging.Crop(base, image.Rect(zx, zy, zx+zw, zy+zh))

	hp := imaging.Convolve3x3(crop, zoomKernel, nil)
	bright := imaging.AdjustGamma(stretch(hp, 5), 2)
	b := base.Bounds()
	zoomed := img.ScaleNearest(bright, b.Dx(), b.Dy())
	return img.ToNRGBA(effect.UnsharpMask(zoomed, 0.16, 2.2))
}

// pull moves every pixel toward c by t.
func pull(src *image.NRGBA, c img.RGBColor, t float64) *image.NRGBA {
	target := [3]float64{float64(c.R), float64(c.G), float64(c.B)}
	return imaging.AdjustFunc(src, func(p color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: img.ToUint8(float64(p.R)*(1-t) + target[0]*t),
			G: img.ToUint8(float64(p.G)*(1-t) + target[1]*t),
			B: img.ToUint8(float64(p.B)*(1-t) + target[2]*t),
			A: p.A,
		}
	})
}

// stretch scales each channel's distance from its mean by k.
func stretch(src *image.NRGBA, k float64) *image.NRGBA {
	avg, err := img.MeanColor(src, src.Bounds())
	if err != nil {
		return src
	}
	mean := [3]float64{float64(avg.R), float64(avg.G), float64(avg.B)}
	return imaging.AdjustFunc(src, func(p color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: img.ToUint8((float64(p.R)-mean[0])*k + mean[0]),
			G: img.ToUint8((float64(p.G)-mean[1])*k + mean[1]),
			B: img.ToUint8((float64(p.B)-mean[2])*k + mean[2]),
			A: p.A,
		}
	})
}
