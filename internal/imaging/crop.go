package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Crop extracts r from img as a new NRGBA image re-based to the origin.
//
// Unlike imaging.Crop, which silently intersects with the bounds, Crop rejects
// rectangles that are empty or reach outside the image: a region that does not
// fit is a caller error, not something to trim quietly.
func Crop(img image.Image, r image.Rectangle) (*image.NRGBA, error) {
	bounds := img.Bounds()
	if r.Empty() {
		return nil, fmt.Errorf("invalid crop region %v: width and height must be positive", r)
	}
	if !r.In(bounds) {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", r, bounds)
	}
	return imaging.Crop(img, r), nil
}

// CropPlane copies r out of p. The rectangle must lie inside the plane.
func CropPlane(p *Plane, r image.Rectangle) (*Plane, error) {
	if r.Empty() || !r.In(image.Rect(0, 0, p.W, p.H)) {
		return nil, fmt.Errorf("crop region %v outside plane %dx%d", r, p.W, p.H)
	}
	out := NewPlane(r.Dx(), r.Dy())
	for y := 0; y < out.H; y++ {
		copy(out.Pix[y*out.W:(y+1)*out.W], p.Pix[(y+r.Min.Y)*p.W+r.Min.X:(y+r.Min.Y)*p.W+r.Max.X])
	}
	return out, nil
}

// Resize scales img to exactly w×h with a linear filter. When the size already
// matches, a copy is returned so callers never alias their input.
func Resize(img image.Image, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, w, h, imaging.Linear)
}

// ResizePlane scales p to w×h using bilinear interpolation.
func ResizePlane(p *Plane, w, h int) *Plane {
	if p.W == w && p.H == h {
		return p.Clone()
	}
	out := NewPlane(w, h)
	sx := float64(p.W) / float64(w)
	sy := float64(p.H) / float64(h)
	for y := 0; y < h; y++ {
		fy := (float64(y)+0.5)*sy - 0.5
		y0 := int(fy)
		if fy < 0 {
			y0, fy = 0, 0
		}
		dy := fy - float64(y0)
		for x := 0; x < w; x++ {
			fx := (float64(x)+0.5)*sx - 0.5
			x0 := int(fx)
			if fx < 0 {
				x0, fx = 0, 0
			}
			dx := fx - float64(x0)
			top := p.AtClamped(x0, y0)*(1-dx) + p.AtClamped(x0+1, y0)*dx
			bot := p.AtClamped(x0, y0+1)*(1-dx) + p.AtClamped(x0+1, y0+1)*dx
			out.Pix[y*w+x] = top*(1-dy) + bot*dy
		}
	}
	return out
}

// ScaleNearest resizes img with nearest-neighbour sampling through x/image/draw,
// keeping hard pixel edges (used to visualize individual stripes).
func ScaleNearest(img image.Image, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// ScaleBilinear resizes img with x/image/draw's bilinear kernel.
func ScaleBilinear(img image.Image, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
