package canvas

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Fit places img on a new canvas of size dst using method m and returns the
// canvas together with the transform that describes the placement.
//
// Contain letterboxes with opaque black, Cover crops the overflow
// symmetrically and Stretch scales each axis independently. The input is never
// modified. Resampling uses a Lanczos filter; a source that already has the
// canvas size is copied unchanged.
func Fit(img image.Image, dst Size, m Method) (*image.NRGBA, Transform, error) {
	src := SizeOf(img)
	l, err := planLayout(src, dst, m)
	if err != nil {
		return nil, Transform{}, err
	}
	t := l.transform(src, dst, m)

	var scaled *image.NRGBA
	if l.scaled == src {
		scaled = imaging.Clone(img)
	} else {
		scaled = imaging.Resize(img, l.scaled.W, l.scaled.H, imaging.Lanczos)
	}

	canvas := imaging.New(dst.W, dst.H, color.NRGBA{0, 0, 0, 255})
	canvas = imaging.Paste(canvas, scaled, image.Pt(l.originX, l.originY))
	return canvas, t, nil
}
