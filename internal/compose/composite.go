package compose

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/lilseedabe/pozt/internal/canvas"
	"github.com/lilseedabe/pozt/internal/imaging"
)

// ErrInvalidBorder is returned for a negative border width.
var ErrInvalidBorder = errors.New("invalid border")

// Border is a solid frame drawn immediately outside the region.
type Border struct {
	Width int              `json:"width"`
	Color imaging.RGBColor `json:"color"`
}

// Options controls Composite. The zero value copies the pattern over the
// whole region with no border.
type Options struct {
	// Border, when non-nil and Width > 0, frames the region.
	Border *Border

	// Mask limits which region pixels take the pattern; it is resized to the
	// region with nearest-neighbour sampling when its size differs. Alpha
	// blends the pattern over the canvas, so 0 keeps the canvas pixel.
	Mask *image.Alpha
}

// Composite returns a copy of dst with pat placed in r. pat is resized with
// bilinear sampling if it does not match the region exactly.
func Composite(dst image.Image, r canvas.Region, pat image.Image, opts Options) (*image.NRGBA, error) {
	if dst == nil || pat == nil {
		return nil, fmt.Errorf("composite: missing image")
	}
	if err := r.Validate(canvas.SizeOf(dst)); err != nil {
		return nil, err
	}
	if opts.Border != nil && opts.Border.Width < 0 {
		return nil, fmt.Errorf("%w: negative width %d", ErrInvalidBorder, opts.Border.Width)
	}

	out := imaging.ToNRGBA(dst)
	if b := pat.Bounds(); b.Dx() != r.W || b.Dy() != r.H {
		pat = imaging.ScaleBilinear(pat, r.W, r.H)
	}
	src := imaging.ToNRGBA(pat)

	if opts.Mask == nil {
		draw.Draw(out, r.Rect(), src, image.Point{}, draw.Src)
	} else {
		alpha := fitMask(opts.Mask, r.W, r.H)
		blend(out, r, src, alpha)
	}

	if opts.Border != nil && opts.Border.Width > 0 {
		drawBorder(out, r, *opts.Border)
	}
	return out, nil
}

// blend writes src over out inside r weighted by alpha.
func blend(out *image.NRGBA, r canvas.Region, src *image.NRGBA, alpha *image.Alpha) {
	for y := 0; y < r.H; y++ {
		for x := 0; x < r.W; x++ {
			a := float64(alpha.Pix[y*alpha.Stride+x]) / 255
			if a == 0 {
				continue
			}
			o := (r.Y+y)*out.Stride + (r.X+x)*4
			s := y*src.Stride + x*4
			for c := 0; c < 3; c++ {
				out.Pix[o+c] = imaging.ToUint8(float64(out.Pix[o+c])*(1-a) + float64(src.Pix[s+c])*a)
			}
		}
	}
}

func fitMask(m *image.Alpha, w, h int) *image.Alpha {
	b := m.Bounds()
	out := image.NewAlpha(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		sy := b.Min.Y + y*b.Dy()/h
		for x := 0; x < w; x++ {
			sx := b.Min.X + x*b.Dx()/w
			out.Pix[y*out.Stride+x] = m.AlphaAt(sx, sy).A
		}
	}
	return out
}

// drawBorder paints a band of b.Width pixels around r, skipping any side
// that lies on the canvas edge. Bands are clipped to the canvas.
func drawBorder(out *image.NRGBA, r canvas.Region, b Border) {
	bounds := out.Bounds()
	fill := image.NewUniform(b.Color.NRGBA())
	w := b.Width
	x0, y0, x1, y1 := r.X, r.Y, r.X+r.W, r.Y+r.H

	var bands []image.Rectangle
	if y0 > 0 {
		bands = append(bands, image.Rect(x0-w, y0-w, x1+w, y0))
	}
	if y1 < bounds.Max.Y {
		bands = append(bands, image.Rect(x0-w, y1, x1+w, y1+w))
	}
	if x0 > 0 {
		bands = append(bands, image.Rect(x0-w, y0, x0, y1))
	}
	if x1 < bounds.Max.X {
		bands = append(bands, image.Rect(x1, y0, x1+w, y1))
	}
	for _, band := range bands {
		draw.Draw(out, band.Intersect(bounds), fill, image.Point{}, draw.Src)
	}
}

// BorderMargin returns the rectangle Composite may touch for r: the region
// grown by the border width and clipped to the canvas.
func BorderMargin(r canvas.Region, width int, bounds canvas.Size) image.Rectangle {
	return r.Rect().Inset(-width).Intersect(image.Rect(0, 0, bounds.W, bounds.H))
}
