package pattern

import (
	"fmt"
	"image"
	"strings"

	"github.com/lilseedabe/pozt/internal/imaging"
)

// Orientation is the stripe direction.
type Orientation string

const (
	// Horizontal stripes alternate by row.
	Horizontal Orientation = "horizontal"
	// Vertical stripes alternate by column.
	Vertical Orientation = "vertical"
)

// ParseOrientation parses an orientation name; the empty string selects Horizontal.
func ParseOrientation(s string) (Orientation, error) {
	switch Orientation(strings.ToLower(strings.TrimSpace(s))) {
	case "", Horizontal:
		return Horizontal, nil
	case Vertical:
		return Vertical, nil
	}
	return "", fmt.Errorf("%w: unknown orientation %q", ErrInvalidSpec, s)
}

// stripeIndex returns 0 for Color1 (dark) stripes and 1 for Color2 (light)
// stripes at (x, y). period is the stripe width in pixels.
func stripeIndex(x, y int, o Orientation, period int) int {
	pos := y
	if o == Vertical {
		pos = x
	}
	return (pos / period) % 2
}

// StripeBase returns the unmodulated 1-pixel two-tone carrier for a w×h
// region: Color1 on even rows (or columns), Color2 on odd ones.
func StripeBase(w, h int, o Orientation, c1, c2 imaging.RGBColor) *image.NRGBA {
	return stripeField(w, h, o, 1, c1, c2)
}

func stripeField(w, h int, o Orientation, period int, c1, c2 imaging.RGBColor) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	colors := [2]imaging.RGBColor{c1, c2}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := colors[stripeIndex(x, y, o, period)]
			i := y*out.Stride + x*4
			out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = c.R, c.G, c.B, 255
		}
	}
	return out
}

// ramp maps an intensity plane onto the carrier colors: 0 maps to c1, 255 to
// c2, linearly per channel. With the default black/white pair it is the
// identity on gray.
func ramp(p *imaging.Plane, c1, c2 imaging.RGBColor) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, p.W, p.H))
	lo := [3]float64{float64(c1.R), float64(c1.G), float64(c1.B)}
	hi := [3]float64{float64(c2.R), float64(c2.G), float64(c2.B)}
	for y := 0; y < p.H; y++ {
		for x := 0; x < p.W; x++ {
			t := imaging.ClipFloat(p.Pix[y*p.W+x], 0, 255) / 255
			i := y*out.Stride + x*4
			for c := 0; c < 3; c++ {
				out.Pix[i+c] = imaging.ToUint8(lo[c] + (hi[c]-lo[c])*t)
			}
			out.Pix[i+3] = 255
		}
	}
	return out
}
