package pattern

import (
	"context"
	"image"

	"github.com/lilseedabe/pozt/internal/imaging"
)

// The color strategies keep the base image's colors under the region and
// carry the hidden payload only in the adaptive stripe luminance.

// colorPreserving swings each channel around the region's mean color. The
// swing is capped by the distance to the nearer channel limit so the mean
// color survives clipping.
type colorPreserving struct {
	stripes *ToneModulator
	swing   float64
}

func (m *colorPreserving) Strategy() Strategy { return ColorPreserving }

func (m *colorPreserving) Modulate(ctx context.Context, in Input) (*image.NRGBA, error) {
	if err := checkSize(in.Base, in.W, in.H); err != nil {
		return nil, err
	}
	stripes, err := m.stripes.Plane(ctx, in)
	if err != nil {
		return nil, err
	}
	avg, err := imaging.MeanColor(in.Base, in.Base.Bounds())
	if err != nil {
		return nil, err
	}
	mean := [3]float64{float64(avg.R), float64(avg.G), float64(avg.B)}
	var room [3]float64
	for c := range mean {
		room[c] = min(mean[c], 255-mean[c]) * m.swing
	}

	out := image.NewNRGBA(image.Rect(0, 0, in.W, in.H))
	for y := 0; y < in.H; y++ {
		for x := 0; x < in.W; x++ {
			t := (stripes.Pix[y*in.W+x] - 127.5) / 127.5
			i := y*out.Stride + x*4
			for c := 0; c < 3; c++ {
				out.Pix[i+c] = imaging.ToUint8(mean[c] + t*room[c])
			}
			out.Pix[i+3] = 255
		}
	}
	return out, nil
}

// huePreserving keeps hue and saturation of every base pixel and replaces
// its value with the stripe intensity.
type huePreserving struct {
	stripes *ToneModulator
}

func (m *huePreserving) Strategy() Strategy { return HuePreserving }

func (m *huePreserving) Modulate(ctx context.Context, in Input) (*image.NRGBA, error) {
	if err := checkSize(in.Base, in.W, in.H); err != nil {
		return nil, err
	}
	stripes, err := m.stripes.Plane(ctx, in)
	if err != nil {
		return nil, err
	}
	base := imaging.ToNRGBA(in.Base)
	out := image.NewNRGBA(image.Rect(0, 0, in.W, in.H))
	for y := 0; y < in.H; y++ {
		for x := 0; x < in.W; x++ {
			i := y*base.Stride + x*4
			h, s, _ := imaging.RGBColor{R: base.Pix[i], G: base.Pix[i+1], B: base.Pix[i+2]}.HSV()
			c := imaging.FromHSV(h, s, stripes.Pix[y*in.W+x]/255)
			o := y*out.Stride + x*4
			out.Pix[o], out.Pix[o+1], out.Pix[o+2], out.Pix[o+3] = c.R, c.G, c.B, 255
		}
	}
	return out, nil
}

// blended alpha-blends the adaptive carrier over the base region.
type blended struct {
	stripes *ToneModulator
	opacity float64
}

func (m *blended) Strategy() Strategy { return Blended }

func (m *blended) Modulate(ctx context.Context, in Input) (*image.NRGBA, error) {
	if err := checkSize(in.Base, in.W, in.H); err != nil {
		return nil, err
	}
	pat, err := m.stripes.Modulate(ctx, in)
	if err != nil {
		return nil, err
	}
	return mix(imaging.ToNRGBA(in.Base), pat, m.opacity), nil
}

// mix returns a·(1-t) + b·t per channel. Both images must share bounds
// starting at the origin.
func mix(a, b *image.NRGBA, t float64) *image.NRGBA {
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			ia, ib, o := y*a.Stride+x*4, y*b.Stride+x*4, y*out.Stride+x*4
			for c := 0; c < 3; c++ {
				out.Pix[o+c] = imaging.ToUint8(float64(a.Pix[ia+c])*(1-t) + float64(b.Pix[ib+c])*t)
			}
			out.Pix[o+3] = 255
		}
	}
	return out
}
