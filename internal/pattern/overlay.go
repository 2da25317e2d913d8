package pattern

import (
	"context"
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/segment"

	"github.com/lilseedabe/pozt/internal/imaging"
)

// OverlayModulator reveals the hidden image's silhouette rather than its
// tone: pixels darker than Threshold form a mask, the mask is softened with a
// Gaussian blur, and the carrier is blended toward flat grey by
// mask·Opacity.
type OverlayModulator struct {
	Orientation    Orientation
	Color1, Color2 imaging.RGBColor
	Period         int
	Opacity        float64
	Threshold      uint8
	BlurRadius     float64
	Grey           float64
}

func newOverlay(spec Spec, opacity float64) *OverlayModulator {
	return &OverlayModulator{
		Orientation: spec.Orientation,
		Color1:      spec.Color1,
		Color2:      spec.Color2,
		Period:      spec.period(1),
		Opacity:     opacity,
		Threshold:   100,
		BlurRadius:  float64(spec.BlurRadius),
		Grey:        128,
	}
}

func (m *OverlayModulator) Strategy() Strategy { return Overlay }

// Mask returns the blend weight per pixel in [0, Opacity].
func (m *OverlayModulator) Mask(ctx context.Context, hidden image.Image, w, h int) (*imaging.Plane, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkSize(hidden, w, h); err != nil {
		return nil, err
	}
	// segment.Threshold marks pixels at or above the level; the silhouette is
	// the dark side, so compare against Threshold+1 and invert.
	gray := imaging.GrayPlane(hidden).ToGray()
	level := m.Threshold
	if level < 255 {
		level++
	}
	bright := segment.Threshold(gray, level)
	mask := imaging.GrayPlane(bright).Map(func(v float64) float64 { return 255 - v })

	soft := imaging.GrayPlane(blur.Gaussian(mask.ToGray(), m.BlurRadius))
	return soft.Map(func(v float64) float64 { return v / 255 * m.Opacity }), nil
}

func (m *OverlayModulator) Modulate(ctx context.Context, in Input) (*image.NRGBA, error) {
	mask, err := m.Mask(ctx, in.Hidden, in.W, in.H)
	if err != nil {
		return nil, err
	}
	out := stripeField(in.W, in.H, m.Orientation, m.Period, m.Color1, m.Color2)
	for y := 0; y < in.H; y++ {
		for x := 0; x < in.W; x++ {
			a := mask.Pix[y*in.W+x]
			i := y*out.Stride + x*4
			for c := 0; c < 3; c++ {
				out.Pix[i+c] = imaging.ToUint8(float64(out.Pix[i+c])*(1-a) + m.Grey*a)
			}
		}
	}
	return out, nil
}
