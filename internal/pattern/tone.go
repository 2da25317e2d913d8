package pattern

import (
	"context"
	"image"

	"github.com/lilseedabe/pozt/internal/imaging"
)

// ToneModulator shifts each stripe of a gray carrier by
// Strength·255·(g'-0.5), multiplies the shift by EdgeBoost where the hidden
// image has an edge, and clips to [Min, Max]. It backs both Adaptive and
// HighFrequency, which differ only in their parameters.
type ToneModulator struct {
	Kind           Strategy
	Orientation    Orientation
	Color1, Color2 imaging.RGBColor
	Period         int
	Strength       float64
	Contrast       float64
	EdgeLow        float64
	EdgeHigh       float64
	EdgeBoost      float64
	Levels         [2]float64 // unmodulated dark and light stripe values
	Min, Max       float64
}

func newAdaptive(spec Spec) *ToneModulator {
	return &ToneModulator{
		Kind:        Adaptive,
		Orientation: spec.Orientation,
		Color1:      spec.Color1,
		Color2:      spec.Color2,
		Period:      spec.period(1),
		Strength:    spec.Strength,
		Contrast:    2.0 * spec.ContrastBoost,
		EdgeLow:     80,
		EdgeHigh:    200,
		EdgeBoost:   1.5,
		Levels:      [2]float64{0, 255},
		Min:         0,
		Max:         255,
	}
}

// newHighFrequency uses a 2px carrier held in a narrow mid-grey band: nearly
// flat at native resolution, strongly aliased under 2x downsampling.
func newHighFrequency(spec Spec) *ToneModulator {
	return &ToneModulator{
		Kind:        HighFrequency,
		Orientation: spec.Orientation,
		Color1:      spec.Color1,
		Color2:      spec.Color2,
		Period:      spec.period(2),
		Strength:    spec.Strength,
		Contrast:    2.5 * spec.ContrastBoost,
		EdgeLow:     80,
		EdgeHigh:    150,
		EdgeBoost:   2.0,
		Levels:      [2]float64{110, 146},
		Min:         90,
		Max:         166,
	}
}

// adaptiveStripes is the adaptive carrier used underneath the color strategies.
func adaptiveStripes(spec Spec) *ToneModulator {
	m := newAdaptive(spec)
	m.Color1, m.Color2 = imaging.Black, imaging.White
	return m
}

func (m *ToneModulator) Strategy() Strategy { return m.Kind }

// Plane returns the modulated carrier as gray intensities.
func (m *ToneModulator) Plane(ctx context.Context, in Input) (*imaging.Plane, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := prepare(in.Hidden, in.W, in.H, m.Contrast, m.EdgeLow, m.EdgeHigh)
	if err != nil {
		return nil, err
	}
	out := imaging.NewPlane(in.W, in.H)
	for y := 0; y < in.H; y++ {
		for x := 0; x < in.W; x++ {
			k := y*in.W + x
			adj := (f.contrast.Pix[k] - 0.5) * m.Strength * 255
			if f.edges.Pix[k] > 0.5 {
				adj *= m.EdgeBoost
			}
			level := m.Levels[stripeIndex(x, y, m.Orientation, m.Period)]
			out.Pix[k] = imaging.ClipFloat(level+adj, m.Min, m.Max)
		}
	}
	return out, nil
}

func (m *ToneModulator) Modulate(ctx context.Context, in Input) (*image.NRGBA, error) {
	p, err := m.Plane(ctx, in)
	if err != nil {
		return nil, err
	}
	return ramp(p, m.Color1, m.Color2), nil
}

// PerfectModulator uses a 1px carrier with a wide output band: light stripes
// brighten from Bright with g', dark stripes darken from Dark with 1-g'. It
// trades stealth for extraction fidelity.
type PerfectModulator struct {
	Orientation    Orientation
	Color1, Color2 imaging.RGBColor
	Period         int
	Strength       float64
	Contrast       float64
	EdgeBoost      float64
	EdgeMin        float64
	Dark, Bright   float64
}

func newPerfect(spec Spec) *PerfectModulator {
	return &PerfectModulator{
		Orientation: spec.Orientation,
		Color1:      spec.Color1,
		Color2:      spec.Color2,
		Period:      spec.period(1),
		Strength:    spec.Strength,
		Contrast:    3.0 * spec.ContrastBoost,
		EdgeBoost:   1.2,
		EdgeMin:     0.3,
		Dark:        40,
		Bright:      220,
	}
}

func (m *PerfectModulator) Strategy() Strategy { return Perfect }

// Plane returns the modulated carrier as gray intensities.
func (m *PerfectModulator) Plane(ctx context.Context, in Input) (*imaging.Plane, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := prepare(in.Hidden, in.W, in.H, m.Contrast, 50, 150)
	if err != nil {
		return nil, err
	}
	out := imaging.NewPlane(in.W, in.H)
	for y := 0; y < in.H; y++ {
		for x := 0; x < in.W; x++ {
			k := y*in.W + x
			g := f.contrast.Pix[k]
			boost := 1.0
			if f.edges.Pix[k] > m.EdgeMin {
				boost = m.EdgeBoost
			}
			var v float64
			if stripeIndex(x, y, m.Orientation, m.Period) == 1 {
				v = m.Bright + g*m.Strength*255*boost
			} else {
				v = m.Dark - (1-g)*m.Strength*255*boost
			}
			out.Pix[k] = imaging.ClipFloat(v, 0, 255)
		}
	}
	return out, nil
}

func (m *PerfectModulator) Modulate(ctx context.Context, in Input) (*image.NRGBA, error) {
	p, err := m.Plane(ctx, in)
	if err != nil {
		return nil, err
	}
	return ramp(p, m.Color1, m.Color2), nil
}
