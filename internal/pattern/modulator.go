package pattern

import (
	"context"
	"image"
)

// Input carries the per-request images a modulator reads. Hidden must already
// be resized to W×H; Base is the canvas content under the region and is only
// read by strategies for which Strategy.NeedsBase is true.
type Input struct {
	W, H   int
	Hidden image.Image
	Base   image.Image
}

// Modulator is one embedding strategy bound to its parameters.
type Modulator interface {
	Strategy() Strategy
	Modulate(ctx context.Context, in Input) (*image.NRGBA, error)
}

// New builds the modulator for a normalized spec.
func New(spec Spec) (Modulator, error) {
	spec, err := spec.Normalize()
	if err != nil {
		return nil, err
	}
	switch spec.Strategy {
	case Adaptive:
		return newAdaptive(spec), nil
	case HighFrequency:
		return newHighFrequency(spec), nil
	case Perfect:
		return newPerfect(spec), nil
	case Overlay:
		return newOverlay(spec, spec.Opacity), nil
	case ColorPreserving:
		return &colorPreserving{stripes: adaptiveStripes(spec), swing: 0.8}, nil
	case HuePreserving:
		return &huePreserving{stripes: adaptiveStripes(spec)}, nil
	case Blended:
		return &blended{stripes: newAdaptive(spec), opacity: spec.Opacity}, nil
	case Hybrid:
		primary, err := New(Spec{
			Strategy:      spec.Primary,
			Orientation:   spec.Orientation,
			Strength:      spec.Strength,
			Color1:        spec.Color1,
			Color2:        spec.Color2,
			Frequency:     spec.Frequency,
			ContrastBoost: spec.ContrastBoost,
		})
		if err != nil {
			return nil, err
		}
		return &hybrid{primary: primary, overlay: newOverlay(spec, spec.Opacity), ratio: spec.OverlayRatio}, nil
	}
	return nil, ErrUnknownStrategy
}
