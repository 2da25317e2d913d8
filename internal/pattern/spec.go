package pattern

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lilseedabe/pozt/internal/imaging"
)

var (
	// ErrUnknownStrategy is returned for strategy names outside the closed set.
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrInvalidSpec is returned when a parameter is out of range.
	ErrInvalidSpec = errors.New("invalid pattern spec")

	// ErrShapeMismatch reports that a strategy's inputs or output do not match
	// the target region. Apply recovers from it by falling back to Overlay.
	ErrShapeMismatch = errors.New("pattern shape mismatch")
)

// Strategy names an embedding algorithm.
type Strategy string

const (
	Adaptive        Strategy = "adaptive"
	HighFrequency   Strategy = "high_frequency"
	Perfect         Strategy = "perfect"
	Overlay         Strategy = "overlay"
	ColorPreserving Strategy = "color_preserving"
	HuePreserving   Strategy = "hue_preserving"
	Blended         Strategy = "blended"
	Hybrid          Strategy = "hybrid"
)

// Strategies lists every strategy in a stable order.
var Strategies = []Strategy{Adaptive, HighFrequency, Perfect, Overlay, ColorPreserving, HuePreserving, Blended, Hybrid}

// ParseStrategy parses a strategy name; the empty string selects Adaptive.
func ParseStrategy(s string) (Strategy, error) {
	name := Strategy(strings.ToLower(strings.TrimSpace(s)))
	if name == "" {
		return Adaptive, nil
	}
	for _, st := range Strategies {
		if st == name {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// NeedsBase reports whether the strategy reads base-image pixels under the
// region in addition to the hidden payload.
func (s Strategy) NeedsBase() bool {
	return s == ColorPreserving || s == HuePreserving || s == Blended
}

// Spec describes one embedding request. Zero values select defaults; call
// Normalize to resolve them.
type Spec struct {
	Strategy    Strategy    `json:"strategy" yaml:"strategy"`
	Orientation Orientation `json:"orientation" yaml:"orientation"`

	// Mode selects a named strength preset when Strength is zero.
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`

	// Strength scales the modulation amplitude, in (0, 1].
	Strength float64 `json:"strength,omitempty" yaml:"strength,omitempty"`

	// Color1 and Color2 are the dark and light carrier colors. A zero pair
	// selects black and white.
	Color1 imaging.RGBColor `json:"color1" yaml:"color1"`
	Color2 imaging.RGBColor `json:"color2" yaml:"color2"`

	// Frequency is the stripe width in pixels (1-5). Zero selects the
	// strategy's own carrier period.
	Frequency int `json:"frequency,omitempty" yaml:"frequency,omitempty"`

	// ContrastBoost multiplies the strategy's contrast-stretch factor (0.5-2).
	ContrastBoost float64 `json:"contrast_boost,omitempty" yaml:"contrast_boost,omitempty"`

	// Opacity is the overlay mask opacity, or the pattern opacity for Blended.
	Opacity float64 `json:"opacity,omitempty" yaml:"opacity,omitempty"`

	// BlurRadius is the overlay mask antialiasing radius in pixels (1-15).
	BlurRadius int `json:"blur_radius,omitempty" yaml:"blur_radius,omitempty"`

	// Primary is the tone strategy mixed into Hybrid.
	Primary Strategy `json:"primary,omitempty" yaml:"primary,omitempty"`

	// OverlayRatio is Hybrid's overlay weight in [0, 1].
	OverlayRatio float64 `json:"overlay_ratio,omitempty" yaml:"overlay_ratio,omitempty"`

	// FusionRatio, when positive, fuses any non-overlay result with the
	// overlay silhouette at this weight.
	FusionRatio float64 `json:"fusion_ratio,omitempty" yaml:"fusion_ratio,omitempty"`
}

// Normalize fills defaults and validates ranges.
func (s Spec) Normalize() (Spec, error) {
	var err error
	if s.Strategy, err = ParseStrategy(string(s.Strategy)); err != nil {
		return s, err
	}
	if s.Orientation, err = ParseOrientation(string(s.Orientation)); err != nil {
		return s, err
	}
	if s.Color1 == (imaging.RGBColor{}) && s.Color2 == (imaging.RGBColor{}) {
		s.Color1, s.Color2 = imaging.Black, imaging.White
	}

	if s.Strategy == Hybrid {
		if s.Primary == "" {
			s.Primary = HighFrequency
		}
		switch s.Primary {
		case Adaptive, HighFrequency, Perfect:
		default:
			return s, fmt.Errorf("%w: hybrid primary must be adaptive, high_frequency or perfect, got %q", ErrInvalidSpec, s.Primary)
		}
		if s.OverlayRatio == 0 {
			s.OverlayRatio = 0.4
		}
	}

	if s.Strength == 0 {
		switch {
		case s.Mode != "":
			v, ok := ModeStrength(s.Mode)
			if !ok {
				return s, fmt.Errorf("%w: unknown mode %q", ErrInvalidSpec, s.Mode)
			}
			s.Strength = v
		case s.Strategy == Hybrid:
			s.Strength = DefaultStrength(s.Primary)
		default:
			s.Strength = DefaultStrength(s.Strategy)
		}
	}
	if s.ContrastBoost == 0 {
		s.ContrastBoost = 1
	}
	if s.Opacity == 0 {
		switch s.Strategy {
		case Blended:
			s.Opacity = 0.85
		case Hybrid:
			s.Opacity = 0.8
		default:
			s.Opacity = 0.6
		}
	}
	if s.BlurRadius == 0 {
		s.BlurRadius = 2
	}

	switch {
	case s.Strength <= 0 || s.Strength > 1:
		return s, fmt.Errorf("%w: strength %v outside (0, 1]", ErrInvalidSpec, s.Strength)
	case s.Frequency < 0 || s.Frequency > 5:
		return s, fmt.Errorf("%w: frequency %d outside 1-5", ErrInvalidSpec, s.Frequency)
	case s.ContrastBoost < 0.5 || s.ContrastBoost > 2:
		return s, fmt.Errorf("%w: contrast boost %v outside 0.5-2", ErrInvalidSpec, s.ContrastBoost)
	case s.Opacity < 0 || s.Opacity > 1:
		return s, fmt.Errorf("%w: opacity %v outside (0, 1]", ErrInvalidSpec, s.Opacity)
	case s.BlurRadius < 1 || s.BlurRadius > 15:
		return s, fmt.Errorf("%w: blur radius %d outside 1-15", ErrInvalidSpec, s.BlurRadius)
	case s.OverlayRatio < 0 || s.OverlayRatio > 1:
		return s, fmt.Errorf("%w: overlay ratio %v outside [0, 1]", ErrInvalidSpec, s.OverlayRatio)
	case s.FusionRatio < 0 || s.FusionRatio > 1:
		return s, fmt.Errorf("%w: fusion ratio %v outside [0, 1]", ErrInvalidSpec, s.FusionRatio)
	}
	return s, nil
}

// period returns the carrier stripe width for the strategy.
func (s Spec) period(def int) int {
	if s.Frequency > 0 {
		return s.Frequency
	}
	return def
}
