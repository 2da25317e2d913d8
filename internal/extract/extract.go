package extract

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/lilseedabe/pozt/internal/enhance"
	"github.com/lilseedabe/pozt/internal/imaging"
)

// ErrUnknownMethod is returned for method names outside the supported set.
var ErrUnknownMethod = errors.New("unknown extraction method")

// ErrInvalidLevel is returned for a negative enhancement level.
var ErrInvalidLevel = errors.New("enhancement level must be non-negative")

// Method names an extraction algorithm.
type Method string

const (
	FourierAnalysis    Method = "fourier_analysis"
	FrequencyFiltering Method = "frequency_filtering"
	PatternSubtraction Method = "pattern_subtraction"
	AdaptiveDetection  Method = "adaptive_detection"
)

// Methods lists every extraction method in a stable order.
var Methods = []Method{FourierAnalysis, FrequencyFiltering, PatternSubtraction, AdaptiveDetection}

// ParseMethod parses a method name; the empty string selects FourierAnalysis.
func ParseMethod(s string) (Method, error) {
	name := Method(strings.ToLower(strings.TrimSpace(s)))
	if name == "" {
		return FourierAnalysis, nil
	}
	for _, m := range Methods {
		if m == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Spec describes one extraction request.
type Spec struct {
	Method Method `json:"method" yaml:"method"`

	// Level is the post-gain applied by every method. It is clamped to the
	// budget's [MinLevel, MaxLevel]; zero selects 2.
	Level float64 `json:"enhancement_level" yaml:"enhancement_level"`

	Enhancement enhance.Method `json:"enhancement" yaml:"enhancement"`
	Params      enhance.Params `json:"params,omitempty" yaml:"params,omitempty"`

	// NoSmoothing skips the bilateral pre-filter of adaptive_detection.
	NoSmoothing bool `json:"no_smoothing,omitempty" yaml:"no_smoothing,omitempty"`
}

// DefaultLevel is the gain used when Spec.Level is zero.
const DefaultLevel = 2.0

// Budget bounds the work a single extraction may do.
type Budget struct {
	// MaxDimension caps the long edge of the working image.
	MaxDimension int `mapstructure:"max_dimension" json:"max_dimension"`
	// FourierMaxEdge is the largest long edge fourier_analysis runs on.
	FourierMaxEdge int `mapstructure:"fourier_max_edge" json:"fourier_max_edge"`
	// MinLevel and MaxLevel bound Spec.Level.
	MinLevel float64 `mapstructure:"min_level" json:"min_level"`
	MaxLevel float64 `mapstructure:"max_level" json:"max_level"`
	// Workers limits FFT parallelism; zero means one goroutine per row.
	Workers int `mapstructure:"workers" json:"workers"`
}

// DefaultBudget matches the limits the embedding side is tuned for.
var DefaultBudget = Budget{MaxDimension: 2048, FourierMaxEdge: 512, MinLevel: 0.5, MaxLevel: 5.0}

func (b Budget) withDefaults() Budget {
	if b.MaxDimension <= 0 {
		b.MaxDimension = DefaultBudget.MaxDimension
	}
	if b.FourierMaxEdge <= 0 {
		b.FourierMaxEdge = DefaultBudget.FourierMaxEdge
	}
	if b.MinLevel <= 0 {
		b.MinLevel = DefaultBudget.MinLevel
	}
	if b.MaxLevel <= 0 {
		b.MaxLevel = DefaultBudget.MaxLevel
	}
	return b
}

// Metadata annotates how a result was produced.
type Metadata struct {
	Requested    Method         `json:"requested" yaml:"requested"`
	Used         Method         `json:"used" yaml:"used"`
	Enhancement  enhance.Method `json:"enhancement" yaml:"enhancement"`
	Level        float64        `json:"enhancement_level" yaml:"enhancement_level"`
	LevelClamped bool           `json:"level_clamped,omitempty" yaml:"level_clamped,omitempty"`
	Substituted  bool           `json:"substituted,omitempty" yaml:"substituted,omitempty"`
	Downscaled   bool           `json:"downscaled,omitempty" yaml:"downscaled,omitempty"`
	WorkingW     int            `json:"working_width" yaml:"working_width"`
	WorkingH     int            `json:"working_height" yaml:"working_height"`
	// Orientation is the carrier direction pattern_subtraction detected.
	Orientation string   `json:"orientation,omitempty" yaml:"orientation,omitempty"`
	Notes       []string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Result is an extracted image with its metadata.
type Result struct {
	Image    image.Image
	Metadata Metadata
}

// run carries per-call state into the methods.
type run struct {
	spec   Spec
	budget Budget
	level  float64
	meta   *Metadata
}

// Extract recovers hidden content from img.
func Extract(ctx context.Context, img image.Image, spec Spec, budget Budget) (*Result, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", imaging.ErrUnreadableImage)
	}
	method, err := ParseMethod(string(spec.Method))
	if err != nil {
		return nil, err
	}
	enh := spec.Enhancement
	if enh == "" {
		enh = enhance.None
	}
	if _, err := enhance.ParseMethod(string(enh)); err != nil {
		return nil, err
	}
	if spec.Level < 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidLevel, spec.Level)
	}
	budget = budget.withDefaults()

	meta := Metadata{Requested: method, Used: method, Enhancement: enh}
	level := spec.Level
	if level == 0 {
		level = DefaultLevel
	}
	if clamped := imaging.ClipFloat(level, budget.MinLevel, budget.MaxLevel); clamped != level {
		meta.LevelClamped = true
		meta.Notes = append(meta.Notes, fmt.Sprintf("enhancement level %.2f clamped to %.2f", level, clamped))
		level = clamped
	}
	meta.Level = level

	gray := imaging.GrayPlane(img)
	w, h := gray.W, gray.H
	work := gray
	if long := max(w, h); long > budget.MaxDimension {
		s := float64(budget.MaxDimension) / float64(long)
		ww, wh := max(1, int(float64(w)*s+0.5)), max(1, int(float64(h)*s+0.5))
		work = imaging.ResizePlane(gray, ww, wh)
		meta.Downscaled = true
		meta.Notes = append(meta.Notes, fmt.Sprintf("downscaled %dx%d to %dx%d", w, h, ww, wh))
	}
	meta.WorkingW, meta.WorkingH = work.W, work.H

	if method == FourierAnalysis && max(work.W, work.H) > budget.FourierMaxEdge {
		meta.Used = PatternSubtraction
		meta.Substituted = true
		meta.Notes = append(meta.Notes, fmt.Sprintf("fourier_analysis limited to %dpx long edge; used pattern_subtraction", budget.FourierMaxEdge))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := &run{spec: spec, budget: budget, level: level, meta: &meta}
	var out *imaging.Plane
	switch meta.Used {
	case FourierAnalysis:
		out, err = r.fourier(ctx, work)
	case FrequencyFiltering:
		out, err = r.frequencyFiltering(work)
	case PatternSubtraction:
		out, err = r.patternSubtraction(work)
	case AdaptiveDetection:
		out, err = r.adaptiveDetection(work)
	}
	if err != nil {
		return nil, err
	}
	if out.W != w || out.H != h {
		out = imaging.ResizePlane(out, w, h)
	}
	out.Clip(0, 255)

	enhanced, err := enhance.Apply(out.ToGray(), enh, spec.Params)
	if err != nil {
		return nil, err
	}
	return &Result{Image: layout(img, enhanced), Metadata: meta}, nil
}

// layout returns g in the channel layout of src: gray stays gray, anything
// else gets the gray value replicated into opaque RGB.
func layout(src, g image.Image) image.Image {
	if _, ok := src.(*image.Gray); ok {
		return g
	}
	return imaging.ToNRGBA(g)
}
