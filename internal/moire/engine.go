package moire

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lilseedabe/pozt/internal/canvas"
	"github.com/lilseedabe/pozt/internal/detection"
	"github.com/lilseedabe/pozt/internal/extract"
	"github.com/lilseedabe/pozt/internal/imaging"
	"github.com/lilseedabe/pozt/internal/mask"
	"github.com/lilseedabe/pozt/internal/preview"
)

// Options configures an Engine. Zero fields select the defaults.
type Options struct {
	// Canvas is the fixed output size (default 2430×3240).
	Canvas canvas.Size
	Budget extract.Budget
	// MaskCacheSize bounds the decorative mask cache (default 64).
	MaskCacheSize int
	Logger        *slog.Logger
	// Registry receives the engine metrics; nil creates a private one.
	Registry *prometheus.Registry
}

// Engine runs embed and extract requests. It is safe for concurrent use;
// the mask cache is its only mutable state.
type Engine struct {
	canvas   canvas.Size
	budget   extract.Budget
	masks    *mask.Cache
	log      *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics
}

// New builds an Engine.
func New(opts Options) (*Engine, error) {
	if opts.Canvas == (canvas.Size{}) {
		opts.Canvas = canvas.DefaultSize
	}
	if !opts.Canvas.Valid() {
		return nil, fmt.Errorf("%w: canvas %s", ErrInvalidArgument, opts.Canvas)
	}
	if opts.Budget == (extract.Budget{}) {
		opts.Budget = extract.DefaultBudget
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	masks, err := mask.NewCache(opts.MaskCacheSize)
	if err != nil {
		return nil, err
	}
	return &Engine{
		canvas:   opts.Canvas,
		budget:   opts.Budget,
		masks:    masks,
		log:      opts.Logger,
		registry: opts.Registry,
		metrics:  newMetrics(opts.Registry),
	}, nil
}

// Canvas returns the fixed canvas size.
func (e *Engine) Canvas() canvas.Size { return e.canvas }

// MapRegion maps a region of a source of size src onto the canvas.
func (e *Engine) MapRegion(r canvas.Region, src canvas.Size, method canvas.Method) (canvas.Region, canvas.Transform, error) {
	m, err := canvas.ParseMethod(string(method))
	if err != nil {
		return canvas.Region{}, canvas.Transform{}, err
	}
	if !src.Valid() {
		return canvas.Region{}, canvas.Transform{}, fmt.Errorf("%w: source size %s", ErrInvalidArgument, src)
	}
	t, err := canvas.NewTransform(src, e.canvas, m)
	if err != nil {
		return canvas.Region{}, canvas.Transform{}, err
	}
	fixed, err := t.Apply(r)
	if err != nil {
		return canvas.Region{}, canvas.Transform{}, err
	}
	return fixed, t, nil
}

// Preview renders a viewing simulation of region r of img.
func (e *Engine) Preview(ctx context.Context, img image.Image, kind preview.Kind, r canvas.Region, zoomFactor int) (out *image.NRGBA, err error) {
	start := time.Now()
	defer func() {
		e.metrics.previews.WithLabelValues(string(kind), status(err)).Inc()
		e.metrics.observe("preview", start)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkImage(img, "preview"); err != nil {
		return nil, err
	}
	if _, err := preview.ParseKind(string(kind)); err != nil {
		return nil, err
	}
	e.log.Debug("rendering preview", "kind", kind, "region", r.String())
	return preview.Render(img, kind, r, zoomFactor)
}

// DetectCarrier looks for a stripe field in img.
func (e *Engine) DetectCarrier(ctx context.Context, img image.Image, opts detection.Options) (c *detection.Carrier, err error) {
	start := time.Now()
	defer e.metrics.observe("detect", start)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkImage(img, "detection"); err != nil {
		return nil, err
	}
	c, err = detection.DetectCarrier(img, opts)
	if err != nil {
		return nil, err
	}
	e.log.Debug("carrier detection", "found", c.Found, "region", c.Region.String(), "orientation", c.Orientation)
	return c, nil
}

// Mask returns the cached decorative mask for shape at w×h.
func (e *Engine) Mask(shape mask.Shape, w, h int, p mask.Params) (*image.Alpha, error) {
	s, err := mask.ParseShape(string(shape))
	if err != nil {
		return nil, err
	}
	return e.masks.Get(s, w, h, p)
}

// ClearCache empties the mask cache and resets its counters.
func (e *Engine) ClearCache() {
	e.masks.Clear()
	e.log.Info("mask cache cleared")
}

// Stats is a snapshot of the engine's cache and metrics.
type Stats struct {
	Cache   mask.CacheStats `json:"cache" yaml:"cache"`
	Metrics []Sample        `json:"metrics" yaml:"metrics"`
}

// Stats gathers the current counters.
func (e *Engine) Stats() (*Stats, error) {
	families, err := e.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}
	return &Stats{Cache: e.masks.Stats(), Metrics: samples(families)}, nil
}

// Registry exposes the metrics registry.
func (e *Engine) Registry() *prometheus.Registry { return e.registry }

func checkImage(img image.Image, what string) error {
	if img == nil || img.Bounds().Empty() {
		return fmt.Errorf("%w: empty %s image", imaging.ErrUnreadableImage, what)
	}
	return nil
}
