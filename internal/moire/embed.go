package moire

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/lilseedabe/pozt/internal/canvas"
	"github.com/lilseedabe/pozt/internal/compose"
	"github.com/lilseedabe/pozt/internal/imaging"
	"github.com/lilseedabe/pozt/internal/mask"
	"github.com/lilseedabe/pozt/internal/pattern"
)

// OutlineColor is the colour of the region outline preview.
var OutlineColor = imaging.RGBColor{R: 255, G: 0, B: 0}

// EmbedRequest is one embedding job.
type EmbedRequest struct {
	Base image.Image
	// Hidden is the payload; nil embeds the base content under the region.
	Hidden image.Image

	// Region is in Base coordinates unless RegionInCanvas is set.
	Region         canvas.Region
	RegionInCanvas bool
	Method         canvas.Method

	Spec   pattern.Spec
	Border *compose.Border

	// Shape limits the pattern to a decorative outline inside the region.
	Shape       mask.Shape
	ShapeParams mask.Params

	// Outline adds a copy of the canvas with the region outlined.
	Outline bool
}

// EmbedResult is the composed canvas and how it was produced.
type EmbedResult struct {
	Image     *image.NRGBA     `json:"-" yaml:"-"`
	Outline   *image.NRGBA     `json:"-" yaml:"-"`
	Region    canvas.Region    `json:"region" yaml:"region"`
	Transform canvas.Transform `json:"transform" yaml:"transform"`
	// Strategy is the strategy that produced the pattern.
	Strategy pattern.Strategy `json:"strategy" yaml:"strategy"`
	Spec     pattern.Spec     `json:"spec" yaml:"spec"`
	Fallback bool             `json:"fallback,omitempty" yaml:"fallback,omitempty"`
	Reason   string           `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Embed fits the base onto the canvas and replaces the mapped region with a
// moiré pattern carrying the hidden image. The result never differs from the
// fitted base outside the region and its border margin.
func (e *Engine) Embed(ctx context.Context, req EmbedRequest) (res *EmbedResult, err error) {
	start := time.Now()
	label := string(req.Spec.Strategy)
	if label == "" {
		label = string(pattern.Adaptive)
	}
	defer func() {
		e.metrics.embeds.WithLabelValues(label, status(err)).Inc()
		e.metrics.observe("embed", start)
	}()

	if err := checkImage(req.Base, "base"); err != nil {
		return nil, err
	}
	if req.Hidden != nil && req.Hidden.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty hidden image", imaging.ErrUnreadableImage)
	}
	method, err := canvas.ParseMethod(string(req.Method))
	if err != nil {
		return nil, err
	}
	shape, err := mask.ParseShape(string(req.Shape))
	if err != nil {
		return nil, err
	}
	if req.Border != nil && req.Border.Width < 0 {
		return nil, fmt.Errorf("%w: negative width %d", compose.ErrInvalidBorder, req.Border.Width)
	}
	spec, err := req.Spec.Normalize()
	if err != nil {
		return nil, err
	}

	var fixed canvas.Region
	var t canvas.Transform
	if req.RegionInCanvas {
		if err := req.Region.Validate(e.canvas); err != nil {
			return nil, err
		}
		fixed = req.Region
		t, err = canvas.NewTransform(canvas.SizeOf(req.Base), e.canvas, method)
	} else {
		fixed, t, err = e.MapRegion(req.Region, canvas.SizeOf(req.Base), method)
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fitted, _, err := canvas.Fit(req.Base, e.canvas, method)
	if err != nil {
		return nil, err
	}
	e.log.Debug("fitted base", "source", canvas.SizeOf(req.Base).String(), "canvas", e.canvas.String(), "method", method)
	e.log.Debug("mapped region", "source", req.Region.String(), "canvas", fixed.String())

	under, err := imaging.Crop(fitted, fixed.Rect())
	if err != nil {
		return nil, err
	}
	hidden := image.Image(under)
	if req.Hidden != nil {
		hidden = imaging.Resize(req.Hidden, fixed.W, fixed.H)
	}
	in := pattern.Input{W: fixed.W, H: fixed.H, Hidden: hidden}
	if spec.Strategy.NeedsBase() {
		in.Base = under
	}

	pat, err := pattern.Apply(ctx, spec, in)
	if err != nil {
		return nil, err
	}
	if pat.Fallback {
		e.metrics.fallbacks.WithLabelValues(string(spec.Strategy)).Inc()
		e.log.Info("strategy fell back to overlay", "strategy", spec.Strategy, "reason", pat.Reason)
	}
	e.log.Debug("modulated region", "strategy", pat.Strategy, "size", fmt.Sprintf("%dx%d", fixed.W, fixed.H))

	opts := compose.Options{Border: req.Border}
	if shape != mask.Rectangle {
		if opts.Mask, err = e.masks.Get(shape, fixed.W, fixed.H, req.ShapeParams); err != nil {
			return nil, err
		}
	}
	out, err := compose.Composite(fitted, fixed, pat.Image, opts)
	if err != nil {
		return nil, err
	}
	e.log.Debug("composited region", "region", fixed.String(), "shape", shape, "border", req.Border != nil)

	res = &EmbedResult{
		Image:     out,
		Region:    fixed,
		Transform: t,
		Strategy:  pat.Strategy,
		Spec:      pat.Spec,
		Fallback:  pat.Fallback,
		Reason:    pat.Reason,
	}
	if req.Outline {
		if res.Outline, err = imaging.OutlineRegion(out, fixed.Rect(), 3, OutlineColor, true); err != nil {
			return nil, err
		}
	}
	return res, nil
}
