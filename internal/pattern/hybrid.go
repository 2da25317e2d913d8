package pattern

import (
	"context"
	"errors"
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"

	"github.com/lilseedabe/pozt/internal/imaging"
)

// fusionOpacity is the overlay opacity used when fusing a tone result with
// the overlay silhouette.
const fusionOpacity = 0.7

// hybrid mixes a tone primary with the overlay silhouette:
// primary·(1-ratio) + overlay·ratio.
type hybrid struct {
	primary Modulator
	overlay *OverlayModulator
	ratio   float64
}

func (m *hybrid) Strategy() Strategy { return Hybrid }

func (m *hybrid) Modulate(ctx context.Context, in Input) (*image.NRGBA, error) {
	return fuse(ctx, m.primary, m.overlay, in, m.ratio)
}

// fuse runs a and b concurrently and mixes their outputs at ratio t.
func fuse(ctx context.Context, a, b Modulator, in Input, t float64) (*image.NRGBA, error) {
	var pa, pb *image.NRGBA
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pa, err = a.Modulate(gctx, in)
		return err
	})
	g.Go(func() error {
		var err error
		pb, err = b.Modulate(gctx, in)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := checkSize(pa, in.W, in.H); err != nil {
		return nil, err
	}
	if err := checkSize(pb, in.W, in.H); err != nil {
		return nil, err
	}
	return mix(pa, pb, t), nil
}

// Result is the output of Apply.
type Result struct {
	Image    *image.NRGBA
	Strategy Strategy // strategy that actually produced Image
	Spec     Spec     // normalized request
	Fallback bool
	Reason   string `json:",omitempty"`
}

// Apply produces the region-sized pattern for spec. When the hidden payload
// does not match the region, or the strategy reports a shape mismatch, it
// resizes the payload and falls back to Overlay instead of failing; the
// returned Result records the substitution.
func Apply(ctx context.Context, spec Spec, in Input) (*Result, error) {
	if in.W <= 0 || in.H <= 0 {
		return nil, fmt.Errorf("%w: empty region %dx%d", ErrInvalidSpec, in.W, in.H)
	}
	if in.Hidden == nil {
		return nil, fmt.Errorf("%w: missing hidden image", ErrInvalidSpec)
	}
	norm, err := spec.Normalize()
	if err != nil {
		return nil, err
	}
	mod, err := New(norm)
	if err != nil {
		return nil, err
	}

	if err := checkSize(in.Hidden, in.W, in.H); err != nil {
		return fallback(ctx, norm, in, err.Error())
	}
	if norm.Strategy.NeedsBase() {
		if err := checkSize(in.Base, in.W, in.H); err != nil {
			return fallback(ctx, norm, in, err.Error())
		}
	}

	var img *image.NRGBA
	if norm.FusionRatio > 0 && norm.Strategy != Overlay && norm.Strategy != Hybrid {
		img, err = fuse(ctx, mod, newOverlay(norm, fusionOpacity), in, norm.FusionRatio)
	} else {
		img, err = mod.Modulate(ctx, in)
	}
	if errors.Is(err, ErrShapeMismatch) {
		return fallback(ctx, norm, in, err.Error())
	}
	if err != nil {
		return nil, err
	}
	if err := checkSize(img, in.W, in.H); err != nil {
		return fallback(ctx, norm, in, err.Error())
	}
	return &Result{Image: img, Strategy: norm.Strategy, Spec: norm}, nil
}

func fallback(ctx context.Context, spec Spec, in Input, reason string) (*Result, error) {
	in.Hidden = imaging.Resize(in.Hidden, in.W, in.H)
	img, err := newOverlay(spec, spec.Opacity).Modulate(ctx, in)
	if err != nil {
		return nil, err
	}
	return &Result{Image: img, Strategy: Overlay, Spec: spec, Fallback: true, Reason: reason}, nil
}
