package extract

import (
	"context"
	"math"
	"math/cmplx"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/lilseedabe/pozt/internal/imaging"
)

// fourier keeps the low frequencies that carry the hidden image and damps
// the stripe carrier near Nyquist. The frequency filter is a disk of radius
// min(w,h)/12 around DC plus a ring from half to twice that radius weighted
// by the enhancement level.
func (r *run) fourier(ctx context.Context, p *imaging.Plane) (*imaging.Plane, error) {
	w, h := p.W, p.H
	spec := make([]complex128, w*h)
	for i, v := range p.Pix {
		spec[i] = complex(v, 0)
	}

	if err := fft2(ctx, spec, w, h, false, r.budget.Workers); err != nil {
		return nil, err
	}

	radius := float64(min(w, h)) / 12
	inner, outer := radius/2, radius*2
	for y := 0; y < h; y++ {
		dy := float64(min(y, h-y))
		for x := 0; x < w; x++ {
			dx := float64(min(x, w-x))
			d := math.Hypot(dx, dy)
			gain := 0.0
			if d <= radius {
				gain = 1
			}
			if d >= inner && d <= outer {
				gain += r.level
			}
			spec[y*w+x] *= complex(gain, 0)
		}
	}

	if err := fft2(ctx, spec, w, h, true, r.budget.Workers); err != nil {
		return nil, err
	}

	out := imaging.NewPlane(w, h)
	for i, c := range spec {
		out.Pix[i] = cmplx.Abs(c)
	}

	out.Normalize()
	return out.Map(func(v float64) float64 { return v * r.level }), nil
}

// fft2 runs an in-place 2-D transform: rows, then columns. inverse selects
// the unnormalized inverse transform. Each pass fans out over an errgroup and
// every goroutine owns its own FFT plan.
func fft2(ctx context.Context, data []complex128, w, h int, inverse bool, workers int) error {
	pass := func(n, count int, get func(i int, buf []complex128), put func(i int, buf []complex128)) error {
		g, gctx := errgroup.WithContext(ctx)
		if workers > 0 {
			g.SetLimit(workers)
		}
		chunk := max(1, count/max(1, workers*4))
		if workers <= 0 {
			chunk = max(1, count/64)
		}
		for start := 0; start < count; start += chunk {
			end := min(start+chunk, count)
			g.Go(func() error {
				plan := fourier.NewCmplxFFT(n)
				buf := make([]complex128, n)
				for i := start; i < end; i++ {
					if err := gctx.Err(); err != nil {
						return err
					}
					get(i, buf)
					if inverse {
						plan.Sequence(buf, buf)
					} else {
						plan.Coefficients(buf, buf)
					}
					put(i, buf)
				}
				return nil
			})
		}
		return g.Wait()
	}

	err := pass(w, h,
		func(y int, buf []complex128) { copy(buf, data[y*w:(y+1)*w]) },
		func(y int, buf []complex128) { copy(data[y*w:(y+1)*w], buf) })
	if err != nil {
		return err
	}
	return pass(h, w,
		func(x int, buf []complex128) {
			for y := range buf {
				buf[y] = data[y*w+x]
			}
		},
		func(x int, buf []complex128) {
			for y, v := range buf {
				data[y*w+x] = v
			}
		})
}
