package detection

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/lilseedabe/pozt/internal/canvas"
	"github.com/lilseedabe/pozt/internal/imaging"
	"github.com/lilseedabe/pozt/internal/pattern"
)

// ErrInvalidOptions is returned for out-of-range detection options.
var ErrInvalidOptions = errors.New("invalid detection options")

// Options tunes carrier detection. Zero fields select the defaults.
type Options struct {
	// MinContrast is the minimum mean neighbour difference across the
	// stripes for a window to count (default 24).
	MinContrast float64 `json:"min_contrast,omitempty"`
	// Anisotropy is the minimum ratio between the across-stripe and
	// along-stripe differences (default 3). Checkerboards and noise fail it.
	Anisotropy float64 `json:"anisotropy,omitempty"`
	// Window is the scan window edge in pixels; zero derives it from the
	// image size.
	Window int `json:"window,omitempty"`
}

func (o Options) withDefaults(w, h int) Options {
	if o.MinContrast == 0 {
		o.MinContrast = 24
	}
	if o.Anisotropy == 0 {
		o.Anisotropy = 3
	}
	if o.Window == 0 {
		o.Window = max(9, min(w, h)/16)
	}
	return o
}

// Carrier describes a stripe field found in an image.
type Carrier struct {
	Found       bool                `json:"found" yaml:"found"`
	Region      canvas.Region       `json:"region" yaml:"region"`
	Orientation pattern.Orientation `json:"orientation,omitempty" yaml:"orientation,omitempty"`
	// Period is the stripe width in pixels (1 for the standard carrier).
	Period     int     `json:"period,omitempty" yaml:"period,omitempty"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	// Windows is the number of scan windows merged into Region.
	Windows int `json:"windows" yaml:"windows"`
}

// window is one scan window that looks like a carrier.
type window struct {
	bounds     Bounds
	vertical   bool
	confidence float64
}

// DetectCarrier scans img for the largest area covered by a 1-5 px
// two-tone stripe field and reports its bounding region and orientation.
// An image without a carrier returns Found == false and no error.
func DetectCarrier(img image.Image, opts Options) (*Carrier, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", imaging.ErrUnreadableImage)
	}
	gray := imaging.GrayPlane(img)
	w, h := gray.W, gray.H
	opts = opts.withDefaults(w, h)
	if opts.Window < 3 || opts.MinContrast < 0 || opts.Anisotropy < 1 {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidOptions, opts)
	}

	dyPlane, dxPlane := rowDiff(gray), colDiff(gray)
	across, along := imaging.NewIntegral(dyPlane), imaging.NewIntegral(dxPlane)
	half := opts.Window / 2
	step := max(1, half)

	var candidates []window
	for cy := half; cy < h+half; cy += step {
		y := min(cy, h-1)
		for cx := half; cx < w+half; cx += step {
			x := min(cx, w-1)
			dy, _ := across.Window(x, y, half)
			dx, _ := along.Window(x, y, half)
			hi, lo, vertical := dy, dx, false
			if dx > dy {
				hi, lo, vertical = dx, dy, true
			}
			if hi < opts.MinContrast || hi < opts.Anisotropy*lo {
				continue
			}
			candidates = append(candidates, window{
				bounds: Bounds{
					X1: max(0, x-half), Y1: max(0, y-half),
					X2: min(w, x+half+1), Y2: min(h, y+half+1),
				},
				vertical:   vertical,
				confidence: (1 - lo/hi) * math.Min(1, hi/(2*opts.MinContrast)),
			})
		}
	}

	best := largestGroup(candidates)
	if best == nil {
		return &Carrier{Found: false}, nil
	}

	energy, o := dyPlane, pattern.Horizontal
	if best.vertical {
		energy, o = dxPlane, pattern.Vertical
	}
	b := trim(energy, best.bounds, opts.MinContrast)
	if b.Area() == 0 {
		return &Carrier{Found: false}, nil
	}
	r := canvas.Region{X: b.X1, Y: b.Y1, W: b.X2 - b.X1, H: b.Y2 - b.Y1}
	return &Carrier{
		Found:       true,
		Region:      r,
		Orientation: o,
		Period:      estimatePeriod(gray, r, best.vertical),
		Confidence:  math.Round(best.confidence*1000) / 1000,
		Windows:     best.count,
	}, nil
}

// rowDiff holds |p(x, y+1) - p(x, y)|; the last row repeats the one above.
func rowDiff(p *imaging.Plane) *imaging.Plane {
	out := imaging.NewPlane(p.W, p.H)
	for y := 0; y < p.H; y++ {
		y0, y1 := y, y+1
		if y1 == p.H {
			y0, y1 = max(0, y-1), y
		}
		for x := 0; x < p.W; x++ {
			out.Set(x, y, math.Abs(p.At(x, y1)-p.At(x, y0)))
		}
	}
	return out
}

// colDiff holds |p(x+1, y) - p(x, y)|; the last column repeats the one before.
func colDiff(p *imaging.Plane) *imaging.Plane {
	out := imaging.NewPlane(p.W, p.H)
	for y := 0; y < p.H; y++ {
		for x := 0; x < p.W; x++ {
			x0, x1 := x, x+1
			if x1 == p.W {
				x0, x1 = max(0, x-1), x
			}
			out.Set(x, y, math.Abs(p.At(x1, y)-p.At(x0, y)))
		}
	}
	return out
}

// trim shrinks b from each side while the edge line's mean energy stays
// below thresh. Scan windows overhang the field by up to half a window.
func trim(energy *imaging.Plane, b Bounds, thresh float64) Bounds {
	row := func(y int) float64 {
		var s float64
		for x := b.X1; x < b.X2; x++ {
			s += energy.At(x, y)
		}
		return s / float64(b.X2-b.X1)
	}
	col := func(x int) float64 {
		var s float64
		for y := b.Y1; y < b.Y2; y++ {
			s += energy.At(x, y)
		}
		return s / float64(b.Y2-b.Y1)
	}
	for b.Area() > 0 {
		switch {
		case row(b.Y1) < thresh:
			b.Y1++
		case row(b.Y2-1) < thresh:
			b.Y2--
		case col(b.X1) < thresh:
			b.X1++
		case col(b.X2-1) < thresh:
			b.X2--
		default:
			return b
		}
	}
	return b
}

// maxPeriod bounds the stripe widths estimatePeriod considers.
const maxPeriod = 5

// estimatePeriod returns the lag at which the region's stripe profile
// differs most from itself. A field of period p alternates every p pixels,
// so the difference peaks at lag p.
func estimatePeriod(p *imaging.Plane, r canvas.Region, vertical bool) int {
	n := r.H
	if vertical {
		n = r.W
	}
	profile := make([]float64, n)
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			if vertical {
				profile[x-r.X] += p.At(x, y) / float64(r.H)
			} else {
				profile[y-r.Y] += p.At(x, y) / float64(r.W)
			}
		}
	}

	period, best := 1, -1.0
	for lag := 1; lag <= maxPeriod && lag < n; lag++ {
		var d float64
		for i := 0; i+lag < n; i++ {
			d += math.Abs(profile[i+lag] - profile[i])
		}
		d /= float64(n - lag)
		if d > best+1e-9 {
			period, best = lag, d
		}
	}
	return period
}

// group is a union of overlapping windows with one orientation.
type group struct {
	bounds     Bounds
	vertical   bool
	confidence float64
	count      int
}

// largestGroup merges overlapping windows of equal orientation and returns
// the group covering the largest area. Ties go to the higher confidence.
func largestGroup(windows []window) *group {
	if len(windows) == 0 {
		return nil
	}
	groups := make([]group, 0, len(windows))
	for _, w := range windows {
		groups = append(groups, group{bounds: w.bounds, vertical: w.vertical, confidence: w.confidence, count: 1})
	}
	groups = mergeGroups(groups)

	sort.SliceStable(groups, func(i, j int) bool {
		ai, aj := groups[i].bounds.Area(), groups[j].bounds.Area()
		if ai != aj {
			return ai > aj
		}
		return groups[i].confidence > groups[j].confidence
	})
	return &groups[0]
}

// mergeGroups repeatedly folds overlapping groups together until no two
// groups of the same orientation overlap.
func mergeGroups(groups []group) []group {
	for {
		merged := make([]group, 0, len(groups))
		changed := false
		for _, g := range groups {
			folded := false
			for i := range merged {
				m := &merged[i]
				if m.vertical != g.vertical || !regionsOverlap(m.bounds, g.bounds) {
					continue
				}
				total := m.count + g.count
				m.confidence = (m.confidence*float64(m.count) + g.confidence*float64(g.count)) / float64(total)
				m.bounds = mergeBounds(m.bounds, g.bounds)
				m.count = total
				folded, changed = true, true
				break
			}
			if !folded {
				merged = append(merged, g)
			}
		}
		if !changed {
			return merged
		}
		groups = merged
	}
}
