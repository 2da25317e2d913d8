package extract

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/lilseedabe/pozt/internal/imaging"
)

// samplePatch bounds the centre patch used to estimate the carrier.
const samplePatch = 100

// carrier describes the estimated stripe field.
type carrier struct {
	vertical bool
	// brightOdd is set when odd rows (or columns) hold the light stripes.
	brightOdd bool
	corr      float64
}

func (c carrier) orientation() string {
	if c.vertical {
		return "vertical"
	}
	return "horizontal"
}

func (c carrier) bright(x, y int) bool {
	pos := y
	if c.vertical {
		pos = x
	}
	return (pos%2 == 1) == c.brightOdd
}

// estimateCarrier correlates a centre patch with ideal 1px horizontal and
// vertical templates and keeps the orientation with the stronger absolute
// correlation. The sign gives the stripe phase.
func estimateCarrier(p *imaging.Plane) carrier {
	pw, ph := min(p.W, samplePatch), min(p.H, samplePatch)
	x0, y0 := (p.W-pw)/2, (p.H-ph)/2

	patch := make([]float64, 0, pw*ph)
	horiz := make([]float64, 0, pw*ph)
	vert := make([]float64, 0, pw*ph)
	for y := y0; y < y0+ph; y++ {
		for x := x0; x < x0+pw; x++ {
			patch = append(patch, p.Pix[y*p.W+x])
			horiz = append(horiz, float64(255*(y%2)))
			vert = append(vert, float64(255*(x%2)))
		}
	}
	ch := correlation(patch, horiz)
	cv := correlation(patch, vert)
	if math.Abs(cv) > math.Abs(ch) {
		return carrier{vertical: true, brightOdd: cv > 0, corr: cv}
	}
	return carrier{brightOdd: ch >= 0, corr: ch}
}

// correlation is Pearson's r, or 0 when either input is constant.
func correlation(a, b []float64) float64 {
	c := stat.Correlation(a, b, nil)
	if math.IsNaN(c) {
		return 0
	}
	return c
}

// patternSubtraction removes the estimated carrier: light stripes are pulled
// down by the measured stripe contrast (as a fraction of full scale, kept in
// [0.2, 0.8]) and the residual is re-centred on mid-grey with the gain.
func (r *run) patternSubtraction(p *imaging.Plane) (*imaging.Plane, error) {
	c := estimateCarrier(p)
	r.meta.Orientation = c.orientation()

	var sumB, sumD float64
	var nB, nD int
	for y := 0; y < p.H; y++ {
		for x := 0; x < p.W; x++ {
			if c.bright(x, y) {
				sumB += p.Pix[y*p.W+x]
				nB++
			} else {
				sumD += p.Pix[y*p.W+x]
				nD++
			}
		}
	}
	scale := 0.2
	if nB > 0 && nD > 0 {
		scale = imaging.ClipFloat((sumB/float64(nB)-sumD/float64(nD))/255, 0.2, 0.8)
	}

	diff := imaging.NewPlane(p.W, p.H)
	for y := 0; y < p.H; y++ {
		for x := 0; x < p.W; x++ {
			v := p.Pix[y*p.W+x]
			if c.bright(x, y) {
				v -= 255 * scale
			}
			diff.Pix[y*p.W+x] = v
		}
	}
	mean, _ := diff.MeanStd()
	return diff.Map(func(v float64) float64 { return (v-mean)*r.level + 128 }), nil
}
