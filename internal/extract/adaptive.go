package extract

import (
	"github.com/lilseedabe/pozt/internal/imaging"
)

// adaptiveWindow returns the local-statistics window: about a tenth of the
// short side, odd, at least 3.
func adaptiveWindow(w, h int) int {
	win := min(w, h) / 10
	if win < 3 {
		win = 3
	}
	if win%2 == 0 {
		win++
	}
	return win
}

// adaptiveDetection keeps pixels brighter than their neighbourhood by k
// local standard deviations. k follows global contrast: flat captures use a
// lower threshold than high-contrast ones.
func (r *run) adaptiveDetection(p *imaging.Plane) (*imaging.Plane, error) {
	mean, std := imaging.LocalStats(p, adaptiveWindow(p.W, p.H))
	_, globalStd := p.MeanStd()
	k := 0.5 * imaging.ClipFloat(globalStd/50, 0.5, 2)

	smooth := p
	if !r.spec.NoSmoothing {
		smooth = imaging.Bilateral(p, 9, 75, 75)
	}
	out := imaging.NewPlane(p.W, p.H)
	for i, v := range p.Pix {
		if v > mean.Pix[i]+k*std.Pix[i] {
			out.Pix[i] = smooth.Pix[i] * r.level
		}
	}
	return out, nil
}
