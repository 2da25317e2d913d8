package extract

import (
	"github.com/lilseedabe/pozt/internal/imaging"
)

// frequencyFiltering masks out pixels that sit on detected stripe edges.
// Canny thresholds follow the mean intensity so dark and bright captures
// are treated alike.
func (r *run) frequencyFiltering(p *imaging.Plane) (*imaging.Plane, error) {
	blurred := imaging.GaussianBlur5(p)
	mean, _ := blurred.MeanStd()
	low, high := 0.66*mean, 1.33*mean
	if high < 1 {
		low, high = 0.5, 1
	}
	edges := imaging.Canny(blurred, low, high)
	stripes := imaging.MorphClose(edges, 1)

	out := imaging.NewPlane(p.W, p.H)
	for i, v := range p.Pix {
		keep := 1 - stripes.Pix[i]/255
		out.Pix[i] = v * keep * r.level
	}
	return imaging.GaussianBlur(out.Clip(0, 255), 7, 0), nil
}
