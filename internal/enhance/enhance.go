package enhance

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/histogram"

	"github.com/lilseedabe/pozt/internal/imaging"
)

// ErrUnknownMethod is returned for enhancement names outside the supported set.
var ErrUnknownMethod = errors.New("unknown enhancement method")

// ErrInvalidParams is returned for out-of-range gamma or CLAHE parameters.
var ErrInvalidParams = errors.New("invalid enhancement params")

// Method names an enhancement.
type Method string

const (
	HistogramEqualization Method = "histogram_equalization"
	CLAHE                 Method = "clahe"
	GammaCorrection       Method = "gamma_correction"
	None                  Method = "none"
)

// Methods lists every enhancement in a stable order.
var Methods = []Method{HistogramEqualization, CLAHE, GammaCorrection, None}

// ParseMethod parses an enhancement name; the empty string selects None.
func ParseMethod(s string) (Method, error) {
	name := Method(strings.ToLower(strings.TrimSpace(s)))
	if name == "" {
		return None, nil
	}
	for _, m := range Methods {
		if m == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Params tunes the enhancements. Zero fields select DefaultParams values.
type Params struct {
	Gamma     float64 `mapstructure:"gamma" json:"gamma,omitempty"`
	ClipLimit float64 `mapstructure:"clahe_clip" json:"clip_limit,omitempty"`
	Tiles     int     `mapstructure:"clahe_tiles" json:"tiles,omitempty"`
}

// DefaultParams brightens with γ=0.7 and runs CLAHE on an 8×8 grid with
// clip limit 2.
var DefaultParams = Params{Gamma: 0.7, ClipLimit: 2.0, Tiles: 8}

func (p Params) withDefaults() Params {
	if p.Gamma == 0 {
		p.Gamma = DefaultParams.Gamma
	}
	if p.ClipLimit == 0 {
		p.ClipLimit = DefaultParams.ClipLimit
	}
	if p.Tiles == 0 {
		p.Tiles = DefaultParams.Tiles
	}
	return p
}

// Apply runs method on img.
func Apply(img image.Image, m Method, p Params) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("enhance: missing image")
	}
	p = p.withDefaults()
	switch m {
	case HistogramEqualization:
		return Equalize(img), nil
	case CLAHE:
		return ApplyCLAHE(img, p.ClipLimit, p.Tiles)
	case GammaCorrection:
		return Gamma(img, p.Gamma)
	case None, "":
		return clone(img), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, m)
}

// Equalize spreads each channel's histogram over [0, 255]. A channel with a
// single value is left unchanged.
func Equalize(img image.Image) image.Image {
	hist := histogram.NewRGBAHistogram(img).Cumulative()
	luts := [3][256]uint8{
		equalizeLUT(hist.R.Bins),
		equalizeLUT(hist.G.Bins),
		equalizeLUT(hist.B.Bins),
	}
	if g, ok := img.(*image.Gray); ok {
		return mapGray(g, luts[0])
	}
	return mapNRGBA(imaging.ToNRGBA(img), luts)
}

// equalizeLUT builds the lookup table from a cumulative histogram: the first
// occupied bin maps to 0 and the rest are spread by their cumulative count.
func equalizeLUT(cdf []int) [256]uint8 {
	var lut [256]uint8
	total := cdf[len(cdf)-1]
	first := 0
	for first < len(cdf) && cdf[first] == 0 {
		first++
	}
	if total == 0 || first == len(cdf) || cdf[first] == total {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return lut
	}
	scale := 255 / float64(total-cdf[first])
	for i := first + 1; i < 256; i++ {
		lut[i] = imaging.ToUint8(float64(cdf[i]-cdf[first]) * scale)
	}
	return lut
}

// Gamma applies out = 255·(in/255)^gamma per channel; gamma < 1 brightens.
// gamma == 1 returns an identical copy.
func Gamma(img image.Image, gamma float64) (image.Image, error) {
	if gamma <= 0 {
		return nil, fmt.Errorf("%w: gamma must be positive, got %v", ErrInvalidParams, gamma)
	}
	if gamma == 1 {
		return clone(img), nil
	}
	// bild takes the reciprocal exponent.
	return sameLayout(img, adjust.Gamma(img, 1/gamma)), nil
}

func clone(img image.Image) image.Image {
	if g, ok := img.(*image.Gray); ok {
		b := g.Bounds()
		out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()], g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		return out
	}
	return imaging.ToNRGBA(img)
}

// sameLayout converts out to the channel layout of src.
func sameLayout(src, out image.Image) image.Image {
	if _, ok := src.(*image.Gray); ok {
		return imaging.GrayPlane(out).ToGray()
	}
	return imaging.ToNRGBA(out)
}

func mapGray(g *image.Gray, lut [256]uint8) *image.Gray {
	out := clone(g).(*image.Gray)
	for i, v := range out.Pix {
		out.Pix[i] = lut[v]
	}
	return out
}

func mapNRGBA(img *image.NRGBA, luts [3][256]uint8) *image.NRGBA {
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = luts[0][img.Pix[i]]
		img.Pix[i+1] = luts[1][img.Pix[i+1]]
		img.Pix[i+2] = luts[2][img.Pix[i+2]]
	}
	return img
}
