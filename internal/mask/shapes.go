package mask

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
)

var (
	// ErrUnknownShape is returned for shape names outside the supported set.
	ErrUnknownShape = errors.New("unknown shape")

	// ErrInvalidParams is returned for out-of-range shape parameters.
	ErrInvalidParams = errors.New("invalid mask params")
)

// Shape names a mask outline.
type Shape string

const (
	Rectangle Shape = "rectangle"
	Circle    Shape = "circle"
	Star      Shape = "star"
	Heart     Shape = "heart"
	Hexagon   Shape = "hexagon"
)

// Shapes lists the supported shapes in a stable order.
var Shapes = []Shape{Rectangle, Circle, Star, Heart, Hexagon}

// ParseShape parses a shape name; the empty string selects Rectangle.
func ParseShape(s string) (Shape, error) {
	name := Shape(strings.ToLower(strings.TrimSpace(s)))
	if name == "" {
		return Rectangle, nil
	}
	for _, sh := range Shapes {
		if sh == name {
			return sh, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownShape, s)
}

// Params tunes a shape. Zero fields select the defaults noted per field.
// Params is comparable so it can be part of a cache key.
type Params struct {
	// CenterX and CenterY position the circle; zero selects the region centre.
	CenterX float64 `json:"center_x,omitempty"`
	CenterY float64 `json:"center_y,omitempty"`
	// Radius of the circle; zero selects 0.8 of the half short side.
	Radius float64 `json:"radius,omitempty"`
	// Points is the star's point count (default 5, minimum 3).
	Points int `json:"points,omitempty"`
	// InnerRatio is the star's inner/outer radius ratio (default 0.4).
	InnerRatio float64 `json:"inner_ratio,omitempty"`
	// Rotation of the star in degrees.
	Rotation float64 `json:"rotation,omitempty"`
	// SizeFactor scales heart and hexagon against the half short side (default 0.8).
	SizeFactor float64 `json:"size_factor,omitempty"`
}

func (p Params) withDefaults() Params {
	if p.Points == 0 {
		p.Points = 5
	}
	if p.InnerRatio == 0 {
		p.InnerRatio = 0.4
	}
	if p.SizeFactor == 0 {
		p.SizeFactor = 0.8
	}
	return p
}

func (p Params) validate(shape Shape) error {
	switch shape {
	case Star:
		if p.Points < 3 {
			return fmt.Errorf("star needs at least 3 points, got %d", p.Points)
		}
		if p.InnerRatio <= 0 || p.InnerRatio > 1 {
			return fmt.Errorf("star inner ratio %v outside (0, 1]", p.InnerRatio)
		}
	case Heart, Hexagon:
		if p.SizeFactor <= 0 || p.SizeFactor > 1 {
			return fmt.Errorf("size factor %v outside (0, 1]", p.SizeFactor)
		}
	case Circle:
		if p.Radius < 0 {
			return fmt.Errorf("negative circle radius %v", p.Radius)
		}
	}
	return nil
}

// Generate renders shape into a w×h alpha mask.
func Generate(shape Shape, w, h int, p Params) (*image.Alpha, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidParams, w, h)
	}
	p = p.withDefaults()
	if err := p.validate(shape); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	cx, cy := float64(w)/2, float64(h)/2
	half := math.Min(float64(w), float64(h)) / 2

	var inside func(x, y float64) bool
	switch shape {
	case Rectangle:
		inside = func(x, y float64) bool { return true }
	case Circle:
		if p.CenterX != 0 {
			cx = p.CenterX
		}
		if p.CenterY != 0 {
			cy = p.CenterY
		}
		r := p.Radius
		if r == 0 {
			r = half * 0.8
		}
		inside = func(x, y float64) bool { return (x-cx)*(x-cx)+(y-cy)*(y-cy) <= r*r }
	case Star:
		outer := half * 0.8
		inside = polygon(starVertices(cx, cy, outer, outer*p.InnerRatio, p.Points, p.Rotation*math.Pi/180))
	case Hexagon:
		inside = polygon(regularVertices(cx, cy, half*p.SizeFactor, 6, 0))
	case Heart:
		scale := half * p.SizeFactor
		inside = func(x, y float64) bool {
			nx := (x - cx) / scale
			// flip so the point faces down in image coordinates
			ny := -(y - cy) / scale
			a := nx*nx + ny*ny - 1
			return a*a*a-nx*nx*ny*ny*ny <= 0
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownShape, shape)
	}

	out := image.NewAlpha(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if inside(float64(x)+0.5, float64(y)+0.5) {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out, nil
}

// Coverage returns the fraction of mask pixels that are set.
func Coverage(m *image.Alpha) float64 {
	b := m.Bounds()
	if b.Empty() {
		return 0
	}
	n := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if m.AlphaAt(x, y).A > 0 {
				n++
			}
		}
	}
	return float64(n) / float64(b.Dx()*b.Dy())
}

type point struct{ x, y float64 }

func regularVertices(cx, cy, r float64, n int, rot float64) []point {
	pts := make([]point, n)
	for i := range pts {
		a := rot + float64(i)*2*math.Pi/float64(n)
		pts[i] = point{cx + r*math.Cos(a), cy + r*math.Sin(a)}
	}
	return pts
}

// starVertices alternates outer and inner radii, starting at the top.
func starVertices(cx, cy, outer, inner float64, n int, rot float64) []point {
	pts := make([]point, 2*n)
	for i := range pts {
		r := outer
		if i%2 == 1 {
			r = inner
		}
		a := rot - math.Pi/2 + float64(i)*math.Pi/float64(n)
		pts[i] = point{cx + r*math.Cos(a), cy + r*math.Sin(a)}
	}
	return pts
}

// polygon returns an even-odd point-in-polygon test.
func polygon(pts []point) func(x, y float64) bool {
	return func(x, y float64) bool {
		in := false
		for i, j := 0, len(pts)-1; i < len(pts); j, i = i, i+1 {
			pi, pj := pts[i], pts[j]
			if (pi.y > y) != (pj.y > y) && x < (pj.x-pi.x)*(y-pi.y)/(pj.y-pi.y)+pi.x {
				in = !in
			}
		}
		return in
	}
}
