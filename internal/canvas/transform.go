package canvas

import (
	"fmt"
	"math"
	"strings"
)

// Method selects how a source image is fitted onto the canvas.
type Method string

const (
	// Contain scales uniformly so the whole source fits, letterboxing with black.
	Contain Method = "contain"
	// Cover scales uniformly so the canvas is filled, cropping the overflow
	// symmetrically.
	Cover Method = "cover"
	// Stretch scales each axis independently to the canvas size.
	Stretch Method = "stretch"
)

// Methods lists the supported fit methods.
var Methods = []Method{Contain, Cover, Stretch}

// ParseMethod parses a method name, case-insensitively. The empty string
// selects Contain.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case "", Contain:
		return Contain, nil
	case Cover:
		return Cover, nil
	case Stretch:
		return Stretch, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Transform is the affine source-to-canvas mapping produced by a fit:
//
//	canvasX = srcX*ScaleX + OffX
//	canvasY = srcY*ScaleY + OffY
//
// Offsets are negative for Cover, where the scaled source overflows the canvas.
type Transform struct {
	Source Size    `json:"source" yaml:"source"`
	Canvas Size    `json:"canvas" yaml:"canvas"`
	Method Method  `json:"method" yaml:"method"`
	ScaleX float64 `json:"scale_x" yaml:"scale_x"`
	ScaleY float64 `json:"scale_y" yaml:"scale_y"`
	OffX   float64 `json:"offset_x" yaml:"offset_x"`
	OffY   float64 `json:"offset_y" yaml:"offset_y"`
}

// layout is the integer placement of the scaled source on the canvas: the
// source is resized to scaled and its top-left lands at (originX, originY).
type layout struct {
	scaled           Size
	originX, originY int
}

// planLayout computes the integer resize target and placement for a fit.
func planLayout(src, dst Size, m Method) (layout, error) {
	if !src.Valid() || !dst.Valid() {
		return layout{}, fmt.Errorf("invalid sizes: source %v, canvas %v", src, dst)
	}
	sx := float64(dst.W) / float64(src.W)
	sy := float64(dst.H) / float64(src.H)

	switch m {
	case Contain:
		s := math.Min(sx, sy)
		w := clampInt(int(math.Round(float64(src.W)*s)), 1, dst.W)
		h := clampInt(int(math.Round(float64(src.H)*s)), 1, dst.H)
		return layout{scaled: Size{w, h}, originX: (dst.W - w) / 2, originY: (dst.H - h) / 2}, nil
	case Cover:
		s := math.Max(sx, sy)
		w := maxInt(int(math.Round(float64(src.W)*s)), dst.W)
		h := maxInt(int(math.Round(float64(src.H)*s)), dst.H)
		return layout{scaled: Size{w, h}, originX: -(w - dst.W) / 2, originY: -(h - dst.H) / 2}, nil
	case Stretch:
		return layout{scaled: dst}, nil
	}
	return layout{}, fmt.Errorf("%w: %q", ErrUnknownMethod, m)
}

// NewTransform returns the transform Fit would use for a source of size src.
func NewTransform(src, dst Size, m Method) (Transform, error) {
	l, err := planLayout(src, dst, m)
	if err != nil {
		return Transform{}, err
	}
	return l.transform(src, dst, m), nil
}

func (l layout) transform(src, dst Size, m Method) Transform {
	return Transform{
		Source: src,
		Canvas: dst,
		Method: m,
		ScaleX: float64(l.scaled.W) / float64(src.W),
		ScaleY: float64(l.scaled.H) / float64(src.H),
		OffX:   float64(l.originX),
		OffY:   float64(l.originY),
	}
}

// Apply maps a source region onto the canvas.
//
// Each edge is mapped in floating point and rounded once. The result is then
// clamped to the canvas: the position to [0, size-1] and the extent so it never
// passes the canvas edge. A region that lies entirely outside the visible part
// of the canvas (possible with Cover) is an ErrInvalidRegion.
func (t Transform) Apply(r Region) (Region, error) {
	if err := r.Validate(t.Source); err != nil {
		return Region{}, err
	}
	fx0 := float64(r.X)*t.ScaleX + t.OffX
	fy0 := float64(r.Y)*t.ScaleY + t.OffY
	fx1 := float64(r.X+r.W)*t.ScaleX + t.OffX
	fy1 := float64(r.Y+r.H)*t.ScaleY + t.OffY
	if fx1 <= 0 || fy1 <= 0 || fx0 >= float64(t.Canvas.W) || fy0 >= float64(t.Canvas.H) {
		return Region{}, fmt.Errorf("%w: %v maps outside the visible canvas", ErrInvalidRegion, r)
	}

	x0, y0, x1, y1 := roundInt(fx0), roundInt(fy0), roundInt(fx1), roundInt(fy1)
	x0 = clampInt(x0, 0, t.Canvas.W-1)
	y0 = clampInt(y0, 0, t.Canvas.H-1)
	x1 = clampInt(x1, x0+1, t.Canvas.W)
	y1 = clampInt(y1, y0+1, t.Canvas.H)
	return Region{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}, nil
}

// Invert maps a canvas region back into source coordinates, clamped to the
// source bounds. Letterbox areas map to the nearest source edge.
func (t Transform) Invert(r Region) Region {
	x0 := roundInt((float64(r.X) - t.OffX) / t.ScaleX)
	y0 := roundInt((float64(r.Y) - t.OffY) / t.ScaleY)
	x1 := roundInt((float64(r.X+r.W) - t.OffX) / t.ScaleX)
	y1 := roundInt((float64(r.Y+r.H) - t.OffY) / t.ScaleY)

	x0 = clampInt(x0, 0, t.Source.W-1)
	y0 = clampInt(y0, 0, t.Source.H-1)
	x1 = clampInt(x1, x0+1, t.Source.W)
	y1 = clampInt(y1, y0+1, t.Source.H)
	return Region{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// MapRegion maps region from a source of size src onto a canvas of size dst.
func MapRegion(region Region, src, dst Size, m Method) (Region, error) {
	t, err := NewTransform(src, dst, m)
	if err != nil {
		return Region{}, err
	}
	return t.Apply(region)
}

func roundInt(v float64) int { return int(math.Round(v)) }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
