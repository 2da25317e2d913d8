package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// Common colors used as defaults for carriers and borders.
var (
	Black = RGBColor{0, 0, 0}
	White = RGBColor{255, 255, 255}
)

// ParseHex parses "#RRGGBB", "RRGGBB" or the short "#RGB" form.
func ParseHex(s string) (RGBColor, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RGBColor{}, fmt.Errorf("empty color string")
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) != 4 && len(s) != 7 {
		return RGBColor{}, fmt.Errorf("invalid hex color %q: expected #RGB or #RRGGBB", s)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return RGBColor{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return RGBColor{R: r, G: g, B: b}, nil
}

// MustParseHex is ParseHex for compile-time constants.
func MustParseHex(s string) RGBColor {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats the color as "#RRGGBB" in upper case.
func (c RGBColor) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// NRGBA returns the opaque color.NRGBA equivalent.
func (c RGBColor) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// Luma returns the BT.601 gray value of the color.
func (c RGBColor) Luma() float64 {
	return Luma(float64(c.R), float64(c.G), float64(c.B))
}

// HSV returns hue in degrees [0, 360) and saturation/value in [0, 1].
func (c RGBColor) HSV() (h, s, v float64) {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hsv()
}

// FromHSV builds an 8-bit color from hue in degrees and saturation/value in [0, 1].
func FromHSV(h, s, v float64) RGBColor {
	r, g, b := colorful.Hsv(h, s, v).Clamped().RGB255()
	return RGBColor{R: r, G: g, B: b}
}

// MeanColor returns the per-channel average of img inside r. The rectangle is
// intersected with the image bounds; an empty intersection is an error.
func MeanColor(img image.Image, r image.Rectangle) (RGBColor, error) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return RGBColor{}, fmt.Errorf("empty sampling region")
	}
	var sr, sg, sb float64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			sr += float64(cr >> 8)
			sg += float64(cg >> 8)
			sb += float64(cb >> 8)
		}
	}
	n := float64(r.Dx() * r.Dy())
	return RGBColor{R: ToUint8(sr / n), G: ToUint8(sg / n), B: ToUint8(sb / n)}, nil
}
