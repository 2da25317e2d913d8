package canvas

import (
	"errors"
	"fmt"
	"image"
)

// ErrInvalidRegion is returned when a region has non-positive dimensions or
// reaches outside the image it refers to. It is detected before any pixel work.
var ErrInvalidRegion = errors.New("invalid region")

// ErrUnknownMethod is returned for resize method names outside Methods.
var ErrUnknownMethod = errors.New("unknown resize method")

// Size is a width/height pair in pixels.
type Size struct {
	W int `json:"width" mapstructure:"width" yaml:"width"`
	H int `json:"height" mapstructure:"height" yaml:"height"`
}

// DefaultSize is the standard canvas resolution (portrait 4:3 at 2430x3240).
var DefaultSize = Size{W: 2430, H: 3240}

// SizeOf returns the dimensions of img.
func SizeOf(img image.Image) Size {
	b := img.Bounds()
	return Size{W: b.Dx(), H: b.Dy()}
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool { return s.W > 0 && s.H > 0 }

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.W, s.H) }

// Region is an axis-aligned rectangle given by its top-left corner and size.
type Region struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	W int `json:"width" yaml:"width"`
	H int `json:"height" yaml:"height"`
}

// RegionFromRect converts an image.Rectangle.
func RegionFromRect(r image.Rectangle) Region {
	return Region{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}

// Rect returns the region as a half-open image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// Area returns W*H.
func (r Region) Area() int { return r.W * r.H }

func (r Region) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.W, r.H)
}

// Validate checks 0<=x, 0<=y, x+w<=W, y+h<=H and w,h>0 against bounds.
func (r Region) Validate(bounds Size) error {
	if r.W <= 0 || r.H <= 0 {
		return fmt.Errorf("%w: %v has non-positive size", ErrInvalidRegion, r)
	}
	if r.X < 0 || r.Y < 0 || r.X+r.W > bounds.W || r.Y+r.H > bounds.H {
		return fmt.Errorf("%w: %v outside %v", ErrInvalidRegion, r, bounds)
	}
	return nil
}

// Contains reports whether the pixel (x, y) lies inside the region.
func (r Region) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}
