package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// OutlineRegion returns a copy of img with a rectangle outline drawn just
// inside r and, when label is true, the region's "x,y" origin printed above
// its top-left corner. It is a display aid for choosing regions on the fixed
// canvas and never feeds back into embedding.
func OutlineRegion(img image.Image, r image.Rectangle, thickness int, c RGBColor, label bool) (*image.NRGBA, error) {
	bounds := img.Bounds()
	if r.Empty() || !r.In(bounds) {
		return nil, fmt.Errorf("outline region %v outside image bounds %v", r, bounds)
	}
	if thickness < 1 {
		thickness = 1
	}

	out := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Src)
	r = r.Sub(bounds.Min)

	fill := &image.Uniform{C: c.NRGBA()}
	for i := 0; i < thickness; i++ {
		inner := r.Inset(i)
		if inner.Empty() {
			break
		}
		draw.Draw(out, image.Rect(inner.Min.X, inner.Min.Y, inner.Max.X, inner.Min.Y+1), fill, image.Point{}, draw.Src)
		draw.Draw(out, image.Rect(inner.Min.X, inner.Max.Y-1, inner.Max.X, inner.Max.Y), fill, image.Point{}, draw.Src)
		draw.Draw(out, image.Rect(inner.Min.X, inner.Min.Y, inner.Min.X+1, inner.Max.Y), fill, image.Point{}, draw.Src)
		draw.Draw(out, image.Rect(inner.Max.X-1, inner.Min.Y, inner.Max.X, inner.Max.Y), fill, image.Point{}, draw.Src)
	}

	if label {
		text := fmt.Sprintf("%d,%d", r.Min.X+bounds.Min.X, r.Min.Y+bounds.Min.Y)
		drawLabel(out, r.Min.X, r.Min.Y-8, text, color.NRGBA{255, 255, 255, 255}, color.NRGBA{0, 0, 0, 180})
	}
	return out, nil
}

// drawLabel renders text with a 3x5 pixel font for digits and comma on a
// filled background. Pixels outside the image are skipped.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		',': {"000", "000", "000", "010", "010"},
	}

	bounds := img.Bounds()
	const charWidth = 4
	const labelHeight = 7
	inside := func(px, py int) bool { return image.Pt(px, py).In(bounds) }

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < len(text)*charWidth; dx++ {
			if inside(x+dx, y+dy) {
				img.SetNRGBA(x+dx, y+dy, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		if glyph, ok := glyphs[ch]; ok {
			for row, line := range glyph {
				for col, pixel := range line {
					if pixel == '1' && inside(cx+col, y+row) {
						img.SetNRGBA(cx+col, y+row, fg)
					}
				}
			}
		}
		cx += charWidth
	}
}
