package enhance

import (
	"fmt"
	"image"

	"github.com/lilseedabe/pozt/internal/imaging"
)

// ApplyCLAHE runs contrast-limited adaptive histogram equalization on each
// channel. The image is split into a tiles×tiles grid; each tile's histogram
// is clipped at clipLimit times the mean bin count, the excess is spread
// evenly over all bins, and pixels take a bilinear blend of the four nearest
// tile mappings.
func ApplyCLAHE(img image.Image, clipLimit float64, tiles int) (image.Image, error) {
	if clipLimit <= 0 {
		return nil, fmt.Errorf("%w: clahe clip limit must be positive, got %v", ErrInvalidParams, clipLimit)
	}
	if tiles < 1 || tiles > 64 {
		return nil, fmt.Errorf("%w: clahe tiles %d outside 1-64", ErrInvalidParams, tiles)
	}
	if g, ok := img.(*image.Gray); ok {
		p := imaging.GrayPlane(g)
		return claheChannel(p, clipLimit, tiles).ToGray(), nil
	}
	ch := imaging.ChannelPlanes(img)
	for i := range ch {
		ch[i] = claheChannel(ch[i], clipLimit, tiles)
	}
	return imaging.MergePlanes(ch[0], ch[1], ch[2]), nil
}

func claheChannel(p *imaging.Plane, clipLimit float64, tiles int) *imaging.Plane {
	tw := (p.W + tiles - 1) / tiles
	th := (p.H + tiles - 1) / tiles
	nx := (p.W + tw - 1) / tw
	ny := (p.H + th - 1) / th

	luts := make([][256]float64, nx*ny)
	for ty := 0; ty < ny; ty++ {
		for tx := 0; tx < nx; tx++ {
			x0, y0 := tx*tw, ty*th
			x1, y1 := min(x0+tw, p.W), min(y0+th, p.H)
			luts[ty*nx+tx] = tileLUT(p, x0, y0, x1, y1, clipLimit)
		}
	}

	out := imaging.NewPlane(p.W, p.H)
	for y := 0; y < p.H; y++ {
		fy := (float64(y)+0.5)/float64(th) - 0.5
		ty0, wy := splitCoord(fy, ny)
		for x := 0; x < p.W; x++ {
			fx := (float64(x)+0.5)/float64(tw) - 0.5
			tx0, wx := splitCoord(fx, nx)
			tx1, ty1 := min(tx0+1, nx-1), min(ty0+1, ny-1)

			v := imaging.ToUint8(p.Pix[y*p.W+x])
			top := luts[ty0*nx+tx0][v]*(1-wx) + luts[ty0*nx+tx1][v]*wx
			bot := luts[ty1*nx+tx0][v]*(1-wx) + luts[ty1*nx+tx1][v]*wx
			out.Pix[y*p.W+x] = top*(1-wy) + bot*wy
		}
	}
	return out
}

// splitCoord returns the lower tile index for a fractional tile coordinate
// and the weight of the next tile, clamped at the grid border.
func splitCoord(f float64, n int) (int, float64) {
	if f <= 0 {
		return 0, 0
	}
	i := int(f)
	if i >= n-1 {
		return n - 1, 0
	}
	return i, f - float64(i)
}

func tileLUT(p *imaging.Plane, x0, y0, x1, y1 int, clipLimit float64) [256]float64 {
	var hist [256]int
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			hist[imaging.ToUint8(p.Pix[y*p.W+x])]++
		}
	}
	area := (x1 - x0) * (y1 - y0)

	limit := max(int(clipLimit*float64(area)/256), 1)
	excess := 0
	for i, c := range hist {
		if c > limit {
			excess += c - limit
			hist[i] = limit
		}
	}
	share, rest := excess/256, excess%256
	for i := range hist {
		hist[i] += share
	}
	// spread the remainder over evenly spaced bins
	if rest > 0 {
		step := max(256/rest, 1)
		for i := 0; i < 256 && rest > 0; i += step {
			hist[i]++
			rest--
		}
	}

	var lut [256]float64
	scale := 255 / float64(area)
	sum := 0
	for i, c := range hist {
		sum += c
		lut[i] = imaging.ClipFloat(float64(sum)*scale, 0, 255)
	}
	return lut
}
