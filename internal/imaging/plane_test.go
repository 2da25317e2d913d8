package imaging

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestGrayPlane_Luma(t *testing.T) {
	img := createInMemoryImage(3, 3, color.RGBA{255, 0, 0, 255})
	p := GrayPlane(img)
	if p.W != 3 || p.H != 3 {
		t.Fatalf("dimensions: got %dx%d, want 3x3", p.W, p.H)
	}
	if math.Abs(p.At(1, 1)-0.299*255) > 1e-9 {
		t.Errorf("red luma: got %f, want %f", p.At(1, 1), 0.299*255)
	}
}

func TestGrayPlane_OffsetBounds(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 6, 6))
	g.SetGray(3, 4, color.Gray{200})
	sub := g.SubImage(image.Rect(2, 2, 6, 6))

	p := GrayPlane(sub)
	if p.W != 4 || p.H != 4 {
		t.Fatalf("dimensions: got %dx%d, want 4x4", p.W, p.H)
	}
	if p.At(1, 2) != 200 {
		t.Errorf("re-based pixel: got %f, want 200", p.At(1, 2))
	}
}

func TestPlane_ToGrayClipsAndRounds(t *testing.T) {
	p := &Plane{W: 4, H: 1, Pix: []float64{-10, 12.5, 254.6, 900}}
	g := p.ToGray()
	want := []uint8{0, 13, 255, 255}
	for x, w := range want {
		if got := g.GrayAt(x, 0).Y; got != w {
			t.Errorf("pixel %d: got %d, want %d", x, got, w)
		}
	}
}

func TestPlane_Normalize(t *testing.T) {
	p := &Plane{W: 3, H: 1, Pix: []float64{10, 20, 30}}
	p.Normalize()
	if p.Pix[0] != 0 || p.Pix[2] != 255 || math.Abs(p.Pix[1]-127.5) > 1e-9 {
		t.Errorf("Normalize: got %v", p.Pix)
	}

	flat := FilledPlane(2, 2, 7)
	flat.Normalize()
	for _, v := range flat.Pix {
		if v != 0 {
			t.Fatalf("constant plane should normalize to zeros, got %v", flat.Pix)
		}
	}
}

func TestChannelPlanesMergeRoundTrip(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{10, 20, 30, 255})
	img.SetNRGBA(1, 1, color.NRGBA{200, 100, 50, 255})

	ch := ChannelPlanes(img)
	out := MergePlanes(ch[0], ch[1], ch[2])
	d, err := Diff(img, out)
	if err != nil {
		t.Fatal(err)
	}
	// Transparent pixels come back opaque, colour channels must match.
	if d.MaxChannelDiff != 0 {
		t.Errorf("channel round trip changed values by %d", d.MaxChannelDiff)
	}
}

func TestToNRGBA_IsCopy(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	dst := ToNRGBA(src)
	dst.Pix[0] = 99
	if src.Pix[0] == 99 {
		t.Error("ToNRGBA must not alias its input")
	}
}

func TestToUint8(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-1, 0}, {0.4, 0}, {0.5, 1}, {127.5, 128}, {255, 255}, {1e9, 255}, {math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := ToUint8(tt.in); got != tt.want {
			t.Errorf("ToUint8(%v): got %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, min, max, want int
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{15, 0, 10, 10},
		{0, 0, 10, 0},
		{10, 0, 10, 10},
	}
	for _, tt := range tests {
		if got := clamp(tt.val, tt.min, tt.max); got != tt.want {
			t.Errorf("clamp(%d, %d, %d): got %d, want %d", tt.val, tt.min, tt.max, got, tt.want)
		}
	}
}
