package imaging

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// createInMemoryImage creates a solid-color RGBA image.
func createInMemoryImage(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		input   string
		want    RGBColor
		wantErr bool
	}{
		{"#000000", RGBColor{0, 0, 0}, false},
		{"#FFFFFF", RGBColor{255, 255, 255}, false},
		{"ff8000", RGBColor{255, 128, 0}, false},
		{"#0f0", RGBColor{0, 255, 0}, false},
		{" #102030 ", RGBColor{16, 32, 48}, false},
		{"", RGBColor{}, true},
		{"#12345", RGBColor{}, true},
		{"#GGGGGG", RGBColor{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseHex(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseHex(%q) should fail", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHex(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseHex(%q): got %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRGBColor_Hex(t *testing.T) {
	if got := (RGBColor{255, 128, 0}).Hex(); got != "#FF8000" {
		t.Errorf("Hex: got %s, want #FF8000", got)
	}
}

func TestRGBColor_HSVRoundTrip(t *testing.T) {
	colors := []RGBColor{{200, 30, 40}, {0, 0, 0}, {255, 255, 255}, {12, 180, 90}}
	for _, c := range colors {
		h, s, v := c.HSV()
		back := FromHSV(h, s, v)
		if absDiff(back.R, c.R) > 1 || absDiff(back.G, c.G) > 1 || absDiff(back.B, c.B) > 1 {
			t.Errorf("HSV round trip of %+v gave %+v", c, back)
		}
	}
}

func TestRGBColor_Luma(t *testing.T) {
	if got := White.Luma(); math.Abs(got-255) > 1e-9 {
		t.Errorf("white luma: got %f, want 255", got)
	}
	if got := Black.Luma(); got != 0 {
		t.Errorf("black luma: got %f, want 0", got)
	}
}

func TestMeanColor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 1))
	img.Set(0, 0, color.RGBA{0, 0, 0, 255})
	img.Set(1, 0, color.RGBA{100, 50, 200, 255})
	img.Set(2, 0, color.RGBA{255, 255, 255, 255})
	img.Set(3, 0, color.RGBA{255, 255, 255, 255})

	got, err := MeanColor(img, image.Rect(0, 0, 2, 1))
	if err != nil {
		t.Fatalf("MeanColor failed: %v", err)
	}
	if got != (RGBColor{50, 25, 100}) {
		t.Errorf("MeanColor: got %+v, want {50 25 100}", got)
	}

	if _, err := MeanColor(img, image.Rect(10, 10, 12, 12)); err == nil {
		t.Error("MeanColor should fail for a region outside the image")
	}
}
