package moire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lilseedabe/pozt/internal/canvas"
	"github.com/lilseedabe/pozt/internal/compose"
	"github.com/lilseedabe/pozt/internal/detection"
	"github.com/lilseedabe/pozt/internal/enhance"
	"github.com/lilseedabe/pozt/internal/extract"
	"github.com/lilseedabe/pozt/internal/imaging"
	"github.com/lilseedabe/pozt/internal/mask"
	"github.com/lilseedabe/pozt/internal/ocr"
	"github.com/lilseedabe/pozt/internal/pattern"
	"github.com/lilseedabe/pozt/internal/preview"
)

func newTestEngine(t *testing.T, size canvas.Size) *Engine {
	t.Helper()
	e, err := New(Options{Canvas: size})
	require.NoError(t, err)
	return e
}

// gradientImage varies red along x and green along y.
func gradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 255 / max(1, w-1)), uint8(y * 255 / max(1, h-1)), 90, 255})
		}
	}
	return img
}

func TestNew_Defaults(t *testing.T) {
	e, err := New(Options{})
	require.NoError(t, err)
	assert.Equal(t, canvas.DefaultSize, e.Canvas())

	_, err = New(Options{Canvas: canvas.Size{W: -1, H: 10}})
	assert.Equal(t, ClassInvalidArgument, Classify(err))
}

func TestEmbed_OutsideRegionUnchanged(t *testing.T) {
	size := canvas.Size{W: 200, H: 200}
	e := newTestEngine(t, size)
	base := gradientImage(200, 200)

	res, err := e.Embed(context.Background(), EmbedRequest{
		Base:   base,
		Hidden: gradientImage(30, 30),
		Region: canvas.Region{X: 10, Y: 10, W: 50, H: 50},
		Method: canvas.Stretch,
		Spec:   pattern.Spec{Strategy: pattern.Perfect},
	})
	require.NoError(t, err)

	assert.Equal(t, canvas.Region{X: 10, Y: 10, W: 50, H: 50}, res.Region)
	assert.Equal(t, base.NRGBAAt(5, 5), res.Image.NRGBAAt(5, 5))
	assert.Equal(t, base.NRGBAAt(65, 65), res.Image.NRGBAAt(65, 65))
	assert.Equal(t, pattern.Perfect, res.Strategy)
	assert.False(t, res.Fallback)
}

func TestEmbed_Containment(t *testing.T) {
	size := canvas.Size{W: 120, H: 160}
	e := newTestEngine(t, size)
	base := gradientImage(300, 200)
	border := &compose.Border{Width: 3, Color: imaging.RGBColor{R: 255}}

	for _, method := range canvas.Methods {
		for _, strategy := range pattern.Strategies {
			t.Run(fmt.Sprintf("%s/%s", method, strategy), func(t *testing.T) {
				res, err := e.Embed(context.Background(), EmbedRequest{
					Base:   base,
					Region: canvas.Region{X: 120, Y: 60, W: 80, H: 60},
					Method: method,
					Spec:   pattern.Spec{Strategy: strategy},
					Border: border,
				})
				require.NoError(t, err)

				fitted, _, err := canvas.Fit(base, size, method)
				require.NoError(t, err)
				diff, err := imaging.Diff(fitted, res.Image)
				require.NoError(t, err)

				allowed := compose.BorderMargin(res.Region, border.Width, size)
				assert.True(t, diff.Bounds.In(allowed), "changes %v escape %v", diff.Bounds, allowed)
			})
		}
	}
}

func TestEmbed_Deterministic(t *testing.T) {
	e := newTestEngine(t, canvas.Size{W: 96, H: 128})
	req := EmbedRequest{
		Base:   gradientImage(64, 64),
		Hidden: gradientImage(20, 40),
		Region: canvas.Region{X: 8, Y: 8, W: 40, H: 30},
		Spec:   pattern.Spec{Strategy: pattern.Hybrid, FusionRatio: 0.3},
		Shape:  mask.Star,
	}

	a, err := e.Embed(context.Background(), req)
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, a.Image.Pix, b.Image.Pix)
}

func TestEmbed_RoundTrip(t *testing.T) {
	size := canvas.Size{W: 128, H: 128}
	e := newTestEngine(t, size)
	hidden := image.NewGray(image.Rect(0, 0, 128, 128))
	for y := 0; y < 128; y++ {
		for x := 0; x < 128; x++ {
			hidden.SetGray(x, y, color.Gray{Y: uint8(x * 2)})
		}
	}

	res, err := e.Embed(context.Background(), EmbedRequest{
		Base:           gradientImage(128, 128),
		Hidden:         hidden,
		Region:         canvas.Region{X: 0, Y: 0, W: 128, H: 128},
		RegionInCanvas: true,
		Spec:           pattern.Spec{Strategy: pattern.Perfect},
	})
	require.NoError(t, err)

	got, err := e.Extract(context.Background(), ExtractRequest{
		Image: res.Image,
		Spec:  extract.Spec{Method: extract.PatternSubtraction, Level: 1, Enhancement: enhance.None},
	})
	require.NoError(t, err)

	ncc, err := imaging.NCC(imaging.GrayPlane(got.Image), imaging.GrayPlane(hidden))
	require.NoError(t, err)
	assert.Greater(t, ncc, 0.3)
	assert.Equal(t, "horizontal", got.Metadata.Orientation)
}

func TestEmbed_ShapeMaskUsesCache(t *testing.T) {
	e := newTestEngine(t, canvas.Size{W: 100, H: 100})
	base := gradientImage(100, 100)
	req := EmbedRequest{
		Base:           base,
		Region:         canvas.Region{X: 20, Y: 20, W: 60, H: 60},
		RegionInCanvas: true,
		Spec:           pattern.Spec{Strategy: pattern.Perfect},
		Shape:          mask.Circle,
	}

	res, err := e.Embed(context.Background(), req)
	require.NoError(t, err)
	// corner of the region lies outside the circle
	assert.Equal(t, base.NRGBAAt(21, 21), res.Image.NRGBAAt(21, 21))
	assert.NotEqual(t, base.NRGBAAt(50, 51), res.Image.NRGBAAt(50, 51))

	_, err = e.Embed(context.Background(), req)
	require.NoError(t, err)
	stats := e.masks.Stats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Hits)

	e.ClearCache()
	assert.Equal(t, 0, e.masks.Stats().Entries)
}

func TestEmbed_Outline(t *testing.T) {
	e := newTestEngine(t, canvas.Size{W: 80, H: 80})
	res, err := e.Embed(context.Background(), EmbedRequest{
		Base:           gradientImage(80, 80),
		Region:         canvas.Region{X: 20, Y: 20, W: 40, H: 40},
		RegionInCanvas: true,
		Outline:        true,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Outline)
	assert.Equal(t, OutlineColor.NRGBA(), res.Outline.NRGBAAt(40, 20))
	assert.NotEqual(t, OutlineColor.NRGBA(), res.Image.NRGBAAt(40, 20))
}

func TestEmbed_Errors(t *testing.T) {
	e := newTestEngine(t, canvas.Size{W: 100, H: 100})
	base := gradientImage(100, 100)
	ok := canvas.Region{X: 10, Y: 10, W: 20, H: 20}

	tests := []struct {
		name string
		req  EmbedRequest
		want Class
	}{
		{"missing base", EmbedRequest{Region: ok}, ClassExternalInput},
		{"empty hidden", EmbedRequest{Base: base, Hidden: image.NewGray(image.Rect(0, 0, 0, 0)), Region: ok}, ClassExternalInput},
		{"region outside", EmbedRequest{Base: base, Region: canvas.Region{X: 90, Y: 90, W: 20, H: 20}}, ClassInvalidRegion},
		{"canvas region outside", EmbedRequest{Base: base, Region: canvas.Region{X: 0, Y: 0, W: 0, H: 5}, RegionInCanvas: true}, ClassInvalidRegion},
		{"unknown method", EmbedRequest{Base: base, Region: ok, Method: "squash"}, ClassInvalidArgument},
		{"unknown strategy", EmbedRequest{Base: base, Region: ok, Spec: pattern.Spec{Strategy: "glitter"}}, ClassInvalidArgument},
		{"bad strength", EmbedRequest{Base: base, Region: ok, Spec: pattern.Spec{Strength: 2}}, ClassInvalidArgument},
		{"unknown shape", EmbedRequest{Base: base, Region: ok, Shape: "moon"}, ClassInvalidArgument},
		{"negative border", EmbedRequest{Base: base, Region: ok, Border: &compose.Border{Width: -1}}, ClassInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Embed(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.want, Classify(err), "error: %v", err)
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Embed(ctx, EmbedRequest{Base: base, Region: ok})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestExtract_Substitution(t *testing.T) {
	e, err := New(Options{Canvas: canvas.Size{W: 64, H: 64}, Budget: extract.Budget{FourierMaxEdge: 256}})
	require.NoError(t, err)

	img := image.NewGray(image.Rect(0, 0, 600, 520))
	for y := 0; y < 520; y++ {
		for x := 0; x < 600; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(100 + 100*(y%2))})
		}
	}

	res, err := e.Extract(context.Background(), ExtractRequest{Image: img, Spec: extract.Spec{Method: extract.FourierAnalysis}})
	require.NoError(t, err)
	assert.True(t, res.Metadata.Substituted)
	assert.Equal(t, extract.PatternSubtraction, res.Metadata.Used)
	assert.IsType(t, &image.Gray{}, res.Image)
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.substitutions.WithLabelValues("fourier_analysis", "pattern_subtraction")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.extracts.WithLabelValues("fourier_analysis", "ok")))
}

func TestExtract_RegionAndAutoCrop(t *testing.T) {
	size := canvas.Size{W: 200, H: 200}
	e := newTestEngine(t, size)
	region := canvas.Region{X: 40, Y: 60, W: 100, H: 80}

	flat := image.NewNRGBA(image.Rect(0, 0, 200, 200))
	for i := range flat.Pix {
		flat.Pix[i] = 128
	}
	res, err := e.Embed(context.Background(), EmbedRequest{
		Base:           flat,
		Hidden:         gradientImage(100, 80),
		Region:         region,
		RegionInCanvas: true,
		Spec:           pattern.Spec{Strategy: pattern.Perfect},
	})
	require.NoError(t, err)

	t.Run("explicit region", func(t *testing.T) {
		got, err := e.Extract(context.Background(), ExtractRequest{
			Image:  res.Image,
			Spec:   extract.Spec{Method: extract.PatternSubtraction},
			Region: &region,
		})
		require.NoError(t, err)
		assert.Equal(t, region, got.Region)
		assert.Equal(t, image.Rect(0, 0, 100, 80), got.Image.Bounds())
	})

	t.Run("auto crop", func(t *testing.T) {
		got, err := e.Extract(context.Background(), ExtractRequest{
			Image:    res.Image,
			Spec:     extract.Spec{Method: extract.PatternSubtraction},
			AutoCrop: true,
		})
		require.NoError(t, err)
		require.NotNil(t, got.Carrier)
		require.True(t, got.Carrier.Found)
		assert.Equal(t, pattern.Horizontal, got.Carrier.Orientation)
		assert.InDelta(t, region.X, got.Region.X, 2)
		assert.InDelta(t, region.Y, got.Region.Y, 2)
		assert.InDelta(t, region.W, got.Region.W, 3)
		assert.InDelta(t, region.H, got.Region.H, 3)
	})

	t.Run("auto crop without carrier", func(t *testing.T) {
		got, err := e.Extract(context.Background(), ExtractRequest{
			Image:    flat,
			Spec:     extract.Spec{Method: extract.PatternSubtraction},
			AutoCrop: true,
		})
		require.NoError(t, err)
		assert.False(t, got.Carrier.Found)
		assert.Equal(t, canvas.Region{W: 200, H: 200}, got.Region)
		assert.Contains(t, got.Metadata.Notes, "no carrier detected; extracted the whole image")
	})

	t.Run("region outside", func(t *testing.T) {
		bad := canvas.Region{X: 150, Y: 150, W: 100, H: 100}
		_, err := e.Extract(context.Background(), ExtractRequest{Image: res.Image, Region: &bad})
		assert.Equal(t, ClassInvalidRegion, Classify(err))
	})
}

func TestExtract_OCRUnavailableIsANote(t *testing.T) {
	if ocr.Available() {
		t.Skip("Tesseract installed; the unavailable path is not reachable")
	}
	e := newTestEngine(t, canvas.Size{W: 32, H: 32})
	res, err := e.Extract(context.Background(), ExtractRequest{
		Image: gradientImage(32, 32),
		Spec:  extract.Spec{Method: extract.PatternSubtraction},
		OCR:   &ocr.Options{},
	})
	require.NoError(t, err)
	assert.Nil(t, res.Reading)
	assert.Contains(t, res.Metadata.Notes, "ocr unavailable")
}

func TestExtract_Errors(t *testing.T) {
	e := newTestEngine(t, canvas.Size{W: 32, H: 32})
	img := gradientImage(32, 32)

	tests := []struct {
		name string
		req  ExtractRequest
		want Class
	}{
		{"missing image", ExtractRequest{}, ClassExternalInput},
		{"negative level", ExtractRequest{Image: img, Spec: extract.Spec{Level: -1}}, ClassInvalidArgument},
		{"unknown method", ExtractRequest{Image: img, Spec: extract.Spec{Method: "xray"}}, ClassInvalidArgument},
		{"unknown enhancement", ExtractRequest{Image: img, Spec: extract.Spec{Enhancement: "sepia"}}, ClassInvalidArgument},
		{"bad detection options", ExtractRequest{Image: img, AutoCrop: true, Detection: detection.Options{Anisotropy: 0.5}}, ClassInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Extract(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.want, Classify(err), "error: %v", err)
		})
	}
}

func TestPreview(t *testing.T) {
	e := newTestEngine(t, canvas.Size{W: 64, H: 64})
	img := gradientImage(64, 64)
	r := canvas.Region{X: 8, Y: 8, W: 32, H: 32}

	for _, kind := range preview.Kinds {
		out, err := e.Preview(context.Background(), img, kind, r, 0)
		require.NoError(t, err, kind)
		assert.Equal(t, img.Bounds(), out.Bounds())
		assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.previews.WithLabelValues(string(kind), "ok")))
	}

	_, err := e.Preview(context.Background(), img, "fisheye", r, 0)
	assert.Equal(t, ClassInvalidArgument, Classify(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.previews.WithLabelValues("fisheye", "invalid_argument")))
}

func TestMapRegion(t *testing.T) {
	e := newTestEngine(t, canvas.Size{W: 200, H: 400})

	got, tr, err := e.MapRegion(canvas.Region{X: 10, Y: 10, W: 20, H: 20}, canvas.Size{W: 100, H: 100}, canvas.Contain)
	require.NoError(t, err)
	assert.Equal(t, canvas.Region{X: 20, Y: 120, W: 40, H: 40}, got)
	assert.Equal(t, canvas.Contain, tr.Method)

	_, _, err = e.MapRegion(canvas.Region{X: 0, Y: 0, W: 5, H: 5}, canvas.Size{}, canvas.Contain)
	assert.Equal(t, ClassInvalidArgument, Classify(err))
	_, _, err = e.MapRegion(canvas.Region{X: 0, Y: 0, W: 5, H: 5}, canvas.Size{W: 10, H: 10}, "fold")
	assert.Equal(t, ClassInvalidArgument, Classify(err))
}

func TestStats(t *testing.T) {
	e := newTestEngine(t, canvas.Size{W: 64, H: 64})
	_, err := e.Embed(context.Background(), EmbedRequest{
		Base:           gradientImage(64, 64),
		Region:         canvas.Region{X: 0, Y: 0, W: 32, H: 32},
		RegionInCanvas: true,
		Spec:           pattern.Spec{Strategy: pattern.Overlay},
	})
	require.NoError(t, err)

	stats, err := e.Stats()
	require.NoError(t, err)

	var embeds, durations float64
	for _, s := range stats.Metrics {
		switch {
		case s.Name == "pozt_embed_total" && s.Labels["strategy"] == "overlay" && s.Labels["status"] == "ok":
			embeds = s.Value
		case s.Name == "pozt_operation_duration_seconds_count" && s.Labels["operation"] == "embed":
			durations = s.Value
		}
	}
	assert.Equal(t, 1.0, embeds)
	assert.Equal(t, 1.0, durations)
}

func TestEngine_Logging(t *testing.T) {
	var buf bytes.Buffer
	e, err := New(Options{
		Canvas: canvas.Size{W: 64, H: 64},
		Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), EmbedRequest{
		Base:   gradientImage(64, 64),
		Region: canvas.Region{X: 4, Y: 4, W: 16, H: 16},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "mapped region")
	assert.Contains(t, buf.String(), "composited region")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Class
	}{
		{nil, ""},
		{fmt.Errorf("wrap: %w", canvas.ErrInvalidRegion), ClassInvalidRegion},
		{fmt.Errorf("wrap: %w", imaging.ErrUnreadableImage), ClassExternalInput},
		{fmt.Errorf("open: %w", fs.ErrNotExist), ClassExternalInput},
		{pattern.ErrUnknownStrategy, ClassInvalidArgument},
		{extract.ErrUnknownMethod, ClassInvalidArgument},
		{enhance.ErrInvalidParams, ClassInvalidArgument},
		{mask.ErrUnknownShape, ClassInvalidArgument},
		{preview.ErrInvalidZoom, ClassInvalidArgument},
		{ErrInvalidArgument, ClassInvalidArgument},
		{errors.New("disk on fire"), ClassInternal},
		{context.Canceled, ClassInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err), "%v", tt.err)
	}
}
