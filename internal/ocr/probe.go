package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	pimg "github.com/lilseedabe/pozt/internal/imaging"
)

// ErrInvalidOptions is returned for out-of-range probe options.
var ErrInvalidOptions = errors.New("invalid ocr options")

// DefaultLanguage is the Tesseract language used when none is given.
const DefaultLanguage = "eng"

// Options tunes a probe.
type Options struct {
	// Language is a Tesseract language code (default "eng").
	Language string `json:"language,omitempty"`
	// MinConfidence is the mean word confidence (0-1) above which the
	// reading counts as legible (default 0.6).
	MinConfidence float64 `json:"min_confidence,omitempty"`
	// Scale upsamples the image before recognition (default 1, max 4).
	// Recovered images are often small and Tesseract prefers tall glyphs.
	Scale int `json:"scale,omitempty"`
}

func (o Options) withDefaults() Options {
	if o.Language == "" {
		o.Language = DefaultLanguage
	}
	if o.MinConfidence == 0 {
		o.MinConfidence = 0.6
	}
	if o.Scale == 0 {
		o.Scale = 1
	}
	return o
}

// Word is one recognised word with its box in the probed image.
type Word struct {
	Text       string          `json:"text"`
	Confidence float64         `json:"confidence"`
	Bounds     image.Rectangle `json:"bounds"`
}

// Reading is the outcome of a probe.
type Reading struct {
	Text  string `json:"text"`
	Words []Word `json:"words"`
	// Confidence is the mean word confidence, 0 without words.
	Confidence float64 `json:"confidence"`
	Legible    bool    `json:"legible"`
}

// Available reports whether the Tesseract engine can be initialised.
func Available() bool {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version() != ""
}

// Probe runs Tesseract on img. Word boxes are reported in the coordinates of
// img, whatever Scale was used for recognition.
func Probe(ctx context.Context, img image.Image, opts Options) (*Reading, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", pimg.ErrUnreadableImage)
	}
	opts = opts.withDefaults()
	if opts.Scale < 1 || opts.Scale > 4 {
		return nil, fmt.Errorf("%w: scale %d outside 1-4", ErrInvalidOptions, opts.Scale)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := imaging.Grayscale(img)
	if opts.Scale > 1 {
		b := src.Bounds()
		src = imaging.Resize(src, b.Dx()*opts.Scale, b.Dy()*opts.Scale, imaging.Lanczos)
	}
	data, err := pimg.EncodePNG(src)
	if err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(opts.Language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	reading := &Reading{Text: strings.TrimSpace(text), Words: []Word{}}

	// Return just text if boxes fail
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return reading, nil
	}

	var sum float64
	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" {
			continue
		}
		conf := float64(box.Confidence) / 100.0
		sum += conf
		reading.Words = append(reading.Words, Word{
			Text:       word,
			Confidence: conf,
			Bounds: image.Rect(
				box.Box.Min.X/opts.Scale, box.Box.Min.Y/opts.Scale,
				box.Box.Max.X/opts.Scale, box.Box.Max.Y/opts.Scale,
			),
		})
	}
	if n := len(reading.Words); n > 0 {
		reading.Confidence = sum / float64(n)
		reading.Legible = reading.Confidence >= opts.MinConfidence
	}
	return reading, nil
}
