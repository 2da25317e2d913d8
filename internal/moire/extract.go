package moire

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/lilseedabe/pozt/internal/canvas"
	"github.com/lilseedabe/pozt/internal/detection"
	"github.com/lilseedabe/pozt/internal/extract"
	"github.com/lilseedabe/pozt/internal/imaging"
	"github.com/lilseedabe/pozt/internal/ocr"
)

// ExtractRequest is one extraction job.
type ExtractRequest struct {
	Image image.Image
	Spec  extract.Spec

	// Region restricts extraction to part of Image.
	Region *canvas.Region
	// AutoCrop restricts extraction to the detected carrier when Region is
	// nil. Without a carrier the whole image is used.
	AutoCrop  bool
	Detection detection.Options

	// OCR, when set, reads the recovered image with Tesseract.
	OCR *ocr.Options
}

// ExtractResult is the recovered image with its annotations.
type ExtractResult struct {
	Image    image.Image      `json:"-" yaml:"-"`
	Metadata extract.Metadata `json:"metadata" yaml:"metadata"`
	// Region is the part of the input that was processed.
	Region  canvas.Region      `json:"region" yaml:"region"`
	Carrier *detection.Carrier `json:"carrier,omitempty" yaml:"carrier,omitempty"`
	Reading *ocr.Reading       `json:"reading,omitempty" yaml:"reading,omitempty"`
}

// Extract recovers hidden content from a moiré image. The output keeps the
// channel layout of the input.
func (e *Engine) Extract(ctx context.Context, req ExtractRequest) (res *ExtractResult, err error) {
	start := time.Now()
	label := string(req.Spec.Method)
	if label == "" {
		label = string(extract.FourierAnalysis)
	}
	defer func() {
		e.metrics.extracts.WithLabelValues(label, status(err)).Inc()
		e.metrics.observe("extract", start)
	}()

	if err := checkImage(req.Image, "moiré"); err != nil {
		return nil, err
	}
	if req.Spec.Level < 0 {
		return nil, fmt.Errorf("%w: got %v", extract.ErrInvalidLevel, req.Spec.Level)
	}

	size := canvas.SizeOf(req.Image)
	region := canvas.Region{W: size.W, H: size.H}
	res = &ExtractResult{}
	switch {
	case req.Region != nil:
		if err := req.Region.Validate(size); err != nil {
			return nil, err
		}
		region = *req.Region
	case req.AutoCrop:
		c, err := e.DetectCarrier(ctx, req.Image, req.Detection)
		if err != nil {
			return nil, err
		}
		res.Carrier = c
		if c.Found {
			region = c.Region
		}
	}
	res.Region = region

	src := cropKeepLayout(req.Image, region)
	out, err := extract.Extract(ctx, src, req.Spec, e.budget)
	if err != nil {
		return nil, err
	}
	res.Image, res.Metadata = out.Image, out.Metadata
	if res.Carrier != nil && !res.Carrier.Found {
		res.Metadata.Notes = append(res.Metadata.Notes, "no carrier detected; extracted the whole image")
	}

	meta := out.Metadata
	if meta.Substituted {
		e.metrics.substitutions.WithLabelValues(string(meta.Requested), string(meta.Used)).Inc()
		e.log.Info("extraction method substituted", "requested", meta.Requested, "used", meta.Used)
	}
	if meta.Downscaled {
		e.metrics.downscales.Inc()
		e.log.Info("extraction downscaled", "width", meta.WorkingW, "height", meta.WorkingH)
	}
	e.log.Debug("extracted", "method", meta.Used, "level", meta.Level, "enhancement", meta.Enhancement)

	if req.OCR != nil {
		e.probe(ctx, res, *req.OCR)
	}
	return res, nil
}

// probe attaches an OCR reading. OCR is advisory, so failures become notes.
func (e *Engine) probe(ctx context.Context, res *ExtractResult, opts ocr.Options) {
	if !ocr.Available() {
		res.Metadata.Notes = append(res.Metadata.Notes, "ocr unavailable")
		return
	}
	reading, err := ocr.Probe(ctx, res.Image, opts)
	if err != nil {
		e.log.Warn("ocr probe failed", "error", err)
		res.Metadata.Notes = append(res.Metadata.Notes, "ocr: "+err.Error())
		return
	}
	res.Reading = reading
}

// cropKeepLayout returns r of img without converting its pixel type, so a
// grayscale input still extracts to grayscale.
func cropKeepLayout(img image.Image, r canvas.Region) image.Image {
	b := img.Bounds()
	if r.X == 0 && r.Y == 0 && r.W == b.Dx() && r.H == b.Dy() {
		return img
	}
	rect := r.Rect().Add(b.Min)
	if sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(rect)
	}
	// r was validated against img, so the crop cannot fail.
	out, _ := imaging.Crop(img, rect)
	return out
}
