package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lilseedabe/pozt/internal/canvas"
	"github.com/lilseedabe/pozt/internal/detection"
	"github.com/lilseedabe/pozt/internal/enhance"
	"github.com/lilseedabe/pozt/internal/extract"
	"github.com/lilseedabe/pozt/internal/imaging"
	"github.com/lilseedabe/pozt/internal/moire"
	"github.com/lilseedabe/pozt/internal/ocr"
)

type extractReport struct {
	Output   string             `json:"output" yaml:"output"`
	Region   canvas.Region      `json:"region" yaml:"region"`
	Metadata extract.Metadata   `json:"metadata" yaml:"metadata"`
	Carrier  *detection.Carrier `json:"carrier,omitempty" yaml:"carrier,omitempty"`
	Reading  *ocr.Reading       `json:"reading,omitempty" yaml:"reading,omitempty"`
}

func (r *extractReport) text(w io.Writer) {
	m := r.Metadata
	fmt.Fprintf(w, "wrote %s\n", r.Output)
	if m.Substituted {
		fmt.Fprintf(w, "method: %s (requested %s)\n", m.Used, m.Requested)
	} else {
		fmt.Fprintf(w, "method: %s\n", m.Used)
	}
	fmt.Fprintf(w, "enhancement: %s at level %.2f\n", m.Enhancement, m.Level)
	fmt.Fprintf(w, "region: %s\n", r.Region)
	if r.Reading != nil {
		fmt.Fprintf(w, "ocr: %q (confidence %.2f, legible %v)\n", r.Reading.Text, r.Reading.Confidence, r.Reading.Legible)
	}
	for _, n := range m.Notes {
		fmt.Fprintf(w, "note: %s\n", n)
	}
}

func (a *app) extractCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Recover hidden content from a moiré image",
		Long: `Recover the hidden image from a moiré image. When the requested method
exceeds the resource budget a cheaper one is used and the report says so.

Methods: ` + joinNames(extract.Methods) + `
Enhancements: ` + joinNames(enhance.Methods) + `

Examples:
  pozt extract --in moire.png --out hidden.png
  pozt extract --in photo-of-screen.jpg --auto-crop --method adaptive_detection --out hidden.png
  pozt extract --in moire.png --region 100,200,400,300 --ocr --format json --out hidden.png`,
		Args: cobra.NoArgs,
		RunE: a.runExtract,
	}

	f := cmd.Flags()
	f.StringP("in", "i", "", "moiré image (required)")
	f.StringP("out", "o", "", "output PNG (required)")
	f.String("region", "", "only process x,y,width,height of the input")
	f.Bool("auto-crop", false, "only process the detected stripe field")
	f.Bool("no-smoothing", false, "skip the adaptive_detection pre-filter")
	f.Bool("ocr", false, "read the recovered image with Tesseract")

	f.String("method", "", "extraction method")
	f.String("enhancement", "", "post enhancement")
	f.Float64("level", 0, "enhancement level")
	f.Float64("gamma", 0, "gamma for gamma_correction")
	f.Float64("clahe-clip", 0, "CLAHE clip limit")
	f.Int("clahe-tiles", 0, "CLAHE tiles per side")
	f.Int("max-dimension", 0, "working image long edge limit")
	f.Int("fourier-max-edge", 0, "largest long edge fourier_analysis runs on")
	f.String("language", "", "Tesseract language")
	a.bind(f, map[string]string{
		"extract.method":            "method",
		"extract.enhancement":       "enhancement",
		"extract.enhancement_level": "level",
		"extract.gamma":             "gamma",
		"extract.clahe_clip":        "clahe-clip",
		"extract.clahe_tiles":       "clahe-tiles",
		"extract.max_dimension":     "max-dimension",
		"extract.fourier_max_edge":  "fourier-max-edge",
		"ocr.language":              "language",
	})
	addFormatFlag(cmd)
	return cmd
}

func (a *app) runExtract(cmd *cobra.Command, _ []string) error {
	if err := requireFlags(cmd, "in", "out"); err != nil {
		return err
	}
	format, err := reportFormat(cmd)
	if err != nil {
		return err
	}
	f := cmd.Flags()
	inPath, _ := f.GetString("in")
	outPath, _ := f.GetString("out")
	regionStr, _ := f.GetString("region")
	autoCrop, _ := f.GetBool("auto-crop")
	noSmoothing, _ := f.GetBool("no-smoothing")
	useOCR, _ := f.GetBool("ocr")

	region, hasRegion, err := regionFlag(regionStr)
	if err != nil {
		return err
	}
	img, err := imaging.DecodeFile(inPath)
	if err != nil {
		return err
	}

	spec := a.cfg.ExtractSpec()
	spec.NoSmoothing = noSmoothing
	req := moire.ExtractRequest{Image: img, Spec: spec, AutoCrop: autoCrop}
	if hasRegion {
		req.Region = &region
	}
	if useOCR {
		opts := a.cfg.OCROptions()
		req.OCR = &opts
	}

	engine, err := a.engine()
	if err != nil {
		return err
	}
	res, err := engine.Extract(cmd.Context(), req)
	if err != nil {
		return err
	}
	if err := imaging.SavePNG(outPath, res.Image); err != nil {
		return err
	}
	a.log.Info("extracted", "method", res.Metadata.Used, "output", outPath)
	return writeReport(cmd.OutOrStdout(), format, &extractReport{
		Output:   outPath,
		Region:   res.Region,
		Metadata: res.Metadata,
		Carrier:  res.Carrier,
		Reading:  res.Reading,
	})
}
