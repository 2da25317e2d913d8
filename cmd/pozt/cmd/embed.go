package cmd

import (
	"fmt"
	"image"
	"io"

	"github.com/spf13/cobra"

	"github.com/lilseedabe/pozt/internal/canvas"
	"github.com/lilseedabe/pozt/internal/imaging"
	"github.com/lilseedabe/pozt/internal/mask"
	"github.com/lilseedabe/pozt/internal/moire"
	"github.com/lilseedabe/pozt/internal/pattern"
)

type embedReport struct {
	Output    string           `json:"output" yaml:"output"`
	Outline   string           `json:"outline,omitempty" yaml:"outline,omitempty"`
	Region    canvas.Region    `json:"region" yaml:"region"`
	Transform canvas.Transform `json:"transform" yaml:"transform"`
	Strategy  pattern.Strategy `json:"strategy" yaml:"strategy"`
	Strength  float64          `json:"strength" yaml:"strength"`
	Fallback  bool             `json:"fallback,omitempty" yaml:"fallback,omitempty"`
	Reason    string           `json:"reason,omitempty" yaml:"reason,omitempty"`
}

func (r *embedReport) text(w io.Writer) {
	fmt.Fprintf(w, "wrote %s\n", r.Output)
	fmt.Fprintf(w, "region: %s (canvas %s, %s)\n", r.Region, r.Transform.Canvas, r.Transform.Method)
	fmt.Fprintf(w, "strategy: %s (strength %.3f)\n", r.Strategy, r.Strength)
	if r.Fallback {
		fmt.Fprintf(w, "fell back to overlay: %s\n", r.Reason)
	}
	if r.Outline != "" {
		fmt.Fprintf(w, "outline: %s\n", r.Outline)
	}
}

func (a *app) embedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Hide an image inside a region of a base image",
		Long: `Fit the base image onto the fixed canvas and replace one region with a
moiré stripe pattern that carries the hidden image. Without --hidden the
region hides the base content underneath it.

Examples:
  pozt embed --base photo.png --region 100,200,400,300 --out moire.png
  pozt embed --base photo.png --hidden logo.png --region 100,200,400,300 \
      --strategy hybrid --primary perfect --shape heart --out moire.png`,
		Args: cobra.NoArgs,
		RunE: a.runEmbed,
	}

	f := cmd.Flags()
	f.String("base", "", "base image (required)")
	f.String("hidden", "", "image to hide (default: the base content under the region)")
	f.String("region", "", "region as x,y,width,height in base image coordinates (required)")
	f.Bool("canvas-region", false, "the region is already in canvas coordinates")
	f.StringP("out", "o", "", "output PNG (required)")
	f.String("outline-out", "", "also write the canvas with the region outlined")

	f.String("strategy", "", "modulation strategy")
	f.String("orientation", "", "stripe orientation (horizontal, vertical)")
	f.String("mode", "", "named intensity preset")
	f.String("resize-method", "", "canvas fit (contain, cover, stretch)")
	f.Int("border-width", 0, "contrast border width (0 disables)")
	f.String("border-color", "", "border colour")
	f.String("color1", "", "dark stripe colour")
	f.String("color2", "", "light stripe colour")
	f.Float64("fusion-ratio", 0, "fuse with the overlay silhouette at this weight")
	f.String("shape", "", "decorative mask ("+joinNames(mask.Shapes)+")")
	a.bind(f, map[string]string{
		"embed.strategy":      "strategy",
		"embed.orientation":   "orientation",
		"embed.mode":          "mode",
		"embed.resize_method": "resize-method",
		"embed.border_width":  "border-width",
		"embed.border_color":  "border-color",
		"embed.color1":        "color1",
		"embed.color2":        "color2",
		"embed.fusion_ratio":  "fusion-ratio",
		"embed.shape":         "shape",
	})

	f.Float64("strength", 0, "modulation amplitude in (0, 1]; overrides --mode")
	f.Int("frequency", 0, "stripe width in pixels (1-5)")
	f.Float64("contrast-boost", 0, "contrast multiplier (0.5-2)")
	f.Float64("opacity", 0, "overlay or blended opacity")
	f.Int("blur-radius", 0, "overlay mask antialias radius (1-15)")
	f.String("primary", "", "tone strategy mixed into hybrid")
	f.Float64("overlay-ratio", 0, "hybrid overlay weight")

	f.Float64("shape-radius", 0, "circle radius")
	f.Int("shape-points", 0, "star points")
	f.Float64("shape-inner-ratio", 0, "star inner radius ratio")
	f.Float64("shape-rotation", 0, "star rotation in degrees")
	f.Float64("shape-size", 0, "heart and hexagon size factor")
	addFormatFlag(cmd)
	return cmd
}

func (a *app) runEmbed(cmd *cobra.Command, _ []string) error {
	if err := requireFlags(cmd, "base", "region", "out"); err != nil {
		return err
	}
	format, err := reportFormat(cmd)
	if err != nil {
		return err
	}
	f := cmd.Flags()
	basePath, _ := f.GetString("base")
	hiddenPath, _ := f.GetString("hidden")
	regionStr, _ := f.GetString("region")
	inCanvas, _ := f.GetBool("canvas-region")
	outPath, _ := f.GetString("out")
	outlinePath, _ := f.GetString("outline-out")

	region, err := parseRegion(regionStr)
	if err != nil {
		return err
	}
	spec, err := a.cfg.EmbedSpec()
	if err != nil {
		return err
	}
	spec.Strength, _ = f.GetFloat64("strength")
	spec.Frequency, _ = f.GetInt("frequency")
	spec.ContrastBoost, _ = f.GetFloat64("contrast-boost")
	spec.Opacity, _ = f.GetFloat64("opacity")
	spec.BlurRadius, _ = f.GetInt("blur-radius")
	primary, _ := f.GetString("primary")
	spec.Primary = pattern.Strategy(primary)
	spec.OverlayRatio, _ = f.GetFloat64("overlay-ratio")

	var shape mask.Params
	shape.Radius, _ = f.GetFloat64("shape-radius")
	shape.Points, _ = f.GetInt("shape-points")
	shape.InnerRatio, _ = f.GetFloat64("shape-inner-ratio")
	shape.Rotation, _ = f.GetFloat64("shape-rotation")
	shape.SizeFactor, _ = f.GetFloat64("shape-size")

	border, err := a.cfg.Border()
	if err != nil {
		return err
	}

	base, err := imaging.DecodeFile(basePath)
	if err != nil {
		return err
	}
	var hidden image.Image
	if hiddenPath != "" {
		if hidden, err = imaging.DecodeFile(hiddenPath); err != nil {
			return err
		}
	}

	engine, err := a.engine()
	if err != nil {
		return err
	}
	res, err := engine.Embed(cmd.Context(), moire.EmbedRequest{
		Base:           base,
		Hidden:         hidden,
		Region:         region,
		RegionInCanvas: inCanvas,
		Method:         canvas.Method(a.cfg.Embed.ResizeMethod),
		Spec:           spec,
		Border:         border,
		Shape:          mask.Shape(a.cfg.Embed.Shape),
		ShapeParams:    shape,
		Outline:        outlinePath != "",
	})
	if err != nil {
		return err
	}

	if err := imaging.SavePNG(outPath, res.Image); err != nil {
		return err
	}
	report := &embedReport{
		Output:    outPath,
		Region:    res.Region,
		Transform: res.Transform,
		Strategy:  res.Strategy,
		Strength:  res.Spec.Strength,
		Fallback:  res.Fallback,
		Reason:    res.Reason,
	}
	if res.Outline != nil {
		if err := imaging.SavePNG(outlinePath, res.Outline); err != nil {
			return err
		}
		report.Outline = outlinePath
	}
	a.log.Info("embedded", "region", res.Region.String(), "strategy", res.Strategy, "output", outPath)
	return writeReport(cmd.OutOrStdout(), format, report)
}

func joinNames[T ~string](values []T) string {
	s := ""
	for i, v := range values {
		if i > 0 {
			s += ", "
		}
		s += string(v)
	}
	return s
}
