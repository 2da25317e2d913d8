package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lilseedabe/pozt/internal/canvas"
	"github.com/lilseedabe/pozt/internal/imaging"
	"github.com/lilseedabe/pozt/internal/moire"
)

type mapReport struct {
	Input     canvas.Region    `json:"input" yaml:"input"`
	Region    canvas.Region    `json:"region" yaml:"region"`
	Inverse   bool             `json:"inverse,omitempty" yaml:"inverse,omitempty"`
	Transform canvas.Transform `json:"transform" yaml:"transform"`
}

func (r *mapReport) text(w io.Writer) {
	from, to := "source", "canvas"
	if r.Inverse {
		from, to = to, from
	}
	fmt.Fprintf(w, "%s %s -> %s %s\n", from, r.Input, to, r.Region)
	fmt.Fprintf(w, "scale %.4f x %.4f, offset %.1f,%.1f (%s)\n",
		r.Transform.ScaleX, r.Transform.ScaleY, r.Transform.OffX, r.Transform.OffY, r.Transform.Method)
}

func (a *app) mapRegionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map-region",
		Short: "Map a region between source image and canvas coordinates",
		Long: `Map a region selected on the source image onto the fixed canvas, the
same way embed does. With --inverse a canvas region is mapped back.

Examples:
  pozt map-region --region 100,200,400,300 --source 1200x1600
  pozt map-region --region 100,200,400,300 --source-image photo.png --resize-method cover
  pozt map-region --region 0,0,2430,1000 --source 1200x1600 --inverse`,
		Args: cobra.NoArgs,
		RunE: a.runMapRegion,
	}
	f := cmd.Flags()
	f.String("region", "", "region as x,y,width,height (required)")
	f.String("source", "", "source size as WIDTHxHEIGHT")
	f.String("source-image", "", "read the source size from an image")
	f.String("resize-method", "", "canvas fit (contain, cover, stretch)")
	f.Bool("inverse", false, "map a canvas region back to the source")
	a.bind(f, map[string]string{"embed.resize_method": "resize-method"})
	addFormatFlag(cmd)
	return cmd
}

func (a *app) runMapRegion(cmd *cobra.Command, _ []string) error {
	if err := requireFlags(cmd, "region"); err != nil {
		return err
	}
	format, err := reportFormat(cmd)
	if err != nil {
		return err
	}
	f := cmd.Flags()
	regionStr, _ := f.GetString("region")
	sourceStr, _ := f.GetString("source")
	sourceImage, _ := f.GetString("source-image")
	inverse, _ := f.GetBool("inverse")

	region, err := parseRegion(regionStr)
	if err != nil {
		return err
	}
	var src canvas.Size
	switch {
	case sourceImage != "":
		img, err := imaging.DecodeFile(sourceImage)
		if err != nil {
			return err
		}
		src = canvas.SizeOf(img)
	case sourceStr != "":
		if src, err = parseSize(sourceStr); err != nil {
			return err
		}
	default:
		return &usageError{fmt.Errorf("one of --source or --source-image is required")}
	}

	engine, err := a.engine()
	if err != nil {
		return err
	}
	method := canvas.Method(a.cfg.Embed.ResizeMethod)
	report := &mapReport{Input: region, Inverse: inverse}
	if inverse {
		m, err := canvas.ParseMethod(string(method))
		if err != nil {
			return err
		}
		if err := region.Validate(engine.Canvas()); err != nil {
			return err
		}
		if report.Transform, err = canvas.NewTransform(src, engine.Canvas(), m); err != nil {
			return fmt.Errorf("%w: %v", moire.ErrInvalidArgument, err)
		}
		report.Region = report.Transform.Invert(region)
	} else {
		if report.Region, report.Transform, err = engine.MapRegion(region, src, method); err != nil {
			return err
		}
	}
	return writeReport(cmd.OutOrStdout(), format, report)
}
