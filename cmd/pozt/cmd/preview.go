package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lilseedabe/pozt/internal/canvas"
	"github.com/lilseedabe/pozt/internal/imaging"
	"github.com/lilseedabe/pozt/internal/preview"
)

type previewReport struct {
	Output string        `json:"output" yaml:"output"`
	Kind   preview.Kind  `json:"kind" yaml:"kind"`
	Region canvas.Region `json:"region" yaml:"region"`
}

func (r *previewReport) text(w io.Writer) {
	fmt.Fprintf(w, "wrote %s (%s preview of %s)\n", r.Output, r.Kind, r.Region)
}

func (a *app) previewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Simulate how a moiré region looks in different viewing conditions",
		Long: `Render a diagnostic simulation of one region: lossy compression
(` + string(preview.Compression) + `), a sharp 4K display (` + string(preview.Display4K) + `), or a zoomed-in
view (` + string(preview.Zoom) + `). Pixels outside the region are unchanged for the first two.

Examples:
  pozt preview --in moire.png --region 100,200,400,300 --kind zoom --out zoom.png`,
		Args: cobra.NoArgs,
		RunE: a.runPreview,
	}
	f := cmd.Flags()
	f.StringP("in", "i", "", "composed image (required)")
	f.StringP("out", "o", "", "output PNG (required)")
	f.String("region", "", "region as x,y,width,height (required)")
	f.String("kind", string(preview.Zoom), "simulation ("+joinNames(preview.Kinds)+")")
	f.Int("zoom", preview.DefaultZoomFactor, "zoom factor for --kind zoom")
	addFormatFlag(cmd)
	return cmd
}

func (a *app) runPreview(cmd *cobra.Command, _ []string) error {
	if err := requireFlags(cmd, "in", "out", "region"); err != nil {
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
	kindStr, _ := f.GetString("kind")
	zoom, _ := f.GetInt("zoom")

	region, err := parseRegion(regionStr)
	if err != nil {
		return err
	}
	kind, err := preview.ParseKind(kindStr)
	if err != nil {
		return err
	}
	img, err := imaging.DecodeFile(inPath)
	if err != nil {
		return err
	}
	engine, err := a.engine()
	if err != nil {
		return err
	}
	out, err := engine.Preview(cmd.Context(), img, kind, region, zoom)
	if err != nil {
		return err
	}
	if err := imaging.SavePNG(outPath, out); err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), format, &previewReport{Output: outPath, Kind: kind, Region: region})
}
