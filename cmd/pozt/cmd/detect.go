package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lilseedabe/pozt/internal/detection"
	"github.com/lilseedabe/pozt/internal/imaging"
)

type detectReport struct {
	detection.Carrier `yaml:",inline"`
}

func (r *detectReport) text(w io.Writer) {
	if !r.Found {
		fmt.Fprintln(w, "no carrier found")
		return
	}
	fmt.Fprintf(w, "carrier: %s, %s stripes, period %dpx, confidence %.2f\n",
		r.Region, r.Orientation, r.Period, r.Confidence)
}

func (a *app) detectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Locate the stripe field in a captured image",
		Args:  cobra.NoArgs,
		RunE:  a.runDetect,
	}
	f := cmd.Flags()
	f.StringP("in", "i", "", "image (required)")
	f.Float64("min-contrast", 0, "minimum mean stripe difference")
	f.Float64("anisotropy", 0, "required across/along stripe energy ratio")
	f.Int("window", 0, "scan window in pixels")
	addFormatFlag(cmd)
	return cmd
}

func (a *app) runDetect(cmd *cobra.Command, _ []string) error {
	if err := requireFlags(cmd, "in"); err != nil {
		return err
	}
	format, err := reportFormat(cmd)
	if err != nil {
		return err
	}
	f := cmd.Flags()
	inPath, _ := f.GetString("in")
	var opts detection.Options
	opts.MinContrast, _ = f.GetFloat64("min-contrast")
	opts.Anisotropy, _ = f.GetFloat64("anisotropy")
	opts.Window, _ = f.GetInt("window")

	img, err := imaging.DecodeFile(inPath)
	if err != nil {
		return err
	}
	engine, err := a.engine()
	if err != nil {
		return err
	}
	c, err := engine.DetectCarrier(cmd.Context(), img, opts)
	if err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), format, &detectReport{*c})
}
