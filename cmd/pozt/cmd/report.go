package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lilseedabe/pozt/internal/config"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var validFormats = []string{formatText, formatJSON, formatYAML}

// texter renders a report as human-readable lines.
type texter interface {
	text(w io.Writer)
}

func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().String("format", formatText, "report format ("+strings.Join(validFormats, ", ")+")")
}

func reportFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("format")
	for _, f := range validFormats {
		if f == format {
			return format, nil
		}
	}
	return "", &usageError{fmt.Errorf("invalid output format: %s (must be one of: %s)", format, strings.Join(validFormats, ", "))}
}

// writeReport prints v to w in the requested format.
func writeReport(w io.Writer, format string, v texter) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	v.text(w)
	return nil
}

type configReport struct {
	Config     *config.Config `json:"config" yaml:"config"`
	File       string         `json:"file,omitempty" yaml:"file,omitempty"`
	SearchPath []string       `json:"search_path" yaml:"search_path"`
}

func (r *configReport) text(w io.Writer) {
	if r.File != "" {
		fmt.Fprintf(w, "config file: %s\n", r.File)
	} else {
		fmt.Fprintf(w, "config file: none (searched %s)\n", strings.Join(r.SearchPath, ", "))
	}
	c := r.Config
	fmt.Fprintf(w, "canvas: %s\n", c.CanvasSize())
	fmt.Fprintf(w, "embed: %s, %s stripes, %s fit, shape %s\n", c.Embed.Strategy, c.Embed.Orientation, c.Embed.ResizeMethod, c.Embed.Shape)
	fmt.Fprintf(w, "extract: %s + %s at level %.2f\n", c.Extract.Method, c.Extract.Enhancement, c.Extract.EnhancementLevel)
}
