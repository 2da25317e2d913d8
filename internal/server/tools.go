package server

import (
	"github.com/lilseedabe/pozt/internal/canvas"
	"github.com/lilseedabe/pozt/internal/enhance"
	"github.com/lilseedabe/pozt/internal/extract"
	"github.com/lilseedabe/pozt/internal/mask"
	"github.com/lilseedabe/pozt/internal/pattern"
	"github.com/lilseedabe/pozt/internal/preview"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func names[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func regionSchema(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": desc,
		"properties": map[string]interface{}{
			"x":      map[string]interface{}{"type": "integer", "description": "Left edge (0-based)"},
			"y":      map[string]interface{}{"type": "integer", "description": "Top edge (0-based)"},
			"width":  map[string]interface{}{"type": "integer", "description": "Width in pixels"},
			"height": map[string]interface{}{"type": "integer", "description": "Height in pixels"},
		},
		"required": []string{"x", "y", "width", "height"},
	}
}

func pathSchema(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

var outputPathSchema = map[string]interface{}{
	"type":        "string",
	"description": "Optional PNG path to write. When omitted the image is returned as base64 PNG.",
}

var shapeParamsSchema = map[string]interface{}{
	"type":        "object",
	"description": "Shape tuning: center_x, center_y, radius (circle); points, inner_ratio, rotation (star); size_factor (heart, hexagon)",
	"properties": map[string]interface{}{
		"center_x":    map[string]interface{}{"type": "number"},
		"center_y":    map[string]interface{}{"type": "number"},
		"radius":      map[string]interface{}{"type": "number"},
		"points":      map[string]interface{}{"type": "integer"},
		"inner_ratio": map[string]interface{}{"type": "number"},
		"rotation":    map[string]interface{}{"type": "number", "description": "Degrees"},
		"size_factor": map[string]interface{}{"type": "number"},
	},
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file, cache it for later calls, and report its dimensions and channel layout together with the fixed canvas size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathSchema("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "moire_embed",
			Description: "Fit a base image onto the fixed canvas and replace one region with a striped moiré pattern that carries a hidden image. Pixels outside the region and its border are unchanged.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"base_path":        pathSchema("Absolute path to the base image"),
					"hidden_path":      pathSchema("Optional hidden image; defaults to the base content under the region"),
					"region":           regionSchema("Region to hide, in base image coordinates unless region_in_canvas is set"),
					"region_in_canvas": map[string]interface{}{"type": "boolean", "description": "Region is already in canvas coordinates"},
					"resize_method": map[string]interface{}{
						"type": "string",
						"enum": names(canvas.Methods),
					},
					"strategy": map[string]interface{}{
						"type": "string",
						"enum": names(pattern.Strategies),
					},
					"orientation": map[string]interface{}{
						"type": "string",
						"enum": []string{string(pattern.Horizontal), string(pattern.Vertical)},
					},
					"mode":           map[string]interface{}{"type": "string", "description": "Named intensity preset, e.g. adaptive_subtle"},
					"strength":       map[string]interface{}{"type": "number", "description": "Modulation amplitude in (0, 1]; overrides mode"},
					"frequency":      map[string]interface{}{"type": "integer", "description": "Stripe width in pixels (1-5)"},
					"contrast_boost": map[string]interface{}{"type": "number", "description": "Contrast multiplier (0.5-2)"},
					"opacity":        map[string]interface{}{"type": "number", "description": "Overlay or blended opacity (0-1)"},
					"blur_radius":    map[string]interface{}{"type": "integer", "description": "Overlay mask antialias radius (1-15)"},
					"primary": map[string]interface{}{
						"type":        "string",
						"description": "Tone strategy mixed into hybrid",
						"enum":        []string{string(pattern.Adaptive), string(pattern.HighFrequency), string(pattern.Perfect)},
					},
					"overlay_ratio":       map[string]interface{}{"type": "number", "description": "Hybrid overlay weight (0-1)"},
					"fusion_ratio":        map[string]interface{}{"type": "number", "description": "Fuse with the overlay silhouette at this weight (0 disables)"},
					"color1":              map[string]interface{}{"type": "string", "description": "Dark stripe colour (#RRGGBB)"},
					"color2":              map[string]interface{}{"type": "string", "description": "Light stripe colour (#RRGGBB)"},
					"border_width":        map[string]interface{}{"type": "integer", "description": "Contrast border width; 0 disables"},
					"border_color":        map[string]interface{}{"type": "string", "description": "Border colour (#RRGGBB)"},
					"shape":               map[string]interface{}{"type": "string", "enum": names(mask.Shapes)},
					"shape_params":        shapeParamsSchema,
					"outline":             map[string]interface{}{"type": "boolean", "description": "Also return the canvas with the region outlined"},
					"output_path":         outputPathSchema,
					"outline_output_path": outputPathSchema,
				},
				"required": []string{"base_path", "region"},
			},
		},
		{
			Name:        "moire_extract",
			Description: "Recover hidden content from a moiré image. When the requested method exceeds the resource budget a cheaper method is substituted and reported in the metadata.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathSchema("Absolute path to the moiré image"),
					"method": map[string]interface{}{
						"type": "string",
						"enum": names(extract.Methods),
					},
					"enhancement": map[string]interface{}{
						"type": "string",
						"enum": names(enhance.Methods),
					},
					"enhancement_level": map[string]interface{}{"type": "number", "description": "Post-gain, clamped to the configured range"},
					"gamma":             map[string]interface{}{"type": "number", "description": "Gamma for gamma_correction (<1 brightens)"},
					"clahe_clip":        map[string]interface{}{"type": "number"},
					"clahe_tiles":       map[string]interface{}{"type": "integer"},
					"no_smoothing":      map[string]interface{}{"type": "boolean", "description": "Skip the adaptive_detection pre-filter"},
					"region":            regionSchema("Optional part of the image to process"),
					"auto_crop":         map[string]interface{}{"type": "boolean", "description": "Process only the detected stripe field"},
					"ocr":               map[string]interface{}{"type": "boolean", "description": "Read the recovered image with Tesseract"},
					"language":          map[string]interface{}{"type": "string", "description": "Tesseract language (default eng)"},
					"output_path":       outputPathSchema,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "moire_preview",
			Description: "Simulate how a region looks after lossy compression, on a sharp 4K display, or under zoom.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathSchema("Absolute path to the composed image"),
					"kind": map[string]interface{}{
						"type": "string",
						"enum": names(preview.Kinds),
					},
					"region":      regionSchema("Region to simulate"),
					"zoom_factor": map[string]interface{}{"type": "integer", "description": "Zoom factor for kind=zoom (1-32, default 4)"},
					"output_path": outputPathSchema,
				},
				"required": []string{"path", "kind", "region"},
			},
		},
		{
			Name:        "moire_map_region",
			Description: "Map a region from source image coordinates onto the fixed canvas, or back with inverse=true.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"region":        regionSchema("Region to map"),
					"source_width":  map[string]interface{}{"type": "integer"},
					"source_height": map[string]interface{}{"type": "integer"},
					"resize_method": map[string]interface{}{
						"type": "string",
						"enum": names(canvas.Methods),
					},
					"inverse": map[string]interface{}{"type": "boolean"},
				},
				"required": []string{"region", "source_width", "source_height"},
			},
		},
		{
			Name:        "moire_detect_carrier",
			Description: "Locate the striped carrier field in a captured image and report its bounds, orientation and stripe period.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":         pathSchema("Absolute path to the image"),
					"min_contrast": map[string]interface{}{"type": "number", "description": "Minimum mean stripe difference (default 24)"},
					"anisotropy":   map[string]interface{}{"type": "number", "description": "Required ratio of across-stripe to along-stripe energy (default 3)"},
					"window":       map[string]interface{}{"type": "integer", "description": "Scan window in pixels"},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "moire_shapes",
			Description: "List the decorative mask shapes. Given a shape and size, report the fraction of the region the mask covers.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"shape":  map[string]interface{}{"type": "string", "enum": names(mask.Shapes)},
					"width":  map[string]interface{}{"type": "integer"},
					"height": map[string]interface{}{"type": "integer"},
					"params": shapeParamsSchema,
				},
			},
		},
		{
			Name:        "moire_cache_clear",
			Description: "Drop cached images and shape masks.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "moire_stats",
			Description: "Report cache usage and the pipeline counters (runs, fallbacks, substitutions, durations).",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}
