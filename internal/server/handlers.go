package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"

	"github.com/lilseedabe/pozt/internal/canvas"
	"github.com/lilseedabe/pozt/internal/compose"
	"github.com/lilseedabe/pozt/internal/detection"
	"github.com/lilseedabe/pozt/internal/enhance"
	"github.com/lilseedabe/pozt/internal/extract"
	"github.com/lilseedabe/pozt/internal/imaging"
	"github.com/lilseedabe/pozt/internal/mask"
	"github.com/lilseedabe/pozt/internal/moire"
	"github.com/lilseedabe/pozt/internal/ocr"
	"github.com/lilseedabe/pozt/internal/pattern"
	"github.com/lilseedabe/pozt/internal/preview"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "moire_embed").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool failures return code -32000 with data "<class>: <message>", where
// class is one of invalid_region, external_input, invalid_argument or
// internal.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		class := moire.Classify(err)
		s.log.Warn("tool failed", "tool", params.Name, "class", class, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", fmt.Sprintf("%s: %v", class, err))
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)

	// Pipeline
	case "moire_embed":
		return s.handleEmbed(ctx, args)
	case "moire_extract":
		return s.handleExtract(ctx, args)
	case "moire_preview":
		return s.handlePreview(ctx, args)

	// Geometry and detection
	case "moire_map_region":
		return s.handleMapRegion(args)
	case "moire_detect_carrier":
		return s.handleDetectCarrier(ctx, args)
	case "moire_shapes":
		return s.handleShapes(args)

	// Housekeeping
	case "moire_cache_clear":
		return s.handleCacheClear()
	case "moire_stats":
		return s.handleStats()

	default:
		return nil, fmt.Errorf("%w: unknown tool %q", moire.ErrInvalidArgument, name)
	}
}

// decodeArgs unmarshals tool arguments; absent arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", moire.ErrInvalidArgument, err)
	}
	return nil
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func (s *Server) load(path string) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path is required", moire.ErrInvalidArgument)
	}
	return s.cache.Load(path)
}

// imageOutput is how a tool returns an image: written to OutputPath when
// the caller asked for a file, inline as base64 PNG otherwise.
type imageOutput struct {
	OutputPath string `json:"output_path,omitempty"`
	ImageData  string `json:"image_data,omitempty"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

func writeImage(img image.Image, path string) (*imageOutput, error) {
	b := img.Bounds()
	out := &imageOutput{Width: b.Dx(), Height: b.Dy()}
	if path != "" {
		if err := imaging.SavePNG(path, img); err != nil {
			return nil, err
		}
		out.OutputPath = path
		return out, nil
	}
	data, err := imaging.EncodeBase64PNG(img)
	if err != nil {
		return nil, err
	}
	out.ImageData = data
	return out, nil
}

// === Image loading ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

type imageLoadResult struct {
	Path string `json:"path"`
	imaging.ImageInfo
	Canvas canvas.Size `json:"canvas"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.load(a.Path)
	if err != nil {
		return nil, err
	}
	return &imageLoadResult{Path: a.Path, ImageInfo: imaging.Describe(img), Canvas: s.engine.Canvas()}, nil
}

// === Embedding ===

type embedArgs struct {
	BasePath       string        `json:"base_path"`
	HiddenPath     string        `json:"hidden_path"`
	Region         canvas.Region `json:"region"`
	RegionInCanvas bool          `json:"region_in_canvas"`
	ResizeMethod   string        `json:"resize_method"`

	Strategy      string   `json:"strategy"`
	Orientation   string   `json:"orientation"`
	Mode          string   `json:"mode"`
	Strength      float64  `json:"strength"`
	Frequency     int      `json:"frequency"`
	ContrastBoost float64  `json:"contrast_boost"`
	Opacity       float64  `json:"opacity"`
	BlurRadius    int      `json:"blur_radius"`
	Primary       string   `json:"primary"`
	OverlayRatio  float64  `json:"overlay_ratio"`
	FusionRatio   *float64 `json:"fusion_ratio"`
	Color1        string   `json:"color1"`
	Color2        string   `json:"color2"`

	BorderWidth *int   `json:"border_width"`
	BorderColor string `json:"border_color"`

	Shape       string      `json:"shape"`
	ShapeParams mask.Params `json:"shape_params"`

	Outline           bool   `json:"outline"`
	OutputPath        string `json:"output_path"`
	OutlineOutputPath string `json:"outline_output_path"`
}

type embedResult struct {
	*imageOutput
	Region    canvas.Region    `json:"region"`
	Transform canvas.Transform `json:"transform"`
	Strategy  pattern.Strategy `json:"strategy"`
	Spec      pattern.Spec     `json:"spec"`
	Fallback  bool             `json:"fallback,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	Outline   *imageOutput     `json:"outline,omitempty"`
}

// spec merges the request over the configured embed defaults. The result
// is normalized by the engine.
func (a *embedArgs) spec(def *embedArgs) (pattern.Spec, error) {
	pick := func(v, d string) string {
		if v != "" {
			return v
		}
		return d
	}
	c1, err := imaging.ParseHex(pick(a.Color1, def.Color1))
	if err != nil {
		return pattern.Spec{}, fmt.Errorf("%w: color1: %v", pattern.ErrInvalidSpec, err)
	}
	c2, err := imaging.ParseHex(pick(a.Color2, def.Color2))
	if err != nil {
		return pattern.Spec{}, fmt.Errorf("%w: color2: %v", pattern.ErrInvalidSpec, err)
	}
	fusion := *def.FusionRatio
	if a.FusionRatio != nil {
		fusion = *a.FusionRatio
	}
	return pattern.Spec{
		Strategy:      pattern.Strategy(pick(a.Strategy, def.Strategy)),
		Orientation:   pattern.Orientation(pick(a.Orientation, def.Orientation)),
		Mode:          pick(a.Mode, def.Mode),
		Strength:      a.Strength,
		Color1:        c1,
		Color2:        c2,
		Frequency:     a.Frequency,
		ContrastBoost: a.ContrastBoost,
		Opacity:       a.Opacity,
		BlurRadius:    a.BlurRadius,
		Primary:       pattern.Strategy(a.Primary),
		OverlayRatio:  a.OverlayRatio,
		FusionRatio:   fusion,
	}, nil
}

func (s *Server) embedDefaults() *embedArgs {
	e := s.cfg.Embed
	fusion := e.FusionRatio
	width := e.BorderWidth
	return &embedArgs{
		ResizeMethod: e.ResizeMethod,
		Strategy:     e.Strategy,
		Orientation:  e.Orientation,
		Mode:         e.Mode,
		FusionRatio:  &fusion,
		Color1:       e.Color1,
		Color2:       e.Color2,
		BorderWidth:  &width,
		BorderColor:  e.BorderColor,
		Shape:        e.Shape,
	}
}

func (s *Server) handleEmbed(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a embedArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	def := s.embedDefaults()

	base, err := s.load(a.BasePath)
	if err != nil {
		return nil, err
	}
	var hidden image.Image
	if a.HiddenPath != "" {
		if hidden, err = s.load(a.HiddenPath); err != nil {
			return nil, err
		}
	}
	spec, err := a.spec(def)
	if err != nil {
		return nil, err
	}

	width := *def.BorderWidth
	if a.BorderWidth != nil {
		width = *a.BorderWidth
	}
	var border *compose.Border
	if width != 0 {
		colorHex := a.BorderColor
		if colorHex == "" {
			colorHex = def.BorderColor
		}
		c, err := imaging.ParseHex(colorHex)
		if err != nil {
			return nil, fmt.Errorf("%w: border_color: %v", compose.ErrInvalidBorder, err)
		}
		border = &compose.Border{Width: width, Color: c}
	}

	method := a.ResizeMethod
	if method == "" {
		method = def.ResizeMethod
	}
	shape := a.Shape
	if shape == "" {
		shape = def.Shape
	}

	res, err := s.engine.Embed(ctx, moire.EmbedRequest{
		Base:           base,
		Hidden:         hidden,
		Region:         a.Region,
		RegionInCanvas: a.RegionInCanvas,
		Method:         canvas.Method(method),
		Spec:           spec,
		Border:         border,
		Shape:          mask.Shape(shape),
		ShapeParams:    a.ShapeParams,
		Outline:        a.Outline,
	})
	if err != nil {
		return nil, err
	}

	out := &embedResult{
		Region:    res.Region,
		Transform: res.Transform,
		Strategy:  res.Strategy,
		Spec:      res.Spec,
		Fallback:  res.Fallback,
		Reason:    res.Reason,
	}
	if out.imageOutput, err = writeImage(res.Image, a.OutputPath); err != nil {
		return nil, err
	}
	if res.Outline != nil {
		if out.Outline, err = writeImage(res.Outline, a.OutlineOutputPath); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// === Extraction ===

type extractArgs struct {
	Path             string         `json:"path"`
	Method           string         `json:"method"`
	Enhancement      string         `json:"enhancement"`
	EnhancementLevel *float64       `json:"enhancement_level"`
	Gamma            float64        `json:"gamma"`
	ClaheClip        float64        `json:"clahe_clip"`
	ClaheTiles       int            `json:"clahe_tiles"`
	NoSmoothing      bool           `json:"no_smoothing"`
	Region           *canvas.Region `json:"region"`
	AutoCrop         bool           `json:"auto_crop"`
	OCR              bool           `json:"ocr"`
	Language         string         `json:"language"`
	OutputPath       string         `json:"output_path"`
}

type extractResult struct {
	*imageOutput
	Metadata extract.Metadata   `json:"metadata"`
	Region   canvas.Region      `json:"region"`
	Carrier  *detection.Carrier `json:"carrier,omitempty"`
	Reading  *ocr.Reading       `json:"reading,omitempty"`
}

func (s *Server) handleExtract(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a extractArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.load(a.Path)
	if err != nil {
		return nil, err
	}

	spec := s.cfg.ExtractSpec()
	if a.Method != "" {
		spec.Method = extract.Method(a.Method)
	}
	if a.Enhancement != "" {
		spec.Enhancement = enhance.Method(a.Enhancement)
	}
	if a.EnhancementLevel != nil {
		spec.Level = *a.EnhancementLevel
	}
	if a.Gamma != 0 {
		spec.Params.Gamma = a.Gamma
	}
	if a.ClaheClip != 0 {
		spec.Params.ClipLimit = a.ClaheClip
	}
	if a.ClaheTiles != 0 {
		spec.Params.Tiles = a.ClaheTiles
	}
	spec.NoSmoothing = a.NoSmoothing

	req := moire.ExtractRequest{Image: img, Spec: spec, Region: a.Region, AutoCrop: a.AutoCrop}
	if a.OCR {
		opts := s.cfg.OCROptions()
		if a.Language != "" {
			opts.Language = a.Language
		}
		req.OCR = &opts
	}

	res, err := s.engine.Extract(ctx, req)
	if err != nil {
		return nil, err
	}
	out := &extractResult{Metadata: res.Metadata, Region: res.Region, Carrier: res.Carrier, Reading: res.Reading}
	if out.imageOutput, err = writeImage(res.Image, a.OutputPath); err != nil {
		return nil, err
	}
	return out, nil
}

// === Preview ===

type previewArgs struct {
	Path       string        `json:"path"`
	Kind       string        `json:"kind"`
	Region     canvas.Region `json:"region"`
	ZoomFactor int           `json:"zoom_factor"`
	OutputPath string        `json:"output_path"`
}

func (s *Server) handlePreview(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a previewArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.load(a.Path)
	if err != nil {
		return nil, err
	}
	kind, err := preview.ParseKind(a.Kind)
	if err != nil {
		return nil, err
	}
	out, err := s.engine.Preview(ctx, img, kind, a.Region, a.ZoomFactor)
	if err != nil {
		return nil, err
	}
	return writeImage(out, a.OutputPath)
}

// === Geometry and detection ===

type mapRegionArgs struct {
	Region       canvas.Region `json:"region"`
	SourceWidth  int           `json:"source_width"`
	SourceHeight int           `json:"source_height"`
	ResizeMethod string        `json:"resize_method"`
	// Inverse maps a canvas region back into source coordinates.
	Inverse bool `json:"inverse"`
}

type mapRegionResult struct {
	Region    canvas.Region    `json:"region"`
	Transform canvas.Transform `json:"transform"`
}

func (s *Server) handleMapRegion(args json.RawMessage) (interface{}, error) {
	var a mapRegionArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	method := a.ResizeMethod
	if method == "" {
		method = s.cfg.Embed.ResizeMethod
	}
	src := canvas.Size{W: a.SourceWidth, H: a.SourceHeight}

	if a.Inverse {
		m, err := canvas.ParseMethod(method)
		if err != nil {
			return nil, err
		}
		if !src.Valid() {
			return nil, fmt.Errorf("%w: source size %s", moire.ErrInvalidArgument, src)
		}
		if err := a.Region.Validate(s.engine.Canvas()); err != nil {
			return nil, err
		}
		t, err := canvas.NewTransform(src, s.engine.Canvas(), m)
		if err != nil {
			return nil, err
		}
		return &mapRegionResult{Region: t.Invert(a.Region), Transform: t}, nil
	}

	r, t, err := s.engine.MapRegion(a.Region, src, canvas.Method(method))
	if err != nil {
		return nil, err
	}
	return &mapRegionResult{Region: r, Transform: t}, nil
}

type detectCarrierArgs struct {
	Path string `json:"path"`
	detection.Options
}

func (s *Server) handleDetectCarrier(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a detectCarrierArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.load(a.Path)
	if err != nil {
		return nil, err
	}
	return s.engine.DetectCarrier(ctx, img, a.Options)
}

type shapesArgs struct {
	Shape  string      `json:"shape"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Params mask.Params `json:"params"`
}

type shapesResult struct {
	Shapes   []mask.Shape `json:"shapes"`
	Shape    mask.Shape   `json:"shape,omitempty"`
	Coverage float64      `json:"coverage,omitempty"`
}

// handleShapes lists the mask shapes and, given a size, reports how much
// of a region the chosen shape covers.
func (s *Server) handleShapes(args json.RawMessage) (interface{}, error) {
	var a shapesArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	res := &shapesResult{Shapes: mask.Shapes}
	if a.Shape == "" && a.Width == 0 && a.Height == 0 {
		return res, nil
	}
	shape, err := mask.ParseShape(a.Shape)
	if err != nil {
		return nil, err
	}
	m, err := s.engine.Mask(shape, a.Width, a.Height, a.Params)
	if err != nil {
		return nil, err
	}
	res.Shape = shape
	res.Coverage = mask.Coverage(m)
	return res, nil
}

// === Housekeeping ===

func (s *Server) handleCacheClear() (interface{}, error) {
	images := s.cache.Len()
	s.cache.Clear()
	s.engine.ClearCache()
	return map[string]interface{}{"cleared": true, "images_evicted": images}, nil
}

type statsResult struct {
	*moire.Stats
	ImagesCached int `json:"images_cached"`
}

func (s *Server) handleStats() (interface{}, error) {
	st, err := s.engine.Stats()
	if err != nil {
		return nil, err
	}
	return &statsResult{Stats: st, ImagesCached: s.cache.Len()}, nil
}
