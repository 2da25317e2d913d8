package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/lilseedabe/pozt/internal/canvas"
	"github.com/lilseedabe/pozt/internal/compose"
	"github.com/lilseedabe/pozt/internal/enhance"
	"github.com/lilseedabe/pozt/internal/extract"
	"github.com/lilseedabe/pozt/internal/imaging"
	"github.com/lilseedabe/pozt/internal/mask"
	"github.com/lilseedabe/pozt/internal/ocr"
	"github.com/lilseedabe/pozt/internal/pattern"
)

// Config is the complete pozt configuration. It is loaded from a config
// file, POZT_ environment variables and command-line flags.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`
	// Workers bounds FFT parallelism; zero uses every CPU.
	Workers int `mapstructure:"workers" yaml:"workers" json:"workers"`

	Canvas  CanvasConfig  `mapstructure:"canvas" yaml:"canvas" json:"canvas"`
	Embed   EmbedConfig   `mapstructure:"embed" yaml:"embed" json:"embed"`
	Extract ExtractConfig `mapstructure:"extract" yaml:"extract" json:"extract"`
	Masks   MaskConfig    `mapstructure:"masks" yaml:"masks" json:"masks"`
	OCR     OCRConfig     `mapstructure:"ocr" yaml:"ocr" json:"ocr"`
}

// CanvasConfig is the fixed output resolution.
type CanvasConfig struct {
	Width  int `mapstructure:"width" yaml:"width" json:"width"`
	Height int `mapstructure:"height" yaml:"height" json:"height"`
}

// EmbedConfig holds embedding defaults.
type EmbedConfig struct {
	Strategy     string  `mapstructure:"strategy" yaml:"strategy" json:"strategy"`
	Mode         string  `mapstructure:"mode" yaml:"mode" json:"mode"`
	Orientation  string  `mapstructure:"orientation" yaml:"orientation" json:"orientation"`
	ResizeMethod string  `mapstructure:"resize_method" yaml:"resize_method" json:"resize_method"`
	BorderWidth  int     `mapstructure:"border_width" yaml:"border_width" json:"border_width"`
	BorderColor  string  `mapstructure:"border_color" yaml:"border_color" json:"border_color"`
	Color1       string  `mapstructure:"color1" yaml:"color1" json:"color1"`
	Color2       string  `mapstructure:"color2" yaml:"color2" json:"color2"`
	FusionRatio  float64 `mapstructure:"fusion_ratio" yaml:"fusion_ratio" json:"fusion_ratio"`
	Shape        string  `mapstructure:"shape" yaml:"shape" json:"shape"`
}

// ExtractConfig holds extraction defaults and the resource budget.
type ExtractConfig struct {
	Method           string  `mapstructure:"method" yaml:"method" json:"method"`
	Enhancement      string  `mapstructure:"enhancement" yaml:"enhancement" json:"enhancement"`
	EnhancementLevel float64 `mapstructure:"enhancement_level" yaml:"enhancement_level" json:"enhancement_level"`
	MinLevel         float64 `mapstructure:"min_level" yaml:"min_level" json:"min_level"`
	MaxLevel         float64 `mapstructure:"max_level" yaml:"max_level" json:"max_level"`
	MaxDimension     int     `mapstructure:"max_dimension" yaml:"max_dimension" json:"max_dimension"`
	FourierMaxEdge   int     `mapstructure:"fourier_max_edge" yaml:"fourier_max_edge" json:"fourier_max_edge"`
	Gamma            float64 `mapstructure:"gamma" yaml:"gamma" json:"gamma"`
	ClaheClip        float64 `mapstructure:"clahe_clip" yaml:"clahe_clip" json:"clahe_clip"`
	ClaheTiles       int     `mapstructure:"clahe_tiles" yaml:"clahe_tiles" json:"clahe_tiles"`
}

// MaskConfig sizes the decorative mask cache.
type MaskConfig struct {
	CacheSize int `mapstructure:"cache_size" yaml:"cache_size" json:"cache_size"`
}

// OCRConfig tunes the optional legibility probe.
type OCRConfig struct {
	Language      string  `mapstructure:"language" yaml:"language" json:"language"`
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence" json:"min_confidence"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Canvas:   CanvasConfig{Width: canvas.DefaultSize.W, Height: canvas.DefaultSize.H},
		Embed: EmbedConfig{
			Strategy:     string(pattern.Adaptive),
			Orientation:  string(pattern.Horizontal),
			ResizeMethod: string(canvas.Contain),
			BorderWidth:  3,
			BorderColor:  "#000000",
			Color1:       "#000000",
			Color2:       "#FFFFFF",
			Shape:        string(mask.Rectangle),
		},
		Extract: ExtractConfig{
			Method:           string(extract.FourierAnalysis),
			Enhancement:      string(enhance.HistogramEqualization),
			EnhancementLevel: extract.DefaultLevel,
			MinLevel:         extract.DefaultBudget.MinLevel,
			MaxLevel:         extract.DefaultBudget.MaxLevel,
			MaxDimension:     extract.DefaultBudget.MaxDimension,
			FourierMaxEdge:   extract.DefaultBudget.FourierMaxEdge,
			Gamma:            enhance.DefaultParams.Gamma,
			ClaheClip:        enhance.DefaultParams.ClipLimit,
			ClaheTiles:       enhance.DefaultParams.Tiles,
		},
		Masks: MaskConfig{CacheSize: mask.DefaultCacheSize},
		OCR:   OCRConfig{Language: ocr.DefaultLanguage, MinConfidence: 0.6},
	}
}

// Validate checks every field that has a closed set of values or a range.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	if !c.CanvasSize().Valid() {
		return fmt.Errorf("invalid canvas size %dx%d", c.Canvas.Width, c.Canvas.Height)
	}

	if _, err := c.PatternSpec(); err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if _, err := canvas.ParseMethod(c.Embed.ResizeMethod); err != nil {
		return fmt.Errorf("embed.resize_method: %w", err)
	}
	if _, err := c.Border(); err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if _, err := mask.ParseShape(c.Embed.Shape); err != nil {
		return fmt.Errorf("embed.shape: %w", err)
	}

	if _, err := extract.ParseMethod(c.Extract.Method); err != nil {
		return fmt.Errorf("extract.method: %w", err)
	}
	if _, err := enhance.ParseMethod(c.Extract.Enhancement); err != nil {
		return fmt.Errorf("extract.enhancement: %w", err)
	}
	x := c.Extract
	switch {
	case x.MinLevel <= 0 || x.MaxLevel < x.MinLevel:
		return fmt.Errorf("extract level range [%v, %v] is invalid", x.MinLevel, x.MaxLevel)
	case x.EnhancementLevel < 0:
		return fmt.Errorf("extract.enhancement_level must be non-negative, got %v", x.EnhancementLevel)
	case x.MaxDimension < 16:
		return fmt.Errorf("extract.max_dimension must be at least 16, got %d", x.MaxDimension)
	case x.FourierMaxEdge < 16:
		return fmt.Errorf("extract.fourier_max_edge must be at least 16, got %d", x.FourierMaxEdge)
	case x.Gamma <= 0:
		return fmt.Errorf("extract.gamma must be positive, got %v", x.Gamma)
	case x.ClaheClip <= 0:
		return fmt.Errorf("extract.clahe_clip must be positive, got %v", x.ClaheClip)
	case x.ClaheTiles < 1 || x.ClaheTiles > 64:
		return fmt.Errorf("extract.clahe_tiles %d outside 1-64", x.ClaheTiles)
	}

	if c.Masks.CacheSize < 0 {
		return fmt.Errorf("masks.cache_size must be non-negative, got %d", c.Masks.CacheSize)
	}
	if c.OCR.MinConfidence < 0 || c.OCR.MinConfidence > 1 {
		return fmt.Errorf("ocr.min_confidence %v outside [0, 1]", c.OCR.MinConfidence)
	}
	return nil
}

// SlogLevel returns the configured log level; Verbose forces debug.
func (c *Config) SlogLevel() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// CanvasSize returns the configured fixed canvas.
func (c *Config) CanvasSize() canvas.Size {
	return canvas.Size{W: c.Canvas.Width, H: c.Canvas.Height}
}

// Budget returns the extraction resource budget.
func (c *Config) Budget() extract.Budget {
	return extract.Budget{
		MaxDimension:   c.Extract.MaxDimension,
		FourierMaxEdge: c.Extract.FourierMaxEdge,
		MinLevel:       c.Extract.MinLevel,
		MaxLevel:       c.Extract.MaxLevel,
		Workers:        c.Workers,
	}
}

// EmbedSpec returns the configured embedding spec before normalization, so
// callers can still override fields whose defaults depend on the strategy.
func (c *Config) EmbedSpec() (pattern.Spec, error) {
	c1, err := imaging.ParseHex(c.Embed.Color1)
	if err != nil {
		return pattern.Spec{}, fmt.Errorf("%w: color1: %v", pattern.ErrInvalidSpec, err)
	}
	c2, err := imaging.ParseHex(c.Embed.Color2)
	if err != nil {
		return pattern.Spec{}, fmt.Errorf("%w: color2: %v", pattern.ErrInvalidSpec, err)
	}
	return pattern.Spec{
		Strategy:    pattern.Strategy(c.Embed.Strategy),
		Orientation: pattern.Orientation(c.Embed.Orientation),
		Mode:        c.Embed.Mode,
		Color1:      c1,
		Color2:      c2,
		FusionRatio: c.Embed.FusionRatio,
	}, nil
}

// PatternSpec returns the normalized default embedding spec.
func (c *Config) PatternSpec() (pattern.Spec, error) {
	spec, err := c.EmbedSpec()
	if err != nil {
		return spec, err
	}
	return spec.Normalize()
}

// Border returns the configured region border, nil when the width is zero.
func (c *Config) Border() (*compose.Border, error) {
	if c.Embed.BorderWidth < 0 {
		return nil, fmt.Errorf("%w: negative width %d", compose.ErrInvalidBorder, c.Embed.BorderWidth)
	}
	if c.Embed.BorderWidth == 0 {
		return nil, nil
	}
	col, err := imaging.ParseHex(c.Embed.BorderColor)
	if err != nil {
		return nil, fmt.Errorf("%w: border_color: %v", compose.ErrInvalidBorder, err)
	}
	return &compose.Border{Width: c.Embed.BorderWidth, Color: col}, nil
}

// ExtractSpec returns the default extraction spec.
func (c *Config) ExtractSpec() extract.Spec {
	return extract.Spec{
		Method:      extract.Method(c.Extract.Method),
		Level:       c.Extract.EnhancementLevel,
		Enhancement: enhance.Method(c.Extract.Enhancement),
		Params: enhance.Params{
			Gamma:     c.Extract.Gamma,
			ClipLimit: c.Extract.ClaheClip,
			Tiles:     c.Extract.ClaheTiles,
		},
	}
}

// OCROptions returns the probe options.
func (c *Config) OCROptions() ocr.Options {
	return ocr.Options{Language: c.OCR.Language, MinConfidence: c.OCR.MinConfidence}
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
