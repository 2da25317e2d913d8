package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "pozt"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "POZT"

	// DotEnvFile is read before the environment is consulted, when present.
	DotEnvFile = ".env"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader on the global viper instance so that cobra
// flag bindings apply.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWith creates a loader on a caller-owned viper instance.
func NewLoaderWith(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load reads configuration from the search paths, the environment and the
// defaults, then validates it.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	if err := l.prepare(); err != nil {
		return nil, err
	}

	if err := l.v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars still apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return l.unmarshal()
}

// LoadWithFile loads configuration from a specific file path. An empty path
// falls back to Load.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	if err := l.prepare(); err != nil {
		return nil, err
	}
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}
	return l.unmarshal()
}

// ConfigFileUsed returns the path of the config file read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Viper returns the underlying viper instance.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

func (l *Loader) prepare() error {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return err
	}
	l.setupEnvironmentVariables()
	l.setDefaults()
	return nil
}

func (l *Loader) unmarshal() (*Config, error) {
	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// loadDotEnv exports the variables of path without overriding the real
// environment. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("error reading %s: %w", path, err)
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		l.v.AddConfigPath(filepath.Join(configDir, "pozt"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "pozt"))
	}

	l.v.AddConfigPath("/etc/pozt")
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	// canvas.width is read from POZT_CANVAS_WIDTH
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults registers every key, which AutomaticEnv needs in order to see
// nested keys during Unmarshal.
func (l *Loader) setDefaults() {
	d := DefaultConfig()

	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("verbose", d.Verbose)
	l.v.SetDefault("workers", d.Workers)

	l.v.SetDefault("canvas.width", d.Canvas.Width)
	l.v.SetDefault("canvas.height", d.Canvas.Height)

	l.v.SetDefault("embed.strategy", d.Embed.Strategy)
	l.v.SetDefault("embed.mode", d.Embed.Mode)
	l.v.SetDefault("embed.orientation", d.Embed.Orientation)
	l.v.SetDefault("embed.resize_method", d.Embed.ResizeMethod)
	l.v.SetDefault("embed.border_width", d.Embed.BorderWidth)
	l.v.SetDefault("embed.border_color", d.Embed.BorderColor)
	l.v.SetDefault("embed.color1", d.Embed.Color1)
	l.v.SetDefault("embed.color2", d.Embed.Color2)
	l.v.SetDefault("embed.fusion_ratio", d.Embed.FusionRatio)
	l.v.SetDefault("embed.shape", d.Embed.Shape)

	l.v.SetDefault("extract.method", d.Extract.Method)
	l.v.SetDefault("extract.enhancement", d.Extract.Enhancement)
	l.v.SetDefault("extract.enhancement_level", d.Extract.EnhancementLevel)
	l.v.SetDefault("extract.min_level", d.Extract.MinLevel)
	l.v.SetDefault("extract.max_level", d.Extract.MaxLevel)
	l.v.SetDefault("extract.max_dimension", d.Extract.MaxDimension)
	l.v.SetDefault("extract.fourier_max_edge", d.Extract.FourierMaxEdge)
	l.v.SetDefault("extract.gamma", d.Extract.Gamma)
	l.v.SetDefault("extract.clahe_clip", d.Extract.ClaheClip)
	l.v.SetDefault("extract.clahe_tiles", d.Extract.ClaheTiles)

	l.v.SetDefault("masks.cache_size", d.Masks.CacheSize)

	l.v.SetDefault("ocr.language", d.OCR.Language)
	l.v.SetDefault("ocr.min_confidence", d.OCR.MinConfidence)
}

// WriteDefaultConfig writes the built-in defaults as YAML to filename.
func WriteDefaultConfig(filename string) error {
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("encode defaults: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}

// SearchPaths returns the directories searched for a config file.
func SearchPaths() []string {
	paths := []string{"."}
	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, "pozt"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "pozt"))
	}
	return append(paths, "/etc/pozt")
}
