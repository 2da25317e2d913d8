package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

// isolate runs the test in an empty directory with no user config in reach.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestNewLoader(t *testing.T) {
	if l := NewLoader(); l == nil || l.v == nil {
		t.Fatal("NewLoader() returned no viper instance")
	}
}

func TestLoadWithNoConfigFile(t *testing.T) {
	isolate(t)

	cfg, err := NewLoaderWith(viper.New()).Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	want := DefaultConfig()
	if cfg.LogLevel != want.LogLevel {
		t.Errorf("LogLevel = %s, want %s", cfg.LogLevel, want.LogLevel)
	}
	if cfg.Canvas != want.Canvas {
		t.Errorf("Canvas = %+v, want %+v", cfg.Canvas, want.Canvas)
	}
	if cfg.Extract.FourierMaxEdge != 512 {
		t.Errorf("FourierMaxEdge = %d, want 512", cfg.Extract.FourierMaxEdge)
	}
}

func TestLoadFromSearchPath(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "pozt.yaml"), `
log_level: debug
canvas:
  width: 1200
  height: 1600
embed:
  strategy: overlay
  shape: star
extract:
  method: pattern_subtraction
  clahe_tiles: 4
`)

	l := NewLoaderWith(viper.New())
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.Canvas.Width != 1200 || cfg.Canvas.Height != 1600 {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.Embed.Strategy != "overlay" || cfg.Embed.Shape != "star" {
		t.Errorf("Embed = %+v", cfg.Embed)
	}
	if cfg.Extract.Method != "pattern_subtraction" || cfg.Extract.ClaheTiles != 4 {
		t.Errorf("Extract = %+v", cfg.Extract)
	}
	// unset keys keep their defaults
	if cfg.Embed.BorderWidth != 3 {
		t.Errorf("BorderWidth = %d, want default 3", cfg.Embed.BorderWidth)
	}
	if !strings.HasSuffix(l.ConfigFileUsed(), "pozt.yaml") {
		t.Errorf("ConfigFileUsed() = %q", l.ConfigFileUsed())
	}
}

func TestLoadWithFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, "extract:\n  enhancement: clahe\n  gamma: 0.5\n")

	cfg, err := NewLoaderWith(viper.New()).LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	if cfg.Extract.Enhancement != "clahe" || cfg.Extract.Gamma != 0.5 {
		t.Errorf("Extract = %+v", cfg.Extract)
	}
}

func TestLoadWithMissingFile(t *testing.T) {
	dir := isolate(t)
	_, err := NewLoaderWith(viper.New()).LoadWithFile(filepath.Join(dir, "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("LoadWithFile() error = %v, want a missing file error", err)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "pozt.yaml"), "embed:\n  strategy: sparkle\n")

	_, err := NewLoaderWith(viper.New()).Load()
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("Load() error = %v, want a validation error", err)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("POZT_LOG_LEVEL", "warn")
	t.Setenv("POZT_CANVAS_WIDTH", "800")
	t.Setenv("POZT_EXTRACT_METHOD", "frequency_filtering")

	cfg, err := NewLoaderWith(viper.New()).Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %s, want warn", cfg.LogLevel)
	}
	if cfg.Canvas.Width != 800 {
		t.Errorf("Canvas.Width = %d, want 800", cfg.Canvas.Width)
	}
	if cfg.Extract.Method != "frequency_filtering" {
		t.Errorf("Extract.Method = %s", cfg.Extract.Method)
	}
}

func TestDotEnvFile(t *testing.T) {
	dir := isolate(t)
	// godotenv.Load sets variables for the whole process; restore afterwards.
	t.Setenv("POZT_MASKS_CACHE_SIZE", "")
	os.Unsetenv("POZT_MASKS_CACHE_SIZE")
	writeFile(t, filepath.Join(dir, ".env"), "POZT_MASKS_CACHE_SIZE=7\n")

	cfg, err := NewLoaderWith(viper.New()).Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Masks.CacheSize != 7 {
		t.Errorf("Masks.CacheSize = %d, want 7 from .env", cfg.Masks.CacheSize)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "defaults.yaml")
	if err := WriteDefaultConfig(path); err != nil {
		t.Fatalf("WriteDefaultConfig() error = %v", err)
	}

	cfg, err := NewLoaderWith(viper.New()).LoadWithFile(path)
	if err != nil {
		t.Fatalf("reload defaults: %v", err)
	}
	if cfg.Extract != DefaultConfig().Extract {
		t.Errorf("round-tripped Extract = %+v", cfg.Extract)
	}
}

func TestSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	paths := SearchPaths()
	want := []string{".", "/tmp/xdg/pozt", "/etc/pozt"}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Errorf("SearchPaths() = %v, want %v", paths, want)
	}
}
