package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lilseedabe/pozt/internal/canvas"
	"github.com/lilseedabe/pozt/internal/imaging"
	"github.com/lilseedabe/pozt/internal/moire"
)

// workdir isolates a test from any config file or .env on the machine.
func workdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	return dir
}

// run executes the CLI on a small canvas and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCommand(BuildInfo{Version: "1.0.0", BuildTime: "today", GitCommit: "abc123"})
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{"--canvas-width", "200", "--canvas-height", "300"}, args...))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writePNG(t *testing.T, dir, name string, w, h int, fill func(x, y int) color.NRGBA) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, fill(x, y))
		}
	}
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.SavePNG(path, img))
	return path
}

func gradient(x, y int) color.NRGBA {
	return color.NRGBA{R: uint8(x * 2), G: uint8(y), B: 90, A: 255}
}

func TestRootCommandHelp(t *testing.T) {
	workdir(t)
	out, _, err := run(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Available Commands:")
	for _, sub := range []string{"embed", "extract", "preview", "map-region", "detect", "serve", "config"} {
		assert.Contains(t, out, sub)
	}
}

func TestRootCommandVersion(t *testing.T) {
	workdir(t)
	out, _, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "1.0.0 (commit: abc123, built: today)")
}

func TestEmbedCommand(t *testing.T) {
	dir := workdir(t)
	base := writePNG(t, dir, "base.png", 100, 150, gradient)
	out := filepath.Join(dir, "moire.png")
	outline := filepath.Join(dir, "outline.png")

	stdout, _, err := run(t, "embed",
		"--base", base,
		"--region", "10,10,40,40",
		"--strategy", "perfect",
		"--out", out,
		"--outline-out", outline,
		"--format", "json",
	)
	require.NoError(t, err)

	var report struct {
		Output   string        `json:"output"`
		Outline  string        `json:"outline"`
		Region   canvas.Region `json:"region"`
		Strategy string        `json:"strategy"`
		Strength float64       `json:"strength"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, out, report.Output)
	assert.Equal(t, outline, report.Outline)
	assert.Equal(t, canvas.Region{X: 20, Y: 20, W: 80, H: 80}, report.Region)
	assert.Equal(t, "perfect", report.Strategy)
	assert.InDelta(t, 0.04, report.Strength, 1e-9)

	img, err := imaging.DecodeFile(out)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 200, 300), img.Bounds())
	_, err = os.Stat(outline)
	assert.NoError(t, err)
}

func TestEmbedCommandConfigFile(t *testing.T) {
	dir := workdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pozt.yaml"), []byte(`
embed:
  strategy: overlay
  border_width: 0
  resize_method: stretch
`), 0o644))
	base := writePNG(t, dir, "base.png", 100, 100, gradient)

	stdout, _, err := run(t, "embed", "--base", base, "--region", "10,10,20,20", "--out", filepath.Join(dir, "o.png"), "--format", "yaml")
	require.NoError(t, err)

	var report struct {
		Strategy  string           `yaml:"strategy"`
		Region    canvas.Region    `yaml:"region"`
		Transform canvas.Transform `yaml:"transform"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, "overlay", report.Strategy)
	assert.Equal(t, canvas.Stretch, report.Transform.Method)
	// stretch scales 100x100 to 200x300
	assert.Equal(t, canvas.Region{X: 20, Y: 30, W: 40, H: 60}, report.Region)
}

func TestEmbedCommandFlagOverridesConfig(t *testing.T) {
	dir := workdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pozt.yaml"), []byte("embed:\n  strategy: overlay\n"), 0o644))
	base := writePNG(t, dir, "base.png", 100, 150, gradient)

	stdout, _, err := run(t, "embed", "--base", base, "--region", "10,10,20,20", "--strategy", "blended", "--out", filepath.Join(dir, "o.png"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "strategy: blended")
}

func TestEmbedCommandErrors(t *testing.T) {
	dir := workdir(t)
	base := writePNG(t, dir, "base.png", 100, 150, gradient)
	out := filepath.Join(dir, "o.png")

	tests := []struct {
		name  string
		args  []string
		class moire.Class
	}{
		{"region outside base", []string{"--base", base, "--region", "90,10,40,40", "--out", out}, moire.ClassInvalidRegion},
		{"malformed region", []string{"--base", base, "--region", "1,2,3", "--out", out}, moire.ClassInvalidArgument},
		{"unknown strategy", []string{"--base", base, "--region", "1,2,3,4", "--strategy", "sparkle", "--out", out}, moire.ClassInvalidArgument},
		{"missing base", []string{"--base", filepath.Join(dir, "absent.png"), "--region", "1,2,3,4", "--out", out}, moire.ClassExternalInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, append([]string{"embed"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.class, moire.Classify(err), "%v", err)
		})
	}
}

func TestMissingRequiredFlag(t *testing.T) {
	workdir(t)
	_, _, err := run(t, "embed", "--region", "1,2,3,4")
	require.Error(t, err)
	var usage *usageError
	assert.True(t, errors.As(err, &usage))
	assert.Equal(t, 2, exitCode(err))
	assert.Contains(t, err.Error(), "--base")
}

func TestExtractCommand(t *testing.T) {
	dir := workdir(t)
	in := writePNG(t, dir, "stripes.png", 64, 48, func(x, y int) color.NRGBA {
		v := uint8(255 * (y % 2))
		return color.NRGBA{R: v, G: v, B: v, A: 255}
	})
	out := filepath.Join(dir, "hidden.png")

	stdout, _, err := run(t, "extract", "--in", in, "--out", out, "--method", "pattern_subtraction", "--enhancement", "none")
	require.NoError(t, err)
	assert.Contains(t, stdout, "method: pattern_subtraction")
	assert.Contains(t, stdout, "enhancement: none")

	img, err := imaging.DecodeFile(out)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())
}

func TestExtractCommandSubstitution(t *testing.T) {
	dir := workdir(t)
	in := writePNG(t, dir, "big.png", 300, 200, gradient)

	stdout, _, err := run(t, "extract", "--in", in, "--out", filepath.Join(dir, "h.png"),
		"--method", "fourier_analysis", "--fourier-max-edge", "128", "--format", "json")
	require.NoError(t, err)

	var report struct {
		Metadata struct {
			Requested   string `json:"requested"`
			Used        string `json:"used"`
			Substituted bool   `json:"substituted"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, "fourier_analysis", report.Metadata.Requested)
	assert.Equal(t, "pattern_subtraction", report.Metadata.Used)
	assert.True(t, report.Metadata.Substituted)
}

func TestPreviewCommand(t *testing.T) {
	dir := workdir(t)
	in := writePNG(t, dir, "in.png", 80, 80, gradient)
	out := filepath.Join(dir, "zoom.png")

	stdout, _, err := run(t, "preview", "--in", in, "--region", "10,10,40,40", "--kind", "display_4k", "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "display_4k preview")

	_, _, err = run(t, "preview", "--in", in, "--region", "10,10,40,40", "--kind", "print", "--out", out)
	assert.Equal(t, moire.ClassInvalidArgument, moire.Classify(err))
}

func TestMapRegionCommand(t *testing.T) {
	workdir(t)

	stdout, _, err := run(t, "map-region", "--region", "10,20,40,40", "--source", "100x200", "--format", "json")
	require.NoError(t, err)
	var fwd struct {
		Region canvas.Region `json:"region"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &fwd))
	assert.Equal(t, canvas.Region{X: 40, Y: 30, W: 60, H: 60}, fwd.Region)

	stdout, _, err = run(t, "map-region", "--region", "40,30,60,60", "--source", "100x200", "--inverse")
	require.NoError(t, err)
	assert.Contains(t, stdout, "canvas (40,30 60x60) -> source (10,20 40x40)")

	_, _, err = run(t, "map-region", "--region", "1,2,3,4")
	var usage *usageError
	assert.True(t, errors.As(err, &usage))
}

func TestDetectCommand(t *testing.T) {
	dir := workdir(t)
	field := canvas.Region{X: 40, Y: 40, W: 80, H: 80}
	in := writePNG(t, dir, "stripes.png", 200, 200, func(x, y int) color.NRGBA {
		v := uint8(90)
		if field.Contains(x, y) {
			v = uint8(255 * (x % 2))
		}
		return color.NRGBA{R: v, G: v, B: v, A: 255}
	})

	stdout, _, err := run(t, "detect", "--in", in, "--format", "yaml")
	require.NoError(t, err)
	var report struct {
		Found       bool   `yaml:"found"`
		Orientation string `yaml:"orientation"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &report))
	assert.True(t, report.Found)
	assert.Equal(t, "vertical", report.Orientation)
}

func TestServeCommand(t *testing.T) {
	workdir(t)
	root := NewRootCommand(BuildInfo{Version: "9.9.9"})
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"initialize"}` + "\n"))
	root.SetArgs([]string{"serve"})
	require.NoError(t, root.Execute())

	var resp struct {
		Result struct {
			ServerInfo struct {
				Name    string `json:"name"`
				Version string `json:"version"`
			} `json:"serverInfo"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &resp))
	assert.Equal(t, "pozt", resp.Result.ServerInfo.Name)
	assert.Equal(t, "9.9.9", resp.Result.ServerInfo.Version)
}

func TestConfigCommands(t *testing.T) {
	dir := workdir(t)

	stdout, _, err := run(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote pozt.yaml")
	_, err = os.Stat(filepath.Join(dir, "pozt.yaml"))
	require.NoError(t, err)

	stdout, _, err = run(t, "config", "show", "--format", "json")
	require.NoError(t, err)
	var report struct {
		Config struct {
			Canvas struct {
				Width int `json:"width"`
			} `json:"canvas"`
		} `json:"config"`
		File string `json:"file"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	// the flag outranks the freshly written file
	assert.Equal(t, 200, report.Config.Canvas.Width)
	assert.True(t, strings.HasSuffix(report.File, "pozt.yaml"))
}

func TestInvalidFormat(t *testing.T) {
	workdir(t)
	_, _, err := run(t, "map-region", "--region", "1,2,3,4", "--source", "10x10", "--format", "xml")
	var usage *usageError
	assert.True(t, errors.As(err, &usage))
}

func TestVerboseLogging(t *testing.T) {
	workdir(t)
	_, stderr, err := run(t, "--verbose", "map-region", "--region", "1,2,3,4", "--source", "10x10")
	require.NoError(t, err)
	assert.Empty(t, stderr)

	dir := t.TempDir()
	base := writePNG(t, dir, "b.png", 50, 50, gradient)
	_, stderr, err = run(t, "-v", "embed", "--base", base, "--region", "5,5,20,20", "--out", filepath.Join(dir, "o.png"))
	require.NoError(t, err)
	assert.Contains(t, stderr, "level=DEBUG")
	assert.Contains(t, stderr, "composited region")
}
