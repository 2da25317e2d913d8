package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lilseedabe/pozt/internal/config"
	"github.com/lilseedabe/pozt/internal/moire"
)

// BuildInfo is stamped into the binary with -ldflags.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// app is the state shared by one command tree.
type app struct {
	build   BuildInfo
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     *slog.Logger
}

// Execute runs the CLI and returns the process exit code.
func Execute(build BuildInfo) int {
	root := NewRootCommand(build)
	if err := root.Execute(); err != nil {
		var usage *usageError
		if errors.As(err, &usage) {
			fmt.Fprintf(root.ErrOrStderr(), "Error: %v\nRun 'pozt --help' for usage.\n", err)
		} else {
			fmt.Fprintf(root.ErrOrStderr(), "Error: %s: %v\n", moire.Classify(err), err)
		}
		return exitCode(err)
	}
	return 0
}

// exitCode maps error classes to distinct exit statuses.
func exitCode(err error) int {
	var usage *usageError
	if errors.As(err, &usage) {
		return 2
	}
	switch moire.Classify(err) {
	case moire.ClassInvalidRegion, moire.ClassInvalidArgument:
		return 2
	case moire.ClassExternalInput:
		return 3
	}
	return 1
}

// usageError marks malformed command lines.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// NewRootCommand builds the command tree on a private viper instance.
func NewRootCommand(build BuildInfo) *cobra.Command {
	a := &app{build: build, v: viper.New()}

	root := &cobra.Command{
		Use:   "pozt",
		Short: "Hide images in moiré stripe patterns and recover them",
		Long: `pozt hides an image inside a region of another image as a fine stripe
pattern that is only readable when the image is viewed at reduced scale,
and recovers hidden content from such images.

Examples:
  pozt embed --base photo.png --region 100,200,400,300 --strategy perfect --out moire.png
  pozt extract --in moire.png --method pattern_subtraction --out hidden.png
  pozt preview --in moire.png --region 100,200,400,300 --kind zoom --out zoom.png
  pozt map-region --region 100,200,400,300 --source 1200x1600
  pozt serve`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", build.Version, build.GitCommit, build.BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.bindFlags(cmd.Flags()); err != nil {
				return err
			}
			return a.init(cmd.ErrOrStderr())
		},
	}

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is search in ., $XDG_CONFIG_HOME/pozt or $HOME/.config/pozt, /etc/pozt)")
	pf.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.Int("workers", 0, "FFT workers (0 uses every CPU)")
	pf.Int("canvas-width", config.DefaultConfig().Canvas.Width, "fixed canvas width")
	pf.Int("canvas-height", config.DefaultConfig().Canvas.Height, "fixed canvas height")
	a.bind(pf, map[string]string{
		"verbose":       "verbose",
		"log_level":     "log-level",
		"workers":       "workers",
		"canvas.width":  "canvas-width",
		"canvas.height": "canvas-height",
	})

	root.AddCommand(
		a.embedCommand(),
		a.extractCommand(),
		a.previewCommand(),
		a.mapRegionCommand(),
		a.detectCommand(),
		a.serveCommand(),
		a.configCommand(),
	)
	return root
}

// init loads the configuration once the flags are parsed and sets up
// logging on stderr; stdout carries reports and the MCP protocol.
func (a *app) init(stderr io.Writer) error {
	cfg, err := config.NewLoaderWith(a.v).LoadWithFile(a.cfgFile)
	if err != nil {
		return fmt.Errorf("%w: %v", moire.ErrInvalidArgument, err)
	}
	a.cfg = cfg
	a.log = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	if used := a.v.ConfigFileUsed(); used != "" {
		a.log.Debug("loaded configuration", "file", used)
	}
	return nil
}

// viperKey is the flag annotation naming the configuration key a flag sets.
const viperKey = "pozt_config_key"

// bind records the configuration key behind each flag. Keys are bound to
// viper only for the command that runs, since several commands share keys.
func (a *app) bind(fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := fs.SetAnnotation(name, viperKey, []string{key}); err != nil {
			panic(fmt.Sprintf("bind %s to --%s: %v", key, name, err))
		}
	}
}

func (a *app) bindFlags(fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		for _, key := range f.Annotations[viperKey] {
			if err == nil {
				err = a.v.BindPFlag(key, f)
			}
		}
	})
	return err
}

func (a *app) engine() (*moire.Engine, error) {
	return moire.New(moire.Options{
		Canvas:        a.cfg.CanvasSize(),
		Budget:        a.cfg.Budget(),
		MaskCacheSize: a.cfg.Masks.CacheSize,
		Logger:        a.log,
	})
}

func requireFlags(cmd *cobra.Command, names ...string) error {
	for _, name := range names {
		if v, _ := cmd.Flags().GetString(name); v == "" {
			return &usageError{fmt.Errorf("--%s is required", name)}
		}
	}
	return nil
}
