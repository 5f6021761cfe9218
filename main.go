package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ajitashwath/qr-code-generator/config"
	"github.com/ajitashwath/qr-code-generator/history"
	"github.com/ajitashwath/qr-code-generator/render"
	"github.com/ajitashwath/qr-code-generator/settings"
	"github.com/ajitashwath/qr-code-generator/store"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "qrgen",
	Short: "QR code generator with history and portable settings",
	Long: `qrgen renders QR codes and remembers the last 20 generated texts.

Theme, default size and colors, and history persist in a local store and can
be exported to a JSON file and imported elsewhere.

Run without arguments to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = newLogger(cfg.Log, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

func newLogger(lc config.LogConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if lc.Level != "" {
		lvl, err := zap.ParseAtomicLevel(lc.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = lvl
	}
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}

// app is the state shared by every command: one store and the managers
// that own its keys.
type app struct {
	store    *store.Store
	history  *history.Manager
	settings *settings.Manager
	level    render.Level
}

func openApp(cfg config.Config, log *zap.Logger) (*app, error) {
	s, err := store.Open(cfg.Store.Driver, cfg.Store.Path, log.Named("store"))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	level, err := render.ParseLevel(cfg.QR.Level)
	if err != nil {
		s.Close()
		return nil, err
	}

	h := history.NewManager(s, log.Named("history"))
	fallback := settings.Defaults{
		Size:       cfg.Defaults.Size,
		LightColor: cfg.Defaults.LightColor,
		DarkColor:  cfg.Defaults.DarkColor,
	}
	sm := settings.NewManager(s, h, fallback, log.Named("settings"))
	return &app{store: s, history: h, settings: sm, level: level}, nil
}

func (a *app) Close() error { return a.store.Close() }

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config (default ./"+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
