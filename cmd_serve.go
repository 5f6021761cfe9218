package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitashwath/qr-code-generator/api"
	"github.com/ajitashwath/qr-code-generator/history"
	"github.com/ajitashwath/qr-code-generator/settings"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr: cfg.Listen,
		Handler: api.RegisterRoutes(a.settings, a.store.Hub(), api.Options{
			Level:  a.level,
			Logger: logger.Named("http"),
			Static: staticFiles,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("qrgen listening", zap.String("addr", cfg.Listen),
			zap.String("store", cfg.Store.Driver), zap.String("path", cfg.Store.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.Store.Watch {
		g.Go(func() error { return a.store.Watch(ctx) })
		g.Go(func() error {
			followChanges(ctx, a)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
		return err
	}
	logger.Info("qrgen stopped")
	return nil
}

// followChanges keeps the managers in step with writes other processes make
// to the same store.
func followChanges(ctx context.Context, a *app) {
	_, changes := a.store.Hub().Subscribe(ctx)
	for c := range changes {
		switch c.Key {
		case history.StorageKey:
			a.history.Reload()
		case settings.ThemeKey, settings.DefaultsKey:
			a.settings.Reload()
		}
	}
}
