package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mrashed98/blueprint-cms/config"
	"github.com/mrashed98/blueprint-cms/internal/app"
	"github.com/mrashed98/blueprint-cms/internal/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Storage.SeedOnStart {
		res, err := a.Seed(ctx)
		if err != nil {
			return err
		}
		logger.Info("blueprints seeded",
			zap.Strings("created", res.Created), zap.Strings("refreshed", res.Refreshed), zap.Int("skipped", len(res.Skipped)))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
