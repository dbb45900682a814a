// Command recordstore serves the REST contract the dashboard talks to,
// backed by SQLite (or memory with DATA_BACKEND=memory).
package main

import (
	"context"
	"os"
	"time"

	"txdash/internal/api"
	"txdash/internal/backend"
	"txdash/internal/cli"
	"txdash/internal/config"
	"txdash/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	if cfg.DataBackend != string(backend.MemoryBackend) {
		cfg.DataBackend = string(backend.SQLiteBackend)
	}
	logger := cli.SetupLogger(cfg, os.Stdout)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend)).CreateBackend(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	srv := api.NewServer(res.Backend, api.Options{Logger: logger})
	port, err := srv.Start(cfg.RecordStoreAddr())
	if err != nil {
		logger.Error("Failed to start record store", log.FieldError, err, "addr", cfg.RecordStoreAddr())
		_ = res.Close()
		os.Exit(1)
	}
	logger.Info("Record store ready", "url", "http://localhost:"+port, log.FieldBackend, cfg.DataBackend)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Stop(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})
	cli.WaitForShutdown(ctx, done)
}
