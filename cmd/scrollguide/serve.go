package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scrollguide/guide/internal/config"
	"github.com/scrollguide/guide/internal/ws"
)

func runServe(cmd *cobra.Command) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	// Serve mode logs to stderr unless a file is configured explicitly.
	file := cfg.Log.File
	if file == config.Default().Log.File {
		file = ""
	}
	logger, err := newLogger(cfg, file)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	server, err := ws.NewServer(cfg, maxConns, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if path != "" && !noWatch {
		startReloader(ctx, path, server, logger)
	}

	if err := server.ListenAndServe(ctx, cfg.Addr()); err != nil {
		logger.Error("server error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

// startReloader applies config edits to new connections. A file that fails
// to load leaves the previous config in place.
func startReloader(ctx context.Context, path string, server *ws.Server, logger *zap.Logger) {
	w, err := config.NewWatcher(path, func() {
		cfg, err := config.Load(path)
		if err != nil {
			logger.Warn("config reload failed", zap.Error(err))
			return
		}
		if err := server.Reload(cfg); err != nil {
			logger.Warn("config reload failed", zap.Error(err))
			return
		}
		logger.Info("config reloaded", zap.Int("sections", len(cfg.Sections)))
	}, logger)
	if err != nil {
		logger.Warn("config watch unavailable", zap.Error(err))
		return
	}
	if err := w.Start(ctx); err != nil {
		logger.Warn("config watch unavailable", zap.Error(err))
		return
	}
	go func() {
		<-ctx.Done()
		w.Stop()
	}()
}
