package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scrollguide/guide/internal/app"
	"github.com/scrollguide/guide/internal/config"
)

func runTUI(cmd *cobra.Command) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs always go to a file.
	file := cfg.Log.File
	if file == "" {
		file = config.Default().Log.File
	}
	logger, err := newLogger(cfg, file)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	inbox := app.NewInbox()
	m := app.New(app.Options{
		Config:     cfg,
		ConfigPath: path,
		Logger:     logger,
		Inbox:      inbox,
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if path != "" && !noWatch {
		w, err := config.NewWatcher(path, func() { inbox.Send(app.ConfigChangedMsg{}) }, logger)
		if err != nil {
			logger.Warn("config watch unavailable", zap.Error(err))
		} else if err := w.Start(ctx); err != nil {
			logger.Warn("config watch unavailable", zap.Error(err))
		} else {
			defer w.Stop()
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
