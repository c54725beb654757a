// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/datacopilot-tui/internal/config"
	"github.com/jeranaias/datacopilot-tui/internal/controller"
	"github.com/jeranaias/datacopilot-tui/internal/ui/app"
	"github.com/jeranaias/datacopilot-tui/internal/ui/styles"
)

// ErrTUIRequiresTerminal is returned when the full-screen interface is
// started without a terminal.
var ErrTUIRequiresTerminal = errors.New("the interface needs a terminal; try 'datacopilot chat' or 'datacopilot ask'")

func newTUICommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the full-screen interface (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, e)
		},
	}
}

func runTUI(cmd *cobra.Command, e *env) error {
	if !CanPrompt() {
		return ErrTUIRequiresTerminal
	}
	ctx := cmd.Context()

	theme := styles.NewTheme(e.cfg.UI.Theme)

	bridge := app.NewBridge()
	ctrl := controller.New(e.backend()).
		WithLogger(e.logger.Named("controller")).
		WithModel(e.cfg.Chat.Model).
		WithSplashDuration(time.Duration(e.cfg.UI.SplashMillis) * time.Millisecond).
		WithListener(bridge).
		WithNotifier(bridge).
		WithConfirmer(bridge)

	if w := e.watchConfig(ctx, ctrl); w != nil {
		defer w.Close()
	}

	e.logger.Info("Starting interface",
		zap.String("version", Version),
		zap.String("server", e.cfg.Server.BaseURL))

	return app.Run(ctx, ctrl, bridge, app.Options{
		Version:   Version,
		Theme:     theme,
		Markdown:  e.cfg.UI.Markdown,
		ExportDir: ".",
		Logger:    e.logger.Named("tui"),
	})
}

// watchConfig follows the config file so a model change applies to the
// running session. It returns nil when there is no file to watch.
func (e *env) watchConfig(ctx context.Context, ctrl *controller.Controller) *config.Watcher {
	path, err := e.configFile()
	if err != nil {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	w, err := config.Watch(ctx, path, 0, func(cfg *config.Config, err error) {
		if err != nil {
			e.logger.Warn("Config reload failed", zap.String("path", path), zap.Error(err))
			return
		}
		if e.server == "" && cfg.Server.BaseURL != e.cfg.Server.BaseURL {
			e.logger.Info("Server change takes effect on restart", zap.String("server", cfg.Server.BaseURL))
		}
		ctrl.SetModel(cfg.Chat.Model)
	})
	if err != nil {
		e.logger.Warn("Config watch unavailable", zap.Error(err))
		return nil
	}
	return w
}
