// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/datacopilot-tui/internal/controller"
)

// Run starts the TUI and blocks until the user quits or ctx is cancelled.
// bridge must already be wired into ctrl as its listener, notifier and
// confirmer. Run starts the controller's splash and closes it on return.
func Run(ctx context.Context, ctrl *controller.Controller, bridge *Bridge, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(
		New(ctx, ctrl, opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	bridge.Attach(p)
	defer bridge.Attach(nil)

	ctrl.Start()
	defer ctrl.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			p.Quit()
		case <-done:
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
