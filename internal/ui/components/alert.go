// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/datacopilot-tui/internal/controller"
	"github.com/jeranaias/datacopilot-tui/internal/ui/styles"
)

// AlertBox shows controller alerts one at a time. Alerts that arrive while
// one is visible are queued; each waits for the user to dismiss it.
type AlertBox struct {
	queue []controller.Alert
	width int
	theme *styles.Theme
}

// NewAlertBox creates an empty alert box.
func NewAlertBox(theme *styles.Theme) *AlertBox {
	return &AlertBox{theme: theme}
}

// Push queues an alert.
func (a *AlertBox) Push(alert controller.Alert) {
	a.queue = append(a.queue, alert)
}

// IsVisible reports whether an alert is on screen.
func (a *AlertBox) IsVisible() bool {
	return len(a.queue) > 0
}

// Current returns the alert on screen.
func (a *AlertBox) Current() (controller.Alert, bool) {
	if len(a.queue) == 0 {
		return controller.Alert{}, false
	}
	return a.queue[0], true
}

// Pending returns how many alerts are waiting, including the visible one.
func (a *AlertBox) Pending() int {
	return len(a.queue)
}

// SetWidth limits the rendered box width.
func (a *AlertBox) SetWidth(width int) {
	a.width = width
}

// Dismiss closes the visible alert.
func (a *AlertBox) Dismiss() {
	if len(a.queue) > 0 {
		a.queue = a.queue[1:]
	}
}

// Update consumes every key while visible; enter, esc and space dismiss.
func (a *AlertBox) Update(msg tea.Msg) (tea.Cmd, bool) {
	if !a.IsVisible() {
		return nil, false
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil, false
	}
	switch key.String() {
	case "enter", "esc", " ", "q":
		a.Dismiss()
		return func() tea.Msg { return AlertDismissedMsg{} }, true
	}
	return nil, true
}

// View renders the visible alert, or nothing.
func (a *AlertBox) View() string {
	alert, ok := a.Current()
	if !ok {
		return ""
	}

	style := a.theme.AlertInfo
	text := styles.Indicators.Info + " " + alert.Message
	if alert.Level == controller.AlertError {
		style = a.theme.AlertError
		text = styles.Indicators.Error + " " + alert.Message
	}
	if a.width > 10 {
		style = style.MaxWidth(a.width)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		style.Render(text),
		a.theme.Hint.Render("  enter to dismiss"),
	)
}
