// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/datacopilot-tui/internal/ui/styles"
)

// ConfirmDialog asks a yes/no question. The answer is delivered on the
// reply channel handed to Show, so a goroutine can block on it.
type ConfirmDialog struct {
	prompt   string
	reply    chan<- bool
	visible  bool
	selected bool // true = Yes
	theme    *styles.Theme
}

// NewConfirmDialog creates a hidden dialog.
func NewConfirmDialog(theme *styles.Theme) *ConfirmDialog {
	return &ConfirmDialog{theme: theme}
}

// Show displays prompt. reply must be buffered; it receives exactly one value.
// Showing a new prompt while one is open declines the old one.
func (d *ConfirmDialog) Show(prompt string, reply chan<- bool) {
	if d.visible {
		d.answer(false)
	}
	d.prompt = prompt
	d.reply = reply
	d.visible = true
	d.selected = false
}

// IsVisible reports whether the dialog is open.
func (d *ConfirmDialog) IsVisible() bool {
	return d.visible
}

// Prompt returns the open question.
func (d *ConfirmDialog) Prompt() string {
	return d.prompt
}

// Cancel declines the open prompt, if any.
func (d *ConfirmDialog) Cancel() {
	if d.visible {
		d.answer(false)
	}
}

func (d *ConfirmDialog) answer(ok bool) tea.Cmd {
	if d.reply != nil {
		d.reply <- ok
	}
	d.reply = nil
	d.visible = false
	d.prompt = ""
	return func() tea.Msg { return ConfirmAnsweredMsg{Accepted: ok} }
}

// Update consumes every key while visible.
func (d *ConfirmDialog) Update(msg tea.Msg) (tea.Cmd, bool) {
	if !d.visible {
		return nil, false
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil, false
	}

	switch key.String() {
	case "y", "Y":
		return d.answer(true), true
	case "n", "N", "esc":
		return d.answer(false), true
	case "left", "right", "tab", "h", "l":
		d.selected = !d.selected
		return nil, true
	case "enter":
		return d.answer(d.selected), true
	}
	return nil, true
}

// View renders the dialog, or nothing when hidden.
func (d *ConfirmDialog) View() string {
	if !d.visible {
		return ""
	}
	t := d.theme

	yes, no := t.AuthTab, t.AuthTabOn
	if d.selected {
		yes, no = t.AuthTabOn, t.AuthTab
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Top, yes.Render("Yes"), "  ", no.Render("No"))

	var b strings.Builder
	b.WriteString(styles.Indicators.Confirm + " " + d.prompt)
	b.WriteString("\n\n")
	b.WriteString(buttons)
	b.WriteString("\n\n")
	b.WriteString(t.Hint.Render("y/n  or  left/right + enter"))
	return t.ConfirmBox.Render(b.String())
}
