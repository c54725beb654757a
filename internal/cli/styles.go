// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/datacopilot-tui/internal/ui/styles"
)

// init picks the lipgloss color profile for line-mode output.
// NO_COLOR, FORCE_COLOR and piped stdout are all respected.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES FOR LINE-MODE OUTPUT
// =============================================================================

var (
	// TitleStyle is used for command headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Indigo).
			MarginBottom(1)

	// LabelStyle is used for key/value labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Width(14)

	// ValueStyle is used for plain values
	ValueStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	// DimStyle is used for secondary detail such as ids and timestamps
	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	// SuccessStyle marks completed operations
	SuccessStyle = lipgloss.NewStyle().
			Foreground(styles.Teal).
			Bold(true)

	// ErrorStyle marks failures
	ErrorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	// InfoStyle marks informational alerts
	InfoStyle = lipgloss.NewStyle().
			Foreground(styles.Sky)

	// PromptStyle is the REPL prompt
	PromptStyle = lipgloss.NewStyle().
			Foreground(styles.Indigo).
			Bold(true)

	// UserLabelStyle and AssistantLabelStyle head each turn in the REPL
	UserLabelStyle = lipgloss.NewStyle().
			Foreground(styles.UserAccent).
			Bold(true)

	AssistantLabelStyle = lipgloss.NewStyle().
				Foreground(styles.Teal).
				Bold(true)
)

// RenderSeparator returns a horizontal rule of the given width.
func RenderSeparator(width int) string {
	if width <= 0 {
		width = 40
	}
	return DimStyle.Render(strings.Repeat("-", width))
}

// RenderKeyValue renders one aligned "label value" line.
func RenderKeyValue(label, value string) string {
	return LabelStyle.Render(label) + ValueStyle.Render(value)
}
