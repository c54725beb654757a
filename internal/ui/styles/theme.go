// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme modes accepted by NewTheme. They match the ui.theme config values.
const (
	ModeAuto  = "auto"
	ModeDark  = "dark"
	ModeLight = "light"
)

// Theme holds every style the screens render with.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// ==========================================================================
	// SPLASH AND LANDING
	// ==========================================================================

	Logo       lipgloss.Style
	Tagline    lipgloss.Style
	AuthBox    lipgloss.Style
	AuthTab    lipgloss.Style
	AuthTabOn  lipgloss.Style
	FieldLabel lipgloss.Style
	Hint       lipgloss.Style

	// ==========================================================================
	// SIDEBAR
	// ==========================================================================

	Sidebar         lipgloss.Style
	SidebarHeader   lipgloss.Style
	SessionItem     lipgloss.Style
	SessionSelected lipgloss.Style
	SessionActive   lipgloss.Style
	SidebarFooter   lipgloss.Style

	// ==========================================================================
	// CONVERSATION
	// ==========================================================================

	Header         lipgloss.Style
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	TurnBody       lipgloss.Style
	Thinking       lipgloss.Style
	EmptyState     lipgloss.Style
	InputBox       lipgloss.Style
	InputBoxBusy   lipgloss.Style

	// ==========================================================================
	// OVERLAYS
	// ==========================================================================

	AlertInfo    lipgloss.Style
	AlertError   lipgloss.Style
	ConfirmBox   lipgloss.Style
	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
}

// NewTheme builds a theme. mode is "auto", "dark" or "light"; anything
// else is treated as auto, which asks the terminal.
func NewTheme(mode string) *Theme {
	profile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(mode) {
	case ModeDark:
		isDark = true
	case ModeLight:
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Logo = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo)

	t.Tagline = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.AuthBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Indigo).
		Padding(1, 3)

	t.AuthTab = lipgloss.NewStyle().
		Foreground(TextMuted).
		Padding(0, 2)

	t.AuthTabOn = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(Indigo).
		Padding(0, 2)

	t.FieldLabel = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Width(10)

	t.Hint = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		PaddingRight(1)

	t.SidebarHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo).
		MarginBottom(1)

	t.SessionItem = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(1)

	t.SessionSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(IndigoDeep).
		PaddingLeft(1)

	t.SessionActive = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo).
		PaddingLeft(1)

	t.SidebarFooter = lipgloss.NewStyle().
		Foreground(TextMuted).
		MarginTop(1)

	// Conversation
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo).
		Background(SurfaceDim).
		Padding(0, 1)

	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(UserAccent)

	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)

	t.TurnBody = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(2)

	t.Thinking = lipgloss.NewStyle().
		Foreground(Teal).
		Italic(true)

	t.EmptyState = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true).
		Align(lipgloss.Center)

	t.InputBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Indigo).
		Padding(0, 1)

	t.InputBoxBusy = t.InputBox.
		BorderForeground(TextMuted)

	// Overlays
	t.AlertInfo = lipgloss.NewStyle().
		Foreground(Sky).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Sky).
		Padding(0, 2)

	t.AlertError = lipgloss.NewStyle().
		Foreground(Rose).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(0, 2)

	t.ConfirmBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Amber).
		Padding(1, 3).
		Align(lipgloss.Center)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim)

	t.ShortcutKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 70 {
		return LayoutNarrow
	}
	if t.Width < 110 {
		return LayoutMedium
	}
	return LayoutWide
}

// SidebarWidth returns how many columns the history sidebar takes.
// Narrow terminals hide it.
func (t *Theme) SidebarWidth() int {
	switch t.GetLayoutMode() {
	case LayoutNarrow:
		return 0
	case LayoutMedium:
		return 24
	default:
		return 32
	}
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 70 columns
	LayoutMedium                   // 70-110 columns
	LayoutWide                     // >= 110 columns
)
