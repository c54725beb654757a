// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/datacopilot-tui/internal/ui/styles"
)

const logoArt = `
 ___       _        ___     ___ _ _     _
|   \ __ _| |_ __ _/ __|___| _ (_) |___| |_
| |) / _` + "`" + ` |  _/ _` + "`" + ` | (__/ _ \  _/ | / _ \  _|
|___/\__,_|\__\__,_|\___\___/_| |_|_\___/\__|`

// Tagline is shown under the logo on the splash and landing screens.
const Tagline = "Your AI research assistant for data questions"

// Splash is the boot screen.
type Splash struct {
	version string
	width   int
	height  int
	theme   *styles.Theme
}

// NewSplash creates a splash screen.
func NewSplash(theme *styles.Theme, version string) Splash {
	return Splash{theme: theme, version: version}
}

// SetSize updates the splash dimensions.
func (s *Splash) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// View renders the splash screen centered in the window.
func (s Splash) View() string {
	var b strings.Builder
	b.WriteString(s.theme.Logo.Render(strings.TrimPrefix(logoArt, "\n")))
	b.WriteString("\n\n")
	b.WriteString(s.theme.Tagline.Render(Tagline))
	if s.version != "" {
		b.WriteString("\n")
		b.WriteString(s.theme.Hint.Render("v" + strings.TrimPrefix(s.version, "v")))
	}

	if s.width <= 0 || s.height <= 0 {
		return b.String()
	}
	return lipgloss.Place(s.width, s.height, lipgloss.Center, lipgloss.Center, b.String())
}
