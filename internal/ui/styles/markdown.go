// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer renders assistant answers through glamour. It falls back
// to the raw text when rendering is disabled or fails.
type MarkdownRenderer struct {
	mu       sync.Mutex
	enabled  bool
	style    string
	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdownRenderer creates a renderer for a dark or light terminal.
func NewMarkdownRenderer(enabled, isDark bool) *MarkdownRenderer {
	style := "light"
	if isDark {
		style = "dark"
	}
	return &MarkdownRenderer{enabled: enabled, style: style, width: 80}
}

// SetWidth changes the wrap width. The glamour renderer is rebuilt lazily.
func (m *MarkdownRenderer) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if width != m.width {
		m.width = width
		m.renderer = nil
	}
}

// Enabled reports whether markdown is rendered.
func (m *MarkdownRenderer) Enabled() bool {
	return m.enabled
}

// Render renders text, trimming the blank lines glamour pads with.
func (m *MarkdownRenderer) Render(text string) string {
	if !m.enabled {
		return text
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.renderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.style),
			glamour.WithWordWrap(m.width),
		)
		if err != nil {
			m.enabled = false
			return text
		}
		m.renderer = r
	}

	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}
