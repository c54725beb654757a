// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/datacopilot-tui/internal/model"
	"github.com/jeranaias/datacopilot-tui/internal/ui/styles"
	"github.com/jeranaias/datacopilot-tui/internal/util"
)

// Sidebar lists the user's research sessions.
type Sidebar struct {
	entries  []model.HistoryEntry
	activeID model.ChatID
	username string

	cursor  int
	offset  int
	focused bool

	width  int
	height int
	theme  *styles.Theme
}

// NewSidebar creates an empty sidebar.
func NewSidebar(theme *styles.Theme) *Sidebar {
	return &Sidebar{theme: theme}
}

// SetEntries replaces the listed sessions, keeping the cursor in range.
func (s *Sidebar) SetEntries(entries []model.HistoryEntry, active model.ChatID) {
	s.entries = entries
	s.activeID = active
	if s.cursor >= len(entries) {
		s.cursor = len(entries) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
	s.clampOffset()
}

// SetUsername sets the name shown in the footer.
func (s *Sidebar) SetUsername(name string) {
	s.username = name
}

// Len returns the number of listed sessions.
func (s *Sidebar) Len() int {
	return len(s.entries)
}

// Cursor returns the highlighted row.
func (s *Sidebar) Cursor() int {
	return s.cursor
}

// Selected returns the highlighted entry, if any.
func (s *Sidebar) Selected() (model.HistoryEntry, bool) {
	if s.cursor < 0 || s.cursor >= len(s.entries) {
		return model.HistoryEntry{}, false
	}
	return s.entries[s.cursor], true
}

// Focus gives the sidebar keyboard input.
func (s *Sidebar) Focus() { s.focused = true }

// Blur takes keyboard input away.
func (s *Sidebar) Blur() { s.focused = false }

// Focused reports whether the sidebar has keyboard input.
func (s *Sidebar) Focused() bool { return s.focused }

// SetSize updates the sidebar dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.clampOffset()
}

// visibleRows is the number of session rows that fit between header and footer.
func (s *Sidebar) visibleRows() int {
	rows := s.height - 5
	if rows < 1 {
		return 1
	}
	return rows
}

func (s *Sidebar) clampOffset() {
	rows := s.visibleRows()
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+rows {
		s.offset = s.cursor - rows + 1
	}
	if s.offset < 0 {
		s.offset = 0
	}
}

// Update handles navigation while focused.
func (s *Sidebar) Update(msg tea.Msg) (tea.Cmd, bool) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || !s.focused {
		return nil, false
	}

	switch key.String() {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
			s.clampOffset()
		}
		return nil, true

	case "down", "j":
		if s.cursor < len(s.entries)-1 {
			s.cursor++
			s.clampOffset()
		}
		return nil, true

	case "home", "g":
		s.cursor = 0
		s.clampOffset()
		return nil, true

	case "end", "G":
		if len(s.entries) > 0 {
			s.cursor = len(s.entries) - 1
			s.clampOffset()
		}
		return nil, true

	case "enter":
		entry, ok := s.Selected()
		if !ok {
			return nil, true
		}
		return func() tea.Msg { return SessionSelectedMsg{Entry: entry} }, true

	case "n":
		return func() tea.Msg { return NewSessionMsg{} }, true
	}
	return nil, false
}

// View renders the sidebar.
func (s *Sidebar) View() string {
	if s.width <= 0 {
		return ""
	}
	t := s.theme
	inner := s.width - 2
	if inner < 4 {
		inner = 4
	}

	var b strings.Builder
	b.WriteString(t.SidebarHeader.Render(util.TruncateWidth("Research Sessions", inner)))
	b.WriteString("\n")

	if len(s.entries) == 0 {
		b.WriteString(t.Hint.Render(util.TruncateWidth("No sessions yet", inner)))
		b.WriteString("\n")
	}

	end := s.offset + s.visibleRows()
	if end > len(s.entries) {
		end = len(s.entries)
	}
	for i := s.offset; i < end; i++ {
		e := s.entries[i]
		title := util.PadWidth(util.SingleLine(e.DisplayTitle()), inner-1)
		style := t.SessionItem
		switch {
		case s.focused && i == s.cursor:
			style = t.SessionSelected
		case !s.activeID.IsZero() && e.ID.Equal(s.activeID):
			style = t.SessionActive
		}
		b.WriteString(style.Render(title))
		b.WriteString("\n")
	}

	footer := "n new  tab focus"
	if s.username != "" {
		footer = s.username + "\n" + footer
	}
	b.WriteString(t.SidebarFooter.Render(footer))

	return t.Sidebar.Width(s.width).Height(s.height).Render(b.String())
}
