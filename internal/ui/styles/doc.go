// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the datacopilot TUI.
//
// All colors are lipgloss.AdaptiveColor values. NewTheme resolves light or
// dark once, either from the ui.theme setting or by asking the terminal
// through termenv.
//
// # Layout
//
// Theme.SetSize records the window size; GetLayoutMode and SidebarWidth
// decide whether the history sidebar is shown and how wide it is.
package styles
