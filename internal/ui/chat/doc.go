// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation pane of the datacopilot TUI.
//
// The pane renders the turns of a controller snapshot into a scrollable
// viewport, shows a spinner while an answer is pending, and owns the
// message input. Lines starting with "/" are parsed as commands; the same
// parser backs the line-mode REPL.
//
// # Key Types
//
//   - Pane: Viewport, input and spinner for one conversation
//   - Command: A parsed slash command
//   - SubmitMsg, CommandMsg: What the pane emits on enter
package chat
