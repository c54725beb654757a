// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the screen pieces of the datacopilot TUI.
//
// # Key Types
//
//   - Splash: Boot screen shown until the controller leaves the splash phase
//   - AuthForm: Landing sign-in / sign-up form
//   - Sidebar: Research session history with selection
//   - AlertBox: Modal alert that waits for dismissal
//   - ConfirmDialog: Yes/no prompt answered through a reply channel
//
// Interactive components expose Update(msg) (tea.Cmd, bool); the bool
// reports whether the component consumed the message.
package components
