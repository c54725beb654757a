// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the root Bubble Tea model of the datacopilot TUI.
//
// The model holds no conversation state of its own. It renders the latest
// controller.Snapshot and picks the screen from its phase: the splash, the
// landing form, or the workspace (history sidebar plus conversation pane).
// Controller calls that reach the network run as tea.Cmds.
//
// Bridge connects the controller back to the running program: it is the
// controller's Listener, Notifier and Confirmer, and turns each callback
// into a tea.Msg.
//
// # Usage
//
//	bridge := app.NewBridge()
//	ctrl := controller.New(client).
//	    WithListener(bridge).WithNotifier(bridge).WithConfirmer(bridge)
//	err := app.Run(ctx, ctrl, bridge, app.Options{Version: version})
package app
