// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package controller implements the view state of the DataCoPilot client:
// the boot splash, the session, the displayed conversation and the history
// list, and how user actions change them.
//
// # Phases
//
// The screen is in exactly one Phase. Splash lasts for the splash duration
// after Start; after that the phase is Workspace while signed in and
// Unauthenticated otherwise. Splash is never shown again.
//
// # Remote calls
//
// Operations that talk to the service block until it answers and are meant
// to be called off the UI goroutine. State is updated under a lock and the
// Listener is told after every change:
//
//	ctl := controller.New(client).
//	    WithNotifier(notifier).
//	    WithConfirmer(confirmer).
//	    WithListener(controller.ListenerFunc(func() { program.Send(stateMsg{}) }))
//	ctl.Start()
//	defer ctl.Close()
//
// # Failure handling
//
// Authentication errors show the service's detail. Send errors show a
// generic message and keep the user's turn. History refresh errors are only
// logged. Delete errors are shown with the same wording as a success.
package controller
