// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"

	"github.com/jeranaias/datacopilot-tui/internal/api"
	"github.com/jeranaias/datacopilot-tui/internal/model"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Backend is the remote research service. *api.Client implements it.
type Backend interface {
	Login(ctx context.Context, creds api.Credentials) error
	Signup(ctx context.Context, creds api.Credentials) error
	History(ctx context.Context, username string) ([]model.HistoryEntry, error)
	Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)
	DeleteChat(ctx context.Context, id model.ChatID) error
}

var _ Backend = (*api.Client)(nil)

// AlertLevel classifies a user-visible alert.
type AlertLevel int

const (
	AlertInfo AlertLevel = iota
	AlertError
)

// String returns the level name.
func (l AlertLevel) String() string {
	if l == AlertError {
		return "error"
	}
	return "info"
}

// Alert is a blocking, user-visible message.
type Alert struct {
	Level   AlertLevel
	Message string
}

// Notifier shows alerts to the user.
type Notifier interface {
	Notify(alert Alert)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(alert Alert)

// Notify calls f(alert).
func (f NotifierFunc) Notify(alert Alert) { f(alert) }

// Confirmer asks the user a yes/no question and blocks until answered.
// A cancelled context counts as "no".
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(ctx context.Context, prompt string) bool

// Confirm calls f(ctx, prompt).
func (f ConfirmerFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// AutoConfirm answers yes to every prompt (used by --yes).
type AutoConfirm struct{}

// Confirm always returns true.
func (AutoConfirm) Confirm(context.Context, string) bool { return true }

// Listener is told that the controller state changed. It is called without
// the controller lock held and may be called from any goroutine; read the new
// state with Snapshot.
type Listener interface {
	StateChanged()
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func()

// StateChanged calls f().
func (f ListenerFunc) StateChanged() { f() }

type nopNotifier struct{}

func (nopNotifier) Notify(Alert) {}

// declineAll is the default Confirmer; without a way to ask, nothing is deleted.
type declineAll struct{}

func (declineAll) Confirm(context.Context, string) bool { return false }
