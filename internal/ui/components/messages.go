// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/jeranaias/datacopilot-tui/internal/controller"
	"github.com/jeranaias/datacopilot-tui/internal/model"
)

// AuthSubmitMsg is emitted when the landing form is submitted.
type AuthSubmitMsg struct {
	Mode     controller.AuthMode
	Username string
	Password string
}

// SessionSelectedMsg is emitted when a history row is opened.
type SessionSelectedMsg struct {
	Entry model.HistoryEntry
}

// NewSessionMsg is emitted by the sidebar's "new research" action.
type NewSessionMsg struct{}

// AlertDismissedMsg is emitted when the alert box is closed.
type AlertDismissedMsg struct{}

// ConfirmAnsweredMsg is emitted after a confirm dialog is answered.
type ConfirmAnsweredMsg struct {
	Accepted bool
}
