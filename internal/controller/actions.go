// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/datacopilot-tui/internal/api"
	"github.com/jeranaias/datacopilot-tui/internal/model"
)

// AuthMode selects the endpoint Authenticate calls.
type AuthMode int

const (
	ModeLogin AuthMode = iota
	ModeSignup
)

// String returns the mode name.
func (m AuthMode) String() string {
	if m == ModeSignup {
		return "signup"
	}
	return "login"
}

// =============================================================================
// AUTHENTICATION
// =============================================================================

// Authenticate logs in or signs up. Credentials are trimmed but not checked
// locally; the service decides what is valid.
//
// A successful login opens the session and loads the history. A successful
// signup only tells the user to sign in. Failures leave the session alone
// and alert the service's detail message when there is one.
func (c *Controller) Authenticate(ctx context.Context, mode AuthMode, username, password string) error {
	creds := api.Credentials{
		Username: strings.TrimSpace(username),
		Password: strings.TrimSpace(password),
	}

	var err error
	if mode == ModeSignup {
		err = c.backend.Signup(ctx, creds)
	} else {
		err = c.backend.Login(ctx, creds)
	}
	if err != nil {
		c.logger.Info("Authentication failed", zap.Stringer("mode", mode), zap.Error(err))
		msg := api.DetailOf(err)
		if msg == "" {
			msg = MsgAuthFailed
		}
		c.alert(AlertError, msg)
		return fmt.Errorf("%s: %w", mode, err)
	}

	if mode == ModeSignup {
		c.logger.Info("Account created")
		c.alert(AlertInfo, MsgAccountCreated)
		return nil
	}

	c.mu.Lock()
	c.session = model.SignedIn(creds.Username)
	c.mu.Unlock()
	c.logger.Info("Signed in")
	c.changed()

	_ = c.FetchHistory(ctx)
	return nil
}

// SignOut drops the session and everything shown for it. Nothing is sent to
// the service, and calls already in flight are left to finish.
func (c *Controller) SignOut() {
	c.mu.Lock()
	c.session = model.Session{}
	c.conversation.Clear()
	c.history = nil
	c.activeID = model.ChatID{}
	c.draft = ""
	c.mu.Unlock()

	c.logger.Info("Signed out")
	c.changed()
}

// =============================================================================
// HISTORY
// =============================================================================

// FetchHistory replaces the history list with the service's copy. It does
// nothing when signed out. Failures keep the old list and are only logged;
// the error is returned for line-mode callers.
func (c *Controller) FetchHistory(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if !session.Authenticated {
		return nil
	}

	entries, err := c.backend.History(ctx, session.Username)
	if err != nil {
		c.logger.Warn("History refresh failed", zap.Error(err))
		return fmt.Errorf("history: %w", err)
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}

	c.mu.Lock()
	c.history = entries
	c.mu.Unlock()
	c.changed()
	return nil
}

// LoadConversation shows a history entry as a two-turn conversation and
// makes it the active one. Whatever was displayed before is discarded.
func (c *Controller) LoadConversation(entry model.HistoryEntry) {
	c.mu.Lock()
	c.conversation.Replace(entry.Turns())
	c.activeID = entry.ID
	c.mu.Unlock()

	c.logger.Debug("Conversation loaded", zap.Stringer("chat_id", entry.ID))
	c.changed()
}

// =============================================================================
// CONVERSATION
// =============================================================================

// SendMessage sends text as the next user turn. The turn is shown at once
// and the draft cleared; the answer is appended when it arrives. Only one
// message may be in flight.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	c.mu.Lock()
	if text == "" {
		c.mu.Unlock()
		return ErrEmptyMessage
	}
	if c.loading {
		c.mu.Unlock()
		return ErrSendInFlight
	}
	c.conversation.Append(model.UserTurn(text))
	c.draft = ""
	c.loading = true
	req := api.ChatRequest{
		Username: c.session.Username,
		Message:  text,
		ChatID:   c.activeID,
		Model:    c.model,
	}
	c.mu.Unlock()
	c.changed()

	resp, err := c.backend.Chat(ctx, req)

	c.mu.Lock()
	c.loading = false
	if err == nil {
		c.conversation.Append(model.AssistantTurn(resp.Response))
		c.activeID = resp.ChatID
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("Chat request failed", zap.Error(err))
		c.alert(AlertError, MsgGenerateFailed)
		c.changed()
		return fmt.Errorf("chat: %w", err)
	}

	c.logger.Debug("Answer received", zap.Stringer("chat_id", resp.ChatID))
	c.changed()
	_ = c.FetchHistory(ctx)
	return nil
}

// StartNewConversation clears the display and forgets the active id.
func (c *Controller) StartNewConversation() {
	c.mu.Lock()
	c.conversation.Clear()
	c.activeID = model.ChatID{}
	c.mu.Unlock()
	c.changed()
}

// DeleteConversation removes the displayed conversation.
//
// An unsaved conversation is just cleared. A saved one is deleted on the
// service after the user confirms; the view is cleared and the history
// reloaded whether or not the delete worked. A failed delete is reported to
// the user with the same neutral wording and logged.
func (c *Controller) DeleteConversation(ctx context.Context) error {
	c.mu.Lock()
	id := c.activeID
	if id.IsZero() {
		c.conversation.Clear()
		c.mu.Unlock()
		c.changed()
		return nil
	}
	c.mu.Unlock()

	if !c.confirmer.Confirm(ctx, DeletePrompt) {
		c.logger.Debug("Delete declined", zap.Stringer("chat_id", id))
		return ErrDeleteDeclined
	}

	err := c.backend.DeleteChat(ctx, id)

	c.mu.Lock()
	c.conversation.Clear()
	c.activeID = model.ChatID{}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("Delete failed on service; cleared locally",
			zap.Stringer("chat_id", id), zap.Error(err))
		c.alert(AlertInfo, MsgDeletedFromView)
	} else {
		c.logger.Info("Conversation deleted", zap.Stringer("chat_id", id))
	}
	c.changed()

	_ = c.FetchHistory(ctx)
	return nil
}

// AttachFile is the document attachment affordance. Attachments are not
// sent anywhere; the call is accepted and ignored.
func (c *Controller) AttachFile(path string) {
	c.logger.Debug("Attachment ignored; uploads are not supported", zap.String("path", path))
}
