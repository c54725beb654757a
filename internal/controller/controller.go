// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/datacopilot-tui/internal/api"
	"github.com/jeranaias/datacopilot-tui/internal/model"
)

// DefaultSplashDuration is how long the splash phase lasts.
const DefaultSplashDuration = 2200 * time.Millisecond

// User-visible alert texts.
const (
	MsgAccountCreated  = "Account created! Please sign in."
	MsgAuthFailed      = "Authentication failed."
	MsgGenerateFailed  = "Error generating response."
	MsgDeletedFromView = "Session deleted from view."

	// DeletePrompt is the confirmation asked before deleting a saved session.
	DeletePrompt = "Delete this research session?"
)

var (
	// ErrEmptyMessage is returned by SendMessage for an empty message.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrSendInFlight is returned by SendMessage while a send is pending.
	ErrSendInFlight = errors.New("a message is already being sent")

	// ErrDeleteDeclined is returned by DeleteConversation when the user says no.
	ErrDeleteDeclined = errors.New("delete declined")
)

// =============================================================================
// PHASE
// =============================================================================

// Phase is the top-level screen mode.
type Phase int

const (
	PhaseSplash Phase = iota
	PhaseUnauthenticated
	PhaseWorkspace
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseSplash:
		return "splash"
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseWorkspace:
		return "workspace"
	default:
		return "unknown"
	}
}

// derivePhase is the single source of truth for which screen is shown.
func derivePhase(bootElapsed, authenticated bool) Phase {
	if !bootElapsed {
		return PhaseSplash
	}
	if authenticated {
		return PhaseWorkspace
	}
	return PhaseUnauthenticated
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is an immutable copy of the controller state for rendering.
type Snapshot struct {
	Phase        Phase
	Session      model.Session
	Turns        []model.Turn
	History      []model.HistoryEntry
	ActiveChatID model.ChatID
	Loading      bool
	Draft        string
	Model        string
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the session, the displayed conversation, the history list
// and the boot phase. Its methods are the only way to change them, and all
// of them are safe for concurrent use.
type Controller struct {
	backend   Backend
	notifier  Notifier
	confirmer Confirmer
	listener  Listener
	logger    *zap.Logger
	splash    time.Duration

	mu           sync.Mutex
	bootElapsed  bool
	session      model.Session
	conversation *model.Conversation
	history      []model.HistoryEntry
	activeID     model.ChatID
	loading      bool
	draft        string
	model        string

	bootTimer *time.Timer
	started   bool
	closed    bool
}

// New creates a controller talking to backend. Configure it with the With*
// methods before calling Start.
func New(backend Backend) *Controller {
	return &Controller{
		backend:      backend,
		notifier:     nopNotifier{},
		confirmer:    declineAll{},
		logger:       zap.NewNop(),
		splash:       DefaultSplashDuration,
		conversation: model.NewConversation(),
		model:        api.DefaultModel,
	}
}

// WithNotifier sets where alerts go.
func (c *Controller) WithNotifier(n Notifier) *Controller {
	if n != nil {
		c.notifier = n
	}
	return c
}

// WithConfirmer sets the confirmation gate used before deletes.
func (c *Controller) WithConfirmer(cf Confirmer) *Controller {
	if cf != nil {
		c.confirmer = cf
	}
	return c
}

// WithListener sets the state change listener.
func (c *Controller) WithListener(l Listener) *Controller {
	c.listener = l
	return c
}

// WithLogger sets the logger.
func (c *Controller) WithLogger(logger *zap.Logger) *Controller {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithSplashDuration sets how long the splash phase lasts. Zero or negative
// ends the splash as soon as Start is called.
func (c *Controller) WithSplashDuration(d time.Duration) *Controller {
	c.splash = d
	return c
}

// WithModel sets the model identifier sent with each message.
func (c *Controller) WithModel(id string) *Controller {
	c.SetModel(id)
	return c
}

// Start begins the splash countdown. Calling it again has no effect.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	if c.splash > 0 {
		c.bootTimer = time.AfterFunc(c.splash, c.finishBoot)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.finishBoot()
}

// finishBoot ends the splash phase unless the controller was closed first.
func (c *Controller) finishBoot() {
	c.mu.Lock()
	if c.closed || c.bootElapsed {
		c.mu.Unlock()
		return
	}
	c.bootElapsed = true
	c.mu.Unlock()

	c.logger.Debug("Splash finished")
	c.changed()
}

// Close releases the boot timer. A splash that has not finished by now never
// finishes. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.bootTimer != nil {
		c.bootTimer.Stop()
		c.bootTimer = nil
	}
}

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	var history []model.HistoryEntry
	if c.history != nil {
		history = make([]model.HistoryEntry, len(c.history))
		copy(history, c.history)
	}
	return Snapshot{
		Phase:        derivePhase(c.bootElapsed, c.session.Authenticated),
		Session:      c.session,
		Turns:        c.conversation.Turns(),
		History:      history,
		ActiveChatID: c.activeID,
		Loading:      c.loading,
		Draft:        c.draft,
		Model:        c.model,
	}
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return derivePhase(c.bootElapsed, c.session.Authenticated)
}

// SetModel changes the model identifier used for subsequent messages.
// An empty id restores the default.
func (c *Controller) SetModel(id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = api.DefaultModel
	}
	c.mu.Lock()
	changed := c.model != id
	c.model = id
	c.mu.Unlock()

	if changed {
		c.logger.Info("Model changed", zap.String("model", id))
		c.changed()
	}
}

// Model returns the model identifier used for messages.
func (c *Controller) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// SetDraft replaces the input buffer. It does not notify the listener since
// the caller is the one editing it.
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
}

// changed notifies the listener. Never call with c.mu held.
func (c *Controller) changed() {
	if c.listener != nil {
		c.listener.StateChanged()
	}
}

func (c *Controller) alert(level AlertLevel, msg string) {
	c.notifier.Notify(Alert{Level: level, Message: msg})
}
