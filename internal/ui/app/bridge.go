// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/datacopilot-tui/internal/controller"
)

// StateChangedMsg tells the model to re-read the controller snapshot.
type StateChangedMsg struct{}

// AlertMsg carries a controller alert to the screen.
type AlertMsg struct {
	Alert controller.Alert
}

// ConfirmRequestMsg asks the user a yes/no question. Exactly one value is
// sent on Reply.
type ConfirmRequestMsg struct {
	Prompt string
	Reply  chan<- bool
}

// Sender delivers messages into a running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Bridge adapts controller callbacks to Bubble Tea messages. Messages reach
// the program in the order the callbacks fired.
type Bridge struct {
	mu      sync.Mutex
	sender  Sender
	queue   []tea.Msg
	pumping bool
}

var (
	_ controller.Listener  = (*Bridge)(nil)
	_ controller.Notifier  = (*Bridge)(nil)
	_ controller.Confirmer = (*Bridge)(nil)
)

// NewBridge creates a bridge with no program attached. Callbacks made
// before Attach are dropped and confirmations are declined.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach sets the program messages go to. Pass nil to detach; messages not
// yet delivered are dropped.
func (b *Bridge) Attach(s Sender) {
	b.mu.Lock()
	b.sender = s
	if s == nil {
		b.queue = nil
	}
	b.mu.Unlock()
}

// send queues msg without blocking the caller. Controller callbacks can
// fire from inside Update, where a synchronous Program.Send would deadlock.
func (b *Bridge) send(msg tea.Msg) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sender == nil {
		return false
	}
	b.queue = append(b.queue, msg)
	if !b.pumping {
		b.pumping = true
		go b.pump()
	}
	return true
}

// pump delivers queued messages one at a time until the queue is empty.
func (b *Bridge) pump() {
	for {
		b.mu.Lock()
		if len(b.queue) == 0 || b.sender == nil {
			b.pumping = false
			b.mu.Unlock()
			return
		}
		msg, s := b.queue[0], b.sender
		b.queue[0] = nil
		b.queue = b.queue[1:]
		b.mu.Unlock()

		s.Send(msg)
	}
}

// StateChanged implements controller.Listener.
func (b *Bridge) StateChanged() {
	b.send(StateChangedMsg{})
}

// Notify implements controller.Notifier.
func (b *Bridge) Notify(alert controller.Alert) {
	b.send(AlertMsg{Alert: alert})
}

// Confirm implements controller.Confirmer. It blocks until the user answers
// or ctx is done; a cancelled prompt counts as declined.
func (b *Bridge) Confirm(ctx context.Context, prompt string) bool {
	reply := make(chan bool, 1)
	if !b.send(ConfirmRequestMsg{Prompt: prompt, Reply: reply}) {
		return false
	}
	select {
	case ok := <-reply:
		return ok
	case <-ctx.Done():
		return false
	}
}
