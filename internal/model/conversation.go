// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds the turns currently on screen in chronological order.
// Turns are only ever appended, replaced wholesale or cleared; there is no
// reordering and no deduplication.
//
// Conversation is not safe for concurrent use; the controller guards it.
type Conversation struct {
	turns []Turn
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{turns: make([]Turn, 0)}
}

// Append adds a turn at the end of the conversation.
func (c *Conversation) Append(t Turn) {
	c.turns = append(c.turns, t)
}

// Replace discards every turn and installs the given ones.
func (c *Conversation) Replace(turns []Turn) {
	c.turns = make([]Turn, len(turns))
	copy(c.turns, turns)
}

// Clear removes all turns.
func (c *Conversation) Clear() {
	c.turns = make([]Turn, 0)
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	return len(c.turns)
}

// IsEmpty reports whether the conversation has no turns.
func (c *Conversation) IsEmpty() bool {
	return len(c.turns) == 0
}

// Turns returns a copy of the turns; callers may keep it.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Last returns the most recent turn and whether one exists.
func (c *Conversation) Last() (Turn, bool) {
	if len(c.turns) == 0 {
		return Turn{}, false
	}
	return c.turns[len(c.turns)-1], true
}
