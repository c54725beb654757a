// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the value types shared by the controller, the API
// client and the user interfaces.
//
// # Key Types
//
//   - Session: who is signed in (never persisted)
//   - Turn: one user or assistant message on screen
//   - Conversation: the ordered, append-only list of displayed turns
//   - HistoryEntry: a past exchange stored by the research service
//   - ChatID: opaque identifier correlating a conversation with its entry
//
// # Usage
//
//	conv := model.NewConversation()
//	conv.Append(model.UserTurn("What is X?"))
//	conv.Replace(entry.Turns())
package model
