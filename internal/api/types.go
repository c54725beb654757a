// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/jeranaias/datacopilot-tui/internal/model"
)

// DefaultModel is the inference model identifier sent with every chat request
// unless configured otherwise.
const DefaultModel = "llama-3.3-70b-versatile"

// Credentials is the body of /login and /signup.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChatRequest is the body of /chat. An empty ChatID is sent as null and asks
// the service to start a new thread.
type ChatRequest struct {
	Username string       `json:"username"`
	Message  string       `json:"message"`
	ChatID   model.ChatID `json:"chat_id"`
	Model    string       `json:"model"`
}

// ChatResponse is the decoded answer of /chat.
type ChatResponse struct {
	Response string
	ChatID   model.ChatID
}

// chatResponseWire keeps presence information so missing fields can be
// told apart from empty ones.
type chatResponseWire struct {
	Response *string         `json:"response"`
	ChatID   json.RawMessage `json:"chat_id"`
}

// historyEntryWire is one element of the /history array.
type historyEntryWire struct {
	ID       json.RawMessage `json:"id"`
	Title    *string         `json:"title"`
	Question *string         `json:"question"`
	Answer   *string         `json:"answer"`
}

// CallRecord describes one completed (or failed) call.
type CallRecord struct {
	RequestID string
	Method    string
	// Route is the path template, e.g. "/history/{username}".
	Route    string
	Status   int
	Duration time.Duration
	Err      string
	At       time.Time
}

// Recorder receives a record for every call the client makes.
type Recorder interface {
	Record(rec CallRecord)
}

func isNullOrAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
