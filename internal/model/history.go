// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// UntitledResearch is shown for history entries the service stored without a title.
const UntitledResearch = "Untitled Research"

// =============================================================================
// CHAT ID
// =============================================================================

// ChatID is the opaque identifier of a persisted exchange. The zero value
// means "unsaved / new conversation".
//
// The service has used both integer and string identifiers. A ChatID
// remembers which JSON kind it was decoded from and encodes back to the same
// kind, so "007" stays a string and 42 stays a number. The zero value
// encodes as null.
type ChatID struct {
	text    string
	numeric bool
}

// NewChatID returns an identifier that encodes as a JSON string.
func NewChatID(text string) ChatID {
	return ChatID{text: text}
}

// NumericChatID returns an identifier that encodes as a JSON number.
func NumericChatID(n int64) ChatID {
	return ChatID{text: strconv.FormatInt(n, 10), numeric: true}
}

// IsZero reports whether the id is unset.
func (id ChatID) IsZero() bool {
	return id.text == ""
}

// IsNumeric reports whether the id was issued as a JSON number.
func (id ChatID) IsNumeric() bool {
	return id.numeric
}

// Equal reports whether two ids name the same exchange, whatever JSON kind
// each was issued as.
func (id ChatID) Equal(other ChatID) bool {
	return id.text == other.text
}

// String returns the identifier text.
func (id ChatID) String() string {
	return id.text
}

// MarshalJSON implements json.Marshaler.
func (id ChatID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	if id.numeric {
		return []byte(id.text), nil
	}
	return json.Marshal(id.text)
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ChatID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ChatID{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("chat id: %w", err)
		}
		*id = NewChatID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("chat id must be a string or number: %w", err)
	}
	// The literal is kept verbatim so it is echoed back unchanged.
	*id = ChatID{text: n.String(), numeric: true}
	return nil
}

// =============================================================================
// HISTORY ENTRY
// =============================================================================

// HistoryEntry is a past single-exchange session stored by the service.
// It is read-only from the client's perspective.
type HistoryEntry struct {
	ID       ChatID `json:"id"`
	Title    string `json:"title"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// DisplayTitle returns the title for list display.
func (e HistoryEntry) DisplayTitle() string {
	if strings.TrimSpace(e.Title) == "" {
		return UntitledResearch
	}
	return e.Title
}

// Turns returns the two turns a loaded entry is displayed as.
func (e HistoryEntry) Turns() []Turn {
	return []Turn{
		UserTurn(e.Question),
		AssistantTurn(e.Answer),
	}
}
