// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/datacopilot-tui/internal/model"
)

// captured is what a test server saw for one request.
type captured struct {
	Method    string
	Path      string
	RawPath   string
	Body      map[string]any
	RequestID string
	UserAgent string
}

// newTestServer returns a server that records the request and answers with
// status and body.
func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Method = r.Method
		got.Path = r.URL.Path
		got.RawPath = r.URL.EscapedPath()
		got.RequestID = r.Header.Get(RequestIDHeader)
		got.UserAgent = r.Header.Get("User-Agent")
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			_ = json.Unmarshal(data, &got.Body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, got
}

type memRecorder struct {
	mu      sync.Mutex
	records []CallRecord
}

func (m *memRecorder) Record(rec CallRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
}

// =============================================================================
// AUTH TESTS
// =============================================================================

func TestLogin_Success(t *testing.T) {
	server, got := newTestServer(t, http.StatusOK, `{"message":"ok"}`)
	client := NewClient(server.URL)

	err := client.Login(context.Background(), Credentials{Username: "ana", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/login", got.Path)
	assert.Equal(t, map[string]any{"username": "ana", "password": "pw"}, got.Body)
	assert.NotEmpty(t, got.RequestID)
	assert.True(t, strings.HasPrefix(got.UserAgent, "datacopilot/"))
}

func TestLogin_FailureCarriesDetail(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{"string detail", http.StatusUnauthorized, `{"detail":"Invalid credentials"}`, "Invalid credentials"},
		{"no detail", http.StatusUnauthorized, `{}`, ""},
		{"non-json body", http.StatusInternalServerError, `Internal Server Error`, ""},
		{"array detail", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"}]}`, ""},
		{"empty body", http.StatusBadGateway, ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newTestServer(t, tt.status, tt.body)
			err := NewClient(server.URL).Login(context.Background(), Credentials{Username: "a", Password: "b"})
			require.Error(t, err)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantDetail, DetailOf(err))
			assert.True(t, IsStatus(err, tt.status))
		})
	}
}

func TestSignup_PostsCredentials(t *testing.T) {
	server, got := newTestServer(t, http.StatusOK, `{"message":"created"}`)

	err := NewClient(server.URL).Signup(context.Background(), Credentials{Username: "new", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "/signup", got.Path)
	assert.Equal(t, "new", got.Body["username"])
}

func TestSignup_Conflict(t *testing.T) {
	server, _ := newTestServer(t, http.StatusBadRequest, `{"detail":"Username already exists"}`)

	err := NewClient(server.URL).Signup(context.Background(), Credentials{Username: "dup", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, "Username already exists", DetailOf(err))
	assert.Contains(t, err.Error(), "HTTP 400")
}

// =============================================================================
// HISTORY TESTS
// =============================================================================

func TestHistory_DecodesEntries(t *testing.T) {
	server, got := newTestServer(t, http.StatusOK, `[
		{"id": 7, "title": "Sales", "question": "q1", "answer": "a1"},
		{"id": "abc", "question": "q2", "answer": "a2"},
		{"id": 9, "title": null}
	]`)

	entries, err := NewClient(server.URL).History(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/history/ana", got.Path)

	want := []model.HistoryEntry{
		{ID: model.NumericChatID(7), Title: "Sales", Question: "q1", Answer: "a1"},
		{ID: model.NewChatID("abc"), Question: "q2", Answer: "a2"},
		{ID: model.NumericChatID(9)},
	}
	assert.Equal(t, want, entries)
	assert.Equal(t, model.UntitledResearch, entries[1].DisplayTitle())
}

func TestHistory_EmptyArray(t *testing.T) {
	server, _ := newTestServer(t, http.StatusOK, `[]`)

	entries, err := NewClient(server.URL).History(context.Background(), "ana")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestHistory_EscapesUsername(t *testing.T) {
	server, got := newTestServer(t, http.StatusOK, `[]`)

	_, err := NewClient(server.URL).History(context.Background(), "a b/c")
	require.NoError(t, err)
	assert.Equal(t, "/history/a%20b%2Fc", got.RawPath)
}

func TestHistory_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"object instead of array", `{"history": []}`},
		{"entry without id", `[{"title":"x"}]`},
		{"entry with null id", `[{"id":null,"title":"x"}]`},
		{"entry with object id", `[{"id":{"n":1}}]`},
		{"not json", `<html></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newTestServer(t, http.StatusOK, tt.body)
			_, err := NewClient(server.URL).History(context.Background(), "ana")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

// =============================================================================
// CHAT TESTS
// =============================================================================

func TestChat_NewThreadSendsNullChatID(t *testing.T) {
	server, got := newTestServer(t, http.StatusOK, `{"response":"Hi there","chat_id":42}`)

	resp, err := NewClient(server.URL).Chat(context.Background(), ChatRequest{
		Username: "ana",
		Message:  "hello",
		Model:    DefaultModel,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi there", resp.Response)
	assert.Equal(t, model.NumericChatID(42), resp.ChatID)

	assert.Equal(t, "/chat", got.Path)
	chatID, present := got.Body["chat_id"]
	assert.True(t, present)
	assert.Nil(t, chatID)
	assert.Equal(t, DefaultModel, got.Body["model"])
	assert.Equal(t, "hello", got.Body["message"])
}

func TestChat_ContinuesThread(t *testing.T) {
	server, got := newTestServer(t, http.StatusOK, `{"response":"more","chat_id":"42"}`)

	resp, err := NewClient(server.URL).Chat(context.Background(), ChatRequest{
		Username: "ana",
		Message:  "and then?",
		ChatID:   model.NewChatID("42"),
		Model:    DefaultModel,
	})
	require.NoError(t, err)
	assert.Equal(t, model.NewChatID("42"), resp.ChatID)
	assert.Equal(t, "42", got.Body["chat_id"])
}

func TestChat_EchoesChatIDKind(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want any
	}{
		{"leading zero string", `"007"`, "007"},
		{"signed string", `"+5"`, "+5"},
		{"digit string", `"42"`, "42"},
		{"number", `42`, float64(42)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, got := newTestServer(t, http.StatusOK, `{"response":"ok","chat_id":`+tt.id+`}`)
			client := NewClient(server.URL)

			first, err := client.Chat(context.Background(), ChatRequest{Username: "ana", Message: "start"})
			require.NoError(t, err)

			_, err = client.Chat(context.Background(), ChatRequest{Username: "ana", Message: "more", ChatID: first.ChatID})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Body["chat_id"])
		})
	}
}

func TestChat_EmptyResponseIsValid(t *testing.T) {
	server, _ := newTestServer(t, http.StatusOK, `{"response":"","chat_id":1}`)

	resp, err := NewClient(server.URL).Chat(context.Background(), ChatRequest{Username: "a", Message: "m"})
	require.NoError(t, err)
	assert.Equal(t, "", resp.Response)
}

func TestChat_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing response", `{"chat_id":1}`},
		{"null response", `{"response":null,"chat_id":1}`},
		{"missing chat_id", `{"response":"x"}`},
		{"null chat_id", `{"response":"x","chat_id":null}`},
		{"array body", `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newTestServer(t, http.StatusOK, tt.body)
			_, err := NewClient(server.URL).Chat(context.Background(), ChatRequest{Username: "a", Message: "m"})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestChat_ServerError(t *testing.T) {
	server, _ := newTestServer(t, http.StatusInternalServerError, `{"detail":"model unavailable"}`)

	_, err := NewClient(server.URL).Chat(context.Background(), ChatRequest{Username: "a", Message: "m"})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	assert.Equal(t, "model unavailable", DetailOf(err))
}

// =============================================================================
// DELETE TESTS
// =============================================================================

func TestDeleteChat(t *testing.T) {
	server, got := newTestServer(t, http.StatusOK, `{"message":"deleted"}`)

	err := NewClient(server.URL).DeleteChat(context.Background(), model.NewChatID("17"))
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, got.Method)
	assert.Equal(t, "/delete_chat/17", got.Path)
	assert.Nil(t, got.Body)
}

func TestDeleteChat_NotFound(t *testing.T) {
	server, _ := newTestServer(t, http.StatusNotFound, `{"detail":"Chat not found"}`)

	err := NewClient(server.URL).DeleteChat(context.Background(), model.NewChatID("99"))
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))
}

// =============================================================================
// TRANSPORT TESTS
// =============================================================================

func TestClient_TrimsTrailingSlash(t *testing.T) {
	client := NewClient("http://example.test/api/")
	assert.Equal(t, "http://example.test/api", client.BaseURL())
	assert.Equal(t, DefaultBaseURL, NewClient("  ").BaseURL())
}

func TestClient_RecordsCalls(t *testing.T) {
	server, _ := newTestServer(t, http.StatusUnauthorized, `{"detail":"nope"}`)
	rec := &memRecorder{}
	client := NewClient(server.URL).WithRecorder(rec)

	_ = client.Login(context.Background(), Credentials{Username: "a", Password: "b"})
	_, _ = client.History(context.Background(), "a")

	require.Len(t, rec.records, 2)
	assert.Equal(t, "/login", rec.records[0].Route)
	assert.Equal(t, http.StatusUnauthorized, rec.records[0].Status)
	assert.Contains(t, rec.records[0].Err, "nope")
	assert.Equal(t, "/history/{username}", rec.records[1].Route)
	assert.NotEqual(t, rec.records[0].RequestID, rec.records[1].RequestID)
}

func TestClient_ResponseTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		chunk := strings.Repeat("x", 1024*1024)
		for i := 0; i <= MaxResponseSize/len(chunk); i++ {
			_, _ = w.Write([]byte(chunk))
		}
	}))
	defer server.Close()

	_, err := NewClient(server.URL).History(context.Background(), "a")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestClient_ContextCanceled(t *testing.T) {
	server, _ := newTestServer(t, http.StatusOK, `[]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(server.URL).History(ctx, "a")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	rec := &memRecorder{}
	err := NewClient(url).WithRecorder(rec).Login(context.Background(), Credentials{})
	require.Error(t, err)
	assert.Equal(t, "", DetailOf(err))
	require.Len(t, rec.records, 1)
	assert.Equal(t, 0, rec.records[0].Status)
}
