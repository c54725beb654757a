// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package journal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/datacopilot-tui/internal/api"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestJournal_AddAndRecent(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, j.Add(ctx, api.CallRecord{
		RequestID: "r1", Method: "POST", Route: "/login", Status: 200,
		Duration: 40 * time.Millisecond, At: base,
	}))
	require.NoError(t, j.Add(ctx, api.CallRecord{
		RequestID: "r2", Method: "GET", Route: "/history/{username}", Status: 500,
		Duration: 1500 * time.Millisecond, Err: "service error (HTTP 500)", At: base.Add(time.Second),
	}))

	entries, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "r2", entries[0].RequestID)
	assert.True(t, entries[0].Failed())
	assert.Equal(t, 1500*time.Millisecond, entries[0].Duration)
	assert.True(t, entries[0].At.Equal(base.Add(time.Second)))

	assert.Equal(t, "r1", entries[1].RequestID)
	assert.False(t, entries[1].Failed())
	assert.NotEmpty(t, entries[1].ID)
}

func TestJournal_RecentLimit(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		j.Record(api.CallRecord{Method: "POST", Route: "/chat", Status: 200})
	}

	entries, err := j.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestJournal_StatsAndPrune(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()
	base := time.Now()
	for i := 0; i < 6; i++ {
		rec := api.CallRecord{Method: "POST", Route: "/chat", Status: 200, At: base.Add(time.Duration(i) * time.Second)}
		if i%2 == 0 {
			rec.Status = 500
			rec.Err = "boom"
		}
		require.NoError(t, j.Add(ctx, rec))
	}

	stats, err := j.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 6, Failures: 3}, stats)

	removed, err := j.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)

	entries, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].At.After(entries[1].At))
}

func TestJournal_ReopenKeepsCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	j, err := Open(path, nil)
	require.NoError(t, err)
	j.Record(api.CallRecord{Method: "DELETE", Route: "/delete_chat/{chat_id}", Status: 404, Err: "not found"})
	require.NoError(t, j.Close())

	j, err = Open(path, nil)
	require.NoError(t, err)
	defer j.Close()

	entries, err := j.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/delete_chat/{chat_id}", entries[0].Route)
}

func TestJournal_Closed(t *testing.T) {
	j := openTemp(t)
	require.NoError(t, j.Close())
	require.NoError(t, j.Close())

	assert.ErrorIs(t, j.Add(context.Background(), api.CallRecord{}), ErrClosed)
	_, err := j.Recent(context.Background(), 1)
	assert.ErrorIs(t, err, ErrClosed)

	// Record swallows the error.
	j.Record(api.CallRecord{Route: "/login"})
}

func TestJournal_AsClientRecorder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	j := openTemp(t)
	client := api.NewClient(server.URL).WithRecorder(j)
	_, err := client.History(context.Background(), "ana")
	require.NoError(t, err)

	entries, err := j.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "GET", entries[0].Method)
	assert.Equal(t, "/history/{username}", entries[0].Route)
	assert.Equal(t, 200, entries[0].Status)
	assert.NotEmpty(t, entries[0].RequestID)
}
