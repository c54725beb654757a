// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jeranaias/datacopilot-tui/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"DEBUG", zapcore.DebugLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{" error ", zapcore.ErrorLevel, false},
		{"trace", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "dc.log")

	logger, err := New(Options{Level: "warn", Path: path, JSON: true})
	require.NoError(t, err)

	logger.Named("api").Info("dropped below level")
	logger.Named("api").Warn("history refresh failed", zap.Int("status", 502))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "history refresh failed", entry["msg"])
	assert.Equal(t, "api", entry["logger"])
	assert.Equal(t, float64(502), entry["status"])
}

func TestNew_VerboseForcesDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dc.log")

	logger, err := New(Options{Level: "error", Path: path, Verbose: true})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_RejectsBadLevel(t *testing.T) {
	_, err := New(Options{Level: "chatty", Path: "stderr"})
	assert.Error(t, err)
	assert.NotNil(t, NewOrNop(Options{Level: "chatty"}))
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Log.File = "/tmp/x.log"
	cfg.Log.Level = "debug"
	cfg.Log.JSON = true

	opts := FromConfig(cfg)
	assert.Equal(t, Options{Level: "debug", Path: "/tmp/x.log", JSON: true}, opts)
}
