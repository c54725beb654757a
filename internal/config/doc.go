// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for datacopilot.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure
//   - ServerConfig: Where the research service lives
//   - ChatConfig: Model identifier sent with each message
//   - UIConfig, LogConfig, JournalConfig: Client-side behaviour
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (DATACOPILOT_*)
//   - ~/.datacopilot/config.toml
//   - ~/.datacopilot/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := api.NewClient(cfg.Server.BaseURL)
//
// Watch reloads the file when it changes:
//
//	w, err := config.Watch(ctx, path, 0, func(cfg *config.Config, err error) { ... })
//	defer w.Close()
package config
