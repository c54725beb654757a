// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zap logger shared by every datacopilot component.
//
// Components receive a named child logger (api, controller, journal,
// devserver, tui). Request and response bodies are never logged.
package logging
