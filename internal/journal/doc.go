// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package journal keeps a local SQLite record of the calls made to the
// research service: method, route template, status, duration and error text.
//
// The journal is an api.Recorder:
//
//	j, err := journal.Open(cfg.JournalPath(), logger.Named("journal"))
//	client := api.NewClient(cfg.Server.BaseURL).WithRecorder(j)
package journal
