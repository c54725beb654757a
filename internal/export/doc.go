// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes research sessions to disk.
//
// # Key Types
//
//   - Document: A session's title, owner, model and turns
//   - Exporter: Format interface (Markdown, JSON)
//   - Options: Output directory and metadata toggles
//
// # Usage
//
//	doc := export.FromHistory(entry, session.Username)
//	path, err := export.ExportMarkdown(doc, &export.Options{OutputDir: dir})
//
// File names are derived from the title with Slug, so accented and
// non-Latin titles still produce portable names.
package export
