// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports research sessions as Markdown with YAML frontmatter.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a document to Markdown.
func (e *MarkdownExporter) Export(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}

	var sb strings.Builder
	title := doc.DisplayTitle()

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "title: %s\n", escapeYAML(title))
		if !doc.ChatID.IsZero() {
			fmt.Fprintf(&sb, "chat_id: %s\n", escapeYAML(doc.ChatID.String()))
		}
		if doc.Username != "" {
			fmt.Fprintf(&sb, "username: %s\n", escapeYAML(doc.Username))
		}
		if doc.Model != "" {
			fmt.Fprintf(&sb, "model: %s\n", escapeYAML(doc.Model))
		}
		fmt.Fprintf(&sb, "turns: %d\n", len(doc.Turns))
		if !doc.ExportedAt.IsZero() {
			fmt.Fprintf(&sb, "exported_at: %s\n", doc.ExportedAt.Format("2006-01-02T15:04:05Z07:00"))
		}
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(title))

	for i, turn := range doc.Turns {
		fmt.Fprintf(&sb, "### %s\n\n", turn.Role.DisplayName())
		sb.WriteString(strings.TrimSpace(turn.Text))
		sb.WriteString("\n\n")
		if i < len(doc.Turns)-1 {
			sb.WriteString("---\n\n")
		}
	}

	if !doc.ExportedAt.IsZero() {
		sb.WriteString("---\n\n")
		fmt.Fprintf(&sb, "*Exported from DataCoPilot on %s*\n",
			doc.ExportedAt.Format("January 2, 2006 at 3:04 PM"))
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes characters that would break formatting in a heading.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer(
		"#", "\\#",
		"*", "\\*",
		"_", "\\_",
		"[", "\\[",
		"]", "\\]",
	)
	return r.Replace(s)
}

// escapeYAML quotes a scalar when it contains characters YAML would interpret.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return "\"" + s + "\""
	}
	return s
}
