// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/datacopilot-tui/internal/model"
	"github.com/jeranaias/datacopilot-tui/internal/util"
)

// ErrEmptyDocument is returned when there is nothing to export.
var ErrEmptyDocument = errors.New("conversation has no turns")

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is one research session ready for export.
type Document struct {
	Title    string       `json:"title"`
	Username string       `json:"username,omitempty"`
	Model    string       `json:"model,omitempty"`
	ChatID   model.ChatID `json:"chat_id"`
	Turns    []model.Turn `json:"turns"`
	// ExportedAt is stamped by ExportToFile when zero.
	ExportedAt time.Time `json:"exported_at"`
}

// FromHistory builds a document from a stored history entry.
func FromHistory(entry model.HistoryEntry, username string) *Document {
	return &Document{
		Title:    entry.DisplayTitle(),
		Username: username,
		ChatID:   entry.ID,
		Turns:    entry.Turns(),
	}
}

// DisplayTitle returns the title, or the untitled placeholder.
func (d *Document) DisplayTitle() string {
	if strings.TrimSpace(d.Title) != "" {
		return d.Title
	}
	// First user turn is the best fallback for an unsaved thread.
	for _, t := range d.Turns {
		if t.IsUser() && strings.TrimSpace(t.Text) != "" {
			return util.TruncateRunes(util.SingleLine(t.Text), 60)
		}
	}
	return model.UntitledResearch
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter renders a document into a file format.
type Exporter interface {
	// Export converts a document to the target format and returns the content.
	Export(doc *Document) ([]byte, error)

	// FileExtension returns the file extension including the dot.
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	OutputDir string

	// IncludeMetadata writes the frontmatter block (markdown only).
	IncludeMetadata bool

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:       ".",
		IncludeMetadata: true,
		Now:             time.Now,
	}
}

func (o *Options) now() time.Time {
	if o == nil || o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// ForFormat returns the exporter for "md"/"markdown" or "json".
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want md or json)", format)
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile renders doc with exporter and writes it into opts.OutputDir.
// Returns the output file path.
func ExportToFile(doc *Document, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if doc == nil || len(doc.Turns) == 0 {
		return "", ErrEmptyDocument
	}

	now := opts.now()
	if doc.ExportedAt.IsZero() {
		doc.ExportedAt = now
	}

	content, err := exporter.Export(doc)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := fmt.Sprintf("research_%s_%s%s",
		Slug(doc.DisplayTitle()),
		now.Format("20060102_150405"),
		exporter.FileExtension(),
	)

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	outputPath := filepath.Join(dir, filename)
	if err := util.AtomicWriteFile(outputPath, content, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// ExportMarkdown exports to Markdown format.
func ExportMarkdown(doc *Document, opts *Options) (string, error) {
	return ExportToFile(doc, NewMarkdownExporter(opts), opts)
}

// ExportJSON exports to JSON format.
func ExportJSON(doc *Document, opts *Options) (string, error) {
	return ExportToFile(doc, NewJSONExporter(opts), opts)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

const maxSlugLen = 50

// Slug folds a title into a portable filename fragment. Accents are
// stripped after NFKD decomposition; anything outside [a-z0-9] becomes a
// single hyphen.
func Slug(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var sb strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingDash = false
			sb.WriteRune(r)
			if sb.Len() >= maxSlugLen {
				break
			}
			continue
		}
		pendingDash = true
	}

	if sb.Len() == 0 {
		return "session"
	}
	return sb.String()
}
