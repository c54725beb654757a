// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/datacopilot-tui/internal/journal"
)

// ErrJournalDisabled is returned by journal commands when journal.enabled is off.
var ErrJournalDisabled = errors.New("request journal is disabled (journal.enabled = false)")

// journalRow is the --json shape of one call.
type journalRow struct {
	RequestID  string    `json:"request_id"`
	Method     string    `json:"method"`
	Route      string    `json:"route"`
	Status     int       `json:"status"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

func newJournalCommand(e *env) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recent calls to the research service",
		Long: `Show the request journal: method, route, status and timing of recent
calls. Bodies, usernames and passwords are never recorded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := e.openJournal()
			if err != nil {
				return err
			}
			defer j.Close()

			ctx := cmd.Context()
			entries, err := j.Recent(ctx, limit)
			if err != nil {
				return NewCommandError("journal", "could not read calls", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				rows := make([]journalRow, 0, len(entries))
				for _, en := range entries {
					rows = append(rows, journalRow{
						RequestID:  en.RequestID,
						Method:     en.Method,
						Route:      en.Route,
						Status:     en.Status,
						DurationMs: en.Duration.Milliseconds(),
						Error:      en.Error,
						At:         en.At.UTC(),
					})
				}
				return writeJSON(out, rows)
			}

			stats, err := j.Stats(ctx)
			if err != nil {
				return NewCommandError("journal", "could not count calls", err)
			}
			fmt.Fprintln(out, RenderKeyValue("Calls", strconv.Itoa(stats.Total)))
			fmt.Fprintln(out, RenderKeyValue("Failures", strconv.Itoa(stats.Failures)))
			fmt.Fprintln(out)

			if len(entries) == 0 {
				fmt.Fprintln(out, DimStyle.Render("No calls recorded."))
				return nil
			}
			for _, en := range entries {
				status := SuccessStyle.Render(strconv.Itoa(en.Status))
				if en.Failed() {
					status = ErrorStyle.Render(statusText(en))
				}
				fmt.Fprintf(out, "%s  %-6s %-24s %s %s\n",
					DimStyle.Render(en.At.Format("2006-01-02 15:04:05")),
					en.Method, en.Route, status,
					DimStyle.Render(en.Duration.Round(time.Millisecond).String()))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of calls to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print calls as JSON")

	var keep int
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep < 0 {
				return NewUsageError("--keep must not be negative")
			}
			j, err := e.openJournal()
			if err != nil {
				return err
			}
			defer j.Close()

			removed, err := j.Prune(cmd.Context(), keep)
			if err != nil {
				return NewCommandError("journal prune", "could not delete calls", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d calls\n", SuccessStyle.Render("Removed"), removed)
			return nil
		},
	}
	prune.Flags().IntVar(&keep, "keep", 500, "number of newest calls to keep")
	cmd.AddCommand(prune)
	return cmd
}

func (e *env) openJournal() (*journal.Journal, error) {
	if !e.cfg.Journal.Enabled {
		return nil, ErrJournalDisabled
	}
	j, err := journal.Open(e.cfg.JournalPath(), e.logger.Named("journal"))
	if err != nil {
		return nil, NewCommandError("journal", "could not open "+e.cfg.JournalPath(), err)
	}
	return j, nil
}

func statusText(en journal.Entry) string {
	if en.Status == 0 {
		return "ERR"
	}
	return strconv.Itoa(en.Status)
}
