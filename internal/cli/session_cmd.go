// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/datacopilot-tui/internal/controller"
	"github.com/jeranaias/datacopilot-tui/internal/export"
	"github.com/jeranaias/datacopilot-tui/internal/model"
	"github.com/jeranaias/datacopilot-tui/internal/ui/styles"
)

// =============================================================================
// SHARED HELPERS
// =============================================================================

// signIn builds a controller and logs in with resolved credentials. Error
// alerts are not printed; the returned error carries them.
func (e *env) signIn(ctx context.Context, cmd *cobra.Command, creds *credentialFlags, cf controller.Confirmer) (*controller.Controller, error) {
	username, password, err := creds.resolve(e.prompt)
	if err != nil {
		return nil, err
	}
	ctrl := e.newController(&alertPrinter{w: cmd.OutOrStdout()}, cf)
	if err := ctrl.Authenticate(ctx, controller.ModeLogin, username, password); err != nil {
		ctrl.Close()
		return nil, err
	}
	return ctrl, nil
}

// historyEntry returns the 1-based entry n of the signed-in history.
func historyEntry(snap controller.Snapshot, arg string) (model.HistoryEntry, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return model.HistoryEntry{}, NewUsageError("session number must be a positive integer, got %q", arg)
	}
	if n > len(snap.History) {
		return model.HistoryEntry{}, &NotFoundError{Resource: "session", ID: arg}
	}
	return snap.History[n-1], nil
}

// lineRenderer renders answers as Markdown when stdout is a terminal.
func (e *env) lineRenderer() *styles.MarkdownRenderer {
	if !e.cfg.UI.Markdown || !IsStdoutTTY() {
		return styles.NewMarkdownRenderer(false, true)
	}
	theme := styles.NewTheme(e.cfg.UI.Theme)
	md := styles.NewMarkdownRenderer(true, theme.IsDark)
	md.SetWidth(GetTerminalWidth())
	return md
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// =============================================================================
// LOGIN / SIGNUP
// =============================================================================

func newLoginCommand(e *env) *cobra.Command {
	var creds credentialFlags
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check credentials against the research service",
		Long: `Sign in and report how many research sessions the account has.

Nothing is stored locally; every command signs in again.`,
		Example: `  datacopilot login -u ada
  DATACOPILOT_USERNAME=ada DATACOPILOT_PASSWORD=... datacopilot login`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := e.signIn(cmd.Context(), cmd, &creds, nil)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			snap := ctrl.Snapshot()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, SuccessStyle.Render("Signed in as "+snap.Session.Username))
			fmt.Fprintln(out, RenderKeyValue("Server", e.cfg.Server.BaseURL))
			fmt.Fprintln(out, RenderKeyValue("Sessions", strconv.Itoa(len(snap.History))))
			return nil
		},
	}
	creds.register(cmd)
	return cmd
}

func newSignupCommand(e *env) *cobra.Command {
	var creds credentialFlags
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account on the research service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			username, password, err := creds.resolve(e.prompt)
			if err != nil {
				return err
			}
			ctrl := e.newController(&alertPrinter{w: cmd.OutOrStdout()}, nil)
			defer ctrl.Close()
			return ctrl.Authenticate(cmd.Context(), controller.ModeSignup, username, password)
		},
	}
	creds.register(cmd)
	return cmd
}

// =============================================================================
// HISTORY
// =============================================================================

func newHistoryCommand(e *env) *cobra.Command {
	var (
		creds   credentialFlags
		asJSON  bool
		showAll bool
	)
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"ls"},
		Short:   "List saved research sessions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctrl, err := e.signIn(ctx, cmd, &creds, nil)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			// Sign-in only logs history failures; ask again so they surface.
			if err := ctrl.FetchHistory(ctx); err != nil {
				return NewCommandError("history", "could not load sessions", err)
			}
			snap := ctrl.Snapshot()

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, snap.History)
			}
			printHistory(out, snap.History)
			if showAll {
				for i, entry := range snap.History {
					fmt.Fprintln(out)
					fmt.Fprintln(out, TitleStyle.Render(fmt.Sprintf("%d. %s", i+1, entry.DisplayTitle())))
					fmt.Fprintln(out, UserLabelStyle.Render(model.RoleUser.DisplayName()), entry.Question)
					fmt.Fprintln(out, AssistantLabelStyle.Render(model.RoleAssistant.DisplayName()), entry.Answer)
				}
			}
			return nil
		},
	}
	creds.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw entries as JSON")
	cmd.Flags().BoolVarP(&showAll, "all", "a", false, "print each question and answer")
	return cmd
}

// =============================================================================
// ASK
// =============================================================================

// askResult is the --json output of ask.
type askResult struct {
	ChatID   model.ChatID `json:"chat_id"`
	Question string       `json:"question"`
	Answer   string       `json:"answer"`
	Model    string       `json:"model"`
}

func newAskCommand(e *env) *cobra.Command {
	var (
		creds     credentialFlags
		continueN string
		modelID   string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "ask QUESTION...",
		Short: "Ask one question and print the answer",
		Example: `  datacopilot ask "Which region grew fastest last quarter?"
  datacopilot ask --continue 2 "Break that down by month"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			question := strings.Join(args, " ")
			if question == "" {
				return NewUsageError("question must not be empty")
			}

			ctrl, err := e.signIn(ctx, cmd, &creds, nil)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			if modelID != "" {
				ctrl.SetModel(modelID)
			}
			if continueN != "" {
				entry, err := historyEntry(ctrl.Snapshot(), continueN)
				if err != nil {
					return err
				}
				ctrl.LoadConversation(entry)
			}

			if err := ctrl.SendMessage(ctx, question); err != nil {
				return NewCommandError("ask", controller.MsgGenerateFailed, err)
			}

			snap := ctrl.Snapshot()
			last, _ := lastTurn(snap.Turns)
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, askResult{
					ChatID:   snap.ActiveChatID,
					Question: question,
					Answer:   last.Text,
					Model:    snap.Model,
				})
			}
			fmt.Fprintln(out, renderAnswer(e.lineRenderer(), last.Text))
			return nil
		},
	}
	creds.register(cmd)
	cmd.Flags().StringVar(&continueN, "continue", "", "continue saved session N (see 'history')")
	cmd.Flags().StringVarP(&modelID, "model", "m", "", "model identifier (overrides chat.model)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

// =============================================================================
// DELETE
// =============================================================================

func newDeleteCommand(e *env) *cobra.Command {
	var (
		creds credentialFlags
		yes   bool
	)
	cmd := &cobra.Command{
		Use:     "delete N",
		Aliases: []string{"rm"},
		Short:   "Delete saved research session N",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var cf controller.Confirmer = controller.AutoConfirm{}
			if !yes {
				cf = promptConfirmer(e.prompt)
			}

			ctrl, err := e.signIn(ctx, cmd, &creds, cf)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			entry, err := historyEntry(ctrl.Snapshot(), args[0])
			if err != nil {
				return err
			}
			ctrl.LoadConversation(entry)
			fmt.Fprintln(cmd.OutOrStdout(), TitleStyle.Render(entry.DisplayTitle()))

			if err := ctrl.DeleteConversation(ctx); err != nil {
				if errors.Is(err, controller.ErrDeleteDeclined) {
					fmt.Fprintln(cmd.OutOrStdout(), DimStyle.Render("Kept."))
					return nil
				}
				return err
			}
			for _, h := range ctrl.Snapshot().History {
				if h.ID.Equal(entry.ID) {
					// The notifier already said it was only removed from view.
					return nil
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Deleted."))
			return nil
		},
	}
	creds.register(cmd)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// =============================================================================
// EXPORT
// =============================================================================

func newExportCommand(e *env) *cobra.Command {
	var (
		creds  credentialFlags
		format string
		dir    string
		stdout bool
	)
	cmd := &cobra.Command{
		Use:   "export N",
		Short: "Export saved research session N as Markdown or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exporter, err := export.ForFormat(format, nil)
			if err != nil {
				return NewUsageError("%v", err)
			}

			ctrl, err := e.signIn(cmd.Context(), cmd, &creds, nil)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			snap := ctrl.Snapshot()
			entry, err := historyEntry(snap, args[0])
			if err != nil {
				return err
			}
			doc := export.FromHistory(entry, snap.Session.Username)
			doc.Model = snap.Model

			out := cmd.OutOrStdout()
			if stdout {
				content, err := exporter.Export(doc)
				if err != nil {
					return NewCommandError("export", "render failed", err)
				}
				_, err = out.Write(content)
				return err
			}

			opts := export.DefaultOptions()
			opts.OutputDir = dir
			path, err := export.ExportToFile(doc, exporter, opts)
			if err != nil {
				return NewCommandError("export", "write failed", err)
			}
			fmt.Fprintln(out, SuccessStyle.Render("Exported to"), path)
			return nil
		},
	}
	creds.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "md", "md or json")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "output directory")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "print instead of writing a file")
	return cmd
}

// =============================================================================
// CHAT (REPL)
// =============================================================================

func newChatCommand(e *env) *cobra.Command {
	var creds credentialFlags
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Line-mode research session with slash commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !CanPrompt() {
				return NewUsageError("chat needs a terminal; use 'datacopilot ask' in scripts")
			}
			ctx := cmd.Context()
			username, password, err := creds.resolve(e.prompt)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			alerts := &alertPrinter{w: out}
			ctrl := e.newController(alerts, promptConfirmer(e.prompt))
			defer ctrl.Close()
			if err := ctrl.Authenticate(ctx, controller.ModeLogin, username, password); err != nil {
				return err
			}
			alerts.showErrors()

			input := NewChatCLI()
			defer input.Close()
			return NewRepl(ctrl, input, out, e.lineRenderer(), e.logger.Named("repl")).Run(ctx)
		},
	}
	creds.register(cmd)
	return cmd
}
