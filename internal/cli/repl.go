// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/jeranaias/datacopilot-tui/internal/config"
	"github.com/jeranaias/datacopilot-tui/internal/controller"
	"github.com/jeranaias/datacopilot-tui/internal/export"
	"github.com/jeranaias/datacopilot-tui/internal/model"
	"github.com/jeranaias/datacopilot-tui/internal/ui/chat"
	"github.com/jeranaias/datacopilot-tui/internal/ui/styles"
	"github.com/jeranaias/datacopilot-tui/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// LineReader reads one line of input after showing prompt. io.EOF ends the
// session.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// ChatCLI is a LineReader with line editing and persistent input history.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI whose history lives in the config directory.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// Prompt reads a line. Ctrl+C at the prompt is reported as io.EOF.
func (c *ChatCLI) Prompt(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// Repl is the line-mode front end over a signed-in controller.
type Repl struct {
	ctrl      *controller.Controller
	in        LineReader
	out       io.Writer
	markdown  *styles.MarkdownRenderer
	exportDir string
	logger    *zap.Logger
}

// NewRepl creates a REPL. markdown may be nil for plain output.
func NewRepl(ctrl *controller.Controller, in LineReader, out io.Writer, markdown *styles.MarkdownRenderer, logger *zap.Logger) *Repl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repl{
		ctrl:      ctrl,
		in:        in,
		out:       out,
		markdown:  markdown,
		exportDir: ".",
		logger:    logger,
	}
}

// Run reads lines until EOF, /quit or /logout, or until ctx is cancelled.
func (r *Repl) Run(ctx context.Context) error {
	snap := r.ctrl.Snapshot()
	fmt.Fprintf(r.out, "%s %s\n", SuccessStyle.Render("Signed in as"), snap.Session.Username)
	fmt.Fprintf(r.out, "%s\n\n", DimStyle.Render(fmt.Sprintf("%d saved sessions. Type /help for commands.", len(snap.History))))

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := r.in.Prompt("datacopilot> ")
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(r.out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if line == "" {
			continue
		}

		if chat.IsCommandLine(line) {
			cmd, ok := chat.ParseCommand(line)
			if !ok {
				r.alert(fmt.Sprintf("Unknown command %s. Type /help for the list.", strings.Fields(line)[0]))
				continue
			}
			if !r.runCommand(ctx, cmd) {
				return nil
			}
			continue
		}

		r.send(ctx, line)
	}
}

// send submits text and prints the answer. Failures are shown by the
// controller's notifier.
func (r *Repl) send(ctx context.Context, text string) {
	fmt.Fprintln(r.out, DimStyle.Render("Researching..."))
	if err := r.ctrl.SendMessage(ctx, text); err != nil {
		r.logger.Debug("Send failed", zap.Error(err))
		return
	}
	if last, ok := lastTurn(r.ctrl.Snapshot().Turns); ok && !last.IsUser() {
		r.printTurn(last)
	}
}

// runCommand executes one slash command and reports whether to keep going.
func (r *Repl) runCommand(ctx context.Context, c chat.Command) bool {
	switch c.Name {
	case chat.CmdNew:
		r.ctrl.StartNewConversation()
		r.alert("Started a new research session.")

	case chat.CmdHistory:
		if err := r.ctrl.FetchHistory(ctx); err != nil {
			r.alert("Could not refresh history; showing the last list.")
		}
		r.printHistory(r.ctrl.Snapshot())

	case chat.CmdLoad:
		snap := r.ctrl.Snapshot()
		n, err := strconv.Atoi(c.Arg)
		if err != nil || n < 1 || n > len(snap.History) {
			r.alert(fmt.Sprintf("Usage: /load N, where N is 1-%d.", len(snap.History)))
			return true
		}
		r.ctrl.LoadConversation(snap.History[n-1])
		r.printTranscript()

	case chat.CmdDelete:
		if err := r.ctrl.DeleteConversation(ctx); errors.Is(err, controller.ErrDeleteDeclined) {
			r.alert("Kept this session.")
		}

	case chat.CmdExport:
		r.export(c.Arg)

	case chat.CmdAttach:
		if c.Arg == "" {
			r.alert("Usage: /attach PATH")
			return true
		}
		r.ctrl.AttachFile(c.Arg)

	case chat.CmdModel:
		if c.Arg == "" {
			r.alert("Model: " + r.ctrl.Model())
			return true
		}
		r.ctrl.SetModel(c.Arg)
		r.alert("Model: " + r.ctrl.Model())

	case chat.CmdLogout:
		r.ctrl.SignOut()
		fmt.Fprintln(r.out, DimStyle.Render("Signed out."))
		return false

	case chat.CmdHelp:
		fmt.Fprint(r.out, chat.HelpText())

	case chat.CmdQuit:
		return false
	}
	return true
}

func (r *Repl) export(arg string) {
	format, dir := "md", r.exportDir
	if fields := strings.Fields(arg); len(fields) > 0 {
		format = fields[0]
		if len(fields) > 1 {
			dir = fields[1]
		}
	}

	exporter, err := export.ForFormat(format, nil)
	if err != nil {
		r.alert("Export failed: " + err.Error())
		return
	}
	opts := export.DefaultOptions()
	opts.OutputDir = dir

	path, err := export.ExportToFile(snapshotDocument(r.ctrl.Snapshot()), exporter, opts)
	if err != nil {
		r.alert("Export failed: " + err.Error())
		return
	}
	r.alert("Exported to " + path)
}

// =============================================================================
// OUTPUT
// =============================================================================

func (r *Repl) alert(msg string) {
	fmt.Fprintln(r.out, InfoStyle.Render(styles.Indicators.Info), msg)
}

func (r *Repl) printTurn(t model.Turn) {
	if t.IsUser() {
		fmt.Fprintln(r.out, UserLabelStyle.Render(t.Role.DisplayName()))
		fmt.Fprintln(r.out, t.Text)
		fmt.Fprintln(r.out)
		return
	}
	fmt.Fprintln(r.out, AssistantLabelStyle.Render(t.Role.DisplayName()))
	fmt.Fprintln(r.out, renderAnswer(r.markdown, t.Text))
	fmt.Fprintln(r.out)
}

func (r *Repl) printTranscript() {
	snap := r.ctrl.Snapshot()
	fmt.Fprintln(r.out, TitleStyle.Render(activeTitle(snap)))
	for _, t := range snap.Turns {
		r.printTurn(t)
	}
}

func (r *Repl) printHistory(snap controller.Snapshot) {
	printHistory(r.out, snap.History)
}

// printHistory lists entries numbered from 1, the numbers /load and the
// delete and export commands take.
func printHistory(w io.Writer, entries []model.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No sessions yet."))
		return
	}
	width := len(strconv.Itoa(len(entries)))
	for i, e := range entries {
		title := util.TruncateWidth(util.SingleLine(e.DisplayTitle()), 60)
		fmt.Fprintf(w, "%*d. %s %s\n", width, i+1, ValueStyle.Render(title), DimStyle.Render("#"+e.ID.String()))
	}
}

// renderAnswer renders Markdown when a renderer is enabled.
func renderAnswer(md *styles.MarkdownRenderer, text string) string {
	if md == nil || !md.Enabled() {
		return text
	}
	return md.Render(text)
}

// =============================================================================
// SNAPSHOT HELPERS
// =============================================================================

func lastTurn(turns []model.Turn) (model.Turn, bool) {
	if len(turns) == 0 {
		return model.Turn{}, false
	}
	return turns[len(turns)-1], true
}

// activeTitle is the history title of the active conversation.
func activeTitle(snap controller.Snapshot) string {
	if snap.ActiveChatID.IsZero() {
		return chat.NewResearchTitle
	}
	for _, e := range snap.History {
		if e.ID.Equal(snap.ActiveChatID) {
			return e.DisplayTitle()
		}
	}
	return model.UntitledResearch
}

// snapshotDocument builds an export document from the displayed conversation.
// Unsaved conversations take their title from the first question.
func snapshotDocument(snap controller.Snapshot) *export.Document {
	doc := &export.Document{
		Username: snap.Session.Username,
		Model:    snap.Model,
		ChatID:   snap.ActiveChatID,
		Turns:    snap.Turns,
	}
	if !snap.ActiveChatID.IsZero() {
		doc.Title = activeTitle(snap)
	}
	return doc
}
