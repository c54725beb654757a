// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/datacopilot-tui/internal/controller"
	"github.com/jeranaias/datacopilot-tui/internal/export"
	"github.com/jeranaias/datacopilot-tui/internal/ui/chat"
	"github.com/jeranaias/datacopilot-tui/internal/ui/components"
	"github.com/jeranaias/datacopilot-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

type authDoneMsg struct {
	mode controller.AuthMode
	err  error
}

type actionDoneMsg struct {
	op  string
	err error
}

type exportDoneMsg struct {
	path string
	err  error
}

// =============================================================================
// MODEL
// =============================================================================

// Options configures the root model.
type Options struct {
	Version   string
	Theme     *styles.Theme
	Markdown  bool
	ExportDir string
	Logger    *zap.Logger
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx    context.Context
	ctrl   *controller.Controller
	logger *zap.Logger
	theme  *styles.Theme

	splash  components.Splash
	auth    *components.AuthForm
	sidebar *components.Sidebar
	pane    *chat.Pane
	alerts  *components.AlertBox
	confirm *components.ConfirmDialog

	snap      controller.Snapshot
	exportDir string

	width  int
	height int
}

// New creates the root model for ctrl. ctx bounds every network call the
// model starts.
func New(ctx context.Context, ctrl *controller.Controller, opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(styles.ModeAuto)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	exportDir := opts.ExportDir
	if exportDir == "" {
		exportDir = "."
	}

	m := Model{
		ctx:       ctx,
		ctrl:      ctrl,
		logger:    logger,
		theme:     theme,
		splash:    components.NewSplash(theme, opts.Version),
		auth:      components.NewAuthForm(theme),
		sidebar:   components.NewSidebar(theme),
		pane:      chat.New(theme, styles.NewMarkdownRenderer(opts.Markdown, theme.IsDark)),
		alerts:    components.NewAlertBox(theme),
		confirm:   components.NewConfirmDialog(theme),
		exportDir: exportDir,
	}
	m.sync()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Snapshot returns the state last rendered.
func (m Model) Snapshot() controller.Snapshot {
	return m.snap
}

// sync pulls a fresh snapshot into every component.
func (m *Model) sync() tea.Cmd {
	m.snap = m.ctrl.Snapshot()
	m.sidebar.SetEntries(m.snap.History, m.snap.ActiveChatID)
	m.sidebar.SetUsername(m.snap.Session.Username)
	return m.pane.Sync(m.snap)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case StateChangedMsg:
		return m, m.sync()

	case AlertMsg:
		m.alerts.Push(msg.Alert)
		return m, nil

	case ConfirmRequestMsg:
		m.confirm.Show(msg.Prompt, msg.Reply)
		return m, nil

	case authDoneMsg:
		m.auth.SetBusy(false)
		switch {
		case msg.err != nil:
			m.auth.ClearPassword()
		case msg.mode == controller.ModeSignup:
			m.auth.SetMode(controller.ModeLogin)
			m.auth.ClearPassword()
		default:
			m.auth.Reset()
			m.focusPane()
		}
		return m, m.sync()

	case actionDoneMsg:
		if msg.err != nil && !isExpected(msg.err) {
			m.logger.Debug("Action finished with error", zap.String("op", msg.op), zap.Error(msg.err))
		}
		return m, m.sync()

	case exportDoneMsg:
		if msg.err != nil {
			m.alerts.Push(controller.Alert{Level: controller.AlertError, Message: "Export failed: " + msg.err.Error()})
		} else {
			m.alerts.Push(controller.Alert{Level: controller.AlertInfo, Message: "Exported to " + msg.path})
		}
		return m, nil

	case components.AuthSubmitMsg:
		return m, m.authenticate(msg)

	case components.SessionSelectedMsg:
		m.ctrl.LoadConversation(msg.Entry)
		m.focusPane()
		return m, m.sync()

	case components.NewSessionMsg:
		m.ctrl.StartNewConversation()
		m.focusPane()
		return m, m.sync()

	case chat.SubmitMsg:
		return m, m.send(msg.Text)

	case chat.CommandMsg:
		return m.runCommand(msg.Command)

	case chat.UnknownCommandMsg:
		m.alerts.Push(controller.Alert{
			Level:   controller.AlertInfo,
			Message: fmt.Sprintf("Unknown command %s. Type /help for the list.", msg.Line),
		})
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Spinner ticks, mouse wheel.
	cmd, _ := m.pane.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.confirm.Cancel()
		return m, tea.Quit
	}

	// Modal overlays take every key.
	if cmd, handled := m.confirm.Update(msg); handled {
		return m, cmd
	}
	if cmd, handled := m.alerts.Update(msg); handled {
		return m, cmd
	}

	switch m.snap.Phase {
	case controller.PhaseSplash:
		return m, nil

	case controller.PhaseUnauthenticated:
		if msg.String() == "esc" {
			return m, tea.Quit
		}
		cmd, _ := m.auth.Update(msg)
		return m, cmd
	}

	return m.handleWorkspaceKey(msg)
}

func (m Model) handleWorkspaceKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		if m.sidebar.Focused() || m.theme.SidebarWidth() == 0 {
			m.focusPane()
		} else {
			m.focusSidebar()
		}
		return m, nil

	case "esc":
		if m.sidebar.Focused() {
			m.focusPane()
		}
		return m, nil

	case "ctrl+n":
		return m.runCommand(chat.Command{Name: chat.CmdNew})

	case "ctrl+x":
		return m.runCommand(chat.Command{Name: chat.CmdDelete})

	case "ctrl+r":
		return m, m.fetchHistory()
	}

	if cmd, handled := m.sidebar.Update(msg); handled {
		return m, cmd
	}

	before := m.pane.Value()
	cmd, _ := m.pane.Update(msg)
	if after := m.pane.Value(); after != before {
		m.ctrl.SetDraft(after)
	}
	return m, cmd
}

func (m *Model) focusPane() {
	m.sidebar.Blur()
	m.pane.Focus()
}

func (m *Model) focusSidebar() {
	m.pane.Blur()
	m.sidebar.Focus()
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	m.splash.SetSize(width, height)
	m.auth.SetSize(width, height)
	m.alerts.SetWidth(width - 4)

	side := m.theme.SidebarWidth()
	m.sidebar.SetSize(side, height)
	if side == 0 && m.sidebar.Focused() {
		m.focusPane()
	}
	paneWidth := width - side
	if side > 0 {
		paneWidth--
	}
	m.pane.SetSize(paneWidth, height)
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m *Model) authenticate(msg components.AuthSubmitMsg) tea.Cmd {
	if m.auth.Busy() {
		return nil
	}
	m.auth.SetBusy(true)
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		err := ctrl.Authenticate(ctx, msg.Mode, msg.Username, msg.Password)
		return authDoneMsg{mode: msg.Mode, err: err}
	}
}

func (m *Model) send(text string) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return actionDoneMsg{op: "send", err: ctrl.SendMessage(ctx, text)}
	}
}

func (m *Model) fetchHistory() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return actionDoneMsg{op: "history", err: ctrl.FetchHistory(ctx)}
	}
}

func (m *Model) deleteActive() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return actionDoneMsg{op: "delete", err: ctrl.DeleteConversation(ctx)}
	}
}

// isExpected filters errors the user already saw or caused on purpose.
func isExpected(err error) bool {
	return errors.Is(err, controller.ErrDeleteDeclined) ||
		errors.Is(err, controller.ErrSendInFlight) ||
		errors.Is(err, controller.ErrEmptyMessage)
}

func (m Model) runCommand(c chat.Command) (tea.Model, tea.Cmd) {
	info := func(text string) (tea.Model, tea.Cmd) {
		m.alerts.Push(controller.Alert{Level: controller.AlertInfo, Message: text})
		return m, nil
	}

	switch c.Name {
	case chat.CmdNew:
		m.ctrl.StartNewConversation()
		return m, m.sync()

	case chat.CmdHistory:
		if m.theme.SidebarWidth() > 0 {
			m.focusSidebar()
		}
		return m, m.fetchHistory()

	case chat.CmdLoad:
		n, err := strconv.Atoi(c.Arg)
		if err != nil || n < 1 || n > len(m.snap.History) {
			return info(fmt.Sprintf("Usage: /load N, where N is 1-%d.", len(m.snap.History)))
		}
		m.ctrl.LoadConversation(m.snap.History[n-1])
		return m, m.sync()

	case chat.CmdDelete:
		return m, m.deleteActive()

	case chat.CmdExport:
		return m, m.export(c.Arg)

	case chat.CmdAttach:
		if c.Arg == "" {
			return info("Usage: /attach PATH")
		}
		m.ctrl.AttachFile(c.Arg)
		return m, nil

	case chat.CmdModel:
		if c.Arg == "" {
			return info("Model: " + m.ctrl.Model())
		}
		m.ctrl.SetModel(c.Arg)
		return m, m.sync()

	case chat.CmdLogout:
		m.ctrl.SignOut()
		m.auth.Reset()
		return m, m.sync()

	case chat.CmdHelp:
		return info("Commands:\n" + chat.HelpText())

	case chat.CmdQuit:
		return m, tea.Quit
	}
	return m, nil
}

// export writes the displayed conversation. arg is "[md|json] [dir]".
func (m *Model) export(arg string) tea.Cmd {
	format, dir := "md", m.exportDir
	fields := strings.Fields(arg)
	if len(fields) > 0 {
		format = fields[0]
	}
	if len(fields) > 1 {
		dir = fields[1]
	}

	exporter, err := export.ForFormat(format, nil)
	if err != nil {
		return func() tea.Msg { return exportDoneMsg{err: err} }
	}

	doc := &export.Document{
		Title:    m.pane.Title(),
		Username: m.snap.Session.Username,
		Model:    m.snap.Model,
		ChatID:   m.snap.ActiveChatID,
		Turns:    m.snap.Turns,
	}
	if m.snap.ActiveChatID.IsZero() {
		doc.Title = ""
	}
	opts := export.DefaultOptions()
	opts.OutputDir = dir

	return func() tea.Msg {
		path, err := export.ExportToFile(doc, exporter, opts)
		return exportDoneMsg{path: path, err: err}
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	if m.confirm.IsVisible() {
		return m.overlay(m.confirm.View())
	}
	if m.alerts.IsVisible() {
		return m.overlay(m.alerts.View())
	}

	switch m.snap.Phase {
	case controller.PhaseSplash:
		return m.splash.View()
	case controller.PhaseUnauthenticated:
		return m.auth.View()
	}

	if m.theme.SidebarWidth() == 0 {
		return m.pane.View()
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), " ", m.pane.View())
}

func (m Model) overlay(content string) string {
	if m.width <= 0 || m.height <= 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
