// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/datacopilot-tui/internal/controller"
	"github.com/jeranaias/datacopilot-tui/internal/model"
	"github.com/jeranaias/datacopilot-tui/internal/ui/styles"
	"github.com/jeranaias/datacopilot-tui/internal/util"
)

// NewResearchTitle is the header shown for an unsaved conversation.
const NewResearchTitle = "New Research"

// EmptyStateText is shown when the conversation has no turns.
const EmptyStateText = "Ask a question about your data to start a research session."

// SubmitMsg is emitted when the user sends a message.
type SubmitMsg struct {
	Text string
}

// CommandMsg is emitted when the user enters a slash command.
type CommandMsg struct {
	Command Command
}

// UnknownCommandMsg is emitted for a "/word" line that names no command.
type UnknownCommandMsg struct {
	Line string
}

// =============================================================================
// PANE
// =============================================================================

// Pane is the conversation view: header, transcript, input.
type Pane struct {
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	markdown *styles.MarkdownRenderer
	theme    *styles.Theme

	turns   []model.Turn
	title   string
	model   string
	loading bool
	focused bool

	width  int
	height int
}

// New creates a pane. markdown may be nil for plain-text answers.
func New(theme *styles.Theme, markdown *styles.MarkdownRenderer) *Pane {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask DataCoPilot..."
	ti.CharLimit = 8192
	ti.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	if markdown == nil {
		markdown = styles.NewMarkdownRenderer(false, theme.IsDark)
	}

	p := &Pane{
		viewport: vp,
		input:    ti,
		spinner:  sp,
		markdown: markdown,
		theme:    theme,
		title:    NewResearchTitle,
		focused:  true,
	}
	p.refresh()
	return p
}

// =============================================================================
// STATE
// =============================================================================

// Sync copies the parts of snap the pane renders. It returns the spinner
// tick command when loading starts.
func (p *Pane) Sync(snap controller.Snapshot) tea.Cmd {
	wasLoading := p.loading

	p.turns = snap.Turns
	p.loading = snap.Loading
	p.model = snap.Model
	p.title = titleFor(snap)
	if p.input.Value() != snap.Draft {
		p.input.SetValue(snap.Draft)
		p.input.CursorEnd()
	}
	p.refresh()

	if p.loading && !wasLoading {
		return p.spinner.Tick
	}
	return nil
}

// titleFor finds the history title of the active conversation.
func titleFor(snap controller.Snapshot) string {
	if snap.ActiveChatID.IsZero() {
		return NewResearchTitle
	}
	for _, e := range snap.History {
		if e.ID.Equal(snap.ActiveChatID) {
			return e.DisplayTitle()
		}
	}
	return model.UntitledResearch
}

// Title returns the header text.
func (p *Pane) Title() string {
	return p.title
}

// Loading reports whether an answer is pending.
func (p *Pane) Loading() bool {
	return p.loading
}

// Value returns the input text.
func (p *Pane) Value() string {
	return p.input.Value()
}

// SetValue replaces the input text.
func (p *Pane) SetValue(s string) {
	p.input.SetValue(s)
	p.input.CursorEnd()
}

// Focus gives the input keyboard focus.
func (p *Pane) Focus() {
	p.focused = true
	p.input.Focus()
}

// Blur removes keyboard focus from the input.
func (p *Pane) Blur() {
	p.focused = false
	p.input.Blur()
}

// Focused reports whether the input has focus.
func (p *Pane) Focused() bool {
	return p.focused
}

// SetSize updates the pane dimensions.
func (p *Pane) SetSize(width, height int) {
	p.width = width
	p.height = height

	// header (1) + input box (3) + status line (1)
	vh := height - 5
	if vh < 3 {
		vh = 3
	}
	p.viewport.Width = width
	p.viewport.Height = vh
	p.input.Width = width - 6
	p.markdown.SetWidth(width - 4)
	p.refresh()
}

// refresh re-renders the transcript and keeps the newest turn in view.
func (p *Pane) refresh() {
	p.viewport.SetContent(p.renderTranscript())
	p.viewport.GotoBottom()
}

// =============================================================================
// BUBBLE TEA METHODS
// =============================================================================

// Update handles keys and spinner ticks.
func (p *Pane) Update(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !p.loading {
			return nil, true
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		p.refresh()
		return cmd, true

	case tea.KeyMsg:
		if !p.focused {
			return nil, false
		}
		return p.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		p.viewport, cmd = p.viewport.Update(msg)
		return cmd, true
	}
	return nil, false
}

func (p *Pane) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		p.viewport, cmd = p.viewport.Update(msg)
		return cmd, true

	case "enter":
		return p.submit(), true
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd, true
}

func (p *Pane) submit() tea.Cmd {
	text := p.input.Value()
	if text == "" {
		return nil
	}

	if IsCommandLine(text) {
		p.input.Reset()
		cmd, ok := ParseCommand(text)
		if !ok {
			return func() tea.Msg { return UnknownCommandMsg{Line: text} }
		}
		return func() tea.Msg { return CommandMsg{Command: cmd} }
	}

	if p.loading {
		return nil
	}
	return func() tea.Msg { return SubmitMsg{Text: text} }
}

// =============================================================================
// VIEW RENDERING
// =============================================================================

func (p *Pane) renderTranscript() string {
	t := p.theme
	if len(p.turns) == 0 && !p.loading {
		return t.EmptyState.Width(p.viewport.Width).Render("\n" + EmptyStateText)
	}

	var b strings.Builder
	for i, turn := range p.turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p.renderTurn(turn))
		b.WriteString("\n")
	}
	if p.loading {
		b.WriteString("\n")
		b.WriteString(t.AssistantLabel.Render(model.RoleAssistant.DisplayName()))
		b.WriteString("\n")
		b.WriteString(t.TurnBody.Render(t.Thinking.Render(p.spinner.View() + " Researching...")))
		b.WriteString("\n")
	}
	return b.String()
}

func (p *Pane) renderTurn(turn model.Turn) string {
	t := p.theme
	label := t.UserLabel.Render(turn.Role.DisplayName())
	body := turn.Text
	if turn.IsUser() {
		body = t.TurnBody.Width(max(p.viewport.Width-2, 10)).Render(body)
	} else {
		label = t.AssistantLabel.Render(turn.Role.DisplayName())
		if p.markdown.Enabled() {
			body = p.markdown.Render(body)
		} else {
			body = t.TurnBody.Width(max(p.viewport.Width-2, 10)).Render(body)
		}
	}
	return label + "\n" + body
}

// View renders the pane.
func (p *Pane) View() string {
	t := p.theme

	header := p.title
	if p.width > 0 {
		header = util.TruncateWidth(header, max(p.width-util.StringWidth(p.model)-4, 10))
	}
	if p.model != "" {
		header += "  " + t.Hint.Render(p.model)
	}

	box := t.InputBox
	if p.loading {
		box = t.InputBoxBusy
	}
	if p.width > 2 {
		box = box.Width(p.width - 2)
	}

	status := "enter send  /help commands  tab sidebar  pgup/pgdn scroll"
	if p.loading {
		status = "waiting for answer..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		t.Header.Render(header),
		p.viewport.View(),
		box.Render(p.input.View()),
		t.Hint.Render(status),
	)
}
