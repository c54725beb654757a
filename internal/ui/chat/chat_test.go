// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/datacopilot-tui/internal/controller"
	"github.com/jeranaias/datacopilot-tui/internal/model"
	"github.com/jeranaias/datacopilot-tui/internal/ui/styles"
)

func newPane() *Pane {
	p := New(styles.NewTheme(styles.ModeDark), nil)
	p.SetSize(80, 24)
	return p
}

func typeText(p *Pane, s string) {
	for _, r := range s {
		p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func enter(p *Pane) tea.Cmd {
	cmd, _ := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

// =============================================================================
// COMMAND PARSING
// =============================================================================

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want Command
		ok   bool
	}{
		{"/new", Command{Name: CmdNew}, true},
		{"  /LOAD 3 ", Command{Name: CmdLoad, Arg: "3"}, true},
		{"/export json /tmp/out", Command{Name: CmdExport, Arg: "json /tmp/out"}, true},
		{"/q", Command{Name: CmdQuit}, true},
		{"/rm", Command{Name: CmdDelete}, true},
		{"/bogus", Command{}, false},
		{"/", Command{}, false},
		{"hello /new", Command{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseCommand(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsCommandLine(t *testing.T) {
	assert.True(t, IsCommandLine("/bogus"))
	assert.False(t, IsCommandLine("/"))
	assert.False(t, IsCommandLine("// not a command"))
	assert.False(t, IsCommandLine("what is /new?"))
}

func TestHelpText(t *testing.T) {
	help := HelpText()
	for _, c := range Commands {
		assert.Contains(t, help, c.Usage)
	}
}

// =============================================================================
// PANE
// =============================================================================

func TestPane_SubmitMessage(t *testing.T) {
	p := newPane()
	typeText(p, "revenue by region?")
	assert.Equal(t, "revenue by region?", p.Value())

	cmd := enter(p)
	require.NotNil(t, cmd)
	assert.Equal(t, SubmitMsg{Text: "revenue by region?"}, cmd())
}

func TestPane_EmptyInputDoesNothing(t *testing.T) {
	p := newPane()
	assert.Nil(t, enter(p))
}

func TestPane_WhitespaceIsSubmitted(t *testing.T) {
	p := newPane()
	p.SetValue("   ")
	cmd := enter(p)
	require.NotNil(t, cmd)
	assert.Equal(t, SubmitMsg{Text: "   "}, cmd())
}

func TestPane_Commands(t *testing.T) {
	p := newPane()
	p.SetValue("/load 2")
	cmd := enter(p)
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg{Command: Command{Name: CmdLoad, Arg: "2"}}, cmd())
	assert.Empty(t, p.Value(), "commands clear the input")

	p.SetValue("/nope")
	cmd = enter(p)
	require.NotNil(t, cmd)
	assert.Equal(t, UnknownCommandMsg{Line: "/nope"}, cmd())
}

func TestPane_LoadingBlocksSubmitButNotCommands(t *testing.T) {
	p := newPane()
	tick := p.Sync(controller.Snapshot{
		Turns:   []model.Turn{model.UserTurn("q")},
		Loading: true,
		Draft:   "next",
	})
	assert.NotNil(t, tick, "loading start should start the spinner")
	assert.True(t, p.Loading())
	assert.Contains(t, p.View(), "Researching")

	assert.Nil(t, enter(p))

	p.SetValue("/new")
	cmd := enter(p)
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg{Command: Command{Name: CmdNew}}, cmd())

	assert.Nil(t, p.Sync(controller.Snapshot{Loading: true}), "already loading")
}

func TestPane_SyncRendersTurnsAndTitle(t *testing.T) {
	p := newPane()
	assert.Contains(t, p.View(), EmptyStateText)
	assert.Equal(t, NewResearchTitle, p.Title())

	p.Sync(controller.Snapshot{
		Turns: []model.Turn{
			model.UserTurn("how many users?"),
			model.AssistantTurn("There are 42 users."),
		},
		History: []model.HistoryEntry{
			{ID: model.NewChatID("1"), Title: "Other"},
			{ID: model.NewChatID("7"), Title: "User count"},
		},
		ActiveChatID: model.NewChatID("7"),
		Model:        "gpt-3.5-turbo",
	})

	view := p.View()
	assert.Equal(t, "User count", p.Title())
	assert.Contains(t, view, "You")
	assert.Contains(t, view, "DataCoPilot")
	assert.Contains(t, view, "There are 42 users.")
	assert.Contains(t, view, "gpt-3.5-turbo")
	assert.NotContains(t, view, EmptyStateText)
}

func TestPane_TitleForUnknownActiveID(t *testing.T) {
	p := newPane()
	p.Sync(controller.Snapshot{
		Turns:        []model.Turn{model.UserTurn("q"), model.AssistantTurn("a")},
		ActiveChatID: model.NewChatID("99"),
	})
	assert.Equal(t, model.UntitledResearch, p.Title())
}

func TestPane_SyncDraft(t *testing.T) {
	p := newPane()
	p.Sync(controller.Snapshot{Draft: "half typed"})
	assert.Equal(t, "half typed", p.Value())

	p.Sync(controller.Snapshot{Draft: ""})
	assert.Empty(t, p.Value())
}

func TestPane_BlurIgnoresKeys(t *testing.T) {
	p := newPane()
	p.Blur()
	_, handled := p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.False(t, handled)
	assert.Empty(t, p.Value())

	p.Focus()
	assert.True(t, p.Focused())
}

func TestPane_MarkdownAnswers(t *testing.T) {
	theme := styles.NewTheme(styles.ModeDark)
	p := New(theme, styles.NewMarkdownRenderer(true, true))
	p.SetSize(80, 30)
	p.Sync(controller.Snapshot{
		Turns: []model.Turn{model.UserTurn("q"), model.AssistantTurn("**bold** answer")},
	})
	view := p.View()
	assert.Contains(t, view, "answer")
	assert.False(t, strings.Contains(view, "**bold**"))
}
