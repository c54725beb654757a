// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/datacopilot-tui/internal/controller"
	"github.com/jeranaias/datacopilot-tui/internal/ui/styles"
)

const (
	fieldUsername = iota
	fieldPassword
	fieldCount
)

// =============================================================================
// AUTH FORM
// =============================================================================

// AuthForm is the landing screen's sign-in / sign-up form.
type AuthForm struct {
	mode   controller.AuthMode
	inputs [fieldCount]textinput.Model
	focus  int
	busy   bool

	width  int
	height int
	theme  *styles.Theme
}

// NewAuthForm creates a form in login mode with the username focused.
func NewAuthForm(theme *styles.Theme) *AuthForm {
	user := textinput.New()
	user.Prompt = ""
	user.Placeholder = "username"
	user.CharLimit = 128
	user.Focus()

	pass := textinput.New()
	pass.Prompt = ""
	pass.Placeholder = "password"
	pass.CharLimit = 256
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '*'

	return &AuthForm{
		mode:   controller.ModeLogin,
		inputs: [fieldCount]textinput.Model{user, pass},
		theme:  theme,
	}
}

// Mode returns whether the form signs in or signs up.
func (f *AuthForm) Mode() controller.AuthMode {
	return f.mode
}

// SetMode switches between login and signup.
func (f *AuthForm) SetMode(mode controller.AuthMode) {
	f.mode = mode
}

// ToggleMode flips between login and signup.
func (f *AuthForm) ToggleMode() {
	if f.mode == controller.ModeLogin {
		f.mode = controller.ModeSignup
	} else {
		f.mode = controller.ModeLogin
	}
}

// SetBusy disables submission while a request is in flight.
func (f *AuthForm) SetBusy(busy bool) {
	f.busy = busy
}

// Busy reports whether a submission is in flight.
func (f *AuthForm) Busy() bool {
	return f.busy
}

// Values returns the current username and password.
func (f *AuthForm) Values() (string, string) {
	return f.inputs[fieldUsername].Value(), f.inputs[fieldPassword].Value()
}

// SetValues fills both fields.
func (f *AuthForm) SetValues(username, password string) {
	f.inputs[fieldUsername].SetValue(username)
	f.inputs[fieldPassword].SetValue(password)
}

// Reset clears both fields and focuses the username.
func (f *AuthForm) Reset() {
	f.inputs[fieldUsername].Reset()
	f.inputs[fieldPassword].Reset()
	f.setFocus(fieldUsername)
	f.busy = false
}

// ClearPassword empties the password field, leaving the username.
func (f *AuthForm) ClearPassword() {
	f.inputs[fieldPassword].Reset()
	f.setFocus(fieldPassword)
}

// Focused returns the index of the focused field (0 username, 1 password).
func (f *AuthForm) Focused() int {
	return f.focus
}

// SetSize updates the form dimensions.
func (f *AuthForm) SetSize(width, height int) {
	f.width = width
	f.height = height
}

func (f *AuthForm) setFocus(i int) {
	f.focus = (i + fieldCount) % fieldCount
	for j := range f.inputs {
		if j == f.focus {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

// =============================================================================
// BUBBLE TEA METHODS
// =============================================================================

// Update handles key input for the form.
func (f *AuthForm) Update(msg tea.Msg) (tea.Cmd, bool) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil, false
	}

	switch key.String() {
	case "tab", "down":
		f.setFocus(f.focus + 1)
		return nil, true

	case "shift+tab", "up":
		f.setFocus(f.focus - 1)
		return nil, true

	case "ctrl+t":
		f.ToggleMode()
		return nil, true

	case "enter":
		if f.focus == fieldUsername {
			f.setFocus(fieldPassword)
			return nil, true
		}
		return f.submit(), true
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd, true
}

func (f *AuthForm) submit() tea.Cmd {
	if f.busy {
		return nil
	}
	username, password := f.Values()
	mode := f.mode
	return func() tea.Msg {
		return AuthSubmitMsg{Mode: mode, Username: username, Password: password}
	}
}

// =============================================================================
// VIEW RENDERING
// =============================================================================

// View renders the landing screen.
func (f *AuthForm) View() string {
	t := f.theme

	login, signup := t.AuthTab, t.AuthTab
	if f.mode == controller.ModeLogin {
		login = t.AuthTabOn
	} else {
		signup = t.AuthTabOn
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Top,
		login.Render("Sign in"), " ", signup.Render("Create account"))

	var b strings.Builder
	b.WriteString(tabs)
	b.WriteString("\n\n")
	b.WriteString(t.FieldLabel.Render("Username"))
	b.WriteString(f.inputs[fieldUsername].View())
	b.WriteString("\n")
	b.WriteString(t.FieldLabel.Render("Password"))
	b.WriteString(f.inputs[fieldPassword].View())
	b.WriteString("\n\n")

	if f.busy {
		b.WriteString(t.Hint.Render("Contacting server..."))
	} else {
		action := "sign in"
		if f.mode == controller.ModeSignup {
			action = "create the account"
		}
		b.WriteString(t.Hint.Render("enter " + action + "  tab switch field  ctrl+t switch mode  ctrl+c quit"))
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		t.Logo.Render("DataCoPilot"),
		t.Tagline.Render(Tagline),
		"",
		t.AuthBox.Render(b.String()),
	)

	if f.width <= 0 || f.height <= 0 {
		return content
	}
	return lipgloss.Place(f.width, f.height, lipgloss.Center, lipgloss.Center, content)
}
