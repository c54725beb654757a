// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"

	"github.com/jeranaias/datacopilot-tui/internal/controller"
	"github.com/jeranaias/datacopilot-tui/internal/ui/styles"
)

// ErrNoTerminal is returned when a prompt is needed but stdin is not a terminal.
var ErrNoTerminal = errors.New("no terminal to prompt on")

// =============================================================================
// PROMPTS
// =============================================================================

// Prompter asks the user for input.
type Prompter interface {
	Input(message string) (string, error)
	Password(message string) (string, error)
	Confirm(message string, def bool) (bool, error)
}

// surveyPrompter prompts on the controlling terminal.
type surveyPrompter struct{}

func (surveyPrompter) Input(message string) (string, error) {
	if !CanPrompt() {
		return "", ErrNoTerminal
	}
	var value string
	err := survey.AskOne(&survey.Input{Message: message}, &value, survey.WithValidator(survey.Required))
	return strings.TrimSpace(value), mapSurveyErr(err)
}

func (surveyPrompter) Password(message string) (string, error) {
	if !CanPrompt() {
		return "", ErrNoTerminal
	}
	var value string
	err := survey.AskOne(&survey.Password{Message: message}, &value, survey.WithValidator(survey.Required))
	return value, mapSurveyErr(err)
}

func (surveyPrompter) Confirm(message string, def bool) (bool, error) {
	if !CanPrompt() {
		return false, ErrNoTerminal
	}
	value := def
	err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &value)
	return value, mapSurveyErr(err)
}

// mapSurveyErr turns Ctrl+C at a prompt into context.Canceled.
func mapSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return context.Canceled
	}
	return err
}

// =============================================================================
// CREDENTIALS
// =============================================================================

// credentialFlags holds --username/--password for commands that sign in.
type credentialFlags struct {
	username string
	password string
}

func (f *credentialFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.username, "username", "u", "", "username (or DATACOPILOT_USERNAME)")
	cmd.Flags().StringVarP(&f.password, "password", "p", "", "password (or DATACOPILOT_PASSWORD; prompted when unset)")
}

// resolve fills credentials from flags, then the environment, then prompts.
func (f *credentialFlags) resolve(p Prompter) (username, password string, err error) {
	username = firstNonEmpty(f.username, os.Getenv("DATACOPILOT_USERNAME"))
	password = firstNonEmpty(f.password, os.Getenv("DATACOPILOT_PASSWORD"))

	if strings.TrimSpace(username) == "" {
		username, err = p.Input("Username:")
		if err != nil {
			return "", "", credentialErr("username", err)
		}
	}
	if password == "" {
		password, err = p.Password("Password:")
		if err != nil {
			return "", "", credentialErr("password", err)
		}
	}
	return username, password, nil
}

func credentialErr(field string, err error) error {
	if errors.Is(err, ErrNoTerminal) {
		return NewUsageError("%s required: use --%s or DATACOPILOT_%s", field, field, strings.ToUpper(field))
	}
	return fmt.Errorf("failed to read %s: %w", field, err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// promptConfirmer answers controller confirmations with a yes/no prompt.
// Prompt failures decline.
func promptConfirmer(p Prompter) controller.Confirmer {
	return controller.ConfirmerFunc(func(ctx context.Context, prompt string) bool {
		if ctx.Err() != nil {
			return false
		}
		ok, err := p.Confirm(prompt, false)
		return err == nil && ok
	})
}

// =============================================================================
// ALERTS
// =============================================================================

// alertPrinter writes controller alerts as single lines.
type alertPrinter struct {
	mu sync.Mutex
	w  io.Writer

	// errors also prints error alerts. One-shot commands leave it off
	// because the returned error already says what failed.
	errors bool
}

func (a *alertPrinter) showErrors() {
	a.mu.Lock()
	a.errors = true
	a.mu.Unlock()
}

func (a *alertPrinter) Notify(alert controller.Alert) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch alert.Level {
	case controller.AlertError:
		if a.errors {
			fmt.Fprintln(a.w, ErrorStyle.Render(styles.Indicators.Error), alert.Message)
		}
	default:
		fmt.Fprintln(a.w, InfoStyle.Render(styles.Indicators.Info), alert.Message)
	}
}
