// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/jeranaias/datacopilot-tui/internal/api"
	"github.com/jeranaias/datacopilot-tui/internal/config"
	"github.com/jeranaias/datacopilot-tui/internal/controller"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates a configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates the service rejected the credentials
	ExitAuthError = 4
	// ExitNetworkError indicates the service could not be reached
	ExitNetworkError = 5
	// ExitNotFoundError indicates a session or key was not found
	ExitNotFoundError = 7
	// ExitCancelled indicates the user declined or interrupted
	ExitCancelled = 130
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError wraps a failure with the command that produced it.
type CommandError struct {
	Command string // Command that failed (e.g., "history", "delete")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Command, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Command, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError is returned for bad arguments that cobra cannot check itself.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// NotFoundError represents a missing history entry or config key.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewCommandError creates a new command error.
func NewCommandError(command, reason string, err error) error {
	return &CommandError{Command: command, Reason: reason, Err: err}
}

// NewUsageError creates a usage error with a formatted message.
func NewUsageError(format string, args ...any) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		usageErr    *UsageError
		notFoundErr *NotFoundError
		apiErr      *api.Error
		netErr      net.Error
		validateErr config.ValidateErrors
	)

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, controller.ErrDeleteDeclined):
		return ExitCancelled
	case errors.As(err, &usageErr):
		return ExitUsageError
	case errors.As(err, &notFoundErr):
		return ExitNotFoundError
	case errors.As(err, &validateErr):
		return ExitConfigError
	case errors.As(err, &apiErr):
		switch apiErr.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ExitAuthError
		case http.StatusNotFound:
			return ExitNotFoundError
		}
		return ExitGeneralError
	case errors.As(err, &netErr):
		return ExitNetworkError
	}
	return ExitGeneralError
}
