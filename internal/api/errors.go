// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrMalformedResponse indicates a success response whose body is missing
	// required fields or is not the expected shape.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrResponseTooLarge indicates the body exceeded MaxResponseSize.
	ErrResponseTooLarge = errors.New("response too large")
)

// Error is a non-2xx answer from the service.
type Error struct {
	Status int
	// Detail is the service's "detail" string, empty when absent.
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("service error (HTTP %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("service error (HTTP %d): %s", e.Status, http.StatusText(e.Status))
}

// DetailOf returns the service-supplied detail carried by err, or "".
func DetailOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// IsStatus reports whether err is a service error with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// errorBody is the error convention of the service. FastAPI validation
// failures put an array in "detail"; only a string is used.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// newError builds an *Error from a status code and raw body.
func newError(status int, body []byte) *Error {
	e := &Error{Status: status}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return e
	}
	var detail string
	if err := json.Unmarshal(eb.Detail, &detail); err == nil {
		e.Detail = strings.TrimSpace(detail)
	}
	return e
}

// malformed wraps ErrMalformedResponse with the endpoint and reason.
func malformed(endpoint, reason string) error {
	return fmt.Errorf("%s: %w: %s", endpoint, ErrMalformedResponse, reason)
}
