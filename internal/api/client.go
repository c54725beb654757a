// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/datacopilot-tui/internal/model"
)

// Configuration constants for the research service.
const (
	// DefaultBaseURL is where the service listens in a local install.
	DefaultBaseURL = "http://127.0.0.1:8000"

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	// RequestIDHeader carries the per-call correlation id.
	RequestIDHeader = "X-Request-ID"
)

// Route templates, used for logs and call records.
const (
	routeLogin   = "/login"
	routeSignup  = "/signup"
	routeHistory = "/history/{username}"
	routeChat    = "/chat"
	routeDelete  = "/delete_chat/{chat_id}"
)

// Version is reported in the User-Agent header; set by main at startup.
var Version = "dev"

// sharedTransport pools connections across clients.
var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        20,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
}

// Client talks to the research service. It is safe for concurrent use once
// configured; the With* methods are meant for construction time only.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	recorder   Recorder
}

// NewClient creates a client for the service at baseURL. No client-side
// timeout is applied; the service's own timeout policy governs unless
// WithTimeout is used.
func NewClient(baseURL string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Transport: sharedTransport},
		logger:     zap.NewNop(),
	}
}

// WithTimeout sets a per-request timeout. Zero disables it.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithHTTPClient replaces the underlying HTTP client (tests use this).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithLogger sets the logger used for request/response logging.
func (c *Client) WithLogger(logger *zap.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithRecorder sets a recorder that receives one record per call.
func (c *Client) WithRecorder(r Recorder) *Client {
	c.recorder = r
	return c
}

// BaseURL returns the service base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// ENDPOINTS
// =============================================================================

// Login checks credentials. Only the status matters.
func (c *Client) Login(ctx context.Context, creds Credentials) error {
	_, err := c.do(ctx, http.MethodPost, routeLogin, "/login", creds)
	return err
}

// Signup registers a new account. Only the status matters.
func (c *Client) Signup(ctx context.Context, creds Credentials) error {
	_, err := c.do(ctx, http.MethodPost, routeSignup, "/signup", creds)
	return err
}

// History returns every stored exchange for username.
func (c *Client) History(ctx context.Context, username string) ([]model.HistoryEntry, error) {
	body, err := c.do(ctx, http.MethodGet, routeHistory, "/history/"+url.PathEscape(username), nil)
	if err != nil {
		return nil, err
	}

	var wire []historyEntryWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, malformed("history", "body is not an array of entries")
	}

	entries := make([]model.HistoryEntry, 0, len(wire))
	for i, w := range wire {
		if isNullOrAbsent(w.ID) {
			return nil, malformed("history", fmt.Sprintf("entry %d has no id", i))
		}
		var id model.ChatID
		if err := json.Unmarshal(w.ID, &id); err != nil {
			return nil, malformed("history", fmt.Sprintf("entry %d: %v", i, err))
		}
		entries = append(entries, model.HistoryEntry{
			ID:       id,
			Title:    derefOrEmpty(w.Title),
			Question: derefOrEmpty(w.Question),
			Answer:   derefOrEmpty(w.Answer),
		})
	}
	return entries, nil
}

// Chat sends one message and returns the answer and the thread id.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	body, err := c.do(ctx, http.MethodPost, routeChat, "/chat", req)
	if err != nil {
		return nil, err
	}

	var wire chatResponseWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, malformed("chat", "body is not an object")
	}
	if wire.Response == nil {
		return nil, malformed("chat", "missing response")
	}
	if isNullOrAbsent(wire.ChatID) {
		return nil, malformed("chat", "missing chat_id")
	}
	var id model.ChatID
	if err := json.Unmarshal(wire.ChatID, &id); err != nil {
		return nil, malformed("chat", err.Error())
	}

	return &ChatResponse{Response: *wire.Response, ChatID: id}, nil
}

// DeleteChat removes a stored exchange. Only the status matters.
func (c *Client) DeleteChat(ctx context.Context, id model.ChatID) error {
	_, err := c.do(ctx, http.MethodDelete, routeDelete, "/delete_chat/"+url.PathEscape(id.String()), nil)
	return err
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do performs one request and returns the body of a 2xx response.
// Non-2xx answers become *Error.
func (c *Client) do(ctx context.Context, method, route, path string, payload any) ([]byte, error) {
	requestID := uuid.NewString()
	start := time.Now()
	status := 0

	body, err := func() ([]byte, error) {
		var reader io.Reader
		if payload != nil {
			data, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal request: %w", err)
			}
			reader = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "datacopilot/"+Version)
		req.Header.Set(RequestIDHeader, requestID)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		c.logger.Debug("API request",
			zap.String("method", method),
			zap.String("route", route),
			zap.String("request_id", requestID))

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()
		status = resp.StatusCode

		data, err := readResponse(resp)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, newError(resp.StatusCode, data)
		}
		return data, nil
	}()

	duration := time.Since(start)
	c.logResponse(method, route, requestID, status, duration, err)
	c.record(CallRecord{
		RequestID: requestID,
		Method:    method,
		Route:     route,
		Status:    status,
		Duration:  duration,
		Err:       errString(err),
		At:        start,
	})

	return body, err
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("%w: exceeded %d bytes", ErrResponseTooLarge, MaxResponseSize)
	}
	return body, nil
}

// logResponse logs the outcome without bodies; bodies may contain passwords.
func (c *Client) logResponse(method, route, requestID string, status int, d time.Duration, err error) {
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("route", route),
		zap.Int("status", status),
		zap.Duration("duration", d),
		zap.String("request_id", requestID),
	}
	if err != nil {
		c.logger.Info("API call failed", append(fields, zap.Error(err))...)
		return
	}
	c.logger.Debug("API response", fields...)
}

func (c *Client) record(rec CallRecord) {
	if c.recorder == nil {
		return
	}
	c.recorder.Record(rec)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
