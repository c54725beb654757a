// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/datacopilot-tui/internal/model"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr matches the address the client uses by default.
	DefaultAddr = "127.0.0.1:8000"

	// MaxRequestBodySize is the maximum size for a request body (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// DefaultModel is assumed when a chat request names none.
	DefaultModel = "llama-3.3-70b-versatile"
)

// Responder produces the answer to one message.
type Responder func(ctx context.Context, model, message string) (string, error)

// EchoResponder answers by quoting the question back.
func EchoResponder(_ context.Context, model, message string) (string, error) {
	return fmt.Sprintf("**%s** (dev server) received:\n\n> %s", model, message), nil
}

// ============================================================================
// SERVER
// ============================================================================

// Server is an in-memory implementation of the research service API, for
// running the client without the real backend. There is no inference;
// answers come from the Responder.
type Server struct {
	store     *Store
	respond   Responder
	logger    *zap.Logger
	limiter   *RateLimiter
	router    *http.ServeMux
	startTime time.Time

	mu     sync.Mutex
	server *http.Server
}

// NewServer creates a server over store. A nil store starts empty.
func NewServer(store *Store) *Server {
	if store == nil {
		store = NewStore()
	}
	s := &Server{
		store:     store,
		respond:   EchoResponder,
		logger:    zap.NewNop(),
		limiter:   DefaultRateLimiter(),
		router:    http.NewServeMux(),
		startTime: time.Now(),
	}
	s.setupRoutes()
	return s
}

// WithResponder sets how answers are produced.
func (s *Server) WithResponder(r Responder) *Server {
	if r != nil {
		s.respond = r
	}
	return s
}

// WithLogger sets the request logger.
func (s *Server) WithLogger(logger *zap.Logger) *Server {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithRateLimiter replaces the per-IP rate limiter.
func (s *Server) WithRateLimiter(rl *RateLimiter) *Server {
	if rl != nil {
		s.limiter = rl
	}
	return s
}

// Store returns the backing store.
func (s *Server) Store() *Store {
	return s.store
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /signup", s.handleSignup)
	s.router.HandleFunc("POST /login", s.handleLogin)
	s.router.HandleFunc("POST /chat", s.handleChat)
	s.router.HandleFunc("GET /history/{username}", s.handleHistory)
	s.router.HandleFunc("DELETE /delete_chat/{chat_id}", s.handleDelete)
	s.router.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(s.logger),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(s.logger),
		RateLimitMiddleware(s.limiter),
	)(s.router)
}

// ============================================================================
// REQUEST TYPES
// ============================================================================

type authRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

type chatRequest struct {
	Username *string      `json:"username"`
	Message  *string      `json:"message"`
	Model    string       `json:"model"`
	ChatID   model.ChatID `json:"chat_id"`
}

type chatResponse struct {
	Response string `json:"response"`
	ChatID   int64  `json:"chat_id"`
}

// fieldError mirrors one entry of a FastAPI validation error list.
type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAuth(w, r)
	if !ok {
		return
	}
	if err := s.store.AddUser(*req.Username, *req.Password); err != nil {
		if errors.Is(err, ErrUserExists) {
			writeDetail(w, http.StatusBadRequest, "User already exists")
			return
		}
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Success"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAuth(w, r)
	if !ok {
		return
	}
	if err := s.store.CheckUser(*req.Username, *req.Password); err != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged in"})
}

func (s *Server) decodeAuth(w http.ResponseWriter, r *http.Request) (authRequest, bool) {
	var req authRequest
	if !decodeBody(w, r, &req) {
		return req, false
	}
	var missing []fieldError
	if req.Username == nil {
		missing = append(missing, missingField("username"))
	}
	if req.Password == nil {
		missing = append(missing, missingField("password"))
	}
	if len(missing) > 0 {
		writeValidation(w, missing)
		return req, false
	}
	return req, true
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var missing []fieldError
	if req.Username == nil {
		missing = append(missing, missingField("username"))
	}
	if req.Message == nil {
		missing = append(missing, missingField("message"))
	}
	var threadID int64
	if !req.ChatID.IsZero() {
		id, err := strconv.ParseInt(req.ChatID.String(), 10, 64)
		if err != nil {
			missing = append(missing, fieldError{
				Loc:  []string{"body", "chat_id"},
				Msg:  "value is not a valid integer",
				Type: "type_error.integer",
			})
		}
		threadID = id
	}
	if len(missing) > 0 {
		writeValidation(w, missing)
		return
	}
	if req.Model == "" {
		req.Model = DefaultModel
	}

	answer, err := s.respond(r.Context(), req.Model, *req.Message)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	// A known id continues that thread; the id is echoed back even when
	// nothing matched.
	if threadID != 0 {
		s.store.AppendToThread(threadID, *req.Message, answer)
		writeJSON(w, http.StatusOK, chatResponse{Response: answer, ChatID: threadID})
		return
	}

	t := s.store.CreateThread(*req.Username, *req.Message, answer)
	writeJSON(w, http.StatusOK, chatResponse{Response: answer, ChatID: t.ID})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Threads(r.PathValue("username")))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("chat_id"), 10, 64)
	if err != nil {
		writeValidation(w, []fieldError{{
			Loc:  []string{"path", "chat_id"},
			Msg:  "value is not a valid integer",
			Type: "type_error.integer",
		}})
		return
	}
	s.store.DeleteThread(id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Thread deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// Serve accepts connections on l until Shutdown.
func (s *Server) Serve(l net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	s.logger.Info("Dev server listening", zap.String("addr", l.Addr().String()))
	err := srv.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// ListenAndServe listens on addr (DefaultAddr when empty) and serves.
func (s *Server) ListenAndServe(addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(l)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Info("Dev server shutting down")
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		writeValidation(w, []fieldError{{
			Loc:  []string{"body"},
			Msg:  "invalid JSON body",
			Type: "value_error.jsondecode",
		}})
		return false
	}
	return true
}

func missingField(name string) fieldError {
	return fieldError{Loc: []string{"body", name}, Msg: "field required", Type: "value_error.missing"}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail writes the {"detail": "..."} error convention.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeValidation writes a 422 whose detail is a list, as FastAPI does.
func writeValidation(w http.ResponseWriter, errs []fieldError) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": errs})
}
