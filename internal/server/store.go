// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

// Password hashing parameters for the in-memory user table.
const (
	PBKDF2Iterations = 100000
	SaltSize         = 16
	KeySize          = 32
)

var (
	// ErrUserExists is returned when signing up an existing username.
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidCredentials is returned for an unknown user or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Thread is one stored research exchange. Follow-up messages are folded
// into Answer.
type Thread struct {
	ID       int64  `json:"id"`
	Username string `json:"-"`
	Title    string `json:"title"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type user struct {
	salt []byte
	hash []byte
}

// Store keeps users and threads in memory.
type Store struct {
	mu         sync.Mutex
	users      map[string]user
	threads    map[int64]*Thread
	nextID     int64
	iterations int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:      make(map[string]user),
		threads:    make(map[int64]*Thread),
		nextID:     1,
		iterations: PBKDF2Iterations,
	}
}

// WithIterations overrides the PBKDF2 iteration count (tests use a low one).
func (s *Store) WithIterations(n int) *Store {
	if n > 0 {
		s.iterations = n
	}
	return s
}

// AddUser registers username with password.
func (s *Store) AddUser(username, password string) error {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	hash := s.hashPassword(password, salt)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return ErrUserExists
	}
	s.users[username] = user{salt: salt, hash: hash}
	return nil
}

// CheckUser verifies a username and password.
func (s *Store) CheckUser(username, password string) error {
	s.mu.Lock()
	u, ok := s.users[username]
	s.mu.Unlock()
	if !ok {
		return ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare(s.hashPassword(password, u.salt), u.hash) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *Store) hashPassword(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, s.iterations, KeySize, sha256.New)
}

// CreateThread stores a new exchange and returns it.
func (s *Store) CreateThread(username, question, answer string) Thread {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &Thread{
		ID:       s.nextID,
		Username: username,
		Title:    TitleFor(question),
		Question: question,
		Answer:   answer,
	}
	s.threads[t.ID] = t
	s.nextID++
	return *t
}

// AppendToThread folds a follow-up exchange into an existing thread.
// It reports whether the thread exists.
func (s *Store) AppendToThread(id int64, question, answer string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[id]
	if !ok {
		return false
	}
	t.Answer += fmt.Sprintf("\n\nQ: %s\nA: %s", question, answer)
	return true
}

// Threads returns the threads of username in creation order.
func (s *Store) Threads(username string) []Thread {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Thread, 0)
	for _, t := range s.threads {
		if t.Username == username {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DeleteThread removes a thread. Deleting an unknown id is not an error.
func (s *Store) DeleteThread(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.threads, id)
}

// TitleFor derives a short title from the first question: its first three
// words without quotes.
func TitleFor(question string) string {
	words := strings.Fields(strings.ReplaceAll(question, `"`, ""))
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.Join(words, " ")
}
