// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jeranaias/datacopilot-tui/internal/api"
	"github.com/jeranaias/datacopilot-tui/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// FAKES
// =============================================================================

// fakeBackend records calls and answers from configurable functions.
type fakeBackend struct {
	mu sync.Mutex

	loginCreds   []api.Credentials
	signupCreds  []api.Credentials
	historyUsers []string
	chatReqs     []api.ChatRequest
	deleted      []model.ChatID

	loginErr   error
	signupErr  error
	history    []model.HistoryEntry
	historyErr error
	chatFn     func(req api.ChatRequest) (*api.ChatResponse, error)
	deleteErr  error
}

func (f *fakeBackend) Login(_ context.Context, creds api.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCreds = append(f.loginCreds, creds)
	return f.loginErr
}

func (f *fakeBackend) Signup(_ context.Context, creds api.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signupCreds = append(f.signupCreds, creds)
	return f.signupErr
}

func (f *fakeBackend) History(_ context.Context, username string) ([]model.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyUsers = append(f.historyUsers, username)
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	out := make([]model.HistoryEntry, len(f.history))
	copy(out, f.history)
	return out, nil
}

func (f *fakeBackend) Chat(_ context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
	f.mu.Lock()
	f.chatReqs = append(f.chatReqs, req)
	fn := f.chatFn
	f.mu.Unlock()
	if fn == nil {
		return &api.ChatResponse{Response: "answer to " + req.Message, ChatID: model.NewChatID("c1")}, nil
	}
	return fn(req)
}

func (f *fakeBackend) DeleteChat(_ context.Context, id model.ChatID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func (f *fakeBackend) historyCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.historyUsers)
}

func (f *fakeBackend) chatCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.chatReqs)
}

func (f *fakeBackend) setHistory(entries []model.HistoryEntry, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = entries
	f.historyErr = err
}

// alertLog collects alerts.
type alertLog struct {
	mu     sync.Mutex
	alerts []Alert
}

func (a *alertLog) Notify(alert Alert) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, alert)
}

func (a *alertLog) all() []Alert {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Alert, len(a.alerts))
	copy(out, a.alerts)
	return out
}

// scriptedConfirmer answers with a fixed value and counts prompts.
type scriptedConfirmer struct {
	answer  bool
	prompts atomic.Int32
	last    atomic.Value
}

func (s *scriptedConfirmer) Confirm(_ context.Context, prompt string) bool {
	s.prompts.Add(1)
	s.last.Store(prompt)
	return s.answer
}

type fixture struct {
	ctl       *Controller
	backend   *fakeBackend
	alerts    *alertLog
	confirmer *scriptedConfirmer
	changes   *atomic.Int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		backend:   &fakeBackend{},
		alerts:    &alertLog{},
		confirmer: &scriptedConfirmer{answer: true},
		changes:   &atomic.Int32{},
	}
	f.ctl = New(f.backend).
		WithNotifier(f.alerts).
		WithConfirmer(f.confirmer).
		WithListener(ListenerFunc(func() { f.changes.Add(1) })).
		WithSplashDuration(0)
	f.ctl.Start()
	t.Cleanup(f.ctl.Close)
	return f
}

// signedIn returns a fixture already logged in as alice, with call records reset.
func signedIn(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	require.NoError(t, f.ctl.Authenticate(context.Background(), ModeLogin, "alice", "pw1"))
	f.backend.mu.Lock()
	f.backend.historyUsers = nil
	f.backend.loginCreds = nil
	f.backend.mu.Unlock()
	return f
}

// =============================================================================
// BOOT / PHASE TESTS
// =============================================================================

func TestPhase_SplashThenUnauthenticated(t *testing.T) {
	const splash = 200 * time.Millisecond
	ctl := New(&fakeBackend{}).WithSplashDuration(splash)
	defer ctl.Close()

	assert.Equal(t, PhaseSplash, ctl.Phase(), "before Start")
	start := time.Now()
	ctl.Start()
	assert.Equal(t, PhaseSplash, ctl.Phase(), "right after Start")

	time.Sleep(splash * 8 / 10)
	assert.Equal(t, PhaseSplash, ctl.Phase(), "before the splash duration elapsed")

	var ended time.Duration
	require.Eventually(t, func() bool {
		if ctl.Phase() != PhaseUnauthenticated {
			return false
		}
		ended = time.Since(start)
		return true
	}, 2*time.Second, 2*time.Millisecond)

	assert.GreaterOrEqual(t, ended, splash, "splash ended early")
	assert.Less(t, ended, splash+150*time.Millisecond, "splash ended late")
}

func TestPhase_SplashNeverReturns(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, PhaseUnauthenticated, f.ctl.Phase())

	require.NoError(t, f.ctl.Authenticate(context.Background(), ModeLogin, "alice", "pw1"))
	assert.Equal(t, PhaseWorkspace, f.ctl.Phase())

	f.ctl.SignOut()
	assert.Equal(t, PhaseUnauthenticated, f.ctl.Phase())

	// A second Start must not re-arm the splash.
	f.ctl.Start()
	assert.Equal(t, PhaseUnauthenticated, f.ctl.Phase())
}

func TestPhase_LoginDuringSplashStaysOnSplash(t *testing.T) {
	ctl := New(&fakeBackend{}).WithSplashDuration(time.Hour)
	ctl.Start()
	defer ctl.Close()

	require.NoError(t, ctl.Authenticate(context.Background(), ModeLogin, "alice", "pw"))
	assert.Equal(t, PhaseSplash, ctl.Phase())
	assert.True(t, ctl.Snapshot().Session.Authenticated)
}

func TestClose_StopsPendingSplash(t *testing.T) {
	defer goleak.VerifyNone(t)

	var changes atomic.Int32
	ctl := New(&fakeBackend{}).
		WithSplashDuration(40 * time.Millisecond).
		WithListener(ListenerFunc(func() { changes.Add(1) }))
	ctl.Start()
	ctl.Close()
	ctl.Close()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, PhaseSplash, ctl.Phase())
	assert.Equal(t, int32(0), changes.Load())
}

func TestStart_AfterCloseIsNoop(t *testing.T) {
	ctl := New(&fakeBackend{}).WithSplashDuration(0)
	ctl.Close()
	ctl.Start()
	assert.Equal(t, PhaseSplash, ctl.Phase())
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "splash", PhaseSplash.String())
	assert.Equal(t, "unauthenticated", PhaseUnauthenticated.String())
	assert.Equal(t, "workspace", PhaseWorkspace.String())
	assert.Equal(t, "unknown", Phase(42).String())
}

// =============================================================================
// AUTHENTICATION TESTS
// =============================================================================

func TestAuthenticate_LoginSuccess(t *testing.T) {
	f := newFixture(t)
	f.backend.setHistory([]model.HistoryEntry{{ID: model.NewChatID("1"), Title: "Q1 revenue"}}, nil)

	err := f.ctl.Authenticate(context.Background(), ModeLogin, "alice", "pw1")
	require.NoError(t, err)

	snap := f.ctl.Snapshot()
	assert.Equal(t, model.Session{Authenticated: true, Username: "alice"}, snap.Session)
	assert.Equal(t, []string{"alice"}, f.backend.historyUsers, "exactly one history call for alice")
	assert.Len(t, snap.History, 1)
	assert.Empty(t, f.alerts.all())
}

func TestAuthenticate_TrimsCredentials(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctl.Authenticate(context.Background(), ModeLogin, "  alice \t", " pw1 "))
	assert.Equal(t, []api.Credentials{{Username: "alice", Password: "pw1"}}, f.backend.loginCreds)
	assert.Equal(t, "alice", f.ctl.Snapshot().Session.Username)
}

func TestAuthenticate_EmptyCredentialsAreSent(t *testing.T) {
	f := newFixture(t)
	f.backend.loginErr = &api.Error{Status: http.StatusUnauthorized}

	err := f.ctl.Authenticate(context.Background(), ModeLogin, "   ", "")
	require.Error(t, err)
	assert.Equal(t, []api.Credentials{{}}, f.backend.loginCreds)
}

func TestAuthenticate_Failure(t *testing.T) {
	tests := []struct {
		name    string
		mode    AuthMode
		err     error
		wantMsg string
	}{
		{"login with detail", ModeLogin, &api.Error{Status: 401, Detail: "Invalid credentials"}, "Invalid credentials"},
		{"login without detail", ModeLogin, &api.Error{Status: 500}, MsgAuthFailed},
		{"login network error", ModeLogin, errors.New("connection refused"), MsgAuthFailed},
		{"signup with detail", ModeSignup, &api.Error{Status: 400, Detail: "Username already exists"}, "Username already exists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.backend.loginErr = tt.err
			f.backend.signupErr = tt.err

			err := f.ctl.Authenticate(context.Background(), tt.mode, "alice", "pw1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)

			snap := f.ctl.Snapshot()
			assert.False(t, snap.Session.Authenticated)
			assert.Equal(t, PhaseUnauthenticated, snap.Phase)
			assert.Equal(t, 0, f.backend.historyCalls())
			assert.Equal(t, []Alert{{Level: AlertError, Message: tt.wantMsg}}, f.alerts.all())
		})
	}
}

func TestAuthenticate_SignupNeverAuthenticates(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctl.Authenticate(context.Background(), ModeSignup, "bob", "secret"))

	snap := f.ctl.Snapshot()
	assert.False(t, snap.Session.Authenticated)
	assert.Equal(t, PhaseUnauthenticated, snap.Phase)
	assert.Equal(t, 0, f.backend.historyCalls())
	assert.Len(t, f.backend.signupCreds, 1)
	assert.Empty(t, f.backend.loginCreds)
	assert.Equal(t, []Alert{{Level: AlertInfo, Message: MsgAccountCreated}}, f.alerts.all())
}

func TestAuthenticate_LoginSucceedsEvenIfHistoryFails(t *testing.T) {
	f := newFixture(t)
	f.backend.setHistory(nil, errors.New("history down"))

	require.NoError(t, f.ctl.Authenticate(context.Background(), ModeLogin, "alice", "pw1"))
	snap := f.ctl.Snapshot()
	assert.Equal(t, PhaseWorkspace, snap.Phase)
	assert.Nil(t, snap.History)
	assert.Empty(t, f.alerts.all())
}

func TestSignOut_ClearsEverything(t *testing.T) {
	f := signedIn(t)
	f.backend.setHistory([]model.HistoryEntry{{ID: model.NewChatID("1")}}, nil)
	require.NoError(t, f.ctl.SendMessage(context.Background(), "hello"))
	f.ctl.SetDraft("half typed")

	f.ctl.SignOut()

	snap := f.ctl.Snapshot()
	want := Snapshot{
		Phase: PhaseUnauthenticated,
		Turns: []model.Turn{},
		Model: api.DefaultModel,
	}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Errorf("snapshot after sign out (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, f.backend.chatCalls(), "sign out makes no remote call")
}

// =============================================================================
// HISTORY TESTS
// =============================================================================

func TestFetchHistory_NoopWhenSignedOut(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.FetchHistory(context.Background()))
	assert.Equal(t, 0, f.backend.historyCalls())
}

func TestFetchHistory_ReplacesList(t *testing.T) {
	f := signedIn(t)
	f.backend.setHistory([]model.HistoryEntry{{ID: model.NewChatID("1")}, {ID: model.NewChatID("2")}}, nil)
	require.NoError(t, f.ctl.FetchHistory(context.Background()))
	assert.Len(t, f.ctl.Snapshot().History, 2)

	f.backend.setHistory([]model.HistoryEntry{{ID: model.NewChatID("3")}}, nil)
	require.NoError(t, f.ctl.FetchHistory(context.Background()))
	assert.Equal(t, []model.HistoryEntry{{ID: model.NewChatID("3")}}, f.ctl.Snapshot().History)
}

func TestFetchHistory_FailureKeepsListSilently(t *testing.T) {
	f := signedIn(t)
	f.backend.setHistory([]model.HistoryEntry{{ID: model.NewChatID("1")}}, nil)
	require.NoError(t, f.ctl.FetchHistory(context.Background()))

	f.backend.setHistory(nil, &api.Error{Status: 503})
	err := f.ctl.FetchHistory(context.Background())
	require.Error(t, err)

	assert.Equal(t, []model.HistoryEntry{{ID: model.NewChatID("1")}}, f.ctl.Snapshot().History)
	assert.Empty(t, f.alerts.all())
}

func TestLoadConversation(t *testing.T) {
	f := signedIn(t)
	require.NoError(t, f.ctl.SendMessage(context.Background(), "old question"))

	f.ctl.LoadConversation(model.HistoryEntry{ID: model.NewChatID("c1"), Question: "Q", Answer: "A"})

	snap := f.ctl.Snapshot()
	want := []model.Turn{
		{Role: model.RoleUser, Text: "Q"},
		{Role: model.RoleAssistant, Text: "A"},
	}
	if diff := cmp.Diff(want, snap.Turns); diff != "" {
		t.Errorf("turns (-want +got):\n%s", diff)
	}
	assert.Equal(t, model.NewChatID("c1"), snap.ActiveChatID)
}

func TestLoadConversation_MissingFields(t *testing.T) {
	f := signedIn(t)
	f.ctl.LoadConversation(model.HistoryEntry{ID: model.NewChatID("9")})

	want := []model.Turn{model.UserTurn(""), model.AssistantTurn("")}
	assert.Equal(t, want, f.ctl.Snapshot().Turns)
}

// =============================================================================
// SEND TESTS
// =============================================================================

func TestSendMessage_Success(t *testing.T) {
	f := signedIn(t)
	f.ctl.SetDraft("What drove Q3 churn?")
	f.ctl.SetModel("mixtral-8x7b")

	require.NoError(t, f.ctl.SendMessage(context.Background(), "What drove Q3 churn?"))

	snap := f.ctl.Snapshot()
	want := []model.Turn{
		model.UserTurn("What drove Q3 churn?"),
		model.AssistantTurn("answer to What drove Q3 churn?"),
	}
	assert.Equal(t, want, snap.Turns)
	assert.Equal(t, model.NewChatID("c1"), snap.ActiveChatID)
	assert.False(t, snap.Loading)
	assert.Equal(t, "", snap.Draft)
	assert.Equal(t, 1, f.backend.historyCalls(), "history refreshed after the answer")

	require.Len(t, f.backend.chatReqs, 1)
	assert.Equal(t, api.ChatRequest{
		Username: "alice",
		Message:  "What drove Q3 churn?",
		ChatID:   model.ChatID{},
		Model:    "mixtral-8x7b",
	}, f.backend.chatReqs[0])
}

func TestSendMessage_ContinuesActiveConversation(t *testing.T) {
	f := signedIn(t)
	f.ctl.LoadConversation(model.HistoryEntry{ID: model.NewChatID("77"), Question: "Q", Answer: "A"})
	f.backend.chatFn = func(req api.ChatRequest) (*api.ChatResponse, error) {
		return &api.ChatResponse{Response: "follow-up", ChatID: req.ChatID}, nil
	}

	require.NoError(t, f.ctl.SendMessage(context.Background(), "and by region?"))

	assert.Equal(t, model.NewChatID("77"), f.backend.chatReqs[0].ChatID)
	snap := f.ctl.Snapshot()
	assert.Len(t, snap.Turns, 4)
	assert.Equal(t, model.NewChatID("77"), snap.ActiveChatID)
}

func TestSendMessage_EmptyIsRejected(t *testing.T) {
	f := signedIn(t)
	before := f.changes.Load()

	err := f.ctl.SendMessage(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, 0, f.backend.chatCalls())
	assert.Empty(t, f.ctl.Snapshot().Turns)
	assert.Equal(t, before, f.changes.Load())
}

func TestSendMessage_UserTurnShownBeforeAnswerAndSingleFlight(t *testing.T) {
	f := signedIn(t)
	f.ctl.SetDraft("first")

	release := make(chan struct{})
	entered := make(chan struct{})
	f.backend.chatFn = func(req api.ChatRequest) (*api.ChatResponse, error) {
		close(entered)
		<-release
		return &api.ChatResponse{Response: "done", ChatID: model.NewChatID("5")}, nil
	}

	done := make(chan error, 1)
	go func() { done <- f.ctl.SendMessage(context.Background(), "first") }()
	<-entered

	snap := f.ctl.Snapshot()
	assert.Equal(t, []model.Turn{model.UserTurn("first")}, snap.Turns)
	assert.True(t, snap.Loading)
	assert.Equal(t, "", snap.Draft)

	err := f.ctl.SendMessage(context.Background(), "second")
	assert.ErrorIs(t, err, ErrSendInFlight)
	assert.Len(t, f.ctl.Snapshot().Turns, 1, "rejected send leaves turns unchanged")
	assert.Equal(t, 1, f.backend.chatCalls())

	close(release)
	require.NoError(t, <-done)

	snap = f.ctl.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, []model.Turn{model.UserTurn("first"), model.AssistantTurn("done")}, snap.Turns)

	// The guard is released once the first send settles.
	f.backend.chatFn = nil
	require.NoError(t, f.ctl.SendMessage(context.Background(), "third"))
	assert.Equal(t, 2, f.backend.chatCalls())
}

func TestSendMessage_Failure(t *testing.T) {
	f := signedIn(t)
	f.ctl.LoadConversation(model.HistoryEntry{ID: model.NewChatID("3"), Question: "Q", Answer: "A"})
	f.backend.chatFn = func(api.ChatRequest) (*api.ChatResponse, error) {
		return nil, &api.Error{Status: 500, Detail: "model overloaded"}
	}

	err := f.ctl.SendMessage(context.Background(), "again?")
	require.Error(t, err)

	snap := f.ctl.Snapshot()
	assert.Equal(t, []model.Turn{
		model.UserTurn("Q"),
		model.AssistantTurn("A"),
		model.UserTurn("again?"),
	}, snap.Turns)
	assert.False(t, snap.Loading)
	assert.Equal(t, model.NewChatID("3"), snap.ActiveChatID)
	assert.Equal(t, []Alert{{Level: AlertError, Message: MsgGenerateFailed}}, f.alerts.all())
	assert.Equal(t, 0, f.backend.historyCalls())
}

func TestSendMessage_WhitespaceIsSent(t *testing.T) {
	f := signedIn(t)
	require.NoError(t, f.ctl.SendMessage(context.Background(), "  "))
	assert.Equal(t, 1, f.backend.chatCalls())
}

// =============================================================================
// DELETE / NEW TESTS
// =============================================================================

func TestDeleteConversation_UnsavedClearsLocally(t *testing.T) {
	f := signedIn(t)
	f.backend.chatFn = func(api.ChatRequest) (*api.ChatResponse, error) {
		return nil, errors.New("offline")
	}
	_ = f.ctl.SendMessage(context.Background(), "draft question")
	require.Len(t, f.ctl.Snapshot().Turns, 1)

	require.NoError(t, f.ctl.DeleteConversation(context.Background()))

	assert.Empty(t, f.ctl.Snapshot().Turns)
	assert.Equal(t, int32(0), f.confirmer.prompts.Load(), "no prompt for unsaved conversations")
	assert.Empty(t, f.backend.deleted)
}

func TestDeleteConversation_Saved(t *testing.T) {
	tests := []struct {
		name       string
		deleteErr  error
		wantAlerts []Alert
	}{
		{"success", nil, nil},
		{"service failure is masked", &api.Error{Status: 404, Detail: "Chat not found"},
			[]Alert{{Level: AlertInfo, Message: MsgDeletedFromView}}},
		{"network failure is masked", errors.New("connection reset"),
			[]Alert{{Level: AlertInfo, Message: MsgDeletedFromView}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := signedIn(t)
			f.backend.deleteErr = tt.deleteErr
			f.ctl.LoadConversation(model.HistoryEntry{ID: model.NewChatID("c2"), Question: "Q", Answer: "A"})

			require.NoError(t, f.ctl.DeleteConversation(context.Background()))

			snap := f.ctl.Snapshot()
			assert.Empty(t, snap.Turns)
			assert.True(t, snap.ActiveChatID.IsZero())
			assert.Equal(t, []model.ChatID{model.NewChatID("c2")}, f.backend.deleted)
			assert.Equal(t, DeletePrompt, f.confirmer.last.Load())
			assert.Equal(t, 1, f.backend.historyCalls())
			assert.Equal(t, tt.wantAlerts, nilIfEmpty(f.alerts.all()))
		})
	}
}

func TestDeleteConversation_Declined(t *testing.T) {
	f := signedIn(t)
	f.confirmer.answer = false
	f.ctl.LoadConversation(model.HistoryEntry{ID: model.NewChatID("c2"), Question: "Q", Answer: "A"})
	before := f.ctl.Snapshot()

	err := f.ctl.DeleteConversation(context.Background())
	assert.ErrorIs(t, err, ErrDeleteDeclined)

	if diff := cmp.Diff(before, f.ctl.Snapshot()); diff != "" {
		t.Errorf("declined delete changed state (-before +after):\n%s", diff)
	}
	assert.Empty(t, f.backend.deleted)
	assert.Equal(t, 0, f.backend.historyCalls())
}

func TestDeleteConversation_DefaultConfirmerDeclines(t *testing.T) {
	backend := &fakeBackend{}
	ctl := New(backend).WithSplashDuration(0)
	ctl.Start()
	defer ctl.Close()
	ctl.LoadConversation(model.HistoryEntry{ID: model.NewChatID("c9")})

	assert.ErrorIs(t, ctl.DeleteConversation(context.Background()), ErrDeleteDeclined)
	assert.Empty(t, backend.deleted)
}

func TestStartNewConversation_Idempotent(t *testing.T) {
	f := signedIn(t)
	f.ctl.LoadConversation(model.HistoryEntry{ID: model.NewChatID("c1"), Question: "Q", Answer: "A"})

	f.ctl.StartNewConversation()
	once := f.ctl.Snapshot()
	f.ctl.StartNewConversation()
	twice := f.ctl.Snapshot()

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second StartNewConversation changed state:\n%s", diff)
	}
	assert.Empty(t, once.Turns)
	assert.True(t, once.ActiveChatID.IsZero())
	assert.Equal(t, 0, f.backend.chatCalls())
}

// =============================================================================
// MISC TESTS
// =============================================================================

func TestSnapshot_IsDeepCopy(t *testing.T) {
	f := signedIn(t)
	f.backend.setHistory([]model.HistoryEntry{{ID: model.NewChatID("1"), Title: "t"}}, nil)
	require.NoError(t, f.ctl.SendMessage(context.Background(), "hi"))

	snap := f.ctl.Snapshot()
	snap.Turns[0].Text = "mutated"
	snap.History[0].Title = "mutated"

	again := f.ctl.Snapshot()
	assert.Equal(t, "hi", again.Turns[0].Text)
	assert.Equal(t, "t", again.History[0].Title)
}

func TestSetModel(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, api.DefaultModel, f.ctl.Model())

	before := f.changes.Load()
	f.ctl.SetModel("  gemma2-9b-it ")
	assert.Equal(t, "gemma2-9b-it", f.ctl.Model())
	assert.Equal(t, before+1, f.changes.Load())

	f.ctl.SetModel("gemma2-9b-it")
	assert.Equal(t, before+1, f.changes.Load(), "same model does not notify")

	f.ctl.SetModel("")
	assert.Equal(t, api.DefaultModel, f.ctl.Model())
}

func TestAttachFile_IsNoop(t *testing.T) {
	f := signedIn(t)
	before := f.ctl.Snapshot()
	changes := f.changes.Load()

	f.ctl.AttachFile("/tmp/report.pdf")

	assert.Equal(t, before, f.ctl.Snapshot())
	assert.Equal(t, changes, f.changes.Load())
	assert.Equal(t, 0, f.backend.chatCalls())
}

func TestListener_NotifiedOnChanges(t *testing.T) {
	f := newFixture(t)
	start := f.changes.Load()

	require.NoError(t, f.ctl.Authenticate(context.Background(), ModeLogin, "alice", "pw1"))
	afterLogin := f.changes.Load()
	assert.Greater(t, afterLogin, start)

	f.ctl.StartNewConversation()
	assert.Greater(t, f.changes.Load(), afterLogin)
}

func TestController_ConcurrentUse(t *testing.T) {
	f := signedIn(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(4)
		go func() { defer wg.Done(); _ = f.ctl.SendMessage(ctx, "q") }()
		go func() { defer wg.Done(); _ = f.ctl.FetchHistory(ctx) }()
		go func() { defer wg.Done(); f.ctl.StartNewConversation() }()
		go func() { defer wg.Done(); _ = f.ctl.Snapshot() }()
	}
	wg.Wait()

	assert.False(t, f.ctl.Snapshot().Loading)
}

func TestAlertLevel_String(t *testing.T) {
	assert.Equal(t, "info", AlertInfo.String())
	assert.Equal(t, "error", AlertError.String())
	assert.Equal(t, "signup", ModeSignup.String())
	assert.Equal(t, "login", ModeLogin.String())
}

func nilIfEmpty(alerts []Alert) []Alert {
	if len(alerts) == 0 {
		return nil
	}
	return alerts
}
