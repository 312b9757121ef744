package application_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ericfisherdev/vaultpanel/internal/application"
	"github.com/ericfisherdev/vaultpanel/internal/domain/model"
)

// --- Mock implementations ---

type mockAuthBackend struct {
	mu sync.Mutex

	session    *model.Session
	getErr     error
	signInErr  error
	signUpErr  error
	signOutErr error

	// signInSession is emitted with SIGNED_IN after a successful sign in.
	signInSession *model.Session

	signInCalls  int
	signUpCalls  int
	signOutCalls int
	getCalls     int

	// lastPassword is the password most recently sent to sign in or sign up.
	lastPassword string

	events chan model.AuthEvent
	closed bool
}

func (m *mockAuthBackend) sentPassword() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPassword
}

func newMockAuthBackend() *mockAuthBackend {
	return &mockAuthBackend{events: make(chan model.AuthEvent, 16)}
}

func (m *mockAuthBackend) GetSession(_ context.Context) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.session == nil {
		return nil, nil
	}
	s := *m.session
	return &s, nil
}

func (m *mockAuthBackend) Subscribe() (<-chan model.AuthEvent, func()) {
	return m.events, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if !m.closed {
			m.closed = true
			close(m.events)
		}
	}
}

func (m *mockAuthBackend) SignInWithPassword(_ context.Context, _, password string) error {
	m.mu.Lock()
	m.signInCalls++
	m.lastPassword = password
	err := m.signInErr
	sess := m.signInSession
	if err == nil && sess != nil {
		s := *sess
		m.session = &s
	}
	m.mu.Unlock()

	if err == nil && sess != nil {
		m.emit(model.AuthEvent{Type: model.AuthEventSignedIn, Session: sess})
	}
	return err
}

func (m *mockAuthBackend) SignUp(_ context.Context, _, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signUpCalls++
	m.lastPassword = password
	return m.signUpErr
}

func (m *mockAuthBackend) SignOut(_ context.Context) error {
	m.mu.Lock()
	m.signOutCalls++
	err := m.signOutErr
	if err == nil {
		m.session = nil
	}
	m.mu.Unlock()

	if err == nil {
		m.emit(model.AuthEvent{Type: model.AuthEventSignedOut})
	}
	return err
}

func (m *mockAuthBackend) emit(ev model.AuthEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.events <- ev
	}
}

func (m *mockAuthBackend) setSession(s *model.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s
}

func (m *mockAuthBackend) calls() (signIn, signUp, signOut int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signInCalls, m.signUpCalls, m.signOutCalls
}

type mockEntryStore struct {
	mu sync.Mutex

	entries []model.Entry
	nextID  int
	clock   time.Time

	listErr      error
	insertErr    error
	deleteErr    error
	deleteAllErr error

	// beforeReturn runs before a mutating call returns, to simulate events
	// arriving while the request is in flight.
	beforeReturn func()

	// beforeListReturn runs after ListByOwner has read the rows, with the
	// 1-based call number, so a test can hold an old result back.
	beforeListReturn func(call int)

	// ignoreOwner makes ListByOwner return every row, like a backend
	// without row-level security.
	ignoreOwner bool

	listCalls      int
	insertCalls    int
	deleteCalls    int
	deleteAllCalls int
}

func newMockEntryStore() *mockEntryStore {
	return &mockEntryStore{clock: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (m *mockEntryStore) seed(owner, serviceName, secret string) model.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addLocked(owner, serviceName, secret)
}

func (m *mockEntryStore) addLocked(owner, serviceName, secret string) model.Entry {
	m.nextID++
	m.clock = m.clock.Add(time.Minute)
	e := model.Entry{
		ID:          fmt.Sprintf("%d", m.nextID),
		OwnerUserID: owner,
		ServiceName: serviceName,
		Secret:      secret,
		CreatedAt:   m.clock,
	}
	m.entries = append(m.entries, e)
	return e
}

func (m *mockEntryStore) Insert(_ context.Context, session model.Session, entry model.NewEntry) error {
	m.mu.Lock()
	m.insertCalls++
	err := m.insertErr
	if err == nil {
		m.addLocked(session.UserID, entry.ServiceName, entry.Secret)
	}
	hook := m.beforeReturn
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	return err
}

func (m *mockEntryStore) ListByOwner(_ context.Context, session model.Session) ([]model.Entry, error) {
	m.mu.Lock()
	m.listCalls++
	call, hook := m.listCalls, m.beforeListReturn
	var (
		out []model.Entry
		err = m.listErr
	)
	if err == nil {
		for _, e := range m.entries {
			if m.ignoreOwner || e.OwnerUserID == session.UserID {
				out = append(out, e)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	m.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (m *mockEntryStore) DeleteByID(_ context.Context, _ model.Session, id string) error {
	m.mu.Lock()
	m.deleteCalls++
	err := m.deleteErr
	if err == nil {
		kept := m.entries[:0]
		for _, e := range m.entries {
			if e.ID != id {
				kept = append(kept, e)
			}
		}
		m.entries = kept
	}
	hook := m.beforeReturn
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	return err
}

func (m *mockEntryStore) DeleteByOwner(_ context.Context, session model.Session) error {
	m.mu.Lock()
	m.deleteAllCalls++
	err := m.deleteAllErr
	if err == nil {
		kept := m.entries[:0]
		for _, e := range m.entries {
			if e.OwnerUserID != session.UserID {
				kept = append(kept, e)
			}
		}
		m.entries = kept
	}
	hook := m.beforeReturn
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	return err
}

func (m *mockEntryStore) counts() (list, insert, del, delAll int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls, m.insertCalls, m.deleteCalls, m.deleteAllCalls
}

type mockAccountDeleter struct {
	mu     sync.Mutex
	err    error
	tokens []string
}

func (m *mockAccountDeleter) DeleteAccount(_ context.Context, accessToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = append(m.tokens, accessToken)
	return m.err
}

func (m *mockAccountDeleter) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

type mockClipboard struct {
	mu   sync.Mutex
	text string
	err  error
}

func (m *mockClipboard) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.text = text
	return nil
}

var errBackendDown = errors.New("connection refused")

// --- Harness ---

type harness struct {
	ctx       context.Context
	auth      *mockAuthBackend
	store     *mockEntryStore
	deleter   *mockAccountDeleter
	clipboard *mockClipboard

	sessions *application.SessionController
	authSvc  *application.AuthService
	vault    *application.VaultService
	panel    *application.Panel
}

var alice = model.Session{
	UserID:      "user-alice",
	Email:       "alice@example.com",
	AccessToken: "token-alice",
}

var bob = model.Session{
	UserID:      "user-bob",
	Email:       "bob@example.com",
	AccessToken: "token-bob",
}

// newHarness wires every view against mocks and starts the dispatch loop.
// Initialize is left to the test.
func newHarness(t *testing.T) *harness {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dispatch := application.NewDispatcher()
	go dispatch.Run(ctx)

	h := &harness{
		ctx:       ctx,
		auth:      newMockAuthBackend(),
		store:     newMockEntryStore(),
		deleter:   &mockAccountDeleter{},
		clipboard: &mockClipboard{},
	}

	notifier := application.NewNotifier(application.DefaultToastDuration)
	h.sessions = application.NewSessionController(h.auth, dispatch, logger)
	h.authSvc = application.NewAuthService(h.auth, dispatch, notifier, logger)
	h.vault = application.NewVaultService(h.sessions, h.store, h.auth, h.deleter, h.clipboard, dispatch, notifier, logger)
	h.panel = application.NewPanel(dispatch, h.sessions, h.authSvc, h.vault, notifier)
	t.Cleanup(h.sessions.Close)

	return h
}

// signedIn initializes the controller with a restored session for s and
// waits for the initial entry load to land.
func (h *harness) signedIn(t *testing.T, s model.Session) {
	t.Helper()
	h.auth.setSession(&s)
	if err := h.sessions.Initialize(h.ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	h.waitLoaded(t)
}

// signOut reports SIGNED_OUT and waits for the Auth view.
func (h *harness) signOut(t *testing.T) {
	t.Helper()
	h.auth.emit(model.AuthEvent{Type: model.AuthEventSignedOut})
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if h.state(t).View == model.ViewAuth {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("sign out did not reach the Auth view")
}

func (h *harness) state(t *testing.T) application.PageState {
	t.Helper()
	st, err := h.panel.State(h.ctx)
	if err != nil {
		t.Fatalf("panel state: %v", err)
	}
	return st
}

func (h *harness) waitLoaded(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st := h.state(t); st.View == model.ViewApp && st.Vault.Loaded {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("entries were not loaded")
}

func (h *harness) toast(t *testing.T) (string, model.ToastKind) {
	t.Helper()
	st := h.state(t)
	if st.Toast == nil {
		return "", ""
	}
	return st.Toast.Message, st.Toast.Kind
}
