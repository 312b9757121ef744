package supabase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ericfisherdev/vaultpanel/internal/domain/model"
	"github.com/ericfisherdev/vaultpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var (
	_ driven.AuthBackend = (*Auth)(nil)
	_ TokenSource        = (*Auth)(nil)
)

const (
	// refreshMargin is how long before expiry an access token is refreshed.
	refreshMargin = 30 * time.Second

	// refreshCheckInterval is how often Start looks at the held session.
	refreshCheckInterval = 10 * time.Second
)

// subscriberBuffer is the channel capacity given to each subscriber.
const subscriberBuffer = 16

// tokenResponse is the GoTrue session payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (t tokenResponse) session(now time.Time) model.Session {
	s := model.Session{
		UserID:       t.User.ID,
		Email:        t.User.Email,
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
	}
	switch {
	case t.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(t.ExpiresAt, 0).UTC()
	case t.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second).UTC()
	}
	return s
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type subscriber struct {
	ch   chan model.AuthEvent
	done chan struct{}
	once sync.Once
}

// Auth implements the AuthBackend port against GoTrue. It holds the current
// session, refreshes it shortly before expiry and, when a SessionStore is
// configured, persists it across restarts.
type Auth struct {
	client       *Client
	store        driven.SessionStore
	logger       *slog.Logger
	nowFunc      func() time.Time
	refreshCheck time.Duration

	mu       sync.Mutex
	session  *model.Session
	restored bool

	// refreshMu allows one refresh at a time. GoTrue rotates refresh tokens,
	// so a second concurrent exchange of the same token would be rejected.
	refreshMu sync.Mutex

	// emitMu serialises event delivery so subscribers observe one order.
	emitMu sync.Mutex
	subsMu sync.Mutex
	subs   map[*subscriber]struct{}
}

// NewAuth creates an Auth backend. store may be nil, in which case the
// session lives in memory only.
func NewAuth(client *Client, store driven.SessionStore, logger *slog.Logger) *Auth {
	return &Auth{
		client:       client,
		store:        store,
		logger:       logger,
		nowFunc:      time.Now,
		refreshCheck: refreshCheckInterval,
		subs:         make(map[*subscriber]struct{}),
	}
}

// Start refreshes the held session shortly before it expires until ctx is
// canceled, so subscribers see TOKEN_REFRESHED even while no request is made.
func (a *Auth) Start(ctx context.Context) {
	ticker := time.NewTicker(a.refreshCheck)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.GetSession(ctx); err != nil {
				a.logger.Warn("background session refresh failed", "error", err)
			}
		}
	}
}

// GetSession returns the current session, restoring a persisted one on first
// use and refreshing it when the access token is about to expire.
func (a *Auth) GetSession(ctx context.Context) (*model.Session, error) {
	a.mu.Lock()
	if !a.restored {
		a.restored = true
		a.restoreLocked(ctx)
	}
	sess := a.session
	a.mu.Unlock()

	if sess == nil {
		return nil, nil
	}
	if a.needsRefresh(*sess) {
		return a.refreshOnce(ctx, *sess)
	}

	out := *sess
	return &out, nil
}

// AccessToken returns a current access token for userID, refreshing the
// session first when it is about to expire. It returns "" when the held
// session belongs to someone else or there is none.
func (a *Auth) AccessToken(ctx context.Context, userID string) (string, error) {
	sess, err := a.GetSession(ctx)
	if err != nil {
		return "", err
	}
	if sess == nil || sess.UserID != userID {
		return "", nil
	}
	return sess.AccessToken, nil
}

func (a *Auth) needsRefresh(sess model.Session) bool {
	return sess.RefreshToken != "" && sess.Expired(a.nowFunc().Add(refreshMargin))
}

// refreshOnce refreshes stale unless another caller already replaced it
// while this one waited for refreshMu.
func (a *Auth) refreshOnce(ctx context.Context, stale model.Session) (*model.Session, error) {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	a.mu.Lock()
	current := a.session
	a.mu.Unlock()

	if current == nil {
		return nil, nil
	}
	if current.RefreshToken != stale.RefreshToken || !a.needsRefresh(*current) {
		out := *current
		return &out, nil
	}
	return a.refresh(ctx, *current)
}

func (a *Auth) restoreLocked(ctx context.Context) {
	if a.store == nil {
		return
	}
	sess, err := a.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, driven.ErrEncryptionKeyNotSet) {
			a.logger.Warn("failed to load persisted session", "error", err)
		}
		return
	}
	if sess != nil {
		a.session = sess
		a.logger.Debug("persisted session loaded", "email", sess.Email)
	}
}

// refresh exchanges the refresh token for a new session. A rejected refresh
// token ends the session.
func (a *Auth) refresh(ctx context.Context, current model.Session) (*model.Session, error) {
	var tr tokenResponse
	err := a.client.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": current.RefreshToken},
	}, &tr)

	var be *driven.BackendError
	if errors.As(err, &be) && be.Status >= 400 && be.Status < 500 {
		a.logger.Info("refresh token rejected, signing out", "status", be.Status)
		a.endSession(ctx)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("refreshing session: %w", err)
	}

	sess := tr.session(a.nowFunc())
	a.setSession(ctx, sess)
	a.emit(model.AuthEvent{Type: model.AuthEventTokenRefreshed, Session: &sess})
	return &sess, nil
}

// Subscribe implements driven.AuthBackend.
func (a *Auth) Subscribe() (<-chan model.AuthEvent, func()) {
	sub := &subscriber{
		ch:   make(chan model.AuthEvent, subscriberBuffer),
		done: make(chan struct{}),
	}

	a.subsMu.Lock()
	a.subs[sub] = struct{}{}
	a.subsMu.Unlock()

	unsubscribe := func() {
		sub.once.Do(func() {
			close(sub.done)
			a.subsMu.Lock()
			delete(a.subs, sub)
			a.subsMu.Unlock()

			// Wait out any in-flight delivery before closing the channel.
			a.emitMu.Lock()
			close(sub.ch)
			a.emitMu.Unlock()
		})
	}
	return sub.ch, unsubscribe
}

func (a *Auth) emit(ev model.AuthEvent) {
	a.emitMu.Lock()
	defer a.emitMu.Unlock()

	a.subsMu.Lock()
	subs := make([]*subscriber, 0, len(a.subs))
	for s := range a.subs {
		subs = append(subs, s)
	}
	a.subsMu.Unlock()

	for _, s := range subs {
		select {
		case s.ch <- ev:
		case <-s.done:
		}
	}
}

// SignInWithPassword implements driven.AuthBackend.
func (a *Auth) SignInWithPassword(ctx context.Context, email, password string) error {
	var tr tokenResponse
	err := a.client.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   credentials{Email: email, Password: password},
	}, &tr)
	if err != nil {
		return fmt.Errorf("signing in: %w", err)
	}
	if tr.AccessToken == "" || tr.User.ID == "" {
		return fmt.Errorf("signing in: response carried no session")
	}

	// Held so an in-flight refresh of the previous session cannot land after
	// the new one or emit TOKEN_REFRESHED ahead of SIGNED_IN.
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	sess := tr.session(a.nowFunc())
	a.setSession(ctx, sess)
	a.emit(model.AuthEvent{Type: model.AuthEventSignedIn, Session: &sess})
	return nil
}

// SignUp implements driven.AuthBackend. A session returned by a project
// without email confirmation is discarded; the user signs in explicitly.
func (a *Auth) SignUp(ctx context.Context, email, password string) error {
	err := a.client.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body:   credentials{Email: email, Password: password},
	}, nil)
	if err != nil {
		return fmt.Errorf("signing up: %w", err)
	}
	return nil
}

// SignOut implements driven.AuthBackend. The local session is always ended;
// an expired or unknown token on the backend is not an error.
func (a *Auth) SignOut(ctx context.Context) error {
	a.mu.Lock()
	sess := a.session
	a.mu.Unlock()

	if sess != nil && sess.HasToken() {
		err := a.client.do(ctx, request{
			method: http.MethodPost,
			path:   "/auth/v1/logout",
			bearer: sess.AccessToken,
		}, nil)
		var be *driven.BackendError
		if err != nil && !(errors.As(err, &be) && isSessionGone(be.Status)) {
			return fmt.Errorf("signing out: %w", err)
		}
	}

	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()
	a.endSession(ctx)
	return nil
}

func isSessionGone(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusNotFound
}

func (a *Auth) setSession(ctx context.Context, sess model.Session) {
	a.mu.Lock()
	a.session = &sess
	a.restored = true
	a.mu.Unlock()

	if a.store == nil {
		return
	}
	if err := a.store.Save(ctx, sess); err != nil && !errors.Is(err, driven.ErrEncryptionKeyNotSet) {
		a.logger.Warn("failed to persist session", "error", err)
	}
}

func (a *Auth) endSession(ctx context.Context) {
	a.mu.Lock()
	a.session = nil
	a.restored = true
	a.mu.Unlock()

	if a.store != nil {
		if err := a.store.Clear(ctx); err != nil && !errors.Is(err, driven.ErrEncryptionKeyNotSet) {
			a.logger.Warn("failed to clear persisted session", "error", err)
		}
	}
	a.emit(model.AuthEvent{Type: model.AuthEventSignedOut})
}
