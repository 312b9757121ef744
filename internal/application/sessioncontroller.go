package application

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ericfisherdev/vaultpanel/internal/domain/model"
	"github.com/ericfisherdev/vaultpanel/internal/domain/port/driven"
)

// SessionSnapshot is a copy of the current session taken on the dispatch
// loop. Epoch identifies the session lifetime it was taken in; operations
// compare it on completion to detect responses that outlived their session.
type SessionSnapshot struct {
	Session model.Session
	Epoch   uint64
	Active  bool
}

// ViewListener is notified on the dispatch loop of view transitions. Both
// methods must return without blocking on I/O.
type ViewListener interface {
	// ViewActivated is called when a view becomes active, and on every App
	// activation even if App was already active.
	ViewActivated(view model.View, snap SessionSnapshot)

	// ResetState discards all in-memory view state.
	ResetState()
}

// SessionController owns the single current Session and decides which
// top-level view is visible. All of its state is touched only on the
// dispatch loop.
type SessionController struct {
	auth     driven.AuthBackend
	dispatch *Dispatcher
	logger   *slog.Logger

	listeners   []ViewListener
	session     *model.Session
	epoch       uint64
	view        model.View
	initialized bool

	mu          sync.Mutex
	unsubscribe func()
}

// NewSessionController creates a SessionController. The Auth view is active
// until Initialize decides otherwise.
func NewSessionController(auth driven.AuthBackend, dispatch *Dispatcher, logger *slog.Logger) *SessionController {
	return &SessionController{
		auth:     auth,
		dispatch: dispatch,
		logger:   logger,
		view:     model.ViewAuth,
	}
}

// Register adds view listeners. It must be called before Initialize.
func (c *SessionController) Register(listeners ...ViewListener) {
	c.listeners = append(c.listeners, listeners...)
}

// Initialize restores an existing backend session if there is one, activates
// the matching view and subscribes to auth-state changes for the lifetime of
// ctx. It may be called once.
func (c *SessionController) Initialize(ctx context.Context) error {
	// Subscribe before reading the session so no transition is missed.
	events, unsubscribe := c.auth.Subscribe()

	sess, err := c.auth.GetSession(ctx)
	if err != nil {
		c.logger.Warn("could not restore session, starting signed out", "error", err)
		sess = nil
	}

	var initErr error
	err = c.dispatch.Do(ctx, func() {
		if c.initialized {
			initErr = ErrAlreadyInitialized
			return
		}
		c.initialized = true

		if sess != nil {
			c.setSession(*sess)
			c.logger.Info("session restored", "email", sess.Email)
			c.activate(model.ViewApp)
			return
		}
		c.activate(model.ViewAuth)
	})
	if err == nil {
		err = initErr
	}
	if err != nil {
		unsubscribe()
		return err
	}

	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()

	go c.pump(ctx, events)
	return nil
}

// pump forwards auth events to the dispatch loop one at a time, preserving
// notification order.
func (c *SessionController) pump(ctx context.Context, events <-chan model.AuthEvent) {
	for ev := range events {
		if err := c.dispatch.Do(ctx, func() { c.handleEvent(ev) }); err != nil {
			return
		}
	}
}

func (c *SessionController) handleEvent(ev model.AuthEvent) {
	switch ev.Type {
	case model.AuthEventSignedIn:
		if ev.Session == nil {
			c.logger.Warn("SIGNED_IN event without session, ignoring")
			return
		}
		c.setSession(*ev.Session)
		c.logger.Info("signed in", "email", ev.Session.Email)
		c.activate(model.ViewApp)

	case model.AuthEventSignedOut:
		c.clearSession()
		c.logger.Info("signed out")
		c.activate(model.ViewAuth)

	case model.AuthEventTokenRefreshed, model.AuthEventUserUpdated:
		if c.session == nil || ev.Session == nil || ev.Session.UserID != c.session.UserID {
			return
		}
		updated := *ev.Session
		c.session = &updated

	default:
		c.logger.Debug("ignoring auth event", "type", ev.Type)
	}
}

// setSession replaces the current session. The epoch only advances when the
// signed-in user changes, so a repeated SIGNED_IN for the same user does not
// invalidate requests already in flight.
func (c *SessionController) setSession(s model.Session) {
	if c.session == nil || c.session.UserID != s.UserID {
		c.epoch++
	}
	c.session = &s
}

func (c *SessionController) clearSession() {
	if c.session != nil {
		c.epoch++
	}
	c.session = nil
}

// activate makes view the visible view. Re-activating Auth is a no-op;
// re-activating App notifies listeners again so the entry list is re-fetched.
func (c *SessionController) activate(view model.View) {
	if view == model.ViewApp && c.session == nil {
		view = model.ViewAuth
	}
	if view == c.view && view == model.ViewAuth {
		return
	}
	c.view = view

	snap := c.snapshot()
	for _, l := range c.listeners {
		l.ViewActivated(view, snap)
	}
}

// snapshot must be called on the dispatch loop.
func (c *SessionController) snapshot() SessionSnapshot {
	if c.session == nil {
		return SessionSnapshot{Epoch: c.epoch}
	}
	return SessionSnapshot{Session: *c.session, Epoch: c.epoch, Active: true}
}

// isCurrent reports whether snap still describes the live session. It must
// be called on the dispatch loop.
func (c *SessionController) isCurrent(snap SessionSnapshot) bool {
	return snap.Active && c.session != nil && snap.Epoch == c.epoch
}

// Snapshot returns a copy of the current session state.
func (c *SessionController) Snapshot(ctx context.Context) (SessionSnapshot, error) {
	var snap SessionSnapshot
	err := c.dispatch.Do(ctx, func() { snap = c.snapshot() })
	return snap, err
}

// View returns the active view.
func (c *SessionController) View(ctx context.Context) (model.View, error) {
	var view model.View
	err := c.dispatch.Do(ctx, func() { view = c.view })
	return view, err
}

// Reset discards the current session and every listener's view state, and
// returns to the Auth view. It is the in-process equivalent of a full reload.
func (c *SessionController) Reset(ctx context.Context) error {
	return c.dispatch.Do(ctx, c.reset)
}

func (c *SessionController) reset() {
	c.clearSession()
	c.epoch++
	c.view = model.ViewAuth
	for _, l := range c.listeners {
		l.ResetState()
	}
	c.logger.Info("in-memory state reset")
}

// Close stops receiving auth-state notifications.
func (c *SessionController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}
