// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/vaultpanel/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/vaultpanel/internal/application"
	"github.com/ericfisherdev/vaultpanel/internal/domain/model"
)

// defaultTransitionWait bounds how long a sign-in or sign-out request waits
// for the resulting auth event before redirecting.
const defaultTransitionWait = time.Second

// Handler is the web GUI driving adapter that serves HTML via templ components.
// Every action is a form POST answered with a redirect to the page, so the
// browser always renders the state held by the application services.
type Handler struct {
	panel    *application.Panel
	sessions *application.SessionController
	auth     *application.AuthService
	vault    *application.VaultService
	logger   *slog.Logger

	secureCookies  bool
	transitionWait time.Duration
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	panel *application.Panel,
	sessions *application.SessionController,
	auth *application.AuthService,
	vault *application.VaultService,
	secureCookies bool,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		panel:          panel,
		sessions:       sessions,
		auth:           auth,
		vault:          vault,
		logger:         logger,
		secureCookies:  secureCookies,
		transitionWait: defaultTransitionWait,
	}
}

// Index renders the active view.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	st, err := h.panel.State(r.Context())
	if err != nil {
		h.logger.Error("failed to read page state", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	csrf := h.csrfToken(w, r)
	page := toPageViewModel(st, csrf)

	var body templ.Component
	if st.View == model.ViewApp {
		body = templates.VaultPage(page.Vault, page.Toast, csrf)
	} else {
		body = templates.AuthPage(page.Auth, page.Toast, csrf)
	}
	h.render(w, r, templates.Layout(page.Title, page.ReloadAfterMS, body))
}

// render writes a full page. Pages may contain secrets, so they are never
// cached.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := c.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render page", "path", r.URL.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// finish answers an action. Background requests from app.js get 204; form
// submissions are redirected back to the page.
func (h *Handler) finish(w http.ResponseWriter, r *http.Request, action string, err error) {
	h.logOutcome(action, err)
	if r.Header.Get("X-Requested-With") == "fetch" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// logOutcome records why an action did not complete. User-facing reporting
// is done by the services through the toast.
func (h *Handler) logOutcome(action string, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, application.ErrNotConfirmed),
		errors.Is(err, application.ErrControlBusy),
		errors.Is(err, application.ErrStaleResponse),
		errors.Is(err, application.ErrEmptyCredentials),
		errors.Is(err, application.ErrPasswordTooShort),
		errors.Is(err, application.ErrEmptyEntry):
		h.logger.Debug("action not completed", "action", action, "reason", err)
	default:
		h.logger.Debug("action failed", "action", action, "error", err)
	}
}

// awaitView waits until the session controller shows view, so the redirect
// after sign-in or sign-out renders the new view. It gives up silently after
// transitionWait; the page then shows whatever state has landed.
func (h *Handler) awaitView(ctx context.Context, view model.View) {
	ctx, cancel := context.WithTimeout(ctx, h.transitionWait)
	defer cancel()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		if current, err := h.sessions.View(ctx); err != nil || current == view {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
