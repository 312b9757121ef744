// Package httphandler serves the JSON API next to the web GUI: health checks
// and a read-only summary of the page state.
package httphandler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/vaultpanel/internal/application"
)

// PageStateReader returns the state of the page instance.
type PageStateReader interface {
	State(ctx context.Context) (application.PageState, error)
}

// Handler is the HTTP driving adapter that serves the JSON API.
type Handler struct {
	pages            PageStateReader
	sessionPersisted bool
	logger           *slog.Logger
	nowFunc          func() time.Time
}

// NewHandler creates a Handler. sessionPersisted reports whether the backend
// session survives restarts, for the health response.
func NewHandler(pages PageStateReader, sessionPersisted bool, logger *slog.Logger) *Handler {
	return &Handler{
		pages:            pages,
		sessionPersisted: sessionPersisted,
		logger:           logger,
		nowFunc:          time.Now,
	}
}

// RegisterRoutes registers the API routes on mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/state", h.State)
}

// Health reports whether the dispatch loop is answering and which view is
// active.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:           "ok",
		Time:             h.nowFunc().UTC().Format(time.RFC3339),
		SessionPersisted: h.sessionPersisted,
	}

	st, err := h.pages.State(ctx)
	if err != nil {
		h.logger.Error("health check failed", "error", err)
		resp.Status = "unavailable"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	resp.View = string(st.View)
	writeJSON(w, http.StatusOK, resp)
}

// State returns the active view, the entry count and the current toast.
// Secrets are never included.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	st, err := h.pages.State(r.Context())
	if err != nil {
		h.logger.Error("failed to read page state", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, toStateResponse(st))
}
