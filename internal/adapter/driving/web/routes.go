package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers all web GUI routes on the provided mux.
// Pages are served at /, actions under /auth/* and /app/*, and embedded
// static assets at /static/*. Every POST is CSRF-protected.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	mux.HandleFunc("GET /{$}", h.Index)

	mux.HandleFunc("POST /auth/signin", h.protect(h.SignIn))
	mux.HandleFunc("POST /auth/signup", h.protect(h.SignUp))
	mux.HandleFunc("POST /auth/signout", h.protect(h.SignOut))
	mux.HandleFunc("POST /auth/form", h.protect(h.ShowForm))
	mux.HandleFunc("POST /auth/toggle-password", h.protect(h.ToggleAuthPassword))

	mux.HandleFunc("POST /app/entries", h.protect(h.AddEntry))
	mux.HandleFunc("POST /app/entries/toggle-password", h.protect(h.ToggleEntryPassword))
	mux.HandleFunc("POST /app/entries/{id}/reveal", h.protect(h.RevealEntry))
	mux.HandleFunc("POST /app/entries/{id}/copy", h.protect(h.CopyEntry))
	mux.HandleFunc("GET /app/entries/{id}/delete", h.ConfirmDeleteEntry)
	mux.HandleFunc("POST /app/entries/{id}/delete", h.protect(h.DeleteEntry))

	mux.HandleFunc("GET /app/delete-all", h.ConfirmDeleteAll)
	mux.HandleFunc("POST /app/delete-all", h.protect(h.DeleteAll))
	mux.HandleFunc("GET /app/account/delete", h.ConfirmDeleteAccount)
	mux.HandleFunc("POST /app/account/delete", h.protect(h.DeleteAccount))
}
