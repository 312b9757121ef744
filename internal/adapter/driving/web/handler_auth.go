package web

import (
	"net/http"

	"github.com/ericfisherdev/vaultpanel/internal/domain/model"
)

// SignIn handles POST /auth/signin.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	err := h.auth.SignIn(r.Context(), r.PostFormValue("email"), r.PostFormValue("password"))
	if err == nil {
		h.awaitView(r.Context(), model.ViewApp)
	}
	h.finish(w, r, "sign in", err)
}

// SignUp handles POST /auth/signup.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	err := h.auth.SignUp(r.Context(), r.PostFormValue("email"), r.PostFormValue("password"))
	h.finish(w, r, "sign up", err)
}

// SignOut handles POST /auth/signout.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	err := h.auth.SignOut(r.Context())
	if err == nil {
		h.awaitView(r.Context(), model.ViewAuth)
	}
	h.finish(w, r, "sign out", err)
}

// ShowForm handles POST /auth/form, switching between sign-in and sign-up.
func (h *Handler) ShowForm(w http.ResponseWriter, r *http.Request) {
	err := h.auth.ShowForm(r.Context(), formParam(r))
	h.finish(w, r, "switch form", err)
}

// ToggleAuthPassword handles POST /auth/toggle-password.
func (h *Handler) ToggleAuthPassword(w http.ResponseWriter, r *http.Request) {
	err := h.auth.TogglePasswordVisibility(r.Context(), formParam(r))
	h.finish(w, r, "toggle password visibility", err)
}

func formParam(r *http.Request) model.AuthForm {
	if r.PostFormValue("form") == string(model.AuthFormSignUp) {
		return model.AuthFormSignUp
	}
	return model.AuthFormSignIn
}
