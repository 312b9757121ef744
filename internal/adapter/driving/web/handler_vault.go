package web

import (
	"errors"
	"net/http"

	"github.com/ericfisherdev/vaultpanel/internal/adapter/driving/web/templates"
	vm "github.com/ericfisherdev/vaultpanel/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/vaultpanel/internal/application"
	"github.com/ericfisherdev/vaultpanel/internal/domain/model"
)

const (
	stepFinal = "final"
	formYes   = "yes"
)

// AddEntry handles POST /app/entries.
func (h *Handler) AddEntry(w http.ResponseWriter, r *http.Request) {
	err := h.vault.AddEntry(r.Context(), r.PostFormValue("service_name"), r.PostFormValue("password"))
	h.finish(w, r, "add entry", err)
}

// ToggleEntryPassword handles POST /app/entries/toggle-password.
func (h *Handler) ToggleEntryPassword(w http.ResponseWriter, r *http.Request) {
	err := h.vault.ToggleSecretInputVisibility(r.Context())
	h.finish(w, r, "toggle entry password visibility", err)
}

// RevealEntry handles POST /app/entries/{id}/reveal.
func (h *Handler) RevealEntry(w http.ResponseWriter, r *http.Request) {
	err := h.vault.ToggleReveal(r.Context(), r.PathValue("id"))
	h.finish(w, r, "toggle reveal", err)
}

// CopyEntry handles POST /app/entries/{id}/copy.
func (h *Handler) CopyEntry(w http.ResponseWriter, r *http.Request) {
	err := h.vault.Copy(r.Context(), r.PathValue("id"))
	h.finish(w, r, "copy entry", err)
}

// ConfirmDeleteEntry handles GET /app/entries/{id}/delete.
func (h *Handler) ConfirmDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	prompt, err := h.vault.DeletePrompt(r.Context(), id)
	if err != nil {
		h.finish(w, r, "delete entry prompt", err)
		return
	}

	h.renderDialog(w, r, vm.DialogViewModel{
		Title:        "Delete password",
		PromptHTML:   RenderPrompt(prompt),
		ConfirmLabel: "Delete",
		ConfirmURL:   entryPath(id) + "/delete",
		Method:       "post",
		Hidden:       map[string]string{"confirm": formYes},
		CancelURL:    "/",
		Destructive:  true,
	})
}

// DeleteEntry handles POST /app/entries/{id}/delete.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	err := h.vault.DeleteEntry(r.Context(), r.PathValue("id"), r.PostFormValue("confirm") == formYes)
	h.finish(w, r, "delete entry", err)
}

// ConfirmDeleteAll handles GET /app/delete-all, the two confirmation steps
// of deleting every entry.
func (h *Handler) ConfirmDeleteAll(w http.ResponseWriter, r *http.Request) {
	h.renderTwoStep(w, r, "/app/delete-all", "Delete all passwords", "Delete all", application.DeleteAllPrompt)
}

// DeleteAll handles POST /app/delete-all.
func (h *Handler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	err := h.vault.DeleteAll(r.Context(), acknowledgement(r))
	h.finish(w, r, "delete all entries", err)
}

// ConfirmDeleteAccount handles GET /app/account/delete.
func (h *Handler) ConfirmDeleteAccount(w http.ResponseWriter, r *http.Request) {
	h.renderTwoStep(w, r, "/app/account/delete", "Delete account", "Delete account", application.DeleteAccountPrompt)
}

// DeleteAccount handles POST /app/account/delete. On success the user must
// acknowledge the deletion before returning to the sign-in page.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	err := h.vault.DeleteAccount(r.Context(), acknowledgement(r))
	if err != nil {
		h.finish(w, r, "delete account", err)
		return
	}

	h.render(w, r, templates.Layout(pageTitle, 0, templates.Notice(vm.NoticeViewModel{
		Message:     application.AccountDeletedNotice,
		ContinueURL: "/",
	})))
}

// renderTwoStep renders the warning step, or the final step once the warning
// has been acknowledged. Only the final step posts.
func (h *Handler) renderTwoStep(
	w http.ResponseWriter,
	r *http.Request,
	action, title, finalLabel string,
	prompt func(application.ConfirmStep) string,
) {
	if view, err := h.sessions.View(r.Context()); err != nil || view != model.ViewApp {
		h.finish(w, r, title, errors.Join(application.ErrNoSession, err))
		return
	}

	q := r.URL.Query()
	if q.Get("step") == stepFinal && q.Get("warning") == formYes {
		h.renderDialog(w, r, vm.DialogViewModel{
			Title:        title,
			PromptHTML:   RenderPrompt(prompt(application.StepFinal)),
			ConfirmLabel: finalLabel,
			ConfirmURL:   action,
			Method:       "post",
			Hidden:       map[string]string{"warning": formYes, "final": formYes},
			CancelURL:    "/",
			Destructive:  true,
		})
		return
	}

	h.renderDialog(w, r, vm.DialogViewModel{
		Title:        title,
		PromptHTML:   RenderPrompt(prompt(application.StepWarning)),
		ConfirmLabel: "Continue",
		ConfirmURL:   action,
		Method:       "get",
		Hidden:       map[string]string{"step": stepFinal, "warning": formYes},
		CancelURL:    "/",
	})
}

func (h *Handler) renderDialog(w http.ResponseWriter, r *http.Request, d vm.DialogViewModel) {
	d.CSRFToken = h.csrfToken(w, r)
	h.render(w, r, templates.Layout(pageTitle, 0, templates.ConfirmDialog(d)))
}

func acknowledgement(r *http.Request) application.Acknowledgement {
	return application.Acknowledgement{
		Warning: r.PostFormValue("warning") == formYes,
		Final:   r.PostFormValue("final") == formYes,
	}
}
