package application

import (
	"context"

	"github.com/ericfisherdev/vaultpanel/internal/domain/model"
)

// PageState is a consistent copy of every piece of view state, taken in a
// single dispatch so the page never mixes two sessions.
type PageState struct {
	View  model.View
	Auth  AuthState
	Vault VaultState
	Toast *ToastState
}

// Panel composes the views of one page instance for rendering.
type Panel struct {
	dispatch *Dispatcher
	sessions *SessionController
	auth     *AuthService
	vault    *VaultService
	notifier *Notifier
}

// NewPanel creates a Panel and registers its views with the session controller.
// It must be called before SessionController.Initialize.
func NewPanel(dispatch *Dispatcher, sessions *SessionController, auth *AuthService, vault *VaultService, notifier *Notifier) *Panel {
	sessions.Register(auth, vault, notifier)
	return &Panel{
		dispatch: dispatch,
		sessions: sessions,
		auth:     auth,
		vault:    vault,
		notifier: notifier,
	}
}

// State returns the current page state.
func (p *Panel) State(ctx context.Context) (PageState, error) {
	var st PageState
	err := p.dispatch.Do(ctx, func() {
		st.View = p.sessions.view
		st.Auth = p.auth.state()
		if snap := p.sessions.snapshot(); snap.Active && st.View == model.ViewApp {
			st.Vault = p.vault.state(snap.Session.Email)
			if p.vault.owner != snap.Session.UserID {
				st.Vault.Rows = nil
				st.Vault.Loaded = false
			}
		}
		if toast, ok := p.notifier.Current(); ok {
			st.Toast = &toast
		}
	})
	return st, err
}
