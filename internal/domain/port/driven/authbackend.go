package driven

import (
	"context"

	"github.com/ericfisherdev/vaultpanel/internal/domain/model"
)

// AuthBackend defines the driven port for the hosted session-based
// authentication service.
type AuthBackend interface {
	// GetSession returns the backend's current session, or (nil, nil) when
	// no user is signed in.
	GetSession(ctx context.Context) (*model.Session, error)

	// Subscribe registers for auth-state change notifications. Events are
	// delivered on the returned channel in the order the backend emits them.
	// The returned func unsubscribes and closes the channel.
	Subscribe() (<-chan model.AuthEvent, func())

	// SignInWithPassword authenticates and, on success, emits SIGNED_IN.
	SignInWithPassword(ctx context.Context, email, password string) error

	// SignUp registers a new account. It does not sign the user in.
	SignUp(ctx context.Context, email, password string) error

	// SignOut ends the session and emits SIGNED_OUT.
	SignOut(ctx context.Context) error
}
