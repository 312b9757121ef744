package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/vaultpanel/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by SessionStore operations when
// VAULTPANEL_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set VAULTPANEL_SECRET_KEY")

// SessionStore defines the driven port for persisting the backend session
// across restarts. The adapter is responsible for encryption; this interface
// operates on plaintext sessions at the domain boundary.
type SessionStore interface {
	// Save stores or replaces the persisted session.
	Save(ctx context.Context, session model.Session) error

	// Load returns the persisted session, or (nil, nil) if none is stored.
	Load(ctx context.Context) (*model.Session, error)

	// Clear removes the persisted session. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
