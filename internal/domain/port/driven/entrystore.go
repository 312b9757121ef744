package driven

import (
	"context"

	"github.com/ericfisherdev/vaultpanel/internal/domain/model"
)

// EntryStore defines the driven port for credential entry persistence in the
// backend "passwords" table. Every call is scoped to the given session; the
// session's access token authorises the request and its UserID is the owner
// filter.
type EntryStore interface {
	// Insert stores a new entry owned by session.UserID.
	Insert(ctx context.Context, session model.Session, entry model.NewEntry) error

	// ListByOwner returns all entries owned by session.UserID ordered by
	// creation time, newest first.
	ListByOwner(ctx context.Context, session model.Session) ([]model.Entry, error)

	// DeleteByID removes a single entry.
	DeleteByID(ctx context.Context, session model.Session, id string) error

	// DeleteByOwner removes every entry owned by session.UserID. Deleting zero
	// rows is not an error.
	DeleteByOwner(ctx context.Context, session model.Session) error
}
