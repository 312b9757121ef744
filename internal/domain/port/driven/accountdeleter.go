package driven

import "context"

// AccountDeleter defines the driven port for the privileged, irreversible
// account deletion endpoint. It is distinct from the data-layer EntryStore.
type AccountDeleter interface {
	DeleteAccount(ctx context.Context, accessToken string) error
}
