package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ericfisherdev/vaultpanel/internal/domain/model"
	"github.com/ericfisherdev/vaultpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.EntryStore = (*EntryRepo)(nil)

const (
	passwordsPath    = "/rest/v1/passwords"
	passwordsColumns = "id,user_id,service_name,password,created_at"
)

// passwordRow is a row of the passwords table as PostgREST serialises it.
type passwordRow struct {
	ID          any       `json:"id,omitempty"`
	UserID      string    `json:"user_id"`
	ServiceName string    `json:"service_name"`
	Password    string    `json:"password"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// insertRow omits the columns the backend assigns.
type insertRow struct {
	UserID      string `json:"user_id"`
	ServiceName string `json:"service_name"`
	Password    string `json:"password"`
}

func (r passwordRow) entry() model.Entry {
	return model.Entry{
		ID:          idString(r.ID),
		OwnerUserID: r.UserID,
		ServiceName: r.ServiceName,
		Secret:      r.Password,
		CreatedAt:   r.CreatedAt,
	}
}

// idString normalises the id column, which may be a bigint or a uuid.
func idString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	default:
		return fmt.Sprint(id)
	}
}

// TokenSource supplies a current access token for a user. Auth implements it.
type TokenSource interface {
	AccessToken(ctx context.Context, userID string) (string, error)
}

// EntryRepo implements the EntryStore port against the PostgREST data API.
// Row-level security on the backend is expected to enforce ownership; every
// request also filters on the owner explicitly.
type EntryRepo struct {
	client *Client
	tokens TokenSource
}

// NewEntryRepo creates an EntryRepo. Requests authenticate with a token from
// tokens, falling back to the session's own token when tokens is nil or holds
// no session for the user.
func NewEntryRepo(client *Client, tokens TokenSource) *EntryRepo {
	return &EntryRepo{client: client, tokens: tokens}
}

func (r *EntryRepo) bearer(ctx context.Context, session model.Session) (string, error) {
	if r.tokens == nil {
		return session.AccessToken, nil
	}
	token, err := r.tokens.AccessToken(ctx, session.UserID)
	if err != nil {
		return "", fmt.Errorf("refreshing access token: %w", err)
	}
	if token == "" {
		return session.AccessToken, nil
	}
	return token, nil
}

// Insert implements driven.EntryStore.
func (r *EntryRepo) Insert(ctx context.Context, session model.Session, entry model.NewEntry) error {
	token, err := r.bearer(ctx, session)
	if err != nil {
		return err
	}

	err = r.client.do(ctx, request{
		method: http.MethodPost,
		path:   passwordsPath,
		bearer: token,
		header: http.Header{"Prefer": {"return=minimal"}},
		body: []insertRow{{
			UserID:      session.UserID,
			ServiceName: entry.ServiceName,
			Password:    entry.Secret,
		}},
	}, nil)
	if err != nil {
		return fmt.Errorf("inserting entry: %w", err)
	}
	return nil
}

// ListByOwner implements driven.EntryStore.
func (r *EntryRepo) ListByOwner(ctx context.Context, session model.Session) ([]model.Entry, error) {
	token, err := r.bearer(ctx, session)
	if err != nil {
		return nil, err
	}

	var rows []passwordRow
	err = r.client.do(ctx, request{
		method: http.MethodGet,
		path:   passwordsPath,
		bearer: token,
		query: url.Values{
			"select":  {passwordsColumns},
			"user_id": {"eq." + session.UserID},
			"order":   {"created_at.desc"},
		},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}

	entries := make([]model.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.entry())
	}
	return entries, nil
}

// DeleteByID implements driven.EntryStore.
func (r *EntryRepo) DeleteByID(ctx context.Context, session model.Session, id string) error {
	token, err := r.bearer(ctx, session)
	if err != nil {
		return err
	}

	err = r.client.do(ctx, request{
		method: http.MethodDelete,
		path:   passwordsPath,
		bearer: token,
		query: url.Values{
			"id":      {"eq." + id},
			"user_id": {"eq." + session.UserID},
		},
	}, nil)
	if err != nil {
		return fmt.Errorf("deleting entry %s: %w", id, err)
	}
	return nil
}

// DeleteByOwner implements driven.EntryStore.
func (r *EntryRepo) DeleteByOwner(ctx context.Context, session model.Session) error {
	token, err := r.bearer(ctx, session)
	if err != nil {
		return err
	}

	err = r.client.do(ctx, request{
		method: http.MethodDelete,
		path:   passwordsPath,
		bearer: token,
		query:  url.Values{"user_id": {"eq." + session.UserID}},
	}, nil)
	if err != nil {
		return fmt.Errorf("deleting entries: %w", err)
	}
	return nil
}
