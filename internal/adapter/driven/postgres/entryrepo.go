// Package postgres implements the entry store directly against the backend's
// Postgres database, for self-hosted deployments that expose it.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"

	"github.com/ericfisherdev/vaultpanel/internal/domain/model"
	"github.com/ericfisherdev/vaultpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.EntryStore = (*EntryRepo)(nil)

// Open connects to the database at dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EntryRepo implements the EntryStore port on the passwords table. The
// connection bypasses row-level security, so every statement filters on the
// session's user explicitly.
type EntryRepo struct {
	db *sql.DB
}

// NewEntryRepo creates an EntryRepo.
func NewEntryRepo(db *sql.DB) *EntryRepo {
	return &EntryRepo{db: db}
}

// Insert implements driven.EntryStore.
func (r *EntryRepo) Insert(ctx context.Context, session model.Session, entry model.NewEntry) error {
	const query = `INSERT INTO passwords (user_id, service_name, password) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, session.UserID, entry.ServiceName, entry.Secret); err != nil {
		return fmt.Errorf("inserting entry: %w", backendError(err))
	}
	return nil
}

// ListByOwner implements driven.EntryStore.
func (r *EntryRepo) ListByOwner(ctx context.Context, session model.Session) ([]model.Entry, error) {
	const query = `SELECT id::text, user_id::text, service_name, password, created_at
		FROM passwords WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", backendError(err))
	}
	defer rows.Close()

	entries := []model.Entry{}
	for rows.Next() {
		var e model.Entry
		if err := rows.Scan(&e.ID, &e.OwnerUserID, &e.ServiceName, &e.Secret, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", backendError(err))
	}
	return entries, nil
}

// DeleteByID implements driven.EntryStore.
func (r *EntryRepo) DeleteByID(ctx context.Context, session model.Session, id string) error {
	const query = `DELETE FROM passwords WHERE id::text = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, session.UserID); err != nil {
		return fmt.Errorf("deleting entry %s: %w", id, backendError(err))
	}
	return nil
}

// DeleteByOwner implements driven.EntryStore.
func (r *EntryRepo) DeleteByOwner(ctx context.Context, session model.Session) error {
	const query = `DELETE FROM passwords WHERE user_id = $1`
	if _, err := r.db.ExecContext(ctx, query, session.UserID); err != nil {
		return fmt.Errorf("deleting entries: %w", backendError(err))
	}
	return nil
}

// backendError maps a Postgres error to a BackendError carrying the server
// message, so it is shown to the user like a data API error.
func backendError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	status := http.StatusBadRequest
	switch pqErr.Code.Class() {
	case "42":
		if pqErr.Code == "42501" {
			status = http.StatusForbidden
		}
	case "08", "53", "57":
		status = http.StatusServiceUnavailable
	}
	return &driven.BackendError{Status: status, Message: pqErr.Message}
}
