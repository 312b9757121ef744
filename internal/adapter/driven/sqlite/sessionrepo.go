package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/vaultpanel/internal/domain/model"
	"github.com/ericfisherdev/vaultpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SessionStore = (*SessionRepo)(nil)

// storedSession is the plaintext form of a persisted session before
// encryption.
type storedSession struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SessionRepo persists the single backend session, encrypted with
// AES-256-GCM. Without a key, Save and Load return
// driven.ErrEncryptionKeyNotSet and nothing is written.
type SessionRepo struct {
	db     *DB
	sealer *sealer
}

// NewSessionRepo creates a SessionRepo. key must be KeySize bytes, or nil to
// disable persistence.
func NewSessionRepo(db *DB, key []byte) (*SessionRepo, error) {
	repo := &SessionRepo{db: db}
	if key == nil {
		return repo, nil
	}
	s, err := newSealer(key)
	if err != nil {
		return nil, err
	}
	repo.sealer = s
	return repo, nil
}

// Save implements driven.SessionStore.
func (r *SessionRepo) Save(ctx context.Context, session model.Session) error {
	if r.sealer == nil {
		return driven.ErrEncryptionKeyNotSet
	}

	plaintext, err := json.Marshal(storedSession(session))
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	payload, err := r.sealer.seal(plaintext)
	if err != nil {
		return fmt.Errorf("encrypt session: %w", err)
	}

	const query = `INSERT INTO backend_session (id, payload, updated_at)
		VALUES (1, ?, strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	if _, err := r.db.Writer.ExecContext(ctx, query, payload); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load implements driven.SessionStore.
func (r *SessionRepo) Load(ctx context.Context) (*model.Session, error) {
	if r.sealer == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	var payload string
	err := r.db.Reader.QueryRowContext(ctx, `SELECT payload FROM backend_session WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	plaintext, err := r.sealer.open(payload)
	if err != nil {
		return nil, fmt.Errorf("decrypt session: %w", err)
	}
	var stored storedSession
	if err := json.Unmarshal(plaintext, &stored); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	sess := model.Session(stored)
	return &sess, nil
}

// Clear implements driven.SessionStore. It works without a key so a stale
// row can always be removed.
func (r *SessionRepo) Clear(ctx context.Context) error {
	if _, err := r.db.Writer.ExecContext(ctx, `DELETE FROM backend_session`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
