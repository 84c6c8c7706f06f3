// Package sessions persists the current provider session in the local
// SQLite database so a restarted client comes back signed in.
package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/projectdesk/internal/client/models"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Load returns the cached session, or nil when none is stored.
func (r *SQLiteRepository) Load(ctx context.Context) (*models.Session, error) {
	var (
		s         models.Session
		expiresAt string
		metadata  string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT access_token, refresh_token, expires_at, user_id, email, metadata
		FROM session WHERE id = 1
	`).Scan(&s.AccessToken, &s.RefreshToken, &expiresAt, &s.User.ID, &s.User.Email, &metadata)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if expiresAt != "" {
		t, err := time.Parse(time.RFC3339Nano, expiresAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse session expiry %q: %w", expiresAt, err)
		}
		s.ExpiresAt = t
	}
	if metadata != "" && metadata != "{}" {
		if err := json.Unmarshal([]byte(metadata), &s.User.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode user metadata: %w", err)
		}
	}
	return &s, nil
}

// Save replaces the cached session with s.
func (r *SQLiteRepository) Save(ctx context.Context, s *models.Session) error {
	if s == nil {
		return r.Clear(ctx)
	}

	metadata := []byte("{}")
	if len(s.User.Metadata) > 0 {
		var err error
		if metadata, err = json.Marshal(s.User.Metadata); err != nil {
			return fmt.Errorf("failed to encode user metadata: %w", err)
		}
	}
	expiresAt := ""
	if !s.ExpiresAt.IsZero() {
		expiresAt = s.ExpiresAt.UTC().Format(time.RFC3339Nano)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session (id, access_token, refresh_token, expires_at, user_id, email, metadata)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			user_id = excluded.user_id,
			email = excluded.email,
			metadata = excluded.metadata
	`, s.AccessToken, s.RefreshToken, expiresAt, s.User.ID, s.User.Email, string(metadata))
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear forgets the cached session.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
