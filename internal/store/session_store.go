package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/explainui/internal/domain"
	"github.com/vbonduro/explainui/internal/session"
)

// SessionStore persists the editor session as one row keyed by a fixed
// slot name. Each save overwrites the previous value.
type SessionStore struct {
	db     *sql.DB
	key    string
	now    func() time.Time
	logger *slog.Logger
}

func NewSessionStore(db *sql.DB, key string, logger *slog.Logger) *SessionStore {
	if key == "" {
		key = session.DefaultKey
	}
	return &SessionStore{db: db, key: key, now: time.Now, logger: logger}
}

// Load returns nil, nil when the slot is empty or its payload is unreadable.
func (s *SessionStore) Load(ctx context.Context) (*domain.Session, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM sessions WHERE key = ?
	`, s.key).Scan(&payload)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	restored := session.Unmarshal([]byte(payload), s.now())
	if restored == nil {
		s.logger.Debug("ignoring unreadable session payload", "key", s.key, "bytes", len(payload))
	}
	return restored, nil
}

func (s *SessionStore) Save(ctx context.Context, sess *domain.Session) error {
	payload, err := session.Marshal(sess)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (key, payload, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, s.key, string(payload))
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
