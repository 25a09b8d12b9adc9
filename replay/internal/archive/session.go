package archive

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Session tracks one replayed capture session.
type Session struct {
	ID        string `json:"id"`
	BaseURL   string `json:"base_url,omitempty"`
	FirstSeq  uint64 `json:"first_seq"`
	LastSeq   uint64 `json:"last_seq"`
	Envelopes int    `json:"envelopes"`
	Records   int    `json:"records"`
	Skipped   int    `json:"skipped"` // operations dropped as structurally inconsistent
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// UpsertSession inserts the session or refreshes its running counters.
func (s *Store) UpsertSession(ctx context.Context, sess *Session) error {
	now := time.Now().UnixMilli()
	if sess.CreatedAt == 0 {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO sessions (id, base_url, first_seq, last_seq, envelopes, records, skipped, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			base_url   = CASE WHEN excluded.base_url != '' THEN excluded.base_url ELSE sessions.base_url END,
			last_seq   = excluded.last_seq,
			envelopes  = excluded.envelopes,
			records    = excluded.records,
			skipped    = excluded.skipped,
			updated_at = excluded.updated_at`,
		sess.ID, sess.BaseURL, sess.FirstSeq, sess.LastSeq,
		sess.Envelopes, sess.Records, sess.Skipped, sess.CreatedAt, sess.UpdatedAt,
	)
	return err
}

// GetSession returns a session by ID, or nil when unknown.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, base_url, first_seq, last_seq, envelopes, records, skipped, created_at, updated_at
		FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return sess, err
}

// ListSessions returns sessions ordered by most recent activity.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, base_url, first_seq, last_seq, envelopes, records, skipped, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var sess Session
	err := row.Scan(&sess.ID, &sess.BaseURL, &sess.FirstSeq, &sess.LastSeq,
		&sess.Envelopes, &sess.Records, &sess.Skipped, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}
