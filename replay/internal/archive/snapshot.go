package archive

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Snapshot is one serialised reconstruction of a session's document.
type Snapshot struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Seq       uint64 `json:"seq"`    // envelope seq at capture of the snapshot
	Reason    string `json:"reason"` // "reset", "end_of_stream"
	HTML      []byte `json:"html,omitempty"`
	HTMLHash  string `json:"html_hash"`
	CreatedAt int64  `json:"created_at"`
}

// InsertSnapshot stores a snapshot unless the same content already exists
// for the session (dedup by hash). Reports whether a row was written.
func (s *Store) InsertSnapshot(ctx context.Context, snap *Snapshot) (bool, error) {
	var exists int
	err := s.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM snapshots WHERE session_id = ? AND html_hash = ?`,
		snap.SessionID, snap.HTMLHash).Scan(&exists)
	if err != nil {
		return false, err
	}
	if exists > 0 {
		return false, nil
	}

	if snap.CreatedAt == 0 {
		snap.CreatedAt = time.Now().UnixMilli()
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO snapshots (id, session_id, seq, reason, html, html_hash, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		snap.ID, snap.SessionID, snap.Seq, snap.Reason, snap.HTML, snap.HTMLHash, snap.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetSnapshot returns a snapshot by ID including its HTML, or nil when
// unknown.
func (s *Store) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	var snap Snapshot
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, session_id, seq, reason, html, html_hash, created_at
		FROM snapshots WHERE id = ?`, id).
		Scan(&snap.ID, &snap.SessionID, &snap.Seq, &snap.Reason, &snap.HTML, &snap.HTMLHash, &snap.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListSnapshots returns a session's snapshots in seq order, HTML omitted.
func (s *Store) ListSnapshots(ctx context.Context, sessionID string, limit int) ([]*Snapshot, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, session_id, seq, reason, html_hash, created_at
		FROM snapshots WHERE session_id = ? ORDER BY seq, created_at LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.SessionID, &snap.Seq, &snap.Reason, &snap.HTMLHash, &snap.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &snap)
	}
	return out, rows.Err()
}

// CountSnapshots returns the number of snapshots stored for a session.
func (s *Store) CountSnapshots(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM snapshots WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}
