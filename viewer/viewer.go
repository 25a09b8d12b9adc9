// Package viewer serves archived reconstructions over HTTP for inspection:
// session listings as JSON, snapshots as HTML or Markdown. Read-only — the
// mutation stream itself is never transported here.
package viewer

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Microsoft/clarity-tools/replay/player"
)

// Viewer is the read-only HTTP surface over a player's archive.
type Viewer struct {
	player *player.Player
	logger *slog.Logger
}

// New creates a Viewer.
func New(p *player.Player, logger *slog.Logger) *Viewer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Viewer{player: p, logger: logger}
}

// Router builds the chi router with all viewer routes.
func (v *Viewer) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/v1/sessions", v.handleListSessions)
	r.Get("/api/v1/sessions/{id}/snapshots", v.handleListSnapshots)
	r.Get("/api/v1/sessions/{id}/stats", v.handleSessionStats)
	r.Get("/snapshots/{id}", v.handleSnapshot)
	r.Get("/snapshots/{id}/markdown", v.handleSnapshotMarkdown)
	return r
}

// handleListSessions returns archived sessions.
// GET /api/v1/sessions
func (v *Viewer) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := v.player.ListSessions(r.Context(), 0)
	if err != nil {
		v.logger.Error("viewer: list sessions", "error", err)
		http.Error(w, "archive unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, sessions)
}

// handleListSnapshots returns a session's snapshots without payloads.
// GET /api/v1/sessions/{id}/snapshots
func (v *Viewer) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snaps, err := v.player.ListSnapshots(r.Context(), id)
	if err != nil {
		v.logger.Error("viewer: list snapshots", "session_id", id, "error", err)
		http.Error(w, "archive unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, snaps)
}

// handleSessionStats returns replay counters for a session.
// GET /api/v1/sessions/{id}/stats
func (v *Viewer) handleSessionStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	stats, err := v.player.SessionStats(r.Context(), id)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, stats)
}

// handleSnapshot serves a snapshot's sanitised HTML.
// GET /snapshots/{id}
func (v *Viewer) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := v.player.GetSnapshot(r.Context(), id)
	if err != nil {
		v.logger.Error("viewer: get snapshot", "snapshot_id", id, "error", err)
		http.Error(w, "archive unavailable", http.StatusServiceUnavailable)
		return
	}
	if snap == nil {
		http.Error(w, "snapshot not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	// Snapshots are sanitised at capture; a strict CSP keeps the replay inert
	// even if a policy gap lets something through.
	w.Header().Set("Content-Security-Policy", "script-src 'none'")
	w.Write(snap.HTML)
}

// handleSnapshotMarkdown serves a snapshot converted to Markdown.
// GET /snapshots/{id}/markdown
func (v *Viewer) handleSnapshotMarkdown(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	md, err := v.player.SnapshotMarkdown(r.Context(), id)
	if err != nil {
		http.Error(w, "snapshot not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(md))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
