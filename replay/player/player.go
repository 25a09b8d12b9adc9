// Package player orchestrates session replay: it feeds envelopes from a
// captured stream into the replay engine in order, snapshots the
// reconstructed document on doctype resets and at end of stream, and
// optionally persists snapshots to the archive.
//
// The pipeline:
//
//	session file / stream → player → replay.Engine → snapshot → archive
//
// Usage:
//
//	p, err := player.New(cfg, logger)
//	defer p.Close()
//	err = p.ReplayStream(ctx, file)
//	html, _ := export.HTML(p.Document())
package player

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/net/html"

	"github.com/Microsoft/clarity-tools/export"
	"github.com/Microsoft/clarity-tools/idgen"
	"github.com/Microsoft/clarity-tools/replay"
	"github.com/Microsoft/clarity-tools/replay/internal/archive"
	"github.com/Microsoft/clarity-tools/replay/layout"
)

// Player drives a replay engine through a captured session stream.
type Player struct {
	engine *replay.Engine
	doc    *html.Node
	store  *archive.Store // nil when persistence is disabled
	exp    *export.Exporter
	logger *slog.Logger
	newID  idgen.Generator
	config *Config

	sessionID string
	baseURL   string
	firstSeq  uint64
	lastSeq   uint64
	envelopes int
	records   int
	gaps      int
}

// New creates a Player. Opens the archive database when cfg.DBPath is set.
func New(cfg *Config, logger *slog.Logger) (*Player, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	var store *archive.Store
	if cfg.DBPath != "" {
		s, err := archive.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("player: open archive: %w", err)
		}
		store = s
	}

	return &Player{
		engine: replay.New(
			replay.WithLogger(logger),
			replay.WithThumbnail(cfg.Thumbnail),
		),
		store:  store,
		exp:    export.New(),
		logger: logger,
		newID:  idgen.New,
		config: cfg,
	}, nil
}

// Close closes the archive database, if open.
func (p *Player) Close() error {
	if p.store == nil {
		return nil
	}
	return p.store.Close()
}

// Document returns the current reconstructed document tree, or nil before
// the first envelope.
func (p *Player) Document() *html.Node {
	return p.doc
}

// SessionID returns the session currently being replayed.
func (p *Player) SessionID() string {
	return p.sessionID
}

// HandleEnvelope applies one envelope's records, in order. The first
// envelope (or one carrying a new session ID) binds a fresh document.
// Sequence gaps are tolerated: the engine degrades to skipping dangling
// references, so the gap is logged and replay continues.
func (p *Player) HandleEnvelope(ctx context.Context, env *layout.Envelope) error {
	log := p.logger.With("session_id", env.SessionID, "seq", env.Seq)

	if p.doc == nil || (env.SessionID != "" && env.SessionID != p.sessionID) {
		if p.doc != nil {
			log.Info("player: new session, rebinding document", "previous", p.sessionID)
			if _, err := p.snapshot(ctx, "session_end"); err != nil {
				log.Warn("player: snapshot on session change failed", "error", err)
			}
		}
		p.bind(env)
		// The session row must exist before any snapshot insert: a doctype
		// reset inside this envelope snapshots ahead of the end-of-envelope
		// upsert, and snapshots.session_id is a foreign key.
		if err := p.persistSession(ctx); err != nil {
			log.Warn("player: session upsert failed", "error", err)
		}
	}

	if p.lastSeq != 0 && env.Seq != p.lastSeq+1 {
		p.gaps++
		log.Warn("player: sequence gap", "last_seq", p.lastSeq)
	}
	p.lastSeq = env.Seq

	for i := range env.Records {
		rec := &env.Records[i]
		if isReset(rec) && p.records > 0 {
			if _, err := p.snapshot(ctx, "reset"); err != nil {
				log.Warn("player: snapshot on reset failed", "error", err)
			}
		}
		p.engine.Render(rec)
		p.records++
	}
	p.envelopes++

	if err := p.persistSession(ctx); err != nil {
		log.Warn("player: session upsert failed", "error", err)
	}

	log.Debug("player: envelope applied", "records", len(env.Records))
	return nil
}

// ReplayStream decodes a JSON-lines session stream and applies every
// envelope, then takes a final snapshot.
func (p *Player) ReplayStream(ctx context.Context, r io.Reader) error {
	err := layout.ReadStream(r, func(env *layout.Envelope) error {
		return p.HandleEnvelope(ctx, env)
	})
	if err != nil {
		return fmt.Errorf("player: replay stream: %w", err)
	}
	if p.doc != nil {
		if _, err := p.snapshot(ctx, "end_of_stream"); err != nil {
			return fmt.Errorf("player: final snapshot: %w", err)
		}
	}
	return nil
}

// Snapshot serialises the current document and stores it when the archive
// is open. Content identical to an already-archived snapshot of the same
// session is deduplicated.
func (p *Player) Snapshot(ctx context.Context, reason string) (*Snapshot, error) {
	return p.snapshot(ctx, reason)
}

func (p *Player) bind(env *layout.Envelope) {
	p.doc = &html.Node{Type: html.DocumentNode}
	p.sessionID = env.SessionID
	if p.sessionID == "" {
		p.sessionID = p.newID()
	}
	p.baseURL = env.BaseURL
	p.firstSeq = env.Seq
	p.lastSeq = 0
	p.envelopes = 0
	p.records = 0
	p.gaps = 0
	p.engine.Setup(p.doc, nil, env.BaseURL)
}

func (p *Player) snapshot(ctx context.Context, reason string) (*Snapshot, error) {
	if p.doc == nil {
		return nil, fmt.Errorf("player: no document to snapshot")
	}
	safe, err := p.exp.SafeHTML(p.doc)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		ID:        p.newID(),
		SessionID: p.sessionID,
		Seq:       p.lastSeq,
		Reason:    reason,
		HTML:      safe,
		HTMLHash:  layout.HashHTML(safe),
	}
	if p.store != nil {
		written, err := p.store.InsertSnapshot(ctx, snap)
		if err != nil {
			return nil, err
		}
		if !written {
			p.logger.Debug("player: snapshot deduplicated",
				"session_id", p.sessionID, "hash", snap.HTMLHash)
		}
	}
	return snap, nil
}

func (p *Player) persistSession(ctx context.Context) error {
	if p.store == nil {
		return nil
	}
	return p.store.UpsertSession(ctx, &Session{
		ID:        p.sessionID,
		BaseURL:   p.baseURL,
		FirstSeq:  p.firstSeq,
		LastSeq:   p.lastSeq,
		Envelopes: p.envelopes,
		Records:   p.records,
		Skipped:   p.engine.SkippedOps(),
	})
}

func isReset(rec *layout.Record) bool {
	return rec.Action == layout.ActionInsert && rec.Tag == layout.TagDoctype
}

// ListSessions returns archived sessions, most recent first.
func (p *Player) ListSessions(ctx context.Context, limit int) ([]*Session, error) {
	if p.store == nil {
		return nil, fmt.Errorf("player: archive disabled")
	}
	return p.store.ListSessions(ctx, limit)
}

// GetSession returns an archived session by ID, or nil when unknown.
func (p *Player) GetSession(ctx context.Context, id string) (*Session, error) {
	if p.store == nil {
		return nil, fmt.Errorf("player: archive disabled")
	}
	return p.store.GetSession(ctx, id)
}

// ListSnapshots returns a session's archived snapshots without payloads,
// capped at the configured snapshot limit.
func (p *Player) ListSnapshots(ctx context.Context, sessionID string) ([]*Snapshot, error) {
	if p.store == nil {
		return nil, fmt.Errorf("player: archive disabled")
	}
	return p.store.ListSnapshots(ctx, sessionID, p.config.SnapshotLimit)
}

// GetSnapshot returns an archived snapshot including its HTML, or nil when
// unknown.
func (p *Player) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	if p.store == nil {
		return nil, fmt.Errorf("player: archive disabled")
	}
	return p.store.GetSnapshot(ctx, id)
}

// SnapshotMarkdown converts an archived snapshot to Markdown.
func (p *Player) SnapshotMarkdown(ctx context.Context, id string) (string, error) {
	snap, err := p.GetSnapshot(ctx, id)
	if err != nil {
		return "", err
	}
	if snap == nil {
		return "", fmt.Errorf("player: snapshot %s not found", id)
	}
	return p.exp.MarkdownBytes(snap.HTML)
}

// Stats holds per-session replay counters.
type Stats struct {
	Session   *Session `json:"session"`
	Snapshots int      `json:"snapshots"`
}

// SessionStats returns counters for an archived session.
func (p *Player) SessionStats(ctx context.Context, sessionID string) (*Stats, error) {
	sess, err := p.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("player: session %s not found", sessionID)
	}
	n, err := p.store.CountSnapshots(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &Stats{Session: sess, Snapshots: n}, nil
}
