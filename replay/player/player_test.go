package player

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/Microsoft/clarity-tools/export"
	"github.com/Microsoft/clarity-tools/replay/layout"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPlayer(t *testing.T, cfg *Config) *Player {
	t.Helper()
	p, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("player.New: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func pageEnvelope(seq uint64) *layout.Envelope {
	return &layout.Envelope{
		ID:        "env-" + string(rune('a'+seq)),
		SessionID: "sess-1",
		Seq:       seq,
		BaseURL:   "https://example.com/",
		Records: []layout.Record{
			{Action: layout.ActionInsert, Index: 1, Tag: layout.TagDoctype, Attributes: map[string]string{"name": "html"}},
			{Action: layout.ActionInsert, Index: 2, Parent: 1, Tag: "HTML"},
			{Action: layout.ActionInsert, Index: 3, Parent: 2, Tag: "HEAD"},
			{Action: layout.ActionInsert, Index: 4, Parent: 2, Tag: "BODY"},
			{Action: layout.ActionInsert, Index: 5, Parent: 4, Tag: "P"},
			{Action: layout.ActionInsert, Index: 6, Parent: 5, Tag: layout.TagText, Content: "hello replay"},
		},
	}
}

func TestHandleEnvelopeReconstructs(t *testing.T) {
	p := testPlayer(t, nil)
	ctx := context.Background()

	if err := p.HandleEnvelope(ctx, pageEnvelope(1)); err != nil {
		t.Fatal(err)
	}

	out, err := export.HTML(p.Document())
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if !strings.Contains(s, "<!DOCTYPE html>") {
		t.Errorf("missing doctype: %s", s)
	}
	if !strings.Contains(s, "<p>hello replay</p>") {
		t.Errorf("missing reconstructed paragraph: %s", s)
	}
	if !strings.Contains(s, `<base href="https://example.com/"`) {
		t.Errorf("missing injected base: %s", s)
	}
	if p.SessionID() != "sess-1" {
		t.Errorf("session: got %q", p.SessionID())
	}
}

func TestReplayStreamArchives(t *testing.T) {
	cfg := &Config{DBPath: filepath.Join(t.TempDir(), "replay.db")}
	p := testPlayer(t, cfg)
	ctx := context.Background()

	e1, _ := layout.MarshalEnvelope(pageEnvelope(1))
	follow := &layout.Envelope{
		SessionID: "sess-1",
		Seq:       2,
		Records: []layout.Record{
			{Action: layout.ActionUpdate, Index: 6, Tag: layout.TagText, Content: "changed"},
		},
	}
	e2, _ := layout.MarshalEnvelope(follow)
	stream := strings.NewReader(string(e1) + "\n" + string(e2) + "\n")

	if err := p.ReplayStream(ctx, stream); err != nil {
		t.Fatal(err)
	}

	sessions, err := p.ListSessions(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 {
		t.Fatalf("sessions: got %d, want 1", len(sessions))
	}
	sess := sessions[0]
	if sess.ID != "sess-1" {
		t.Errorf("session id: got %q", sess.ID)
	}
	if sess.Envelopes != 2 {
		t.Errorf("envelopes: got %d, want 2", sess.Envelopes)
	}
	if sess.Records != 7 {
		t.Errorf("records: got %d, want 7", sess.Records)
	}

	snaps, err := p.ListSnapshots(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) == 0 {
		t.Fatal("no snapshots archived")
	}

	full, err := p.GetSnapshot(ctx, snaps[len(snaps)-1].ID)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(full.HTML), "changed") {
		t.Errorf("final snapshot missing updated text: %s", full.HTML)
	}

	stats, err := p.SessionStats(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Snapshots != len(snaps) {
		t.Errorf("stats snapshots: got %d, want %d", stats.Snapshots, len(snaps))
	}
}

func TestSnapshotDedupAcrossCalls(t *testing.T) {
	cfg := &Config{DBPath: filepath.Join(t.TempDir(), "replay.db")}
	p := testPlayer(t, cfg)
	ctx := context.Background()

	if err := p.HandleEnvelope(ctx, pageEnvelope(1)); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Snapshot(ctx, "manual"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Snapshot(ctx, "manual"); err != nil {
		t.Fatal(err)
	}

	snaps, err := p.ListSnapshots(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 {
		t.Errorf("snapshots: got %d, want 1 (identical content deduplicated)", len(snaps))
	}
}

func TestResetSnapshotInFirstEnvelope(t *testing.T) {
	cfg := &Config{DBPath: filepath.Join(t.TempDir(), "replay.db")}
	p := testPlayer(t, cfg)
	ctx := context.Background()

	// Records precede the doctype inside the very first envelope, so the
	// reset snapshot fires before the end-of-envelope session upsert. The
	// session row must already exist or the snapshot's foreign key fails.
	env := &layout.Envelope{
		ID:        "env-a",
		SessionID: "sess-1",
		Seq:       1,
		Records: []layout.Record{
			{Action: layout.ActionInsert, Index: 1, Tag: "HTML"},
			{Action: layout.ActionInsert, Index: 2, Parent: 1, Tag: "BODY"},
			{Action: layout.ActionInsert, Index: 3, Tag: layout.TagDoctype, Attributes: map[string]string{"name": "html"}},
			{Action: layout.ActionInsert, Index: 4, Parent: 3, Tag: "HTML"},
		},
	}
	if err := p.HandleEnvelope(ctx, env); err != nil {
		t.Fatal(err)
	}

	snaps, err := p.ListSnapshots(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	var reasons []string
	for _, s := range snaps {
		reasons = append(reasons, s.Reason)
	}
	found := false
	for _, r := range reasons {
		if r == "reset" {
			found = true
		}
	}
	if !found {
		t.Errorf("reset snapshot not archived: reasons = %v", reasons)
	}
}

func TestSequenceGapTolerated(t *testing.T) {
	p := testPlayer(t, nil)
	ctx := context.Background()

	if err := p.HandleEnvelope(ctx, pageEnvelope(1)); err != nil {
		t.Fatal(err)
	}
	// Seq jumps from 1 to 5; replay continues.
	late := &layout.Envelope{
		SessionID: "sess-1",
		Seq:       5,
		Records: []layout.Record{
			{Action: layout.ActionInsert, Index: 7, Parent: 4, Tag: "DIV"},
		},
	}
	if err := p.HandleEnvelope(ctx, late); err != nil {
		t.Fatal(err)
	}
	if p.gaps != 1 {
		t.Errorf("gaps: got %d, want 1", p.gaps)
	}

	out, _ := export.HTML(p.Document())
	if !strings.Contains(string(out), "<div>") {
		t.Errorf("post-gap record not applied: %s", out)
	}
}

func TestNewSessionRebindsDocument(t *testing.T) {
	p := testPlayer(t, nil)
	ctx := context.Background()

	if err := p.HandleEnvelope(ctx, pageEnvelope(1)); err != nil {
		t.Fatal(err)
	}
	first := p.Document()

	other := pageEnvelope(1)
	other.SessionID = "sess-2"
	if err := p.HandleEnvelope(ctx, other); err != nil {
		t.Fatal(err)
	}
	if p.Document() == first {
		t.Error("new session should bind a fresh document")
	}
	if p.SessionID() != "sess-2" {
		t.Errorf("session: got %q, want sess-2", p.SessionID())
	}
}

func TestArchiveDisabledErrors(t *testing.T) {
	p := testPlayer(t, nil)
	if _, err := p.ListSessions(context.Background(), 0); err == nil {
		t.Error("want error when archive disabled")
	}
}
