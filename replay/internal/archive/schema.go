package archive

// Schema contains the complete DDL for the replay archive tables.
const Schema = `
-- Sessions: one row per replayed capture session
CREATE TABLE IF NOT EXISTS sessions (
    id          TEXT PRIMARY KEY,
    base_url    TEXT NOT NULL DEFAULT '',
    first_seq   INTEGER NOT NULL DEFAULT 0,
    last_seq    INTEGER NOT NULL DEFAULT 0,
    envelopes   INTEGER NOT NULL DEFAULT 0,
    records     INTEGER NOT NULL DEFAULT 0,
    skipped     INTEGER NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL
);

-- Snapshots: serialised reconstruction output, deduplicated by hash
CREATE TABLE IF NOT EXISTS snapshots (
    id          TEXT PRIMARY KEY,
    session_id  TEXT NOT NULL,
    seq         INTEGER NOT NULL DEFAULT 0,
    reason      TEXT NOT NULL DEFAULT '',
    html        BLOB NOT NULL,
    html_hash   TEXT NOT NULL,
    created_at  INTEGER NOT NULL,
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_snapshots_session ON snapshots(session_id, seq);
CREATE INDEX IF NOT EXISTS idx_snapshots_hash ON snapshots(session_id, html_hash);
`
