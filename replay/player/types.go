package player

import "github.com/Microsoft/clarity-tools/replay/internal/archive"

// Re-exported types from internal/archive for use by cmd/, the viewer, and
// external callers.
type (
	Session  = archive.Session
	Snapshot = archive.Snapshot
)
