// Package archive provides the SQLite persistence layer for reconstruction
// output: session metadata and serialised snapshots. It stores what the
// engine produced, never the captured record stream itself.
package archive

import (
	"database/sql"

	"github.com/Microsoft/clarity-tools/dbopen"
)

// Store is the replay archive database handle.
type Store struct {
	DB *sql.DB
}

// Open opens (or creates) the archive database at path, applies pragmas and
// the archive schema.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	allOpts := append([]dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(Schema),
	}, opts...)

	db, err := dbopen.Open(path, allOpts...)
	if err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}
