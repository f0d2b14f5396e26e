package driven

import (
	"context"
	"errors"
	"io"
)

// ErrInvalidBackup indicates an uploaded database failed validation. The live
// database is left untouched when this is returned.
var ErrInvalidBackup = errors.New("invalid database backup")

// DatabaseStore defines the driven port for whole-database backup and restore.
type DatabaseStore interface {
	// Backup writes a consistent snapshot of the database to w.
	Backup(ctx context.Context, w io.Writer) error
	// Restore validates the database image read from r and, only if it is
	// valid, replaces the live content with it atomically.
	Restore(ctx context.Context, r io.Reader) error
}
