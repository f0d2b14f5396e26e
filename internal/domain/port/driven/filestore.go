package driven

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrFileNotFound indicates no stored file has the requested name.
	ErrFileNotFound = errors.New("file not found")

	// ErrFileExists is returned by Save when the name is already taken.
	ErrFileExists = errors.New("file already exists")

	// ErrInvalidFileName is returned for names that are empty or could
	// escape the store root.
	ErrInvalidFileName = errors.New("invalid file name")
)

// FileStore defines the driven port for uploaded certificate documents.
// Names are flat: they never contain path separators. Save never replaces
// an existing file.
type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}
