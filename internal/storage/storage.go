package storage

import (
	"errors"
	"io"
)

var ErrNotFound = errors.New("storage: file not found")

// FileStore persists uploaded files under opaque generated names.
type FileStore interface {
	// Save stores the contents of r and returns the generated filename.
	// ext is the original file extension including the dot, or "".
	Save(r io.Reader, ext string) (string, error)

	// Open returns the stored file for reading. The name must be one
	// returned by Save; anything path-like is rejected.
	Open(name string) (io.ReadCloser, error)
}
