package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested artifact does not exist.
var ErrNotFound = errors.New("not found")

// Storage is a flat store of tool artifacts addressed by relative path.
// Writes always replace the whole object.
type Storage interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Exists(ctx context.Context, path string) (bool, error)
	List(ctx context.Context) ([]string, error)
	// Location renders path the way a user would look it up.
	Location(path string) string
}
