package persistent

import (
	"context"
	"errors"

	"content-planner/services/planner/internal/entity"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrNoChange returned from an update function skips the write.
	ErrNoChange = errors.New("no change")
)

// MutateFunc receives the current document of a kind and returns its
// replacement. Returning a nil document leaves the stored one untouched.
type MutateFunc func(current []byte, exists bool) ([]byte, error)

// Store persists one JSON array document per kind.
//
// Save replaces a document wholesale, so a Load followed by a Save races with
// other writers of the same kind and the last one wins. Mutate runs the whole
// read-modify-write cycle under an exclusive lock of the kind.
type Store interface {
	Load(ctx context.Context, kind entity.Kind) ([]byte, bool, error)
	Save(ctx context.Context, kind entity.Kind, data []byte) error
	Mutate(ctx context.Context, kind entity.Kind, fn MutateFunc) error
	Close() error
}
