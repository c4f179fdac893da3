package storage

import (
	"context"
	"errors"
)

var (
	ErrNoKeys        = errors.New("no object keys given")
	ErrKeyOutsideDir = errors.New("object key escapes storage root")
)

// Remover deletes objects from a bucket in a single call and reports how many
// objects the backend confirmed as removed.
type Remover interface {
	Remove(ctx context.Context, keys []string) (int, error)
}
