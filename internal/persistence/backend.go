package persistence

import (
	"context"
	"errors"
)

// ErrVersionConflict is returned by Backend.Commit when a key was written by
// someone else since the caller read it. No write of the batch is applied.
var ErrVersionConflict = errors.New("persistence: version conflict")

// Record is a stored value with its write version. A missing key is the zero
// Record: nil Value, Version 0.
type Record struct {
	Value   []byte
	Version int64
}

// Write replaces Key with Value if the stored version still equals Expected.
type Write struct {
	Key      string
	Value    []byte
	Expected int64
}

//go:generate mockgen -source=backend.go -destination=backend_mock.go -package=persistence
type Backend interface {
	Get(ctx context.Context, key string) (Record, error)
	// Commit applies all writes atomically, bumping each key's version by one.
	Commit(ctx context.Context, writes []Write) error
}
