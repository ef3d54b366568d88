package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Collection is a decoded list together with the version it was read at.
type Collection[T any] struct {
	Items   []T
	Version int64
}

// Checker is implemented by element types that can tell whether a decoded
// value is well formed.
type Checker interface {
	Check() error
}

// Entry is one collection to be written by Save.
type Entry struct {
	Key   string
	Items any
	// Version is the version the collection was loaded at.
	Version int64
}

// Adapter reads and writes JSON collections on a Backend.
type Adapter struct {
	backend Backend
	logger  *slog.Logger
}

func NewAdapter(backend Backend, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}

	return &Adapter{backend: backend, logger: logger}
}

// Load reads key as a []T. Missing, malformed, or ill-shaped data yields an
// empty collection at the stored version so the caller can still overwrite
// it. Only backend failures are returned as errors.
func Load[T any](ctx context.Context, a *Adapter, key string) (Collection[T], error) {
	rec, err := a.backend.Get(ctx, key)
	if err != nil {
		return Collection[T]{}, fmt.Errorf("reading %s: %w", key, err)
	}

	empty := Collection[T]{Items: []T{}, Version: rec.Version}

	if len(rec.Value) == 0 {
		return empty, nil
	}

	var items []T
	if err := json.Unmarshal(rec.Value, &items); err != nil {
		a.logger.Warn("discarding malformed collection", "key", key, "error", err)
		return empty, nil
	}

	if items == nil {
		return empty, nil
	}

	for i := range items {
		c, ok := any(&items[i]).(Checker)
		if !ok {
			break
		}

		if err := c.Check(); err != nil {
			a.logger.Warn("discarding collection with invalid element", "key", key, "index", i, "error", err)
			return empty, nil
		}
	}

	return Collection[T]{Items: items, Version: rec.Version}, nil
}

// Save encodes every entry and commits them as one batch. Either all
// entries are stored or none are.
func (a *Adapter) Save(ctx context.Context, entries ...Entry) error {
	writes := make([]Write, 0, len(entries))

	for _, e := range entries {
		data, err := json.Marshal(e.Items)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", e.Key, err)
		}

		writes = append(writes, Write{Key: e.Key, Value: data, Expected: e.Version})
	}

	if err := a.backend.Commit(ctx, writes); err != nil {
		return fmt.Errorf("committing %d collections: %w", len(writes), err)
	}

	return nil
}
