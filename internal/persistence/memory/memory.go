// Package memory is a process-local persistence backend.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrJamesThe3rd/gridshare/internal/persistence"
)

type Backend struct {
	mu   sync.RWMutex
	data map[string]persistence.Record
}

func New() *Backend {
	return &Backend{data: make(map[string]persistence.Record)}
}

func (b *Backend) Get(_ context.Context, key string) (persistence.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec := b.data[key]

	return persistence.Record{Value: clone(rec.Value), Version: rec.Version}, nil
}

func (b *Backend) Commit(_ context.Context, writes []persistence.Write) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		if got := b.data[w.Key].Version; got != w.Expected {
			return fmt.Errorf("%s at version %d, expected %d: %w", w.Key, got, w.Expected, persistence.ErrVersionConflict)
		}
	}

	for _, w := range writes {
		b.data[w.Key] = persistence.Record{Value: clone(w.Value), Version: w.Expected + 1}
	}

	return nil
}

// Put stores raw bytes under key, bypassing version checks. Tests use it to
// plant corrupt data.
func (b *Backend) Put(key string, value []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data[key] = persistence.Record{Value: clone(value), Version: b.data[key].Version + 1}
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}

	return append([]byte(nil), b...)
}
