// Package badgerkv stores collections in an embedded badger database.
package badgerkv

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/MrJamesThe3rd/gridshare/internal/persistence"
)

const (
	valuePrefix   = "collection:"
	versionPrefix = "version:"
)

type Backend struct {
	db *badger.DB
}

func New(db *badger.DB) *Backend {
	return &Backend{db: db}
}

// Open opens (or creates) a badger database in dir. An empty dir opens an
// in-memory database.
func Open(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger at %q: %w", dir, err)
	}

	return db, nil
}

func (b *Backend) Get(_ context.Context, key string) (persistence.Record, error) {
	var rec persistence.Record

	err := b.db.View(func(txn *badger.Txn) error {
		version, err := readVersion(txn, key)
		if err != nil {
			return err
		}

		rec.Version = version

		item, err := txn.Get([]byte(valuePrefix + key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}

			return err
		}

		rec.Value, err = item.ValueCopy(nil)

		return err
	})
	if err != nil {
		return persistence.Record{}, fmt.Errorf("reading %s: %w", key, err)
	}

	return rec, nil
}

func (b *Backend) Commit(_ context.Context, writes []persistence.Write) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		for _, w := range writes {
			version, err := readVersion(txn, w.Key)
			if err != nil {
				return err
			}

			if version != w.Expected {
				return fmt.Errorf("%s at version %d, expected %d: %w", w.Key, version, w.Expected, persistence.ErrVersionConflict)
			}

			if err := txn.Set([]byte(valuePrefix+w.Key), w.Value); err != nil {
				return err
			}

			if err := txn.Set([]byte(versionPrefix+w.Key), int64ToBytes(w.Expected+1)); err != nil {
				return err
			}
		}

		return nil
	})
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("concurrent badger transaction: %w", persistence.ErrVersionConflict)
	}

	return err
}

func readVersion(txn *badger.Txn, key string) (int64, error) {
	item, err := txn.Get([]byte(versionPrefix + key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, nil
		}

		return 0, err
	}

	var version int64

	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("version of %s has %d bytes", key, len(val))
		}

		version = bytesToInt64(val)

		return nil
	})

	return version, err
}

func int64ToBytes(v int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(v))

	return buf
}

func bytesToInt64(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}
