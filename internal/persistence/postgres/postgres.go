// Package postgres stores collections as JSONB rows.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/gridshare/internal/persistence"
)

const schema = `
	CREATE TABLE IF NOT EXISTS collections (
		key        TEXT PRIMARY KEY,
		value      JSONB NOT NULL,
		version    BIGINT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

type Backend struct {
	db *sql.DB
}

func New(db *sql.DB) *Backend {
	return &Backend{db: db}
}

// EnsureSchema creates the collections table if it does not exist yet.
func (b *Backend) EnsureSchema(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating collections table: %w", err)
	}

	return nil
}

func (b *Backend) Get(ctx context.Context, key string) (persistence.Record, error) {
	var rec persistence.Record

	err := b.db.QueryRowContext(ctx,
		`SELECT value::text, version FROM collections WHERE key = $1`, key,
	).Scan(&rec.Value, &rec.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Record{}, nil
		}

		return persistence.Record{}, fmt.Errorf("reading %s: %w", key, err)
	}

	return rec, nil
}

func (b *Backend) Commit(ctx context.Context, writes []persistence.Write) error {
	dbTx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	for _, w := range writes {
		var res sql.Result

		if w.Expected == 0 {
			res, err = dbTx.ExecContext(ctx, `
				INSERT INTO collections (key, value, version, updated_at)
				VALUES ($1, $2::jsonb, 1, NOW())
				ON CONFLICT (key) DO NOTHING
			`, w.Key, string(w.Value))
		} else {
			res, err = dbTx.ExecContext(ctx, `
				UPDATE collections
				SET value = $1::jsonb, version = version + 1, updated_at = NOW()
				WHERE key = $2 AND version = $3
			`, string(w.Value), w.Key, w.Expected)
		}

		if err != nil {
			return fmt.Errorf("writing %s: %w", w.Key, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking write of %s: %w", w.Key, err)
		}

		if n == 0 {
			return fmt.Errorf("%s moved past version %d: %w", w.Key, w.Expected, persistence.ErrVersionConflict)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}
