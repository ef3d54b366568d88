// Package store keeps market state in two persisted collections.
package store

import (
	"context"
	"fmt"

	"github.com/MrJamesThe3rd/gridshare/internal/market"
	"github.com/MrJamesThe3rd/gridshare/internal/persistence"
)

const (
	ListingsKey     = "gridshare_listings"
	TransactionsKey = "gridshare_transactions"
)

type Store struct {
	adapter *persistence.Adapter
}

func New(adapter *persistence.Adapter) *Store {
	return &Store{adapter: adapter}
}

func (s *Store) Load(ctx context.Context) (market.Snapshot, error) {
	listings, err := persistence.Load[market.Listing](ctx, s.adapter, ListingsKey)
	if err != nil {
		return market.Snapshot{}, fmt.Errorf("loading listings: %w", err)
	}

	txs, err := persistence.Load[market.Transaction](ctx, s.adapter, TransactionsKey)
	if err != nil {
		return market.Snapshot{}, fmt.Errorf("loading transactions: %w", err)
	}

	return market.Snapshot{
		Listings:     listings.Items,
		Transactions: txs.Items,
		Version: market.Version{
			Listings:     listings.Version,
			Transactions: txs.Version,
		},
	}, nil
}

func (s *Store) Commit(ctx context.Context, c market.Commit) (market.Version, error) {
	var entries []persistence.Entry

	next := c.Expected

	if c.WriteListings {
		entries = append(entries, persistence.Entry{Key: ListingsKey, Items: nonNil(c.Listings), Version: c.Expected.Listings})
		next.Listings++
	}

	if c.WriteTransactions {
		entries = append(entries, persistence.Entry{Key: TransactionsKey, Items: nonNil(c.Transactions), Version: c.Expected.Transactions})
		next.Transactions++
	}

	if len(entries) == 0 {
		return c.Expected, nil
	}

	if err := s.adapter.Save(ctx, entries...); err != nil {
		return market.Version{}, fmt.Errorf("saving market state: %w", err)
	}

	return next, nil
}

// nonNil keeps empty collections encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}

	return items
}
