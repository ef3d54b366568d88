package market

import "context"

// Version identifies the stored state of each collection.
type Version struct {
	Listings     int64
	Transactions int64
}

// Snapshot is the full persisted market state.
type Snapshot struct {
	Listings     []Listing
	Transactions []Transaction
	Version      Version
}

// Commit is one atomic state change. Only the collections flagged for writing
// are stored; each must still be at its Expected version.
type Commit struct {
	Listings          []Listing
	Transactions      []Transaction
	WriteListings     bool
	WriteTransactions bool
	Expected          Version
}

//go:generate mockgen -source=repository.go -destination=repository_mock.go -package=market
type Repository interface {
	Load(ctx context.Context) (Snapshot, error)
	// Commit stores the change and returns the versions now in effect.
	Commit(ctx context.Context, c Commit) (Version, error)
}
