package market_test

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/gridshare/internal/identity"
	"github.com/MrJamesThe3rd/gridshare/internal/market"
	"github.com/MrJamesThe3rd/gridshare/internal/market/seed"
	"github.com/MrJamesThe3rd/gridshare/internal/market/store"
	"github.com/MrJamesThe3rd/gridshare/internal/persistence"
	"github.com/MrJamesThe3rd/gridshare/internal/persistence/memory"
)

func seeder() market.Option {
	return market.WithSeeder(seed.New(seed.DefaultProfile(), rand.NewPCG(42, 42)))
}

func TestBootstrap_ColdStart(t *testing.T) {
	f := newFixture(t, seeder())

	listings := f.engine.SnapshotListings()
	txs := f.engine.SnapshotTransactions()
	require.Len(t, listings, 8)
	require.Len(t, txs, 10)

	for _, l := range listings {
		assert.True(t, l.Status.Valid(), l.Status)
		assert.True(t, l.EnergySource.Valid(), l.EnergySource)
	}

	for _, tx := range txs {
		assert.True(t, tx.Status.Valid(), tx.Status)
	}

	// The seed is durable and not repeated.
	reopened := newEngine(t, f.backend, f.clock, seeder())
	assert.Len(t, reopened.SnapshotListings(), 8)
	assert.Len(t, reopened.SnapshotTransactions(), 10)
}

func TestBootstrap_SkippedWhenAnyCollectionHasData(t *testing.T) {
	tests := []struct {
		name string
		key  string
		body string
	}{
		{
			name: "Listings",
			key:  store.ListingsKey,
			body: `[{"id":"L9","sellerId":"s","sellerName":"S","energyAmount":"1","pricePerKwh":"0.1","availableFrom":"2025-07-01T00:00:00Z","availableUntil":"2025-07-03T00:00:00Z","energySource":"wind","location":"x","status":"available","createdAt":"2025-07-01T00:00:00Z"}]`,
		},
		{
			name: "Transactions",
			key:  store.TransactionsKey,
			body: `[{"id":"T9","listingId":"L9","energyAmount":"1","pricePerKwh":"0.1","totalAmount":"0.1","status":"pending","timestamp":"2025-07-01T00:00:00Z","energySource":"wind"}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := memory.New()
			backend.Put(tt.key, []byte(tt.body))

			e := newEngine(t, backend, &clock{now: t0}, seeder())
			assert.Equal(t, 1, len(e.SnapshotListings())+len(e.SnapshotTransactions()))
		})
	}
}

func TestBootstrap_SeedsOverCorruptData(t *testing.T) {
	backend := memory.New()
	backend.Put(store.ListingsKey, []byte(`{not json`))

	e := newEngine(t, backend, &clock{now: t0}, seeder())
	assert.Len(t, e.SnapshotListings(), 8)
}

func TestBootstrap_UsesSignedInBuyer(t *testing.T) {
	repo := store.New(persistence.NewAdapter(memory.New(), quiet()))
	e := market.NewEngine(repo, identity.FromContext{},
		market.WithLogger(quiet()),
		market.WithClock(func() time.Time { return t0 }),
		seeder(),
	)

	require.NoError(t, e.Load(as(buyer)))

	for _, tx := range e.SnapshotTransactions() {
		assert.Equal(t, buyer.ID, tx.BuyerID)
	}
}

func TestBootstrap_ConcurrentInitializer(t *testing.T) {
	ctrl := gomock.NewController(t)

	theirs := market.Snapshot{
		Listings: []market.Listing{{
			ID: "theirs", SellerID: "s", SellerName: "S",
			EnergyAmount: dec("1"), PricePerKwh: dec("0.1"),
			AvailableFrom: t0, AvailableUntil: t0.Add(time.Hour),
			EnergySource: market.SourceWind, Status: market.ListingAvailable, CreatedAt: t0,
		}},
		Version: market.Version{Listings: 1},
	}

	repo := market.NewMockRepository(ctrl)
	gomock.InOrder(
		repo.EXPECT().Load(gomock.Any()).Return(market.Snapshot{}, nil),
		repo.EXPECT().Commit(gomock.Any(), gomock.Any()).Return(market.Version{}, persistence.ErrVersionConflict),
		repo.EXPECT().Load(gomock.Any()).Return(theirs, nil),
	)

	e := market.NewEngine(repo, identity.Static{}, market.WithLogger(quiet()), seeder())
	require.NoError(t, e.Load(context.Background()))

	got := e.SnapshotListings()
	require.Len(t, got, 1)
	assert.Equal(t, "theirs", got[0].ID)
	assert.Empty(t, e.SnapshotTransactions())
}
