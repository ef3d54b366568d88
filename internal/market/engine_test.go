package market_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/gridshare/internal/identity"
	"github.com/MrJamesThe3rd/gridshare/internal/market"
	"github.com/MrJamesThe3rd/gridshare/internal/market/store"
	"github.com/MrJamesThe3rd/gridshare/internal/persistence"
)

func TestEngine_CreateListing(t *testing.T) {
	f := newFixture(t)

	first := f.list(t, "10", "0.1455")
	assert.Equal(t, "L1", first.ID)
	assert.Equal(t, seller.ID, first.SellerID)
	assert.Equal(t, seller.Name, first.SellerName)
	assert.Equal(t, market.ListingAvailable, first.Status)
	assert.Equal(t, "0.146", first.PricePerKwh.StringFixed(3))
	assert.True(t, first.CreatedAt.Equal(t0))
	assert.True(t, first.AvailableFrom.Equal(t0))

	f.clock.now = t0.Add(time.Minute)
	second := f.list(t, "3", "0.2")

	got := f.engine.SnapshotListings()
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)

	// A fresh engine on the same store sees the same order.
	reopened := newEngine(t, f.backend, f.clock)
	again := reopened.SnapshotListings()
	require.Len(t, again, 2)
	assert.Equal(t, second.ID, again[0].ID)
	assert.True(t, again[1].PricePerKwh.Equal(first.PricePerKwh))
}

func TestEngine_CreateListing_Errors(t *testing.T) {
	until := t0.Add(time.Hour)

	tests := []struct {
		name    string
		ctx     context.Context
		spec    market.ListingSpec
		wantErr error
	}{
		{
			name:    "Anonymous",
			ctx:     context.Background(),
			spec:    market.ListingSpec{EnergyAmount: dec("1"), PricePerKwh: dec("0.1"), EnergySource: market.SourceWind, AvailableUntil: until},
			wantErr: market.ErrNotAuthenticated,
		},
		{
			name:    "ZeroAmount",
			ctx:     as(seller),
			spec:    market.ListingSpec{EnergyAmount: dec("0"), PricePerKwh: dec("0.1"), EnergySource: market.SourceWind, AvailableUntil: until},
			wantErr: market.ErrInvalidSpec,
		},
		{
			name:    "AmountRoundsToZero",
			ctx:     as(seller),
			spec:    market.ListingSpec{EnergyAmount: dec("0.0004"), PricePerKwh: dec("0.1"), EnergySource: market.SourceWind, AvailableUntil: until},
			wantErr: market.ErrInvalidSpec,
		},
		{
			name:    "NegativePrice",
			ctx:     as(seller),
			spec:    market.ListingSpec{EnergyAmount: dec("1"), PricePerKwh: dec("-0.1"), EnergySource: market.SourceWind, AvailableUntil: until},
			wantErr: market.ErrInvalidSpec,
		},
		{
			name:    "InvertedWindow",
			ctx:     as(seller),
			spec:    market.ListingSpec{EnergyAmount: dec("1"), PricePerKwh: dec("0.1"), EnergySource: market.SourceWind, AvailableFrom: until, AvailableUntil: t0},
			wantErr: market.ErrInvalidSpec,
		},
		{
			name:    "EmptyWindow",
			ctx:     as(seller),
			spec:    market.ListingSpec{EnergyAmount: dec("1"), PricePerKwh: dec("0.1"), EnergySource: market.SourceWind, AvailableUntil: t0},
			wantErr: market.ErrInvalidSpec,
		},
		{
			name:    "UnknownSource",
			ctx:     as(seller),
			spec:    market.ListingSpec{EnergyAmount: dec("1"), PricePerKwh: dec("0.1"), EnergySource: "coal", AvailableUntil: until},
			wantErr: market.ErrInvalidSpec,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.engine.CreateListing(tt.ctx, tt.spec)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.engine.SnapshotListings())
		})
	}
}

func TestEngine_Purchase_SellsOut(t *testing.T) {
	f := newFixture(t)
	l := f.list(t, "10", "0.150")

	require.NoError(t, f.engine.PurchaseEnergy(as(buyer), l.ID, dec("10")))

	got, err := f.engine.Listing(l.ID)
	require.NoError(t, err)
	assert.True(t, got.EnergyAmount.IsZero())
	assert.Equal(t, market.ListingSold, got.Status)

	txs := f.engine.SnapshotTransactions()
	require.Len(t, txs, 1)
	assert.Equal(t, "1.50", txs[0].TotalAmount.StringFixed(2))
	assert.True(t, txs[0].TotalAmount.Equal(dec("1.5")))
}

func TestEngine_Purchase_Partial(t *testing.T) {
	f := newFixture(t)
	l := f.list(t, "10", "0.150")

	require.NoError(t, f.engine.PurchaseEnergy(as(buyer), l.ID, dec("4")))

	got, err := f.engine.Listing(l.ID)
	require.NoError(t, err)
	assert.True(t, got.EnergyAmount.Equal(dec("6")))
	assert.Equal(t, market.ListingAvailable, got.Status)

	txs := f.engine.SnapshotTransactions()
	require.Len(t, txs, 1)

	tx := txs[0]
	assert.Equal(t, "T2", tx.ID)
	assert.Equal(t, l.ID, tx.ListingID)
	assert.Equal(t, buyer.ID, tx.BuyerID)
	assert.Equal(t, buyer.Name, tx.BuyerName)
	assert.Equal(t, seller.ID, tx.SellerID)
	assert.Equal(t, seller.Name, tx.SellerName)
	assert.True(t, tx.PricePerKwh.Equal(l.PricePerKwh))
	assert.True(t, tx.TotalAmount.Equal(dec("0.6")))
	assert.Equal(t, market.TxConfirmed, tx.Status)
	assert.Equal(t, market.SourceSolar, tx.EnergySource)
	assert.Equal(t, "0xfeed", tx.TransactionHash)
	assert.Equal(t, int64(4242), tx.BlockNumber)
	assert.True(t, tx.Timestamp.Equal(t0))
}

func TestEngine_Purchase_RoundsOnlyTheRemainder(t *testing.T) {
	f := newFixture(t)
	l := f.list(t, "10", "0.150")

	require.NoError(t, f.engine.PurchaseEnergy(as(buyer), l.ID, dec("9.9996")))

	got, err := f.engine.Listing(l.ID)
	require.NoError(t, err)
	assert.True(t, got.EnergyAmount.IsZero())
	assert.Equal(t, market.ListingSold, got.Status)

	txs := f.engine.SnapshotTransactions()
	require.Len(t, txs, 1)
	assert.True(t, txs[0].EnergyAmount.Equal(dec("9.9996")))
	assert.True(t, txs[0].TotalAmount.Equal(dec("1.5")))
}

func TestEngine_Purchase_NewestTradeFirst(t *testing.T) {
	f := newFixture(t)
	l := f.list(t, "10", "0.1")

	require.NoError(t, f.engine.PurchaseEnergy(as(buyer), l.ID, dec("1")))
	require.NoError(t, f.engine.PurchaseEnergy(as(buyer), l.ID, dec("2")))

	txs := f.engine.SnapshotTransactions()
	require.Len(t, txs, 2)
	assert.True(t, txs[0].EnergyAmount.Equal(dec("2")))
	assert.True(t, txs[1].EnergyAmount.Equal(dec("1")))
}

func TestEngine_Purchase_ValidationOrder(t *testing.T) {
	f := newFixture(t)
	open := f.list(t, "5", "0.2")
	sold := f.list(t, "1", "0.2")
	require.NoError(t, f.engine.PurchaseEnergy(as(buyer), sold.ID, dec("1")))

	tests := []struct {
		name    string
		ctx     context.Context
		id      string
		amount  string
		wantErr error
	}{
		{name: "AnonymousBeatsEverything", ctx: context.Background(), id: "missing", amount: "0", wantErr: market.ErrNotAuthenticated},
		{name: "ZeroAmount", ctx: as(buyer), id: "missing", amount: "0", wantErr: market.ErrInvalidAmount},
		{name: "NegativeAmount", ctx: as(buyer), id: open.ID, amount: "-1", wantErr: market.ErrInvalidAmount},
		{name: "TinyAmountUnknownListing", ctx: as(buyer), id: "missing", amount: "0.0004", wantErr: market.ErrListingNotFound},
		{name: "UnknownListing", ctx: as(buyer), id: "missing", amount: "100", wantErr: market.ErrListingNotFound},
		{name: "SoldListing", ctx: as(buyer), id: sold.ID, amount: "100", wantErr: market.ErrListingUnavailable},
		{name: "TooMuch", ctx: as(buyer), id: open.ID, amount: "5.001", wantErr: market.ErrInsufficientQuantity},
		{name: "TooMuchBelowResolution", ctx: as(buyer), id: open.ID, amount: "5.0004", wantErr: market.ErrInsufficientQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.engine.PurchaseEnergy(tt.ctx, tt.id, dec(tt.amount))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Len(t, f.engine.SnapshotTransactions(), 1)
}

func TestEngine_Purchase_ZeroAmountChangesNothing(t *testing.T) {
	f := newFixture(t)
	l := f.list(t, "10", "0.150")

	err := f.engine.PurchaseEnergy(as(buyer), l.ID, dec("0"))
	require.ErrorIs(t, err, market.ErrInvalidAmount)

	got, err := f.engine.Listing(l.ID)
	require.NoError(t, err)
	assert.True(t, got.EnergyAmount.Equal(dec("10")))
	assert.Equal(t, market.ListingAvailable, got.Status)
	assert.Empty(t, f.engine.SnapshotTransactions())
}

func TestEngine_Purchase_InsufficientLeavesStateIdentical(t *testing.T) {
	f := newFixture(t)
	l := f.list(t, "10", "0.150")
	require.NoError(t, f.engine.PurchaseEnergy(as(buyer), l.ID, dec("3")))

	before := encodeState(t, f.engine)
	storedBefore, err := f.backend.Get(context.Background(), store.ListingsKey)
	require.NoError(t, err)

	err = f.engine.PurchaseEnergy(as(buyer), l.ID, dec("7.5"))
	require.ErrorIs(t, err, market.ErrInsufficientQuantity)

	assert.Equal(t, before, encodeState(t, f.engine))

	storedAfter, err := f.backend.Get(context.Background(), store.ListingsKey)
	require.NoError(t, err)
	assert.Equal(t, storedBefore, storedAfter)
}

func TestEngine_Purchase_ExpiredListing(t *testing.T) {
	f := newFixture(t)
	l := f.list(t, "10", "0.1")

	f.clock.now = l.AvailableUntil

	err := f.engine.PurchaseEnergy(as(buyer), l.ID, dec("1"))
	require.ErrorIs(t, err, market.ErrListingUnavailable)

	got, err := f.engine.Listing(l.ID)
	require.NoError(t, err)
	assert.Equal(t, market.ListingAvailable, got.Status, "expiry is not written back")
	assert.Equal(t, market.ListingExpired, got.EffectiveStatus(f.clock.now))
}

func TestEngine_Purchase_NotYetOpen(t *testing.T) {
	f := newFixture(t)

	l, err := f.engine.CreateListing(as(seller), market.ListingSpec{
		EnergyAmount:   dec("10"),
		PricePerKwh:    dec("0.1"),
		EnergySource:   market.SourceWind,
		AvailableFrom:  t0.Add(2 * time.Hour),
		AvailableUntil: t0.Add(4 * time.Hour),
	})
	require.NoError(t, err)

	err = f.engine.PurchaseEnergy(as(buyer), l.ID, dec("1"))
	require.ErrorIs(t, err, market.ErrListingUnavailable)
	assert.Empty(t, f.engine.SnapshotTransactions())

	f.clock.now = l.AvailableFrom
	require.NoError(t, f.engine.PurchaseEnergy(as(buyer), l.ID, dec("1")))
}

func TestEngine_Purchase_StaleAcrossEngines(t *testing.T) {
	f := newFixture(t)
	l := f.list(t, "10", "0.1")

	other := newEngine(t, f.backend, f.clock)

	require.NoError(t, f.engine.PurchaseEnergy(as(buyer), l.ID, dec("6")))

	err := other.PurchaseEnergy(as(buyer), l.ID, dec("6"))
	require.ErrorIs(t, err, market.ErrStaleState)

	// The conflict refreshed other; the first engine's trade is visible.
	require.Len(t, other.SnapshotTransactions(), 1)
	refreshed, err := other.Listing(l.ID)
	require.NoError(t, err)
	assert.True(t, refreshed.EnergyAmount.Equal(dec("4")))

	err = other.PurchaseEnergy(as(buyer), l.ID, dec("6"))
	require.ErrorIs(t, err, market.ErrInsufficientQuantity)

	require.NoError(t, other.PurchaseEnergy(as(buyer), l.ID, dec("4")))

	got, err := other.Listing(l.ID)
	require.NoError(t, err)
	assert.Equal(t, market.ListingSold, got.Status)
}

func TestEngine_ConflictThenRetrySucceeds(t *testing.T) {
	f := newFixture(t)
	other := newEngine(t, f.backend, f.clock)

	_, err := f.engine.CreateListing(as(seller), market.ListingSpec{
		EnergyAmount:   dec("3"),
		PricePerKwh:    dec("0.2"),
		EnergySource:   market.SourceWind,
		AvailableUntil: t0.Add(time.Hour),
	})
	require.NoError(t, err)

	spec := market.ListingSpec{
		EnergyAmount:   dec("1"),
		PricePerKwh:    dec("0.1"),
		EnergySource:   market.SourceSolar,
		AvailableUntil: t0.Add(time.Hour),
	}

	_, err = other.CreateListing(as(seller), spec)
	require.ErrorIs(t, err, market.ErrStaleState)

	created, err := other.CreateListing(as(seller), spec)
	require.NoError(t, err)

	listings := other.SnapshotListings()
	require.Len(t, listings, 2)
	assert.Equal(t, created.ID, listings[0].ID)

	require.NoError(t, f.engine.Reload(context.Background()))
	assert.Len(t, f.engine.SnapshotListings(), 2)
}

func TestEngine_CommitFailures(t *testing.T) {
	listing := market.Listing{
		ID:             "L1",
		SellerID:       seller.ID,
		SellerName:     seller.Name,
		EnergyAmount:   dec("10"),
		PricePerKwh:    dec("0.15"),
		AvailableFrom:  t0,
		AvailableUntil: t0.Add(time.Hour),
		EnergySource:   market.SourceHydro,
		Status:         market.ListingAvailable,
		CreatedAt:      t0,
	}

	tests := []struct {
		name      string
		commitErr error
		wantErr   error
		loads     int
	}{
		{name: "BackendDown", commitErr: errors.New("disk full"), wantErr: market.ErrCommitFailed, loads: 1},
		{name: "Conflict", commitErr: persistence.ErrVersionConflict, wantErr: market.ErrStaleState, loads: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			repo := market.NewMockRepository(ctrl)
			repo.EXPECT().Load(gomock.Any()).Return(market.Snapshot{
				Listings: []market.Listing{listing},
				Version:  market.Version{Listings: 3, Transactions: 2},
			}, nil).Times(tt.loads)
			repo.EXPECT().
				Commit(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, c market.Commit) (market.Version, error) {
					assert.Equal(t, market.Version{Listings: 3, Transactions: 2}, c.Expected)
					return market.Version{}, tt.commitErr
				}).
				Times(2)

			e := market.NewEngine(repo, identity.FromContext{},
				market.WithClock(func() time.Time { return t0 }),
				market.WithLogger(quiet()),
			)
			require.NoError(t, e.Load(context.Background()))

			before := encodeState(t, e)

			err := e.PurchaseEnergy(as(buyer), "L1", dec("4"))
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, encodeState(t, e))

			_, err = e.CreateListing(as(seller), market.ListingSpec{
				EnergyAmount:   dec("1"),
				PricePerKwh:    dec("0.1"),
				EnergySource:   market.SourceWind,
				AvailableUntil: t0.Add(time.Hour),
			})
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, encodeState(t, e))
		})
	}
}

func TestEngine_Purchase_CommitsBothCollections(t *testing.T) {
	ctrl := gomock.NewController(t)

	listing := market.Listing{
		ID: "L1", SellerID: "s", SellerName: "S",
		EnergyAmount: dec("2"), PricePerKwh: dec("0.3"),
		AvailableFrom: t0, AvailableUntil: t0.Add(time.Hour),
		EnergySource: market.SourceMixed, Status: market.ListingAvailable, CreatedAt: t0,
	}

	repo := market.NewMockRepository(ctrl)
	repo.EXPECT().Load(gomock.Any()).Return(market.Snapshot{Listings: []market.Listing{listing}}, nil)
	repo.EXPECT().
		Commit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c market.Commit) (market.Version, error) {
			assert.True(t, c.WriteListings)
			assert.True(t, c.WriteTransactions)
			require.Len(t, c.Listings, 1)
			require.Len(t, c.Transactions, 1)
			assert.Equal(t, market.ListingSold, c.Listings[0].Status)
			assert.True(t, c.Transactions[0].TotalAmount.Equal(dec("0.6")))
			return market.Version{Listings: 1, Transactions: 1}, nil
		})

	e := market.NewEngine(repo, identity.Static(buyer),
		market.WithClock(func() time.Time { return t0 }),
		market.WithLogger(quiet()),
	)
	require.NoError(t, e.Load(context.Background()))
	require.NoError(t, e.PurchaseEnergy(context.Background(), "L1", dec("2")))
}

func TestEngine_Load(t *testing.T) {
	t.Run("LoadingUntilFirstLoad", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		repo := market.NewMockRepository(ctrl)
		repo.EXPECT().Load(gomock.Any()).Return(market.Snapshot{}, nil)

		e := market.NewEngine(repo, identity.Static{}, market.WithLogger(quiet()))
		assert.True(t, e.IsLoading())

		require.NoError(t, e.Load(context.Background()))
		assert.False(t, e.IsLoading())
	})

	t.Run("BackendError", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		repo := market.NewMockRepository(ctrl)
		repo.EXPECT().Load(gomock.Any()).Return(market.Snapshot{}, errors.New("connection refused"))

		e := market.NewEngine(repo, identity.Static{}, market.WithLogger(quiet()))
		require.Error(t, e.Load(context.Background()))
		assert.True(t, e.IsLoading())
	})
}

func encodeState(t *testing.T, e *market.Engine) string {
	t.Helper()

	data, err := json.Marshal(struct {
		Listings     []market.Listing
		Transactions []market.Transaction
	}{e.SnapshotListings(), e.SnapshotTransactions()})
	require.NoError(t, err)

	return string(data)
}
