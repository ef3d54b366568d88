package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/gridshare/internal/identity"
	"github.com/MrJamesThe3rd/gridshare/internal/persistence"
)

// Seeder produces the initial data set for an empty store. buyer is nil when
// nobody is signed in.
type Seeder interface {
	Seed(now time.Time, buyer *identity.Identity) ([]Listing, []Transaction)
}

// Recorder observes engine outcomes.
type Recorder interface {
	ListingCreated(l Listing)
	PurchaseSucceeded(tx Transaction)
	PurchaseFailed(err error)
	CommitObserved(d time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) ListingCreated(Listing) {}
func (nopRecorder) PurchaseSucceeded(Transaction) {}
func (nopRecorder) PurchaseFailed(error) {}
func (nopRecorder) CommitObserved(time.Duration, error) {}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithRefs(refs RefGenerator) Option {
	return func(e *Engine) { e.refs = refs }
}

func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithSeeder enables bootstrap seeding on Load.
func WithSeeder(s Seeder) Option {
	return func(e *Engine) { e.seeder = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine owns the listing store and the ledger and applies every change to
// them. Calls are serialized; each one completes before the next starts.
type Engine struct {
	mu sync.Mutex

	repo     Repository
	identity identity.Provider
	refs     RefGenerator
	seeder   Seeder
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time

	listings *ListingStore
	ledger   *Ledger
	version  Version
	loading  bool
}

func NewEngine(repo Repository, ids identity.Provider, opts ...Option) *Engine {
	e := &Engine{
		repo:     repo,
		identity: ids,
		refs:     RandomRefs{},
		recorder: nopRecorder{},
		logger:   slog.Default(),
		now:      func() time.Time { return time.Now().UTC().Round(0) },
		listings: newListingStore(nil),
		ledger:   newLedger(nil),
		loading:  true,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Load reads the persisted state and, when both collections are empty and a
// seeder is configured, stores the bootstrap data set. The seeding identity
// is resolved from ctx.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := e.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading market: %w", err)
	}

	if e.seeder != nil && len(snap.Listings) == 0 && len(snap.Transactions) == 0 {
		seeded, err := e.seed(ctx, snap.Version)
		switch {
		case errors.Is(err, persistence.ErrVersionConflict):
			// Someone else initialized the store first.
			e.logger.Info("store initialized concurrently, reloading")

			if snap, err = e.repo.Load(ctx); err != nil {
				return fmt.Errorf("reloading market: %w", err)
			}
		case err != nil:
			return fmt.Errorf("seeding market: %w", err)
		default:
			snap = seeded
		}
	}

	e.apply(snap)

	return nil
}

func (e *Engine) seed(ctx context.Context, at Version) (Snapshot, error) {
	var buyer *identity.Identity
	if who, ok := e.identity.Current(ctx); ok {
		buyer = &who
	}

	listings, txs := e.seeder.Seed(e.now(), buyer)

	v, err := e.commit(ctx, Commit{
		Listings:          listings,
		Transactions:      txs,
		WriteListings:     true,
		WriteTransactions: true,
		Expected:          at,
	})
	if err != nil {
		return Snapshot{}, err
	}

	e.logger.Info("seeded empty market", "listings", len(listings), "transactions", len(txs))

	return Snapshot{Listings: listings, Transactions: txs, Version: v}, nil
}

// Reload replaces the in-memory state with what is currently stored. It
// never seeds.
func (e *Engine) Reload(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := e.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("reloading market: %w", err)
	}

	e.apply(snap)

	return nil
}

func (e *Engine) apply(snap Snapshot) {
	e.listings = newListingStore(snap.Listings)
	e.ledger = newLedger(snap.Transactions)
	e.version = snap.Version
	e.loading = false
}

// IsLoading reports whether the first Load has not completed yet.
func (e *Engine) IsLoading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.loading
}

func (e *Engine) SnapshotListings() []Listing {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.listings.Snapshot()
}

func (e *Engine) SnapshotTransactions() []Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.ledger.Snapshot()
}

func (e *Engine) Listing(id string) (Listing, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, ok := e.listings.Get(id)
	if !ok {
		return Listing{}, fmt.Errorf("listing %s: %w", id, ErrListingNotFound)
	}

	return l, nil
}

// QueryListings returns the listings matching q, ordered as q asks.
func (e *Engine) QueryListings(q ListingQuery) []Listing {
	e.mu.Lock()
	defer e.mu.Unlock()

	return q.Apply(e.listings.Snapshot(), e.now())
}

// Now is the engine clock.
func (e *Engine) Now() time.Time {
	return e.now()
}

// CreateListing offers energy for sale on behalf of the identity in ctx. The
// new listing becomes the head of the listing store.
func (e *Engine) CreateListing(ctx context.Context, spec ListingSpec) (Listing, error) {
	seller, ok := e.identity.Current(ctx)
	if !ok {
		return Listing{}, ErrNotAuthenticated
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()

	spec, err := spec.normalize(now)
	if err != nil {
		return Listing{}, err
	}

	listing := Listing{
		ID:             e.refs.ListingID(),
		SellerID:       seller.ID,
		SellerName:     seller.Name,
		EnergyAmount:   spec.EnergyAmount,
		PricePerKwh:    spec.PricePerKwh,
		AvailableFrom:  spec.AvailableFrom,
		AvailableUntil: spec.AvailableUntil,
		EnergySource:   spec.EnergySource,
		Location:       spec.Location,
		Status:         ListingAvailable,
		CreatedAt:      now,
	}

	next := e.listings.withCreated(listing)

	v, err := e.commit(ctx, Commit{
		Listings:      next,
		WriteListings: true,
		Expected:      e.version,
	})
	if err != nil {
		return Listing{}, e.commitError(ctx, err)
	}

	e.listings.set(next)
	e.version = v
	e.recorder.ListingCreated(listing)

	e.logger.Info("listing created", "id", listing.ID, "seller", seller.ID, "kwh", listing.EnergyAmount.String())

	return listing, nil
}

// PurchaseEnergy buys amount kWh from a listing for the identity in ctx. The
// trade is recorded and the listing decremented in one commit; on any error
// neither happens.
func (e *Engine) PurchaseEnergy(ctx context.Context, listingID string, amount decimal.Decimal) error {
	err := e.purchase(ctx, listingID, amount)
	if err != nil {
		e.recorder.PurchaseFailed(err)
	}

	return err
}

func (e *Engine) purchase(ctx context.Context, listingID string, amount decimal.Decimal) error {
	buyer, ok := e.identity.Current(ctx)
	if !ok {
		return ErrNotAuthenticated
	}

	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	listing, ok := e.listings.Get(listingID)
	if !ok {
		return fmt.Errorf("listing %s: %w", listingID, ErrListingNotFound)
	}

	now := e.now()

	if status := listing.EffectiveStatus(now); status != ListingAvailable {
		return fmt.Errorf("listing %s is %s: %w", listingID, status, ErrListingUnavailable)
	}

	if now.Before(listing.AvailableFrom) {
		return fmt.Errorf("listing %s opens at %s: %w", listingID, listing.AvailableFrom.Format(time.RFC3339), ErrListingUnavailable)
	}

	if amount.GreaterThan(listing.EnergyAmount) {
		return fmt.Errorf("requested %s kWh of %s: %w", amount, listing.EnergyAmount, ErrInsufficientQuantity)
	}

	ref := e.refs.Settlement()

	tx := Transaction{
		ID:              e.refs.TransactionID(),
		ListingID:       listing.ID,
		BuyerID:         buyer.ID,
		BuyerName:       buyer.Name,
		SellerID:        listing.SellerID,
		SellerName:      listing.SellerName,
		EnergyAmount:    amount,
		PricePerKwh:     listing.PricePerKwh,
		TotalAmount:     Total(listing.PricePerKwh, amount),
		TransactionHash: ref.TransactionHash,
		BlockNumber:     ref.BlockNumber,
		Status:          TxConfirmed,
		Timestamp:       now,
		EnergySource:    listing.EnergySource,
	}

	updated := listing
	updated.EnergyAmount = RoundQuantity(listing.EnergyAmount.Sub(amount))

	if !updated.EnergyAmount.IsPositive() {
		updated.EnergyAmount = decimal.Zero
		updated.Status = ListingSold
	}

	nextListings := e.listings.withReplaced(updated)
	nextLedger := e.ledger.withAppended(tx)

	v, err := e.commit(ctx, Commit{
		Listings:          nextListings,
		Transactions:      nextLedger,
		WriteListings:     true,
		WriteTransactions: true,
		Expected:          e.version,
	})
	if err != nil {
		return e.commitError(ctx, err)
	}

	e.listings.set(nextListings)
	e.ledger.set(nextLedger)
	e.version = v
	e.recorder.PurchaseSucceeded(tx)

	e.logger.Info("energy purchased",
		"tx", tx.ID, "listing", listing.ID, "buyer", buyer.ID,
		"kwh", amount.String(), "total", tx.TotalAmount.String(),
	)

	return nil
}

func (e *Engine) commit(ctx context.Context, c Commit) (Version, error) {
	start := time.Now()
	v, err := e.repo.Commit(ctx, c)
	e.recorder.CommitObserved(time.Since(start), err)

	if err != nil {
		e.logger.Error("commit failed", "error", err)
	}

	return v, err
}

// commitError maps a failed commit. After a version conflict the in-memory
// state is replaced with the stored one so that a retry sees it.
func (e *Engine) commitError(ctx context.Context, err error) error {
	if !errors.Is(err, persistence.ErrVersionConflict) {
		return fmt.Errorf("%w: %w", ErrCommitFailed, err)
	}

	snap, loadErr := e.repo.Load(ctx)
	if loadErr != nil {
		e.logger.Error("reloading stale market", "error", loadErr)
	} else {
		e.apply(snap)
		e.logger.Info("market reloaded after conflict", "listings", len(snap.Listings))
	}

	return fmt.Errorf("%w: %w", ErrStaleState, err)
}
