package market_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/gridshare/internal/identity"
	"github.com/MrJamesThe3rd/gridshare/internal/market"
	"github.com/MrJamesThe3rd/gridshare/internal/market/store"
	"github.com/MrJamesThe3rd/gridshare/internal/persistence"
	"github.com/MrJamesThe3rd/gridshare/internal/persistence/memory"
)

var (
	t0     = time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	seller = identity.Identity{ID: "seller-1", Name: "Sunny Solar Co."}
	buyer  = identity.Identity{ID: "buyer-1", Name: "Ada"}
)

type seqRefs struct {
	mu sync.Mutex
	n  int
}

func (r *seqRefs) next(prefix string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.n++

	return fmt.Sprintf("%s%d", prefix, r.n)
}

func (r *seqRefs) ListingID() string     { return r.next("L") }
func (r *seqRefs) TransactionID() string { return r.next("T") }

func (r *seqRefs) Settlement() market.Settlement {
	return market.Settlement{TransactionHash: "0xfeed", BlockNumber: 4242}
}

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func as(who identity.Identity) context.Context {
	return identity.WithIdentity(context.Background(), who)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	engine  *market.Engine
	backend *memory.Backend
	clock   *clock
}

func newFixture(t *testing.T, opts ...market.Option) *fixture {
	t.Helper()

	backend := memory.New()
	c := &clock{now: t0}

	return &fixture{
		engine:  newEngine(t, backend, c, opts...),
		backend: backend,
		clock:   c,
	}
}

func newEngine(t *testing.T, backend persistence.Backend, c *clock, opts ...market.Option) *market.Engine {
	t.Helper()

	repo := store.New(persistence.NewAdapter(backend, quiet()))
	opts = append([]market.Option{
		market.WithClock(c.Now),
		market.WithRefs(&seqRefs{}),
		market.WithLogger(quiet()),
	}, opts...)

	e := market.NewEngine(repo, identity.FromContext{}, opts...)
	require.NoError(t, e.Load(context.Background()))

	return e
}

// list creates a listing offering amount kWh at price, open for a day.
func (f *fixture) list(t *testing.T, amount, price string) market.Listing {
	t.Helper()

	l, err := f.engine.CreateListing(as(seller), market.ListingSpec{
		EnergyAmount:   dec(amount),
		PricePerKwh:    dec(price),
		EnergySource:   market.SourceSolar,
		AvailableUntil: f.clock.now.Add(24 * time.Hour),
		Location:       "Austin, TX",
	})
	require.NoError(t, err)

	return l
}
