package seed_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/gridshare/internal/identity"
	"github.com/MrJamesThe3rd/gridshare/internal/market"
	"github.com/MrJamesThe3rd/gridshare/internal/market/seed"
)

var now = time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

func TestDefaultProfile(t *testing.T) {
	p := seed.DefaultProfile()

	assert.Equal(t, 8, p.Listings.Count)
	assert.Equal(t, 10, p.Transactions.Count)
	assert.Equal(t, []market.Source{market.SourceSolar, market.SourceWind, market.SourceHydro, market.SourceMixed}, p.Sources)
	assert.Contains(t, p.Sellers, "Sunny Solar Co.")
	assert.Contains(t, p.Locations, "Portland, OR")
}

func TestParseProfile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "Syntax", yaml: "listings: ["},
		{name: "NoSellers", yaml: "locations: [a]\nsources: [solar]"},
		{name: "UnknownSource", yaml: "sellers: [a]\nlocations: [b]\nsources: [coal]\nlistings: {amount_kwh: {min: 1, max: 2}, price_per_kwh: {min: 0.1, max: 0.2}, available_hours: {min: 1, max: 2}}\ntransactions: {amount_kwh: {min: 1, max: 2}, price_per_kwh: {min: 0.1, max: 0.2}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := seed.ParseProfile([]byte(tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestGenerator_Seed(t *testing.T) {
	gen := seed.New(seed.DefaultProfile(), rand.NewPCG(1, 2))

	listings, txs := gen.Seed(now, nil)
	require.Len(t, listings, 8)
	require.Len(t, txs, 10)

	ids := make(map[string]bool)

	for _, l := range listings {
		require.NoError(t, l.Check())
		assert.False(t, ids[l.ID], "duplicate id %s", l.ID)
		ids[l.ID] = true

		assert.Equal(t, market.ListingAvailable, l.Status)
		assert.True(t, l.EnergyAmount.IntPart() >= 5 && l.EnergyAmount.IntPart() <= 50)
		assert.True(t, l.PricePerKwh.Equal(market.RoundPrice(l.PricePerKwh)))
		assert.False(t, l.CreatedAt.After(now))
		assert.GreaterOrEqual(t, l.AvailableUntil.Sub(l.AvailableFrom), 48*time.Hour)
		assert.GreaterOrEqual(t, l.AvailableUntil.Sub(now), 48*time.Hour)
		assert.Equal(t, market.ListingAvailable, l.EffectiveStatus(now))
	}

	for i, tx := range txs {
		require.NoError(t, tx.Check())
		assert.True(t, tx.Status.Valid())
		assert.Equal(t, "You", tx.BuyerName)
		assert.Equal(t, int64(1000+i), tx.BlockNumber)
		assert.True(t, tx.TotalAmount.Equal(market.Total(tx.PricePerKwh, tx.EnergyAmount)))
		assert.False(t, tx.Timestamp.After(now))
	}
}

func TestGenerator_SeedUsesBuyer(t *testing.T) {
	gen := seed.New(seed.DefaultProfile(), rand.NewPCG(3, 4))

	_, txs := gen.Seed(now, &identity.Identity{ID: "u1", Name: "Ada"})

	for _, tx := range txs {
		assert.Equal(t, "u1", tx.BuyerID)
		assert.Equal(t, "Ada", tx.BuyerName)
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	a, atx := seed.New(seed.DefaultProfile(), rand.NewPCG(7, 7)).Seed(now, nil)
	b, btx := seed.New(seed.DefaultProfile(), rand.NewPCG(7, 7)).Seed(now, nil)

	assert.Equal(t, a, b)
	assert.Equal(t, atx, btx)
}
