// Package seed generates the data set written to an empty market store.
package seed

import (
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/MrJamesThe3rd/gridshare/internal/identity"
	"github.com/MrJamesThe3rd/gridshare/internal/market"
)

//go:embed profile.yaml
var defaultProfile []byte

type IntRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// draw returns a uniform value in [Min, Max].
func (r IntRange) draw(rng *rand.Rand) int {
	if r.Max <= r.Min {
		return r.Min
	}

	return r.Min + rng.IntN(r.Max-r.Min+1)
}

type FloatRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

func (r FloatRange) draw(rng *rand.Rand) float64 {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// Profile describes the shape of the generated data.
type Profile struct {
	Listings struct {
		Count          int        `yaml:"count"`
		AmountKwh      IntRange   `yaml:"amount_kwh"`
		PricePerKwh    FloatRange `yaml:"price_per_kwh"`
		CreatedDaysAgo IntRange   `yaml:"created_days_ago"`
		AvailableHours IntRange   `yaml:"available_hours"`
	} `yaml:"listings"`

	Transactions struct {
		Count          int        `yaml:"count"`
		AmountKwh      IntRange   `yaml:"amount_kwh"`
		PricePerKwh    FloatRange `yaml:"price_per_kwh"`
		DaysAgo        IntRange   `yaml:"days_ago"`
		ConfirmedRatio float64    `yaml:"confirmed_ratio"`
		FirstBlock     int64      `yaml:"first_block"`
	} `yaml:"transactions"`

	Sellers   []string        `yaml:"sellers"`
	Locations []string        `yaml:"locations"`
	Sources   []market.Source `yaml:"sources"`
}

// ParseProfile decodes and validates a YAML profile.
func ParseProfile(data []byte) (Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parsing seed profile: %w", err)
	}

	if err := p.validate(); err != nil {
		return Profile{}, fmt.Errorf("invalid seed profile: %w", err)
	}

	return p, nil
}

// DefaultProfile is the embedded profile: 8 listings and 10 transactions.
func DefaultProfile() Profile {
	p, err := ParseProfile(defaultProfile)
	if err != nil {
		panic(err)
	}

	return p
}

func (p Profile) validate() error {
	switch {
	case len(p.Sellers) == 0:
		return errors.New("no sellers")
	case len(p.Locations) == 0:
		return errors.New("no locations")
	case len(p.Sources) == 0:
		return errors.New("no sources")
	case p.Listings.AmountKwh.Min <= 0:
		return errors.New("listing amounts must be positive")
	case p.Transactions.AmountKwh.Min <= 0:
		return errors.New("transaction amounts must be positive")
	case p.Listings.PricePerKwh.Min <= 0 || p.Transactions.PricePerKwh.Min <= 0:
		return errors.New("prices must be positive")
	case p.Listings.AvailableHours.Min <= 0:
		return errors.New("availability window must be positive")
	}

	for _, s := range p.Sources {
		if !s.Valid() {
			return fmt.Errorf("unknown source %q", s)
		}
	}

	return nil
}

// Generator implements market.Seeder.
type Generator struct {
	profile Profile
	rng     *rand.Rand
}

// New returns a generator drawing from src. A nil src uses a random seed.
func New(profile Profile, src rand.Source) *Generator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}

	return &Generator{profile: profile, rng: rand.New(src)}
}

func (g *Generator) Seed(now time.Time, buyer *identity.Identity) ([]market.Listing, []market.Transaction) {
	return g.listings(now), g.transactions(now, buyer)
}

func (g *Generator) listings(now time.Time) []market.Listing {
	p := g.profile
	out := make([]market.Listing, 0, p.Listings.Count)

	for i := range p.Listings.Count {
		created := now.AddDate(0, 0, -p.Listings.CreatedDaysAgo.draw(g.rng))
		window := time.Duration(p.Listings.AvailableHours.draw(g.rng)) * time.Hour

		out = append(out, market.Listing{
			ID:             fmt.Sprintf("listing_seed_%d_%s", i, g.suffix()),
			SellerID:       fmt.Sprintf("prosumer_%d", i),
			SellerName:     pick(p.Sellers, i),
			EnergyAmount:   decimal.NewFromInt(int64(p.Listings.AmountKwh.draw(g.rng))),
			PricePerKwh:    market.RoundPrice(decimal.NewFromFloat(p.Listings.PricePerKwh.draw(g.rng))),
			AvailableFrom:  created,
			AvailableUntil: now.Add(window),
			EnergySource:   pick(p.Sources, i),
			Location:       pick(p.Locations, i),
			Status:         market.ListingAvailable,
			CreatedAt:      created,
		})
	}

	return out
}

func (g *Generator) transactions(now time.Time, buyer *identity.Identity) []market.Transaction {
	p := g.profile
	out := make([]market.Transaction, 0, p.Transactions.Count)

	for i := range p.Transactions.Count {
		amount := decimal.NewFromInt(int64(p.Transactions.AmountKwh.draw(g.rng)))
		price := market.RoundPrice(decimal.NewFromFloat(p.Transactions.PricePerKwh.draw(g.rng)))

		buyerID, buyerName := fmt.Sprintf("buyer_%d", i), "You"
		if buyer != nil {
			buyerID, buyerName = buyer.ID, buyer.Name
		}

		hash := make([]byte, 8)
		for j := range hash {
			hash[j] = byte(g.rng.UintN(256))
		}

		out = append(out, market.Transaction{
			ID:              fmt.Sprintf("tx_seed_%d_%s", i, g.suffix()),
			ListingID:       fmt.Sprintf("seed_%d", i),
			BuyerID:         buyerID,
			BuyerName:       buyerName,
			SellerID:        fmt.Sprintf("seller_%d", i),
			SellerName:      pick(p.Sellers, i),
			EnergyAmount:    amount,
			PricePerKwh:     price,
			TotalAmount:     market.Total(price, amount),
			TransactionHash: hex.EncodeToString(hash),
			BlockNumber:     p.Transactions.FirstBlock + int64(i),
			Status:          g.status(),
			Timestamp:       now.AddDate(0, 0, -p.Transactions.DaysAgo.draw(g.rng)),
			EnergySource:    pick(p.Sources, i),
		})
	}

	return out
}

func (g *Generator) status() market.TxStatus {
	if g.rng.Float64() < g.profile.Transactions.ConfirmedRatio {
		return market.TxConfirmed
	}

	if g.rng.IntN(2) == 0 {
		return market.TxPending
	}

	return market.TxFailed
}

func (g *Generator) suffix() string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

	b := make([]byte, 5)
	for i := range b {
		b[i] = alphabet[g.rng.IntN(len(alphabet))]
	}

	return string(b)
}

func pick[T any](items []T, i int) T {
	return items[i%len(items)]
}
