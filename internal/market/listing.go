package market

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Source is the generation technology behind a listing.
type Source string

const (
	SourceSolar Source = "solar"
	SourceWind  Source = "wind"
	SourceHydro Source = "hydro"
	SourceMixed Source = "mixed"
)

// Sources lists every known source in display order.
var Sources = []Source{SourceSolar, SourceWind, SourceHydro, SourceMixed}

func (s Source) Valid() bool {
	switch s {
	case SourceSolar, SourceWind, SourceHydro, SourceMixed:
		return true
	}

	return false
}

// ListingStatus is the lifecycle state of a listing.
type ListingStatus string

const (
	ListingAvailable ListingStatus = "available"
	ListingSold      ListingStatus = "sold"
	ListingExpired   ListingStatus = "expired"
)

func (s ListingStatus) Valid() bool {
	switch s {
	case ListingAvailable, ListingSold, ListingExpired:
		return true
	}

	return false
}

// Listing is an offer to sell a bounded quantity of energy at a fixed unit
// price. EnergyAmount is the quantity still on offer.
type Listing struct {
	ID             string          `json:"id"`
	SellerID       string          `json:"sellerId"`
	SellerName     string          `json:"sellerName"`
	EnergyAmount   decimal.Decimal `json:"energyAmount"`
	PricePerKwh    decimal.Decimal `json:"pricePerKwh"`
	AvailableFrom  time.Time       `json:"availableFrom"`
	AvailableUntil time.Time       `json:"availableUntil"`
	EnergySource   Source          `json:"energySource"`
	Location       string          `json:"location"`
	Status         ListingStatus   `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// EffectiveStatus reports the status as seen at now. An available listing
// whose window has closed reads as expired; the stored status is untouched.
func (l Listing) EffectiveStatus(now time.Time) ListingStatus {
	if l.Status == ListingAvailable && !now.Before(l.AvailableUntil) {
		return ListingExpired
	}

	return l.Status
}

// Check reports whether a decoded listing satisfies the listing invariants.
func (l *Listing) Check() error {
	switch {
	case l.ID == "":
		return errors.New("listing without id")
	case !l.Status.Valid():
		return fmt.Errorf("listing %s: unknown status %q", l.ID, l.Status)
	case !l.EnergySource.Valid():
		return fmt.Errorf("listing %s: unknown energy source %q", l.ID, l.EnergySource)
	case l.EnergyAmount.IsNegative():
		return fmt.Errorf("listing %s: negative energy amount", l.ID)
	case !l.PricePerKwh.IsPositive():
		return fmt.Errorf("listing %s: non-positive price", l.ID)
	case l.Status == ListingSold && !l.EnergyAmount.IsZero():
		return fmt.Errorf("listing %s: sold with %s kWh left", l.ID, l.EnergyAmount)
	case l.Status == ListingAvailable && !l.EnergyAmount.IsPositive():
		return fmt.Errorf("listing %s: available with nothing left", l.ID)
	}

	return nil
}

// ListingSpec is the caller-supplied part of a new listing. A zero
// AvailableFrom means "now".
type ListingSpec struct {
	EnergyAmount   decimal.Decimal
	PricePerKwh    decimal.Decimal
	EnergySource   Source
	AvailableFrom  time.Time
	AvailableUntil time.Time
	Location       string
}

// normalize validates the spec against now and returns it with rounding and
// defaults applied.
func (s ListingSpec) normalize(now time.Time) (ListingSpec, error) {
	s.EnergyAmount = RoundQuantity(s.EnergyAmount)
	s.PricePerKwh = RoundPrice(s.PricePerKwh)

	if s.AvailableFrom.IsZero() {
		s.AvailableFrom = now
	}

	switch {
	case !s.EnergyAmount.IsPositive():
		return s, fmt.Errorf("%w: energy amount must be positive", ErrInvalidSpec)
	case !s.PricePerKwh.IsPositive():
		return s, fmt.Errorf("%w: price per kWh must be positive", ErrInvalidSpec)
	case !s.EnergySource.Valid():
		return s, fmt.Errorf("%w: unknown energy source %q", ErrInvalidSpec, s.EnergySource)
	case !s.AvailableUntil.After(s.AvailableFrom):
		return s, fmt.Errorf("%w: availability must end after it starts", ErrInvalidSpec)
	}

	return s, nil
}
