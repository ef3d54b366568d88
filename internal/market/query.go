package market

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// SortOrder selects how marketplace results are ordered.
type SortOrder string

const (
	SortNewest SortOrder = "time"
	SortPrice  SortOrder = "price"
	SortAmount SortOrder = "amount"
)

// StatusAny disables status filtering in a ListingQuery.
const StatusAny ListingStatus = "all"

// ListingQuery filters and orders listings for the marketplace. The zero
// value shows listings that are currently available, newest first.
type ListingQuery struct {
	// Search matches seller name or location, ignoring case.
	Search string
	// Source restricts results to one source when set.
	Source Source
	// Status compares against the effective status. Empty means available.
	Status ListingStatus
	Sort   SortOrder
}

func (q ListingQuery) Apply(listings []Listing, now time.Time) []Listing {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	status := q.Status
	if status == "" {
		status = ListingAvailable
	}

	out := make([]Listing, 0, len(listings))

	for _, l := range listings {
		if search != "" &&
			!strings.Contains(strings.ToLower(l.SellerName), search) &&
			!strings.Contains(strings.ToLower(l.Location), search) {
			continue
		}

		if q.Source != "" && l.EnergySource != q.Source {
			continue
		}

		if status != StatusAny && l.EffectiveStatus(now) != status {
			continue
		}

		out = append(out, l)
	}

	switch q.Sort {
	case SortPrice:
		slices.SortStableFunc(out, func(a, b Listing) int { return a.PricePerKwh.Cmp(b.PricePerKwh) })
	case SortAmount:
		slices.SortStableFunc(out, func(a, b Listing) int { return b.EnergyAmount.Cmp(a.EnergyAmount) })
	default:
		slices.SortStableFunc(out, func(a, b Listing) int { return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano()) })
	}

	return out
}

// Valid reports whether s names a known order. Empty is valid.
func (s SortOrder) Valid() bool {
	switch s {
	case "", SortNewest, SortPrice, SortAmount:
		return true
	}

	return false
}
