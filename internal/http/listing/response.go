package listing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/gridshare/internal/importer"
	"github.com/MrJamesThe3rd/gridshare/internal/market"
)

type listingResponse struct {
	ID             string               `json:"id"`
	SellerID       string               `json:"sellerId"`
	SellerName     string               `json:"sellerName"`
	EnergyAmount   decimal.Decimal      `json:"energyAmount"`
	PricePerKwh    decimal.Decimal      `json:"pricePerKwh"`
	AvailableFrom  time.Time            `json:"availableFrom"`
	AvailableUntil time.Time            `json:"availableUntil"`
	EnergySource   market.Source        `json:"energySource"`
	Location       string               `json:"location"`
	Status         market.ListingStatus `json:"status"`
	CreatedAt      time.Time            `json:"createdAt"`
}

// toResponse reports the effective status, so lapsed listings read as expired.
func toResponse(l market.Listing, now time.Time) listingResponse {
	return listingResponse{
		ID:             l.ID,
		SellerID:       l.SellerID,
		SellerName:     l.SellerName,
		EnergyAmount:   l.EnergyAmount,
		PricePerKwh:    l.PricePerKwh,
		AvailableFrom:  l.AvailableFrom,
		AvailableUntil: l.AvailableUntil,
		EnergySource:   l.EnergySource,
		Location:       l.Location,
		Status:         l.EffectiveStatus(now),
		CreatedAt:      l.CreatedAt,
	}
}

func toResponseList(ls []market.Listing, now time.Time) []listingResponse {
	resp := make([]listingResponse, len(ls))
	for i, l := range ls {
		resp[i] = toResponse(l, now)
	}

	return resp
}

type rowErrorResponse struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

type importResponse struct {
	Imported int                `json:"imported"`
	Format   string             `json:"format"`
	Charset  string             `json:"charset"`
	Listings []listingResponse  `json:"listings"`
	Errors   []rowErrorResponse `json:"errors"`
}

func toImportResponse(report *importer.Report, now time.Time) importResponse {
	resp := importResponse{
		Imported: len(report.Created),
		Format:   report.Format,
		Charset:  string(report.Charset),
		Listings: toResponseList(report.Created, now),
		Errors:   make([]rowErrorResponse, 0, len(report.Errors)),
	}

	for _, e := range report.Errors {
		resp.Errors = append(resp.Errors, rowErrorResponse{Line: e.Line, Error: e.Err.Error()})
	}

	return resp
}
