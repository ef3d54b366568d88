// Package analytics derives trading figures for one participant from the
// ledger.
package analytics

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/gridshare/internal/market"
)

const (
	recentWindow = 30 * 24 * time.Hour
	monthsShown  = 6
)

// SourceShare is the traded energy attributed to one source.
type SourceShare struct {
	Source market.Source
	Kwh    decimal.Decimal
}

// Month holds one calendar month of money flows, keyed "2006-01". Summaries
// keep the latest six months.
type Month struct {
	Month    string
	Spending decimal.Decimal
	Earnings decimal.Decimal
}

type Summary struct {
	Earnings     decimal.Decimal
	Spending     decimal.Decimal
	KwhTraded    decimal.Decimal
	AveragePrice decimal.Decimal
	// SuccessRate is the share of confirmed trades, in whole percent.
	SuccessRate int
	Recent      int
	BySource    []SourceShare
	Monthly     []Month
}

// Summarize computes figures over txs from the point of view of participant.
// Earnings and spending only count trades where participant is the seller or
// the buyer. The rest covers the whole ledger.
func Summarize(txs []market.Transaction, participant string, now time.Time) Summary {
	s := Summary{
		Earnings:     decimal.Zero,
		Spending:     decimal.Zero,
		KwhTraded:    decimal.Zero,
		AveragePrice: decimal.Zero,
	}

	if len(txs) == 0 {
		return s
	}

	priceSum := decimal.Zero
	confirmed := 0
	bySource := make(map[market.Source]decimal.Decimal)
	months := make(map[string]*Month)

	for _, tx := range txs {
		s.KwhTraded = s.KwhTraded.Add(tx.EnergyAmount)
		priceSum = priceSum.Add(tx.PricePerKwh)

		if tx.Status == market.TxConfirmed {
			confirmed++
		}

		if now.Sub(tx.Timestamp) <= recentWindow {
			s.Recent++
		}

		bySource[tx.EnergySource] = bySource[tx.EnergySource].Add(tx.EnergyAmount)

		key := tx.Timestamp.UTC().Format("2006-01")

		m, ok := months[key]
		if !ok {
			m = &Month{Month: key, Spending: decimal.Zero, Earnings: decimal.Zero}
			months[key] = m
		}

		if participant == "" {
			continue
		}

		if tx.BuyerID == participant {
			s.Spending = s.Spending.Add(tx.TotalAmount)
			m.Spending = m.Spending.Add(tx.TotalAmount)
		}

		if tx.SellerID == participant {
			s.Earnings = s.Earnings.Add(tx.TotalAmount)
			m.Earnings = m.Earnings.Add(tx.TotalAmount)
		}
	}

	n := decimal.NewFromInt(int64(len(txs)))
	s.AveragePrice = market.RoundPrice(priceSum.Div(n))
	s.SuccessRate = int(decimal.NewFromInt(int64(confirmed)).Mul(decimal.NewFromInt(100)).Div(n).Round(0).IntPart())

	for _, src := range market.Sources {
		if kwh, ok := bySource[src]; ok {
			s.BySource = append(s.BySource, SourceShare{Source: src, Kwh: kwh})
			delete(bySource, src)
		}
	}

	other := make([]SourceShare, 0, len(bySource))
	for src, kwh := range bySource {
		other = append(other, SourceShare{Source: src, Kwh: kwh})
	}

	slices.SortFunc(other, func(a, b SourceShare) int { return cmp.Compare(a.Source, b.Source) })
	s.BySource = append(s.BySource, other...)

	for _, m := range months {
		s.Monthly = append(s.Monthly, *m)
	}

	slices.SortFunc(s.Monthly, func(a, b Month) int { return cmp.Compare(a.Month, b.Month) })

	if len(s.Monthly) > monthsShown {
		s.Monthly = s.Monthly[len(s.Monthly)-monthsShown:]
	}

	return s
}
