// Package metrics exposes trading activity to Prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrJamesThe3rd/gridshare/internal/market"
)

const (
	metricPrefix = "gridshare_"

	resultSuccess = "success"
	resultError   = "error"
)

// Metrics implements market.Recorder.
type Metrics struct {
	ListingsCreated *prometheus.CounterVec
	Purchases       *prometheus.CounterVec
	KwhTraded       *prometheus.CounterVec
	TradeValue      prometheus.Counter
	CommitLatency   *prometheus.HistogramVec
}

// New constructs the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ListingsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "listings_created_total",
				Help: "Total listings created by energy source",
			},
			[]string{"source"},
		),
		Purchases: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "purchases_total",
				Help: "Total purchase attempts by result",
			},
			[]string{"result"},
		),
		KwhTraded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "energy_traded_kwh_total",
				Help: "Energy sold through the market in kWh by source",
			},
			[]string{"source"},
		),
		TradeValue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "trade_value_total",
			Help: "Sum of trade totals",
		}),
		CommitLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "commit_latency_seconds",
				Help:    "Store commit latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		m.ListingsCreated,
		m.Purchases,
		m.KwhTraded,
		m.TradeValue,
		m.CommitLatency,
	)

	return m
}

func (m *Metrics) ListingCreated(l market.Listing) {
	m.ListingsCreated.WithLabelValues(string(l.EnergySource)).Inc()
}

func (m *Metrics) PurchaseSucceeded(tx market.Transaction) {
	m.Purchases.WithLabelValues(resultSuccess).Inc()
	m.KwhTraded.WithLabelValues(string(tx.EnergySource)).Add(tx.EnergyAmount.InexactFloat64())
	m.TradeValue.Add(tx.TotalAmount.InexactFloat64())
}

func (m *Metrics) PurchaseFailed(err error) {
	m.Purchases.WithLabelValues(reason(err)).Inc()
}

func (m *Metrics) CommitObserved(d time.Duration, err error) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}

	m.CommitLatency.WithLabelValues(result).Observe(d.Seconds())
}

// reason maps an engine error to a bounded label value.
func reason(err error) string {
	switch {
	case errors.Is(err, market.ErrNotAuthenticated):
		return "not_authenticated"
	case errors.Is(err, market.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, market.ErrListingNotFound):
		return "not_found"
	case errors.Is(err, market.ErrListingUnavailable):
		return "unavailable"
	case errors.Is(err, market.ErrInsufficientQuantity):
		return "insufficient"
	case errors.Is(err, market.ErrStaleState):
		return "stale"
	}

	return resultError
}

var _ market.Recorder = (*Metrics)(nil)
