package analytics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/gridshare/internal/analytics"
	"github.com/MrJamesThe3rd/gridshare/internal/http/respond"
	"github.com/MrJamesThe3rd/gridshare/internal/identity"
	"github.com/MrJamesThe3rd/gridshare/internal/market"
)

type Handler struct {
	engine *market.Engine
	ids    identity.Provider
}

func NewHandler(engine *market.Engine, ids identity.Provider) *Handler {
	return &Handler{engine: engine, ids: ids}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.summary)
}

type sourceResponse struct {
	Source market.Source   `json:"source"`
	Kwh    decimal.Decimal `json:"kwh"`
}

type monthResponse struct {
	Month    string          `json:"month"`
	Spending decimal.Decimal `json:"spending"`
	Earnings decimal.Decimal `json:"earnings"`
}

type summaryResponse struct {
	Earnings     decimal.Decimal  `json:"earnings"`
	Spending     decimal.Decimal  `json:"spending"`
	KwhTraded    decimal.Decimal  `json:"kwhTraded"`
	AveragePrice decimal.Decimal  `json:"averagePrice"`
	SuccessRate  int              `json:"successRate"`
	Recent       int              `json:"recentTransactions"`
	BySource     []sourceResponse `json:"bySource"`
	Monthly      []monthResponse  `json:"monthly"`
}

func toResponse(s analytics.Summary) summaryResponse {
	resp := summaryResponse{
		Earnings:     s.Earnings,
		Spending:     s.Spending,
		KwhTraded:    s.KwhTraded,
		AveragePrice: s.AveragePrice,
		SuccessRate:  s.SuccessRate,
		Recent:       s.Recent,
		BySource:     make([]sourceResponse, 0, len(s.BySource)),
		Monthly:      make([]monthResponse, 0, len(s.Monthly)),
	}

	for _, b := range s.BySource {
		resp.BySource = append(resp.BySource, sourceResponse{Source: b.Source, Kwh: b.Kwh})
	}

	for _, m := range s.Monthly {
		resp.Monthly = append(resp.Monthly, monthResponse{Month: m.Month, Spending: m.Spending, Earnings: m.Earnings})
	}

	return resp
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	me, ok := h.ids.Current(r.Context())
	if !ok {
		respond.Error(w, market.ErrNotAuthenticated)
		return
	}

	s := analytics.Summarize(h.engine.SnapshotTransactions(), me.ID, h.engine.Now())

	respond.JSON(w, http.StatusOK, toResponse(s))
}
