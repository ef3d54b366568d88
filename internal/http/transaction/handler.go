package transaction

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

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
	r.Get("/", h.list)
}

// list returns the ledger, newest first. With mine=true only trades where the
// caller is buyer or seller are included.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	mine := false

	if s := r.URL.Query().Get("mine"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			http.Error(w, "invalid mine flag", http.StatusBadRequest)
			return
		}

		mine = v
	}

	txs := h.engine.SnapshotTransactions()

	if mine {
		me, ok := h.ids.Current(r.Context())
		if !ok {
			respond.Error(w, market.ErrNotAuthenticated)
			return
		}

		own := txs[:0:0]
		for _, tx := range txs {
			if tx.BuyerID == me.ID || tx.SellerID == me.ID {
				own = append(own, tx)
			}
		}

		txs = own
	}

	respond.JSON(w, http.StatusOK, toResponseList(txs))
}
