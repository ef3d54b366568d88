package statement

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/gridshare/internal/export"
	"github.com/MrJamesThe3rd/gridshare/internal/http/respond"
	"github.com/MrJamesThe3rd/gridshare/internal/identity"
	"github.com/MrJamesThe3rd/gridshare/internal/market"
)

type Handler struct {
	svc *export.Service
	ids identity.Provider
}

func NewHandler(svc *export.Service, ids identity.Provider) *Handler {
	return &Handler{svc: svc, ids: ids}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.download)
}

// parseDate reads a YYYY-MM-DD query value as midnight UTC.
func parseDate(r *http.Request, key string) (*time.Time, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return nil, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s date %q", key, s)
	}

	return &t, nil
}

// download streams the caller's statement. start is inclusive and end is
// exclusive.
func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	me, ok := h.ids.Current(r.Context())
	if !ok {
		respond.Error(w, market.ErrNotAuthenticated)
		return
	}

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var filter export.Filter

	if filter.Start, err = parseDate(r, "start"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if filter.End, err = parseDate(r, "end"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if filter.Start != nil && filter.End != nil && !filter.End.After(*filter.Start) {
		http.Error(w, "end must be after start", http.StatusBadRequest)
		return
	}

	st := h.svc.Statement(me, filter)

	var buf bytes.Buffer
	if err := h.svc.Write(&buf, st, format); err != nil {
		respond.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", st.Filename(format)))
	w.WriteHeader(http.StatusOK)

	_, _ = buf.WriteTo(w)
}
