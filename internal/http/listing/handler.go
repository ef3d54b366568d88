package listing

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/gridshare/internal/http/respond"
	"github.com/MrJamesThe3rd/gridshare/internal/identity"
	"github.com/MrJamesThe3rd/gridshare/internal/importer"
	"github.com/MrJamesThe3rd/gridshare/internal/market"
)

const maxImportSize = 10 << 20

type Handler struct {
	engine   *market.Engine
	imports  *importer.Service
	validate *validator.Validate
}

func NewHandler(engine *market.Engine, imports *importer.Service) *Handler {
	return &Handler{
		engine:   engine,
		imports:  imports,
		validate: validator.New(),
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/import", h.importCSV)
	r.Get("/{id}", h.get)
	r.Post("/{id}/purchase", h.purchase)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := market.ListingQuery{
		Search: params.Get("q"),
		Source: market.Source(params.Get("source")),
		Status: market.ListingStatus(params.Get("status")),
		Sort:   market.SortOrder(params.Get("sort")),
	}

	if q.Source != "" && !q.Source.Valid() {
		http.Error(w, "unknown source", http.StatusBadRequest)
		return
	}

	if q.Status != "" && q.Status != market.StatusAny && !q.Status.Valid() {
		http.Error(w, "unknown status", http.StatusBadRequest)
		return
	}

	if q.Sort != "" && !q.Sort.Valid() {
		http.Error(w, "unknown sort order", http.StatusBadRequest)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(h.engine.QueryListings(q), h.engine.Now()))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	l, err := h.engine.Listing(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(l, h.engine.Now()))
}

type createListingRequest struct {
	EnergyAmount   json.Number   `json:"energyAmount" validate:"required,numeric"`
	PricePerKwh    json.Number   `json:"pricePerKwh" validate:"required,numeric"`
	EnergySource   market.Source `json:"energySource" validate:"required,oneof=solar wind hydro mixed"`
	AvailableFrom  *time.Time    `json:"availableFrom,omitempty"`
	AvailableUntil time.Time     `json:"availableUntil"`
	Location       string        `json:"location" validate:"max=200"`
}

func (req createListingRequest) spec() (market.ListingSpec, error) {
	amount, err := decimal.NewFromString(req.EnergyAmount.String())
	if err != nil {
		return market.ListingSpec{}, err
	}

	price, err := decimal.NewFromString(req.PricePerKwh.String())
	if err != nil {
		return market.ListingSpec{}, err
	}

	spec := market.ListingSpec{
		EnergyAmount:   amount,
		PricePerKwh:    price,
		EnergySource:   req.EnergySource,
		AvailableUntil: req.AvailableUntil,
		Location:       req.Location,
	}

	if req.AvailableFrom != nil {
		spec.AvailableFrom = *req.AvailableFrom
	}

	return spec, nil
}

// signedIn answers 401 for anonymous requests before their body is read.
func signedIn(w http.ResponseWriter, r *http.Request) bool {
	if _, ok := (identity.FromContext{}).Current(r.Context()); !ok {
		respond.Error(w, market.ErrNotAuthenticated)
		return false
	}

	return true
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if !signedIn(w, r) {
		return
	}

	var req createListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		respond.Error(w, err)
		return
	}

	spec, err := req.spec()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	l, err := h.engine.CreateListing(r.Context(), spec)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(l, h.engine.Now()))
}

type purchaseRequest struct {
	Amount json.Number `json:"amount" validate:"required,numeric"`
}

func (h *Handler) purchase(w http.ResponseWriter, r *http.Request) {
	if !signedIn(w, r) {
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		respond.Error(w, err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.engine.PurchaseEnergy(r.Context(), chi.URLParam(r, "id"), amount); err != nil {
		respond.Error(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if !signedIn(w, r) {
		return
	}

	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	report, err := h.imports.Import(r.Context(), file)
	if err != nil {
		if report == nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if len(report.Created) == 0 {
			respond.Error(w, err)
			return
		}

		// Listings stored before the failure stay; report them.
		slog.Warn("import stopped early", "created", len(report.Created), "error", err)
		respond.JSON(w, http.StatusMultiStatus, toImportResponse(report, h.engine.Now()))

		return
	}

	respond.JSON(w, http.StatusCreated, toImportResponse(report, h.engine.Now()))
}
