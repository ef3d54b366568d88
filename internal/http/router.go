package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/gridshare/internal/http/analytics"
	"github.com/MrJamesThe3rd/gridshare/internal/http/listing"
	"github.com/MrJamesThe3rd/gridshare/internal/http/respond"
	"github.com/MrJamesThe3rd/gridshare/internal/http/statement"
	"github.com/MrJamesThe3rd/gridshare/internal/http/transaction"
	"github.com/MrJamesThe3rd/gridshare/internal/identity"
)

type statusResponse struct {
	Loading bool `json:"loading"`
}

func New(
	secret []byte,
	metrics http.Handler,
	loading func() bool,
	listingsV1 *listing.Handler,
	transactionsV1 *transaction.Handler,
	analyticsV1 *analytics.Handler,
	statementsV1 *statement.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	router.Handle("/metrics", metrics)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(identity.Middleware(secret))

		r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
			respond.JSON(w, http.StatusOK, statusResponse{Loading: loading()})
		})

		r.Route("/listings", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json", "multipart/form-data"))
			listingsV1.Routes(r)
		})

		r.Route("/transactions", transactionsV1.Routes)
		r.Route("/analytics", analyticsV1.Routes)
		r.Route("/statements", statementsV1.Routes)
	})

	return router
}
