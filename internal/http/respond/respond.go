// Package respond writes JSON bodies and maps market errors to status codes.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/MrJamesThe3rd/gridshare/internal/market"
)

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Status is the HTTP status for err.
func Status(err error) int {
	var verrs validator.ValidationErrors

	switch {
	case errors.Is(err, market.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, market.ErrInvalidSpec),
		errors.Is(err, market.ErrInvalidAmount),
		errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, market.ErrListingNotFound):
		return http.StatusNotFound
	case errors.Is(err, market.ErrListingUnavailable),
		errors.Is(err, market.ErrInsufficientQuantity),
		errors.Is(err, market.ErrStaleState):
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

// Error writes err as plain text. Unmapped errors are logged and hidden.
func Error(w http.ResponseWriter, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		http.Error(w, "internal error", status)

		return
	}

	http.Error(w, err.Error(), status)
}
