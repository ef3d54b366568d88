package market

import "errors"

var (
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrInvalidSpec          = errors.New("invalid listing")
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrListingNotFound      = errors.New("listing not found")
	ErrListingUnavailable   = errors.New("listing is not available")
	ErrInsufficientQuantity = errors.New("requested amount exceeds available energy")

	// ErrCommitFailed means the state change could not be stored. Nothing
	// was applied.
	ErrCommitFailed = errors.New("commit failed")
	// ErrStaleState means another writer changed the store since it was
	// loaded. The engine has already reloaded; retry.
	ErrStaleState = errors.New("market state is stale")
)
