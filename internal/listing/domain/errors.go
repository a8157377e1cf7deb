package domain

import "errors"

var (
	// ErrNotFound indicates that a requested listing or seller does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrInvalidInput indicates that the provided input data is invalid.
	ErrInvalidInput = errors.New("invalid input data")
	// ErrForbidden indicates that the caller may not perform the action.
	ErrForbidden = errors.New("action forbidden")
	// ErrBoostAlreadyApplied is returned by stores when the payment token is already recorded.
	ErrBoostAlreadyApplied = errors.New("boost already applied for this payment")
	// ErrListingNotActive is returned when an operation needs an active listing.
	ErrListingNotActive = errors.New("listing is not active")
	// ErrFreeTierLimit is returned when a non-premium seller is at the active listing cap.
	ErrFreeTierLimit = errors.New("free tier active listing limit reached")
	// ErrRepository wraps unexpected persistence failures.
	ErrRepository = errors.New("repository error")
)
