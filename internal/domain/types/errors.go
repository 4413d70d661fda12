package types

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the services wraps exactly one of them
// (ErrRideStateChanged wraps two), so callers can branch with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("requested item not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrConflict          = errors.New("conflict")

	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("access denied")
	ErrMaintenance  = errors.New("service is under maintenance")
)

var (
	ErrRideNotFound    = fmt.Errorf("%w: ride not found", ErrNotFound)
	ErrDriverNotFound  = fmt.Errorf("%w: driver not found", ErrNotFound)
	ErrRiderNotFound   = fmt.Errorf("%w: rider not found", ErrNotFound)
	ErrPayoutNotFound  = fmt.Errorf("%w: payout not found", ErrNotFound)
	ErrReceiptNotFound = fmt.Errorf("%w: receipt not found", ErrNotFound)

	ErrDriverRegistered = fmt.Errorf("%w: driver already registered", ErrConflict)
	ErrRiderRegistered  = fmt.Errorf("%w: rider already registered", ErrConflict)

	ErrDriverNotApproved = fmt.Errorf("%w: driver is not approved", ErrForbidden)

	ErrRideAlreadyAssigned = fmt.Errorf("%w: ride already has a driver", ErrInvalidState)
	ErrRideNotFinished     = fmt.Errorf("%w: ride is not finished", ErrInvalidState)
	ErrRideClosed          = fmt.Errorf("%w: ride is already closed", ErrInvalidState)
	ErrPayoutAlreadyPaid   = fmt.Errorf("%w: payout already paid", ErrInvalidState)

	// ErrRideStateChanged is returned to the loser of a conditional ride write.
	ErrRideStateChanged = fmt.Errorf("%w: %w: ride was modified concurrently", ErrConflict, ErrInvalidState)

	// Store-level signals consumed by the receipt service.
	ErrReceiptExists      = fmt.Errorf("%w: receipt already exists for ride", ErrConflict)
	ErrReceiptNumberTaken = fmt.Errorf("%w: receipt number already taken", ErrConflict)

	ErrInvalidToken = fmt.Errorf("%w: invalid token", ErrUnauthorized)
)

// InvalidTransition describes an illegal move of the ride state machine.
func InvalidTransition(from, to RideStatus) error {
	return fmt.Errorf("%w: ride cannot move from %s to %s", ErrInvalidState, from, to)
}

// IsOneOf reports whether err matches any of the targets.
func IsOneOf(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ValidationError lists the offending request fields.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", ErrValidation, e.Fields)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
