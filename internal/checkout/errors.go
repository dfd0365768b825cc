package checkout

import (
	"errors"
	"fmt"
)

// Validation failures are detected before any network effect and are always
// recoverable: the customer corrects the cart and submits again.
var (
	ErrEmptyCart            = errors.New("cart has no items")
	ErrSubmissionInFlight   = errors.New("an order submission is already in progress")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrSessionSuperseded    = errors.New("session changed while the order was in flight")
)

// InvalidLineItemError names a cart line whose product id is missing or zero.
// Such a line is a hard stop: it is never dropped or given a substitute id.
type InvalidLineItemError struct {
	Name string
}

func (e *InvalidLineItemError) Error() string {
	return fmt.Sprintf("invalid product id for %q: remove the item and try again", e.Name)
}

// TransportError means the order service could not be reached at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("order service unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RejectedError means the order service was reachable but declined the order,
// e.g. server-side re-validation of redemption bounds failed or stock ran out.
// The cart is preserved so the customer can correct and resubmit.
type RejectedError struct {
	Status int
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("order rejected (%d): %s", e.Status, e.Reason)
}

// UnexpectedError covers everything the taxonomy does not classify. It is
// logged in full and surfaced with a generic message; the cart is preserved.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected checkout failure: %v", e.Err)
}

func (e *UnexpectedError) Unwrap() error { return e.Err }

// Classify maps any submission error onto its taxonomy class. Used for the
// single user-visible error slot and for outcome metrics.
func Classify(err error) string {
	var invalid *InvalidLineItemError
	var transport *TransportError
	var rejected *RejectedError

	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrSubmissionInFlight),
		errors.Is(err, ErrUnknownPaymentMethod),
		errors.Is(err, ErrSessionSuperseded),
		errors.As(err, &invalid):
		return "validation"
	case errors.As(err, &transport):
		return "transport"
	case errors.As(err, &rejected):
		return "rejected"
	default:
		return "unexpected"
	}
}
