package payment

import (
	"errors"
	"fmt"
)

// ErrOrganizerNotPaymentReady means the event's organizer has no payout
// identifier for the provider the event routes to. Surfaced to the buyer
// as "this event cannot accept payment yet", never as a generic 500.
var ErrOrganizerNotPaymentReady = errors.New("organizer has not completed payment onboarding")

// ProviderError is a failure reported by a payment provider's API. Transient
// is true for network-level failures (timeouts, connection errors) that a
// caller may retry; false when the provider rejected the request shape.
type ProviderError struct {
	Provider  Provider
	Message   string
	Transient bool
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ValidationError is a terminal request/payload problem. Maps to 400 so the
// provider stops retrying.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}
