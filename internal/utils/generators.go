package utils

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewReference generates a provider transaction reference for an event
// checkout. The timestamp plus random UUID component makes collisions
// practically impossible across retries for the same event.
func NewReference(eventID string) string {
	short := eventID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("ref_%s_%d_%s", short, time.Now().UnixNano(), uuid.NewString()[:8])
}

// NewInternalReference generates the reference stored for orders that never
// touch a provider (free events).
func NewInternalReference(eventID string) string {
	short := eventID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("free_%s_%d_%s", short, time.Now().UnixNano(), uuid.NewString()[:8])
}
