package payment

import "math"

// SplitResult is the revenue share of a single transaction in minor units.
// OrganizerShare + PlatformShare always equals the total.
type SplitResult struct {
	OrganizerShare int64
	PlatformShare  int64
}

// Split divides a minor-unit amount between the organizer and the platform.
// The organizer's share is rounded to the nearest unit; the platform takes
// the remainder so the two shares always sum to the total.
func Split(totalMinor int64, organizerSharePct int) SplitResult {
	organizer := int64(math.Round(float64(totalMinor) * float64(organizerSharePct) / 100.0))
	return SplitResult{
		OrganizerShare: organizer,
		PlatformShare:  totalMinor - organizer,
	}
}
