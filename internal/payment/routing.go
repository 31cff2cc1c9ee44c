package payment

import "strings"

// Provider identifies a payment provider.
type Provider string

const (
	// ProviderPaystack is the local aggregator, used for transactions in the
	// platform's home currency and country. Supports subaccount splits.
	ProviderPaystack Provider = "paystack"
	// ProviderStripe is the international card provider, used for everything
	// else. Supports destination transfers with application fees.
	ProviderStripe Provider = "stripe"
)

// Route selects the provider for an order. Local iff the order currency is
// the platform's local currency AND the event's free-text location mentions
// the local country (case-insensitive substring). Events with no location or
// a non-matching one deliberately fall through to the international provider.
//
// The substring match is a known heuristic kept for compatibility with the
// platform's existing routing behavior; country is not a structured field.
func Route(orderCurrency, eventLocation, localCurrency, localCountry string) Provider {
	if !strings.EqualFold(orderCurrency, localCurrency) {
		return ProviderStripe
	}
	if localCountry == "" {
		return ProviderStripe
	}
	if strings.Contains(strings.ToLower(eventLocation), strings.ToLower(localCountry)) {
		return ProviderPaystack
	}
	return ProviderStripe
}
