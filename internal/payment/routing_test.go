package payment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ms-payments/internal/payment"
)

func TestRouteLocalCurrencyAndCountry(t *testing.T) {
	provider := payment.Route("NGN", "Lagos, Nigeria", "NGN", "Nigeria")
	assert.Equal(t, payment.ProviderPaystack, provider)
}

func TestRouteLocalCurrencyForeignLocation(t *testing.T) {
	provider := payment.Route("NGN", "London, UK", "NGN", "Nigeria")
	assert.Equal(t, payment.ProviderStripe, provider)
}

func TestRouteForeignCurrencyLocalLocation(t *testing.T) {
	provider := payment.Route("USD", "Lagos, Nigeria", "NGN", "Nigeria")
	assert.Equal(t, payment.ProviderStripe, provider)
}

func TestRouteIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, payment.ProviderPaystack, payment.Route("ngn", "lagos, NIGERIA", "NGN", "Nigeria"))
}

func TestRouteEmptyLocation(t *testing.T) {
	assert.Equal(t, payment.ProviderStripe, payment.Route("NGN", "", "NGN", "Nigeria"))
}
