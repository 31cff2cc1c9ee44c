package order_api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-payments/internal/models"
)

func TestGetOrderReturnsDetails(t *testing.T) {
	handler, database := newTestHandler(t)
	database.orders["ref_1"] = &models.Order{
		ID:                "ord-1",
		EventID:           "evt-1",
		BuyerEmail:        "buyer@example.com",
		TotalAmount:       "100.00",
		Currency:          "NGN",
		PaymentMethod:     models.PaymentMethodPaystack,
		Quantity:          1,
		ProviderReference: "ref_1",
		PaymentStatus:     models.PaymentStatusCompleted,
		CreatedAt:         time.Now(),
	}

	r := chi.NewRouter()
	r.Get("/api/orders/{orderId}", handler.GetOrder)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/ord-1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var details models.OrderDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &details))
	assert.Equal(t, "ord-1", details.ID)
	require.NotNil(t, details.Event)
	assert.Equal(t, "Lagos Tech Summit", details.Event.Title)
}

func TestGetOrderNotFound(t *testing.T) {
	handler, _ := newTestHandler(t)

	r := chi.NewRouter()
	r.Get("/api/orders/{orderId}", handler.GetOrder)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVerifyTicketReturnsReducedView(t *testing.T) {
	handler, database := newTestHandler(t)
	database.orders["ref_1"] = &models.Order{
		ID:            "ord-1",
		EventID:       "evt-1",
		BuyerEmail:    "buyer@example.com",
		TotalAmount:   "100.00",
		Currency:      "NGN",
		PaymentMethod: models.PaymentMethodPaystack,
		Quantity:      2,
		CreatedAt:     time.Now(),
	}

	rec := httptest.NewRecorder()
	handler.VerifyTicket(rec, httptest.NewRequest(http.MethodGet, "/api/orders/verify?orderId=ord-1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var v models.OrderVerification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, "ord-1", v.OrderID)
	assert.Equal(t, "Lagos Tech Summit", v.EventTitle)
	assert.Equal(t, "Ngozi Eze", v.OrganizerName)
	assert.Equal(t, 2, v.Quantity)

	// The verification view never carries buyer contact details.
	assert.NotContains(t, rec.Body.String(), "buyer@example.com")
}

func TestVerifyTicketMissingOrderID(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.VerifyTicket(rec, httptest.NewRequest(http.MethodGet, "/api/orders/verify", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyTicketUnknownOrder(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.VerifyTicket(rec, httptest.NewRequest(http.MethodGet, "/api/orders/verify?orderId=missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInitiateCheckoutInvalidBody(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", nil)
	rec := httptest.NewRecorder()
	handler.InitiateCheckout(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
