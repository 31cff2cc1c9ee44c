package paystack_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"ms-payments/internal/logger"
	"ms-payments/internal/payment"
	"ms-payments/internal/payment/paystack"
)

func TestInitializeTransactionSuccess(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": true,
			"message": "Authorization URL created",
			"data": {
				"authorization_url": "https://checkout.paystack.com/abc123",
				"access_code": "abc123",
				"reference": "ref_evt12345_1"
			}
		}`))
	}))
	defer server.Close()

	client := paystack.NewClient("sk_test_key", server.URL, server.Client(), logger.NewLogger())

	resp, err := client.InitializeTransaction(context.Background(), paystack.InitializeRequest{
		Email:             "buyer@example.com",
		Amount:            10000,
		Currency:          "NGN",
		Reference:         "ref_evt12345_1",
		Subaccount:        "ACCT_organizer",
		TransactionCharge: 2000,
		Bearer:            "account",
	})

	assert.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc123", resp.AuthorizationURL)
	assert.Equal(t, "Bearer sk_test_key", gotAuth)
	assert.Equal(t, "ACCT_organizer", gotBody["subaccount"])
	assert.Equal(t, float64(2000), gotBody["transaction_charge"])
	assert.Equal(t, "account", gotBody["bearer"])
}

func TestInitializeTransactionProviderRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status": false, "message": "Invalid subaccount"}`))
	}))
	defer server.Close()

	client := paystack.NewClient("sk_test_key", server.URL, server.Client(), logger.NewLogger())

	_, err := client.InitializeTransaction(context.Background(), paystack.InitializeRequest{
		Email:  "buyer@example.com",
		Amount: 10000,
	})

	var pErr *payment.ProviderError
	assert.ErrorAs(t, err, &pErr)
	assert.Equal(t, payment.ProviderPaystack, pErr.Provider)
	assert.Equal(t, "Invalid subaccount", pErr.Message)
	assert.False(t, pErr.Transient)
}

func TestInitializeTransactionServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status": false, "message": "Service unavailable"}`))
	}))
	defer server.Close()

	client := paystack.NewClient("sk_test_key", server.URL, server.Client(), logger.NewLogger())

	_, err := client.InitializeTransaction(context.Background(), paystack.InitializeRequest{Email: "b@example.com"})

	var pErr *payment.ProviderError
	assert.ErrorAs(t, err, &pErr)
	assert.True(t, pErr.Transient)
}

func TestInitializeTransactionConnectionRefused(t *testing.T) {
	client := paystack.NewClient("sk_test_key", "http://127.0.0.1:1", &http.Client{}, logger.NewLogger())

	_, err := client.InitializeTransaction(context.Background(), paystack.InitializeRequest{Email: "b@example.com"})

	var pErr *payment.ProviderError
	assert.ErrorAs(t, err, &pErr)
}
