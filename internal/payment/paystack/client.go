package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"ms-payments/internal/logger"
	"ms-payments/internal/payment"
)

// Client is a thin wrapper over Paystack's transaction API. Paystack has no
// official Go SDK; the API is plain JSON over HTTPS with bearer auth.
type Client struct {
	secretKey string
	baseURL   string
	client    *http.Client
	logger    *logger.Logger
}

func NewClient(secretKey, baseURL string, httpClient *http.Client, log *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		secretKey: secretKey,
		baseURL:   baseURL,
		client:    httpClient,
		logger:    log,
	}
}

// InitializeRequest is the transaction-initialize payload. Amount is in minor
// units. TransactionCharge is the platform's flat share kept from the split;
// Bearer "account" makes the platform the fee bearer for processing fees.
type InitializeRequest struct {
	Email             string            `json:"email"`
	Amount            int64             `json:"amount"`
	Currency          string            `json:"currency"`
	Reference         string            `json:"reference"`
	CallbackURL       string            `json:"callback_url,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	Subaccount        string            `json:"subaccount"`
	TransactionCharge int64             `json:"transaction_charge,omitempty"`
	Bearer            string            `json:"bearer,omitempty"`
}

// InitializeResponse is the provider's answer; AuthorizationURL is where the
// buyer's browser must be redirected.
type InitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// InitializeTransaction creates a hosted checkout on Paystack. A non-2xx
// response or a false status flag is a ProviderError carrying the provider's
// message; network failures and timeouts are marked transient.
func (c *Client) InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal initialize request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build initialize request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Error("PAYSTACK", fmt.Sprintf("transaction initialize failed: %v", err))
		return nil, &payment.ProviderError{
			Provider:  payment.ProviderPaystack,
			Message:   "transaction initialize request failed",
			Transient: isTransient(err),
			Err:       err,
		}
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &payment.ProviderError{
			Provider:  payment.ProviderPaystack,
			Message:   fmt.Sprintf("unreadable response (HTTP %d)", resp.StatusCode),
			Transient: resp.StatusCode >= 500,
			Err:       err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !envelope.Status {
		c.logger.Error("PAYSTACK", fmt.Sprintf("initialize rejected (HTTP %d): %s", resp.StatusCode, envelope.Message))
		return nil, &payment.ProviderError{
			Provider:  payment.ProviderPaystack,
			Message:   envelope.Message,
			Transient: resp.StatusCode >= 500,
		}
	}

	var out InitializeResponse
	if err := json.Unmarshal(envelope.Data, &out); err != nil {
		return nil, &payment.ProviderError{
			Provider: payment.ProviderPaystack,
			Message:  "malformed initialize response data",
			Err:      err,
		}
	}

	c.logger.Info("PAYSTACK", fmt.Sprintf("initialized transaction %s for %d %s", out.Reference, req.Amount, req.Currency))
	return &out, nil
}

func isTransient(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}
