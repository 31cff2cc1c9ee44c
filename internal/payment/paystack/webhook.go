package paystack

import "encoding/json"

// EventChargeSuccess is the only event type that materializes an order; all
// others are acknowledged with 200 and ignored so Paystack stops retrying.
const EventChargeSuccess = "charge.success"

// WebhookEvent is Paystack's callback envelope.
type WebhookEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ChargeData is the payload of a charge.* event.
type ChargeData struct {
	Reference string            `json:"reference"`
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	Status    string            `json:"status"`
	Metadata  map[string]string `json:"metadata"`
	Customer  Customer          `json:"customer"`
}

type Customer struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
