package payment

import (
	"encoding/json"
	"strconv"

	"ms-payments/internal/models"
)

// Metadata is the checkout context carried through a provider and echoed
// back in its webhook, so the callback can materialize the order without a
// second database round-trip keyed only on the reference.
type Metadata struct {
	EventID         string
	BuyerID         string
	Quantity        int
	PriceCategories []models.PriceSelection
}

// Provider metadata only supports flat string maps, so the price-category
// selection is serialized as a JSON array inside a single string field.
// These two functions are the only place that encoding exists.
const (
	metaKeyEventID         = "eventId"
	metaKeyBuyerID         = "buyerId"
	metaKeyQuantity        = "quantity"
	metaKeyPriceCategories = "priceCategories"
)

// EncodeMetadata flattens checkout context into a provider metadata map.
func EncodeMetadata(m Metadata) (map[string]string, error) {
	out := map[string]string{
		metaKeyEventID:  m.EventID,
		metaKeyBuyerID:  m.BuyerID,
		metaKeyQuantity: strconv.Itoa(m.Quantity),
	}
	if len(m.PriceCategories) > 0 {
		raw, err := json.Marshal(m.PriceCategories)
		if err != nil {
			return nil, err
		}
		out[metaKeyPriceCategories] = string(raw)
	}
	return out, nil
}

// DecodeMetadata reverses EncodeMetadata. Missing eventId or buyerId is a
// ValidationError: a malformed payload from a misconfigured client must map
// to 400 so the provider stops retrying.
func DecodeMetadata(raw map[string]string) (Metadata, error) {
	var m Metadata

	m.EventID = raw[metaKeyEventID]
	if m.EventID == "" {
		return Metadata{}, &ValidationError{Field: metaKeyEventID, Message: "missing from webhook metadata"}
	}
	m.BuyerID = raw[metaKeyBuyerID]
	if m.BuyerID == "" {
		return Metadata{}, &ValidationError{Field: metaKeyBuyerID, Message: "missing from webhook metadata"}
	}

	if q := raw[metaKeyQuantity]; q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			return Metadata{}, &ValidationError{Field: metaKeyQuantity, Message: "not an integer"}
		}
		m.Quantity = n
	}
	if m.Quantity <= 0 {
		m.Quantity = 1
	}

	if pcs := raw[metaKeyPriceCategories]; pcs != "" {
		if err := json.Unmarshal([]byte(pcs), &m.PriceCategories); err != nil {
			return Metadata{}, &ValidationError{Field: metaKeyPriceCategories, Message: "invalid JSON"}
		}
	}

	return m, nil
}
