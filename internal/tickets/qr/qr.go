package qr

import (
	"fmt"
	"net/url"

	"github.com/skip2/go-qrcode"
)

// Generator renders ticket QR codes. The code encodes the public
// verification URL for an order, so any scanner resolves to the
// unauthenticated verification endpoint.
type Generator struct {
	verificationBaseURL string
}

func NewGenerator(verificationBaseURL string) *Generator {
	return &Generator{verificationBaseURL: verificationBaseURL}
}

// GenerateTicketQR returns a PNG QR code pointing at the order's
// verification URL.
func (g *Generator) GenerateTicketQR(orderID string) ([]byte, error) {
	target := fmt.Sprintf("%s?orderId=%s", g.verificationBaseURL, url.QueryEscape(orderID))
	png, err := qrcode.Encode(target, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ticket QR: %w", err)
	}
	return png, nil
}
