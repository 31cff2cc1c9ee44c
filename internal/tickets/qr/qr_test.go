package qr_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"ms-payments/internal/tickets/qr"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G'}

func TestGenerateTicketQRProducesPNG(t *testing.T) {
	gen := qr.NewGenerator("http://localhost:8086/api/orders/verify")

	png, err := gen.GenerateTicketQR("ord-1")
	assert.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngHeader))
}

func TestGenerateTicketQREscapesOrderID(t *testing.T) {
	gen := qr.NewGenerator("http://localhost:8086/api/orders/verify")

	png, err := gen.GenerateTicketQR("ord 1&x=y")
	assert.NoError(t, err)
	assert.NotEmpty(t, png)
}
