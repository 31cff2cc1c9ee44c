package mailer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"

	"ms-payments/internal/config"
	"ms-payments/internal/logger"
	"ms-payments/internal/models"
	"ms-payments/internal/tickets/qr"
)

// Mailer sends the ticket confirmation email. It is invoked exactly once per
// order, as a side effect of order creation, never of a status update.
type Mailer struct {
	cfg    config.EmailConfig
	qrGen  *qr.Generator
	logger *logger.Logger
}

func NewMailer(cfg config.EmailConfig, qrGen *qr.Generator, log *logger.Logger) *Mailer {
	return &Mailer{cfg: cfg, qrGen: qrGen, logger: log}
}

// SendTicketEmail emails the buyer their ticket with the verification QR
// attached as a PNG.
func (m *Mailer) SendTicketEmail(order *models.Order, event *models.Event) error {
	if order.BuyerEmail == "" {
		return fmt.Errorf("order %s has no buyer email", order.ID)
	}

	qrPNG, err := m.qrGen.GenerateTicketQR(order.ID)
	if err != nil {
		return err
	}

	msg, err := m.buildMessage(order, event, qrPNG)
	if err != nil {
		return err
	}

	addr := m.cfg.SMTPHost + ":" + m.cfg.SMTPPort
	auth := smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	if err := smtp.SendMail(addr, auth, m.cfg.FromAddress, []string{order.BuyerEmail}, msg); err != nil {
		return fmt.Errorf("failed to send ticket email for order %s: %w", order.ID, err)
	}

	m.logger.Info("MAILER", fmt.Sprintf("ticket email sent for order %s to %s", order.ID, order.BuyerEmail))
	return nil
}

func (m *Mailer) buildMessage(order *models.Order, event *models.Event, qrPNG []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	title := "your event"
	if event != nil {
		title = event.Title
	}

	fmt.Fprintf(&buf, "From: %s\r\n", m.cfg.FromAddress)
	fmt.Fprintf(&buf, "To: %s\r\n", order.BuyerEmail)
	fmt.Fprintf(&buf, "Subject: Your tickets for %s\r\n", title)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", writer.Boundary())

	// Plain-text body part.
	bodyHeader := textproto.MIMEHeader{}
	bodyHeader.Set("Content-Type", "text/plain; charset=utf-8")
	bodyPart, err := writer.CreatePart(bodyHeader)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(bodyPart, "Hi %s,\r\n\r\n", order.FirstName)
	fmt.Fprintf(bodyPart, "Your order for %s is confirmed.\r\n", title)
	fmt.Fprintf(bodyPart, "Order ID: %s\r\nQuantity: %d\r\nTotal: %s %s\r\n\r\n",
		order.ID, order.Quantity, order.TotalAmount, order.Currency)
	fmt.Fprintf(bodyPart, "Present the attached QR code at the entrance.\r\n")

	// QR attachment part.
	qrHeader := textproto.MIMEHeader{}
	qrHeader.Set("Content-Type", "image/png")
	qrHeader.Set("Content-Transfer-Encoding", "base64")
	qrHeader.Set("Content-Disposition", fmt.Sprintf("attachment; filename=ticket-%s.png", order.ID))
	qrPart, err := writer.CreatePart(qrHeader)
	if err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(qrPNG)
	for len(encoded) > 76 {
		fmt.Fprintf(qrPart, "%s\r\n", encoded[:76])
		encoded = encoded[76:]
	}
	fmt.Fprintf(qrPart, "%s\r\n", encoded)

	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
