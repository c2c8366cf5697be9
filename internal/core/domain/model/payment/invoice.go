package payment

import (
	"strings"

	"parcellocker/internal/pkg/errs"
)

// Deeplink opens a banking app on the invoice.
type Deeplink struct {
	Name        string
	Description string
	Logo        string
	Link        string
}

// Invoice is what the gateway returned for a payment request. It is stored with
// the payment so a repeated pickup request gets the same instructions back.
type Invoice struct {
	ID        string
	QRText    string
	QRImage   string
	ShortURL  string
	Deeplinks []Deeplink
}

func NewInvoice(id, qrText, qrImage, shortURL string, deeplinks []Deeplink) (Invoice, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Invoice{}, errs.NewValueIsRequiredError("invoiceId")
	}
	return Invoice{
		ID:        id,
		QRText:    qrText,
		QRImage:   qrImage,
		ShortURL:  shortURL,
		Deeplinks: deeplinks,
	}, nil
}
