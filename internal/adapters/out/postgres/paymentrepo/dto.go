// Package paymentrepo persists payments, their invoices and the cached
// credentials of the payment gateway.
package paymentrepo

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/payment"

	"github.com/google/uuid"
)

// PaymentDTO is one payments row. The invoice returned by the gateway is kept
// inline so a repeated pickup request can be answered without calling it.
type PaymentDTO struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID    `gorm:"type:uuid;not null;index"`
	Amount    int64        `gorm:"not null"`
	Status    string       `gorm:"size:16;not null;index"`
	InvoiceID string       `gorm:"size:64;index"`
	QRText    string       `gorm:"column:qr_text;type:text"`
	QRImage   string       `gorm:"column:qr_image;type:text"`
	ShortURL  string       `gorm:"size:255"`
	Deeplinks DeeplinkList `gorm:"type:jsonb"`
	Version   int          `gorm:"not null"`
	CreatedAt time.Time    `gorm:"not null;index"`
	PaidAt    *time.Time
	FailedAt  *time.Time
}

func (PaymentDTO) TableName() string {
	return "payments"
}

// DeeplinkDTO is stored as an element of the deeplinks JSON array.
type DeeplinkDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
	Link        string `json:"link"`
}

// DeeplinkList maps onto a jsonb column, both in Create and in column map
// updates.
type DeeplinkList []DeeplinkDTO

func (l DeeplinkList) Value() (driver.Value, error) {
	if l == nil {
		l = DeeplinkList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *DeeplinkList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("deeplinks: unsupported source %T", src)
	}
	return json.Unmarshal(raw, l)
}

func fromDomain(p *payment.Payment) PaymentDTO {
	invoice := p.Invoice()
	links := make(DeeplinkList, 0, len(invoice.Deeplinks))
	for _, l := range invoice.Deeplinks {
		links = append(links, DeeplinkDTO{
			Name:        l.Name,
			Description: l.Description,
			Logo:        l.Logo,
			Link:        l.Link,
		})
	}

	return PaymentDTO{
		ID:        p.ID().Bytes(),
		OrderID:   p.OrderID().Bytes(),
		Amount:    p.Amount(),
		Status:    p.Status().String(),
		InvoiceID: invoice.ID,
		QRText:    invoice.QRText,
		QRImage:   invoice.QRImage,
		ShortURL:  invoice.ShortURL,
		Deeplinks: links,
		Version:   p.Version(),
		CreatedAt: p.CreatedAt(),
		PaidAt:    p.PaidAt(),
		FailedAt:  p.FailedAt(),
	}
}

func (dto PaymentDTO) mutableColumns() map[string]any {
	return map[string]any{
		"status":     dto.Status,
		"invoice_id": dto.InvoiceID,
		"qr_text":    dto.QRText,
		"qr_image":   dto.QRImage,
		"short_url":  dto.ShortURL,
		"deeplinks":  dto.Deeplinks,
		"paid_at":    dto.PaidAt,
		"failed_at":  dto.FailedAt,
		"version":    dto.Version,
	}
}

func toDomain(dto PaymentDTO) (*payment.Payment, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}
	status, err := payment.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	var invoice payment.Invoice
	if dto.InvoiceID != "" {
		links := make([]payment.Deeplink, 0, len(dto.Deeplinks))
		for _, l := range dto.Deeplinks {
			links = append(links, payment.Deeplink{
				Name:        l.Name,
				Description: l.Description,
				Logo:        l.Logo,
				Link:        l.Link,
			})
		}
		invoice, err = payment.NewInvoice(dto.InvoiceID, dto.QRText, dto.QRImage, dto.ShortURL, links)
		if err != nil {
			return nil, err
		}
	}

	return payment.RestorePayment(id, orderID, dto.Amount, status, invoice,
		dto.Version, dto.CreatedAt, dto.PaidAt, dto.FailedAt)
}
