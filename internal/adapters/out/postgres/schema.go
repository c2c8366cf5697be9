package postgres

import (
	"context"
	"fmt"

	"parcellocker/internal/adapters/out/postgres/lockerrepo"
	"parcellocker/internal/adapters/out/postgres/orderrepo"
	"parcellocker/internal/adapters/out/postgres/paymentrepo"
	"parcellocker/internal/adapters/out/postgres/smslogrepo"

	"gorm.io/gorm"
)

// Tables lists every table owned by this service, in dependency order.
var Tables = []string{
	"containers",
	"lockers",
	"delivery_orders",
	"pickup_codes",
	"payments",
	"provider_tokens",
	"sms_messages",
}

// partialIndexes cannot be expressed through gorm struct tags.
var partialIndexes = []string{
	// one active order per locker
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_delivery_orders_active_locker
		ON delivery_orders (board_id, locker_number)
		WHERE status IN ('WAITING', 'DELIVERED')`,
	// one open payment per order
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_payments_open_order
		ON payments (order_id)
		WHERE status <> 'FAILED'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_payments_invoice
		ON payments (invoice_id)
		WHERE invoice_id <> ''`,
}

// Migrate creates or updates the schema. It is idempotent.
func Migrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)

	if err := db.AutoMigrate(
		&lockerrepo.ContainerDTO{},
		&lockerrepo.LockerDTO{},
		&orderrepo.OrderDTO{},
		&orderrepo.PickupCodeDTO{},
		&paymentrepo.PaymentDTO{},
		&paymentrepo.ProviderTokenDTO{},
		&smslogrepo.SMSMessageDTO{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
