package queries

import (
	"context"
	"strings"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GetDeliveriesQueryHandler struct {
	db *gorm.DB
}

func NewGetDeliveriesQueryHandler(db *gorm.DB) GetDeliveriesQueryHandler {
	return GetDeliveriesQueryHandler{db: db}
}

func (h GetDeliveriesQueryHandler) Handle(ctx context.Context, query GetDeliveriesQuery) ([]DeliveryItem, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if query.boardID != "" {
		where = append(where, "board_id = ?")
		args = append(args, query.boardID)
	}
	if query.status != order.Unknown {
		where = append(where, "status = ?")
		args = append(args, query.status.String())
	}

	sql := `
		SELECT
			id,
			board_id,
			locker_number,
			locker_index,
			recipient_phone,
			status,
			payment_status,
			created_at,
			picked_up_at,
			cancelled_at
		FROM delivery_orders`
	if len(where) > 0 {
		sql += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	sql += "\n\t\tORDER BY created_at DESC, id\n\t\tLIMIT ?"
	args = append(args, query.limit)

	rows, err := h.db.WithContext(ctx).Raw(sql, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]DeliveryItem, 0)
	for rows.Next() {
		var item DeliveryItem
		var id uuid.UUID

		err = rows.Scan(
			&id,
			&item.BoardID,
			&item.LockerNumber,
			&item.LockerIndex,
			&item.Recipient,
			&item.Status,
			&item.PaymentStatus,
			&item.CreatedAt,
			&item.PickedUpAt,
			&item.CancelledAt,
		)
		if err != nil {
			return nil, err
		}

		orderID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		item.ID = orderID
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}
