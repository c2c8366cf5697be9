package queries

import (
	"context"

	"parcellocker/internal/pkg/errs"

	"gorm.io/gorm"
)

type GetLockerStatusQueryHandler struct {
	db *gorm.DB
}

func NewGetLockerStatusQueryHandler(db *gorm.DB) GetLockerStatusQueryHandler {
	return GetLockerStatusQueryHandler{db: db}
}

// Handle returns ObjectNotFoundError for an unknown board.
func (h GetLockerStatusQueryHandler) Handle(
	ctx context.Context,
	query GetLockerStatusQuery,
) (*GetLockerStatusResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var container struct {
		BoardID  string
		Location string
		Status   string
	}
	result := h.db.WithContext(ctx).Raw(`
		SELECT board_id, location, status
		FROM containers
		WHERE board_id = ?
	`, query.BoardID()).Scan(&container)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, errs.NewObjectNotFoundError("boardId", query.BoardID())
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			number,
			locker_index,
			status
		FROM lockers
		WHERE board_id = ?
		ORDER BY locker_index
	`, query.BoardID()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	response := &GetLockerStatusResponse{
		BoardID:         container.BoardID,
		Location:        container.Location,
		ContainerStatus: container.Status,
		Lockers:         make([]LockerStatusItem, 0),
	}
	for rows.Next() {
		var item LockerStatusItem
		if err = rows.Scan(&item.Number, &item.Index, &item.Status); err != nil {
			return nil, err
		}
		response.Lockers = append(response.Lockers, item)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return response, nil
}
