package repository

import (
	"context"
	"errors"
	"iter"

	"github.com/iwtcode/conveyorControl/internal/domain/entities"
	"github.com/iwtcode/conveyorControl/internal/interfaces"
	"gorm.io/gorm"
)

type commandLogRepository struct {
	db *gorm.DB
}

func NewCommandLogRepository(db *gorm.DB) interfaces.CommandLogRepository {
	return &commandLogRepository{db: db}
}

func (r *commandLogRepository) Append(ctx context.Context, record *entities.ConveyorStatus) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *commandLogRepository) Query(ctx context.Context, filter entities.HistoryFilter) iter.Seq2[entities.ConveyorStatus, error] {
	return func(yield func(entities.ConveyorStatus, error) bool) {
		q := r.db.WithContext(ctx).Model(&entities.ConveyorStatus{})
		if !filter.From.IsZero() {
			q = q.Where(`"timestamp" >= ?`, filter.From)
		}
		if !filter.To.IsZero() {
			q = q.Where(`"timestamp" < ?`, filter.To)
		}
		if len(filter.Commands) > 0 {
			q = q.Where("command IN ?", filter.Commands)
		}

		rows, err := q.Order(`"timestamp" ASC`).Order("id ASC").Rows()
		if err != nil {
			yield(entities.ConveyorStatus{}, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var rec entities.ConveyorStatus
			if err := r.db.ScanRows(rows, &rec); err != nil {
				yield(entities.ConveyorStatus{}, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(entities.ConveyorStatus{}, err)
		}
	}
}

func (r *commandLogRepository) Last(ctx context.Context) (*entities.ConveyorStatus, error) {
	var rec entities.ConveyorStatus
	err := r.db.WithContext(ctx).Order("id DESC").First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}
