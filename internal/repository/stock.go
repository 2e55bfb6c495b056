package repository

import (
	"context"

	"github.com/iwtcode/conveyorControl/internal/domain/entities"
	"github.com/iwtcode/conveyorControl/internal/interfaces"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type stockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) interfaces.StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) Load(ctx context.Context) ([]entities.StockSummary, error) {
	var rows []entities.StockSummary
	err := r.db.WithContext(ctx).Order("position ASC").Find(&rows).Error
	return rows, err
}

func (r *stockRepository) Save(ctx context.Context, summary entities.StockSummary) error {
	// Upsert: position is fixed at first insert
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "car_model"}},
		DoUpdates: clause.AssignmentColumns([]string{"count", "updated_at"}),
	}).Create(&summary).Error
}
