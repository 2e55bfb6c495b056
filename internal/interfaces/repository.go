package interfaces

import (
	"context"
	"iter"

	"github.com/iwtcode/conveyorControl/internal/domain/entities"
)

type CommandLogRepository interface {
	// Append persists the record and assigns its ID.
	Append(ctx context.Context, record *entities.ConveyorStatus) error
	// Query yields matching records in ascending (timestamp, id) order.
	// Each range over the result runs the query again.
	Query(ctx context.Context, filter entities.HistoryFilter) iter.Seq2[entities.ConveyorStatus, error]
	// Last returns the most recent record, or nil when the log is empty.
	Last(ctx context.Context) (*entities.ConveyorStatus, error)
}

type StockRepository interface {
	// Load returns every summary ordered by Position.
	Load(ctx context.Context) ([]entities.StockSummary, error)
	// Save upserts one summary by car model.
	Save(ctx context.Context, summary entities.StockSummary) error
}
