package interfaces

import (
	"context"
	"iter"

	"github.com/iwtcode/conveyorControl/internal/domain/entities"
)

type CommandLog interface {
	Append(ctx context.Context, record *entities.ConveyorStatus) error
	Query(ctx context.Context, filter entities.HistoryFilter) (iter.Seq2[entities.ConveyorStatus, error], error)
	Last(ctx context.Context) (*entities.ConveyorStatus, error)
}

type ConveyorStateMachine interface {
	Submit(ctx context.Context, cmd entities.Command, reason string) (entities.ConveyorState, error)
	// Reset is the administrative exit from EMERGENCY_STOPPED.
	Reset(ctx context.Context, reason string) (entities.ConveyorState, error)
	// Restore derives the current state from the command log.
	Restore(ctx context.Context) error
	State() entities.ConveyorState
	// WhileRunning calls fn with the line held in RUNNING.
	WhileRunning(fn func() error) error
}

type StockAggregator interface {
	RecordProduction(ctx context.Context, carModel string) (int64, error)
	Summarize() []entities.StockSummary
	Reset(ctx context.Context, carModel string) error
	Load(ctx context.Context) error
}

type ControlUsecase interface {
	IssueCommand(ctx context.Context, cmd entities.Command, reason string) (entities.ConveyorState, error)
	ResetEmergency(ctx context.Context, reason string) (entities.ConveyorState, error)
	ReportProduction(ctx context.Context, carModel string) (int64, error)
	GetStockSummary(ctx context.Context) []entities.StockSummary
	ResetStock(ctx context.Context, carModel string) error
	GetCurrentState(ctx context.Context) entities.ConveyorState
	GetCommandHistory(ctx context.Context, filter entities.HistoryFilter) (iter.Seq2[entities.ConveyorStatus, error], error)
}
