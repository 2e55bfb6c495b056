package usecases

import (
	"context"
	"iter"

	"github.com/iwtcode/conveyorControl/internal/domain/entities"
	"github.com/iwtcode/conveyorControl/internal/interfaces"
)

type controlUsecase struct {
	conveyor interfaces.ConveyorStateMachine
	stock    interfaces.StockAggregator
	log      interfaces.CommandLog
}

func NewControlUsecase(
	conveyor interfaces.ConveyorStateMachine,
	stock interfaces.StockAggregator,
	log interfaces.CommandLog,
) interfaces.ControlUsecase {
	return &controlUsecase{
		conveyor: conveyor,
		stock:    stock,
		log:      log,
	}
}

func (u *controlUsecase) IssueCommand(ctx context.Context, cmd entities.Command, reason string) (entities.ConveyorState, error) {
	return u.conveyor.Submit(ctx, cmd, reason)
}

func (u *controlUsecase) ResetEmergency(ctx context.Context, reason string) (entities.ConveyorState, error) {
	return u.conveyor.Reset(ctx, reason)
}

// ReportProduction counts the unit only while the line is held RUNNING.
func (u *controlUsecase) ReportProduction(ctx context.Context, carModel string) (int64, error) {
	var count int64
	err := u.conveyor.WhileRunning(func() error {
		var err error
		count, err = u.stock.RecordProduction(ctx, carModel)
		return err
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (u *controlUsecase) GetStockSummary(ctx context.Context) []entities.StockSummary {
	return u.stock.Summarize()
}

func (u *controlUsecase) ResetStock(ctx context.Context, carModel string) error {
	return u.stock.Reset(ctx, carModel)
}

func (u *controlUsecase) GetCurrentState(ctx context.Context) entities.ConveyorState {
	return u.conveyor.State()
}

func (u *controlUsecase) GetCommandHistory(ctx context.Context, filter entities.HistoryFilter) (iter.Seq2[entities.ConveyorStatus, error], error) {
	return u.log.Query(ctx, filter)
}
