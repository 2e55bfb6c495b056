package usecases

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/iwtcode/conveyorControl/internal/domain"
	"github.com/iwtcode/conveyorControl/internal/domain/entities"
	"github.com/iwtcode/conveyorControl/internal/interfaces"
)

type commandLog struct {
	repo interfaces.CommandLogRepository
}

func NewCommandLog(repo interfaces.CommandLogRepository) interfaces.CommandLog {
	return &commandLog{repo: repo}
}

func (l *commandLog) Append(ctx context.Context, record *entities.ConveyorStatus) error {
	if !record.Command.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownCommand, record.Command)
	}
	if record.Timestamp.IsZero() {
		return fmt.Errorf("record timestamp is required")
	}
	if record.Command.RequiresReason() && strings.TrimSpace(record.ReasonText()) == "" {
		return fmt.Errorf("%s record: %w", record.Command, domain.ErrMissingReason)
	}

	if err := l.repo.Append(ctx, record); err != nil {
		return domain.NewPersistenceError("append", err)
	}
	return nil
}

func (l *commandLog) Query(ctx context.Context, filter entities.HistoryFilter) (iter.Seq2[entities.ConveyorStatus, error], error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.From.After(filter.To) {
		return nil, fmt.Errorf("%w: from %s is after to %s", domain.ErrInvalidRange, filter.From, filter.To)
	}
	for _, c := range filter.Commands {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCommand, c)
		}
	}

	seq := l.repo.Query(ctx, filter)
	return func(yield func(entities.ConveyorStatus, error) bool) {
		for rec, err := range seq {
			if err != nil {
				yield(entities.ConveyorStatus{}, domain.NewPersistenceError("query", err))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}, nil
}

func (l *commandLog) Last(ctx context.Context) (*entities.ConveyorStatus, error) {
	rec, err := l.repo.Last(ctx)
	if err != nil {
		return nil, domain.NewPersistenceError("last", err)
	}
	return rec, nil
}

// CollectHistory drains a history sequence into a slice.
func CollectHistory(seq iter.Seq2[entities.ConveyorStatus, error]) ([]entities.ConveyorStatus, error) {
	var out []entities.ConveyorStatus
	for rec, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
