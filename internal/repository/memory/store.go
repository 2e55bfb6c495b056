// Package memory keeps the conveyor log and stock tables in process memory.
// Failures can be injected to exercise persistence error paths.
package memory

import (
	"cmp"
	"context"
	"iter"
	"slices"
	"sync"

	"github.com/iwtcode/conveyorControl/internal/domain/entities"
	"github.com/iwtcode/conveyorControl/internal/interfaces"
)

type CommandLogStore struct {
	mu      sync.RWMutex
	records []entities.ConveyorStatus
	nextID  uint64
	failErr error
}

func NewCommandLogStore() *CommandLogStore {
	return &CommandLogStore{nextID: 1}
}

var _ interfaces.CommandLogRepository = (*CommandLogStore)(nil)

// FailWith makes every following call return err; nil clears it.
func (s *CommandLogStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

func (s *CommandLogStore) Append(ctx context.Context, record *entities.ConveyorStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}

	stored := *record
	stored.ID = s.nextID
	if record.Reason != nil {
		reason := *record.Reason
		stored.Reason = &reason
	}
	s.nextID++
	s.records = append(s.records, stored)
	record.ID = stored.ID
	return nil
}

func (s *CommandLogStore) Query(ctx context.Context, filter entities.HistoryFilter) iter.Seq2[entities.ConveyorStatus, error] {
	return func(yield func(entities.ConveyorStatus, error) bool) {
		matched, err := s.snapshot(ctx, filter)
		if err != nil {
			yield(entities.ConveyorStatus{}, err)
			return
		}
		for _, r := range matched {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func (s *CommandLogStore) snapshot(ctx context.Context, filter entities.HistoryFilter) ([]entities.ConveyorStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failErr != nil {
		return nil, s.failErr
	}

	var matched []entities.ConveyorStatus
	for _, r := range s.records {
		if filter.Matches(r) {
			matched = append(matched, r)
		}
	}
	slices.SortStableFunc(matched, func(a, b entities.ConveyorStatus) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return matched, nil
}

func (s *CommandLogStore) Last(ctx context.Context) (*entities.ConveyorStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	if len(s.records) == 0 {
		return nil, nil
	}
	last := s.records[len(s.records)-1]
	return &last, nil
}

// Len returns the number of stored records.
func (s *CommandLogStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

type StockStore struct {
	mu      sync.RWMutex
	rows    map[string]entities.StockSummary
	failErr error
}

func NewStockStore() *StockStore {
	return &StockStore{rows: make(map[string]entities.StockSummary)}
}

var _ interfaces.StockRepository = (*StockStore)(nil)

func (s *StockStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

func (s *StockStore) Load(ctx context.Context) ([]entities.StockSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failErr != nil {
		return nil, s.failErr
	}

	out := make([]entities.StockSummary, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	slices.SortFunc(out, func(a, b entities.StockSummary) int {
		return cmp.Compare(a.Position, b.Position)
	})
	return out, nil
}

func (s *StockStore) Save(ctx context.Context, summary entities.StockSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.rows[summary.CarModel] = summary
	return nil
}

// Get returns the stored row for carModel.
func (s *StockStore) Get(carModel string) (entities.StockSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[carModel]
	return row, ok
}
