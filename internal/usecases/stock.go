package usecases

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/iwtcode/conveyorControl/internal/domain"
	"github.com/iwtcode/conveyorControl/internal/domain/entities"
	"github.com/iwtcode/conveyorControl/internal/interfaces"
	"go.uber.org/zap"
)

type stockCounter struct {
	mu      sync.Mutex
	summary entities.StockSummary
}

type stockAggregator struct {
	// mu guards counters and order; each counter guards its own count.
	mu       sync.RWMutex
	counters map[string]*stockCounter
	order    []*stockCounter
	nextPos  int64

	repo   interfaces.StockRepository
	now    func() time.Time
	logger *zap.Logger
}

func NewStockAggregator(repo interfaces.StockRepository, logger *zap.Logger) interfaces.StockAggregator {
	return &stockAggregator{
		counters: make(map[string]*stockCounter),
		repo:     repo,
		now:      time.Now,
		logger:   logger.Named("stock"),
	}
}

func (a *stockAggregator) Load(ctx context.Context) error {
	rows, err := a.repo.Load(ctx)
	if err != nil {
		return domain.NewPersistenceError("load stock", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.counters = make(map[string]*stockCounter, len(rows))
	a.order = make([]*stockCounter, 0, len(rows))
	a.nextPos = 0
	for _, row := range rows {
		if _, dup := a.counters[row.CarModel]; dup {
			continue
		}
		c := &stockCounter{summary: row}
		a.counters[row.CarModel] = c
		a.order = append(a.order, c)
		if row.Position >= a.nextPos {
			a.nextPos = row.Position + 1
		}
	}
	a.logger.Info("stock loaded", zap.Int("models", len(a.order)))
	return nil
}

func (a *stockAggregator) RecordProduction(ctx context.Context, carModel string) (int64, error) {
	carModel = strings.TrimSpace(carModel)
	if carModel == "" {
		return 0, domain.ErrInvalidCarModel
	}

	if c := a.lookup(carModel); c != nil {
		return a.increment(ctx, c)
	}

	a.mu.Lock()
	if c, ok := a.counters[carModel]; ok {
		a.mu.Unlock()
		return a.increment(ctx, c)
	}
	defer a.mu.Unlock()

	// First event for this model: the entry exists only once it is stored.
	summary := entities.StockSummary{
		CarModel:  carModel,
		Count:     1,
		Position:  a.nextPos,
		UpdatedAt: a.now().UTC(),
	}
	if err := a.repo.Save(ctx, summary); err != nil {
		a.logger.Error("stock save failed", zap.String("car_model", carModel), zap.Error(err))
		return 0, domain.NewPersistenceError("save stock", err)
	}
	c := &stockCounter{summary: summary}
	a.counters[carModel] = c
	a.order = append(a.order, c)
	a.nextPos++
	return 1, nil
}

func (a *stockAggregator) increment(ctx context.Context, c *stockCounter) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.summary
	next.Count++
	next.UpdatedAt = a.now().UTC()
	if err := a.repo.Save(ctx, next); err != nil {
		a.logger.Error("stock save failed", zap.String("car_model", next.CarModel), zap.Error(err))
		return 0, domain.NewPersistenceError("save stock", err)
	}
	c.summary = next
	return next.Count, nil
}

func (a *stockAggregator) Reset(ctx context.Context, carModel string) error {
	carModel = strings.TrimSpace(carModel)
	if carModel == "" {
		return domain.ErrInvalidCarModel
	}
	c := a.lookup(carModel)
	if c == nil {
		return fmt.Errorf("%w: %q", domain.ErrUnknownCarModel, carModel)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.summary
	next.Count = 0
	next.UpdatedAt = a.now().UTC()
	if err := a.repo.Save(ctx, next); err != nil {
		return domain.NewPersistenceError("reset stock", err)
	}
	c.summary = next
	a.logger.Info("stock reset", zap.String("car_model", carModel))
	return nil
}

// Summarize holds every counter at once, so the snapshot is consistent
// across models.
func (a *stockAggregator) Summarize() []entities.StockSummary {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, c := range a.order {
		c.mu.Lock()
	}
	out := make([]entities.StockSummary, len(a.order))
	for i, c := range a.order {
		out[i] = c.summary
	}
	for _, c := range a.order {
		c.mu.Unlock()
	}
	return out
}

func (a *stockAggregator) lookup(carModel string) *stockCounter {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.counters[carModel]
}
