package usecases

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/iwtcode/conveyorControl/internal/domain/entities"
	"github.com/iwtcode/conveyorControl/internal/interfaces"
	"github.com/iwtcode/conveyorControl/internal/repository/memory"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, time.March, 4, 6, 0, 0, 0, time.UTC), step: time.Second}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

type fixture struct {
	logStore   *memory.CommandLogStore
	stockStore *memory.StockStore
	log        interfaces.CommandLog
	conveyor   interfaces.ConveyorStateMachine
	stock      interfaces.StockAggregator
	control    interfaces.ControlUsecase
	clock      *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		logStore:   memory.NewCommandLogStore(),
		stockStore: memory.NewStockStore(),
		clock:      newFakeClock(),
	}
	f.log = NewCommandLog(f.logStore)
	f.conveyor = NewConveyorStateMachineWithClock(f.log, zap.NewNop(), f.clock.Now)
	f.stock = NewStockAggregator(f.stockStore, zap.NewNop())
	f.control = NewControlUsecase(f.conveyor, f.stock, f.log)
	return f
}

// driveTo brings a fresh fixture into state via legal commands.
func (f *fixture) driveTo(t *testing.T, state entities.ConveyorState) {
	t.Helper()
	var cmds []entities.Command
	switch state {
	case entities.StateStopped:
	case entities.StateRunning:
		cmds = []entities.Command{entities.CommandStart}
	case entities.StatePaused:
		cmds = []entities.Command{entities.CommandStart, entities.CommandPause}
	case entities.StateEmergencyStopped:
		cmds = []entities.Command{entities.CommandEmergencyStop}
	}
	for _, cmd := range cmds {
		if _, err := f.conveyor.Submit(context.Background(), cmd, "setup"); err != nil {
			t.Fatalf("drive to %s: %s: %v", state, cmd, err)
		}
	}
	if got := f.conveyor.State(); got != state {
		t.Fatalf("drive to %s: state = %s", state, got)
	}
}

func (f *fixture) history(t *testing.T) []entities.ConveyorStatus {
	t.Helper()
	seq, err := f.log.Query(context.Background(), entities.HistoryFilter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	recs, err := CollectHistory(seq)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	return recs
}

func (f *fixture) countOf(model string) (int64, bool) {
	for _, s := range f.stock.Summarize() {
		if s.CarModel == model {
			return s.Count, true
		}
	}
	return 0, false
}
