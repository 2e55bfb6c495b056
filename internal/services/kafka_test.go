package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/iwtcode/conveyorControl/internal/domain/entities"
	"github.com/iwtcode/conveyorControl/internal/interfaces"
	"github.com/iwtcode/conveyorControl/internal/repository/memory"
	"github.com/iwtcode/conveyorControl/internal/usecases"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return kafka.Message{}, err
	}
	if len(r.messages) == 0 {
		return kafka.Message{}, io.EOF
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

type harness struct {
	control    interfaces.ControlUsecase
	stockStore *memory.StockStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := usecases.NewCommandLog(memory.NewCommandLogStore())
	conveyor := usecases.NewConveyorStateMachine(log, zap.NewNop())
	stockStore := memory.NewStockStore()
	stock := usecases.NewStockAggregator(stockStore, zap.NewNop())
	return &harness{
		control:    usecases.NewControlUsecase(conveyor, stock, log),
		stockStore: stockStore,
	}
}

func (h *harness) count(model string) int64 {
	for _, s := range h.control.GetStockSummary(context.Background()) {
		if s.CarModel == model {
			return s.Count
		}
	}
	return 0
}

func TestRunCountsAndCommitsEveryMessage(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	if _, err := h.control.IssueCommand(ctx, entities.CommandStart, ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	reader := &fakeReader{messages: []kafka.Message{
		{Offset: 1, Value: []byte(`{"event_id":"a","car_model":"SedanX"}`)},
		{Offset: 2, Value: []byte(`{broken`)},
		{Offset: 3, Key: []byte("SedanX")},
		{Offset: 4, Value: []byte(`{"car_model":"HatchY","timestamp":1700000000000}`)},
	}}
	consumer := NewProductionConsumerWithReader(reader, h.control, 2, 0, zap.NewNop())

	if err := consumer.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(reader.committed) != 4 {
		t.Fatalf("committed = %v, want 4 offsets", reader.committed)
	}
	if got := h.count("SedanX"); got != 2 {
		t.Fatalf("SedanX = %d, want 2", got)
	}
	if got := h.count("HatchY"); got != 1 {
		t.Fatalf("HatchY = %d, want 1", got)
	}

	if err := consumer.Close(); err != nil || !reader.closed {
		t.Fatalf("close = %v, closed %v", err, reader.closed)
	}
}

func TestHandleOutcomes(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := NewProductionConsumerWithReader(&fakeReader{}, h.control, 2, 0, zap.NewNop()).(*productionConsumer)
	msg := kafka.Message{Value: []byte(`{"car_model":"SedanX"}`)}

	if got := c.handle(ctx, msg); got != outcomeRefused {
		t.Fatalf("stopped line outcome = %v, want refused", got)
	}
	if got := c.handle(ctx, kafka.Message{Value: []byte(`{}`)}); got != outcomeInvalid {
		t.Fatalf("empty model outcome = %v, want invalid", got)
	}

	if _, err := h.control.IssueCommand(ctx, entities.CommandStart, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := c.handle(ctx, msg); got != outcomeCounted {
		t.Fatalf("running outcome = %v, want counted", got)
	}

	h.stockStore.FailWith(errors.New("db down"))
	if got := c.handle(ctx, msg); got != outcomeFailed {
		t.Fatalf("persistence outcome = %v, want failed", got)
	}
	h.stockStore.FailWith(nil)
	if got := h.count("SedanX"); got != 1 {
		t.Fatalf("SedanX = %d, want 1", got)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reader := &fakeReader{messages: []kafka.Message{{Offset: 1, Key: []byte("SedanX")}}}
	consumer := NewProductionConsumerWithReader(reader, newHarness(t).control, 0, 0, zap.NewNop())

	if err := consumer.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(reader.committed) != 0 {
		t.Fatalf("committed = %v, want none", reader.committed)
	}
}
