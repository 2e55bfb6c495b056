package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iwtcode/conveyorControl/internal/domain/entities"
)

func TestCommandLogStoreAppendAssignsIDs(t *testing.T) {
	ctx := context.Background()
	s := NewCommandLogStore()
	base := time.Date(2026, time.March, 2, 6, 0, 0, 0, time.UTC)

	for i, cmd := range []entities.Command{entities.CommandStart, entities.CommandPause} {
		rec := &entities.ConveyorStatus{Timestamp: base.Add(time.Duration(i) * time.Minute), Command: cmd}
		if err := s.Append(ctx, rec); err != nil {
			t.Fatalf("append: %v", err)
		}
		if rec.ID != uint64(i+1) {
			t.Fatalf("ID = %d, want %d", rec.ID, i+1)
		}
	}

	last, err := s.Last(ctx)
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if last == nil || last.Command != entities.CommandPause {
		t.Fatalf("last = %+v", last)
	}
}

func TestCommandLogStoreQueryOrdersAndFilters(t *testing.T) {
	ctx := context.Background()
	s := NewCommandLogStore()
	base := time.Date(2026, time.March, 2, 6, 0, 0, 0, time.UTC)

	// Same timestamp twice: ties break on ID.
	recs := []entities.ConveyorStatus{
		{Timestamp: base.Add(2 * time.Minute), Command: entities.CommandStop},
		{Timestamp: base, Command: entities.CommandStart},
		{Timestamp: base, Command: entities.CommandPause},
	}
	for i := range recs {
		if err := s.Append(ctx, &recs[i]); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	var got []entities.Command
	for rec, err := range s.Query(ctx, entities.HistoryFilter{}) {
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		got = append(got, rec.Command)
	}
	want := []entities.Command{entities.CommandStart, entities.CommandPause, entities.CommandStop}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	n := 0
	for rec, err := range s.Query(ctx, entities.HistoryFilter{Commands: []entities.Command{entities.CommandStop}}) {
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if rec.Command != entities.CommandStop {
			t.Fatalf("unexpected command %s", rec.Command)
		}
		n++
	}
	if n != 1 {
		t.Fatalf("filtered count = %d, want 1", n)
	}
}

func TestCommandLogStoreFailure(t *testing.T) {
	ctx := context.Background()
	s := NewCommandLogStore()
	boom := errors.New("boom")
	s.FailWith(boom)

	if err := s.Append(ctx, &entities.ConveyorStatus{Timestamp: time.Now(), Command: entities.CommandStart}); !errors.Is(err, boom) {
		t.Fatalf("append err = %v, want boom", err)
	}
	if s.Len() != 0 {
		t.Fatalf("Len = %d, want 0", s.Len())
	}
	for _, err := range s.Query(ctx, entities.HistoryFilter{}) {
		if !errors.Is(err, boom) {
			t.Fatalf("query err = %v, want boom", err)
		}
	}
}

func TestStockStoreLoadOrdersByPosition(t *testing.T) {
	ctx := context.Background()
	s := NewStockStore()
	for _, row := range []entities.StockSummary{
		{CarModel: "HatchY", Count: 2, Position: 1},
		{CarModel: "SedanX", Count: 5, Position: 0},
	} {
		if err := s.Save(ctx, row); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	rows, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 2 || rows[0].CarModel != "SedanX" || rows[1].CarModel != "HatchY" {
		t.Fatalf("rows = %+v", rows)
	}
}
