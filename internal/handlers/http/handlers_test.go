package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iwtcode/conveyorControl/internal/repository/memory"
	"github.com/iwtcode/conveyorControl/internal/usecases"
	"go.uber.org/zap"
)

type testAPI struct {
	mux        http.Handler
	logStore   *memory.CommandLogStore
	stockStore *memory.StockStore
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	logStore := memory.NewCommandLogStore()
	stockStore := memory.NewStockStore()
	log := usecases.NewCommandLog(logStore)
	conveyor := usecases.NewConveyorStateMachine(log, zap.NewNop())
	stock := usecases.NewStockAggregator(stockStore, zap.NewNop())
	control := usecases.NewControlUsecase(conveyor, stock, log)
	return &testAPI{
		mux:        NewRouter(NewHandler(control, zap.NewNop())),
		logStore:   logStore,
		stockStore: stockStore,
	}
}

func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	a.mux.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestCommandAndProductionFlow(t *testing.T) {
	api := setupAPI(t)

	rr := api.do(t, http.MethodPost, "/api/conveyor/commands", `{"command":"start"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("start: %d %s", rr.Code, rr.Body.String())
	}
	if got := decode[stateResponse](t, rr); got.State != "RUNNING" {
		t.Fatalf("state = %s", got.State)
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected X-Request-Id")
	}

	for i := 1; i <= 3; i++ {
		rr = api.do(t, http.MethodPost, "/api/production", `{"carModel":"SedanX"}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("production: %d %s", rr.Code, rr.Body.String())
		}
		if got := decode[stockResponse](t, rr); got.Count != int64(i) {
			t.Fatalf("count = %d, want %d", got.Count, i)
		}
	}

	rr = api.do(t, http.MethodGet, "/api/stock", "")
	stock := decode[[]stockResponse](t, rr)
	if len(stock) != 1 || stock[0].CarModel != "SedanX" || stock[0].Count != 3 {
		t.Fatalf("stock = %+v", stock)
	}

	rr = api.do(t, http.MethodPost, "/api/conveyor/commands", `{"command":"EMERGENCY_STOP","reason":"sensor fault"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("estop: %d %s", rr.Code, rr.Body.String())
	}

	rr = api.do(t, http.MethodPost, "/api/production", `{"carModel":"SedanX"}`)
	if rr.Code != http.StatusConflict || decode[jsonError](t, rr).Error != "line_not_running" {
		t.Fatalf("production after estop: %d %s", rr.Code, rr.Body.String())
	}

	rr = api.do(t, http.MethodGet, "/api/conveyor/history", "")
	history := decode[[]historyRecord](t, rr)
	if len(history) != 2 || history[0].Command != "START" || history[1].Command != "EMERGENCY_STOP" {
		t.Fatalf("history = %+v", history)
	}
	if history[1].Reason == nil || *history[1].Reason != "sensor fault" {
		t.Fatalf("reason = %v", history[1].Reason)
	}

	rr = api.do(t, http.MethodGet, "/api/conveyor/history?command=EMERGENCY_STOP", "")
	if filtered := decode[[]historyRecord](t, rr); len(filtered) != 1 {
		t.Fatalf("filtered history = %+v", filtered)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"pause while stopped", http.MethodPost, "/api/conveyor/commands", `{"command":"PAUSE"}`, http.StatusConflict, "invalid_transition"},
		{"estop without reason", http.MethodPost, "/api/conveyor/commands", `{"command":"EMERGENCY_STOP"}`, http.StatusUnprocessableEntity, "missing_reason"},
		{"unknown command", http.MethodPost, "/api/conveyor/commands", `{"command":"JOG"}`, http.StatusBadRequest, "validation_error"},
		{"unknown field", http.MethodPost, "/api/conveyor/commands", `{"cmd":"START"}`, http.StatusBadRequest, "invalid_json"},
		{"reset while stopped", http.MethodPost, "/api/conveyor/reset", `{"reason":"x"}`, http.StatusConflict, "invalid_transition"},
		{"bad range", http.MethodGet, "/api/conveyor/history?from=yesterday", "", http.StatusBadRequest, "validation_error"},
		{"inverted range", http.MethodGet, "/api/conveyor/history?from=2026-03-02T00:00:00Z&to=2026-03-01T00:00:00Z", "", http.StatusBadRequest, "validation_error"},
		{"reset unknown model", http.MethodPost, "/api/stock/Ghost/reset", "", http.StatusNotFound, "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := setupAPI(t)
			rr := api.do(t, tt.method, tt.path, tt.body)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tt.status, rr.Body.String())
			}
			if got := decode[jsonError](t, rr).Error; got != tt.code {
				t.Fatalf("code = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestPersistenceErrorIsServiceUnavailable(t *testing.T) {
	api := setupAPI(t)
	api.logStore.FailWith(errors.New("db down"))

	rr := api.do(t, http.MethodPost, "/api/conveyor/commands", `{"command":"START"}`)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}

	api.logStore.FailWith(nil)
	rr = api.do(t, http.MethodGet, "/api/conveyor/state", "")
	if got := decode[stateResponse](t, rr); got.State != "STOPPED" {
		t.Fatalf("state = %s, want STOPPED", got.State)
	}
}

func TestResetFlowAndStockReset(t *testing.T) {
	api := setupAPI(t)
	api.do(t, http.MethodPost, "/api/conveyor/commands", `{"command":"START"}`)
	api.do(t, http.MethodPost, "/api/production", `{"carModel":"HatchY"}`)
	api.do(t, http.MethodPost, "/api/conveyor/commands", `{"command":"emergency-stop","reason":"jam"}`)

	rr := api.do(t, http.MethodPost, "/api/conveyor/reset", `{"reason":"jam cleared"}`)
	if rr.Code != http.StatusOK || decode[stateResponse](t, rr).State != "STOPPED" {
		t.Fatalf("reset: %d %s", rr.Code, rr.Body.String())
	}

	rr = api.do(t, http.MethodPost, "/api/stock/HatchY/reset", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("stock reset: %d %s", rr.Code, rr.Body.String())
	}
	if row, ok := api.stockStore.Get("HatchY"); !ok || row.Count != 0 {
		t.Fatalf("stored HatchY = %+v", row)
	}
}

func TestHealthAndRequestID(t *testing.T) {
	api := setupAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rr := httptest.NewRecorder()
	api.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := rr.Header().Get("X-Request-Id"); got != "req-123" {
		t.Fatalf("X-Request-Id = %q", got)
	}
	body := decode[map[string]string](t, rr)
	if body["status"] != "ok" || body["state"] != "STOPPED" {
		t.Fatalf("body = %v", body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	api := setupAPI(t)
	rr := api.do(t, http.MethodDelete, "/api/stock", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rr.Code)
	}
}
