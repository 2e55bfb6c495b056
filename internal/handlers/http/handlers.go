package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/iwtcode/conveyorControl/internal/domain"
	"github.com/iwtcode/conveyorControl/internal/domain/entities"
	"github.com/iwtcode/conveyorControl/internal/interfaces"
	"go.uber.org/zap"
)

const maxBodyBytes = 64 << 10

type Handler struct {
	control interfaces.ControlUsecase
	logger  *zap.Logger
}

func NewHandler(control interfaces.ControlUsecase, logger *zap.Logger) *Handler {
	return &Handler{control: control, logger: logger.Named("http")}
}

type commandRequest struct {
	Command string `json:"command"`
	Reason  string `json:"reason"`
}

type resetRequest struct {
	Reason string `json:"reason"`
}

type stateResponse struct {
	State entities.ConveyorState `json:"state"`
}

type historyRecord struct {
	ID        uint64           `json:"id"`
	Timestamp time.Time        `json:"timestamp"`
	Command   entities.Command `json:"command"`
	Reason    *string          `json:"reason"`
}

type productionRequest struct {
	CarModel string `json:"carModel"`
}

type stockResponse struct {
	CarModel string `json:"carModel"`
	Count    int64  `json:"count"`
}

func (h *Handler) postCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if !decodeBody(w, r, &req) {
		return
	}
	cmd, err := entities.ParseCommand(req.Command)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	state, err := h.control.IssueCommand(r.Context(), cmd, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{State: state})
}

func (h *Handler) postReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	state, err := h.control.ResetEmergency(r.Context(), req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{State: state})
}

func (h *Handler) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stateResponse{State: h.control.GetCurrentState(r.Context())})
}

func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	filter, err := parseHistoryFilter(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	seq, err := h.control.GetCommandHistory(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := []historyRecord{}
	for rec, err := range seq {
		if err != nil {
			writeDomainError(w, err)
			return
		}
		out = append(out, historyRecord{
			ID:        rec.ID,
			Timestamp: rec.Timestamp,
			Command:   rec.Command,
			Reason:    rec.Reason,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) postProduction(w http.ResponseWriter, r *http.Request) {
	var req productionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	count, err := h.control.ReportProduction(r.Context(), req.CarModel)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stockResponse{CarModel: strings.TrimSpace(req.CarModel), Count: count})
}

func (h *Handler) getStock(w http.ResponseWriter, r *http.Request) {
	summary := h.control.GetStockSummary(r.Context())
	out := make([]stockResponse, len(summary))
	for i, s := range summary {
		out[i] = stockResponse{CarModel: s.CarModel, Count: s.Count}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) postStockReset(w http.ResponseWriter, r *http.Request) {
	if err := h.control.ResetStock(r.Context(), r.PathValue("carModel")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"state":  h.control.GetCurrentState(r.Context()).String(),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		WriteJSONError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "expected application/json")
		return false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

// parseHistoryFilter reads from/to (RFC 3339) and repeated or comma-separated command values.
func parseHistoryFilter(r *http.Request) (entities.HistoryFilter, error) {
	q := r.URL.Query()
	var filter entities.HistoryFilter

	for key, dst := range map[string]*time.Time{"from": &filter.From, "to": &filter.To} {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return entities.HistoryFilter{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidRange, key, err)
		}
		*dst = t
	}

	for _, raw := range q["command"] {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			cmd, err := entities.ParseCommand(part)
			if err != nil {
				return entities.HistoryFilter{}, err
			}
			filter.Commands = append(filter.Commands, cmd)
		}
	}
	return filter, nil
}
