package httpapi

import "net/http"

// NewRouter registers HTTP routes and returns the handler with middleware.
func NewRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/conveyor/commands", h.postCommand)
	mux.HandleFunc("POST /api/conveyor/reset", h.postReset)
	mux.HandleFunc("GET /api/conveyor/state", h.getState)
	mux.HandleFunc("GET /api/conveyor/history", h.getHistory)
	mux.HandleFunc("POST /api/production", h.postProduction)
	mux.HandleFunc("GET /api/stock", h.getStock)
	mux.HandleFunc("POST /api/stock/{carModel}/reset", h.postStockReset)
	mux.HandleFunc("GET /healthz", h.health)
	return WithRequestID(WithLogging(h.logger, WithRecover(h.logger, mux)))
}
