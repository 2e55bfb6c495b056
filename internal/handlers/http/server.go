package httpapi

import (
	"net/http"

	"github.com/iwtcode/conveyorControl"
)

func NewServer(cfg *conveyorControl.Config, h *Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(h),
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
	}
}
