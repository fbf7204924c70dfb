package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/assetgw-go/internal/core/domain"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "readiness check failed", "error", err)
			w.Header().Set("X-Error-Code", domain.ErrServiceUnavailable.Code)
			h.writeJSON(w, r, http.StatusServiceUnavailable, HealthResponse{
				Status: "not_ready",
				Time:   time.Now().UTC().Format(time.RFC3339),
				Reason: publicReason(err),
			})
			return
		}
	}
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status: "ready",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

func publicReason(err error) string {
	if de, ok := domain.AsDomainError(err); ok {
		return de.PublicMessage()
	}
	return domain.ErrServiceUnavailable.Message
}
