package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yndnr/assetgw-go/internal/core/domain"
	"github.com/yndnr/assetgw-go/internal/core/service"
	"github.com/yndnr/assetgw-go/internal/telemetry/logger"
)

// IdentityHeader selects the wallet identity a request runs as. Only
// identities given to WithAllowedIdentities may be selected.
const IdentityHeader = "X-Ledger-Identity"

// maxBodyBytes bounds create and update request bodies.
const maxBodyBytes = 1 << 20

// ReadinessFunc reports whether the gateway can serve ledger traffic.
type ReadinessFunc func(ctx context.Context) error

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	assets *service.AssetService
	ready  ReadinessFunc
	logger *slog.Logger
	mux    *http.ServeMux

	// identities a request may select through IdentityHeader.
	identities map[string]struct{}
}

// Option configures a Handler.
type Option func(*Handler)

// WithReadiness sets the check behind GET /ready. Without one the
// endpoint always reports ready.
func WithReadiness(fn ReadinessFunc) Option {
	return func(h *Handler) {
		h.ready = fn
	}
}

// WithAllowedIdentities sets the wallet identities IdentityHeader may
// name. Without any, requests always run as the default identity and a
// request naming one is refused.
func WithAllowedIdentities(labels ...string) Option {
	return func(h *Handler) {
		for _, l := range labels {
			if l = strings.TrimSpace(l); l != "" {
				h.identities[l] = struct{}{}
			}
		}
	}
}

// New creates a new Handler serving assets.
func New(assets *service.AssetService, logger *slog.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		assets:     assets,
		logger:     logger,
		mux:        http.NewServeMux(),
		identities: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// registerRoutes registers all HTTP routes.
func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	h.mux.HandleFunc("POST /asset", h.handleCreateAsset)
	h.mux.HandleFunc("PUT /asset", h.handleUpdateAsset)
	h.mux.HandleFunc("GET /asset/{id}", h.handleReadAsset)
	h.mux.HandleFunc("GET /asset/{id}/history", h.handleAssetHistory)
}

// identity returns the wallet identity named by IdentityHeader, or ""
// for the default identity. It is checked before the wallet is read.
func (h *Handler) identity(r *http.Request) (string, error) {
	label := strings.TrimSpace(r.Header.Get(IdentityHeader))
	if label == "" {
		return "", nil
	}
	if _, ok := h.identities[label]; !ok {
		return "", domain.ErrForbidden.WithDetailsf("identity %q may not be selected", label)
	}
	return label, nil
}

// writeJSON writes data as a JSON response body.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	if id := getRequestID(r); id != "" {
		w.Header().Set("X-Request-ID", id)
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

// writeRaw writes a payload that is already JSON.
func (h *Handler) writeRaw(w http.ResponseWriter, r *http.Request, payload json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	if id := getRequestID(r); id != "" {
		w.Header().Set("X-Request-ID", id)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(payload); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write response", "error", err)
	}
}

// writeError writes an error response.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	if id := getRequestID(r); id != "" {
		w.Header().Set("X-Request-ID", id)
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code}); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to encode error response", "error", err)
	}
}

// handleServiceError converts service errors to HTTP responses. The
// cause chain is logged, never returned.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	de, ok := domain.AsDomainError(err)
	if !ok {
		h.logger.ErrorContext(r.Context(), "internal error", "error", err)
		de = domain.ErrInternalServer
	}

	status := StatusForCode(de.Code)
	if status >= http.StatusInternalServerError {
		h.logger.WarnContext(r.Context(), "request failed",
			"code", de.Code,
			"status", status,
			"error", err)
	}
	h.writeError(w, r, status, de.Code, de.PublicMessage())
}

// statusByCode is the complete error code to HTTP status table.
// Unlisted codes are internal errors.
var statusByCode = map[string]int{
	domain.ErrBadRequest.Code:           http.StatusBadRequest,
	domain.ErrInvalidArgument.Code:      http.StatusBadRequest,
	domain.ErrMissingArgument.Code:      http.StatusBadRequest,
	domain.ErrIdentityNotFound.Code:     http.StatusBadRequest,
	domain.ErrForbidden.Code:            http.StatusForbidden,
	domain.ErrRateLimited.Code:          http.StatusTooManyRequests,
	domain.ErrTransactionFailed.Code:    http.StatusInternalServerError,
	domain.ErrContractNotFound.Code:     http.StatusBadGateway,
	domain.ErrChannelUnreachable.Code:   http.StatusServiceUnavailable,
	domain.ErrServiceUnavailable.Code:   http.StatusServiceUnavailable,
	domain.ErrTransactionUncertain.Code: http.StatusGatewayTimeout,
	domain.ErrInternalServer.Code:       http.StatusInternalServerError,
}

// StatusForCode maps an error code to its HTTP status.
func StatusForCode(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteDomainError writes err as an {"error","code"} response using the
// status table. Middleware outside the handler uses it for its own
// rejections.
func WriteDomainError(w http.ResponseWriter, r *http.Request, err *domain.DomainError) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", err.Code)
	if id := getRequestID(r); id != "" {
		w.Header().Set("X-Request-ID", id)
	}
	w.WriteHeader(StatusForCode(err.Code))
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: err.PublicMessage(), Code: err.Code})
}

// getRequestID returns the ID assigned by the request ID middleware.
func getRequestID(r *http.Request) string {
	if id := logger.RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}
