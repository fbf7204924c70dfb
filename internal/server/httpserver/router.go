package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/assetgw-go/internal/core/service"
	"github.com/yndnr/assetgw-go/internal/server/httpserver/handler"
	"github.com/yndnr/assetgw-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Assets serves the asset endpoints.
	Assets *service.AssetService

	// Readiness backs GET /ready (nil = always ready).
	Readiness handler.ReadinessFunc

	// AllowedIdentities may be selected per request with the
	// X-Ledger-Identity header (empty = header refused).
	AllowedIdentities []string

	// TrustedProxies are the peers whose X-Forwarded-For and X-Real-IP
	// headers name the client (empty = always use the peer address).
	TrustedProxies []string

	// Logger for request logging.
	Logger *slog.Logger

	// Metrics serves /metrics and records request counts (nil = disabled).
	Metrics *metric.Registry

	// MetricsAllowList is the IP/CIDR allowlist for /metrics (empty = no restriction).
	MetricsAllowList []string

	// CORSAllowedOrigins is the list of allowed CORS origins (empty = allow all).
	CORSAllowedOrigins []string

	// RateLimit is the per-IP rate limit in requests/second (0 = disabled).
	RateLimit int

	// RateBurst is the per-IP burst size (0 = RateLimit).
	RateBurst int
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	h := handler.New(cfg.Assets, log,
		handler.WithReadiness(cfg.Readiness),
		handler.WithAllowedIdentities(cfg.AllowedIdentities...))

	var httpMetrics HTTPMetrics
	if cfg.Metrics != nil {
		httpMetrics = cfg.Metrics
	}

	mux := http.NewServeMux()

	// Probes skip rate limiting and CORS.
	probes := Chain(h, Recover(log), RequestID())
	mux.Handle("GET /health", probes)
	mux.Handle("GET /ready", probes)

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", Chain(cfg.Metrics.Handler(),
			Recover(log),
			RequestID(),
			ClientIP(cfg.TrustedProxies, log),
			NetworkACL(cfg.MetricsAllowList, log),
		))
	}

	api := Chain(h,
		Recover(log),
		RequestID(),
		ClientIP(cfg.TrustedProxies, log),
		CORS(cfg.CORSAllowedOrigins),
		RateLimit(cfg.RateLimit, cfg.RateBurst),
		Audit(log, httpMetrics),
	)
	mux.Handle("/asset", api)
	mux.Handle("/asset/", api)

	return mux
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		RateLimit: 100,
	}
}
