package httpserver

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/assetgw-go/internal/core/domain"
	"github.com/yndnr/assetgw-go/internal/server/httpserver/handler"
	"github.com/yndnr/assetgw-go/internal/telemetry/logger"
)

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain chains multiple middlewares together. The first middleware is
// the outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// HTTPMetrics records served requests.
type HTTPMetrics interface {
	ObserveHTTP(route string, code int)
}

// maxRequestIDLength bounds client-supplied request IDs.
const maxRequestIDLength = 128

// RequestID assigns each request an ID, reusing a well-formed
// X-Request-ID header from the client and generating a ULID otherwise.
// The ID is echoed in the response and attached to the request context
// for logging.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if !validRequestID(requestID) {
				requestID = ulid.Make().String()
			}

			w.Header().Set("X-Request-ID", requestID)
			ctx := logger.WithRequestID(r.Context(), requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, c := range id {
		if c <= ' ' || c > '~' {
			return false
		}
	}
	return true
}

// Audit logs every completed request and records it in metrics under
// its route pattern.
func Audit(log *slog.Logger, metrics HTTPMetrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			route := routeLabel(r)
			if metrics != nil {
				metrics.ObserveHTTP(route, wrapped.statusCode)
			}

			attrs := []any{
				"method", r.Method,
				"route", route,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
				"client_ip", getClientIP(r),
			}
			if code := wrapped.Header().Get("X-Error-Code"); code != "" {
				attrs = append(attrs, "code", code)
			}
			if identity := r.Header.Get(handler.IdentityHeader); identity != "" {
				attrs = append(attrs, "identity", identity)
			}

			ctx := r.Context()
			switch {
			case wrapped.statusCode >= 500:
				log.ErrorContext(ctx, "request completed with error", attrs...)
			case wrapped.statusCode >= 400:
				log.WarnContext(ctx, "request completed with client error", attrs...)
			default:
				log.InfoContext(ctx, "request completed", attrs...)
			}
		})
	}
}

// routeLabel returns the matched mux pattern, keeping metric label
// cardinality bounded by the route table.
func routeLabel(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return "unmatched"
}

// Recover recovers from panics and returns a 500 error.
func Recover(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					log.ErrorContext(r.Context(), "panic recovered",
						"error", err,
						"path", r.URL.Path,
					)
					handler.WriteDomainError(w, r, domain.ErrInternalServer)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// ipNets is a set of IP networks parsed from IPs and CIDR blocks.
type ipNets []*net.IPNet

func parseNetworks(entries []string, log *slog.Logger, what string) ipNets {
	var nets ipNets
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if !strings.Contains(entry, "/") {
			if ip := net.ParseIP(entry); ip != nil {
				bits := 8 * net.IPv6len
				if ip.To4() != nil {
					ip, bits = ip.To4(), 8*net.IPv4len
				}
				nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
				continue
			}
		}
		_, ipNet, err := net.ParseCIDR(entry)
		if err != nil {
			log.Warn("invalid "+what+" entry ignored", "entry", entry, "error", err)
			continue
		}
		nets = append(nets, ipNet)
	}
	return nets
}

func (n ipNets) contains(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, ipNet := range n {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}

type clientIPKey struct{}

// ClientIP resolves the client address used by NetworkACL, RateLimit and
// Audit. X-Forwarded-For and X-Real-IP are believed only when the peer
// is one of trustedProxies (IPs or CIDR blocks); otherwise the peer
// address is the client.
func ClientIP(trustedProxies []string, log *slog.Logger) Middleware {
	trusted := parseNetworks(trustedProxies, log, "trusted proxy")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := resolveClientIP(r, trusted)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientIPKey{}, ip)))
		})
	}
}

// resolveClientIP walks X-Forwarded-For from the nearest hop and returns
// the first address that is not a trusted proxy.
func resolveClientIP(r *http.Request, trusted ipNets) string {
	peer := peerIP(r)
	if !trusted.contains(peer) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if i == 0 || !trusted.contains(hop) {
				return hop
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}

// NetworkACL rejects clients whose address is outside allowList. Entries
// are single IPs or CIDR blocks; an empty list allows everyone.
func NetworkACL(allowList []string, log *slog.Logger) Middleware {
	networks := parseNetworks(allowList, log, "allowlist")

	return func(next http.Handler) http.Handler {
		if len(allowList) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)
			if networks.contains(clientIP) {
				next.ServeHTTP(w, r)
				return
			}

			log.WarnContext(r.Context(), "request denied by network ACL",
				"client_ip", clientIP,
				"path", r.URL.Path,
			)
			handler.WriteDomainError(w, r, domain.ErrForbidden)
		})
	}
}

// CORS adds Cross-Origin Resource Sharing headers. An empty list allows
// every origin.
func CORS(allowedOrigins []string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := len(allowedOrigins) == 0
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					allowed = true
					break
				}
			}

			if allowed && origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID, "+handler.IdentityHeader)
				w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, X-Error-Code")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// getClientIP returns the address resolved by ClientIP, or the peer
// address when the request did not pass through it.
func getClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey{}).(string); ok {
		return ip
	}
	return peerIP(r)
}

func peerIP(r *http.Request) string {
	// SplitHostPort handles IPv6 addresses like [::1]:8080.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
