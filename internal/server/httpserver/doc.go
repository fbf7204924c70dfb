// Package httpserver provides the HTTP/HTTPS server of the asset gateway.
//
// It uses the standard library net/http server and ServeMux. The router
// puts every API route behind the same middleware chain:
//
//	Recover -> RequestID -> ClientIP -> CORS -> RateLimit -> Audit -> handler
//
// /metrics is served from the metric registry and may be limited to an
// address allowlist.
package httpserver
