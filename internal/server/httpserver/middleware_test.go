package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/assetgw-go/internal/telemetry/logger"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

type recordedHTTP struct {
	route string
	code  int
}

type fakeHTTPMetrics struct {
	calls []recordedHTTP
}

func (f *fakeHTTPMetrics) ObserveHTTP(route string, code int) {
	f.calls = append(f.calls, recordedHTTP{route, code})
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("generates a ULID when not provided", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		requestID := rec.Header().Get("X-Request-ID")
		if _, err := ulid.ParseStrict(requestID); err != nil {
			t.Errorf("expected ULID request ID, got %q: %v", requestID, err)
		}
		if seen != requestID {
			t.Errorf("context request ID = %q, header = %q", seen, requestID)
		}
	})

	t.Run("preserves existing request ID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Request-ID", "existing-id-123")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("X-Request-ID"); got != "existing-id-123" {
			t.Errorf("expected 'existing-id-123', got %s", got)
		}
	})

	t.Run("replaces malformed request ID", func(t *testing.T) {
		for _, bad := range []string{"has space", "tab\tid", strings.Repeat("x", maxRequestIDLength+1)} {
			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("X-Request-ID", bad)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if got := rec.Header().Get("X-Request-ID"); got == bad {
				t.Errorf("malformed request ID %q was kept", bad)
			}
		}
	})
}

func TestChain(t *testing.T) {
	var order []int
	mark := func(n int) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, n)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			order = append(order, 4)
			w.WriteHeader(http.StatusOK)
		}),
		mark(1), mark(2), mark(3),
	)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/test", nil))

	expected := []int{1, 2, 3, 4}
	if len(order) != len(expected) {
		t.Fatalf("expected %d calls, got %d", len(expected), len(order))
	}
	for i, v := range expected {
		if order[i] != v {
			t.Errorf("expected order[%d] = %d, got %d", i, v, order[i])
		}
	}
}

func TestNetworkACL(t *testing.T) {
	tests := []struct {
		name       string
		allowList  []string
		remoteAddr string
		want       int
	}{
		{"empty allowlist", nil, "192.168.1.100:12345", http.StatusOK},
		{"matching single IP", []string{"192.168.1.100"}, "192.168.1.100:12345", http.StatusOK},
		{"matching CIDR", []string{"10.0.0.0/8"}, "10.1.2.3:12345", http.StatusOK},
		{"matching IPv6", []string{"::1"}, "[::1]:8080", http.StatusOK},
		{"outside allowlist", []string{"10.0.0.0/8"}, "192.168.1.1:12345", http.StatusForbidden},
		{"invalid entries ignored", []string{"not-an-ip", "10.0.0.1"}, "10.0.0.1:1", http.StatusOK},
		{"only invalid entries", []string{"bogus"}, "10.0.0.1:1", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NetworkACL(tt.allowList, quietLogger())(okHandler())

			req := httptest.NewRequest("GET", "/metrics", nil)
			req.RemoteAddr = tt.remoteAddr
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, rec.Code)
			}
			if tt.want == http.StatusForbidden {
				if code := rec.Header().Get("X-Error-Code"); code != "AG-SYS-4030" {
					t.Errorf("expected AG-SYS-4030, got %q", code)
				}
			}
		})
	}
}

func TestRecover(t *testing.T) {
	handler := Chain(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}),
		RequestID(),
		Recover(quietLogger()),
	)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "panic-1")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["code"] != "AG-SYS-5000" {
		t.Errorf("expected code AG-SYS-5000, got %q", body["code"])
	}
	if body["error"] != "internal server error" {
		t.Errorf("unexpected error message %q", body["error"])
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Error("panic value leaked to the client")
	}
}

func TestRecover_PassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	Recover(quietLogger())(okHandler()).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	t.Run("allowed origin", func(t *testing.T) {
		handler := CORS([]string{"https://app.example.com"})(okHandler())

		req := httptest.NewRequest("GET", "/asset/D1", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
			t.Errorf("unexpected Allow-Origin %q", got)
		}
		if !strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), "X-Ledger-Identity") {
			t.Error("identity header not allowed")
		}
		if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "PUT") {
			t.Error("PUT not allowed")
		}
	})

	t.Run("disallowed origin", func(t *testing.T) {
		handler := CORS([]string{"https://app.example.com"})(okHandler())

		req := httptest.NewRequest("GET", "/asset/D1", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("expected no Allow-Origin, got %q", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		called := false
		handler := CORS(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

		req := httptest.NewRequest("OPTIONS", "/asset", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", "PUT")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected status 204, got %d", rec.Code)
		}
		if called {
			t.Error("preflight reached the handler")
		}
	})
}

func TestClientIP(t *testing.T) {
	trusted := []string{"192.168.1.0/24", "172.16.0.1"}
	tests := []struct {
		name       string
		header     string
		value      string
		remoteAddr string
		want       string
	}{
		{"forwarded by trusted proxy", "X-Forwarded-For", "10.0.0.1", "192.168.1.1:12345", "10.0.0.1"},
		{"proxy chain", "X-Forwarded-For", "203.0.113.7, 10.0.0.1, 172.16.0.1", "192.168.1.1:12345", "10.0.0.1"},
		{"all hops trusted", "X-Forwarded-For", "172.16.0.1", "192.168.1.1:12345", "172.16.0.1"},
		{"real IP from trusted proxy", "X-Real-IP", "10.0.0.1", "192.168.1.1:12345", "10.0.0.1"},
		{"forwarded by untrusted peer", "X-Forwarded-For", "10.0.0.1", "203.0.113.9:4000", "203.0.113.9"},
		{"real IP from untrusted peer", "X-Real-IP", "10.0.0.1", "203.0.113.9:4000", "203.0.113.9"},
		{"RemoteAddr", "", "", "192.168.1.1:12345", "192.168.1.1"},
		{"IPv6 RemoteAddr", "", "", "[::1]:8080", "::1"},
		{"RemoteAddr without port", "", "", "192.168.1.1", "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := ClientIP(trusted, quietLogger())(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got = getClientIP(r)
			}))

			req := httptest.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			req.RemoteAddr = tt.remoteAddr
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestClientIP_NoTrustedProxies(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	req.Header.Set("X-Forwarded-For", "10.1.2.3")

	if ip := getClientIP(req); ip != "203.0.113.9" {
		t.Errorf("without ClientIP: got %q", ip)
	}

	var got string
	ClientIP(nil, quietLogger())(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = getClientIP(r)
	})).ServeHTTP(httptest.NewRecorder(), req)
	if got != "203.0.113.9" {
		t.Errorf("with ClientIP: got %q", got)
	}
}

func TestNetworkACL_ForwardedForFromUntrustedPeer(t *testing.T) {
	handler := Chain(okHandler(),
		ClientIP([]string{"192.168.1.1"}, quietLogger()),
		NetworkACL([]string{"10.0.0.0/8"}, quietLogger()),
	)

	req := httptest.NewRequest("GET", "/metrics", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	req.Header.Set("X-Forwarded-For", "10.1.2.3")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("spoofed X-Forwarded-For: expected 403, got %d", rec.Code)
	}

	req = httptest.NewRequest("GET", "/metrics", nil)
	req.RemoteAddr = "192.168.1.1:4000"
	req.Header.Set("X-Forwarded-For", "10.1.2.3")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("trusted proxy: expected 200, got %d", rec.Code)
	}
}

func TestAudit(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
	}{
		{"success", http.StatusOK, "request completed"},
		{"client error", http.StatusBadRequest, "request completed with client error"},
		{"server error", http.StatusBadGateway, "request completed with error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.New(logger.Config{Level: "info", Format: "json", Output: &buf})
			metrics := &fakeHTTPMetrics{}

			mux := http.NewServeMux()
			mux.HandleFunc("GET /asset/{id}", func(w http.ResponseWriter, _ *http.Request) {
				if tt.status >= 400 {
					w.Header().Set("X-Error-Code", "AG-TEST-0000")
				}
				w.WriteHeader(tt.status)
			})
			handler := Chain(mux, RequestID(), Audit(log, metrics))

			req := httptest.NewRequest("GET", "/asset/D1", nil)
			req.Header.Set("X-Request-ID", "audit-1")
			req.Header.Set("X-Ledger-Identity", "user7")
			handler.ServeHTTP(httptest.NewRecorder(), req)

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("decode log: %v: %s", err, buf.String())
			}
			if entry["msg"] != tt.message {
				t.Errorf("msg = %v, want %q", entry["msg"], tt.message)
			}
			if entry["route"] != "GET /asset/{id}" {
				t.Errorf("route = %v", entry["route"])
			}
			if entry["request_id"] != "audit-1" {
				t.Errorf("request_id = %v", entry["request_id"])
			}
			if entry["identity"] != "user7" {
				t.Errorf("identity = %v", entry["identity"])
			}
			if tt.status >= 400 && entry["code"] != "AG-TEST-0000" {
				t.Errorf("code = %v", entry["code"])
			}

			if len(metrics.calls) != 1 {
				t.Fatalf("expected one metric observation, got %d", len(metrics.calls))
			}
			if got := metrics.calls[0]; got.route != "GET /asset/{id}" || got.code != tt.status {
				t.Errorf("unexpected observation %+v", got)
			}
		})
	}
}

func TestAudit_UnmatchedRoute(t *testing.T) {
	metrics := &fakeHTTPMetrics{}
	handler := Audit(quietLogger(), metrics)(http.NotFoundHandler())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nope", nil))

	if len(metrics.calls) != 1 || metrics.calls[0].route != "unmatched" {
		t.Errorf("unexpected observations %+v", metrics.calls)
	}
}

func TestResponseWriter(t *testing.T) {
	t.Run("captures first status code", func(t *testing.T) {
		wrapped := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}

		wrapped.WriteHeader(http.StatusCreated)
		wrapped.WriteHeader(http.StatusInternalServerError)

		if wrapped.statusCode != http.StatusCreated {
			t.Errorf("expected status 201, got %d", wrapped.statusCode)
		}
	})

	t.Run("write implies 200", func(t *testing.T) {
		wrapped := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}

		_, _ = wrapped.Write([]byte("ok"))
		wrapped.WriteHeader(http.StatusTeapot)

		if wrapped.statusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", wrapped.statusCode)
		}
	})
}
