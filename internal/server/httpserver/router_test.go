package httpserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/assetgw-go/internal/core/domain"
	"github.com/yndnr/assetgw-go/internal/core/service"
	"github.com/yndnr/assetgw-go/internal/ledger/connmgr"
	"github.com/yndnr/assetgw-go/internal/ledger/gateway"
	"github.com/yndnr/assetgw-go/internal/ledger/ledgertest"
	"github.com/yndnr/assetgw-go/internal/ledger/wallet"
	"github.com/yndnr/assetgw-go/internal/telemetry/metric"
)

type anyIdentity struct{}

func (anyIdentity) Resolve(_ context.Context, label string) (*wallet.Credential, error) {
	return &wallet.Credential{Label: label, MSPID: "Org1MSP", Type: wallet.IdentityTypeX509}, nil
}

func newTestRouter(t *testing.T, mutate func(*RouterConfig)) http.Handler {
	t.Helper()
	reg := metric.NewRegistry()
	m := connmgr.New(anyIdentity{}, ledgertest.New("mychannel", "fabcar"),
		connmgr.WithLogger(quietLogger()), connmgr.WithMetrics(reg))
	t.Cleanup(func() { _ = m.Close() })

	g := gateway.New(m, gateway.Config{
		Identity:        "appUser",
		Channel:         "mychannel",
		Contract:        "fabcar",
		DispatchTimeout: 2 * time.Second,
	}, gateway.WithLogger(quietLogger()), gateway.WithMetrics(reg))

	cfg := DefaultRouterConfig()
	cfg.Assets = service.NewAssetService(g)
	cfg.Logger = quietLogger()
	cfg.Metrics = reg
	if mutate != nil {
		mutate(cfg)
	}
	return NewRouter(cfg)
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, rd))
	return rec
}

const routerAsset = `{"dealerID":"D9","msisdn":"1","mpin":"0000","balance":"10.50","status":"active","transAmount":0,"transType":"init","remarks":""}`

func TestRouter_AssetFlow(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := serve(h, http.MethodPost, "/asset", routerAsset)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = serve(h, http.MethodGet, "/asset/D9", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"balance":"10.5"`)

	rec = serve(h, http.MethodGet, "/asset/D9/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "["))
}

func TestRouter_Probes(t *testing.T) {
	ready := false
	h := newTestRouter(t, func(cfg *RouterConfig) {
		cfg.Readiness = func(context.Context) error {
			if !ready {
				return domain.ErrServiceUnavailable
			}
			return nil
		}
	})

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(h, http.MethodGet, "/ready", "").Code)
	ready = true
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/ready", "").Code)
}

func TestRouter_Metrics(t *testing.T) {
	h := newTestRouter(t, nil)

	require.Equal(t, http.StatusOK, serve(h, http.MethodPost, "/asset", routerAsset).Code)
	require.Equal(t, http.StatusInternalServerError, serve(h, http.MethodGet, "/asset/none", "").Code)

	rec := serve(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `assetgw_http_requests_total{code="2xx",route="POST /asset"} 1`)
	assert.Contains(t, body, `assetgw_http_requests_total{code="5xx",route="GET /asset/{id}"} 1`)
	assert.Contains(t, body, `assetgw_dispatch_total{operation="CreateAsset",outcome="succeeded"} 1`)
	assert.Contains(t, body, `assetgw_dispatch_total{operation="ReadAsset",outcome="failed"} 1`)
	assert.Contains(t, body, `assetgw_sessions_opened_total 2`)
}

func TestRouter_MetricsAllowList(t *testing.T) {
	h := newTestRouter(t, func(cfg *RouterConfig) {
		cfg.MetricsAllowList = []string{"10.0.0.0/8"}
	})

	// httptest requests come from 192.0.2.1.
	rec := serve(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, domain.ErrForbidden.Code, rec.Header().Get("X-Error-Code"))
}

func TestRouter_MetricsDisabled(t *testing.T) {
	h := newTestRouter(t, func(cfg *RouterConfig) {
		cfg.Metrics = nil
	})

	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/metrics", "").Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodPost, "/asset", routerAsset).Code)
}

func TestRouter_RateLimited(t *testing.T) {
	h := newTestRouter(t, func(cfg *RouterConfig) {
		cfg.RateLimit = 1
		cfg.RateBurst = 1
	})

	assert.Equal(t, http.StatusOK, serve(h, http.MethodPost, "/asset", routerAsset).Code)
	rec := serve(h, http.MethodGet, "/asset/D9", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, domain.ErrRateLimited.Code, rec.Header().Get("X-Error-Code"))

	// Probes are not limited.
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/health", "").Code)
}

func TestRouter_UnknownPath(t *testing.T) {
	h := newTestRouter(t, nil)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/assets", "").Code)
}
