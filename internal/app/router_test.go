package app

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ngtax/ngtax/internal/observability"
	"github.com/ngtax/ngtax/internal/tax"
	taxhttp "github.com/ngtax/ngtax/internal/tax/http"
	"github.com/ngtax/ngtax/jobs"
)

const adminToken = "s3cret-admin-token"

func newTestRouter(t *testing.T, cfg *Config) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetrics()
	return NewRouter(RouterParams{
		Logger:     logger,
		Config:     cfg,
		Metrics:    metrics,
		TaxHandler: taxhttp.NewHandler(logger, tax.NewRegistry(nil, nil, logger), metrics),
		JobHandler: jobs.NewHandler(nil, logger),
	})
}

func adminHash(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminToken), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func serve(router http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "10.0.0.1:5000"
	for k, v := range header {
		req.Header[k] = v
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestHealthzAndSecureHeaders(t *testing.T) {
	router := newTestRouter(t, &Config{AppEnv: "test", RateLimitPerMinute: 100})
	rr := serve(router, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	require.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	require.NotEmpty(t, rr.Header().Get("Content-Security-Policy"))
}

func TestMetricsEndpointRecordsRoutes(t *testing.T) {
	router := newTestRouter(t, &Config{AppEnv: "test", RateLimitPerMinute: 100})
	rr := serve(router, http.MethodPost, "/api/tax/preview", `{"tax_year":2026,"subtotal":1000}`, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = serve(router, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `ngtax_http_requests_total{code="200",route="/api/tax/preview"} 1`)
	require.Contains(t, rr.Body.String(), `ngtax_tax_computations_total{operation="preview",outcome="ok"} 1`)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t, &Config{AppEnv: "test", RateLimitPerMinute: 100, AdminTokenHash: adminHash(t)})

	rr := serve(router, http.MethodPost, "/api/admin/rates/2026/reload", "", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(router, http.MethodPost, "/api/admin/rates/2026/reload", "", http.Header{"Authorization": {"Bearer wrong"}})
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = serve(router, http.MethodPost, "/api/admin/rates/2026/reload", "", http.Header{"Authorization": {"Bearer " + adminToken}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.EqualValues(t, 2026, body["tax_year"])
}

func TestAdminRoutesRefusedWithoutConfiguredHash(t *testing.T) {
	router := newTestRouter(t, &Config{AppEnv: "test", RateLimitPerMinute: 100})
	rr := serve(router, http.MethodPost, "/api/admin/rates/2026/reload", "", http.Header{"Authorization": {"Bearer " + adminToken}})
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRateLimit(t *testing.T) {
	router := newTestRouter(t, &Config{AppEnv: "test", RateLimitPerMinute: 2})
	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/healthz", "", nil).Code)
	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/healthz", "", nil).Code)
	rr := serve(router, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Contains(t, rr.Body.String(), "rate limit exceeded")
}

func TestNotFoundIsProblem(t *testing.T) {
	router := newTestRouter(t, &Config{AppEnv: "test", RateLimitPerMinute: 100})
	rr := serve(router, http.MethodGet, "/api/nothing", "", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), `"title":"Not Found"`)
}

func TestJobsHealthWithoutInspector(t *testing.T) {
	router := newTestRouter(t, &Config{AppEnv: "test", RateLimitPerMinute: 100})
	rr := serve(router, http.MethodGet, "/jobs/health", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"queue":"documents"`)
}
