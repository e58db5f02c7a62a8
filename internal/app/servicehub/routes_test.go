package servicehub

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/magabrotheeeer/servicehub/docs"
	"github.com/magabrotheeeer/servicehub/internal/config"
	"github.com/magabrotheeeer/servicehub/internal/http/middlewarectx"
	"github.com/magabrotheeeer/servicehub/internal/lib/jwt"
	"github.com/magabrotheeeer/servicehub/internal/lib/sl"
	"github.com/magabrotheeeer/servicehub/internal/metrics"
	"github.com/magabrotheeeer/servicehub/internal/models"
	subservice "github.com/magabrotheeeer/servicehub/internal/services/subscriptions"
	"github.com/magabrotheeeer/servicehub/internal/subscription"
)

func newTestRouter(t *testing.T, limiter *middlewarectx.IPLimiter) (http.Handler, *jwt.Maker) {
	t.Helper()
	tokens := jwt.NewMaker("test-secret", time.Hour)
	registry := prometheus.NewRegistry()
	pricing := config.Subscription{
		Currency:      "GHS",
		DefaultPrices: config.CyclePrices{Monthly: 50, Biannually: 270, Annual: 480},
	}
	s := Services{
		Subscriptions: subservice.New(sl.Discard(), nil, nil, subscription.NewLedger(time.Hour), pricing),
		Tokens:        tokens,
		Metrics:       metrics.New(registry),
		Gatherer:      registry,
		Limiter:       limiter,
	}
	r := chi.NewRouter()
	RegisterRoutes(r, sl.Discard(), s)
	return r, tokens
}

func TestRegisterRoutes(t *testing.T) {
	router, tokens := newTestRouter(t, middlewarectx.NewIPLimiter(100, 100))

	userToken, err := tokens.GenerateToken("u-1", "kofi", models.RoleUser)
	require.NoError(t, err)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
		wantBody   string
	}{
		{name: "plans are public", method: http.MethodGet, path: "/api/v1/plans", wantStatus: http.StatusOK, wantBody: "artisans"},
		{name: "subscriptions need token", method: http.MethodGet, path: "/api/v1/subscriptions", wantStatus: http.StatusUnauthorized},
		{name: "dashboard listings need token", method: http.MethodPost, path: "/api/v1/dashboard/listings/hotels", wantStatus: http.StatusUnauthorized},
		{name: "admin needs admin role", method: http.MethodGet, path: "/api/v1/admin/stats", token: userToken, wantStatus: http.StatusForbidden},
		{name: "metrics exposed", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK},
		{name: "swagger served", method: http.MethodGet, path: "/docs/doc.json", wantStatus: http.StatusOK, wantBody: "ServiceHub API"},
		{name: "unknown route", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rr := httptest.NewRecorder()

			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rr.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRegisterRoutes_RateLimit(t *testing.T) {
	router, _ := newTestRouter(t, middlewarectx.NewIPLimiter(0.001, 1))

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/v1/listings/unknown", nil))
	assert.Equal(t, http.StatusNotFound, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/v1/listings/unknown", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// Тарифы отдаются вне лимита.
	plans := httptest.NewRecorder()
	router.ServeHTTP(plans, httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil))
	assert.Equal(t, http.StatusOK, plans.Code)
}
