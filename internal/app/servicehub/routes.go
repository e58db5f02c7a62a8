// Package servicehub собирает HTTP API маркетплейса.
package servicehub

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/servicehub/internal/dashboard"
	adminpayments "github.com/magabrotheeeer/servicehub/internal/http/handlers/admin/payments"
	adminstats "github.com/magabrotheeeer/servicehub/internal/http/handlers/admin/stats"
	"github.com/magabrotheeeer/servicehub/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/servicehub/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/servicehub/internal/http/handlers/dashboard/resolve"
	"github.com/magabrotheeeer/servicehub/internal/http/handlers/health"
	"github.com/magabrotheeeer/servicehub/internal/http/handlers/listing/browse"
	"github.com/magabrotheeeer/servicehub/internal/http/handlers/listing/create"
	"github.com/magabrotheeeer/servicehub/internal/http/handlers/listing/hide"
	"github.com/magabrotheeeer/servicehub/internal/http/handlers/listing/own"
	"github.com/magabrotheeeer/servicehub/internal/http/handlers/listing/update"
	"github.com/magabrotheeeer/servicehub/internal/http/handlers/payment/checkout"
	"github.com/magabrotheeeer/servicehub/internal/http/handlers/payment/history"
	"github.com/magabrotheeeer/servicehub/internal/http/handlers/payment/webhook"
	"github.com/magabrotheeeer/servicehub/internal/http/handlers/subscription/cancel"
	"github.com/magabrotheeeer/servicehub/internal/http/handlers/subscription/overview"
	"github.com/magabrotheeeer/servicehub/internal/http/handlers/subscription/plans"
	"github.com/magabrotheeeer/servicehub/internal/http/handlers/subscription/renew"
	"github.com/magabrotheeeer/servicehub/internal/http/middlewarectx"
	"github.com/magabrotheeeer/servicehub/internal/lib/jwt"
	"github.com/magabrotheeeer/servicehub/internal/metrics"
	"github.com/magabrotheeeer/servicehub/internal/models"
	adminservice "github.com/magabrotheeeer/servicehub/internal/services/admin"
	authservice "github.com/magabrotheeeer/servicehub/internal/services/auth"
	listingservice "github.com/magabrotheeeer/servicehub/internal/services/listings"
	paymentservice "github.com/magabrotheeeer/servicehub/internal/services/payment"
	subservice "github.com/magabrotheeeer/servicehub/internal/services/subscriptions"
	"github.com/magabrotheeeer/servicehub/internal/storage/repository"
)

const (
	apiPrefix       = "/api/v1"
	listingsPath    = apiPrefix + "/listings"
	dashboardPath   = apiPrefix + "/dashboard"
	webhookRoute    = "/payments/webhook"
	adminRole       = models.RoleAdmin
	metricsRoute    = "/metrics"
	swaggerDocRoute = "/docs/*"
)

// Services — зависимости HTTP-слоя.
type Services struct {
	Auth          *authservice.Service
	Subscriptions *subservice.Service
	Payments      *paymentservice.Service
	Listings      *listingservice.Service
	Admin         *adminservice.Service
	Storage       *repository.Storage
	Tokens        *jwt.Maker
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	Limiter       *middlewarectx.IPLimiter
	WebhookSecret string
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services) {
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route(apiPrefix, func(r chi.Router) {
		r.Get("/health", health.New(logger, s.Storage).ServeHTTP)
		r.Get("/plans", plans.New(s.Subscriptions).ServeHTTP)

		// Уведомления шлюза проверяются подписью, без JWT и без лимита.
		r.Post(webhookRoute, webhook.New(logger, s.Payments, s.WebhookSecret, s.Metrics).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, s.Limiter))

			r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
			r.Post("/login", login.New(logger, s.Auth).ServeHTTP)
			r.Get("/listings/{category}", browse.New(logger, s.Listings).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.JWTMiddleware(logger, s.Tokens))

				r.Get("/subscriptions", overview.New(logger, s.Subscriptions).ServeHTTP)
				r.Post("/subscriptions/{category}/cancel", cancel.New(logger, s.Subscriptions).ServeHTTP)
				r.Post("/subscriptions/{category}/renew", renew.New(logger, s.Payments).ServeHTTP)

				r.Post("/payments/checkout", checkout.New(logger, s.Payments).ServeHTTP)
				r.Get("/payments", history.New(logger, s.Payments).ServeHTTP)

				r.Get("/dashboard", resolve.New(logger, s.Subscriptions, dashboard.NewRouter(dashboardPath), s.Metrics).ServeHTTP)
				r.Route("/dashboard/listings/{category}", func(r chi.Router) {
					r.Get("/", own.New(logger, s.Listings).ServeHTTP)
					r.Post("/", create.New(logger, s.Listings).ServeHTTP)
					r.Put("/{id}", update.New(logger, s.Listings).ServeHTTP)
					r.Delete("/{id}", hide.New(logger, s.Listings).ServeHTTP)
				})

				r.Group(func(r chi.Router) {
					r.Use(middlewarectx.RequireRole(logger, adminRole))
					r.Get("/admin/payments", adminpayments.New(logger, s.Admin).ServeHTTP)
					r.Get("/admin/stats", adminstats.New(logger, s.Admin).ServeHTTP)
				})
			})
		})
	})

	r.Handle(metricsRoute, promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	r.Get(swaggerDocRoute, httpSwagger.WrapHandler)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})
}
