package servicehub

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/servicehub/internal/cache"
	"github.com/magabrotheeeer/servicehub/internal/config"
	"github.com/magabrotheeeer/servicehub/internal/http/middlewarectx"
	"github.com/magabrotheeeer/servicehub/internal/lib/jwt"
	"github.com/magabrotheeeer/servicehub/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/servicehub/internal/lib/sl"
	"github.com/magabrotheeeer/servicehub/internal/listing"
	"github.com/magabrotheeeer/servicehub/internal/metrics"
	"github.com/magabrotheeeer/servicehub/internal/migrations"
	"github.com/magabrotheeeer/servicehub/internal/paymentprovider"
	adminservice "github.com/magabrotheeeer/servicehub/internal/services/admin"
	authservice "github.com/magabrotheeeer/servicehub/internal/services/auth"
	listingservice "github.com/magabrotheeeer/servicehub/internal/services/listings"
	paymentservice "github.com/magabrotheeeer/servicehub/internal/services/payment"
	subservice "github.com/magabrotheeeer/servicehub/internal/services/subscriptions"
	"github.com/magabrotheeeer/servicehub/internal/storage/repository"
	"github.com/magabrotheeeer/servicehub/internal/subscription"
)

const (
	shutdownTimeout = 15 * time.Second
	limiterCleanup  = time.Minute
)

// App — HTTP-сервер маркетплейса со всеми зависимостями.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	db      *repository.Storage
	cache   *cache.Cache
	conn    *amqp.Connection
	ch      *amqp.Channel
	limiter *middlewarectx.IPLimiter
}

// New поднимает хранилище, применяет миграции и собирает сервисы и маршруты.
// RabbitMQ необязателен: без адреса брокера события подписок не публикуются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{
		logger:  logger,
		db:      db,
		cache:   cacheRedis,
		limiter: middlewarectx.NewIPLimiter(cfg.RateLimit, cfg.RateBurst),
	}

	var publisher subservice.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			app.closeStores()
			return nil, err
		}
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.SubscriptionQueues())
		if err != nil {
			_ = conn.Close()
			app.closeStores()
			return nil, err
		}
		app.conn, app.ch = conn, ch
		publisher = rabbitmq.NewPublisher(ch)
	} else {
		logger.Warn("rabbitmq url is empty, subscription events are not published")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	ledger := subscription.NewLedger(cfg.GracePeriod)
	tokens := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	catalog := listing.NewCatalog(cfg.Listing.PageSize)

	subscriptions := subservice.New(logger, db, publisher, ledger, cfg.Subscription)
	services := Services{
		Auth:          authservice.New(logger, db, tokens),
		Subscriptions: subscriptions,
		Payments: paymentservice.New(logger, db, paymentprovider.NewClient(cfg.PaymentProvider),
			publisher, ledger, cfg.Subscription, m),
		Listings: listingservice.New(logger, catalog, repository.NewListingEngine(db, catalog), db,
			cacheRedis, subscriptions, m, cfg.ListingTTL, listingsPath),
		Admin:         adminservice.New(logger, db, adminservice.DefaultPageSize),
		Storage:       db,
		Tokens:        tokens,
		Metrics:       m,
		Gatherer:      registry,
		Limiter:       app.limiter,
		WebhookSecret: cfg.PaymentProvider.WebhookSecret,
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, services)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run запускает сервер и останавливает его по отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	ticker := time.NewTicker(limiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.limiter.Cleanup()
		case err := <-errCh:
			a.closeAll()
			return err
		case <-ctx.Done():
			timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			a.logger.Info("shutting down HTTP server gracefully")
			err := a.server.Shutdown(timeoutCtx)
			cancel()
			a.closeAll()
			return err
		}
	}
}

func (a *App) closeAll() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	a.closeStores()
}

func (a *App) closeStores() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close cache", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
