// Package notifier собирает воркер, который рассылает письма о событиях подписок.
package notifier

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/servicehub/internal/config"
	"github.com/magabrotheeeer/servicehub/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/servicehub/internal/lib/sl"
	"github.com/magabrotheeeer/servicehub/internal/lib/smtp"
	notifierservice "github.com/magabrotheeeer/servicehub/internal/services/notifier"
)

// ErrNoBroker — адрес RabbitMQ не задан, слушать нечего.
var ErrNoBroker = errors.New("rabbitmq url is not configured")

// App — воркер уведомлений.
type App struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	notifier *notifierservice.Service
	logger   *slog.Logger
}

// New подключается к брокеру и объявляет очередь событий подписок.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg.RabbitMQ.URL == "" {
		return nil, ErrNoBroker
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.SubscriptionQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)

	return &App{
		conn:     conn,
		ch:       ch,
		notifier: notifierservice.New(logger, transport),
		logger:   logger,
	}, nil
}

// Run читает очередь до отмены ctx. Канал закрывается только после того,
// как завершатся все начатые обработчики.
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.QueueSubscriptionEvents, a.notifier.Handle, &wg)
	if err != nil {
		a.logger.Error("failed to start consumer",
			slog.String("queue", rabbitmq.QueueSubscriptionEvents), sl.Err(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("notifier shutting down gracefully")
	wg.Wait()

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return nil
}
