package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/servicehub/internal/lib/sl"
)

const maxInFlight = 10

// ConsumerMessage читает очередь и передаёт тела сообщений обработчику.
// Обработанные сообщения подтверждаются, при ошибке один раз возвращаются в очередь.
// Одновременно обрабатывается не больше 10 сообщений.
// Чтение и все запущенные обработчики учитываются в wg: перед закрытием канала
// нужно отменить ctx и дождаться wg.Wait.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string,
	handler func([]byte) error, wg *sync.WaitGroup) error {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		dispatch(ctx, log, delivery, queueName, handler, wg)
	}()
	return nil
}

func dispatch(ctx context.Context, log *slog.Logger, delivery <-chan amqp.Delivery, queueName string,
	handler func([]byte) error, wg *sync.WaitGroup) {
	sem := make(chan struct{}, maxInFlight)
	for {
		select {
		case d, ok := <-delivery:
			if !ok {
				return
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				// Сообщение не взято в работу: брокер вернёт его в очередь при закрытии канала.
				return
			}
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer wg.Done()
				defer func() { <-sem }()
				if err := handler(d.Body); err != nil {
					log.Error("failed to handle message", slog.String("queue", queueName), sl.Err(err))
					if nackErr := d.Nack(false, !d.Redelivered); nackErr != nil {
						log.Error("failed to nack message", sl.Err(nackErr))
					}
					return
				}
				if ackErr := d.Ack(false); ackErr != nil {
					log.Error("failed to ack message", sl.Err(ackErr))
				}
			}(d)
		case <-ctx.Done():
			return
		}
	}
}
