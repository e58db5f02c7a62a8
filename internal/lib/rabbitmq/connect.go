// Package rabbitmq содержит подключение к RabbitMQ, публикацию событий
// подписок и потребителя очереди уведомлений.
package rabbitmq

import (
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

const (
	// ExchangeSubscriptions — exchange для событий подписок.
	ExchangeSubscriptions = "subscriptions"
	// QueueSubscriptionEvents — очередь воркера уведомлений.
	QueueSubscriptionEvents = "subscription.events"

	RoutingRenewed   = "renewed"
	RoutingCancelled = "cancelled"
)

// QueueConfig описывает очередь и её ключи маршрутизации.
type QueueConfig struct {
	QueueName   string
	RoutingKeys []string
}

// SubscriptionQueues возвращает очереди, которые слушает воркер уведомлений.
func SubscriptionQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueSubscriptionEvents, RoutingKeys: []string{RoutingRenewed, RoutingCancelled}},
	}
}

// Connect подключается к брокеру, повторяя попытки retries раз с паузой delay.
func Connect(connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	var conn *amqp.Connection
	var err error

	if retries < 1 {
		retries = 1
	}
	for i := 0; i < retries; i++ {
		conn, err = amqp.Dial(connection)
		if err == nil {
			return conn, nil
		}
		if i < retries-1 {
			time.Sleep(delay)
		}
	}
	return nil, fmt.Errorf("%s: %w", op, err)
}

// SetupChannel открывает канал, объявляет exchange подписок и привязывает очереди.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		ExchangeSubscriptions,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		if _, err := ch.QueueDeclare(q.QueueName, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}
		for _, key := range q.RoutingKeys {
			if err := ch.QueueBind(q.QueueName, key, ExchangeSubscriptions, false, nil); err != nil {
				return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, key, err)
			}
		}
	}
	return ch, nil
}
