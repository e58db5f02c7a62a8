package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/servicehub/internal/models"
)

// PublishMessage публикует сообщение в RabbitMQ в формате JSON.
func PublishMessage(ch *amqp.Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Publisher публикует события подписок в exchange subscriptions.
// Канал amqp не допускает конкурентной публикации, вызовы сериализуются.
type Publisher struct {
	mu sync.Mutex
	ch *amqp.Channel
}

// NewPublisher создаёт издателя поверх настроенного канала.
func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// PublishSubscriptionEvent отправляет событие, ключ маршрутизации выбирается по типу.
func (p *Publisher) PublishSubscriptionEvent(ctx context.Context, event models.SubscriptionEvent) error {
	const op = "rabbitmq.PublishSubscriptionEvent"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	key, err := RoutingKey(event.Type)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return PublishMessage(p.ch, ExchangeSubscriptions, key, event)
}

// RoutingKey сопоставляет тип события ключу маршрутизации.
func RoutingKey(eventType string) (string, error) {
	switch eventType {
	case models.EventSubscriptionRenewed:
		return RoutingRenewed, nil
	case models.EventSubscriptionCancelled:
		return RoutingCancelled, nil
	}
	return "", fmt.Errorf("unknown event type %q", eventType)
}
