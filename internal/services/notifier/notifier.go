// Package notifier отправляет пользователям письма о событиях подписок,
// полученных из очереди.
package notifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/servicehub/internal/lib/sl"
	"github.com/magabrotheeeer/servicehub/internal/lib/smtp"
	"github.com/magabrotheeeer/servicehub/internal/models"
)

// ErrUnknownEvent — событие неизвестного типа.
var ErrUnknownEvent = errors.New("unknown subscription event")

// Service формирует и отправляет уведомления.
type Service struct {
	log    *slog.Logger
	dialer smtp.Dialer
}

// New создаёт сервис уведомлений.
func New(log *slog.Logger, dialer smtp.Dialer) *Service {
	return &Service{log: log, dialer: dialer}
}

// Email — готовое к отправке письмо.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Handle разбирает событие из очереди и отправляет письмо. Битые сообщения
// и события без адреса пропускаются: повторная доставка их не исправит.
func (s *Service) Handle(body []byte) error {
	const op = "notifier.Handle"

	var event models.SubscriptionEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal subscription event", sl.Err(err))
		return nil
	}
	log := s.log.With(
		slog.String("op", op),
		slog.String("type", event.Type),
		slog.String("user_uid", event.UserUID),
		slog.String("category", string(event.Category)),
	)
	if event.Email == "" {
		log.Warn("subscription event has no recipient, skipping")
		return nil
	}

	email, err := Compose(event)
	if err != nil {
		log.Warn("skipping subscription event", sl.Err(err))
		return nil
	}
	if err := s.Send(email); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("notification sent")
	return nil
}

// Compose строит письмо по событию подписки.
func Compose(event models.SubscriptionEvent) (Email, error) {
	name := event.Username
	if name == "" {
		name = "there"
	}
	title := event.Category.Title()
	paidThrough := event.PaidThrough.Format("2 January 2006")

	switch event.Type {
	case models.EventSubscriptionRenewed:
		body := fmt.Sprintf("Hello %s,\n\nYour %s subscription (%s) is active until %s.\n",
			name, title, event.BillingCycle, paidThrough)
		if event.PaymentID != "" {
			body += fmt.Sprintf("Payment reference: %s, amount: %.2f.\n", event.PaymentID, event.Amount)
		}
		return Email{
			To:      event.Email,
			Subject: fmt.Sprintf("Receipt: %s subscription", title),
			Body:    body,
		}, nil
	case models.EventSubscriptionCancelled:
		return Email{
			To:      event.Email,
			Subject: fmt.Sprintf("Your %s subscription was cancelled", title),
			Body: fmt.Sprintf("Hello %s,\n\nYour %s subscription has been cancelled. "+
				"Listings in this category are no longer managed from your dashboard. "+
				"You can subscribe again at any time.\n", name, title),
		}, nil
	}
	return Email{}, fmt.Errorf("%w: %q", ErrUnknownEvent, event.Type)
}

// Send отправляет письмо через SMTP-сессию.
func (s *Service) Send(email Email) error {
	from := s.dialer.Sender()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + email.To,
		"Subject: " + email.Subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		email.Body,
	}, "\r\n")

	client, err := s.dialer.Connect()
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			s.log.Debug("smtp client close", sl.Err(err))
		}
	}()

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(email.To); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}
	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := wc.Write([]byte(msg)); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}
	return client.Quit()
}
