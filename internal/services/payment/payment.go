// Package payment содержит оформление оплаты подписок и обработку
// уведомлений платёжного шлюза.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/servicehub/internal/config"
	"github.com/magabrotheeeer/servicehub/internal/lib/sl"
	"github.com/magabrotheeeer/servicehub/internal/metrics"
	"github.com/magabrotheeeer/servicehub/internal/models"
	"github.com/magabrotheeeer/servicehub/internal/paymentprovider"
	"github.com/magabrotheeeer/servicehub/internal/services/subscriptions"
	"github.com/magabrotheeeer/servicehub/internal/storage/repository"
	"github.com/magabrotheeeer/servicehub/internal/subscription"
)

// Repository определяет методы хранилища, нужные платежам.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetSubscription(ctx context.Context, userUID string, category models.Category) (*models.CategorySubscription, error)
	CreatePayment(ctx context.Context, p *models.Payment) error
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	ListPaymentsByUser(ctx context.Context, userUID string) ([]*models.Payment, error)
	SettlePayment(ctx context.Context, id string, status models.PaymentStatus, now time.Time, apply repository.SettleFunc) (*repository.Settlement, error)
}

// Gateway — платёжный шлюз.
type Gateway interface {
	Initiate(ctx context.Context, in paymentprovider.InitiateRequest) (*paymentprovider.Authorization, error)
}

// Service оформляет платежи и применяет их результат к подпискам.
type Service struct {
	log       *slog.Logger
	repo      Repository
	gateway   Gateway
	publisher subscriptions.EventPublisher
	ledger    *subscription.Ledger
	pricing   config.Subscription
	metrics   *metrics.Metrics
	now       func() time.Time
	newID     func() string
}

// New создаёт сервис платежей.
func New(log *slog.Logger, repo Repository, gateway Gateway, publisher subscriptions.EventPublisher,
	ledger *subscription.Ledger, pricing config.Subscription, m *metrics.Metrics) *Service {
	return &Service{
		log:       log,
		repo:      repo,
		gateway:   gateway,
		publisher: publisher,
		ledger:    ledger,
		pricing:   pricing,
		metrics:   m,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// CheckoutResult — созданный платёж и ссылка на оплату.
type CheckoutResult struct {
	Payment          *models.Payment `json:"payment"`
	AuthorizationURL string          `json:"authorization_url"`
}

// Checkout оформляет оплату категории. Если подписка есть и не отменена,
// платёж продлевает её, иначе оформляется новая подписка.
func (s *Service) Checkout(ctx context.Context, userUID string, category models.Category, cycle models.BillingCycle) (*CheckoutResult, error) {
	const op = "payment.Checkout"

	kind := models.PaymentSubscribe
	current, err := s.repo.GetSubscription(ctx, userUID, category)
	switch {
	case errors.Is(err, repository.ErrSubscriptionNotFound):
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	case !current.Cancelled():
		kind = models.PaymentRenew
	}

	res, err := s.initiate(ctx, userUID, category, cycle, kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// Renew оформляет продление существующей подписки. Отменённую подписку
// продлить нельзя (subscription.ErrCancelled), нужно оформить новую.
func (s *Service) Renew(ctx context.Context, userUID string, category models.Category, cycle models.BillingCycle) (*CheckoutResult, error) {
	const op = "payment.Renew"

	current, err := s.repo.GetSubscription(ctx, userUID, category)
	if errors.Is(err, repository.ErrSubscriptionNotFound) {
		return nil, fmt.Errorf("%s: %w", op, subscriptions.ErrNoSubscription)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if current.Cancelled() {
		return nil, fmt.Errorf("%s: %w", op, subscription.ErrCancelled)
	}

	res, err := s.initiate(ctx, userUID, category, cycle, models.PaymentRenew)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

func (s *Service) initiate(ctx context.Context, userUID string, category models.Category,
	cycle models.BillingCycle, kind models.PaymentKind) (*CheckoutResult, error) {
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, err
	}

	p := &models.Payment{
		ID:           s.newID(),
		UserUID:      userUID,
		Category:     category,
		Kind:         kind,
		Amount:       s.pricing.Price(category, cycle),
		Currency:     s.pricing.Currency,
		BillingCycle: cycle,
	}
	if err := s.repo.CreatePayment(ctx, p); err != nil {
		return nil, err
	}

	auth, err := s.gateway.Initiate(ctx, paymentprovider.InitiateRequest{
		Reference: p.ID,
		Email:     user.Email,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Metadata: map[string]string{
			"category":      string(category),
			"billing_cycle": string(cycle),
		},
	})
	if err != nil {
		// Платёж, не принятый шлюзом, закрывается как failed.
		if _, settleErr := s.repo.SettlePayment(ctx, p.ID, models.PaymentFailed, s.now(), nil); settleErr != nil {
			s.log.Error("failed to mark payment failed", slog.String("payment_id", p.ID), sl.Err(settleErr))
		}
		return nil, err
	}

	s.log.Info("payment initiated",
		slog.String("payment_id", p.ID),
		slog.String("category", string(category)),
		slog.String("kind", string(kind)))
	return &CheckoutResult{Payment: p, AuthorizationURL: auth.AuthorizationURL}, nil
}

// HandleCallback применяет уведомление шлюза. Обработка идемпотентна по
// идентификатору платежа: повторное уведомление ничего не меняет.
// Неизвестный платёж даёт repository.ErrPaymentNotFound без изменений состояния.
// Для событий, не меняющих статус, возвращает nil, nil.
// Успешная оплата с суммой или валютой, отличными от платежа, проводится как failed.
func (s *Service) HandleCallback(ctx context.Context, payload paymentprovider.WebhookPayload) (*repository.Settlement, error) {
	const op = "payment.HandleCallback"

	status, ok := payload.PaymentStatus()
	if !ok {
		s.metrics.PaymentCallback(metrics.OutcomeIgnored)
		return nil, nil
	}
	if _, err := uuid.Parse(payload.Data.Reference); err != nil {
		s.metrics.PaymentCallback(metrics.OutcomeUnknown)
		return nil, fmt.Errorf("%s: %w", op, repository.ErrPaymentNotFound)
	}

	mismatch := false
	if status == models.PaymentCompleted {
		p, err := s.repo.GetPayment(ctx, payload.Data.Reference)
		if errors.Is(err, repository.ErrPaymentNotFound) {
			s.metrics.PaymentCallback(metrics.OutcomeUnknown)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err != nil {
			s.metrics.PaymentCallback(metrics.OutcomeError)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !matchesCharge(p, payload) {
			mismatch = true
			status = models.PaymentFailed
		}
	}

	now := s.now()
	res, err := s.repo.SettlePayment(ctx, payload.Data.Reference, status, now, s.settle(now))
	if errors.Is(err, repository.ErrPaymentNotFound) {
		s.metrics.PaymentCallback(metrics.OutcomeUnknown)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err != nil {
		s.metrics.PaymentCallback(metrics.OutcomeError)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !res.Applied {
		s.metrics.PaymentCallback(metrics.OutcomeDuplicate)
		return res, nil
	}
	if mismatch {
		s.metrics.PaymentCallback(metrics.OutcomeMismatch)
		s.log.Warn("charge does not match payment, marked failed",
			slog.String("payment_id", res.Payment.ID),
			slog.Int64("expected_amount", paymentprovider.MinorUnits(res.Payment.Amount)),
			slog.Int64("charged_amount", payload.Data.Amount),
			slog.String("expected_currency", res.Payment.Currency),
			slog.String("charged_currency", payload.Data.Currency))
		return res, nil
	}
	if status == models.PaymentFailed {
		s.metrics.PaymentCallback(metrics.OutcomeFailed)
		return res, nil
	}

	s.metrics.PaymentCallback(metrics.OutcomeCompleted)
	s.log.Info("subscription paid",
		slog.String("payment_id", res.Payment.ID),
		slog.String("user_uid", res.Payment.UserUID),
		slog.String("category", string(res.Payment.Category)),
		slog.Time("paid_through", res.Subscription.PaidThrough))
	subscriptions.PublishEvent(ctx, s.log, s.repo, s.publisher, models.SubscriptionEvent{
		Type:         models.EventSubscriptionRenewed,
		UserUID:      res.Payment.UserUID,
		Category:     res.Payment.Category,
		BillingCycle: res.Payment.BillingCycle,
		PaidThrough:  res.Subscription.PaidThrough,
		PaymentID:    res.Payment.ID,
		Amount:       res.Payment.Amount,
		OccurredAt:   now,
	})
	return res, nil
}

// matchesCharge сверяет сумму в минимальных единицах и валюту уведомления с платежом.
func matchesCharge(p *models.Payment, payload paymentprovider.WebhookPayload) bool {
	return payload.Data.Amount == paymentprovider.MinorUnits(p.Amount) &&
		strings.EqualFold(payload.Data.Currency, p.Currency)
}

// settle возвращает функцию применения оплаты к подписке. Нет подписки или она
// отменена: оформляется новая. Иначе продлевается от более поздней из дат.
func (s *Service) settle(now time.Time) repository.SettleFunc {
	return func(current *models.CategorySubscription, p *models.Payment) (models.CategorySubscription, error) {
		if current == nil || current.Cancelled() {
			return s.ledger.Start(p.UserUID, p.Category, p.BillingCycle, now), nil
		}
		return s.ledger.Renew(*current, p.BillingCycle, now)
	}
}

// History возвращает платежи пользователя, сначала новые.
func (s *Service) History(ctx context.Context, userUID string) ([]*models.Payment, error) {
	const op = "payment.History"
	payments, err := s.repo.ListPaymentsByUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payments, nil
}
