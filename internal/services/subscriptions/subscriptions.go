// Package subscriptions содержит сценарии работы пользователя со своими
// подписками на категории: обзор состояний, отмену и прайс-лист.
package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/servicehub/internal/access"
	"github.com/magabrotheeeer/servicehub/internal/config"
	"github.com/magabrotheeeer/servicehub/internal/lib/sl"
	"github.com/magabrotheeeer/servicehub/internal/models"
	"github.com/magabrotheeeer/servicehub/internal/storage/repository"
	"github.com/magabrotheeeer/servicehub/internal/subscription"
)

// ErrNoSubscription — у пользователя нет подписки на категорию.
var ErrNoSubscription = errors.New("no subscription for category")

// Repository определяет методы хранилища подписок.
type Repository interface {
	ListSubscriptions(ctx context.Context, userUID string) ([]models.CategorySubscription, error)
	UpdateSubscription(ctx context.Context, userUID string, category models.Category,
		fn func(models.CategorySubscription) (models.CategorySubscription, error)) (*models.CategorySubscription, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// EventPublisher публикует события подписок.
type EventPublisher interface {
	PublishSubscriptionEvent(ctx context.Context, event models.SubscriptionEvent) error
}

// Service реализует сценарии подписок пользователя.
type Service struct {
	log       *slog.Logger
	repo      Repository
	publisher EventPublisher
	ledger    *subscription.Ledger
	pricing   config.Subscription
	now       func() time.Time
}

// New создаёт сервис подписок.
func New(log *slog.Logger, repo Repository, publisher EventPublisher, ledger *subscription.Ledger, pricing config.Subscription) *Service {
	return &Service{
		log:       log,
		repo:      repo,
		publisher: publisher,
		ledger:    ledger,
		pricing:   pricing,
		now:       time.Now,
	}
}

// CategoryStatus — состояние подписки пользователя на одну категорию.
type CategoryStatus struct {
	Category     models.Category     `json:"category"`
	Title        string              `json:"title"`
	State        subscription.State  `json:"state"`
	Label        string              `json:"label"`
	Tone         string              `json:"tone"`
	HasAccess    bool                `json:"has_access"`
	BillingCycle models.BillingCycle `json:"billing_cycle,omitempty"`
	PaidThrough  *time.Time          `json:"paid_through,omitempty"`
	GraceUntil   *time.Time          `json:"grace_until,omitempty"`
	CancelledAt  *time.Time          `json:"cancelled_at,omitempty"`
	Prices       []PlanPrice         `json:"prices"`
}

// Overview — подписки пользователя по всем категориям.
type Overview struct {
	Categories       []CategoryStatus  `json:"categories"`
	PaidCategories   []models.Category `json:"paid_categories"`
	UnpaidCategories []models.Category `json:"unpaid_categories"`
}

// Gate загружает подписки пользователя и строит по ним разбиение категорий на текущий момент.
func (s *Service) Gate(ctx context.Context, userUID string) (*access.Gate, error) {
	const op = "subscriptions.Gate"
	subs, err := s.repo.ListSubscriptions(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return access.New(subs, s.now()), nil
}

// Overview возвращает состояние подписки по каждой категории.
func (s *Service) Overview(ctx context.Context, userUID string) (*Overview, error) {
	const op = "subscriptions.Overview"
	gate, err := s.Gate(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := &Overview{
		Categories:       make([]CategoryStatus, 0, len(models.Categories())),
		PaidCategories:   gate.PaidCategories(),
		UnpaidCategories: gate.UnpaidCategories(),
	}
	for _, c := range models.Categories() {
		state := gate.State(c)
		st := CategoryStatus{
			Category:  c,
			Title:     c.Title(),
			State:     state,
			Label:     state.Label(),
			Tone:      state.Tone(),
			HasAccess: state.HasAccess(),
			Prices:    s.prices(c),
		}
		if sub := gate.Subscription(c); sub != nil {
			paidThrough, graceUntil := sub.PaidThrough, sub.GraceUntil
			st.BillingCycle = sub.BillingCycle
			st.PaidThrough = &paidThrough
			st.GraceUntil = &graceUntil
			st.CancelledAt = sub.CancelledAt
		}
		out.Categories = append(out.Categories, st)
	}
	return out, nil
}

// Cancel отменяет подписку на категорию и публикует событие отмены.
func (s *Service) Cancel(ctx context.Context, userUID string, category models.Category) (*models.CategorySubscription, error) {
	const op = "subscriptions.Cancel"
	now := s.now()

	sub, err := s.repo.UpdateSubscription(ctx, userUID, category,
		func(current models.CategorySubscription) (models.CategorySubscription, error) {
			return s.ledger.Cancel(current, now)
		})
	if errors.Is(err, repository.ErrSubscriptionNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrNoSubscription)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("subscription cancelled",
		slog.String("user_uid", userUID), slog.String("category", string(category)))
	s.publish(ctx, models.SubscriptionEvent{
		Type:        models.EventSubscriptionCancelled,
		UserUID:     userUID,
		Category:    category,
		PaidThrough: sub.PaidThrough,
		OccurredAt:  now,
	})
	return sub, nil
}

func (s *Service) publish(ctx context.Context, event models.SubscriptionEvent) {
	PublishEvent(ctx, s.log, s.repo, s.publisher, event)
}

// UserLookup возвращает пользователя по UID.
type UserLookup interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// PublishEvent дополняет событие email и именем пользователя и публикует его.
// Ошибки логируются и не возвращаются.
func PublishEvent(ctx context.Context, log *slog.Logger, users UserLookup, publisher EventPublisher, event models.SubscriptionEvent) {
	if publisher == nil {
		return
	}
	if user, err := users.GetUser(ctx, event.UserUID); err == nil {
		event.Email = user.Email
		event.Username = user.Username
	} else {
		log.Warn("failed to load user for event", slog.String("user_uid", event.UserUID), sl.Err(err))
	}
	if err := publisher.PublishSubscriptionEvent(ctx, event); err != nil {
		log.Error("failed to publish subscription event",
			slog.String("type", event.Type), slog.String("user_uid", event.UserUID), sl.Err(err))
	}
}

// PlanPrice — цена цикла оплаты.
type PlanPrice struct {
	BillingCycle      models.BillingCycle `json:"billing_cycle"`
	Months            int                 `json:"months"`
	Price             float64             `json:"price"`
	MonthlyEquivalent float64             `json:"monthly_equivalent"`
	Currency          string              `json:"currency"`
}

// Plan — прайс-лист категории.
type Plan struct {
	Category models.Category `json:"category"`
	Title    string          `json:"title"`
	Prices   []PlanPrice     `json:"prices"`
}

// Plans возвращает цены всех категорий по всем циклам оплаты.
func (s *Service) Plans() []Plan {
	plans := make([]Plan, 0, len(models.Categories()))
	for _, c := range models.Categories() {
		plans = append(plans, Plan{Category: c, Title: c.Title(), Prices: s.prices(c)})
	}
	return plans
}

func (s *Service) prices(c models.Category) []PlanPrice {
	out := make([]PlanPrice, 0, len(models.BillingCycles()))
	for _, cycle := range models.BillingCycles() {
		price := s.pricing.Price(c, cycle)
		out = append(out, PlanPrice{
			BillingCycle:      cycle,
			Months:            cycle.Months(),
			Price:             price,
			MonthlyEquivalent: subscription.MonthlyEquivalent(price, cycle),
			Currency:          s.pricing.Currency,
		})
	}
	return out
}
