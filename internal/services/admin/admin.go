// Package admin содержит операции административной панели: журнал платежей
// и сводку подписок по категориям.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/servicehub/internal/models"
)

// DefaultPageSize — размер страницы журнала платежей.
const DefaultPageSize = 20

// Repository определяет методы хранилища для административной панели.
type Repository interface {
	ListPayments(ctx context.Context, limit, offset int) ([]*models.Payment, int, error)
	SubscriptionStats(ctx context.Context, now time.Time) ([]models.CategoryStats, error)
}

// Service реализует операции административной панели.
type Service struct {
	log      *slog.Logger
	repo     Repository
	pageSize int
	now      func() time.Time
}

// New создаёт сервис административной панели.
func New(log *slog.Logger, repo Repository, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{log: log, repo: repo, pageSize: pageSize, now: time.Now}
}

// PaymentsPage — страница журнала платежей, новые сверху.
type PaymentsPage struct {
	Items    []*models.Payment `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	LastPage int               `json:"last_page"`
}

// Payments возвращает страницу журнала. Номер страницы вне диапазона
// прижимается к ближайшей границе.
func (s *Service) Payments(ctx context.Context, page int) (*PaymentsPage, error) {
	const op = "admin.Payments"
	if page < 1 {
		page = 1
	}

	items, total, err := s.repo.ListPayments(ctx, s.pageSize, (page-1)*s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	last := (total + s.pageSize - 1) / s.pageSize
	if last < 1 {
		last = 1
	}
	if page > last {
		page = last
		items, total, err = s.repo.ListPayments(ctx, s.pageSize, (page-1)*s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	if items == nil {
		items = []*models.Payment{}
	}
	return &PaymentsPage{Items: items, Total: total, Page: page, LastPage: last}, nil
}

// Stats возвращает число действующих и льготных подписок по каждой категории.
func (s *Service) Stats(ctx context.Context) ([]models.CategoryStats, error) {
	const op = "admin.Stats"
	stats, err := s.repo.SubscriptionStats(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug("subscription stats computed", slog.Int("categories", len(stats)))
	return stats, nil
}
