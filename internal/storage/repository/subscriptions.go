package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/servicehub/internal/models"
)

const subscriptionColumns = `id, user_uid, category, billing_cycle, paid_through, grace_until,
	cancelled_at, last_payment_id, created_at, updated_at`

// ListSubscriptions возвращает все подписки пользователя.
func (s *Storage) ListSubscriptions(ctx context.Context, userUID string) ([]models.CategorySubscription, error) {
	const op = "storage.ListSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM category_subscriptions WHERE user_uid = $1 ORDER BY id`, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.CategorySubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetSubscription возвращает подписку пользователя на категорию.
func (s *Storage) GetSubscription(ctx context.Context, userUID string, category models.Category) (*models.CategorySubscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	sub, err := getSubscription(ctx, s.DB, userUID, category, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sub == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrSubscriptionNotFound)
	}
	return sub, nil
}

// UpdateSubscription блокирует подписку на время транзакции, передаёт её в fn
// и сохраняет результат. Ошибка fn откатывает транзакцию.
func (s *Storage) UpdateSubscription(ctx context.Context, userUID string, category models.Category,
	fn func(models.CategorySubscription) (models.CategorySubscription, error)) (*models.CategorySubscription, error) {
	const op = "storage.UpdateSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	current, err := getSubscription(ctx, tx, userUID, category, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if current == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrSubscriptionNotFound)
	}
	next, err := fn(*current)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	saved, err := saveSubscription(ctx, tx, &next)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return saved, nil
}

// SubscriptionStats считает действующие и льготные подписки по категориям на момент now.
// Категории без подписок присутствуют в ответе с нулями.
func (s *Storage) SubscriptionStats(ctx context.Context, now time.Time) ([]models.CategoryStats, error) {
	const op = "storage.SubscriptionStats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT category,
			      COUNT(*) FILTER (WHERE paid_through >= $1),
			      COUNT(*) FILTER (WHERE paid_through < $1 AND grace_until >= $1)
			  FROM category_subscriptions
			  WHERE cancelled_at IS NULL
			  GROUP BY category`
	rows, err := s.DB.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	counts := make(map[models.Category]models.CategoryStats)
	for rows.Next() {
		var st models.CategoryStats
		if err := rows.Scan(&st.Category, &st.Active, &st.Grace); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		counts[st.Category] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]models.CategoryStats, 0, len(models.Categories()))
	for _, c := range models.Categories() {
		st := counts[c]
		st.Category = c
		result = append(result, st)
	}
	return result, nil
}

func getSubscription(ctx context.Context, q querier, userUID string, category models.Category, lock bool) (*models.CategorySubscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM category_subscriptions
			  WHERE user_uid = $1 AND category = $2`
	if lock {
		query += ` FOR UPDATE`
	}
	sub, err := scanSubscription(q.QueryRowContext(ctx, query, userUID, category))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// saveSubscription вставляет или заменяет запись пары (пользователь, категория).
func saveSubscription(ctx context.Context, q querier, sub *models.CategorySubscription) (*models.CategorySubscription, error) {
	var lastPayment any
	if sub.LastPaymentID != "" {
		lastPayment = sub.LastPaymentID
	}
	query := `INSERT INTO category_subscriptions
			      (user_uid, category, billing_cycle, paid_through, grace_until, cancelled_at, last_payment_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  ON CONFLICT (user_uid, category) DO UPDATE SET
			      billing_cycle = EXCLUDED.billing_cycle,
			      paid_through = EXCLUDED.paid_through,
			      grace_until = EXCLUDED.grace_until,
			      cancelled_at = EXCLUDED.cancelled_at,
			      last_payment_id = EXCLUDED.last_payment_id,
			      updated_at = NOW()
			  RETURNING ` + subscriptionColumns
	return scanSubscription(q.QueryRowContext(ctx, query,
		sub.UserUID, sub.Category, sub.BillingCycle, sub.PaidThrough, sub.GraceUntil,
		sub.CancelledAt, lastPayment))
}

func scanSubscription(row scanner) (*models.CategorySubscription, error) {
	var sub models.CategorySubscription
	var cancelledAt sql.NullTime
	var lastPayment sql.NullString
	if err := row.Scan(&sub.ID, &sub.UserUID, &sub.Category, &sub.BillingCycle,
		&sub.PaidThrough, &sub.GraceUntil, &cancelledAt, &lastPayment,
		&sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	if cancelledAt.Valid {
		sub.CancelledAt = &cancelledAt.Time
	}
	sub.LastPaymentID = lastPayment.String
	return &sub, nil
}
