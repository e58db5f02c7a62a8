package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/servicehub/internal/models"
)

const paymentColumns = `id, user_uid, category, kind, amount, currency, billing_cycle,
	status, created_at, completed_at`

// CreatePayment сохраняет платёж в статусе pending.
func (s *Storage) CreatePayment(ctx context.Context, p *models.Payment) error {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payments (id, user_uid, category, kind, amount, currency, billing_cycle, status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING created_at`
	if err := s.DB.QueryRowContext(ctx, query,
		p.ID, p.UserUID, p.Category, p.Kind, p.Amount, p.Currency, p.BillingCycle, models.PaymentPending,
	).Scan(&p.CreatedAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	p.Status = models.PaymentPending
	return nil
}

// GetPayment возвращает платёж по идентификатору.
func (s *Storage) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	const op = "storage.GetPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	p, err := getPayment(ctx, s.DB, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ListPaymentsByUser возвращает историю платежей пользователя, сначала новые.
func (s *Storage) ListPaymentsByUser(ctx context.Context, userUID string) ([]*models.Payment, error) {
	const op = "storage.ListPaymentsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE user_uid = $1 ORDER BY created_at DESC, id DESC`, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result, err := collectPayments(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListPayments возвращает страницу всех платежей и их общее число.
func (s *Storage) ListPayments(ctx context.Context, limit, offset int) ([]*models.Payment, int, error) {
	const op = "storage.ListPayments"
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	result, err := collectPayments(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

// SettleFunc вычисляет новое состояние подписки по оплаченному платежу.
// current равен nil, если подписки на категорию ещё нет.
type SettleFunc func(current *models.CategorySubscription, p *models.Payment) (models.CategorySubscription, error)

// Settlement — итог обработки уведомления о платеже.
type Settlement struct {
	Payment      *models.Payment
	Subscription *models.CategorySubscription
	// Applied ложно, если платёж уже был в конечном статусе и ничего не изменилось.
	Applied bool
}

// SettlePayment переводит платёж из pending в status и, для completed,
// применяет apply к заблокированной подписке. Всё выполняется в одной транзакции:
// повторный вызов для того же платежа ничего не меняет, поэтому продление
// применяется не более одного раза.
func (s *Storage) SettlePayment(ctx context.Context, id string, status models.PaymentStatus, now time.Time, apply SettleFunc) (*Settlement, error) {
	const op = "storage.SettlePayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if !status.Terminal() {
		return nil, fmt.Errorf("%s: status %q is not terminal", op, status)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	p, err := scanPayment(tx.QueryRowContext(ctx,
		`UPDATE payments SET status = $2, completed_at = $3
		 WHERE id = $1 AND status = 'pending'
		 RETURNING `+paymentColumns, id, status, now))
	if errors.Is(err, sql.ErrNoRows) {
		existing, err := getPayment(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &Settlement{Payment: existing}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &Settlement{Payment: p, Applied: true}
	if status == models.PaymentCompleted {
		current, err := getSubscription(ctx, tx, p.UserUID, p.Category, true)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		next, err := apply(current, p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		next.LastPaymentID = p.ID
		saved, err := saveSubscription(ctx, tx, &next)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result.Subscription = saved
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func getPayment(ctx context.Context, q querier, id string) (*models.Payment, error) {
	p, err := scanPayment(q.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func collectPayments(rows *sql.Rows) ([]*models.Payment, error) {
	defer func() {
		_ = rows.Close()
	}()
	result := []*models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanPayment(row scanner) (*models.Payment, error) {
	var p models.Payment
	var completedAt sql.NullTime
	if err := row.Scan(&p.ID, &p.UserUID, &p.Category, &p.Kind, &p.Amount, &p.Currency,
		&p.BillingCycle, &p.Status, &p.CreatedAt, &completedAt); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		p.CompletedAt = &completedAt.Time
	}
	return &p, nil
}
