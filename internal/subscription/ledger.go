package subscription

import (
	"errors"
	"time"

	"github.com/magabrotheeeer/servicehub/internal/lib/month"
	"github.com/magabrotheeeer/servicehub/internal/models"
)

var (
	// ErrCancelled — попытка продлить отменённую подписку. Нужно оформлять новую.
	ErrCancelled = errors.New("subscription is cancelled")
	// ErrAlreadyCancelled — повторная отмена.
	ErrAlreadyCancelled = errors.New("subscription already cancelled")
)

// Ledger вычисляет и изменяет подписки. Длительность льготного периода фиксирована.
type Ledger struct {
	grace time.Duration
}

// NewLedger создаёт журнал с заданным льготным периодом.
func NewLedger(grace time.Duration) *Ledger {
	if grace < 0 {
		grace = 0
	}
	return &Ledger{grace: grace}
}

// StateAt вычисляет состояние подписки на момент now. Для nil возвращает StateNone.
func StateAt(sub *models.CategorySubscription, now time.Time) State {
	if sub == nil {
		return StateNone
	}
	if sub.CancelledAt != nil {
		return StateCancelled
	}
	switch {
	case !now.After(sub.PaidThrough):
		return StateActive
	case !now.After(sub.GraceUntil):
		return StateGracePeriod
	default:
		return StateExpired
	}
}

// Start оформляет новую подписку, оплаченную на один цикл начиная с now.
// Используется и для первой покупки, и для повторной подписки после отмены.
func (l *Ledger) Start(userUID string, category models.Category, cycle models.BillingCycle, now time.Time) models.CategorySubscription {
	paidThrough := month.Add(now, cycle.Months())
	return models.CategorySubscription{
		UserUID:      userUID,
		Category:     category,
		BillingCycle: cycle,
		PaidThrough:  paidThrough,
		GraceUntil:   paidThrough.Add(l.grace),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Renew продлевает подписку на цикл от более поздней из дат now и PaidThrough:
// досрочное продление не сжигает оплаченное время, просроченное не продлевается задним числом.
// Исходная структура не изменяется.
func (l *Ledger) Renew(sub models.CategorySubscription, cycle models.BillingCycle, now time.Time) (models.CategorySubscription, error) {
	if sub.CancelledAt != nil {
		return sub, ErrCancelled
	}
	base := month.Later(now, sub.PaidThrough)
	sub.BillingCycle = cycle
	sub.PaidThrough = month.Add(base, cycle.Months())
	sub.GraceUntil = sub.PaidThrough.Add(l.grace)
	sub.UpdatedAt = now
	return sub, nil
}

// Cancel отменяет подписку. Отмена конечна.
func (l *Ledger) Cancel(sub models.CategorySubscription, now time.Time) (models.CategorySubscription, error) {
	if sub.CancelledAt != nil {
		return sub, ErrAlreadyCancelled
	}
	at := now
	sub.CancelledAt = &at
	sub.UpdatedAt = now
	return sub, nil
}

// MonthlyEquivalent — цена цикла в пересчёте на месяц, только для сравнения тарифов.
func MonthlyEquivalent(price float64, cycle models.BillingCycle) float64 {
	return month.MonthlyEquivalent(price, cycle.Months())
}
