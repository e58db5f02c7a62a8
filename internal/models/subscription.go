package models

import "time"

// CategorySubscription — подписка пользователя на одну категорию.
// На пару (пользователь, категория) существует не более одной записи,
// GraceUntil всегда не раньше PaidThrough.
type CategorySubscription struct {
	ID            int          `json:"id"`
	UserUID       string       `json:"user_uid"`
	Category      Category     `json:"category"`
	BillingCycle  BillingCycle `json:"billing_cycle"`
	PaidThrough   time.Time    `json:"paid_through"`
	GraceUntil    time.Time    `json:"grace_until"`
	CancelledAt   *time.Time   `json:"cancelled_at,omitempty"`
	LastPaymentID string       `json:"last_payment_id,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Cancelled сообщает, отменена ли подписка.
func (s *CategorySubscription) Cancelled() bool {
	return s.CancelledAt != nil
}

// SubscriptionEvent публикуется в очередь при продлении или отмене подписки.
type SubscriptionEvent struct {
	Type         string       `json:"type"`
	UserUID      string       `json:"user_uid"`
	Email        string       `json:"email,omitempty"`
	Username     string       `json:"username,omitempty"`
	Category     Category     `json:"category"`
	BillingCycle BillingCycle `json:"billing_cycle,omitempty"`
	PaidThrough  time.Time    `json:"paid_through"`
	PaymentID    string       `json:"payment_id,omitempty"`
	Amount       float64      `json:"amount,omitempty"`
	OccurredAt   time.Time    `json:"occurred_at"`
}

const (
	// EventSubscriptionRenewed — подписка создана или продлена оплатой.
	EventSubscriptionRenewed = "subscription.renewed"
	// EventSubscriptionCancelled — подписка отменена пользователем.
	EventSubscriptionCancelled = "subscription.cancelled"
)

// CategoryStats — число действующих подписок категории на момент подсчёта.
type CategoryStats struct {
	Category Category `json:"category"`
	Active   int      `json:"active"`
	Grace    int      `json:"grace_period"`
}
