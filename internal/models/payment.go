package models

import "time"

// PaymentStatus — статус платежа. Переход возможен только pending → completed|failed.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Terminal сообщает, является ли статус конечным.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentCompleted || s == PaymentFailed
}

// PaymentKind различает оформление новой подписки и продление существующей.
type PaymentKind string

const (
	PaymentSubscribe PaymentKind = "subscribe"
	PaymentRenew     PaymentKind = "renew"
)

// Payment — неизменяемая запись об оплате подписки на категорию.
type Payment struct {
	ID           string        `json:"id"`
	UserUID      string        `json:"user_uid"`
	Category     Category      `json:"category"`
	Kind         PaymentKind   `json:"kind"`
	Amount       float64       `json:"amount"`
	Currency     string        `json:"currency"`
	BillingCycle BillingCycle  `json:"billing_cycle"`
	Status       PaymentStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

// CheckoutRequest — тело запроса на оформление оплаты.
type CheckoutRequest struct {
	Category     string `json:"category" validate:"required"`
	BillingCycle string `json:"billing_cycle" validate:"required"`
}
