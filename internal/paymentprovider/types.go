package paymentprovider

import (
	"fmt"

	"github.com/magabrotheeeer/servicehub/internal/models"
)

// InitiateRequest — параметры оплаты подписки.
type InitiateRequest struct {
	Reference string
	Email     string
	Amount    float64
	Currency  string
	Metadata  map[string]string
}

// Authorization — ответ шлюза со ссылкой на оплату.
type Authorization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type initializeBody struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency,omitempty"`
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type initializeResponse struct {
	Status  bool          `json:"status"`
	Message string        `json:"message"`
	Data    Authorization `json:"data"`
}

// События уведомлений шлюза.
const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
)

// WebhookPayload — тело уведомления о результате оплаты.
type WebhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
	} `json:"data"`
}

// PaymentStatus сопоставляет событию конечный статус платежа.
// Для прочих событий возвращает false: их нужно пропустить.
func (p WebhookPayload) PaymentStatus() (models.PaymentStatus, bool) {
	switch p.Event {
	case EventChargeSuccess:
		return models.PaymentCompleted, true
	case EventChargeFailed:
		return models.PaymentFailed, true
	}
	return "", false
}

func (p WebhookPayload) String() string {
	return fmt.Sprintf("%s(%s)", p.Event, p.Data.Reference)
}
