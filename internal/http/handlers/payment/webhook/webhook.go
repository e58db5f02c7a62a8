// Package webhook принимает уведомления платёжного шлюза о результате оплаты.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/servicehub/internal/http/response"
	"github.com/magabrotheeeer/servicehub/internal/lib/sl"
	"github.com/magabrotheeeer/servicehub/internal/metrics"
	"github.com/magabrotheeeer/servicehub/internal/paymentprovider"
	"github.com/magabrotheeeer/servicehub/internal/storage/repository"
)

const maxBodySize = 1 << 20

// Service описывает применение уведомления.
type Service interface {
	HandleCallback(ctx context.Context, payload paymentprovider.WebhookPayload) (*repository.Settlement, error)
}

// Handler проверяет подпись уведомления и передаёт его сервису платежей.
type Handler struct {
	log     *slog.Logger
	service Service
	secret  string
	metrics *metrics.Metrics
}

// New создает новый Handler. secret используется для проверки подписи уведомлений.
func New(log *slog.Logger, service Service, secret string, m *metrics.Metrics) *Handler {
	return &Handler{log: log, service: service, secret: secret, metrics: m}
}

// ServeHTTP godoc
// @Summary Уведомление платёжного шлюза
// @Description Тело подписано HMAC-SHA512 в заголовке X-Paystack-Signature.
// @Description Повторное уведомление по тому же платежу ничего не меняет и возвращает 200.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param X-Paystack-Signature header string true "Подпись тела"
// @Param request body paymentprovider.WebhookPayload true "Уведомление"
// @Success 200 {object} response.OKResponse "Уведомление обработано"
// @Failure 400 {object} response.ErrorResponse "Некорректное тело"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Failure 404 {object} response.ErrorResponse "Платёж не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, "failed to read body")
		return
	}

	if !paymentprovider.VerifySignature(h.secret, body, r.Header.Get(paymentprovider.SignatureHeader)) {
		h.metrics.PaymentCallback(metrics.OutcomeRejected)
		log.Warn("invalid or missing webhook signature")
		response.WriteError(w, r, http.StatusUnauthorized, "invalid signature")
		return
	}

	var payload paymentprovider.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	log = log.With(slog.String("event", payload.Event), slog.String("reference", payload.Data.Reference))

	res, err := h.service.HandleCallback(r.Context(), payload)
	switch {
	case errors.Is(err, repository.ErrPaymentNotFound):
		log.Warn("webhook for unknown payment")
		response.WriteError(w, r, http.StatusNotFound, "payment not found")
		return
	case err != nil:
		log.Error("failed to process webhook", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, "failed to process webhook")
		return
	}

	result := "ignored"
	switch {
	case res == nil:
		log.Info("webhook event ignored")
	case !res.Applied:
		result = "duplicate"
		log.Info("duplicate webhook, payment already settled", slog.String("status", string(res.Payment.Status)))
	default:
		result = string(res.Payment.Status)
		log.Info("webhook processed", slog.String("status", result))
	}
	render.JSON(w, r, response.OKWithData(map[string]any{"result": result}))
}
