// Package renew реализует продление подписки на категорию.
package renew

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/servicehub/internal/http/middlewarectx"
	"github.com/magabrotheeeer/servicehub/internal/http/response"
	"github.com/magabrotheeeer/servicehub/internal/lib/sl"
	"github.com/magabrotheeeer/servicehub/internal/models"
	"github.com/magabrotheeeer/servicehub/internal/services/payment"
	"github.com/magabrotheeeer/servicehub/internal/services/subscriptions"
	"github.com/magabrotheeeer/servicehub/internal/subscription"
)

// Request — тело запроса продления.
type Request struct {
	BillingCycle string `json:"billing_cycle" validate:"required"`
}

// Service описывает оформление продления.
type Service interface {
	Renew(ctx context.Context, userUID string, category models.Category, cycle models.BillingCycle) (*payment.CheckoutResult, error)
}

// Handler обрабатывает запросы продления.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Продлить подписку
// @Description Создаёт платёж на продление и возвращает ссылку на оплату.
// @Description Срок продлевается от более поздней из дат: сейчас или оплачено до.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param category path string true "Категория"
// @Param request body Request true "Цикл оплаты"
// @Success 201 {object} response.OKResponse{data=payment.CheckoutResult} "Платёж создан"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 409 {object} response.ErrorResponse "Подписка отменена или отсутствует"
// @Failure 422 {object} response.ErrorResponse "Некорректный цикл оплаты"
// @Failure 502 {object} response.ErrorResponse "Платёжный шлюз недоступен"
// @Router /subscriptions/{category}/renew [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.renew"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := middlewarectx.UserUIDFrom(r.Context())
	if !ok {
		log.Error("user uid not found in context")
		response.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	category, err := models.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		response.WriteError(w, r, http.StatusNotFound, "unknown category")
		return
	}

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	cycle, err := models.ParseBillingCycle(req.BillingCycle)
	if err != nil {
		response.WriteError(w, r, http.StatusUnprocessableEntity, "unknown billing cycle")
		return
	}

	res, err := h.service.Renew(r.Context(), userUID, category, cycle)
	switch {
	case errors.Is(err, subscription.ErrCancelled):
		log.Info("renewal of cancelled subscription rejected", slog.String("category", string(category)))
		response.WriteError(w, r, http.StatusConflict, "subscription is cancelled, subscribe again")
		return
	case errors.Is(err, subscriptions.ErrNoSubscription):
		response.WriteError(w, r, http.StatusConflict, "no subscription to renew")
		return
	case err != nil:
		log.Error("failed to start renewal", sl.Err(err))
		response.WriteError(w, r, http.StatusBadGateway, "failed to start payment")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(res))
}
