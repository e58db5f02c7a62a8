// Package checkout реализует оформление оплаты подписки на категорию.
package checkout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/servicehub/internal/http/middlewarectx"
	"github.com/magabrotheeeer/servicehub/internal/http/response"
	"github.com/magabrotheeeer/servicehub/internal/lib/sl"
	"github.com/magabrotheeeer/servicehub/internal/models"
	"github.com/magabrotheeeer/servicehub/internal/services/payment"
)

// Service описывает оформление оплаты.
type Service interface {
	Checkout(ctx context.Context, userUID string, category models.Category, cycle models.BillingCycle) (*payment.CheckoutResult, error)
}

// Handler обрабатывает запросы на оплату.
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
// @Summary Оплатить подписку
// @Description Создаёт платёж в статусе pending и возвращает ссылку на страницу оплаты шлюза.
// @Description Если подписка на категорию действует, платёж её продлевает.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.CheckoutRequest true "Категория и цикл оплаты"
// @Success 201 {object} response.OKResponse{data=payment.CheckoutResult} "Платёж создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Неизвестная категория или цикл"
// @Failure 502 {object} response.ErrorResponse "Платёжный шлюз недоступен"
// @Router /payments/checkout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.checkout"

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

	var req models.CheckoutRequest
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

	category, err := models.ParseCategory(req.Category)
	if err != nil {
		response.WriteError(w, r, http.StatusUnprocessableEntity, "unknown category")
		return
	}
	cycle, err := models.ParseBillingCycle(req.BillingCycle)
	if err != nil {
		response.WriteError(w, r, http.StatusUnprocessableEntity, "unknown billing cycle")
		return
	}

	res, err := h.service.Checkout(r.Context(), userUID, category, cycle)
	if err != nil {
		log.Error("failed to start checkout", sl.Err(err))
		response.WriteError(w, r, http.StatusBadGateway, "failed to start payment")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(res))
}
