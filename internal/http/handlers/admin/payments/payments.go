// Package payments реализует журнал платежей для администратора.
package payments

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/servicehub/internal/http/response"
	"github.com/magabrotheeeer/servicehub/internal/lib/sl"
	"github.com/magabrotheeeer/servicehub/internal/services/admin"
)

// Service описывает журнал платежей.
type Service interface {
	Payments(ctx context.Context, page int) (*admin.PaymentsPage, error)
}

// Handler обрабатывает запросы журнала платежей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Журнал платежей
// @Description Все платежи, новые сверху. Некорректный номер страницы заменяется первой.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param page query int false "Номер страницы"
// @Success 200 {object} response.OKResponse{data=admin.PaymentsPage} "Страница журнала"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Нужна роль admin"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/payments [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.payments"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	res, err := h.service.Payments(r.Context(), page)
	if err != nil {
		log.Error("failed to list payments", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, "failed to list payments")
		return
	}
	render.JSON(w, r, response.OKWithData(res))
}
