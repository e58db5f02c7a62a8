// Package overview реализует список подписок пользователя по всем категориям.
package overview

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/servicehub/internal/http/middlewarectx"
	"github.com/magabrotheeeer/servicehub/internal/http/response"
	"github.com/magabrotheeeer/servicehub/internal/lib/sl"
	"github.com/magabrotheeeer/servicehub/internal/services/subscriptions"
)

// Service описывает получение сводки подписок.
type Service interface {
	Overview(ctx context.Context, userUID string) (*subscriptions.Overview, error)
}

// Handler обрабатывает запросы сводки подписок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Мои подписки
// @Description Состояние подписки по каждой категории: статус, подпись, оплачено до, льготный период.
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.OKResponse{data=subscriptions.Overview} "Сводка подписок"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /subscriptions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.overview"

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

	res, err := h.service.Overview(r.Context(), userUID)
	if err != nil {
		log.Error("failed to load subscriptions", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, "failed to load subscriptions")
		return
	}
	render.JSON(w, r, response.OKWithData(res))
}
