// Package cancel реализует отмену подписки на категорию.
package cancel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/servicehub/internal/http/middlewarectx"
	"github.com/magabrotheeeer/servicehub/internal/http/response"
	"github.com/magabrotheeeer/servicehub/internal/lib/sl"
	"github.com/magabrotheeeer/servicehub/internal/models"
	"github.com/magabrotheeeer/servicehub/internal/services/subscriptions"
	"github.com/magabrotheeeer/servicehub/internal/subscription"
)

// Service описывает отмену подписки.
type Service interface {
	Cancel(ctx context.Context, userUID string, category models.Category) (*models.CategorySubscription, error)
}

// Handler обрабатывает запросы на отмену подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отменить подписку
// @Description Отмена окончательна: продлить отменённую подписку нельзя, можно оформить новую.
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Param category path string true "Категория"
// @Success 200 {object} response.OKResponse{data=models.CategorySubscription} "Подписка отменена"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Подписки нет"
// @Failure 409 {object} response.ErrorResponse "Подписка уже отменена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /subscriptions/{category}/cancel [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.cancel"

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

	sub, err := h.service.Cancel(r.Context(), userUID, category)
	switch {
	case errors.Is(err, subscriptions.ErrNoSubscription):
		response.WriteError(w, r, http.StatusNotFound, "subscription not found")
		return
	case errors.Is(err, subscription.ErrAlreadyCancelled):
		response.WriteError(w, r, http.StatusConflict, "subscription already cancelled")
		return
	case err != nil:
		log.Error("failed to cancel subscription", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, "failed to cancel subscription")
		return
	}
	render.JSON(w, r, response.OKWithData(sub))
}
