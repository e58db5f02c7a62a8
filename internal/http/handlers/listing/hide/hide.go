// Package hide реализует снятие объявления с публикации.
package hide

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
	"github.com/magabrotheeeer/servicehub/internal/services/listings"
	"github.com/magabrotheeeer/servicehub/internal/storage/repository"
)

// Service описывает скрытие объявления.
type Service interface {
	Hide(ctx context.Context, userUID string, category models.Category, id string) error
}

// Handler обрабатывает запросы на скрытие объявления.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Скрыть объявление
// @Description Снимает объявление с публикации. Запись сохраняется.
// @Tags Dashboard
// @Produce  json
// @Security BearerAuth
// @Param category path string true "Категория"
// @Param id path string true "ID объявления"
// @Success 200 {object} response.OKResponse "Объявление скрыто"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Категория не оплачена"
// @Failure 404 {object} response.ErrorResponse "Объявление не найдено"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /dashboard/listings/{category}/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.listing.hide"

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

	id := chi.URLParam(r, "id")
	err = h.service.Hide(r.Context(), userUID, category, id)
	switch {
	case errors.Is(err, listings.ErrCategoryLocked):
		response.WriteError(w, r, http.StatusForbidden, "category locked")
		return
	case errors.Is(err, repository.ErrListingNotFound):
		response.WriteError(w, r, http.StatusNotFound, "listing not found")
		return
	case err != nil:
		log.Error("failed to hide listing", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, "failed to hide listing")
		return
	}

	log.Info("listing hidden", slog.String("listing_id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{"id": id, "hidden": true}))
}
