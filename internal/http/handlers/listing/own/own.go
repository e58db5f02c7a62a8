// Package own реализует список собственных объявлений поставщика.
package own

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
)

// Service описывает выборку объявлений владельца.
type Service interface {
	Own(ctx context.Context, userUID string, category models.Category) ([]*models.Listing, error)
}

// Handler обрабатывает запросы списка своих объявлений.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Мои объявления
// @Description Возвращает опубликованные объявления пользователя в категории.
// @Tags Dashboard
// @Produce  json
// @Security BearerAuth
// @Param category path string true "Категория"
// @Success 200 {object} response.OKResponse{data=[]models.Listing} "Объявления"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Категория не оплачена"
// @Failure 404 {object} response.ErrorResponse "Неизвестная категория"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /dashboard/listings/{category} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.listing.own"

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

	items, err := h.service.Own(r.Context(), userUID, category)
	switch {
	case errors.Is(err, listings.ErrCategoryLocked):
		response.WriteError(w, r, http.StatusForbidden, "category locked")
		return
	case err != nil:
		log.Error("failed to list own listings", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, "failed to list listings")
		return
	}
	if items == nil {
		items = []*models.Listing{}
	}
	render.JSON(w, r, response.OKWithData(items))
}
