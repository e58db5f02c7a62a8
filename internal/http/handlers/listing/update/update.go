// Package update реализует изменение объявления владельцем.
package update

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
	"github.com/magabrotheeeer/servicehub/internal/lib/phone"
	"github.com/magabrotheeeer/servicehub/internal/lib/sl"
	"github.com/magabrotheeeer/servicehub/internal/models"
	"github.com/magabrotheeeer/servicehub/internal/services/listings"
	"github.com/magabrotheeeer/servicehub/internal/storage/repository"
)

// Service описывает изменение объявления.
type Service interface {
	Update(ctx context.Context, userUID string, category models.Category, id string, in models.ListingInput) (*models.Listing, error)
}

// Handler обрабатывает запросы на изменение объявления.
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
// @Summary Изменить объявление
// @Description Полностью заменяет поля объявления владельца. Требуется действующая подписка на категорию.
// @Tags Dashboard
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param category path string true "Категория"
// @Param id path string true "ID объявления"
// @Param request body models.ListingInput true "Объявление"
// @Success 200 {object} response.OKResponse{data=models.Listing} "Объявление изменено"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Категория не оплачена"
// @Failure 404 {object} response.ErrorResponse "Объявление не найдено"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /dashboard/listings/{category}/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.listing.update"

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
		log.Warn("unknown category", sl.Err(err))
		response.WriteError(w, r, http.StatusNotFound, "unknown category")
		return
	}

	var req models.ListingInput
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	l, err := h.service.Update(r.Context(), userUID, category, chi.URLParam(r, "id"), req)
	switch {
	case errors.Is(err, listings.ErrCategoryLocked):
		response.WriteError(w, r, http.StatusForbidden, "category locked")
		return
	case errors.Is(err, repository.ErrListingNotFound):
		response.WriteError(w, r, http.StatusNotFound, "listing not found")
		return
	case errors.Is(err, listings.ErrInvalidAttribute), errors.Is(err, phone.ErrInvalid):
		log.Warn("invalid listing", sl.Err(err))
		response.WriteError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		log.Error("failed to update listing", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, "failed to update listing")
		return
	}

	log.Info("listing updated", slog.String("listing_id", l.ID))
	render.JSON(w, r, response.OKWithData(l))
}
