// Package create реализует публикацию объявления из кабинета поставщика.
package create

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
)

// Service описывает создание объявления.
type Service interface {
	Create(ctx context.Context, userUID string, category models.Category, in models.ListingInput) (*models.Listing, error)
}

// Handler обрабатывает запросы на создание объявления.
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
// @Summary Создать объявление
// @Description Публикует объявление в категории. Требуется действующая подписка на категорию.
// @Tags Dashboard
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param category path string true "Категория"
// @Param request body models.ListingInput true "Объявление"
// @Success 201 {object} response.OKResponse{data=models.Listing} "Объявление создано"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Категория не оплачена"
// @Failure 404 {object} response.ErrorResponse "Неизвестная категория"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /dashboard/listings/{category} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.listing.create"

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

	l, err := h.service.Create(r.Context(), userUID, category, req)
	switch {
	case errors.Is(err, listings.ErrCategoryLocked):
		response.WriteError(w, r, http.StatusForbidden, "category locked")
		return
	case errors.Is(err, listings.ErrInvalidAttribute), errors.Is(err, phone.ErrInvalid):
		log.Warn("invalid listing", sl.Err(err))
		response.WriteError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		log.Error("failed to create listing", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, "failed to create listing")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(l))
}
