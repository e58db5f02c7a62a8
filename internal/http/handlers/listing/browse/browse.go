// Package browse реализует публичный поиск объявлений категории.
package browse

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/servicehub/internal/http/response"
	"github.com/magabrotheeeer/servicehub/internal/lib/sl"
	"github.com/magabrotheeeer/servicehub/internal/models"
	"github.com/magabrotheeeer/servicehub/internal/services/listings"
)

// Service описывает поиск объявлений.
type Service interface {
	Search(ctx context.Context, category models.Category, q url.Values) (*listings.SearchResult, error)
}

// Handler обрабатывает запросы публичного поиска.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Поиск объявлений
// @Description Возвращает страницу объявлений категории с фильтрами и ссылками навигации.
// @Description Неизвестная сортировка и некорректная страница заменяются значениями по умолчанию,
// @Description страница вне диапазона прижимается к границе.
// @Tags Listings
// @Produce  json
// @Param category path string true "Категория"
// @Param search query string false "Поиск по названию и навыку"
// @Param location query string false "Местоположение"
// @Param sort query string false "Сортировка"
// @Param page query int false "Номер страницы"
// @Success 200 {object} response.OKResponse{data=listings.SearchResult} "Страница результатов"
// @Failure 404 {object} response.ErrorResponse "Неизвестная категория"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /listings/{category} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.listing.browse"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	category, err := models.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		log.Warn("unknown category", sl.Err(err))
		response.WriteError(w, r, http.StatusNotFound, "unknown category")
		return
	}

	res, err := h.service.Search(r.Context(), category, r.URL.Query())
	if err != nil {
		log.Error("failed to search listings", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, "failed to search listings")
		return
	}

	log.Debug("listings found", slog.String("category", string(category)), slog.Int("total", res.Total))
	render.JSON(w, r, response.OKWithData(res))
}
