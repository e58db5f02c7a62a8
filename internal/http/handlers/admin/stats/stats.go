// Package stats реализует сводку подписок по категориям для администратора.
package stats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/servicehub/internal/http/response"
	"github.com/magabrotheeeer/servicehub/internal/lib/sl"
	"github.com/magabrotheeeer/servicehub/internal/models"
)

// Service описывает сводку подписок.
type Service interface {
	Stats(ctx context.Context) ([]models.CategoryStats, error)
}

// Handler обрабатывает запросы сводки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Сводка подписок
// @Description Число действующих подписок и подписок в льготном периоде по каждой категории.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.OKResponse{data=[]models.CategoryStats} "Сводка"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Нужна роль admin"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/stats [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.log.Error("failed to compute subscription stats", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	render.JSON(w, r, response.OKWithData(stats))
}
