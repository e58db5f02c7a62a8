// Package resolve реализует навигацию по кабинету поставщика.
package resolve

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/servicehub/internal/access"
	"github.com/magabrotheeeer/servicehub/internal/dashboard"
	"github.com/magabrotheeeer/servicehub/internal/http/middlewarectx"
	"github.com/magabrotheeeer/servicehub/internal/http/response"
	"github.com/magabrotheeeer/servicehub/internal/lib/sl"
	"github.com/magabrotheeeer/servicehub/internal/metrics"
)

// GateLoader строит разбиение категорий для пользователя.
type GateLoader interface {
	Gate(ctx context.Context, userUID string) (*access.Gate, error)
}

// Handler отдаёт панель кабинета для запрошенных категории и раздела.
type Handler struct {
	log     *slog.Logger
	gates   GateLoader
	router  *dashboard.Router
	metrics *metrics.Metrics
}

// New создает новый Handler.
func New(log *slog.Logger, gates GateLoader, router *dashboard.Router, m *metrics.Metrics) *Handler {
	return &Handler{log: log, gates: gates, router: router, metrics: m}
}

// ServeHTTP godoc
// @Summary Панель кабинета
// @Description Разрешает категорию и раздел кабинета. Закрытый раздел неоплаченной категории
// @Description не отдаётся: вместо него возвращается обзор со статусом locked и кодом 200.
// @Tags Dashboard
// @Produce  json
// @Security BearerAuth
// @Param category query string false "Категория"
// @Param section query string false "Раздел"
// @Success 200 {object} response.OKResponse{data=dashboard.Pane} "Панель"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /dashboard [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.dashboard.resolve"

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

	gate, err := h.gates.Gate(r.Context(), userUID)
	if err != nil {
		log.Error("failed to load subscriptions", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, "failed to load dashboard")
		return
	}

	q := r.URL.Query()
	pane := h.router.Resolve(gate, q.Get("category"), q.Get("section"))
	if pane.Status == dashboard.StatusLocked {
		h.metrics.AccessDenied(pane.RequestedCategory)
		log.Info("locked dashboard section requested",
			slog.String("category", string(pane.RequestedCategory)),
			slog.String("section", string(pane.RequestedSection)))
	}
	render.JSON(w, r, response.OKWithData(pane))
}
