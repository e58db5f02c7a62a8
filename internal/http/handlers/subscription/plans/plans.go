// Package plans реализует прайс-лист подписок.
package plans

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/servicehub/internal/http/response"
	"github.com/magabrotheeeer/servicehub/internal/services/subscriptions"
)

// Service возвращает прайс-лист.
type Service interface {
	Plans() []subscriptions.Plan
}

// Handler отдаёт цены подписок.
type Handler struct {
	service Service
}

// New создает новый Handler.
func New(service Service) *Handler {
	return &Handler{service: service}
}

// ServeHTTP godoc
// @Summary Тарифы
// @Description Цены подписки по категориям и циклам оплаты с пересчётом на месяц.
// @Tags Subscriptions
// @Produce  json
// @Success 200 {object} response.OKResponse{data=[]subscriptions.Plan} "Тарифы"
// @Router /plans [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.OKWithData(h.service.Plans()))
}
