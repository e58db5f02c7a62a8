// Package metrics содержит метрики Prometheus сервиса.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/servicehub/internal/models"
)

// Исходы обработки уведомлений о платежах.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeDuplicate = "duplicate"
	OutcomeUnknown   = "unknown_payment"
	OutcomeIgnored   = "ignored"
	OutcomeRejected  = "bad_signature"
	OutcomeMismatch  = "amount_mismatch"
	OutcomeError     = "error"
)

// Metrics — набор метрик. Методы безопасно вызывать на nil.
type Metrics struct {
	paymentCallbacks *prometheus.CounterVec
	accessDenials    *prometheus.CounterVec
	listingQuery     *prometheus.HistogramVec
}

// New создаёт метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		paymentCallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "servicehub_payment_callbacks_total",
			Help: "Payment gateway callbacks by outcome.",
		}, []string{"outcome"}),
		accessDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "servicehub_access_denials_total",
			Help: "Requests to gated category features without access.",
		}, []string{"category"}),
		listingQuery: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "servicehub_listing_query_seconds",
			Help:    "Listing search latency, cache hits included.",
			Buckets: prometheus.DefBuckets,
		}, []string{"category"}),
	}
	reg.MustRegister(m.paymentCallbacks, m.accessDenials, m.listingQuery)
	return m
}

// PaymentCallback учитывает уведомление о платеже.
func (m *Metrics) PaymentCallback(outcome string) {
	if m == nil {
		return
	}
	m.paymentCallbacks.WithLabelValues(outcome).Inc()
}

// AccessDenied учитывает отказ в доступе к закрытой категории.
func (m *Metrics) AccessDenied(category models.Category) {
	if m == nil {
		return
	}
	m.accessDenials.WithLabelValues(string(category)).Inc()
}

// ListingQuery учитывает длительность поиска объявлений.
func (m *Metrics) ListingQuery(category models.Category, d time.Duration) {
	if m == nil {
		return
	}
	m.listingQuery.WithLabelValues(string(category)).Observe(d.Seconds())
}
