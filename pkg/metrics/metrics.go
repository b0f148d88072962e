package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics набор метрик сервиса
// Каждый экземпляр использует собственный registry, поэтому New можно вызывать несколько раз (например, в тестах)
type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Database
	DBQueryDuration     *prometheus.HistogramVec
	DBOpenConnections   *prometheus.GaugeVec
	DBInUseConnections  *prometheus.GaugeVec
	DBIdleConnections   *prometheus.GaugeVec
	DBWaitCount         *prometheus.GaugeVec
	DBWaitDurationTotal *prometheus.GaugeVec

	// Domain
	BookingsCreatedTotal       *prometheus.CounterVec
	BookingConflictsTotal      *prometheus.CounterVec
	BenefitConsumptionFailures *prometheus.CounterVec
	ConversationMessagesTotal  *prometheus.CounterVec
}

// New создает и регистрирует метрики
func New(serviceName string) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),

		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query latency",
			ConstLabels: constLabels,
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),

		DBOpenConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Number of established connections",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBInUseConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Number of connections currently in use",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBIdleConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_idle_connections",
			Help:        "Number of idle connections",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBWaitCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBWaitDurationTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_wait_duration_seconds_total",
			Help:        "Total time blocked waiting for a new connection",
			ConstLabels: constLabels,
		}, []string{"db"}),

		BookingsCreatedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "bookings_created_total",
			Help:        "Bookings committed by the reservation service",
			ConstLabels: constLabels,
		}, []string{"channel"}),

		BookingConflictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_conflicts_total",
			Help:        "Reservation attempts rejected with a time conflict",
			ConstLabels: constLabels,
		}, []string{"channel"}),

		BenefitConsumptionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "benefit_consumption_failures_total",
			Help:        "Benefit usage updates that failed after the booking was committed",
			ConstLabels: constLabels,
		}, []string{"kind"}),

		ConversationMessagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "conversation_messages_total",
			Help:        "Inbound conversation messages by outcome",
			ConstLabels: constLabels,
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueryDuration,
		m.DBOpenConnections,
		m.DBInUseConnections,
		m.DBIdleConnections,
		m.DBWaitCount,
		m.DBWaitDurationTotal,
		m.BookingsCreatedTotal,
		m.BookingConflictsTotal,
		m.BenefitConsumptionFailures,
		m.ConversationMessagesTotal,
	)

	return m
}

// Handler HTTP handler для эндпоинта /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry возвращает registry (используется в тестах)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// BookingCreated увеличивает счетчик созданных бронирований
// Безопасно вызывать на nil (метрики выключены)
func (m *Metrics) BookingCreated(channel string) {
	if m == nil {
		return
	}
	m.BookingsCreatedTotal.WithLabelValues(channel).Inc()
}

// BookingConflict увеличивает счетчик конфликтов
func (m *Metrics) BookingConflict(channel string) {
	if m == nil {
		return
	}
	m.BookingConflictsTotal.WithLabelValues(channel).Inc()
}

// BenefitConsumptionFailed увеличивает счетчик неудачных списаний
func (m *Metrics) BenefitConsumptionFailed(kind string) {
	if m == nil {
		return
	}
	m.BenefitConsumptionFailures.WithLabelValues(kind).Inc()
}

// ConversationMessage учитывает обработанное входящее сообщение
func (m *Metrics) ConversationMessage(result string) {
	if m == nil {
		return
	}
	m.ConversationMessagesTotal.WithLabelValues(result).Inc()
}
