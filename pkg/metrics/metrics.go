package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор метрик сервиса
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueryDuration   *prometheus.HistogramVec
	DBOpenConnections *prometheus.GaugeVec
	DBInUse           *prometheus.GaugeVec
	DBIdle            *prometheus.GaugeVec
	DBWaitCount       *prometheus.GaugeVec

	BookingAttemptsTotal *prometheus.CounterVec
	SinkForwardsTotal    *prometheus.CounterVec
	ExternalBusyChecks   *prometheus.CounterVec
}

// New создает и регистрирует метрики в глобальном registry
func New(serviceName string) *Metrics {
	return NewWithRegisterer(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegisterer создает метрики и регистрирует их в указанном registry
// Используется в тестах с prometheus.NewRegistry()
func NewWithRegisterer(serviceName string, reg prometheus.Registerer) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
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

		DBInUse: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Number of connections currently in use",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBIdle: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_idle_connections",
			Help:        "Number of idle connections",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBWaitCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for",
			ConstLabels: constLabels,
		}, []string{"db"}),

		BookingAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_attempts_total",
			Help:        "Booking attempts by outcome",
			ConstLabels: constLabels,
		}, []string{"outcome"}),

		SinkForwardsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "job_sink_forwards_total",
			Help:        "Job sink submissions by outcome",
			ConstLabels: constLabels,
		}, []string{"outcome"}),

		ExternalBusyChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "external_busy_checks_total",
			Help:        "External busy-interval lookups by source and outcome",
			ConstLabels: constLabels,
		}, []string{"source", "outcome"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueryDuration,
		m.DBOpenConnections,
		m.DBInUse,
		m.DBIdle,
		m.DBWaitCount,
		m.BookingAttemptsTotal,
		m.SinkForwardsTotal,
		m.ExternalBusyChecks,
	)

	return m
}

// IncBookingAttempt учитывает исход попытки бронирования
// Безопасно вызывать на nil
func (m *Metrics) IncBookingAttempt(outcome string) {
	if m == nil {
		return
	}
	m.BookingAttemptsTotal.WithLabelValues(outcome).Inc()
}

// IncSinkForward учитывает исход отправки в job sink
func (m *Metrics) IncSinkForward(outcome string) {
	if m == nil {
		return
	}
	m.SinkForwardsTotal.WithLabelValues(outcome).Inc()
}

// IncExternalBusyCheck учитывает обращение к внешнему источнику занятости
func (m *Metrics) IncExternalBusyCheck(source, outcome string) {
	if m == nil {
		return
	}
	m.ExternalBusyChecks.WithLabelValues(source, outcome).Inc()
}
