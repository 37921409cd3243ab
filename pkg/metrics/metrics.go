package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wadjakorntonsri/kind-letters/pkg/core/domain"
)

// Metrics holds the service collectors. Each instance owns its registry so
// that several routers can live in one process (tests, serverless warm starts).
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	LettersSubmitted prometheus.Counter
	LettersApproved  prometheus.Counter
	LettersRejected  prometheus.Counter
	VisitsRecorded   prometheus.Counter

	PendingLetters  prometheus.Gauge
	ApprovedLetters prometheus.Gauge
	UniqueVisitors  prometheus.Gauge

	RateLimited *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "letters_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "letters_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		LettersSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "letters_submitted_total",
			Help: "Letters accepted into the moderation queue",
		}),
		LettersApproved: factory.NewCounter(prometheus.CounterOpts{
			Name: "letters_approved_total",
			Help: "Letters moved from pending to approved",
		}),
		LettersRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "letters_rejected_total",
			Help: "Pending letters deleted by a moderator",
		}),
		VisitsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "letters_visits_recorded_total",
			Help: "Visits recorded, including repeat visits",
		}),

		PendingLetters: factory.NewGauge(prometheus.GaugeOpts{
			Name: "letters_pending",
			Help: "Pending letters at the last stats read",
		}),
		ApprovedLetters: factory.NewGauge(prometheus.GaugeOpts{
			Name: "letters_approved",
			Help: "Approved letters at the last stats read",
		}),
		UniqueVisitors: factory.NewGauge(prometheus.GaugeOpts{
			Name: "letters_unique_visitors",
			Help: "Unique visitors at the last stats read",
		}),

		RateLimited: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "letters_rate_limited_total",
				Help: "Requests rejected by the per-client rate limiter",
			},
			[]string{"route"},
		),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RecordHTTPRequest(method, route, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) ObserveStats(s *domain.Stats) {
	m.PendingLetters.Set(float64(s.PendingLetters))
	m.ApprovedLetters.Set(float64(s.ApprovedLetters))
	m.UniqueVisitors.Set(float64(s.UniqueVisitors))
}

func (m *Metrics) LetterSubmitted() { m.LettersSubmitted.Inc() }
func (m *Metrics) LetterApproved()  { m.LettersApproved.Inc() }
func (m *Metrics) LetterRejected()  { m.LettersRejected.Inc() }
func (m *Metrics) VisitRecorded()   { m.VisitsRecorded.Inc() }

func (m *Metrics) RateLimitHit(route string) { m.RateLimited.WithLabelValues(route).Inc() }
