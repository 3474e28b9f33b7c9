package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	LeadMutations       *prometheus.CounterVec
	LeadsImported       prometheus.Counter
	ExportsCreated      *prometheus.CounterVec
	ActivitiesRecorded  prometheus.Counter
	LoginAttempts       *prometheus.CounterVec
	ActivitySubscribers prometheus.Gauge
}

// New registers collectors on the default registry
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers collectors on reg. Tests pass a fresh prometheus.NewRegistry().
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		LeadMutations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_mutations_total",
				Help: "Lead mutations by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		LeadsImported: f.NewCounter(prometheus.CounterOpts{
			Name: "leads_imported_total",
			Help: "Rows inserted by bulk import",
		}),
		ExportsCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exports_created_total",
				Help: "Spreadsheet exports by format",
			},
			[]string{"format"},
		),
		ActivitiesRecorded: f.NewCounter(prometheus.CounterOpts{
			Name: "lead_activities_recorded_total",
			Help: "Field-change activity records written",
		}),
		LoginAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "login_attempts_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		ActivitySubscribers: f.NewGauge(prometheus.GaugeOpts{
			Name: "activity_subscribers",
			Help: "Open realtime activity subscriptions",
		}),
	}
}

// Middleware records request count and latency per route template
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordMutation counts a lead mutation; err decides the outcome label
func (m *Metrics) RecordMutation(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.LeadMutations.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) AddImported(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.LeadsImported.Add(float64(n))
}

func (m *Metrics) IncExport(format string) {
	if m == nil {
		return
	}
	m.ExportsCreated.WithLabelValues(format).Inc()
}

func (m *Metrics) IncActivity() {
	if m == nil {
		return
	}
	m.ActivitiesRecorded.Inc()
}

func (m *Metrics) IncLogin(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetSubscribers(n int) {
	if m == nil {
		return
	}
	m.ActivitySubscribers.Set(float64(n))
}
