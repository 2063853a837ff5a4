package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Metrics collects the Prometheus metrics of the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	checkouts       *prometheus.CounterVec
	revenue         prometheus.Counter
	assist          *prometheus.CounterVec
	jobRuns         *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
}

// NewMetrics initialises the registry with HTTP, sale, assistant and job collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dukkan_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dukkan_http_request_duration_seconds",
		Help:    "HTTP request latency per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dukkan_checkouts_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	revenue := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dukkan_sales_revenue_total",
		Help: "Sum of recorded sale totals.",
	})
	assist := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dukkan_assist_requests_total",
		Help: "Generation service calls by operation and outcome.",
	}, []string{"op", "outcome"})
	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dukkan_jobs_total",
		Help: "Background job executions by task type and status.",
	}, []string{"job", "status"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dukkan_job_duration_seconds",
		Help:    "Background job duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	registry.MustRegister(requests, duration, checkouts, revenue, assist, jobRuns, jobDuration)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		checkouts:       checkouts,
		revenue:         revenue,
		assist:          assist,
		jobRuns:         jobRuns,
		jobDuration:     jobDuration,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// CheckoutRecorded counts one checkout attempt. revenue is only added for successful sales.
func (m *Metrics) CheckoutRecorded(outcome string, revenue decimal.Decimal) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(outcome).Inc()
	if revenue.IsPositive() {
		v, _ := revenue.Float64()
		m.revenue.Add(v)
	}
}

// AssistRequest counts one call to the generation service.
func (m *Metrics) AssistRequest(op, outcome string) {
	if m == nil {
		return
	}
	m.assist.WithLabelValues(op, outcome).Inc()
}

// JobTracker times a single background job run.
type JobTracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// TrackJob starts a tracker for the given task type.
func (m *Metrics) TrackJob(job string) *JobTracker {
	return &JobTracker{metrics: m, job: job, start: time.Now()}
}

// End records the run and returns err untouched.
func (t *JobTracker) End(err error) error {
	if t == nil || t.metrics == nil {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	t.metrics.jobRuns.WithLabelValues(t.job, status).Inc()
	t.metrics.jobDuration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// Registerer exposes the registry for additional collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
