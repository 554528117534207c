// Package metrics exposes Prometheus collectors for the site server.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/folio/site-server-go/internal/model"
)

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	referralStoreOpsTotal      *prometheus.CounterVec
	companyJobsLookupsTotal    *prometheus.CounterVec

	once sync.Once
)

// Init registers the collectors. It is safe to call more than once.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		referralStoreOpsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "referral_store_operations_total",
				Help: "Referral store operations, labeled by operation, serving backend and result.",
			},
			[]string{"op", "backend", "result"},
		)

		companyJobsLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "company_jobs_lookups_total",
				Help: "Company jobs lookups made while resolving referral pages, labeled by outcome.",
			},
			[]string{"outcome"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latencies by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	Init()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		ObserveHTTPRequest(r.Method, route, status, time.Since(start))
	})
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveStoreEvent counts a referral store operation.
func ObserveStoreEvent(event model.StoreEvent) {
	Init()
	referralStoreOpsTotal.WithLabelValues(string(event.Op), string(event.Backend), string(event.Result)).Inc()
}

// ObserveCompanyJobsLookup counts a company jobs lookup outcome ("ok" or "degraded").
func ObserveCompanyJobsLookup(outcome string) {
	Init()
	companyJobsLookupsTotal.WithLabelValues(outcome).Inc()
}
