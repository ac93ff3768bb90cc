package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	ReportTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_transitions_total",
			Help: "Report status transitions by target status.",
		},
		[]string{"to"},
	)

	HarvestFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_fallback_total",
			Help: "Harvest calls answered from mock data.",
		},
		[]string{"resource"},
	)

	DraftsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_drafts_total",
			Help: "Report drafts by content source.",
		},
		[]string{"source"},
	)
)

// Register adds all collectors to the default registry once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight, httpRequestsTotal, httpRequestDuration,
			ReportTransitions, HarvestFallbacks, DraftsGenerated,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records count and latency per chi route pattern, so ids in
// paths do not explode label cardinality.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := strconv.Itoa(sw.code)
		httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
