package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "route_planner"

// Recorder owns a private registry so tests can build as many as they like.
type Recorder struct {
	registry       *prometheus.Registry
	attempts       *prometheus.CounterVec
	oracleCalls    *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
	rateLimitWait  prometheus.Histogram
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_attempts_total",
			Help:      "Search attempts by outcome and verdict.",
		}, []string{"outcome", "verdict"}),
		oracleCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_calls_total",
			Help:      "Routing provider calls by profile and result.",
		}, []string{"profile", "result"}),
		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Wall time of a single route search.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		}, []string{"activity", "result"}),
		rateLimitWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rate_limit_wait_seconds",
			Help:      "Time spent waiting for a provider slot.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.attempts,
		r.oracleCalls,
		r.searchDuration,
		r.rateLimitWait,
	)
	return r
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) ObserveAttempt(outcome, verdict string) {
	r.attempts.WithLabelValues(outcome, verdict).Inc()
}

func (r *Recorder) ObserveOracleCall(profile, result string) {
	r.oracleCalls.WithLabelValues(profile, result).Inc()
}

func (r *Recorder) ObserveSearch(activity, result string, d time.Duration) {
	r.searchDuration.WithLabelValues(activity, result).Observe(d.Seconds())
}

func (r *Recorder) ObserveRateLimitWait(d time.Duration) {
	r.rateLimitWait.Observe(d.Seconds())
}
