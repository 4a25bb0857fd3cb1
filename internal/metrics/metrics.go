// Package metrics exposes Prometheus counters for the HTTP surface and the
// trip analyses.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jengzang/trip-hazards/internal/models"
)

// Collector bundles the service metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	TripsImported   prometheus.Counter
	TripsRejected   prometheus.Counter
	TripsScored     prometheus.Counter
	HazardsDetected *prometheus.CounterVec
	AnalysisTasks   *prometheus.CounterVec
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil. Registering twice returns the existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Handled HTTP requests, labeled by method, route and status code.",
	}, []string{"method", "route", "code"}), "http_requests_total")
	if err != nil {
		return nil, err
	}
	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"method", "route"}), "http_request_duration_seconds")
	if err != nil {
		return nil, err
	}
	imported, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trips_imported_total",
		Help: "Trips stored from uploads or directory imports.",
	}), "trips_imported_total")
	if err != nil {
		return nil, err
	}
	rejected, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trips_rejected_total",
		Help: "Trips refused by endpoint or jump validation.",
	}), "trips_rejected_total")
	if err != nil {
		return nil, err
	}
	scored, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trips_scored_total",
		Help: "Trips whose cost was evaluated.",
	}), "trips_scored_total")
	if err != nil {
		return nil, err
	}
	hazards, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hazards_detected_total",
		Help: "Hazards kept after deduplication, labeled by kind.",
	}, []string{"kind"}), "hazards_detected_total")
	if err != nil {
		return nil, err
	}
	tasks, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analysis_tasks_total",
		Help: "Finished analysis tasks, labeled by skill and final status.",
	}, []string{"skill", "status"}), "analysis_tasks_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:        gatherer,
		HTTPRequests:    requests,
		HTTPDurations:   durations,
		TripsImported:   imported,
		TripsRejected:   rejected,
		TripsScored:     scored,
		HazardsDetected: hazards,
		AnalysisTasks:   tasks,
	}, nil
}

// Middleware records one request count and latency sample per request,
// labeled by the matched route pattern.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		if c == nil {
			return
		}
		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := ctx.Request.Method
		c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.HTTPDurations.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (c *Collector) TripImported() {
	if c != nil {
		c.TripsImported.Inc()
	}
}

func (c *Collector) TripRejected() {
	if c != nil {
		c.TripsRejected.Inc()
	}
}

func (c *Collector) TripScored() {
	if c != nil {
		c.TripsScored.Inc()
	}
}

// ObserveHazards counts hazards by kind.
func (c *Collector) ObserveHazards(hazards []models.Hazard) {
	if c == nil {
		return
	}
	for _, h := range hazards {
		c.HazardsDetected.WithLabelValues(string(h.Kind)).Inc()
	}
}

func (c *Collector) TaskFinished(skill, status string) {
	if c != nil {
		c.AnalysisTasks.WithLabelValues(skill, status).Inc()
	}
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
