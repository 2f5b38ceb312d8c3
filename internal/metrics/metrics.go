package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slant_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	StageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slant_stage_failures_total",
			Help: "Total number of run-fatal stage failures",
		},
		[]string{"stage"},
	)

	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slant_extractions_total",
			Help: "Article extractions by publisher and outcome",
		},
		[]string{"publisher", "outcome"},
	)

	GenerationAttempts = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slant_generation_attempts",
			Help:    "Attempts spent per structured generation call",
			Buckets: []float64{1, 2, 3, 4, 5, 6},
		},
		[]string{"outcome"},
	)

	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slant_fetch_requests_total",
			Help: "Total number of direct article fetches",
		},
		[]string{"domain", "status", "detection_src"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slant_fetch_duration_seconds",
			Help:    "Duration of direct article fetches in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"domain"},
	)

	ProxyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slant_proxy_failures_total",
			Help: "Total number of proxy failures during fetches",
		},
		[]string{"proxy_url"},
	)
)

// ObserveStage records the duration of a stage and counts it as failed when
// err is non-nil.
func ObserveStage(stage string, d time.Duration, err error) {
	StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		StageFailures.WithLabelValues(stage).Inc()
	}
}

// RecordExtraction counts an extraction outcome ("ok" or "error").
func RecordExtraction(publisher, outcome string) {
	ExtractionsTotal.WithLabelValues(publisher, outcome).Inc()
}

// RecordGeneration records how many attempts a structured generation took.
func RecordGeneration(attempts int, ok bool) {
	outcome := "parsed"
	if !ok {
		outcome = "unparsable"
	}
	GenerationAttempts.WithLabelValues(outcome).Observe(float64(attempts))
}

// RecordFetch updates the fetch metrics for a single direct page fetch.
// A zero status is reported as "error".
func RecordFetch(domain string, status int, detectionSrc string, d time.Duration) {
	statusStr := strconv.Itoa(status)
	if status == 0 {
		statusStr = "error"
	}
	FetchRequestsTotal.WithLabelValues(domain, statusStr, detectionSrc).Inc()
	FetchDuration.WithLabelValues(domain).Observe(d.Seconds())
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
func Start(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		// Suppress the error from intentional shutdown
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server failed", "addr", srv.Addr, "err", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
