// Package metrics exposes Prometheus instrumentation for pipeline runs:
// collaborator calls, stage durations and emitted profiles.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Outcome labels for CollaboratorCalls.
const (
	OutcomeOK      = "ok"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

// Source labels for ProfilesTotal.
const (
	SourceAnalysis = "analysis"
	SourceDefault  = "default"
)

var (
	CollaboratorCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolscout_collaborator_calls_total",
			Help: "Calls to the search, scrape and text generation services",
		},
		[]string{"service", "outcome"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toolscout_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	ProfilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolscout_profiles_total",
			Help: "Company profiles emitted by the research stage",
		},
		[]string{"source"},
	)

	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolscout_runs_total",
			Help: "Completed pipeline runs by result",
		},
		[]string{"result"},
	)
)

// RecordCall counts one collaborator call. A nil error with empty data is
// reported as OutcomeEmpty.
func RecordCall(service string, err error, empty bool) {
	outcome := OutcomeOK
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		outcome = OutcomeTimeout
	case err != nil:
		outcome = OutcomeError
	case empty:
		outcome = OutcomeEmpty
	}
	CollaboratorCalls.WithLabelValues(service, outcome).Inc()
}

// ObserveStage records how long a stage took since start.
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RecordProfile counts one emitted profile.
func RecordProfile(source string) {
	ProfilesTotal.WithLabelValues(source).Inc()
}

// RecordRun counts a finished run.
func RecordRun(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	RunsTotal.WithLabelValues(result).Inc()
}

// Handler returns the /metrics handler.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on addr and exposes /metrics.
func Start(addr string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
