package strat

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Telemetry exposes match counters on an optional debug HTTP endpoint.
// A nil *Telemetry is valid and records nothing, so wiring it stays
// optional in tests and calibration runs.
type Telemetry struct {
	registry     *prometheus.Registry
	trajectories *prometheus.CounterVec
	goals        *prometheus.CounterVec
	avoidances   prometheus.Counter
	server       *http.Server
}

// NewTelemetry builds and registers the match metrics.
func NewTelemetry() *Telemetry {
	registry := prometheus.NewRegistry()

	t := &Telemetry{
		registry: registry,
		trajectories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "strat_trajectories_total",
			Help: "Trajectory waits by terminal outcome.",
		}, []string{"outcome"}),
		goals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "strat_goals_total",
			Help: "Goal attempts by object kind and result.",
		}, []string{"kind", "result"}),
		avoidances: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strat_avoidance_attempts_total",
			Help: "Obstacle avoidance maneuvers attempted.",
		}),
	}
	registry.MustRegister(t.trajectories, t.goals, t.avoidances)
	return t
}

// Serve starts the debug endpoint at addr in the background.
func (t *Telemetry) Serve(addr string, log *zap.Logger) {
	if t == nil {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{}))
	t.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := t.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("telemetry server stopped", zap.Error(err))
		}
	}()
}

// Close shuts the debug endpoint down.
func (t *Telemetry) Close() error {
	if t == nil || t.server == nil {
		return nil
	}
	return t.server.Close()
}

// RecordTrajectory counts a classified trajectory outcome.
func (t *Telemetry) RecordTrajectory(out Outcome) {
	if t == nil {
		return
	}
	t.trajectories.WithLabelValues(out.String()).Inc()
}

// RecordGoal counts a finished goal attempt.
func (t *Telemetry) RecordGoal(goal Goal, success bool) {
	if t == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	t.goals.WithLabelValues(goal.Kind.String(), result).Inc()
}

// RecordAvoidance counts one avoidance maneuver.
func (t *Telemetry) RecordAvoidance() {
	if t == nil {
		return
	}
	t.avoidances.Inc()
}

// NewLogger builds the process logger. level is a zap level name; an empty
// string means info.
func NewLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level != "" {
		parsed, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = parsed
	}
	return cfg.Build()
}
