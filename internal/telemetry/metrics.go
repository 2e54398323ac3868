package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/shaiso/buildorch/internal/domain"
)

// pushJob — имя job в Pushgateway.
const pushJob = "buildorch"

// Metrics — Prometheus метрики run и шагов.
//
// Регистрируются в собственном registry: после run он целиком
// отправляется в Pushgateway, а в режиме schedule отдаётся на /metrics.
type Metrics struct {
	registry *prometheus.Registry

	stepDuration *prometheus.HistogramVec
	stepTotal    *prometheus.CounterVec
	runTotal     *prometheus.CounterVec
	runDuration  prometheus.Gauge
	runActions   prometheus.Gauge

	pipeline string
	logger   *slog.Logger
}

// NewMetrics создаёт и регистрирует метрики.
func NewMetrics(pipeline string, logger *slog.Logger) *Metrics {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "buildorch",
			Name:      "step_duration_seconds",
			Help:      "Duration of executed step actions.",
			Buckets:   []float64{1, 5, 15, 60, 180, 600, 1800, 3600},
		}, []string{"pipeline", "step"}),
		stepTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buildorch",
			Name:      "steps_total",
			Help:      "Steps by final status (SKIPPED, SUCCEEDED, FAILED).",
		}, []string{"pipeline", "step", "status"}),
		runTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buildorch",
			Name:      "runs_total",
			Help:      "Runs by final status.",
		}, []string{"pipeline", "status"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "buildorch",
			Name:      "last_run_duration_seconds",
			Help:      "Duration of the last run.",
		}),
		runActions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "buildorch",
			Name:      "last_run_actions",
			Help:      "Number of step actions executed by the last run.",
		}),
		pipeline: pipeline,
		logger:   logger,
	}

	m.registry.MustRegister(m.stepDuration, m.stepTotal, m.runTotal, m.runDuration, m.runActions)

	return m
}

// Registry возвращает registry с метриками.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RunStarted реализует pipeline.Observer.
func (m *Metrics) RunStarted(context.Context, *domain.Run) {}

// StepFinished реализует pipeline.Observer.
func (m *Metrics) StepFinished(_ context.Context, _ *domain.Run, step *domain.StepResult) {
	m.stepTotal.WithLabelValues(m.pipeline, step.Name, string(step.Status)).Inc()
	if step.Status != domain.StepStatusSkipped {
		m.stepDuration.WithLabelValues(m.pipeline, step.Name).Observe(step.Duration().Seconds())
	}
}

// RunFinished реализует pipeline.Observer.
func (m *Metrics) RunFinished(_ context.Context, run *domain.Run) {
	m.runTotal.WithLabelValues(m.pipeline, string(run.Status)).Inc()
	m.runDuration.Set(run.Duration().Seconds())
	m.runActions.Set(float64(run.Actions))
}

// Push отправляет метрики в Pushgateway.
func (m *Metrics) Push(ctx context.Context, url string) error {
	err := push.New(url, pushJob).
		Gatherer(m.registry).
		Grouping("pipeline", m.pipeline).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}

	m.logger.Debug("metrics pushed", "url", url)
	return nil
}
