// Package metrics exports task and run counters in Prometheus format.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aretw0/kiln/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so that several executors in one
// process (tests, the status server) never collide on metric names.
type Collector struct {
	registry *prometheus.Registry

	tasks        *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	runs         *prometheus.CounterVec
	lastRun      prometheus.Gauge
}

// NewCollector creates and registers the kiln metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		tasks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kiln_task_executions_total",
				Help: "Task executions by outcome.",
			},
			[]string{"task", "status"},
		),
		taskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kiln_task_duration_seconds",
				Help:    "Wall time of task actions.",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"task"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kiln_runs_total",
				Help: "Executor runs by outcome.",
			},
			[]string{"status"},
		),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kiln_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}
	c.registry.MustRegister(c.tasks, c.taskDuration, c.runs, c.lastRun)
	return c
}

// Hooks returns lifecycle hooks that record every task and run.
func (c *Collector) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTaskFinish: func(_ context.Context, e *domain.TaskEvent) {
			status := domain.TaskSucceeded
			if e.Err != nil {
				status = domain.TaskFailed
			}
			c.tasks.WithLabelValues(e.Task, string(status)).Inc()
			c.taskDuration.WithLabelValues(e.Task).Observe(e.Duration.Seconds())
		},
		OnRunFinish: func(_ context.Context, e *domain.RunEvent) {
			status := domain.RunSucceeded
			if e.Err != nil {
				status = domain.RunFailed
			}
			c.runs.WithLabelValues(string(status)).Inc()
			c.lastRun.Set(float64(e.Timestamp.Unix()))
		},
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the current metrics for the node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
