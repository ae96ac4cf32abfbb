package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the editor collectors. Each Metrics owns its registry so
// several instances can coexist in tests.
type Metrics struct {
	Registry *prometheus.Registry

	commits    *prometheus.CounterVec
	travels    *prometheus.CounterVec
	rejections *prometheus.CounterVec
	saves      *prometheus.HistogramVec
	publishes  *prometheus.CounterVec
}

// NewMetrics creates and registers the lattice collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		commits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lattice_commits_total",
				Help: "Total number of committed document revisions",
			},
			[]string{"operation"},
		),
		travels: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lattice_history_travels_total",
				Help: "Total number of undo and redo steps",
			},
			[]string{"direction"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lattice_placement_rejections_total",
				Help: "Total number of operations rejected by placement rules",
			},
			[]string{"operation"},
		),
		saves: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lattice_autosave_duration_seconds",
				Help:    "Duration of autosave writes",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		publishes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lattice_publishes_total",
				Help: "Total number of publish attempts",
			},
			[]string{"result"},
		),
	}
	m.Registry.MustRegister(m.commits, m.travels, m.rejections, m.saves, m.publishes)
	return m
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCommit: func(_ context.Context, e *domain.CommitEvent) {
			m.commits.WithLabelValues(string(e.Operation)).Inc()
		},
		OnUndo: func(_ context.Context, e *domain.HistoryEvent) {
			m.travels.WithLabelValues("undo").Inc()
		},
		OnRedo: func(_ context.Context, e *domain.HistoryEvent) {
			m.travels.WithLabelValues("redo").Inc()
		},
		OnRejected: func(_ context.Context, e *domain.PlacementEvent) {
			m.rejections.WithLabelValues(string(e.Operation)).Inc()
		},
		OnSave: func(_ context.Context, e *domain.PersistEvent) {
			m.saves.WithLabelValues(result(e.Err)).Observe(e.Duration.Seconds())
		},
		OnPublish: func(_ context.Context, e *domain.PersistEvent) {
			m.publishes.WithLabelValues(result(e.Err)).Inc()
		},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
