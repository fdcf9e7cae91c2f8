// Package metrics exposes Prometheus collectors for the simulation loop.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "harpoon"

// Loop holds the collectors updated by the game loop. Each Loop owns its
// registry so several games (or tests) never collide on registration.
type Loop struct {
	registry *prometheus.Registry

	Ticks          prometheus.Counter
	TickDuration   prometheus.Histogram
	Entities       prometheus.Gauge
	Bodies         prometheus.Gauge
	SubSteps       prometheus.Counter
	CraftDestroyed prometheus.Counter
	Disabled       prometheus.Counter
	ClampedDeltas  prometheus.Counter
	PhysicsFaults  prometheus.Counter
}

// NewLoop creates and registers the loop collectors.
func NewLoop() *Loop {
	m := &Loop{
		registry: prometheus.NewRegistry(),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Number of loop ticks processed.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock time spent updating and rendering one tick.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.02, 0.05, 0.1},
		}),
		Entities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entities",
			Help:      "Entities currently in the registry.",
		}),
		Bodies: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bodies",
			Help:      "Rigid bodies currently in the physics world.",
		}),
		SubSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "physics_substeps_total",
			Help:      "Fixed physics steps taken.",
		}),
		CraftDestroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "craft_destroyed_total",
			Help:      "Craft destroyed by violent impacts.",
		}),
		Disabled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_disabled_total",
			Help:      "Entities removed after a runtime fault.",
		}),
		ClampedDeltas: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clamped_deltas_total",
			Help:      "Ticks whose elapsed time was clamped.",
		}),
		PhysicsFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "physics_faults_total",
			Help:      "Ticks whose physics step was skipped after an engine panic.",
		}),
	}

	m.registry.MustRegister(
		m.Ticks, m.TickDuration, m.Entities, m.Bodies,
		m.SubSteps, m.CraftDestroyed, m.Disabled, m.ClampedDeltas, m.PhysicsFaults,
	)
	return m
}

// ObserveTick records one processed tick.
func (m *Loop) ObserveTick(d time.Duration, steps, entities, bodies int) {
	m.Ticks.Inc()
	m.TickDuration.Observe(d.Seconds())
	m.SubSteps.Add(float64(steps))
	m.Entities.Set(float64(entities))
	m.Bodies.Set(float64(bodies))
}

// Registry returns the registry holding the loop collectors.
func (m *Loop) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Loop) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
