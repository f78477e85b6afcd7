package rolesync

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	runs     *prometheus.CounterVec
	duration prometheus.Histogram
	rolesUp  *prometheus.CounterVec
}

func newMetrics() *metrics {
	return &metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "console_role_sync_runs_total",
			Help: "Role sync runs by outcome.",
		}, []string{"app_type", "outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "console_role_sync_duration_seconds",
			Help:    "Wall time of role sync runs.",
			Buckets: prometheus.DefBuckets,
		}),
		rolesUp: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "console_role_sync_roles_total",
			Help: "Roles touched by sync runs, by action.",
		}, []string{"action"}),
	}
}

// Collectors exposes the engine's metrics for registration.
func (e *Engine) Collectors() []prometheus.Collector {
	return []prometheus.Collector{e.metrics.runs, e.metrics.duration, e.metrics.rolesUp}
}
