package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the engine's prometheus counters.
type metrics struct {
	refreshAttempts prometheus.Counter
	refreshRetries  prometheus.Counter
	cleanupRuns     prometheus.Counter
	monitorTicks    prometheus.Counter
	signOuts        prometheus.Counter
	resolutions     *prometheus.CounterVec
}

// engineMetrics is a singleton: prometheus panics on duplicate registration
// and multiple engines in one process share the default registry.
var engineMetrics *metrics //nolint:gochecknoglobals

func newMetrics() *metrics {
	if engineMetrics != nil {
		return engineMetrics
	}

	engineMetrics = &metrics{
		refreshAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "authcore_refresh_attempts_total",
			Help: "Number of session refresh attempts against the identity provider.",
		}),
		refreshRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "authcore_refresh_retries_total",
			Help: "Number of session refresh retries after transient failures.",
		}),
		cleanupRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "authcore_cleanup_runs_total",
			Help: "Number of local auth artifact cleanup runs.",
		}),
		monitorTicks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "authcore_monitor_ticks_total",
			Help: "Number of periodic session monitor checks.",
		}),
		signOuts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "authcore_signouts_total",
			Help: "Number of completed sign-out sequences.",
		}),
		resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "authcore_role_resolutions_total",
			Help: "Number of role resolution cascade runs, by resolved role.",
		}, []string{"role"}),
	}

	return engineMetrics
}
