// Package metrics exposes Prometheus instrumentation for the recovery
// agent: a namespaced struct of promauto-constructed collectors built once
// and threaded as an optional dependency into the components that
// populate them (the rate limiter, the command cache, the controller).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RecoveryMetrics holds every metric the recovery agent publishes.
// Metric names follow the taxonomy
// recovery_agent_<subsystem>_<metric_name>_<unit>.
type RecoveryMetrics struct {
	AttemptsAdmittedTotal *prometheus.CounterVec
	AttemptsDeniedTotal   *prometheus.CounterVec
	LifetimeCapHitsTotal  *prometheus.CounterVec
	CommandsCollectedTotal *prometheus.CounterVec
	CacheHitsTotal        prometheus.Counter
	CacheMissesTotal      prometheus.Counter
	CollectDuration       prometheus.Histogram
}

// DenyReason labels the reason an attempt was denied, for the
// AttemptsDeniedTotal counter's "reason" label.
type DenyReason string

const (
	DenyReasonRetryGap DenyReason = "retry_gap"
	DenyReasonWindow   DenyReason = "window_saturated"
	DenyReasonLifetime DenyReason = "lifetime_cap"
)

// New constructs and registers a RecoveryMetrics against reg. Pass
// prometheus.DefaultRegisterer for the global registry, or a fresh
// prometheus.NewRegistry() in tests to avoid duplicate-registration panics
// across test runs.
func New(reg prometheus.Registerer) *RecoveryMetrics {
	factory := promauto.With(reg)
	return &RecoveryMetrics{
		AttemptsAdmittedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recovery_agent",
			Subsystem: "ratelimit",
			Name:      "attempts_admitted_total",
			Help:      "Recovery attempts admitted by the rate limiter, by component.",
		}, []string{"component"}),
		AttemptsDeniedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recovery_agent",
			Subsystem: "ratelimit",
			Name:      "attempts_denied_total",
			Help:      "Recovery attempts denied by the rate limiter, by component and reason.",
		}, []string{"component", "reason"}),
		LifetimeCapHitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recovery_agent",
			Subsystem: "ratelimit",
			Name:      "lifetime_cap_hits_total",
			Help:      "Times a component's lifetime recovery attempt cap was hit.",
		}, []string{"component"}),
		CommandsCollectedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recovery_agent",
			Subsystem: "controller",
			Name:      "commands_collected_total",
			Help:      "Recovery commands built and returned by collectCommands, by kind.",
		}, []string{"kind"}),
		CacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "recovery_agent",
			Subsystem: "cmdcache",
			Name:      "hits_total",
			Help:      "CommandCache lookups that found a live (non-expired) entry.",
		}),
		CacheMissesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "recovery_agent",
			Subsystem: "cmdcache",
			Name:      "misses_total",
			Help:      "CommandCache lookups that found nothing or an expired entry.",
		}),
		CollectDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "recovery_agent",
			Subsystem: "controller",
			Name:      "collect_duration_seconds",
			Help:      "Wall time spent in one collectCommands call.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
