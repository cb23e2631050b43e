package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Reconciliation metrics
	ReconcileCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "drover_reconcile_cycles_total",
			Help: "Total number of reconciliation passes",
		},
	)

	ReconcileErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "drover_reconcile_errors_total",
			Help: "Total number of reconciliation passes that failed",
		},
	)

	ReconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "drover_reconcile_duration_seconds",
			Help:    "Reconciliation pass duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Event metrics
	EventsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drover_events_processed_total",
			Help: "Total number of events processed by type",
		},
		[]string{"type"},
	)

	EventsDeferredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drover_events_deferred_total",
			Help: "Total number of events deferred for redelivery by type",
		},
		[]string{"type"},
	)

	EventsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "drover_events_dropped_total",
			Help: "Total number of events dropped because the queue was full",
		},
	)

	// Lifecycle metrics
	LifecycleInstalled = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "drover_lifecycle_installed",
			Help: "Whether the managed package is installed (1 = installed)",
		},
	)

	LifecycleStarted = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "drover_lifecycle_started",
			Help: "Whether the managed service is started (1 = started)",
		},
	)

	ServiceActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drover_service_actions_total",
			Help: "Total service control actions by action name",
		},
		[]string{"action"},
	)

	// Status metrics
	AgentStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "drover_status",
			Help: "Current agent status (one-hot across states)",
		},
		[]string{"state"},
	)

	// Configuration metrics
	ListenersConfigured = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "drover_listeners_configured",
			Help: "Number of listen sections in the rendered configuration",
		},
	)

	ServersConfigured = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "drover_backend_servers_configured",
			Help: "Number of backend servers in the rendered configuration",
		},
	)

	// Failover metrics
	FailoverPeers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "drover_failover_peers",
			Help: "Number of live failover peers seen via gossip",
		},
	)

	VRRPPublicationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "drover_vrrp_publications_total",
			Help: "Total number of published VRRP configurations",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(ReconcileCyclesTotal)
	prometheus.MustRegister(ReconcileErrorsTotal)
	prometheus.MustRegister(ReconcileDuration)
	prometheus.MustRegister(EventsProcessedTotal)
	prometheus.MustRegister(EventsDeferredTotal)
	prometheus.MustRegister(EventsDroppedTotal)
	prometheus.MustRegister(LifecycleInstalled)
	prometheus.MustRegister(LifecycleStarted)
	prometheus.MustRegister(ServiceActionsTotal)
	prometheus.MustRegister(AgentStatus)
	prometheus.MustRegister(ListenersConfigured)
	prometheus.MustRegister(ServersConfigured)
	prometheus.MustRegister(FailoverPeers)
	prometheus.MustRegister(VRRPPublicationsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetStatus updates the one-hot status gauge so exactly one state label
// carries the value 1.
func SetStatus(state string) {
	for _, s := range []string{"maintenance", "active", "blocked", "stopped"} {
		v := 0.0
		if s == state {
			v = 1.0
		}
		AgentStatus.WithLabelValues(s).Set(v)
	}
}

// SetLifecycle updates the lifecycle gauges from the persisted flags.
func SetLifecycle(installed, started bool) {
	if installed {
		LifecycleInstalled.Set(1)
	} else {
		LifecycleInstalled.Set(0)
	}
	if started {
		LifecycleStarted.Set(1)
	} else {
		LifecycleStarted.Set(0)
	}
}
