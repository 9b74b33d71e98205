package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records how reads were served and how the remote behaved.
type SyncMetrics struct {
	fetches        *prometheus.CounterVec
	remoteFailures *prometheus.CounterVec
	remoteLatency  *prometheus.HistogramVec
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_fetch_total",
		Help: "Reads served, by table and source.",
	}, []string{"table", "source"})
	remoteFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_remote_failure_total",
		Help: "Failed remote calls, by table and operation.",
	}, []string{"table", "op"})
	remoteLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_remote_duration_seconds",
		Help:    "Latency of remote calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"table", "op"})
	reg.MustRegister(fetches, remoteFailures, remoteLatency)
	return &SyncMetrics{
		fetches:        fetches,
		remoteFailures: remoteFailures,
		remoteLatency:  remoteLatency,
	}
}

// IncFetch counts a read served from source.
func (m *SyncMetrics) IncFetch(table, source string) {
	if m == nil || m.fetches == nil {
		return
	}
	m.fetches.WithLabelValues(normalizeLabel(table), normalizeLabel(source)).Inc()
}

// ObserveRemote records one remote call and counts it as failed when err is set.
func (m *SyncMetrics) ObserveRemote(table, op string, duration time.Duration, err error) {
	if m == nil || m.remoteLatency == nil {
		return
	}
	m.remoteLatency.WithLabelValues(normalizeLabel(table), normalizeLabel(op)).Observe(duration.Seconds())
	if err != nil {
		m.remoteFailures.WithLabelValues(normalizeLabel(table), normalizeLabel(op)).Inc()
	}
}
