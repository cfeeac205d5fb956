package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records gateway-side synchronization activity.
type SyncMetrics struct {
	remoteDuration    *prometheus.HistogramVec
	remoteFailures    *prometheus.CounterVec
	fallbackHits      *prometheus.CounterVec
	optimisticReverts *prometheus.CounterVec
	relayEvents       *prometheus.CounterVec
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	remoteDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "remote_request_duration_seconds",
		Help:    "Duration of commerce backend requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	remoteFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "remote_request_failures",
		Help: "Commerce backend requests that failed or returned non-2xx.",
	}, []string{"operation"})
	fallbackHits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fallback_store_hits",
		Help: "Operations served from the local fallback store.",
	}, []string{"collection"})
	optimisticReverts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "optimistic_reverts",
		Help: "Optimistic mutations discarded after a failed remote call.",
	}, []string{"operation"})
	relayEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_events_published",
		Help: "Events published on the cross-surface relay.",
	}, []string{"event"})
	reg.MustRegister(remoteDuration, remoteFailures, fallbackHits, optimisticReverts, relayEvents)
	return &SyncMetrics{
		remoteDuration:    remoteDuration,
		remoteFailures:    remoteFailures,
		fallbackHits:      fallbackHits,
		optimisticReverts: optimisticReverts,
		relayEvents:       relayEvents,
	}
}

// ObserveRemote records the duration for the named backend operation.
func (m *SyncMetrics) ObserveRemote(operation string, duration time.Duration) {
	if m == nil || m.remoteDuration == nil {
		return
	}
	m.remoteDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncRemoteFailure counts a failed backend call.
func (m *SyncMetrics) IncRemoteFailure(operation string) {
	if m == nil || m.remoteFailures == nil {
		return
	}
	m.remoteFailures.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncFallbackHit counts an operation that degraded to the local store.
func (m *SyncMetrics) IncFallbackHit(collection string) {
	if m == nil || m.fallbackHits == nil {
		return
	}
	m.fallbackHits.WithLabelValues(normalizeLabel(collection)).Inc()
}

// IncOptimisticRevert counts a discarded optimistic mutation.
func (m *SyncMetrics) IncOptimisticRevert(operation string) {
	if m == nil || m.optimisticReverts == nil {
		return
	}
	m.optimisticReverts.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncRelayEvent counts a published relay event.
func (m *SyncMetrics) IncRelayEvent(event string) {
	if m == nil || m.relayEvents == nil {
		return
	}
	m.relayEvents.WithLabelValues(normalizeLabel(event)).Inc()
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
