package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the client-side counters. A fresh set is registered per
// collector so tests can use their own registry.
type Metrics struct {
	SendsTotal        prometheus.Counter
	SendRetriesTotal  prometheus.Counter
	SendFailuresTotal prometheus.Counter
	TypingSignals     prometheus.Counter
	FeatureCacheHits  prometheus.Counter
	FeatureCacheMiss  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SendsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fundbridge_sends_total",
			Help: "Message send operations initiated by the user.",
		}),
		SendRetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fundbridge_send_retries_total",
			Help: "Automatic retry attempts after a transient send failure.",
		}),
		SendFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fundbridge_send_failures_total",
			Help: "Sends that reached terminal failed status.",
		}),
		TypingSignals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fundbridge_typing_signals_total",
			Help: "Typing indicator updates written to the backend.",
		}),
		FeatureCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fundbridge_feature_cache_hits_total",
			Help: "Feature access lookups served from the local cache.",
		}),
		FeatureCacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fundbridge_feature_cache_misses_total",
			Help: "Feature access lookups that went to the backend.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.SendsTotal,
			m.SendRetriesTotal,
			m.SendFailuresTotal,
			m.TypingSignals,
			m.FeatureCacheHits,
			m.FeatureCacheMiss,
		)
	}
	return m
}
