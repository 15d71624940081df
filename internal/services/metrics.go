package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the relay
type Metrics struct {
	MessagesTranslated prometheus.Counter
	MessagesIgnored    *prometheus.CounterVec
	RepliesDelivered   prometheus.Counter
	RepliesUnresolved  prometheus.Counter
	PipelineErrors     *prometheus.CounterVec
	CacheLookups       *prometheus.CounterVec
}

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	return &Metrics{
		MessagesTranslated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lingorelay_messages_translated_total",
			Help: "Total number of inbound messages translated and posted",
		}),

		// reason: "english", "low_confidence", "duplicate"
		MessagesIgnored: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lingorelay_messages_ignored_total",
			Help: "Total number of inbound messages ignored by reason",
		}, []string{"reason"}),

		RepliesDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lingorelay_replies_delivered_total",
			Help: "Total number of agent replies translated and delivered",
		}),

		RepliesUnresolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lingorelay_replies_unresolved_total",
			Help: "Total number of replies not tied to a known translation thread",
		}),

		// stage: "detection", "translation", "transport", "store"
		PipelineErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lingorelay_pipeline_errors_total",
			Help: "Total number of pipeline errors by stage",
		}, []string{"stage"}),

		// result: "hit", "miss"
		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lingorelay_cache_lookups_total",
			Help: "Correlation cache lookups by result",
		}, []string{"result"}),
	}
}

// CacheHit records a correlation cache hit. Safe on a nil receiver so
// the store can run without metrics in tests.
func (m *Metrics) CacheHit() {
	if m != nil {
		m.CacheLookups.WithLabelValues("hit").Inc()
	}
}

// CacheMiss records a correlation cache miss.
func (m *Metrics) CacheMiss() {
	if m != nil {
		m.CacheLookups.WithLabelValues("miss").Inc()
	}
}

// Translated records a successfully relayed inbound message.
func (m *Metrics) Translated() {
	if m != nil {
		m.MessagesTranslated.Inc()
	}
}

// Ignored records an ignored inbound message with the given reason.
func (m *Metrics) Ignored(reason string) {
	if m != nil {
		m.MessagesIgnored.WithLabelValues(reason).Inc()
	}
}

// Delivered records a delivered agent reply.
func (m *Metrics) Delivered() {
	if m != nil {
		m.RepliesDelivered.Inc()
	}
}

// Unresolved records a reply that matched no translation thread.
func (m *Metrics) Unresolved() {
	if m != nil {
		m.RepliesUnresolved.Inc()
	}
}

// Error records a pipeline error at the given stage.
func (m *Metrics) Error(stage string) {
	if m != nil {
		m.PipelineErrors.WithLabelValues(stage).Inc()
	}
}
