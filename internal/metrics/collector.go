package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the prometheus instruments of the extraction layer.
type Collector struct {
	requestsTotal    *prometheus.CounterVec
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	quotaDenials     *prometheus.CounterVec
	recoveryStrategy *prometheus.CounterVec
	droppedElements  prometheus.Counter
	completionTime   prometheus.Histogram
}

// NewCollector creates a collector registered on reg. A nil reg falls back
// to the default registerer; tests pass a fresh registry to avoid
// duplicate-registration panics.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gate_requests_total",
				Help:      "Gate requests by outcome (cache_hit, quota_denied, parsed, failed).",
			},
			[]string{"outcome"},
		),
		cacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "response_cache_hits_total",
				Help:      "Response cache hits.",
			},
		),
		cacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "response_cache_misses_total",
				Help:      "Response cache misses.",
			},
		),
		quotaDenials: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quota_denials_total",
				Help:      "Requests denied by an exhausted invocation window.",
			},
			[]string{"window"},
		),
		recoveryStrategy: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recovery_strategy_total",
				Help:      "Successful recoveries by strategy name.",
			},
			[]string{"strategy"},
		),
		droppedElements: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dropped_list_elements_total",
				Help:      "List elements dropped during lenient validation.",
			},
		),
		completionTime: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "completion_duration_seconds",
				Help:      "Raw completion call latency.",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

// RecordRequest counts one gate request by outcome.
func (c *Collector) RecordRequest(outcome string) {
	c.requestsTotal.WithLabelValues(outcome).Inc()
}

// RecordCacheHit counts a response cache hit.
func (c *Collector) RecordCacheHit() { c.cacheHits.Inc() }

// RecordCacheMiss counts a response cache miss.
func (c *Collector) RecordCacheMiss() { c.cacheMisses.Inc() }

// RecordQuotaDenial counts a denial attributed to a window kind.
func (c *Collector) RecordQuotaDenial(window string) {
	c.quotaDenials.WithLabelValues(window).Inc()
}

// RecordRecovery counts a successful recovery by strategy name.
func (c *Collector) RecordRecovery(strategy string) {
	c.recoveryStrategy.WithLabelValues(strategy).Inc()
}

// RecordDroppedElement counts one list element dropped by validation.
func (c *Collector) RecordDroppedElement() { c.droppedElements.Inc() }

// ObserveCompletion records the latency of one raw completion call.
func (c *Collector) ObserveCompletion(seconds float64) {
	c.completionTime.Observe(seconds)
}
