// File: metrics/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Collector is a Prometheus-backed api.Control: the driver's
// equivalent of the teacher's MetricsRegistry (control/metrics.go), a
// thread-safe named-metric store with a snapshot read, reworked onto
// github.com/prometheus/client_golang so the driver's runtime numbers
// can be scraped the way every other service in this stack is.
package metrics

import (
	"sync"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records per-node request, retry, error, and reconnect
// counts and exposes them both as a Prometheus registry (for an
// HTTP /metrics handler) and as the flat api.Control snapshot the rest
// of this driver's runtime introspection expects.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	retriesTotal    *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	stageReconnects *prometheus.CounterVec
	ringRebuilds    prometheus.Counter
	inFlightStreams *prometheus.GaugeVec
	requestLatency  *prometheus.HistogramVec

	mu    sync.Mutex
	hooks []func()
}

// New builds a Collector with every metric family registered against a
// fresh, private Registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corecql",
			Name:      "requests_total",
			Help:      "Requests submitted, by node and opcode.",
		}, []string{"node", "opcode"}),
		retriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corecql",
			Name:      "retries_total",
			Help:      "Requests resent after a transient error, by node.",
		}, []string{"node"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corecql",
			Name:      "errors_total",
			Help:      "Terminal errors delivered to a caller, by node and cause.",
		}, []string{"node", "cause"}),
		stageReconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corecql",
			Name:      "stage_reconnects_total",
			Help:      "Redial attempts made after a dropped connection, by node.",
		}, []string{"node"}),
		ringRebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "corecql",
			Name:      "ring_rebuilds_total",
			Help:      "Ring snapshots published after a topology change.",
		}),
		inFlightStreams: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "corecql",
			Name:      "in_flight_streams",
			Help:      "Stream ids currently allocated, by node.",
		}, []string{"node"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "corecql",
			Name:      "request_latency_seconds",
			Help:      "Request round-trip latency, by node and opcode.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"node", "opcode"}),
	}
	reg.MustRegister(
		c.requestsTotal,
		c.retriesTotal,
		c.errorsTotal,
		c.stageReconnects,
		c.ringRebuilds,
		c.inFlightStreams,
		c.requestLatency,
	)
	return c
}

// Registry exposes the underlying Prometheus registry for wiring into
// a promhttp.HandlerFor endpoint.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// ObserveRequest records one request submitted to node for opcode.
func (c *Collector) ObserveRequest(node, opcode string) {
	c.requestsTotal.WithLabelValues(node, opcode).Inc()
}

// ObserveRetry records one resend of an in-flight request to node.
func (c *Collector) ObserveRetry(node string) {
	c.retriesTotal.WithLabelValues(node).Inc()
}

// ObserveError records one terminal error delivered for node, tagged
// with cause (e.g. a cqlerr classification or "timeout").
func (c *Collector) ObserveError(node, cause string) {
	c.errorsTotal.WithLabelValues(node, cause).Inc()
}

// ObserveStageReconnect records one redial attempt for node.
func (c *Collector) ObserveStageReconnect(node string) {
	c.stageReconnects.WithLabelValues(node).Inc()
}

// ObserveRingRebuild records one published ring snapshot.
func (c *Collector) ObserveRingRebuild() {
	c.ringRebuilds.Inc()
}

// SetInFlightStreams sets node's current allocated-stream-id gauge.
func (c *Collector) SetInFlightStreams(node string, n int) {
	c.inFlightStreams.WithLabelValues(node).Set(float64(n))
}

// ObserveLatency records one request's round-trip time in seconds for
// node and opcode.
func (c *Collector) ObserveLatency(node, opcode string, seconds float64) {
	c.requestLatency.WithLabelValues(node, opcode).Observe(seconds)
}

// Stats implements api.Control by gathering every registered metric
// family into a flat snapshot keyed by metric name.
func (c *Collector) Stats() map[string]any {
	families, err := c.registry.Gather()
	out := make(map[string]any, len(families)+1)
	if err != nil {
		out["gather_error"] = err.Error()
		return out
	}
	for _, f := range families {
		out[f.GetName()] = summarizeFamily(f)
	}
	return out
}

// OnReload implements api.Control: fn runs, in its own goroutine,
// every time TriggerReload is called.
func (c *Collector) OnReload(fn func()) {
	c.mu.Lock()
	c.hooks = append(c.hooks, fn)
	c.mu.Unlock()
}

// TriggerReload dispatches every hook registered via OnReload,
// mirroring the teacher's package-level TriggerHotReload but scoped to
// this Collector instance instead of a process-global hook slice.
func (c *Collector) TriggerReload() {
	c.mu.Lock()
	hooks := make([]func(), len(c.hooks))
	copy(hooks, c.hooks)
	c.mu.Unlock()
	for _, fn := range hooks {
		go fn()
	}
}

// summarizeFamily collapses a metric family's label-partitioned series
// into the single number Stats' flat map shape expects: a sum across
// series for counters and gauges, and count/sum for histograms.
func summarizeFamily(f *dto.MetricFamily) any {
	switch f.GetType() {
	case dto.MetricType_COUNTER:
		var total float64
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	case dto.MetricType_GAUGE:
		var total float64
		for _, m := range f.GetMetric() {
			total += m.GetGauge().GetValue()
		}
		return total
	case dto.MetricType_HISTOGRAM:
		var count uint64
		var sum float64
		for _, m := range f.GetMetric() {
			h := m.GetHistogram()
			count += h.GetSampleCount()
			sum += h.GetSampleSum()
		}
		return map[string]any{"count": count, "sum": sum}
	default:
		return nil
	}
}
