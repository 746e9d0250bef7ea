package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// RingMetrics is the Prometheus-backed Recorder for keepclip's ring,
// codec, pool, and extraction components. It satisfies Recorder, so it
// drops into videoring.Config.Recorder / avbuffer.Config.Recorder
// directly, and additionally exposes gauge setters a caller can poll
// periodically (disk-tier occupancy, pool idle count) since those are
// not naturally expressed as one-shot Record* calls.
type RingMetrics struct {
	registry *prometheus.Registry

	operationsTotal *prometheus.CounterVec
	operationDur    *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec

	diskQueueDepth   prometheus.Gauge
	diskFrameCount   prometheus.Gauge
	memoryTierBytes  prometheus.Gauge
	poolIdleBuffers  prometheus.Gauge
	poolGetsTotal    prometheus.Counter
	poolNewsTotal    prometheus.Counter
	poolDiscardTotal prometheus.Counter

	// lastPool* track the cumulative framepool.Stats values last observed,
	// so SetPoolStats (called with cumulative totals) can add only the
	// delta to the monotonic Prometheus counters above.
	lastPoolGets      atomic.Uint64
	lastPoolNews      atomic.Uint64
	lastPoolDiscarded atomic.Uint64
}

// NewRingMetrics builds and registers a RingMetrics against registry.
func NewRingMetrics(registry *prometheus.Registry) (*RingMetrics, error) {
	m := &RingMetrics{
		registry: registry,

		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keepclip_operations_total",
			Help: "Total count of ring/pool/extraction operations by outcome.",
		}, []string{"operation", "status"}),

		operationDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "keepclip_operation_duration_seconds",
			Help:    "Duration of ring/pool/extraction operations.",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12),
		}, []string{"operation"}),

		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keepclip_errors_total",
			Help: "Total count of errors by operation and error type.",
		}, []string{"operation", "error_type"}),

		diskQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "keepclip_videoring_disk_queue_depth",
			Help: "Current depth of the VideoRing disk-tier eviction queue.",
		}),
		diskFrameCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "keepclip_videoring_disk_frame_count",
			Help: "Current number of valid frames held in the VideoRing disk tier.",
		}),
		memoryTierBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "keepclip_videoring_memory_tier_bytes",
			Help: "Current byte footprint of the VideoRing memory tier.",
		}),
		poolIdleBuffers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "keepclip_framepool_idle_buffers",
			Help: "Current number of idle buffers held by the frame pool.",
		}),
		poolGetsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keepclip_framepool_gets_total",
			Help: "Total Pool.Rent calls.",
		}),
		poolNewsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keepclip_framepool_allocations_total",
			Help: "Total buffers freshly allocated by the frame pool, rather than reused.",
		}),
		poolDiscardTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keepclip_framepool_discarded_total",
			Help: "Total buffers discarded on Return because the pool was full or the buffer was mis-sized.",
		}),
	}

	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordOperation implements metrics.Recorder.
func (m *RingMetrics) RecordOperation(operation, status string) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements metrics.Recorder.
func (m *RingMetrics) RecordDuration(operation string, seconds float64) {
	m.operationDur.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements metrics.Recorder.
func (m *RingMetrics) RecordError(operation, errorType string) {
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

// SetDiskQueueDepth updates the disk-tier eviction queue depth gauge.
func (m *RingMetrics) SetDiskQueueDepth(n int) { m.diskQueueDepth.Set(float64(n)) }

// SetDiskFrameCount updates the disk-tier valid-frame-count gauge.
func (m *RingMetrics) SetDiskFrameCount(n int) { m.diskFrameCount.Set(float64(n)) }

// SetMemoryTierBytes updates the memory-tier byte-footprint gauge.
func (m *RingMetrics) SetMemoryTierBytes(n int) { m.memoryTierBytes.Set(float64(n)) }

// SetPoolStats mirrors a framepool.Stats snapshot onto the pool gauges
// and monotonic counters. Counters are only ever advanced forward, since
// Prometheus counters must not decrease; callers should pass cumulative
// totals, which framepool.Stats already is.
func (m *RingMetrics) SetPoolStats(idle int, gets, news, discarded uint64) {
	m.poolIdleBuffers.Set(float64(idle))
	m.poolGetsTotal.Add(delta(&m.lastPoolGets, gets))
	m.poolNewsTotal.Add(delta(&m.lastPoolNews, news))
	m.poolDiscardTotal.Add(delta(&m.lastPoolDiscarded, discarded))
}

// delta returns the increase in cumulative since last's previously stored
// value, then updates last to cumulative. Negative deltas (a counter
// reset, e.g. process restart) are floored to zero.
func delta(last *atomic.Uint64, cumulative uint64) float64 {
	prev := last.Swap(cumulative)
	if cumulative <= prev {
		return 0
	}
	return float64(cumulative - prev)
}

// Describe implements prometheus.Collector.
func (m *RingMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.operationsTotal.Describe(ch)
	m.operationDur.Describe(ch)
	m.errorsTotal.Describe(ch)
	ch <- m.diskQueueDepth.Desc()
	ch <- m.diskFrameCount.Desc()
	ch <- m.memoryTierBytes.Desc()
	ch <- m.poolIdleBuffers.Desc()
	ch <- m.poolGetsTotal.Desc()
	ch <- m.poolNewsTotal.Desc()
	ch <- m.poolDiscardTotal.Desc()
}

// Collect implements prometheus.Collector.
func (m *RingMetrics) Collect(ch chan<- prometheus.Metric) {
	m.operationsTotal.Collect(ch)
	m.operationDur.Collect(ch)
	m.errorsTotal.Collect(ch)
	ch <- m.diskQueueDepth
	ch <- m.diskFrameCount
	ch <- m.memoryTierBytes
	ch <- m.poolIdleBuffers
	ch <- m.poolGetsTotal
	ch <- m.poolNewsTotal
	ch <- m.poolDiscardTotal
}
