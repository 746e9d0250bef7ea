package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func newTestRingMetrics(t *testing.T) *RingMetrics {
	t.Helper()
	m, err := NewRingMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

func TestRingMetricsImplementsRecorder(t *testing.T) {
	m := newTestRingMetrics(t)
	m.RecordOperation(OpExtract, StatusOK)
	m.RecordDuration(OpExtract, 0.05)
	m.RecordError(OpExtract, ErrorTypeCodec)

	require.InDelta(t, 1, testutil.ToFloat64(m.operationsTotal.WithLabelValues(OpExtract, StatusOK)), 0.0001)
	require.InDelta(t, 1, testutil.ToFloat64(m.errorsTotal.WithLabelValues(OpExtract, ErrorTypeCodec)), 0.0001)
}

func TestSetPoolStatsAppliesOnlyTheDelta(t *testing.T) {
	m := newTestRingMetrics(t)

	m.SetPoolStats(3, 10, 2, 0)
	require.InDelta(t, 10, testutil.ToFloat64(m.poolGetsTotal), 0.0001)
	require.InDelta(t, 2, testutil.ToFloat64(m.poolNewsTotal), 0.0001)
	require.InDelta(t, 3, testutil.ToFloat64(m.poolIdleBuffers), 0.0001)

	m.SetPoolStats(5, 25, 2, 1)
	require.InDelta(t, 25, testutil.ToFloat64(m.poolGetsTotal), 0.0001)
	require.InDelta(t, 2, testutil.ToFloat64(m.poolNewsTotal), 0.0001)
	require.InDelta(t, 1, testutil.ToFloat64(m.poolDiscardTotal), 0.0001)
	require.InDelta(t, 5, testutil.ToFloat64(m.poolIdleBuffers), 0.0001)
}

func TestSetDiskGauges(t *testing.T) {
	m := newTestRingMetrics(t)
	m.SetDiskQueueDepth(4)
	m.SetDiskFrameCount(120)
	m.SetMemoryTierBytes(4096)

	require.InDelta(t, 4, testutil.ToFloat64(m.diskQueueDepth), 0.0001)
	require.InDelta(t, 120, testutil.ToFloat64(m.diskFrameCount), 0.0001)
	require.InDelta(t, 4096, testutil.ToFloat64(m.memoryTierBytes), 0.0001)
}
