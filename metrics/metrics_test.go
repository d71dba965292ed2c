package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollectorObserveAndStats(t *testing.T) {
	c := New()
	c.ObserveRequest("n1", "QUERY")
	c.ObserveRequest("n1", "QUERY")
	c.ObserveRetry("n1")
	c.ObserveError("n1", "timeout")
	c.ObserveStageReconnect("n1")
	c.ObserveRingRebuild()
	c.SetInFlightStreams("n1", 3)
	c.ObserveLatency("n1", "QUERY", 0.05)

	stats := c.Stats()
	require.Equal(t, float64(2), stats["corecql_requests_total"])
	require.Equal(t, float64(1), stats["corecql_retries_total"])
	require.Equal(t, float64(1), stats["corecql_errors_total"])
	require.Equal(t, float64(1), stats["corecql_stage_reconnects_total"])
	require.Equal(t, float64(1), stats["corecql_ring_rebuilds_total"])
	require.Equal(t, float64(3), stats["corecql_in_flight_streams"])

	hist, ok := stats["corecql_request_latency_seconds"].(map[string]any)
	require.True(t, ok, "expected histogram summary map, got %T", stats["corecql_request_latency_seconds"])
	require.Equal(t, uint64(1), hist["count"])
}

func TestCollectorOnReloadDispatchesHooks(t *testing.T) {
	c := New()
	done := make(chan struct{})
	c.OnReload(func() { close(done) })
	c.TriggerReload()
	<-done
}
