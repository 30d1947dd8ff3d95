package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatherMetric(t *testing.T, c *Collector, name string) float64 {
	t.Helper()
	families, err := c.GetRegistry().Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		var total float64
		for _, m := range family.GetMetric() {
			switch {
			case m.GetGauge() != nil:
				total += m.GetGauge().GetValue()
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				total += float64(m.GetHistogram().GetSampleCount())
			}
		}
		return total
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestCollectorSessionGauge(t *testing.T) {
	c := NewCollector(nil, "test-agent")

	c.SessionStarted()
	c.SessionStarted()
	c.SessionStopped()

	assert.Equal(t, float64(1), gatherMetric(t, c, "bridge_active_sessions"))
}

func TestCollectorSubscriptionGauge(t *testing.T) {
	c := NewCollector(nil, "test-agent")

	c.SubscriptionOpened()
	assert.Equal(t, float64(1), gatherMetric(t, c, "bridge_active_subscriptions"))

	c.SubscriptionClosed()
	assert.Equal(t, float64(0), gatherMetric(t, c, "bridge_active_subscriptions"))
}

func TestCollectorRequestAndErrorCounters(t *testing.T) {
	c := NewCollector(nil, "test-agent")

	c.ObserveRequest("slimrpc", 0.01)
	c.ObserveRequest("slimrpc", 0.02)
	c.ObserveError("slimrpc", "timeout")

	assert.Equal(t, float64(2), gatherMetric(t, c, "bridge_requests_total"))
	assert.Equal(t, float64(1), gatherMetric(t, c, "bridge_request_errors_total"))
	assert.Equal(t, float64(2), gatherMetric(t, c, "bridge_request_duration_seconds"))
}

func TestCollectorBroadcastFanOutHistogram(t *testing.T) {
	c := NewCollector(nil, "test-agent")

	c.ObserveBroadcastFanOut(3)
	c.ObserveBroadcastFanOut(7)

	assert.Equal(t, float64(2), gatherMetric(t, c, "bridge_broadcast_fanout_size"))
}
