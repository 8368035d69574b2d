package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistration(t *testing.T) {
	// Verify all metrics are registered without conflicts
	// This test ensures no duplicate metric names

	metrics := []prometheus.Collector{
		// Vote processing metrics
		VotesTotal,
		CooldownEntries,
		CooldownEvictions,

		// Listing metrics
		ListingsCreated,
		ListingsDeleted,

		// Discord API metrics
		DiscordAPIRequests,

		// Database metrics
		DBQueryDuration,
		DBErrorsTotal,

		// Redis metrics
		RedisOpsTotal,
		RedisOpDuration,
		RedisConnectionErrors,

		// Build info
		BuildInfo,
	}

	// Verify each metric is registered
	for _, metric := range metrics {
		desc := make(chan *prometheus.Desc, 1)
		metric.Describe(desc)
		close(desc)

		require.NotNil(t, <-desc, "metric should have a valid descriptor")
	}
}

func TestVotesTotalLabels(t *testing.T) {
	VotesTotal.Reset()

	VotesTotal.WithLabelValues("admitted").Inc()
	VotesTotal.WithLabelValues("cooldown").Inc()
	VotesTotal.WithLabelValues("cooldown").Inc()
	VotesTotal.WithLabelValues("error").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(VotesTotal.WithLabelValues("admitted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(VotesTotal.WithLabelValues("cooldown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(VotesTotal.WithLabelValues("error")))
}

func TestCooldownEntriesGauge(t *testing.T) {
	CooldownEntries.Set(17)
	assert.Equal(t, 17.0, testutil.ToFloat64(CooldownEntries))

	CooldownEntries.Set(0)
	assert.Equal(t, 0.0, testutil.ToFloat64(CooldownEntries))
}
