package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNoopRecorderIsSafe verifies every hook can be called on the zero value.
func TestNoopRecorderIsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveFetchDuration("profile", time.Millisecond, true)
	r.IncFetchAttempt("services")
	r.IncFetchRetry("services")
	r.IncRetryExhausted("services")
	r.ObserveAggregationDuration(time.Millisecond)
	r.IncAggregationResult(ResultSuccess)
	r.IncPageGenerated("hvac")
	r.SetSitemapEntries("b-42", 14)
}

func TestPrometheusRecorderCounts(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.IncFetchAttempt("profile")
	pr.IncFetchAttempt("profile")
	pr.IncFetchAttempt("services")
	pr.IncFetchRetry("profile")
	pr.IncRetryExhausted("profile")
	pr.IncAggregationResult(ResultDegraded)
	pr.IncPageGenerated("hvac")
	pr.SetSitemapEntries("b-42", 14)

	assert.Equal(t, float64(2), testutil.ToFloat64(pr.fetchAttempts.WithLabelValues("profile")))
	assert.Equal(t, float64(1), testutil.ToFloat64(pr.fetchAttempts.WithLabelValues("services")))
	assert.Equal(t, float64(1), testutil.ToFloat64(pr.fetchRetries.WithLabelValues("profile")))
	assert.Equal(t, float64(1), testutil.ToFloat64(pr.retriesExhausted.WithLabelValues("profile")))
	assert.Equal(t, float64(1), testutil.ToFloat64(pr.aggregationResults.WithLabelValues(string(ResultDegraded))))
	assert.Equal(t, float64(1), testutil.ToFloat64(pr.pagesGenerated.WithLabelValues("hvac")))
	assert.Equal(t, float64(14), testutil.ToFloat64(pr.sitemapEntries.WithLabelValues("b-42")))
}

func TestPrometheusRecorderNilReceiverSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncFetchAttempt("profile")
	pr.ObserveFetchDuration("profile", time.Second, false)
	pr.ObserveAggregationDuration(time.Second)
	pr.SetSitemapEntries("b-42", 1)
}

func TestHTTPHandlerServesRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncFetchAttempt("profile")

	h := HTTPHandler(reg)
	require.NotNil(t, h)
}
