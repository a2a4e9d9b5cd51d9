package metrics

import "time"

// ResultLabel enumerates fetch/aggregation result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultDegraded ResultLabel = "degraded"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for the generation pipeline. Implementations
// may forward to Prometheus, OpenTelemetry, etc. All methods must be safe for nil receivers
// when using the NoopRecorder (allowing optional injection).
type Recorder interface {
	ObserveFetchDuration(resource string, d time.Duration, success bool)
	IncFetchAttempt(resource string)
	IncFetchRetry(resource string)
	IncRetryExhausted(resource string)
	ObserveAggregationDuration(d time.Duration)
	IncAggregationResult(result ResultLabel)
	IncPageGenerated(trade string)
	SetSitemapEntries(businessID string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveFetchDuration(string, time.Duration, bool) {}
func (NoopRecorder) IncFetchAttempt(string)                           {}
func (NoopRecorder) IncFetchRetry(string)                             {}
func (NoopRecorder) IncRetryExhausted(string)                         {}
func (NoopRecorder) ObserveAggregationDuration(time.Duration)         {}
func (NoopRecorder) IncAggregationResult(ResultLabel)                 {}
func (NoopRecorder) IncPageGenerated(string)                          {}
func (NoopRecorder) SetSitemapEntries(string, int)                    {}
