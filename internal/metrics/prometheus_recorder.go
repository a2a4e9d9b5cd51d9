package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once                sync.Once
	fetchDuration       *prom.HistogramVec
	fetchAttempts       *prom.CounterVec
	fetchRetries        *prom.CounterVec
	retriesExhausted    *prom.CounterVec
	aggregationDuration prom.Histogram
	aggregationResults  *prom.CounterVec
	pagesGenerated      *prom.CounterVec
	sitemapEntries      *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.fetchDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitebuilder",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of individual backend resource fetches",
			Buckets:   prom.DefBuckets,
		}, []string{"resource", "result"})
		pr.fetchAttempts = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "fetch_attempts_total",
			Help:      "Total backend fetch attempts including retries",
		}, []string{"resource"})
		pr.fetchRetries = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "fetch_retries_total",
			Help:      "Total backend fetch retries (transient failures)",
		}, []string{"resource"})
		pr.retriesExhausted = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "fetch_retry_exhausted_total",
			Help:      "Count of fetches where the retry budget was exhausted",
		}, []string{"resource"})
		pr.aggregationDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sitebuilder",
			Name:      "aggregation_duration_seconds",
			Help:      "Total business data aggregation duration",
			Buckets:   prom.DefBuckets,
		})
		pr.aggregationResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "aggregation_results_total",
			Help:      "Aggregation outcomes by final status",
		}, []string{"result"})
		pr.pagesGenerated = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "pages_generated_total",
			Help:      "Generated content passes by trade",
		}, []string{"trade"})
		pr.sitemapEntries = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "sitebuilder",
			Name:      "sitemap_entries",
			Help:      "Entry count of the last sitemap build per business",
		}, []string{"business_id"})
		reg.MustRegister(pr.fetchDuration, pr.fetchAttempts, pr.fetchRetries,
			pr.retriesExhausted, pr.aggregationDuration, pr.aggregationResults,
			pr.pagesGenerated, pr.sitemapEntries)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveFetchDuration(resource string, d time.Duration, success bool) {
	if p == nil || p.fetchDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.fetchDuration.WithLabelValues(resource, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncFetchAttempt(resource string) {
	if p == nil || p.fetchAttempts == nil {
		return
	}
	p.fetchAttempts.WithLabelValues(resource).Inc()
}

func (p *PrometheusRecorder) IncFetchRetry(resource string) {
	if p == nil || p.fetchRetries == nil {
		return
	}
	p.fetchRetries.WithLabelValues(resource).Inc()
}

func (p *PrometheusRecorder) IncRetryExhausted(resource string) {
	if p == nil || p.retriesExhausted == nil {
		return
	}
	p.retriesExhausted.WithLabelValues(resource).Inc()
}

func (p *PrometheusRecorder) ObserveAggregationDuration(d time.Duration) {
	if p == nil || p.aggregationDuration == nil {
		return
	}
	p.aggregationDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncAggregationResult(result ResultLabel) {
	if p == nil || p.aggregationResults == nil {
		return
	}
	p.aggregationResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncPageGenerated(trade string) {
	if p == nil || p.pagesGenerated == nil {
		return
	}
	p.pagesGenerated.WithLabelValues(trade).Inc()
}

func (p *PrometheusRecorder) SetSitemapEntries(businessID string, n int) {
	if p == nil || p.sitemapEntries == nil {
		return
	}
	p.sitemapEntries.WithLabelValues(businessID).Set(float64(n))
}
