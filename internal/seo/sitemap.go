package seo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fieldsites/sitebuilder/internal/aggregator"
	"github.com/fieldsites/sitebuilder/internal/backend"
	"github.com/fieldsites/sitebuilder/internal/errors"
	"github.com/fieldsites/sitebuilder/internal/logfields"
	"github.com/fieldsites/sitebuilder/internal/metrics"
	"github.com/fieldsites/sitebuilder/internal/observability"
	"github.com/fieldsites/sitebuilder/internal/trades"
)

// ChangeFrequency follows the sitemaps.org vocabulary.
type ChangeFrequency string

const (
	FreqDaily   ChangeFrequency = "daily"
	FreqWeekly  ChangeFrequency = "weekly"
	FreqMonthly ChangeFrequency = "monthly"
)

// Priority policy. Combination pages for emergency-flagged services are the
// local-SEO money pages and rank above standard combinations.
const (
	PriorityHome           = 1.0
	PriorityHub            = 0.9
	PriorityCoreService    = 0.9
	PriorityService        = 0.8
	PriorityEmergencyCombo = 0.85
	PriorityCombo          = 0.7
	PriorityLocation       = 0.7
	PriorityInformational  = 0.6
)

// Entry is one sitemap URL. Entries are derived on every build, never stored.
type Entry struct {
	URL             string          `json:"url"`
	LastModified    time.Time       `json:"lastModified"`
	ChangeFrequency ChangeFrequency `json:"changeFrequency"`
	Priority        float64         `json:"priority"`
}

// Builder enumerates the page surface for one business from its current
// catalog. It depends on the aggregator for data and the trade registry for
// the core-services allow-list.
type Builder struct {
	agg      *aggregator.Aggregator
	registry *trades.Registry
	logger   *slog.Logger
	metrics  metrics.Recorder
	tracer   *observability.TracerProvider
	now      func() time.Time
}

// NewBuilder constructs a sitemap builder.
func NewBuilder(agg *aggregator.Aggregator, registry *trades.Registry, logger *slog.Logger, rec metrics.Recorder, tracer *observability.TracerProvider) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if tracer == nil {
		tracer = observability.NewTracerProvider()
	}
	return &Builder{
		agg:      agg,
		registry: registry,
		logger:   logger,
		metrics:  rec,
		tracer:   tracer,
		now:      time.Now,
	}
}

// Build fetches the catalog and enumerates the sitemap under baseURL.
// A failed catalog fetch degrades to the homepage-only sitemap; a sitemap
// always exists, even for a broken tenant.
func (b *Builder) Build(ctx context.Context, businessID, baseURL string) ([]Entry, error) {
	_, span := b.tracer.StartSitemapSpan(ctx, businessID)

	env, err := b.agg.Load(ctx, businessID, aggregator.LoadOptions{
		IncludeServices:  true,
		IncludeLocations: true,
	})
	if err != nil {
		b.logger.Warn("catalog unavailable, serving homepage-only sitemap",
			logfields.BusinessID(businessID),
			logfields.Error(errors.SitemapDegraded(businessID, err)))
		entries := b.fallback(baseURL)
		b.metrics.SetSitemapEntries(businessID, len(entries))
		observability.EndSpan(span, nil)
		return entries, nil
	}

	entries := b.BuildFromEnvelope(env, baseURL)

	b.metrics.SetSitemapEntries(businessID, len(entries))
	b.logger.Info("sitemap built",
		logfields.BusinessID(businessID),
		logfields.Trade(env.Profile.Trade),
		slog.Int("entries", len(entries)))
	observability.EndSpan(span, nil)
	return entries, nil
}

// BuildFromEnvelope enumerates without fetching, for callers that already
// hold an aggregation result.
func (b *Builder) BuildFromEnvelope(env *aggregator.Envelope, baseURL string) []Entry {
	if env == nil || env.Profile == nil {
		return b.fallback(baseURL)
	}
	trade := b.registry.GetOrGeneral(env.Profile.Trade)
	return b.enumerate(baseURL, trade, env.Services, env.Locations)
}

func (b *Builder) enumerate(baseURL string, trade trades.TradeConfiguration, services []backend.ServiceItem, locations []backend.LocationItem) []Entry {
	now := b.now().UTC()
	base := strings.TrimRight(baseURL, "/")
	add := func(entries []Entry, path string, freq ChangeFrequency, priority float64) []Entry {
		return append(entries, Entry{
			URL:             base + path,
			LastModified:    now,
			ChangeFrequency: freq,
			Priority:        priority,
		})
	}

	var entries []Entry
	entries = add(entries, "/", FreqWeekly, PriorityHome)
	entries = add(entries, "/services", FreqWeekly, PriorityHub)
	entries = add(entries, "/locations", FreqMonthly, PriorityHub)
	entries = add(entries, "/about", FreqMonthly, PriorityInformational)
	entries = add(entries, "/contact", FreqMonthly, PriorityInformational)

	locationSlugs := make([]string, 0, len(locations))
	for _, loc := range locations {
		slug := loc.Slug
		if slug == "" {
			slug = Slugify(loc.Name)
		}
		if slug == "" {
			continue
		}
		locationSlugs = append(locationSlugs, slug)
		entries = add(entries, "/locations/"+slug, FreqMonthly, PriorityLocation)
	}

	for _, svc := range services {
		slug := svc.Slug
		if slug == "" {
			slug = Slugify(svc.Name)
		}
		if slug == "" {
			continue
		}

		freq := FreqWeekly
		priority := PriorityService
		if trade.IsCoreService(slug) {
			priority = PriorityCoreService
		}
		if svc.IsEmergency {
			freq = FreqDaily
		}
		entries = add(entries, "/services/"+slug, freq, priority)

		for _, locSlug := range locationSlugs {
			comboFreq := FreqWeekly
			comboPriority := PriorityCombo
			if svc.IsEmergency {
				comboFreq = FreqDaily
				comboPriority = PriorityEmergencyCombo
			}
			entries = add(entries, fmt.Sprintf("/services/%s/%s", slug, locSlug), comboFreq, comboPriority)
		}
	}

	return entries
}

// fallback is the minimal valid sitemap, homepage only.
func (b *Builder) fallback(baseURL string) []Entry {
	return []Entry{{
		URL:             strings.TrimRight(baseURL, "/") + "/",
		LastModified:    b.now().UTC(),
		ChangeFrequency: FreqWeekly,
		Priority:        PriorityHome,
	}}
}
