// Package daemon drives background regeneration: the orchestrator that
// turns one business's backend data into stored page bundles, the gocron
// schedule that re-runs it per revalidation window, and the fsnotify
// watcher that reloads the tenant mapping on config change.
package daemon

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/fieldsites/sitebuilder/internal/aggregator"
	"github.com/fieldsites/sitebuilder/internal/content"
	"github.com/fieldsites/sitebuilder/internal/errors"
	"github.com/fieldsites/sitebuilder/internal/events"
	"github.com/fieldsites/sitebuilder/internal/logfields"
	"github.com/fieldsites/sitebuilder/internal/metrics"
	"github.com/fieldsites/sitebuilder/internal/pagestore"
	"github.com/fieldsites/sitebuilder/internal/seo"
	"github.com/fieldsites/sitebuilder/internal/trades"
)

// PagePayload is what gets stored per route: the shared generated content
// plus the slugs identifying the page's focus.
type PagePayload struct {
	Route        string                    `json:"route"`
	Kind         seo.PageKind              `json:"kind"`
	ServiceSlug  string                    `json:"service_slug,omitempty"`
	LocationSlug string                    `json:"location_slug,omitempty"`
	ProductSlug  string                    `json:"product_slug,omitempty"`
	ProjectSlug  string                    `json:"project_slug,omitempty"`
	Content      *content.GeneratedContent `json:"content"`
	Diagnostics  aggregator.Diagnostics    `json:"diagnostics"`
}

// Result summarizes one regeneration pass.
type Result struct {
	BusinessID string
	Routes     int
	Degraded   []string
}

// Regenerator runs the full pipeline for one business: aggregate, generate,
// enumerate routes, store bundles, publish the regeneration event.
type Regenerator struct {
	agg       *aggregator.Aggregator
	registry  *trades.Registry
	store     *pagestore.Store
	publisher *events.Publisher
	logger    *slog.Logger
	metrics   metrics.Recorder
	now       func() time.Time
}

// NewRegenerator wires the pipeline. The publisher may be nil.
func NewRegenerator(agg *aggregator.Aggregator, registry *trades.Registry, store *pagestore.Store, publisher *events.Publisher, logger *slog.Logger, rec metrics.Recorder) *Regenerator {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Regenerator{
		agg:       agg,
		registry:  registry,
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   rec,
		now:       time.Now,
	}
}

// RegenerateFresh drops the backend response cache for the business first,
// so the rebuild reflects upstream state rather than the revalidation
// window. Scheduled jobs and the generate command use this path; on-demand
// generation keeps the cache.
func (r *Regenerator) RegenerateFresh(ctx context.Context, businessID string) (*Result, error) {
	r.agg.Invalidate(businessID)
	return r.Regenerate(ctx, businessID)
}

// Regenerate rebuilds every page bundle for the business. A missing profile
// aborts without touching stored bundles; the previous generation keeps
// serving until the backend recovers.
func (r *Regenerator) Regenerate(ctx context.Context, businessID string) (*Result, error) {
	env, err := r.agg.Load(ctx, businessID, aggregator.LoadOptions{
		IncludeServices:  true,
		IncludeProducts:  true,
		IncludeProjects:  true,
		IncludeLocations: true,
	})
	if err != nil {
		return nil, err
	}

	trade := r.registry.GetOrGeneral(env.Profile.Trade)
	generated, err := content.Generate(content.Input{
		Profile:     env.Profile,
		Services:    env.Services,
		Trade:       trade,
		CurrentYear: r.now().Year(),
	})
	if err != nil {
		return nil, err
	}
	r.metrics.IncPageGenerated(trade.Trade)

	routes := seo.BuildManifest(env)
	generatedAt := r.now()

	bundles := make([]pagestore.Bundle, 0, len(routes))
	for _, route := range routes {
		payload, err := json.Marshal(PagePayload{
			Route:        route.Route,
			Kind:         route.Kind,
			ServiceSlug:  route.ServiceSlug,
			LocationSlug: route.LocationSlug,
			ProductSlug:  route.ProductSlug,
			ProjectSlug:  route.ProjectSlug,
			Content:      generated,
			Diagnostics:  env.Diagnostics,
		})
		if err != nil {
			return nil, errors.InternalError("marshal page payload", err)
		}
		bundles = append(bundles, pagestore.Bundle{
			BusinessID:  businessID,
			Route:       route.Route,
			Kind:        string(route.Kind),
			Payload:     payload,
			GeneratedAt: generatedAt,
		})
	}

	// One transaction for the whole surface; a failure keeps the previous
	// generation serving intact.
	if err := r.store.ReplaceBusiness(ctx, businessID, bundles); err != nil {
		return nil, err
	}

	result := &Result{
		BusinessID: businessID,
		Routes:     len(routes),
		Degraded:   env.Diagnostics.Degraded,
	}

	if err := r.publisher.Publish(ctx, events.RegenerationEvent{
		Type:       events.EventSiteRegenerated,
		BusinessID: businessID,
		Routes:     result.Routes,
		Degraded:   result.Degraded,
	}); err != nil {
		// Event delivery is best-effort; the regeneration itself stands.
		r.logger.Warn("failed to publish regeneration event",
			logfields.BusinessID(businessID), logfields.Error(err))
	}

	r.logger.Info("site regenerated",
		logfields.BusinessID(businessID),
		logfields.Trade(trade.Trade),
		slog.Int("routes", result.Routes),
		slog.Any("degraded", result.Degraded))
	return result, nil
}
