// Package aggregator fans out the selected backend fetches for one business
// concurrently and folds the results into a single envelope with uniform
// diagnostics. A failed profile is fatal; failed catalogs degrade to empty
// sections and are recorded, never thrown.
package aggregator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldsites/sitebuilder/internal/backend"
	"github.com/fieldsites/sitebuilder/internal/errors"
	"github.com/fieldsites/sitebuilder/internal/logfields"
	"github.com/fieldsites/sitebuilder/internal/metrics"
	"github.com/fieldsites/sitebuilder/internal/observability"
)

// LoadOptions is the explicit allow-list of resource types to fetch.
// Nothing is fetched by default beyond the profile; each page type opts in
// to exactly what it renders so latency stays bounded per page.
type LoadOptions struct {
	IncludeServices   bool
	IncludeProducts   bool
	IncludeProjects   bool
	IncludeLocations  bool
	IncludeCategories bool

	// FeaturedOnly and Limit apply per call to the catalog fetches that
	// support them, not globally across the process.
	FeaturedOnly bool
	Limit        int
}

// ResourceStatus records one resource type's outcome within an aggregation.
type ResourceStatus struct {
	Requested  bool    `json:"requested"`
	OK         bool    `json:"ok"`
	DurationMS float64 `json:"duration_ms,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// Diagnostics is attached to every envelope, including full successes, so
// monitoring sees a uniform signal.
type Diagnostics struct {
	AggregationID string    `json:"aggregation_id"`
	BusinessID    string    `json:"business_id"`
	BackendURL    string    `json:"backend_url"`
	Environment   string    `json:"environment"`
	Timestamp     time.Time `json:"timestamp"`

	Profile    ResourceStatus `json:"profile"`
	Services   ResourceStatus `json:"services"`
	Products   ResourceStatus `json:"products"`
	Projects   ResourceStatus `json:"projects"`
	Locations  ResourceStatus `json:"locations"`
	Categories ResourceStatus `json:"categories"`

	// Degraded lists the non-critical resources that failed.
	Degraded []string `json:"degraded,omitempty"`
}

// Envelope is the merged aggregation result. Catalog slices are never nil
// for requested resources; a failed fetch degrades to an empty slice with
// its diagnostics flag cleared.
type Envelope struct {
	Profile     *backend.BusinessProfile `json:"profile,omitempty"`
	Services    []backend.ServiceItem    `json:"services"`
	Products    []backend.ProductItem    `json:"products"`
	Projects    []backend.ProjectItem    `json:"projects"`
	Locations   []backend.LocationItem   `json:"locations"`
	Categories  []backend.CategoryItem   `json:"categories"`
	Diagnostics Diagnostics              `json:"diagnostics"`
}

// Aggregator orchestrates the concurrent fetches.
type Aggregator struct {
	client      *backend.Client
	environment string
	logger      *slog.Logger
	metrics     metrics.Recorder
	tracer      *observability.TracerProvider
}

// New builds an aggregator. The environment tag ends up in diagnostics.
func New(client *backend.Client, environment string, logger *slog.Logger, rec metrics.Recorder, tracer *observability.TracerProvider) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if tracer == nil {
		tracer = observability.NewTracerProvider()
	}
	return &Aggregator{
		client:      client,
		environment: environment,
		logger:      logger,
		metrics:     rec,
		tracer:      tracer,
	}
}

// Invalidate drops the backend response cache for one business so the next
// Load goes upstream. Scheduled revalidation calls this before regenerating.
func (a *Aggregator) Invalidate(businessID string) {
	a.client.Invalidate(businessID)
}

// Load fetches the profile plus every opted-in catalog concurrently.
// It returns an envelope even on failure; the error is non-nil only for the
// fatal case (missing profile) or caller cancellation.
func (a *Aggregator) Load(ctx context.Context, businessID string, opts LoadOptions) (*Envelope, error) {
	ctx, span := a.tracer.StartAggregationSpan(ctx, businessID)
	start := time.Now()

	env := &Envelope{
		Diagnostics: Diagnostics{
			AggregationID: uuid.NewString(),
			BusinessID:    businessID,
			BackendURL:    a.client.BaseURL(),
			Environment:   a.environment,
			Timestamp:     start.UTC(),
		},
	}

	catalogOpts := backend.FetchOptions{FeaturedOnly: opts.FeaturedOnly, Limit: opts.Limit}

	var wg sync.WaitGroup
	var profileErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		env.Profile, env.Diagnostics.Profile, profileErr = fetchOne(ctx, a.tracer, backend.ResourceProfile, businessID,
			func(ctx context.Context) (*backend.BusinessProfile, error) {
				return a.client.FetchProfile(ctx, businessID)
			})
	}()

	if opts.IncludeServices {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.Services, env.Diagnostics.Services, _ = fetchOne(ctx, a.tracer, backend.ResourceServices, businessID,
				func(ctx context.Context) ([]backend.ServiceItem, error) {
					return a.client.FetchServices(ctx, businessID, catalogOpts)
				})
		}()
	}
	if opts.IncludeProducts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.Products, env.Diagnostics.Products, _ = fetchOne(ctx, a.tracer, backend.ResourceProducts, businessID,
				func(ctx context.Context) ([]backend.ProductItem, error) {
					return a.client.FetchProducts(ctx, businessID, catalogOpts)
				})
		}()
	}
	if opts.IncludeProjects {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.Projects, env.Diagnostics.Projects, _ = fetchOne(ctx, a.tracer, backend.ResourceProjects, businessID,
				func(ctx context.Context) ([]backend.ProjectItem, error) {
					return a.client.FetchProjects(ctx, businessID, catalogOpts)
				})
		}()
	}
	if opts.IncludeLocations {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.Locations, env.Diagnostics.Locations, _ = fetchOne(ctx, a.tracer, backend.ResourceLocations, businessID,
				func(ctx context.Context) ([]backend.LocationItem, error) {
					return a.client.FetchLocations(ctx, businessID)
				})
		}()
	}
	if opts.IncludeCategories {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.Categories, env.Diagnostics.Categories, _ = fetchOne(ctx, a.tracer, backend.ResourceCategories, businessID,
				func(ctx context.Context) ([]backend.CategoryItem, error) {
					return a.client.FetchCategories(ctx, businessID)
				})
		}()
	}

	wg.Wait()
	a.finalize(env, opts)

	elapsed := time.Since(start)
	a.metrics.ObserveAggregationDuration(elapsed)

	switch {
	case ctx.Err() != nil:
		a.metrics.IncAggregationResult(metrics.ResultCanceled)
		observability.EndSpan(span, ctx.Err())
		return env, errors.WrapRetryable(ctx.Err(), errors.CategoryRuntime, errors.SeverityWarning, "aggregation canceled")
	case profileErr != nil:
		a.metrics.IncAggregationResult(metrics.ResultFatal)
		err := errors.MissingProfile(businessID)
		a.logger.Error("profile unavailable, page generation fatal",
			logfields.BusinessID(businessID),
			logfields.DurationMS(float64(elapsed.Milliseconds())),
			logfields.Error(profileErr))
		observability.EndSpan(span, err)
		return env, err
	case len(env.Diagnostics.Degraded) > 0:
		a.metrics.IncAggregationResult(metrics.ResultDegraded)
		a.logger.Warn("aggregation degraded",
			logfields.BusinessID(businessID),
			logfields.DurationMS(float64(elapsed.Milliseconds())),
			logfields.Error(errors.DegradedCatalog(businessID, env.Diagnostics.Degraded)))
		observability.EndSpan(span, nil)
		return env, nil
	default:
		a.metrics.IncAggregationResult(metrics.ResultSuccess)
		a.logger.Info("aggregation complete",
			logfields.BusinessID(businessID),
			logfields.DurationMS(float64(elapsed.Milliseconds())))
		observability.EndSpan(span, nil)
		return env, nil
	}
}

// finalize coerces failed catalog fetches to empty slices and collects the
// degraded list. Unrequested resources keep zero-value statuses.
func (a *Aggregator) finalize(env *Envelope, opts LoadOptions) {
	d := &env.Diagnostics
	if opts.IncludeServices {
		if env.Services == nil {
			env.Services = []backend.ServiceItem{}
		}
		if !d.Services.OK {
			d.Degraded = append(d.Degraded, backend.ResourceServices)
		}
	}
	if opts.IncludeProducts {
		if env.Products == nil {
			env.Products = []backend.ProductItem{}
		}
		if !d.Products.OK {
			d.Degraded = append(d.Degraded, backend.ResourceProducts)
		}
	}
	if opts.IncludeProjects {
		if env.Projects == nil {
			env.Projects = []backend.ProjectItem{}
		}
		if !d.Projects.OK {
			d.Degraded = append(d.Degraded, backend.ResourceProjects)
		}
	}
	if opts.IncludeLocations {
		if env.Locations == nil {
			env.Locations = []backend.LocationItem{}
		}
		if !d.Locations.OK {
			d.Degraded = append(d.Degraded, backend.ResourceLocations)
		}
	}
	if opts.IncludeCategories {
		if env.Categories == nil {
			env.Categories = []backend.CategoryItem{}
		}
		if !d.Categories.OK {
			d.Degraded = append(d.Degraded, backend.ResourceCategories)
		}
	}
}

// fetchOne runs a single resource fetch under its own span and produces the
// status record for diagnostics.
func fetchOne[T any](ctx context.Context, tracer *observability.TracerProvider, resource, businessID string, fn func(context.Context) (T, error)) (T, ResourceStatus, error) {
	ctx, span := tracer.StartFetchSpan(ctx, resource, businessID)
	start := time.Now()

	value, err := fn(ctx)
	status := ResourceStatus{
		Requested:  true,
		OK:         err == nil,
		DurationMS: float64(time.Since(start).Milliseconds()),
	}
	if err != nil {
		status.Error = err.Error()
	}
	observability.EndSpan(span, err)
	return value, status, err
}
