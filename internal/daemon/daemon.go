package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/fieldsites/sitebuilder/internal/backend"
	"github.com/fieldsites/sitebuilder/internal/config"
	"github.com/fieldsites/sitebuilder/internal/logfields"
	"github.com/fieldsites/sitebuilder/internal/tenant"
)

// Daemon owns the periodic revalidation schedule. Each resource window gets
// its own job, so volatile catalogs refresh faster than profiles. Windows
// stay independent; coalescing them would refresh profiles as often as the
// most volatile catalog.
type Daemon struct {
	scheduler   gocron.Scheduler
	regenerator *Regenerator
	resolver    *tenant.Resolver
	windows     config.RevalidateConfig
	logger      *slog.Logger
}

// New creates the daemon. Jobs are registered on Start.
func New(regenerator *Regenerator, resolver *tenant.Resolver, windows config.RevalidateConfig, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create gocron scheduler: %w", err)
	}
	return &Daemon{
		scheduler:   s,
		regenerator: regenerator,
		resolver:    resolver,
		windows:     windows,
		logger:      logger,
	}, nil
}

// Start registers one job per revalidation window and begins the schedule.
func (d *Daemon) Start(ctx context.Context) error {
	jobs := []struct {
		resource string
		interval time.Duration
	}{
		{backend.ResourceProfile, d.windows.ProfileWindow()},
		{backend.ResourceServices, d.windows.ServicesWindow()},
		{backend.ResourceProducts, d.windows.ProductsWindow()},
		{backend.ResourceProjects, d.windows.ProjectsWindow()},
	}

	for _, j := range jobs {
		resource := j.resource
		if j.interval <= 0 {
			d.logger.Info("revalidation window disabled, skipping job",
				logfields.Resource(resource))
			continue
		}
		_, err := d.scheduler.NewJob(
			gocron.DurationJob(j.interval),
			gocron.NewTask(func() { d.revalidate(ctx, resource) }),
			gocron.WithName(fmt.Sprintf("revalidate-%s", resource)),
		)
		if err != nil {
			return fmt.Errorf("schedule %s revalidation: %w", resource, err)
		}
		d.logger.Info("revalidation job scheduled",
			logfields.Resource(resource),
			slog.Duration("interval", j.interval))
	}

	d.scheduler.Start()
	return nil
}

// Stop gracefully shuts down the schedule.
func (d *Daemon) Stop() error {
	d.logger.Info("stopping revalidation daemon")
	return d.scheduler.Shutdown()
}

// revalidate runs one window's pass across every known business, dropping
// the response cache first so regeneration refetches upstream and rewrites
// the stored bundles.
func (d *Daemon) revalidate(ctx context.Context, resource string) {
	businesses := d.resolver.Businesses()
	d.logger.Debug("revalidation pass starting",
		logfields.Resource(resource),
		slog.Int("businesses", len(businesses)))

	for _, businessID := range businesses {
		if ctx.Err() != nil {
			return
		}
		if _, err := d.regenerator.RegenerateFresh(ctx, businessID); err != nil {
			d.logger.Warn("revalidation regeneration failed",
				logfields.Resource(resource),
				logfields.BusinessID(businessID),
				logfields.Error(err))
		}
	}
}
