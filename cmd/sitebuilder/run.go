package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/fieldsites/sitebuilder/internal/aggregator"
	"github.com/fieldsites/sitebuilder/internal/backend"
	"github.com/fieldsites/sitebuilder/internal/config"
	"github.com/fieldsites/sitebuilder/internal/daemon"
	"github.com/fieldsites/sitebuilder/internal/events"
	"github.com/fieldsites/sitebuilder/internal/metrics"
	"github.com/fieldsites/sitebuilder/internal/observability"
	"github.com/fieldsites/sitebuilder/internal/pagestore"
	"github.com/fieldsites/sitebuilder/internal/seo"
	"github.com/fieldsites/sitebuilder/internal/server"
	"github.com/fieldsites/sitebuilder/internal/tenant"
	"github.com/fieldsites/sitebuilder/internal/trades"
)

// pipeline holds the wired components shared by the commands.
type pipeline struct {
	cfg         *config.Config
	logger      *slog.Logger
	resolver    *tenant.Resolver
	agg         *aggregator.Aggregator
	registry    *trades.Registry
	store       *pagestore.Store
	sitemaps    *seo.Builder
	regenerator *daemon.Regenerator
	publisher   *events.Publisher
	recorder    metrics.Recorder
	promReg     *prom.Registry
}

// buildPipeline loads config and wires every component by constructor
// injection; nothing here touches package-level state except the default
// slog logger.
func buildPipeline(configPath string, withProm bool) (*pipeline, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := setupLogging(cfg.Logging)

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var promReg *prom.Registry
	if withProm {
		promReg = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(promReg)
	}

	client, err := backend.NewClient(cfg.Backend, cfg.Revalidate, logger, recorder)
	if err != nil {
		return nil, err
	}

	registry, err := trades.NewRegistry()
	if err != nil {
		return nil, err
	}

	mapping, err := tenant.LoadMapping(context.Background(), cfg.Tenants)
	if err != nil {
		return nil, err
	}
	tenantsCfg := cfg.Tenants
	tenantsCfg.Mapping = mapping
	resolver := tenant.NewResolver(tenantsCfg, cfg.IsProduction(), logger)

	storePath := cfg.Store.Path
	if storePath == "" {
		storePath = ":memory:"
	}
	store, err := pagestore.New(storePath)
	if err != nil {
		return nil, err
	}

	publisher, err := events.NewPublisher(cfg.Events, logger)
	if err != nil {
		logger.Warn("event publisher unavailable, continuing without events", "error", err)
		publisher = nil
	}

	tracer := observability.NewTracerProvider()
	agg := aggregator.New(client, cfg.App.Environment, logger, recorder, tracer)
	sitemaps := seo.NewBuilder(agg, registry, logger, recorder, tracer)
	regenerator := daemon.NewRegenerator(agg, registry, store, publisher, logger, recorder)

	return &pipeline{
		cfg:         cfg,
		logger:      logger,
		resolver:    resolver,
		agg:         agg,
		registry:    registry,
		store:       store,
		sitemaps:    sitemaps,
		regenerator: regenerator,
		publisher:   publisher,
		recorder:    recorder,
		promReg:     promReg,
	}, nil
}

func (p *pipeline) close() {
	p.publisher.Close()
	_ = p.store.Close()
}

func runServe(configPath string) error {
	p, err := buildPipeline(configPath, true)
	if err != nil {
		return err
	}
	defer p.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := daemon.New(p.regenerator, p.resolver, p.cfg.Revalidate, p.logger)
	if err != nil {
		return err
	}
	if err := d.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = d.Stop() }()

	watcher, err := daemon.NewMappingWatcher(configPath, p.resolver, p.logger)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = watcher.Stop() }()

	listen := p.cfg.Server.Listen
	if listen == "" {
		listen = ":8080"
	}
	srv := server.New(listen, p.resolver, p.agg, p.sitemaps, p.store, p.regenerator, p.logger, server.Options{
		MetricsHandler: metrics.HTTPHandler(p.promReg),
	})
	return srv.ListenAndServe(ctx)
}

func runGenerate(configPath, businessID string) error {
	p, err := buildPipeline(configPath, false)
	if err != nil {
		return err
	}
	defer p.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := tenant.ResolveOverride(businessID)
	if err != nil {
		return err
	}
	p.logger.Info("regenerating business",
		"business_id", res.BusinessID, "source", string(res.Source))

	result, err := p.regenerator.RegenerateFresh(ctx, res.BusinessID)
	if err != nil {
		return err
	}
	fmt.Printf("generated %d routes for %s\n", result.Routes, result.BusinessID)
	if len(result.Degraded) > 0 {
		fmt.Printf("degraded resources: %v\n", result.Degraded)
	}
	return nil
}

func runSitemap(configPath, businessID, baseURL string) error {
	p, err := buildPipeline(configPath, false)
	if err != nil {
		return err
	}
	defer p.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := tenant.ResolveOverride(businessID)
	if err != nil {
		return err
	}
	if baseURL == "" {
		baseURL = "https://localhost"
		if host, ok := p.resolver.HostFor(res.BusinessID); ok {
			baseURL = "https://" + host
		}
	}

	entries, err := p.sitemaps.Build(ctx, res.BusinessID, baseURL)
	if err != nil {
		return err
	}
	body, err := seo.RenderXML(entries)
	if err != nil {
		return err
	}
	if _, err := os.Stdout.Write(append(body, '\n')); err != nil {
		return err
	}

	if err := p.publisher.Publish(ctx, events.RegenerationEvent{
		Type:       events.EventSitemapRebuilt,
		BusinessID: res.BusinessID,
		Routes:     len(entries),
	}); err != nil {
		p.logger.Warn("failed to publish sitemap event", "error", err)
	}
	return nil
}

const starterConfig = `app:
  name: sitebuilder
  environment: development

backend:
  base_url: ${BACKEND_API_URL}
  timeout: 8s
  max_retries: 2
  retry_backoff: exponential

revalidate:
  profile: 1h
  services: 30m
  products: 15m
  projects: 10m

tenants:
  mapping:
    # coolbreeze.example.com: b-42
  default_business_id: ${DEFAULT_BUSINESS_ID}

server:
  listen: ":8080"

store:
  path: sitebuilder.db

events:
  enabled: false
  # nats_url: nats://localhost:4222
  # subject: sitebuilder.regenerated

logging:
  level: info
  format: text
`

// runMap edits the sqlite mapping table directly. The serve process picks
// the change up on the next config reload or restart.
func runMap(configPath, host, businessID string, remove bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Tenants.MappingDB == "" {
		return fmt.Errorf("tenants.mapping_db is not configured")
	}

	store, err := tenant.NewMappingStore(cfg.Tenants.MappingDB)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if remove {
		if err := store.Delete(ctx, host); err != nil {
			return err
		}
		fmt.Printf("removed mapping for %s\n", host)
		return nil
	}
	if businessID == "" {
		return fmt.Errorf("business id is required unless --remove is set")
	}
	if err := store.Put(ctx, host, businessID); err != nil {
		return err
	}
	fmt.Printf("mapped %s -> %s\n", host, businessID)
	return nil
}

func runInit(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}
	if err := os.WriteFile(configPath, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Printf("wrote %s\n", configPath)
	return nil
}
