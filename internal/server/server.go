// Package server exposes the tenant-facing HTTP surface: the sitemap and
// robots endpoints, the page bundle API, diagnostics, health, and metrics.
// Tenant resolution happens in middleware; handlers only ever see a
// resolved business.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fieldsites/sitebuilder/internal/aggregator"
	"github.com/fieldsites/sitebuilder/internal/daemon"
	"github.com/fieldsites/sitebuilder/internal/errors"
	"github.com/fieldsites/sitebuilder/internal/pagestore"
	"github.com/fieldsites/sitebuilder/internal/seo"
	"github.com/fieldsites/sitebuilder/internal/tenant"
)

// Server wires the HTTP mux over the pipeline components.
type Server struct {
	resolver    *tenant.Resolver
	agg         *aggregator.Aggregator
	sitemaps    *seo.Builder
	store       *pagestore.Store
	regenerator *daemon.Regenerator

	logger     *slog.Logger
	errAdapter *errors.HTTPErrorAdapter
	metricsH   http.Handler

	httpServer *http.Server
}

// Options carries the optional pieces.
type Options struct {
	// MetricsHandler serves GET /metrics when set.
	MetricsHandler http.Handler
}

// New builds the server. The regenerator enables on-demand generation for
// routes with no stored bundle yet.
func New(listen string, resolver *tenant.Resolver, agg *aggregator.Aggregator, sitemaps *seo.Builder, store *pagestore.Store, regenerator *daemon.Regenerator, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		resolver:    resolver,
		agg:         agg,
		sitemaps:    sitemaps,
		store:       store,
		regenerator: regenerator,
		logger:      logger,
		errAdapter:  errors.NewHTTPErrorAdapter(logger),
		metricsH:    opts.MetricsHandler,
	}
	s.httpServer = &http.Server{
		Addr:              listen,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes assembles the mux and middleware chain.
func (s *Server) Routes() http.Handler {
	tenanted := http.NewServeMux()
	tenanted.HandleFunc("GET /sitemap.xml", s.handleSitemap)
	tenanted.HandleFunc("GET /robots.txt", s.handleRobots)
	tenanted.HandleFunc("GET /api/page/", s.handlePage)
	tenanted.HandleFunc("GET /api/diagnostics", s.handleDiagnostics)

	mux := http.NewServeMux()
	mux.Handle("/", s.withTenant(tenanted))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metricsH != nil {
		mux.Handle("GET /metrics", s.metricsH)
	}

	return s.withRecovery(s.withRequestLogging(mux))
}

// ListenAndServe runs the server until the context is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", slog.String("addr", s.httpServer.Addr))
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
